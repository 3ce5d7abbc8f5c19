package api

import (
	"alcyxob/fitness-schedule/internal/domain"
	"alcyxob/fitness-schedule/internal/repository"
	"alcyxob/fitness-schedule/internal/service"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PlanHandler serves the plan catalogue and plan application.
type PlanHandler struct {
	planService  service.PlanService
	applyService service.ApplyService
}

func NewPlanHandler(planService service.PlanService, applyService service.ApplyService) *PlanHandler {
	return &PlanHandler{planService: planService, applyService: applyService}
}

// --- DTOs ---

// ApplyPlanRequest defines the expected JSON for applying a plan.
type ApplyPlanRequest struct {
	PlanID          string `json:"planId" binding:"required"`
	StartDate       string `json:"startDate" binding:"required,calendardate"` // "YYYY-MM-DD"
	ReplaceExisting bool   `json:"replaceExisting"`
}

type PlanEntryRequest struct {
	DayOfWeek string `json:"dayOfWeek" binding:"omitempty,weekday"`
	DayNumber int    `json:"dayNumber" binding:"omitempty,min=1,max=30"`
	ItemRef   string `json:"itemRef" binding:"required"`
	Subtype   string `json:"subtype" binding:"omitempty,mealslot"`
	Time      string `json:"time"`
}

// PlanRequest is the body of plan create and update calls.
type PlanRequest struct {
	Name        string             `json:"name" binding:"required"`
	Description string             `json:"description"`
	Type        string             `json:"type" binding:"required,oneof=daily weekly monthly"`
	Category    string             `json:"category" binding:"required,oneof=training meal"`
	Level       string             `json:"level"`
	Goals       []string           `json:"goals"`
	Entries     []PlanEntryRequest `json:"entries" binding:"required,min=1,dive"`
	IsActive    *bool              `json:"isActive"`
}

func (r *PlanRequest) toDomain() (*domain.Plan, error) {
	plan := &domain.Plan{
		Name:        r.Name,
		Description: r.Description,
		Type:        domain.PlanType(r.Type),
		Category:    domain.Category(r.Category),
		Level:       r.Level,
		Goals:       r.Goals,
		Entries:     make([]domain.PlanEntry, 0, len(r.Entries)),
		IsActive:    true,
	}
	if r.IsActive != nil {
		plan.IsActive = *r.IsActive
	}
	for i, e := range r.Entries {
		ref, err := primitive.ObjectIDFromHex(e.ItemRef)
		if err != nil {
			return nil, fmt.Errorf("entries[%d].itemRef is not a valid id", i)
		}
		plan.Entries = append(plan.Entries, domain.PlanEntry{
			DayOfWeek: domain.Weekday(e.DayOfWeek),
			DayNumber: e.DayNumber,
			ItemRef:   ref,
			Subtype:   domain.MealSlot(e.Subtype),
			Time:      e.Time,
		})
	}
	return plan, nil
}

// --- Handler Methods ---

// ApplyPlan materializes a plan into the caller's schedule.
// @Router /plans/apply [post]
func (h *PlanHandler) ApplyPlan(c *gin.Context) {
	var req ApplyPlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify user from token.")
		return
	}

	result, err := h.applyService.ApplyPlan(c.Request.Context(), userID, req.PlanID, req.StartDate, req.ReplaceExisting)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// ListPlans godoc
// @Summary List plans
// @Param type query string false "daily | weekly | monthly"
// @Param category query string false "training | meal"
// @Router /plans [get]
func (h *PlanHandler) ListPlans(c *gin.Context) {
	filter := repository.PlanFilter{
		Type:       domain.PlanType(c.Query("type")),
		Category:   domain.Category(c.Query("category")),
		Goal:       c.Query("goal"),
		Level:      c.Query("level"),
		ActiveOnly: true,
	}
	plans, err := h.planService.ListPlans(c.Request.Context(), filter)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	if plans == nil {
		plans = []domain.Plan{}
	}
	c.JSON(http.StatusOK, plans)
}

func (h *PlanHandler) GetPlan(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	plan, err := h.planService.GetPlan(c.Request.Context(), id)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, plan)
}

// CreatePlan requires the admin role.
// @Router /plans [post]
func (h *PlanHandler) CreatePlan(c *gin.Context) {
	var req PlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	plan, err := req.toDomain()
	if err != nil {
		abortWithError(c, http.StatusBadRequest, err.Error())
		return
	}

	created, err := h.planService.CreatePlan(c.Request.Context(), plan)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

// UpdatePlan replaces a plan's content. Requires the admin role.
// @Router /plans/{id} [put]
func (h *PlanHandler) UpdatePlan(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req PlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	plan, err := req.toDomain()
	if err != nil {
		abortWithError(c, http.StatusBadRequest, err.Error())
		return
	}
	plan.ID = id

	updated, err := h.planService.UpdatePlan(c.Request.Context(), plan)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (h *PlanHandler) DeletePlan(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.planService.DeletePlan(c.Request.Context(), id); err != nil {
		handleServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// parseIDParam reads an ObjectID path parameter, answering 400 when malformed.
func parseIDParam(c *gin.Context, name string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(c.Param(name))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Invalid %s format.", name))
		return primitive.NilObjectID, false
	}
	return id, true
}
