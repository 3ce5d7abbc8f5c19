package api

import (
	"alcyxob/fitness-schedule/internal/domain"
	"alcyxob/fitness-schedule/internal/service"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// defaultRangeDays is how far a schedule listing reaches when "to" is omitted.
const defaultRangeDays = 7

// ScheduleHandler serves a user's own schedule.
type ScheduleHandler struct {
	scheduleService service.ScheduleService
	loc             *time.Location
	now             func() time.Time
}

func NewScheduleHandler(scheduleService service.ScheduleService, loc *time.Location) *ScheduleHandler {
	return &ScheduleHandler{scheduleService: scheduleService, loc: loc, now: time.Now}
}

type AddEntryRequest struct {
	Category string `json:"category" binding:"required,oneof=training meal"`
	ItemRef  string `json:"itemRef" binding:"required"`
	Subtype  string `json:"subtype" binding:"omitempty,mealslot"`
	Date     string `json:"date" binding:"required,calendardate"`
	Time     string `json:"time"`
	Note     string `json:"note" binding:"max=500"`
}

type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=pending done skipped"`
}

// ListSchedules godoc
// @Summary List the caller's schedule entries
// @Param from query string false "first day, defaults to today"
// @Param to query string false "last day, defaults to from + 6"
// @Router /schedules [get]
func (h *ScheduleHandler) ListSchedules(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}

	from := domain.DateOf(h.now(), h.loc)
	if raw := c.Query("from"); raw != "" {
		d, err := domain.ParseDate(raw, h.loc)
		if err != nil {
			abortWithError(c, http.StatusBadRequest, "Invalid 'from' date: "+err.Error())
			return
		}
		from = d
	}
	to := from.AddDays(defaultRangeDays - 1)
	if raw := c.Query("to"); raw != "" {
		d, err := domain.ParseDate(raw, h.loc)
		if err != nil {
			abortWithError(c, http.StatusBadRequest, "Invalid 'to' date: "+err.Error())
			return
		}
		to = d
	}

	entries, err := h.scheduleService.ListRange(c.Request.Context(), userID, from, to)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	if entries == nil {
		entries = []domain.ScheduleEntry{}
	}
	c.JSON(http.StatusOK, gin.H{"from": from, "to": to, "entries": entries})
}

// GetDay returns one day with item names and image links.
// @Router /schedules/date/{date} [get]
func (h *ScheduleHandler) GetDay(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}
	date, ok := h.parseDateParam(c)
	if !ok {
		return
	}

	items, err := h.scheduleService.GetDay(c.Request.Context(), userID, date)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	if items == nil {
		items = []domain.ScheduleItem{}
	}
	c.JSON(http.StatusOK, gin.H{"date": date, "items": items})
}

func (h *ScheduleHandler) GetEntry(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	entry, err := h.scheduleService.GetEntry(c.Request.Context(), userID, id)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, entry)
}

// AddEntry puts a single catalogue item on the caller's calendar.
// @Router /schedules [post]
func (h *ScheduleHandler) AddEntry(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}
	var req AddEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	itemRef, err := primitive.ObjectIDFromHex(req.ItemRef)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid itemRef format.")
		return
	}

	entry, err := h.scheduleService.AddEntry(c.Request.Context(), userID, service.NewEntryInput{
		Category: domain.Category(req.Category),
		ItemRef:  itemRef,
		Subtype:  req.Subtype,
		Date:     req.Date,
		Time:     req.Time,
		Note:     req.Note,
	})
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, entry)
}

// UpdateStatus godoc
// @Router /schedules/{id}/status [patch]
func (h *ScheduleHandler) UpdateStatus(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	if err := h.scheduleService.UpdateStatus(c.Request.Context(), userID, id, domain.EntryStatus(req.Status)); err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id.Hex(), "status": req.Status})
}

func (h *ScheduleHandler) RemoveEntry(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.scheduleService.RemoveEntry(c.Request.Context(), userID, id); err != nil {
		handleServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ClearDay removes every entry on a date.
// @Router /schedules/date/{date} [delete]
func (h *ScheduleHandler) ClearDay(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}
	date, ok := h.parseDateParam(c)
	if !ok {
		return
	}
	deleted, err := h.scheduleService.ClearDay(c.Request.Context(), userID, date)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"date": date, "deleted": deleted})
}

func (h *ScheduleHandler) currentUser(c *gin.Context) (primitive.ObjectID, bool) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify user from token.")
		return primitive.NilObjectID, false
	}
	return userID, true
}

func (h *ScheduleHandler) parseDateParam(c *gin.Context) (domain.Date, bool) {
	date, err := domain.ParseDate(c.Param("date"), h.loc)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid date: "+err.Error())
		return domain.Date{}, false
	}
	return date, true
}
