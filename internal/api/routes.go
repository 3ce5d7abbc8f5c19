package api

import (
	"alcyxob/fitness-schedule/internal/domain"
	"alcyxob/fitness-schedule/internal/health"
	"alcyxob/fitness-schedule/internal/service"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(
	router *gin.Engine,
	jwtSecret string,
	loc *time.Location,
	checker *health.Checker,
	planService service.PlanService,
	applyService service.ApplyService,
	scheduleService service.ScheduleService,
) {
	RegisterValidators()

	planHandler := NewPlanHandler(planService, applyService)
	scheduleHandler := NewScheduleHandler(scheduleService, loc)

	authMiddleware := AuthMiddleware(jwtSecret)
	adminOnly := RoleMiddleware(domain.RoleAdmin)

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})
	router.GET("/health/live", checker.LiveHandler())
	router.GET("/health/ready", checker.ReadyHandler())

	apiV1 := router.Group("/api/v1")
	protected := apiV1.Group("")
	protected.Use(authMiddleware)
	{
		protected.GET("/me", func(c *gin.Context) {
			userID, err := getUserIDFromContext(c)
			if err != nil {
				abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
				return
			}
			role, _ := getUserRoleFromContext(c)
			c.JSON(http.StatusOK, gin.H{"userId": userID.Hex(), "role": role})
		})

		// --- Plan Routes ---
		planGroup := protected.Group("/plans")
		{
			planGroup.GET("", planHandler.ListPlans)
			planGroup.GET("/:id", planHandler.GetPlan)
			// POST /api/v1/plans/apply - any authenticated user, applies to their own schedule
			planGroup.POST("/apply", planHandler.ApplyPlan)

			planGroup.POST("", adminOnly, planHandler.CreatePlan)
			planGroup.PUT("/:id", adminOnly, planHandler.UpdatePlan)
			planGroup.DELETE("/:id", adminOnly, planHandler.DeletePlan)
		}

		// --- Schedule Routes ---
		// Every route acts on the caller's own entries.
		scheduleGroup := protected.Group("/schedules")
		{
			scheduleGroup.GET("", scheduleHandler.ListSchedules)
			scheduleGroup.POST("", scheduleHandler.AddEntry)
			scheduleGroup.GET("/date/:date", scheduleHandler.GetDay)
			scheduleGroup.DELETE("/date/:date", scheduleHandler.ClearDay)
			scheduleGroup.GET("/:id", scheduleHandler.GetEntry)
			scheduleGroup.PATCH("/:id/status", scheduleHandler.UpdateStatus)
			scheduleGroup.DELETE("/:id", scheduleHandler.RemoveEntry)
		}
	}
}
