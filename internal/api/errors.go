package api

import (
	"alcyxob/fitness-schedule/internal/service"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
)

// handleServiceError maps service errors onto HTTP responses. Unexpected
// errors are logged and reported without their details.
func handleServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidArgument):
		abortWithError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrPlanNotFound), errors.Is(err, service.ErrEntryNotFound):
		abortWithError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrEntryExists), errors.Is(err, service.ErrApplyInProgress):
		abortWithError(c, http.StatusConflict, err.Error())
	default:
		_ = c.Error(err)
		slog.ErrorContext(c.Request.Context(), "request failed",
			slog.String("request_id", c.GetString(ContextRequestIDKey)),
			slog.String("path", c.FullPath()),
			slog.String("error", err.Error()),
		)
		abortWithError(c, http.StatusInternalServerError, "An unexpected error occurred")
	}
}
