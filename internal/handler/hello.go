package handler

import (
	"net/http"

	"vendor-service/internal/model"
	"vendor-service/internal/repository"
	"vendor-service/pkg/logger"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Hello returns the service banner on the root endpoint
func Hello(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status":  "success",
		"message": "Vendor Service API is running",
		"version": "1.0.0",
	})
}

// HealthHandler reports database reachability and the job backlog
type HealthHandler struct {
	db   *gorm.DB
	jobs *repository.JobRunRepo
}

// NewHealthHandler creates the health handler
func NewHealthHandler(db *gorm.DB, jobs *repository.JobRunRepo) *HealthHandler {
	return &HealthHandler{db: db, jobs: jobs}
}

// Health pings the database and reports queued and failed jobs
func (h *HealthHandler) Health(c echo.Context) error {
	ctx := c.Request().Context()

	sqlDB, err := h.db.DB()
	if err == nil {
		err = sqlDB.PingContext(ctx)
	}
	if err != nil {
		logger.FromContext(c).Warn("Health check failed", zap.Error(err))
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"status": "unavailable"})
	}

	resp := echo.Map{"status": "ok"}
	for _, status := range []string{model.JobStatusQueued, model.JobStatusFailed} {
		if n, err := h.jobs.CountByStatus(ctx, status); err == nil {
			resp["jobs_"+status] = n
		}
	}
	return c.JSON(http.StatusOK, resp)
}
