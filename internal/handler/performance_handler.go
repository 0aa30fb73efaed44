package handler

import (
	"net/http"

	"vendor-service/internal/repository"
	"vendor-service/pkg/logger"
	"vendor-service/prometheus"

	"github.com/labstack/echo/v4"
)

// HistoricalPerformanceHandler serves the snapshot log
type HistoricalPerformanceHandler struct {
	history *repository.PerformanceLogRepo
}

// NewHistoricalPerformanceHandler creates the snapshot handler
func NewHistoricalPerformanceHandler(history *repository.PerformanceLogRepo) *HistoricalPerformanceHandler {
	return &HistoricalPerformanceHandler{history: history}
}

// List returns all snapshots, newest first
func (h *HistoricalPerformanceHandler) List(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordOperation("historical_performance_list")

	page := parsePage(c)
	snaps, total, err := h.history.List(c.Request().Context(), page)
	if err != nil {
		return respondError(c, log, "Failed to list historical performance", err)
	}
	return c.JSON(http.StatusOK, newListResponse(page, total, snaps))
}

// Get returns a single snapshot by external id
func (h *HistoricalPerformanceHandler) Get(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordOperation("historical_performance_get")

	snap, err := h.history.GetByExternalID(c.Request().Context(), c.Param("external_id"))
	if err != nil {
		return respondError(c, log, "Historical performance not found", err)
	}
	return c.JSON(http.StatusOK, snap)
}
