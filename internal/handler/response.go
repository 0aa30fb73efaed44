package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"vendor-service/internal/purchaseorder"
	"vendor-service/internal/repository"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

const (
	defaultLimit = 10
	maxLimit     = 30
)

// ListResponse is the limit/offset envelope of every list endpoint
type ListResponse struct {
	Count       int64       `json:"count"`
	Offset      int         `json:"offset"`
	HasPrevious bool        `json:"has_previous"`
	HasNext     bool        `json:"has_next"`
	Results     interface{} `json:"results"`
}

func parsePage(c echo.Context) repository.Page {
	limit, err := strconv.Atoi(c.QueryParam("limit"))
	if err != nil || limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}

	offset, err := strconv.Atoi(c.QueryParam("offset"))
	if err != nil || offset < 0 {
		offset = 0
	}
	return repository.Page{Limit: limit, Offset: offset}
}

func newListResponse(page repository.Page, count int64, results interface{}) ListResponse {
	return ListResponse{
		Count:       count,
		Offset:      page.Offset,
		HasPrevious: page.Offset > 0,
		HasNext:     int64(page.Offset+page.Limit) < count,
		Results:     results,
	}
}

// errorStatus maps domain errors onto HTTP status codes. Anything else,
// including invariant violations, is a 500 without details.
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound, "Not found"
	case errors.Is(err, repository.ErrDuplicate):
		return http.StatusConflict, err.Error()
	case errors.Is(err, repository.ErrInvalidOrdering),
		errors.Is(err, purchaseorder.ErrAlreadyAcknowledged),
		errors.Is(err, purchaseorder.ErrAlreadyCompleted),
		errors.Is(err, purchaseorder.ErrAlreadyCancelled),
		errors.Is(err, purchaseorder.ErrTerminalState),
		errors.Is(err, purchaseorder.ErrNotPending),
		errors.Is(err, purchaseorder.ErrQualityRatingRequired),
		errors.Is(err, purchaseorder.ErrInvalidItems),
		errors.Is(err, purchaseorder.ErrDeliveryDateRequired),
		errors.Is(err, purchaseorder.ErrVendorRequired):
		return http.StatusBadRequest, err.Error()
	}
	return http.StatusInternalServerError, "Internal server error"
}

func respondError(c echo.Context, log *zap.Logger, msg string, err error) error {
	status, text := errorStatus(err)
	if status >= http.StatusInternalServerError {
		log.Error(msg, zap.Error(err))
	} else {
		log.Warn(msg, zap.Int("status", status), zap.Error(err))
	}
	return c.JSON(status, echo.Map{"error": text})
}

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
}

// parseDate accepts RFC 3339 timestamps and plain dates
func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", s)
}
