package handler

import (
	"context"
	"net/http"
	"strings"

	"vendor-service/internal/middleware"
	"vendor-service/internal/model"
	"vendor-service/internal/repository"
	"vendor-service/pkg/logger"
	"vendor-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// VendorRequest defines the structure for vendor creation requests
type VendorRequest struct {
	Name           string `json:"name"`
	Address        string `json:"address"`
	ContactDetails string `json:"contact_details"`
	VendorType     string `json:"vendor_type"`
}

// VendorPatchRequest holds the fields of a partial vendor update
type VendorPatchRequest struct {
	Name           *string `json:"name"`
	Address        *string `json:"address"`
	ContactDetails *string `json:"contact_details"`
	VendorType     *string `json:"vendor_type"`
}

// PerformanceResponse is the current indicator set of a vendor
type PerformanceResponse struct {
	VendorCode string `json:"vendor_code"`
	model.PerformanceIndicators
}

// VendorHandler serves the vendor endpoints
type VendorHandler struct {
	vendors *repository.VendorRepo
	history *repository.PerformanceLogRepo
}

// NewVendorHandler creates the vendor handler
func NewVendorHandler(vendors *repository.VendorRepo, history *repository.PerformanceLogRepo) *VendorHandler {
	return &VendorHandler{vendors: vendors, history: history}
}

// CreateVendor creates a vendor with zeroed indicators
func (h *VendorHandler) CreateVendor(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordOperation("vendor_create")

	var req VendorRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Error(err))
		return badRequest(c, "Invalid request data")
	}
	if strings.TrimSpace(req.Name) == "" {
		return badRequest(c, "name is required")
	}

	vendor := &model.Vendor{
		Name:           req.Name,
		Address:        req.Address,
		ContactDetails: req.ContactDetails,
		VendorType:     req.VendorType,
	}
	if err := h.vendors.Create(c.Request().Context(), nil, vendor); err != nil {
		return respondError(c, log, "Failed to create vendor", err)
	}

	go h.updateVendorCount()

	fields := []zap.Field{
		zap.String("vendor_code", vendor.VendorCode),
		zap.String("name", vendor.Name),
	}
	if claims, ok := middleware.CurrentUser(c); ok {
		fields = append(fields, zap.String("created_by", claims.Email))
	}
	log.Info("Vendor created successfully", fields...)
	return c.JSON(http.StatusCreated, vendor)
}

// GetVendor returns a vendor by code
func (h *VendorHandler) GetVendor(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordOperation("vendor_get")

	vendor, err := h.vendors.GetByCode(c.Request().Context(), nil, c.Param("vendor_code"))
	if err != nil {
		return respondError(c, log, "Vendor not found", err)
	}
	return c.JSON(http.StatusOK, vendor)
}

// ListVendors lists vendors filtered by name or vendor_type and ordered by a rate field
func (h *VendorHandler) ListVendors(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordOperation("vendor_list")

	page := parsePage(c)
	filter := repository.VendorFilter{
		Name:       c.QueryParam("name"),
		VendorType: c.QueryParam("vendor_type"),
		Ordering:   c.QueryParam("ordering"),
		Page:       page,
	}

	vendors, total, err := h.vendors.List(c.Request().Context(), filter)
	if err != nil {
		return respondError(c, log, "Failed to list vendors", err)
	}

	log.Info("Vendors retrieved successfully",
		zap.Int("count", len(vendors)),
		zap.Int64("total", total))
	return c.JSON(http.StatusOK, newListResponse(page, total, vendors))
}

// UpdateVendor applies a partial update to the descriptive fields
func (h *VendorHandler) UpdateVendor(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordOperation("vendor_update")
	ctx := c.Request().Context()

	var req VendorPatchRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Error(err))
		return badRequest(c, "Invalid request data")
	}

	vendor, err := h.vendors.GetByCode(ctx, nil, c.Param("vendor_code"))
	if err != nil {
		return respondError(c, log, "Vendor not found for update", err)
	}

	if req.Name != nil {
		if strings.TrimSpace(*req.Name) == "" {
			return badRequest(c, "name cannot be empty")
		}
		vendor.Name = *req.Name
	}
	if req.Address != nil {
		vendor.Address = *req.Address
	}
	if req.ContactDetails != nil {
		vendor.ContactDetails = *req.ContactDetails
	}
	if req.VendorType != nil {
		vendor.VendorType = *req.VendorType
	}

	if err := h.vendors.UpdateDetails(ctx, nil, vendor); err != nil {
		return respondError(c, log, "Failed to update vendor", err)
	}

	log.Info("Vendor updated successfully", zap.String("vendor_code", vendor.VendorCode))
	return c.JSON(http.StatusOK, vendor)
}

// DeleteVendor soft-deletes a vendor
func (h *VendorHandler) DeleteVendor(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordOperation("vendor_delete")

	code := c.Param("vendor_code")
	if err := h.vendors.SoftDelete(c.Request().Context(), nil, code); err != nil {
		return respondError(c, log, "Failed to delete vendor", err)
	}

	go h.updateVendorCount()

	log.Info("Vendor deleted successfully", zap.String("vendor_code", code))
	return c.NoContent(http.StatusNoContent)
}

// GetPerformance returns the vendor's four current indicators
func (h *VendorHandler) GetPerformance(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordOperation("vendor_performance")

	vendor, err := h.vendors.GetByCode(c.Request().Context(), nil, c.Param("vendor_code"))
	if err != nil {
		return respondError(c, log, "Vendor not found", err)
	}
	return c.JSON(http.StatusOK, PerformanceResponse{
		VendorCode:            vendor.VendorCode,
		PerformanceIndicators: vendor.PerformanceIndicators,
	})
}

// ListHistoricalPerformance lists a vendor's snapshots, newest first. It also
// serves soft-deleted vendors.
func (h *VendorHandler) ListHistoricalPerformance(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordOperation("vendor_historical_performance")
	ctx := c.Request().Context()

	vendor, err := h.vendors.GetByCodeUnscoped(ctx, nil, c.Param("vendor_code"))
	if err != nil {
		return respondError(c, log, "Vendor not found", err)
	}

	page := parsePage(c)
	snaps, total, err := h.history.ListByVendor(ctx, vendor.ID, page)
	if err != nil {
		return respondError(c, log, "Failed to list historical performance", err)
	}
	return c.JSON(http.StatusOK, newListResponse(page, total, snaps))
}

// updateVendorCount refreshes the active vendors gauge
func (h *VendorHandler) updateVendorCount() {
	count, err := h.vendors.Count(context.Background())
	if err != nil {
		logger.GetLogger().Warn("Failed to count vendors", zap.Error(err))
		return
	}
	prometheus.UpdateActiveVendors(count)
}
