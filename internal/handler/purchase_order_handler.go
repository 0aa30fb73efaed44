package handler

import (
	"net/http"

	"vendor-service/internal/model"
	"vendor-service/internal/purchaseorder"
	"vendor-service/internal/repository"
	"vendor-service/pkg/logger"
	"vendor-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// PurchaseOrderRequest defines the structure for purchase order creation.
// VendorID is the vendor's code.
type PurchaseOrderRequest struct {
	VendorID     string      `json:"vendor_id"`
	Items        model.Items `json:"items"`
	DeliveryDate string      `json:"delivery_date"`
}

// PurchaseOrderPatchRequest holds the mutable fields of a pending order
type PurchaseOrderPatchRequest struct {
	Items        model.Items `json:"items"`
	DeliveryDate *string     `json:"delivery_date"`
}

// CompleteRequest carries the quality rating of a completed order
type CompleteRequest struct {
	QualityRating *float64 `json:"quality_rating"`
}

// PurchaseOrderHandler serves the purchase order endpoints
type PurchaseOrderHandler struct {
	orders *purchaseorder.Service
}

// NewPurchaseOrderHandler creates the purchase order handler
func NewPurchaseOrderHandler(orders *purchaseorder.Service) *PurchaseOrderHandler {
	return &PurchaseOrderHandler{orders: orders}
}

// CreatePurchaseOrder places a pending order with a vendor
func (h *PurchaseOrderHandler) CreatePurchaseOrder(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordOperation("purchase_order_create")

	var req PurchaseOrderRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Error(err))
		return badRequest(c, "Invalid request data")
	}

	in := purchaseorder.CreateInput{VendorCode: req.VendorID, Items: req.Items}
	if req.DeliveryDate != "" {
		d, err := parseDate(req.DeliveryDate)
		if err != nil {
			return badRequest(c, "delivery_date must be a date or RFC 3339 timestamp")
		}
		in.DeliveryDate = d
	}

	po, err := h.orders.Create(c.Request().Context(), in)
	if err != nil {
		return respondError(c, log, "Failed to create purchase order", err)
	}
	return c.JSON(http.StatusCreated, po)
}

// GetPurchaseOrder returns an order by number
func (h *PurchaseOrderHandler) GetPurchaseOrder(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordOperation("purchase_order_get")

	po, err := h.orders.Get(c.Request().Context(), c.Param("po_number"))
	if err != nil {
		return respondError(c, log, "Purchase order not found", err)
	}
	return c.JSON(http.StatusOK, po)
}

// ListPurchaseOrders lists orders, optionally filtered by vendor_name or vendor_code
func (h *PurchaseOrderHandler) ListPurchaseOrders(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordOperation("purchase_order_list")

	page := parsePage(c)
	orders, total, err := h.orders.List(c.Request().Context(), repository.PurchaseOrderFilter{
		VendorName: c.QueryParam("vendor_name"),
		VendorCode: c.QueryParam("vendor_code"),
		Page:       page,
	})
	if err != nil {
		return respondError(c, log, "Failed to list purchase orders", err)
	}

	log.Info("Purchase orders retrieved successfully",
		zap.Int("count", len(orders)),
		zap.Int64("total", total))
	return c.JSON(http.StatusOK, newListResponse(page, total, orders))
}

// UpdatePurchaseOrder changes the items or delivery date of a pending order
func (h *PurchaseOrderHandler) UpdatePurchaseOrder(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordOperation("purchase_order_update")

	var req PurchaseOrderPatchRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Error(err))
		return badRequest(c, "Invalid request data")
	}

	in := purchaseorder.UpdateInput{Items: req.Items}
	if req.DeliveryDate != nil {
		d, err := parseDate(*req.DeliveryDate)
		if err != nil {
			return badRequest(c, "delivery_date must be a date or RFC 3339 timestamp")
		}
		in.DeliveryDate = &d
	}

	po, err := h.orders.Update(c.Request().Context(), c.Param("po_number"), in)
	if err != nil {
		return respondError(c, log, "Failed to update purchase order", err)
	}
	return c.JSON(http.StatusOK, po)
}

// DeletePurchaseOrder removes an order
func (h *PurchaseOrderHandler) DeletePurchaseOrder(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordOperation("purchase_order_delete")

	if err := h.orders.Delete(c.Request().Context(), c.Param("po_number")); err != nil {
		return respondError(c, log, "Failed to delete purchase order", err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Acknowledge records the vendor's acknowledgment
func (h *PurchaseOrderHandler) Acknowledge(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordOperation("purchase_order_acknowledge")

	po, err := h.orders.Acknowledge(c.Request().Context(), c.Param("po_number"))
	if err != nil {
		return respondError(c, log, "Failed to acknowledge purchase order", err)
	}
	return c.JSON(http.StatusOK, po)
}

// Complete marks the order completed with a quality rating
func (h *PurchaseOrderHandler) Complete(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordOperation("purchase_order_complete")

	var req CompleteRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Error(err))
		return badRequest(c, "Invalid request data")
	}

	po, err := h.orders.Complete(c.Request().Context(), c.Param("po_number"), req.QualityRating)
	if err != nil {
		return respondError(c, log, "Failed to complete purchase order", err)
	}
	return c.JSON(http.StatusOK, po)
}

// Cancel marks the order cancelled
func (h *PurchaseOrderHandler) Cancel(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordOperation("purchase_order_cancel")

	po, err := h.orders.Cancel(c.Request().Context(), c.Param("po_number"))
	if err != nil {
		return respondError(c, log, "Failed to cancel purchase order", err)
	}
	return c.JSON(http.StatusOK, po)
}
