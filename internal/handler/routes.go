package handler

import (
	"vendor-service/internal/middleware"
	"vendor-service/pkg/jwtutil"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handlers groups every HTTP handler of the service
type Handlers struct {
	Health                *HealthHandler
	Auth                  *AuthHandler
	Vendors               *VendorHandler
	PurchaseOrders        *PurchaseOrderHandler
	HistoricalPerformance *HistoricalPerformanceHandler
}

// RegisterRoutes mounts the public and the token-protected routes on e
func RegisterRoutes(e *echo.Echo, h Handlers, tokens *jwtutil.JWTUtil) {
	// Public routes that don't require authentication
	e.GET("/", Hello)
	e.GET("/health", h.Health.Health)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	auth := e.Group("/api/auth")
	auth.POST("/register", h.Auth.Register)
	auth.POST("/login", h.Auth.Login)

	// API routes that require authentication
	api := e.Group("/api")
	api.Use(middleware.AuthMiddleware(tokens))

	vendors := api.Group("/vendors")
	vendors.POST("", h.Vendors.CreateVendor)
	vendors.GET("", h.Vendors.ListVendors)
	vendors.GET("/:vendor_code", h.Vendors.GetVendor)
	vendors.PATCH("/:vendor_code", h.Vendors.UpdateVendor)
	vendors.DELETE("/:vendor_code", h.Vendors.DeleteVendor)
	vendors.GET("/:vendor_code/performance", h.Vendors.GetPerformance)
	vendors.GET("/:vendor_code/historical_performance", h.Vendors.ListHistoricalPerformance)

	orders := api.Group("/purchase_orders")
	orders.POST("", h.PurchaseOrders.CreatePurchaseOrder)
	orders.GET("", h.PurchaseOrders.ListPurchaseOrders)
	orders.GET("/:po_number", h.PurchaseOrders.GetPurchaseOrder)
	orders.PATCH("/:po_number", h.PurchaseOrders.UpdatePurchaseOrder)
	orders.DELETE("/:po_number", h.PurchaseOrders.DeletePurchaseOrder)
	orders.POST("/:po_number/acknowledge", h.PurchaseOrders.Acknowledge)
	orders.POST("/:po_number/complete", h.PurchaseOrders.Complete)
	orders.POST("/:po_number/cancel", h.PurchaseOrders.Cancel)

	history := api.Group("/historical_performance")
	history.GET("", h.HistoricalPerformance.List)
	history.GET("/:external_id", h.HistoricalPerformance.Get)
}
