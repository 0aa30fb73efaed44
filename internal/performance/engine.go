package performance

import (
	"context"
	"errors"
	"fmt"
	"time"

	"vendor-service/internal/model"
	"vendor-service/internal/repository"
	"vendor-service/pkg/logger"
	"vendor-service/prometheus"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ErrNotAcknowledged is returned when a response-time recomputation runs for
// an order that has no acknowledgment date.
var ErrNotAcknowledged = errors.New("purchase order has not been acknowledged")

// Engine recomputes vendor indicators. Every recomputation loads the order,
// locks the vendor row, applies the update, checks the counter invariants,
// saves the vendor and appends a snapshot in one transaction.
type Engine struct {
	db      *gorm.DB
	vendors *repository.VendorRepo
	orders  *repository.PurchaseOrderRepo
	history *repository.PerformanceLogRepo
	log     *zap.Logger
	now     func() time.Time
}

// NewEngine creates a metrics engine
func NewEngine(db *gorm.DB, vendors *repository.VendorRepo, orders *repository.PurchaseOrderRepo, history *repository.PerformanceLogRepo, log *zap.Logger) *Engine {
	return &Engine{
		db:      db,
		vendors: vendors,
		orders:  orders,
		history: history,
		log:     log.With(zap.String("component", "performance_engine")),
		now:     time.Now,
	}
}

// RecalculateResponseTime folds the acknowledgment of poNumber into its
// vendor's average response time. A nil tx runs in a new transaction.
func (e *Engine) RecalculateResponseTime(ctx context.Context, tx *gorm.DB, poNumber string) (*model.Vendor, error) {
	var vendor *model.Vendor
	err := e.inTx(ctx, tx, func(tx *gorm.DB) error {
		po, err := e.orders.GetByNumber(ctx, tx, poNumber)
		if err != nil {
			return fmt.Errorf("load purchase order %s: %w", poNumber, err)
		}
		if po.AcknowledgmentDate == nil {
			return fmt.Errorf("purchase order %s: %w", poNumber, ErrNotAcknowledged)
		}

		vendor, err = e.vendors.LockByID(ctx, tx, po.VendorID)
		if err != nil {
			return fmt.Errorf("lock vendor %d: %w", po.VendorID, err)
		}

		minutes := ResponseMinutes(po)
		ApplyAcknowledgement(&vendor.PerformanceIndicators, &vendor.Counters, minutes)

		logger.FromCtxOr(ctx, e.log).Debug("Applied acknowledgement",
			zap.String("po_number", poNumber),
			zap.String("vendor_code", vendor.VendorCode),
			zap.Float64("response_minutes", minutes),
			zap.Float64("avg_response_time", vendor.AvgResponseTime))

		return e.persist(ctx, tx, vendor)
	})
	if err != nil {
		return nil, err
	}
	e.publish(vendor)
	return vendor, nil
}

// RecalculatePerformance folds the completion or cancellation of poNumber into
// its vendor's on-time, fulfillment and quality indicators. A nil tx runs in a
// new transaction.
func (e *Engine) RecalculatePerformance(ctx context.Context, tx *gorm.DB, poNumber string) (*model.Vendor, error) {
	var vendor *model.Vendor
	err := e.inTx(ctx, tx, func(tx *gorm.DB) error {
		po, err := e.orders.GetByNumber(ctx, tx, poNumber)
		if err != nil {
			return fmt.Errorf("load purchase order %s: %w", poNumber, err)
		}

		vendor, err = e.vendors.LockByID(ctx, tx, po.VendorID)
		if err != nil {
			return fmt.Errorf("lock vendor %d: %w", po.VendorID, err)
		}

		ApplyFulfilment(&vendor.PerformanceIndicators, &vendor.Counters, po, e.now())

		logger.FromCtxOr(ctx, e.log).Debug("Applied fulfilment",
			zap.String("po_number", poNumber),
			zap.String("status", po.Status),
			zap.String("vendor_code", vendor.VendorCode),
			zap.Float64("on_time_delivery_rate", vendor.OnTimeDeliveryRate),
			zap.Float64("fulfillment_rate", vendor.FulfillmentRate),
			zap.Float64("quality_rating_avg", vendor.QualityRatingAvg))

		return e.persist(ctx, tx, vendor)
	})
	if err != nil {
		return nil, err
	}
	e.publish(vendor)
	return vendor, nil
}

func (e *Engine) persist(ctx context.Context, tx *gorm.DB, vendor *model.Vendor) error {
	if err := e.vendors.SaveMetrics(ctx, tx, vendor); err != nil {
		return fmt.Errorf("save vendor %s: %w", vendor.VendorCode, err)
	}
	if _, err := e.history.Append(ctx, tx, vendor.ID, vendor.PerformanceIndicators, e.now()); err != nil {
		return fmt.Errorf("append snapshot for vendor %s: %w", vendor.VendorCode, err)
	}
	return nil
}

func (e *Engine) publish(v *model.Vendor) {
	prometheus.UpdateVendorPerformance(v.VendorCode,
		v.OnTimeDeliveryRate, v.QualityRatingAvg, v.AvgResponseTime, v.FulfillmentRate)
}

func (e *Engine) inTx(ctx context.Context, tx *gorm.DB, fn func(tx *gorm.DB) error) error {
	if tx != nil {
		return fn(tx)
	}
	return e.db.WithContext(ctx).Transaction(fn)
}
