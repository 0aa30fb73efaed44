// Package purchaseorder implements the purchase order lifecycle:
// pending orders are acknowledged, then completed or cancelled.
package purchaseorder

import (
	"context"
	"fmt"
	"time"

	"vendor-service/internal/model"
	"vendor-service/internal/performance"
	"vendor-service/internal/repository"
	"vendor-service/pkg/logger"
	"vendor-service/prometheus"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Enqueuer schedules background recomputations
type Enqueuer interface {
	Enqueue(ctx context.Context, tx *gorm.DB, task, orderNumber string) (string, error)
	Wake(ctx context.Context, jobID string)
}

// CreateInput describes a new purchase order
type CreateInput struct {
	VendorCode   string
	Items        model.Items
	DeliveryDate time.Time
}

// UpdateInput holds the mutable fields; nil leaves a field unchanged
type UpdateInput struct {
	Items        model.Items
	DeliveryDate *time.Time
}

// Service validates and commits lifecycle transitions
type Service struct {
	db      *gorm.DB
	vendors *repository.VendorRepo
	orders  *repository.PurchaseOrderRepo
	queue   Enqueuer
	log     *zap.Logger
	now     func() time.Time
}

// NewService creates the purchase order service
func NewService(db *gorm.DB, vendors *repository.VendorRepo, orders *repository.PurchaseOrderRepo, queue Enqueuer, log *zap.Logger) *Service {
	return &Service{
		db:      db,
		vendors: vendors,
		orders:  orders,
		queue:   queue,
		log:     log.With(zap.String("component", "purchase_orders")),
		now:     time.Now,
	}
}

func validateItems(items model.Items) error {
	if len(items) == 0 {
		return ErrInvalidItems
	}
	for id, qty := range items {
		if id == "" || qty <= 0 {
			return fmt.Errorf("%w: %q=%d", ErrInvalidItems, id, qty)
		}
	}
	return nil
}

// Create places a pending order with the vendor and counts it on the vendor
// in the same transaction.
func (s *Service) Create(ctx context.Context, in CreateInput) (*model.PurchaseOrder, error) {
	if in.VendorCode == "" {
		return nil, ErrVendorRequired
	}
	if err := validateItems(in.Items); err != nil {
		return nil, err
	}
	if in.DeliveryDate.IsZero() {
		return nil, ErrDeliveryDateRequired
	}

	var po *model.PurchaseOrder
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		vendor, err := s.vendors.LockByCode(ctx, tx, in.VendorCode)
		if err != nil {
			return fmt.Errorf("vendor %s: %w", in.VendorCode, err)
		}

		now := s.now()
		po = &model.PurchaseOrder{
			VendorID:     vendor.ID,
			OrderDate:    now,
			IssueDate:    now,
			DeliveryDate: in.DeliveryDate,
			Status:       model.StatusPending,
		}
		po.SetItems(in.Items)
		if err := s.orders.Create(ctx, tx, po); err != nil {
			return err
		}

		vendor.Counters.TotPOs++
		if err := s.vendors.SaveMetrics(ctx, tx, vendor); err != nil {
			return err
		}
		po.Vendor = vendor
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.FromCtxOr(ctx, s.log).Info("Purchase order created",
		zap.String("po_number", po.PONumber),
		zap.String("vendor_code", in.VendorCode),
		zap.Int("quantity", po.Quantity))
	return po, nil
}

// Update changes the items or delivery date of a pending order
func (s *Service) Update(ctx context.Context, poNumber string, in UpdateInput) (*model.PurchaseOrder, error) {
	if in.Items != nil {
		if err := validateItems(in.Items); err != nil {
			return nil, err
		}
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		po, err := s.orders.LockByNumber(ctx, tx, poNumber)
		if err != nil {
			return err
		}
		if po.IsTerminal() {
			return ErrNotPending
		}
		if in.Items != nil {
			po.SetItems(in.Items)
		}
		if in.DeliveryDate != nil {
			po.DeliveryDate = *in.DeliveryDate
		}
		return s.orders.Save(ctx, tx, po)
	})
	if err != nil {
		return nil, err
	}
	return s.orders.GetByNumber(ctx, nil, poNumber)
}

// Acknowledge records the vendor's acknowledgment once and schedules the
// response-time recomputation.
func (s *Service) Acknowledge(ctx context.Context, poNumber string) (*model.PurchaseOrder, error) {
	return s.transition(ctx, "acknowledge", poNumber, performance.TaskAvgResponseTime, func(po *model.PurchaseOrder) error {
		if po.AcknowledgmentDate != nil {
			return ErrAlreadyAcknowledged
		}
		now := s.now()
		po.AcknowledgmentDate = &now
		return nil
	})
}

// Complete marks the order completed with a quality rating and schedules the
// performance recomputation.
func (s *Service) Complete(ctx context.Context, poNumber string, rating *float64) (*model.PurchaseOrder, error) {
	return s.transition(ctx, "complete", poNumber, performance.TaskPerformanceMetrics, func(po *model.PurchaseOrder) error {
		switch po.Status {
		case model.StatusCompleted:
			return ErrAlreadyCompleted
		case model.StatusCancelled:
			return fmt.Errorf("%w: cannot complete a cancelled order", ErrTerminalState)
		}
		if rating == nil || *rating <= 0 {
			return ErrQualityRatingRequired
		}
		r := *rating
		po.Status = model.StatusCompleted
		po.QualityRating = &r
		return nil
	})
}

// Cancel marks the order cancelled and schedules the performance recomputation
func (s *Service) Cancel(ctx context.Context, poNumber string) (*model.PurchaseOrder, error) {
	return s.transition(ctx, "cancel", poNumber, performance.TaskPerformanceMetrics, func(po *model.PurchaseOrder) error {
		switch po.Status {
		case model.StatusCancelled:
			return ErrAlreadyCancelled
		case model.StatusCompleted:
			return fmt.Errorf("%w: cannot cancel a completed order", ErrTerminalState)
		}
		po.Status = model.StatusCancelled
		return nil
	})
}

// transition locks the order, applies mutate, saves it and enqueues task in
// one transaction, then wakes the workers after commit.
func (s *Service) transition(ctx context.Context, action, poNumber, task string, mutate func(*model.PurchaseOrder) error) (*model.PurchaseOrder, error) {
	var (
		po    *model.PurchaseOrder
		jobID string
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		po, err = s.orders.LockByNumber(ctx, tx, poNumber)
		if err != nil {
			return err
		}
		if err := mutate(po); err != nil {
			return err
		}
		if err := s.orders.Save(ctx, tx, po); err != nil {
			return err
		}
		jobID, err = s.queue.Enqueue(ctx, tx, task, po.PONumber)
		return err
	})
	prometheus.RecordTransition(action, err)
	if err != nil {
		logger.FromCtxOr(ctx, s.log).Warn("Purchase order transition rejected",
			zap.String("action", action),
			zap.String("po_number", poNumber),
			zap.Error(err))
		return nil, err
	}

	s.queue.Wake(ctx, jobID)
	logger.FromCtxOr(ctx, s.log).Info("Purchase order transition committed",
		zap.String("action", action),
		zap.String("po_number", poNumber),
		zap.String("status", po.Status),
		zap.String("job_id", jobID))
	return s.orders.GetByNumber(ctx, nil, poNumber)
}

// Get returns an order with its vendor
func (s *Service) Get(ctx context.Context, poNumber string) (*model.PurchaseOrder, error) {
	return s.orders.GetByNumber(ctx, nil, poNumber)
}

// List returns a page of orders and the total matching the filter
func (s *Service) List(ctx context.Context, f repository.PurchaseOrderFilter) ([]*model.PurchaseOrder, int64, error) {
	return s.orders.List(ctx, f)
}

// Delete removes an order. Vendor counters are not adjusted.
func (s *Service) Delete(ctx context.Context, poNumber string) error {
	return s.orders.Delete(ctx, nil, poNumber)
}
