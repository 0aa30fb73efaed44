package repository

import (
	"context"
	"strings"
	"time"

	"vendor-service/internal/model"
	"vendor-service/prometheus"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PurchaseOrderFilter narrows a purchase order listing
type PurchaseOrderFilter struct {
	// VendorName matches a case-insensitive substring of the vendor name
	VendorName string
	VendorCode string
	Page
}

// PurchaseOrderRepo stores purchase orders
type PurchaseOrderRepo struct {
	db *gorm.DB
}

// unscopedVendor preloads vendors including soft-deleted ones, so orders and
// snapshots of a deleted vendor still render it.
func unscopedVendor(db *gorm.DB) *gorm.DB {
	return db.Unscoped()
}

// NewPurchaseOrderRepo creates a purchase order store on top of db
func NewPurchaseOrderRepo(db *gorm.DB) *PurchaseOrderRepo {
	return &PurchaseOrderRepo{db: db}
}

func (r *PurchaseOrderRepo) conn(ctx context.Context, tx *gorm.DB) *gorm.DB {
	if tx == nil {
		tx = r.db
	}
	return tx.WithContext(ctx)
}

// Create inserts a purchase order. Associations are never written through it.
func (r *PurchaseOrderRepo) Create(ctx context.Context, tx *gorm.DB, po *model.PurchaseOrder) error {
	defer prometheus.TrackDBOperation("insert")(time.Now())
	return translate(r.conn(ctx, tx).Omit(clause.Associations).Create(po).Error)
}

// GetByNumber returns a purchase order with its vendor, soft-deleted or not
func (r *PurchaseOrderRepo) GetByNumber(ctx context.Context, tx *gorm.DB, number string) (*model.PurchaseOrder, error) {
	defer prometheus.TrackDBOperation("query")(time.Now())
	var po model.PurchaseOrder
	err := r.conn(ctx, tx).
		Preload("Vendor", unscopedVendor).
		Where("po_number = ?", number).
		First(&po).Error
	if err != nil {
		return nil, translate(err)
	}
	return &po, nil
}

// LockByNumber loads a purchase order with SELECT ... FOR UPDATE. tx must be a transaction.
func (r *PurchaseOrderRepo) LockByNumber(ctx context.Context, tx *gorm.DB, number string) (*model.PurchaseOrder, error) {
	var po model.PurchaseOrder
	err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("po_number = ?", number).
		First(&po).Error
	if err != nil {
		return nil, translate(err)
	}
	return &po, nil
}

// Save writes every column of the order; the model hooks re-check its invariants
func (r *PurchaseOrderRepo) Save(ctx context.Context, tx *gorm.DB, po *model.PurchaseOrder) error {
	defer prometheus.TrackDBOperation("update")(time.Now())
	return translate(r.conn(ctx, tx).Omit(clause.Associations).Save(po).Error)
}

// Delete removes a purchase order permanently
func (r *PurchaseOrderRepo) Delete(ctx context.Context, tx *gorm.DB, number string) error {
	defer prometheus.TrackDBOperation("delete")(time.Now())
	res := r.conn(ctx, tx).Where("po_number = ?", number).Delete(&model.PurchaseOrder{})
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// List returns a page of purchase orders, oldest first, and the total matching the filter
func (r *PurchaseOrderRepo) List(ctx context.Context, f PurchaseOrderFilter) ([]*model.PurchaseOrder, int64, error) {
	scope := func(db *gorm.DB) *gorm.DB {
		if f.VendorName != "" {
			sub := r.db.Unscoped().Model(&model.Vendor{}).
				Select("id").
				Where("LOWER(name) LIKE ?", "%"+strings.ToLower(f.VendorName)+"%")
			db = db.Where("vendor_id IN (?)", sub)
		}
		if f.VendorCode != "" {
			sub := r.db.Unscoped().Model(&model.Vendor{}).
				Select("id").
				Where("vendor_code = ?", f.VendorCode)
			db = db.Where("vendor_id IN (?)", sub)
		}
		return db
	}

	defer prometheus.TrackDBOperation("query")(time.Now())

	var total int64
	if err := r.db.WithContext(ctx).Model(&model.PurchaseOrder{}).Scopes(scope).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var out []*model.PurchaseOrder
	err := r.db.WithContext(ctx).
		Preload("Vendor", unscopedVendor).
		Scopes(scope, f.Page.apply).
		Order("id ASC").
		Find(&out).Error
	if err != nil {
		return nil, 0, err
	}
	return out, total, nil
}
