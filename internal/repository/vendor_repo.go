package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"vendor-service/internal/model"
	"vendor-service/prometheus"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// VendorFilter narrows a vendor listing
type VendorFilter struct {
	Name       string
	VendorType string
	// Ordering is on_time_delivery_rate or fulfillment_rate, prefixed with "-" for descending
	Ordering string
	Page
}

var vendorOrderings = map[string]string{
	"on_time_delivery_rate":  "on_time_delivery_rate ASC",
	"-on_time_delivery_rate": "on_time_delivery_rate DESC",
	"fulfillment_rate":       "fulfillment_rate ASC",
	"-fulfillment_rate":      "fulfillment_rate DESC",
}

var metricColumns = []string{
	"on_time_delivery_rate",
	"quality_rating_avg",
	"avg_response_time",
	"fulfillment_rate",
	"tot_pos",
	"tot_completed_pos",
	"tot_acknowledged_pos",
	"tot_on_time_deliveries",
}

// VendorRepo stores vendor records
type VendorRepo struct {
	db *gorm.DB
}

// NewVendorRepo creates a vendor store on top of db
func NewVendorRepo(db *gorm.DB) *VendorRepo {
	return &VendorRepo{db: db}
}

func (r *VendorRepo) conn(ctx context.Context, tx *gorm.DB) *gorm.DB {
	if tx == nil {
		tx = r.db
	}
	return tx.WithContext(ctx)
}

// Create inserts a vendor with zeroed indicators and counters
func (r *VendorRepo) Create(ctx context.Context, tx *gorm.DB, v *model.Vendor) error {
	defer prometheus.TrackDBOperation("insert")(time.Now())
	return translate(r.conn(ctx, tx).Create(v).Error)
}

// GetByCode returns a non-deleted vendor
func (r *VendorRepo) GetByCode(ctx context.Context, tx *gorm.DB, code string) (*model.Vendor, error) {
	defer prometheus.TrackDBOperation("query")(time.Now())
	var v model.Vendor
	if err := r.conn(ctx, tx).Where("vendor_code = ?", code).First(&v).Error; err != nil {
		return nil, translate(err)
	}
	return &v, nil
}

// GetByCodeUnscoped returns a vendor even when it has been soft-deleted
func (r *VendorRepo) GetByCodeUnscoped(ctx context.Context, tx *gorm.DB, code string) (*model.Vendor, error) {
	defer prometheus.TrackDBOperation("query")(time.Now())
	var v model.Vendor
	if err := r.conn(ctx, tx).Unscoped().Where("vendor_code = ?", code).First(&v).Error; err != nil {
		return nil, translate(err)
	}
	return &v, nil
}

// LockByCode loads a non-deleted vendor with SELECT ... FOR UPDATE. tx must be a transaction.
func (r *VendorRepo) LockByCode(ctx context.Context, tx *gorm.DB, code string) (*model.Vendor, error) {
	var v model.Vendor
	err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("vendor_code = ?", code).
		First(&v).Error
	if err != nil {
		return nil, translate(err)
	}
	return &v, nil
}

// LockByID loads a vendor by primary key with SELECT ... FOR UPDATE, including
// soft-deleted vendors so that in-flight recomputations still land.
func (r *VendorRepo) LockByID(ctx context.Context, tx *gorm.DB, id uint) (*model.Vendor, error) {
	var v model.Vendor
	err := tx.WithContext(ctx).
		Unscoped().
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&v).Error
	if err != nil {
		return nil, translate(err)
	}
	return &v, nil
}

// UpdateDetails writes the descriptive fields only. Indicators and counters are
// owned by the metrics engine and never touched here.
func (r *VendorRepo) UpdateDetails(ctx context.Context, tx *gorm.DB, v *model.Vendor) error {
	defer prometheus.TrackDBOperation("update")(time.Now())
	return translate(r.conn(ctx, tx).
		Model(v).
		Select("name", "address", "contact_details", "vendor_type").
		Updates(v).Error)
}

// SaveMetrics writes the indicators and counters after checking the counter invariants
func (r *VendorRepo) SaveMetrics(ctx context.Context, tx *gorm.DB, v *model.Vendor) error {
	if err := v.Counters.Validate(); err != nil {
		return fmt.Errorf("vendor %s: %w", v.VendorCode, err)
	}
	defer prometheus.TrackDBOperation("update")(time.Now())
	return translate(r.conn(ctx, tx).
		Unscoped().
		Model(v).
		Select(metricColumns).
		Updates(v).Error)
}

// SoftDelete hides a vendor from default queries
func (r *VendorRepo) SoftDelete(ctx context.Context, tx *gorm.DB, code string) error {
	defer prometheus.TrackDBOperation("delete")(time.Now())
	res := r.conn(ctx, tx).Where("vendor_code = ?", code).Delete(&model.Vendor{})
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// List returns a page of non-deleted vendors and the total matching the filter
func (r *VendorRepo) List(ctx context.Context, f VendorFilter) ([]*model.Vendor, int64, error) {
	order := "id ASC"
	if f.Ordering != "" {
		o, ok := vendorOrderings[f.Ordering]
		if !ok {
			return nil, 0, fmt.Errorf("%w: %q", ErrInvalidOrdering, f.Ordering)
		}
		order = o + ", id ASC"
	}

	scope := func(db *gorm.DB) *gorm.DB {
		if f.Name != "" {
			db = db.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(f.Name)+"%")
		}
		if f.VendorType != "" {
			db = db.Where("vendor_type = ?", f.VendorType)
		}
		return db
	}

	defer prometheus.TrackDBOperation("query")(time.Now())

	var total int64
	if err := r.db.WithContext(ctx).Model(&model.Vendor{}).Scopes(scope).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var out []*model.Vendor
	if err := r.db.WithContext(ctx).Scopes(scope, f.Page.apply).Order(order).Find(&out).Error; err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// Count returns the number of non-deleted vendors
func (r *VendorRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Vendor{}).Count(&n).Error
	return n, err
}
