package repository

import (
	"context"
	"time"

	"vendor-service/internal/model"
	"vendor-service/prometheus"

	"gorm.io/gorm"
)

// PerformanceLogRepo is the append-only log of vendor performance snapshots
type PerformanceLogRepo struct {
	db *gorm.DB
}

// NewPerformanceLogRepo creates a snapshot log on top of db
func NewPerformanceLogRepo(db *gorm.DB) *PerformanceLogRepo {
	return &PerformanceLogRepo{db: db}
}

func (r *PerformanceLogRepo) conn(ctx context.Context, tx *gorm.DB) *gorm.DB {
	if tx == nil {
		tx = r.db
	}
	return tx.WithContext(ctx)
}

// Append records a snapshot of ind for the vendor at the given time.
//
// Dates are stored with microsecond precision and are strictly increasing per
// vendor: when at is not after the latest snapshot it is moved one microsecond
// past it. Callers hold the vendor row lock, which serialises appends.
func (r *PerformanceLogRepo) Append(ctx context.Context, tx *gorm.DB, vendorID uint, ind model.PerformanceIndicators, at time.Time) (*model.HistoricalPerformance, error) {
	defer prometheus.TrackDBOperation("insert")(time.Now())
	db := r.conn(ctx, tx)

	at = at.UTC().Truncate(time.Microsecond)

	var latest []model.HistoricalPerformance
	if err := db.Where("vendor_id = ?", vendorID).Order("date DESC").Limit(1).Find(&latest).Error; err != nil {
		return nil, err
	}
	if len(latest) == 1 && !at.After(latest[0].Date) {
		at = latest[0].Date.Add(time.Microsecond)
	}

	snap := &model.HistoricalPerformance{
		VendorID:              vendorID,
		Date:                  at,
		PerformanceIndicators: ind,
	}
	if err := db.Omit("Vendor").Create(snap).Error; err != nil {
		return nil, translate(err)
	}
	return snap, nil
}

// ListByVendor returns a page of a vendor's snapshots, newest first
func (r *PerformanceLogRepo) ListByVendor(ctx context.Context, vendorID uint, page Page) ([]*model.HistoricalPerformance, int64, error) {
	defer prometheus.TrackDBOperation("query")(time.Now())

	var total int64
	if err := r.db.WithContext(ctx).Model(&model.HistoricalPerformance{}).Where("vendor_id = ?", vendorID).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var out []*model.HistoricalPerformance
	err := r.db.WithContext(ctx).
		Where("vendor_id = ?", vendorID).
		Scopes(page.apply).
		Order("date DESC").
		Find(&out).Error
	if err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// List returns a page of all snapshots with their vendors, newest first
func (r *PerformanceLogRepo) List(ctx context.Context, page Page) ([]*model.HistoricalPerformance, int64, error) {
	defer prometheus.TrackDBOperation("query")(time.Now())

	var total int64
	if err := r.db.WithContext(ctx).Model(&model.HistoricalPerformance{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var out []*model.HistoricalPerformance
	err := r.db.WithContext(ctx).
		Preload("Vendor", unscopedVendor).
		Scopes(page.apply).
		Order("date DESC").
		Order("id DESC").
		Find(&out).Error
	if err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// GetByExternalID returns one snapshot with its vendor
func (r *PerformanceLogRepo) GetByExternalID(ctx context.Context, externalID string) (*model.HistoricalPerformance, error) {
	defer prometheus.TrackDBOperation("query")(time.Now())
	var snap model.HistoricalPerformance
	err := r.db.WithContext(ctx).
		Preload("Vendor", unscopedVendor).
		Where("external_id = ?", externalID).
		First(&snap).Error
	if err != nil {
		return nil, translate(err)
	}
	return &snap, nil
}

// CountByVendor returns how many snapshots a vendor has
func (r *PerformanceLogRepo) CountByVendor(ctx context.Context, tx *gorm.DB, vendorID uint) (int64, error) {
	var n int64
	err := r.conn(ctx, tx).Model(&model.HistoricalPerformance{}).Where("vendor_id = ?", vendorID).Count(&n).Error
	return n, err
}
