// Package testutil provides isolated databases and fixtures for package tests.
package testutil

import (
	"context"
	"testing"
	"time"

	"vendor-service/internal/model"
	"vendor-service/pkg/database"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

// DB opens a fresh in-memory SQLite database with every service table migrated.
// It uses a single connection, so code running inside a transaction must use
// that transaction for all of its queries.
func DB(tb testing.TB) *gorm.DB {
	tb.Helper()

	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         gormLogger.Default.LogMode(gormLogger.Silent),
		TranslateError: true,
	})
	if err != nil {
		tb.Fatalf("failed to open test db: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		tb.Fatalf("failed to get sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	tb.Cleanup(func() { _ = sqlDB.Close() })

	if err := database.Migrate(db); err != nil {
		tb.Fatalf("failed to migrate test db: %v", err)
	}
	return db
}

// SeedVendor inserts a vendor with the given name
func SeedVendor(tb testing.TB, db *gorm.DB, name string) *model.Vendor {
	tb.Helper()
	v := &model.Vendor{
		Name:           name,
		VendorType:     "general",
		ContactDetails: name + "@example.com",
		Address:        "1 Market Street",
	}
	if err := db.WithContext(context.Background()).Create(v).Error; err != nil {
		tb.Fatalf("seed vendor: %v", err)
	}
	return v
}

// SeedOrder inserts a pending purchase order for v and bumps the vendor's
// placed-orders counter the way order creation does.
func SeedOrder(tb testing.TB, db *gorm.DB, v *model.Vendor, issue, delivery time.Time) *model.PurchaseOrder {
	tb.Helper()
	po := &model.PurchaseOrder{
		VendorID:     v.ID,
		OrderDate:    issue,
		IssueDate:    issue,
		DeliveryDate: delivery,
		Status:       model.StatusPending,
	}
	po.SetItems(model.Items{"widget": 1})
	if err := db.Omit("Vendor").Create(po).Error; err != nil {
		tb.Fatalf("seed order: %v", err)
	}
	if err := db.Model(&model.Vendor{}).Where("id = ?", v.ID).
		Update("tot_pos", gorm.Expr("tot_pos + 1")).Error; err != nil {
		tb.Fatalf("seed order counter: %v", err)
	}
	return po
}

// ReloadVendor reads the vendor row again, including soft-deleted rows
func ReloadVendor(tb testing.TB, db *gorm.DB, id uint) *model.Vendor {
	tb.Helper()
	var v model.Vendor
	if err := db.Unscoped().First(&v, id).Error; err != nil {
		tb.Fatalf("reload vendor: %v", err)
	}
	return &v
}
