package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// HistoricalPerformance is an immutable snapshot of a vendor's indicators,
// appended after every recomputation.
type HistoricalPerformance struct {
	ID         uint      `json:"-" gorm:"primaryKey"`
	ExternalID string    `json:"external_id" gorm:"type:varchar(36);uniqueIndex;not null"`
	VendorID   uint      `json:"-" gorm:"not null;uniqueIndex:idx_historical_performance_vendor_date"`
	Vendor     *Vendor   `json:"vendor,omitempty" gorm:"foreignKey:VendorID;constraint:OnDelete:CASCADE"`
	Date       time.Time `json:"date" gorm:"not null;uniqueIndex:idx_historical_performance_vendor_date"`

	PerformanceIndicators `gorm:"embedded"`
}

// TableName specifies the table name for HistoricalPerformance
func (HistoricalPerformance) TableName() string {
	return "historical_performance"
}

// BeforeCreate assigns the external id
func (h *HistoricalPerformance) BeforeCreate(tx *gorm.DB) error {
	if h.ExternalID == "" {
		h.ExternalID = uuid.NewString()
	}
	return nil
}
