package model

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrCounterInvariant is returned when a counter update would break the
// ordering between the cached vendor counters. It indicates a data-integrity
// fault, not a client error.
var ErrCounterInvariant = errors.New("vendor counter invariant violated")

// PerformanceIndicators are the four derived vendor metrics. Rates are in [0,1],
// AvgResponseTime is in minutes.
type PerformanceIndicators struct {
	OnTimeDeliveryRate float64 `json:"on_time_delivery_rate" gorm:"not null;default:0"`
	QualityRatingAvg   float64 `json:"quality_rating_avg" gorm:"not null;default:0"`
	AvgResponseTime    float64 `json:"avg_response_time" gorm:"not null;default:0"`
	FulfillmentRate    float64 `json:"fulfillment_rate" gorm:"not null;default:0"`
}

// VendorCounters are the cached rolling-aggregation counters used to update
// the indicators without rescanning purchase orders.
type VendorCounters struct {
	TotPOs              int `json:"-" gorm:"column:tot_pos;not null;default:0"`
	TotCompletedPOs     int `json:"-" gorm:"column:tot_completed_pos;not null;default:0"`
	TotAcknowledgedPOs  int `json:"-" gorm:"column:tot_acknowledged_pos;not null;default:0"`
	TotOnTimeDeliveries int `json:"-" gorm:"column:tot_on_time_deliveries;not null;default:0"`
}

// Validate checks completed <= placed, on-time <= completed and
// acknowledged <= placed, and that no counter is negative.
func (c VendorCounters) Validate() error {
	switch {
	case c.TotPOs < 0 || c.TotCompletedPOs < 0 || c.TotAcknowledgedPOs < 0 || c.TotOnTimeDeliveries < 0:
		return fmt.Errorf("%w: negative counter %+v", ErrCounterInvariant, c)
	case c.TotCompletedPOs > c.TotPOs:
		return fmt.Errorf("%w: tot_completed_pos %d exceeds tot_pos %d", ErrCounterInvariant, c.TotCompletedPOs, c.TotPOs)
	case c.TotOnTimeDeliveries > c.TotCompletedPOs:
		return fmt.Errorf("%w: tot_on_time_deliveries %d exceeds tot_completed_pos %d", ErrCounterInvariant, c.TotOnTimeDeliveries, c.TotCompletedPOs)
	case c.TotAcknowledgedPOs > c.TotPOs:
		return fmt.Errorf("%w: tot_acknowledged_pos %d exceeds tot_pos %d", ErrCounterInvariant, c.TotAcknowledgedPOs, c.TotPOs)
	}
	return nil
}

// Vendor represents a supplier we place purchase orders with
type Vendor struct {
	ID             uint   `json:"-" gorm:"primaryKey"`
	VendorCode     string `json:"vendor_code" gorm:"type:varchar(36);uniqueIndex;not null"`
	Name           string `json:"name" gorm:"type:varchar(80);index"`
	VendorType     string `json:"vendor_type" gorm:"type:varchar(50);index"`
	ContactDetails string `json:"contact_details" gorm:"type:text"`
	Address        string `json:"address" gorm:"type:text"`

	PerformanceIndicators `gorm:"embedded"`
	Counters              VendorCounters `json:"-" gorm:"embedded"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}

// BeforeCreate assigns the vendor code and starts every vendor from zero
func (v *Vendor) BeforeCreate(tx *gorm.DB) error {
	if v.VendorCode == "" {
		v.VendorCode = uuid.NewString()
	}
	v.PerformanceIndicators = PerformanceIndicators{}
	v.Counters = VendorCounters{}
	return nil
}
