package model

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Purchase order statuses
const (
	StatusPending   = "pending"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
)

var (
	// ErrInvalidStatus means a status outside the lifecycle enumeration reached a write
	ErrInvalidStatus = errors.New("invalid purchase order status")
	// ErrMissingQualityRating means a completed order is about to be stored without a rating
	ErrMissingQualityRating = errors.New("quality rating is required for completed purchase orders")
)

// Items maps an item identifier to an ordered quantity
type Items map[string]int

// Total returns the sum of all item quantities
func (i Items) Total() int {
	total := 0
	for _, qty := range i {
		total += qty
	}
	return total
}

// PurchaseOrder is an order placed with a single vendor
type PurchaseOrder struct {
	ID                 uint                      `json:"-" gorm:"primaryKey"`
	PONumber           string                    `json:"po_number" gorm:"column:po_number;type:varchar(36);uniqueIndex;not null"`
	VendorID           uint                      `json:"-" gorm:"index;not null"`
	Vendor             *Vendor                   `json:"vendor,omitempty" gorm:"foreignKey:VendorID;constraint:OnDelete:CASCADE"`
	Items              datatypes.JSONType[Items] `json:"items"`
	Quantity           int                       `json:"quantity" gorm:"not null;default:0"`
	OrderDate          time.Time                 `json:"order_date" gorm:"not null"`
	DeliveryDate       time.Time                 `json:"delivery_date" gorm:"not null"`
	Status             string                    `json:"status" gorm:"type:varchar(20);not null;default:pending;index"`
	QualityRating      *float64                  `json:"quality_rating"`
	IssueDate          time.Time                 `json:"issue_date" gorm:"not null"`
	AcknowledgmentDate *time.Time                `json:"acknowledgment_date"`
	CreatedAt          time.Time                 `json:"created_at"`
	UpdatedAt          time.Time                 `json:"updated_at"`
}

// ItemMap returns the decoded item mapping
func (po *PurchaseOrder) ItemMap() Items {
	return po.Items.Data()
}

// SetItems replaces the item mapping and recomputes the derived quantity
func (po *PurchaseOrder) SetItems(items Items) {
	po.Items = datatypes.NewJSONType(items)
	po.Quantity = items.Total()
}

// IsTerminal reports whether no further lifecycle transition is allowed
func (po *PurchaseOrder) IsTerminal() bool {
	return po.Status == StatusCompleted || po.Status == StatusCancelled
}

// BeforeCreate assigns the order number and the order and issue dates
func (po *PurchaseOrder) BeforeCreate(tx *gorm.DB) error {
	if po.PONumber == "" {
		po.PONumber = uuid.NewString()
	}
	now := time.Now()
	if po.OrderDate.IsZero() {
		po.OrderDate = now
	}
	if po.IssueDate.IsZero() {
		po.IssueDate = now
	}
	return nil
}

// BeforeSave enforces the status invariant on every write and keeps the
// quantity derived from the items.
func (po *PurchaseOrder) BeforeSave(tx *gorm.DB) error {
	if po.Status == "" {
		po.Status = StatusPending
	}
	po.Status = strings.ToLower(po.Status)
	switch po.Status {
	case StatusPending, StatusCompleted, StatusCancelled:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidStatus, po.Status)
	}

	if po.Status == StatusCompleted && (po.QualityRating == nil || *po.QualityRating == 0) {
		return ErrMissingQualityRating
	}

	po.Quantity = po.ItemMap().Total()
	return nil
}
