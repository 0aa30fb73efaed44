package purchaseorder

import "errors"

// Invalid transitions and rejected input. All of them leave the order untouched.
var (
	ErrAlreadyAcknowledged   = errors.New("purchase order has already been acknowledged")
	ErrAlreadyCompleted      = errors.New("purchase order is already completed")
	ErrAlreadyCancelled      = errors.New("purchase order is already cancelled")
	ErrTerminalState         = errors.New("purchase order is in a terminal state")
	ErrNotPending            = errors.New("only pending purchase orders can be updated")
	ErrQualityRatingRequired = errors.New("a quality rating is required to complete a purchase order")
	ErrInvalidItems          = errors.New("items must map item ids to positive quantities")
	ErrDeliveryDateRequired  = errors.New("delivery date is required")
	ErrVendorRequired        = errors.New("vendor code is required")
)
