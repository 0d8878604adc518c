package models

import "time"

// Payment types accepted at checkout.
const (
	PaymentTypeCOD     = "COD"
	PaymentTypePrePaid = "Pre-Paid"
)

// Order status values. COMPLETED and CANCELLED are terminal: no update may
// move an order out of either.
const (
	OrderStatusPending   = "PENDING"
	OrderStatusCompleted = "COMPLETED"
	OrderStatusCancelled = "CANCELLED"
)

// Payment status values reported by the gateway webhook.
const (
	PaymentStatusPending   = "PENDING"
	PaymentStatusCompleted = "COMPLETED"
	PaymentStatusFailed    = "FAILED"
)

// DeliveryStatusOrdered is the delivery status every order starts with,
// before the carrier reports anything.
const DeliveryStatusOrdered = "Ordered"

// Carrier-reported statuses that advance the order state machine. Any other
// carrier string is recorded verbatim without a state change.
const (
	CarrierStatusDelivered = "Delivered"
	CarrierStatusRTO       = "RTO" // return to origin
)

// OrderItem is a single line item with the price captured at checkout time.
type OrderItem struct {
	ProductID     string  `json:"product_id" validate:"required"`
	Quantity      int     `json:"quantity" validate:"required,gt=0"`
	Price         float64 `json:"price"`
	DiscountPrice float64 `json:"discount_price"`
}

// Address is the delivery address snapshot taken at checkout. It is never
// re-read from the user profile after the order is placed.
type Address struct {
	Name    string `json:"name" validate:"required"`
	Phone   string `json:"phone" validate:"required"`
	Address string `json:"address" validate:"required"`
	City    string `json:"city" validate:"required"`
	State   string `json:"state"`
	PinCode string `json:"pin_code" validate:"required"`
	Country string `json:"country"`
}

// Order represents one checkout and its payment/fulfillment state. Orders
// are never hard-deleted; cancellation is a status value.
type Order struct {
	ID            string      `json:"id" gorm:"primaryKey;type:varchar(36)"`
	OrderID       string      `json:"order_id" gorm:"uniqueIndex;type:varchar(64)"` // gateway id, or locally generated for COD
	Receipt       string      `json:"receipt"`
	UserID        string      `json:"user_id" gorm:"index;type:varchar(36)"`
	Amount        float64     `json:"amount"`
	TotalDiscount float64     `json:"total_discount"`
	Items         []OrderItem `json:"items" gorm:"serializer:json"`
	Address       Address     `json:"address" gorm:"serializer:json"`
	PaymentType   string      `json:"payment_type" gorm:"type:varchar(16)"`
	PaymentStatus string      `json:"payment_status" gorm:"type:varchar(16)"`
	Status        string      `json:"status" gorm:"type:varchar(16);index"`

	// OrderCreated records that a carrier shipment has been requested and
	// the stock decrement for this order has been applied.
	OrderCreated bool `json:"order_created" gorm:"index"`
	// InFlight is the fulfillment claim: held while a shipment-creation
	// attempt is running so overlapping scheduler cycles cannot create two
	// shipments for the same order.
	InFlight bool `json:"-"`

	WayBill        string     `json:"way_bill"`
	DeliveryStatus string     `json:"delivery_status"`
	DeliveredDate  *time.Time `json:"delivered_date,omitempty"`
	IsReturned     bool       `json:"is_returned"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Terminal reports whether the order has reached a final status.
func (o *Order) Terminal() bool {
	return o.Status == OrderStatusCompleted || o.Status == OrderStatusCancelled
}

// EligibleForFulfillment reports whether the shipment-creation task may pick
// this order up: COD ships immediately, Pre-Paid only once payment is
// confirmed.
func (o *Order) EligibleForFulfillment() bool {
	if o.OrderCreated || o.Status != OrderStatusPending {
		return false
	}
	if o.PaymentType == PaymentTypeCOD {
		return true
	}
	return o.PaymentType == PaymentTypePrePaid && o.PaymentStatus == PaymentStatusCompleted
}
