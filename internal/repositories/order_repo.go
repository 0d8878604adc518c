package repositories

import (
	"time"

	"bazaar/internal/models"
)

// OrderRepository defines the interface for order ledger access. The ledger
// is the single source of truth for order state; status-changing methods are
// conditional so terminal states are never left.
type OrderRepository interface {
	Create(order *models.Order) error
	GetByID(id string) (*models.Order, error)
	// GetByOrderID looks an order up by its externally-visible id (the
	// gateway order id for Pre-Paid, the generated ORD-... id for COD).
	GetByOrderID(orderID string) (*models.Order, error)
	FindByUser(userID string) ([]models.Order, error)

	// FindAwaitingShipment returns orders with no carrier shipment yet
	// (orderCreated=false, status=PENDING).
	FindAwaitingShipment() ([]models.Order, error)
	// FindInTransit returns orders whose shipment exists and still needs
	// tracking: status=PENDING, or returned shipments on their way back.
	FindInTransit() ([]models.Order, error)

	// ClaimForFulfillment atomically marks the order in-flight. It returns
	// false when the order is already claimed or already shipped, so two
	// overlapping scheduler cycles cannot both create a shipment.
	ClaimForFulfillment(id string) (bool, error)
	// ReleaseClaim drops the in-flight mark after a failed attempt so the
	// next cycle retries the order.
	ReleaseClaim(id string) error
	// ReleaseStaleClaims clears the in-flight mark on every unshipped order
	// and returns how many were cleared. Claims are durable, so a crash
	// between claim and outcome would otherwise park the order forever;
	// the scheduler calls this on startup, when no attempt can be running.
	ReleaseStaleClaims() (int64, error)
	// MarkShipmentCreated records the carrier shipment: sets the waybill,
	// flips orderCreated and consumes the in-flight claim in one write.
	MarkShipmentCreated(id, wayBill string) error

	// SetPaymentStatus applies a gateway-reported payment outcome by
	// external order id. Receipt is recorded only when non-empty. Safe to
	// apply the same outcome twice.
	SetPaymentStatus(orderID, paymentStatus, receipt string) error

	SetDeliveryStatus(id, deliveryStatus string) error
	// MarkDelivered completes the order. Returns false when the order was
	// not PENDING (already terminal), in which case nothing changes.
	MarkDelivered(id string, deliveredAt time.Time) (bool, error)
	// MarkCancelled cancels the order. Returns false when the order was not
	// PENDING.
	MarkCancelled(id string) (bool, error)
	MarkReturned(id string) error
}
