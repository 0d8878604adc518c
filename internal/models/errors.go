package models

import "errors"

var (
	// ErrOrderNotFound is returned when no order matches the given id.
	ErrOrderNotFound = errors.New("order not found")
	// ErrProductNotFound is returned when a referenced product does not exist.
	ErrProductNotFound = errors.New("product not found")
	// ErrWarehouseNotFound is returned when no pickup warehouse is configured.
	ErrWarehouseNotFound = errors.New("warehouse not found")
	// ErrUserNotFound is returned when the principal does not resolve to a user.
	ErrUserNotFound = errors.New("user not found")

	// ErrUnauthenticated is returned when no valid principal accompanies a request.
	ErrUnauthenticated = errors.New("authentication required")
	// ErrForbidden is returned when a caller acts on an order they do not own.
	ErrForbidden = errors.New("not allowed to act on this order")

	// ErrPaymentInitiation is returned when the gateway fails to create a
	// payment order. No local order is persisted in that case.
	ErrPaymentInitiation = errors.New("payment order creation failed")
	// ErrInvalidSignature is returned when a payment signature does not match.
	ErrInvalidSignature = errors.New("invalid payment signature")
	// ErrCarrierCancellation is returned when the carrier refuses to cancel a
	// shipment; the order stays PENDING.
	ErrCarrierCancellation = errors.New("carrier refused shipment cancellation")

	// ErrOrderNotPending is returned when an operation requires a PENDING
	// order but the order already reached a terminal state.
	ErrOrderNotPending = errors.New("order is not pending")
	// ErrOrderNotDelivered is returned when a return is requested for an
	// order that has not been delivered.
	ErrOrderNotDelivered = errors.New("order has not been delivered")
)

// IsNotFound reports whether err is one of the not-found sentinels.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrOrderNotFound) ||
		errors.Is(err, ErrProductNotFound) ||
		errors.Is(err, ErrWarehouseNotFound) ||
		errors.Is(err, ErrUserNotFound)
}
