package services

import (
	"context"

	"bazaar/pkg/razorpay"
)

// PaymentGateway is the slice of the payment processor the checkout and
// reconciliation paths depend on. *razorpay.Client satisfies it.
type PaymentGateway interface {
	CreateOrder(ctx context.Context, amountMinor int64, currency, receipt string) (*razorpay.PaymentOrder, error)
	VerifyPaymentSignature(orderID, paymentID, signature string) bool
	VerifyWebhookSignature(body []byte, signature string) bool
}

// ShipmentCanceller is the slice of the carrier the cancellation path
// depends on. *delhivery.Client satisfies it.
type ShipmentCanceller interface {
	CancelShipment(ctx context.Context, wayBill string) error
}

// EventPublisher emits order lifecycle events for the notification layer.
// *rabbitmq.Client satisfies it. Publishing is best-effort: services log
// failures and carry on.
type EventPublisher interface {
	Publish(routingKey string, body []byte) error
}
