package services

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"bazaar/internal/models"
	"bazaar/internal/repositories"
	"bazaar/pkg/rabbitmq"
	"bazaar/pkg/razorpay"

	log "github.com/sirupsen/logrus"
)

const orderIDPrefix = "ORD"

// CheckoutService turns a validated cart into an order ledger entry and
// reconciles gateway-reported payment outcomes back into the ledger.
type CheckoutService struct {
	orderRepo repositories.OrderRepository
	userRepo  repositories.UserRepository
	gateway   PaymentGateway
	events    EventPublisher
	currency  string
	logger    *log.Entry
}

// NewCheckoutService creates a new CheckoutService. events may be nil when no
// broker is configured.
func NewCheckoutService(orderRepo repositories.OrderRepository, userRepo repositories.UserRepository, gateway PaymentGateway, events EventPublisher, currency string) *CheckoutService {
	return &CheckoutService{
		orderRepo: orderRepo,
		userRepo:  userRepo,
		gateway:   gateway,
		events:    events,
		currency:  currency,
		logger:    log.WithField("component", "checkout-service"),
	}
}

// CheckoutRequest is a validated cart ready for order creation.
type CheckoutRequest struct {
	Amount        float64
	TotalDiscount float64
	PaymentType   string
	Items         []models.OrderItem
	Address       models.Address
}

// Checkout creates the order ledger entry for the authenticated user.
// COD orders get a locally generated order id and return immediately with no
// external call. Pre-Paid orders are created at the gateway first; on any
// gateway failure no local order is persisted. The gateway payment order is
// returned for Pre-Paid so the client can run the payment flow.
func (s *CheckoutService) Checkout(ctx context.Context, userID string, req CheckoutRequest) (*models.Order, *razorpay.PaymentOrder, error) {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return nil, nil, models.ErrUnauthenticated
	}

	order := &models.Order{
		UserID:        user.ID,
		Amount:        req.Amount,
		TotalDiscount: req.TotalDiscount,
		Items:         req.Items,
		Address:       req.Address,
		PaymentType:   req.PaymentType,
	}

	var paymentOrder *razorpay.PaymentOrder
	if req.PaymentType == models.PaymentTypeCOD {
		order.OrderID = GenerateOrderID()
	} else {
		receipt := fmt.Sprintf("receipt_%d", time.Now().UnixMilli())
		amountMinor := int64(math.Round(req.Amount * 100))
		paymentOrder, err = s.gateway.CreateOrder(ctx, amountMinor, s.currency, receipt)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %v", models.ErrPaymentInitiation, err)
		}
		order.OrderID = paymentOrder.ID
		order.Receipt = paymentOrder.Receipt
	}

	if err := s.orderRepo.Create(order); err != nil {
		return nil, nil, fmt.Errorf("failed to persist order: %w", err)
	}

	s.publish(rabbitmq.RouteOrderCreated, map[string]interface{}{
		"order_id":     order.OrderID,
		"user_id":      order.UserID,
		"amount":       order.Amount,
		"payment_type": order.PaymentType,
	})

	return order, paymentOrder, nil
}

// VerifyPayment checks the client-side payment confirmation signature. It is
// advisory: the ledger is mutated only by the webhook path.
func (s *CheckoutService) VerifyPayment(orderID, paymentID, signature string) error {
	if !s.gateway.VerifyPaymentSignature(orderID, paymentID, signature) {
		return models.ErrInvalidSignature
	}
	return nil
}

// HandleWebhook reconciles a gateway webhook event with the order ledger.
// The returned error is for logging only: the HTTP handler answers 2xx to
// the gateway regardless, since the gateway keeps retrying on anything else.
// Applying the same event twice sets the same terminal value, so at-least-
// once delivery is safe.
func (s *CheckoutService) HandleWebhook(body []byte, signature string) error {
	if !s.gateway.VerifyWebhookSignature(body, signature) {
		return models.ErrInvalidSignature
	}

	var event razorpay.WebhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return fmt.Errorf("failed to decode webhook event: %w", err)
	}

	payment := event.Payload.Payment.Entity
	switch event.Event {
	case razorpay.EventPaymentCaptured:
		err := s.orderRepo.SetPaymentStatus(payment.OrderID, models.PaymentStatusCompleted, payment.Receipt)
		if err != nil {
			return fmt.Errorf("payment.captured for order %s: %w", payment.OrderID, err)
		}
		s.publish(rabbitmq.RoutePaymentCaptured, map[string]interface{}{
			"order_id":   payment.OrderID,
			"payment_id": payment.ID,
		})
	case razorpay.EventPaymentFailed:
		err := s.orderRepo.SetPaymentStatus(payment.OrderID, models.PaymentStatusFailed, "")
		if err != nil {
			return fmt.Errorf("payment.failed for order %s: %w", payment.OrderID, err)
		}
		s.publish(rabbitmq.RoutePaymentFailed, map[string]interface{}{
			"order_id":   payment.OrderID,
			"payment_id": payment.ID,
		})
	default:
		s.logger.WithField("event", event.Event).Debug("Ignoring webhook event")
	}
	return nil
}

func (s *CheckoutService) publish(routingKey string, payload map[string]interface{}) {
	if s.events == nil {
		return
	}
	body, err := json.Marshal(payload)
	if err != nil {
		s.logger.WithError(err).Warn("Failed to marshal event payload")
		return
	}
	if err := s.events.Publish(routingKey, body); err != nil {
		s.logger.WithError(err).WithField("routing_key", routingKey).Warn("Failed to publish event")
	}
}

// GenerateOrderID builds a human-readable COD order identifier:
// prefix, base-36 timestamp, random suffix. Collision probability is treated
// as negligible; no uniqueness check is performed.
func GenerateOrderID() string {
	timestamp := strconv.FormatInt(time.Now().UnixMilli(), 36)
	const alphabet = "0123456789abcdefghijklmnopqrstuvwxyz"
	suffix := make([]byte, 8)
	for i := range suffix {
		suffix[i] = alphabet[rand.Intn(len(alphabet))]
	}
	return strings.ToUpper(fmt.Sprintf("%s-%s-%s", orderIDPrefix, timestamp, suffix))
}
