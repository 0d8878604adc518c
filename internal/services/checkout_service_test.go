package services_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"testing"

	"bazaar/internal/models"
	"bazaar/internal/repositories"
	"bazaar/internal/services"
	"bazaar/pkg/razorpay"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeGateway is a canned-response PaymentGateway for service tests.
type fakeGateway struct {
	order        *razorpay.PaymentOrder
	createErr    error
	paymentSigOK bool
	webhookSigOK bool
	createCalls  int
}

func (f *fakeGateway) CreateOrder(ctx context.Context, amountMinor int64, currency, receipt string) (*razorpay.PaymentOrder, error) {
	f.createCalls++
	if f.createErr != nil {
		return nil, f.createErr
	}
	order := *f.order
	order.Amount = amountMinor
	order.Currency = currency
	order.Receipt = receipt
	return &order, nil
}

func (f *fakeGateway) VerifyPaymentSignature(orderID, paymentID, signature string) bool {
	return f.paymentSigOK
}

func (f *fakeGateway) VerifyWebhookSignature(body []byte, signature string) bool {
	return f.webhookSigOK
}

// fakePublisher records published events.
type fakePublisher struct {
	routingKeys []string
}

func (f *fakePublisher) Publish(routingKey string, body []byte) error {
	f.routingKeys = append(f.routingKeys, routingKey)
	return nil
}

func checkoutFixture(t *testing.T, gateway *fakeGateway) (*services.CheckoutService, *repositories.MockOrderRepository, string) {
	t.Helper()
	orderRepo := repositories.NewMockOrderRepository()
	userRepo := repositories.NewMockUserRepository()
	user := &models.User{Username: "buyer", Email: "buyer@example.com", Password: "secret"}
	require.NoError(t, userRepo.Create(user))
	service := services.NewCheckoutService(orderRepo, userRepo, gateway, &fakePublisher{}, "INR")
	return service, orderRepo, user.ID
}

func testCart() services.CheckoutRequest {
	return services.CheckoutRequest{
		Amount:        500,
		TotalDiscount: 50,
		PaymentType:   models.PaymentTypeCOD,
		Items:         []models.OrderItem{{ProductID: "p1", Quantity: 2, Price: 275}},
		Address: models.Address{
			Name:    "Asha Rao",
			Phone:   "9999999999",
			Address: "12 MG Road",
			City:    "Bengaluru",
			PinCode: "560001",
			Country: "India",
		},
	}
}

func TestCheckout_COD(t *testing.T) {
	gateway := &fakeGateway{}
	service, orderRepo, userID := checkoutFixture(t, gateway)

	order, paymentOrder, err := service.Checkout(context.Background(), userID, testCart())

	require.NoError(t, err)
	assert.Nil(t, paymentOrder)
	assert.Equal(t, 0, gateway.createCalls, "COD checkout must not call the gateway")

	assert.Equal(t, models.OrderStatusPending, order.Status)
	assert.Equal(t, models.PaymentStatusPending, order.PaymentStatus)
	assert.Equal(t, models.PaymentTypeCOD, order.PaymentType)
	assert.False(t, order.OrderCreated)
	assert.Regexp(t, regexp.MustCompile(`^ORD-[0-9A-Z]+-[0-9A-Z]{8}$`), order.OrderID)

	persisted, err := orderRepo.GetByOrderID(order.OrderID)
	require.NoError(t, err)
	assert.Equal(t, userID, persisted.UserID)
	assert.Equal(t, 500.0, persisted.Amount)
}

func TestCheckout_PrePaid(t *testing.T) {
	gateway := &fakeGateway{order: &razorpay.PaymentOrder{ID: "order_gw123", Status: razorpay.OrderStatusCreated}}
	service, orderRepo, userID := checkoutFixture(t, gateway)

	cart := testCart()
	cart.PaymentType = models.PaymentTypePrePaid
	order, paymentOrder, err := service.Checkout(context.Background(), userID, cart)

	require.NoError(t, err)
	require.NotNil(t, paymentOrder)
	assert.Equal(t, "order_gw123", order.OrderID)
	assert.Equal(t, paymentOrder.Receipt, order.Receipt)
	assert.Equal(t, int64(50000), paymentOrder.Amount, "amount is sent in minor currency units")

	persisted, err := orderRepo.GetByOrderID("order_gw123")
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusPending, persisted.PaymentStatus)
}

func TestCheckout_PrePaidGatewayFailure(t *testing.T) {
	gateway := &fakeGateway{createErr: fmt.Errorf("gateway unreachable")}
	service, orderRepo, userID := checkoutFixture(t, gateway)

	cart := testCart()
	cart.PaymentType = models.PaymentTypePrePaid
	_, _, err := service.Checkout(context.Background(), userID, cart)

	assert.ErrorIs(t, err, models.ErrPaymentInitiation)

	// No partial state may be persisted on gateway failure.
	orders, repoErr := orderRepo.FindByUser(userID)
	require.NoError(t, repoErr)
	assert.Empty(t, orders)
}

func TestCheckout_UnknownUser(t *testing.T) {
	service, _, _ := checkoutFixture(t, &fakeGateway{})

	_, _, err := service.Checkout(context.Background(), "no-such-user", testCart())
	assert.ErrorIs(t, err, models.ErrUnauthenticated)
}

func TestVerifyPayment(t *testing.T) {
	gateway := &fakeGateway{paymentSigOK: true}
	service, _, _ := checkoutFixture(t, gateway)
	assert.NoError(t, service.VerifyPayment("order_1", "pay_1", "sig"))

	gateway.paymentSigOK = false
	assert.ErrorIs(t, service.VerifyPayment("order_1", "pay_1", "sig"), models.ErrInvalidSignature)
}

func webhookBody(t *testing.T, event, orderID, receipt string) []byte {
	t.Helper()
	payload := map[string]interface{}{
		"event": event,
		"payload": map[string]interface{}{
			"payment": map[string]interface{}{
				"entity": map[string]interface{}{
					"id":       "pay_42",
					"order_id": orderID,
					"receipt":  receipt,
				},
			},
		},
	}
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	return body
}

func TestHandleWebhook_PaymentCaptured(t *testing.T) {
	gateway := &fakeGateway{webhookSigOK: true}
	service, orderRepo, userID := checkoutFixture(t, gateway)
	require.NoError(t, orderRepo.Create(&models.Order{
		OrderID:     "order_gw42",
		UserID:      userID,
		PaymentType: models.PaymentTypePrePaid,
	}))

	body := webhookBody(t, razorpay.EventPaymentCaptured, "order_gw42", "receipt_7")
	require.NoError(t, service.HandleWebhook(body, "sig"))

	order, err := orderRepo.GetByOrderID("order_gw42")
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusCompleted, order.PaymentStatus)
	assert.Equal(t, "receipt_7", order.Receipt)

	// At-least-once delivery: the same event applied twice lands on the
	// same terminal value.
	require.NoError(t, service.HandleWebhook(body, "sig"))
	order, err = orderRepo.GetByOrderID("order_gw42")
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusCompleted, order.PaymentStatus)
	assert.Equal(t, "receipt_7", order.Receipt)
}

func TestHandleWebhook_PaymentFailed(t *testing.T) {
	gateway := &fakeGateway{webhookSigOK: true}
	service, orderRepo, userID := checkoutFixture(t, gateway)
	require.NoError(t, orderRepo.Create(&models.Order{
		OrderID:     "order_gw43",
		UserID:      userID,
		PaymentType: models.PaymentTypePrePaid,
	}))

	body := webhookBody(t, razorpay.EventPaymentFailed, "order_gw43", "")
	require.NoError(t, service.HandleWebhook(body, "sig"))

	order, err := orderRepo.GetByOrderID("order_gw43")
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusFailed, order.PaymentStatus)
}

func TestHandleWebhook_BadSignature(t *testing.T) {
	gateway := &fakeGateway{webhookSigOK: false}
	service, orderRepo, userID := checkoutFixture(t, gateway)
	require.NoError(t, orderRepo.Create(&models.Order{
		OrderID:     "order_gw44",
		UserID:      userID,
		PaymentType: models.PaymentTypePrePaid,
	}))

	body := webhookBody(t, razorpay.EventPaymentCaptured, "order_gw44", "")
	err := service.HandleWebhook(body, "forged")
	assert.ErrorIs(t, err, models.ErrInvalidSignature)

	order, repoErr := orderRepo.GetByOrderID("order_gw44")
	require.NoError(t, repoErr)
	assert.Equal(t, models.PaymentStatusPending, order.PaymentStatus, "forged events must not touch the ledger")
}

func TestHandleWebhook_UnknownOrder(t *testing.T) {
	gateway := &fakeGateway{webhookSigOK: true}
	service, _, _ := checkoutFixture(t, gateway)

	body := webhookBody(t, razorpay.EventPaymentCaptured, "order_unknown", "")
	err := service.HandleWebhook(body, "sig")
	assert.True(t, errors.Is(err, models.ErrOrderNotFound))
}

func TestGenerateOrderID_Pattern(t *testing.T) {
	pattern := regexp.MustCompile(`^ORD-[0-9A-Z]+-[0-9A-Z]{8}$`)
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := services.GenerateOrderID()
		assert.Regexp(t, pattern, id)
		seen[id] = true
	}
	assert.Len(t, seen, 100, "generated ids should not collide in practice")
}
