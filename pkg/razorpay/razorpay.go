package razorpay

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// Webhook event names the receiver reconciles against the order ledger.
const (
	EventPaymentCaptured = "payment.captured"
	EventPaymentFailed   = "payment.failed"
)

// SignatureHeader carries the webhook body signature.
const SignatureHeader = "X-Razorpay-Signature"

// OrderStatusCreated is the gateway status of a freshly created payment
// order. Anything else at creation time is treated as a failure.
const OrderStatusCreated = "created"

const defaultTimeout = 15 * time.Second

// Config holds gateway connection details.
type Config struct {
	BaseURL   string
	KeyID     string
	KeySecret string
	Timeout   time.Duration
}

// Client talks to the payment gateway's REST API.
type Client struct {
	http      *resty.Client
	keySecret string
}

// NewClient creates a new gateway client. The timeout bounds every call so a
// hung gateway cannot stall a checkout or a scheduler batch.
func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}
	http := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(timeout).
		SetBasicAuth(cfg.KeyID, cfg.KeySecret).
		SetHeader("Content-Type", "application/json")
	return &Client{
		http:      http,
		keySecret: cfg.KeySecret,
	}
}

// PaymentOrder is the gateway's payment-order object.
type PaymentOrder struct {
	ID       string `json:"id"`
	Entity   string `json:"entity"`
	Amount   int64  `json:"amount"` // minor currency units
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
	Status   string `json:"status"`
}

// CreateOrder creates a remote payment order for amount in minor currency
// units. A non-"created" status is an error: the caller must not persist any
// local state in that case.
func (c *Client) CreateOrder(ctx context.Context, amountMinor int64, currency, receipt string) (*PaymentOrder, error) {
	var order PaymentOrder
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(map[string]interface{}{
			"amount":   amountMinor,
			"currency": currency,
			"receipt":  receipt,
		}).
		SetResult(&order).
		Post("/v1/orders")
	if err != nil {
		return nil, fmt.Errorf("gateway order creation request failed: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("gateway order creation returned %s", resp.Status())
	}
	if order.Status != OrderStatusCreated {
		return nil, fmt.Errorf("gateway order in unexpected status %q", order.Status)
	}
	return &order, nil
}

// VerifyPaymentSignature checks the client-confirm signature: HMAC-SHA256
// over "orderID|paymentID" with the shared secret, hex encoded. The compare
// is constant-time.
func (c *Client) VerifyPaymentSignature(orderID, paymentID, signature string) bool {
	mac := hmac.New(sha256.New, []byte(c.keySecret))
	fmt.Fprintf(mac, "%s|%s", orderID, paymentID)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

// VerifyWebhookSignature checks the server-to-server signature computed over
// the raw request body.
func (c *Client) VerifyWebhookSignature(body []byte, signature string) bool {
	mac := hmac.New(sha256.New, []byte(c.keySecret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

// PaymentEntity is the payment object inside a webhook event payload.
type PaymentEntity struct {
	ID      string `json:"id"`
	OrderID string `json:"order_id"`
	Amount  int64  `json:"amount"`
	Status  string `json:"status"`
	Receipt string `json:"receipt"`
}

// WebhookEvent is the inbound webhook envelope.
type WebhookEvent struct {
	Event   string `json:"event"`
	Payload struct {
		Payment struct {
			Entity PaymentEntity `json:"entity"`
		} `json:"payment"`
	} `json:"payload"`
}
