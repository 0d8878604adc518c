package delhivery

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

const defaultTimeout = 15 * time.Second

// Config holds carrier connection details.
type Config struct {
	BaseURL string
	Token   string
	Timeout time.Duration
}

// Client talks to the logistics carrier's REST API.
type Client struct {
	http *resty.Client
}

// NewClient creates a new carrier client with a bounded per-request timeout.
func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}
	http := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(timeout).
		SetHeader("Authorization", "Token "+cfg.Token).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")
	return &Client{http: http}
}

// Shipment is one package in a shipment-creation request.
type Shipment struct {
	Name           string  `json:"name"`
	Add            string  `json:"add"`
	Pin            string  `json:"pin"`
	City           string  `json:"city"`
	Country        string  `json:"country"`
	Phone          string  `json:"phone"`
	Order          string  `json:"order"`
	PaymentMode    string  `json:"payment_mode"`
	CODAmount      float64 `json:"cod_amount"`
	ShipmentWidth  string  `json:"shipment_width"`
	ShipmentHeight string  `json:"shipment_height"`
	ShippingMode   string  `json:"shipping_mode"`

	// Address RTO shipments travel back to.
	ReturnAdd     string `json:"return_add,omitempty"`
	ReturnPin     string `json:"return_pin,omitempty"`
	ReturnCity    string `json:"return_city,omitempty"`
	ReturnState   string `json:"return_state,omitempty"`
	ReturnCountry string `json:"return_country,omitempty"`
}

// PickupLocation is the warehouse address the carrier collects from.
type PickupLocation struct {
	Name    string `json:"name"`
	Add     string `json:"add"`
	City    string `json:"city"`
	PinCode string `json:"pin_code"`
	Country string `json:"country"`
	Phone   string `json:"phone"`
}

// ShipmentRequest is the full shipment-creation payload.
type ShipmentRequest struct {
	Shipments      []Shipment     `json:"shipments"`
	PickupLocation PickupLocation `json:"pickup_location"`
	WayBill        string         `json:"wayBill,omitempty"`
}

type waybillResponse struct {
	Status  int    `json:"status"`
	WayBill string `json:"wayBill"`
}

// FetchWaybill reserves a tracking number for the named client. Fulfillment
// proceeds without one when this fails; absence is only a warning upstream.
func (c *Client) FetchWaybill(ctx context.Context, clientName string) (string, error) {
	var out waybillResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("cl", clientName).
		SetQueryParam("count", "1").
		SetResult(&out).
		Get("/")
	if err != nil {
		return "", fmt.Errorf("waybill fetch request failed: %w", err)
	}
	if resp.IsError() || out.Status != 200 {
		return "", fmt.Errorf("waybill fetch returned %s", resp.Status())
	}
	return out.WayBill, nil
}

type createResponse struct {
	Status   int `json:"status"`
	Packages []struct {
		WayBill string `json:"waybill"`
		Status  string `json:"status"`
	} `json:"packages"`
}

// CreateShipment submits the shipment-creation request. The carrier expects
// the data field as a JSON string inside the envelope. Returns the assigned
// waybill, preferring the carrier's over a pre-fetched one.
func (c *Client) CreateShipment(ctx context.Context, req ShipmentRequest) (string, error) {
	data, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("failed to marshal shipment request: %w", err)
	}
	var out createResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(map[string]string{"format": "json", "data": string(data)}).
		SetResult(&out).
		Post("/api/cmu/create.json")
	if err != nil {
		return "", fmt.Errorf("shipment creation request failed: %w", err)
	}
	if resp.IsError() || out.Status != 200 {
		return "", fmt.Errorf("shipment creation returned %s", resp.Status())
	}
	if len(out.Packages) > 0 && out.Packages[0].WayBill != "" {
		return out.Packages[0].WayBill, nil
	}
	return req.WayBill, nil
}

type trackResponse struct {
	ShipmentData []struct {
		Status struct {
			Status string `json:"Status"`
		} `json:"Status"`
	} `json:"ShipmentData"`
}

// TrackShipment looks up the latest carrier status string for a waybill.
func (c *Client) TrackShipment(ctx context.Context, wayBill string) (string, error) {
	var out trackResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("waybill", wayBill).
		SetResult(&out).
		Get("/api/v1/packages/json/")
	if err != nil {
		return "", fmt.Errorf("tracking request failed for waybill %s: %w", wayBill, err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("tracking returned %s for waybill %s", resp.Status(), wayBill)
	}
	if len(out.ShipmentData) == 0 || out.ShipmentData[0].Status.Status == "" {
		return "", fmt.Errorf("no tracking data for waybill %s", wayBill)
	}
	return out.ShipmentData[0].Status.Status, nil
}

// CancelShipment asks the carrier to cancel a created shipment. A non-2xx
// answer means the carrier did not concur and the order must stay as it is.
func (c *Client) CancelShipment(ctx context.Context, wayBill string) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(map[string]string{"waybill": wayBill, "cancellation": "true"}).
		Post("/edit")
	if err != nil {
		return fmt.Errorf("shipment cancellation request failed for waybill %s: %w", wayBill, err)
	}
	if resp.IsError() {
		return fmt.Errorf("shipment cancellation returned %s for waybill %s", resp.Status(), wayBill)
	}
	return nil
}
