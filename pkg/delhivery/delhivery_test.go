package delhivery_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"bazaar/pkg/delhivery"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newClient(serverURL string) *delhivery.Client {
	return delhivery.NewClient(delhivery.Config{BaseURL: serverURL, Token: "carrier-token"})
}

func TestFetchWaybill(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Token carrier-token", r.Header.Get("Authorization"))
		assert.Equal(t, "Asha Rao", r.URL.Query().Get("cl"))
		assert.Equal(t, "1", r.URL.Query().Get("count"))
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{"status": 200, "wayBill": "WB777"})
	}))
	defer server.Close()

	wayBill, err := newClient(server.URL).FetchWaybill(context.Background(), "Asha Rao")
	require.NoError(t, err)
	assert.Equal(t, "WB777", wayBill)
}

func TestFetchWaybill_CarrierError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{"status": 400})
	}))
	defer server.Close()

	_, err := newClient(server.URL).FetchWaybill(context.Background(), "Asha Rao")
	assert.Error(t, err)
}

func TestCreateShipment(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/cmu/create.json", r.URL.Path)

		var envelope map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&envelope))
		assert.Equal(t, "json", envelope["format"])

		// The data field is a JSON string, not a nested object.
		var req delhivery.ShipmentRequest
		require.NoError(t, json.Unmarshal([]byte(envelope["data"]), &req))
		require.Len(t, req.Shipments, 1)
		assert.Equal(t, "COD", req.Shipments[0].PaymentMode)
		assert.Equal(t, "Main Hub", req.PickupLocation.Name)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status": 200,
			"packages": []map[string]string{
				{"waybill": "WB-FROM-CARRIER", "status": "Success"},
			},
		})
	}))
	defer server.Close()

	req := delhivery.ShipmentRequest{
		Shipments: []delhivery.Shipment{{
			Name:        "Asha Rao",
			Add:         "12 MG Road",
			Pin:         "560001",
			City:        "Bengaluru",
			Phone:       "9999999999",
			PaymentMode: "COD",
			CODAmount:   500,
		}},
		PickupLocation: delhivery.PickupLocation{Name: "Main Hub"},
		WayBill:        "WB-PREFETCHED",
	}
	wayBill, err := newClient(server.URL).CreateShipment(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "WB-FROM-CARRIER", wayBill, "the carrier-assigned waybill wins over the prefetched one")
}

func TestCreateShipment_NoPackageFallsBackToPrefetched(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{"status": 200})
	}))
	defer server.Close()

	req := delhivery.ShipmentRequest{WayBill: "WB-PREFETCHED"}
	wayBill, err := newClient(server.URL).CreateShipment(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "WB-PREFETCHED", wayBill)
}

func TestCreateShipment_CarrierError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	_, err := newClient(server.URL).CreateShipment(context.Background(), delhivery.ShipmentRequest{})
	assert.Error(t, err)
}

func TestTrackShipment(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/packages/json/", r.URL.Path)
		assert.Equal(t, "WB777", r.URL.Query().Get("waybill"))
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"ShipmentData": []map[string]interface{}{
				{"Status": map[string]string{"Status": "Delivered"}},
			},
		})
	}))
	defer server.Close()

	status, err := newClient(server.URL).TrackShipment(context.Background(), "WB777")
	require.NoError(t, err)
	assert.Equal(t, "Delivered", status)
}

func TestTrackShipment_NoData(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{"ShipmentData": []interface{}{}})
	}))
	defer server.Close()

	_, err := newClient(server.URL).TrackShipment(context.Background(), "WB777")
	assert.ErrorContains(t, err, "no tracking data")
}

func TestCancelShipment(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/edit", r.URL.Path)
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "WB777", body["waybill"])
		assert.Equal(t, "true", body["cancellation"])
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	assert.NoError(t, newClient(server.URL).CancelShipment(context.Background(), "WB777"))
}

func TestCancelShipment_CarrierRefuses(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	assert.Error(t, newClient(server.URL).CancelShipment(context.Background(), "WB777"))
}
