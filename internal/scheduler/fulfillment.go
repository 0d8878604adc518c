package scheduler

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"bazaar/internal/models"
	"bazaar/pkg/delhivery"
	"bazaar/pkg/rabbitmq"

	log "github.com/sirupsen/logrus"
)

// runFulfillment is one shipment-creation batch: it scans pending orders
// without a shipment, filters to the payment-eligible ones, and asks the
// carrier to create a shipment for each. A failure on one order is logged
// and the batch moves on; the order is retried on the next cycle.
func (s *Scheduler) runFulfillment(ctx context.Context) {
	logger := s.logger.WithField("task", "fulfillment")

	orders, err := s.orderRepo.FindAwaitingShipment()
	if err != nil {
		logger.WithError(err).Error("Failed to query orders awaiting shipment")
		return
	}
	if len(orders) == 0 {
		return
	}

	warehouse, err := s.warehouseRepo.Get()
	if err != nil {
		// No pickup location means no shipment can be built; skip the whole
		// cycle rather than fail per order.
		logger.WithError(err).Warn("No warehouse configured, skipping fulfillment cycle")
		return
	}

	for i := range orders {
		order := &orders[i]
		if !order.EligibleForFulfillment() {
			continue
		}
		if err := s.fulfillOrder(ctx, order, warehouse); err != nil {
			logger.WithError(err).WithField("order_id", order.OrderID).Error("Fulfillment attempt failed")
		}
	}
}

// fulfillOrder creates a carrier shipment for a single eligible order. The
// claim flip guards against overlapping cycles: only the goroutine that wins
// the claim talks to the carrier.
func (s *Scheduler) fulfillOrder(ctx context.Context, order *models.Order, warehouse *models.Warehouse) error {
	logger := s.logger.WithFields(log.Fields{"task": "fulfillment", "order_id": order.OrderID})

	claimed, err := s.orderRepo.ClaimForFulfillment(order.ID)
	if err != nil {
		return fmt.Errorf("failed to claim order: %w", err)
	}
	if !claimed {
		logger.Debug("Order already claimed or shipped, skipping")
		return nil
	}

	// A waybill reserved upfront is a nicety; the carrier assigns one at
	// creation anyway, so a fetch failure is only worth a warning.
	wayBill, err := s.carrier.FetchWaybill(ctx, order.Address.Name)
	if err != nil {
		logger.WithError(err).Warn("Waybill fetch failed, proceeding without")
		wayBill = ""
	}

	req := s.buildShipmentRequest(order, warehouse, wayBill)
	assignedWayBill, err := s.carrier.CreateShipment(ctx, req)
	if err != nil {
		// Release so the next cycle retries the order.
		if relErr := s.orderRepo.ReleaseClaim(order.ID); relErr != nil {
			logger.WithError(relErr).Error("Failed to release fulfillment claim")
		}
		return fmt.Errorf("carrier shipment creation failed: %w", err)
	}

	if err := s.orderRepo.MarkShipmentCreated(order.ID, assignedWayBill); err != nil {
		return fmt.Errorf("failed to record shipment: %w", err)
	}

	// Stock is reserved only now, after the carrier confirmed the shipment.
	// MarkShipmentCreated above guarantees this runs once per order.
	for _, item := range order.Items {
		if err := s.productRepo.DecrementStock(item.ProductID, item.Quantity); err != nil {
			logger.WithError(err).WithField("product_id", item.ProductID).Warn("Stock decrement failed")
		}
	}

	logger.WithField("way_bill", assignedWayBill).Info("Shipment created")
	s.publish(rabbitmq.RouteOrderShipped, map[string]string{
		"order_id": order.OrderID,
		"user_id":  order.UserID,
		"way_bill": assignedWayBill,
	})
	return nil
}

func (s *Scheduler) buildShipmentRequest(order *models.Order, warehouse *models.Warehouse, wayBill string) delhivery.ShipmentRequest {
	titles := make([]string, 0, len(order.Items))
	for _, item := range order.Items {
		if product, err := s.productRepo.GetByID(item.ProductID); err == nil {
			titles = append(titles, product.Name)
		} else {
			titles = append(titles, item.ProductID)
		}
	}

	codAmount := 0.0
	if order.PaymentType == models.PaymentTypeCOD {
		codAmount = order.Amount
	}

	// RTO shipments go to the warehouse return address when one is
	// configured, otherwise back to the pickup address.
	returnAdd, returnPin := warehouse.ReturnAddress, warehouse.ReturnPin
	returnCity, returnState, returnCountry := warehouse.ReturnCity, warehouse.ReturnState, warehouse.ReturnCountry
	if returnAdd == "" {
		returnAdd, returnPin = warehouse.Address, warehouse.Pin
		returnCity, returnState, returnCountry = warehouse.City, warehouse.State, warehouse.Country
	}

	return delhivery.ShipmentRequest{
		Shipments: []delhivery.Shipment{
			{
				Name:           order.Address.Name,
				Add:            order.Address.Address,
				Pin:            order.Address.PinCode,
				City:           order.Address.City,
				Country:        order.Address.Country,
				Phone:          order.Address.Phone,
				Order:          strings.Join(titles, ", "),
				PaymentMode:    order.PaymentType,
				CODAmount:      codAmount,
				ShipmentWidth:  "10",
				ShipmentHeight: "15",
				ShippingMode:   "Express",
				ReturnAdd:      returnAdd,
				ReturnPin:      returnPin,
				ReturnCity:     returnCity,
				ReturnState:    returnState,
				ReturnCountry:  returnCountry,
			},
		},
		PickupLocation: delhivery.PickupLocation{
			Name:    warehouse.Name,
			Add:     warehouse.Address,
			City:    warehouse.City,
			PinCode: warehouse.Pin,
			Country: warehouse.Country,
			Phone:   warehouse.Phone,
		},
		WayBill: wayBill,
	}
}

func (s *Scheduler) publish(routingKey string, payload map[string]string) {
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
