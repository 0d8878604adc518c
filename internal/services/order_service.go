package services

import (
	"context"
	"encoding/json"
	"fmt"

	"bazaar/internal/models"
	"bazaar/internal/repositories"
	"bazaar/pkg/rabbitmq"

	log "github.com/sirupsen/logrus"
)

// OrderService handles order lookup, cancellation and returns for
// authenticated principals.
type OrderService struct {
	orderRepo repositories.OrderRepository
	carrier   ShipmentCanceller
	events    EventPublisher
	logger    *log.Entry
}

// NewOrderService creates a new OrderService.
func NewOrderService(orderRepo repositories.OrderRepository, carrier ShipmentCanceller, events EventPublisher) *OrderService {
	return &OrderService{
		orderRepo: orderRepo,
		carrier:   carrier,
		events:    events,
		logger:    log.WithField("component", "order-service"),
	}
}

// GetOrder retrieves a single order. Non-admin callers may only read their
// own orders.
func (s *OrderService) GetOrder(userID, role, id string) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if role != models.RoleAdmin && order.UserID != userID {
		return nil, models.ErrForbidden
	}
	return order, nil
}

// ListOrders retrieves the caller's order history, newest first.
func (s *OrderService) ListOrders(userID string) ([]models.Order, error) {
	return s.orderRepo.FindByUser(userID)
}

// Cancel cancels a pending order. Non-admin callers may only cancel their
// own orders. When a carrier shipment already exists the carrier must concur
// before the ledger is touched: a failed carrier cancellation aborts the
// whole operation and the order stays PENDING.
func (s *OrderService) Cancel(ctx context.Context, userID, role, id string) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if role != models.RoleAdmin && order.UserID != userID {
		return nil, models.ErrForbidden
	}
	if order.Status != models.OrderStatusPending {
		return nil, models.ErrOrderNotPending
	}

	if order.OrderCreated {
		if err := s.carrier.CancelShipment(ctx, order.WayBill); err != nil {
			return nil, fmt.Errorf("%w: %v", models.ErrCarrierCancellation, err)
		}
	}

	cancelled, err := s.orderRepo.MarkCancelled(id)
	if err != nil {
		return nil, err
	}
	if !cancelled {
		// The order left PENDING between our read and the update.
		return nil, models.ErrOrderNotPending
	}

	s.publishEvent(rabbitmq.RouteOrderCancelled, order.OrderID, order.UserID)
	return s.orderRepo.GetByID(id)
}

// Return flags a delivered order as returned so the tracking task follows
// the shipment back to origin.
func (s *OrderService) Return(userID, role, id string) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if role != models.RoleAdmin && order.UserID != userID {
		return nil, models.ErrForbidden
	}
	if order.Status != models.OrderStatusCompleted {
		return nil, models.ErrOrderNotDelivered
	}

	if err := s.orderRepo.MarkReturned(id); err != nil {
		return nil, err
	}
	return s.orderRepo.GetByID(id)
}

func (s *OrderService) publishEvent(routingKey, orderID, userID string) {
	if s.events == nil {
		return
	}
	body, err := json.Marshal(map[string]string{
		"order_id": orderID,
		"user_id":  userID,
	})
	if err != nil {
		s.logger.WithError(err).Warn("Failed to marshal event payload")
		return
	}
	if err := s.events.Publish(routingKey, body); err != nil {
		s.logger.WithError(err).WithField("routing_key", routingKey).Warn("Failed to publish event")
	}
}
