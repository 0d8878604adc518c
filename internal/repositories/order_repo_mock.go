package repositories

import (
	"sort"
	"sync"
	"time"

	"bazaar/internal/models"

	"github.com/google/uuid"
)

// MockOrderRepository is an in-memory implementation of OrderRepository.
type MockOrderRepository struct {
	orders map[string]models.Order
	mu     sync.RWMutex
}

// NewMockOrderRepository creates a new instance of MockOrderRepository.
func NewMockOrderRepository() *MockOrderRepository {
	return &MockOrderRepository{
		orders: make(map[string]models.Order),
	}
}

// Create adds a new order with ledger defaults applied.
func (r *MockOrderRepository) Create(order *models.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if order.ID == "" {
		order.ID = uuid.New().String()
	}
	if order.Status == "" {
		order.Status = models.OrderStatusPending
	}
	if order.PaymentStatus == "" {
		order.PaymentStatus = models.PaymentStatusPending
	}
	if order.DeliveryStatus == "" {
		order.DeliveryStatus = models.DeliveryStatusOrdered
	}
	order.CreatedAt = time.Now()
	order.UpdatedAt = time.Now()
	r.orders[order.ID] = *order
	return nil
}

// GetByID returns an order by its internal ID.
func (r *MockOrderRepository) GetByID(id string) (*models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	order, ok := r.orders[id]
	if !ok {
		return nil, models.ErrOrderNotFound
	}
	return &order, nil
}

// GetByOrderID returns an order by its externally-visible order id.
func (r *MockOrderRepository) GetByOrderID(orderID string) (*models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, order := range r.orders {
		if order.OrderID == orderID {
			o := order
			return &o, nil
		}
	}
	return nil, models.ErrOrderNotFound
}

// FindByUser returns all orders placed by a user, newest first.
func (r *MockOrderRepository) FindByUser(userID string) ([]models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var orders []models.Order
	for _, order := range r.orders {
		if order.UserID == userID {
			orders = append(orders, order)
		}
	}
	sort.Slice(orders, func(i, j int) bool {
		return orders[i].CreatedAt.After(orders[j].CreatedAt)
	})
	return orders, nil
}

// FindAwaitingShipment returns pending orders with no carrier shipment yet.
func (r *MockOrderRepository) FindAwaitingShipment() ([]models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var orders []models.Order
	for _, order := range r.orders {
		if !order.OrderCreated && order.Status == models.OrderStatusPending {
			orders = append(orders, order)
		}
	}
	return orders, nil
}

// FindInTransit returns shipped orders that still need tracking.
func (r *MockOrderRepository) FindInTransit() ([]models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var orders []models.Order
	for _, order := range r.orders {
		if order.OrderCreated && (order.Status == models.OrderStatusPending || order.IsReturned) {
			orders = append(orders, order)
		}
	}
	return orders, nil
}

// ClaimForFulfillment atomically marks the order in-flight.
func (r *MockOrderRepository) ClaimForFulfillment(id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	order, ok := r.orders[id]
	if !ok || order.OrderCreated || order.InFlight {
		return false, nil
	}
	order.InFlight = true
	order.UpdatedAt = time.Now()
	r.orders[id] = order
	return true, nil
}

// ReleaseClaim drops the in-flight mark.
func (r *MockOrderRepository) ReleaseClaim(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	order, ok := r.orders[id]
	if !ok {
		return models.ErrOrderNotFound
	}
	order.InFlight = false
	order.UpdatedAt = time.Now()
	r.orders[id] = order
	return nil
}

// ReleaseStaleClaims clears leftover in-flight marks on unshipped orders.
func (r *MockOrderRepository) ReleaseStaleClaims() (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var released int64
	for id, order := range r.orders {
		if !order.OrderCreated && order.InFlight {
			order.InFlight = false
			order.UpdatedAt = time.Now()
			r.orders[id] = order
			released++
		}
	}
	return released, nil
}

// MarkShipmentCreated records the waybill and flips orderCreated.
func (r *MockOrderRepository) MarkShipmentCreated(id, wayBill string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	order, ok := r.orders[id]
	if !ok {
		return models.ErrOrderNotFound
	}
	order.WayBill = wayBill
	order.OrderCreated = true
	order.InFlight = false
	order.UpdatedAt = time.Now()
	r.orders[id] = order
	return nil
}

// SetPaymentStatus applies a gateway-reported payment outcome.
func (r *MockOrderRepository) SetPaymentStatus(orderID, paymentStatus, receipt string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, order := range r.orders {
		if order.OrderID == orderID {
			order.PaymentStatus = paymentStatus
			if receipt != "" {
				order.Receipt = receipt
			}
			order.UpdatedAt = time.Now()
			r.orders[id] = order
			return nil
		}
	}
	return models.ErrOrderNotFound
}

// SetDeliveryStatus records the raw carrier-reported status.
func (r *MockOrderRepository) SetDeliveryStatus(id, deliveryStatus string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	order, ok := r.orders[id]
	if !ok {
		return models.ErrOrderNotFound
	}
	order.DeliveryStatus = deliveryStatus
	order.UpdatedAt = time.Now()
	r.orders[id] = order
	return nil
}

// MarkDelivered completes a pending order.
func (r *MockOrderRepository) MarkDelivered(id string, deliveredAt time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	order, ok := r.orders[id]
	if !ok || order.Status != models.OrderStatusPending {
		return false, nil
	}
	order.Status = models.OrderStatusCompleted
	order.PaymentStatus = models.PaymentStatusCompleted
	order.DeliveredDate = &deliveredAt
	order.UpdatedAt = time.Now()
	r.orders[id] = order
	return true, nil
}

// MarkCancelled cancels a pending order.
func (r *MockOrderRepository) MarkCancelled(id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	order, ok := r.orders[id]
	if !ok || order.Status != models.OrderStatusPending {
		return false, nil
	}
	order.Status = models.OrderStatusCancelled
	order.UpdatedAt = time.Now()
	r.orders[id] = order
	return true, nil
}

// MarkReturned flags a delivered order as returned.
func (r *MockOrderRepository) MarkReturned(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	order, ok := r.orders[id]
	if !ok {
		return models.ErrOrderNotFound
	}
	order.IsReturned = true
	order.UpdatedAt = time.Now()
	r.orders[id] = order
	return nil
}
