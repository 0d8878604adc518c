package repositories

import (
	"errors"
	"fmt"
	"time"

	"bazaar/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GORMOrderRepository is a GORM implementation of OrderRepository.
type GORMOrderRepository struct {
	db *gorm.DB
}

// NewGORMOrderRepository creates a new instance of GORMOrderRepository.
func NewGORMOrderRepository(db *gorm.DB) *GORMOrderRepository {
	return &GORMOrderRepository{
		db: db,
	}
}

// Create persists a new order with ledger defaults applied.
func (r *GORMOrderRepository) Create(order *models.Order) error {
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
	if err := r.db.Create(order).Error; err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}
	return nil
}

// GetByID retrieves a single order by its internal ID.
func (r *GORMOrderRepository) GetByID(id string) (*models.Order, error) {
	var order models.Order
	if err := r.db.First(&order, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to get order by ID %s: %w", id, err)
	}
	return &order, nil
}

// GetByOrderID retrieves a single order by its externally-visible order id.
func (r *GORMOrderRepository) GetByOrderID(orderID string) (*models.Order, error) {
	var order models.Order
	if err := r.db.First(&order, "order_id = ?", orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to get order by order id %s: %w", orderID, err)
	}
	return &order, nil
}

// FindByUser retrieves all orders placed by a user, newest first.
func (r *GORMOrderRepository) FindByUser(userID string) ([]models.Order, error) {
	var orders []models.Order
	if err := r.db.Where("user_id = ?", userID).Order("created_at DESC").Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("failed to find orders for user %s: %w", userID, err)
	}
	return orders, nil
}

// FindAwaitingShipment retrieves pending orders with no carrier shipment yet.
func (r *GORMOrderRepository) FindAwaitingShipment() ([]models.Order, error) {
	var orders []models.Order
	err := r.db.
		Where("order_created = ? AND status = ?", false, models.OrderStatusPending).
		Find(&orders).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find orders awaiting shipment: %w", err)
	}
	return orders, nil
}

// FindInTransit retrieves shipped orders that still need tracking.
func (r *GORMOrderRepository) FindInTransit() ([]models.Order, error) {
	var orders []models.Order
	err := r.db.
		Where("order_created = ? AND (status = ? OR is_returned = ?)", true, models.OrderStatusPending, true).
		Find(&orders).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find orders in transit: %w", err)
	}
	return orders, nil
}

// ClaimForFulfillment flips the in-flight flag only while the order is still
// unclaimed and unshipped. RowsAffected tells us whether we won the claim.
func (r *GORMOrderRepository) ClaimForFulfillment(id string) (bool, error) {
	res := r.db.Model(&models.Order{}).
		Where("id = ? AND order_created = ? AND in_flight = ?", id, false, false).
		Update("in_flight", true)
	if res.Error != nil {
		return false, fmt.Errorf("failed to claim order %s for fulfillment: %w", id, res.Error)
	}
	return res.RowsAffected > 0, nil
}

// ReleaseClaim drops the in-flight mark so the next cycle can retry.
func (r *GORMOrderRepository) ReleaseClaim(id string) error {
	res := r.db.Model(&models.Order{}).
		Where("id = ?", id).
		Update("in_flight", false)
	if res.Error != nil {
		return fmt.Errorf("failed to release fulfillment claim on order %s: %w", id, res.Error)
	}
	return nil
}

// ReleaseStaleClaims clears leftover in-flight marks on unshipped orders.
func (r *GORMOrderRepository) ReleaseStaleClaims() (int64, error) {
	res := r.db.Model(&models.Order{}).
		Where("order_created = ? AND in_flight = ?", false, true).
		Update("in_flight", false)
	if res.Error != nil {
		return 0, fmt.Errorf("failed to release stale fulfillment claims: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// MarkShipmentCreated records the waybill and flips orderCreated in a single
// write, consuming the in-flight claim.
func (r *GORMOrderRepository) MarkShipmentCreated(id, wayBill string) error {
	res := r.db.Model(&models.Order{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"way_bill":      wayBill,
			"order_created": true,
			"in_flight":     false,
		})
	if res.Error != nil {
		return fmt.Errorf("failed to mark shipment created for order %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return models.ErrOrderNotFound
	}
	return nil
}

// SetPaymentStatus applies a gateway-reported payment outcome by external
// order id. Re-applying the same outcome is a no-op beyond rewriting the
// same values.
func (r *GORMOrderRepository) SetPaymentStatus(orderID, paymentStatus, receipt string) error {
	updates := map[string]interface{}{"payment_status": paymentStatus}
	if receipt != "" {
		updates["receipt"] = receipt
	}
	res := r.db.Model(&models.Order{}).
		Where("order_id = ?", orderID).
		Updates(updates)
	if res.Error != nil {
		return fmt.Errorf("failed to set payment status for order %s: %w", orderID, res.Error)
	}
	if res.RowsAffected == 0 {
		return models.ErrOrderNotFound
	}
	return nil
}

// SetDeliveryStatus records the raw carrier-reported status.
func (r *GORMOrderRepository) SetDeliveryStatus(id, deliveryStatus string) error {
	res := r.db.Model(&models.Order{}).
		Where("id = ?", id).
		Update("delivery_status", deliveryStatus)
	if res.Error != nil {
		return fmt.Errorf("failed to set delivery status for order %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return models.ErrOrderNotFound
	}
	return nil
}

// MarkDelivered completes a pending order. The status guard keeps terminal
// states absorbing.
func (r *GORMOrderRepository) MarkDelivered(id string, deliveredAt time.Time) (bool, error) {
	res := r.db.Model(&models.Order{}).
		Where("id = ? AND status = ?", id, models.OrderStatusPending).
		Updates(map[string]interface{}{
			"status":         models.OrderStatusCompleted,
			"payment_status": models.PaymentStatusCompleted,
			"delivered_date": deliveredAt,
		})
	if res.Error != nil {
		return false, fmt.Errorf("failed to mark order %s delivered: %w", id, res.Error)
	}
	return res.RowsAffected > 0, nil
}

// MarkCancelled cancels a pending order.
func (r *GORMOrderRepository) MarkCancelled(id string) (bool, error) {
	res := r.db.Model(&models.Order{}).
		Where("id = ? AND status = ?", id, models.OrderStatusPending).
		Update("status", models.OrderStatusCancelled)
	if res.Error != nil {
		return false, fmt.Errorf("failed to mark order %s cancelled: %w", id, res.Error)
	}
	return res.RowsAffected > 0, nil
}

// MarkReturned flags a delivered order as returned so the tracking task
// follows the shipment back to origin.
func (r *GORMOrderRepository) MarkReturned(id string) error {
	res := r.db.Model(&models.Order{}).
		Where("id = ?", id).
		Update("is_returned", true)
	if res.Error != nil {
		return fmt.Errorf("failed to mark order %s returned: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return models.ErrOrderNotFound
	}
	return nil
}
