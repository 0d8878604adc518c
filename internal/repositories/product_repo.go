package repositories

import (
	"bazaar/internal/models"
)

// ProductRepository defines the interface for product data access.
type ProductRepository interface {
	GetAll() ([]models.Product, error)
	GetByID(id string) (*models.Product, error)
	Create(product *models.Product) error
	Update(product *models.Product) error
	Delete(id string) error
	// DecrementStock atomically reduces the product's stock by quantity,
	// floored at zero. Concurrent fulfillment of different orders for the
	// same product must never drive stock negative.
	DecrementStock(id string, quantity int) error
}
