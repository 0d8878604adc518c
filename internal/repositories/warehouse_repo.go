package repositories

import (
	"bazaar/internal/models"
)

// WarehouseRepository defines the interface for pickup-warehouse access.
// Deployments carry a single warehouse record; Get returns it or
// models.ErrWarehouseNotFound.
type WarehouseRepository interface {
	Get() (*models.Warehouse, error)
	Save(warehouse *models.Warehouse) error
}
