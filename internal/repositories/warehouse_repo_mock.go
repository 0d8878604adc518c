package repositories

import (
	"sync"

	"bazaar/internal/models"

	"github.com/google/uuid"
)

// MockWarehouseRepository is an in-memory implementation of WarehouseRepository.
type MockWarehouseRepository struct {
	warehouse *models.Warehouse
	mu        sync.RWMutex
}

// NewMockWarehouseRepository creates a new instance of MockWarehouseRepository.
func NewMockWarehouseRepository() *MockWarehouseRepository {
	return &MockWarehouseRepository{}
}

// Get returns the warehouse record if one was saved.
func (r *MockWarehouseRepository) Get() (*models.Warehouse, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.warehouse == nil {
		return nil, models.ErrWarehouseNotFound
	}
	w := *r.warehouse
	return &w, nil
}

// Save stores the warehouse record.
func (r *MockWarehouseRepository) Save(warehouse *models.Warehouse) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if warehouse.ID == "" {
		warehouse.ID = uuid.New().String()
	}
	w := *warehouse
	r.warehouse = &w
	return nil
}
