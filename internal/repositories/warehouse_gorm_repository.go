package repositories

import (
	"errors"
	"fmt"

	"bazaar/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GORMWarehouseRepository is a GORM implementation of WarehouseRepository.
type GORMWarehouseRepository struct {
	db *gorm.DB
}

// NewGORMWarehouseRepository creates a new instance of GORMWarehouseRepository.
func NewGORMWarehouseRepository(db *gorm.DB) *GORMWarehouseRepository {
	return &GORMWarehouseRepository{
		db: db,
	}
}

// Get retrieves the deployment's warehouse record.
func (r *GORMWarehouseRepository) Get() (*models.Warehouse, error) {
	var warehouse models.Warehouse
	if err := r.db.First(&warehouse).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.ErrWarehouseNotFound
		}
		return nil, fmt.Errorf("failed to get warehouse: %w", err)
	}
	return &warehouse, nil
}

// Save creates or updates the warehouse record.
func (r *GORMWarehouseRepository) Save(warehouse *models.Warehouse) error {
	if warehouse.ID == "" {
		warehouse.ID = uuid.New().String()
	}
	if err := r.db.Save(warehouse).Error; err != nil {
		return fmt.Errorf("failed to save warehouse: %w", err)
	}
	return nil
}
