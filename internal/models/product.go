package models

import "gorm.io/gorm"

// Product status values. Blocked products are hidden from the storefront but
// keep their rows so existing orders can still reference them.
const (
	ProductStatusActive  = "ACTIVE"
	ProductStatusBlocked = "BLOCK"
)

// Product represents a product in the store.
type Product struct {
	ID            string  `json:"id" gorm:"primaryKey;type:varchar(36)" validate:"omitempty,uuid"`
	Name          string  `json:"name" validate:"required,min=3,max=100"`
	Description   string  `json:"description" validate:"omitempty,max=500"`
	Price         float64 `json:"price" validate:"required,gt=0"`
	DiscountPrice float64 `json:"discount_price" validate:"omitempty,gte=0"`
	Stock         int     `json:"stock" validate:"gte=0"`
	Status        string  `json:"status" gorm:"type:varchar(16)"`
	gorm.Model            // Embed gorm.Model for CreatedAt, UpdatedAt, DeletedAt
}
