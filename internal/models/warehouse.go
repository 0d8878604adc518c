package models

import "time"

// Warehouse is the pickup location every shipment is built from. One record
// per deployment; fulfillment skips its cycle while none exists.
type Warehouse struct {
	ID      string `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Name    string `json:"name" validate:"required"`
	Email   string `json:"email" validate:"omitempty,email"`
	Phone   string `json:"phone" validate:"required"`
	Address string `json:"address" validate:"required"`
	City    string `json:"city" validate:"required"`
	State   string `json:"state"`
	Country string `json:"country"`
	Pin     string `json:"pin" validate:"required"`

	// Return address for RTO shipments.
	ReturnAddress string `json:"return_address"`
	ReturnPin     string `json:"return_pin"`
	ReturnCity    string `json:"return_city"`
	ReturnState   string `json:"return_state"`
	ReturnCountry string `json:"return_country"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
