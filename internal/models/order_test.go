package models_test

import (
	"testing"

	"bazaar/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestOrder_Terminal(t *testing.T) {
	assert.False(t, (&models.Order{Status: models.OrderStatusPending}).Terminal())
	assert.True(t, (&models.Order{Status: models.OrderStatusCompleted}).Terminal())
	assert.True(t, (&models.Order{Status: models.OrderStatusCancelled}).Terminal())
}

func TestOrder_EligibleForFulfillment(t *testing.T) {
	tests := []struct {
		name     string
		order    models.Order
		eligible bool
	}{
		{
			name:     "COD pending",
			order:    models.Order{PaymentType: models.PaymentTypeCOD, Status: models.OrderStatusPending},
			eligible: true,
		},
		{
			name: "Pre-Paid with payment completed",
			order: models.Order{
				PaymentType:   models.PaymentTypePrePaid,
				Status:        models.OrderStatusPending,
				PaymentStatus: models.PaymentStatusCompleted,
			},
			eligible: true,
		},
		{
			name: "Pre-Paid with payment pending",
			order: models.Order{
				PaymentType:   models.PaymentTypePrePaid,
				Status:        models.OrderStatusPending,
				PaymentStatus: models.PaymentStatusPending,
			},
			eligible: false,
		},
		{
			name: "Pre-Paid with payment failed",
			order: models.Order{
				PaymentType:   models.PaymentTypePrePaid,
				Status:        models.OrderStatusPending,
				PaymentStatus: models.PaymentStatusFailed,
			},
			eligible: false,
		},
		{
			name: "already shipped",
			order: models.Order{
				PaymentType:  models.PaymentTypeCOD,
				Status:       models.OrderStatusPending,
				OrderCreated: true,
			},
			eligible: false,
		},
		{
			name:     "cancelled order",
			order:    models.Order{PaymentType: models.PaymentTypeCOD, Status: models.OrderStatusCancelled},
			eligible: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.eligible, tt.order.EligibleForFulfillment())
		})
	}
}
