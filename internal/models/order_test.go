package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateTransition(t *testing.T) {
	tests := []struct {
		name    string
		from    OrderStatus
		to      OrderStatus
		allowed bool
	}{
		{"pending to confirmed", OrderPending, OrderConfirmed, true},
		{"pending to cancelled", OrderPending, OrderCancelled, true},
		{"pending skips to preparing", OrderPending, OrderPreparing, false},
		{"pending skips to delivered", OrderPending, OrderDelivered, false},
		{"confirmed to preparing", OrderConfirmed, OrderPreparing, true},
		{"preparing to ready", OrderPreparing, OrderReady, true},
		{"ready to delivered", OrderReady, OrderDelivered, true},
		{"ready to cancelled", OrderReady, OrderCancelled, true},
		{"preparing back to confirmed", OrderPreparing, OrderConfirmed, false},
		{"same status", OrderConfirmed, OrderConfirmed, false},
		{"delivered to preparing", OrderDelivered, OrderPreparing, false},
		{"delivered to cancelled", OrderDelivered, OrderCancelled, false},
		{"cancelled to pending", OrderCancelled, OrderPending, false},
		{"unknown target", OrderPending, OrderStatus("shipped"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateTransition(tt.from, tt.to)
			if tt.allowed {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalidTransition)
			}
		})
	}
}

func TestOrderStatus_Next(t *testing.T) {
	next, ok := OrderPending.Next()
	require.True(t, ok)
	assert.Equal(t, OrderConfirmed, next)

	_, ok = OrderDelivered.Next()
	assert.False(t, ok)

	_, ok = OrderCancelled.Next()
	assert.False(t, ok)
}

func TestOrder_StatusLabel(t *testing.T) {
	delivery := &Order{Status: OrderReady, DeliveryMethod: DeliveryMethodDelivery}
	pickup := &Order{Status: OrderReady, DeliveryMethod: DeliveryMethodPickup}

	assert.Equal(t, "Out for Delivery", delivery.StatusLabel())
	assert.Equal(t, "Ready for Pickup", pickup.StatusLabel())

	pickup.Status = OrderDelivered
	assert.Equal(t, "Picked Up", pickup.StatusLabel())
}

func TestDeliveryAddress_IsComplete(t *testing.T) {
	assert.True(t, DeliveryAddress{Street: "1 Main St", City: "Springfield"}.IsComplete())
	assert.False(t, DeliveryAddress{Street: "  ", City: "Springfield"}.IsComplete())
	assert.False(t, DeliveryAddress{Street: "1 Main St"}.IsComplete())
}
