package models

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type Order struct {
	ID                  string          `json:"id" gorm:"type:uuid;primaryKey"`
	OrderNumber         string          `json:"order_number" gorm:"uniqueIndex:idx_orders_order_number;not null"`
	UserID              uint            `json:"user_id" gorm:"index;not null"`
	Items               []OrderItem     `json:"items" gorm:"foreignKey:OrderID;constraint:OnDelete:RESTRICT"`
	Subtotal            decimal.Decimal `json:"subtotal" gorm:"type:numeric(10,4);not null"`
	DeliveryFee         decimal.Decimal `json:"delivery_fee" gorm:"type:numeric(10,2);not null"`
	Tax                 decimal.Decimal `json:"tax" gorm:"type:numeric(10,4);not null"`
	TotalAmount         decimal.Decimal `json:"total_amount" gorm:"type:numeric(10,2);not null"`
	AmountCharged       int64           `json:"amount_charged" gorm:"not null"` // minor units
	Currency            string          `json:"currency" gorm:"type:varchar(3);not null"`
	Status              OrderStatus     `json:"status" gorm:"type:varchar(20);default:'pending';index"`
	PaymentStatus       PaymentStatus   `json:"payment_status" gorm:"type:varchar(20);default:'pending'"`
	PaymentMethod       PaymentMethod   `json:"payment_method" gorm:"type:varchar(20);default:'stripe'"`
	PaymentReference    string          `json:"payment_reference" gorm:"uniqueIndex:idx_orders_payment_reference;not null"`
	DeliveryMethod      DeliveryMethod  `json:"delivery_method" gorm:"type:varchar(20);not null"`
	DeliveryAddress     DeliveryAddress `json:"delivery_address" gorm:"embedded;embeddedPrefix:delivery_"`
	CustomerName        string          `json:"customer_name" gorm:"not null"`
	CustomerEmail       string          `json:"customer_email" gorm:"not null"`
	CustomerPhone       string          `json:"customer_phone" gorm:"not null"`
	SpecialInstructions string          `json:"special_instructions,omitempty" gorm:"type:text"`
	EstimatedReadyAt    *time.Time      `json:"estimated_ready_at,omitempty"`
	CreatedAt           time.Time       `json:"created_at" gorm:"index"`
	UpdatedAt           time.Time       `json:"updated_at"`
}

type DeliveryAddress struct {
	Street  string `json:"street"`
	City    string `json:"city"`
	ZipCode string `json:"zip_code"`
	Country string `json:"country"`
	Phone   string `json:"phone"`
}

// IsComplete reports whether the address can be delivered to.
func (a DeliveryAddress) IsComplete() bool {
	return strings.TrimSpace(a.Street) != "" && strings.TrimSpace(a.City) != ""
}

type DeliveryMethod string

const (
	DeliveryMethodDelivery DeliveryMethod = "delivery"
	DeliveryMethodPickup   DeliveryMethod = "pickup"
)

func (m DeliveryMethod) IsValid() bool {
	return m == DeliveryMethodDelivery || m == DeliveryMethodPickup
}

type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentFailed   PaymentStatus = "failed"
	PaymentRefunded PaymentStatus = "refunded"
)

type PaymentMethod string

const (
	PaymentMethodStripe PaymentMethod = "stripe"
	PaymentMethodPaypal PaymentMethod = "paypal"
	PaymentMethodCash   PaymentMethod = "cash"
)

type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderConfirmed OrderStatus = "confirmed"
	OrderPreparing OrderStatus = "preparing"
	OrderReady     OrderStatus = "ready"
	OrderDelivered OrderStatus = "delivered"
	OrderCancelled OrderStatus = "cancelled"
)

// statusSequence is the forward-only fulfilment path. Cancelled sits outside it.
var statusSequence = []OrderStatus{
	OrderPending,
	OrderConfirmed,
	OrderPreparing,
	OrderReady,
	OrderDelivered,
}

var ErrInvalidTransition = errors.New("invalid status transition")

func (s OrderStatus) index() int {
	for i, st := range statusSequence {
		if st == s {
			return i
		}
	}
	return -1
}

func (s OrderStatus) IsValid() bool {
	return s == OrderCancelled || s.index() >= 0
}

func (s OrderStatus) IsTerminal() bool {
	return s == OrderDelivered || s == OrderCancelled
}

// Next returns the immediate successor on the fulfilment path.
func (s OrderStatus) Next() (OrderStatus, bool) {
	i := s.index()
	if i < 0 || i == len(statusSequence)-1 {
		return "", false
	}
	return statusSequence[i+1], true
}

// ValidateTransition allows advancing exactly one step or cancelling a
// non-terminal order. Everything else wraps ErrInvalidTransition.
func ValidateTransition(from, to OrderStatus) error {
	if !from.IsValid() || !to.IsValid() {
		return fmt.Errorf("%w: unknown status %q -> %q", ErrInvalidTransition, from, to)
	}
	if from.IsTerminal() {
		return fmt.Errorf("%w: order is already %s", ErrInvalidTransition, from)
	}
	if to == OrderCancelled {
		return nil
	}
	if next, ok := from.Next(); ok && next == to {
		return nil
	}
	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
}

// StatusLabel is the customer-facing wording; "ready" and "delivered" read
// differently for pickup orders.
func (o *Order) StatusLabel() string {
	pickup := o.DeliveryMethod == DeliveryMethodPickup
	switch o.Status {
	case OrderPending:
		return "Order Placed"
	case OrderConfirmed:
		return "Confirmed"
	case OrderPreparing:
		return "Preparing"
	case OrderReady:
		if pickup {
			return "Ready for Pickup"
		}
		return "Out for Delivery"
	case OrderDelivered:
		if pickup {
			return "Picked Up"
		}
		return "Delivered"
	case OrderCancelled:
		return "Cancelled"
	}
	return string(o.Status)
}
