// Package pricing turns cart lines and a delivery method into a price
// breakdown. Nothing here touches storage or the network.
package pricing

import (
	"storefront/internal/cart"
	"storefront/internal/models"

	"github.com/shopspring/decimal"
)

type Rules struct {
	FreeDeliveryThreshold decimal.Decimal
	DeliveryFee           decimal.Decimal
	TaxRate               decimal.Decimal
}

// DefaultRules: free delivery from 50.00, otherwise 5.99; 8% tax on food only.
var DefaultRules = Rules{
	FreeDeliveryThreshold: decimal.NewFromInt(50),
	DeliveryFee:           decimal.RequireFromString("5.99"),
	TaxRate:               decimal.RequireFromString("0.08"),
}

// Quote is an unrounded breakdown. Round only via ChargeTotal, AmountMinor
// or Rounded.
type Quote struct {
	Subtotal    decimal.Decimal `json:"subtotal"`
	DeliveryFee decimal.Decimal `json:"delivery_fee"`
	Tax         decimal.Decimal `json:"tax"`
	Total       decimal.Decimal `json:"total"`
}

// Calculate prices lines with DefaultRules.
func Calculate(lines []cart.Line, method models.DeliveryMethod) Quote {
	return DefaultRules.Quote(lines, method)
}

func (r Rules) Quote(lines []cart.Line, method models.DeliveryMethod) Quote {
	zero := decimal.Zero
	if len(lines) == 0 {
		return Quote{Subtotal: zero, DeliveryFee: zero, Tax: zero, Total: zero}
	}

	subtotal := decimal.Zero
	for _, l := range lines {
		subtotal = subtotal.Add(l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}

	fee := decimal.Zero
	if method == models.DeliveryMethodDelivery && subtotal.LessThan(r.FreeDeliveryThreshold) {
		fee = r.DeliveryFee
	}

	tax := subtotal.Mul(r.TaxRate)

	return Quote{
		Subtotal:    subtotal,
		DeliveryFee: fee,
		Tax:         tax,
		Total:       subtotal.Add(fee).Add(tax),
	}
}

// ChargeTotal is the total rounded half-up to cents.
func (q Quote) ChargeTotal() decimal.Decimal {
	return q.Total.Round(2)
}

// AmountMinor is the charge total in minor currency units.
func (q Quote) AmountMinor() int64 {
	return q.ChargeTotal().Shift(2).IntPart()
}

// Rounded returns the breakdown as shown to a customer.
func (q Quote) Rounded() Quote {
	return Quote{
		Subtotal:    q.Subtotal.Round(2),
		DeliveryFee: q.DeliveryFee.Round(2),
		Tax:         q.Tax.Round(2),
		Total:       q.ChargeTotal(),
	}
}
