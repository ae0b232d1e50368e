package models

import (
	"github.com/shopspring/decimal"
)

// OrderItem is a copy of the catalog entry taken when the order was placed.
type OrderItem struct {
	ID            uint            `json:"-" gorm:"primaryKey"`
	OrderID       string          `json:"-" gorm:"type:uuid;index;not null"`
	CatalogItemID uint            `json:"catalog_item_id" gorm:"not null"`
	Name          string          `json:"name" gorm:"not null"`
	Image         string          `json:"image"`
	Category      Category        `json:"category" gorm:"type:varchar(20)"`
	UnitPrice     decimal.Decimal `json:"unit_price" gorm:"type:numeric(10,2);not null"`
	Quantity      int             `json:"quantity" gorm:"not null"`
	LineTotal     decimal.Decimal `json:"line_total" gorm:"type:numeric(10,2);not null"`
}
