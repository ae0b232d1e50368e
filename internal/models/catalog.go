package models

import (
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

type CatalogItem struct {
	ID           uint            `json:"id" gorm:"primaryKey"`
	Name         string          `json:"name" gorm:"not null"`
	Description  string          `json:"description" gorm:"type:text;not null"`
	Price        decimal.Decimal `json:"price" gorm:"type:numeric(10,2);not null"`
	Category     Category        `json:"category" gorm:"type:varchar(20);index;not null"`
	Image        string          `json:"image" gorm:"not null"`
	Ingredients  pq.StringArray  `json:"ingredients" gorm:"type:text[]"`
	IsSpecial    bool            `json:"is_special" gorm:"default:false"`
	IsAvailable  bool            `json:"is_available" gorm:"not null;index"`
	SpicyLevel   int             `json:"spicy_level" gorm:"default:0"`
	IsVegetarian bool            `json:"is_vegetarian" gorm:"default:false"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

type Category string

const (
	CategoryNigiri    Category = "nigiri"
	CategorySashimi   Category = "sashimi"
	CategoryMaki      Category = "maki"
	CategorySpecial   Category = "special"
	CategoryAppetizer Category = "appetizer"
	CategoryDessert   Category = "dessert"
	CategoryDrink     Category = "drink"
)

func (c Category) IsValid() bool {
	switch c {
	case CategoryNigiri, CategorySashimi, CategoryMaki, CategorySpecial,
		CategoryAppetizer, CategoryDessert, CategoryDrink:
		return true
	}
	return false
}
