// Package cart holds the shopping cart as a plain value. Every operation
// returns a new Cart and leaves the receiver untouched, so a cart can be
// stored, replayed and priced deterministically.
package cart

import (
	"errors"
	"fmt"

	"storefront/internal/models"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidQuantity = errors.New("quantity must be at least 1")
	ErrInvalidPrice    = errors.New("unit price must not be negative")
	ErrItemNotInCart   = errors.New("item not in cart")
)

type Line struct {
	ItemID    uint            `json:"item_id"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity"`
	Category  models.Category `json:"category"`
	Image     string          `json:"image,omitempty"`
}

func (l Line) validate() error {
	if l.Quantity < 1 {
		return fmt.Errorf("item %d: %w", l.ItemID, ErrInvalidQuantity)
	}
	if l.UnitPrice.IsNegative() {
		return fmt.Errorf("item %d: %w", l.ItemID, ErrInvalidPrice)
	}
	return nil
}

type Cart struct {
	Lines []Line `json:"lines"`
}

func (c Cart) clone() Cart {
	lines := make([]Line, len(c.Lines))
	copy(lines, c.Lines)
	return Cart{Lines: lines}
}

func (c Cart) indexOf(itemID uint) int {
	for i, l := range c.Lines {
		if l.ItemID == itemID {
			return i
		}
	}
	return -1
}

// Add appends a line, or merges its quantity into an existing line for the
// same item. Name and price of an existing line are refreshed from the new one.
func (c Cart) Add(line Line) (Cart, error) {
	if err := line.validate(); err != nil {
		return c, err
	}
	next := c.clone()
	if i := next.indexOf(line.ItemID); i >= 0 {
		line.Quantity += next.Lines[i].Quantity
		next.Lines[i] = line
		return next, nil
	}
	next.Lines = append(next.Lines, line)
	return next, nil
}

// SetQuantity replaces the quantity of an item; zero removes it.
func (c Cart) SetQuantity(itemID uint, quantity int) (Cart, error) {
	if quantity < 0 {
		return c, ErrInvalidQuantity
	}
	i := c.indexOf(itemID)
	if i < 0 {
		return c, ErrItemNotInCart
	}
	if quantity == 0 {
		return c.Remove(itemID), nil
	}
	next := c.clone()
	next.Lines[i].Quantity = quantity
	return next, nil
}

func (c Cart) Remove(itemID uint) Cart {
	next := Cart{Lines: make([]Line, 0, len(c.Lines))}
	for _, l := range c.Lines {
		if l.ItemID != itemID {
			next.Lines = append(next.Lines, l)
		}
	}
	return next
}

func (c Cart) Clear() Cart {
	return Cart{Lines: []Line{}}
}

func (c Cart) IsEmpty() bool {
	return len(c.Lines) == 0
}

// ItemCount is the number of units across all lines.
func (c Cart) ItemCount() int {
	n := 0
	for _, l := range c.Lines {
		n += l.Quantity
	}
	return n
}

// Validate checks every line; carts decoded from clients go through here.
func (c Cart) Validate() error {
	for _, l := range c.Lines {
		if err := l.validate(); err != nil {
			return err
		}
	}
	return nil
}
