package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"storefront/internal/cart"
	"storefront/internal/models"
	"storefront/internal/pricing"
)

// CartStore persists one cart per user. A missing cart reads as empty.
type CartStore interface {
	GetCart(ctx context.Context, userID uint) (cart.Cart, error)
	SaveCart(ctx context.Context, userID uint, c cart.Cart, ttl time.Duration) error
	DeleteCart(ctx context.Context, userID uint) error
}

type CartView struct {
	Cart           cart.Cart             `json:"cart"`
	ItemCount      int                   `json:"item_count"`
	DeliveryMethod models.DeliveryMethod `json:"delivery_method"`
	Quote          pricing.Quote         `json:"quote"`
}

type CartService interface {
	Get(ctx context.Context, identity Identity, method models.DeliveryMethod) (*CartView, error)
	AddItem(ctx context.Context, identity Identity, itemID uint, quantity int) (cart.Cart, error)
	SetQuantity(ctx context.Context, identity Identity, itemID uint, quantity int) (cart.Cart, error)
	RemoveItem(ctx context.Context, identity Identity, itemID uint) (cart.Cart, error)
	Clear(ctx context.Context, identity Identity) error
}

type cartService struct {
	store   CartStore
	catalog CatalogService
	rules   pricing.Rules
	ttl     time.Duration
}

func NewCartService(store CartStore, catalog CatalogService, rules pricing.Rules, ttl time.Duration) CartService {
	return &cartService{store: store, catalog: catalog, rules: rules, ttl: ttl}
}

func (s *cartService) Get(ctx context.Context, identity Identity, method models.DeliveryMethod) (*CartView, error) {
	if err := identity.authenticated(); err != nil {
		return nil, err
	}
	if method == "" {
		method = models.DeliveryMethodDelivery
	}
	if !method.IsValid() {
		return nil, invalid("delivery_method", "must be delivery or pickup")
	}

	c, err := s.store.GetCart(ctx, identity.UserID)
	if err != nil {
		return nil, err
	}
	if c, err = s.reprice(ctx, c); err != nil {
		return nil, err
	}
	return &CartView{
		Cart:           c,
		ItemCount:      c.ItemCount(),
		DeliveryMethod: method,
		Quote:          s.rules.Quote(c.Lines, method).Rounded(),
	}, nil
}

// AddItem prices the line from the catalog, never from the client.
func (s *cartService) AddItem(ctx context.Context, identity Identity, itemID uint, quantity int) (cart.Cart, error) {
	if err := identity.authenticated(); err != nil {
		return cart.Cart{}, err
	}
	if quantity == 0 {
		quantity = 1
	}

	lines, err := s.catalog.Resolve(ctx, []LineRequest{{ItemID: itemID, Quantity: quantity}})
	if err != nil {
		return cart.Cart{}, err
	}

	return s.update(ctx, identity.UserID, func(c cart.Cart) (cart.Cart, error) {
		return c.Add(lines[0])
	})
}

func (s *cartService) SetQuantity(ctx context.Context, identity Identity, itemID uint, quantity int) (cart.Cart, error) {
	if err := identity.authenticated(); err != nil {
		return cart.Cart{}, err
	}
	return s.update(ctx, identity.UserID, func(c cart.Cart) (cart.Cart, error) {
		return c.SetQuantity(itemID, quantity)
	})
}

func (s *cartService) RemoveItem(ctx context.Context, identity Identity, itemID uint) (cart.Cart, error) {
	if err := identity.authenticated(); err != nil {
		return cart.Cart{}, err
	}
	return s.update(ctx, identity.UserID, func(c cart.Cart) (cart.Cart, error) {
		return c.Remove(itemID), nil
	})
}

func (s *cartService) Clear(ctx context.Context, identity Identity) error {
	if err := identity.authenticated(); err != nil {
		return err
	}
	return s.store.DeleteCart(ctx, identity.UserID)
}

func (s *cartService) update(ctx context.Context, userID uint, apply func(cart.Cart) (cart.Cart, error)) (cart.Cart, error) {
	current, err := s.store.GetCart(ctx, userID)
	if err != nil {
		return cart.Cart{}, err
	}

	next, err := apply(current)
	if err != nil {
		return cart.Cart{}, translateCartError(err)
	}

	if next.IsEmpty() {
		if err := s.store.DeleteCart(ctx, userID); err != nil {
			return cart.Cart{}, err
		}
		return next, nil
	}
	if err := s.store.SaveCart(ctx, userID, next, s.ttl); err != nil {
		return cart.Cart{}, err
	}
	return next, nil
}

// reprice resolves stored lines against the current catalog so the view
// quotes what checkout would charge. Items that left the menu or became
// unavailable are rejected by name.
func (s *cartService) reprice(ctx context.Context, c cart.Cart) (cart.Cart, error) {
	if c.IsEmpty() {
		return c, nil
	}
	requests := make([]LineRequest, 0, len(c.Lines))
	for _, l := range c.Lines {
		requests = append(requests, LineRequest{ItemID: l.ItemID, Quantity: l.Quantity})
	}
	lines, err := s.catalog.Resolve(ctx, requests)
	if err != nil {
		return cart.Cart{}, err
	}
	return cart.Cart{Lines: lines}, nil
}

func translateCartError(err error) error {
	switch {
	case errors.Is(err, cart.ErrItemNotInCart):
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	case errors.Is(err, cart.ErrInvalidQuantity), errors.Is(err, cart.ErrInvalidPrice):
		return invalid("quantity", "%s", err.Error())
	}
	return err
}
