package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"storefront/internal/cart"
	"storefront/internal/models"
	"storefront/internal/repository"
)

const maxSpicyLevel = 3

// LineRequest is a cart line as the client sends it: what and how many.
// Name and price always come from the catalog.
type LineRequest struct {
	ItemID   uint `json:"item_id"`
	Quantity int  `json:"quantity"`
}

type CatalogService interface {
	List(ctx context.Context, filter repository.CatalogFilter) ([]models.CatalogItem, error)
	Get(ctx context.Context, id uint) (*models.CatalogItem, error)
	Create(ctx context.Context, identity Identity, item *models.CatalogItem) error
	Update(ctx context.Context, identity Identity, id uint, item *models.CatalogItem) (*models.CatalogItem, error)
	Delete(ctx context.Context, identity Identity, id uint) error
	Resolve(ctx context.Context, requests []LineRequest) ([]cart.Line, error)
}

type catalogService struct {
	catalogRepo repository.CatalogRepository
}

func NewCatalogService(catalogRepo repository.CatalogRepository) CatalogService {
	return &catalogService{catalogRepo: catalogRepo}
}

func (s *catalogService) List(ctx context.Context, filter repository.CatalogFilter) ([]models.CatalogItem, error) {
	if filter.Category != "" && !filter.Category.IsValid() {
		return nil, invalid("category", "unknown category %q", filter.Category)
	}
	return s.catalogRepo.List(ctx, filter)
}

func (s *catalogService) Get(ctx context.Context, id uint) (*models.CatalogItem, error) {
	item, err := s.catalogRepo.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("%w: menu item %d", ErrNotFound, id)
	}
	return item, err
}

func (s *catalogService) Create(ctx context.Context, identity Identity, item *models.CatalogItem) error {
	if err := identity.requireStaff(); err != nil {
		return err
	}
	if err := validateCatalogItem(item); err != nil {
		return err
	}
	item.ID = 0
	return s.catalogRepo.Create(ctx, item)
}

func (s *catalogService) Update(ctx context.Context, identity Identity, id uint, item *models.CatalogItem) (*models.CatalogItem, error) {
	if err := identity.requireStaff(); err != nil {
		return nil, err
	}
	if err := validateCatalogItem(item); err != nil {
		return nil, err
	}

	existing, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	item.ID = existing.ID
	item.CreatedAt = existing.CreatedAt
	if err := s.catalogRepo.Update(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

// Delete removes an item from the menu. Orders keep their own snapshot of it.
func (s *catalogService) Delete(ctx context.Context, identity Identity, id uint) error {
	if err := identity.requireStaff(); err != nil {
		return err
	}
	err := s.catalogRepo.Delete(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("%w: menu item %d", ErrNotFound, id)
	}
	return err
}

// Resolve prices each request from the current catalog. An unknown or
// unavailable item fails the whole set; nothing is dropped or substituted.
// Repeated item ids are merged.
func (s *catalogService) Resolve(ctx context.Context, requests []LineRequest) ([]cart.Line, error) {
	if len(requests) == 0 {
		return nil, invalid("items", "cart is empty")
	}

	ids := make([]uint, 0, len(requests))
	for _, r := range requests {
		if r.Quantity < 1 {
			return nil, invalid("items", "item %d: quantity must be at least 1", r.ItemID)
		}
		ids = append(ids, r.ItemID)
	}

	items, err := s.catalogRepo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load menu items: %w", err)
	}
	byID := make(map[uint]models.CatalogItem, len(items))
	for _, item := range items {
		byID[item.ID] = item
	}

	var c cart.Cart
	for _, r := range requests {
		item, ok := byID[r.ItemID]
		if !ok {
			return nil, invalid("items", "item %d is no longer on the menu", r.ItemID)
		}
		if !item.IsAvailable {
			return nil, invalid("items", "%s is currently unavailable", item.Name)
		}
		c, err = c.Add(lineFromCatalog(item, r.Quantity))
		if err != nil {
			return nil, invalid("items", "%s", err.Error())
		}
	}
	return c.Lines, nil
}

func lineFromCatalog(item models.CatalogItem, quantity int) cart.Line {
	return cart.Line{
		ItemID:    item.ID,
		Name:      item.Name,
		UnitPrice: item.Price,
		Quantity:  quantity,
		Category:  item.Category,
		Image:     item.Image,
	}
}

func validateCatalogItem(item *models.CatalogItem) error {
	item.Name = strings.TrimSpace(item.Name)
	if item.Name == "" {
		return invalid("name", "is required")
	}
	if item.Price.IsNegative() {
		return invalid("price", "must not be negative")
	}
	if !item.Category.IsValid() {
		return invalid("category", "unknown category %q", item.Category)
	}
	if item.SpicyLevel < 0 || item.SpicyLevel > maxSpicyLevel {
		return invalid("spicy_level", "must be between 0 and %d", maxSpicyLevel)
	}
	return nil
}
