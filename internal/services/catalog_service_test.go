package services

import (
	"context"
	"testing"

	"storefront/internal/models"
	"storefront/internal/repository"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve_MergesRepeatedItems(t *testing.T) {
	svc := NewCatalogService(newFakeCatalogRepo(menu()...))

	lines, err := svc.Resolve(context.Background(), []LineRequest{
		{ItemID: 1, Quantity: 1},
		{ItemID: 2, Quantity: 1},
		{ItemID: 1, Quantity: 2},
	})
	require.NoError(t, err)
	require.Len(t, lines, 2)
	assert.Equal(t, uint(1), lines[0].ItemID)
	assert.Equal(t, 3, lines[0].Quantity)
	assert.Equal(t, "Salmon Nigiri", lines[0].Name)
	assert.True(t, lines[0].UnitPrice.Equal(decimal.RequireFromString("10.99")))
}

func TestResolve_Rejections(t *testing.T) {
	svc := NewCatalogService(newFakeCatalogRepo(menu()...))

	tests := []struct {
		name     string
		requests []LineRequest
		contains string
	}{
		{"empty", nil, "cart is empty"},
		{"zero quantity", []LineRequest{{ItemID: 1, Quantity: 0}}, "quantity"},
		{"unknown item", []LineRequest{{ItemID: 42, Quantity: 1}}, "no longer on the menu"},
		{"unavailable item", []LineRequest{{ItemID: 1, Quantity: 1}, {ItemID: 3, Quantity: 1}}, "Uni Sashimi is currently unavailable"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lines, err := svc.Resolve(context.Background(), tt.requests)
			assert.Nil(t, lines)
			require.ErrorIs(t, err, ErrInvalidInput)
			assert.Contains(t, err.Error(), tt.contains)
		})
	}
}

func TestCatalogList_Filters(t *testing.T) {
	svc := NewCatalogService(newFakeCatalogRepo(menu()...))
	ctx := context.Background()

	all, err := svc.List(ctx, repository.CatalogFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 3, "unavailable items are hidden")

	specials, err := svc.List(ctx, repository.CatalogFilter{SpecialOnly: true})
	require.NoError(t, err)
	require.Len(t, specials, 1)
	assert.Equal(t, "Dragon Roll", specials[0].Name)

	_, err = svc.List(ctx, repository.CatalogFilter{Category: "pizza"})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestCatalogWrites_StaffOnly(t *testing.T) {
	repo := newFakeCatalogRepo(menu()...)
	svc := NewCatalogService(repo)
	ctx := context.Background()

	item := &models.CatalogItem{Name: "Tuna Maki", Price: decimal.RequireFromString("6.50"), Category: models.CategoryMaki, IsAvailable: true}
	assert.ErrorIs(t, svc.Create(ctx, customer, item), ErrForbidden)
	assert.ErrorIs(t, svc.Create(ctx, Identity{}, item), ErrUnauthenticated)

	require.NoError(t, svc.Create(ctx, staff, item))
	assert.NotZero(t, item.ID)

	item.Price = decimal.RequireFromString("7.00")
	updated, err := svc.Update(ctx, staff, item.ID, item)
	require.NoError(t, err)
	assert.True(t, updated.Price.Equal(decimal.RequireFromString("7.00")))

	_, err = svc.Update(ctx, staff, 999, &models.CatalogItem{Name: "Ghost", Category: models.CategoryDrink})
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, svc.Delete(ctx, customer, item.ID), ErrForbidden)
	require.NoError(t, svc.Delete(ctx, staff, item.ID))
	assert.ErrorIs(t, svc.Delete(ctx, staff, item.ID), ErrNotFound)
}

func TestCatalogWrites_Validation(t *testing.T) {
	svc := NewCatalogService(newFakeCatalogRepo())
	ctx := context.Background()

	tests := []struct {
		name string
		item models.CatalogItem
	}{
		{"blank name", models.CatalogItem{Name: " ", Category: models.CategoryDrink}},
		{"negative price", models.CatalogItem{Name: "Tea", Price: decimal.NewFromInt(-1), Category: models.CategoryDrink}},
		{"unknown category", models.CatalogItem{Name: "Pizza", Category: "pizza"}},
		{"too spicy", models.CatalogItem{Name: "Fire Roll", Category: models.CategoryMaki, SpicyLevel: 4}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item := tt.item
			assert.ErrorIs(t, svc.Create(ctx, staff, &item), ErrInvalidInput)
		})
	}
}
