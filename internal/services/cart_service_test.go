package services

import (
	"context"
	"testing"
	"time"

	"storefront/internal/models"
	"storefront/internal/pricing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCartFixture(t *testing.T) CartService {
	t.Helper()
	store, _ := newTestRedis(t)
	catalog := NewCatalogService(newFakeCatalogRepo(menu()...))
	return NewCartService(store, catalog, pricing.DefaultRules, time.Hour)
}

func TestCartService_AddPricesFromCatalog(t *testing.T) {
	svc := newCartFixture(t)
	ctx := context.Background()

	c, err := svc.AddItem(ctx, customer, 1, 2)
	require.NoError(t, err)
	c, err = svc.AddItem(ctx, customer, 2, 0)
	require.NoError(t, err)
	require.Len(t, c.Lines, 2)
	assert.Equal(t, 1, c.Lines[1].Quantity, "zero defaults to one")

	view, err := svc.Get(ctx, customer, models.DeliveryMethodPickup)
	require.NoError(t, err)
	assert.Equal(t, 3, view.ItemCount)
	assert.True(t, view.Quote.Subtotal.Equal(decimal.RequireFromString("46.97")))
	assert.True(t, view.Quote.Tax.Equal(decimal.RequireFromString("3.76")))
	assert.True(t, view.Quote.Total.Equal(decimal.RequireFromString("50.73")))
}

func TestCartService_RejectsUnavailableItem(t *testing.T) {
	svc := newCartFixture(t)

	_, err := svc.AddItem(context.Background(), customer, 3, 1)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestCartService_SetQuantityAndRemove(t *testing.T) {
	svc := newCartFixture(t)
	ctx := context.Background()

	_, err := svc.AddItem(ctx, customer, 1, 1)
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, customer, 2, 1)
	require.NoError(t, err)

	c, err := svc.SetQuantity(ctx, customer, 1, 4)
	require.NoError(t, err)
	assert.Equal(t, 5, c.ItemCount())

	c, err = svc.SetQuantity(ctx, customer, 1, 0)
	require.NoError(t, err)
	assert.Len(t, c.Lines, 1)

	_, err = svc.SetQuantity(ctx, customer, 1, 2)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.SetQuantity(ctx, customer, 2, -1)
	assert.ErrorIs(t, err, ErrInvalidInput)

	c, err = svc.RemoveItem(ctx, customer, 2)
	require.NoError(t, err)
	assert.True(t, c.IsEmpty())

	view, err := svc.Get(ctx, customer, "")
	require.NoError(t, err)
	assert.Equal(t, models.DeliveryMethodDelivery, view.DeliveryMethod)
	assert.True(t, view.Quote.Total.IsZero())
}

func TestCartService_CartsArePerUser(t *testing.T) {
	svc := newCartFixture(t)
	ctx := context.Background()

	_, err := svc.AddItem(ctx, customer, 1, 1)
	require.NoError(t, err)

	view, err := svc.Get(ctx, stranger, models.DeliveryMethodPickup)
	require.NoError(t, err)
	assert.Equal(t, 0, view.ItemCount)

	require.NoError(t, svc.Clear(ctx, customer))
	view, err = svc.Get(ctx, customer, models.DeliveryMethodPickup)
	require.NoError(t, err)
	assert.Equal(t, 0, view.ItemCount)
}

func TestCartService_RequiresIdentity(t *testing.T) {
	svc := newCartFixture(t)

	_, err := svc.Get(context.Background(), Identity{}, "")
	assert.ErrorIs(t, err, ErrUnauthenticated)
	_, err = svc.AddItem(context.Background(), Identity{}, 1, 1)
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestCartService_GetRepricesFromCatalog(t *testing.T) {
	store, _ := newTestRedis(t)
	repo := newFakeCatalogRepo(menu()...)
	svc := NewCartService(store, NewCatalogService(repo), pricing.DefaultRules, time.Hour)
	ctx := context.Background()

	_, err := svc.AddItem(ctx, customer, 1, 2)
	require.NoError(t, err)

	salmon := menu()[0]
	salmon.Price = decimal.RequireFromString("15.00")
	repo.set(salmon)

	view, err := svc.Get(ctx, customer, models.DeliveryMethodPickup)
	require.NoError(t, err)
	assert.True(t, view.Cart.Lines[0].UnitPrice.Equal(decimal.RequireFromString("15.00")))
	assert.True(t, view.Quote.Subtotal.Equal(decimal.RequireFromString("30.00")))
	assert.True(t, view.Quote.Total.Equal(decimal.RequireFromString("32.40")))

	salmon.IsAvailable = false
	repo.set(salmon)

	_, err = svc.Get(ctx, customer, models.DeliveryMethodPickup)
	require.ErrorIs(t, err, ErrInvalidInput)
	assert.Contains(t, err.Error(), "Salmon Nigiri is currently unavailable")
}
