package migrations

import (
	"context"
	"fmt"
	"testing"

	"storefront/internal/models"
	"storefront/internal/repository"
	"storefront/internal/services"

	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubUsers struct {
	services.UserService
	staff map[string]bool
}

func (s *stubUsers) CreateStaff(ctx context.Context, name, email, password string) (*models.User, error) {
	if s.staff[email] {
		return nil, fmt.Errorf("%w: email already registered", services.ErrConflict)
	}
	s.staff[email] = true
	return &models.User{Name: name, Email: email, Role: models.RoleAdmin}, nil
}

type memCatalog struct {
	repository.CatalogRepository
	items []models.CatalogItem
}

func (m *memCatalog) Create(ctx context.Context, item *models.CatalogItem) error {
	item.ID = uint(len(m.items) + 1)
	m.items = append(m.items, *item)
	return nil
}

func (m *memCatalog) Count(ctx context.Context) (int64, error) {
	return int64(len(m.items)), nil
}

func TestSeedDefaults_IsIdempotent(t *testing.T) {
	logger, _ := logtest.NewNullLogger()
	users := &stubUsers{staff: map[string]bool{}}
	catalog := &memCatalog{}
	opts := Options{AdminEmail: "admin@361degustation.com", AdminPassword: "change-me-now", SeedMenu: true}

	require.NoError(t, SeedDefaults(context.Background(), users, catalog, opts, logger))
	require.NoError(t, SeedDefaults(context.Background(), users, catalog, opts, logger))

	assert.Len(t, users.staff, 1)
	assert.Len(t, catalog.items, len(DefaultMenu()))
}

func TestDefaultMenu_IsValid(t *testing.T) {
	names := map[string]bool{}
	for _, item := range DefaultMenu() {
		assert.True(t, item.Category.IsValid(), item.Name)
		assert.True(t, item.Price.IsPositive(), item.Name)
		assert.True(t, item.IsAvailable, item.Name)
		assert.False(t, names[item.Name], "duplicate %s", item.Name)
		names[item.Name] = true
	}
}
