package services

import (
	"context"
	"sort"
	"sync"
	"testing"

	"storefront/internal/models"
	storeredis "storefront/internal/redis"
	"storefront/internal/repository"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/go-redis/redis/v8"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
)

// fakeOrderRepo enforces the same uniqueness rules as the database indexes.
type fakeOrderRepo struct {
	mu          sync.Mutex
	orders      map[string]*models.Order
	createCalls int
	createErr   error
	// beforeUpdate runs inside UpdateStatus before the compare-and-set.
	beforeUpdate func(o *models.Order)
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{orders: make(map[string]*models.Order)}
}

func (r *fakeOrderRepo) Create(ctx context.Context, order *models.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.createCalls++
	if r.createErr != nil {
		return r.createErr
	}
	for _, o := range r.orders {
		if o.OrderNumber == order.OrderNumber {
			return repository.ErrDuplicateOrderNumber
		}
		if o.PaymentReference == order.PaymentReference {
			return repository.ErrDuplicatePaymentReference
		}
	}
	cp := *order
	r.orders[order.ID] = &cp
	return nil
}

func (r *fakeOrderRepo) find(match func(*models.Order) bool) (*models.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, o := range r.orders {
		if match(o) {
			cp := *o
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeOrderRepo) GetByID(ctx context.Context, id string) (*models.Order, error) {
	return r.find(func(o *models.Order) bool { return o.ID == id })
}

func (r *fakeOrderRepo) GetByOrderNumber(ctx context.Context, orderNumber string) (*models.Order, error) {
	return r.find(func(o *models.Order) bool { return o.OrderNumber == orderNumber })
}

func (r *fakeOrderRepo) GetByPaymentReference(ctx context.Context, ref string) (*models.Order, error) {
	return r.find(func(o *models.Order) bool { return o.PaymentReference == ref })
}

func (r *fakeOrderRepo) list(match func(*models.Order) bool) []models.Order {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Order
	for _, o := range r.orders {
		if match(o) {
			out = append(out, *o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (r *fakeOrderRepo) ListByUser(ctx context.Context, userID uint) ([]models.Order, error) {
	return r.list(func(o *models.Order) bool { return o.UserID == userID }), nil
}

func (r *fakeOrderRepo) ListAll(ctx context.Context) ([]models.Order, error) {
	return r.list(func(*models.Order) bool { return true }), nil
}

func (r *fakeOrderRepo) UpdateStatus(ctx context.Context, id string, from, to models.OrderStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return repository.ErrStatusConflict
	}
	if r.beforeUpdate != nil {
		r.beforeUpdate(o)
	}
	if o.Status != from || o.PaymentStatus != models.PaymentPaid {
		return repository.ErrStatusConflict
	}
	o.Status = to
	return nil
}

func (r *fakeOrderRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.orders)
}

type fakeCatalogRepo struct {
	mu     sync.Mutex
	items  map[uint]models.CatalogItem
	nextID uint
}

func newFakeCatalogRepo(items ...models.CatalogItem) *fakeCatalogRepo {
	r := &fakeCatalogRepo{items: make(map[uint]models.CatalogItem)}
	for _, it := range items {
		r.items[it.ID] = it
		if it.ID >= r.nextID {
			r.nextID = it.ID
		}
	}
	return r
}

func (r *fakeCatalogRepo) Create(ctx context.Context, item *models.CatalogItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	item.ID = r.nextID
	r.items[item.ID] = *item
	return nil
}

func (r *fakeCatalogRepo) GetByID(ctx context.Context, id uint) (*models.CatalogItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	it, ok := r.items[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &it, nil
}

func (r *fakeCatalogRepo) GetByIDs(ctx context.Context, ids []uint) ([]models.CatalogItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.CatalogItem
	for _, id := range ids {
		if it, ok := r.items[id]; ok {
			out = append(out, it)
		}
	}
	return out, nil
}

func (r *fakeCatalogRepo) List(ctx context.Context, filter repository.CatalogFilter) ([]models.CatalogItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.CatalogItem
	for _, it := range r.items {
		if !filter.IncludeUnavailable && !it.IsAvailable {
			continue
		}
		if filter.Category != "" && it.Category != filter.Category {
			continue
		}
		if filter.SpecialOnly && !it.IsSpecial {
			continue
		}
		out = append(out, it)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeCatalogRepo) Update(ctx context.Context, item *models.CatalogItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[item.ID]; !ok {
		return repository.ErrNotFound
	}
	r.items[item.ID] = *item
	return nil
}

func (r *fakeCatalogRepo) Delete(ctx context.Context, id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.items, id)
	return nil
}

func (r *fakeCatalogRepo) Count(ctx context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.items)), nil
}

func (r *fakeCatalogRepo) set(item models.CatalogItem) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[item.ID] = item
}

type fakeUserRepo struct {
	mu     sync.Mutex
	users  map[uint]models.User
	nextID uint
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[uint]models.User)}
}

func (r *fakeUserRepo) Create(ctx context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == user.Email {
			return repository.ErrDuplicate
		}
	}
	r.nextID++
	user.ID = r.nextID
	r.users[user.ID] = *user
	return nil
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id uint) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

func (r *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

// recordingNotifier captures events; err is returned from every call.
type recordingNotifier struct {
	mu      sync.Mutex
	placed  []string
	changed []string
	err     error
	onPlace func(o *models.Order)
}

func (n *recordingNotifier) OrderPlaced(ctx context.Context, order *models.Order) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.onPlace != nil {
		n.onPlace(order)
	}
	n.placed = append(n.placed, order.OrderNumber)
	return n.err
}

func (n *recordingNotifier) OrderStatusChanged(ctx context.Context, order *models.Order, from models.OrderStatus) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.changed = append(n.changed, string(from)+"->"+string(order.Status))
	return n.err
}

func (n *recordingNotifier) placedCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.placed)
}

func runNow(f func()) { f() }

func newTestLogger() (*logrus.Logger, *logtest.Hook) {
	return logtest.NewNullLogger()
}

func newTestRedis(t *testing.T) (*storeredis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return storeredis.NewFromClient(rdb), mr
}

func menu() []models.CatalogItem {
	return []models.CatalogItem{
		{ID: 1, Name: "Salmon Nigiri", Price: decimal.RequireFromString("10.99"), Category: models.CategoryNigiri, Image: "salmon.jpg", IsAvailable: true},
		{ID: 2, Name: "Dragon Roll", Price: decimal.RequireFromString("24.99"), Category: models.CategoryMaki, Image: "dragon.jpg", IsAvailable: true, IsSpecial: true},
		{ID: 3, Name: "Uni Sashimi", Price: decimal.RequireFromString("12.00"), Category: models.CategorySashimi, IsAvailable: false},
		{ID: 4, Name: "Green Tea", Price: decimal.RequireFromString("0.25"), Category: models.CategoryDrink, IsAvailable: true},
	}
}

var (
	customer = Identity{UserID: 7, Role: models.RoleUser}
	stranger = Identity{UserID: 8, Role: models.RoleUser}
	staff    = Identity{UserID: 1, Role: models.RoleAdmin}
)
