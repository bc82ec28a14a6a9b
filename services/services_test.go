package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/alert"
	"storefront/cache"
	"storefront/errs"
	"storefront/jwt"
	"storefront/models"
	"storefront/password"
	"storefront/store"
	"storefront/store/memstore"
)

type recordedAlert struct {
	inc   alert.Inconsistency
	cause error
}

type fakeAlerts struct {
	mu     sync.Mutex
	alerts []recordedAlert
}

func (f *fakeAlerts) Report(_ context.Context, inc alert.Inconsistency, cause error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.alerts = append(f.alerts, recordedAlert{inc: inc, cause: cause})
}

type fakeCache struct {
	mu          sync.Mutex
	products    []models.Product
	filled      bool
	invalidated int
	version     int64
}

func (f *fakeCache) Page(_ context.Context, offset, limit int) ([]models.Product, int64, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.filled {
		return nil, 0, false, nil
	}
	end := offset + limit
	if offset > len(f.products) {
		offset = len(f.products)
	}
	if end > len(f.products) {
		end = len(f.products)
	}
	return append([]models.Product(nil), f.products[offset:end]...), int64(len(f.products)), true, nil
}

func (f *fakeCache) Version(context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.version, nil
}

func (f *fakeCache) Fill(_ context.Context, version int64, products []models.Product) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if version != f.version {
		return false, nil
	}
	f.products = append([]models.Product(nil), products...)
	f.filled = true
	return true, nil
}

func (f *fakeCache) Invalidate(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.products = nil
	f.filled = false
	f.invalidated++
	f.version++
	return nil
}

type fixture struct {
	store  store.Store
	svc    *Services
	alerts *fakeAlerts
	cache  *fakeCache
	tokens *jwt.Issuer
}

func newFixture(t *testing.T, st store.Store) *fixture {
	t.Helper()
	if st == nil {
		st = memstore.New()
	}
	hasher, err := password.NewHasher(4)
	require.NoError(t, err)
	tokens, err := jwt.NewIssuer("test-secret", time.Hour, cache.NewLocalDenylist())
	require.NoError(t, err)

	f := &fixture{store: st, alerts: &fakeAlerts{}, cache: &fakeCache{}, tokens: tokens}
	f.svc = New(Deps{
		Store:             st,
		Hasher:            hasher,
		Tokens:            tokens,
		Cache:             f.cache,
		Alerts:            f.alerts,
		StrictTransitions: true,
	})
	return f
}

var admin = models.Identity{ID: primitive.NewObjectID(), Name: "root", Role: models.RoleAdmin}

func (f *fixture) user(t *testing.T, email string) models.Identity {
	t.Helper()
	u, err := f.svc.Users.Register(context.Background(), models.Identity{}, RegisterInput{
		Name:     "Customer",
		Email:    email,
		Password: "Passw0rd!",
	})
	require.NoError(t, err)
	return u.Identity()
}

func (f *fixture) product(t *testing.T, name string, price float64) *models.Product {
	t.Helper()
	p, err := f.svc.Products.Create(context.Background(), ProductInput{Name: name, Brand: "Acme", Price: price, Stock: 10})
	require.NoError(t, err)
	return p
}

func (f *fixture) cart(t *testing.T, owner models.Identity) *CartView {
	t.Helper()
	c, err := f.svc.Carts.Create(context.Background(), owner, nil)
	require.NoError(t, err)
	return c
}

func requireKind(t *testing.T, kind errs.Kind, err error) {
	t.Helper()
	require.Error(t, err)
	assert.Equal(t, kind, errs.KindOf(err), err.Error())
}

func orderCount(t *testing.T, st store.Store) int {
	t.Helper()
	orders, err := st.ListOrders(context.Background())
	require.NoError(t, err)
	return len(orders)
}
