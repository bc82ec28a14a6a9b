package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/errs"
	"storefront/models"
	"storefront/store"
	"storefront/store/memstore"
)

func ptr[T any](v T) *T { return &v }

func TestProductCreateValidation(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	cases := map[string]ProductInput{
		"negative price": {Name: "x", Brand: "b", Price: -0.01},
		"negative stock": {Name: "x", Brand: "b", Stock: -1},
		"missing name":   {Brand: "b"},
		"missing brand":  {Name: "x"},
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := f.svc.Products.Create(ctx, in)
			requireKind(t, errs.KindValidation, err)
		})
	}

	missing := primitive.NewObjectID()
	_, err := f.svc.Products.Create(ctx, ProductInput{Name: "x", Brand: "b", Category: &missing})
	requireKind(t, errs.KindNotFound, err)
}

func TestProductRoundTrip(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	p, err := f.svc.Products.Create(ctx, ProductInput{Name: "Lamp", Brand: "Acme", Price: 19.99, Stock: 5})
	require.NoError(t, err)

	got, err := f.svc.Products.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 19.99, got.Price)
	assert.Equal(t, 5, got.Stock)
}

func TestProductListUsesCache(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	for _, name := range []string{"a", "b", "c"} {
		f.product(t, name, 1)
	}

	page, err := f.svc.Products.List(ctx, 2, 1)
	require.NoError(t, err)
	assert.EqualValues(t, 3, page.TotalCount)
	require.Len(t, page.Products, 2)
	assert.Equal(t, "b", page.Products[0].Name)
	assert.True(t, f.cache.filled)

	before := f.cache.invalidated
	f.product(t, "d", 1)
	assert.Equal(t, before+1, f.cache.invalidated)
	assert.False(t, f.cache.filled)

	page, err = f.svc.Products.List(ctx, 0, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 4, page.TotalCount)
	assert.Len(t, page.Products, 4)

	page, err = f.svc.Products.List(ctx, 500, 0)
	require.NoError(t, err)
	assert.Len(t, page.Products, 4)

	_, err = f.svc.Products.List(ctx, 10, -1)
	requireKind(t, errs.KindValidation, err)
}

// listHookStore 在讀取完整商品列表後執行一次onList
type listHookStore struct {
	store.Store
	onList func()
}

func (s *listHookStore) ListProducts(ctx context.Context, opts store.ListOptions) ([]models.Product, int64, error) {
	products, total, err := s.Store.ListProducts(ctx, opts)
	if opts.Limit == 0 && s.onList != nil {
		hook := s.onList
		s.onList = nil
		hook()
	}
	return products, total, err
}

func TestProductListDoesNotCacheStaleList(t *testing.T) {
	st := &listHookStore{Store: memstore.New()}
	f := newFixture(t, st)
	ctx := context.Background()
	f.product(t, "a", 1)
	st.onList = func() { f.product(t, "b", 1) }

	page, err := f.svc.Products.List(ctx, 10, 0)
	require.NoError(t, err)
	assert.Len(t, page.Products, 2)
	assert.False(t, f.cache.filled)

	page, err = f.svc.Products.List(ctx, 10, 0)
	require.NoError(t, err)
	assert.Len(t, page.Products, 2)
	assert.True(t, f.cache.filled)
}

func TestProductFilter(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	f.product(t, "cheap", 5)
	f.product(t, "mid", 15)
	f.product(t, "dear", 50)

	_, err := f.svc.Products.Filter(ctx, nil, ptr(10.0), "")
	requireKind(t, errs.KindValidation, err)
	_, err = f.svc.Products.Filter(ctx, ptr(20.0), ptr(10.0), "")
	requireKind(t, errs.KindValidation, err)

	got, err := f.svc.Products.Filter(ctx, ptr(10.0), ptr(50.0), "Acme")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "mid", got[0].Name)

	got, err = f.svc.Products.Filter(ctx, ptr(0.0), ptr(100.0), "Other")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestProductStock(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	p := f.product(t, "Tape", 1)

	_, err := f.svc.Products.SetStock(ctx, p.ID, nil)
	requireKind(t, errs.KindValidation, err)
	_, err = f.svc.Products.SetStock(ctx, p.ID, ptr(-1))
	requireKind(t, errs.KindValidation, err)
	_, err = f.svc.Products.SetStock(ctx, primitive.NewObjectID(), ptr(1))
	requireKind(t, errs.KindNotFound, err)

	got, err := f.svc.Products.SetStock(ctx, p.ID, ptr(42))
	require.NoError(t, err)
	assert.Equal(t, 42, got.Stock)
}

func TestProductUpdateValidation(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	p := f.product(t, "Tape", 1)

	_, err := f.svc.Products.Update(ctx, p.ID, store.ProductPatch{Price: ptr(-2.0)})
	requireKind(t, errs.KindValidation, err)
	_, err = f.svc.Products.Update(ctx, p.ID, store.ProductPatch{Name: ptr("  ")})
	requireKind(t, errs.KindValidation, err)
	_, err = f.svc.Products.Update(ctx, primitive.NewObjectID(), store.ProductPatch{Stock: ptr(1)})
	requireKind(t, errs.KindNotFound, err)
}

func TestProductDeleteCascadesReviews(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	u := f.user(t, "tom@example.com")
	p := f.product(t, "Book", 12)
	other := f.product(t, "Pen", 1)

	_, err := f.svc.Reviews.Create(ctx, u, p.ID, 5, "great")
	require.NoError(t, err)
	_, err = f.svc.Reviews.Create(ctx, u, p.ID, 3, "again")
	require.NoError(t, err)
	kept, err := f.svc.Reviews.Create(ctx, u, other.ID, 4, "")
	require.NoError(t, err)

	require.NoError(t, f.svc.Products.Delete(ctx, p.ID))
	requireKind(t, errs.KindNotFound, f.svc.Products.Delete(ctx, p.ID))

	reviews, err := f.svc.Reviews.List(ctx, nil)
	require.NoError(t, err)
	require.Len(t, reviews, 1)
	assert.Equal(t, kept.ID, reviews[0].ID)
}

func TestTopProducts(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	u := f.user(t, "uma@example.com")
	a := f.product(t, "a", 1)
	b := f.product(t, "b", 1)
	for i := 0; i < 3; i++ {
		_, err := f.svc.Reviews.Create(ctx, u, b.ID, 4, "")
		require.NoError(t, err)
	}
	_, err := f.svc.Reviews.Create(ctx, u, a.ID, 2, "")
	require.NoError(t, err)

	top, err := f.svc.Products.Top(ctx)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, b.ID, top[0].Product.ID)
	assert.Equal(t, 3, top[0].ReviewCount)
	assert.Len(t, top[0].Product.Reviews, 3)
}

func TestCategoryLifecycle(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	home, err := f.svc.Categories.Create(ctx, "Home", "things for the house")
	require.NoError(t, err)
	_, err = f.svc.Categories.Create(ctx, "Home", "")
	requireKind(t, errs.KindConflict, err)
	_, err = f.svc.Categories.Create(ctx, " ", "")
	requireKind(t, errs.KindValidation, err)

	p, err := f.svc.Products.Create(ctx, ProductInput{Name: "Rug", Brand: "Acme", Price: 30, Category: &home.ID})
	require.NoError(t, err)

	detail, err := f.svc.Categories.Get(ctx, home.ID)
	require.NoError(t, err)
	require.Len(t, detail.Products, 1)
	assert.Equal(t, p.ID, detail.Products[0].ID)

	stats, err := f.svc.Categories.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, []models.CategoryStat{{CategoryID: home.ID, Name: "Home", ProductCount: 1}}, stats)

	renamed, err := f.svc.Categories.Update(ctx, home.ID, store.CategoryPatch{Name: ptr("House")})
	require.NoError(t, err)
	assert.Equal(t, "House", renamed.Name)

	invalidated := f.cache.invalidated
	require.NoError(t, f.svc.Categories.Delete(ctx, home.ID))
	assert.Greater(t, f.cache.invalidated, invalidated)

	got, err := f.svc.Products.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Nil(t, got.Category)

	_, err = f.svc.Categories.Get(ctx, home.ID)
	requireKind(t, errs.KindNotFound, err)
	requireKind(t, errs.KindNotFound, f.svc.Categories.Delete(ctx, home.ID))
}

type failingLinkStore struct {
	store.Store
}

func (failingLinkStore) AddProductReview(context.Context, primitive.ObjectID, primitive.ObjectID) error {
	return errors.New("write failed")
}

func TestReviewCreateCompensates(t *testing.T) {
	f := newFixture(t, failingLinkStore{Store: memstore.New()})
	ctx := context.Background()
	u := f.user(t, "vic@example.com")
	p := f.product(t, "Kite", 9)

	_, err := f.svc.Reviews.Create(ctx, u, p.ID, 5, "")
	requireKind(t, errs.KindInternal, err)

	reviews, err := f.svc.Reviews.List(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, reviews)
}

func TestReviewPermissions(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	author := f.user(t, "wes@example.com")
	other := f.user(t, "xia@example.com")
	p := f.product(t, "Drum", 80)

	_, err := f.svc.Reviews.Create(ctx, author, primitive.NewObjectID(), 5, "")
	requireKind(t, errs.KindNotFound, err)
	_, err = f.svc.Reviews.Create(ctx, author, p.ID, 6, "")
	requireKind(t, errs.KindValidation, err)

	r, err := f.svc.Reviews.Create(ctx, author, p.ID, 4, "loud")
	require.NoError(t, err)
	assert.Equal(t, author.ID, r.User)

	_, err = f.svc.Reviews.Update(ctx, other, r.ID, store.ReviewPatch{Rating: ptr(1)})
	requireKind(t, errs.KindForbidden, err)
	_, err = f.svc.Reviews.Update(ctx, author, r.ID, store.ReviewPatch{Rating: ptr(0)})
	requireKind(t, errs.KindValidation, err)

	updated, err := f.svc.Reviews.Update(ctx, author, r.ID, store.ReviewPatch{Rating: ptr(5), Comment: ptr("very loud")})
	require.NoError(t, err)
	assert.Equal(t, 5, updated.Rating)

	requireKind(t, errs.KindForbidden, f.svc.Reviews.Delete(ctx, other, r.ID))
	require.NoError(t, f.svc.Reviews.Delete(ctx, admin, r.ID))

	product, err := f.svc.Products.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Empty(t, product.Reviews)

	byProduct, err := f.svc.Reviews.List(ctx, &p.ID)
	require.NoError(t, err)
	assert.Empty(t, byProduct)
}
