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

// faultyStore 讓指定的操作失敗
type faultyStore struct {
	store.Store
	createOrderErr   error
	deleteCartErr    error
	deleteOrderErr   error
	// 在刪除購物車前執行
	beforeDeleteCart func()
}

func (f *faultyStore) CreateOrder(ctx context.Context, order *models.Order) error {
	if f.createOrderErr != nil {
		return f.createOrderErr
	}
	return f.Store.CreateOrder(ctx, order)
}

func (f *faultyStore) DeleteCartAtVersion(ctx context.Context, id primitive.ObjectID, version int64) error {
	if f.beforeDeleteCart != nil {
		f.beforeDeleteCart()
	}
	if f.deleteCartErr != nil {
		return f.deleteCartErr
	}
	return f.Store.DeleteCartAtVersion(ctx, id, version)
}

func (f *faultyStore) DeleteOrder(ctx context.Context, id primitive.ObjectID) error {
	if f.deleteOrderErr != nil {
		return f.deleteOrderErr
	}
	return f.Store.DeleteOrder(ctx, id)
}

func TestCheckoutScenario(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	alice := f.user(t, "alice@example.com")
	p1 := f.product(t, "Mug", 10.00)
	cart := f.cart(t, alice)

	_, err := f.svc.Carts.AddItem(ctx, alice, cart.ID, p1.ID, 2)
	require.NoError(t, err)
	view, err := f.svc.Carts.AddItem(ctx, alice, cart.ID, p1.ID, 3)
	require.NoError(t, err)
	require.Len(t, view.Items, 1)
	assert.Equal(t, 5, view.Items[0].Quantity)
	assert.Equal(t, "Mug", view.Items[0].Name)

	order, err := f.svc.Orders.Checkout(ctx, alice, nil, "card")
	require.NoError(t, err)
	assert.Equal(t, models.OrderPending, order.State)
	assert.Equal(t, 50.00, order.Total)
	assert.Equal(t, []models.OrderItem{{Product: p1.ID, Name: "Mug", Quantity: 5, Subtotal: 50.00}}, order.Items)
	assert.Equal(t, "card", order.PaymentMethod)

	_, err = f.svc.Carts.GetByUser(ctx, alice, alice.ID)
	requireKind(t, errs.KindNotFound, err)

	stored, err := f.svc.Orders.Get(ctx, alice, order.ID)
	require.NoError(t, err)
	assert.Equal(t, order.Total, stored.Total)
}

func TestCheckoutTotalsUseCurrentPrices(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	bob := f.user(t, "bob@example.com")
	a := f.product(t, "Lamp", 19.99)
	b := f.product(t, "Clip", 0.1)
	cart := f.cart(t, bob)

	_, err := f.svc.Carts.AddItem(ctx, bob, cart.ID, a.ID, 3)
	require.NoError(t, err)
	_, err = f.svc.Carts.AddItem(ctx, bob, cart.ID, b.ID, 3)
	require.NoError(t, err)

	newPrice := 20.01
	_, err = f.svc.Products.Update(ctx, a.ID, store.ProductPatch{Price: &newPrice})
	require.NoError(t, err)

	estimate, err := f.svc.Carts.Total(ctx, bob, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, 60.33, estimate.Total)

	order, err := f.svc.Orders.Checkout(ctx, bob, nil, "cash")
	require.NoError(t, err)
	assert.Equal(t, 60.03, order.Items[0].Subtotal)
	assert.Equal(t, 0.3, order.Items[1].Subtotal)
	assert.Equal(t, 60.33, order.Total)
}

func TestCheckoutSnapshotsNames(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	carol := f.user(t, "carol@example.com")
	p := f.product(t, "Old name", 5)
	cart := f.cart(t, carol)
	_, err := f.svc.Carts.AddItem(ctx, carol, cart.ID, p.ID, 1)
	require.NoError(t, err)

	order, err := f.svc.Orders.Checkout(ctx, carol, nil, "card")
	require.NoError(t, err)

	renamed := "New name"
	_, err = f.svc.Products.Update(ctx, p.ID, store.ProductPatch{Name: &renamed})
	require.NoError(t, err)

	stored, err := f.svc.Orders.Get(ctx, carol, order.ID)
	require.NoError(t, err)
	assert.Equal(t, "Old name", stored.Items[0].Name)
}

func TestCheckoutRejectsEmptyOrMissingCart(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	dave := f.user(t, "dave@example.com")

	_, err := f.svc.Orders.Checkout(ctx, dave, nil, "card")
	requireKind(t, errs.KindNotFound, err)

	f.cart(t, dave)
	_, err = f.svc.Orders.Checkout(ctx, dave, nil, "card")
	requireKind(t, errs.KindValidation, err)

	assert.Zero(t, orderCount(t, f.store))
}

func TestCheckoutRequiresPaymentMethod(t *testing.T) {
	f := newFixture(t, nil)
	erin := f.user(t, "erin@example.com")
	_, err := f.svc.Orders.Checkout(context.Background(), erin, nil, "  ")
	requireKind(t, errs.KindValidation, err)
}

func TestCheckoutFailsWhenProductVanished(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	frank := f.user(t, "frank@example.com")
	keep := f.product(t, "Keep", 1)
	gone := f.product(t, "Gone", 2)
	cart := f.cart(t, frank)
	_, err := f.svc.Carts.AddItem(ctx, frank, cart.ID, keep.ID, 1)
	require.NoError(t, err)
	_, err = f.svc.Carts.AddItem(ctx, frank, cart.ID, gone.ID, 1)
	require.NoError(t, err)
	require.NoError(t, f.svc.Products.Delete(ctx, gone.ID))

	_, err = f.svc.Orders.Checkout(ctx, frank, nil, "card")
	requireKind(t, errs.KindConflict, err)
	var missing *MissingProductsError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, []primitive.ObjectID{gone.ID}, missing.IDs)

	assert.Zero(t, orderCount(t, f.store))
	view, err := f.svc.Carts.Get(ctx, frank, cart.ID)
	require.NoError(t, err)
	assert.Len(t, view.Items, 2)
	assert.False(t, view.Items[1].Available)
}

func TestCheckoutOwnership(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	owner := f.user(t, "owner@example.com")
	other := f.user(t, "other@example.com")
	p := f.product(t, "Pen", 1)
	cart := f.cart(t, owner)
	_, err := f.svc.Carts.AddItem(ctx, owner, cart.ID, p.ID, 1)
	require.NoError(t, err)

	_, err = f.svc.Orders.Checkout(ctx, other, &owner.ID, "card")
	requireKind(t, errs.KindForbidden, err)

	order, err := f.svc.Orders.Checkout(ctx, admin, &owner.ID, "card")
	require.NoError(t, err)
	assert.Equal(t, owner.ID, order.User)
}

func seededCheckout(t *testing.T, st *faultyStore) (*fixture, models.Identity, *CartView) {
	t.Helper()
	f := newFixture(t, st)
	ctx := context.Background()
	u := f.user(t, "grace@example.com")
	p := f.product(t, "Cup", 4)
	cart := f.cart(t, u)
	_, err := f.svc.Carts.AddItem(ctx, u, cart.ID, p.ID, 2)
	require.NoError(t, err)
	return f, u, cart
}

func TestCheckoutOrderCreateFailureKeepsCart(t *testing.T) {
	st := &faultyStore{Store: memstore.New()}
	f, u, cart := seededCheckout(t, st)
	st.createOrderErr = errors.New("write concern timeout")

	_, err := f.svc.Orders.Checkout(context.Background(), u, nil, "card")
	requireKind(t, errs.KindInternal, err)
	assert.Equal(t, "internal server error", errs.MessageOf(err))

	_, err = f.store.GetCart(context.Background(), cart.ID)
	assert.NoError(t, err)
	assert.Zero(t, orderCount(t, f.store))
}

func TestCheckoutCartDeleteFailureCompensates(t *testing.T) {
	st := &faultyStore{Store: memstore.New()}
	f, u, cart := seededCheckout(t, st)
	st.deleteCartErr = errors.New("network reset")

	_, err := f.svc.Orders.Checkout(context.Background(), u, nil, "card")
	requireKind(t, errs.KindInternal, err)

	assert.Zero(t, orderCount(t, f.store))
	_, err = f.store.GetCart(context.Background(), cart.ID)
	assert.NoError(t, err)
	assert.Empty(t, f.alerts.alerts)
}

func TestCheckoutReportsOrphanedCart(t *testing.T) {
	st := &faultyStore{Store: memstore.New()}
	f, u, cart := seededCheckout(t, st)
	st.deleteCartErr = errors.New("network reset")
	st.deleteOrderErr = errors.New("still down")

	order, err := f.svc.Orders.Checkout(context.Background(), u, nil, "card")
	require.NoError(t, err)
	assert.Equal(t, 8.0, order.Total)
	assert.Equal(t, 1, orderCount(t, f.store))

	require.Len(t, f.alerts.alerts, 1)
	got := f.alerts.alerts[0]
	assert.Equal(t, "orphaned_cart", got.inc.Kind)
	assert.Equal(t, order.ID.Hex(), got.inc.OrderID)
	assert.Equal(t, cart.ID.Hex(), got.inc.CartID)
	assert.EqualError(t, got.cause, "network reset")
}

func TestCheckoutLostRaceReturnsConflict(t *testing.T) {
	st := &faultyStore{Store: memstore.New()}
	f, u, _ := seededCheckout(t, st)
	st.deleteCartErr = store.ErrNotFound

	_, err := f.svc.Orders.Checkout(context.Background(), u, nil, "card")
	requireKind(t, errs.KindConflict, err)
	assert.Zero(t, orderCount(t, f.store))
}

func TestCheckoutReportsDuplicateOrder(t *testing.T) {
	st := &faultyStore{Store: memstore.New()}
	f, u, cart := seededCheckout(t, st)
	st.deleteCartErr = store.ErrNotFound
	st.deleteOrderErr = errors.New("still down")

	order, err := f.svc.Orders.Checkout(context.Background(), u, nil, "card")
	require.NoError(t, err)
	assert.Equal(t, 1, orderCount(t, f.store))

	require.Len(t, f.alerts.alerts, 1)
	got := f.alerts.alerts[0]
	assert.Equal(t, "duplicate_order", got.inc.Kind)
	assert.Equal(t, order.ID.Hex(), got.inc.OrderID)
	assert.Equal(t, cart.ID.Hex(), got.inc.CartID)
	assert.ErrorIs(t, got.cause, store.ErrNotFound)
}

func TestCheckoutKeepsItemsAddedAfterPricing(t *testing.T) {
	st := &faultyStore{Store: memstore.New()}
	f, u, cart := seededCheckout(t, st)
	ctx := context.Background()
	late := f.product(t, "Saucer", 2)
	st.beforeDeleteCart = func() {
		st.beforeDeleteCart = nil
		_, err := f.svc.Carts.AddItem(ctx, u, cart.ID, late.ID, 1)
		require.NoError(t, err)
	}

	_, err := f.svc.Orders.Checkout(ctx, u, nil, "card")
	requireKind(t, errs.KindConflict, err)
	assert.Zero(t, orderCount(t, f.store))
	assert.Empty(t, f.alerts.alerts)

	stored, err := f.store.GetCart(ctx, cart.ID)
	require.NoError(t, err)
	assert.Len(t, stored.Items, 2)

	order, err := f.svc.Orders.Checkout(ctx, u, nil, "card")
	require.NoError(t, err)
	assert.Equal(t, 10.0, order.Total)
}

func pendingOrder(t *testing.T, f *fixture) (models.Identity, *models.Order) {
	t.Helper()
	ctx := context.Background()
	u := f.user(t, "henry@example.com")
	p := f.product(t, "Box", 3)
	cart := f.cart(t, u)
	_, err := f.svc.Carts.AddItem(ctx, u, cart.ID, p.ID, 1)
	require.NoError(t, err)
	order, err := f.svc.Orders.Checkout(ctx, u, nil, "card")
	require.NoError(t, err)
	return u, order
}

func TestUpdateStateRejectsTypo(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	u, order := pendingOrder(t, f)

	_, err := f.svc.Orders.UpdateState(ctx, admin, order.ID, "SHIPPEDD")
	requireKind(t, errs.KindValidation, err)

	stored, err := f.svc.Orders.Get(ctx, u, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderPending, stored.State)
}

func TestUpdateStateRequiresAdmin(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	u, order := pendingOrder(t, f)

	_, err := f.svc.Orders.UpdateState(ctx, u, order.ID, "SHIPPED")
	requireKind(t, errs.KindForbidden, err)

	stored, err := f.svc.Orders.Get(ctx, u, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderPending, stored.State)
}

func TestUpdateStateStrictTransitions(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	_, order := pendingOrder(t, f)

	_, err := f.svc.Orders.UpdateState(ctx, admin, order.ID, "DELIVERED")
	requireKind(t, errs.KindConflict, err)

	updated, err := f.svc.Orders.UpdateState(ctx, admin, order.ID, "SHIPPED")
	require.NoError(t, err)
	assert.Equal(t, models.OrderShipped, updated.State)

	updated, err = f.svc.Orders.UpdateState(ctx, admin, order.ID, "DELIVERED")
	require.NoError(t, err)
	assert.Equal(t, models.OrderDelivered, updated.State)

	_, err = f.svc.Orders.UpdateState(ctx, admin, order.ID, "PENDING")
	requireKind(t, errs.KindConflict, err)

	_, err = f.svc.Orders.UpdateState(ctx, admin, primitive.NewObjectID(), "SHIPPED")
	requireKind(t, errs.KindNotFound, err)
}

func TestUpdateStateLenientTransitions(t *testing.T) {
	f := newFixture(t, nil)
	f.svc.Orders.strict = false
	ctx := context.Background()
	_, order := pendingOrder(t, f)

	_, err := f.svc.Orders.UpdateState(ctx, admin, order.ID, "CANCELED")
	require.NoError(t, err)
	updated, err := f.svc.Orders.UpdateState(ctx, admin, order.ID, "PENDING")
	require.NoError(t, err)
	assert.Equal(t, models.OrderPending, updated.State)
}

func TestOrderQueries(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	u, order := pendingOrder(t, f)
	stranger := f.user(t, "stranger@example.com")

	_, err := f.svc.Orders.Get(ctx, stranger, order.ID)
	requireKind(t, errs.KindForbidden, err)
	_, err = f.svc.Orders.ListByUser(ctx, stranger, u.ID)
	requireKind(t, errs.KindForbidden, err)

	mine, err := f.svc.Orders.ListByUser(ctx, u, u.ID)
	require.NoError(t, err)
	assert.Len(t, mine, 1)

	all, err := f.svc.Orders.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	require.NotNil(t, all[0].Customer)
	assert.Equal(t, "henry@example.com", all[0].Customer.Email)

	stats, err := f.svc.Orders.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, []models.OrderStateCount{
		{State: models.OrderPending, Count: 1},
		{State: models.OrderShipped, Count: 0},
		{State: models.OrderDelivered, Count: 0},
		{State: models.OrderCanceled, Count: 0},
	}, stats)

	require.NoError(t, f.svc.Orders.Delete(ctx, order.ID))
	requireKind(t, errs.KindNotFound, f.svc.Orders.Delete(ctx, order.ID))
}
