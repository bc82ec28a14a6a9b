package memstore

import (
	"context"
	"slices"
	"sort"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/models"
	"storefront/store"
)

func cloneCart(c models.Cart) models.Cart {
	c.Items = slices.Clone(c.Items)
	if c.Items == nil {
		c.Items = []models.CartItem{}
	}
	return c
}

func cloneOrder(o models.Order) models.Order {
	o.Items = slices.Clone(o.Items)
	return o
}

func (s *Store) CreateCart(ctx context.Context, cart *models.Cart) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.carts {
		if c.User == cart.User {
			return store.ErrDuplicate
		}
	}
	now := store.Now()
	cart.ID = primitive.NewObjectID()
	cart.CreatedAt, cart.UpdatedAt = now, now
	*cart = cloneCart(*cart)
	s.carts[cart.ID] = cloneCart(*cart)
	return nil
}

func (s *Store) GetCart(ctx context.Context, id primitive.ObjectID) (*models.Cart, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.carts[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	c = cloneCart(c)
	return &c, nil
}

func (s *Store) GetCartByUser(ctx context.Context, userID primitive.ObjectID) (*models.Cart, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.carts {
		if c.User == userID {
			c = cloneCart(c)
			return &c, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) ListCarts(ctx context.Context) ([]models.Cart, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := sortedValues(s.carts, nil)
	for i := range out {
		out[i] = cloneCart(out[i])
	}
	return out, nil
}

// AddCartItem 在鎖內完成合併
func (s *Store) AddCartItem(ctx context.Context, cartID, productID primitive.ObjectID, quantity int) (*models.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.carts[cartID]
	if !ok {
		return nil, store.ErrNotFound
	}
	c = cloneCart(c)
	if !c.AddItem(productID, quantity) {
		return nil, store.ErrQuantityLimit
	}
	c.Version++
	c.UpdatedAt = store.Now()
	s.carts[cartID] = c
	c = cloneCart(c)
	return &c, nil
}

func (s *Store) DeleteCart(ctx context.Context, id primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.carts[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.carts, id)
	return nil
}

func (s *Store) DeleteCartAtVersion(ctx context.Context, id primitive.ObjectID, version int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.carts[id]
	if !ok {
		return store.ErrNotFound
	}
	if c.Version != version {
		return store.ErrConflict
	}
	delete(s.carts, id)
	return nil
}

func (s *Store) DeleteCartByUser(ctx context.Context, userID primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, c := range s.carts {
		if c.User == userID {
			delete(s.carts, id)
			return nil
		}
	}
	return store.ErrNotFound
}

func (s *Store) CreateOrder(ctx context.Context, order *models.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := store.Now()
	order.ID = primitive.NewObjectID()
	order.CreatedAt, order.UpdatedAt = now, now
	s.orders[order.ID] = cloneOrder(*order)
	return nil
}

func (s *Store) GetOrder(ctx context.Context, id primitive.ObjectID) (*models.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.orders[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	o = cloneOrder(o)
	return &o, nil
}

// newestFirst 與Mongo實作的排序一致
func newestFirst(orders []models.Order) []models.Order {
	slices.Reverse(orders)
	for i := range orders {
		orders[i] = cloneOrder(orders[i])
	}
	return orders
}

func (s *Store) ListOrders(ctx context.Context) ([]models.OrderWithCustomer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	orders := newestFirst(sortedValues(s.orders, nil))
	out := make([]models.OrderWithCustomer, 0, len(orders))
	for _, o := range orders {
		item := models.OrderWithCustomer{Order: o}
		if u, ok := s.users[o.User]; ok {
			item.Customer = &models.OrderCustomer{ID: u.ID, Name: u.Name, Email: u.Email}
		}
		out = append(out, item)
	}
	return out, nil
}

func (s *Store) ListOrdersByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return newestFirst(sortedValues(s.orders, func(o models.Order) bool { return o.User == userID })), nil
}

func (s *Store) TransitionOrderState(ctx context.Context, id primitive.ObjectID, from, to models.OrderState) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	if o.State != from {
		return nil, store.ErrConflict
	}
	o.State = to
	o.UpdatedAt = store.Now()
	s.orders[id] = o
	o = cloneOrder(o)
	return &o, nil
}

func (s *Store) DeleteOrder(ctx context.Context, id primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.orders[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.orders, id)
	return nil
}

func (s *Store) CountOrdersByState(ctx context.Context) ([]models.OrderStateCount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	counts := map[models.OrderState]int{}
	for _, o := range s.orders {
		counts[o.State]++
	}
	out := make([]models.OrderStateCount, 0, len(counts))
	for state, n := range counts {
		out = append(out, models.OrderStateCount{State: state, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].State < out[j].State })
	return out, nil
}
