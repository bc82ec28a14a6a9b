// 記憶體版store.Store，供測試使用
package memstore

import (
	"bytes"
	"context"
	"slices"
	"sort"
	"sync"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/models"
	"storefront/store"
)

type Store struct {
	mu         sync.RWMutex
	users      map[primitive.ObjectID]models.User
	products   map[primitive.ObjectID]models.Product
	categories map[primitive.ObjectID]models.Category
	reviews    map[primitive.ObjectID]models.Review
	carts      map[primitive.ObjectID]models.Cart
	orders     map[primitive.ObjectID]models.Order
}

var _ store.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		users:      map[primitive.ObjectID]models.User{},
		products:   map[primitive.ObjectID]models.Product{},
		categories: map[primitive.ObjectID]models.Category{},
		reviews:    map[primitive.ObjectID]models.Review{},
		carts:      map[primitive.ObjectID]models.Cart{},
		orders:     map[primitive.ObjectID]models.Order{},
	}
}

// WithTransaction 不支援回滾，直接執行
func (s *Store) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// ObjectID內含遞增計數器，同一process內依ID排序即建立順序
func sortedValues[T any](m map[primitive.ObjectID]T, keep func(T) bool) []T {
	ids := make([]primitive.ObjectID, 0, len(m))
	for id, v := range m {
		if keep == nil || keep(v) {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return bytes.Compare(ids[i][:], ids[j][:]) < 0 })
	out := make([]T, 0, len(ids))
	for _, id := range ids {
		out = append(out, m[id])
	}
	return out
}

func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == user.Email {
			return store.ErrDuplicate
		}
	}
	now := store.Now()
	user.ID = primitive.NewObjectID()
	user.CreatedAt, user.UpdatedAt = now, now
	if user.Addresses == nil {
		user.Addresses = []models.Address{}
	}
	s.users[user.ID] = cloneUser(*user)
	return nil
}

func (s *Store) GetUser(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	u = cloneUser(u)
	return &u, nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.Email == email {
			u = cloneUser(u)
			return &u, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) ListUsers(ctx context.Context) ([]models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	users := sortedValues(s.users, nil)
	for i := range users {
		users[i] = cloneUser(users[i])
	}
	return users, nil
}

func (s *Store) UpdateUser(ctx context.Context, id primitive.ObjectID, patch store.UserPatch) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	if patch.Email != nil {
		for otherID, other := range s.users {
			if otherID != id && other.Email == *patch.Email {
				return nil, store.ErrDuplicate
			}
		}
		u.Email = *patch.Email
	}
	if patch.Name != nil {
		u.Name = *patch.Name
	}
	if patch.Phone != nil {
		u.Phone = *patch.Phone
	}
	if patch.Password != nil {
		u.Password = *patch.Password
	}
	if patch.Addresses != nil {
		u.Addresses = slices.Clone(*patch.Addresses)
	}
	u.UpdatedAt = store.Now()
	s.users[id] = u
	u = cloneUser(u)
	return &u, nil
}

func (s *Store) DeleteUser(ctx context.Context, id primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.users, id)
	return nil
}

func cloneUser(u models.User) models.User {
	u.Addresses = slices.Clone(u.Addresses)
	return u
}
