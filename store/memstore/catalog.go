package memstore

import (
	"context"
	"slices"
	"sort"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/models"
	"storefront/store"
)

func cloneProduct(p models.Product) models.Product {
	p.Reviews = slices.Clone(p.Reviews)
	if p.Category != nil {
		c := *p.Category
		p.Category = &c
	}
	return p
}

func cloneProducts(in []models.Product) []models.Product {
	for i := range in {
		in[i] = cloneProduct(in[i])
	}
	return in
}

func (s *Store) CreateProduct(ctx context.Context, product *models.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := store.Now()
	product.ID = primitive.NewObjectID()
	product.CreatedAt, product.UpdatedAt = now, now
	if product.Reviews == nil {
		product.Reviews = []primitive.ObjectID{}
	}
	s.products[product.ID] = cloneProduct(*product)
	return nil
}

func (s *Store) GetProduct(ctx context.Context, id primitive.ObjectID) (*models.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.products[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	p = cloneProduct(p)
	return &p, nil
}

func (s *Store) GetProductsByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []models.Product{}
	seen := map[primitive.ObjectID]bool{}
	for _, id := range ids {
		if p, ok := s.products[id]; ok && !seen[id] {
			seen[id] = true
			out = append(out, cloneProduct(p))
		}
	}
	return out, nil
}

func (s *Store) ListProducts(ctx context.Context, opts store.ListOptions) ([]models.Product, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	all := sortedValues(s.products, nil)
	total := int64(len(all))
	if opts.Offset >= len(all) {
		return []models.Product{}, total, nil
	}
	all = all[opts.Offset:]
	if opts.Limit > 0 && opts.Limit < len(all) {
		all = all[:opts.Limit]
	}
	return cloneProducts(all), total, nil
}

func (s *Store) FilterProducts(ctx context.Context, filter store.ProductFilter) ([]models.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := sortedValues(s.products, func(p models.Product) bool {
		if p.Price < filter.MinPrice || p.Price > filter.MaxPrice {
			return false
		}
		return filter.Brand == "" || p.Brand == filter.Brand
	})
	sort.SliceStable(out, func(i, j int) bool { return out[i].Price < out[j].Price })
	return cloneProducts(out), nil
}

func (s *Store) ListProductsByCategory(ctx context.Context, categoryID primitive.ObjectID) ([]models.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := sortedValues(s.products, func(p models.Product) bool {
		return p.Category != nil && *p.Category == categoryID
	})
	return cloneProducts(out), nil
}

func (s *Store) UpdateProduct(ctx context.Context, id primitive.ObjectID, patch store.ProductPatch) (*models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	if patch.Name != nil {
		p.Name = *patch.Name
	}
	if patch.Price != nil {
		p.Price = *patch.Price
	}
	if patch.Description != nil {
		p.Description = *patch.Description
	}
	if patch.Brand != nil {
		p.Brand = *patch.Brand
	}
	if patch.Stock != nil {
		p.Stock = *patch.Stock
	}
	if patch.Category != nil {
		c := *patch.Category
		p.Category = &c
	}
	if patch.ImageURL != nil {
		p.ImageURL = *patch.ImageURL
	}
	p.UpdatedAt = store.Now()
	s.products[id] = p
	p = cloneProduct(p)
	return &p, nil
}

func (s *Store) SetStock(ctx context.Context, id primitive.ObjectID, stock int) (*models.Product, error) {
	return s.UpdateProduct(ctx, id, store.ProductPatch{Stock: &stock})
}

func (s *Store) AddProductReview(ctx context.Context, productID, reviewID primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[productID]
	if !ok {
		return store.ErrNotFound
	}
	if !slices.Contains(p.Reviews, reviewID) {
		p.Reviews = append(slices.Clone(p.Reviews), reviewID)
	}
	s.products[productID] = p
	return nil
}

func (s *Store) RemoveProductReview(ctx context.Context, productID, reviewID primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[productID]
	if !ok {
		return store.ErrNotFound
	}
	p.Reviews = slices.DeleteFunc(slices.Clone(p.Reviews), func(id primitive.ObjectID) bool { return id == reviewID })
	s.products[productID] = p
	return nil
}

func (s *Store) ClearCategory(ctx context.Context, categoryID primitive.ObjectID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for id, p := range s.products {
		if p.Category != nil && *p.Category == categoryID {
			p.Category = nil
			p.UpdatedAt = store.Now()
			s.products[id] = p
			n++
		}
	}
	return n, nil
}

func (s *Store) DeleteProduct(ctx context.Context, id primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.products[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.products, id)
	return nil
}

func (s *Store) CreateCategory(ctx context.Context, category *models.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.categories {
		if c.Name == category.Name {
			return store.ErrDuplicate
		}
	}
	now := store.Now()
	category.ID = primitive.NewObjectID()
	category.CreatedAt, category.UpdatedAt = now, now
	s.categories[category.ID] = *category
	return nil
}

func (s *Store) GetCategory(ctx context.Context, id primitive.ObjectID) (*models.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.categories[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &c, nil
}

func (s *Store) ListCategories(ctx context.Context) ([]models.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := sortedValues(s.categories, nil)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *Store) UpdateCategory(ctx context.Context, id primitive.ObjectID, patch store.CategoryPatch) (*models.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.categories[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	if patch.Name != nil {
		for otherID, other := range s.categories {
			if otherID != id && other.Name == *patch.Name {
				return nil, store.ErrDuplicate
			}
		}
		c.Name = *patch.Name
	}
	if patch.Description != nil {
		c.Description = *patch.Description
	}
	c.UpdatedAt = store.Now()
	s.categories[id] = c
	return &c, nil
}

func (s *Store) DeleteCategory(ctx context.Context, id primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.categories[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.categories, id)
	return nil
}

func (s *Store) CategoryStats(ctx context.Context) ([]models.CategoryStat, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	counts := map[primitive.ObjectID]int{}
	for _, p := range s.products {
		if p.Category != nil {
			counts[*p.Category]++
		}
	}
	out := []models.CategoryStat{}
	for id, n := range counts {
		c, ok := s.categories[id]
		if !ok {
			continue
		}
		out = append(out, models.CategoryStat{CategoryID: id, Name: c.Name, ProductCount: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ProductCount != out[j].ProductCount {
			return out[i].ProductCount > out[j].ProductCount
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func (s *Store) CreateReview(ctx context.Context, review *models.Review) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := store.Now()
	review.ID = primitive.NewObjectID()
	review.CreatedAt, review.UpdatedAt = now, now
	s.reviews[review.ID] = *review
	return nil
}

func (s *Store) GetReview(ctx context.Context, id primitive.ObjectID) (*models.Review, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.reviews[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &r, nil
}

func (s *Store) ListReviews(ctx context.Context, filter store.ReviewFilter) ([]models.Review, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedValues(s.reviews, func(r models.Review) bool {
		return filter.Product == nil || r.Product == *filter.Product
	}), nil
}

func (s *Store) UpdateReview(ctx context.Context, id primitive.ObjectID, patch store.ReviewPatch) (*models.Review, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.reviews[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	if patch.Rating != nil {
		r.Rating = *patch.Rating
	}
	if patch.Comment != nil {
		r.Comment = *patch.Comment
	}
	r.UpdatedAt = store.Now()
	s.reviews[id] = r
	return &r, nil
}

func (s *Store) DeleteReview(ctx context.Context, id primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.reviews[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.reviews, id)
	return nil
}

func (s *Store) DeleteReviewsByProduct(ctx context.Context, productID primitive.ObjectID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for id, r := range s.reviews {
		if r.Product == productID {
			delete(s.reviews, id)
			n++
		}
	}
	return n, nil
}

func (s *Store) TopReviewedProducts(ctx context.Context, limit int) ([]models.TopProduct, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	byProduct := map[primitive.ObjectID][]models.Review{}
	for _, r := range sortedValues(s.reviews, nil) {
		byProduct[r.Product] = append(byProduct[r.Product], r)
	}
	out := []models.TopProduct{}
	for id, reviews := range byProduct {
		p, ok := s.products[id]
		if !ok {
			continue
		}
		out = append(out, models.TopProduct{Product: cloneProduct(p), ReviewCount: len(reviews), Reviews: reviews})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ReviewCount != out[j].ReviewCount {
			return out[i].ReviewCount > out[j].ReviewCount
		}
		return out[i].Product.ID.Hex() < out[j].Product.ID.Hex()
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
