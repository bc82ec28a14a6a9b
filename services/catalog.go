package services

import (
	"context"
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/errs"
	"storefront/models"
	"storefront/store"
	"storefront/validate"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 50
	TopProductLimit = 10
)

type ProductService struct {
	store store.Store
	cache ProductCache
}

type ProductInput struct {
	Name        string
	Price       float64
	Description string
	Brand       string
	Stock       int
	Category    *primitive.ObjectID
	ImageURL    string
}

type ProductPage struct {
	Products   []models.Product `json:"products"`
	TotalCount int64            `json:"totalCount"`
}

func (s *ProductService) checkCategory(ctx context.Context, id *primitive.ObjectID) error {
	if id == nil {
		return nil
	}
	if _, err := s.store.GetCategory(ctx, *id); err != nil {
		return storeErr(err, "分類")
	}
	return nil
}

func (s *ProductService) invalidate(ctx context.Context) {
	if s.cache != nil {
		warn(ctx, "product_cache_invalidate", s.cache.Invalidate(ctx))
	}
}

func (s *ProductService) Create(ctx context.Context, in ProductInput) (*models.Product, error) {
	product := &models.Product{
		Name:        strings.TrimSpace(in.Name),
		Price:       in.Price,
		Description: in.Description,
		Brand:       strings.TrimSpace(in.Brand),
		Stock:       in.Stock,
		Category:    in.Category,
		ImageURL:    in.ImageURL,
	}
	if err := validate.Struct(product); err != nil {
		return nil, err
	}
	if err := s.checkCategory(ctx, in.Category); err != nil {
		return nil, err
	}
	if err := s.store.CreateProduct(ctx, product); err != nil {
		return nil, errs.Internal(err)
	}
	s.invalidate(ctx)
	return product, nil
}

func (s *ProductService) Get(ctx context.Context, id primitive.ObjectID) (*models.Product, error) {
	product, err := s.store.GetProduct(ctx, id)
	if err != nil {
		return nil, storeErr(err, "商品")
	}
	return product, nil
}

// List 優先從快取讀取，快取為空時由資料庫重建
func (s *ProductService) List(ctx context.Context, limit, offset int) (*ProductPage, error) {
	if limit <= 0 {
		limit = DefaultPageSize
	}
	//限制最高查詢數量
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	if offset < 0 {
		return nil, errs.Validation("offset不可小於0")
	}

	if s.cache != nil {
		page, ok := s.cachedPage(ctx, limit, offset)
		if ok {
			return page, nil
		}
	}

	products, total, err := s.store.ListProducts(ctx, store.ListOptions{Limit: limit, Offset: offset})
	if err != nil {
		return nil, errs.Internal(err)
	}
	return &ProductPage{Products: products, TotalCount: total}, nil
}

func (s *ProductService) cachedPage(ctx context.Context, limit, offset int) (*ProductPage, bool) {
	products, total, ok, err := s.cache.Page(ctx, offset, limit)
	if err != nil {
		warn(ctx, "product_cache_read", err)
		return nil, false
	}
	if ok {
		return &ProductPage{Products: products, TotalCount: total}, true
	}

	//版本需在讀取列表前取得，讀取期間若有異動Fill會放棄寫入
	version, err := s.cache.Version(ctx)
	if err != nil {
		warn(ctx, "product_cache_read", err)
		return nil, false
	}
	all, _, err := s.store.ListProducts(ctx, store.ListOptions{})
	if err != nil || len(all) == 0 {
		return nil, false
	}
	filled, err := s.cache.Fill(ctx, version, all)
	if err != nil {
		warn(ctx, "product_cache_fill", err)
		return nil, false
	}
	if !filled {
		return nil, false
	}
	products, total, ok, err = s.cache.Page(ctx, offset, limit)
	if err != nil || !ok {
		return nil, false
	}
	return &ProductPage{Products: products, TotalCount: total}, true
}

// Filter 價格上下限皆為必填
func (s *ProductService) Filter(ctx context.Context, minPrice, maxPrice *float64, brand string) ([]models.Product, error) {
	if minPrice == nil || maxPrice == nil {
		return nil, errs.Validation("minPrice與maxPrice皆為必填")
	}
	if *minPrice < 0 || *maxPrice < 0 {
		return nil, errs.Validation("價格不可小於0")
	}
	if *minPrice > *maxPrice {
		return nil, errs.Validation("minPrice不可大於maxPrice")
	}
	products, err := s.store.FilterProducts(ctx, store.ProductFilter{
		MinPrice: *minPrice,
		MaxPrice: *maxPrice,
		Brand:    strings.TrimSpace(brand),
	})
	if err != nil {
		return nil, errs.Internal(err)
	}
	return products, nil
}

func (s *ProductService) Top(ctx context.Context) ([]models.TopProduct, error) {
	top, err := s.store.TopReviewedProducts(ctx, TopProductLimit)
	if err != nil {
		return nil, errs.Internal(err)
	}
	return top, nil
}

func (s *ProductService) Update(ctx context.Context, id primitive.ObjectID, patch store.ProductPatch) (*models.Product, error) {
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if err := validate.Var("name", name, "required,max=200"); err != nil {
			return nil, err
		}
		patch.Name = &name
	}
	if patch.Brand != nil {
		brand := strings.TrimSpace(*patch.Brand)
		if err := validate.Var("brand", brand, "required"); err != nil {
			return nil, err
		}
		patch.Brand = &brand
	}
	if patch.Price != nil && *patch.Price < 0 {
		return nil, errs.Validation("price不可小於0")
	}
	if patch.Stock != nil && *patch.Stock < 0 {
		return nil, errs.Validation("stock不可小於0")
	}
	if err := s.checkCategory(ctx, patch.Category); err != nil {
		return nil, err
	}

	product, err := s.store.UpdateProduct(ctx, id, patch)
	if err != nil {
		return nil, storeErr(err, "商品")
	}
	s.invalidate(ctx)
	return product, nil
}

func (s *ProductService) SetStock(ctx context.Context, id primitive.ObjectID, stock *int) (*models.Product, error) {
	if stock == nil {
		return nil, errs.Validation("stock為必填")
	}
	if *stock < 0 {
		return nil, errs.Validation("stock不可小於0")
	}
	product, err := s.store.SetStock(ctx, id, *stock)
	if err != nil {
		return nil, storeErr(err, "商品")
	}
	s.invalidate(ctx)
	return product, nil
}

// Delete 先刪除商品的所有評論
func (s *ProductService) Delete(ctx context.Context, id primitive.ObjectID) error {
	if _, err := s.store.GetProduct(ctx, id); err != nil {
		return storeErr(err, "商品")
	}
	if _, err := s.store.DeleteReviewsByProduct(ctx, id); err != nil {
		return errs.Internal(err)
	}
	if err := s.store.DeleteProduct(ctx, id); err != nil {
		return storeErr(err, "商品")
	}
	s.invalidate(ctx)
	return nil
}

type CategoryService struct {
	store    store.Store
	products *ProductService
}

// CategoryDetail 所屬商品於讀取時由Product.Category反查
type CategoryDetail struct {
	models.Category
	Products []models.Product `json:"products"`
}

func (s *CategoryService) Create(ctx context.Context, name, description string) (*models.Category, error) {
	category := &models.Category{Name: strings.TrimSpace(name), Description: description}
	if err := validate.Struct(category); err != nil {
		return nil, err
	}
	if err := s.store.CreateCategory(ctx, category); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, errs.Conflict("分類名稱已存在")
		}
		return nil, errs.Internal(err)
	}
	return category, nil
}

func (s *CategoryService) Get(ctx context.Context, id primitive.ObjectID) (*CategoryDetail, error) {
	category, err := s.store.GetCategory(ctx, id)
	if err != nil {
		return nil, storeErr(err, "分類")
	}
	products, err := s.store.ListProductsByCategory(ctx, id)
	if err != nil {
		return nil, errs.Internal(err)
	}
	return &CategoryDetail{Category: *category, Products: products}, nil
}

func (s *CategoryService) List(ctx context.Context) ([]models.Category, error) {
	categories, err := s.store.ListCategories(ctx)
	if err != nil {
		return nil, errs.Internal(err)
	}
	return categories, nil
}

func (s *CategoryService) Update(ctx context.Context, id primitive.ObjectID, patch store.CategoryPatch) (*models.Category, error) {
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if err := validate.Var("name", name, "required,max=100"); err != nil {
			return nil, err
		}
		patch.Name = &name
	}
	category, err := s.store.UpdateCategory(ctx, id, patch)
	if err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, errs.Conflict("分類名稱已存在")
		}
		return nil, storeErr(err, "分類")
	}
	return category, nil
}

// Delete 先移除商品上的分類參照再刪除分類
func (s *CategoryService) Delete(ctx context.Context, id primitive.ObjectID) error {
	if _, err := s.store.GetCategory(ctx, id); err != nil {
		return storeErr(err, "分類")
	}
	cleared, err := s.store.ClearCategory(ctx, id)
	if err != nil {
		return errs.Internal(err)
	}
	if err := s.store.DeleteCategory(ctx, id); err != nil {
		return storeErr(err, "分類")
	}
	if cleared > 0 {
		s.products.invalidate(ctx)
	}
	return nil
}

func (s *CategoryService) Stats(ctx context.Context) ([]models.CategoryStat, error) {
	stats, err := s.store.CategoryStats(ctx)
	if err != nil {
		return nil, errs.Internal(err)
	}
	return stats, nil
}
