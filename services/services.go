package services

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/alert"
	"storefront/errs"
	"storefront/jwt"
	"storefront/logger"
	"storefront/models"
	"storefront/store"
)

// ProductCache 商品列表快取，由cache.ProductCache實作
type ProductCache interface {
	Page(ctx context.Context, offset, limit int) ([]models.Product, int64, bool, error)
	Version(ctx context.Context) (int64, error)
	Fill(ctx context.Context, version int64, products []models.Product) (bool, error)
	Invalidate(ctx context.Context) error
}

type AlertReporter interface {
	Report(ctx context.Context, inc alert.Inconsistency, cause error)
}

type TokenIssuer interface {
	GenerateToken(identity models.Identity) (string, time.Time, error)
	Revoke(ctx context.Context, claims *jwt.Claims) error
}

type PasswordHasher interface {
	Hash(plain string) (string, error)
	Verify(plain, digest string) bool
}

type Deps struct {
	Store  store.Store
	Hasher PasswordHasher
	Tokens TokenIssuer
	// Cache 可為nil
	Cache  ProductCache
	Alerts AlertReporter
	// StrictTransitions 關閉時任何合法狀態皆可直接設定
	StrictTransitions bool
}

type Services struct {
	Users      *UserService
	Products   *ProductService
	Categories *CategoryService
	Reviews    *ReviewService
	Carts      *CartService
	Orders     *OrderService
}

func New(d Deps) *Services {
	products := &ProductService{store: d.Store, cache: d.Cache}
	return &Services{
		Users:      &UserService{store: d.Store, hasher: d.Hasher, tokens: d.Tokens},
		Products:   products,
		Categories: &CategoryService{store: d.Store, products: products},
		Reviews:    &ReviewService{store: d.Store},
		Carts:      &CartService{store: d.Store},
		Orders:     &OrderService{store: d.Store, alerts: d.Alerts, strict: d.StrictTransitions},
	}
}

// storeErr 將store錯誤轉為errs分類
func storeErr(err error, resource string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, store.ErrNotFound):
		return errs.NotFound("%s不存在", resource)
	case errors.Is(err, store.ErrDuplicate):
		return errs.Conflict("%s已存在", resource)
	case errors.Is(err, store.ErrQuantityLimit):
		return errs.Validation("單一商品數量不可超過%d", models.MaxLineQuantity)
	case errors.Is(err, store.ErrConflict):
		return errs.Conflict("%s已被其他請求修改，請重試", resource)
	default:
		return errs.Internal(err)
	}
}

// authorize 本人或admin才可操作
func authorize(caller models.Identity, owner primitive.ObjectID) error {
	if caller.CanActOn(owner) {
		return nil
	}
	return errs.Forbidden("沒有權限")
}

func requireAdmin(caller models.Identity) error {
	if caller.IsAdmin() {
		return nil
	}
	return errs.Forbidden("沒有權限")
}

func warn(ctx context.Context, action string, err error) {
	if err != nil {
		logger.Event(ctx, "warn", action, err, nil)
	}
}
