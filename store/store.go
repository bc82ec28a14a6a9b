package store

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/models"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate record")
	// ErrConflict 條件式更新失敗，資料已被其他請求修改
	ErrConflict = errors.New("concurrent modification")
	// ErrQuantityLimit 合併後數量超過models.MaxLineQuantity
	ErrQuantityLimit = errors.New("line quantity limit exceeded")
)

// MaxMergeAttempts 購物車合併在兩種更新之間被搶先時的重試上限
const MaxMergeAttempts = 5

type ListOptions struct {
	Limit  int
	Offset int
}

type UserPatch struct {
	Name      *string
	Email     *string
	Phone     *string
	Password  *string
	Addresses *[]models.Address
}

type ProductPatch struct {
	Name        *string
	Price       *float64
	Description *string
	Brand       *string
	Stock       *int
	Category    *primitive.ObjectID
	ImageURL    *string
}

type ProductFilter struct {
	MinPrice float64
	MaxPrice float64
	Brand    string
}

type CategoryPatch struct {
	Name        *string
	Description *string
}

type ReviewPatch struct {
	Rating  *int
	Comment *string
}

type ReviewFilter struct {
	Product *primitive.ObjectID
}

type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUser(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	UpdateUser(ctx context.Context, id primitive.ObjectID, patch UserPatch) (*models.User, error)
	DeleteUser(ctx context.Context, id primitive.ObjectID) error
}

type ProductStore interface {
	CreateProduct(ctx context.Context, product *models.Product) error
	GetProduct(ctx context.Context, id primitive.ObjectID) (*models.Product, error)
	// GetProductsByIDs 回傳存在的商品，不存在的ID直接略過
	GetProductsByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Product, error)
	// ListProducts Limit為0時回傳全部
	ListProducts(ctx context.Context, opts ListOptions) ([]models.Product, int64, error)
	FilterProducts(ctx context.Context, filter ProductFilter) ([]models.Product, error)
	ListProductsByCategory(ctx context.Context, categoryID primitive.ObjectID) ([]models.Product, error)
	UpdateProduct(ctx context.Context, id primitive.ObjectID, patch ProductPatch) (*models.Product, error)
	SetStock(ctx context.Context, id primitive.ObjectID, stock int) (*models.Product, error)
	AddProductReview(ctx context.Context, productID, reviewID primitive.ObjectID) error
	RemoveProductReview(ctx context.Context, productID, reviewID primitive.ObjectID) error
	// ClearCategory 移除商品上對該分類的參照
	ClearCategory(ctx context.Context, categoryID primitive.ObjectID) (int64, error)
	DeleteProduct(ctx context.Context, id primitive.ObjectID) error
}

type CategoryStore interface {
	CreateCategory(ctx context.Context, category *models.Category) error
	GetCategory(ctx context.Context, id primitive.ObjectID) (*models.Category, error)
	ListCategories(ctx context.Context) ([]models.Category, error)
	UpdateCategory(ctx context.Context, id primitive.ObjectID, patch CategoryPatch) (*models.Category, error)
	DeleteCategory(ctx context.Context, id primitive.ObjectID) error
	CategoryStats(ctx context.Context) ([]models.CategoryStat, error)
}

type ReviewStore interface {
	CreateReview(ctx context.Context, review *models.Review) error
	GetReview(ctx context.Context, id primitive.ObjectID) (*models.Review, error)
	ListReviews(ctx context.Context, filter ReviewFilter) ([]models.Review, error)
	UpdateReview(ctx context.Context, id primitive.ObjectID, patch ReviewPatch) (*models.Review, error)
	DeleteReview(ctx context.Context, id primitive.ObjectID) error
	DeleteReviewsByProduct(ctx context.Context, productID primitive.ObjectID) (int64, error)
	TopReviewedProducts(ctx context.Context, limit int) ([]models.TopProduct, error)
}

type CartStore interface {
	CreateCart(ctx context.Context, cart *models.Cart) error
	GetCart(ctx context.Context, id primitive.ObjectID) (*models.Cart, error)
	GetCartByUser(ctx context.Context, userID primitive.ObjectID) (*models.Cart, error)
	ListCarts(ctx context.Context) ([]models.Cart, error)
	// AddCartItem 同商品累加數量，否則新增一列；單一文件原子操作
	AddCartItem(ctx context.Context, cartID, productID primitive.ObjectID, quantity int) (*models.Cart, error)
	DeleteCart(ctx context.Context, id primitive.ObjectID) error
	// DeleteCartAtVersion 版本不符回傳ErrConflict，購物車不存在回傳ErrNotFound
	DeleteCartAtVersion(ctx context.Context, id primitive.ObjectID, version int64) error
	DeleteCartByUser(ctx context.Context, userID primitive.ObjectID) error
}

type OrderStore interface {
	CreateOrder(ctx context.Context, order *models.Order) error
	GetOrder(ctx context.Context, id primitive.ObjectID) (*models.Order, error)
	ListOrders(ctx context.Context) ([]models.OrderWithCustomer, error)
	ListOrdersByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Order, error)
	// TransitionOrderState 僅在目前狀態仍為from時更新
	TransitionOrderState(ctx context.Context, id primitive.ObjectID, from, to models.OrderState) (*models.Order, error)
	DeleteOrder(ctx context.Context, id primitive.ObjectID) error
	CountOrdersByState(ctx context.Context) ([]models.OrderStateCount, error)
}

// Transactor 支援交易時fn在同一個交易內執行，否則直接執行
type Transactor interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type Store interface {
	UserStore
	ProductStore
	CategoryStore
	ReviewStore
	CartStore
	OrderStore
	Transactor
}

// Now MongoDB只保存到毫秒
func Now() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}
