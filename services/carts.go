package services

import (
	"context"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/errs"
	"storefront/models"
	"storefront/store"
)

type CartService struct {
	store store.Store
}

// CartLine 只帶出商品名稱，不回傳完整商品資料
type CartLine struct {
	Product   primitive.ObjectID `json:"product"`
	Name      string             `json:"name"`
	Quantity  int                `json:"quantity"`
	Available bool               `json:"available"`
}

type CartView struct {
	ID    primitive.ObjectID `json:"id"`
	User  primitive.ObjectID `json:"user"`
	Items []CartLine         `json:"items"`
}

type CartTotalLine struct {
	Product   primitive.ObjectID `json:"product"`
	Name      string             `json:"name"`
	UnitPrice float64            `json:"unitPrice"`
	Quantity  int                `json:"quantity"`
	Subtotal  float64            `json:"subtotal"`
}

// CartTotal 以目前商品價格估算，與訂單成立時固定的金額不同
type CartTotal struct {
	CartID      primitive.ObjectID   `json:"cartId"`
	User        primitive.ObjectID   `json:"user"`
	Lines       []CartTotalLine      `json:"lines"`
	Unavailable []primitive.ObjectID `json:"unavailable"`
	Total       float64              `json:"total"`
}

func (s *CartService) productsByID(ctx context.Context, cart *models.Cart) (map[primitive.ObjectID]models.Product, error) {
	products, err := s.store.GetProductsByIDs(ctx, cart.ProductIDs())
	if err != nil {
		return nil, errs.Internal(err)
	}
	byID := make(map[primitive.ObjectID]models.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}
	return byID, nil
}

func (s *CartService) view(ctx context.Context, cart *models.Cart) (*CartView, error) {
	byID, err := s.productsByID(ctx, cart)
	if err != nil {
		return nil, err
	}
	v := &CartView{ID: cart.ID, User: cart.User, Items: make([]CartLine, 0, len(cart.Items))}
	for _, item := range cart.Items {
		p, ok := byID[item.Product]
		v.Items = append(v.Items, CartLine{Product: item.Product, Name: p.Name, Quantity: item.Quantity, Available: ok})
	}
	return v, nil
}

// Create 未指定userID時為呼叫者建立
func (s *CartService) Create(ctx context.Context, caller models.Identity, userID *primitive.ObjectID) (*CartView, error) {
	target := caller.ID
	if userID != nil {
		target = *userID
	}
	if err := authorize(caller, target); err != nil {
		return nil, err
	}
	if _, err := s.store.GetUser(ctx, target); err != nil {
		return nil, storeErr(err, "使用者")
	}

	cart := &models.Cart{User: target}
	if err := s.store.CreateCart(ctx, cart); err != nil {
		return nil, storeErr(err, "購物車")
	}
	return &CartView{ID: cart.ID, User: cart.User, Items: []CartLine{}}, nil
}

// AddItem 同商品合併數量
func (s *CartService) AddItem(ctx context.Context, caller models.Identity, cartID, productID primitive.ObjectID, quantity int) (*CartView, error) {
	if quantity <= 0 {
		return nil, errs.Validation("quantity必須為正整數")
	}
	if quantity > models.MaxLineQuantity {
		return nil, errs.Validation("quantity不可超過%d", models.MaxLineQuantity)
	}
	cart, err := s.store.GetCart(ctx, cartID)
	if err != nil {
		return nil, storeErr(err, "購物車")
	}
	if err := authorize(caller, cart.User); err != nil {
		return nil, err
	}
	if _, err := s.store.GetProduct(ctx, productID); err != nil {
		return nil, storeErr(err, "商品")
	}

	cart, err = s.store.AddCartItem(ctx, cartID, productID, quantity)
	if err != nil {
		return nil, storeErr(err, "購物車")
	}
	return s.view(ctx, cart)
}

func (s *CartService) Get(ctx context.Context, caller models.Identity, cartID primitive.ObjectID) (*CartView, error) {
	cart, err := s.store.GetCart(ctx, cartID)
	if err != nil {
		return nil, storeErr(err, "購物車")
	}
	if err := authorize(caller, cart.User); err != nil {
		return nil, err
	}
	return s.view(ctx, cart)
}

func (s *CartService) GetByUser(ctx context.Context, caller models.Identity, userID primitive.ObjectID) (*CartView, error) {
	if err := authorize(caller, userID); err != nil {
		return nil, err
	}
	cart, err := s.store.GetCartByUser(ctx, userID)
	if err != nil {
		return nil, storeErr(err, "購物車")
	}
	return s.view(ctx, cart)
}

func (s *CartService) List(ctx context.Context) ([]models.Cart, error) {
	carts, err := s.store.ListCarts(ctx)
	if err != nil {
		return nil, errs.Internal(err)
	}
	return carts, nil
}

// Total 已不存在的商品列在Unavailable，不計入總額
func (s *CartService) Total(ctx context.Context, caller models.Identity, userID primitive.ObjectID) (*CartTotal, error) {
	if err := authorize(caller, userID); err != nil {
		return nil, err
	}
	cart, err := s.store.GetCartByUser(ctx, userID)
	if err != nil {
		return nil, storeErr(err, "購物車")
	}
	byID, err := s.productsByID(ctx, cart)
	if err != nil {
		return nil, err
	}

	out := &CartTotal{CartID: cart.ID, User: cart.User, Lines: []CartTotalLine{}, Unavailable: []primitive.ObjectID{}}
	total := decimal.Zero
	for _, item := range cart.Items {
		p, ok := byID[item.Product]
		if !ok {
			out.Unavailable = append(out.Unavailable, item.Product)
			continue
		}
		subtotal := lineSubtotal(p.Price, item.Quantity)
		total = total.Add(subtotal)
		out.Lines = append(out.Lines, CartTotalLine{
			Product:   p.ID,
			Name:      p.Name,
			UnitPrice: p.Price,
			Quantity:  item.Quantity,
			Subtotal:  amount(subtotal),
		})
	}
	out.Total = amount(total)
	return out, nil
}

func (s *CartService) Delete(ctx context.Context, caller models.Identity, cartID primitive.ObjectID) error {
	cart, err := s.store.GetCart(ctx, cartID)
	if err != nil {
		return storeErr(err, "購物車")
	}
	if err := authorize(caller, cart.User); err != nil {
		return err
	}
	if err := s.store.DeleteCart(ctx, cartID); err != nil {
		return storeErr(err, "購物車")
	}
	return nil
}
