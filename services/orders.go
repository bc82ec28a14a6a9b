package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/alert"
	"storefront/errs"
	"storefront/models"
	"storefront/store"
)

type OrderService struct {
	store  store.Store
	alerts AlertReporter
	strict bool
}

// MissingProductsError 購物車內有已刪除的商品
type MissingProductsError struct {
	IDs []primitive.ObjectID
}

func (e *MissingProductsError) Error() string {
	hex := make([]string, len(e.IDs))
	for i, id := range e.IDs {
		hex[i] = id.Hex()
	}
	return "products no longer exist: " + strings.Join(hex, ",")
}

// Checkout 將購物車轉為訂單：
// 依目前價格計算小計與總額，快照商品名稱，建立PENDING訂單後刪除購物車。
// 任一商品不存在時整筆失敗，不建立訂單。
// 計價後購物車若又被修改，撤銷訂單並回傳conflict。
func (s *OrderService) Checkout(ctx context.Context, caller models.Identity, userID *primitive.ObjectID, paymentMethod string) (*models.Order, error) {
	paymentMethod = strings.TrimSpace(paymentMethod)
	if paymentMethod == "" {
		return nil, errs.Validation("paymentMethod為必填")
	}
	target := caller.ID
	if userID != nil {
		target = *userID
	}
	if err := authorize(caller, target); err != nil {
		return nil, err
	}

	cart, err := s.store.GetCartByUser(ctx, target)
	if err != nil {
		return nil, storeErr(err, "購物車")
	}
	if len(cart.Items) == 0 {
		return nil, errs.Validation("購物車是空的")
	}

	order, err := s.price(ctx, cart)
	if err != nil {
		return nil, err
	}
	order.PaymentMethod = paymentMethod

	var cartErr error
	err = s.store.WithTransaction(ctx, func(txCtx context.Context) error {
		cartErr = nil
		if err := s.store.CreateOrder(txCtx, order); err != nil {
			return err
		}
		if err := s.store.DeleteCartAtVersion(txCtx, cart.ID, cart.Version); err != nil {
			cartErr = err
			return err
		}
		return nil
	})
	if err == nil {
		return order, nil
	}
	if cartErr == nil {
		//建立訂單失敗，購物車保持不變
		return nil, errs.Internal(fmt.Errorf("create order: %w", err))
	}
	return s.compensate(ctx, order, cart, cartErr)
}

// price 一次查詢所有商品，依目前價格建立訂單明細
func (s *OrderService) price(ctx context.Context, cart *models.Cart) (*models.Order, error) {
	products, err := s.store.GetProductsByIDs(ctx, cart.ProductIDs())
	if err != nil {
		return nil, errs.Internal(err)
	}
	byID := make(map[primitive.ObjectID]models.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	var missing []primitive.ObjectID
	for _, id := range cart.ProductIDs() {
		if _, ok := byID[id]; !ok {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		e := &MissingProductsError{IDs: missing}
		return nil, &errs.Error{Kind: errs.KindConflict, Message: "購物車內有商品已不存在", Err: e}
	}

	order := &models.Order{
		User:  cart.User,
		Items: make([]models.OrderItem, 0, len(cart.Items)),
		State: models.OrderPending,
	}
	total := decimal.Zero
	for _, item := range cart.Items {
		p := byID[item.Product]
		subtotal := lineSubtotal(p.Price, item.Quantity)
		total = total.Add(subtotal)
		order.Items = append(order.Items, models.OrderItem{
			Product:  p.ID,
			Name:     p.Name,
			Quantity: item.Quantity,
			Subtotal: amount(subtotal),
		})
	}
	order.Total = amount(total)
	return order, nil
}

// compensate 刪除購物車失敗時撤銷訂單；撤銷也失敗則回報不一致
func (s *OrderService) compensate(ctx context.Context, order *models.Order, cart *models.Cart, cartErr error) (*models.Order, error) {
	delErr := s.store.DeleteOrder(context.WithoutCancel(ctx), order.ID)
	if delErr == nil || errors.Is(delErr, store.ErrNotFound) {
		switch {
		case errors.Is(cartErr, store.ErrNotFound):
			// 購物車已被同時進行的結帳刪除
			return nil, errs.Conflict("購物車已結帳")
		case errors.Is(cartErr, store.ErrConflict):
			return nil, errs.Conflict("購物車已被修改，請重新結帳")
		}
		return nil, errs.Internal(fmt.Errorf("delete cart: %w", cartErr))
	}

	// 購物車已由另一筆結帳刪除時，這筆訂單是重複的
	kind := "orphaned_cart"
	if errors.Is(cartErr, store.ErrNotFound) {
		kind = "duplicate_order"
	}
	if s.alerts != nil {
		s.alerts.Report(ctx, alert.Inconsistency{
			Kind:    kind,
			OrderID: order.ID.Hex(),
			CartID:  cart.ID.Hex(),
			UserID:  cart.User.Hex(),
			Detail:  fmt.Sprintf("delete cart: %v; delete order: %v", cartErr, delErr),
		}, cartErr)
	}
	return order, nil
}

func (s *OrderService) Get(ctx context.Context, caller models.Identity, id primitive.ObjectID) (*models.Order, error) {
	order, err := s.store.GetOrder(ctx, id)
	if err != nil {
		return nil, storeErr(err, "訂單")
	}
	if err := authorize(caller, order.User); err != nil {
		return nil, err
	}
	return order, nil
}

func (s *OrderService) List(ctx context.Context) ([]models.OrderWithCustomer, error) {
	orders, err := s.store.ListOrders(ctx)
	if err != nil {
		return nil, errs.Internal(err)
	}
	return orders, nil
}

func (s *OrderService) ListByUser(ctx context.Context, caller models.Identity, userID primitive.ObjectID) ([]models.Order, error) {
	if err := authorize(caller, userID); err != nil {
		return nil, err
	}
	orders, err := s.store.ListOrdersByUser(ctx, userID)
	if err != nil {
		return nil, errs.Internal(err)
	}
	return orders, nil
}

// UpdateState 只有admin可以變更狀態，目標狀態在讀取訂單前先檢查
func (s *OrderService) UpdateState(ctx context.Context, caller models.Identity, id primitive.ObjectID, target string) (*models.Order, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}
	next, err := models.ParseOrderState(target)
	if err != nil {
		return nil, errs.Validation("state必須為PENDING、SHIPPED、DELIVERED或CANCELED")
	}

	order, err := s.store.GetOrder(ctx, id)
	if err != nil {
		return nil, storeErr(err, "訂單")
	}
	if s.strict && !order.State.CanTransitionTo(next) {
		return nil, errs.Conflict("訂單狀態無法由%s變更為%s", order.State, next)
	}

	updated, err := s.store.TransitionOrderState(ctx, id, order.State, next)
	if err != nil {
		return nil, storeErr(err, "訂單")
	}
	return updated, nil
}

func (s *OrderService) Delete(ctx context.Context, id primitive.ObjectID) error {
	if err := s.store.DeleteOrder(ctx, id); err != nil {
		return storeErr(err, "訂單")
	}
	return nil
}

// Stats 四種狀態都會列出，沒有訂單的狀態為0
func (s *OrderService) Stats(ctx context.Context) ([]models.OrderStateCount, error) {
	counts, err := s.store.CountOrdersByState(ctx)
	if err != nil {
		return nil, errs.Internal(err)
	}
	byState := make(map[models.OrderState]int, len(counts))
	for _, c := range counts {
		byState[c.State] = c.Count
	}
	out := make([]models.OrderStateCount, 0, len(models.OrderStates()))
	for _, state := range models.OrderStates() {
		out = append(out, models.OrderStateCount{State: state, Count: byState[state]})
	}
	return out, nil
}
