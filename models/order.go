package models

import (
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type OrderState string

const (
	OrderPending   OrderState = "PENDING"
	OrderShipped   OrderState = "SHIPPED"
	OrderDelivered OrderState = "DELIVERED"
	OrderCanceled  OrderState = "CANCELED"
)

var orderStates = []OrderState{OrderPending, OrderShipped, OrderDelivered, OrderCanceled}

var orderTransitions = map[OrderState][]OrderState{
	OrderPending: {OrderShipped, OrderCanceled},
	OrderShipped: {OrderDelivered},
}

func OrderStates() []OrderState {
	return append([]OrderState(nil), orderStates...)
}

// ParseOrderState 只接受四種狀態之一，大小寫需完全相符
func ParseOrderState(s string) (OrderState, error) {
	for _, state := range orderStates {
		if string(state) == s {
			return state, nil
		}
	}
	return "", fmt.Errorf("invalid order state %q", s)
}

// IsTerminal DELIVERED與CANCELED之後不再轉換
func (s OrderState) IsTerminal() bool {
	return s == OrderDelivered || s == OrderCanceled
}

func (s OrderState) CanTransitionTo(next OrderState) bool {
	for _, allowed := range orderTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

type Order struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	User          primitive.ObjectID `bson:"user" json:"user"`
	Items         []OrderItem        `bson:"items" json:"items"`
	State         OrderState         `bson:"state" json:"state"`
	Total         float64            `bson:"total" json:"total"`
	PaymentMethod string             `bson:"paymentMethod" json:"paymentMethod"`
	CreatedAt     time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time          `bson:"updatedAt" json:"updatedAt"`
}

type OrderCustomer struct {
	ID    primitive.ObjectID `bson:"_id" json:"id"`
	Name  string             `bson:"name" json:"name"`
	Email string             `bson:"email" json:"email"`
}

// OrderWithCustomer 為管理者訂單列表，附帶下單者基本資料
type OrderWithCustomer struct {
	Order    `bson:",inline"`
	Customer *OrderCustomer `bson:"customer,omitempty" json:"customer,omitempty"`
}

type OrderStateCount struct {
	State OrderState `bson:"_id" json:"state"`
	Count int        `bson:"count" json:"count"`
}
