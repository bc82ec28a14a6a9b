package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Cart 每位使用者最多一台
type Cart struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	User      primitive.ObjectID `bson:"user" json:"user"`
	Items     []CartItem         `bson:"items" json:"items"`
	// Version 每次修改內容加一，結帳時用來確認購物車未被更動
	Version   int64              `bson:"version" json:"-"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// AddItem 同商品合併數量，否則新增一列；合併後超過MaxLineQuantity時不修改並回傳false
func (c *Cart) AddItem(productID primitive.ObjectID, quantity int) bool {
	if quantity < 1 || quantity > MaxLineQuantity {
		return false
	}
	for i := range c.Items {
		if c.Items[i].Product == productID {
			if c.Items[i].Quantity > MaxLineQuantity-quantity {
				return false
			}
			c.Items[i].Quantity += quantity
			return true
		}
	}
	c.Items = append(c.Items, CartItem{Product: productID, Quantity: quantity})
	return true
}

// ProductIDs 回傳購物車內不重複的商品ID
func (c *Cart) ProductIDs() []primitive.ObjectID {
	seen := make(map[primitive.ObjectID]struct{}, len(c.Items))
	ids := make([]primitive.ObjectID, 0, len(c.Items))
	for _, item := range c.Items {
		if _, ok := seen[item.Product]; ok {
			continue
		}
		seen[item.Product] = struct{}{}
		ids = append(ids, item.Product)
	}
	return ids
}
