package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// MaxLineQuantity 單一商品在購物車內的數量上限
const MaxLineQuantity = 10000

type CartItem struct {
	Product  primitive.ObjectID `bson:"product" json:"product"`
	Quantity int                `bson:"quantity" json:"quantity" validate:"min=1,max=10000"`
}
