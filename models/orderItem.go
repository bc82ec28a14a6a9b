package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// OrderItem 的Name與Subtotal為下單當下的快照
type OrderItem struct {
	Product  primitive.ObjectID `bson:"product" json:"product"`
	Name     string             `bson:"name" json:"name"`
	Quantity int                `bson:"quantity" json:"quantity"`
	Subtotal float64            `bson:"subtotal" json:"subtotal"`
}
