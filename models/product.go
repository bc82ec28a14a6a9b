package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Product struct {
	ID          primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Name        string               `bson:"name" json:"name" validate:"required,max=200"`
	Price       float64              `bson:"price" json:"price" validate:"gte=0"`
	Description string               `bson:"description,omitempty" json:"description,omitempty"`
	Brand       string               `bson:"brand" json:"brand" validate:"required"`
	Stock       int                  `bson:"stock" json:"stock" validate:"gte=0"`
	Category    *primitive.ObjectID  `bson:"category,omitempty" json:"category,omitempty"`
	Reviews     []primitive.ObjectID `bson:"reviews" json:"reviews"`
	ImageURL    string               `bson:"imageURL,omitempty" json:"imageURL,omitempty"`
	CreatedAt   time.Time            `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time            `bson:"updatedAt" json:"updatedAt"`
}

// TopProduct 為依評論數排序的商品統計
type TopProduct struct {
	Product     Product  `bson:"product" json:"product"`
	ReviewCount int      `bson:"reviewCount" json:"reviewCount"`
	Reviews     []Review `bson:"reviews" json:"reviews"`
}
