package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Category 不保存商品列表，所屬商品由Product.Category反查
type Category struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name        string             `bson:"name" json:"name" validate:"required,max=100"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt" json:"updatedAt"`
}

type CategoryStat struct {
	CategoryID   primitive.ObjectID `bson:"_id" json:"categoryId"`
	Name         string             `bson:"name" json:"name"`
	ProductCount int                `bson:"productCount" json:"productCount"`
}
