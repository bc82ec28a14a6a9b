package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Role string

const (
	RoleClient Role = "CLIENT"
	RoleAdmin  Role = "ADMIN"
)

func (r Role) Valid() bool {
	return r == RoleClient || r == RoleAdmin
}

type Address struct {
	Street     string `bson:"street" json:"street" validate:"required"`
	PostalCode string `bson:"postalCode" json:"postalCode" validate:"required"`
	Number     string `bson:"number" json:"number" validate:"required"`
}

type User struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name      string             `bson:"name" json:"name" validate:"required,max=100"`
	Email     string             `bson:"email" json:"email" validate:"required,email"`
	Password  string             `bson:"password" json:"-"`
	Phone     string             `bson:"phone,omitempty" json:"phone,omitempty" validate:"omitempty,max=30"`
	Role      Role               `bson:"role" json:"role" validate:"oneof=CLIENT ADMIN"`
	Addresses []Address          `bson:"addresses" json:"addresses" validate:"dive"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// Identity 回傳token內攜帶的使用者身分
func (u *User) Identity() Identity {
	return Identity{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role}
}
