package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// Identity 為通過驗證後附加在請求上的身分
type Identity struct {
	ID    primitive.ObjectID
	Name  string
	Email string
	Role  Role
}

func (i Identity) IsAdmin() bool {
	return i.Role == RoleAdmin
}

// CanActOn 判斷是否可操作屬於owner的資源：本人或admin
func (i Identity) CanActOn(owner primitive.ObjectID) bool {
	if i.IsAdmin() {
		return true
	}
	return !i.ID.IsZero() && i.ID == owner
}
