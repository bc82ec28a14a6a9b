package store

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	"storefront/models"
)

func (m *Mongo) CreateUser(ctx context.Context, user *models.User) error {
	now := Now()
	user.ID = primitive.NewObjectID()
	user.CreatedAt, user.UpdatedAt = now, now
	if user.Addresses == nil {
		user.Addresses = []models.Address{}
	}
	_, err := insert(ctx, m.coll(usersCollection), user)
	return err
}

func (m *Mongo) GetUser(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	return findByID[models.User](ctx, m.coll(usersCollection), id)
}

func (m *Mongo) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := m.coll(usersCollection).FindOne(ctx, bson.M{"email": email}).Decode(&user); err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (m *Mongo) ListUsers(ctx context.Context) ([]models.User, error) {
	return findAll[models.User](ctx, m.coll(usersCollection), bson.M{}, options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}}))
}

func (m *Mongo) UpdateUser(ctx context.Context, id primitive.ObjectID, patch UserPatch) (*models.User, error) {
	set := bson.M{"updatedAt": Now()}
	if patch.Name != nil {
		set["name"] = *patch.Name
	}
	if patch.Email != nil {
		set["email"] = *patch.Email
	}
	if patch.Phone != nil {
		set["phone"] = *patch.Phone
	}
	if patch.Password != nil {
		set["password"] = *patch.Password
	}
	if patch.Addresses != nil {
		set["addresses"] = *patch.Addresses
	}
	return updateByID[models.User](ctx, m.coll(usersCollection), bson.M{"_id": id}, bson.M{"$set": set})
}

func (m *Mongo) DeleteUser(ctx context.Context, id primitive.ObjectID) error {
	return deleteByID(ctx, m.coll(usersCollection), id)
}
