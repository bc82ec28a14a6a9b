package store

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"storefront/models"
)

func (m *Mongo) CreateCart(ctx context.Context, cart *models.Cart) error {
	now := Now()
	cart.ID = primitive.NewObjectID()
	cart.CreatedAt, cart.UpdatedAt = now, now
	// $push無法作用在null欄位
	if cart.Items == nil {
		cart.Items = []models.CartItem{}
	}
	_, err := insert(ctx, m.coll(cartsCollection), cart)
	return err
}

func (m *Mongo) GetCart(ctx context.Context, id primitive.ObjectID) (*models.Cart, error) {
	return findByID[models.Cart](ctx, m.coll(cartsCollection), id)
}

func (m *Mongo) GetCartByUser(ctx context.Context, userID primitive.ObjectID) (*models.Cart, error) {
	var cart models.Cart
	if err := m.coll(cartsCollection).FindOne(ctx, bson.M{"user": userID}).Decode(&cart); err != nil {
		return nil, translate(err)
	}
	return &cart, nil
}

func (m *Mongo) ListCarts(ctx context.Context) ([]models.Cart, error) {
	return findAll[models.Cart](ctx, m.coll(cartsCollection), bson.M{}, options.Find().SetSort(byCreated))
}

// AddCartItem 先以$inc累加既有的列，沒有則以$push新增；
// $push的條件排除已存在的商品，兩者之間被搶先時重試
func (m *Mongo) AddCartItem(ctx context.Context, cartID, productID primitive.ObjectID, quantity int) (*models.Cart, error) {
	if quantity < 1 || quantity > models.MaxLineQuantity {
		return nil, ErrQuantityLimit
	}
	coll := m.coll(cartsCollection)
	for attempt := 0; attempt < MaxMergeAttempts; attempt++ {
		now := Now()
		cart, err := updateByID[models.Cart](ctx, coll,
			bson.M{"_id": cartID, "items": bson.M{"$elemMatch": bson.M{
				"product":  productID,
				"quantity": bson.M{"$lte": models.MaxLineQuantity - quantity},
			}}},
			bson.M{"$inc": bson.M{"items.$.quantity": quantity, "version": 1}, "$set": bson.M{"updatedAt": now}})
		if err == nil {
			return cart, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return nil, err
		}

		cart, err = updateByID[models.Cart](ctx, coll,
			bson.M{"_id": cartID, "items.product": bson.M{"$ne": productID}},
			bson.M{
				"$push": bson.M{"items": models.CartItem{Product: productID, Quantity: quantity}},
				"$inc":  bson.M{"version": 1},
				"$set":  bson.M{"updatedAt": now},
			})
		if err == nil {
			return cart, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return nil, err
		}

		//商品已在購物車內但$inc未命中，代表合併後會超過上限
		n, err := coll.CountDocuments(ctx, bson.M{"_id": cartID, "items.product": productID})
		if err != nil {
			return nil, err
		}
		if n > 0 {
			return nil, ErrQuantityLimit
		}
		n, err = coll.CountDocuments(ctx, bson.M{"_id": cartID})
		if err != nil {
			return nil, err
		}
		if n == 0 {
			return nil, ErrNotFound
		}
	}
	return nil, ErrConflict
}

func (m *Mongo) DeleteCart(ctx context.Context, id primitive.ObjectID) error {
	return deleteByID(ctx, m.coll(cartsCollection), id)
}

func (m *Mongo) DeleteCartAtVersion(ctx context.Context, id primitive.ObjectID, version int64) error {
	coll := m.coll(cartsCollection)
	res, err := coll.DeleteOne(ctx, bson.M{"_id": id, "version": version})
	if err != nil {
		return translate(err)
	}
	if res.DeletedCount > 0 {
		return nil
	}
	n, err := coll.CountDocuments(ctx, bson.M{"_id": id})
	if err != nil {
		return translate(err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return ErrConflict
}

func (m *Mongo) DeleteCartByUser(ctx context.Context, userID primitive.ObjectID) error {
	res, err := m.coll(cartsCollection).DeleteOne(ctx, bson.M{"user": userID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (m *Mongo) CreateOrder(ctx context.Context, order *models.Order) error {
	now := Now()
	order.ID = primitive.NewObjectID()
	order.CreatedAt, order.UpdatedAt = now, now
	_, err := insert(ctx, m.coll(ordersCollection), order)
	return err
}

func (m *Mongo) GetOrder(ctx context.Context, id primitive.ObjectID) (*models.Order, error) {
	return findByID[models.Order](ctx, m.coll(ordersCollection), id)
}

// ListOrders 附帶下單者姓名與email
func (m *Mongo) ListOrders(ctx context.Context) ([]models.OrderWithCustomer, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$sort", Value: bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}}},
		{{Key: "$lookup", Value: bson.M{
			"from":         usersCollection,
			"localField":   "user",
			"foreignField": "_id",
			"as":           "customer",
		}}},
		{{Key: "$unwind", Value: bson.M{"path": "$customer", "preserveNullAndEmptyArrays": true}}},
		{{Key: "$project", Value: bson.M{
			"customer.password":  0,
			"customer.role":      0,
			"customer.phone":     0,
			"customer.addresses": 0,
			"customer.createdAt": 0,
			"customer.updatedAt": 0,
		}}},
	}
	return aggregate[models.OrderWithCustomer](ctx, m.coll(ordersCollection), pipeline)
}

func (m *Mongo) ListOrdersByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Order, error) {
	return findAll[models.Order](ctx, m.coll(ordersCollection), bson.M{"user": userID},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}))
}

func (m *Mongo) TransitionOrderState(ctx context.Context, id primitive.ObjectID, from, to models.OrderState) (*models.Order, error) {
	order, err := updateByID[models.Order](ctx, m.coll(ordersCollection),
		bson.M{"_id": id, "state": from},
		bson.M{"$set": bson.M{"state": to, "updatedAt": Now()}})
	if !errors.Is(err, ErrNotFound) {
		return order, err
	}
	n, err := m.coll(ordersCollection).CountDocuments(ctx, bson.M{"_id": id})
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, ErrNotFound
	}
	return nil, ErrConflict
}

func (m *Mongo) DeleteOrder(ctx context.Context, id primitive.ObjectID) error {
	return deleteByID(ctx, m.coll(ordersCollection), id)
}

func (m *Mongo) CountOrdersByState(ctx context.Context) ([]models.OrderStateCount, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.M{"_id": "$state", "count": bson.M{"$sum": 1}}}},
		{{Key: "$sort", Value: bson.D{{Key: "_id", Value: 1}}}},
	}
	return aggregate[models.OrderStateCount](ctx, m.coll(ordersCollection), pipeline)
}
