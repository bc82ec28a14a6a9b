package store

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"storefront/models"
)

var byCreated = bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}}

func (m *Mongo) CreateProduct(ctx context.Context, product *models.Product) error {
	now := Now()
	product.ID = primitive.NewObjectID()
	product.CreatedAt, product.UpdatedAt = now, now
	// $addToSet無法作用在null欄位
	if product.Reviews == nil {
		product.Reviews = []primitive.ObjectID{}
	}
	_, err := insert(ctx, m.coll(productsCollection), product)
	return err
}

func (m *Mongo) GetProduct(ctx context.Context, id primitive.ObjectID) (*models.Product, error) {
	return findByID[models.Product](ctx, m.coll(productsCollection), id)
}

func (m *Mongo) GetProductsByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Product, error) {
	if len(ids) == 0 {
		return []models.Product{}, nil
	}
	return findAll[models.Product](ctx, m.coll(productsCollection), bson.M{"_id": bson.M{"$in": ids}})
}

func (m *Mongo) ListProducts(ctx context.Context, opts ListOptions) ([]models.Product, int64, error) {
	coll := m.coll(productsCollection)
	total, err := coll.CountDocuments(ctx, bson.M{})
	if err != nil {
		return nil, 0, err
	}
	find := options.Find().SetSort(byCreated).SetSkip(int64(opts.Offset))
	if opts.Limit > 0 {
		find.SetLimit(int64(opts.Limit))
	}
	products, err := findAll[models.Product](ctx, coll, bson.M{}, find)
	if err != nil {
		return nil, 0, err
	}
	return products, total, nil
}

func (m *Mongo) FilterProducts(ctx context.Context, filter ProductFilter) ([]models.Product, error) {
	query := bson.M{"price": bson.M{"$gte": filter.MinPrice, "$lte": filter.MaxPrice}}
	if filter.Brand != "" {
		query["brand"] = filter.Brand
	}
	return findAll[models.Product](ctx, m.coll(productsCollection), query, options.Find().SetSort(bson.D{{Key: "price", Value: 1}}))
}

func (m *Mongo) ListProductsByCategory(ctx context.Context, categoryID primitive.ObjectID) ([]models.Product, error) {
	return findAll[models.Product](ctx, m.coll(productsCollection), bson.M{"category": categoryID}, options.Find().SetSort(byCreated))
}

func (m *Mongo) UpdateProduct(ctx context.Context, id primitive.ObjectID, patch ProductPatch) (*models.Product, error) {
	set := bson.M{"updatedAt": Now()}
	if patch.Name != nil {
		set["name"] = *patch.Name
	}
	if patch.Price != nil {
		set["price"] = *patch.Price
	}
	if patch.Description != nil {
		set["description"] = *patch.Description
	}
	if patch.Brand != nil {
		set["brand"] = *patch.Brand
	}
	if patch.Stock != nil {
		set["stock"] = *patch.Stock
	}
	if patch.Category != nil {
		set["category"] = *patch.Category
	}
	if patch.ImageURL != nil {
		set["imageURL"] = *patch.ImageURL
	}
	return updateByID[models.Product](ctx, m.coll(productsCollection), bson.M{"_id": id}, bson.M{"$set": set})
}

func (m *Mongo) SetStock(ctx context.Context, id primitive.ObjectID, stock int) (*models.Product, error) {
	return updateByID[models.Product](ctx, m.coll(productsCollection), bson.M{"_id": id},
		bson.M{"$set": bson.M{"stock": stock, "updatedAt": Now()}})
}

func (m *Mongo) AddProductReview(ctx context.Context, productID, reviewID primitive.ObjectID) error {
	res, err := m.coll(productsCollection).UpdateOne(ctx, bson.M{"_id": productID},
		bson.M{"$addToSet": bson.M{"reviews": reviewID}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (m *Mongo) RemoveProductReview(ctx context.Context, productID, reviewID primitive.ObjectID) error {
	res, err := m.coll(productsCollection).UpdateOne(ctx, bson.M{"_id": productID},
		bson.M{"$pull": bson.M{"reviews": reviewID}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (m *Mongo) ClearCategory(ctx context.Context, categoryID primitive.ObjectID) (int64, error) {
	res, err := m.coll(productsCollection).UpdateMany(ctx, bson.M{"category": categoryID},
		bson.M{"$unset": bson.M{"category": ""}, "$set": bson.M{"updatedAt": Now()}})
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

func (m *Mongo) DeleteProduct(ctx context.Context, id primitive.ObjectID) error {
	return deleteByID(ctx, m.coll(productsCollection), id)
}

func (m *Mongo) CreateCategory(ctx context.Context, category *models.Category) error {
	now := Now()
	category.ID = primitive.NewObjectID()
	category.CreatedAt, category.UpdatedAt = now, now
	_, err := insert(ctx, m.coll(categoriesCollection), category)
	return err
}

func (m *Mongo) GetCategory(ctx context.Context, id primitive.ObjectID) (*models.Category, error) {
	return findByID[models.Category](ctx, m.coll(categoriesCollection), id)
}

func (m *Mongo) ListCategories(ctx context.Context) ([]models.Category, error) {
	return findAll[models.Category](ctx, m.coll(categoriesCollection), bson.M{}, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
}

func (m *Mongo) UpdateCategory(ctx context.Context, id primitive.ObjectID, patch CategoryPatch) (*models.Category, error) {
	set := bson.M{"updatedAt": Now()}
	if patch.Name != nil {
		set["name"] = *patch.Name
	}
	if patch.Description != nil {
		set["description"] = *patch.Description
	}
	return updateByID[models.Category](ctx, m.coll(categoriesCollection), bson.M{"_id": id}, bson.M{"$set": set})
}

func (m *Mongo) DeleteCategory(ctx context.Context, id primitive.ObjectID) error {
	return deleteByID(ctx, m.coll(categoriesCollection), id)
}

// CategoryStats 以商品上的category欄位分組計數，沒有商品的分類不列出
func (m *Mongo) CategoryStats(ctx context.Context) ([]models.CategoryStat, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"category": bson.M{"$exists": true, "$ne": nil}}}},
		{{Key: "$group", Value: bson.M{"_id": "$category", "productCount": bson.M{"$sum": 1}}}},
		{{Key: "$lookup", Value: bson.M{
			"from":         categoriesCollection,
			"localField":   "_id",
			"foreignField": "_id",
			"as":           "category",
		}}},
		{{Key: "$unwind", Value: "$category"}},
		{{Key: "$project", Value: bson.M{"name": "$category.name", "productCount": 1}}},
		{{Key: "$sort", Value: bson.D{{Key: "productCount", Value: -1}, {Key: "name", Value: 1}}}},
	}
	return aggregate[models.CategoryStat](ctx, m.coll(productsCollection), pipeline)
}

func (m *Mongo) CreateReview(ctx context.Context, review *models.Review) error {
	now := Now()
	review.ID = primitive.NewObjectID()
	review.CreatedAt, review.UpdatedAt = now, now
	_, err := insert(ctx, m.coll(reviewsCollection), review)
	return err
}

func (m *Mongo) GetReview(ctx context.Context, id primitive.ObjectID) (*models.Review, error) {
	return findByID[models.Review](ctx, m.coll(reviewsCollection), id)
}

func (m *Mongo) ListReviews(ctx context.Context, filter ReviewFilter) ([]models.Review, error) {
	query := bson.M{}
	if filter.Product != nil {
		query["product"] = *filter.Product
	}
	return findAll[models.Review](ctx, m.coll(reviewsCollection), query, options.Find().SetSort(byCreated))
}

func (m *Mongo) UpdateReview(ctx context.Context, id primitive.ObjectID, patch ReviewPatch) (*models.Review, error) {
	set := bson.M{"updatedAt": Now()}
	if patch.Rating != nil {
		set["rating"] = *patch.Rating
	}
	if patch.Comment != nil {
		set["comment"] = *patch.Comment
	}
	return updateByID[models.Review](ctx, m.coll(reviewsCollection), bson.M{"_id": id}, bson.M{"$set": set})
}

func (m *Mongo) DeleteReview(ctx context.Context, id primitive.ObjectID) error {
	return deleteByID(ctx, m.coll(reviewsCollection), id)
}

func (m *Mongo) DeleteReviewsByProduct(ctx context.Context, productID primitive.ObjectID) (int64, error) {
	res, err := m.coll(reviewsCollection).DeleteMany(ctx, bson.M{"product": productID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// TopReviewedProducts 依評論數排序，已刪除的商品不列出
func (m *Mongo) TopReviewedProducts(ctx context.Context, limit int) ([]models.TopProduct, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.M{"_id": "$product", "reviewCount": bson.M{"$sum": 1}}}},
		{{Key: "$sort", Value: bson.D{{Key: "reviewCount", Value: -1}, {Key: "_id", Value: 1}}}},
		{{Key: "$lookup", Value: bson.M{
			"from":         productsCollection,
			"localField":   "_id",
			"foreignField": "_id",
			"as":           "product",
		}}},
		{{Key: "$unwind", Value: "$product"}},
		{{Key: "$limit", Value: limit}},
		{{Key: "$lookup", Value: bson.M{
			"from":         reviewsCollection,
			"localField":   "_id",
			"foreignField": "product",
			"as":           "reviews",
		}}},
		{{Key: "$project", Value: bson.M{"product": 1, "reviewCount": 1, "reviews": 1}}},
	}
	return aggregate[models.TopProduct](ctx, m.coll(reviewsCollection), pipeline)
}
