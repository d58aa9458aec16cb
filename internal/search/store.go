package search

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	productCollection = "product_search"
	userCollection    = "user_search"
)

// ProductQuery filters a product text search.
type ProductQuery struct {
	Text       string
	CategoryID *uint
	OnSale     *bool
	InStock    bool
	Limit      int64
	Offset     int64
}

// UserQuery filters a user text search.
type UserQuery struct {
	Text   string
	Role   string
	Active *bool
	Limit  int64
	Offset int64
}

// Store is the write/read surface over the document store. All writes flow
// through the sync engine; request handlers only ever read.
type Store interface {
	EnsureIndexes(ctx context.Context) error

	UpsertProduct(ctx context.Context, doc ProductDocument) error
	DeleteProduct(ctx context.Context, productID uint) error
	ReplaceAllProducts(ctx context.Context, docs []ProductDocument) error

	UpsertUser(ctx context.Context, doc UserDocument) error
	DeleteUser(ctx context.Context, userID uint) error
	ReplaceAllUsers(ctx context.Context, docs []UserDocument) error

	PropagateCategory(ctx context.Context, cat CategoryDoc) error

	SearchProducts(ctx context.Context, q ProductQuery) ([]ProductDocument, error)
	SearchUsers(ctx context.Context, q UserQuery) ([]UserDocument, error)
	Counts(ctx context.Context) (products int64, users int64, err error)
}

type mongoStore struct {
	products *mongo.Collection
	users    *mongo.Collection
}

// NewStore creates a document store backed by the given Mongo database.
func NewStore(db *mongo.Database) Store {
	return &mongoStore{
		products: db.Collection(productCollection),
		users:    db.Collection(userCollection),
	}
}

// EnsureIndexes creates the unique keys, the weighted text indexes and the
// compound filter indexes. Relative weights drive ranking: product name
// dominates, then category name, then derived search terms, then the
// description body.
func (s *mongoStore) EnsureIndexes(ctx context.Context) error {
	productIndexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "productId", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{
				{Key: "name", Value: "text"},
				{Key: "description", Value: "text"},
				{Key: "category.name", Value: "text"},
				{Key: "searchTerms", Value: "text"},
			},
			Options: options.Index().
				SetName("product_text_search").
				SetWeights(bson.D{
					{Key: "name", Value: 10},
					{Key: "category.name", Value: 5},
					{Key: "searchTerms", Value: 3},
					{Key: "description", Value: 1},
				}),
		},
		{Keys: bson.D{{Key: "isActive", Value: 1}, {Key: "isOnSale", Value: 1}, {Key: "price", Value: 1}}},
		{Keys: bson.D{{Key: "category.id", Value: 1}, {Key: "isActive", Value: 1}}},
		{Keys: bson.D{{Key: "stockQuantity", Value: 1}, {Key: "isActive", Value: 1}}},
	}
	if _, err := s.products.Indexes().CreateMany(ctx, productIndexes); err != nil {
		return fmt.Errorf("create product indexes: %w", err)
	}

	userIndexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "userId", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{
				{Key: "firstName", Value: "text"},
				{Key: "lastName", Value: "text"},
				{Key: "email", Value: "text"},
				{Key: "searchTerms", Value: "text"},
			},
			Options: options.Index().
				SetName("user_text_search").
				SetWeights(bson.D{
					{Key: "firstName", Value: 10},
					{Key: "lastName", Value: 10},
					{Key: "email", Value: 8},
					{Key: "searchTerms", Value: 5},
				}),
		},
		{Keys: bson.D{{Key: "role", Value: 1}, {Key: "isActive", Value: 1}}},
		{Keys: bson.D{{Key: "createdAt", Value: -1}, {Key: "isActive", Value: 1}}},
	}
	if _, err := s.users.Indexes().CreateMany(ctx, userIndexes); err != nil {
		return fmt.Errorf("create user indexes: %w", err)
	}

	return nil
}

// UpsertProduct replaces the mirror document keyed by productId.
func (s *mongoStore) UpsertProduct(ctx context.Context, doc ProductDocument) error {
	_, err := s.products.ReplaceOne(ctx,
		bson.M{"productId": doc.ProductID},
		doc,
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("upsert product %d: %w", doc.ProductID, err)
	}
	return nil
}

// DeleteProduct removes the mirror document for a deleted product.
func (s *mongoStore) DeleteProduct(ctx context.Context, productID uint) error {
	if _, err := s.products.DeleteOne(ctx, bson.M{"productId": productID}); err != nil {
		return fmt.Errorf("delete product %d: %w", productID, err)
	}
	return nil
}

// ReplaceAllProducts drops the whole collection content and bulk-inserts the
// fresh snapshot. Used by the full resync only.
func (s *mongoStore) ReplaceAllProducts(ctx context.Context, docs []ProductDocument) error {
	if _, err := s.products.DeleteMany(ctx, bson.M{}); err != nil {
		return fmt.Errorf("clear products: %w", err)
	}
	if len(docs) == 0 {
		return nil
	}
	payload := make([]interface{}, len(docs))
	for i, d := range docs {
		payload[i] = d
	}
	if _, err := s.products.InsertMany(ctx, payload); err != nil {
		return fmt.Errorf("insert products: %w", err)
	}
	return nil
}

// UpsertUser replaces the mirror document keyed by userId.
func (s *mongoStore) UpsertUser(ctx context.Context, doc UserDocument) error {
	_, err := s.users.ReplaceOne(ctx,
		bson.M{"userId": doc.UserID},
		doc,
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("upsert user %d: %w", doc.UserID, err)
	}
	return nil
}

// DeleteUser removes the mirror document for a deleted user.
func (s *mongoStore) DeleteUser(ctx context.Context, userID uint) error {
	if _, err := s.users.DeleteOne(ctx, bson.M{"userId": userID}); err != nil {
		return fmt.Errorf("delete user %d: %w", userID, err)
	}
	return nil
}

// ReplaceAllUsers drops the whole collection content and bulk-inserts the
// fresh snapshot. Used by the full resync only.
func (s *mongoStore) ReplaceAllUsers(ctx context.Context, docs []UserDocument) error {
	if _, err := s.users.DeleteMany(ctx, bson.M{}); err != nil {
		return fmt.Errorf("clear users: %w", err)
	}
	if len(docs) == 0 {
		return nil
	}
	payload := make([]interface{}, len(docs))
	for i, d := range docs {
		payload[i] = d
	}
	if _, err := s.users.InsertMany(ctx, payload); err != nil {
		return fmt.Errorf("insert users: %w", err)
	}
	return nil
}

// PropagateCategory pushes a category rename onto every product document
// that embeds it.
func (s *mongoStore) PropagateCategory(ctx context.Context, cat CategoryDoc) error {
	_, err := s.products.UpdateMany(ctx,
		bson.M{"category.id": cat.ID},
		bson.M{"$set": bson.M{
			"category.name": cat.Name,
			"category.slug": cat.Slug,
		}},
	)
	if err != nil {
		return fmt.Errorf("propagate category %d: %w", cat.ID, err)
	}
	return nil
}

// SearchProducts runs a weighted text search with optional filters, sorted
// by text score when a query string is present.
func (s *mongoStore) SearchProducts(ctx context.Context, q ProductQuery) ([]ProductDocument, error) {
	filter := bson.M{"isActive": true}
	if q.Text != "" {
		filter["$text"] = bson.M{"$search": q.Text}
	}
	if q.CategoryID != nil {
		filter["category.id"] = *q.CategoryID
	}
	if q.OnSale != nil {
		filter["isOnSale"] = *q.OnSale
	}
	if q.InStock {
		filter["stockQuantity"] = bson.M{"$gt": 0}
	}

	opts := options.Find()
	if q.Limit > 0 {
		opts.SetLimit(q.Limit)
	}
	if q.Offset > 0 {
		opts.SetSkip(q.Offset)
	}
	if q.Text != "" {
		opts.SetProjection(bson.M{"score": bson.M{"$meta": "textScore"}})
		opts.SetSort(bson.M{"score": bson.M{"$meta": "textScore"}})
	} else {
		opts.SetSort(bson.M{"createdAt": -1})
	}

	cur, err := s.products.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("search products: %w", err)
	}
	defer cur.Close(ctx)

	var docs []ProductDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode products: %w", err)
	}
	return docs, nil
}

// SearchUsers runs a weighted text search over the user mirror.
func (s *mongoStore) SearchUsers(ctx context.Context, q UserQuery) ([]UserDocument, error) {
	filter := bson.M{}
	if q.Text != "" {
		filter["$text"] = bson.M{"$search": q.Text}
	}
	if q.Role != "" {
		filter["role"] = q.Role
	}
	if q.Active != nil {
		filter["isActive"] = *q.Active
	}

	opts := options.Find()
	if q.Limit > 0 {
		opts.SetLimit(q.Limit)
	}
	if q.Offset > 0 {
		opts.SetSkip(q.Offset)
	}
	if q.Text != "" {
		opts.SetProjection(bson.M{"score": bson.M{"$meta": "textScore"}})
		opts.SetSort(bson.M{"score": bson.M{"$meta": "textScore"}})
	} else {
		opts.SetSort(bson.M{"createdAt": -1})
	}

	cur, err := s.users.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("search users: %w", err)
	}
	defer cur.Close(ctx)

	var docs []UserDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode users: %w", err)
	}
	return docs, nil
}

// Counts returns the document counts used by the sync stats endpoint.
func (s *mongoStore) Counts(ctx context.Context) (int64, int64, error) {
	products, err := s.products.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, 0, fmt.Errorf("count products: %w", err)
	}
	users, err := s.users.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, 0, fmt.Errorf("count users: %w", err)
	}
	return products, users, nil
}
