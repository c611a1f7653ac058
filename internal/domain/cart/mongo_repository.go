// internal/domain/cart/mongo_repository.go
package cart

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/your-org/storefront-backend/internal/pkg/errs"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const collectionName = "carts"

// MongoRepository stores cart documents in MongoDB
type MongoRepository struct {
	collection *mongo.Collection
	now        func() time.Time
}

// NewMongoRepository creates a repository over the carts collection of db
func NewMongoRepository(db *mongo.Database) *MongoRepository {
	return &MongoRepository{
		collection: db.Collection(collectionName),
		now:        time.Now,
	}
}

func (m *MongoRepository) Load(ctx context.Context, userID uint) (*Document, error) {
	var doc Document
	err := m.collection.FindOne(ctx, bson.M{"user_id": userID}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, errs.NotFound("cart")
		}
		return nil, errs.Persistence("load cart", err)
	}
	return &doc, nil
}

func (m *MongoRepository) Save(ctx context.Context, doc *Document) error {
	now := m.now().UTC()
	expected := doc.Version
	entries := doc.Entries
	if entries == nil {
		entries = []Entry{}
	}

	filter := bson.M{"user_id": doc.UserID, "version": expected}
	update := bson.M{
		"$set": bson.M{
			"entries":    entries,
			"version":    expected + 1,
			"updated_at": now,
		},
		"$setOnInsert": bson.M{
			"created_at": now,
			"wishlist":   []uint{},
		},
	}
	opts := options.Update().SetUpsert(expected == 0)

	result, err := m.collection.UpdateOne(ctx, filter, update, opts)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return errs.Wrap(errs.ErrPersistence, "save cart", errs.ErrConflict)
		}
		return errs.Persistence("save cart", err)
	}
	if result.MatchedCount == 0 && result.UpsertedCount == 0 {
		return errs.Wrap(errs.ErrPersistence, "save cart", errs.ErrConflict)
	}

	doc.Version = expected + 1
	doc.UpdatedAt = now
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = now
	}
	return nil
}

func (m *MongoRepository) AddToWishlist(ctx context.Context, userID uint, productID uint) error {
	now := m.now().UTC()
	update := bson.M{
		"$addToSet": bson.M{"wishlist": productID},
		"$set":      bson.M{"updated_at": now},
		"$inc":      bson.M{"version": int64(1)},
		"$setOnInsert": bson.M{
			"created_at": now,
			"entries":    []Entry{},
		},
	}
	_, err := m.collection.UpdateOne(ctx, bson.M{"user_id": userID}, update, options.Update().SetUpsert(true))
	if err != nil {
		return errs.Persistence("add to wishlist", err)
	}
	return nil
}

func (m *MongoRepository) RemoveFromWishlist(ctx context.Context, userID uint, productID uint) error {
	update := bson.M{
		"$pull": bson.M{"wishlist": productID},
		"$set":  bson.M{"updated_at": m.now().UTC()},
		"$inc":  bson.M{"version": int64(1)},
	}
	if _, err := m.collection.UpdateOne(ctx, bson.M{"user_id": userID}, update); err != nil {
		return errs.Persistence("remove from wishlist", err)
	}
	return nil
}

// CreateIndexes ensures one document per identity
func (m *MongoRepository) CreateIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}

	if _, err := m.collection.Indexes().CreateMany(ctx, indexes); err != nil {
		return fmt.Errorf("failed to create cart indexes: %w", err)
	}
	return nil
}
