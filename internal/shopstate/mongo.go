package shopstate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"storefront/internal/models"
)

const (
	CartsCollection     = "carts"
	WishlistsCollection = "wishlists"
)

var _ Store = (*MongoStore)(nil)

type cartDocument struct {
	SessionID string            `bson:"_id"`
	Items     []models.CartItem `bson:"items"`
	UpdatedAt time.Time         `bson:"updatedAt"`
}

type wishlistDocument struct {
	SessionID string                `bson:"_id"`
	Items     []models.WishlistItem `bson:"items"`
	UpdatedAt time.Time             `bson:"updatedAt"`
}

// MongoStore keeps one cart document and one wishlist document per session.
type MongoStore struct {
	carts     *mongo.Collection
	wishlists *mongo.Collection
	now       func() time.Time
}

func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{
		carts:     db.Collection(CartsCollection),
		wishlists: db.Collection(WishlistsCollection),
		now:       time.Now,
	}
}

func (s *MongoStore) AddToCart(ctx context.Context, sessionID string, p models.Product) error {
	const op = "MongoStore.AddToCart"

	// a concurrent first add of the same product loses the upsert race with a
	// duplicate key error; the second round then finds the item and bumps it
	for range 2 {
		now := s.now()

		res, err := s.carts.UpdateOne(ctx,
			bson.M{"_id": sessionID, "items.product._id": p.ID},
			bson.M{
				"$inc": bson.M{"items.$.quantity": 1},
				"$set": bson.M{"items.$.product": p, "updatedAt": now},
			},
		)
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		if res.MatchedCount > 0 {
			return nil
		}

		item := models.CartItem{Product: p, Quantity: 1, AddedAt: now}
		_, err = s.carts.UpdateOne(ctx,
			bson.M{"_id": sessionID, "items.product._id": bson.M{"$ne": p.ID}},
			bson.M{
				"$push": bson.M{"items": item},
				"$set":  bson.M{"updatedAt": now},
			},
			options.Update().SetUpsert(true),
		)
		if err == nil {
			return nil
		}
		if !mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("%s: %w", op, err)
		}
	}
	return fmt.Errorf("%s: concurrent update of session %s", op, sessionID)
}

func (s *MongoStore) RemoveFromCart(ctx context.Context, sessionID, productID string) error {
	const op = "MongoStore.RemoveFromCart"

	_, err := s.carts.UpdateOne(ctx,
		bson.M{"_id": sessionID},
		bson.M{
			"$pull": bson.M{"items": bson.M{"product._id": productID}},
			"$set":  bson.M{"updatedAt": s.now()},
		},
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (s *MongoStore) Cart(ctx context.Context, sessionID string) ([]models.CartItem, error) {
	const op = "MongoStore.Cart"

	var doc cartDocument
	err := s.carts.FindOne(ctx, bson.M{"_id": sessionID}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return []models.CartItem{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if doc.Items == nil {
		return []models.CartItem{}, nil
	}
	return doc.Items, nil
}

func (s *MongoStore) AddToWishlist(ctx context.Context, sessionID string, p models.Product) error {
	const op = "MongoStore.AddToWishlist"

	now := s.now()
	item := models.WishlistItem{Product: p, AddedAt: now}
	_, err := s.wishlists.UpdateOne(ctx,
		bson.M{"_id": sessionID, "items.product._id": bson.M{"$ne": p.ID}},
		bson.M{
			"$push": bson.M{"items": item},
			"$set":  bson.M{"updatedAt": now},
		},
		options.Update().SetUpsert(true),
	)
	// the session document exists and already holds the product
	if mongo.IsDuplicateKeyError(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (s *MongoStore) RemoveFromWishlist(ctx context.Context, sessionID, productID string) error {
	const op = "MongoStore.RemoveFromWishlist"

	_, err := s.wishlists.UpdateOne(ctx,
		bson.M{"_id": sessionID},
		bson.M{
			"$pull": bson.M{"items": bson.M{"product._id": productID}},
			"$set":  bson.M{"updatedAt": s.now()},
		},
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (s *MongoStore) Wishlist(ctx context.Context, sessionID string) ([]models.WishlistItem, error) {
	const op = "MongoStore.Wishlist"

	var doc wishlistDocument
	err := s.wishlists.FindOne(ctx, bson.M{"_id": sessionID}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return []models.WishlistItem{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if doc.Items == nil {
		return []models.WishlistItem{}, nil
	}
	return doc.Items, nil
}
