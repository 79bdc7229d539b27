package database

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// EnsureSessionIndexes expires session documents in each collection ttl after
// their last update, so baskets go away together with the session cookie.
func EnsureSessionIndexes(db *mongo.Database, ttl time.Duration, log *zap.Logger, collections ...string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	for _, name := range collections {
		index := mongo.IndexModel{
			Keys: bson.D{{Key: "updatedAt", Value: 1}},
			Options: options.Index().
				SetName("updatedAt_ttl").
				SetExpireAfterSeconds(int32(ttl.Seconds())),
		}

		log.Info("creating updatedAt_ttl index", zap.String("collection", name))
		if _, err := db.Collection(name).Indexes().CreateOne(ctx, index); err != nil {
			log.Error("updatedAt_ttl index error", zap.String("collection", name), zap.Error(err))
			return err
		}
	}
	return nil
}
