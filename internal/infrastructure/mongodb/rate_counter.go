package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// RateCounter is a shared counter backed by MongoDB. Counts are bucketed per
// window start, so every process instance increments the same document; a TTL
// index reaps expired buckets.
type RateCounter struct {
	collection *mongo.Collection
}

// NewRateCounter creates a new RateCounter
func NewRateCounter(db *mongo.Database) *RateCounter {
	counter := &RateCounter{
		collection: db.Collection("rate_counters"),
	}
	counter.ensureIndexes(context.Background())
	return counter
}

func (c *RateCounter) ensureIndexes(ctx context.Context) {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "expiresAt", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(0),
		},
	}
	c.collection.Indexes().CreateMany(ctx, indexes)
}

// Increment atomically bumps the counter for key within the current window
// and returns the new count
func (c *RateCounter) Increment(ctx context.Context, key string, window time.Duration) (int64, error) {
	windowStart := time.Now().UTC().Truncate(window)
	bucketID := fmt.Sprintf("%s:%d", key, windowStart.Unix())

	filter := bson.M{"_id": bucketID}
	update := bson.M{
		"$inc": bson.M{"count": 1},
		"$setOnInsert": bson.M{
			"key":       key,
			"expiresAt": windowStart.Add(2 * window),
		},
	}
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var bucket struct {
		Count int64 `bson:"count"`
	}
	if err := c.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&bucket); err != nil {
		return 0, fmt.Errorf("failed to increment rate counter: %w", err)
	}
	return bucket.Count, nil
}
