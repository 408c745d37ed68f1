package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/tms-platform/tracking-service/internal/domain"
	mongoutil "github.com/tms-platform/tracking-service/pkg/mongodb"
)

// TrackingPingRepository persists GPS ping samples in MongoDB
type TrackingPingRepository struct {
	collection *mongo.Collection
}

// NewTrackingPingRepository creates a new TrackingPingRepository
func NewTrackingPingRepository(db *mongo.Database) *TrackingPingRepository {
	repo := &TrackingPingRepository{
		collection: db.Collection("tracking_pings"),
	}
	repo.ensureIndexes(context.Background())
	return repo
}

func (r *TrackingPingRepository) ensureIndexes(ctx context.Context) {
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "shipmentCode", Value: 1}, {Key: "recordedAt", Value: -1}}},
		{Keys: bson.D{{Key: "driverId", Value: 1}}},
	}
	r.collection.Indexes().CreateMany(ctx, indexes)
}

// Insert appends a ping sample
func (r *TrackingPingRepository) Insert(ctx context.Context, ping *domain.TrackingPing) error {
	if ping.ID.IsZero() {
		ping.ID = mongoutil.GenerateID()
	}
	if _, err := r.collection.InsertOne(ctx, ping); err != nil {
		return fmt.Errorf("failed to insert tracking ping: %w", err)
	}
	return nil
}

// FindByShipment retrieves recent pings for a shipment, newest first
func (r *TrackingPingRepository) FindByShipment(ctx context.Context, shipmentCode string, limit int64) ([]*domain.TrackingPing, error) {
	opts := options.Find().
		SetSort(mongoutil.SortDescending("recordedAt")).
		SetLimit(limit)

	cursor, err := r.collection.Find(ctx, bson.M{"shipmentCode": shipmentCode}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var pings []*domain.TrackingPing
	err = cursor.All(ctx, &pings)
	return pings, err
}
