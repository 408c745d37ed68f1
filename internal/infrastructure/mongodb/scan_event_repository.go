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

// ScanEventRepository persists the append-only scan event log in MongoDB.
// Idempotency is enforced by a unique partial index on
// (formCode, type, payload.idempotency_key): the check-then-insert pattern is
// collapsed into a single atomic insert that surfaces a conflict.
type ScanEventRepository struct {
	collection *mongo.Collection
}

// NewScanEventRepository creates a new ScanEventRepository
func NewScanEventRepository(db *mongo.Database) *ScanEventRepository {
	repo := &ScanEventRepository{
		collection: db.Collection("scan_events"),
	}
	repo.ensureIndexes(context.Background())
	return repo
}

func (r *ScanEventRepository) ensureIndexes(ctx context.Context) {
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "formCode", Value: 1}, {Key: "createdAt", Value: 1}}},
		{Keys: bson.D{{Key: "shipmentRef", Value: 1}, {Key: "createdAt", Value: 1}}},
		{Keys: bson.D{{Key: "warehouseRef", Value: 1}}},
		{
			Keys: bson.D{
				{Key: "formCode", Value: 1},
				{Key: "type", Value: 1},
				{Key: "payload.idempotency_key", Value: 1},
			},
			Options: options.Index().
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"payload.idempotency_key": bson.M{"$exists": true}}),
		},
	}
	r.collection.Indexes().CreateMany(ctx, indexes)
}

// Insert appends a new immutable event
func (r *ScanEventRepository) Insert(ctx context.Context, event *domain.ScanEvent) error {
	if event.ID.IsZero() {
		event.ID = mongoutil.GenerateID()
	}

	if _, err := r.collection.InsertOne(ctx, event); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrDuplicateEvent
		}
		return fmt.Errorf("failed to insert scan event: %w", err)
	}
	return nil
}

// HasIdempotencyKey reports whether an event with the same
// (formCode, eventType, key) has already been ingested
func (r *ScanEventRepository) HasIdempotencyKey(ctx context.Context, formCode string, eventType domain.EventType, key string) (bool, error) {
	filter := bson.M{
		"formCode":                formCode,
		"type":                    eventType,
		"payload.idempotency_key": key,
	}
	count, err := r.collection.CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// FindByTrackingKey retrieves events whose shipment reference or form code
// matches the key, ordered by creation time ascending with insertion order
// breaking ties
func (r *ScanEventRepository) FindByTrackingKey(ctx context.Context, key string) ([]*domain.ScanEvent, error) {
	filter := bson.M{"$or": []bson.M{
		{"shipmentRef": key},
		{"formCode": key},
	}}
	opts := options.Find().SetSort(mongoutil.SortMultiple(
		mongoutil.SortField{Field: "createdAt"},
		mongoutil.SortField{Field: "_id"},
	))

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var events []*domain.ScanEvent
	err = cursor.All(ctx, &events)
	return events, err
}

// FindByShipment retrieves events for a shipment, ordered ascending
func (r *ScanEventRepository) FindByShipment(ctx context.Context, shipmentRef string) ([]*domain.ScanEvent, error) {
	opts := options.Find().SetSort(mongoutil.SortMultiple(
		mongoutil.SortField{Field: "createdAt"},
		mongoutil.SortField{Field: "_id"},
	))
	cursor, err := r.collection.Find(ctx, bson.M{"shipmentRef": shipmentRef}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var events []*domain.ScanEvent
	err = cursor.All(ctx, &events)
	return events, err
}

// CountByWarehouses returns the event count per warehouse code, limited to
// events recorded against the given shipment references. Scoping by shipment
// keeps scans from unrelated routes passing through the same warehouse out of
// the counts.
func (r *ScanEventRepository) CountByWarehouses(ctx context.Context, warehouseCodes, shipmentRefs []string) (map[string]int64, error) {
	counts := make(map[string]int64, len(warehouseCodes))
	if len(warehouseCodes) == 0 || len(shipmentRefs) == 0 {
		return counts, nil
	}

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{
			"warehouseRef": bson.M{"$in": warehouseCodes},
			"shipmentRef":  bson.M{"$in": shipmentRefs},
		}}},
		{{Key: "$group", Value: bson.M{"_id": "$warehouseRef", "count": bson.M{"$sum": 1}}}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var results []struct {
		WarehouseCode string `bson:"_id"`
		Count         int64  `bson:"count"`
	}
	if err := cursor.All(ctx, &results); err != nil {
		return nil, err
	}

	for _, result := range results {
		counts[result.WarehouseCode] = result.Count
	}
	return counts, nil
}
