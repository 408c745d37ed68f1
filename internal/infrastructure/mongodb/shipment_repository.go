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

// ShipmentRepository persists shipment aggregates in MongoDB
type ShipmentRepository struct {
	collection *mongo.Collection
}

// NewShipmentRepository creates a new ShipmentRepository
func NewShipmentRepository(db *mongo.Database) *ShipmentRepository {
	repo := &ShipmentRepository{
		collection: db.Collection("shipments"),
	}
	repo.ensureIndexes(context.Background())
	return repo
}

func (r *ShipmentRepository) ensureIndexes(ctx context.Context) {
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "shipmentCode", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "routeCode", Value: 1}}},
		{Keys: bson.D{{Key: "orgId", Value: 1}, {Key: "status", Value: 1}}},
		{Keys: bson.D{{Key: "createdAt", Value: -1}}},
	}
	r.collection.Indexes().CreateMany(ctx, indexes)
}

// Save persists a shipment (upsert by natural code)
func (r *ShipmentRepository) Save(ctx context.Context, shipment *domain.Shipment) error {
	shipment.UpdatedAt = mongoutil.Now()

	opts := options.Update().SetUpsert(true)
	filter := bson.M{"shipmentCode": shipment.ShipmentCode}
	update := bson.M{"$set": shipment}

	if _, err := r.collection.UpdateOne(ctx, filter, update, opts); err != nil {
		return fmt.Errorf("failed to save shipment: %w", err)
	}
	return nil
}

// FindByCode retrieves a shipment by its natural code
func (r *ShipmentRepository) FindByCode(ctx context.Context, shipmentCode string) (*domain.Shipment, error) {
	var shipment domain.Shipment
	err := r.collection.FindOne(ctx, bson.M{"shipmentCode": shipmentCode}).Decode(&shipment)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &shipment, nil
}

// FindByID retrieves a shipment by its internal identifier
func (r *ShipmentRepository) FindByID(ctx context.Context, id string) (*domain.Shipment, error) {
	objectID, err := mongoutil.ParseID(id)
	if err != nil {
		return nil, nil
	}

	var shipment domain.Shipment
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&shipment)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &shipment, nil
}

// FindByRouteCode retrieves all shipments assigned to a route
func (r *ShipmentRepository) FindByRouteCode(ctx context.Context, routeCode string) ([]*domain.Shipment, error) {
	opts := options.Find().SetSort(mongoutil.SortAscending("createdAt"))
	cursor, err := r.collection.Find(ctx, bson.M{"routeCode": routeCode}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var shipments []*domain.Shipment
	err = cursor.All(ctx, &shipments)
	return shipments, err
}

// FindAll retrieves shipments matching the filter
func (r *ShipmentRepository) FindAll(ctx context.Context, filter domain.ShipmentFilter, pagination domain.Pagination) ([]*domain.Shipment, error) {
	opts := options.Find().
		SetSort(mongoutil.SortDescending("createdAt")).
		SetSkip(pagination.Skip()).
		SetLimit(pagination.Limit())

	cursor, err := r.collection.Find(ctx, buildShipmentFilter(filter), opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var shipments []*domain.Shipment
	err = cursor.All(ctx, &shipments)
	return shipments, err
}

// Count returns the total number of shipments matching the filter
func (r *ShipmentRepository) Count(ctx context.Context, filter domain.ShipmentFilter) (int64, error) {
	return r.collection.CountDocuments(ctx, buildShipmentFilter(filter))
}

// AdvanceLeg conditionally moves the leg index from fromIndex to toIndex. The
// filter pins the stored index so two racing arrivals converge: the loser
// matches nothing and reports false instead of double-stepping.
func (r *ShipmentRepository) AdvanceLeg(ctx context.Context, shipmentCode string, fromIndex, toIndex int) (bool, error) {
	filter := bson.M{
		"shipmentCode":    shipmentCode,
		"currentLegIndex": fromIndex,
	}
	update := bson.M{"$set": bson.M{
		"currentLegIndex": toIndex,
		"updatedAt":       mongoutil.Now(),
	}}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, fmt.Errorf("failed to advance route leg: %w", err)
	}
	return result.ModifiedCount > 0, nil
}

// SetLegIndex unconditionally rewrites the leg index
func (r *ShipmentRepository) SetLegIndex(ctx context.Context, shipmentCode string, index int) error {
	update := bson.M{"$set": bson.M{
		"currentLegIndex": index,
		"updatedAt":       mongoutil.Now(),
	}}
	_, err := r.collection.UpdateOne(ctx, bson.M{"shipmentCode": shipmentCode}, update)
	return err
}

// UpdateStatus updates the shipment lifecycle status
func (r *ShipmentRepository) UpdateStatus(ctx context.Context, shipmentCode string, status domain.ShipmentStatus) error {
	update := bson.M{"$set": bson.M{
		"status":    status,
		"updatedAt": mongoutil.Now(),
	}}
	_, err := r.collection.UpdateOne(ctx, bson.M{"shipmentCode": shipmentCode}, update)
	return err
}

// UpdateLines persists the shipment's line item counters
func (r *ShipmentRepository) UpdateLines(ctx context.Context, shipmentCode string, lines []domain.StockLine) error {
	update := bson.M{"$set": bson.M{
		"lines":     lines,
		"updatedAt": mongoutil.Now(),
	}}
	_, err := r.collection.UpdateOne(ctx, bson.M{"shipmentCode": shipmentCode}, update)
	return err
}

func buildShipmentFilter(filter domain.ShipmentFilter) bson.M {
	query := bson.M{}
	if filter.OrgID != nil {
		query["orgId"] = *filter.OrgID
	}
	if filter.Status != nil {
		query["status"] = *filter.Status
	}
	if filter.RouteCode != nil {
		query["routeCode"] = *filter.RouteCode
	}
	if filter.Warehouse != nil {
		query["routePath"] = *filter.Warehouse
	}
	return query
}
