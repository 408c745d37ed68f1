package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/tms-platform/tracking-service/internal/domain"
)

// RouteRepository persists route plans in MongoDB
type RouteRepository struct {
	collection *mongo.Collection
}

// NewRouteRepository creates a new RouteRepository
func NewRouteRepository(db *mongo.Database) *RouteRepository {
	repo := &RouteRepository{
		collection: db.Collection("routes"),
	}
	repo.ensureIndexes(context.Background())
	return repo
}

func (r *RouteRepository) ensureIndexes(ctx context.Context) {
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "routeCode", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "orgId", Value: 1}, {Key: "status", Value: 1}}},
	}
	r.collection.Indexes().CreateMany(ctx, indexes)
}

// Save persists a route (upsert by code)
func (r *RouteRepository) Save(ctx context.Context, route *domain.Route) error {
	route.UpdatedAt = time.Now().UTC()

	opts := options.Update().SetUpsert(true)
	filter := bson.M{"routeCode": route.RouteCode}
	update := bson.M{"$set": route}

	if _, err := r.collection.UpdateOne(ctx, filter, update, opts); err != nil {
		return fmt.Errorf("failed to save route: %w", err)
	}
	return nil
}

// FindByCode retrieves a route by its code
func (r *RouteRepository) FindByCode(ctx context.Context, routeCode string) (*domain.Route, error) {
	var route domain.Route
	err := r.collection.FindOne(ctx, bson.M{"routeCode": routeCode}).Decode(&route)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &route, nil
}
