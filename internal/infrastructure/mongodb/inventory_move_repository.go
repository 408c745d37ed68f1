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

// InventoryMoveRepository persists the append-only movement ledger in MongoDB
type InventoryMoveRepository struct {
	collection *mongo.Collection
}

// NewInventoryMoveRepository creates a new InventoryMoveRepository
func NewInventoryMoveRepository(db *mongo.Database) *InventoryMoveRepository {
	repo := &InventoryMoveRepository{
		collection: db.Collection("inventory_moves"),
	}
	repo.ensureIndexes(context.Background())
	return repo
}

func (r *InventoryMoveRepository) ensureIndexes(ctx context.Context) {
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "shipmentCode", Value: 1}, {Key: "postedAt", Value: -1}}},
		{Keys: bson.D{{Key: "warehouseCode", Value: 1}, {Key: "productCode", Value: 1}}},
	}
	r.collection.Indexes().CreateMany(ctx, indexes)
}

// InsertAll appends movement records to the ledger
func (r *InventoryMoveRepository) InsertAll(ctx context.Context, moves []*domain.InventoryMove) error {
	if len(moves) == 0 {
		return nil
	}

	documents := make([]interface{}, 0, len(moves))
	for _, move := range moves {
		if move.ID.IsZero() {
			move.ID = mongoutil.GenerateID()
		}
		documents = append(documents, move)
	}

	if _, err := r.collection.InsertMany(ctx, documents); err != nil {
		return fmt.Errorf("failed to insert inventory moves: %w", err)
	}
	return nil
}

// FindByShipment retrieves moves for a shipment, newest first
func (r *InventoryMoveRepository) FindByShipment(ctx context.Context, shipmentCode string) ([]*domain.InventoryMove, error) {
	opts := options.Find().SetSort(mongoutil.SortDescending("postedAt"))
	cursor, err := r.collection.Find(ctx, bson.M{"shipmentCode": shipmentCode}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var moves []*domain.InventoryMove
	err = cursor.All(ctx, &moves)
	return moves, err
}
