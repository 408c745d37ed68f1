package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/tms-platform/tracking-service/internal/domain"
)

// AccessTicketRepository persists access tickets in MongoDB
type AccessTicketRepository struct {
	collection *mongo.Collection
}

// NewAccessTicketRepository creates a new AccessTicketRepository
func NewAccessTicketRepository(db *mongo.Database) *AccessTicketRepository {
	repo := &AccessTicketRepository{
		collection: db.Collection("access_tickets"),
	}
	repo.ensureIndexes(context.Background())
	return repo
}

func (r *AccessTicketRepository) ensureIndexes(ctx context.Context) {
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "token", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "shipmentCode", Value: 1}, {Key: "status", Value: 1}}},
	}
	r.collection.Indexes().CreateMany(ctx, indexes)
}

// Insert stores a newly issued ticket
func (r *AccessTicketRepository) Insert(ctx context.Context, ticket *domain.AccessTicket) error {
	if ticket.ID.IsZero() {
		ticket.ID = primitive.NewObjectID()
	}
	if _, err := r.collection.InsertOne(ctx, ticket); err != nil {
		return fmt.Errorf("failed to insert access ticket: %w", err)
	}
	return nil
}

// FindByToken retrieves a ticket by its token string
func (r *AccessTicketRepository) FindByToken(ctx context.Context, token string) (*domain.AccessTicket, error) {
	var ticket domain.AccessTicket
	err := r.collection.FindOne(ctx, bson.M{"token": token}).Decode(&ticket)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &ticket, nil
}

// Save persists ticket state changes (upsert by token)
func (r *AccessTicketRepository) Save(ctx context.Context, ticket *domain.AccessTicket) error {
	opts := options.Update().SetUpsert(true)
	filter := bson.M{"token": ticket.Token}
	update := bson.M{"$set": ticket}

	if _, err := r.collection.UpdateOne(ctx, filter, update, opts); err != nil {
		return fmt.Errorf("failed to save access ticket: %w", err)
	}
	return nil
}
