package domain

import (
	"context"
	"time"
)

// ShipmentRepository defines the interface for shipment persistence
type ShipmentRepository interface {
	// Save persists a shipment (upsert)
	Save(ctx context.Context, shipment *Shipment) error

	// FindByCode retrieves a shipment by its natural code
	FindByCode(ctx context.Context, shipmentCode string) (*Shipment, error)

	// FindByID retrieves a shipment by its internal identifier
	FindByID(ctx context.Context, id string) (*Shipment, error)

	// FindByRouteCode retrieves all shipments assigned to a route
	FindByRouteCode(ctx context.Context, routeCode string) ([]*Shipment, error)

	// FindAll retrieves shipments matching the filter
	FindAll(ctx context.Context, filter ShipmentFilter, pagination Pagination) ([]*Shipment, error)

	// Count returns the total number of shipments matching the filter
	Count(ctx context.Context, filter ShipmentFilter) (int64, error)

	// AdvanceLeg conditionally moves the leg index from fromIndex to toIndex.
	// The update applies only when the stored index still equals fromIndex;
	// it reports whether the write took effect.
	AdvanceLeg(ctx context.Context, shipmentCode string, fromIndex, toIndex int) (bool, error)

	// SetLegIndex unconditionally rewrites the leg index (normalization)
	SetLegIndex(ctx context.Context, shipmentCode string, index int) error

	// UpdateStatus updates the shipment lifecycle status
	UpdateStatus(ctx context.Context, shipmentCode string, status ShipmentStatus) error

	// UpdateLines persists the shipment's line item counters
	UpdateLines(ctx context.Context, shipmentCode string, lines []StockLine) error
}

// ScanEventRepository defines the interface for the append-only event log
type ScanEventRepository interface {
	// Insert appends a new immutable event. When the event carries an
	// idempotency key and an event with the same (formCode, type, key)
	// already exists, Insert fails with ErrDuplicateEvent.
	Insert(ctx context.Context, event *ScanEvent) error

	// HasIdempotencyKey reports whether an event with the same
	// (formCode, eventType, key) has already been ingested
	HasIdempotencyKey(ctx context.Context, formCode string, eventType EventType, key string) (bool, error)

	// FindByTrackingKey retrieves events whose shipment reference or form
	// code matches the key, ordered by creation time ascending
	FindByTrackingKey(ctx context.Context, key string) ([]*ScanEvent, error)

	// FindByShipment retrieves events for a shipment, ordered ascending
	FindByShipment(ctx context.Context, shipmentRef string) ([]*ScanEvent, error)

	// CountByWarehouses returns the event count per warehouse code, limited
	// to events recorded against the given shipment references
	CountByWarehouses(ctx context.Context, warehouseCodes, shipmentRefs []string) (map[string]int64, error)
}

// RouteRepository defines the interface for route persistence
type RouteRepository interface {
	// Save persists a route (upsert)
	Save(ctx context.Context, route *Route) error

	// FindByCode retrieves a route by its code
	FindByCode(ctx context.Context, routeCode string) (*Route, error)
}

// InventoryMoveRepository defines the interface for the movement ledger
type InventoryMoveRepository interface {
	// InsertAll appends movement records to the ledger
	InsertAll(ctx context.Context, moves []*InventoryMove) error

	// FindByShipment retrieves moves for a shipment, newest first
	FindByShipment(ctx context.Context, shipmentCode string) ([]*InventoryMove, error)
}

// AccessTicketRepository defines the interface for access ticket persistence
type AccessTicketRepository interface {
	// Insert stores a newly issued ticket
	Insert(ctx context.Context, ticket *AccessTicket) error

	// FindByToken retrieves a ticket by its token string
	FindByToken(ctx context.Context, token string) (*AccessTicket, error)

	// Save persists ticket state changes
	Save(ctx context.Context, ticket *AccessTicket) error
}

// TrackingPingRepository defines the interface for the GPS ping stream
type TrackingPingRepository interface {
	// Insert appends a ping sample
	Insert(ctx context.Context, ping *TrackingPing) error

	// FindByShipment retrieves recent pings for a shipment, newest first
	FindByShipment(ctx context.Context, shipmentCode string, limit int64) ([]*TrackingPing, error)
}

// RateCounter is a shared, atomically incrementing counter used for
// best-effort ingestion rate accounting. It is injected so every process
// instance observes the same counts.
type RateCounter interface {
	// Increment bumps the counter for key within the given window and
	// returns the new count
	Increment(ctx context.Context, key string, window time.Duration) (int64, error)
}

// Pagination represents pagination options
type Pagination struct {
	Page     int64
	PageSize int64
}

// DefaultPagination returns default pagination options
func DefaultPagination() Pagination {
	return Pagination{
		Page:     1,
		PageSize: 20,
	}
}

// Skip returns the number of documents to skip
func (p Pagination) Skip() int64 {
	return (p.Page - 1) * p.PageSize
}

// Limit returns the maximum number of documents to return
func (p Pagination) Limit() int64 {
	return p.PageSize
}

// ShipmentFilter represents filter options for querying shipments
type ShipmentFilter struct {
	OrgID     *string
	Status    *ShipmentStatus
	RouteCode *string
	Warehouse *string
}

// EventPublisher defines the interface for publishing domain events
type EventPublisher interface {
	// Publish publishes a domain event
	Publish(ctx context.Context, event DomainEvent) error

	// PublishAll publishes multiple domain events
	PublishAll(ctx context.Context, events []DomainEvent) error
}
