package domain

import (
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrShipmentNotFound      = errors.New("shipment not found")
	ErrRouteNotFound         = errors.New("route not found")
	ErrTicketNotFound        = errors.New("access ticket not found")
	ErrTimelineNotFound      = errors.New("no tracking events found for token")
	ErrFormCodeRequired      = errors.New("form code is required")
	ErrInvalidEventType      = errors.New("invalid event type")
	ErrDuplicateEvent        = errors.New("duplicate event: idempotency key already used")
	ErrRouteLegMismatch      = errors.New("event warehouse does not match the shipment's current route leg")
	ErrShipmentUnresolved    = errors.New("shipment could not be resolved for a route leg constrained event")
	ErrInvalidStatusChange   = errors.New("invalid shipment status transition")
	ErrShipmentCodeRequired  = errors.New("shipment code is required")
	ErrOrganizationRequired  = errors.New("organization is required")
	ErrTicketAlreadyRevoked  = errors.New("access ticket is already revoked")
	ErrInvalidPingCoordinate = errors.New("ping coordinates are out of range")
)

// ShipmentStatus represents the shipment lifecycle status
type ShipmentStatus string

const (
	ShipmentStatusCreated   ShipmentStatus = "created"
	ShipmentStatusInTransit ShipmentStatus = "in_transit"
	ShipmentStatusDelivered ShipmentStatus = "delivered"
	ShipmentStatusCancelled ShipmentStatus = "cancelled"
)

// IsValid checks if the status is valid
func (s ShipmentStatus) IsValid() bool {
	switch s {
	case ShipmentStatusCreated, ShipmentStatusInTransit, ShipmentStatusDelivered, ShipmentStatusCancelled:
		return true
	}
	return false
}

// CanTransitionTo checks if transition to the target status is allowed
func (s ShipmentStatus) CanTransitionTo(target ShipmentStatus) bool {
	transitions := map[ShipmentStatus][]ShipmentStatus{
		ShipmentStatusCreated:   {ShipmentStatusInTransit, ShipmentStatusDelivered, ShipmentStatusCancelled},
		ShipmentStatusInTransit: {ShipmentStatusDelivered, ShipmentStatusCancelled},
		ShipmentStatusDelivered: {},
		ShipmentStatusCancelled: {},
	}

	allowed, exists := transitions[s]
	if !exists {
		return false
	}
	for _, t := range allowed {
		if t == target {
			return true
		}
	}
	return false
}

// StockLine is a manifest line item carried by a shipment. ShippedTotal and
// ClosingBalance are running counters mutated only by inventory postings.
type StockLine struct {
	ProductCode    string `bson:"productCode" json:"productCode"`
	Description    string `bson:"description,omitempty" json:"description,omitempty"`
	WarehouseCode  string `bson:"warehouseCode" json:"warehouseCode"`
	Quantity       int    `bson:"quantity" json:"quantity"`
	ShippedTotal   int    `bson:"shippedTotal" json:"shippedTotal"`
	ClosingBalance int    `bson:"closingBalance" json:"closingBalance"`
}

// Shipment is the aggregate root for a tracked multi-stop shipment. Its route
// position is the pair (RoutePath, CurrentLegIndex); the index is only ever
// mutated by the leg progression rules.
type Shipment struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ShipmentCode    string             `bson:"shipmentCode" json:"shipmentCode"`
	OrgID           string             `bson:"orgId" json:"orgId"`
	RouteCode       string             `bson:"routeCode,omitempty" json:"routeCode,omitempty"`
	RoutePath       []string           `bson:"routePath" json:"routePath"`
	CurrentLegIndex int                `bson:"currentLegIndex" json:"currentLegIndex"`
	Status          ShipmentStatus     `bson:"status" json:"status"`
	OriginWarehouse string             `bson:"originWarehouse,omitempty" json:"originWarehouse,omitempty"`
	Customer        string             `bson:"customer,omitempty" json:"customer,omitempty"`
	Origin          string             `bson:"origin,omitempty" json:"origin,omitempty"`
	Destination     string             `bson:"destination,omitempty" json:"destination,omitempty"`
	Lines           []StockLine        `bson:"lines" json:"lines"`
	CreatedAt       time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt       time.Time          `bson:"updatedAt" json:"updatedAt"`
	DeliveredAt     *time.Time         `bson:"deliveredAt,omitempty" json:"deliveredAt,omitempty"`

	domainEvents []DomainEvent `bson:"-" json:"-"`
}

// NewShipment creates a new shipment aggregate
func NewShipment(shipmentCode, orgID, originWarehouse, routeCode string, routePath []string, lines []StockLine) (*Shipment, error) {
	if shipmentCode == "" {
		return nil, ErrShipmentCodeRequired
	}
	if orgID == "" {
		return nil, ErrOrganizationRequired
	}
	if routePath == nil {
		routePath = []string{}
	}
	if lines == nil {
		lines = []StockLine{}
	}
	for i := range lines {
		if lines[i].ClosingBalance == 0 {
			lines[i].ClosingBalance = lines[i].Quantity
		}
	}

	now := time.Now().UTC()
	shipment := &Shipment{
		ShipmentCode:    shipmentCode,
		OrgID:           orgID,
		RouteCode:       routeCode,
		RoutePath:       routePath,
		CurrentLegIndex: 0,
		Status:          ShipmentStatusCreated,
		OriginWarehouse: originWarehouse,
		Lines:           lines,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	shipment.addDomainEvent(&ShipmentCreatedEvent{
		ShipmentCode: shipmentCode,
		OrgID:        orgID,
		RouteCode:    routeCode,
		StopCount:    len(routePath),
		LineCount:    len(lines),
		OccurredAt_:  now,
	})

	return shipment, nil
}

// NormalizedLegIndex returns the stored leg index clamped into the valid range
// for the shipment's route path. Stored values outside the range self-heal on
// the next write.
func (s *Shipment) NormalizedLegIndex() int {
	return NormalizeLegIndex(s.RoutePath, s.CurrentLegIndex)
}

// ChangeStatus transitions the shipment to the target lifecycle status
func (s *Shipment) ChangeStatus(target ShipmentStatus) error {
	if !target.IsValid() {
		return ErrInvalidStatusChange
	}
	if !s.Status.CanTransitionTo(target) {
		return ErrInvalidStatusChange
	}
	s.Status = target
	s.UpdatedAt = time.Now().UTC()
	return nil
}

// MarkDelivered transitions the shipment to delivered and records the
// proof-of-delivery moment
func (s *Shipment) MarkDelivered(actor string, at time.Time) error {
	if s.Status == ShipmentStatusDelivered {
		return nil
	}
	if !s.Status.CanTransitionTo(ShipmentStatusDelivered) {
		return ErrInvalidStatusChange
	}

	if at.IsZero() {
		at = time.Now().UTC()
	}
	s.Status = ShipmentStatusDelivered
	s.DeliveredAt = &at
	s.UpdatedAt = time.Now().UTC()

	s.addDomainEvent(&ShipmentDeliveredEvent{
		ShipmentCode: s.ShipmentCode,
		PODActor:     actor,
		DeliveredAt:  at,
	})
	return nil
}

// PostMovements applies an inventory posting for the given direction and
// returns the movement records to append to the ledger. Outbound postings are
// restricted to line items stored at the event's warehouse; inbound postings
// credit every line item on the manifest. Closing balances floor at zero.
func (s *Shipment) PostMovements(direction Direction, warehouse string, trigger EventType, at time.Time) []*InventoryMove {
	if direction == DirectionNone {
		return nil
	}
	if at.IsZero() {
		at = time.Now().UTC()
	}

	var moves []*InventoryMove
	for i := range s.Lines {
		line := &s.Lines[i]
		if line.Quantity <= 0 {
			continue
		}
		if direction == DirectionOut && line.WarehouseCode != warehouse {
			continue
		}

		switch direction {
		case DirectionOut:
			line.ShippedTotal += line.Quantity
			line.ClosingBalance -= line.Quantity
			if line.ClosingBalance < 0 {
				line.ClosingBalance = 0
			}
		case DirectionIn:
			line.ClosingBalance += line.Quantity
			line.ShippedTotal -= line.Quantity
			if line.ShippedTotal < 0 {
				line.ShippedTotal = 0
			}
		}

		moves = append(moves, &InventoryMove{
			ShipmentCode:  s.ShipmentCode,
			WarehouseCode: line.WarehouseCode,
			ProductCode:   line.ProductCode,
			Quantity:      line.Quantity,
			Direction:     direction,
			TriggerType:   trigger,
			PostedAt:      at,
		})

		s.addDomainEvent(&MovementPostedEvent{
			ShipmentCode:  s.ShipmentCode,
			WarehouseCode: line.WarehouseCode,
			ProductCode:   line.ProductCode,
			Quantity:      line.Quantity,
			Direction:     string(direction),
			TriggerType:   string(trigger),
			OccurredAt_:   at,
		})
	}

	if len(moves) > 0 {
		s.UpdatedAt = time.Now().UTC()
	}
	return moves
}

// addDomainEvent adds a domain event to the aggregate
func (s *Shipment) addDomainEvent(event DomainEvent) {
	s.domainEvents = append(s.domainEvents, event)
}

// GetDomainEvents returns all domain events
func (s *Shipment) GetDomainEvents() []DomainEvent {
	return s.domainEvents
}

// ClearDomainEvents clears all domain events
func (s *Shipment) ClearDomainEvents() {
	s.domainEvents = []DomainEvent{}
}
