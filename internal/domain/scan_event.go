package domain

import (
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// EventType represents the operational scan event type
type EventType string

const (
	EventGateIn     EventType = "gate_in"
	EventGateOut    EventType = "gate_out"
	EventLoadStart  EventType = "load_start"
	EventLoadFinish EventType = "load_finish"
	EventScan       EventType = "scan"
	EventPOD        EventType = "pod"
)

// RefTypeTransfer marks a checkpoint scan that moves stock between warehouses
const RefTypeTransfer = "transfer"

// IsValid checks if the event type is valid
func (t EventType) IsValid() bool {
	switch t {
	case EventGateIn, EventGateOut, EventLoadStart, EventLoadFinish, EventScan, EventPOD:
		return true
	}
	return false
}

// CanonicalRank returns the position of the type in the canonical lifecycle
// ordering gate_in < load_start < load_finish < gate_out < pod. A scan is a
// wildcard checkpoint and has no fixed position; it returns -1.
func (t EventType) CanonicalRank() int {
	switch t {
	case EventGateIn:
		return 0
	case EventLoadStart:
		return 1
	case EventLoadFinish:
		return 2
	case EventGateOut:
		return 3
	case EventPOD:
		return 4
	default:
		return -1
	}
}

// Label returns a human-readable label for the event type
func (t EventType) Label() string {
	switch t {
	case EventGateIn:
		return "Arrived at warehouse gate"
	case EventGateOut:
		return "Departed warehouse gate"
	case EventLoadStart:
		return "Loading started"
	case EventLoadFinish:
		return "Loading finished"
	case EventScan:
		return "Checkpoint scan"
	case EventPOD:
		return "Proof of delivery"
	default:
		return string(t)
	}
}

// Direction represents an inventory movement direction
type Direction string

const (
	DirectionIn   Direction = "in"
	DirectionOut  Direction = "out"
	DirectionNone Direction = "none"
)

// MovementDirection maps an event type and ref type to the inventory movement
// direction it triggers. Loading out of a warehouse or transferring stock posts
// an outbound delta; arriving or delivering posts an inbound one.
func MovementDirection(t EventType, refType string) Direction {
	switch t {
	case EventLoadFinish, EventGateOut:
		return DirectionOut
	case EventScan:
		if refType == RefTypeTransfer {
			return DirectionOut
		}
		return DirectionNone
	case EventGateIn, EventPOD:
		return DirectionIn
	default:
		return DirectionNone
	}
}

// Payload keys recognized across the ingestion and projection paths
const (
	PayloadKeyIdempotency = "idempotency_key"
	PayloadKeyLocation    = "location"
	PayloadKeyDescription = "description"
	PayloadKeyETA         = "eta"
)

// ScanEvent is an immutable, append-only record of an operational occurrence.
// Once written it is never updated or deleted; every derived view (timeline,
// stop status, inventory balances) is computed from this log.
type ScanEvent struct {
	ID           primitive.ObjectID     `bson:"_id,omitempty" json:"id"`
	FormCode     string                 `bson:"formCode" json:"formCode"`
	ShipmentRef  string                 `bson:"shipmentRef,omitempty" json:"shipmentRef,omitempty"`
	WarehouseRef string                 `bson:"warehouseRef,omitempty" json:"warehouseRef,omitempty"`
	Type         EventType              `bson:"type" json:"type"`
	RefType      string                 `bson:"refType,omitempty" json:"refType,omitempty"`
	Payload      map[string]interface{} `bson:"payload" json:"payload"`
	Actor        string                 `bson:"actor,omitempty" json:"actor,omitempty"`
	RecordedAt   time.Time              `bson:"recordedAt" json:"recordedAt"`
	CreatedAt    time.Time              `bson:"createdAt" json:"createdAt"`
}

// NewScanEvent creates a new scan event. recordedAt falls back to the
// ingestion time when the caller did not supply an explicit event time.
func NewScanEvent(formCode, shipmentRef, warehouseRef string, eventType EventType, refType string, payload map[string]interface{}, actor string, recordedAt time.Time) (*ScanEvent, error) {
	if formCode == "" {
		return nil, ErrFormCodeRequired
	}
	if !eventType.IsValid() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidEventType, eventType)
	}

	now := time.Now().UTC()
	if recordedAt.IsZero() {
		recordedAt = now
	}
	if payload == nil {
		payload = make(map[string]interface{})
	}

	return &ScanEvent{
		FormCode:     formCode,
		ShipmentRef:  shipmentRef,
		WarehouseRef: warehouseRef,
		Type:         eventType,
		RefType:      refType,
		Payload:      payload,
		Actor:        actor,
		RecordedAt:   recordedAt,
		CreatedAt:    now,
	}, nil
}

// PayloadString returns the payload value for key if it is a non-empty string
func (e *ScanEvent) PayloadString(key string) string {
	if e.Payload == nil {
		return ""
	}
	if v, ok := e.Payload[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// IdempotencyKey returns the caller-supplied idempotency key, if any
func (e *ScanEvent) IdempotencyKey() string {
	return e.PayloadString(PayloadKeyIdempotency)
}

// Location resolves the display location for the event. Explicit payload value
// wins, then the associated warehouse, then a fixed placeholder.
func (e *ScanEvent) Location() string {
	if loc := e.PayloadString(PayloadKeyLocation); loc != "" {
		return loc
	}
	if e.WarehouseRef != "" {
		return e.WarehouseRef
	}
	return "In transit"
}

// Description resolves the display description for the event. Explicit payload
// value wins, then the ref type, then the type's canonical label.
func (e *ScanEvent) Description() string {
	if desc := e.PayloadString(PayloadKeyDescription); desc != "" {
		return desc
	}
	if e.RefType != "" {
		return e.RefType
	}
	return e.Type.Label()
}

// ETA returns the estimated delivery hint carried by the event payload, if any
func (e *ScanEvent) ETA() string {
	return e.PayloadString(PayloadKeyETA)
}
