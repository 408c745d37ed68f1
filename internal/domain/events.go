package domain

import "time"

// DomainEvent represents a domain event interface
type DomainEvent interface {
	EventType() string
	OccurredAt() time.Time
}

// ShipmentCreatedEvent is emitted when a new shipment is registered
type ShipmentCreatedEvent struct {
	ShipmentCode string    `json:"shipmentCode"`
	OrgID        string    `json:"orgId"`
	RouteCode    string    `json:"routeCode,omitempty"`
	StopCount    int       `json:"stopCount"`
	LineCount    int       `json:"lineCount"`
	OccurredAt_  time.Time `json:"occurredAt"`
}

func (e *ShipmentCreatedEvent) EventType() string     { return "tracking.shipment.created" }
func (e *ShipmentCreatedEvent) OccurredAt() time.Time { return e.OccurredAt_ }

// ScanEventIngestedEvent is emitted when a scan event is accepted and persisted
type ScanEventIngestedEvent struct {
	EventID       string    `json:"eventId"`
	FormCode      string    `json:"formCode"`
	ScanType      string    `json:"scanType"`
	ShipmentCode  string    `json:"shipmentCode,omitempty"`
	WarehouseCode string    `json:"warehouseCode,omitempty"`
	RefType       string    `json:"refType,omitempty"`
	Actor         string    `json:"actor,omitempty"`
	RecordedAt    time.Time `json:"recordedAt"`
}

func (e *ScanEventIngestedEvent) EventType() string     { return "tracking.scan-event.ingested" }
func (e *ScanEventIngestedEvent) OccurredAt() time.Time { return e.RecordedAt }

// LegAdvancedEvent is emitted when a shipment moves to the next route stop
type LegAdvancedEvent struct {
	ShipmentCode  string    `json:"shipmentCode"`
	RouteCode     string    `json:"routeCode,omitempty"`
	WarehouseCode string    `json:"warehouseCode"`
	FromLegIndex  int       `json:"fromLegIndex"`
	ToLegIndex    int       `json:"toLegIndex"`
	OccurredAt_   time.Time `json:"occurredAt"`
}

func (e *LegAdvancedEvent) EventType() string     { return "tracking.shipment.leg-advanced" }
func (e *LegAdvancedEvent) OccurredAt() time.Time { return e.OccurredAt_ }

// ShipmentDeliveredEvent is emitted when proof of delivery is recorded
type ShipmentDeliveredEvent struct {
	ShipmentCode string    `json:"shipmentCode"`
	PODActor     string    `json:"podActor,omitempty"`
	DeliveredAt  time.Time `json:"deliveredAt"`
}

func (e *ShipmentDeliveredEvent) EventType() string     { return "tracking.shipment.delivered" }
func (e *ShipmentDeliveredEvent) OccurredAt() time.Time { return e.DeliveredAt }

// MovementPostedEvent is emitted for each inventory ledger delta
type MovementPostedEvent struct {
	ShipmentCode  string    `json:"shipmentCode"`
	WarehouseCode string    `json:"warehouseCode"`
	ProductCode   string    `json:"productCode"`
	Quantity      int       `json:"quantity"`
	Direction     string    `json:"direction"`
	TriggerType   string    `json:"triggerType"`
	OccurredAt_   time.Time `json:"occurredAt"`
}

func (e *MovementPostedEvent) EventType() string     { return "tracking.inventory.movement-posted" }
func (e *MovementPostedEvent) OccurredAt() time.Time { return e.OccurredAt_ }

// PingRecordedEvent is emitted when a GPS sample is stored
type PingRecordedEvent struct {
	ShipmentCode string    `json:"shipmentCode"`
	DriverID     string    `json:"driverId,omitempty"`
	Lat          float64   `json:"lat"`
	Lng          float64   `json:"lng"`
	RecordedAt   time.Time `json:"recordedAt"`
}

func (e *PingRecordedEvent) EventType() string     { return "tracking.ping.recorded" }
func (e *PingRecordedEvent) OccurredAt() time.Time { return e.RecordedAt }

// TicketRevokedEvent is emitted when an access ticket is revoked
type TicketRevokedEvent struct {
	Token        string    `json:"token"`
	ShipmentCode string    `json:"shipmentCode"`
	RevokedBy    string    `json:"revokedBy,omitempty"`
	OccurredAt_  time.Time `json:"occurredAt"`
}

func (e *TicketRevokedEvent) EventType() string     { return "tracking.ticket.revoked" }
func (e *TicketRevokedEvent) OccurredAt() time.Time { return e.OccurredAt_ }
