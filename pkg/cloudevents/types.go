package cloudevents

import (
	"time"
)

// EventType constants for tracking domain events
const (
	// Scan event lifecycle
	ScanEventIngested = "tms.tracking.scan-event-ingested"
	ScanEventRejected = "tms.tracking.scan-event-rejected"

	// Shipment lifecycle
	ShipmentCreated   = "tms.shipment.created"
	ShipmentDelivered = "tms.shipment.delivered"
	LegAdvanced       = "tms.shipment.leg-advanced"

	// Inventory movements
	MovementPosted = "tms.inventory.movement-posted"

	// GPS pings
	PingRecorded = "tms.tracking.ping-recorded"
)

// Source constants for event sources
const (
	SourceTracking = "/tms/tracking-service"
)

// TrackingCloudEvent represents a CloudEvents v1.0 compliant event
type TrackingCloudEvent struct {
	SpecVersion     string                 `json:"specversion"`
	Type            string                 `json:"type"`
	Source          string                 `json:"source"`
	Subject         string                 `json:"subject,omitempty"`
	ID              string                 `json:"id"`
	Time            time.Time              `json:"time"`
	DataContentType string                 `json:"datacontenttype"`
	Data            interface{}            `json:"data"`
	Extensions      map[string]interface{} `json:"-"`

	// Tracking-specific extensions
	CorrelationID string `json:"tmscorrelationid,omitempty"`
	ShipmentCode  string `json:"tmsshipmentcode,omitempty"`
	WarehouseCode string `json:"tmswarehousecode,omitempty"`
	RouteCode     string `json:"tmsroutecode,omitempty"`

	// W3C Trace Context
	TraceParent string `json:"traceparent,omitempty"`
	TraceState  string `json:"tracestate,omitempty"`
}

// ScanEventIngestedData is the payload for ScanEventIngested events
type ScanEventIngestedData struct {
	EventID       string    `json:"eventId"`
	FormCode      string    `json:"formCode"`
	EventType     string    `json:"eventType"`
	ShipmentCode  string    `json:"shipmentCode,omitempty"`
	WarehouseCode string    `json:"warehouseCode,omitempty"`
	RefType       string    `json:"refType,omitempty"`
	Actor         string    `json:"actor,omitempty"`
	RecordedAt    time.Time `json:"recordedAt"`
}

// LegAdvancedData is the payload for LegAdvanced events
type LegAdvancedData struct {
	ShipmentCode  string `json:"shipmentCode"`
	WarehouseCode string `json:"warehouseCode"`
	FromLegIndex  int    `json:"fromLegIndex"`
	ToLegIndex    int    `json:"toLegIndex"`
	RouteCode     string `json:"routeCode,omitempty"`
}

// MovementPostedData is the payload for MovementPosted events
type MovementPostedData struct {
	ShipmentCode  string `json:"shipmentCode"`
	WarehouseCode string `json:"warehouseCode"`
	ProductCode   string `json:"productCode"`
	Quantity      int    `json:"quantity"`
	Direction     string `json:"direction"`
	TriggerType   string `json:"triggerType"`
}

// ShipmentDeliveredData is the payload for ShipmentDelivered events
type ShipmentDeliveredData struct {
	ShipmentCode string    `json:"shipmentCode"`
	DeliveredAt  time.Time `json:"deliveredAt"`
	PODActor     string    `json:"podActor,omitempty"`
}

// PingRecordedData is the payload for PingRecorded events
type PingRecordedData struct {
	ShipmentCode string    `json:"shipmentCode"`
	DriverID     string    `json:"driverId,omitempty"`
	Lat          float64   `json:"lat"`
	Lng          float64   `json:"lng"`
	RecordedAt   time.Time `json:"recordedAt"`
}
