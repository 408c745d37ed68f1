package cloudevents

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// EventFactory creates CloudEvents for tracking domain events
type EventFactory struct {
	source string
}

// NewEventFactory creates a new EventFactory for a specific source
func NewEventFactory(source string) *EventFactory {
	return &EventFactory{source: source}
}

// CreateEvent creates a new TrackingCloudEvent with the given parameters
func (f *EventFactory) CreateEvent(
	ctx context.Context,
	eventType string,
	subject string,
	data interface{},
) *TrackingCloudEvent {
	return &TrackingCloudEvent{
		SpecVersion:     "1.0",
		Type:            eventType,
		Source:          f.source,
		Subject:         subject,
		ID:              uuid.New().String(),
		Time:            time.Now().UTC(),
		DataContentType: "application/json",
		Data:            data,
		Extensions:      make(map[string]interface{}),
	}
}

// CreateScanEventIngestedEvent creates a ScanEventIngested event
func (f *EventFactory) CreateScanEventIngestedEvent(ctx context.Context, data ScanEventIngestedData) *TrackingCloudEvent {
	event := f.CreateEvent(ctx, ScanEventIngested, "scan-event/"+data.EventID, data)
	event.ShipmentCode = data.ShipmentCode
	event.WarehouseCode = data.WarehouseCode
	return event
}

// CreateLegAdvancedEvent creates a LegAdvanced event
func (f *EventFactory) CreateLegAdvancedEvent(ctx context.Context, data LegAdvancedData) *TrackingCloudEvent {
	event := f.CreateEvent(ctx, LegAdvanced, "shipment/"+data.ShipmentCode, data)
	event.ShipmentCode = data.ShipmentCode
	event.WarehouseCode = data.WarehouseCode
	event.RouteCode = data.RouteCode
	return event
}

// CreateMovementPostedEvent creates a MovementPosted event
func (f *EventFactory) CreateMovementPostedEvent(ctx context.Context, data MovementPostedData) *TrackingCloudEvent {
	event := f.CreateEvent(ctx, MovementPosted, "shipment/"+data.ShipmentCode, data)
	event.ShipmentCode = data.ShipmentCode
	event.WarehouseCode = data.WarehouseCode
	return event
}

// CreateShipmentDeliveredEvent creates a ShipmentDelivered event
func (f *EventFactory) CreateShipmentDeliveredEvent(ctx context.Context, data ShipmentDeliveredData) *TrackingCloudEvent {
	event := f.CreateEvent(ctx, ShipmentDelivered, "shipment/"+data.ShipmentCode, data)
	event.ShipmentCode = data.ShipmentCode
	return event
}

// CreatePingRecordedEvent creates a PingRecorded event
func (f *EventFactory) CreatePingRecordedEvent(ctx context.Context, data PingRecordedData) *TrackingCloudEvent {
	event := f.CreateEvent(ctx, PingRecorded, "shipment/"+data.ShipmentCode, data)
	event.ShipmentCode = data.ShipmentCode
	return event
}
