package kafka

import (
	"context"
	"fmt"

	"github.com/tms-platform/tracking-service/internal/domain"
	"github.com/tms-platform/tracking-service/pkg/cloudevents"
	"github.com/tms-platform/tracking-service/pkg/kafka"
)

// EventPublisher implements domain event publishing using Kafka. Each domain
// event is wrapped in a CloudEvents envelope and routed to the topic for its
// stream: shipment lifecycle, inventory ledger, GPS pings or tracking events.
type EventPublisher struct {
	producer     *kafka.CircuitBreakerProducer
	eventFactory *cloudevents.EventFactory
}

// NewEventPublisher creates a new Kafka-based event publisher
func NewEventPublisher(producer *kafka.CircuitBreakerProducer, eventFactory *cloudevents.EventFactory) *EventPublisher {
	return &EventPublisher{
		producer:     producer,
		eventFactory: eventFactory,
	}
}

// Publish publishes a single domain event to Kafka
func (p *EventPublisher) Publish(ctx context.Context, event domain.DomainEvent) error {
	topic := kafka.Topics.TrackingEvents
	var ce *cloudevents.TrackingCloudEvent

	switch e := event.(type) {
	case *domain.ShipmentCreatedEvent:
		topic = kafka.Topics.ShipmentEvents
		ce = p.eventFactory.CreateEvent(ctx, cloudevents.ShipmentCreated, "shipment/"+e.ShipmentCode, e)
		ce.ShipmentCode = e.ShipmentCode
		ce.RouteCode = e.RouteCode

	case *domain.ShipmentDeliveredEvent:
		topic = kafka.Topics.ShipmentEvents
		ce = p.eventFactory.CreateShipmentDeliveredEvent(ctx, cloudevents.ShipmentDeliveredData{
			ShipmentCode: e.ShipmentCode,
			DeliveredAt:  e.DeliveredAt,
			PODActor:     e.PODActor,
		})

	case *domain.LegAdvancedEvent:
		topic = kafka.Topics.ShipmentEvents
		ce = p.eventFactory.CreateLegAdvancedEvent(ctx, cloudevents.LegAdvancedData{
			ShipmentCode:  e.ShipmentCode,
			WarehouseCode: e.WarehouseCode,
			FromLegIndex:  e.FromLegIndex,
			ToLegIndex:    e.ToLegIndex,
			RouteCode:     e.RouteCode,
		})

	case *domain.MovementPostedEvent:
		topic = kafka.Topics.InventoryEvents
		ce = p.eventFactory.CreateMovementPostedEvent(ctx, cloudevents.MovementPostedData{
			ShipmentCode:  e.ShipmentCode,
			WarehouseCode: e.WarehouseCode,
			ProductCode:   e.ProductCode,
			Quantity:      e.Quantity,
			Direction:     e.Direction,
			TriggerType:   e.TriggerType,
		})

	case *domain.ScanEventIngestedEvent:
		ce = p.eventFactory.CreateScanEventIngestedEvent(ctx, cloudevents.ScanEventIngestedData{
			EventID:       e.EventID,
			FormCode:      e.FormCode,
			EventType:     e.ScanType,
			ShipmentCode:  e.ShipmentCode,
			WarehouseCode: e.WarehouseCode,
			RefType:       e.RefType,
			Actor:         e.Actor,
			RecordedAt:    e.RecordedAt,
		})

	case *domain.PingRecordedEvent:
		topic = kafka.Topics.PingEvents
		ce = p.eventFactory.CreatePingRecordedEvent(ctx, cloudevents.PingRecordedData{
			ShipmentCode: e.ShipmentCode,
			DriverID:     e.DriverID,
			Lat:          e.Lat,
			Lng:          e.Lng,
			RecordedAt:   e.RecordedAt,
		})

	default:
		ce = p.eventFactory.CreateEvent(ctx, event.EventType(), "tracking", event)
	}

	if err := p.producer.PublishEvent(ctx, topic, ce); err != nil {
		return fmt.Errorf("failed to publish event to kafka: %w", err)
	}
	return nil
}

// PublishAll publishes multiple domain events to Kafka
func (p *EventPublisher) PublishAll(ctx context.Context, events []domain.DomainEvent) error {
	for _, event := range events {
		if err := p.Publish(ctx, event); err != nil {
			return err
		}
	}
	return nil
}
