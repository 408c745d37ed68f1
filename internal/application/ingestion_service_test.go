package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tms-platform/tracking-service/internal/domain"
)

func newIngestionFixture() (*IngestionService, *fakeShipmentRepo, *fakeEventRepo, *fakeMoveRepo, *fakeRateCounter, *fakeSyncGateway, *fakePublisher) {
	shipments := &fakeShipmentRepo{}
	events := &fakeEventRepo{}
	moves := &fakeMoveRepo{}
	rate := &fakeRateCounter{}
	sync := &fakeSyncGateway{}
	publisher := &fakePublisher{}

	service := NewIngestionService(shipments, events, moves, rate, sync, publisher, nil, testLogger())
	return service, shipments, events, moves, rate, sync, publisher
}

func transitShipment(t *testing.T, path []string, index int) *domain.Shipment {
	t.Helper()
	shipment, err := domain.NewShipment("SHP-1001", "ORG-01", "WH-A", "RT-01", path, []domain.StockLine{
		{ProductCode: "PRD-1", WarehouseCode: "WH-A", Quantity: 10},
		{ProductCode: "PRD-2", WarehouseCode: "WH-B", Quantity: 4},
	})
	require.NoError(t, err)
	shipment.ClearDomainEvents()
	shipment.Status = domain.ShipmentStatusInTransit
	shipment.CurrentLegIndex = index
	return shipment
}

// TestIngestEventRejectsInvalidType tests unknown event types are refused
func TestIngestEventRejectsInvalidType(t *testing.T) {
	service, _, events, _, _, _, _ := newIngestionFixture()

	result, err := service.IngestEvent(context.Background(), IngestEventCommand{
		FormCode:  "FRM-001",
		EventType: "teleport",
	})

	assert.ErrorIs(t, err, domain.ErrInvalidEventType)
	assert.Nil(t, result)
	assert.Empty(t, events.insertedEvents)
}

// TestIngestEventDuplicate tests an idempotency collision stops the call
// before any persistence or side effect
func TestIngestEventDuplicate(t *testing.T) {
	service, _, events, moves, _, sync, _ := newIngestionFixture()
	events.hasKeyFn = func(_ context.Context, formCode string, eventType domain.EventType, key string) (bool, error) {
		assert.Equal(t, "FRM-001", formCode)
		assert.Equal(t, domain.EventGateIn, eventType)
		assert.Equal(t, "idem-1", key)
		return true, nil
	}

	result, err := service.IngestEvent(context.Background(), IngestEventCommand{
		FormCode:       "FRM-001",
		EventType:      "gate_in",
		IdempotencyKey: "idem-1",
	})

	assert.ErrorIs(t, err, domain.ErrDuplicateEvent)
	assert.Nil(t, result)
	assert.Empty(t, events.insertedEvents)
	assert.Empty(t, moves.inserted)
	assert.Empty(t, sync.acks)
}

// TestIngestEventDuplicateAtInsert tests the storage-level uniqueness backstop
func TestIngestEventDuplicateAtInsert(t *testing.T) {
	service, _, events, _, _, sync, _ := newIngestionFixture()
	events.insertFn = func(context.Context, *domain.ScanEvent) error {
		return domain.ErrDuplicateEvent
	}

	_, err := service.IngestEvent(context.Background(), IngestEventCommand{
		FormCode:       "FRM-001",
		EventType:      "scan",
		IdempotencyKey: "idem-2",
	})

	assert.ErrorIs(t, err, domain.ErrDuplicateEvent)
	assert.Empty(t, sync.acks)
}

// TestIngestEventLegMismatch tests route position validation failures
func TestIngestEventLegMismatch(t *testing.T) {
	service, shipments, events, _, _, _, _ := newIngestionFixture()
	shipments.findByCodeFn = func(_ context.Context, code string) (*domain.Shipment, error) {
		return transitShipment(t, []string{"WH-A", "WH-B", "WH-C"}, 0), nil
	}

	tests := []struct {
		name      string
		eventType string
		refType   string
		warehouse string
		wantErr   error
	}{
		{name: "gate_out off current stop", eventType: "gate_out", warehouse: "WH-B", wantErr: domain.ErrRouteLegMismatch},
		{name: "gate_in skipping ahead", eventType: "gate_in", warehouse: "WH-C", wantErr: domain.ErrRouteLegMismatch},
		{name: "transfer scan off current stop", eventType: "scan", refType: "transfer", warehouse: "WH-C", wantErr: domain.ErrRouteLegMismatch},
		{name: "gate_in at next stop accepted", eventType: "gate_in", warehouse: "WH-B"},
		{name: "pod anywhere accepted", eventType: "pod", warehouse: "WH-Z"},
		{name: "plain scan anywhere accepted", eventType: "scan", warehouse: "WH-Z"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := len(events.insertedEvents)
			result, err := service.IngestEvent(context.Background(), IngestEventCommand{
				FormCode:    "FRM-001",
				ShipmentID:  "SHP-1001",
				WarehouseID: tt.warehouse,
				EventType:   tt.eventType,
				RefType:     tt.refType,
			})

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, result)
				assert.Len(t, events.insertedEvents, before)
			} else {
				require.NoError(t, err)
				require.NotNil(t, result)
				assert.Len(t, events.insertedEvents, before+1)
			}
		})
	}
}

// TestIngestEventUnresolvedShipment tests the defensive unresolved-shipment rule
func TestIngestEventUnresolvedShipment(t *testing.T) {
	service, _, events, _, _, _, _ := newIngestionFixture()

	// non-scan with an unresolvable shipment fails
	_, err := service.IngestEvent(context.Background(), IngestEventCommand{
		FormCode:    "FRM-001",
		ShipmentID:  "SHP-GHOST",
		WarehouseID: "WH-A",
		EventType:   "gate_in",
	})
	assert.ErrorIs(t, err, domain.ErrShipmentUnresolved)
	assert.Empty(t, events.insertedEvents)

	// checkpoint-only scan is allowed without shipment context and keeps
	// the original identifier
	result, err := service.IngestEvent(context.Background(), IngestEventCommand{
		FormCode:    "FRM-001",
		ShipmentID:  "SHP-GHOST",
		WarehouseID: "WH-A",
		EventType:   "scan",
	})
	require.NoError(t, err)
	require.NotNil(t, result)
	require.Len(t, events.insertedEvents, 1)
	assert.Equal(t, "SHP-GHOST", events.insertedEvents[0].ShipmentRef)
}

// TestIngestEventEmbedsIdempotencyKey tests the key lands in the payload
func TestIngestEventEmbedsIdempotencyKey(t *testing.T) {
	service, _, events, _, _, _, _ := newIngestionFixture()

	_, err := service.IngestEvent(context.Background(), IngestEventCommand{
		FormCode:       "FRM-001",
		EventType:      "scan",
		IdempotencyKey: "idem-9",
	})
	require.NoError(t, err)
	require.Len(t, events.insertedEvents, 1)
	assert.Equal(t, "idem-9", events.insertedEvents[0].IdempotencyKey())
}

// TestIngestEventGateInAdvancesLeg tests the full accepted-event pipeline
func TestIngestEventGateInAdvancesLeg(t *testing.T) {
	service, shipments, events, moves, rate, sync, publisher := newIngestionFixture()

	shipment := transitShipment(t, []string{"WH-A", "WH-B", "WH-C"}, 0)
	shipments.findByCodeFn = func(context.Context, string) (*domain.Shipment, error) {
		return shipment, nil
	}

	var advancedFrom, advancedTo int
	shipments.advanceLegFn = func(_ context.Context, code string, from, to int) (bool, error) {
		advancedFrom, advancedTo = from, to
		return true, nil
	}

	result, err := service.IngestEvent(context.Background(), IngestEventCommand{
		FormCode:    "FRM-001",
		ShipmentID:  "SHP-1001",
		WarehouseID: "WH-B",
		EventType:   "gate_in",
		Actor:       "gate-4",
	})

	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, "gate_in", result.EventType)
	require.Len(t, events.insertedEvents, 1)

	// leg advanced 0 -> 1
	assert.Equal(t, 0, advancedFrom)
	assert.Equal(t, 1, advancedTo)

	// gate_in credits the whole manifest
	assert.Len(t, moves.inserted, 2)

	// sync ack then progress push with the advanced index
	require.Len(t, sync.acks, 1)
	assert.Equal(t, "SHP-1001", sync.acks[0].ShipmentCode)
	require.Len(t, sync.progresses, 1)
	assert.Equal(t, 1, sync.progresses[0].LegIndex)

	assert.Equal(t, 1, rate.calls)

	var sawLegAdvanced, sawIngested bool
	for _, event := range publisher.published {
		switch event.EventType() {
		case "tracking.shipment.leg-advanced":
			sawLegAdvanced = true
		case "tracking.scan-event.ingested":
			sawIngested = true
		}
	}
	assert.True(t, sawLegAdvanced)
	assert.True(t, sawIngested)
}

// TestIngestEventSideEffectFailuresAreSwallowed tests the accepted event is
// returned even when every side effect fails
func TestIngestEventSideEffectFailuresAreSwallowed(t *testing.T) {
	service, shipments, _, moves, rate, sync, publisher := newIngestionFixture()

	shipment := transitShipment(t, []string{"WH-A", "WH-B"}, 0)
	shipments.findByCodeFn = func(context.Context, string) (*domain.Shipment, error) {
		return shipment, nil
	}
	shipments.advanceLegFn = func(context.Context, string, int, int) (bool, error) {
		return false, errors.New("write conflict")
	}
	moves.insertAllFn = func(context.Context, []*domain.InventoryMove) error {
		return errors.New("ledger down")
	}
	rate.incrementFn = func(context.Context, string, time.Duration) (int64, error) {
		return 0, errors.New("counter down")
	}
	sync.ackFn = func(context.Context, EventAck) error {
		return errors.New("sync down")
	}
	publisher.publishFn = func(context.Context, domain.DomainEvent) error {
		return errors.New("broker down")
	}

	result, err := service.IngestEvent(context.Background(), IngestEventCommand{
		FormCode:    "FRM-001",
		ShipmentID:  "SHP-1001",
		WarehouseID: "WH-B",
		EventType:   "gate_in",
	})

	require.NoError(t, err)
	require.NotNil(t, result)
	assert.NotEmpty(t, result.EventID)
	// ack failed, so the progress push never ran
	assert.Empty(t, sync.progresses)
}

// TestIngestEventPODMarksDelivered tests proof of delivery closes the shipment
func TestIngestEventPODMarksDelivered(t *testing.T) {
	service, shipments, _, moves, _, _, publisher := newIngestionFixture()

	shipment := transitShipment(t, []string{"WH-A", "WH-B"}, 1)
	shipments.findByCodeFn = func(context.Context, string) (*domain.Shipment, error) {
		return shipment, nil
	}

	var saved *domain.Shipment
	shipments.saveFn = func(_ context.Context, s *domain.Shipment) error {
		saved = s
		return nil
	}

	_, err := service.IngestEvent(context.Background(), IngestEventCommand{
		FormCode:    "FRM-001",
		ShipmentID:  "SHP-1001",
		WarehouseID: "WH-B",
		EventType:   "pod",
		Actor:       "driver-7",
	})

	require.NoError(t, err)
	require.NotNil(t, saved)
	assert.Equal(t, domain.ShipmentStatusDelivered, saved.Status)
	// pod credits the whole manifest
	assert.Len(t, moves.inserted, 2)

	var sawDelivered bool
	for _, event := range publisher.published {
		if event.EventType() == "tracking.shipment.delivered" {
			sawDelivered = true
		}
	}
	assert.True(t, sawDelivered)
}

// TestIngestEventLoadFinishPostsOutbound tests outbound moves are warehouse filtered
func TestIngestEventLoadFinishPostsOutbound(t *testing.T) {
	service, shipments, _, moves, _, _, _ := newIngestionFixture()

	shipment := transitShipment(t, []string{"WH-A", "WH-B"}, 0)
	shipments.findByCodeFn = func(context.Context, string) (*domain.Shipment, error) {
		return shipment, nil
	}

	_, err := service.IngestEvent(context.Background(), IngestEventCommand{
		FormCode:    "FRM-001",
		ShipmentID:  "SHP-1001",
		WarehouseID: "WH-A",
		EventType:   "load_finish",
	})

	require.NoError(t, err)
	require.Len(t, moves.inserted, 1)
	assert.Equal(t, "PRD-1", moves.inserted[0].ProductCode)
	assert.Equal(t, domain.DirectionOut, moves.inserted[0].Direction)
}

// TestIngestEventMultiStopScenario walks a shipment through its route via
// successive gate arrivals
func TestIngestEventMultiStopScenario(t *testing.T) {
	service, shipments, events, _, _, _, _ := newIngestionFixture()

	shipment := transitShipment(t, []string{"WH-A", "WH-B", "WH-C"}, 0)
	shipments.findByCodeFn = func(context.Context, string) (*domain.Shipment, error) {
		return shipment, nil
	}
	shipments.advanceLegFn = func(_ context.Context, code string, from, to int) (bool, error) {
		shipment.CurrentLegIndex = to
		return true, nil
	}

	_, err := service.IngestEvent(context.Background(), IngestEventCommand{
		FormCode: "FRM-001", ShipmentID: "SHP-1001", WarehouseID: "WH-B", EventType: "gate_in",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, shipment.CurrentLegIndex)

	_, err = service.IngestEvent(context.Background(), IngestEventCommand{
		FormCode: "FRM-001", ShipmentID: "SHP-1001", WarehouseID: "WH-C", EventType: "gate_in",
	})
	require.NoError(t, err)
	assert.Equal(t, 2, shipment.CurrentLegIndex)

	assert.Len(t, events.insertedEvents, 2)
}

// TestIngestEventNormalizesStaleIndex tests the self-healing clamp write
func TestIngestEventNormalizesStaleIndex(t *testing.T) {
	service, shipments, _, _, _, _, _ := newIngestionFixture()

	shipment := transitShipment(t, []string{"WH-A", "WH-B"}, 9)
	shipments.findByCodeFn = func(context.Context, string) (*domain.Shipment, error) {
		return shipment, nil
	}

	var rewrote int
	shipments.setLegIndexFn = func(_ context.Context, code string, index int) error {
		rewrote = index
		return nil
	}

	_, err := service.IngestEvent(context.Background(), IngestEventCommand{
		FormCode:    "FRM-001",
		ShipmentID:  "SHP-1001",
		WarehouseID: "WH-B",
		EventType:   "scan",
	})

	require.NoError(t, err)
	assert.Equal(t, 1, rewrote)
	assert.Equal(t, 1, shipment.CurrentLegIndex)
}
