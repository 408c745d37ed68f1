package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestNewShipment tests shipment creation
func TestNewShipment(t *testing.T) {
	tests := []struct {
		name         string
		shipmentCode string
		orgID        string
		routePath    []string
		lines        []StockLine
		expectError  error
	}{
		{
			name:         "valid multi-stop shipment",
			shipmentCode: "SHP-1001",
			orgID:        "ORG-01",
			routePath:    []string{"WH-A", "WH-B", "WH-C"},
			lines:        []StockLine{{ProductCode: "PRD-1", WarehouseCode: "WH-A", Quantity: 10}},
			expectError:  nil,
		},
		{
			name:         "empty route path is single-leg mode",
			shipmentCode: "SHP-1002",
			orgID:        "ORG-01",
			routePath:    nil,
			lines:        nil,
			expectError:  nil,
		},
		{
			name:         "missing code",
			shipmentCode: "",
			orgID:        "ORG-01",
			expectError:  ErrShipmentCodeRequired,
		},
		{
			name:         "missing organization",
			shipmentCode: "SHP-1003",
			orgID:        "",
			expectError:  ErrOrganizationRequired,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			shipment, err := NewShipment(tt.shipmentCode, tt.orgID, "WH-A", "RT-01", tt.routePath, tt.lines)

			if tt.expectError != nil {
				assert.Equal(t, tt.expectError, err)
				assert.Nil(t, shipment)
			} else {
				require.NoError(t, err)
				require.NotNil(t, shipment)
				assert.Equal(t, tt.shipmentCode, shipment.ShipmentCode)
				assert.Equal(t, ShipmentStatusCreated, shipment.Status)
				assert.Equal(t, 0, shipment.CurrentLegIndex)
				assert.NotNil(t, shipment.RoutePath)
				assert.NotNil(t, shipment.Lines)
				assert.Len(t, shipment.GetDomainEvents(), 1)
				assert.Equal(t, "tracking.shipment.created", shipment.GetDomainEvents()[0].EventType())
			}
		})
	}
}

// TestNewShipmentSeedsClosingBalance tests line item counter initialization
func TestNewShipmentSeedsClosingBalance(t *testing.T) {
	shipment, err := NewShipment("SHP-2001", "ORG-01", "WH-A", "", nil, []StockLine{
		{ProductCode: "PRD-1", WarehouseCode: "WH-A", Quantity: 8},
		{ProductCode: "PRD-2", WarehouseCode: "WH-B", Quantity: 3, ClosingBalance: 5},
	})
	require.NoError(t, err)

	assert.Equal(t, 8, shipment.Lines[0].ClosingBalance)
	assert.Equal(t, 5, shipment.Lines[1].ClosingBalance)
}

// TestShipmentStatusTransitions tests the lifecycle state machine
func TestShipmentStatusTransitions(t *testing.T) {
	tests := []struct {
		name    string
		from    ShipmentStatus
		to      ShipmentStatus
		allowed bool
	}{
		{name: "created to in_transit", from: ShipmentStatusCreated, to: ShipmentStatusInTransit, allowed: true},
		{name: "created to delivered", from: ShipmentStatusCreated, to: ShipmentStatusDelivered, allowed: true},
		{name: "created to cancelled", from: ShipmentStatusCreated, to: ShipmentStatusCancelled, allowed: true},
		{name: "in_transit to delivered", from: ShipmentStatusInTransit, to: ShipmentStatusDelivered, allowed: true},
		{name: "in_transit to created", from: ShipmentStatusInTransit, to: ShipmentStatusCreated, allowed: false},
		{name: "delivered is terminal", from: ShipmentStatusDelivered, to: ShipmentStatusInTransit, allowed: false},
		{name: "cancelled is terminal", from: ShipmentStatusCancelled, to: ShipmentStatusInTransit, allowed: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.allowed, tt.from.CanTransitionTo(tt.to))
		})
	}
}

// TestMarkDelivered tests proof-of-delivery handling
func TestMarkDelivered(t *testing.T) {
	shipment, err := NewShipment("SHP-3001", "ORG-01", "WH-A", "", []string{"WH-A", "WH-B"}, nil)
	require.NoError(t, err)
	shipment.ClearDomainEvents()

	deliveredAt := time.Date(2026, 8, 20, 14, 30, 0, 0, time.UTC)
	require.NoError(t, shipment.MarkDelivered("driver-7", deliveredAt))

	assert.Equal(t, ShipmentStatusDelivered, shipment.Status)
	require.NotNil(t, shipment.DeliveredAt)
	assert.Equal(t, deliveredAt, *shipment.DeliveredAt)
	require.Len(t, shipment.GetDomainEvents(), 1)

	event, ok := shipment.GetDomainEvents()[0].(*ShipmentDeliveredEvent)
	require.True(t, ok)
	assert.Equal(t, "driver-7", event.PODActor)

	// delivering twice is a no-op, not an error
	shipment.ClearDomainEvents()
	require.NoError(t, shipment.MarkDelivered("driver-7", deliveredAt))
	assert.Empty(t, shipment.GetDomainEvents())
}

// TestPostMovementsOut tests outbound postings are warehouse filtered
func TestPostMovementsOut(t *testing.T) {
	shipment, err := NewShipment("SHP-4001", "ORG-01", "WH-A", "", []string{"WH-A", "WH-B"}, []StockLine{
		{ProductCode: "PRD-1", WarehouseCode: "WH-A", Quantity: 10},
		{ProductCode: "PRD-2", WarehouseCode: "WH-A", Quantity: 0},
		{ProductCode: "PRD-3", WarehouseCode: "WH-B", Quantity: 5},
	})
	require.NoError(t, err)
	shipment.ClearDomainEvents()

	moves := shipment.PostMovements(DirectionOut, "WH-A", EventLoadFinish, time.Now().UTC())

	require.Len(t, moves, 1)
	assert.Equal(t, "PRD-1", moves[0].ProductCode)
	assert.Equal(t, DirectionOut, moves[0].Direction)
	assert.Equal(t, EventLoadFinish, moves[0].TriggerType)
	assert.Equal(t, 10, moves[0].Quantity)

	assert.Equal(t, 10, shipment.Lines[0].ShippedTotal)
	assert.Equal(t, 0, shipment.Lines[0].ClosingBalance)
	// line at another warehouse untouched
	assert.Equal(t, 0, shipment.Lines[2].ShippedTotal)
	assert.Equal(t, 5, shipment.Lines[2].ClosingBalance)

	assert.Len(t, shipment.GetDomainEvents(), 1)
}

// TestPostMovementsOutFloorsBalance tests the closing balance never goes negative
func TestPostMovementsOutFloorsBalance(t *testing.T) {
	shipment, err := NewShipment("SHP-4002", "ORG-01", "WH-A", "", nil, []StockLine{
		{ProductCode: "PRD-1", WarehouseCode: "WH-A", Quantity: 10, ClosingBalance: 4},
	})
	require.NoError(t, err)

	shipment.PostMovements(DirectionOut, "WH-A", EventGateOut, time.Time{})
	assert.Equal(t, 0, shipment.Lines[0].ClosingBalance)
	assert.Equal(t, 10, shipment.Lines[0].ShippedTotal)
}

// TestPostMovementsIn tests inbound postings credit the whole manifest
func TestPostMovementsIn(t *testing.T) {
	shipment, err := NewShipment("SHP-4003", "ORG-01", "WH-A", "", []string{"WH-A", "WH-B"}, []StockLine{
		{ProductCode: "PRD-1", WarehouseCode: "WH-A", Quantity: 10, ShippedTotal: 10, ClosingBalance: 0},
		{ProductCode: "PRD-2", WarehouseCode: "WH-B", Quantity: 5, ShippedTotal: 5, ClosingBalance: 0},
	})
	require.NoError(t, err)

	moves := shipment.PostMovements(DirectionIn, "WH-B", EventGateIn, time.Now().UTC())

	// not warehouse filtered: every line item is credited
	require.Len(t, moves, 2)
	assert.Equal(t, 10, shipment.Lines[0].ClosingBalance)
	assert.Equal(t, 0, shipment.Lines[0].ShippedTotal)
	assert.Equal(t, 5, shipment.Lines[1].ClosingBalance)
	assert.Equal(t, 0, shipment.Lines[1].ShippedTotal)
}

// TestPostMovementsNone tests unmapped directions post nothing
func TestPostMovementsNone(t *testing.T) {
	shipment, err := NewShipment("SHP-4004", "ORG-01", "WH-A", "", nil, []StockLine{
		{ProductCode: "PRD-1", WarehouseCode: "WH-A", Quantity: 10},
	})
	require.NoError(t, err)
	shipment.ClearDomainEvents()

	moves := shipment.PostMovements(DirectionNone, "WH-A", EventScan, time.Now().UTC())
	assert.Nil(t, moves)
	assert.Equal(t, 0, shipment.Lines[0].ShippedTotal)
	assert.Empty(t, shipment.GetDomainEvents())
}

// TestNormalizedLegIndex tests the self-healing clamp on the aggregate
func TestNormalizedLegIndex(t *testing.T) {
	shipment, err := NewShipment("SHP-5001", "ORG-01", "WH-A", "", []string{"WH-A", "WH-B"}, nil)
	require.NoError(t, err)

	shipment.CurrentLegIndex = 9
	assert.Equal(t, 1, shipment.NormalizedLegIndex())

	shipment.RoutePath = []string{}
	assert.Equal(t, 0, shipment.NormalizedLegIndex())
}
