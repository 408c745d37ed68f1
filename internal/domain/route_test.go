package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func shipmentAtLeg(t *testing.T, code string, path []string, index int) *Shipment {
	t.Helper()
	shipment, err := NewShipment(code, "ORG-01", "WH-A", "RT-01", path, nil)
	require.NoError(t, err)
	shipment.CurrentLegIndex = index
	return shipment
}

// TestActiveLegIndex tests that a route is as advanced as its most advanced shipment
func TestActiveLegIndex(t *testing.T) {
	path := []string{"WH-A", "WH-B", "WH-C"}

	tests := []struct {
		name      string
		shipments []*Shipment
		want      int
	}{
		{name: "no shipments defaults to zero", shipments: nil, want: 0},
		{
			name: "single shipment",
			shipments: []*Shipment{
				shipmentAtLeg(t, "SHP-1", path, 1),
			},
			want: 1,
		},
		{
			name: "maximum across shipments",
			shipments: []*Shipment{
				shipmentAtLeg(t, "SHP-1", path, 0),
				shipmentAtLeg(t, "SHP-2", path, 2),
				shipmentAtLeg(t, "SHP-3", path, 1),
			},
			want: 2,
		},
		{
			name: "out of range stored index clamps",
			shipments: []*Shipment{
				shipmentAtLeg(t, "SHP-1", path, 9),
			},
			want: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ActiveLegIndex(path, tt.shipments))
		})
	}
}

// TestDeriveStopStatuses tests per-stop status derivation
func TestDeriveStopStatuses(t *testing.T) {
	path := []string{"WH-A", "WH-B", "WH-C"}

	tests := []struct {
		name   string
		active int
		want   []StopStatus
	}{
		{name: "at first stop", active: 0, want: []StopStatus{StopStatusCompleted, StopStatusActive, StopStatusPending}},
		{name: "at second stop", active: 1, want: []StopStatus{StopStatusCompleted, StopStatusCompleted, StopStatusActive}},
		{name: "at final stop", active: 2, want: []StopStatus{StopStatusCompleted, StopStatusCompleted, StopStatusCompleted}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DeriveStopStatuses(path, tt.active))
		})
	}
}

// TestStopStatusFor tests warehouse-relative status lookup
func TestStopStatusFor(t *testing.T) {
	path := []string{"WH-A", "WH-B", "WH-C"}

	assert.Equal(t, StopStatusCompleted, StopStatusFor(path, 1, "WH-A"))
	assert.Equal(t, StopStatusCompleted, StopStatusFor(path, 1, "WH-B"))
	assert.Equal(t, StopStatusActive, StopStatusFor(path, 1, "WH-C"))
	// a warehouse absent from the path is always pending
	assert.Equal(t, StopStatusPending, StopStatusFor(path, 2, "WH-Z"))
}

// TestRoutePath tests the stop list to path mapping
func TestRoutePath(t *testing.T) {
	route := &Route{
		RouteCode: "RT-01",
		Status:    RouteStatusActive,
		Stops: []RouteStop{
			{Sequence: 1, WarehouseCode: "WH-A"},
			{Sequence: 2, WarehouseCode: "WH-B"},
			{Sequence: 3, WarehouseCode: "WH-C"},
		},
	}

	assert.Equal(t, []string{"WH-A", "WH-B", "WH-C"}, route.Path())
	assert.Empty(t, (&Route{}).Path())
}
