package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestNormalizeLegIndex tests leg index clamping
func TestNormalizeLegIndex(t *testing.T) {
	tests := []struct {
		name  string
		path  []string
		index int
		want  int
	}{
		{name: "empty path forces zero", path: []string{}, index: 5, want: 0},
		{name: "single stop forces zero", path: []string{"WH-A"}, index: 3, want: 0},
		{name: "single stop negative forces zero", path: []string{"WH-A"}, index: -2, want: 0},
		{name: "in range unchanged", path: []string{"WH-A", "WH-B", "WH-C"}, index: 1, want: 1},
		{name: "negative clamps to zero", path: []string{"WH-A", "WH-B"}, index: -1, want: 0},
		{name: "beyond end clamps to last", path: []string{"WH-A", "WH-B", "WH-C"}, index: 7, want: 2},
		{name: "zero stays zero", path: []string{"WH-A", "WH-B"}, index: 0, want: 0},
		{name: "last index stays", path: []string{"WH-A", "WH-B", "WH-C"}, index: 2, want: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeLegIndex(tt.path, tt.index))
		})
	}
}

// TestValidateLeg tests route position validation per event type
func TestValidateLeg(t *testing.T) {
	path := []string{"WH-A", "WH-B", "WH-C"}

	tests := []struct {
		name      string
		path      []string
		index     int
		warehouse string
		eventType EventType
		refType   string
		wantErr   error
	}{
		{name: "empty path always valid", path: []string{}, index: 0, warehouse: "WH-X", eventType: EventGateOut, wantErr: nil},
		{name: "pod unconstrained", path: path, index: 0, warehouse: "WH-Z", eventType: EventPOD, wantErr: nil},
		{name: "gate_in at current stop", path: path, index: 1, warehouse: "WH-B", eventType: EventGateIn, wantErr: nil},
		{name: "gate_in at next stop", path: path, index: 0, warehouse: "WH-B", eventType: EventGateIn, wantErr: nil},
		{name: "gate_in skipping ahead rejected", path: path, index: 0, warehouse: "WH-C", eventType: EventGateIn, wantErr: ErrRouteLegMismatch},
		{name: "gate_in at unknown warehouse rejected", path: path, index: 0, warehouse: "WH-Z", eventType: EventGateIn, wantErr: ErrRouteLegMismatch},
		{name: "gate_out at current stop", path: path, index: 1, warehouse: "WH-B", eventType: EventGateOut, wantErr: nil},
		{name: "gate_out at wrong stop rejected", path: path, index: 1, warehouse: "WH-A", eventType: EventGateOut, wantErr: ErrRouteLegMismatch},
		{name: "load_start at current stop", path: path, index: 0, warehouse: "WH-A", eventType: EventLoadStart, wantErr: nil},
		{name: "load_start at next stop rejected", path: path, index: 0, warehouse: "WH-B", eventType: EventLoadStart, wantErr: ErrRouteLegMismatch},
		{name: "load_finish at current stop", path: path, index: 2, warehouse: "WH-C", eventType: EventLoadFinish, wantErr: nil},
		{name: "plain scan unconstrained", path: path, index: 0, warehouse: "WH-C", eventType: EventScan, wantErr: nil},
		{name: "transfer scan at current stop", path: path, index: 1, warehouse: "WH-B", eventType: EventScan, refType: RefTypeTransfer, wantErr: nil},
		{name: "transfer scan at wrong stop rejected", path: path, index: 1, warehouse: "WH-C", eventType: EventScan, refType: RefTypeTransfer, wantErr: ErrRouteLegMismatch},
		{name: "out of range index normalized before check", path: path, index: 9, warehouse: "WH-C", eventType: EventGateOut, wantErr: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateLeg(tt.path, tt.index, tt.warehouse, tt.eventType, tt.refType)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

// TestNextLegIndex tests the progression state machine
func TestNextLegIndex(t *testing.T) {
	path := []string{"WH-A", "WH-B", "WH-C"}

	tests := []struct {
		name      string
		path      []string
		index     int
		warehouse string
		eventType EventType
		want      int
	}{
		{name: "gate_in at next stop advances", path: path, index: 0, warehouse: "WH-B", eventType: EventGateIn, want: 1},
		{name: "gate_in at following stop advances again", path: path, index: 1, warehouse: "WH-C", eventType: EventGateIn, want: 2},
		{name: "gate_in skipping ahead is a no-op", path: path, index: 0, warehouse: "WH-C", eventType: EventGateIn, want: 0},
		{name: "gate_in at current stop is a no-op", path: path, index: 1, warehouse: "WH-B", eventType: EventGateIn, want: 1},
		{name: "gate_in at final stop does not overflow", path: path, index: 2, warehouse: "WH-C", eventType: EventGateIn, want: 2},
		{name: "gate_out never advances", path: path, index: 0, warehouse: "WH-B", eventType: EventGateOut, want: 0},
		{name: "load_start never advances", path: path, index: 0, warehouse: "WH-B", eventType: EventLoadStart, want: 0},
		{name: "load_finish never advances", path: path, index: 0, warehouse: "WH-B", eventType: EventLoadFinish, want: 0},
		{name: "pod never advances", path: path, index: 0, warehouse: "WH-B", eventType: EventPOD, want: 0},
		{name: "scan never advances", path: path, index: 0, warehouse: "WH-B", eventType: EventScan, want: 0},
		{name: "empty path stays at zero", path: []string{}, index: 0, warehouse: "WH-B", eventType: EventGateIn, want: 0},
		{name: "out of range index normalizes first", path: path, index: 9, warehouse: "WH-B", eventType: EventScan, want: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NextLegIndex(tt.path, tt.index, tt.warehouse, tt.eventType))
		})
	}
}

// TestMultiStopProgressionScenario walks a shipment stop by stop along its route
func TestMultiStopProgressionScenario(t *testing.T) {
	path := []string{"WH-A", "WH-B", "WH-C"}
	index := 0

	index = NextLegIndex(path, index, "WH-B", EventGateIn)
	assert.Equal(t, 1, index)

	index = NextLegIndex(path, index, "WH-C", EventGateIn)
	assert.Equal(t, 2, index)

	// repeating the last arrival converges, it never overshoots
	index = NextLegIndex(path, index, "WH-C", EventGateIn)
	assert.Equal(t, 2, index)
}
