package application

import (
	"context"
	"time"
)

// EventAck is the payload for acknowledging an ingested event downstream
type EventAck struct {
	EventID       string
	FormCode      string
	EventType     string
	ShipmentCode  string
	WarehouseCode string
	RecordedAt    time.Time
}

// RouteProgress is the payload for pushing a shipment's route position downstream
type RouteProgress struct {
	ShipmentCode string
	RouteCode    string
	LegIndex     int
	RoutePath    []string
	UpdatedAt    time.Time
}

// AnalyticsQuery selects the aggregate window for a metrics pull
type AnalyticsQuery struct {
	OrgID      string
	Warehouses []string
	From       time.Time
	To         time.Time
}

// AnalyticsReport is the aggregate metrics payload returned by the sync platform
type AnalyticsReport struct {
	TotalShipments         int     `json:"totalShipments"`
	OnTimeRate             float64 `json:"onTimeRate"`
	AvgDwellTimeMin        float64 `json:"avgDwellTimeMin"`
	ScanSuccessRate        float64 `json:"scanSuccessRate"`
	RouteLegCompletionRate float64 `json:"routeLegCompletionRate"`
}

// SyncGateway propagates state to the external logistics platform. Event
// acknowledgment and progress pushes are sequenced but not transactional;
// implementations are expected to be idempotent and internally retried.
type SyncGateway interface {
	AcknowledgeEvent(ctx context.Context, ack EventAck) error
	PushRouteProgress(ctx context.Context, progress RouteProgress) error
	FetchAnalytics(ctx context.Context, query AnalyticsQuery) (*AnalyticsReport, error)
}
