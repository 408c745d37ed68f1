package dto

import (
	"time"

	"github.com/tms-platform/tracking-service/internal/domain"
)

// EventAcceptedResponse acknowledges an ingested scan event
type EventAcceptedResponse struct {
	EventID   string `json:"eventId"`
	EventType string `json:"eventType"`
	Status    string `json:"status"`
}

// ShipmentResponse represents a shipment with its current route position
type ShipmentResponse struct {
	ID              string              `json:"id"`
	ShipmentCode    string              `json:"shipmentCode"`
	OrgID           string              `json:"orgId"`
	RouteCode       string              `json:"routeCode,omitempty"`
	RoutePath       []string            `json:"routePath"`
	CurrentLegIndex int                 `json:"currentLegIndex"`
	CurrentStop     string              `json:"currentStop,omitempty"`
	Status          string              `json:"status"`
	OriginWarehouse string              `json:"originWarehouse,omitempty"`
	Customer        string              `json:"customer,omitempty"`
	Origin          string              `json:"origin,omitempty"`
	Destination     string              `json:"destination,omitempty"`
	Lines           []StockLineResponse `json:"lines"`
	CreatedAt       time.Time           `json:"createdAt"`
	UpdatedAt       time.Time           `json:"updatedAt"`
	DeliveredAt     *time.Time          `json:"deliveredAt,omitempty"`
}

// StockLineResponse represents a manifest line with running inventory totals
type StockLineResponse struct {
	ProductCode    string `json:"productCode"`
	Description    string `json:"description,omitempty"`
	WarehouseCode  string `json:"warehouseCode"`
	Quantity       int    `json:"quantity"`
	ShippedTotal   int    `json:"shippedTotal"`
	ClosingBalance int    `json:"closingBalance"`
}

// ShipmentListResponse represents a paginated list of shipments
type ShipmentListResponse struct {
	Shipments []ShipmentResponse `json:"shipments"`
	Total     int64              `json:"total"`
	Page      int64              `json:"page"`
	PageSize  int64              `json:"pageSize"`
}

// MovementListResponse represents the inventory ledger entries for a shipment
type MovementListResponse struct {
	Movements []MovementResponse `json:"movements"`
	Total     int                `json:"total"`
}

// MovementResponse represents one inventory ledger entry
type MovementResponse struct {
	ID            string    `json:"id"`
	ShipmentCode  string    `json:"shipmentCode"`
	WarehouseCode string    `json:"warehouseCode"`
	ProductCode   string    `json:"productCode"`
	Quantity      int       `json:"quantity"`
	Direction     string    `json:"direction"`
	TriggerType   string    `json:"triggerType"`
	PostedAt      time.Time `json:"postedAt"`
}

// TicketResponse represents an issued or revoked access ticket
type TicketResponse struct {
	Token         string     `json:"token"`
	ShipmentCode  string     `json:"shipmentCode"`
	WarehouseCode string     `json:"warehouseCode,omitempty"`
	Status        string     `json:"status"`
	CreatedAt     time.Time  `json:"createdAt"`
	RevokedAt     *time.Time `json:"revokedAt,omitempty"`
}

// PingResponse represents a recorded GPS ping sample
type PingResponse struct {
	ID           string    `json:"id"`
	ShipmentCode string    `json:"shipmentCode"`
	DriverID     string    `json:"driverId,omitempty"`
	Lat          float64   `json:"lat"`
	Lng          float64   `json:"lng"`
	SpeedKph     *float64  `json:"speedKph,omitempty"`
	RecordedAt   time.Time `json:"recordedAt"`
}

// PingListResponse represents recent pings for a shipment
type PingListResponse struct {
	Pings []PingResponse `json:"pings"`
	Total int            `json:"total"`
}

// ToShipmentResponse maps a shipment aggregate to its API representation
func ToShipmentResponse(s *domain.Shipment) ShipmentResponse {
	lines := make([]StockLineResponse, 0, len(s.Lines))
	for _, line := range s.Lines {
		lines = append(lines, StockLineResponse{
			ProductCode:    line.ProductCode,
			Description:    line.Description,
			WarehouseCode:  line.WarehouseCode,
			Quantity:       line.Quantity,
			ShippedTotal:   line.ShippedTotal,
			ClosingBalance: line.ClosingBalance,
		})
	}

	legIndex := s.NormalizedLegIndex()
	currentStop := ""
	if legIndex < len(s.RoutePath) {
		currentStop = s.RoutePath[legIndex]
	}

	return ShipmentResponse{
		ID:              s.ID.Hex(),
		ShipmentCode:    s.ShipmentCode,
		OrgID:           s.OrgID,
		RouteCode:       s.RouteCode,
		RoutePath:       s.RoutePath,
		CurrentLegIndex: legIndex,
		CurrentStop:     currentStop,
		Status:          string(s.Status),
		OriginWarehouse: s.OriginWarehouse,
		Customer:        s.Customer,
		Origin:          s.Origin,
		Destination:     s.Destination,
		Lines:           lines,
		CreatedAt:       s.CreatedAt,
		UpdatedAt:       s.UpdatedAt,
		DeliveredAt:     s.DeliveredAt,
	}
}

// ToMovementResponse maps an inventory ledger entry to its API representation
func ToMovementResponse(m *domain.InventoryMove) MovementResponse {
	return MovementResponse{
		ID:            m.ID.Hex(),
		ShipmentCode:  m.ShipmentCode,
		WarehouseCode: m.WarehouseCode,
		ProductCode:   m.ProductCode,
		Quantity:      m.Quantity,
		Direction:     string(m.Direction),
		TriggerType:   string(m.TriggerType),
		PostedAt:      m.PostedAt,
	}
}

// ToTicketResponse maps an access ticket to its API representation
func ToTicketResponse(t *domain.AccessTicket) TicketResponse {
	return TicketResponse{
		Token:         t.Token,
		ShipmentCode:  t.ShipmentCode,
		WarehouseCode: t.WarehouseCode,
		Status:        string(t.Status),
		CreatedAt:     t.CreatedAt,
		RevokedAt:     t.RevokedAt,
	}
}

// ToPingResponse maps a GPS ping to its API representation
func ToPingResponse(p *domain.TrackingPing) PingResponse {
	return PingResponse{
		ID:           p.ID.Hex(),
		ShipmentCode: p.ShipmentCode,
		DriverID:     p.DriverID,
		Lat:          p.Lat,
		Lng:          p.Lng,
		SpeedKph:     p.SpeedKph,
		RecordedAt:   p.RecordedAt,
	}
}
