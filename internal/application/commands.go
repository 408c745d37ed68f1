package application

import (
	"time"

	"github.com/tms-platform/tracking-service/internal/domain"
)

// IngestEventCommand represents a request to record an operational scan event
type IngestEventCommand struct {
	FormCode       string                 `json:"formCode" binding:"required"`
	ShipmentID     string                 `json:"shipmentId"`
	WarehouseID    string                 `json:"warehouseId"`
	EventType      string                 `json:"eventType" binding:"required"`
	RefType        string                 `json:"refType"`
	Payload        map[string]interface{} `json:"payload"`
	Actor          string                 `json:"actor"`
	IdempotencyKey string                 `json:"idempotencyKey"`
	Timestamp      *time.Time             `json:"ts"`
}

// IngestEventResult is the outcome of an accepted ingestion call
type IngestEventResult struct {
	EventID   string `json:"eventId"`
	EventType string `json:"eventType"`
}

// CreateShipmentCommand represents a command to register a new shipment
type CreateShipmentCommand struct {
	ShipmentCode    string             `json:"shipmentCode"`
	OrgID           string             `json:"orgId" binding:"required"`
	RouteCode       string             `json:"routeCode"`
	OriginWarehouse string             `json:"originWarehouse"`
	Customer        string             `json:"customer"`
	Origin          string             `json:"origin"`
	Destination     string             `json:"destination"`
	Lines           []StockLineInput   `json:"lines"`
	RoutePath       []string           `json:"routePath"`
}

// StockLineInput represents one manifest line item on a new shipment
type StockLineInput struct {
	ProductCode   string `json:"productCode" binding:"required"`
	Description   string `json:"description"`
	WarehouseCode string `json:"warehouseCode" binding:"required"`
	Quantity      int    `json:"quantity" binding:"required,min=1"`
}

// IssueTicketCommand represents a command to issue an access ticket
type IssueTicketCommand struct {
	OrgID         string `json:"orgId" binding:"required"`
	WarehouseCode string `json:"warehouseCode"`
	ShipmentCode  string `json:"shipmentCode" binding:"required"`
	IssuedBy      string `json:"issuedBy"`
}

// RevokeTicketCommand represents a command to revoke an access ticket
type RevokeTicketCommand struct {
	Token     string `json:"token" binding:"required"`
	RevokedBy string `json:"revokedBy"`
}

// RecordPingCommand represents a GPS ping submission
type RecordPingCommand struct {
	ShipmentCode string     `json:"shipmentCode" binding:"required"`
	DriverID     string     `json:"driverId"`
	Lat          float64    `json:"lat" binding:"min=-90,max=90"`
	Lng          float64    `json:"lng" binding:"min=-180,max=180"`
	SpeedKph     *float64   `json:"speedKph"`
	RecordedAt   *time.Time `json:"recordedAt"`
}

// ListShipmentsQuery represents shipment list filters
type ListShipmentsQuery struct {
	OrgID     string
	Status    string
	RouteCode string
	Page      int64
	PageSize  int64
}

// Filter converts the query into a domain filter
func (q ListShipmentsQuery) Filter() domain.ShipmentFilter {
	filter := domain.ShipmentFilter{}
	if q.OrgID != "" {
		filter.OrgID = &q.OrgID
	}
	if q.Status != "" {
		status := domain.ShipmentStatus(q.Status)
		filter.Status = &status
	}
	if q.RouteCode != "" {
		filter.RouteCode = &q.RouteCode
	}
	return filter
}

// Pagination converts the query into domain pagination
func (q ListShipmentsQuery) Pagination() domain.Pagination {
	p := domain.DefaultPagination()
	if q.Page > 0 {
		p.Page = q.Page
	}
	if q.PageSize > 0 && q.PageSize <= 100 {
		p.PageSize = q.PageSize
	}
	return p
}
