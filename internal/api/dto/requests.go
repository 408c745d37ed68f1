package dto

import "time"

// IngestEventRequest represents a scan event submitted by a warehouse device
type IngestEventRequest struct {
	FormCode       string                 `json:"formCode" binding:"required"`
	ShipmentID     string                 `json:"shipmentId,omitempty"`
	WarehouseID    string                 `json:"warehouseId,omitempty"`
	EventType      string                 `json:"eventType" binding:"required,event_type"`
	RefType        string                 `json:"refType,omitempty"`
	Payload        map[string]interface{} `json:"payload,omitempty"`
	Actor          string                 `json:"actor,omitempty"`
	IdempotencyKey string                 `json:"idempotencyKey,omitempty"`
	Timestamp      *time.Time             `json:"timestamp,omitempty"`
}

// CreateShipmentRequest represents the request to register a new shipment
type CreateShipmentRequest struct {
	ShipmentCode    string             `json:"shipmentCode,omitempty"`
	RouteCode       string             `json:"routeCode,omitempty"`
	OriginWarehouse string             `json:"originWarehouse,omitempty"`
	Customer        string             `json:"customer,omitempty"`
	Origin          string             `json:"origin,omitempty"`
	Destination     string             `json:"destination,omitempty"`
	RoutePath       []string           `json:"routePath,omitempty"`
	Lines           []StockLineRequest `json:"lines,omitempty"`
}

// StockLineRequest represents one manifest line on a new shipment
type StockLineRequest struct {
	ProductCode   string `json:"productCode" binding:"required"`
	Description   string `json:"description,omitempty"`
	WarehouseCode string `json:"warehouseCode" binding:"required"`
	Quantity      int    `json:"quantity" binding:"required,min=1"`
}

// CreateRouteRequest represents the request to create a multi-stop route
type CreateRouteRequest struct {
	RouteCode string             `json:"routeCode" binding:"required,route_code"`
	Stops     []RouteStopRequest `json:"stops" binding:"required,min=1,dive"`
}

// RouteStopRequest represents an ordered stop on a new route
type RouteStopRequest struct {
	WarehouseCode    string     `json:"warehouseCode" binding:"required,warehouse_code"`
	PlannedArrival   *time.Time `json:"plannedArrival,omitempty"`
	PlannedDeparture *time.Time `json:"plannedDeparture,omitempty"`
}

// IssueTicketRequest represents the request to issue a tracking access ticket
type IssueTicketRequest struct {
	ShipmentCode  string `json:"shipmentCode" binding:"required"`
	WarehouseCode string `json:"warehouseCode,omitempty"`
}

// RecordPingRequest represents a GPS ping sample from a driver device
type RecordPingRequest struct {
	ShipmentCode string     `json:"shipmentCode" binding:"required"`
	DriverID     string     `json:"driverId,omitempty"`
	Lat          float64    `json:"lat" binding:"min=-90,max=90"`
	Lng          float64    `json:"lng" binding:"min=-180,max=180"`
	SpeedKph     *float64   `json:"speedKph,omitempty"`
	RecordedAt   *time.Time `json:"recordedAt,omitempty"`
}
