package application

import (
	"context"
	"time"

	"github.com/tms-platform/tracking-service/internal/domain"
	"github.com/tms-platform/tracking-service/pkg/logging"
)

// RouteStopView is one stop of a route with its derived status
type RouteStopView struct {
	Sequence         int        `json:"sequence"`
	WarehouseCode    string     `json:"warehouseCode"`
	PlannedArrival   *time.Time `json:"plannedArrival,omitempty"`
	PlannedDeparture *time.Time `json:"plannedDeparture,omitempty"`
	ItemCount        int        `json:"itemCount"`
	TotalQuantity    int        `json:"totalQuantity"`
	ScanEventCount   int64      `json:"scanEventCount"`
	Status           string     `json:"status"`
}

// RouteDetailsView is the full read-side view of a route
type RouteDetailsView struct {
	RouteCode      string          `json:"routeCode"`
	Status         string          `json:"status"`
	RoutePath      []string        `json:"routePath"`
	ActiveLegIndex int             `json:"activeLegIndex"`
	Stops          []RouteStopView `json:"stops"`
	Shipments      []string        `json:"shipments"`
}

// RouteService derives route stop statuses from the shipments assigned to the
// route and decorates stops with scan and manifest aggregates.
type RouteService struct {
	routes    domain.RouteRepository
	shipments domain.ShipmentRepository
	events    domain.ScanEventRepository
	logger    *logging.Logger
}

// NewRouteService creates a new RouteService
func NewRouteService(
	routes domain.RouteRepository,
	shipments domain.ShipmentRepository,
	events domain.ScanEventRepository,
	logger *logging.Logger,
) *RouteService {
	return &RouteService{
		routes:    routes,
		shipments: shipments,
		events:    events,
		logger:    logger,
	}
}

// CreateRoute persists a new route plan
func (s *RouteService) CreateRoute(ctx context.Context, route *domain.Route) error {
	if route.Status == "" {
		route.Status = domain.RouteStatusPlanned
	}
	now := time.Now().UTC()
	if route.CreatedAt.IsZero() {
		route.CreatedAt = now
	}
	route.UpdatedAt = now

	if err := s.routes.Save(ctx, route); err != nil {
		return err
	}
	s.logger.Info("Route saved", "routeCode", route.RouteCode, "stops", len(route.Stops))
	return nil
}

// GetRouteDetails loads a route and derives per-stop statuses
func (s *RouteService) GetRouteDetails(ctx context.Context, routeCode string) (*RouteDetailsView, error) {
	route, err := s.routes.FindByCode(ctx, routeCode)
	if err != nil {
		return nil, err
	}
	if route == nil {
		return nil, domain.ErrRouteNotFound
	}

	shipments, err := s.shipments.FindByRouteCode(ctx, routeCode)
	if err != nil {
		return nil, err
	}

	path := route.Path()
	active := domain.ActiveLegIndex(path, shipments)

	shipmentCodes := make([]string, 0, len(shipments))
	for _, shipment := range shipments {
		shipmentCodes = append(shipmentCodes, shipment.ShipmentCode)
	}

	// Scope the counts to this route's shipments so scans for shipments on
	// other routes through the same warehouses are not attributed here.
	scanCounts, err := s.events.CountByWarehouses(ctx, path, shipmentCodes)
	if err != nil {
		s.logger.WithError(err).Warn("Failed to count scan events for route", "routeCode", routeCode)
		scanCounts = map[string]int64{}
	}

	view := &RouteDetailsView{
		RouteCode:      route.RouteCode,
		Status:         string(route.Status),
		RoutePath:      path,
		ActiveLegIndex: active,
		Stops:          make([]RouteStopView, 0, len(route.Stops)),
		Shipments:      shipmentCodes,
	}

	for p, stop := range route.Stops {
		itemCount, totalQty := stopAggregates(shipments, stop.WarehouseCode)
		view.Stops = append(view.Stops, RouteStopView{
			Sequence:         stop.Sequence,
			WarehouseCode:    stop.WarehouseCode,
			PlannedArrival:   stop.PlannedArrival,
			PlannedDeparture: stop.PlannedDeparture,
			ItemCount:        itemCount,
			TotalQuantity:    totalQty,
			ScanEventCount:   scanCounts[stop.WarehouseCode],
			Status:           string(domain.StopStatusAt(p, active)),
		})
	}

	return view, nil
}

// stopAggregates sums the manifest line items stored at a warehouse across
// every shipment on the route
func stopAggregates(shipments []*domain.Shipment, warehouse string) (int, int) {
	items := 0
	quantity := 0
	for _, shipment := range shipments {
		for _, line := range shipment.Lines {
			if line.WarehouseCode == warehouse {
				items++
				quantity += line.Quantity
			}
		}
	}
	return items, quantity
}
