package application

import (
	"context"
	"fmt"
	"time"

	"github.com/tms-platform/tracking-service/internal/domain"
	"github.com/tms-platform/tracking-service/pkg/logging"
)

// ShipmentService handles shipment registration and queries
type ShipmentService struct {
	shipments domain.ShipmentRepository
	routes    domain.RouteRepository
	moves     domain.InventoryMoveRepository
	publisher domain.EventPublisher
	logger    *logging.Logger
}

// NewShipmentService creates a new ShipmentService
func NewShipmentService(
	shipments domain.ShipmentRepository,
	routes domain.RouteRepository,
	moves domain.InventoryMoveRepository,
	publisher domain.EventPublisher,
	logger *logging.Logger,
) *ShipmentService {
	return &ShipmentService{
		shipments: shipments,
		routes:    routes,
		moves:     moves,
		publisher: publisher,
		logger:    logger,
	}
}

// CreateShipment registers a new shipment. When a route code is supplied and
// no explicit route path is given, the route's stop sequence is snapshotted
// onto the shipment as its path.
func (s *ShipmentService) CreateShipment(ctx context.Context, cmd CreateShipmentCommand) (*domain.Shipment, error) {
	shipmentCode := cmd.ShipmentCode
	if shipmentCode == "" {
		shipmentCode = fmt.Sprintf("SHP-%s", time.Now().UTC().Format("20060102150405"))
	}

	routePath := cmd.RoutePath
	if len(routePath) == 0 && cmd.RouteCode != "" {
		route, err := s.routes.FindByCode(ctx, cmd.RouteCode)
		if err != nil {
			return nil, err
		}
		if route == nil {
			return nil, domain.ErrRouteNotFound
		}
		routePath = route.Path()
	}

	lines := make([]domain.StockLine, 0, len(cmd.Lines))
	for _, input := range cmd.Lines {
		lines = append(lines, domain.StockLine{
			ProductCode:   input.ProductCode,
			Description:   input.Description,
			WarehouseCode: input.WarehouseCode,
			Quantity:      input.Quantity,
		})
	}

	shipment, err := domain.NewShipment(shipmentCode, cmd.OrgID, cmd.OriginWarehouse, cmd.RouteCode, routePath, lines)
	if err != nil {
		return nil, err
	}
	shipment.Customer = cmd.Customer
	shipment.Origin = cmd.Origin
	shipment.Destination = cmd.Destination

	if err := s.shipments.Save(ctx, shipment); err != nil {
		return nil, err
	}

	events := shipment.GetDomainEvents()
	shipment.ClearDomainEvents()
	if s.publisher != nil && len(events) > 0 {
		if err := s.publisher.PublishAll(ctx, events); err != nil {
			s.logger.WithError(err).Warn("Failed to publish shipment events", "shipment", shipmentCode)
		}
	}

	s.logger.Info("Created shipment",
		"shipmentCode", shipment.ShipmentCode,
		"routeCode", shipment.RouteCode,
		"stops", len(shipment.RoutePath),
	)

	return shipment, nil
}

// GetShipment retrieves a shipment by code
func (s *ShipmentService) GetShipment(ctx context.Context, shipmentCode string) (*domain.Shipment, error) {
	shipment, err := s.shipments.FindByCode(ctx, shipmentCode)
	if err != nil {
		return nil, err
	}
	if shipment == nil {
		return nil, domain.ErrShipmentNotFound
	}
	// surface the normalized index so stale out-of-range values never leak
	shipment.CurrentLegIndex = shipment.NormalizedLegIndex()
	return shipment, nil
}

// ListShipments retrieves shipments matching the query
func (s *ShipmentService) ListShipments(ctx context.Context, query ListShipmentsQuery) ([]*domain.Shipment, int64, error) {
	filter := query.Filter()

	shipments, err := s.shipments.FindAll(ctx, filter, query.Pagination())
	if err != nil {
		return nil, 0, err
	}
	total, err := s.shipments.Count(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	for _, shipment := range shipments {
		shipment.CurrentLegIndex = shipment.NormalizedLegIndex()
	}
	return shipments, total, nil
}

// GetMovements retrieves the posted inventory ledger for a shipment
func (s *ShipmentService) GetMovements(ctx context.Context, shipmentCode string) ([]*domain.InventoryMove, error) {
	shipment, err := s.shipments.FindByCode(ctx, shipmentCode)
	if err != nil {
		return nil, err
	}
	if shipment == nil {
		return nil, domain.ErrShipmentNotFound
	}
	return s.moves.FindByShipment(ctx, shipmentCode)
}
