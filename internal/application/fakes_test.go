package application

import (
	"context"
	"io"
	"time"

	"github.com/tms-platform/tracking-service/internal/domain"
	"github.com/tms-platform/tracking-service/pkg/logging"
)

func testLogger() *logging.Logger {
	cfg := logging.DefaultConfig("tracking-service-test")
	cfg.Output = io.Discard
	return logging.New(cfg)
}

type fakeShipmentRepo struct {
	saveFn         func(context.Context, *domain.Shipment) error
	findByCodeFn   func(context.Context, string) (*domain.Shipment, error)
	findByIDFn     func(context.Context, string) (*domain.Shipment, error)
	findByRouteFn  func(context.Context, string) ([]*domain.Shipment, error)
	findAllFn      func(context.Context, domain.ShipmentFilter, domain.Pagination) ([]*domain.Shipment, error)
	countFn        func(context.Context, domain.ShipmentFilter) (int64, error)
	advanceLegFn   func(context.Context, string, int, int) (bool, error)
	setLegIndexFn  func(context.Context, string, int) error
	updateStatusFn func(context.Context, string, domain.ShipmentStatus) error
	updateLinesFn  func(context.Context, string, []domain.StockLine) error
}

func (f *fakeShipmentRepo) Save(ctx context.Context, shipment *domain.Shipment) error {
	if f.saveFn != nil {
		return f.saveFn(ctx, shipment)
	}
	return nil
}

func (f *fakeShipmentRepo) FindByCode(ctx context.Context, code string) (*domain.Shipment, error) {
	if f.findByCodeFn != nil {
		return f.findByCodeFn(ctx, code)
	}
	return nil, nil
}

func (f *fakeShipmentRepo) FindByID(ctx context.Context, id string) (*domain.Shipment, error) {
	if f.findByIDFn != nil {
		return f.findByIDFn(ctx, id)
	}
	return nil, nil
}

func (f *fakeShipmentRepo) FindByRouteCode(ctx context.Context, routeCode string) ([]*domain.Shipment, error) {
	if f.findByRouteFn != nil {
		return f.findByRouteFn(ctx, routeCode)
	}
	return nil, nil
}

func (f *fakeShipmentRepo) FindAll(ctx context.Context, filter domain.ShipmentFilter, p domain.Pagination) ([]*domain.Shipment, error) {
	if f.findAllFn != nil {
		return f.findAllFn(ctx, filter, p)
	}
	return nil, nil
}

func (f *fakeShipmentRepo) Count(ctx context.Context, filter domain.ShipmentFilter) (int64, error) {
	if f.countFn != nil {
		return f.countFn(ctx, filter)
	}
	return 0, nil
}

func (f *fakeShipmentRepo) AdvanceLeg(ctx context.Context, code string, from, to int) (bool, error) {
	if f.advanceLegFn != nil {
		return f.advanceLegFn(ctx, code, from, to)
	}
	return true, nil
}

func (f *fakeShipmentRepo) SetLegIndex(ctx context.Context, code string, index int) error {
	if f.setLegIndexFn != nil {
		return f.setLegIndexFn(ctx, code, index)
	}
	return nil
}

func (f *fakeShipmentRepo) UpdateStatus(ctx context.Context, code string, status domain.ShipmentStatus) error {
	if f.updateStatusFn != nil {
		return f.updateStatusFn(ctx, code, status)
	}
	return nil
}

func (f *fakeShipmentRepo) UpdateLines(ctx context.Context, code string, lines []domain.StockLine) error {
	if f.updateLinesFn != nil {
		return f.updateLinesFn(ctx, code, lines)
	}
	return nil
}

type fakeEventRepo struct {
	insertFn       func(context.Context, *domain.ScanEvent) error
	hasKeyFn       func(context.Context, string, domain.EventType, string) (bool, error)
	findByKeyFn    func(context.Context, string) ([]*domain.ScanEvent, error)
	findByShipFn   func(context.Context, string) ([]*domain.ScanEvent, error)
	countByWhsFn   func(context.Context, []string, []string) (map[string]int64, error)
	insertedEvents []*domain.ScanEvent
}

func (f *fakeEventRepo) Insert(ctx context.Context, event *domain.ScanEvent) error {
	if f.insertFn != nil {
		if err := f.insertFn(ctx, event); err != nil {
			return err
		}
	}
	f.insertedEvents = append(f.insertedEvents, event)
	return nil
}

func (f *fakeEventRepo) HasIdempotencyKey(ctx context.Context, formCode string, eventType domain.EventType, key string) (bool, error) {
	if f.hasKeyFn != nil {
		return f.hasKeyFn(ctx, formCode, eventType, key)
	}
	return false, nil
}

func (f *fakeEventRepo) FindByTrackingKey(ctx context.Context, key string) ([]*domain.ScanEvent, error) {
	if f.findByKeyFn != nil {
		return f.findByKeyFn(ctx, key)
	}
	return nil, nil
}

func (f *fakeEventRepo) FindByShipment(ctx context.Context, shipmentRef string) ([]*domain.ScanEvent, error) {
	if f.findByShipFn != nil {
		return f.findByShipFn(ctx, shipmentRef)
	}
	return nil, nil
}

func (f *fakeEventRepo) CountByWarehouses(ctx context.Context, codes, shipmentRefs []string) (map[string]int64, error) {
	if f.countByWhsFn != nil {
		return f.countByWhsFn(ctx, codes, shipmentRefs)
	}
	return map[string]int64{}, nil
}

type fakeMoveRepo struct {
	insertAllFn func(context.Context, []*domain.InventoryMove) error
	inserted    []*domain.InventoryMove
}

func (f *fakeMoveRepo) InsertAll(ctx context.Context, moves []*domain.InventoryMove) error {
	if f.insertAllFn != nil {
		if err := f.insertAllFn(ctx, moves); err != nil {
			return err
		}
	}
	f.inserted = append(f.inserted, moves...)
	return nil
}

func (f *fakeMoveRepo) FindByShipment(ctx context.Context, shipmentCode string) ([]*domain.InventoryMove, error) {
	return f.inserted, nil
}

type fakeTicketRepo struct {
	insertFn      func(context.Context, *domain.AccessTicket) error
	findByTokenFn func(context.Context, string) (*domain.AccessTicket, error)
	saveFn        func(context.Context, *domain.AccessTicket) error
}

func (f *fakeTicketRepo) Insert(ctx context.Context, ticket *domain.AccessTicket) error {
	if f.insertFn != nil {
		return f.insertFn(ctx, ticket)
	}
	return nil
}

func (f *fakeTicketRepo) FindByToken(ctx context.Context, token string) (*domain.AccessTicket, error) {
	if f.findByTokenFn != nil {
		return f.findByTokenFn(ctx, token)
	}
	return nil, nil
}

func (f *fakeTicketRepo) Save(ctx context.Context, ticket *domain.AccessTicket) error {
	if f.saveFn != nil {
		return f.saveFn(ctx, ticket)
	}
	return nil
}

type fakeRouteRepo struct {
	saveFn       func(context.Context, *domain.Route) error
	findByCodeFn func(context.Context, string) (*domain.Route, error)
}

func (f *fakeRouteRepo) Save(ctx context.Context, route *domain.Route) error {
	if f.saveFn != nil {
		return f.saveFn(ctx, route)
	}
	return nil
}

func (f *fakeRouteRepo) FindByCode(ctx context.Context, code string) (*domain.Route, error) {
	if f.findByCodeFn != nil {
		return f.findByCodeFn(ctx, code)
	}
	return nil, nil
}

type fakePingRepo struct {
	insertFn func(context.Context, *domain.TrackingPing) error
	inserted []*domain.TrackingPing
}

func (f *fakePingRepo) Insert(ctx context.Context, ping *domain.TrackingPing) error {
	if f.insertFn != nil {
		if err := f.insertFn(ctx, ping); err != nil {
			return err
		}
	}
	f.inserted = append(f.inserted, ping)
	return nil
}

func (f *fakePingRepo) FindByShipment(ctx context.Context, code string, limit int64) ([]*domain.TrackingPing, error) {
	return f.inserted, nil
}

type fakeRateCounter struct {
	incrementFn func(context.Context, string, time.Duration) (int64, error)
	calls       int
}

func (f *fakeRateCounter) Increment(ctx context.Context, key string, window time.Duration) (int64, error) {
	f.calls++
	if f.incrementFn != nil {
		return f.incrementFn(ctx, key, window)
	}
	return int64(f.calls), nil
}

type fakeSyncGateway struct {
	ackFn       func(context.Context, EventAck) error
	progressFn  func(context.Context, RouteProgress) error
	analyticsFn func(context.Context, AnalyticsQuery) (*AnalyticsReport, error)
	acks        []EventAck
	progresses  []RouteProgress
}

func (f *fakeSyncGateway) AcknowledgeEvent(ctx context.Context, ack EventAck) error {
	if f.ackFn != nil {
		if err := f.ackFn(ctx, ack); err != nil {
			return err
		}
	}
	f.acks = append(f.acks, ack)
	return nil
}

func (f *fakeSyncGateway) PushRouteProgress(ctx context.Context, progress RouteProgress) error {
	if f.progressFn != nil {
		if err := f.progressFn(ctx, progress); err != nil {
			return err
		}
	}
	f.progresses = append(f.progresses, progress)
	return nil
}

func (f *fakeSyncGateway) FetchAnalytics(ctx context.Context, query AnalyticsQuery) (*AnalyticsReport, error) {
	if f.analyticsFn != nil {
		return f.analyticsFn(ctx, query)
	}
	return &AnalyticsReport{}, nil
}

type fakePublisher struct {
	publishFn func(context.Context, domain.DomainEvent) error
	published []domain.DomainEvent
}

func (f *fakePublisher) Publish(ctx context.Context, event domain.DomainEvent) error {
	if f.publishFn != nil {
		if err := f.publishFn(ctx, event); err != nil {
			return err
		}
	}
	f.published = append(f.published, event)
	return nil
}

func (f *fakePublisher) PublishAll(ctx context.Context, events []domain.DomainEvent) error {
	for _, event := range events {
		if err := f.Publish(ctx, event); err != nil {
			return err
		}
	}
	return nil
}
