package application

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/tms-platform/tracking-service/internal/domain"
	"github.com/tms-platform/tracking-service/pkg/logging"
	"github.com/tms-platform/tracking-service/pkg/metrics"
)

const rateCounterWindow = time.Minute

// IngestionService is the write-side entry point for scan events. It composes
// the duplicate check, leg validation, tolerant identifier resolution and the
// durable append, then fans out to leg progression, external sync and
// inventory posting. The persisted event is authoritative: side-effect
// failures are logged and swallowed, never surfaced to the caller.
type IngestionService struct {
	shipments domain.ShipmentRepository
	events    domain.ScanEventRepository
	moves     domain.InventoryMoveRepository
	rate      domain.RateCounter
	sync      SyncGateway
	publisher domain.EventPublisher
	metrics   *metrics.Metrics
	logger    *logging.Logger
}

// NewIngestionService creates a new IngestionService
func NewIngestionService(
	shipments domain.ShipmentRepository,
	events domain.ScanEventRepository,
	moves domain.InventoryMoveRepository,
	rate domain.RateCounter,
	sync SyncGateway,
	publisher domain.EventPublisher,
	m *metrics.Metrics,
	logger *logging.Logger,
) *IngestionService {
	return &IngestionService{
		shipments: shipments,
		events:    events,
		moves:     moves,
		rate:      rate,
		sync:      sync,
		publisher: publisher,
		metrics:   m,
		logger:    logger,
	}
}

// IngestEvent validates and persists a scan event, then triggers best-effort
// side effects. Sequencing matters: a duplicate is rejected strictly before
// leg validation and before any side effect runs.
func (s *IngestionService) IngestEvent(ctx context.Context, cmd IngestEventCommand) (*IngestEventResult, error) {
	eventType := domain.EventType(cmd.EventType)
	if !eventType.IsValid() {
		s.recordRejection(cmd.EventType, "invalid_type")
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidEventType, cmd.EventType)
	}

	s.countIngestion(ctx, cmd.FormCode)

	// 1. Duplicate check. The storage layer additionally enforces a unique
	// index on (formCode, type, idempotency key), so a concurrent racer
	// still loses at insert time.
	if cmd.IdempotencyKey != "" {
		exists, err := s.events.HasIdempotencyKey(ctx, cmd.FormCode, eventType, cmd.IdempotencyKey)
		if err != nil {
			return nil, err
		}
		if exists {
			s.recordRejection(cmd.EventType, "duplicate")
			return nil, domain.ErrDuplicateEvent
		}
	}

	// 2. Tolerant identifier resolution + leg validation.
	shipment, shipmentRef, err := s.resolveShipment(ctx, cmd.ShipmentID)
	if err != nil {
		return nil, err
	}
	warehouseRef := cmd.WarehouseID

	if cmd.ShipmentID != "" && warehouseRef != "" {
		if shipment == nil {
			if eventType != domain.EventScan {
				s.recordRejection(cmd.EventType, "unresolved_shipment")
				return nil, fmt.Errorf("%w: %s", domain.ErrShipmentUnresolved, cmd.ShipmentID)
			}
		} else if err := domain.ValidateLeg(shipment.RoutePath, shipment.CurrentLegIndex, warehouseRef, eventType, cmd.RefType); err != nil {
			s.recordRejection(cmd.EventType, "leg_mismatch")
			return nil, err
		}
	}

	// 3. Persist the immutable record.
	payload := cmd.Payload
	if payload == nil {
		payload = make(map[string]interface{})
	}
	if cmd.IdempotencyKey != "" {
		payload[domain.PayloadKeyIdempotency] = cmd.IdempotencyKey
	}

	var recordedAt time.Time
	if cmd.Timestamp != nil {
		recordedAt = cmd.Timestamp.UTC()
	}

	event, err := domain.NewScanEvent(cmd.FormCode, shipmentRef, warehouseRef, eventType, cmd.RefType, payload, cmd.Actor, recordedAt)
	if err != nil {
		return nil, err
	}
	if err := s.events.Insert(ctx, event); err != nil {
		if err == domain.ErrDuplicateEvent {
			s.recordRejection(cmd.EventType, "duplicate")
		}
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.RecordEventIngested(string(eventType))
	}
	s.logger.Info("Scan event ingested",
		"eventId", event.ID.Hex(),
		"formCode", event.FormCode,
		"type", string(event.Type),
		"shipment", shipmentRef,
		"warehouse", warehouseRef,
	)

	// 4. Side effects. Each is independently best-effort: the event is
	// already durable and the response no longer depends on them.
	s.runSideEffects(ctx, event, shipment)

	return &IngestEventResult{EventID: event.ID.Hex(), EventType: string(event.Type)}, nil
}

// resolveShipment resolves a shipment identifier tolerantly: an internal id is
// tried as-is, otherwise the value is treated as a natural code. A lookup miss
// falls back to the original value instead of failing the call.
func (s *IngestionService) resolveShipment(ctx context.Context, identifier string) (*domain.Shipment, string, error) {
	if identifier == "" {
		return nil, "", nil
	}

	var shipment *domain.Shipment
	var err error
	if _, idErr := primitive.ObjectIDFromHex(identifier); idErr == nil {
		shipment, err = s.shipments.FindByID(ctx, identifier)
	} else {
		shipment, err = s.shipments.FindByCode(ctx, identifier)
	}
	if err != nil {
		return nil, "", err
	}
	if shipment == nil {
		return nil, identifier, nil
	}
	return shipment, shipment.ShipmentCode, nil
}

func (s *IngestionService) runSideEffects(ctx context.Context, event *domain.ScanEvent, shipment *domain.Shipment) {
	if shipment != nil {
		s.progressLeg(ctx, event, shipment)
		s.postInventory(ctx, event, shipment)
	}
	s.syncDownstream(ctx, event, shipment)
	s.publishIngested(ctx, event)
}

// progressLeg applies the route leg state machine: self-heal any out-of-range
// stored index, then advance by exactly one stop on a matching gate_in. The
// advance is a conditional write so two racing arrivals converge instead of
// double-stepping.
func (s *IngestionService) progressLeg(ctx context.Context, event *domain.ScanEvent, shipment *domain.Shipment) {
	normalized := shipment.NormalizedLegIndex()
	if normalized != shipment.CurrentLegIndex {
		if err := s.shipments.SetLegIndex(ctx, shipment.ShipmentCode, normalized); err != nil {
			s.logger.WithError(err).Warn("Failed to normalize leg index", "shipment", shipment.ShipmentCode)
		} else {
			shipment.CurrentLegIndex = normalized
		}
	}

	next := domain.NextLegIndex(shipment.RoutePath, normalized, event.WarehouseRef, event.Type)
	if next != normalized {
		applied, err := s.shipments.AdvanceLeg(ctx, shipment.ShipmentCode, normalized, next)
		if err != nil {
			s.logger.WithError(err).Warn("Failed to advance route leg",
				"shipment", shipment.ShipmentCode,
				"fromLeg", normalized,
				"toLeg", next,
			)
		} else if applied {
			shipment.CurrentLegIndex = next
			if s.metrics != nil {
				s.metrics.RecordLegAdvance()
			}
			s.logger.Info("Shipment advanced to next route stop",
				"shipment", shipment.ShipmentCode,
				"warehouse", event.WarehouseRef,
				"fromLeg", normalized,
				"toLeg", next,
			)
			s.publish(ctx, &domain.LegAdvancedEvent{
				ShipmentCode:  shipment.ShipmentCode,
				RouteCode:     shipment.RouteCode,
				WarehouseCode: event.WarehouseRef,
				FromLegIndex:  normalized,
				ToLegIndex:    next,
				OccurredAt_:   event.RecordedAt,
			})
		}
	}

	switch event.Type {
	case domain.EventPOD:
		if err := shipment.MarkDelivered(event.Actor, event.RecordedAt); err != nil {
			s.logger.WithError(err).Warn("Failed to mark shipment delivered", "shipment", shipment.ShipmentCode)
			return
		}
		if err := s.shipments.Save(ctx, shipment); err != nil {
			s.logger.WithError(err).Warn("Failed to persist delivered shipment", "shipment", shipment.ShipmentCode)
			return
		}
		s.publishAll(ctx, shipment)
	default:
		if shipment.Status == domain.ShipmentStatusCreated {
			if err := s.shipments.UpdateStatus(ctx, shipment.ShipmentCode, domain.ShipmentStatusInTransit); err != nil {
				s.logger.WithError(err).Warn("Failed to mark shipment in transit", "shipment", shipment.ShipmentCode)
			} else {
				shipment.Status = domain.ShipmentStatusInTransit
			}
		}
	}
}

// postInventory maps the event to a ledger direction and posts the deltas.
// It relies on the gateway's duplicate rejection upstream and keeps no
// duplicate guard of its own.
func (s *IngestionService) postInventory(ctx context.Context, event *domain.ScanEvent, shipment *domain.Shipment) {
	direction := domain.MovementDirection(event.Type, event.RefType)
	if direction == domain.DirectionNone {
		return
	}

	moves := shipment.PostMovements(direction, event.WarehouseRef, event.Type, event.RecordedAt)
	if len(moves) == 0 {
		return
	}

	if err := s.moves.InsertAll(ctx, moves); err != nil {
		s.logger.WithError(err).Warn("Failed to append inventory moves",
			"shipment", shipment.ShipmentCode,
			"direction", string(direction),
		)
		return
	}
	if err := s.shipments.UpdateLines(ctx, shipment.ShipmentCode, shipment.Lines); err != nil {
		s.logger.WithError(err).Warn("Failed to persist line counters", "shipment", shipment.ShipmentCode)
	}

	if s.metrics != nil {
		s.metrics.RecordMovementPosted(string(direction), len(moves))
	}
	s.publishAll(ctx, shipment)
}

// syncDownstream acknowledges the event on the external platform, then pushes
// updated route progress. The two calls are sequenced but not transactional.
func (s *IngestionService) syncDownstream(ctx context.Context, event *domain.ScanEvent, shipment *domain.Shipment) {
	if s.sync == nil {
		return
	}

	ack := EventAck{
		EventID:       event.ID.Hex(),
		FormCode:      event.FormCode,
		EventType:     string(event.Type),
		ShipmentCode:  event.ShipmentRef,
		WarehouseCode: event.WarehouseRef,
		RecordedAt:    event.RecordedAt,
	}
	if err := s.sync.AcknowledgeEvent(ctx, ack); err != nil {
		s.logger.WithError(err).Warn("External sync ack failed", "eventId", ack.EventID)
		return
	}

	if shipment == nil {
		return
	}
	progress := RouteProgress{
		ShipmentCode: shipment.ShipmentCode,
		RouteCode:    shipment.RouteCode,
		LegIndex:     shipment.NormalizedLegIndex(),
		RoutePath:    shipment.RoutePath,
		UpdatedAt:    shipment.UpdatedAt,
	}
	if err := s.sync.PushRouteProgress(ctx, progress); err != nil {
		s.logger.WithError(err).Warn("External sync progress push failed", "shipment", shipment.ShipmentCode)
	}
}

func (s *IngestionService) publishIngested(ctx context.Context, event *domain.ScanEvent) {
	s.publish(ctx, &domain.ScanEventIngestedEvent{
		EventID:       event.ID.Hex(),
		FormCode:      event.FormCode,
		ScanType:      string(event.Type),
		ShipmentCode:  event.ShipmentRef,
		WarehouseCode: event.WarehouseRef,
		RefType:       event.RefType,
		Actor:         event.Actor,
		RecordedAt:    event.RecordedAt,
	})
}

func (s *IngestionService) publish(ctx context.Context, event domain.DomainEvent) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.WithError(err).Warn("Failed to publish domain event", "eventType", event.EventType())
	}
}

func (s *IngestionService) publishAll(ctx context.Context, shipment *domain.Shipment) {
	events := shipment.GetDomainEvents()
	if len(events) == 0 {
		return
	}
	shipment.ClearDomainEvents()
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishAll(ctx, events); err != nil {
		s.logger.WithError(err).Warn("Failed to publish domain events", "shipment", shipment.ShipmentCode)
	}
}

// countIngestion bumps the shared per-form rate counter. The count is
// auxiliary accounting, not a correctness gate, so failures only log.
func (s *IngestionService) countIngestion(ctx context.Context, formCode string) {
	if s.rate == nil {
		return
	}
	if _, err := s.rate.Increment(ctx, "ingest:"+formCode, rateCounterWindow); err != nil {
		s.logger.WithError(err).Debug("Rate counter increment failed", "formCode", formCode)
	}
}

func (s *IngestionService) recordRejection(eventType, reason string) {
	if s.metrics != nil {
		s.metrics.RecordEventRejected(eventType, reason)
	}
}
