package application

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tms-platform/tracking-service/internal/domain"
)

func scanEventAt(t *testing.T, eventType domain.EventType, warehouse string, payload map[string]interface{}, at time.Time) *domain.ScanEvent {
	t.Helper()
	event, err := domain.NewScanEvent("FRM-001", "SHP-1001", warehouse, eventType, "", payload, "", at)
	require.NoError(t, err)
	return event
}

func newTimelineFixture(events *fakeEventRepo, shipments *fakeShipmentRepo, tickets *fakeTicketRepo) *TimelineService {
	if events == nil {
		events = &fakeEventRepo{}
	}
	if shipments == nil {
		shipments = &fakeShipmentRepo{}
	}
	if tickets == nil {
		tickets = &fakeTicketRepo{}
	}
	return NewTimelineService(events, shipments, tickets, nil, testLogger())
}

// TestGetTimelineNotFound tests unknown tokens yield a not-found error
func TestGetTimelineNotFound(t *testing.T) {
	service := newTimelineFixture(nil, nil, nil)

	view, err := service.GetTimeline(context.Background(), "SHP-UNKNOWN")
	assert.ErrorIs(t, err, domain.ErrTimelineNotFound)
	assert.Nil(t, view)
}

// TestGetTimelineDemoFixture tests the reserved token synthesizes a timeline
func TestGetTimelineDemoFixture(t *testing.T) {
	service := newTimelineFixture(nil, nil, nil)

	view, err := service.GetTimeline(context.Background(), DemoTrackingToken)
	require.NoError(t, err)
	require.NotNil(t, view)
	assert.Equal(t, TimelineStatusInTransit, view.Status)
	require.Len(t, view.Events, 3)
	assert.Equal(t, EntryStatusInProgress, view.Events[2].Status)
}

// TestGetTimelineProjection tests status derivation along the canonical ordering
func TestGetTimelineProjection(t *testing.T) {
	base := time.Date(2026, 8, 25, 9, 0, 0, 0, time.UTC)
	eventsRepo := &fakeEventRepo{
		findByKeyFn: func(_ context.Context, key string) ([]*domain.ScanEvent, error) {
			return []*domain.ScanEvent{
				scanEventAt(t, domain.EventGateIn, "WH-A", nil, base),
				scanEventAt(t, domain.EventLoadStart, "WH-A", nil, base.Add(time.Hour)),
				scanEventAt(t, domain.EventLoadFinish, "WH-A", map[string]interface{}{"eta": "2026-08-29T12:00:00Z"}, base.Add(2*time.Hour)),
			}, nil
		},
	}
	shipmentsRepo := &fakeShipmentRepo{
		findByCodeFn: func(_ context.Context, code string) (*domain.Shipment, error) {
			shipment, err := domain.NewShipment("SHP-1001", "ORG-01", "WH-A", "RT-01", []string{"WH-A", "WH-B"}, nil)
			require.NoError(t, err)
			shipment.Customer = "Acme Logistics Ltd"
			shipment.Origin = "WH-A"
			shipment.Destination = "WH-B"
			return shipment, nil
		},
	}

	service := newTimelineFixture(eventsRepo, shipmentsRepo, nil)
	view, err := service.GetTimeline(context.Background(), "SHP-1001")
	require.NoError(t, err)

	assert.Equal(t, TimelineStatusInTransit, view.Status)
	assert.Equal(t, "Acme Logistics Ltd", view.Customer)
	// estimated delivery read only from the latest event
	assert.Equal(t, "2026-08-29T12:00:00Z", view.EstimatedDelivery)

	require.Len(t, view.Events, 3)
	assert.Equal(t, EntryStatusCompleted, view.Events[0].Status)
	assert.Equal(t, EntryStatusCompleted, view.Events[1].Status)
	assert.Equal(t, EntryStatusInProgress, view.Events[2].Status)
	assert.Equal(t, "WH-A", view.Events[0].Location)
}

// TestGetTimelineDelivered tests a trailing pod yields the delivered status
func TestGetTimelineDelivered(t *testing.T) {
	base := time.Date(2026, 8, 25, 9, 0, 0, 0, time.UTC)
	eventsRepo := &fakeEventRepo{
		findByKeyFn: func(_ context.Context, key string) ([]*domain.ScanEvent, error) {
			return []*domain.ScanEvent{
				scanEventAt(t, domain.EventGateIn, "WH-A", nil, base),
				scanEventAt(t, domain.EventGateOut, "WH-A", nil, base.Add(time.Hour)),
				scanEventAt(t, domain.EventPOD, "", nil, base.Add(8*time.Hour)),
			}, nil
		},
	}

	service := newTimelineFixture(eventsRepo, nil, nil)
	view, err := service.GetTimeline(context.Background(), "SHP-1001")
	require.NoError(t, err)

	assert.Equal(t, TimelineStatusDelivered, view.Status)
	assert.Equal(t, EntryStatusCompleted, view.Events[0].Status)
	assert.Equal(t, EntryStatusCompleted, view.Events[1].Status)
	assert.Equal(t, EntryStatusInProgress, view.Events[2].Status)
	assert.Empty(t, view.EstimatedDelivery)
}

// TestGetTimelineScanWildcard tests scans complete when they are not latest
func TestGetTimelineScanWildcard(t *testing.T) {
	base := time.Date(2026, 8, 25, 9, 0, 0, 0, time.UTC)
	eventsRepo := &fakeEventRepo{
		findByKeyFn: func(_ context.Context, key string) ([]*domain.ScanEvent, error) {
			return []*domain.ScanEvent{
				scanEventAt(t, domain.EventScan, "WH-A", nil, base),
				scanEventAt(t, domain.EventGateOut, "WH-A", nil, base.Add(time.Hour)),
				scanEventAt(t, domain.EventScan, "WH-B", nil, base.Add(2*time.Hour)),
			}, nil
		},
	}

	service := newTimelineFixture(eventsRepo, nil, nil)
	view, err := service.GetTimeline(context.Background(), "SHP-1001")
	require.NoError(t, err)

	assert.Equal(t, TimelineStatusInTransit, view.Status)
	assert.Equal(t, EntryStatusCompleted, view.Events[0].Status)
	assert.Equal(t, EntryStatusCompleted, view.Events[1].Status)
	assert.Equal(t, EntryStatusInProgress, view.Events[2].Status)
}

// TestGetTimelineSparsePayloadFallbacks tests location/description placeholders
func TestGetTimelineSparsePayloadFallbacks(t *testing.T) {
	eventsRepo := &fakeEventRepo{
		findByKeyFn: func(_ context.Context, key string) ([]*domain.ScanEvent, error) {
			event, err := domain.NewScanEvent("FRM-001", "SHP-1001", "", domain.EventScan, "", nil, "", time.Now())
			require.NoError(t, err)
			return []*domain.ScanEvent{event}, nil
		},
	}

	service := newTimelineFixture(eventsRepo, nil, nil)
	view, err := service.GetTimeline(context.Background(), "SHP-1001")
	require.NoError(t, err)

	require.Len(t, view.Events, 1)
	assert.Equal(t, "In transit", view.Events[0].Location)
	assert.Equal(t, "Checkpoint scan", view.Events[0].Description)
}

// TestGetTimelineTicketToken tests access ticket tokens resolve to shipments
func TestGetTimelineTicketToken(t *testing.T) {
	var lookedUp string
	eventsRepo := &fakeEventRepo{
		findByKeyFn: func(_ context.Context, key string) ([]*domain.ScanEvent, error) {
			lookedUp = key
			return []*domain.ScanEvent{
				scanEventAt(t, domain.EventGateIn, "WH-A", nil, time.Now().UTC()),
			}, nil
		},
	}
	ticketsRepo := &fakeTicketRepo{
		findByTokenFn: func(_ context.Context, token string) (*domain.AccessTicket, error) {
			if token == "TRK-abc" {
				ticket, err := domain.NewAccessTicket("TRK-abc", "ORG-01", "WH-A", "SHP-1001", "ops")
				require.NoError(t, err)
				return ticket, nil
			}
			return nil, nil
		},
	}

	service := newTimelineFixture(eventsRepo, nil, ticketsRepo)
	_, err := service.GetTimeline(context.Background(), "TRK-abc")
	require.NoError(t, err)
	assert.Equal(t, "SHP-1001", lookedUp)
}

// TestGetTimelineRevokedTicket tests revoked tickets no longer resolve
func TestGetTimelineRevokedTicket(t *testing.T) {
	var lookedUp string
	eventsRepo := &fakeEventRepo{
		findByKeyFn: func(_ context.Context, key string) ([]*domain.ScanEvent, error) {
			lookedUp = key
			return nil, nil
		},
	}
	ticketsRepo := &fakeTicketRepo{
		findByTokenFn: func(_ context.Context, token string) (*domain.AccessTicket, error) {
			ticket, err := domain.NewAccessTicket(token, "ORG-01", "WH-A", "SHP-1001", "ops")
			require.NoError(t, err)
			require.NoError(t, ticket.Revoke())
			return ticket, nil
		},
	}

	service := newTimelineFixture(eventsRepo, nil, ticketsRepo)
	_, err := service.GetTimeline(context.Background(), "TRK-dead")
	assert.ErrorIs(t, err, domain.ErrTimelineNotFound)
	assert.Equal(t, "TRK-dead", lookedUp)
}
