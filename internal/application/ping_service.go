package application

import (
	"context"
	"time"

	"github.com/tms-platform/tracking-service/internal/domain"
	"github.com/tms-platform/tracking-service/pkg/logging"
)

// PingService records GPS samples on the independent ping stream
type PingService struct {
	pings     domain.TrackingPingRepository
	publisher domain.EventPublisher
	logger    *logging.Logger
}

// NewPingService creates a new PingService
func NewPingService(pings domain.TrackingPingRepository, publisher domain.EventPublisher, logger *logging.Logger) *PingService {
	return &PingService{
		pings:     pings,
		publisher: publisher,
		logger:    logger,
	}
}

// RecordPing appends a GPS sample
func (s *PingService) RecordPing(ctx context.Context, cmd RecordPingCommand) (*domain.TrackingPing, error) {
	var recordedAt time.Time
	if cmd.RecordedAt != nil {
		recordedAt = cmd.RecordedAt.UTC()
	}

	ping, err := domain.NewTrackingPing(cmd.ShipmentCode, cmd.DriverID, cmd.Lat, cmd.Lng, cmd.SpeedKph, recordedAt)
	if err != nil {
		return nil, err
	}

	if err := s.pings.Insert(ctx, ping); err != nil {
		return nil, err
	}

	if s.publisher != nil {
		event := &domain.PingRecordedEvent{
			ShipmentCode: ping.ShipmentCode,
			DriverID:     ping.DriverID,
			Lat:          ping.Lat,
			Lng:          ping.Lng,
			RecordedAt:   ping.RecordedAt,
		}
		if err := s.publisher.Publish(ctx, event); err != nil {
			s.logger.WithError(err).Warn("Failed to publish ping event", "shipmentCode", ping.ShipmentCode)
		}
	}

	return ping, nil
}

// ListPings retrieves recent pings for a shipment, newest first
func (s *PingService) ListPings(ctx context.Context, shipmentCode string, limit int64) ([]*domain.TrackingPing, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	return s.pings.FindByShipment(ctx, shipmentCode, limit)
}
