package application

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tms-platform/tracking-service/internal/domain"
	"github.com/tms-platform/tracking-service/pkg/logging"
)

// TicketService issues and revokes access tickets that bind opaque tokens to
// shipments for the ingestion and read paths
type TicketService struct {
	tickets   domain.AccessTicketRepository
	shipments domain.ShipmentRepository
	publisher domain.EventPublisher
	logger    *logging.Logger
}

// NewTicketService creates a new TicketService
func NewTicketService(
	tickets domain.AccessTicketRepository,
	shipments domain.ShipmentRepository,
	publisher domain.EventPublisher,
	logger *logging.Logger,
) *TicketService {
	return &TicketService{
		tickets:   tickets,
		shipments: shipments,
		publisher: publisher,
		logger:    logger,
	}
}

// IssueTicket creates an active ticket for an existing shipment
func (s *TicketService) IssueTicket(ctx context.Context, cmd IssueTicketCommand) (*domain.AccessTicket, error) {
	shipment, err := s.shipments.FindByCode(ctx, cmd.ShipmentCode)
	if err != nil {
		return nil, err
	}
	if shipment == nil {
		return nil, domain.ErrShipmentNotFound
	}

	token := fmt.Sprintf("TRK-%s", uuid.New().String())
	ticket, err := domain.NewAccessTicket(token, cmd.OrgID, cmd.WarehouseCode, cmd.ShipmentCode, cmd.IssuedBy)
	if err != nil {
		return nil, err
	}

	if err := s.tickets.Insert(ctx, ticket); err != nil {
		return nil, err
	}

	s.logger.Info("Issued access ticket",
		"token", ticket.Token,
		"shipmentCode", ticket.ShipmentCode,
		"orgId", ticket.OrgID,
	)
	return ticket, nil
}

// RevokeTicket marks a ticket as revoked so it no longer resolves
func (s *TicketService) RevokeTicket(ctx context.Context, cmd RevokeTicketCommand) (*domain.AccessTicket, error) {
	ticket, err := s.tickets.FindByToken(ctx, cmd.Token)
	if err != nil {
		return nil, err
	}
	if ticket == nil {
		return nil, domain.ErrTicketNotFound
	}

	if err := ticket.Revoke(); err != nil {
		return nil, err
	}
	if err := s.tickets.Save(ctx, ticket); err != nil {
		return nil, err
	}

	if s.publisher != nil {
		event := &domain.TicketRevokedEvent{
			Token:        ticket.Token,
			ShipmentCode: ticket.ShipmentCode,
			RevokedBy:    cmd.RevokedBy,
			OccurredAt_:  time.Now().UTC(),
		}
		if err := s.publisher.Publish(ctx, event); err != nil {
			s.logger.WithError(err).Warn("Failed to publish ticket revocation", "token", ticket.Token)
		}
	}

	s.logger.Info("Revoked access ticket", "token", ticket.Token, "shipmentCode", ticket.ShipmentCode)
	return ticket, nil
}
