package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TicketStatus represents the access ticket lifecycle status
type TicketStatus string

const (
	TicketStatusActive  TicketStatus = "active"
	TicketStatusRevoked TicketStatus = "revoked"
)

// AccessTicket binds a presented token to an (organization, warehouse,
// shipment) triple. Tokens resolve shipments for both ingestion and read
// paths; revoked tickets no longer resolve.
type AccessTicket struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Token         string             `bson:"token" json:"token"`
	OrgID         string             `bson:"orgId" json:"orgId"`
	WarehouseCode string             `bson:"warehouseCode,omitempty" json:"warehouseCode,omitempty"`
	ShipmentCode  string             `bson:"shipmentCode" json:"shipmentCode"`
	Status        TicketStatus       `bson:"status" json:"status"`
	IssuedBy      string             `bson:"issuedBy,omitempty" json:"issuedBy,omitempty"`
	CreatedAt     time.Time          `bson:"createdAt" json:"createdAt"`
	RevokedAt     *time.Time         `bson:"revokedAt,omitempty" json:"revokedAt,omitempty"`
}

// NewAccessTicket issues a new active ticket for a shipment
func NewAccessTicket(token, orgID, warehouseCode, shipmentCode, issuedBy string) (*AccessTicket, error) {
	if shipmentCode == "" {
		return nil, ErrShipmentCodeRequired
	}
	if orgID == "" {
		return nil, ErrOrganizationRequired
	}

	return &AccessTicket{
		Token:         token,
		OrgID:         orgID,
		WarehouseCode: warehouseCode,
		ShipmentCode:  shipmentCode,
		Status:        TicketStatusActive,
		IssuedBy:      issuedBy,
		CreatedAt:     time.Now().UTC(),
	}, nil
}

// IsActive reports whether the ticket still resolves
func (t *AccessTicket) IsActive() bool {
	return t.Status == TicketStatusActive
}

// Revoke marks the ticket revoked
func (t *AccessTicket) Revoke() error {
	if t.Status == TicketStatusRevoked {
		return ErrTicketAlreadyRevoked
	}
	now := time.Now().UTC()
	t.Status = TicketStatusRevoked
	t.RevokedAt = &now
	return nil
}
