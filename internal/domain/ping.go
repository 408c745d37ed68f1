package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TrackingPing is one GPS sample on the independent append-only ping stream
type TrackingPing struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ShipmentCode string             `bson:"shipmentCode" json:"shipmentCode"`
	DriverID     string             `bson:"driverId,omitempty" json:"driverId,omitempty"`
	Lat          float64            `bson:"lat" json:"lat"`
	Lng          float64            `bson:"lng" json:"lng"`
	SpeedKph     *float64           `bson:"speedKph,omitempty" json:"speedKph,omitempty"`
	RecordedAt   time.Time          `bson:"recordedAt" json:"recordedAt"`
	CreatedAt    time.Time          `bson:"createdAt" json:"createdAt"`
}

// NewTrackingPing creates a new GPS ping sample
func NewTrackingPing(shipmentCode, driverID string, lat, lng float64, speedKph *float64, recordedAt time.Time) (*TrackingPing, error) {
	if shipmentCode == "" {
		return nil, ErrShipmentCodeRequired
	}
	if lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return nil, ErrInvalidPingCoordinate
	}

	now := time.Now().UTC()
	if recordedAt.IsZero() {
		recordedAt = now
	}

	return &TrackingPing{
		ShipmentCode: shipmentCode,
		DriverID:     driverID,
		Lat:          lat,
		Lng:          lng,
		SpeedKph:     speedKph,
		RecordedAt:   recordedAt,
		CreatedAt:    now,
	}, nil
}
