package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// InventoryMove is one posted ledger delta. Moves are derived from accepted
// scan events but stored independently for audit; they are append-only.
type InventoryMove struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ShipmentCode  string             `bson:"shipmentCode" json:"shipmentCode"`
	WarehouseCode string             `bson:"warehouseCode" json:"warehouseCode"`
	ProductCode   string             `bson:"productCode" json:"productCode"`
	Quantity      int                `bson:"quantity" json:"quantity"`
	Direction     Direction          `bson:"direction" json:"direction"`
	TriggerType   EventType          `bson:"triggerType" json:"triggerType"`
	PostedAt      time.Time          `bson:"postedAt" json:"postedAt"`
}
