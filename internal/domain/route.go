package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// RouteStatus represents the route lifecycle status
type RouteStatus string

const (
	RouteStatusPlanned   RouteStatus = "planned"
	RouteStatusActive    RouteStatus = "active"
	RouteStatusCompleted RouteStatus = "completed"
)

// IsValid checks if the route status is valid
func (s RouteStatus) IsValid() bool {
	switch s {
	case RouteStatusPlanned, RouteStatusActive, RouteStatusCompleted:
		return true
	}
	return false
}

// StopStatus is the derived per-stop status of a route
type StopStatus string

const (
	StopStatusCompleted StopStatus = "completed"
	StopStatusActive    StopStatus = "active"
	StopStatusPending   StopStatus = "pending"
)

// RouteStop is one planned stop on a route, ordered by sequence number
type RouteStop struct {
	Sequence         int        `bson:"sequence" json:"sequence"`
	WarehouseCode    string     `bson:"warehouseCode" json:"warehouseCode"`
	PlannedArrival   *time.Time `bson:"plannedArrival,omitempty" json:"plannedArrival,omitempty"`
	PlannedDeparture *time.Time `bson:"plannedDeparture,omitempty" json:"plannedDeparture,omitempty"`
}

// Route is an ordered multi-stop plan that zero or more shipments follow
type Route struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	RouteCode string             `bson:"routeCode" json:"routeCode"`
	OrgID     string             `bson:"orgId" json:"orgId"`
	Status    RouteStatus        `bson:"status" json:"status"`
	Stops     []RouteStop        `bson:"stops" json:"stops"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// Path returns the route's ordered warehouse codes
func (r *Route) Path() []string {
	path := make([]string, 0, len(r.Stops))
	for _, stop := range r.Stops {
		path = append(path, stop.WarehouseCode)
	}
	return path
}

// ActiveLegIndex derives how far along the route is: the maximum leg index
// over all assigned shipments, clamped to the path range. A route with no
// shipments has not started and reports 0.
func ActiveLegIndex(path []string, shipments []*Shipment) int {
	active := 0
	for _, s := range shipments {
		if idx := s.NormalizedLegIndex(); idx > active {
			active = idx
		}
	}
	return NormalizeLegIndex(path, active)
}

// StopStatusAt derives the status of the stop at position p given the route's
// active leg index. Stops at or before the active leg are completed, the next
// stop is active, everything beyond is pending.
func StopStatusAt(p, activeLegIndex int) StopStatus {
	switch {
	case p <= activeLegIndex:
		return StopStatusCompleted
	case p == activeLegIndex+1:
		return StopStatusActive
	default:
		return StopStatusPending
	}
}

// StopStatusFor derives the status of a warehouse relative to a route path.
// A warehouse absent from the path is always pending.
func StopStatusFor(path []string, activeLegIndex int, warehouse string) StopStatus {
	for p, code := range path {
		if code == warehouse {
			return StopStatusAt(p, activeLegIndex)
		}
	}
	return StopStatusPending
}

// DeriveStopStatuses derives the status of every stop on the path in order
func DeriveStopStatuses(path []string, activeLegIndex int) []StopStatus {
	statuses := make([]StopStatus, len(path))
	for p := range path {
		statuses[p] = StopStatusAt(p, activeLegIndex)
	}
	return statuses
}
