package models

import (
	"fmt"
	"strings"
	"time"
)

// Direction is one of the two traversal orders of a route.
type Direction string

const (
	Outbound Direction = "outbound"
	Inbound  Direction = "inbound"
)

// Directions lists both directions in presentation order.
var Directions = []Direction{Outbound, Inbound}

func (d Direction) Valid() bool {
	return d == Outbound || d == Inbound
}

// ParseDirection accepts a direction name in any letter case.
func ParseDirection(raw string) (Direction, error) {
	d := Direction(strings.ToLower(strings.TrimSpace(raw)))
	if !d.Valid() {
		return "", fmt.Errorf("unknown direction %q", raw)
	}
	return d, nil
}

// RouteStop is a directional, ordered edge between a Route and a Stop.
// For a given (RouteID, Direction) every StopOrder is unique; rows are
// never renumbered in place, a reorder is a delete followed by a create.
type RouteStop struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	RouteID   uint      `gorm:"not null;uniqueIndex:idx_route_direction_order,priority:1;index" json:"routeId"`
	Direction Direction `gorm:"size:16;not null;uniqueIndex:idx_route_direction_order,priority:2" json:"direction"`
	StopOrder int       `gorm:"not null;uniqueIndex:idx_route_direction_order,priority:3" json:"stopOrder"`
	StopID    uint      `gorm:"not null;index" json:"stopId"`

	AverageArrivalTime   *int     `json:"averageArrivalTime,omitempty"` // minutes
	DistanceFromPrevious *float64 `gorm:"type:numeric(8,2)" json:"distanceFromPrevious,omitempty"`

	// Associations; deleting a referenced route or stop is refused.
	Route *Route `gorm:"foreignKey:RouteID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT;" json:"route,omitempty"`
	Stop  *Stop  `gorm:"foreignKey:StopID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT;" json:"stop,omitempty"`
}

func (RouteStop) TableName() string {
	return "route_stops"
}

// Distance returns DistanceFromPrevious, treating an absent value as 0.
func (rs RouteStop) Distance() float64 {
	if rs.DistanceFromPrevious == nil {
		return 0
	}
	return *rs.DistanceFromPrevious
}
