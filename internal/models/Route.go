package models

import (
	"time"
)

// RouteStatus is the service state of a route.
type RouteStatus string

const (
	RouteActive   RouteStatus = "active"
	RouteInactive RouteStatus = "inactive"
	RouteSeasonal RouteStatus = "seasonal"
)

func (s RouteStatus) Valid() bool {
	switch s {
	case RouteActive, RouteInactive, RouteSeasonal:
		return true
	}
	return false
}

// DefaultRouteColor is assigned when a route is created without a color.
const DefaultRouteColor = "#3498db"

// OperatingHours is the daily service window of a route. Start and End
// use the 24h "HH:MM" form.
type OperatingHours struct {
	Start string   `json:"start,omitempty" yaml:"start,omitempty"`
	End   string   `json:"end,omitempty" yaml:"end,omitempty"`
	Days  []string `json:"days,omitempty" yaml:"days,omitempty"`
}

// Route represents a bus line. Code is unique and doubles as the
// natural key for imports.
type Route struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	Name           string          `gorm:"size:255;not null" json:"name"`
	Code           string          `gorm:"size:50;not null;uniqueIndex" json:"code"`
	Color          string          `gorm:"size:7;not null;default:'#3498db'" json:"color"`
	Description    string          `gorm:"type:text" json:"description,omitempty"`
	OperatingHours *OperatingHours `gorm:"serializer:json;type:text" json:"operatingHours,omitempty"`
	FarePrice      *float64        `gorm:"type:numeric(5,2)" json:"farePrice,omitempty"`
	Status         RouteStatus     `gorm:"size:32;not null;default:active" json:"status"`
}

func (Route) TableName() string {
	return "bus_routes"
}
