package models

import (
	"time"
)

// StopStatus is the lifecycle state of a bus stop.
type StopStatus string

const (
	StopActive            StopStatus = "active"
	StopInactive          StopStatus = "inactive"
	StopUnderConstruction StopStatus = "under_construction"
)

// Valid reports whether s is one of the known stop states.
func (s StopStatus) Valid() bool {
	switch s {
	case StopActive, StopInactive, StopUnderConstruction:
		return true
	}
	return false
}

// Coordinates is a WGS84 position kept as two plain columns
// (latitude, longitude) rather than a database geometry type.
type Coordinates struct {
	Latitude  float64 `json:"latitude" gorm:"column:latitude;not null"`
	Longitude float64 `json:"longitude" gorm:"column:longitude;not null"`
}

// Stop represents a physical bus stop. Name is the natural key used
// by the importer to resolve links.
type Stop struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	Name        string      `gorm:"size:255;not null;uniqueIndex" json:"name"`
	Description string      `gorm:"type:text" json:"description,omitempty"`
	Coordinates Coordinates `gorm:"embedded" json:"coordinates"`
	Address     string      `gorm:"size:255" json:"address,omitempty"`
	Landmarks   string      `gorm:"type:text" json:"landmarks,omitempty"`
	Status      StopStatus  `gorm:"size:32;not null;default:active" json:"status"`
}

func (Stop) TableName() string {
	return "bus_stops"
}
