package models

import "time"

const CityTable = "cab_cities"

// City access modes. In request mode volunteers file a request and wait for
// manager approval; in direct mode the cabinet opens without a request flow.
const (
	CityModeRequest = "request"
	CityModeDirect  = "direct"
)

// City is the configuration row for one equipment cabinet deployment.
// The lifecycle code only reads it; provisioning happens elsewhere.
type City struct {
	ID     string `gorm:"type:uuid;primaryKey" json:"id"`
	Name   string `gorm:"size:200;uniqueIndex;not null" json:"name"`
	Active bool   `gorm:"not null;default:true" json:"active"`
	Mode   string `gorm:"size:20;not null;default:'request'" json:"mode"`

	RequireCallID bool `gorm:"not null;default:false" json:"requireCallId"`

	// Geofence: requests farther than MaxDistanceKM from the cabinet are
	// rejected. Nil limit or missing cabinet coordinates disables the check.
	MaxDistanceKM *float64 `json:"maxDistanceKm,omitempty"`
	CabinetLat    *float64 `json:"cabinetLat,omitempty"`
	CabinetLng    *float64 `json:"cabinetLng,omitempty"`

	ManagerEmail string `gorm:"size:255" json:"managerEmail"`
	ManagerKey   string `gorm:"size:128" json:"-"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (City) TableName() string { return CityTable }
