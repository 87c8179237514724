package models

import "time"

const StockTable = "cab_equipment_stock"

// EquipmentStock is one equipment line in a city's cabinet inventory.
// Quantity is the contended column: it is only ever changed through
// conditional updates that keep it non-negative.
type EquipmentStock struct {
	ID     string `gorm:"type:uuid;primaryKey" json:"id"`
	CityID string `gorm:"type:uuid;index:idx_stock_city_name,unique;not null" json:"cityId"`
	Name   string `gorm:"size:200;index:idx_stock_city_name,unique;not null" json:"name"`

	Quantity   int  `gorm:"not null;default:0" json:"quantity"`
	Working    bool `gorm:"not null;default:true" json:"working"`
	Consumable bool `gorm:"not null;default:false" json:"consumable"`

	// Managers get a low-stock mail when quantity falls to this level or below.
	MinQuantity int `gorm:"not null;default:0" json:"minQuantity"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (EquipmentStock) TableName() string { return StockTable }
