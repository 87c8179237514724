package models

import "time"

const UnlockLogTable = "cab_unlock_log"

const (
	UnlockSourcePickup = "pickup"
	UnlockSourceManual = "manual"
)

// UnlockLog records every cabinet unlock for audit. The lock hardware itself
// is driven elsewhere; this row is the paper trail.
type UnlockLog struct {
	ID         string    `gorm:"type:uuid;primaryKey" json:"id"`
	CityID     string    `gorm:"type:uuid;index;not null" json:"cityId"`
	RequestID  *string   `gorm:"type:uuid" json:"requestId,omitempty"`
	ActorName  string    `gorm:"size:200" json:"actorName"`
	ActorPhone string    `gorm:"size:40" json:"actorPhone"`
	Source     string    `gorm:"size:20;not null" json:"source"`
	Reason     *string   `json:"reason,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

func (UnlockLog) TableName() string { return UnlockLogTable }
