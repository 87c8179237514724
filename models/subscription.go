package models

import "time"

const SubscriptionTable = "cab_manager_subscriptions"

// ManagerSubscription holds a city manager's browser push subscription.
type ManagerSubscription struct {
	Endpoint  string    `gorm:"primaryKey" json:"endpoint"`
	P256DH    string    `gorm:"column:p256dh;not null" json:"p256dh"`
	Auth      string    `gorm:"not null" json:"auth"`
	CityID    string    `gorm:"type:uuid;index;not null" json:"cityId"`
	CreatedAt time.Time `json:"createdAt"`
}

func (ManagerSubscription) TableName() string { return SubscriptionTable }
