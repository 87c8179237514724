package models

import "time"

const RequestTable = "cab_requests"
const RequestItemTable = "cab_request_items"

// Request statuses. "expired" is derived at read time from ExpiresAt and is
// only materialized when some other write touches the row anyway.
const (
	RequestPending   = "pending"
	RequestApproved  = "approved"
	RequestRejected  = "rejected"
	RequestCancelled = "cancelled"
	RequestPickedUp  = "picked_up"
	RequestExpired   = "expired"
)

// EquipmentRequest is a volunteer's reservation of cabinet equipment.
// Only the sha256 hash of the pickup token is stored; the raw token goes
// back to the requester once and is never persisted.
type EquipmentRequest struct {
	ID     string `gorm:"type:uuid;primaryKey" json:"id"`
	CityID string `gorm:"type:uuid;index;not null" json:"cityId"`

	RequesterName  string  `gorm:"size:200;not null" json:"requesterName"`
	RequesterPhone string  `gorm:"size:40;not null" json:"requesterPhone"`
	CallID         *string `gorm:"size:80" json:"callId,omitempty"`

	// Requester location at submit time, when the client supplied one.
	Lat *float64 `json:"lat,omitempty"`
	Lng *float64 `json:"lng,omitempty"`

	TokenHash string    `gorm:"size:64;uniqueIndex;not null" json:"-"`
	ExpiresAt time.Time `gorm:"index;not null" json:"expiresAt"`

	Status     string     `gorm:"size:20;index;not null;default:'pending'" json:"status"`
	ApprovedAt *time.Time `json:"approvedAt,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	Items []RequestItem `gorm:"foreignKey:RequestID" json:"items,omitempty"`
}

func (EquipmentRequest) TableName() string { return RequestTable }

// RequestItem is one equipment line of a request. Created atomically with the
// parent and never mutated afterwards.
type RequestItem struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	RequestID string `gorm:"type:uuid;index;not null" json:"requestId"`
	StockID   string `gorm:"type:uuid;index;not null" json:"stockId"`
	Quantity  int    `gorm:"not null" json:"quantity"`
}

func (RequestItem) TableName() string { return RequestItemTable }
