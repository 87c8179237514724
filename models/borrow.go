package models

import "time"

const BorrowTable = "cab_borrows"

const (
	BorrowBorrowed        = "borrowed"
	BorrowReturned        = "returned"
	BorrowPendingApproval = "pending_approval"
)

// BorrowRecord is the durable audit row of one borrowed equipment line.
// It outlives the request that produced it.
type BorrowRecord struct {
	ID       string `gorm:"type:uuid;primaryKey" json:"id"`
	CityID   string `gorm:"type:uuid;index;not null" json:"cityId"`
	CityName string `gorm:"size:200;not null" json:"cityName"`

	BorrowerName  string `gorm:"size:200;not null" json:"borrowerName"`
	BorrowerPhone string `gorm:"size:40;not null" json:"borrowerPhone"`
	// Digits-only, country code folded; used for the overdue lockout lookup.
	NormalizedPhone string `gorm:"size:40;index:idx_borrow_phone_status" json:"-"`

	StockID       string `gorm:"type:uuid;index" json:"stockId"`
	EquipmentName string `gorm:"size:200;not null" json:"equipmentName"`
	Quantity      int    `gorm:"not null;default:1" json:"quantity"`

	Status     string     `gorm:"size:20;index:idx_borrow_phone_status;not null;default:'borrowed'" json:"status"`
	BorrowedAt time.Time  `gorm:"index;not null" json:"borrowedAt"`
	ReturnedAt *time.Time `json:"returnedAt,omitempty"`

	// Only ever advances forward, and only by the overdue sweep.
	LastReminderAt *time.Time `json:"lastReminderAt,omitempty"`

	Signature string  `gorm:"type:text" json:"-"`
	RequestID *string `gorm:"type:uuid;index" json:"requestId,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (BorrowRecord) TableName() string { return BorrowTable }
