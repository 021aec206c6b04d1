package models

import "time"

type Boost struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	ListingID     uint      `gorm:"not null;index" json:"listing_id"`
	DurationDays  int       `gorm:"not null" json:"duration_days"`
	Amount        int64     `gorm:"not null;default:0" json:"amount"`
	PaymentMethod string    `gorm:"size:20;not null" json:"payment_method"`
	TransactionID string    `gorm:"size:100" json:"transaction_id"`
	StartDate     time.Time `gorm:"not null" json:"start_date"`
	EndDate       time.Time `gorm:"not null;index" json:"end_date"`
	IsActive      bool      `gorm:"not null;default:false;index" json:"is_active"`
	CreatedAt     time.Time `json:"created_at"`

	Listing *Listing `gorm:"foreignKey:ListingID;constraint:OnDelete:CASCADE" json:"listing,omitempty"`
}

func (Boost) TableName() string {
	return "boosts"
}
