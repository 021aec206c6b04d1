package models

import "time"

type Favorite struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index:idx_fav_user_listing,unique" json:"user_id"`
	ListingID uint      `gorm:"not null;index:idx_fav_user_listing,unique;index" json:"listing_id"`
	CreatedAt time.Time `json:"created_at"`

	User    User     `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Listing *Listing `gorm:"foreignKey:ListingID;constraint:OnDelete:CASCADE" json:"listing,omitempty"`
}

func (Favorite) TableName() string {
	return "favorites"
}

// ViewEvent is an append-only ledger row for an authenticated listing view.
type ViewEvent struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    *uint     `gorm:"index:idx_view_user_listing,priority:1" json:"user_id"`
	ListingID uint      `gorm:"not null;index:idx_view_user_listing,priority:2;index" json:"listing_id"`
	IPAddress string    `gorm:"size:45" json:"ip_address"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`

	Listing *Listing `gorm:"foreignKey:ListingID;constraint:OnDelete:CASCADE" json:"listing,omitempty"`
}

func (ViewEvent) TableName() string {
	return "view_events"
}
