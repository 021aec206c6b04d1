package models

import (
	"time"

	"gorm.io/datatypes"
)

type Category struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:100;not null" json:"name"`
	Slug      string    `gorm:"uniqueIndex;size:120;not null" json:"slug"`
	Icon      string    `gorm:"size:50" json:"icon"`
	ParentID  *uint     `gorm:"index" json:"parent_id"`
	CreatedAt time.Time `json:"created_at"`

	Parent *Category `gorm:"foreignKey:ParentID;constraint:OnDelete:SET NULL" json:"-"`
}

func (Category) TableName() string {
	return "categories"
}

type Listing struct {
	ID           uint              `gorm:"primaryKey" json:"id"`
	UserID       uint              `gorm:"not null;index" json:"user_id"`
	CategoryID   *uint             `gorm:"index" json:"category_id"`
	BuyerID      *uint             `gorm:"index" json:"buyer_id"`
	Title        string            `gorm:"size:200;not null" json:"title"`
	Slug         string            `gorm:"uniqueIndex;size:255;not null" json:"slug"`
	Description  string            `gorm:"type:text" json:"description"`
	Price        int64             `gorm:"not null;default:0" json:"price"`
	Currency     string            `gorm:"size:3;not null;default:XAF" json:"currency"`
	City         string            `gorm:"size:100;index" json:"city"`
	Region       string            `gorm:"size:100" json:"region"`
	Condition    string            `gorm:"column:item_condition;size:20;not null;default:OCCASION" json:"condition"`
	Status       string            `gorm:"size:20;not null;default:ACTIVE;index" json:"status"`
	IsNegotiable bool              `gorm:"not null;default:false" json:"is_negotiable"`
	IsFeatured   bool              `gorm:"not null;default:false;index" json:"is_featured"`
	ViewsCount   int64             `gorm:"not null;default:0" json:"views_count"`
	Attributes   datatypes.JSONMap `gorm:"type:json" json:"attributes"`
	CreatedAt    time.Time         `gorm:"index" json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`

	User     *User     `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"owner,omitempty"`
	Buyer    *User     `gorm:"foreignKey:BuyerID;constraint:OnDelete:SET NULL" json:"-"`
	Category *Category `gorm:"foreignKey:CategoryID;constraint:OnDelete:SET NULL" json:"category,omitempty"`
	Photos   []Photo   `gorm:"foreignKey:ListingID;constraint:OnDelete:CASCADE" json:"photos"`
}

func (Listing) TableName() string {
	return "listings"
}

type Photo struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	ListingID    uint      `gorm:"not null;index" json:"listing_id"`
	URL          string    `gorm:"size:512;not null" json:"url"`
	ThumbnailURL string    `gorm:"size:512" json:"thumbnail_url"`
	IsMain       bool      `gorm:"not null;default:false" json:"is_main"`
	CreatedAt    time.Time `json:"created_at"`
}

func (Photo) TableName() string {
	return "photos"
}
