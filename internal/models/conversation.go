package models

import (
	"fmt"
	"time"
)

// Conversation is a two-party thread about one listing. ParticipantKey is the
// ordered pair "low:high" of participant ids so the unique index covers the
// unordered pair.
type Conversation struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	ListingID      *uint     `gorm:"uniqueIndex:idx_conv_listing_pair" json:"listing_id"`
	ParticipantKey string    `gorm:"size:64;not null;uniqueIndex:idx_conv_listing_pair" json:"-"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `gorm:"index" json:"updated_at"`

	Listing      *Listing  `gorm:"foreignKey:ListingID;constraint:OnDelete:SET NULL" json:"listing,omitempty"`
	Participants []User    `gorm:"many2many:conversation_participants" json:"participants"`
	Messages     []Message `gorm:"foreignKey:ConversationID;constraint:OnDelete:CASCADE" json:"-"`
}

func (Conversation) TableName() string {
	return "conversations"
}

// PairKey returns the participant key for an unordered pair of users.
func PairKey(a, b uint) string {
	if a > b {
		a, b = b, a
	}
	return fmt.Sprintf("%d:%d", a, b)
}

type Message struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	ConversationID uint      `gorm:"not null;index" json:"conversation_id"`
	SenderID       uint      `gorm:"not null;index" json:"sender_id"`
	Content        string    `gorm:"type:text;not null" json:"content"`
	IsRead         bool      `gorm:"not null;default:false;index" json:"is_read"`
	CreatedAt      time.Time `gorm:"index" json:"created_at"`

	Sender *User `gorm:"foreignKey:SenderID;constraint:OnDelete:CASCADE" json:"sender,omitempty"`
}

func (Message) TableName() string {
	return "messages"
}

// ConversationParticipant is the join row between a conversation and one of its two users.
type ConversationParticipant struct {
	ConversationID uint      `gorm:"primaryKey"`
	UserID         uint      `gorm:"primaryKey;index"`
	CreatedAt      time.Time
}

func (ConversationParticipant) TableName() string {
	return "conversation_participants"
}
