package models

import (
	"time"

	"chezben/internal/domain"
)

type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Email        string    `gorm:"uniqueIndex;size:255;not null" json:"email"`
	PasswordHash string    `gorm:"size:255" json:"-"`
	FullName     string    `gorm:"size:150" json:"full_name"`
	Phone        string    `gorm:"size:20" json:"phone"`
	Role         string    `gorm:"size:20;not null;default:USER;index" json:"role"`
	IsActive     bool      `gorm:"not null;default:true" json:"is_active"`
	GoogleID     *string   `gorm:"uniqueIndex;size:255" json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	Profile *Profile `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"profile,omitempty"`
}

func (User) TableName() string {
	return "users"
}

func (u *User) IsStaff() bool { return u.Role == domain.RoleModerator || u.Role == domain.RoleAdmin }

// Profile is created in the same transaction as its User. Credits never go negative.
type Profile struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"uniqueIndex;not null" json:"user_id"`
	Bio       string    `gorm:"type:text" json:"bio"`
	City      string    `gorm:"size:100" json:"city"`
	AvatarURL string    `gorm:"size:512" json:"avatar_url"`
	Credits   int64     `gorm:"not null;default:0" json:"credits"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Profile) TableName() string {
	return "profiles"
}

// PasswordResetCode holds a bcrypt hash of a short-lived numeric code.
type PasswordResetCode struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	UserID    uint       `gorm:"not null;index" json:"user_id"`
	CodeHash  string     `gorm:"size:255;not null" json:"-"`
	ExpiresAt time.Time  `gorm:"not null" json:"expires_at"`
	UsedAt    *time.Time `json:"used_at"`
	CreatedAt time.Time  `json:"created_at"`

	User User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

func (PasswordResetCode) TableName() string {
	return "password_reset_codes"
}
