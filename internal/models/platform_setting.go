package models

import "time"

// PlatformSetting is an admin-editable key/value pair (site name, credit price...).
type PlatformSetting struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Key         string    `gorm:"uniqueIndex;size:100;not null" json:"key"`
	Value       string    `gorm:"size:255;not null" json:"value"`
	Description string    `gorm:"size:255" json:"description"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (PlatformSetting) TableName() string { return "platform_settings" }
