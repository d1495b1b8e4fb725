package models

import "time"

// UserSetting holds a user's opaque settings document.
type UserSetting struct {
	UserID    uint64    `gorm:"primarykey" json:"user_id"`
	Data      string    `gorm:"type:text;not null" json:"-"`
	UpdatedAt time.Time `json:"updated_at"`
}
