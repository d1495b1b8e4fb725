package models

import "time"

type Event struct {
	ID          uint64    `gorm:"primarykey" json:"id"`
	Title       string    `gorm:"type:varchar(255);not null" json:"title"`
	Description string    `gorm:"type:text" json:"description"`
	Date        time.Time `gorm:"not null;index" json:"date"`
	Time        string    `gorm:"type:varchar(32)" json:"time"`
	ProjectID   *uint64   `gorm:"index" json:"project_id"`
	CreatorID   uint64    `gorm:"not null;index" json:"creator_id"`
	CreatedAt   time.Time `json:"created_at"`

	// Relations
	Project   *Project        `gorm:"foreignKey:ProjectID" json:"-"`
	Creator   User            `gorm:"foreignKey:CreatorID" json:"-"`
	Attendees []EventAttendee `gorm:"foreignKey:EventID" json:"-"`
}

// EventAttendee rows are copied from the project's members when the event is
// created and are not kept in sync with later membership changes.
type EventAttendee struct {
	EventID uint64 `gorm:"primarykey" json:"event_id"`
	UserID  uint64 `gorm:"primarykey;index" json:"user_id"`

	// Relations
	User User `gorm:"foreignKey:UserID" json:"-"`
}
