package models

import "time"

// File is metadata only; the bytes live in the blob store under StoredName.
type File struct {
	ID           uint64    `gorm:"primarykey" json:"id"`
	OriginalName string    `gorm:"type:varchar(255);not null" json:"original_name"`
	StoredName   string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"stored_name"`
	Path         string    `gorm:"type:varchar(512);not null" json:"path"`
	MIMEType     string    `gorm:"type:varchar(255)" json:"mime_type"`
	Size         int64     `json:"size"`
	UploaderID   uint64    `gorm:"not null;index" json:"uploader_id"`
	CreatedAt    time.Time `gorm:"index" json:"created_at"`

	// Relations
	Uploader User `gorm:"foreignKey:UploaderID" json:"-"`
}
