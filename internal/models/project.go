package models

import (
	"strings"
	"time"
)

type ProjectStatus string

const (
	ProjectStatusActive    ProjectStatus = "active"
	ProjectStatusPending   ProjectStatus = "pending"
	ProjectStatusCompleted ProjectStatus = "completed"
)

// ParseProjectStatus maps free-text input onto the closed project status set.
func ParseProjectStatus(raw string) (ProjectStatus, bool) {
	switch normalizeStatus(raw) {
	case "", "active":
		return ProjectStatusActive, true
	case "pending":
		return ProjectStatusPending, true
	case "completed", "done":
		return ProjectStatusCompleted, true
	default:
		return "", false
	}
}

type Project struct {
	ID          uint64        `gorm:"primarykey" json:"id"`
	Title       string        `gorm:"type:varchar(255);not null" json:"title"`
	TitleKey    string        `gorm:"type:varchar(255);uniqueIndex;not null" json:"-"`
	Description string        `gorm:"type:text" json:"description"`
	Status      ProjectStatus `gorm:"type:varchar(20);not null;default:'active'" json:"status"`
	StartDate   *time.Time    `json:"start_date"`
	EndDate     *time.Time    `json:"end_date"`
	CreatorID   uint64        `gorm:"not null;index" json:"creator_id"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`

	// Relations
	Creator User            `gorm:"foreignKey:CreatorID" json:"-"`
	Members []ProjectMember `gorm:"foreignKey:ProjectID" json:"-"`
}

// ProjectMember is one entry of a project's ordered member set.
type ProjectMember struct {
	ProjectID uint64    `gorm:"primarykey" json:"project_id"`
	UserID    uint64    `gorm:"primarykey;index" json:"user_id"`
	Position  int       `gorm:"not null;default:0" json:"position"`
	CreatedAt time.Time `json:"created_at"`

	// Relations
	User User `gorm:"foreignKey:UserID" json:"-"`
}

// TitleKey produces the value the unique title index is built on.
func TitleKey(title string) string {
	return strings.ToLower(strings.TrimSpace(title))
}

// MemberIDs returns the member user ids in set order.
func (p *Project) MemberIDs() []uint64 {
	ids := make([]uint64, len(p.Members))
	for i, m := range p.Members {
		ids[i] = m.UserID
	}
	return ids
}

func normalizeStatus(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	s = strings.ReplaceAll(s, "_", "-")
	return strings.ReplaceAll(s, " ", "-")
}
