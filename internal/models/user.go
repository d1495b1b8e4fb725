package models

import (
	"strings"
	"time"
)

type Role string

const (
	RoleAdmin          Role = "Admin"
	RoleProjectManager Role = "Project Manager"
	RoleTeamMember     Role = "Team Member"
)

// legacyRoleUser is the role value older clients send for an ordinary member.
const legacyRoleUser = "user"

// ParseRole normalizes a role supplied by a client. Empty input yields the
// default Team Member role.
func ParseRole(raw string) (Role, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", legacyRoleUser, "team member", "team-member", "team_member":
		return RoleTeamMember, true
	case "admin":
		return RoleAdmin, true
	case "project manager", "project-manager", "project_manager":
		return RoleProjectManager, true
	default:
		return "", false
	}
}

// Privileged reports whether the role may manage projects and see everything.
func (r Role) Privileged() bool {
	return r == RoleAdmin || r == RoleProjectManager
}

type User struct {
	ID                  uint64     `gorm:"primarykey" json:"id"`
	Name                string     `gorm:"type:varchar(255)" json:"name"`
	Email               string     `gorm:"type:varchar(255);not null" json:"email"`
	EmailKey            string     `gorm:"type:varchar(255);uniqueIndex;not null" json:"-"`
	PasswordHash        string     `gorm:"type:varchar(255);not null" json:"-"`
	Role                Role       `gorm:"type:varchar(32);not null;default:'Team Member'" json:"role"`
	Avatar              *string    `gorm:"type:varchar(512)" json:"avatar"`
	ResetTokenHash      *string    `gorm:"type:varchar(64);index" json:"-"`
	ResetTokenExpiresAt *time.Time `json:"-"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
}

// NormalizeEmail produces the key used for case-insensitive email lookups.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
