package models

import (
	"strings"
	"time"
)

type TaskStatus string

const (
	TaskStatusTodo       TaskStatus = "todo"
	TaskStatusInProgress TaskStatus = "in-progress"
	TaskStatusCompleted  TaskStatus = "completed"
)

// ParseTaskStatus maps free-text input onto the closed task status set.
func ParseTaskStatus(raw string) (TaskStatus, bool) {
	switch normalizeStatus(raw) {
	case "", "todo", "to-do":
		return TaskStatusTodo, true
	case "in-progress", "inprogress":
		return TaskStatusInProgress, true
	case "completed", "done":
		return TaskStatusCompleted, true
	default:
		return "", false
	}
}

type TaskPriority string

const (
	TaskPriorityLow    TaskPriority = "low"
	TaskPriorityMedium TaskPriority = "medium"
	TaskPriorityHigh   TaskPriority = "high"
)

func ParseTaskPriority(raw string) (TaskPriority, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "medium":
		return TaskPriorityMedium, true
	case "low":
		return TaskPriorityLow, true
	case "high":
		return TaskPriorityHigh, true
	default:
		return "", false
	}
}

type Task struct {
	ID          uint64       `gorm:"primarykey" json:"id"`
	Title       string       `gorm:"not null" json:"title"`
	Description string       `gorm:"type:text" json:"description"`
	ProjectID   *uint64      `gorm:"index" json:"project_id"`
	AssigneeID  *uint64      `gorm:"index" json:"assignee_id"`
	Status      TaskStatus   `gorm:"type:varchar(20);not null;default:'todo'" json:"status"`
	Priority    TaskPriority `gorm:"type:varchar(20);not null;default:'medium'" json:"priority"`
	StartDate   *time.Time   `json:"start_date"`
	DueDate     *time.Time   `json:"due_date"`
	EndDate     *time.Time   `json:"end_date"`
	CreatorID   uint64       `gorm:"not null;index" json:"creator_id"`
	CreatedAt   time.Time    `gorm:"index" json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`

	// Relations
	Project  *Project      `gorm:"foreignKey:ProjectID" json:"-"`
	Assignee *User         `gorm:"foreignKey:AssigneeID" json:"-"`
	Creator  User          `gorm:"foreignKey:CreatorID" json:"-"`
	Comments []TaskComment `gorm:"foreignKey:TaskID" json:"-"`
}

// TaskComment is append-only; once written it is never edited.
type TaskComment struct {
	ID        uint64    `gorm:"primarykey" json:"id"`
	TaskID    uint64    `gorm:"not null;index" json:"task_id"`
	Text      string    `gorm:"type:text;not null" json:"text"`
	AuthorID  uint64    `gorm:"not null" json:"author_id"`
	CreatedAt time.Time `json:"created_at"`

	// Relations
	Author User `gorm:"foreignKey:AuthorID" json:"-"`
}

// LatestComment returns the text of the most recent comment, if the comments
// are loaded and there is at least one.
func (t *Task) LatestComment() *string {
	if len(t.Comments) == 0 {
		return nil
	}
	text := t.Comments[len(t.Comments)-1].Text
	return &text
}
