package repository

import (
	"context"
	"time"

	"github.com/yukikurage/project-management-api/internal/models"
	"github.com/yukikurage/project-management-api/internal/utils"
)

// UserRepository defines the interface for user data access
type UserRepository interface {
	// Create creates a new user; ErrDuplicate when the email is taken
	Create(ctx context.Context, user *models.User) error

	// FindByID finds a user by ID
	FindByID(ctx context.Context, id uint64) (*models.User, error)

	// FindByEmail finds a user by email, ignoring case
	FindByEmail(ctx context.Context, email string) (*models.User, error)

	// FindByEmails returns the users whose normalized email is in keys
	FindByEmails(ctx context.Context, keys []string) ([]models.User, error)

	// FindByIDs returns the users with the given IDs, in no particular order
	FindByIDs(ctx context.Context, ids []uint64) ([]models.User, error)

	// FindByResetTokenHash finds the user holding an unexpired reset token
	FindByResetTokenHash(ctx context.Context, hash string, now time.Time) (*models.User, error)

	// Update saves every column of the user
	Update(ctx context.Context, user *models.User) error

	// Search matches a case-insensitive substring of email or name
	Search(ctx context.Context, term string, params utils.PaginationParams) ([]models.User, error)
}

// ProjectFilter narrows project queries
type ProjectFilter struct {
	// MemberID restricts results to projects listing this user as a member
	MemberID *uint64
}

// ProjectRepository defines the interface for project data access
type ProjectRepository interface {
	// Create inserts the project and its ordered member set atomically;
	// ErrDuplicate when the title is taken
	Create(ctx context.Context, project *models.Project, memberIDs []uint64) error

	// FindByID finds a project with its members loaded
	FindByID(ctx context.Context, id uint64) (*models.Project, error)

	// List retrieves projects with members loaded, newest first
	List(ctx context.Context, filter ProjectFilter) ([]models.Project, error)

	// Count counts projects matching the filter
	Count(ctx context.Context, filter ProjectFilter) (int64, error)

	// ListIDsByMember lists the IDs of projects the user belongs to
	ListIDsByMember(ctx context.Context, userID uint64) ([]uint64, error)

	// IsMember reports whether the user belongs to the project
	IsMember(ctx context.Context, projectID, userID uint64) (bool, error)

	// Update saves the project; a non-nil memberIDs replaces the member set
	Update(ctx context.Context, project *models.Project, memberIDs *[]uint64) error

	// Delete removes the project and its members and detaches tasks and events
	Delete(ctx context.Context, id uint64) error
}

// TaskAccess restricts tasks to those a non-privileged user may see
type TaskAccess struct {
	UserID     uint64
	ProjectIDs []uint64
}

// TaskFilter holds filtering options for listing tasks
type TaskFilter struct {
	Access    *TaskAccess
	ProjectID *uint64
	Status    *models.TaskStatus
}

// StatusCount is one row of a status breakdown
type StatusCount struct {
	Status models.TaskStatus `json:"status"`
	Count  int64             `json:"count"`
}

// TaskRepository defines the interface for task data access
type TaskRepository interface {
	// Create creates a new task
	Create(ctx context.Context, task *models.Task) error

	// FindByID finds a task by ID with relations and ordered comments loaded
	FindByID(ctx context.Context, id uint64) (*models.Task, error)

	// List retrieves tasks newest first with relations loaded
	List(ctx context.Context, filter TaskFilter) ([]models.Task, error)

	// Count counts tasks matching the filter
	Count(ctx context.Context, filter TaskFilter) (int64, error)

	// CountByStatus groups the matching tasks by status
	CountByStatus(ctx context.Context, filter TaskFilter) ([]StatusCount, error)

	// Update saves every column of the task
	Update(ctx context.Context, task *models.Task) error

	// Delete removes the task together with its comments
	Delete(ctx context.Context, id uint64) error

	// AddComment appends a comment to a task
	AddComment(ctx context.Context, comment *models.TaskComment) error
}

// EventRepository defines the interface for event data access
type EventRepository interface {
	// Create inserts the event and its attendee snapshot atomically
	Create(ctx context.Context, event *models.Event, attendeeIDs []uint64) error

	// FindByID finds an event with relations loaded
	FindByID(ctx context.Context, id uint64) (*models.Event, error)

	// ListForUser lists events the user created or attends, by date ascending
	ListForUser(ctx context.Context, userID uint64) ([]models.Event, error)

	// Delete removes the event and its attendees
	Delete(ctx context.Context, id uint64) error
}

// FileRepository defines the interface for file metadata access
type FileRepository interface {
	// Create stores file metadata
	Create(ctx context.Context, file *models.File) error

	// List lists file metadata newest first with the uploader loaded
	List(ctx context.Context, params *utils.PaginationParams) ([]models.File, error)
}

// SettingRepository defines the interface for per-user settings access
type SettingRepository interface {
	// Find returns the user's settings document
	Find(ctx context.Context, userID uint64) (*models.UserSetting, error)

	// Save inserts or replaces the user's settings document
	Save(ctx context.Context, setting *models.UserSetting) error
}
