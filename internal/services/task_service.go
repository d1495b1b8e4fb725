package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/yukikurage/project-management-api/internal/models"
	"github.com/yukikurage/project-management-api/internal/policy"
	"github.com/yukikurage/project-management-api/internal/repository"
)

// TaskService handles task business logic
type TaskService struct {
	taskRepo    repository.TaskRepository
	projectRepo repository.ProjectRepository
	userRepo    repository.UserRepository
	policy      *policy.Policy
	now         func() time.Time
}

// NewTaskService creates a new TaskService
func NewTaskService(
	taskRepo repository.TaskRepository,
	projectRepo repository.ProjectRepository,
	userRepo repository.UserRepository,
	pol *policy.Policy,
) *TaskService {
	return &TaskService{
		taskRepo:    taskRepo,
		projectRepo: projectRepo,
		userRepo:    userRepo,
		policy:      pol,
		now:         time.Now,
	}
}

// TaskListFilter represents optional filters for listing tasks
type TaskListFilter struct {
	Status    *string
	ProjectID *uint64
}

// ListTasks returns every task for privileged actors. Other actors see the
// tasks assigned to them and the tasks of projects they belong to.
func (s *TaskService) ListTasks(ctx context.Context, actor policy.Actor, input TaskListFilter) ([]models.Task, error) {
	filter, err := s.visibleTasks(ctx, actor)
	if err != nil {
		return nil, err
	}

	if input.Status != nil {
		status, ok := models.ParseTaskStatus(*input.Status)
		if !ok {
			return nil, ErrInvalidStatus
		}
		filter.Status = &status
	}
	filter.ProjectID = input.ProjectID

	tasks, err := s.taskRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	return tasks, nil
}

// visibleTasks builds the filter that scopes task queries to what actor may see.
func (s *TaskService) visibleTasks(ctx context.Context, actor policy.Actor) (repository.TaskFilter, error) {
	if s.policy.CanPerform(actor, policy.TaskListAll, policy.Resource{}) {
		return repository.TaskFilter{}, nil
	}

	projectIDs, err := s.projectRepo.ListIDsByMember(ctx, actor.ID)
	if err != nil {
		return repository.TaskFilter{}, fmt.Errorf("failed to resolve memberships: %w", err)
	}

	return repository.TaskFilter{
		Access: &repository.TaskAccess{UserID: actor.ID, ProjectIDs: projectIDs},
	}, nil
}

// GetTask returns a task the actor may see. Tasks the actor may not see are
// reported as missing.
func (s *TaskService) GetTask(ctx context.Context, actor policy.Actor, id uint64) (*models.Task, error) {
	task, err := s.findTask(ctx, id)
	if err != nil {
		return nil, err
	}

	resource, err := s.taskResource(ctx, actor, task)
	if err != nil {
		return nil, err
	}

	if !s.policy.CanPerform(actor, policy.TaskRead, resource) {
		return nil, ErrTaskNotFound
	}
	return task, nil
}

// authorizeWrite checks a task update or delete. Tasks the actor may neither
// write nor see are reported as missing, the same way GetTask does.
func (s *TaskService) authorizeWrite(ctx context.Context, actor policy.Actor, action policy.Action, task *models.Task) error {
	resource, err := s.taskResource(ctx, actor, task)
	if err != nil {
		return err
	}

	if s.policy.CanPerform(actor, action, resource) {
		return nil
	}
	if !s.policy.CanPerform(actor, policy.TaskRead, resource) {
		return ErrTaskNotFound
	}
	return ErrTaskForbidden
}

// CreateTaskInput represents input for creating a task
type CreateTaskInput struct {
	Title       string
	Description string
	ProjectID   *uint64
	AssigneeID  *uint64
	Status      string
	Priority    string
	StartDate   *time.Time
	DueDate     *time.Time
	EndDate     *time.Time
}

// CreateTask creates a task owned by the actor.
func (s *TaskService) CreateTask(ctx context.Context, actor policy.Actor, input CreateTaskInput) (*models.Task, error) {
	if !s.policy.CanPerform(actor, policy.TaskCreate, policy.Resource{}) {
		return nil, ErrTaskForbidden
	}

	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, ErrTitleRequired
	}

	status, ok := models.ParseTaskStatus(input.Status)
	if !ok {
		return nil, ErrInvalidStatus
	}
	priority, ok := models.ParseTaskPriority(input.Priority)
	if !ok {
		return nil, ErrInvalidPriority
	}

	if err := s.checkReferences(ctx, input.ProjectID, input.AssigneeID); err != nil {
		return nil, err
	}

	task := &models.Task{
		Title:       title,
		Description: strings.TrimSpace(input.Description),
		ProjectID:   input.ProjectID,
		AssigneeID:  input.AssigneeID,
		Status:      status,
		Priority:    priority,
		StartDate:   input.StartDate,
		DueDate:     input.DueDate,
		EndDate:     input.EndDate,
		CreatorID:   actor.ID,
	}

	if err := s.taskRepo.Create(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	return s.findTask(ctx, task.ID)
}

// UpdateTaskInput represents a partial update; nil fields are left as is
type UpdateTaskInput struct {
	Title          *string
	Description    *string
	Status         *string
	Priority       *string
	ProjectID      *uint64
	ClearProject   bool
	AssigneeID     *uint64
	ClearAssignee  bool
	StartDate      *time.Time
	ClearStartDate bool
	DueDate        *time.Time
	ClearDueDate   bool
	EndDate        *time.Time
	ClearEndDate   bool
}

// UpdateTask applies a partial update.
func (s *TaskService) UpdateTask(ctx context.Context, actor policy.Actor, id uint64, input UpdateTaskInput) (*models.Task, error) {
	task, err := s.findTask(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.authorizeWrite(ctx, actor, policy.TaskUpdate, task); err != nil {
		return nil, err
	}

	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			return nil, ErrTitleRequired
		}
		task.Title = title
	}
	if input.Description != nil {
		task.Description = strings.TrimSpace(*input.Description)
	}
	if input.Status != nil {
		status, ok := models.ParseTaskStatus(*input.Status)
		if !ok {
			return nil, ErrInvalidStatus
		}
		task.Status = status
	}
	if input.Priority != nil {
		priority, ok := models.ParseTaskPriority(*input.Priority)
		if !ok {
			return nil, ErrInvalidPriority
		}
		task.Priority = priority
	}

	var newProject, newAssignee *uint64
	switch {
	case input.ClearProject:
		task.ProjectID = nil
	case input.ProjectID != nil:
		newProject = input.ProjectID
		task.ProjectID = input.ProjectID
	}
	switch {
	case input.ClearAssignee:
		task.AssigneeID = nil
	case input.AssigneeID != nil:
		newAssignee = input.AssigneeID
		task.AssigneeID = input.AssigneeID
	}
	if err := s.checkReferences(ctx, newProject, newAssignee); err != nil {
		return nil, err
	}
	// Loaded relations would otherwise shadow the new foreign keys.
	task.Project, task.Assignee = nil, nil

	task.StartDate = patchDate(task.StartDate, input.StartDate, input.ClearStartDate)
	task.DueDate = patchDate(task.DueDate, input.DueDate, input.ClearDueDate)
	task.EndDate = patchDate(task.EndDate, input.EndDate, input.ClearEndDate)

	if err := s.taskRepo.Update(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}

	return s.findTask(ctx, id)
}

// DeleteTask deletes a task and its comments.
func (s *TaskService) DeleteTask(ctx context.Context, actor policy.Actor, id uint64) error {
	task, err := s.findTask(ctx, id)
	if err != nil {
		return err
	}

	if err := s.authorizeWrite(ctx, actor, policy.TaskDelete, task); err != nil {
		return err
	}

	if err := s.taskRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrTaskNotFound
		}
		return fmt.Errorf("failed to delete task: %w", err)
	}
	return nil
}

// AddComment appends a comment authored by the actor and returns the task
// with its comments.
func (s *TaskService) AddComment(ctx context.Context, actor policy.Actor, taskID uint64, text string) (*models.Task, error) {
	if !s.policy.CanPerform(actor, policy.CommentCreate, policy.Resource{}) {
		return nil, ErrTaskForbidden
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrCommentRequired
	}

	if _, err := s.findTask(ctx, taskID); err != nil {
		return nil, err
	}

	comment := &models.TaskComment{
		TaskID:    taskID,
		Text:      text,
		AuthorID:  actor.ID,
		CreatedAt: s.now(),
	}
	if err := s.taskRepo.AddComment(ctx, comment); err != nil {
		return nil, fmt.Errorf("failed to add comment: %w", err)
	}

	return s.findTask(ctx, taskID)
}

func (s *TaskService) checkReferences(ctx context.Context, projectID, assigneeID *uint64) error {
	if projectID != nil {
		if _, err := s.projectRepo.FindByID(ctx, *projectID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUnknownProject
			}
			return fmt.Errorf("failed to find project: %w", err)
		}
	}

	if assigneeID != nil {
		if _, err := s.userRepo.FindByID(ctx, *assigneeID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUnknownAssignee
			}
			return fmt.Errorf("failed to find assignee: %w", err)
		}
	}

	return nil
}

func (s *TaskService) findTask(ctx context.Context, id uint64) (*models.Task, error) {
	task, err := s.taskRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}
	return task, nil
}

// taskResource loads the facts the policy needs about task.
func (s *TaskService) taskResource(ctx context.Context, actor policy.Actor, task *models.Task) (policy.Resource, error) {
	resource := policy.Resource{CreatorID: task.CreatorID, AssigneeID: task.AssigneeID}
	if actor.Role.Privileged() || task.ProjectID == nil {
		return resource, nil
	}

	member, err := s.projectRepo.IsMember(ctx, *task.ProjectID, actor.ID)
	if err != nil {
		return policy.Resource{}, fmt.Errorf("failed to check membership: %w", err)
	}
	resource.InMemberProject = member
	return resource, nil
}

func patchDate(current, next *time.Time, clear bool) *time.Time {
	if clear {
		return nil
	}
	if next != nil {
		return next
	}
	return current
}
