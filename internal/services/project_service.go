package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/yukikurage/project-management-api/internal/models"
	"github.com/yukikurage/project-management-api/internal/notification"
	"github.com/yukikurage/project-management-api/internal/policy"
	"github.com/yukikurage/project-management-api/internal/repository"
)

// ProjectService handles project business logic
type ProjectService struct {
	projectRepo repository.ProjectRepository
	userRepo    repository.UserRepository
	taskRepo    repository.TaskRepository
	policy      *policy.Policy
	dispatcher  Dispatcher
	frontendURL string
	log         zerolog.Logger

	renderAssignment func(to string, data notification.ProjectAssignmentData) (notification.Message, error)
}

// NewProjectService creates a new ProjectService
func NewProjectService(
	projectRepo repository.ProjectRepository,
	userRepo repository.UserRepository,
	taskRepo repository.TaskRepository,
	pol *policy.Policy,
	dispatcher Dispatcher,
	frontendURL string,
	log zerolog.Logger,
) *ProjectService {
	return &ProjectService{
		projectRepo: projectRepo,
		userRepo:    userRepo,
		taskRepo:    taskRepo,
		policy:      pol,
		dispatcher:  dispatcher,
		frontendURL: strings.TrimRight(frontendURL, "/"),
		log:         log,

		renderAssignment: notification.ProjectAssignment,
	}
}

// CreateProjectInput represents input for creating a project
type CreateProjectInput struct {
	Title        string
	Description  string
	MemberEmails []string
	StartDate    *time.Time
	EndDate      *time.Time
}

// CreateProjectResult is the created project plus the outcome of member
// resolution and notification.
type CreateProjectResult struct {
	Project        *models.Project
	NotFoundEmails []string
	Notifications  notification.Report
}

// CreateProject creates a project, attaches every member email that resolves
// to a registered user and notifies the attached members. Unknown emails and
// failed notifications are reported in the result, never as an error.
func (s *ProjectService) CreateProject(ctx context.Context, actor policy.Actor, input CreateProjectInput) (*CreateProjectResult, error) {
	if !s.policy.CanPerform(actor, policy.ProjectCreate, policy.Resource{}) {
		return nil, ErrProjectForbidden
	}

	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, ErrTitleRequired
	}
	if err := validateDateRange(input.StartDate, input.EndDate); err != nil {
		return nil, err
	}

	members, notFound, err := s.resolveMembers(ctx, input.MemberEmails)
	if err != nil {
		return nil, err
	}

	memberIDs := make([]uint64, len(members))
	for i, m := range members {
		memberIDs[i] = m.ID
	}

	project := &models.Project{
		Title:       title,
		Description: strings.TrimSpace(input.Description),
		Status:      models.ProjectStatusActive,
		StartDate:   input.StartDate,
		EndDate:     input.EndDate,
		CreatorID:   actor.ID,
	}

	if err := s.projectRepo.Create(ctx, project, memberIDs); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrProjectTitleTaken
		}
		return nil, fmt.Errorf("failed to create project: %w", err)
	}

	messages, unrendered := s.assignmentMessages(actor, project, members)
	report := s.dispatcher.Dispatch(ctx, messages)
	report.Include(unrendered...)
	if report.Failed > 0 {
		s.log.Warn().
			Uint64("project_id", project.ID).
			Int("failed", report.Failed).
			Int("total", report.Total).
			Msg("some project assignment notifications failed")
	}

	return &CreateProjectResult{
		Project:        project,
		NotFoundEmails: notFound,
		Notifications:  report,
	}, nil
}

// resolveMembers maps the emails onto registered users in first-seen order
// and returns the emails that matched nobody.
func (s *ProjectService) resolveMembers(ctx context.Context, emails []string) ([]models.User, []string, error) {
	keys := make([]string, 0, len(emails))
	seen := make(map[string]struct{}, len(emails))
	for _, email := range emails {
		key := models.NormalizeEmail(email)
		if key == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		keys = append(keys, key)
	}

	users, err := s.userRepo.FindByEmails(ctx, keys)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to resolve members: %w", err)
	}

	byKey := make(map[string]models.User, len(users))
	for _, u := range users {
		byKey[u.EmailKey] = u
	}

	members := make([]models.User, 0, len(users))
	notFound := make([]string, 0)
	for _, key := range keys {
		if u, ok := byKey[key]; ok {
			members = append(members, u)
		} else {
			notFound = append(notFound, key)
		}
	}

	return members, notFound, nil
}

// assignmentMessages renders one email per member other than the actor.
// Members whose email could not be rendered are returned as failures.
func (s *ProjectService) assignmentMessages(actor policy.Actor, project *models.Project, members []models.User) ([]notification.Message, []notification.Delivery) {
	var unrendered []notification.Delivery
	messages := make([]notification.Message, 0, len(members))
	for _, member := range members {
		if member.ID == actor.ID {
			continue
		}

		msg, err := s.renderAssignment(member.Email, notification.ProjectAssignmentData{
			Recipient:   displayName(&member),
			Actor:       actor.DisplayName(),
			Title:       project.Title,
			Description: project.Description,
			Link:        s.frontendURL + "/projects.html",
		})
		if err != nil {
			s.log.Error().Err(err).Str("to", member.Email).Msg("failed to render project assignment email")
			unrendered = append(unrendered, notification.Failure(member.Email, err))
			continue
		}
		messages = append(messages, msg)
	}
	return messages, unrendered
}

// ListProjects returns every project for privileged actors and only the
// actor's own projects otherwise.
func (s *ProjectService) ListProjects(ctx context.Context, actor policy.Actor) ([]models.Project, error) {
	filter := repository.ProjectFilter{}
	if !s.policy.CanPerform(actor, policy.ProjectListAll, policy.Resource{}) {
		filter.MemberID = &actor.ID
	}

	projects, err := s.projectRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	return projects, nil
}

// GetProject returns a project the actor may read. Projects the actor may
// not read are reported as missing.
func (s *ProjectService) GetProject(ctx context.Context, actor policy.Actor, id uint64) (*models.Project, error) {
	project, err := s.findProject(ctx, id)
	if err != nil {
		return nil, err
	}

	if !s.policy.CanPerform(actor, policy.ProjectRead, policy.Resource{MemberIDs: project.MemberIDs()}) {
		return nil, ErrProjectNotFound
	}
	return project, nil
}

// UpdateProjectInput represents a partial update; nil fields are left as is
type UpdateProjectInput struct {
	Title          *string
	Description    *string
	Status         *string
	StartDate      *time.Time
	ClearStartDate bool
	EndDate        *time.Time
	ClearEndDate   bool
	// Members replaces the member set when non-nil.
	Members *[]uint64
}

// UpdateProject applies a partial update.
func (s *ProjectService) UpdateProject(ctx context.Context, actor policy.Actor, id uint64, input UpdateProjectInput) (*models.Project, error) {
	if !s.policy.CanPerform(actor, policy.ProjectUpdate, policy.Resource{}) {
		return nil, ErrProjectForbidden
	}

	project, err := s.findProject(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			return nil, ErrTitleRequired
		}
		project.Title = title
	}
	if input.Description != nil {
		project.Description = strings.TrimSpace(*input.Description)
	}
	if input.Status != nil {
		status, ok := models.ParseProjectStatus(*input.Status)
		if !ok {
			return nil, ErrInvalidStatus
		}
		project.Status = status
	}
	if input.ClearStartDate {
		project.StartDate = nil
	} else if input.StartDate != nil {
		project.StartDate = input.StartDate
	}
	if input.ClearEndDate {
		project.EndDate = nil
	} else if input.EndDate != nil {
		project.EndDate = input.EndDate
	}
	if err := validateDateRange(project.StartDate, project.EndDate); err != nil {
		return nil, err
	}

	var memberIDs *[]uint64
	if input.Members != nil {
		ids, err := s.validateMemberIDs(ctx, *input.Members)
		if err != nil {
			return nil, err
		}
		memberIDs = &ids
	}

	if err := s.projectRepo.Update(ctx, project, memberIDs); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrProjectTitleTaken
		}
		return nil, fmt.Errorf("failed to update project: %w", err)
	}

	return project, nil
}

func (s *ProjectService) validateMemberIDs(ctx context.Context, ids []uint64) ([]uint64, error) {
	unique := dedupeIDs(ids)

	users, err := s.userRepo.FindByIDs(ctx, unique)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve members: %w", err)
	}
	if len(users) != len(unique) {
		return nil, ErrUnknownMember
	}
	return unique, nil
}

// DeleteProject removes a project. Tasks and events that referenced it stay
// and lose the reference.
func (s *ProjectService) DeleteProject(ctx context.Context, actor policy.Actor, id uint64) error {
	if !s.policy.CanPerform(actor, policy.ProjectDelete, policy.Resource{}) {
		return ErrProjectForbidden
	}

	if err := s.projectRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrProjectNotFound
		}
		return fmt.Errorf("failed to delete project: %w", err)
	}
	return nil
}

// ListProjectTasks returns the tasks of a project, newest first.
func (s *ProjectService) ListProjectTasks(ctx context.Context, actor policy.Actor, projectID uint64) ([]models.Task, error) {
	if _, err := s.GetProject(ctx, actor, projectID); err != nil {
		return nil, err
	}

	tasks, err := s.taskRepo.List(ctx, repository.TaskFilter{ProjectID: &projectID})
	if err != nil {
		return nil, fmt.Errorf("failed to list project tasks: %w", err)
	}
	return tasks, nil
}

func (s *ProjectService) findProject(ctx context.Context, id uint64) (*models.Project, error) {
	project, err := s.projectRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("failed to find project: %w", err)
	}
	return project, nil
}

func validateDateRange(start, end *time.Time) error {
	if start != nil && end != nil && end.Before(*start) {
		return ErrInvalidDateRange
	}
	return nil
}

func dedupeIDs(ids []uint64) []uint64 {
	seen := make(map[uint64]struct{}, len(ids))
	out := make([]uint64, 0, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
