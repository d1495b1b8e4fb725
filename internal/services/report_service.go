package services

import (
	"context"
	"fmt"

	"github.com/yukikurage/project-management-api/internal/policy"
	"github.com/yukikurage/project-management-api/internal/repository"
)

// Summary is the dashboard overview.
type Summary struct {
	ProjectCount  int64                    `json:"projectCount"`
	TaskCount     int64                    `json:"taskCount"`
	TasksByStatus []repository.StatusCount `json:"tasksByStatus"`
}

// ReportService computes dashboard figures
type ReportService struct {
	projectRepo repository.ProjectRepository
	tasks       *TaskService
	policy      *policy.Policy
}

// NewReportService creates a new ReportService. Task counts follow the same
// visibility rules as TaskService listings.
func NewReportService(projectRepo repository.ProjectRepository, tasks *TaskService, pol *policy.Policy) *ReportService {
	return &ReportService{
		projectRepo: projectRepo,
		tasks:       tasks,
		policy:      pol,
	}
}

// Summary counts the projects and tasks the actor can see.
func (s *ReportService) Summary(ctx context.Context, actor policy.Actor) (*Summary, error) {
	projectFilter := repository.ProjectFilter{}
	if !s.policy.CanPerform(actor, policy.ProjectListAll, policy.Resource{}) {
		projectFilter.MemberID = &actor.ID
	}

	projectCount, err := s.projectRepo.Count(ctx, projectFilter)
	if err != nil {
		return nil, fmt.Errorf("failed to count projects: %w", err)
	}

	taskFilter, err := s.tasks.visibleTasks(ctx, actor)
	if err != nil {
		return nil, err
	}

	taskCount, err := s.tasks.taskRepo.Count(ctx, taskFilter)
	if err != nil {
		return nil, fmt.Errorf("failed to count tasks: %w", err)
	}

	byStatus, err := s.tasks.taskRepo.CountByStatus(ctx, taskFilter)
	if err != nil {
		return nil, fmt.Errorf("failed to count tasks by status: %w", err)
	}
	if byStatus == nil {
		byStatus = []repository.StatusCount{}
	}

	return &Summary{
		ProjectCount:  projectCount,
		TaskCount:     taskCount,
		TasksByStatus: byStatus,
	}, nil
}
