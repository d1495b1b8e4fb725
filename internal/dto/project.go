package dto

import (
	"fmt"
	"time"

	"github.com/yukikurage/project-management-api/internal/models"
	"github.com/yukikurage/project-management-api/internal/notification"
)

// ProjectDTO represents a project in API responses
type ProjectDTO struct {
	ID          uint64               `json:"id"`
	Title       string               `json:"title"`
	Description string               `json:"description"`
	Status      models.ProjectStatus `json:"status"`
	StartDate   *time.Time           `json:"startDate"`
	EndDate     *time.Time           `json:"endDate"`
	CreatorID   uint64               `json:"createdBy"`
	Members     []MemberDTO          `json:"members"`
	CreatedAt   time.Time            `json:"createdAt"`
	UpdatedAt   time.Time            `json:"updatedAt"`
}

// ProjectRefDTO is the minimal view of a project referenced by another record
type ProjectRefDTO struct {
	ID    uint64 `json:"id"`
	Title string `json:"title"`
}

// CreateProjectRequest is the body of a project creation
type CreateProjectRequest struct {
	Title          string   `json:"title" binding:"required"`
	Description    string   `json:"description"`
	AssigneeEmails []string `json:"assigneeEmails"`
	StartDate      string   `json:"startDate"`
	EndDate        string   `json:"endDate"`
}

// CreateProjectResponse is the created project plus member resolution and
// notification outcomes
type CreateProjectResponse struct {
	Project            ProjectDTO          `json:"project"`
	NotFoundEmails     []string            `json:"notFoundEmails"`
	EmailNotifications notification.Report `json:"emailNotifications"`
	Warnings           *ProjectWarnings    `json:"warnings"`
}

// ProjectWarnings tells the client which member emails were skipped
type ProjectWarnings struct {
	Message string   `json:"message"`
	Emails  []string `json:"emails"`
}

// NewCreateProjectResponse builds the creation response. Warnings is only
// set when some emails did not resolve to a registered user.
func NewCreateProjectResponse(project models.Project, notFound []string, report notification.Report) CreateProjectResponse {
	if notFound == nil {
		notFound = []string{}
	}
	if report.Details == nil {
		report.Details = []notification.Delivery{}
	}

	resp := CreateProjectResponse{
		Project:            ToProjectDTO(project),
		NotFoundEmails:     notFound,
		EmailNotifications: report,
	}
	if len(notFound) > 0 {
		resp.Warnings = &ProjectWarnings{
			Message: fmt.Sprintf("%d email(s) not found in the system. These users must register first.", len(notFound)),
			Emails:  notFound,
		}
	}
	return resp
}

// ToProjectDTO converts a Project model to ProjectDTO
func ToProjectDTO(project models.Project) ProjectDTO {
	members := make([]MemberDTO, len(project.Members))
	for i, m := range project.Members {
		members[i] = ToMemberDTO(m.User)
	}

	return ProjectDTO{
		ID:          project.ID,
		Title:       project.Title,
		Description: project.Description,
		Status:      project.Status,
		StartDate:   project.StartDate,
		EndDate:     project.EndDate,
		CreatorID:   project.CreatorID,
		Members:     members,
		CreatedAt:   project.CreatedAt,
		UpdatedAt:   project.UpdatedAt,
	}
}

// ToProjectDTOs converts a slice of projects
func ToProjectDTOs(projects []models.Project) []ProjectDTO {
	out := make([]ProjectDTO, len(projects))
	for i, p := range projects {
		out[i] = ToProjectDTO(p)
	}
	return out
}

func toProjectRef(project *models.Project) *ProjectRefDTO {
	if project == nil || project.ID == 0 {
		return nil
	}
	return &ProjectRefDTO{ID: project.ID, Title: project.Title}
}
