package dto

import (
	"time"

	"github.com/yukikurage/project-management-api/internal/models"
)

// CommentDTO represents a task comment in API responses
type CommentDTO struct {
	ID        uint64      `json:"id"`
	Text      string      `json:"text"`
	Author    *UserRefDTO `json:"author"`
	CreatedAt time.Time   `json:"createdAt"`
}

// TaskDTO represents a task in API responses
type TaskDTO struct {
	ID            uint64              `json:"id"`
	Title         string              `json:"title"`
	Description   string              `json:"description"`
	Status        models.TaskStatus   `json:"status"`
	Priority      models.TaskPriority `json:"priority"`
	ProjectID     *uint64             `json:"projectId"`
	Project       *ProjectRefDTO      `json:"project"`
	AssigneeID    *uint64             `json:"assigneeId"`
	Assignee      *UserRefDTO         `json:"assignee"`
	StartDate     *time.Time          `json:"startDate"`
	DueDate       *time.Time          `json:"dueDate"`
	EndDate       *time.Time          `json:"endDate"`
	CreatorID     uint64              `json:"createdBy"`
	Comments      []CommentDTO        `json:"comments"`
	LatestComment *string             `json:"latestComment,omitempty"`
	CreatedAt     time.Time           `json:"createdAt"`
	UpdatedAt     time.Time           `json:"updatedAt"`
}

// CreateTaskRequest is the body of a task creation
type CreateTaskRequest struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`
	Project     ID     `json:"project"`
	Assignee    ID     `json:"assignee"`
	Status      string `json:"status"`
	Priority    string `json:"priority"`
	StartDate   string `json:"startDate"`
	DueDate     string `json:"dueDate"`
	EndDate     string `json:"endDate"`
}

// CommentRequest is the body of a new comment
type CommentRequest struct {
	Text string `json:"text" binding:"required"`
}

// ToTaskDTO converts a Task model to TaskDTO
func ToTaskDTO(task models.Task) TaskDTO {
	comments := make([]CommentDTO, len(task.Comments))
	for i, c := range task.Comments {
		comments[i] = CommentDTO{
			ID:        c.ID,
			Text:      c.Text,
			Author:    toUserRef(&c.Author),
			CreatedAt: c.CreatedAt,
		}
	}

	return TaskDTO{
		ID:            task.ID,
		Title:         task.Title,
		Description:   task.Description,
		Status:        task.Status,
		Priority:      task.Priority,
		ProjectID:     task.ProjectID,
		Project:       toProjectRef(task.Project),
		AssigneeID:    task.AssigneeID,
		Assignee:      toUserRef(task.Assignee),
		StartDate:     task.StartDate,
		DueDate:       task.DueDate,
		EndDate:       task.EndDate,
		CreatorID:     task.CreatorID,
		Comments:      comments,
		LatestComment: task.LatestComment(),
		CreatedAt:     task.CreatedAt,
		UpdatedAt:     task.UpdatedAt,
	}
}

// ToTaskDTOs converts a slice of tasks
func ToTaskDTOs(tasks []models.Task) []TaskDTO {
	out := make([]TaskDTO, len(tasks))
	for i, t := range tasks {
		out[i] = ToTaskDTO(t)
	}
	return out
}
