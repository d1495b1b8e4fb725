package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yukikurage/project-management-api/internal/dto"
	apierrors "github.com/yukikurage/project-management-api/internal/errors"
	"github.com/yukikurage/project-management-api/internal/services"
)

// TaskHandler serves the task endpoints.
type TaskHandler struct {
	taskService *services.TaskService
}

// NewTaskHandler creates a new TaskHandler.
func NewTaskHandler(taskService *services.TaskService) *TaskHandler {
	return &TaskHandler{
		taskService: taskService,
	}
}

// ListTasks returns the tasks visible to the current user.
// Can filter by status and project.
func (h *TaskHandler) ListTasks(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	var filter services.TaskListFilter
	if status := c.Query("status"); status != "" {
		filter.Status = &status
	}
	if raw := c.Query("project"); raw != "" {
		projectID, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			apierrors.BadRequest(c, "Invalid project")
			return
		}
		filter.ProjectID = &projectID
	}

	tasks, err := h.taskService.ListTasks(c.Request.Context(), actor, filter)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskDTOs(tasks))
}

// GetTask returns a specific task by ID
func (h *TaskHandler) GetTask(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	task, err := h.taskService.GetTask(c.Request.Context(), actor, id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskDTO(*task))
}

// CreateTask creates a new task
func (h *TaskHandler) CreateTask(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	var req dto.CreateTaskRequest
	if !bindJSON(c, &req) {
		return
	}

	input := services.CreateTaskInput{
		Title:       req.Title,
		Description: req.Description,
		ProjectID:   req.Project.Ptr(),
		AssigneeID:  req.Assignee.Ptr(),
		Status:      req.Status,
		Priority:    req.Priority,
	}

	dates := []struct {
		field string
		raw   string
		dst   **time.Time
	}{
		{"startDate", req.StartDate, &input.StartDate},
		{"dueDate", req.DueDate, &input.DueDate},
		{"endDate", req.EndDate, &input.EndDate},
	}
	for _, d := range dates {
		t, err := dto.ParseDate(d.raw)
		if err != nil {
			respondError(c, &dto.FieldError{Field: d.field})
			return
		}
		*d.dst = t
	}

	task, err := h.taskService.CreateTask(c.Request.Context(), actor, input)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToTaskDTO(*task))
}

// UpdateTask applies a partial update. Absent keys are left untouched and
// null clears optional references and dates.
func (h *TaskHandler) UpdateTask(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var patch dto.Patch
	if !bindJSON(c, &patch) {
		return
	}

	input, err := taskPatch(patch)
	if err != nil {
		respondError(c, err)
		return
	}

	task, err := h.taskService.UpdateTask(c.Request.Context(), actor, id, input)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskDTO(*task))
}

func taskPatch(patch dto.Patch) (services.UpdateTaskInput, error) {
	var (
		input services.UpdateTaskInput
		err   error
	)

	if input.Title, err = patch.String("title"); err != nil {
		return input, err
	}
	if input.Description, err = patch.String("description"); err != nil {
		return input, err
	}
	if input.Status, err = patch.String("status"); err != nil {
		return input, err
	}
	if input.Priority, err = patch.String("priority"); err != nil {
		return input, err
	}
	if input.ProjectID, input.ClearProject, err = patch.ID("project"); err != nil {
		return input, err
	}
	if input.AssigneeID, input.ClearAssignee, err = patch.ID("assignee"); err != nil {
		return input, err
	}
	if input.StartDate, input.ClearStartDate, err = patch.Date("startDate"); err != nil {
		return input, err
	}
	if input.DueDate, input.ClearDueDate, err = patch.Date("dueDate"); err != nil {
		return input, err
	}
	if input.EndDate, input.ClearEndDate, err = patch.Date("endDate"); err != nil {
		return input, err
	}

	return input, nil
}

// DeleteTask deletes a task and its comments.
func (h *TaskHandler) DeleteTask(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.taskService.DeleteTask(c.Request.Context(), actor, id); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.SuccessResponse{Success: true})
}

// AddComment appends a comment to a task.
func (h *TaskHandler) AddComment(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req dto.CommentRequest
	if !bindJSON(c, &req) {
		return
	}

	task, err := h.taskService.AddComment(c.Request.Context(), actor, id, req.Text)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToTaskDTO(*task))
}
