package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yukikurage/project-management-api/internal/dto"
	"github.com/yukikurage/project-management-api/internal/services"
)

// ProjectHandler serves the project endpoints.
type ProjectHandler struct {
	projectService *services.ProjectService
}

// NewProjectHandler creates a new ProjectHandler.
func NewProjectHandler(projectService *services.ProjectService) *ProjectHandler {
	return &ProjectHandler{
		projectService: projectService,
	}
}

// CreateProject creates a project and reports member resolution and
// notification outcomes.
func (h *ProjectHandler) CreateProject(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	var req dto.CreateProjectRequest
	if !bindJSON(c, &req) {
		return
	}

	startDate, err := dto.ParseDate(req.StartDate)
	if err != nil {
		respondError(c, &dto.FieldError{Field: "startDate"})
		return
	}
	endDate, err := dto.ParseDate(req.EndDate)
	if err != nil {
		respondError(c, &dto.FieldError{Field: "endDate"})
		return
	}

	result, err := h.projectService.CreateProject(c.Request.Context(), actor, services.CreateProjectInput{
		Title:        req.Title,
		Description:  req.Description,
		MemberEmails: req.AssigneeEmails,
		StartDate:    startDate,
		EndDate:      endDate,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.NewCreateProjectResponse(*result.Project, result.NotFoundEmails, result.Notifications))
}

// ListProjects returns the projects visible to the current user.
func (h *ProjectHandler) ListProjects(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	projects, err := h.projectService.ListProjects(c.Request.Context(), actor)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToProjectDTOs(projects))
}

// GetProject returns one project.
func (h *ProjectHandler) GetProject(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	project, err := h.projectService.GetProject(c.Request.Context(), actor, id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToProjectDTO(*project))
}

// UpdateProject applies a partial update. Absent keys are left untouched.
func (h *ProjectHandler) UpdateProject(c *gin.Context) {
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

	input, err := projectPatch(patch)
	if err != nil {
		respondError(c, err)
		return
	}

	project, err := h.projectService.UpdateProject(c.Request.Context(), actor, id, input)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToProjectDTO(*project))
}

func projectPatch(patch dto.Patch) (services.UpdateProjectInput, error) {
	var (
		input services.UpdateProjectInput
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
	if input.StartDate, input.ClearStartDate, err = patch.Date("startDate"); err != nil {
		return input, err
	}
	if input.EndDate, input.ClearEndDate, err = patch.Date("endDate"); err != nil {
		return input, err
	}
	if input.Members, err = patch.IDs("members"); err != nil {
		return input, err
	}

	return input, nil
}

// DeleteProject removes a project.
func (h *ProjectHandler) DeleteProject(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.projectService.DeleteProject(c.Request.Context(), actor, id); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.SuccessResponse{Success: true})
}

// ListProjectTasks returns the tasks of one project.
func (h *ProjectHandler) ListProjectTasks(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	tasks, err := h.projectService.ListProjectTasks(c.Request.Context(), actor, id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskDTOs(tasks))
}
