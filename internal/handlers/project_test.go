package handlers

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/yukikurage/project-management-api/internal/dto"
	"github.com/yukikurage/project-management-api/internal/models"
)

// ProjectHandlerTestSuite exercises the project endpoints end to end
type ProjectHandlerTestSuite struct {
	suite.Suite
	env     handlerTestEnv
	manager dto.AuthResponse
	alice   dto.AuthResponse
	bob     dto.AuthResponse
}

func (s *ProjectHandlerTestSuite) SetupTest() {
	t := s.T()
	s.env = setupHandlerTestEnv(t)
	s.manager = s.env.signup(t, "pm@example.com", "Pat", string(models.RoleProjectManager))
	s.alice = s.env.signup(t, "alice@example.com", "Alice", "")
	s.bob = s.env.signup(t, "bob@example.com", "Bob", "")
}

func (s *ProjectHandlerTestSuite) create(title string, emails ...string) dto.CreateProjectResponse {
	w := s.env.do(s.T(), http.MethodPost, "/api/projects", s.manager.Token, dto.CreateProjectRequest{
		Title:          title,
		AssigneeEmails: emails,
	})
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	return decode[dto.CreateProjectResponse](s.T(), w)
}

func (s *ProjectHandlerTestSuite) TestTeamMemberCannotCreate() {
	w := s.env.do(s.T(), http.MethodPost, "/api/projects", s.alice.Token, dto.CreateProjectRequest{Title: "Mine"})
	s.Equal(http.StatusForbidden, w.Code)
	s.Equal("FORBIDDEN", decode[errorBody](s.T(), w).Code)
}

func (s *ProjectHandlerTestSuite) TestCreateReportsMembersAndNotifications() {
	s.env.outbox.failFor["bob@example.com"] = true

	resp := s.create("Apollo", "ALICE@example.com", "bob@example.com", "ghost@example.com", "pm@example.com")

	s.Equal("Apollo", resp.Project.Title)
	s.Equal(models.ProjectStatusActive, resp.Project.Status)
	s.Equal(s.manager.User.ID, resp.Project.CreatorID)
	s.Len(resp.Project.Members, 3)
	s.Equal([]string{"ghost@example.com"}, resp.NotFoundEmails)
	s.Require().NotNil(resp.Warnings)
	s.Equal([]string{"ghost@example.com"}, resp.Warnings.Emails)

	s.Equal(2, resp.EmailNotifications.Total)
	s.Equal(1, resp.EmailNotifications.Sent)
	s.Equal(1, resp.EmailNotifications.Failed)
}

func (s *ProjectHandlerTestSuite) TestCreateWithoutUnknownEmailsHasNoWarnings() {
	resp := s.create("Gemini")

	s.Empty(resp.NotFoundEmails)
	s.Nil(resp.Warnings)
	s.Equal(0, resp.EmailNotifications.Total)
}

func (s *ProjectHandlerTestSuite) TestDuplicateTitle() {
	s.create("Apollo")

	w := s.env.do(s.T(), http.MethodPost, "/api/projects", s.manager.Token, dto.CreateProjectRequest{Title: "  apollo "})
	s.Equal(http.StatusBadRequest, w.Code)
	s.Equal("CONFLICT", decode[errorBody](s.T(), w).Code)
}

func (s *ProjectHandlerTestSuite) TestCreateValidation() {
	w := s.env.do(s.T(), http.MethodPost, "/api/projects", s.manager.Token, dto.CreateProjectRequest{Title: "  "})
	s.Equal(http.StatusBadRequest, w.Code)

	w = s.env.do(s.T(), http.MethodPost, "/api/projects", s.manager.Token, dto.CreateProjectRequest{
		Title:     "Dated",
		StartDate: "yesterday",
	})
	s.Require().Equal(http.StatusBadRequest, w.Code)
	s.Equal("startDate", decode[errorBody](s.T(), w).Details["field"])
}

func (s *ProjectHandlerTestSuite) TestListIsScopedToMembership() {
	s.create("Apollo", "alice@example.com")
	s.create("Gemini")

	w := s.env.do(s.T(), http.MethodGet, "/api/projects", s.alice.Token, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	projects := decode[[]dto.ProjectDTO](s.T(), w)
	s.Require().Len(projects, 1)
	s.Equal("Apollo", projects[0].Title)

	w = s.env.do(s.T(), http.MethodGet, "/api/projects", s.bob.Token, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	s.Empty(decode[[]dto.ProjectDTO](s.T(), w))

	w = s.env.do(s.T(), http.MethodGet, "/api/projects", s.manager.Token, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	s.Len(decode[[]dto.ProjectDTO](s.T(), w), 2)
}

func (s *ProjectHandlerTestSuite) TestGetHidesForeignProjects() {
	project := s.create("Apollo", "alice@example.com").Project
	path := fmt.Sprintf("/api/projects/%d", project.ID)

	s.Equal(http.StatusOK, s.env.do(s.T(), http.MethodGet, path, s.alice.Token, nil).Code)
	s.Equal(http.StatusNotFound, s.env.do(s.T(), http.MethodGet, path, s.bob.Token, nil).Code)
	s.Equal(http.StatusBadRequest, s.env.do(s.T(), http.MethodGet, "/api/projects/abc", s.bob.Token, nil).Code)
}

func (s *ProjectHandlerTestSuite) TestPartialUpdate() {
	project := s.create("Apollo", "alice@example.com").Project
	path := fmt.Sprintf("/api/projects/%d", project.ID)

	body := fmt.Sprintf(`{"status":"completed","members":[%d,"%d"]}`, s.alice.User.ID, s.bob.User.ID)
	w := s.env.do(s.T(), http.MethodPut, path, s.manager.Token, body)
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	updated := decode[dto.ProjectDTO](s.T(), w)
	s.Equal("Apollo", updated.Title)
	s.Equal(models.ProjectStatusCompleted, updated.Status)
	s.Require().Len(updated.Members, 2)
	s.Equal(s.alice.User.ID, updated.Members[0].ID)
	s.Equal(s.bob.User.ID, updated.Members[1].ID)

	w = s.env.do(s.T(), http.MethodPut, path, s.manager.Token, `{"status":"archived"}`)
	s.Equal(http.StatusBadRequest, w.Code)

	w = s.env.do(s.T(), http.MethodPut, path, s.manager.Token, `{"members":[999]}`)
	s.Equal(http.StatusBadRequest, w.Code)

	w = s.env.do(s.T(), http.MethodPut, path, s.manager.Token, `{"title":42}`)
	s.Require().Equal(http.StatusBadRequest, w.Code)
	s.Equal("title", decode[errorBody](s.T(), w).Details["field"])

	w = s.env.do(s.T(), http.MethodPut, path, s.alice.Token, `{"title":"Hijacked"}`)
	s.Equal(http.StatusForbidden, w.Code)
}

func (s *ProjectHandlerTestSuite) TestDelete() {
	project := s.create("Apollo").Project
	path := fmt.Sprintf("/api/projects/%d", project.ID)

	s.Equal(http.StatusForbidden, s.env.do(s.T(), http.MethodDelete, path, s.alice.Token, nil).Code)

	w := s.env.do(s.T(), http.MethodDelete, path, s.manager.Token, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	s.True(decode[dto.SuccessResponse](s.T(), w).Success)

	s.Equal(http.StatusNotFound, s.env.do(s.T(), http.MethodDelete, path, s.manager.Token, nil).Code)
}

func (s *ProjectHandlerTestSuite) TestListProjectTasks() {
	project := s.create("Apollo", "alice@example.com").Project

	w := s.env.do(s.T(), http.MethodPost, "/api/tasks", s.alice.Token, fmt.Sprintf(`{"title":"Design","project":"%d"}`, project.ID))
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())

	w = s.env.do(s.T(), http.MethodGet, fmt.Sprintf("/api/projects/%d/tasks", project.ID), s.alice.Token, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	tasks := decode[[]dto.TaskDTO](s.T(), w)
	s.Require().Len(tasks, 1)
	s.Equal("Design", tasks[0].Title)

	w = s.env.do(s.T(), http.MethodGet, fmt.Sprintf("/api/projects/%d/tasks", project.ID), s.bob.Token, nil)
	s.Equal(http.StatusNotFound, w.Code)
}

func TestProjectHandlerTestSuite(t *testing.T) {
	suite.Run(t, new(ProjectHandlerTestSuite))
}

func TestProjectRoutesRequireAuth(t *testing.T) {
	env := setupHandlerTestEnv(t)

	w := env.do(t, http.MethodGet, "/api/projects", "", nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "UNAUTHORIZED", decode[errorBody](t, w).Code)
}
