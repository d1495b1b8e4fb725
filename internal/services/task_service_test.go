package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yukikurage/project-management-api/internal/models"
	"github.com/yukikurage/project-management-api/internal/policy"
)

func TestTaskService_CreateDefaults(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	alice := env.signup(t, "alice@example.com", "Alice", models.RoleTeamMember)

	task, err := env.tasks.CreateTask(ctx, alice, CreateTaskInput{Title: "  Write docs  "})
	require.NoError(t, err)

	assert.Equal(t, "Write docs", task.Title)
	assert.Equal(t, models.TaskStatusTodo, task.Status)
	assert.Equal(t, models.TaskPriorityMedium, task.Priority)
	assert.Equal(t, alice.ID, task.CreatorID)
	assert.Nil(t, task.ProjectID)
	assert.Nil(t, task.LatestComment())
}

func TestTaskService_CreateValidation(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	alice := env.signup(t, "alice@example.com", "Alice", models.RoleTeamMember)

	tests := []struct {
		name  string
		input CreateTaskInput
		want  error
	}{
		{"missing title", CreateTaskInput{Title: " "}, ErrTitleRequired},
		{"bad status", CreateTaskInput{Title: "t", Status: "blocked"}, ErrInvalidStatus},
		{"bad priority", CreateTaskInput{Title: "t", Priority: "urgent"}, ErrInvalidPriority},
		{"unknown project", CreateTaskInput{Title: "t", ProjectID: ptr(uint64(404))}, ErrUnknownProject},
		{"unknown assignee", CreateTaskInput{Title: "t", AssigneeID: ptr(uint64(404))}, ErrUnknownAssignee},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.tasks.CreateTask(ctx, alice, tt.input)
			require.ErrorIs(t, err, tt.want)
			assert.Equal(t, ErrValidation, Kind(err))
		})
	}
}

func TestTaskService_ListVisibility(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	admin := env.signup(t, "admin@example.com", "Admin", models.RoleAdmin)
	alice := env.signup(t, "alice@example.com", "Alice", models.RoleTeamMember)
	bob := env.signup(t, "bob@example.com", "Bob", models.RoleTeamMember)

	apollo := env.createProject(t, admin, "Apollo", "alice@example.com")
	gemini := env.createProject(t, admin, "Gemini", "bob@example.com")

	inMemberProject := env.createTask(t, admin, CreateTaskInput{Title: "Apollo task", ProjectID: &apollo.ID})
	assignedElsewhere := env.createTask(t, admin, CreateTaskInput{
		Title: "Gemini task for Alice", ProjectID: &gemini.ID, AssigneeID: &alice.ID,
	})
	hidden := env.createTask(t, admin, CreateTaskInput{Title: "Gemini task", ProjectID: &gemini.ID})
	projectless := env.createTask(t, bob, CreateTaskInput{Title: "Loose"})

	aliceTasks, err := env.tasks.ListTasks(ctx, alice, TaskListFilter{})
	require.NoError(t, err)
	assert.ElementsMatch(t, []uint64{inMemberProject.ID, assignedElsewhere.ID}, taskIDs(aliceTasks))

	bobTasks, err := env.tasks.ListTasks(ctx, bob, TaskListFilter{})
	require.NoError(t, err)
	assert.ElementsMatch(t, []uint64{assignedElsewhere.ID, hidden.ID}, taskIDs(bobTasks))

	all, err := env.tasks.ListTasks(ctx, admin, TaskListFilter{})
	require.NoError(t, err)
	assert.Equal(t, []uint64{projectless.ID, hidden.ID, assignedElsewhere.ID, inMemberProject.ID}, taskIDs(all))

	_, err = env.tasks.GetTask(ctx, alice, hidden.ID)
	require.ErrorIs(t, err, ErrTaskNotFound)
	got, err := env.tasks.GetTask(ctx, alice, assignedElsewhere.ID)
	require.NoError(t, err)
	assert.Equal(t, "Gemini task for Alice", got.Title)
}

func TestTaskService_ListWithoutMembershipsSeesAssignedOnly(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	admin := env.signup(t, "admin@example.com", "Admin", models.RoleAdmin)
	carol := env.signup(t, "carol@example.com", "Carol", models.RoleTeamMember)

	assigned := env.createTask(t, admin, CreateTaskInput{Title: "For Carol", AssigneeID: &carol.ID})
	env.createTask(t, admin, CreateTaskInput{Title: "Not for Carol"})

	tasks, err := env.tasks.ListTasks(ctx, carol, TaskListFilter{})
	require.NoError(t, err)
	assert.Equal(t, []uint64{assigned.ID}, taskIDs(tasks))
}

func TestTaskService_ListFilters(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	admin := env.signup(t, "admin@example.com", "Admin", models.RoleAdmin)
	apollo := env.createProject(t, admin, "Apollo")

	done := env.createTask(t, admin, CreateTaskInput{Title: "Done", Status: "done", ProjectID: &apollo.ID})
	env.createTask(t, admin, CreateTaskInput{Title: "Open", ProjectID: &apollo.ID})
	env.createTask(t, admin, CreateTaskInput{Title: "Other done", Status: "completed"})

	tasks, err := env.tasks.ListTasks(ctx, admin, TaskListFilter{Status: ptr("Completed"), ProjectID: &apollo.ID})
	require.NoError(t, err)
	assert.Equal(t, []uint64{done.ID}, taskIDs(tasks))

	_, err = env.tasks.ListTasks(ctx, admin, TaskListFilter{Status: ptr("someday")})
	require.ErrorIs(t, err, ErrInvalidStatus)
}

func TestTaskService_LatestCommentFollowsNewestComment(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	alice := env.signup(t, "alice@example.com", "Alice", models.RoleTeamMember)
	bob := env.signup(t, "bob@example.com", "Bob", models.RoleTeamMember)
	task := env.createTask(t, alice, CreateTaskInput{Title: "Review", AssigneeID: &alice.ID})

	_, err := env.tasks.AddComment(ctx, alice, task.ID, "first")
	require.NoError(t, err)
	updated, err := env.tasks.AddComment(ctx, bob, task.ID, "  second  ")
	require.NoError(t, err)

	require.Len(t, updated.Comments, 2)
	assert.Equal(t, bob.ID, updated.Comments[1].AuthorID)
	assert.Equal(t, "Bob", updated.Comments[1].Author.Name)

	tasks, err := env.tasks.ListTasks(ctx, alice, TaskListFilter{})
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	require.NotNil(t, tasks[0].LatestComment())
	assert.Equal(t, "second", *tasks[0].LatestComment())
}

func TestTaskService_AddCommentErrors(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	alice := env.signup(t, "alice@example.com", "Alice", models.RoleTeamMember)
	task := env.createTask(t, alice, CreateTaskInput{Title: "Review"})

	_, err := env.tasks.AddComment(ctx, alice, task.ID, "   ")
	require.ErrorIs(t, err, ErrCommentRequired)
	assert.Equal(t, ErrValidation, Kind(err))

	_, err = env.tasks.AddComment(ctx, alice, task.ID+100, "hello")
	require.ErrorIs(t, err, ErrTaskNotFound)
	assert.Equal(t, ErrNotFound, Kind(err))
}

func TestTaskService_UpdatePatch(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	admin := env.signup(t, "admin@example.com", "Admin", models.RoleAdmin)
	alice := env.signup(t, "alice@example.com", "Alice", models.RoleTeamMember)
	apollo := env.createProject(t, admin, "Apollo")

	task := env.createTask(t, admin, CreateTaskInput{
		Title:       "Ship",
		Description: "v1",
		ProjectID:   &apollo.ID,
		AssigneeID:  &alice.ID,
		Priority:    "high",
	})

	updated, err := env.tasks.UpdateTask(ctx, alice, task.ID, UpdateTaskInput{Status: ptr("In Progress")})
	require.NoError(t, err)
	assert.Equal(t, models.TaskStatusInProgress, updated.Status)
	assert.Equal(t, "Ship", updated.Title)
	assert.Equal(t, "v1", updated.Description)
	assert.Equal(t, models.TaskPriorityHigh, updated.Priority)
	require.NotNil(t, updated.ProjectID)
	assert.Equal(t, apollo.ID, *updated.ProjectID)

	_, err = env.tasks.UpdateTask(ctx, alice, task.ID, UpdateTaskInput{AssigneeID: ptr(uint64(404))})
	require.ErrorIs(t, err, ErrUnknownAssignee)

	updated, err = env.tasks.UpdateTask(ctx, alice, task.ID, UpdateTaskInput{ClearProject: true, ClearAssignee: true})
	require.NoError(t, err)
	assert.Nil(t, updated.ProjectID)
	assert.Nil(t, updated.AssigneeID)

	_, err = env.tasks.UpdateTask(ctx, alice, task.ID+100, UpdateTaskInput{Title: ptr("x")})
	require.ErrorIs(t, err, ErrTaskNotFound)
}

func TestTaskService_DeleteRemovesComments(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	alice := env.signup(t, "alice@example.com", "Alice", models.RoleTeamMember)
	task := env.createTask(t, alice, CreateTaskInput{Title: "Temp"})
	_, err := env.tasks.AddComment(ctx, alice, task.ID, "note")
	require.NoError(t, err)

	require.NoError(t, env.tasks.DeleteTask(ctx, alice, task.ID))

	var comments int64
	require.NoError(t, env.db.Model(&models.TaskComment{}).Where("task_id = ?", task.ID).Count(&comments).Error)
	assert.Zero(t, comments)

	require.ErrorIs(t, env.tasks.DeleteTask(ctx, alice, task.ID), ErrTaskNotFound)
}

func TestTaskService_AnyWriteRuleCoversVisibleTasks(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	admin := env.signup(t, "admin@example.com", "Admin", models.RoleAdmin)
	alice := env.signup(t, "alice@example.com", "Alice", models.RoleTeamMember)
	bob := env.signup(t, "bob@example.com", "Bob", models.RoleTeamMember)
	apollo := env.createProject(t, admin, "Apollo", "bob@example.com")

	shared := env.createTask(t, alice, CreateTaskInput{Title: "Shared", ProjectID: &apollo.ID})
	_, err := env.tasks.UpdateTask(ctx, bob, shared.ID, UpdateTaskInput{Title: ptr("Bob was here")})
	require.NoError(t, err)
	require.NoError(t, env.tasks.DeleteTask(ctx, bob, shared.ID))

	hidden := env.createTask(t, admin, CreateTaskInput{Title: "Hidden"})
	_, err = env.tasks.GetTask(ctx, bob, hidden.ID)
	require.ErrorIs(t, err, ErrTaskNotFound)
	_, err = env.tasks.UpdateTask(ctx, bob, hidden.ID, UpdateTaskInput{Title: ptr("nope")})
	require.ErrorIs(t, err, ErrTaskNotFound)
	require.ErrorIs(t, env.tasks.DeleteTask(ctx, bob, hidden.ID), ErrTaskNotFound)

	reloaded, err := env.tasks.GetTask(ctx, admin, hidden.ID)
	require.NoError(t, err)
	assert.Equal(t, "Hidden", reloaded.Title)
}

func TestTaskService_AssignedWriteRule(t *testing.T) {
	env := setupTestEnvWithRule(t, policy.TaskWriteAssigned)
	ctx := context.Background()

	manager := env.signup(t, "pm@example.com", "PM", models.RoleProjectManager)
	alice := env.signup(t, "alice@example.com", "Alice", models.RoleTeamMember)
	bob := env.signup(t, "bob@example.com", "Bob", models.RoleTeamMember)

	carol := env.signup(t, "carol@example.com", "Carol", models.RoleTeamMember)
	apollo := env.createProject(t, manager, "Apollo", "bob@example.com")

	task := env.createTask(t, manager, CreateTaskInput{Title: "Assigned", ProjectID: &apollo.ID, AssigneeID: &alice.ID})

	_, err := env.tasks.UpdateTask(ctx, bob, task.ID, UpdateTaskInput{Title: ptr("nope")})
	require.ErrorIs(t, err, ErrTaskForbidden)
	assert.Equal(t, ErrForbidden, Kind(err))
	require.ErrorIs(t, env.tasks.DeleteTask(ctx, bob, task.ID), ErrTaskForbidden)

	_, err = env.tasks.UpdateTask(ctx, carol, task.ID, UpdateTaskInput{Title: ptr("nope")})
	require.ErrorIs(t, err, ErrTaskNotFound)

	_, err = env.tasks.UpdateTask(ctx, alice, task.ID, UpdateTaskInput{Status: ptr("completed")})
	require.NoError(t, err)

	own := env.createTask(t, bob, CreateTaskInput{Title: "Bob's own"})
	_, err = env.tasks.UpdateTask(ctx, bob, own.ID, UpdateTaskInput{Title: ptr("Still Bob's")})
	require.NoError(t, err)

	require.NoError(t, env.tasks.DeleteTask(ctx, manager, task.ID))
}
