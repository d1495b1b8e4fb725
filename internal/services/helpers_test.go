package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/yukikurage/project-management-api/internal/database"
	"github.com/yukikurage/project-management-api/internal/models"
	"github.com/yukikurage/project-management-api/internal/notification"
	"github.com/yukikurage/project-management-api/internal/policy"
	"github.com/yukikurage/project-management-api/internal/repository"
	"github.com/yukikurage/project-management-api/internal/storage"
)

const testFrontendURL = "http://frontend.test"

// recordingNotifier captures every message and fails for the addresses in
// failFor.
type recordingNotifier struct {
	mu      sync.Mutex
	sent    []notification.Message
	failFor map[string]bool
}

func (n *recordingNotifier) Send(ctx context.Context, msg notification.Message) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.failFor[msg.To] {
		return errors.New("smtp: mailbox unavailable")
	}
	n.sent = append(n.sent, msg)
	return nil
}

func (n *recordingNotifier) fail(email string) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.failFor == nil {
		n.failFor = make(map[string]bool)
	}
	n.failFor[email] = true
}

func (n *recordingNotifier) recipients() []string {
	n.mu.Lock()
	defer n.mu.Unlock()

	out := make([]string, len(n.sent))
	for i, msg := range n.sent {
		out[i] = msg.To
	}
	return out
}

func (n *recordingNotifier) last() notification.Message {
	n.mu.Lock()
	defer n.mu.Unlock()

	return n.sent[len(n.sent)-1]
}

type testEnv struct {
	db       *gorm.DB
	notifier *recordingNotifier
	blobs    *storage.LocalStore

	auth     *AuthService
	projects *ProjectService
	tasks    *TaskService
	events   *EventService
	files    *FileService
	users    *UserService
	reports  *ReportService
	settings *SettingService
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// Every connection to ":memory:" is a separate database.
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() {
		sqlDB.Close()
	})

	require.NoError(t, database.Migrate(db, zerolog.Nop()))
	return db
}

func setupTestEnv(t *testing.T) testEnv {
	return setupTestEnvWithRule(t, policy.TaskWriteAny)
}

func setupTestEnvWithRule(t *testing.T, rule policy.TaskWriteRule) testEnv {
	t.Helper()

	db := newTestDB(t)
	log := zerolog.Nop()

	blobs, err := storage.NewLocalStore(t.TempDir())
	require.NoError(t, err)

	notifier := &recordingNotifier{}
	dispatcher := notification.NewDispatcher(notifier, notification.Options{
		Timeout: 2 * time.Second,
		Backoff: time.Millisecond,
	}, log)

	userRepo := repository.NewUserRepository(db)
	projectRepo := repository.NewProjectRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	eventRepo := repository.NewEventRepository(db)
	fileRepo := repository.NewFileRepository(db)
	settingRepo := repository.NewSettingRepository(db)

	pol := policy.New(rule)
	tokens := NewTokenManager("test-secret", "test", time.Hour)

	taskService := NewTaskService(taskRepo, projectRepo, userRepo, pol)

	return testEnv{
		db:       db,
		notifier: notifier,
		blobs:    blobs,
		auth: NewAuthService(userRepo, tokens, dispatcher, blobs, AuthOptions{
			BcryptCost:    bcrypt.MinCost,
			ResetTokenTTL: 10 * time.Minute,
			FrontendURL:   testFrontendURL,
		}, log),
		projects: NewProjectService(projectRepo, userRepo, taskRepo, pol, dispatcher, testFrontendURL, log),
		tasks:    taskService,
		events:   NewEventService(eventRepo, projectRepo, pol, dispatcher, testFrontendURL, log),
		files:    NewFileService(fileRepo, blobs),
		users:    NewUserService(userRepo),
		reports:  NewReportService(projectRepo, taskService, pol),
		settings: NewSettingService(settingRepo),
	}
}

func (env testEnv) signup(t *testing.T, email, name string, role models.Role) policy.Actor {
	t.Helper()

	result, err := env.auth.Signup(context.Background(), SignupInput{
		Email:    email,
		Password: "password123",
		Name:     name,
		Role:     string(role),
	})
	require.NoError(t, err)
	return policy.ActorOf(result.User)
}

func (env testEnv) createProject(t *testing.T, actor policy.Actor, title string, emails ...string) *models.Project {
	t.Helper()

	result, err := env.projects.CreateProject(context.Background(), actor, CreateProjectInput{
		Title:        title,
		MemberEmails: emails,
	})
	require.NoError(t, err)
	return result.Project
}

func (env testEnv) createTask(t *testing.T, actor policy.Actor, input CreateTaskInput) *models.Task {
	t.Helper()

	task, err := env.tasks.CreateTask(context.Background(), actor, input)
	require.NoError(t, err)
	return task
}

func taskIDs(tasks []models.Task) []uint64 {
	ids := make([]uint64, len(tasks))
	for i, task := range tasks {
		ids[i] = task.ID
	}
	return ids
}

func ptr[T any](v T) *T {
	return &v
}
