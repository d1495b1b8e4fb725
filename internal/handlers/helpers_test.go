package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/yukikurage/project-management-api/internal/database"
	"github.com/yukikurage/project-management-api/internal/dto"
	"github.com/yukikurage/project-management-api/internal/middleware"
	"github.com/yukikurage/project-management-api/internal/notification"
	"github.com/yukikurage/project-management-api/internal/policy"
	"github.com/yukikurage/project-management-api/internal/repository"
	"github.com/yukikurage/project-management-api/internal/services"
	"github.com/yukikurage/project-management-api/internal/storage"
)

const testMaxUploadBytes = 1 << 20

type outbox struct {
	mu      sync.Mutex
	sent    []notification.Message
	failFor map[string]bool
}

func (o *outbox) Send(_ context.Context, msg notification.Message) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.failFor[msg.To] {
		return errors.New("mailbox unavailable")
	}
	o.sent = append(o.sent, msg)
	return nil
}

func (o *outbox) messages() []notification.Message {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]notification.Message(nil), o.sent...)
}

type handlerTestEnv struct {
	db     *gorm.DB
	outbox *outbox
	router *gin.Engine
}

func setupHandlerTestEnv(t *testing.T) handlerTestEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() {
		sqlDB.Close()
	})

	log := zerolog.Nop()
	require.NoError(t, database.Migrate(db, log))

	blobs, err := storage.NewLocalStore(t.TempDir())
	require.NoError(t, err)

	box := &outbox{failFor: map[string]bool{}}
	dispatcher := notification.NewDispatcher(box, notification.Options{
		Timeout: 2 * time.Second,
		Backoff: time.Millisecond,
	}, log)

	userRepo := repository.NewUserRepository(db)
	projectRepo := repository.NewProjectRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	pol := policy.New(policy.TaskWriteAny)

	authService := services.NewAuthService(userRepo, services.NewTokenManager("test-secret", "test", time.Hour), dispatcher, blobs, services.AuthOptions{
		BcryptCost:    bcrypt.MinCost,
		ResetTokenTTL: 10 * time.Minute,
		FrontendURL:   "http://frontend.test",
	}, log)
	taskService := services.NewTaskService(taskRepo, projectRepo, userRepo, pol)

	authHandler := NewAuthHandler(authService, testMaxUploadBytes)
	projectHandler := NewProjectHandler(services.NewProjectService(projectRepo, userRepo, taskRepo, pol, dispatcher, "http://frontend.test", log))
	taskHandler := NewTaskHandler(taskService)
	eventHandler := NewEventHandler(services.NewEventService(repository.NewEventRepository(db), projectRepo, pol, dispatcher, "http://frontend.test", log))
	fileHandler := NewFileHandler(services.NewFileService(repository.NewFileRepository(db), blobs), testMaxUploadBytes)
	userHandler := NewUserHandler(services.NewUserService(userRepo))
	reportHandler := NewReportHandler(services.NewReportService(projectRepo, taskService, pol))
	settingHandler := NewSettingHandler(services.NewSettingService(repository.NewSettingRepository(db)))

	gin.SetMode(gin.TestMode)
	router := gin.New()
	requireAuth := middleware.RequireAuth(authService)

	api := router.Group("/api")
	api.POST("/auth/signup", authHandler.Signup)
	api.POST("/auth/login", authHandler.Login)
	api.POST("/auth/forgot-password", authHandler.ForgotPassword)
	api.POST("/auth/reset-password", authHandler.ResetPassword)

	protected := api.Group("", requireAuth)
	protected.GET("/auth/me", authHandler.Me)
	protected.POST("/auth/upload-avatar", authHandler.UploadAvatar)
	protected.DELETE("/auth/delete-avatar", authHandler.DeleteAvatar)
	protected.GET("/projects", projectHandler.ListProjects)
	protected.POST("/projects", projectHandler.CreateProject)
	protected.GET("/projects/:id", projectHandler.GetProject)
	protected.PUT("/projects/:id", projectHandler.UpdateProject)
	protected.DELETE("/projects/:id", projectHandler.DeleteProject)
	protected.GET("/projects/:id/tasks", projectHandler.ListProjectTasks)
	protected.GET("/tasks", taskHandler.ListTasks)
	protected.POST("/tasks", taskHandler.CreateTask)
	protected.GET("/tasks/:id", taskHandler.GetTask)
	protected.PUT("/tasks/:id", taskHandler.UpdateTask)
	protected.DELETE("/tasks/:id", taskHandler.DeleteTask)
	protected.POST("/tasks/:id/comments", taskHandler.AddComment)
	protected.GET("/events", eventHandler.ListEvents)
	protected.POST("/events", eventHandler.CreateEvent)
	protected.DELETE("/events/:id", eventHandler.DeleteEvent)
	protected.GET("/files", fileHandler.ListFiles)
	protected.POST("/files/upload", fileHandler.UploadFile)
	protected.GET("/users", userHandler.SearchUsers)
	protected.GET("/reports/summary", reportHandler.Summary)
	protected.GET("/settings", settingHandler.GetSettings)
	protected.POST("/settings", settingHandler.SaveSettings)

	return handlerTestEnv{
		db:     db,
		outbox: box,
		router: router,
	}
}

// do sends a JSON request. body may be nil, a string of raw JSON, or any
// value encodable as JSON.
func (env handlerTestEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewBuffer(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	return w
}

func (env handlerTestEnv) upload(t *testing.T, path, token, field, filename, contentType string, content []byte) *httptest.ResponseRecorder {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, field, filename))
	header.Set("Content-Type", contentType)
	part, err := writer.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, path, body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)

	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	return w
}

// signup registers a user through the API and returns the session.
func (env handlerTestEnv) signup(t *testing.T, email, name, role string) dto.AuthResponse {
	t.Helper()

	w := env.do(t, http.MethodPost, "/api/auth/signup", "", dto.SignupRequest{
		Email:    email,
		Password: "password123",
		Name:     name,
		Role:     role,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp dto.AuthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()

	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

type errorBody struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details"`
}
