package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/yukikurage/project-management-api/internal/config"
	"github.com/yukikurage/project-management-api/internal/constants"
	"github.com/yukikurage/project-management-api/internal/handlers"
	"github.com/yukikurage/project-management-api/internal/middleware"
)

// Handlers groups every HTTP handler the API mounts.
type Handlers struct {
	Auth     *handlers.AuthHandler
	Project  *handlers.ProjectHandler
	Task     *handlers.TaskHandler
	Event    *handlers.EventHandler
	File     *handlers.FileHandler
	User     *handlers.UserHandler
	Report   *handlers.ReportHandler
	Setting  *handlers.SettingHandler
	Verifier middleware.TokenVerifier
}

// Options configures the cross-cutting middleware.
type Options struct {
	RateLimit config.RateLimitConfig
	Redis     *redis.Client
	// UploadDir is served read-only under /uploads when set.
	UploadDir string
	Log       zerolog.Logger
}

// New builds the gin engine with every route registered.
func New(h Handlers, opts Options) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(opts.Log))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"message": "Project Management API is running",
		})
	})

	if opts.UploadDir != "" {
		r.Static(constants.UploadsURLPrefix, opts.UploadDir)
	}

	requireAuth := middleware.RequireAuth(h.Verifier)
	limit := middleware.RateLimit(opts.RateLimit, opts.Redis, opts.Log)

	api := r.Group("/api")
	{
		// Auth routes
		auth := api.Group("/auth")
		{
			auth.POST("/signup", limit, h.Auth.Signup)
			auth.POST("/login", limit, h.Auth.Login)
			auth.POST("/forgot-password", limit, h.Auth.ForgotPassword)
			auth.POST("/reset-password", limit, h.Auth.ResetPassword)
			auth.GET("/me", requireAuth, h.Auth.Me)
			auth.POST("/upload-avatar", requireAuth, h.Auth.UploadAvatar)
			auth.DELETE("/delete-avatar", requireAuth, h.Auth.DeleteAvatar)
		}

		// Project routes (protected)
		projects := api.Group("/projects")
		projects.Use(requireAuth)
		{
			projects.GET("", h.Project.ListProjects)
			projects.POST("", h.Project.CreateProject)
			projects.GET("/:id", h.Project.GetProject)
			projects.PUT("/:id", h.Project.UpdateProject)
			projects.DELETE("/:id", h.Project.DeleteProject)
			projects.GET("/:id/tasks", h.Project.ListProjectTasks)
		}

		// Task routes (protected)
		tasks := api.Group("/tasks")
		tasks.Use(requireAuth)
		{
			tasks.GET("", h.Task.ListTasks)
			tasks.POST("", h.Task.CreateTask)
			tasks.GET("/:id", h.Task.GetTask)
			tasks.PUT("/:id", h.Task.UpdateTask)
			tasks.PATCH("/:id", h.Task.UpdateTask)
			tasks.DELETE("/:id", h.Task.DeleteTask)
			tasks.POST("/:id/comments", h.Task.AddComment)
		}

		events := api.Group("/events")
		events.Use(requireAuth)
		{
			events.GET("", h.Event.ListEvents)
			events.POST("", h.Event.CreateEvent)
			events.DELETE("/:id", h.Event.DeleteEvent)
		}

		files := api.Group("/files")
		files.Use(requireAuth)
		{
			files.GET("", h.File.ListFiles)
			files.POST("/upload", h.File.UploadFile)
		}

		api.GET("/users", requireAuth, h.User.SearchUsers)
		api.GET("/reports/summary", requireAuth, h.Report.Summary)
		api.GET("/settings", requireAuth, h.Setting.GetSettings)
		api.POST("/settings", requireAuth, h.Setting.SaveSettings)
	}

	return r
}
