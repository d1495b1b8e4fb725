package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/yukikurage/project-management-api/internal/config"
	"github.com/yukikurage/project-management-api/internal/database"
	"github.com/yukikurage/project-management-api/internal/handlers"
	"github.com/yukikurage/project-management-api/internal/logger"
	"github.com/yukikurage/project-management-api/internal/notification"
	"github.com/yukikurage/project-management-api/internal/policy"
	"github.com/yukikurage/project-management-api/internal/repository"
	"github.com/yukikurage/project-management-api/internal/router"
	"github.com/yukikurage/project-management-api/internal/services"
	"github.com/yukikurage/project-management-api/internal/storage"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		bootLog := logger.New(config.EnvLocal)
		bootLog.Fatal().Err(err).Msg("failed to load configuration")
	}

	log := logger.New(cfg.Env)

	// Set Gin mode
	gin.SetMode(cfg.GinMode)

	// Connect to database
	db, err := database.Connect(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}

	// Run migrations
	if err := database.Migrate(db, log); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}

	rdb := connectRedis(cfg.Redis, log)

	notifier, closeNotifier := newNotifier(cfg.Notify, log)
	defer closeNotifier()

	dispatcher := notification.NewDispatcher(notifier, notification.Options{
		Timeout:     cfg.Notify.Timeout,
		Retries:     cfg.Notify.Retries,
		Backoff:     cfg.Notify.Backoff,
		Concurrency: cfg.Notify.Concurrency,
	}, log)

	blobs, err := storage.NewLocalStore(cfg.Uploads.Dir)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to prepare upload directory")
	}

	taskWrite, err := policy.ParseTaskWriteRule(cfg.Policy.TaskWrite)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid task write policy")
	}
	pol := policy.New(taskWrite)

	userRepo := repository.NewUserRepository(db)
	projectRepo := repository.NewProjectRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	eventRepo := repository.NewEventRepository(db)
	fileRepo := repository.NewFileRepository(db)
	settingRepo := repository.NewSettingRepository(db)

	tokens := services.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer, cfg.Auth.JWTTTL)
	authService := services.NewAuthService(userRepo, tokens, dispatcher, blobs, services.AuthOptions{
		BcryptCost:    cfg.Auth.BcryptCost,
		ResetTokenTTL: cfg.Auth.ResetTokenTTL,
		FrontendURL:   cfg.FrontendURL,
	}, log)
	projectService := services.NewProjectService(projectRepo, userRepo, taskRepo, pol, dispatcher, cfg.FrontendURL, log)
	taskService := services.NewTaskService(taskRepo, projectRepo, userRepo, pol)
	eventService := services.NewEventService(eventRepo, projectRepo, pol, dispatcher, cfg.FrontendURL, log)
	fileService := services.NewFileService(fileRepo, blobs)
	userService := services.NewUserService(userRepo)
	reportService := services.NewReportService(projectRepo, taskService, pol)
	settingService := services.NewSettingService(settingRepo)

	// Initialize handlers
	engine := router.New(router.Handlers{
		Auth:     handlers.NewAuthHandler(authService, cfg.Uploads.MaxBytes),
		Project:  handlers.NewProjectHandler(projectService),
		Task:     handlers.NewTaskHandler(taskService),
		Event:    handlers.NewEventHandler(eventService),
		File:     handlers.NewFileHandler(fileService, cfg.Uploads.MaxBytes),
		User:     handlers.NewUserHandler(userService),
		Report:   handlers.NewReportHandler(reportService),
		Setting:  handlers.NewSettingHandler(settingService),
		Verifier: authService,
	}, router.Options{
		RateLimit: cfg.RateLimit,
		Redis:     rdb,
		UploadDir: blobs.Root(),
		Log:       log,
	})

	server := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: engine,
	}

	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Msg("server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("failed to listen and serve http")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down http server")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("failed to shut down http server")
	}

	if rdb != nil {
		if err := rdb.Close(); err != nil {
			log.Error().Err(err).Msg("failed to close redis client")
		}
	}

	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}

	log.Info().Msg("shut down http server")
}

// connectRedis returns nil when no address is configured or the server is
// unreachable. Rate limiting is skipped without it.
func connectRedis(cfg config.RedisConfig, log zerolog.Logger) *redis.Client {
	if cfg.Addr == "" {
		log.Info().Msg("redis not configured, rate limiting disabled")
		return nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), cfg.DialTimeout)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Warn().Err(err).Str("addr", cfg.Addr).Msg("redis unreachable, rate limiting disabled")
		_ = rdb.Close()
		return nil
	}

	log.Info().Str("addr", cfg.Addr).Msg("redis connected")
	return rdb
}

func newNotifier(cfg config.NotifyConfig, log zerolog.Logger) (notification.Notifier, func()) {
	noop := func() {}

	switch cfg.Transport {
	case config.NotifierBrevo:
		return notification.NewBrevoNotifier(cfg.BrevoBaseURL, cfg.BrevoAPIKey, cfg.FromEmail, cfg.FromName), noop
	case config.NotifierSMTP:
		return notification.NewSMTPNotifier(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword, cfg.FromEmail, cfg.FromName), noop
	case config.NotifierAMQP:
		n, err := notification.DialAMQP(cfg.AMQPURL, cfg.AMQPQueue)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to message broker")
		}
		return n, func() {
			if err := n.Close(); err != nil {
				log.Error().Err(err).Msg("failed to close broker connection")
			}
		}
	default:
		return notification.NewLogNotifier(log), noop
	}
}
