package main

import (
	"context"
	"errors"
	"io/fs"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"spotbuddy/workout-bot/internal/api"
	"spotbuddy/workout-bot/internal/bot"
	"spotbuddy/workout-bot/internal/config"
	"spotbuddy/workout-bot/internal/logging"
	"spotbuddy/workout-bot/internal/repository"
	"spotbuddy/workout-bot/internal/repository/memory"
	"spotbuddy/workout-bot/internal/repository/mongo"
	"spotbuddy/workout-bot/internal/service"
	"spotbuddy/workout-bot/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

type repositories struct {
	users    repository.UserRepository
	groups   repository.GroupRepository
	workouts repository.WorkoutRepository
	exports  repository.ExportRepository
	close    func()
}

func openRepositories(ctx context.Context, cfg config.DatabaseConfig, logger logrus.FieldLogger) (*repositories, error) {
	if cfg.InMemory() {
		logger.Warn("using in-memory repositories; data is lost on restart")
		return &repositories{
			users:    memory.NewUserRepository(),
			groups:   memory.NewGroupRepository(),
			workouts: memory.NewWorkoutRepository(),
			exports:  memory.NewExportRepository(),
			close:    func() {},
		}, nil
	}

	dbClient, err := mongo.ConnectDB(cfg.URI, cfg.Username, cfg.Password)
	if err != nil {
		return nil, err
	}
	appDB := dbClient.Database(cfg.Name)
	logger.WithField("database", cfg.Name).Info("database connection established")

	indexCtx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()
	if err := mongo.EnsureIndexes(indexCtx, appDB); err != nil {
		// Queries still work without indexes, only slower.
		logger.WithError(err).Error("failed to ensure indexes")
	}

	return &repositories{
		users:    mongo.NewMongoUserRepository(appDB),
		groups:   mongo.NewMongoGroupRepository(appDB),
		workouts: mongo.NewMongoWorkoutRepository(appDB, logger),
		exports:  mongo.NewMongoExportRepository(appDB),
		close: func() {
			if err := mongo.DisconnectDB(dbClient); err != nil {
				logger.WithError(err).Error("failed to disconnect MongoDB")
			}
		},
	}, nil
}

func openStorage(ctx context.Context, cfg config.S3Config, logger logrus.FieldLogger) storage.FileStorage {
	if !cfg.Enabled() {
		logger.Info("no export bucket configured; exports disabled")
		return storage.Disabled{}
	}
	fileStorage, err := storage.NewS3Storage(ctx, cfg, logger)
	if err != nil {
		logger.WithError(err).Error("failed to initialize S3 storage; exports disabled")
		return storage.Disabled{}
	}
	return fileStorage
}

// newRouter builds the services over repos and mounts them on a gin engine.
func newRouter(
	cfg config.Config,
	repos *repositories,
	fileStorage storage.FileStorage,
	messenger bot.Messenger,
	botUsername string,
	logger logrus.FieldLogger,
) (*gin.Engine, error) {
	workoutService, err := service.NewWorkoutService(repos.workouts, repos.groups, repos.users, cfg.App.DefaultTimezone, logger)
	if err != nil {
		return nil, err
	}
	groupService := service.NewGroupService(repos.groups, repos.workouts, repos.users, logger)
	userService := service.NewUserService(repos.users)
	calendarService := service.NewCalendarService(workoutService)
	exportService := service.NewExportService(workoutService, repos.exports, fileStorage, cfg.S3.URLExpiry, logger)
	dispatcher := bot.NewDispatcher(messenger, groupService, cfg.App.MiniAppURL(), botUsername, logger)

	router := api.NewRouter(logger)
	api.SetupRoutes(router, logger, workoutService, groupService, userService, calendarService, exportService, dispatcher)
	return router, nil
}

func main() {
	// A missing .env is normal outside local development.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logrus.WithError(err).Warn("failed to read .env")
	}

	cfg, err := config.LoadConfig(".")
	if err != nil {
		logrus.WithError(err).Fatal("could not load config")
	}
	logger := logging.NewLogger(cfg.Log.Level)
	logger.Info("starting Spot Buddy server")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	repos, err := openRepositories(ctx, cfg.Database, logger)
	if err != nil {
		logger.WithError(err).Fatal("could not connect to MongoDB")
	}
	defer repos.close()

	// --- Telegram ---
	client, err := bot.NewClient(cfg.Telegram.Token, cfg.Telegram.APIURL)
	if err != nil {
		logger.WithError(err).Fatal("could not create Telegram client")
	}
	meCtx, cancelMe := context.WithTimeout(ctx, 10*time.Second)
	username := bot.Username(meCtx, client, logger)
	cancelMe()
	go func() {
		setupCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
		if err := bot.Setup(setupCtx, client, cfg.App.WebhookURL(), logger); err != nil {
			logger.WithError(err).Warn("bot setup incomplete")
		}
	}()

	// --- HTTP ---
	if cfg.Log.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	router, err := newRouter(cfg, repos, openStorage(ctx, cfg.S3, logger), client, username, logger)
	if err != nil {
		logger.WithError(err).Fatal("invalid default timezone")
	}

	server := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.WithFields(logrus.Fields{
			"addr":     server.Addr,
			"mini_app": cfg.App.MiniAppURL(),
		}).Info("server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("ListenAndServe failed")
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down server")

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancelShutdown()
	if err := server.Shutdown(ctxShutdown); err != nil {
		logger.WithError(err).Error("server forced to shutdown")
	}
	logger.Info("server exiting")
}
