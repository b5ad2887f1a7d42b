package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/dotdapp/dotd-api/internal/config"
	"github.com/dotdapp/dotd-api/internal/generation"
	"github.com/dotdapp/dotd-api/internal/media"
	"github.com/dotdapp/dotd-api/internal/platform/n8n"
	"github.com/dotdapp/dotd-api/internal/platform/postgres"
	"github.com/dotdapp/dotd-api/internal/service"
	"github.com/dotdapp/dotd-api/internal/service/auth"
	"github.com/dotdapp/dotd-api/internal/store"
	"github.com/dotdapp/dotd-api/internal/task"
)

// application holds all the shared application dependencies to simplify
// management and ensure proper cleanup on shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB

	// Stores
	userStore     store.UserStore
	creationStore store.CreationStore
	statusStore   task.StatusStore

	// Services
	jwtService      auth.JWTService
	userService     service.UserService
	creationService *service.CreationService

	// Generation pipeline
	generationClient generation.Client
	extractor        generation.Extractor
	mediaStore       *media.FileStore

	// Task handling
	taskRunner *task.Runner
}

// newApplication creates a new application instance with all dependencies
// initialized. Configuration, logging and the database connection must be
// established before this is called.
func newApplication(cfg *config.Config, logger *slog.Logger, db *sql.DB) (*application, error) {
	app := &application{
		config: cfg,
		logger: logger,
		db:     db,
	}

	var err error
	app.jwtService, err = auth.NewJWTService(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize JWT service: %w", err)
	}
	logger.Info("JWT authentication service initialized",
		"token_lifetime_minutes", cfg.Auth.TokenLifetimeMinutes)

	// Stores
	app.userStore = postgres.NewUserStore(db)
	app.creationStore = postgres.NewCreationStore(db)
	app.statusStore = task.NewMemoryStatusStore(logger)

	// Generation pipeline
	app.generationClient, err = n8n.NewClient(cfg.Generation, logger.With("component", "n8n_client"))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize generation client: %w", err)
	}

	app.extractor, err = generation.NewExtractor(cfg.Generation.ResponseShape)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize result extractor: %w", err)
	}

	app.mediaStore, err = media.NewFileStore(cfg.Media, logger.With("component", "media_store"))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize media store: %w", err)
	}

	// Task runner
	app.taskRunner = task.NewRunner(task.DefaultRunnerConfig(), logger)
	app.taskRunner.Start()

	// Services
	app.userService = service.NewUserService(app.userStore, auth.NewBcryptHasher(), logger)
	app.creationService = service.NewCreationService(
		app.creationStore,
		app.statusStore,
		app.taskRunner,
		app.generationClient,
		app.extractor,
		app.mediaStore,
		cfg.Quota,
		logger,
	)

	logger.Info("application initialized successfully")
	return app, nil
}

// Run starts the application server, handling lifecycle and cleanup.
func (app *application) Run(ctx context.Context) error {
	router := app.setupRouter()

	if err := app.startHTTPServer(ctx, router); err != nil {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

// cleanup handles graceful shutdown of application resources.
func (app *application) cleanup() {
	if app.taskRunner != nil {
		app.taskRunner.Stop()
	}

	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("error closing database connection", "error", err)
		}
	}

	app.logger.Info("application shutdown completed")
}
