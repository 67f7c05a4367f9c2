package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/phrazzld/mindset-api/internal/config"
	"github.com/phrazzld/mindset-api/internal/content"
	"github.com/phrazzld/mindset-api/internal/domain/progression"
	"github.com/phrazzld/mindset-api/internal/events"
	"github.com/phrazzld/mindset-api/internal/platform/gemini"
	"github.com/phrazzld/mindset-api/internal/platform/postgres"
	"github.com/phrazzld/mindset-api/internal/platform/redis"
	"github.com/phrazzld/mindset-api/internal/service"
	"github.com/phrazzld/mindset-api/internal/service/auth"
	"github.com/phrazzld/mindset-api/internal/service/player"
	"github.com/phrazzld/mindset-api/internal/store"
)

// application holds all the shared application dependencies to simplify
// management and ensure proper cleanup on shutdown.
type application struct {
	// Configuration
	config *config.Config

	// Core infrastructure
	logger      *slog.Logger
	db          *sql.DB
	redisClient *goredis.Client

	// Stores (using interfaces for proper abstraction)
	userStore    store.UserStore
	profileStore store.ProfileStore
	profileCache store.ProfileCache

	// Service interfaces
	jwtService       auth.JWTService
	passwordVerifier auth.PasswordVerifier
	coachService     service.CoachService

	// Progression engine
	calculator   *progression.Calculator
	eventEmitter events.EventEmitter
	sessions     *player.Manager
	library      *content.Library

	// sessionCancel stops the session manager's idle sweeper.
	sessionCancel context.CancelFunc
}

// newApplication creates a new application instance with all dependencies
// initialized. It accepts core dependencies like configuration, logger, and
// database connection that must be established before application
// initialization.
func newApplication(
	ctx context.Context,
	cfg *config.Config,
	logger *slog.Logger,
	db *sql.DB,
) (*application, error) {
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

	app.passwordVerifier = auth.NewBcryptVerifier()

	app.userStore = postgres.NewPostgresUserStore(db, cfg.Auth.BcryptCost)
	app.profileStore = postgres.NewPostgresProfileStore(db, logger)

	if cfg.Cache.Addr != "" {
		app.redisClient, err = redis.NewClient(ctx, cfg.Cache)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		app.profileCache = redis.NewProfileCache(redis.NewCache(app.redisClient))
		logger.Info("Profile cache connected", "addr", cfg.Cache.Addr)
	} else {
		app.profileCache = store.NewNoopProfileCache()
		logger.Info("Profile cache disabled, sessions load from the store only")
	}

	app.calculator, err = progression.NewCalculator(progressionParams(cfg.Game))
	if err != nil {
		return nil, fmt.Errorf("failed to build progression calculator: %w", err)
	}

	emitter := events.NewInMemoryEventEmitter(logger)
	emitter.RegisterHandler(events.NewLoggingHandler(logger.With("component", "progress_log")))
	app.eventEmitter = emitter

	app.sessions, err = player.NewManager(
		app.profileStore,
		app.profileCache,
		app.calculator,
		app.eventEmitter,
		time.Duration(cfg.Game.SaveDebounceMillis)*time.Millisecond,
		time.Duration(cfg.Game.SessionIdleTimeoutMins)*time.Minute,
		logger,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create session manager: %w", err)
	}

	app.library, err = content.LoadDir(cfg.Server.ContentDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load book content: %w", err)
	}
	logger.Info("Book content loaded", "books", len(app.library.Books()))

	// The coach is optional: without an API key the chat endpoint reports
	// the feature as unavailable.
	if cfg.LLM.GeminiAPIKey != "" {
		relay, err := gemini.NewCoachRelay(ctx, logger.With("component", "coach_relay"), cfg.LLM)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize coach relay: %w", err)
		}
		app.coachService, err = service.NewCoachService(relay, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create coach service: %w", err)
		}
		logger.Info("AI coach initialized", "model", cfg.LLM.ModelName)
	} else {
		logger.Info("AI coach disabled, no API key configured")
	}

	logger.Info("Application initialized successfully")
	return app, nil
}

// progressionParams maps the tunable game configuration onto progression
// parameters. The level curve itself is not configurable and stays at the
// shipped threshold table.
func progressionParams(cfg config.GameConfig) *progression.Params {
	params := progression.DefaultParams()
	params.MaxHearts = cfg.MaxHearts
	params.HeartRecoveryInterval = time.Duration(cfg.HeartRecoveryMinutes) * time.Minute
	params.FreeDailyTokens = cfg.FreeDailyTokens
	params.XPCorrectAnswer = cfg.XPCorrectAnswer
	params.XPLessonComplete = cfg.XPLessonComplete
	params.XPPerfectLesson = cfg.XPPerfectLesson
	return params
}

// Run starts the session manager's idle sweeper and the HTTP server,
// handling lifecycle and cleanup.
func (app *application) Run(ctx context.Context) error {
	sweepCtx, cancel := context.WithCancel(ctx)
	app.sessionCancel = cancel
	go app.sessions.Run(sweepCtx)

	router := app.setupRouter()

	if err := app.startHTTPServer(ctx, router); err != nil {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

// cleanup handles graceful shutdown of application resources: active player
// sessions are flushed to the store before the connections close underneath
// them.
func (app *application) cleanup() {
	if app.sessionCancel != nil {
		app.sessionCancel()
	}
	if app.sessions != nil {
		app.sessions.CloseAll()
	}

	if app.redisClient != nil {
		if err := app.redisClient.Close(); err != nil {
			app.logger.Error("Error closing redis connection", "error", err)
		}
	}

	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("Error closing database connection", "error", err)
		}
	}

	app.logger.Info("Application shutdown completed")
}
