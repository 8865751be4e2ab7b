// Package app provides the application lifecycle management for the
// campaign orchestration service.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"

	"github.com/jonesrussell/social-swarm/internal/api"
	"github.com/jonesrussell/social-swarm/internal/config"
	"github.com/jonesrussell/social-swarm/internal/content"
	"github.com/jonesrussell/social-swarm/internal/crm"
	"github.com/jonesrussell/social-swarm/internal/database"
	"github.com/jonesrussell/social-swarm/internal/logger"
	"github.com/jonesrussell/social-swarm/internal/memory"
	"github.com/jonesrussell/social-swarm/internal/metrics"
	"github.com/jonesrussell/social-swarm/internal/orchestrator"
	"github.com/jonesrussell/social-swarm/internal/platform"
	redisclient "github.com/jonesrussell/social-swarm/internal/redis"
)

const (
	// DefaultShutdownTimeout is the default timeout for graceful shutdown
	DefaultShutdownTimeout = 30 * time.Second
	// InitTimeout bounds startup initialization (schema, platform checks)
	InitTimeout = 30 * time.Second
)

// App represents the service with all its dependencies
type App struct {
	config      *config.Config
	logger      logger.Logger
	db          *sqlx.DB
	redisClient *redis.Client
	repo        *database.Repository
	memory      *memory.Store
	crmClient   *crm.Client
	registry    *platform.Registry
	orch        *orchestrator.Orchestrator
	httpServer  *http.Server
	version     string
}

// Options contains configuration for creating a new App
type Options struct {
	ConfigPath string
	Version    string
}

// New creates a new App instance with all dependencies initialized
func New(opts Options) (*App, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	appLogger, err := logger.NewLogger(cfg.Debug)
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}
	appLogger = appLogger.With(
		logger.String("service", "social-swarm"),
		logger.String("version", opts.Version),
	)

	db, err := database.NewPostgresConnection(cfg.Postgres)
	if err != nil {
		_ = appLogger.Sync()
		return nil, fmt.Errorf("connect to Postgres: %w", err)
	}

	redisClient, err := redisclient.NewClient(cfg.Redis)
	if err != nil {
		_ = appLogger.Sync()
		database.Close(db)
		return nil, fmt.Errorf("connect to Redis: %w", err)
	}

	registry := platform.NewRegistry(appLogger,
		platform.NewFacebookAdapter(cfg.Platforms.Facebook, appLogger),
		platform.NewInstagramAdapter(cfg.Platforms.Instagram, appLogger),
		platform.NewTikTokAdapter(cfg.Platforms.TikTok, appLogger),
		platform.NewTwitterAdapter(cfg.Platforms.Twitter, appLogger),
	)

	repo := database.NewRepository(db)
	memStore := memory.NewStore(db, memory.NewEmbedder(cfg.Embedding), appLogger)
	crmClient := crm.NewClient(cfg.CRM, appLogger)
	generator := content.NewClient(cfg.Content, appLogger)
	tracker := metrics.NewTracker(redisClient, registry.Names(), appLogger)

	orch := orchestrator.New(
		registry, generator, memStore, crmClient, repo, tracker,
		cfg.Orchestrator, appLogger,
	)

	router := api.NewRouter(orch, repo, memStore, tracker, registry, redisClient, cfg, appLogger)
	httpServer := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router.SetupRoutes(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	return &App{
		config:      cfg,
		logger:      appLogger,
		db:          db,
		redisClient: redisClient,
		repo:        repo,
		memory:      memStore,
		crmClient:   crmClient,
		registry:    registry,
		orch:        orch,
		httpServer:  httpServer,
		version:     opts.Version,
	}, nil
}

// initialize prepares schemas and external connections before serving.
func (a *App) initialize(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, InitTimeout)
	defer cancel()

	if err := a.repo.Initialize(ctx); err != nil {
		return fmt.Errorf("initialize repository: %w", err)
	}
	if err := a.memory.Initialize(ctx); err != nil {
		return fmt.Errorf("initialize memory store: %w", err)
	}

	// Platform and CRM checks are non-fatal: a disconnected platform
	// fails its own publishes, the rest keep working.
	a.registry.InitializeAll(ctx)
	if err := a.crmClient.Initialize(ctx); err != nil {
		a.logger.Warn("CRM initialization failed", logger.Error(err))
	}

	return nil
}

// Run starts the application and blocks until shutdown
func (a *App) Run(ctx context.Context) error {
	if err := a.initialize(ctx); err != nil {
		return err
	}

	serverErr := make(chan error, 1)
	go func() {
		a.logger.Info("Starting HTTP server",
			logger.String("address", a.config.Server.Address),
			logger.Bool("debug", a.config.Debug),
		)
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	return a.waitForShutdown(ctx, serverErr)
}

// waitForShutdown handles graceful shutdown
func (a *App) waitForShutdown(ctx context.Context, serverErr chan error) error {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	var shutdownErr error

	select {
	case sig := <-sigChan:
		a.logger.Info("Shutting down gracefully",
			logger.String("signal", sig.String()),
		)
	case <-ctx.Done():
		a.logger.Info("Shutting down, context cancelled")
	case err := <-serverErr:
		a.logger.Error("Server error", logger.Error(err))
		shutdownErr = err
	}

	a.shutdownHTTPServer()

	// Let in-flight campaign reporting drain before tearing down clients.
	a.orch.Wait()
	a.registry.ShutdownAll()
	if err := a.crmClient.Shutdown(); err != nil {
		a.logger.Warn("CRM shutdown error", logger.Error(err))
	}

	a.logger.Info("Service stopped")
	return shutdownErr
}

// shutdownHTTPServer gracefully shuts down the HTTP server
func (a *App) shutdownHTTPServer() {
	if a.httpServer == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), DefaultShutdownTimeout)
	defer cancel()

	if err := a.httpServer.Shutdown(ctx); err != nil {
		a.logger.Error("Server shutdown error", logger.Error(err))
	} else {
		a.logger.Info("HTTP server stopped")
	}
}

// Close cleans up resources
func (a *App) Close() error {
	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.logger.Warn("Failed to close Redis client", logger.Error(err))
		}
	}
	if a.db != nil {
		if err := database.Close(a.db); err != nil {
			a.logger.Warn("Failed to close database", logger.Error(err))
		}
	}
	return a.logger.Sync()
}

// Logger returns the application logger
func (a *App) Logger() logger.Logger {
	return a.logger
}
