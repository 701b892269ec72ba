package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jonboulle/clockwork"
	"mares.app/internal/adapters/api"
	"mares.app/internal/adapters/infrastructure"
	"mares.app/internal/config"
	"mares.app/internal/core/legacy"
	"mares.app/internal/core/tide"
	"mares.app/internal/ports"
)

type Application struct {
	config *config.Config
	clock  clockwork.Clock

	// Use Cases
	tideUseCase *tide.UseCase
	importer    *legacy.Importer

	// Adapters
	httpServer *http.Server
	router     *gin.Engine

	// Infrastructure
	deps  *DependencyContainer
	ports *ports.ApplicationPorts
}

func NewApplication() (*Application, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}

	slog.Info("Initializing application ports...")
	deps, err := NewDependencyContainer(cfg, DependencyOptions{})
	if err != nil {
		return nil, fmt.Errorf("create dependency container: %w", err)
	}

	app, err := NewApplicationWithDependencies(cfg, deps, clockwork.NewRealClock())
	if err != nil {
		_ = deps.Cleanup()
		return nil, err
	}
	return app, nil
}

// NewApplicationWithDependencies creates an application with provided dependencies (for testing)
func NewApplicationWithDependencies(cfg *config.Config, depContainer *DependencyContainer, clock clockwork.Clock) (*Application, error) {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	app := &Application{
		config: cfg,
		clock:  clock,
		deps:   depContainer,
		ports:  depContainer.ApplicationPorts(),
	}

	if err := app.initializeUseCases(); err != nil {
		return nil, fmt.Errorf("initialize use cases: %w", err)
	}

	if err := app.initializeAdapters(); err != nil {
		return nil, fmt.Errorf("initialize adapters: %w", err)
	}

	return app, nil
}

func (a *Application) initializeUseCases() error {
	slog.Info("Initializing use cases...")

	tideUseCase, err := tide.NewUseCase(tide.UseCaseDependencies{
		Repository: a.ports.TideRepository,
		Cache:      a.ports.CalendarCache,
		Config:     a.ports.ConfigProvider,
		Logger:     a.ports.Logger,
		Metrics:    a.ports.Metrics,
	})
	if err != nil {
		return fmt.Errorf("create tide use case: %w", err)
	}
	a.tideUseCase = tideUseCase

	importer, err := a.deps.NewImporter()
	if err != nil {
		return err
	}
	a.importer = importer

	slog.Info("Use cases initialized successfully")
	return nil
}

func (a *Application) initializeAdapters() error {
	slog.Info("Initializing adapters...")

	if err := api.RegisterValidators(); err != nil {
		return fmt.Errorf("register validators: %w", err)
	}

	databaseHealthChecker := infrastructure.NewDatabaseHealthChecker(a.deps.Database())
	cacheHealthChecker := infrastructure.NewCacheHealthChecker(a.ports.CalendarCache)

	systemHealthChecker := infrastructure.NewSystemHealthChecker(infrastructure.SystemHealthCheckerConfig{
		DatabaseChecker: databaseHealthChecker,
		CacheChecker:    cacheHealthChecker,
		ConfigProvider:  a.ports.ConfigProvider,
	})

	httpAdapter, err := api.NewHTTPServerAdapter(api.ServerOptions{
		Config: api.ServerConfig{
			Port:        a.config.Server.Port,
			CORSOrigins: a.config.Server.CORSOrigins,
		},
		TideUseCase:    a.tideUseCase,
		HealthChecker:  systemHealthChecker,
		Metrics:        a.ports.Metrics,
		ConfigProvider: a.ports.ConfigProvider,
		Clock:          a.clock,
		Location:       a.config.Site.Location(),
	})
	if err != nil {
		return fmt.Errorf("create HTTP adapter: %w", err)
	}

	a.router = httpAdapter.GetRouter()

	a.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", a.config.Server.Port),
		Handler:      a.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	slog.Info("Adapters initialized successfully")
	return nil
}

func (a *Application) Start(ctx context.Context) error {
	slog.Info("Starting HTTP server", "port", a.config.Server.Port)
	if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("HTTP server error: %w", err)
	}
	return nil
}

func (a *Application) Shutdown(ctx context.Context) error {
	slog.Info("Shutting down application...")

	if err := a.httpServer.Shutdown(ctx); err != nil {
		slog.Error("Error shutting down HTTP server", "error", err)
		return fmt.Errorf("shutdown HTTP server: %w", err)
	}

	if err := a.deps.Cleanup(); err != nil {
		slog.Warn("Error releasing resources", "error", err)
	}

	slog.Info("Application shutdown complete")
	return nil
}

// Config returns the application configuration
func (a *Application) Config() *config.Config {
	return a.config
}

// GetRouter returns the Gin router for testing
func (a *Application) GetRouter() *gin.Engine {
	return a.router
}

// GetTideUseCase returns the tide use case for testing
func (a *Application) GetTideUseCase() *tide.UseCase {
	return a.tideUseCase
}

// GetImporter returns the legacy importer
func (a *Application) GetImporter() *legacy.Importer {
	return a.importer
}
