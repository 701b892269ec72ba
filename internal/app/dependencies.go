package app

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"mares.app/internal/adapters/cache"
	"mares.app/internal/adapters/database"
	"mares.app/internal/adapters/infrastructure"
	"mares.app/internal/config"
	"mares.app/internal/core/legacy"
	"mares.app/internal/ports"
)

type DependencyContainer struct {
	config  *config.Config
	options DependencyOptions
	db      *gorm.DB
	ports   *ports.ApplicationPorts
}

// DependencyOptions overrides process-wide defaults, mainly for tests and the importer
type DependencyOptions struct {
	// Logger replaces the slog adapter used by the core
	Logger ports.Logger
	// Registerer receives the prometheus collectors; nil means the default registry
	Registerer prometheus.Registerer
}

func NewDependencyContainer(cfg *config.Config, opts DependencyOptions) (*DependencyContainer, error) {
	container := &DependencyContainer{
		config:  cfg,
		options: opts,
	}

	if err := container.initializeDatabase(); err != nil {
		return nil, fmt.Errorf("initialize database: %w", err)
	}

	if err := container.initializePorts(); err != nil {
		_ = container.Cleanup()
		return nil, fmt.Errorf("initialize ports: %w", err)
	}

	return container, nil
}

// OpenDatabase connects with the configured driver
func OpenDatabase(cfg config.DatabaseConfig) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case config.DriverSQLite:
		dialector = sqlite.Open(cfg.GetDSN())
	default:
		dialector = postgres.Open(cfg.GetDSN())
	}

	db, err := gorm.Open(dialector, &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	if cfg.Driver == config.DriverSQLite {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("get sqlite handle: %w", err)
		}
		// sqlite allows one writer at a time
		sqlDB.SetMaxOpenConns(1)
	}

	return db, nil
}

func (c *DependencyContainer) initializeDatabase() error {
	slog.Info("Initializing database connection...", "driver", c.config.Database.Driver)

	db, err := OpenDatabase(c.config.Database)
	if err != nil {
		return err
	}

	if err := c.runMigrations(db); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	c.db = db
	slog.Info("Database connection established successfully")
	return nil
}

func (c *DependencyContainer) runMigrations(db *gorm.DB) error {
	slog.Info("Running database migrations...")

	if err := db.AutoMigrate(database.Models()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}

	slog.Info("Database migrations completed successfully")
	return nil
}

func (c *DependencyContainer) initializePorts() error {
	slog.Info("Initializing ports...")

	tideRepo := database.NewTideRepositoryAdapter(c.db)

	var logger ports.Logger = infrastructure.NewSlogLoggerAdapter(nil)
	if c.options.Logger != nil {
		logger = c.options.Logger
	}

	cacheFactory := cache.NewCacheProviderFactory()
	calendarCache, err := cacheFactory.CreateCacheProvider(&c.config.Cache)
	if err != nil {
		slog.Error("Failed to create cache provider", "error", err)
		return fmt.Errorf("create cache provider: %w", err)
	}

	slog.Info("Cache provider initialized",
		"type", c.config.Cache.Type.String(),
		"ttl", c.config.Cache.TTL())

	registerer := c.options.Registerer
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	c.ports = &ports.ApplicationPorts{
		TideRepository: tideRepo,
		CalendarCache:  calendarCache,
		ConfigProvider: infrastructure.NewConfigProviderAdapter(c.config),
		Logger:         logger,
		Metrics:        infrastructure.NewPrometheusMetricsCollector(registerer),
		Database:       c.db,
	}

	slog.Info("Ports initialized successfully")
	return nil
}

func (c *DependencyContainer) ApplicationPorts() *ports.ApplicationPorts {
	return c.ports
}

func (c *DependencyContainer) Database() *gorm.DB {
	return c.db
}

// NewImporter builds the legacy importer on the container's ports
func (c *DependencyContainer) NewImporter() (*legacy.Importer, error) {
	importer, err := legacy.NewImporter(legacy.ImporterDependencies{
		Repository: c.ports.TideRepository,
		Cache:      c.ports.CalendarCache,
		Logger:     c.ports.Logger,
		Metrics:    c.ports.Metrics,
	})
	if err != nil {
		return nil, fmt.Errorf("create importer: %w", err)
	}
	return importer, nil
}

// Cleanup releases the cache connection and the database pool
func (c *DependencyContainer) Cleanup() error {
	if c.ports != nil {
		if closer, ok := c.ports.CalendarCache.(io.Closer); ok {
			if err := closer.Close(); err != nil {
				slog.Warn("Error closing cache", "error", err)
			}
		}
	}
	if c.db != nil {
		if db, err := c.db.DB(); err == nil {
			return db.Close()
		}
	}
	return nil
}
