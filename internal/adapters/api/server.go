// Package api provides HTTP adapters for the hexagonal architecture
// These adapters serve the tide REST API and the server-rendered pages
package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"mares.app/internal/core/tide"
	"mares.app/internal/ports"
	"mares.app/pkg/errors"
)

const requestIDHeader = "X-Request-ID"

// ServerConfig represents HTTP server configuration
type ServerConfig struct {
	Port        int
	CORSOrigins []string
}

// HTTPServerAdapter implements HTTP server using Gin framework
type HTTPServerAdapter struct {
	router        *gin.Engine
	config        ServerConfig
	tideUseCase   TideUseCase
	healthChecker ports.SystemHealthChecker
	metrics       ports.MetricsCollector
	site          ports.SiteConfig
	clock         clockwork.Clock
	location      *time.Location
}

// TideUseCase is the tide use case surface the HTTP adapter depends on
type TideUseCase interface {
	ListDays(ctx context.Context, filter tide.DayFilter) ([]*tide.Day, error)
	GetDay(ctx context.Context, id uint) (*tide.Day, error)
	GetDayByDate(ctx context.Context, date time.Time) (*tide.Day, error)
	ListReadings(ctx context.Context, filter tide.ReadingFilter) ([]*tide.Reading, error)
	GetReading(ctx context.Context, id uint) (*tide.Reading, error)
	SaveReading(ctx context.Context, input tide.ReadingInput) (*tide.Reading, bool, error)
	UpdateReading(ctx context.Context, id uint, input tide.ReadingInput) (*tide.Reading, error)
	PatchReading(ctx context.Context, id uint, patch tide.ReadingPatch) (*tide.Reading, error)
	DeleteReading(ctx context.Context, id uint) error
	YearDays(ctx context.Context, year int) ([]*tide.Day, error)
}

// ServerOptions represents options for creating the HTTP server
type ServerOptions struct {
	Config         ServerConfig
	TideUseCase    TideUseCase
	HealthChecker  ports.SystemHealthChecker
	Metrics        ports.MetricsCollector
	ConfigProvider ports.ConfigProvider

	// Clock and Location decide what "today" is on the pages.
	// They default to the wall clock in UTC.
	Clock    clockwork.Clock
	Location *time.Location
}

// NewHTTPServerAdapter creates a new HTTP server adapter
func NewHTTPServerAdapter(opts ServerOptions) (*HTTPServerAdapter, error) {
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("invalid server options: %w", err)
	}

	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}

	tmpl, err := loadTemplates()
	if err != nil {
		return nil, fmt.Errorf("load templates: %w", err)
	}

	router := gin.New()
	router.SetHTMLTemplate(tmpl)

	server := &HTTPServerAdapter{
		router:        router,
		config:        opts.Config,
		tideUseCase:   opts.TideUseCase,
		healthChecker: opts.HealthChecker,
		metrics:       opts.Metrics,
		site:          opts.ConfigProvider.GetSiteConfig(),
		clock:         opts.Clock,
		location:      opts.Location,
	}

	router.Use(gin.Recovery(), requestID(), server.observe(), server.corsMiddleware())
	server.setupRoutes()
	return server, nil
}

// Validate checks if all required dependencies are provided
func (opts *ServerOptions) Validate() error {
	if opts.TideUseCase == nil {
		return errors.NewValidationError("tide use case is required")
	}
	if opts.HealthChecker == nil {
		return errors.NewValidationError("health checker is required")
	}
	if opts.Metrics == nil {
		return errors.NewValidationError("metrics collector is required")
	}
	if opts.ConfigProvider == nil {
		return errors.NewValidationError("config provider is required")
	}
	return nil
}

// setupRoutes configures all HTTP routes
func (s *HTTPServerAdapter) setupRoutes() {
	api := s.router.Group("/api")
	{
		api.GET("/tidedays/", s.listTideDays)
		api.GET("/tidedays/:id/", s.getTideDay)

		api.GET("/tides/", s.listTides)
		api.POST("/tides/", s.createTide)
		api.GET("/tides/:id/", s.getTide)
		api.PUT("/tides/:id/", s.updateTide)
		api.PATCH("/tides/:id/", s.patchTide)
		api.DELETE("/tides/:id/", s.deleteTide)

		api.GET("/health", s.getHealth)
	}

	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	s.router.GET("/", s.indexPage)
	s.router.GET("/calendario/:year/", s.calendarPage)
	s.router.GET("/dia/:date/", s.dayPage)
	s.router.GET("/sobre/", s.staticPage("sobre.html"))
	s.router.GET("/privacidade/", s.staticPage("privacidade.html"))
	s.router.GET("/ads.txt", s.adsTxt)
	s.router.NoRoute(s.notFoundPage)
}

func (s *HTTPServerAdapter) corsMiddleware() gin.HandlerFunc {
	cfg := cors.DefaultConfig()
	cfg.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	cfg.AllowHeaders = append(cfg.AllowHeaders, requestIDHeader)
	cfg.ExposeHeaders = []string{requestIDHeader}

	if len(s.config.CORSOrigins) == 0 || containsWildcard(s.config.CORSOrigins) {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = s.config.CORSOrigins
	}
	return cors.New(cfg)
}

func containsWildcard(origins []string) bool {
	for _, o := range origins {
		if o == "*" {
			return true
		}
	}
	return false
}

// requestID tags every request with an ID, reusing the caller's when present
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.New().String()
		}
		c.Set("request_id", id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

// observe logs each request and records its latency by route template
func (s *HTTPServerAdapter) observe() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := s.clock.Now()
		c.Next()
		elapsed := s.clock.Since(start)

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()
		s.metrics.ObserveHTTPRequest(c.Request.Method, route, status, elapsed)

		slog.Debug("HTTP request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", status,
			"duration", elapsed,
			"request_id", c.GetString("request_id"))
	}
}

// getHealth handles GET /api/health requests
func (s *HTTPServerAdapter) getHealth(c *gin.Context) {
	results := s.healthChecker.CheckAll(c.Request.Context())

	status := http.StatusOK
	overall := "healthy"
	for _, r := range results {
		if r.Status != "healthy" {
			status = http.StatusServiceUnavailable
			overall = "unhealthy"
		}
	}

	c.JSON(status, gin.H{
		"status":     overall,
		"components": results,
	})
}

// GetRouter returns the router for testing purposes
func (s *HTTPServerAdapter) GetRouter() *gin.Engine {
	return s.router
}
