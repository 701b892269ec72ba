// Package mocks provides test doubles for the ports interfaces.
package mocks

import (
	"context"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"
	"mares.app/internal/ports"
	"mares.app/pkg/errors"
)

// LogEntry is one message captured by Logger
type LogEntry struct {
	Level   string
	Message string
	Fields  []ports.Field
}

// Logger records every log call
type Logger struct {
	mu      sync.Mutex
	entries []LogEntry
}

func NewLogger() *Logger {
	return &Logger{}
}

func (l *Logger) Debug(msg string, fields ...ports.Field) { l.record("debug", msg, fields) }
func (l *Logger) Info(msg string, fields ...ports.Field)  { l.record("info", msg, fields) }
func (l *Logger) Warn(msg string, fields ...ports.Field)  { l.record("warn", msg, fields) }
func (l *Logger) Error(msg string, fields ...ports.Field) { l.record("error", msg, fields) }

func (l *Logger) record(level, msg string, fields []ports.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, LogEntry{Level: level, Message: msg, Fields: fields})
}

// Entries returns the captured messages of level, or all when level is empty
func (l *Logger) Entries(level string) []LogEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []LogEntry
	for _, e := range l.entries {
		if level == "" || e.Level == level {
			out = append(out, e)
		}
	}
	return out
}

// MetricsCollector is a testify mock. Calls without a matching expectation
// are ignored unless Strict is set.
type MetricsCollector struct {
	mock.Mock
	Strict bool
}

func NewMetricsCollector() *MetricsCollector {
	return &MetricsCollector{}
}

func (m *MetricsCollector) called(method string, args ...interface{}) {
	if !m.Strict && !m.hasExpectation(method) {
		return
	}
	m.MethodCalled(method, args...)
}

func (m *MetricsCollector) hasExpectation(method string) bool {
	for _, c := range m.ExpectedCalls {
		if c.Method == method {
			return true
		}
	}
	return false
}

func (m *MetricsCollector) RecordCacheHit(cache string) {
	m.called("RecordCacheHit", cache)
}

func (m *MetricsCollector) RecordCacheMiss(cache string) {
	m.called("RecordCacheMiss", cache)
}

func (m *MetricsCollector) RecordImport(year int, daysCreated, readingsCreated, warnings int) {
	m.called("RecordImport", year, daysCreated, readingsCreated, warnings)
}

func (m *MetricsCollector) RecordImportFailure(year int) {
	m.called("RecordImportFailure", year)
}

func (m *MetricsCollector) ObserveHTTPRequest(method, route string, status int, duration time.Duration) {
	m.called("ObserveHTTPRequest", method, route, status, duration)
}

// ConfigProvider returns fixed settings
type ConfigProvider struct {
	Site  ports.SiteConfig
	Cache ports.CacheConfig
}

func (c *ConfigProvider) GetSiteConfig() ports.SiteConfig {
	return c.Site
}

func (c *ConfigProvider) GetCacheConfig() ports.CacheConfig {
	return c.Cache
}

// CacheProvider is a map-backed cache that counts operations and can be
// told to fail
type CacheProvider struct {
	mu      sync.Mutex
	items   map[string][]byte
	Err     error
	Gets    int
	Sets    int
	Deletes []string
}

func NewCacheProvider() *CacheProvider {
	return &CacheProvider{items: make(map[string][]byte)}
}

func (c *CacheProvider) Get(_ context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Gets++
	if c.Err != nil {
		return nil, c.Err
	}
	v, ok := c.items[key]
	if !ok {
		return nil, errors.NewNotFoundError("cache miss")
	}
	return v, nil
}

func (c *CacheProvider) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Sets++
	if c.Err != nil {
		return c.Err
	}
	c.items[key] = value
	return nil
}

func (c *CacheProvider) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Deletes = append(c.Deletes, key)
	if c.Err != nil {
		return c.Err
	}
	delete(c.items, key)
	return nil
}

func (c *CacheProvider) Ping(_ context.Context) error {
	return c.Err
}

func (c *CacheProvider) Name() string {
	return "mock"
}

// Has reports whether key is currently stored
func (c *CacheProvider) Has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.items[key]
	return ok
}
