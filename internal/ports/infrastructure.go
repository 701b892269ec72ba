package ports

import "time"

// SiteConfig represents the public site settings used by page views
type SiteConfig struct {
	BaseURL  string
	TownName string
	ShareURL string
	AdsTxt   string
}

// CacheConfig represents calendar cache settings visible to the core
type CacheConfig struct {
	Enabled bool
	TTL     time.Duration
}

// ConfigProvider defines the contract for configuration management
type ConfigProvider interface {
	GetSiteConfig() SiteConfig
	GetCacheConfig() CacheConfig
}

// Logger defines the contract for structured logging
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
}

// Field represents a log field
type Field struct {
	Key   string
	Value interface{}
}

// F creates a log field
func F(key string, value interface{}) Field {
	return Field{Key: key, Value: value}
}

// MetricsCollector defines the contract for metrics collection
type MetricsCollector interface {
	RecordCacheHit(cache string)
	RecordCacheMiss(cache string)
	RecordImport(year int, daysCreated, readingsCreated, warnings int)
	RecordImportFailure(year int)
	ObserveHTTPRequest(method, route string, status int, duration time.Duration)
}
