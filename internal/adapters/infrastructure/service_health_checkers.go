package infrastructure

import (
	"context"

	"mares.app/internal/ports"
)

// CacheHealthChecker pings the calendar cache backend
type CacheHealthChecker struct {
	cache ports.CacheProvider
}

// NewCacheHealthChecker creates a new cache health checker
func NewCacheHealthChecker(cache ports.CacheProvider) *CacheHealthChecker {
	return &CacheHealthChecker{cache: cache}
}

// Check verifies the cache answers a ping
func (c *CacheHealthChecker) Check(ctx context.Context) ports.HealthStatus {
	status := ports.HealthStatus{
		Component: "cache",
		Status:    "healthy",
		Details:   make(map[string]interface{}),
	}

	if c.cache == nil {
		status.Status = "unhealthy"
		status.Error = "cache provider is not available"
		return status
	}

	status.Details["type"] = c.cache.Name()
	if err := c.cache.Ping(ctx); err != nil {
		status.Status = "unhealthy"
		status.Error = err.Error()
	}

	if stats, ok := c.cache.(ports.CacheMetrics); ok {
		s := stats.GetStats()
		status.Details["hits"] = s.Hits
		status.Details["misses"] = s.Misses
		status.Details["hit_ratio"] = s.HitRatio
	}

	return status
}
