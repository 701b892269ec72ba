package cache

import (
	"context"
	"sync"
	"time"

	"mares.app/internal/ports"
	"mares.app/pkg/errors"
)

// MemoryCacheProvider keeps entries in process memory
type MemoryCacheProvider struct {
	data  map[string]memoryCacheItem
	mutex sync.RWMutex
	now   func() time.Time
	stats hitCounter
}

type memoryCacheItem struct {
	data      []byte
	expiresAt time.Time
}

func NewMemoryCacheProvider() *MemoryCacheProvider {
	return &MemoryCacheProvider{
		data: make(map[string]memoryCacheItem),
		now:  time.Now,
	}
}

func (c *MemoryCacheProvider) Get(ctx context.Context, key string) ([]byte, error) {
	if key == "" {
		return nil, errors.NewValidationError("cache key cannot be empty")
	}

	c.mutex.RLock()
	item, exists := c.data[key]
	c.mutex.RUnlock()

	if !exists {
		c.stats.RecordMiss()
		return nil, errors.NewNotFoundError("cache miss")
	}

	if c.now().After(item.expiresAt) {
		c.evictExpired(key)
		c.stats.RecordMiss()
		return nil, errors.NewNotFoundError("cache miss")
	}

	c.stats.RecordHit()
	return item.data, nil
}

func (c *MemoryCacheProvider) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if key == "" {
		return errors.NewValidationError("cache key cannot be empty")
	}
	if value == nil {
		return errors.NewValidationError("cache value cannot be nil")
	}
	if ttl <= 0 {
		return errors.NewValidationError("cache TTL must be positive")
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.data[key] = memoryCacheItem{
		data:      value,
		expiresAt: c.now().Add(ttl),
	}

	return nil
}

// evictExpired drops key if it is still expired once the write lock is held
func (c *MemoryCacheProvider) evictExpired(key string) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if item, ok := c.data[key]; ok && c.now().After(item.expiresAt) {
		delete(c.data, key)
	}
}

func (c *MemoryCacheProvider) Delete(ctx context.Context, key string) error {
	if key == "" {
		return errors.NewValidationError("cache key cannot be empty")
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()

	delete(c.data, key)
	return nil
}

func (c *MemoryCacheProvider) Ping(ctx context.Context) error {
	return nil
}

func (c *MemoryCacheProvider) Name() string {
	return "memory"
}

func (c *MemoryCacheProvider) GetStats() ports.CacheStats {
	return c.stats.GetStats()
}

// hitCounter implements ports.CacheMetrics
type hitCounter struct {
	mutex  sync.RWMutex
	hits   int64
	misses int64
}

func (h *hitCounter) GetStats() ports.CacheStats {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	total := h.hits + h.misses
	hitRatio := float64(0)
	if total > 0 {
		hitRatio = float64(h.hits) / float64(total)
	}

	return ports.CacheStats{
		Hits:        h.hits,
		Misses:      h.misses,
		TotalOps:    total,
		HitRatio:    hitRatio,
		LastUpdated: time.Now(),
	}
}

func (h *hitCounter) RecordHit() {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	h.hits++
}

func (h *hitCounter) RecordMiss() {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	h.misses++
}
