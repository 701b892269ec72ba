// Package cache provides the calendar cache backends.
package cache

import (
	"context"
	"fmt"
	"time"

	"mares.app/internal/config"
	"mares.app/internal/ports"
	"mares.app/pkg/errors"
)

type CacheProviderFactory struct{}

func NewCacheProviderFactory() *CacheProviderFactory {
	return &CacheProviderFactory{}
}

func (f *CacheProviderFactory) CreateCacheProvider(cfg *config.CacheConfig) (ports.CacheProvider, error) {
	if cfg == nil {
		return nil, errors.NewConfigurationError("cache config cannot be nil", nil)
	}

	switch cfg.Type {
	case config.CacheTypeNone:
		return NoopCacheProvider{}, nil
	case config.CacheTypeMemory:
		return NewMemoryCacheProvider(), nil
	case config.CacheTypeRedis:
		provider, err := NewRedisCacheProviderAdapter(&cfg.Redis)
		if err != nil {
			return nil, err
		}
		return provider, nil
	default:
		return nil, errors.NewConfigurationError(
			fmt.Sprintf("unsupported cache type: %s", cfg.Type.String()), nil)
	}
}

// NoopCacheProvider stores nothing; every Get is a miss
type NoopCacheProvider struct{}

func (NoopCacheProvider) Get(context.Context, string) ([]byte, error) {
	return nil, errors.NewNotFoundError("cache disabled")
}

func (NoopCacheProvider) Set(context.Context, string, []byte, time.Duration) error { return nil }
func (NoopCacheProvider) Delete(context.Context, string) error                     { return nil }
func (NoopCacheProvider) Ping(context.Context) error                               { return nil }
func (NoopCacheProvider) Name() string                                             { return "none" }
