package infrastructure

import (
	"mares.app/internal/config"
	"mares.app/internal/ports"
)

// ConfigProviderAdapter implements the ConfigProvider port
type ConfigProviderAdapter struct {
	config *config.Config
}

// NewConfigProviderAdapter creates a new config provider adapter
func NewConfigProviderAdapter(cfg *config.Config) *ConfigProviderAdapter {
	return &ConfigProviderAdapter{
		config: cfg,
	}
}

// GetSiteConfig returns public site settings
func (c *ConfigProviderAdapter) GetSiteConfig() ports.SiteConfig {
	return ports.SiteConfig{
		BaseURL:  c.config.Site.BaseURL,
		TownName: c.config.Site.TownName,
		ShareURL: c.config.Site.ShareURL,
		AdsTxt:   c.config.Site.AdsTxt,
	}
}

// GetCacheConfig returns calendar cache settings
func (c *ConfigProviderAdapter) GetCacheConfig() ports.CacheConfig {
	return ports.CacheConfig{
		Enabled: c.config.Cache.Enabled(),
		TTL:     c.config.Cache.TTL(),
	}
}
