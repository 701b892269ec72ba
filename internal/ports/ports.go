package ports

// ApplicationPorts aggregates all ports for dependency injection
type ApplicationPorts struct {
	// Tides
	TideRepository TideRepository

	// Cache
	CalendarCache CacheProvider

	// Infrastructure
	ConfigProvider ConfigProvider
	Logger         Logger
	Metrics        MetricsCollector
	Database       interface{}
}
