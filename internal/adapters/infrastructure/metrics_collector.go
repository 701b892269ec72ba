package infrastructure

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"
)

// PrometheusMetricsCollector implements the MetricsCollector port
type PrometheusMetricsCollector struct {
	cacheHits       *prometheus.CounterVec
	cacheMisses     *prometheus.CounterVec
	cacheHitRatio   *prometheus.GaugeVec
	importDays      *prometheus.CounterVec
	importReadings  *prometheus.CounterVec
	importWarnings  *prometheus.CounterVec
	importFailures  *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

// NewPrometheusMetricsCollector registers the collectors on reg.
// Pass prometheus.DefaultRegisterer to expose them on /metrics.
func NewPrometheusMetricsCollector(reg prometheus.Registerer) *PrometheusMetricsCollector {
	factory := promauto.With(reg)

	return &PrometheusMetricsCollector{
		cacheHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mares_cache_hits_total",
				Help: "The total number of calendar cache hits",
			},
			[]string{"cache_type"},
		),
		cacheMisses: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mares_cache_misses_total",
				Help: "The total number of calendar cache misses",
			},
			[]string{"cache_type"},
		),
		cacheHitRatio: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "mares_cache_hit_ratio",
				Help: "Cache hit ratio (hits/total requests)",
			},
			[]string{"cache_type"},
		),
		importDays: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mares_import_days_created_total",
				Help: "Tide days created by legacy imports",
			},
			[]string{"year"},
		),
		importReadings: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mares_import_readings_created_total",
				Help: "Tide readings created by legacy imports",
			},
			[]string{"year"},
		),
		importWarnings: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mares_import_warnings_total",
				Help: "Entries skipped with a warning during legacy imports",
			},
			[]string{"year"},
		),
		importFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mares_import_failures_total",
				Help: "Legacy imports that were rolled back",
			},
			[]string{"year"},
		),
		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "mares_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route", "status"},
		),
	}
}

func (m *PrometheusMetricsCollector) RecordCacheHit(cache string) {
	m.cacheHits.WithLabelValues(cache).Inc()
	m.updateHitRatio(cache)
}

func (m *PrometheusMetricsCollector) RecordCacheMiss(cache string) {
	m.cacheMisses.WithLabelValues(cache).Inc()
	m.updateHitRatio(cache)
}

func (m *PrometheusMetricsCollector) updateHitRatio(cache string) {
	hits := counterValue(m.cacheHits.WithLabelValues(cache))
	misses := counterValue(m.cacheMisses.WithLabelValues(cache))
	if total := hits + misses; total > 0 {
		m.cacheHitRatio.WithLabelValues(cache).Set(hits / total)
	}
}

func (m *PrometheusMetricsCollector) RecordImport(year int, daysCreated, readingsCreated, warnings int) {
	label := strconv.Itoa(year)
	m.importDays.WithLabelValues(label).Add(float64(daysCreated))
	m.importReadings.WithLabelValues(label).Add(float64(readingsCreated))
	m.importWarnings.WithLabelValues(label).Add(float64(warnings))
}

func (m *PrometheusMetricsCollector) RecordImportFailure(year int) {
	m.importFailures.WithLabelValues(strconv.Itoa(year)).Inc()
}

func (m *PrometheusMetricsCollector) ObserveHTTPRequest(method, route string, status int, duration time.Duration) {
	m.requestDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(duration.Seconds())
}

// counterValue reads the current value of a counter
func counterValue(c prometheus.Counter) float64 {
	var metric dto.Metric
	if err := c.Write(&metric); err != nil {
		return 0
	}
	return metric.GetCounter().GetValue()
}
