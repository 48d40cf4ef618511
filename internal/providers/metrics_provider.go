package providers

import (
	"dmr/internal/models"
	"dmr/internal/structures"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type MetricsProviderInterface interface {
	IncRequestsTotal(endpoint string, status int)
	ObserveRequestDuration(endpoint string, duration time.Duration)
	IncPagesFetched()
	IncFetchRetries()
	IncRateLimitHits()
	SetBreakerState(state int)
	ObservePageDuration(duration time.Duration)
	ObservePersistenceDuration(duration time.Duration)
	IncCacheHits()
	IncCacheMisses()
}

type MetricsProvider struct {
	requestsTotal       *prometheus.CounterVec
	requestDuration     *prometheus.HistogramVec
	pagesFetched        prometheus.Counter
	fetchRetries        prometheus.Counter
	rateLimitHits       prometheus.Counter
	breakerState        prometheus.Gauge
	pageDuration        prometheus.Histogram
	persistenceDuration prometheus.Histogram
	cacheHits           prometheus.Counter
	cacheMisses         prometheus.Counter
}

func (m *MetricsProvider) IncRequestsTotal(endpoint string, status int) {
	m.requestsTotal.WithLabelValues(endpoint, httpStatusBucket(status)).Inc()
}

func (m *MetricsProvider) ObserveRequestDuration(endpoint string, duration time.Duration) {
	m.requestDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
}

func (m *MetricsProvider) IncPagesFetched()  { m.pagesFetched.Inc() }
func (m *MetricsProvider) IncFetchRetries()  { m.fetchRetries.Inc() }
func (m *MetricsProvider) IncRateLimitHits() { m.rateLimitHits.Inc() }

func (m *MetricsProvider) SetBreakerState(state int) {
	m.breakerState.Set(float64(state))
}

func (m *MetricsProvider) ObservePageDuration(duration time.Duration) {
	m.pageDuration.Observe(duration.Seconds())
}

func (m *MetricsProvider) ObservePersistenceDuration(duration time.Duration) {
	m.persistenceDuration.Observe(duration.Seconds())
}

func (m *MetricsProvider) IncCacheHits()   { m.cacheHits.Inc() }
func (m *MetricsProvider) IncCacheMisses() { m.cacheMisses.Inc() }

func httpStatusBucket(code int) string {
	switch {
	case code < 200:
		return "1xx"
	case code < 300:
		return "2xx"
	case code < 400:
		return "3xx"
	case code < 500:
		return "4xx"
	default:
		return "5xx"
	}
}

func NewMetricsProvider(conf *structures.Config, progress *models.ProgressTracker) MetricsProviderInterface {
	if !conf.Metrics.Enabled {
		return &noopMetrics{}
	}

	m := &MetricsProvider{
		requestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "dmr_requests_total",
			Help: "Total number of ops HTTP requests",
		}, []string{"endpoint", "status"}),

		requestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "dmr_request_duration_seconds",
			Help:    "Ops HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"endpoint"}),

		pagesFetched: promauto.NewCounter(prometheus.CounterOpts{
			Name: "dmr_pages_fetched_total",
			Help: "Total number of message pages fetched",
		}),

		fetchRetries: promauto.NewCounter(prometheus.CounterOpts{
			Name: "dmr_fetch_retries_total",
			Help: "Total number of page fetch retries",
		}),

		rateLimitHits: promauto.NewCounter(prometheus.CounterOpts{
			Name: "dmr_rate_limit_hits_total",
			Help: "Total number of rate-limit responses from the remote service",
		}),

		breakerState: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "dmr_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=open, 2=half-open)",
		}),

		pageDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "dmr_page_duration_seconds",
			Help:    "Remote page fetch duration in seconds",
			Buckets: prometheus.DefBuckets,
		}),

		persistenceDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "dmr_persistence_duration_seconds",
			Help:    "Duration of batch persistence operations in seconds",
			Buckets: prometheus.DefBuckets,
		}),

		cacheHits: promauto.NewCounter(prometheus.CounterOpts{
			Name: "dmr_cache_hits_total",
			Help: "Total number of redaction cache hits",
		}),

		cacheMisses: promauto.NewCounter(prometheus.CounterOpts{
			Name: "dmr_cache_misses_total",
			Help: "Total number of redaction cache misses",
		}),
	}

	promauto.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "dmr_messages_persisted",
		Help: "Messages persisted in the current run",
	}, func() float64 {
		return float64(progress.Messages())
	})

	promauto.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "dmr_batches_persisted",
		Help: "Batches persisted in the current run",
	}, func() float64 {
		return float64(progress.Batches())
	})

	return m
}

// noopMetrics is a no-op implementation for when metrics are disabled.
type noopMetrics struct{}

func (n *noopMetrics) IncRequestsTotal(_ string, _ int)                 {}
func (n *noopMetrics) ObserveRequestDuration(_ string, _ time.Duration) {}
func (n *noopMetrics) IncPagesFetched()                                 {}
func (n *noopMetrics) IncFetchRetries()                                 {}
func (n *noopMetrics) IncRateLimitHits()                                {}
func (n *noopMetrics) SetBreakerState(_ int)                            {}
func (n *noopMetrics) ObservePageDuration(_ time.Duration)              {}
func (n *noopMetrics) ObservePersistenceDuration(_ time.Duration)       {}
func (n *noopMetrics) IncCacheHits()                                    {}
func (n *noopMetrics) IncCacheMisses()                                  {}
