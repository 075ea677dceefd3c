package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for afftrack.
type Metrics struct {
	// HTTP metrics
	HTTPRequests    *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	// Reporting metrics
	StatsQueries      *prometheus.CounterVec
	RecordsAggregated *prometheus.CounterVec
	ReportCacheHits   prometheus.Counter
	ReportCacheMisses prometheus.Counter

	// Ingestion metrics
	Upserts *prometheus.CounterVec

	// Rate limiting
	RateLimitHits *prometheus.CounterVec
}

// NewMetrics creates and registers all Prometheus metrics.
func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		HTTPRequests: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total HTTP requests by path, method and status",
			},
			[]string{"path", "method", "status"},
		),
		RequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request latency",
				Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
			},
			[]string{"path"},
		),
		StatsQueries: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "stats_queries_total",
				Help:      "Reporting queries by range and interval",
			},
			[]string{"range", "interval"},
		),
		RecordsAggregated: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "records_aggregated_total",
				Help:      "Raw records folded into buckets, by record kind",
			},
			[]string{"kind"},
		),
		ReportCacheHits: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "report_cache_hits_total",
				Help:      "Dashboard responses served from Redis",
			},
		),
		ReportCacheMisses: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "report_cache_misses_total",
				Help:      "Dashboard responses computed from storage",
			},
		),
		Upserts: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "record_upserts_total",
				Help:      "Record upserts by kind",
			},
			[]string{"kind"},
		),
		RateLimitHits: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "rate_limit_hits_total",
				Help:      "Requests rejected by the rate limiter",
			},
			[]string{"path"},
		),
	}
}

// Handler returns the Prometheus scrape handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordHTTPRequest records one completed request.
func (m *Metrics) RecordHTTPRequest(path, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(path, method, strconv.Itoa(status)).Inc()
	m.RequestDuration.WithLabelValues(path).Observe(duration.Seconds())
}

// RecordStatsQuery records one reporting query.
func (m *Metrics) RecordStatsQuery(rng, interval string) {
	if m == nil {
		return
	}
	m.StatsQueries.WithLabelValues(rng, interval).Inc()
}

// RecordAggregated counts raw records folded into buckets.
func (m *Metrics) RecordAggregated(kind string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.RecordsAggregated.WithLabelValues(kind).Add(float64(n))
}

// RecordCacheHit counts a dashboard response served from cache.
func (m *Metrics) RecordCacheHit(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.ReportCacheHits.Inc()
	} else {
		m.ReportCacheMisses.Inc()
	}
}

// RecordUpsert counts one record write.
func (m *Metrics) RecordUpsert(kind string) {
	if m == nil {
		return
	}
	m.Upserts.WithLabelValues(kind).Inc()
}

// RecordRateLimitHit counts one rejected request.
func (m *Metrics) RecordRateLimitHit(path string) {
	if m == nil {
		return
	}
	m.RateLimitHits.WithLabelValues(path).Inc()
}
