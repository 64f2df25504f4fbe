package providers

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"quotad/internal/storage"
	"quotad/internal/structures"
)

type MetricsProviderInterface interface {
	IncRequestsTotal(endpoint string, status int)
	ObserveRequestDuration(endpoint string, duration time.Duration)
	IncDecision(operation, result string)
	IncDailyResets()
	IncCorruptRecords()
	ObservePersistenceDuration(duration time.Duration)
}

type MetricsProvider struct {
	requestsTotal       *prometheus.CounterVec
	requestDuration     *prometheus.HistogramVec
	decisions           *prometheus.CounterVec
	dailyResets         prometheus.Counter
	corruptRecords      prometheus.Counter
	persistenceDuration prometheus.Histogram
}

func (m *MetricsProvider) IncRequestsTotal(endpoint string, status int) {
	m.requestsTotal.WithLabelValues(endpoint, httpStatusBucket(status)).Inc()
}

func (m *MetricsProvider) ObserveRequestDuration(endpoint string, duration time.Duration) {
	m.requestDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
}

func (m *MetricsProvider) IncDecision(operation, result string) {
	m.decisions.WithLabelValues(operation, result).Inc()
}

func (m *MetricsProvider) IncDailyResets() {
	m.dailyResets.Inc()
}

func (m *MetricsProvider) IncCorruptRecords() {
	m.corruptRecords.Inc()
}

func (m *MetricsProvider) ObservePersistenceDuration(duration time.Duration) {
	m.persistenceDuration.Observe(duration.Seconds())
}

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

func NewMetricsProvider(conf *structures.Config, store storage.Store) MetricsProviderInterface {
	if !conf.Metrics.Enabled {
		return &noopMetrics{}
	}

	m := &MetricsProvider{
		requestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "quotad_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"endpoint", "status"}),

		requestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "quotad_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"endpoint"}),

		decisions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "quotad_decisions_total",
			Help: "Quota decisions by operation and result",
		}, []string{"operation", "result"}),

		dailyResets: promauto.NewCounter(prometheus.CounterOpts{
			Name: "quotad_daily_resets_total",
			Help: "Usage records zeroed at a day boundary",
		}),

		corruptRecords: promauto.NewCounter(prometheus.CounterOpts{
			Name: "quotad_corrupt_records_total",
			Help: "Unreadable usage records reinitialized to defaults",
		}),

		persistenceDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "quotad_persistence_duration_seconds",
			Help:    "Duration of snapshot persistence in seconds",
			Buckets: prometheus.DefBuckets,
		}),
	}

	if counter, ok := store.(storage.Counter); ok {
		promauto.NewGaugeFunc(prometheus.GaugeOpts{
			Name:        "quotad_records",
			Help:        "Usage records currently held by the store",
			ConstLabels: prometheus.Labels{"backend": store.Name()},
		}, func() float64 {
			return float64(counter.Len())
		})
	}

	return m
}

// noopMetrics is used when metrics are disabled.
type noopMetrics struct{}

func (n *noopMetrics) IncRequestsTotal(_ string, _ int)                 {}
func (n *noopMetrics) ObserveRequestDuration(_ string, _ time.Duration) {}
func (n *noopMetrics) IncDecision(_, _ string)                          {}
func (n *noopMetrics) IncDailyResets()                                  {}
func (n *noopMetrics) IncCorruptRecords()                               {}
func (n *noopMetrics) ObservePersistenceDuration(_ time.Duration)       {}
