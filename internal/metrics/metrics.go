package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics groups the collectors used across the service. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	Outcomes        *prometheus.CounterVec
	JobRuns         *prometheus.CounterVec
	UpstreamSeconds *prometheus.HistogramVec
	QueueDepth      prometheus.Gauge
	Notifications   *prometheus.CounterVec
	HTTPRequests    *prometheus.CounterVec
	HTTPSeconds     *prometheus.HistogramVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		Outcomes: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "weather_outcomes_total",
			Help: "Total number of delivered weather outcomes.",
		}, []string{"path", "status"}),
		JobRuns: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "weather_notification_job_runs_total",
			Help: "Total number of background notification job runs.",
		}, []string{"source", "status"}),
		UpstreamSeconds: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Name:    "weather_upstream_request_duration_seconds",
			Help:    "Duration of requests to upstream weather and geocoding APIs.",
			Buckets: prometheus.DefBuckets,
		}, []string{"upstream"}),
		QueueDepth: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "weather_orchestrator_queue_depth",
			Help: "Number of requests waiting for the orchestrator worker.",
		}),
		Notifications: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "weather_notifications_total",
			Help: "Total number of rendered notifications.",
		}, []string{"renderer", "status"}),
		HTTPRequests: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		}, []string{"method", "route", "status"}),
		HTTPSeconds: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
}

func (m *Metrics) RecordOutcome(path, status string) {
	if m == nil {
		return
	}
	m.Outcomes.WithLabelValues(path, status).Inc()
}

func (m *Metrics) RecordJobRun(source, status string) {
	if m == nil {
		return
	}
	m.JobRuns.WithLabelValues(source, status).Inc()
}

func (m *Metrics) ObserveUpstream(upstream string, started time.Time) {
	if m == nil {
		return
	}
	m.UpstreamSeconds.WithLabelValues(upstream).Observe(time.Since(started).Seconds())
}

func (m *Metrics) SetQueueDepth(n int) {
	if m == nil {
		return
	}
	m.QueueDepth.Set(float64(n))
}

func (m *Metrics) RecordNotification(renderer, status string) {
	if m == nil {
		return
	}
	m.Notifications.WithLabelValues(renderer, status).Inc()
}

func (m *Metrics) ObserveHTTP(method, route, status string, started time.Time) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(method, route, status).Inc()
	m.HTTPSeconds.WithLabelValues(method, route).Observe(time.Since(started).Seconds())
}
