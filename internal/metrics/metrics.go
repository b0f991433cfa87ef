// Package metrics provides Prometheus metrics for the storecast service.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "storecast"

// Manager owns every Prometheus metric the service emits.
type Manager struct {
	registry *prometheus.Registry

	predictions      *prometheus.CounterVec
	cacheLookups     *prometheus.CounterVec
	trainingDuration prometheus.Histogram
	httpRequests     *prometheus.CounterVec
	httpDuration     *prometheus.HistogramVec
}

func New() *Manager {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Manager{
		registry: reg,
		predictions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "predictions_total",
			Help:      "Prediction requests by outcome.",
		}, []string{"outcome"}),
		cacheLookups: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_lookups_total",
			Help:      "Forecast cache lookups by result.",
		}, []string{"result"}),
		trainingDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "training_duration_seconds",
			Help:      "Wall time of one full two-model training run.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
		}),
		httpRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by path and status.",
		}, []string{"path", "status"}),
		httpDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by path.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"path"}),
	}
}

// Prediction records a completed prediction request outcome: "ok",
// "invalid_date", "insufficient_data", or "error".
func (m *Manager) Prediction(outcome string) {
	m.predictions.WithLabelValues(outcome).Inc()
}

// CacheLookup records a forecast cache consultation.
func (m *Manager) CacheLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.WithLabelValues(result).Inc()
}

// TrainingDone records the wall time of a training run.
func (m *Manager) TrainingDone(elapsed time.Duration, _ error) {
	m.trainingDuration.Observe(elapsed.Seconds())
}

// HTTPRequest records one served request.
func (m *Manager) HTTPRequest(path, status string, elapsed time.Duration) {
	m.httpRequests.WithLabelValues(path, status).Inc()
	m.httpDuration.WithLabelValues(path).Observe(elapsed.Seconds())
}

// Handler exposes the registry for a /metrics endpoint.
func (m *Manager) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
