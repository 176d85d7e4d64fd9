package server

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gnolang/qlint/internal/query"
)

const (
	metricsNamespace = "qlint"

	outcomeAccepted = "accepted"
	outcomeRejected = "rejected"
)

// Metrics records validation outcomes for the Prometheus endpoint.
type Metrics struct {
	registry    *prometheus.Registry
	validations *prometheus.CounterVec
	duration    prometheus.Histogram
}

// NewMetrics registers the validation metrics with registry.
// If registry is nil, a new one is created.
func NewMetrics(registry *prometheus.Registry) *Metrics {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	m := &Metrics{
		registry: registry,
		validations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "validations_total",
				Help:      "Total number of validated queries by outcome and failing rule.",
			},
			[]string{"outcome", "rule"},
		),
		duration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Name:      "validation_duration_seconds",
				Help:      "Time spent validating a single query.",
				// validation is a handful of linear scans
				Buckets: []float64{0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01},
			},
		),
	}
	registry.MustRegister(m.validations, m.duration)

	// rule labels are a fixed set, so pre-create them for stable scrapes
	m.validations.WithLabelValues(outcomeAccepted, "")
	for _, r := range query.Rules() {
		m.validations.WithLabelValues(outcomeRejected, r.Name)
	}

	return m
}

// ObserveValidation records the outcome and duration of one validation.
func (m *Metrics) ObserveValidation(res query.Result, elapsed time.Duration) {
	if m == nil {
		return
	}
	if res.Accepted() {
		m.validations.WithLabelValues(outcomeAccepted, "").Inc()
	} else {
		m.validations.WithLabelValues(outcomeRejected, res.Rule).Inc()
	}
	m.duration.Observe(elapsed.Seconds())
}

// Handler returns an HTTP handler for the Prometheus metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
		ErrorHandling:     promhttp.ContinueOnError,
	})
}
