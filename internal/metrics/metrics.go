// Package metrics instruments the recognition engine with Prometheus
// collectors: one histogram per completed recognition, broken down by
// the method that produced it, plus an error counter.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/nluengine/nluengine/internal/model"
)

const namespace = "nluengine"

// Recognition holds the Prometheus collectors for recognize() calls. It
// implements engine.Recorder so it can be handed straight to
// bootstrap.Build.
type Recognition struct {
	duration *prometheus.HistogramVec
	errors   *prometheus.CounterVec
	total    *prometheus.CounterVec
}

// NewRecognition creates and registers the recognition collectors
// against reg. Passing nil registers against the default registerer.
func NewRecognition(reg prometheus.Registerer) *Recognition {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &Recognition{
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "recognition",
			Name:      "duration_seconds",
			Help:      "Duration of recognize() calls in seconds, labeled by the method that produced the result.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5},
		}, []string{"method"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "recognition",
			Name:      "errors_total",
			Help:      "Total recognize() calls that ended on a context error (deadline or cancellation), labeled by the method of the returned result.",
		}, []string{"method"}),
		total: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "recognition",
			Name:      "total",
			Help:      "Total recognize() calls, labeled by the winning method.",
		}, []string{"method"}),
	}

	reg.MustRegister(m.duration, m.errors, m.total)
	return m
}

// RecordRecognition implements engine.Recorder.
func (m *Recognition) RecordRecognition(method model.Method, duration time.Duration, err error) {
	label := string(method)
	m.duration.WithLabelValues(label).Observe(duration.Seconds())
	m.total.WithLabelValues(label).Inc()
	if err != nil {
		m.errors.WithLabelValues(label).Inc()
	}
}
