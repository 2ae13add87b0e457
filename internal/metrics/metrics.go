package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "lightpath"

// Outcome label values.
const (
	StatusOK      = "ok"
	StatusError   = "error"
	StatusSkipped = "skipped"
)

// Metrics contains the pipeline metrics.
type Metrics struct {
	registry *prometheus.Registry

	EffectsApplied *prometheus.CounterVec
	EffectDuration *prometheus.HistogramVec
	RunsTotal      *prometheus.CounterVec
	RunDuration    prometheus.Histogram
}

// New creates the metrics and registers them, together with the Go runtime
// collectors, on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		EffectsApplied: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "effect",
				Name:      "applied_total",
				Help:      "Effects visited by the pipeline, by outcome",
			},
			[]string{"element", "kind", "status"},
		),
		EffectDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "effect",
				Name:      "duration_seconds",
				Help:      "Time spent applying one effect",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"element", "kind"},
		),
		RunsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "pipeline",
				Name:      "runs_total",
				Help:      "Pipeline runs, by outcome",
			},
			[]string{"status"},
		),
		RunDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "pipeline",
				Name:      "run_duration_seconds",
				Help:      "Wall time of a whole pipeline run",
				Buckets:   prometheus.DefBuckets,
			},
		),
	}

	m.registry.MustRegister(
		m.EffectsApplied,
		m.EffectDuration,
		m.RunsTotal,
		m.RunDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry returns the underlying Prometheus registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveEffect records one effect visit. Skipped effects get no duration.
func (m *Metrics) ObserveEffect(element, kind, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.EffectsApplied.WithLabelValues(element, kind, status).Inc()
	if status != StatusSkipped {
		m.EffectDuration.WithLabelValues(element, kind).Observe(d.Seconds())
	}
}

// ObserveRun records one pipeline run.
func (m *Metrics) ObserveRun(status string, d time.Duration) {
	if m == nil {
		return
	}
	m.RunsTotal.WithLabelValues(status).Inc()
	m.RunDuration.Observe(d.Seconds())
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
