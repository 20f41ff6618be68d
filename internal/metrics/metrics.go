// Package metrics exports pipeline activity as Prometheus metrics.
package metrics

import (
	"net/http"

	"github.com/abhisek/mcqflow/internal/pipeline"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "mcqflow"

// Metrics is a pipeline.Observer backed by its own registry.
type Metrics struct {
	registry *prometheus.Registry

	runs         *prometheus.CounterVec
	runDuration  prometheus.Histogram
	stageCalls   *prometheus.CounterVec
	stageLatency *prometheus.HistogramVec
	placeholders *prometheus.CounterVec
	inFlight     prometheus.Gauge
}

// New registers the pipeline collectors plus the Go and process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Pipeline runs by terminal state and outcome.",
		}, []string{"state", "outcome"}),
		runDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Wall time of a pipeline run.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
		}),
		stageCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stage_calls_total",
			Help:      "Completed stage steps by stage and outcome.",
		}, []string{"stage", "outcome"}),
		stageLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Latency of model calls and persistence per stage.",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 10),
		}, []string{"stage"}),
		placeholders: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "placeholders_total",
			Help:      "Items that received a placeholder solution or validation.",
		}, []string{"stage", "reason"}),
		inFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "runs_in_flight",
			Help:      "Runs currently executing.",
		}),
	}
	m.registry.MustRegister(
		m.runs, m.runDuration, m.stageCalls, m.stageLatency, m.placeholders, m.inFlight,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Observe implements pipeline.Observer.
func (m *Metrics) Observe(e pipeline.Event) {
	switch {
	case e.Stage == pipeline.StageResearch && e.Outcome == pipeline.OutcomeStarted:
		m.inFlight.Inc()
	case e.Stage == pipeline.StageDone:
		m.inFlight.Dec()
		m.runs.WithLabelValues(string(e.State), string(e.Outcome)).Inc()
		m.runDuration.Observe(e.Elapsed.Seconds())
	case e.Outcome == pipeline.OutcomePlaceholder:
		m.placeholders.WithLabelValues(string(e.Stage), e.Detail).Inc()
	case e.Outcome == pipeline.OutcomeOK, e.Outcome == pipeline.OutcomeFailed:
		m.stageCalls.WithLabelValues(string(e.Stage), string(e.Outcome)).Inc()
		if e.Elapsed > 0 {
			m.stageLatency.WithLabelValues(string(e.Stage)).Observe(e.Elapsed.Seconds())
		}
	}
}

func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
