// Package telemetry records run metrics in a private Prometheus registry and
// writes them as a node_exporter textfile next to the produced artifacts.
package telemetry

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "prvideodiff"

// Metrics holds the collectors for one run. A nil *Metrics is valid and
// records nothing, so components can be built without telemetry.
type Metrics struct {
	registry *prometheus.Registry

	stepsExecuted   *prometheus.CounterVec
	captureDuration *prometheus.HistogramVec
	captureFailures *prometheus.CounterVec
	stageDuration   *prometheus.HistogramVec
	stageFailures   *prometheus.CounterVec
}

// NewMetrics creates a metrics set backed by its own registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		stepsExecuted: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "steps_executed_total",
			Help:      "Interaction steps executed, by step kind.",
		}, []string{"kind"}),
		captureDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "capture_duration_seconds",
			Help:      "Wall-clock time of one capture session from launch to teardown.",
			Buckets:   []float64{5, 10, 20, 30, 60, 90, 120, 180},
		}, []string{"tag"}),
		captureFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "capture_failures_total",
			Help:      "Capture sessions that ended without a video, by tag and state.",
		}, []string{"tag", "state"}),
		stageDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "media_stage_duration_seconds",
			Help:      "Duration of each media pipeline stage.",
			Buckets:   prometheus.ExponentialBuckets(0.25, 2, 10),
		}, []string{"stage"}),
		stageFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "media_stage_failures_total",
			Help:      "Media pipeline stages that exited with failure.",
		}, []string{"stage"}),
	}
}

// RecordStep counts one executed step of the given kind.
func (m *Metrics) RecordStep(kind string) {
	if m == nil {
		return
	}
	m.stepsExecuted.WithLabelValues(kind).Inc()
}

// RecordCapture observes the duration of a finished capture session.
func (m *Metrics) RecordCapture(tag string, d time.Duration) {
	if m == nil {
		return
	}
	m.captureDuration.WithLabelValues(tag).Observe(d.Seconds())
}

// RecordCaptureFailure counts a capture that failed in the given state.
func (m *Metrics) RecordCaptureFailure(tag, state string) {
	if m == nil {
		return
	}
	m.captureFailures.WithLabelValues(tag, state).Inc()
}

// RecordStage observes a pipeline stage run; failed stages are also counted.
func (m *Metrics) RecordStage(stage string, d time.Duration, failed bool) {
	if m == nil {
		return
	}
	m.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
	if failed {
		m.stageFailures.WithLabelValues(stage).Inc()
	}
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// WriteTextfile writes all collected metrics to path in the Prometheus text
// exposition format. The write is atomic.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("failed to write metrics textfile: %w", err)
	}
	return nil
}
