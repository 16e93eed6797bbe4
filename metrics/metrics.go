// Package metrics exposes run counters in the Prometheus textfile format, so
// a node_exporter textfile collector can pick them up after each run.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type Metrics struct {
	registry         *prometheus.Registry
	textfile         string
	enhancements     *prometheus.CounterVec
	images           *prometheus.CounterVec
	generationErrors prometheus.Counter
	runDuration      prometheus.Histogram
	lastRun          prometheus.Gauge
}

// New registers the run series on a private registry. An empty textfile
// disables Flush.
func New(textfile string) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		textfile: textfile,
		enhancements: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "painter_enhancements_total",
			Help: "Prompt enhancement attempts by outcome.",
		}, []string{"outcome"}),
		images: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "painter_images_total",
			Help: "Generated images by download outcome.",
		}, []string{"outcome"}),
		generationErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "painter_generation_errors_total",
			Help: "Failed image generation calls.",
		}),
		runDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "painter_run_duration_seconds",
			Help:    "Wall time of a run.",
			Buckets: []float64{1, 2.5, 5, 10, 20, 30, 60, 120},
		}),
		lastRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "painter_last_run_timestamp_seconds",
			Help: "Unix time the last run finished.",
		}),
	}
	m.registry.MustRegister(m.enhancements, m.images, m.generationErrors, m.runDuration, m.lastRun)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) ObserveEnhancement(outcome string) {
	if m == nil {
		return
	}
	m.enhancements.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveImage(saved bool) {
	if m == nil {
		return
	}
	outcome := "failed"
	if saved {
		outcome = "saved"
	}
	m.images.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveGenerationError() {
	if m == nil {
		return
	}
	m.generationErrors.Inc()
}

func (m *Metrics) ObserveRun(elapsed time.Duration) {
	if m == nil {
		return
	}
	m.runDuration.Observe(elapsed.Seconds())
	m.lastRun.SetToCurrentTime()
}

// Flush writes the registry to the textfile atomically.
func (m *Metrics) Flush() error {
	if m == nil || m.textfile == "" {
		return nil
	}
	return prometheus.WriteToTextfile(m.textfile, m.registry)
}
