// Package metrics records invocation outcomes for the Prometheus textfile collector.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collector owns a private registry so repeated construction in tests does not
// collide with the global one.
type Collector struct {
	registry *prometheus.Registry
	textfile string

	invocationsTotal   *prometheus.CounterVec
	invocationDuration prometheus.Histogram
	rescansTotal       *prometheus.CounterVec
}

// NewCollector registers all imgto3d metrics under namespace.
func NewCollector(namespace string) *Collector {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Collector{
		registry: reg,
		invocationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "invocations_total",
				Help:      "Connector invocations by outcome",
			},
			[]string{"outcome"},
		),
		invocationDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "invocation_duration_seconds",
				Help:      "Wall time from spawn to result",
				Buckets:   []float64{1, 5, 10, 30, 60, 120, 300},
			},
		),
		rescansTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "asset_rescans_total",
				Help:      "Asset rescans triggered after generation",
			},
			[]string{"status"},
		),
	}
}

// RecordInvocation counts one invocation. Outcome is a result outcome label or
// an error kind such as "invalid", "launch_error" or "timeout".
func (c *Collector) RecordInvocation(outcome string, elapsed time.Duration) {
	c.invocationsTotal.WithLabelValues(outcome).Inc()
	c.invocationDuration.Observe(elapsed.Seconds())
}

// RecordRescan counts one rescan attempt.
func (c *Collector) RecordRescan(err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}

	c.rescansTotal.WithLabelValues(status).Inc()
}

// Registry exposes the underlying registry.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// WriteTextfile atomically writes all metrics in text format to path.
func (c *Collector) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, c.registry); err != nil {
		return fmt.Errorf("write metrics %s: %w", path, err)
	}

	return nil
}

// SetTextfile makes Shutdown write the metrics to path. An empty path disables it.
func (c *Collector) SetTextfile(path string) {
	c.textfile = path
}

// Shutdown flushes the metrics to the configured textfile.
func (c *Collector) Shutdown() error {
	if c.textfile == "" {
		return nil
	}

	return c.WriteTextfile(c.textfile)
}
