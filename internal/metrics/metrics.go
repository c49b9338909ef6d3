// Package metrics exposes Prometheus counters for session operations.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder is used by the session service to report operation results.
type Recorder interface {
	RecordOperation(operation, outcome string, duration time.Duration)
	RecordProfileBackfill(count int)
}

// Collector is the Prometheus-backed Recorder.
type Collector struct {
	operations *prometheus.CounterVec
	duration   *prometheus.HistogramVec
	backfilled prometheus.Counter
	gatherer   prometheus.Gatherer
}

// NewCollector creates a Collector and registers its metrics on reg.
func NewCollector(reg *prometheus.Registry) *Collector {
	c := &Collector{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "session_operations_total",
			Help: "Session lifecycle operations by outcome.",
		}, []string{"operation", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "session_operation_duration_seconds",
			Help:    "Latency of session lifecycle operations.",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation"}),
		backfilled: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "session_profiles_backfilled_total",
			Help: "Profiles created by the reconciliation job.",
		}),
		gatherer: reg,
	}
	reg.MustRegister(c.operations, c.duration, c.backfilled)
	return c
}

// NewRegistry returns a registry with the Go and process collectors.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	return reg
}

func (c *Collector) RecordOperation(operation, outcome string, duration time.Duration) {
	c.operations.WithLabelValues(operation, outcome).Inc()
	c.duration.WithLabelValues(operation).Observe(duration.Seconds())
}

func (c *Collector) RecordProfileBackfill(count int) {
	c.backfilled.Add(float64(count))
}

// Handler serves the registry in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.gatherer, promhttp.HandlerOpts{})
}

// Nop discards everything.
type Nop struct{}

func (Nop) RecordOperation(string, string, time.Duration) {}
func (Nop) RecordProfileBackfill(int)                     {}
