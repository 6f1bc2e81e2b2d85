package observability

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusRecorder holds the Prometheus metrics for the pipeline
type PrometheusRecorder struct {
	registry *prometheus.Registry

	cacheLookups  *prometheus.CounterVec
	cacheWrites   *prometheus.CounterVec
	generations   *prometheus.CounterVec
	generationDur *prometheus.HistogramVec
}

// NewPrometheusRecorder creates a recorder with its own registry so tests
// can build as many as they like.
func NewPrometheusRecorder(namespace string) *PrometheusRecorder {
	registry := prometheus.NewRegistry()

	cacheLookups := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_lookups_total",
			Help:      "Insight cache lookups by outcome",
		},
		[]string{"outcome"},
	)

	cacheWrites := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_writes_total",
			Help:      "Insight cache writes by status",
		},
		[]string{"status"},
	)

	generations := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "generations_total",
			Help:      "Insight generations by result code",
		},
		[]string{"result"},
	)

	generationDur := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "generation_duration_seconds",
			Help:      "Insight generation duration in seconds",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 20, 30, 45, 60},
		},
		[]string{"result"},
	)

	registry.MustRegister(cacheLookups, cacheWrites, generations, generationDur)

	return &PrometheusRecorder{
		registry:      registry,
		cacheLookups:  cacheLookups,
		cacheWrites:   cacheWrites,
		generations:   generations,
		generationDur: generationDur,
	}
}

// Registry exposes the registry for the /metrics handler
func (p *PrometheusRecorder) Registry() *prometheus.Registry {
	return p.registry
}

// RecordCacheLookup counts a cache lookup by outcome
func (p *PrometheusRecorder) RecordCacheLookup(_ context.Context, outcome string) {
	p.cacheLookups.WithLabelValues(outcome).Inc()
}

// RecordCacheWrite counts cache writes by status
func (p *PrometheusRecorder) RecordCacheWrite(_ context.Context, err error) {
	status := "success"
	if err != nil {
		status = "failure"
	}
	p.cacheWrites.WithLabelValues(status).Inc()
}

// RecordGeneration records generation latency and count by result code
func (p *PrometheusRecorder) RecordGeneration(_ context.Context, code string, duration time.Duration) {
	p.generations.WithLabelValues(code).Inc()
	p.generationDur.WithLabelValues(code).Observe(duration.Seconds())
}
