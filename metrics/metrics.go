// Package metrics wires optional prometheus instrumentation around
// chunk cache and storage operations. A nil *Recorder is a no-op, so
// callers that don't want metrics never have to branch on whether one
// was configured.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder holds the counters/histograms this module publishes. Build
// one with New and pass it (or nil) into the cache and storage layers.
type Recorder struct {
	cacheHits      *prometheus.CounterVec
	cacheMisses    *prometheus.CounterVec
	cacheEvictions *prometheus.CounterVec
	storeLatency   *prometheus.HistogramVec
	storeErrors    *prometheus.CounterVec
}

// New registers this module's metrics against reg. Pass
// prometheus.DefaultRegisterer for the global registry, or a fresh
// prometheus.NewRegistry() in tests to avoid collisions.
func New(reg prometheus.Registerer) *Recorder {
	factory := promauto.With(reg)
	return &Recorder{
		cacheHits: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "zarr_engine",
			Subsystem: "cache",
			Name:      "hits_total",
			Help:      "Chunk cache hits, by cache family.",
		}, []string{"family"}),
		cacheMisses: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "zarr_engine",
			Subsystem: "cache",
			Name:      "misses_total",
			Help:      "Chunk cache misses, by cache family.",
		}, []string{"family"}),
		cacheEvictions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "zarr_engine",
			Subsystem: "cache",
			Name:      "evictions_total",
			Help:      "Chunk cache evictions, by cache family.",
		}, []string{"family"}),
		storeLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "zarr_engine",
			Subsystem: "store",
			Name:      "operation_duration_seconds",
			Help:      "Storage operation latency, by operation.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		storeErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "zarr_engine",
			Subsystem: "store",
			Name:      "errors_total",
			Help:      "Storage operation failures, by operation.",
		}, []string{"operation"}),
	}
}

func (r *Recorder) CacheHit(family string) {
	if r == nil {
		return
	}
	r.cacheHits.WithLabelValues(family).Inc()
}

func (r *Recorder) CacheMiss(family string) {
	if r == nil {
		return
	}
	r.cacheMisses.WithLabelValues(family).Inc()
}

func (r *Recorder) CacheEviction(family string) {
	if r == nil {
		return
	}
	r.cacheEvictions.WithLabelValues(family).Inc()
}

// ObserveStoreOp records the duration of a storage operation (Get, Set,
// GetPartialMany, ...) and, on failure, increments the error counter.
func (r *Recorder) ObserveStoreOp(operation string, start time.Time, err error) {
	if r == nil {
		return
	}
	r.storeLatency.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	if err != nil {
		r.storeErrors.WithLabelValues(operation).Inc()
	}
}
