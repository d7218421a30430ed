// Package metrics provides Prometheus metrics for vireo's boundary layer.
//
// Three signals cover the surface:
//   - boundary call volume, labeled by operation and outcome
//   - boundary call latency distribution
//   - live resource handles, labeled by handle kind
//
// Metrics are package-level and registered with promauto, so importing the
// package is enough to expose them on the default registry.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// BoundaryCalls tracks the total number of boundary operations.
	// Labels: operation (e.g. df_select), status (success/failure)
	//
	// Example:
	//	metrics.BoundaryCalls.WithLabelValues("df_select", "success").Inc()
	BoundaryCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vireo_boundary_calls_total",
			Help: "Total number of boundary operations",
		},
		[]string{"operation", "status"},
	)

	// CallLatency tracks the distribution of boundary call latencies in
	// nanoseconds. Buckets span sub-microsecond handle operations up to
	// multi-second materializations.
	CallLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "vireo_boundary_call_latency_nanoseconds",
			Help: "Boundary call latency in nanoseconds",
			Buckets: []float64{
				1000,  // 1μs - handle operations
				10000, // 10μs - scalar codecs
				1e5,   // 100μs - small encodes
				1e6,   // 1ms - typical encodes
				1e7,   // 10ms - file decode
				1e8,   // 100ms - large frames
				1e9,   // 1s - materializations
				1e10,  // 10s - heavy materializations
			},
		},
		[]string{"operation"},
	)

	// LiveHandles tracks the number of live resource handles.
	// Labels: kind (dataframe/series/expression/lazy)
	LiveHandles = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "vireo_live_handles",
			Help: "Number of live resource handles",
		},
		[]string{"kind"},
	)
)

// ObserveCall records one boundary call with its outcome and duration.
func ObserveCall(operation string, start time.Time, err error) {
	status := "success"
	if err != nil {
		status = "failure"
	}
	BoundaryCalls.WithLabelValues(operation, status).Inc()
	CallLatency.WithLabelValues(operation).Observe(float64(time.Since(start).Nanoseconds()))
}
