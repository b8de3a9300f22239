package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	storeCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gardenledger",
			Subsystem: "content_store",
			Name:      "calls_total",
			Help:      "Total number of remote content store calls by outcome.",
		},
		[]string{"backend", "op", "outcome"},
	)

	storeCallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "gardenledger",
			Subsystem: "content_store",
			Name:      "call_duration_seconds",
			Help:      "Remote content store call duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"backend", "op"},
	)

	breakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "gardenledger",
			Subsystem: "content_store",
			Name:      "breaker_state",
			Help:      "Circuit breaker state (0 closed, 1 open, 2 half-open).",
		},
		[]string{"backend"},
	)

	assetsPrunedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gardenledger",
			Name:      "assets_pruned_total",
			Help:      "Assets deleted by retention pruning, by result.",
		},
		[]string{"result"},
	)
)

// ObserveStoreCall records one content store call.
func ObserveStoreCall(backend, op, outcome string, d time.Duration) {
	storeCallsTotal.WithLabelValues(backend, op, outcome).Inc()
	storeCallDuration.WithLabelValues(backend, op).Observe(d.Seconds())
}

// SetBreakerState publishes the breaker state of a backend.
func SetBreakerState(backend string, state int) {
	breakerState.WithLabelValues(backend).Set(float64(state))
}

// AssetPruned counts one retention deletion attempt.
func AssetPruned(ok bool) {
	if ok {
		assetsPrunedTotal.WithLabelValues("deleted").Inc()
		return
	}
	assetsPrunedTotal.WithLabelValues("failed").Inc()
}
