// Package metrics exposes Prometheus counters/gauges for the admission
// pipeline, grounded on SynapseStrike/metrics/metrics.go: a dedicated
// registry plus promauto-registered vectors, namespaced "signalgate".
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry is the custom Prometheus registry for signalgate metrics.
var Registry = prometheus.NewRegistry()

var (
	// SignalsReceivedTotal counts signals accepted by ingress.
	SignalsReceivedTotal = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "signalgate",
			Subsystem: "ingress",
			Name:      "signals_received_total",
			Help:      "Total signals accepted onto InQueue.",
		},
		[]string{"signal_type"},
	)

	// IngressBackpressureTotal counts 503 backpressure rejections.
	IngressBackpressureTotal = promauto.With(Registry).NewCounter(
		prometheus.CounterOpts{
			Namespace: "signalgate",
			Subsystem: "ingress",
			Name:      "backpressure_total",
			Help:      "Total submissions rejected because InQueue was full.",
		},
	)

	// DecisionsTotal counts admission decisions by outcome and reason.
	DecisionsTotal = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "signalgate",
			Subsystem: "decision",
			Name:      "decisions_total",
			Help:      "Total admission decisions.",
		},
		[]string{"outcome", "reason"},
	)

	// ForwardResultsTotal counts forwarding attempts by result.
	ForwardResultsTotal = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "signalgate",
			Subsystem: "forward",
			Name:      "results_total",
			Help:      "Total forwarding attempts by result (ok, error, timeout).",
		},
		[]string{"result"},
	)

	// RateLimiterWaitSeconds histograms how long Acquire blocked callers.
	RateLimiterWaitSeconds = promauto.With(Registry).NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "signalgate",
			Subsystem: "ratelimit",
			Name:      "wait_seconds",
			Help:      "Time spent blocked in RateLimiter.Acquire.",
			Buckets:   prometheus.DefBuckets,
		},
	)

	// QueueDepth gauges current depth of InQueue/ApprovedQueue.
	QueueDepth = promauto.With(Registry).NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "signalgate",
			Subsystem: "queue",
			Name:      "depth",
			Help:      "Current number of items queued.",
		},
		[]string{"queue"},
	)

	// RankingGeneration gauges the currently published snapshot generation.
	RankingGeneration = promauto.With(Registry).NewGauge(
		prometheus.GaugeOpts{
			Namespace: "signalgate",
			Subsystem: "ranking",
			Name:      "generation",
			Help:      "Monotonically increasing ranking snapshot generation.",
		},
	)

	// ReprocessOutcomesTotal counts per-candidate reprocessing outcomes.
	ReprocessOutcomesTotal = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "signalgate",
			Subsystem: "reprocess",
			Name:      "outcomes_total",
			Help:      "Total reprocessing outcomes by status.",
		},
		[]string{"status"},
	)

	// ReprocessCriticalInconsistencyTotal counts post-commit enqueue
	// failures: a position was opened durably but never made it onto
	// ApprovedQueue for forwarding.
	ReprocessCriticalInconsistencyTotal = promauto.With(Registry).NewCounter(
		prometheus.CounterOpts{
			Namespace: "signalgate",
			Subsystem: "reprocess",
			Name:      "critical_inconsistency_total",
			Help:      "Positions opened whose reconstructed signal failed to enqueue for forwarding.",
		},
	)

	// ReprocessCycleDurationSeconds histograms full reprocess-cycle latency.
	ReprocessCycleDurationSeconds = promauto.With(Registry).NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "signalgate",
			Subsystem: "reprocess",
			Name:      "cycle_duration_seconds",
			Help:      "Wall-clock duration of a reprocessing cycle.",
			Buckets:   prometheus.DefBuckets,
		},
	)
)
