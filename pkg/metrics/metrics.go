package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Engine and store instrumentation. Registered on the default registry
// and served by promhttp in the app wiring.
var (
	ContextBuilds = promauto.NewCounter(prometheus.CounterOpts{
		Name: "recall_context_builds_total",
		Help: "Number of context window builds.",
	})

	ContextBuildSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "recall_context_build_seconds",
		Help:    "Latency of context window assembly.",
		Buckets: prometheus.DefBuckets,
	})

	WindowEntries = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "recall_context_window_entries",
		Help:    "Entries per returned context window.",
		Buckets: []float64{0, 5, 10, 20, 30, 50},
	})

	DegradedLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "recall_degraded_lookups_total",
		Help: "Collaborator lookups that failed and were skipped.",
	}, []string{"collaborator"})

	StoreOps = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "recall_store_ops_total",
		Help: "Store operations by kind and outcome.",
	}, []string{"op", "outcome"})

	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "recall_http_requests_total",
		Help: "HTTP requests by route and status class.",
	}, []string{"route", "status"})
)
