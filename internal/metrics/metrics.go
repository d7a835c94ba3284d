package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Loader metrics
	EventsLoaded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sentinelgraph_loader_events_total",
			Help: "Total number of events written to the graph",
		},
	)

	BatchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sentinelgraph_loader_batches_total",
			Help: "Total number of load batches by outcome",
		},
		[]string{"status"},
	)

	BatchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "sentinelgraph_loader_batch_duration_seconds",
			Help:    "Duration of a single batch write in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// Temporal pass metrics
	NextEventEdges = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sentinelgraph_temporal_next_event_edges_total",
			Help: "Total NEXT_EVENT relationships created by the temporal pass",
		},
	)

	// Assertion metrics
	AssertionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sentinelgraph_assertions_total",
			Help: "Total assertions evaluated by result",
		},
		[]string{"result"},
	)
)
