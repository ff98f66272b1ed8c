package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP request latency in seconds.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		},
		[]string{"method", "path", "status"},
	)

	// Facade operation counter by outcome.
	FacadeOpCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scheduler_operation_count",
			Help: "Total number of scheduling facade operations",
		},
		[]string{"operation", "status"}, // status: ok, rejected, error
	)

	// Milestone lifecycle transitions.
	MilestoneTransitionCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "milestone_transition_count",
			Help: "Total number of milestone status transitions",
		},
		[]string{"from", "to"},
	)

	// Slow database queries.
	SlowQueryCount = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "db_slow_query_count",
			Help: "Total number of database queries over the slow threshold",
		},
	)

	SlowQuerySeconds = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "db_slow_query_duration_seconds",
			Help:    "Duration of slow database queries in seconds",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 8), // 100ms to ~25s
		},
	)
)

func RecordHTTPRequestDuration(method, path, status string, duration time.Duration) {
	HTTPRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

func IncrementFacadeOp(operation, status string) {
	FacadeOpCount.WithLabelValues(operation, status).Inc()
}

func IncrementMilestoneTransition(from, to string) {
	MilestoneTransitionCount.WithLabelValues(from, to).Inc()
}

func IncrementSlowQuery(duration time.Duration) {
	SlowQueryCount.Inc()
	SlowQuerySeconds.Observe(duration.Seconds())
}
