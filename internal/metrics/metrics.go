package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// WorkflowsTotal counts finished run/submit workflows by language and outcome.
	WorkflowsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "codejudge_workflows_total",
			Help: "Total number of finished judge workflows",
		},
		[]string{"workflow", "language", "outcome"},
	)

	// WorkflowDuration tracks wall time from invocation to final result.
	WorkflowDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "codejudge_workflow_duration_seconds",
			Help:    "Duration of judge workflows in seconds",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 12), // 50ms to ~100s
		},
		[]string{"workflow"},
	)

	// PollAttempts observes how many status fetches a submission needed.
	PollAttempts = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "codejudge_poll_attempts",
			Help:    "Number of submission status fetches per submit workflow",
			Buckets: []float64{1, 2, 3, 5, 8, 13, 21, 34, 55, 89},
		},
	)

	// JudgeCalls counts outbound calls to the judge by endpoint and result.
	JudgeCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "codejudge_judge_calls_total",
			Help: "Total number of calls made to the judge service",
		},
		[]string{"endpoint", "result"},
	)

	// GatewayRequests counts execution gateway requests by route and HTTP status.
	GatewayRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "codejudge_gateway_requests_total",
			Help: "Total number of requests served by the execution gateway",
		},
		[]string{"route", "status"},
	)
)

// CallResult labels a judge call outcome.
func CallResult(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
