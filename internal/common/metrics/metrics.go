// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	MatchingRunsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "matching_runs_completed_total",
			Help: "Total number of matching runs that reached a terminal state",
		},
		[]string{"state"},
	)

	MatchingRunDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name: "matching_run_duration_seconds",
			Help: "Duration of a full matching run in seconds",
		},
	)

	MatchingQueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "matching_queue_depth",
			Help: "Number of matching tasks waiting in the dispatch queue",
		},
	)

	MatchingQueueRejected = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "matching_queue_rejected_total",
			Help: "Number of trigger attempts rejected because the queue was full",
		},
	)

	CandidatesFiltered = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "matching_candidates_filtered_total",
			Help: "Candidates excluded before scoring, by reason",
		},
		[]string{"reason"},
	)

	ApplicationsCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "matching_applications_created_total",
			Help: "Provisional applications created by the engine",
		},
	)

	NotificationsDispatched = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "matching_notifications_dispatched_total",
			Help: "Notifications dispatched by delivery outcome",
		},
		[]string{"outcome"},
	)
)
