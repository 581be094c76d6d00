package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Polling metrics
	PollCyclesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_poll_cycles_total",
			Help: "Total number of polling cycles",
		},
		[]string{"outcome"},
	)

	SearchResultsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "bot_search_results_total",
			Help: "Total number of tweets returned by recent search",
		},
	)

	DuplicateSkipsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "bot_duplicate_skips_total",
			Help: "Total number of tweets skipped because they were already replied to",
		},
	)

	// Reply metrics
	RepliesGeneratedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_replies_generated_total",
			Help: "Total number of replies generated, by strategy",
		},
		[]string{"strategy"},
	)

	RepliesPostedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "bot_replies_posted_total",
			Help: "Total number of replies posted",
		},
	)

	RepliesTruncatedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "bot_replies_truncated_total",
			Help: "Total number of replies truncated to the platform character limit",
		},
	)

	// Collaborator metrics
	CollaboratorErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_collaborator_errors_total",
			Help: "Total number of failed calls to external collaborators",
		},
		[]string{"api"},
	)

	CollaboratorRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bot_collaborator_request_duration_seconds",
			Help:    "External collaborator request latency in seconds",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		},
		[]string{"api", "operation"},
	)

	TokenRefreshesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "bot_token_refreshes_total",
			Help: "Total number of OAuth2 token refreshes",
		},
	)
)
