package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AuthAttempts records sign-in attempts by stage (request|verify) and result (success|failure).
	AuthAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kidsmove_auth_attempts_total",
			Help: "Total number of magic-link sign-in attempts",
		},
		[]string{"stage", "result"},
	)

	// InvitationEvents counts invitation lifecycle transitions (created|accepted|expired|revoked|rejected).
	InvitationEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kidsmove_invitation_events_total",
			Help: "Parent invitation lifecycle events",
		},
		[]string{"event"},
	)

	// ShareResolutions counts shared-link resolutions by outcome (ok|not_found|expired|used).
	ShareResolutions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kidsmove_share_resolutions_total",
			Help: "Shared report link resolutions",
		},
		[]string{"result"},
	)

	// ReportsRendered counts generated PDF reports by origin (coach|share).
	ReportsRendered = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kidsmove_reports_rendered_total",
			Help: "PDF reports rendered",
		},
		[]string{"origin"},
	)

	// APILatency measures HTTP request latencies.
	APILatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "kidsmove_api_latency_seconds",
			Help:    "API endpoint latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
