package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AuthAttempts records login attempts by result (success|failure).
	AuthAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "studyhub_auth_attempts_total",
			Help: "Total number of authentication attempts",
		},
		[]string{"result"},
	)

	// InvitationEvents counts invitation operations by operation (create|validate|accept|revoke)
	// and outcome code (ok or the error code returned).
	InvitationEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "studyhub_invitation_events_total",
			Help: "Invitation lifecycle operations by outcome",
		},
		[]string{"operation", "result"},
	)

	// GroupAccessChecks counts group membership checks made by the HTTP layer by result (allowed|denied|error).
	GroupAccessChecks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "studyhub_group_access_checks_total",
			Help: "Group membership checks by result",
		},
		[]string{"result"},
	)

	// RateLimited counts requests rejected by a rate limiter, by limiter name.
	RateLimited = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "studyhub_rate_limited_total",
			Help: "Requests rejected by rate limiting",
		},
		[]string{"limiter"},
	)

	// RealtimeConnections tracks open group websocket connections.
	RealtimeConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "studyhub_realtime_connections",
			Help: "Number of open realtime connections",
		},
	)

	// RequestsInFlight tracks HTTP requests currently being served.
	RequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "studyhub_api_requests_in_flight",
			Help: "HTTP requests currently being served",
		},
	)

	// APILatency measures HTTP request latencies.
	APILatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "studyhub_api_latency_seconds",
			Help:    "API endpoint latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
