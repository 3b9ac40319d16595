package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Webhook ingestion
	WebhookRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reviewbridge_webhook_requests_total",
			Help: "Total number of webhook requests by event type and response status",
		},
		[]string{"event", "status"},
	)

	WebhookDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "reviewbridge_webhook_duration_seconds",
			Help:    "Duration of webhook handling in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// Slack dispatch
	NotificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reviewbridge_notifications_total",
			Help: "Total number of Slack notifications by result",
		},
		[]string{"result"},
	)

	// Link store lookups
	IdentityLookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reviewbridge_identity_lookups_total",
			Help: "Total number of GitHub to Slack identity lookups by result",
		},
		[]string{"result"},
	)
)

// Status label values.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// Lookup result label values.
const (
	LookupHit   = "hit"
	LookupMiss  = "miss"
	LookupError = "error"
)
