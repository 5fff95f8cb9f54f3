package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestDuration tracks request duration
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "likebot_request_duration_seconds",
			Help: "Duration of HTTP requests in seconds",
		},
		[]string{"path", "method", "status"},
	)

	// VerificationOutcomes tracks verification consume outcomes
	VerificationOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "likebot_verification_outcomes_total",
			Help: "Number of verification attempts by outcome",
		},
		[]string{"outcome"},
	)

	// LinksIssued tracks verification links issued by the /like command
	LinksIssued = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "likebot_links_issued_total",
			Help: "Number of verification links issued",
		},
		[]string{"shortened"},
	)

	// LikeAPICalls tracks calls to the like-granting API
	LikeAPICalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "likebot_like_api_calls_total",
			Help: "Number of like API calls by result",
		},
		[]string{"result"},
	)

	// NotificationDeliveries tracks completion notifications delivered to chat
	NotificationDeliveries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "likebot_notification_deliveries_total",
			Help: "Number of completion notifications by delivery method and status",
		},
		[]string{"method", "status"},
	)

	// NotifierQueueDepth tracks the pending jobs in the notifier queue
	NotifierQueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "likebot_notifier_queue_depth",
			Help: "Number of jobs waiting in the completion notifier queue",
		},
	)

	// ActiveConnections tracks active connections
	ActiveConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "likebot_active_connections",
			Help: "Number of active connections",
		},
	)
)
