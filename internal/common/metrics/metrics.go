package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	MessagesProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatbot_messages_processed_total",
			Help: "Total number of messages processed by final intent",
		},
		[]string{"intent"},
	)

	MessageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "chatbot_message_duration_seconds",
			Help: "End-to-end message processing duration in seconds",
		},
		[]string{"intent"},
	)

	CollaboratorFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatbot_collaborator_failures_total",
			Help: "Failures calling external collaborators",
		},
		[]string{"service", "error_code"},
	)

	FallbackClassifications = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "chatbot_fallback_classifications_total",
			Help: "Messages classified by the deterministic fallback path",
		},
	)

	ActiveSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "chatbot_active_sessions",
			Help: "Number of sessions currently held by the context store",
		},
	)
)
