// Package metrics defines the Prometheus collectors exported by the bot.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Iteration results.
const (
	ResultSuccess       = "success"
	ResultProtocolError = "protocol_error"
	ResultDeliveryError = "delivery_error"
	ResultInternalError = "internal_error"
)

var (
	// Iterations counts completed poll iterations by outcome.
	Iterations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "homeworkbot_iterations_total",
			Help: "Total number of poll iterations",
		},
		[]string{"result"},
	)

	// Notifications counts delivery attempts by message kind and outcome.
	Notifications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "homeworkbot_notifications_total",
			Help: "Total number of notification delivery attempts",
		},
		[]string{"kind", "result"},
	)

	// BackoffDelay is the delay the next failed iteration will sleep for.
	BackoffDelay = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "homeworkbot_backoff_delay_seconds",
			Help: "Current failure backoff delay in seconds",
		},
	)

	// BackoffWraps counts how often the backoff delay exceeded its cap.
	BackoffWraps = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "homeworkbot_backoff_wraps_total",
			Help: "Number of times the backoff delay exceeded its cap and was reset",
		},
	)

	// Cursor is the from_date sent with the next status request.
	Cursor = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "homeworkbot_cursor",
			Help: "Current polling cursor (Unix seconds)",
		},
	)
)
