// Package metrics defines the Prometheus metrics exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Label values.
const (
	// Results
	ResultSuccess      = "success"
	ResultInvalid      = "invalid"
	ResultNotFound     = "not_found"
	ResultUnauthorized = "unauthenticated"
	ResultError        = "error"

	// Session actions
	ActionCreateSession  = "create_session"
	ActionDeleteSession  = "delete_session"
	ActionAttachTrick    = "attach_trick"
	ActionUpdateTrick    = "update_trick"
	ActionToggleComplete = "toggle_completion"
	ActionRemoveTrick    = "remove_trick"

	// Auth operations
	AuthOpMagicLink = "magic_link"
	AuthOpExchange  = "exchange_code"
	AuthOpRefresh   = "refresh_token"
	AuthOpSignOut   = "sign_out"
)

// HTTP Metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"route", "status_code"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"route", "status_code"},
	)
)

// Domain Metrics
var (
	ActionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "skate_actions_total",
			Help: "Total number of session and trick actions by result",
		},
		[]string{"action", "result"},
	)

	AuthRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "skate_auth_requests_total",
			Help: "Total number of auth service calls by result",
		},
		[]string{"operation", "result"},
	)

	UserSessionsSweptTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "skate_user_sessions_swept_total",
			Help: "Total number of expired login sessions deleted",
		},
	)
)

// Action records the outcome of a session or trick action.
func Action(action, result string) {
	ActionsTotal.WithLabelValues(action, result).Inc()
}

// Auth records the outcome of an auth service call.
func Auth(operation string, err error) {
	result := ResultSuccess
	if err != nil {
		result = ResultError
	}
	AuthRequestsTotal.WithLabelValues(operation, result).Inc()
}
