// Package metrics defines the process-wide Prometheus metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "adboard"

// Gate outcomes recorded in AccessGateDecisions.
const (
	GateAdmitted     = "admitted"
	GateNoToken      = "no_token"
	GateInvalidToken = "invalid_token"
	GateNotFound     = "user_not_found"
	GateNotValidated = "not_validated"
	GateError        = "error"
)

var (
	// HTTPRequestDuration tracks HTTP request latency.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		},
		[]string{"method", "route", "status_code"},
	)

	// AccessGateDecisions counts verification gate outcomes.
	AccessGateDecisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "access",
			Name:      "gate_decisions_total",
			Help:      "Account verification gate decisions by outcome",
		},
		[]string{"outcome"},
	)

	// RateLimitRejections counts requests rejected by the rate limiter.
	RateLimitRejections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "rate_limit",
			Name:      "rejections_total",
			Help:      "Requests rejected by the rate limiter",
		},
		[]string{"route"},
	)
)
