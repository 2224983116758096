// Package metrics collects and exposes Prometheus metrics for the auth core.
package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	authOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scoutpulse_auth_outcomes_total",
		Help: "Authentication resolutions by outcome (authenticated, degraded, unauthenticated).",
	}, []string{"outcome"})

	refreshAttempts = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "scoutpulse_token_refresh_attempts",
		Help:    "Attempts consumed per token refresh call.",
		Buckets: []float64{1, 2, 3, 4, 5},
	})

	refreshResults = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scoutpulse_token_refresh_total",
		Help: "Token refresh calls by result.",
	}, []string{"result"})

	errorResponses = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scoutpulse_auth_error_responses_total",
		Help: "Normalized auth error responses by HTTP status.",
	}, []string{"status"})
)

// RecordOutcome counts one graceful-auth resolution.
func RecordOutcome(outcome string) {
	authOutcomes.WithLabelValues(outcome).Inc()
}

// ObserveRefreshAttempts records how many attempts one refresh call consumed.
func ObserveRefreshAttempts(attempts int, success bool) {
	refreshAttempts.Observe(float64(attempts))
	result := "failure"
	if success {
		result = "success"
	}
	refreshResults.WithLabelValues(result).Inc()
}

// RecordErrorResponse counts one normalized error response.
func RecordErrorResponse(status int) {
	errorResponses.WithLabelValues(strconv.Itoa(status)).Inc()
}

// Handler serves the default registry at /metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}
