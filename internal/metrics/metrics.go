// Package metrics holds the prometheus collectors of ghostline.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "ghostline"

// Provider outcomes.
const (
	OutcomeOK          = "ok"
	OutcomeEmpty       = "empty"
	OutcomeTransient   = "transient"
	OutcomeRateLimited = "rate_limited"
	OutcomeInvalid     = "invalid_input"
	OutcomeUnavailable = "unavailable"
	OutcomeCanceled    = "canceled"
	OutcomeSuperseded  = "superseded"
)

var (
	ProviderRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "provider",
			Name:      "requests_total",
			Help:      "Provider attempts by outcome",
		},
		[]string{"provider", "outcome"},
	)

	ProviderLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "provider",
			Name:      "latency_seconds",
			Help:      "Provider attempt latency in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 10), // 10ms to ~5s
		},
		[]string{"provider"},
	)

	ProviderSkipped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "provider",
			Name:      "skipped_total",
			Help:      "Providers skipped during selection",
		},
		[]string{"provider", "reason"},
	)

	Fallbacks = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "gateway",
			Name:      "fallbacks_total",
			Help:      "Second attempts after the preferred provider failed",
		},
	)

	Suggestions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "coordinator",
			Name:      "suggestions_total",
			Help:      "Suggestion lifecycle events",
		},
		[]string{"event", "surface_kind"},
	)

	DebounceFired = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "coordinator",
			Name:      "requests_total",
			Help:      "Requests issued after the debounce window",
		},
	)
)

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
