// Package metrics exposes Prometheus collectors for the Second Brain server.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	circuitBreakerState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "secondbrain_circuit_breaker_state",
		Help: "Circuit breaker state by component (the active state is 1, others 0)",
	}, []string{"component", "state"})

	circuitBreakerTrips = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "secondbrain_circuit_breaker_trips_total",
		Help: "Total number of transitions to the open state",
	}, []string{"component", "reason"})

	circuitBreakerFallbacks = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "secondbrain_circuit_breaker_fallbacks_total",
		Help: "Calls answered by a fallback instead of the protected operation",
	}, []string{"component"})

	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "secondbrain_http_requests_total",
		Help: "HTTP requests by route and status code",
	}, []string{"route", "code"})

	httpDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "secondbrain_http_request_duration_seconds",
		Help:    "HTTP request latency by route",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})

	webhookDeliveries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "secondbrain_webhook_deliveries_total",
		Help: "Outbound webhook deliveries by kind and result",
	}, []string{"kind", "result"})

	authOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "secondbrain_auth_outcomes_total",
		Help: "Authentication operations by operation and result",
	}, []string{"operation", "result"})
)

var circuitStates = []string{"closed", "half-open", "open"}

// SetCircuitBreakerState records the active circuit breaker state for a component.
func SetCircuitBreakerState(component, state string) {
	for _, s := range circuitStates {
		value := 0.0
		if s == state {
			value = 1.0
		}
		circuitBreakerState.WithLabelValues(component, s).Set(value)
	}
}

// RecordCircuitBreakerTrip increments the trip counter when a breaker opens.
func RecordCircuitBreakerTrip(component, reason string) {
	circuitBreakerTrips.WithLabelValues(component, reason).Inc()
}

// RecordCircuitBreakerFallback counts a call answered by its fallback.
func RecordCircuitBreakerFallback(component string) {
	circuitBreakerFallbacks.WithLabelValues(component).Inc()
}

// RecordHTTPRequest observes one completed request.
func RecordHTTPRequest(route string, code int, elapsed time.Duration) {
	httpRequests.WithLabelValues(route, strconv.Itoa(code)).Inc()
	httpDuration.WithLabelValues(route).Observe(elapsed.Seconds())
}

// RecordWebhookDelivery counts an outbound webhook by kind ("contact", "registration", ...).
func RecordWebhookDelivery(kind string, ok bool) {
	webhookDeliveries.WithLabelValues(kind, result(ok)).Inc()
}

// RecordAuthOutcome counts login, register, logout and validate outcomes.
func RecordAuthOutcome(operation string, ok bool) {
	authOutcomes.WithLabelValues(operation, result(ok)).Inc()
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

func result(ok bool) string {
	if ok {
		return "success"
	}
	return "failure"
}
