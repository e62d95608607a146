package resilience

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/sony/gobreaker"
)

// Call outcomes recorded per breaker
const (
	outcomeSuccess  = "success"
	outcomeFailure  = "failure"
	outcomeRejected = "rejected"
)

var (
	breakerState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "postguard_breaker_state",
		Help: "Circuit breaker state (0=closed, 0.5=half-open, 1=open)",
	}, []string{"breaker"})

	breakerCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "postguard_breaker_calls_total",
		Help: "Calls made through a circuit breaker by outcome; rejected calls never reached the dependency",
	}, []string{"breaker", "outcome"})

	breakerTrips = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "postguard_breaker_trips_total",
		Help: "Times a circuit breaker opened",
	}, []string{"breaker"})
)

func stateValue(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateHalfOpen:
		return 0.5
	case gobreaker.StateOpen:
		return 1
	default:
		return 0
	}
}

func observeState(name string, state gobreaker.State) {
	breakerState.WithLabelValues(name).Set(stateValue(state))
	if state == gobreaker.StateOpen {
		breakerTrips.WithLabelValues(name).Inc()
	}
}

func observeCall(name, outcome string) {
	breakerCalls.WithLabelValues(name, outcome).Inc()
}
