package resilience

import (
	"context"
	"errors"

	"github.com/sony/gobreaker"
)

// ErrCircuitOpen is returned when the breaker rejects a call without running it.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// Operation is a unit of work guarded by a circuit breaker.
type Operation func(ctx context.Context) (interface{}, error)

// CircuitBreaker guards calls to an unreliable dependency.
type CircuitBreaker struct {
	name     string
	breaker  *gobreaker.CircuitBreaker
	fallback FallbackFunc
}

// NewCircuitBreaker creates a breaker. fallback runs whenever the breaker
// rejects a call; nil means NoopFallback.
func NewCircuitBreaker(settings Settings, fallback FallbackFunc) *CircuitBreaker {
	settings = settings.withDefaults()
	if fallback == nil {
		fallback = NoopFallback
	}

	cb := &CircuitBreaker{name: settings.Name, fallback: fallback}
	cb.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        settings.Name,
		MaxRequests: settings.SuccessThreshold,
		Interval:    settings.Interval,
		Timeout:     settings.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= settings.FailureThreshold
		},
		IsSuccessful: func(err error) bool {
			// The caller giving up is not a dependency failure.
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			observeState(name, to)
		},
	})
	observeState(settings.Name, gobreaker.StateClosed)

	return cb
}

// Name returns the breaker name used for metrics.
func (cb *CircuitBreaker) Name() string {
	return cb.name
}

// Open reports whether the breaker currently rejects calls.
func (cb *CircuitBreaker) Open() bool {
	return cb.breaker.State() == gobreaker.StateOpen
}

// Execute runs op through the breaker.
func (cb *CircuitBreaker) Execute(ctx context.Context, op Operation) (interface{}, error) {
	result, err := cb.breaker.Execute(func() (interface{}, error) {
		return op(ctx)
	})
	if err == nil {
		observeCall(cb.name, outcomeSuccess)
		return result, nil
	}

	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		observeCall(cb.name, outcomeRejected)
		return cb.fallback(ctx, err)
	}

	observeCall(cb.name, outcomeFailure)
	return nil, err
}
