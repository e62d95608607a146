package resilience

import "time"

// Settings configures a circuit breaker. Zero fields take the defaults below.
type Settings struct {
	Name             string
	Interval         time.Duration // window after which closed-state counts reset
	Timeout          time.Duration // how long the breaker stays open
	FailureThreshold uint32        // consecutive failures that trip the breaker
	SuccessThreshold uint32        // requests allowed through while half-open
}

const (
	defaultBreakerName      = "breaker"
	defaultInterval         = time.Minute
	defaultOpenTimeout      = 30 * time.Second
	defaultFailureThreshold = 5
	defaultSuccessThreshold = 1
)

func (s Settings) withDefaults() Settings {
	if s.Name == "" {
		s.Name = defaultBreakerName
	}
	if s.Interval <= 0 {
		s.Interval = defaultInterval
	}
	if s.Timeout <= 0 {
		s.Timeout = defaultOpenTimeout
	}
	if s.FailureThreshold == 0 {
		s.FailureThreshold = defaultFailureThreshold
	}
	if s.SuccessThreshold == 0 {
		s.SuccessThreshold = defaultSuccessThreshold
	}
	return s
}
