package health

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Check probes a single dependency
type Check func(ctx context.Context) error

// ErrDegraded marks a check failure that degrades the service without making
// it unhealthy. Such failures still answer 200.
var ErrDegraded = errors.New("degraded")

// Pinger is satisfied by *pgxpool.Pool
type Pinger interface {
	Ping(ctx context.Context) error
}

// CheckerConfig holds checker settings
type CheckerConfig struct {
	Timeout time.Duration
}

// DefaultCheckerConfig returns the default checker settings
func DefaultCheckerConfig() CheckerConfig {
	return CheckerConfig{Timeout: 2 * time.Second}
}

// Response represents health check response
type Response struct {
	Status  string            `json:"status"`
	Service string            `json:"service"`
	Version string            `json:"version"`
	Checks  map[string]string `json:"checks,omitempty"`
}

// DatabaseChecker returns a health check for a PostgreSQL pool
func DatabaseChecker(db Pinger) Check {
	return func(ctx context.Context) error {
		if db == nil {
			return errors.New("database connection is nil")
		}
		return db.Ping(ctx)
	}
}

// RedisCheckFunc adapts a go-redis style ping into a Check
func RedisCheckFunc(ping func(ctx context.Context) error) Check {
	return func(ctx context.Context) error {
		if ping == nil {
			return errors.New("redis client is nil")
		}
		return ping(ctx)
	}
}

// BreakerCheck reports a tripped circuit breaker as degraded
func BreakerCheck(name string, open func() bool) Check {
	return func(ctx context.Context) error {
		if open() {
			return fmt.Errorf("%w: %s circuit open", ErrDegraded, name)
		}
		return nil
	}
}

// Handler returns a gin handler that runs every check with the configured timeout
func Handler(serviceName, version string, cfg CheckerConfig, checks map[string]Check) gin.HandlerFunc {
	return func(c *gin.Context) {
		status := "healthy"
		results := make(map[string]string, len(checks))

		for name, check := range checks {
			ctx, cancel := context.WithTimeout(c.Request.Context(), cfg.Timeout)
			err := check(ctx)
			cancel()

			switch {
			case errors.Is(err, ErrDegraded):
				results[name] = err.Error()
				if status == "healthy" {
					status = "degraded"
				}
			case err != nil:
				results[name] = "unhealthy: " + err.Error()
				status = "unhealthy"
			default:
				results[name] = "healthy"
			}
		}

		code := http.StatusOK
		if status == "unhealthy" {
			code = http.StatusServiceUnavailable
		}

		c.JSON(code, Response{
			Status:  status,
			Service: serviceName,
			Version: version,
			Checks:  results,
		})
	}
}
