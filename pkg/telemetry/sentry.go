// Package telemetry reports unexpected errors to Sentry.
package telemetry

import (
	"fmt"
	"time"

	"github.com/getsentry/sentry-go"
)

// Init configures the global Sentry client. An empty dsn leaves reporting
// disabled and returns false.
func Init(dsn, environment, release string) (bool, error) {
	if dsn == "" {
		return false, nil
	}

	err := sentry.Init(sentry.ClientOptions{
		Dsn:              dsn,
		Environment:      environment,
		Release:          release,
		SampleRate:       1.0,
		AttachStacktrace: true,
	})
	if err != nil {
		return false, fmt.Errorf("sentry initialization failed: %w", err)
	}

	return true, nil
}

// CaptureError sends err to Sentry tagged with the reporting component.
// It is a no-op when Init was not called.
func CaptureError(err error, component string, tags map[string]string) {
	if err == nil {
		return
	}

	sentry.WithScope(func(scope *sentry.Scope) {
		scope.SetLevel(sentry.LevelError)
		scope.SetTag("component", component)
		for k, v := range tags {
			scope.SetTag(k, v)
		}
		sentry.CaptureException(err)
	})
}

// Flush waits for buffered events to be delivered
func Flush(timeout time.Duration) bool {
	return sentry.Flush(timeout)
}
