package middleware

import (
	"time"

	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-gonic/gin"
)

// SentryReporter reports handler panics to Sentry, tagged with the request's
// correlation id. Panics are re-raised so Recovery still writes the 500.
// Without an initialised Sentry client nothing is sent.
func SentryReporter() gin.HandlersChain {
	return gin.HandlersChain{
		sentrygin.New(sentrygin.Options{Repanic: true, Timeout: 2 * time.Second}),
		func(c *gin.Context) {
			if hub := sentrygin.GetHubFromContext(c); hub != nil {
				hub.Scope().SetTag("correlation_id", GetCorrelationID(c))
			}
			c.Next()
		},
	}
}
