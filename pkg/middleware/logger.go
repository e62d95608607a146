package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/richxcame/postguard/pkg/logger"
	"go.uber.org/zap"
)

// routeFields names the matched route and the post or account it addresses,
// so one post's requests can be followed across submit, lookup and detection.
func routeFields(c *gin.Context) []zap.Field {
	var fields []zap.Field
	if route := c.FullPath(); route != "" {
		fields = append(fields, zap.String("route", route))
	}
	if id, err := strconv.ParseInt(c.Param("id"), 10, 64); err == nil {
		fields = append(fields, zap.Int64("post_id", id))
	}
	if username := c.Param("username"); username != "" {
		fields = append(fields, zap.String("username", username))
	}
	return fields
}

// RequestLogger logs HTTP requests
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)
		statusCode := c.Writer.Status()
		clientIP := c.ClientIP()
		method := c.Request.Method

		fields := []zap.Field{
			zap.Int("status", statusCode),
			zap.String("method", method),
			zap.String("path", path),
			zap.String("query", query),
			zap.String("ip", clientIP),
			zap.Duration("latency", latency),
		}
		fields = append(fields, routeFields(c)...)

		reqLogger := logger.WithContext(c.Request.Context())

		if len(c.Errors) > 0 {
			reqLogger.Error("Request completed with errors", append(fields, zap.String("errors", c.Errors.String()))...)
		} else {
			reqLogger.Info("Request completed", fields...)
		}
	}
}
