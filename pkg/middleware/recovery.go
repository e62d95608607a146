package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/richxcame/postguard/pkg/common"
	"github.com/richxcame/postguard/pkg/logger"
	"go.uber.org/zap"
)

// Recovery turns a handler panic into a 500 envelope and logs it with the
// request's correlation id and the post or account it addressed
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				fields := append([]zap.Field{
					zap.Any("error", err),
					zap.String("method", c.Request.Method),
					zap.String("path", c.Request.URL.Path),
					zap.Stack("stack"),
				}, routeFields(c)...)
				logger.WithContext(c.Request.Context()).Error("Panic recovered", fields...)

				common.ErrorResponse(c, http.StatusInternalServerError, "internal server error")
				c.Abort()
			}
		}()

		c.Next()
	}
}
