package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"stockpit/internal/core/id"
	"stockpit/pkg/logger"
)

const headerRequestID = "X-Request-Id"

// RequestLogger assigns a request id, attaches it to the context logger
// and logs one line per request.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(headerRequestID)
		if requestID == "" {
			requestID = id.New().String()
		}
		c.Set("request_id", requestID)
		c.Header(headerRequestID, requestID)

		ctx := logger.WithRequestID(c.Request.Context(), requestID)
		c.Request = c.Request.WithContext(ctx)

		start := time.Now()
		c.Next()

		fields := []any{
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
		}
		if c.Writer.Status() >= 500 {
			logger.Error(ctx, "request failed", fields...)
		} else {
			logger.Info(ctx, "request", fields...)
		}
	}
}
