package telemetry

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
)

// HTTPLogger logs one line per request. Errors attached to the gin context
// by handlers are included so store failures show up next to the route.
func HTTPLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		attrs := []any{
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		}
		if len(c.Errors) > 0 {
			attrs = append(attrs, "error", c.Errors.String())
			slog.ErrorContext(c.Request.Context(), "http: request failed", attrs...)
			return
		}

		slog.InfoContext(c.Request.Context(), "http: request", attrs...)
	}
}
