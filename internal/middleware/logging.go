/*
internal/middleware/logging.go
Request logging: a structured log line per request plus an audit row.
*/

package middleware

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/opsightlabs/opsight/internal/audit"
)

// LoggingMiddleware logs every request through the structured logger and
// records it in the audit store. Audit writes happen off the request
// path so a slow disk never delays the response.
func LoggingMiddleware(logger *slog.Logger, store audit.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()

		entry := audit.Entry{
			Source:     "http",
			Level:      levelForStatus(status),
			Message:    c.Request.Method + " " + c.Request.URL.Path,
			Time:       start,
			RequestID:  RequestID(c),
			Method:     c.Request.Method,
			Path:       c.Request.URL.Path,
			StatusCode: status,
			Latency:    latency,
			ClientIP:   c.ClientIP(),
		}

		go func() {
			if err := store.Save([]audit.Entry{entry}); err != nil {
				logger.Warn("audit write failed", slog.Any("error", err))
			}
		}()

		logger.LogAttrs(c.Request.Context(), slogLevel(status), "request completed",
			slog.String("method", entry.Method),
			slog.String("path", entry.Path),
			slog.Int("status", status),
			slog.Duration("latency", latency),
			slog.String("client_ip", entry.ClientIP),
			slog.String("request_id", entry.RequestID))
	}
}

func levelForStatus(status int) string {
	switch {
	case status >= 500:
		return "ERROR"
	case status >= 400:
		return "WARN"
	default:
		return "INFO"
	}
}

func slogLevel(status int) slog.Level {
	switch {
	case status >= 500:
		return slog.LevelError
	case status >= 400:
		return slog.LevelWarn
	default:
		return slog.LevelInfo
	}
}
