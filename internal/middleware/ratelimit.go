/*
internal/middleware/ratelimit.go
Token-bucket rate limiting for the whole inbound surface.
*/

package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// RateLimitMiddleware enforces a process-wide token-bucket limit. The
// limiter is safe for concurrent use as-is.
func RateLimitMiddleware(requestsPerSecond, burst int) gin.HandlerFunc {
	limiter := rate.NewLimiter(rate.Limit(requestsPerSecond), burst)

	return func(c *gin.Context) {
		if !limiter.Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "Rate limit exceeded",
			})
			return
		}
		c.Next()
	}
}
