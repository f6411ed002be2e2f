/*
internal/middleware/requestid.go
Package middleware provides HTTP middleware for the opsight service.
*/

package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ContextKeyRequestID is the gin context key carrying the request ID.
const ContextKeyRequestID = "request_id"

// RequestIDHeader is the response header exposing the request ID.
const RequestIDHeader = "X-Request-ID"

// RequestIDMiddleware assigns every request a unique ID, honouring one
// supplied by the caller.
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(ContextKeyRequestID, id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

// RequestID returns the request ID assigned by RequestIDMiddleware.
func RequestID(c *gin.Context) string {
	if id, ok := c.Get(ContextKeyRequestID); ok {
		if s, ok := id.(string); ok {
			return s
		}
	}
	return ""
}
