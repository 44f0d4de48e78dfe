package middleware

import (
	"github.com/gin-gonic/gin"

	appctx "policyhub/internal/core/context"
)

const (
	HeaderRequestID = "X-Request-ID"
	HeaderTraceID   = "X-Trace-ID"
)

// gin context keys
const (
	ctxRequestID      = "request_id"
	ctxTraceID        = "trace_id"
	ctxIdempotencyKey = "idempotency_key"
)

// Trace takes the request and trace IDs from the inbound headers, or
// generates them, and echoes both on the response.
func Trace() gin.HandlerFunc {
	return func(c *gin.Context) {
		trace := appctx.NewTraceContext(appctx.ChannelHTTP,
			c.GetHeader(HeaderTraceID), c.GetHeader(HeaderRequestID))

		c.Request = c.Request.WithContext(appctx.WithTrace(c.Request.Context(), trace))
		c.Set(ctxTraceID, trace.TraceID)
		c.Set(ctxRequestID, trace.RequestID)
		c.Header(HeaderRequestID, trace.RequestID)
		c.Header(HeaderTraceID, trace.TraceID)

		c.Next()
	}
}
