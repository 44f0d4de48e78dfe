package context

import (
	"context"

	"github.com/google/uuid"
)

// Channels a call can arrive through.
const (
	ChannelHTTP = "http"
	ChannelCLI  = "cli"
)

// TraceContext ties log lines and issued numbers to one inbound call.
type TraceContext struct {
	TraceID   string
	RequestID string
	Channel   string
}

type traceContextKey struct{}

func WithTrace(ctx context.Context, trace *TraceContext) context.Context {
	return context.WithValue(ctx, traceContextKey{}, trace)
}

func GetTrace(ctx context.Context) *TraceContext {
	trace, _ := ctx.Value(traceContextKey{}).(*TraceContext)
	return trace
}

// GetRequestID returns the request ID from ctx or "".
func GetRequestID(ctx context.Context) string {
	if t := GetTrace(ctx); t != nil {
		return t.RequestID
	}
	return ""
}

// NewTraceContext starts a trace for a call that carried no trace headers.
// Empty IDs are generated.
func NewTraceContext(channel, traceID, requestID string) *TraceContext {
	if traceID == "" {
		traceID = uuid.NewString()
	}
	if requestID == "" {
		requestID = uuid.NewString()
	}
	return &TraceContext{TraceID: traceID, RequestID: requestID, Channel: channel}
}
