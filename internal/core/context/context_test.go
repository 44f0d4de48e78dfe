package context

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHasAnyRole(t *testing.T) {
	u := &UserContext{UserID: "u1", Roles: []string{"numbering:issue"}}

	assert.True(t, u.HasAnyRole("numbering:admin", "numbering:issue"))
	assert.False(t, u.HasAnyRole("numbering:admin"))
	assert.False(t, u.HasAnyRole())

	var anonymous *UserContext
	assert.False(t, anonymous.HasAnyRole("numbering:issue"))
}

func TestNewTraceContext(t *testing.T) {
	kept := NewTraceContext(ChannelHTTP, "trace-1", "req-1")
	assert.Equal(t, &TraceContext{TraceID: "trace-1", RequestID: "req-1", Channel: ChannelHTTP}, kept)

	generated := NewTraceContext(ChannelCLI, "", "")
	assert.NotEmpty(t, generated.TraceID)
	assert.NotEmpty(t, generated.RequestID)
	assert.NotEqual(t, generated.TraceID, generated.RequestID)

	ctx := WithTrace(context.Background(), generated)
	assert.Equal(t, generated.RequestID, GetRequestID(ctx))
	assert.Empty(t, GetRequestID(context.Background()))
	assert.Empty(t, GetUserID(ctx))
}
