package tenant

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"policyhub/internal/core/apperror"
)

func TestRequireID(t *testing.T) {
	_, err := RequireID(context.Background())
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeUnauthorized))
	assert.ErrorIs(t, err, ErrNoTenantInContext)

	ctx := WithID(context.Background(), "  acme  ")
	id, err := RequireID(ctx)
	require.NoError(t, err)
	assert.Equal(t, "acme", id)
}

func TestRequireID_Blank(t *testing.T) {
	_, err := RequireID(WithID(context.Background(), "   "))
	assert.Error(t, err)
}
