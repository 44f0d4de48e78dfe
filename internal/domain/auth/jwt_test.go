package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appctx "policyhub/internal/core/context"
)

func TestJWTService_RoundTrip(t *testing.T) {
	svc := NewJWTService(DefaultJWTConfig("secret"))
	user := appctx.UserContext{UserID: "u1", TenantID: "t1", Roles: []string{RoleAdmin}}

	token, expiresAt, err := svc.GenerateAccessToken(user, 0)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), expiresAt, 5*time.Second)

	got, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "u1", got.UserID)
	assert.Equal(t, "t1", got.TenantID)
	assert.Equal(t, []string{RoleAdmin}, got.Roles)
}

func TestJWTService_Rejects(t *testing.T) {
	svc := NewJWTService(DefaultJWTConfig("secret"))

	other, _, err := NewJWTService(DefaultJWTConfig("other")).
		GenerateAccessToken(appctx.UserContext{UserID: "u1", TenantID: "t1"}, time.Minute)
	require.NoError(t, err)
	_, err = svc.ValidateToken(other)
	assert.Error(t, err, "wrong secret")

	expired, _, err := svc.GenerateAccessToken(appctx.UserContext{UserID: "u1", TenantID: "t1"}, -time.Minute)
	require.NoError(t, err)
	_, err = svc.ValidateToken(expired)
	assert.Error(t, err, "expired")

	noTenant, _, err := svc.GenerateAccessToken(appctx.UserContext{UserID: "u1"}, time.Minute)
	require.NoError(t, err)
	_, err = svc.ValidateToken(noTenant)
	assert.Error(t, err, "tenantless")

	none := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{TenantID: "t1"})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = svc.ValidateToken(unsigned)
	assert.Error(t, err, "alg none")
}
