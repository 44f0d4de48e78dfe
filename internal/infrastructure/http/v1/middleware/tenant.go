package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"policyhub/internal/core/apperror"
	"policyhub/internal/core/tenant"
)

const (
	// TenantHeader is the HTTP header for tenant identification.
	TenantHeader = "X-Tenant-ID"
)

// Tenant middleware resolves the tenant from the X-Tenant-ID header and
// attaches it to the request context. It must run before Auth and before any
// numbering call.
func Tenant() gin.HandlerFunc {
	return func(c *gin.Context) {
		rawTenantID := c.GetHeader(TenantHeader)
		if rawTenantID == "" {
			_ = c.Error(
				apperror.NewUnauthorized("tenant is required").
					WithDetail("header", TenantHeader),
			)
			c.Abort()
			return
		}

		tenantUUID, err := uuid.Parse(rawTenantID)
		if err != nil {
			_ = c.Error(
				apperror.NewValidation("invalid tenant id").
					WithDetail("header", TenantHeader).
					WithDetail("value", rawTenantID),
			)
			c.Abort()
			return
		}
		tenantID := tenantUUID.String()

		c.Request = c.Request.WithContext(tenant.WithID(c.Request.Context(), tenantID))
		c.Set("tenant_id", tenantID)

		c.Next()
	}
}
