package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/meterline/meterline/internal/types"
)

func RequestIDMiddleware(c *gin.Context) {
	ctx := c.Request.Context()

	requestID := c.GetHeader(types.HeaderRequestID)
	if requestID == "" {
		requestID = types.GenerateUUID()
	}

	ctx = context.WithValue(ctx, types.CtxRequestID, requestID)
	c.Request = c.Request.WithContext(ctx)

	// Echo the request ID so callers can correlate logs
	c.Header(types.HeaderRequestID, requestID)

	c.Next()
}

// TenantMiddleware resolves the tenant and environment scope of the request.
// Single-tenant deployments omit the headers and fall back to the default
// tenant.
func TenantMiddleware(c *gin.Context) {
	ctx := c.Request.Context()

	tenantID := c.GetHeader(types.HeaderTenantID)
	if tenantID == "" {
		tenantID = types.DefaultTenantID
	}

	ctx = types.SetTenantID(ctx, tenantID)
	ctx = types.SetUserID(ctx, types.DefaultUserID)

	if environmentID := c.GetHeader(types.HeaderEnvironmentID); environmentID != "" {
		ctx = types.SetEnvironmentID(ctx, environmentID)
	}

	c.Request = c.Request.WithContext(ctx)
	c.Next()
}
