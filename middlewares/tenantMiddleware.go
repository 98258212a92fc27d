package middlewares

import (
	"github.com/easybudgetapp/easybudget_backend/utils"
	"github.com/gin-gonic/gin"
)

// TenantMiddleware captures the explicit tenant hint (X-Tenant-Id header or
// tenant_id query param) under its own context key. The resolver consults it
// only after the authenticated principal's tenant, so a forged header can
// never override a signed token.
func TenantMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		hint := c.Request.Header.Get("X-Tenant-Id")
		if hint == "" {
			hint = c.Query("tenant_id")
		}
		if hint != "" {
			ctx := utils.SetTenantHeaderInContext(c.Request.Context(), hint)
			c.Request = c.Request.WithContext(ctx)
		}
		c.Next()
	}
}
