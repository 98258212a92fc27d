package middlewares

import (
	"net/http"
	"strings"

	"github.com/easybudgetapp/easybudget_backend/models"
	"github.com/easybudgetapp/easybudget_backend/utils"
	"github.com/gin-gonic/gin"
)

// AuthMiddleware validates the bearer token and moves its claims onto the
// request context: tenant id, user id, admin flag. Requests without an
// Authorization header pass through unauthenticated; route handlers decide
// what anonymous access means.
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.Request.Header.Get("Authorization")
		if auth == "" {
			c.Next()
			return
		}

		bearer := "Bearer "
		if !strings.HasPrefix(auth, bearer) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			c.Abort()
			return
		}
		auth = auth[len(bearer):]

		validate, err := utils.JwtValidate(auth)
		if err != nil || !validate.Valid {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			c.Abort()
			return
		}

		claim, ok := validate.Claims.(*utils.JwtCustomClaim)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			c.Abort()
			return
		}

		ctx := utils.SetUserIdInContext(c.Request.Context(), claim.ID)
		if claim.TenantId != "" {
			ctx = utils.SetTenantIdInContext(ctx, claim.TenantId)
		}
		if claim.Role == string(models.UserRoleAdmin) {
			ctx = utils.SetIsAdminInContext(ctx, true)
		}
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
