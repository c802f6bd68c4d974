package rmiddleware

import (
	"net/http"

	"github.com/DhavalSuthar-24/stepsquad/internal/common"
	"github.com/DhavalSuthar-24/stepsquad/internal/identity"
	"github.com/DhavalSuthar-24/stepsquad/utils"
	"github.com/gin-gonic/gin"
)

// RoleMiddleware admits callers holding any of the given roles. Must run after
// middleware.AuthMiddleware.
func RoleMiddleware(requiredRoles ...identity.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, err := common.GetPrincipal(c)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized: " + err.Error()})
			return
		}

		for _, requiredRole := range requiredRoles {
			if principal.Role == requiredRole {
				c.Next()
				return
			}
		}

		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
			"error":     "Forbidden",
			"message":   "You don't have permission to access this resource",
			"required":  requiredRoles,
			"user_role": principal.Role,
		})
	}
}

// AdminMiddleware is a convenience middleware for admin-only access
func AdminMiddleware() gin.HandlerFunc {
	return RoleMiddleware(identity.RoleAdmin)
}

// CronSecretHeader carries the shared secret of the scheduler.
const CronSecretHeader = "X-Cron-Secret"

// CronSecretMiddleware guards scheduler endpoints with a bcrypt-hashed shared
// secret. An empty hash disables the endpoints entirely.
func CronSecretMiddleware(secretHash string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if secretHash == "" {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Scheduler endpoints are disabled"})
			return
		}
		if !utils.CheckSecret(secretHash, c.GetHeader(CronSecretHeader)) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid scheduler secret"})
			return
		}
		c.Next()
	}
}
