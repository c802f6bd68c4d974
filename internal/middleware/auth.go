package middleware

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/DhavalSuthar-24/stepsquad/internal/common"
	"github.com/DhavalSuthar-24/stepsquad/internal/identity"
	"github.com/DhavalSuthar-24/stepsquad/internal/user"
	"github.com/gin-gonic/gin"
)

const DevUserHeader = "X-Dev-User"

// AuthMiddleware resolves the caller through the identity provider, records
// the user on first sight and stores the principal (with the stored role) on
// the context.
func AuthMiddleware(provider identity.Provider, users user.UserRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		cred := identity.Credential{DevUser: c.GetHeader(DevUserHeader)}

		if authHeader := c.GetHeader("Authorization"); authHeader != "" {
			bearerToken := strings.Split(authHeader, " ")
			if len(bearerToken) != 2 || strings.ToLower(bearerToken[0]) != "bearer" {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid Authorization header format. Expected: Bearer <token>"})
				return
			}
			cred.BearerToken = bearerToken[1]
		}

		principal, err := provider.Resolve(c.Request.Context(), cred)
		if err != nil {
			if errors.Is(err, identity.ErrNoCredential) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header is required"})
				return
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token: " + err.Error()})
			return
		}

		stored, err := users.EnsureUser(c.Request.Context(), principal)
		if err != nil {
			slog.Error("Failed to record user", "uid", principal.UserID, "error", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to load user"})
			return
		}
		principal.Role = stored.Role

		common.SetPrincipal(c, principal)
		c.Next()
	}
}
