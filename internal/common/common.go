package common

import (
	"errors"

	"github.com/DhavalSuthar-24/stepsquad/internal/identity"
	"github.com/gin-gonic/gin"
)

const (
	// Context keys
	ContextPrincipalKey = "principal" // identity.Principal of the caller
	ContextUserIDKey    = "userID"    // uid string of the caller
)

// SetPrincipal stores the authenticated caller on the Gin context.
func SetPrincipal(c *gin.Context, p identity.Principal) {
	c.Set(ContextPrincipalKey, p)
	c.Set(ContextUserIDKey, p.UserID)
}

// GetPrincipal retrieves the authenticated caller from the Gin context.
func GetPrincipal(c *gin.Context) (identity.Principal, error) {
	v, exists := c.Get(ContextPrincipalKey)
	if !exists {
		return identity.Principal{}, errors.New("principal not found in context")
	}
	p, ok := v.(identity.Principal)
	if !ok {
		return identity.Principal{}, errors.New("principal in context has unexpected type")
	}
	return p, nil
}

// GetUserIDFromContext retrieves the authenticated user's ID from the Gin context.
func GetUserIDFromContext(c *gin.Context) (string, error) {
	v, exists := c.Get(ContextUserIDKey)
	if !exists {
		return "", errors.New("user ID not found in context")
	}
	uid, ok := v.(string)
	if !ok {
		return "", errors.New("user ID in context is not of type string")
	}
	return uid, nil
}
