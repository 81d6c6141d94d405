package util

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/maskapp/mask/internal/models"
)

// Context keys set by the auth middleware
const (
	ContextUserID = "user_id"
	ContextRole   = "user_role"
	ContextUser   = "user"
)

// GetUserIDFromContext extracts the user ID from the Gin context.
// If the user is not authenticated, it responds with 401 and returns false.
func GetUserIDFromContext(c *gin.Context) (string, bool) {
	userID, exists := c.Get(ContextUserID)
	if !exists {
		RespondUnauthorized(c)
		return "", false
	}
	userIDStr, ok := userID.(string)
	if !ok || userIDStr == "" {
		RespondUnauthorized(c)
		return "", false
	}
	return userIDStr, true
}

// OptionalUserID returns the caller's user ID or "" for anonymous requests
func OptionalUserID(c *gin.Context) string {
	if v, ok := c.Get(ContextUserID); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// GetRoleFromContext returns the role claim of the authenticated user
func GetRoleFromContext(c *gin.Context) models.Role {
	if v, ok := c.Get(ContextRole); ok {
		if r, ok := v.(models.Role); ok {
			return r
		}
		if s, ok := v.(string); ok {
			return models.Role(s)
		}
	}
	return models.RoleUser
}

// GetUserFromContext extracts the authenticated user loaded by the auth middleware.
func GetUserFromContext(c *gin.Context) (*models.User, bool) {
	user, exists := c.Get(ContextUser)
	if !exists {
		RespondUnauthorized(c)
		return nil, false
	}
	userPtr, ok := user.(*models.User)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"code": "INTERNAL_ERROR", "message": "invalid user data in context"})
		return nil, false
	}
	return userPtr, true
}
