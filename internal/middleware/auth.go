package middleware

import (
	"context"
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/maskapp/mask/internal/auth"
	"github.com/maskapp/mask/internal/models"
	"github.com/maskapp/mask/internal/util"
)

// TokenValidator resolves a bearer token to a live account
type TokenValidator interface {
	ValidateToken(ctx context.Context, token string) (*models.User, error)
}

func bearer(c *gin.Context) string {
	h := c.GetHeader("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

func setUser(c *gin.Context, u *models.User) {
	c.Set(util.ContextUserID, u.ID)
	c.Set(util.ContextRole, u.Role)
	c.Set(util.ContextUser, u)
}

// RequireAuth rejects requests without a valid bearer token
func RequireAuth(v TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearer(c)
		if token == "" {
			util.RespondUnauthorized(c, "missing bearer token")
			return
		}
		user, err := v.ValidateToken(c.Request.Context(), token)
		if err != nil {
			if errors.Is(err, auth.ErrAccountDisabled) {
				util.RespondForbidden(c, "account disabled")
				return
			}
			util.RespondUnauthorized(c, "invalid or expired token")
			return
		}
		setUser(c, user)
		c.Next()
	}
}
