package middleware

import (
	"crypto/subtle"

	"github.com/gin-gonic/gin"
	"github.com/maskapp/mask/internal/config"
	"github.com/maskapp/mask/internal/logger"
	"github.com/maskapp/mask/internal/models"
	"github.com/maskapp/mask/internal/util"
	"go.uber.org/zap"
)

// AdminKeyHeader carries the shared admin key in key mode
const AdminKeyHeader = "x-admin-key"

// AdminGate builds the admin middleware for the configured mode. Exactly one
// mechanism applies: the JWT role in role mode, the shared key in key mode.
// Both run after RequireAuth.
type AdminGate struct {
	mode config.AdminAuthMode
	key  []byte
}

func NewAdminGate(mode config.AdminAuthMode, key string) *AdminGate {
	return &AdminGate{mode: mode, key: []byte(key)}
}

func (g *AdminGate) Mode() config.AdminAuthMode { return g.mode }

// RequireAdmin admits admins only
func (g *AdminGate) RequireAdmin() gin.HandlerFunc {
	return g.handler(false)
}

// RequireStaff also admits moderators in role mode; it guards the report
// queue. In key mode the key is all that counts.
func (g *AdminGate) RequireStaff() gin.HandlerFunc {
	return g.handler(true)
}

func (g *AdminGate) handler(allowModerators bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := util.GetUserIDFromContext(c)
		if !ok {
			return
		}

		if g.mode == config.AdminAuthKey {
			presented := []byte(c.GetHeader(AdminKeyHeader))
			if len(g.key) == 0 || subtle.ConstantTimeCompare(presented, g.key) != 1 {
				logger.Log.Warn("Admin key rejected", logger.WithUserID(userID), zap.String("path", c.FullPath()))
				util.RespondForbidden(c, "admin key required")
				return
			}
			c.Next()
			return
		}

		role := util.GetRoleFromContext(c)
		if role == models.RoleAdmin || (allowModerators && role == models.RoleModerator) {
			c.Next()
			return
		}
		logger.Log.Warn("Admin access denied", logger.WithUserID(userID), zap.String("role", string(role)), zap.String("path", c.FullPath()))
		util.RespondForbidden(c, "admin access required")
	}
}
