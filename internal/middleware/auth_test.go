package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/maskapp/mask/internal/auth"
	"github.com/maskapp/mask/internal/config"
	"github.com/maskapp/mask/internal/models"
	"github.com/maskapp/mask/internal/util"
	"github.com/stretchr/testify/assert"
)

type stubValidator map[string]*models.User

func (s stubValidator) ValidateToken(_ context.Context, token string) (*models.User, error) {
	if token == "disabled" {
		return nil, auth.ErrAccountDisabled
	}
	if u, ok := s[token]; ok {
		return u, nil
	}
	return nil, auth.ErrInvalidToken
}

var testUsers = stubValidator{
	"user-token":  {ID: "u1", Pseudonym: "alice", Role: models.RoleUser},
	"mod-token":   {ID: "u2", Pseudonym: "mod", Role: models.RoleModerator},
	"admin-token": {ID: "u3", Pseudonym: "root", Role: models.RoleAdmin},
}

func do(router *gin.Engine, path, token string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func whoami(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"user_id": util.OptionalUserID(c), "role": util.GetRoleFromContext(c)})
}

func TestRequireAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/me", RequireAuth(testUsers), whoami)

	assert.Equal(t, http.StatusUnauthorized, do(router, "/me", "", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, do(router, "/me", "bogus", nil).Code)
	assert.Equal(t, http.StatusForbidden, do(router, "/me", "disabled", nil).Code)

	w := do(router, "/me", "user-token", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"user_id":"u1"`)
}

func TestAdminGateRoleMode(t *testing.T) {
	gin.SetMode(gin.TestMode)
	gate := NewAdminGate(config.AdminAuthRole, "")
	router := gin.New()
	router.GET("/admin/stats", RequireAuth(testUsers), gate.RequireAdmin(), whoami)
	router.GET("/admin/reports", RequireAuth(testUsers), gate.RequireStaff(), whoami)

	assert.Equal(t, http.StatusForbidden, do(router, "/admin/stats", "user-token", nil).Code)
	assert.Equal(t, http.StatusForbidden, do(router, "/admin/stats", "mod-token", nil).Code)
	assert.Equal(t, http.StatusOK, do(router, "/admin/stats", "admin-token", nil).Code)

	assert.Equal(t, http.StatusForbidden, do(router, "/admin/reports", "user-token", nil).Code)
	assert.Equal(t, http.StatusOK, do(router, "/admin/reports", "mod-token", nil).Code)

	// a key means nothing in role mode
	assert.Equal(t, http.StatusForbidden, do(router, "/admin/stats", "user-token", map[string]string{AdminKeyHeader: "anything"}).Code)
}

func TestAdminGateKeyMode(t *testing.T) {
	gin.SetMode(gin.TestMode)
	gate := NewAdminGate(config.AdminAuthKey, "s3cret")
	router := gin.New()
	router.GET("/admin/stats", RequireAuth(testUsers), gate.RequireAdmin(), whoami)

	assert.Equal(t, http.StatusForbidden, do(router, "/admin/stats", "admin-token", nil).Code, "role alone is not enough in key mode")
	assert.Equal(t, http.StatusForbidden, do(router, "/admin/stats", "user-token", map[string]string{AdminKeyHeader: "wrong"}).Code)
	assert.Equal(t, http.StatusOK, do(router, "/admin/stats", "user-token", map[string]string{AdminKeyHeader: "s3cret"}).Code)
	assert.Equal(t, http.StatusUnauthorized, do(router, "/admin/stats", "", map[string]string{AdminKeyHeader: "s3cret"}).Code)
}

func TestAdminGateKeyModeWithoutKeyRejects(t *testing.T) {
	gin.SetMode(gin.TestMode)
	gate := NewAdminGate(config.AdminAuthKey, "")
	router := gin.New()
	router.GET("/admin/stats", RequireAuth(testUsers), gate.RequireAdmin(), whoami)

	assert.Equal(t, http.StatusForbidden, do(router, "/admin/stats", "admin-token", map[string]string{AdminKeyHeader: ""}).Code)
}
