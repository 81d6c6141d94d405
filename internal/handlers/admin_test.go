package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/maskapp/mask/internal/models"
	"github.com/maskapp/mask/internal/trust"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// ADMIN CONSOLE TESTS
// =============================================================================

func (suite *HandlersTestSuite) TestAdminRoutesRequireAdminRole() {
	t := suite.T()

	w := suite.do(http.MethodGet, "/api/admin/stats", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = suite.do(http.MethodGet, "/api/admin/stats", suite.alice, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	// moderators only reach the report queue
	w = suite.do(http.MethodGet, "/api/admin/stats", suite.mod, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	w = suite.do(http.MethodGet, "/api/admin/reports", suite.mod, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = suite.do(http.MethodGet, "/api/admin/stats", suite.root, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func (suite *HandlersTestSuite) TestAdminSetRole() {
	t := suite.T()

	w := suite.do(http.MethodPut, "/api/admin/users/"+suite.bob.ID+"/role", suite.root, gin.H{"role": "moderator"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var bob models.User
	require.NoError(t, suite.db.First(&bob, "id = ?", suite.bob.ID).Error)
	assert.Equal(t, models.RoleModerator, bob.Role)

	w = suite.do(http.MethodPut, "/api/admin/users/"+suite.bob.ID+"/role", suite.root, gin.H{"role": "emperor"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = suite.do(http.MethodPut, "/api/admin/users/"+suite.root.ID+"/role", suite.root, gin.H{"role": "user"})
	assert.Equal(t, http.StatusBadRequest, w.Code, "admins cannot demote themselves")
}

func (suite *HandlersTestSuite) TestAdminDisableUserRequiresFlag() {
	t := suite.T()

	w := suite.do(http.MethodPut, "/api/admin/users/"+suite.bob.ID+"/disabled", suite.root, gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = suite.do(http.MethodPut, "/api/admin/users/"+suite.bob.ID+"/disabled", suite.root, gin.H{"disabled": true})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var bob models.User
	require.NoError(t, suite.db.First(&bob, "id = ?", suite.bob.ID).Error)
	assert.True(t, bob.Disabled)
}

func (suite *HandlersTestSuite) TestAdminCreateQuoteFeedsMotivation() {
	t := suite.T()

	w := suite.do(http.MethodPost, "/api/admin/quotes", suite.root, gin.H{"text": "Log off and touch grass.", "author": "Mask"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var count int64
	suite.db.Model(&models.Quote{}).Count(&count)
	assert.Equal(t, int64(1), count)
}

func (suite *HandlersTestSuite) TestTrustDefaultsAndOverride() {
	t := suite.T()
	path := "/api/trust/user/" + suite.bob.ID

	var badge trust.Badge
	w := suite.do(http.MethodGet, path, nil, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	suite.decode(w, &badge)
	assert.Equal(t, models.TierProvisional, badge.Tier)

	w = suite.do(http.MethodPut, "/api/admin/trust/user/"+suite.bob.ID, suite.root, gin.H{"tier": "high"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = suite.do(http.MethodGet, path, nil, nil)
	suite.decode(w, &badge)
	assert.Equal(t, models.TierHigh, badge.Tier)

	w = suite.do(http.MethodPut, "/api/admin/trust/user/"+suite.bob.ID, suite.root, gin.H{"tier": "legendary"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func (suite *HandlersTestSuite) TestReportsAreIdempotentWhileOpen() {
	t := suite.T()
	post := suite.createPost(suite.alice, gin.H{"text": "spam spam spam"})
	body := gin.H{"target_type": "post", "target_id": post.ID, "reason": "spam"}

	w := suite.do(http.MethodPost, "/api/reports", suite.bob, body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	w = suite.do(http.MethodPost, "/api/reports", suite.bob, body)
	assert.Contains(t, []int{http.StatusOK, http.StatusCreated}, w.Code)

	var count int64
	suite.db.Model(&models.Report{}).Count(&count)
	assert.Equal(t, int64(1), count)

	w = suite.do(http.MethodPost, "/api/reports", suite.bob, gin.H{"target_type": "planet", "target_id": "x", "reason": "spam"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
