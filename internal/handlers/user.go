package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/maskapp/mask/internal/logger"
	"github.com/maskapp/mask/internal/social"
	"github.com/maskapp/mask/internal/util"
)

// GetUserProfile returns a public profile with the caller's relationship
// GET /api/users/:id
func (h *Handlers) GetUserProfile(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	profile, err := h.social.Profile(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		util.RespondError(c, err, "user")
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": profile})
}

// UpdateMyProfile applies a partial update
// PATCH /api/users/me
func (h *Handlers) UpdateMyProfile(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	var req social.UpdateProfileInput
	if !util.BindJSON(c, &req) {
		return
	}

	user, err := h.social.UpdateMe(c.Request.Context(), userID, req)
	if err != nil {
		util.RespondError(c, err, "user")
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}

// DeleteMyAccount soft-deletes the caller. Posts and comments stay up under
// "Deleted user".
// DELETE /api/users/me
func (h *Handlers) DeleteMyAccount(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	if err := h.social.DeleteMe(c.Request.Context(), userID); err != nil {
		util.RespondError(c, err, "user")
		return
	}
	logger.Log.Info("Account deleted by owner", logger.WithUserID(userID))
	c.JSON(http.StatusOK, gin.H{"message": "account deleted"})
}

// FollowUser
// POST /api/users/:id/follow
func (h *Handlers) FollowUser(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	if err := h.social.Follow(c.Request.Context(), userID, c.Param("id")); err != nil {
		util.RespondError(c, err, "user")
		return
	}
	c.JSON(http.StatusOK, gin.H{"following": true})
}

// UnfollowUser
// DELETE /api/users/:id/follow
func (h *Handlers) UnfollowUser(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	if err := h.social.Unfollow(c.Request.Context(), userID, c.Param("id")); err != nil {
		util.RespondError(c, err, "user")
		return
	}
	c.JSON(http.StatusOK, gin.H{"following": false})
}

// GetFollowers
// GET /api/users/:id/followers
func (h *Handlers) GetFollowers(c *gin.Context) {
	p := util.ParsePage(c)
	list, err := h.social.Followers(c.Request.Context(), c.Param("id"), p.Limit, p.Offset)
	if err != nil {
		util.RespondError(c, err, "user")
		return
	}
	c.JSON(http.StatusOK, list)
}

// GetFollowing
// GET /api/users/:id/following
func (h *Handlers) GetFollowing(c *gin.Context) {
	p := util.ParsePage(c)
	list, err := h.social.Following(c.Request.Context(), c.Param("id"), p.Limit, p.Offset)
	if err != nil {
		util.RespondError(c, err, "user")
		return
	}
	c.JSON(http.StatusOK, list)
}
