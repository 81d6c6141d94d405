package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/maskapp/mask/internal/util"
)

// SendFriendRequest. A crossed pending request is accepted instead.
// POST /api/users/:id/friend-request
func (h *Handlers) SendFriendRequest(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	req, err := h.social.SendFriendRequest(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		util.RespondError(c, err, "friend request")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"request": req})
}

// AcceptFriendRequest
// POST /api/users/friend-requests/:id/accept
func (h *Handlers) AcceptFriendRequest(c *gin.Context) {
	h.respondFriendRequest(c, true)
}

// DeclineFriendRequest
// POST /api/users/friend-requests/:id/decline
func (h *Handlers) DeclineFriendRequest(c *gin.Context) {
	h.respondFriendRequest(c, false)
}

func (h *Handlers) respondFriendRequest(c *gin.Context, accept bool) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	req, err := h.social.RespondFriendRequest(c.Request.Context(), userID, c.Param("id"), accept)
	if err != nil {
		util.RespondError(c, err, "friend request")
		return
	}
	c.JSON(http.StatusOK, gin.H{"request": req})
}

// GetFriendRequests lists pending requests addressed to the caller
// GET /api/users/friend-requests
func (h *Handlers) GetFriendRequests(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	reqs, err := h.social.IncomingRequests(c.Request.Context(), userID)
	if err != nil {
		util.RespondError(c, err, "friend request")
		return
	}
	c.JSON(http.StatusOK, gin.H{"requests": reqs})
}

// Unfriend
// DELETE /api/users/:id/friend
func (h *Handlers) Unfriend(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	if err := h.social.Unfriend(c.Request.Context(), userID, c.Param("id")); err != nil {
		util.RespondError(c, err, "friendship")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "unfriended"})
}

// GetMyFriends
// GET /api/users/me/friends
func (h *Handlers) GetMyFriends(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	p := util.ParsePage(c)
	list, err := h.social.Friends(c.Request.Context(), userID, p.Limit, p.Offset)
	if err != nil {
		util.RespondError(c, err, "user")
		return
	}
	c.JSON(http.StatusOK, list)
}
