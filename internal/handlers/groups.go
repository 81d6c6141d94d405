package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/maskapp/mask/internal/groups"
	"github.com/maskapp/mask/internal/models"
	"github.com/maskapp/mask/internal/util"
)

// CreateGroup; the creator becomes owner and group admin
// POST /api/groups
func (h *Handlers) CreateGroup(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	var req groups.CreateInput
	if !util.BindJSON(c, &req) {
		return
	}

	group, err := h.groups.Create(c.Request.Context(), userID, req)
	if err != nil {
		util.RespondError(c, err, "group")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"group": group})
}

// GetGroup
// GET /api/groups/:id
func (h *Handlers) GetGroup(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	group, err := h.groups.Get(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		util.RespondError(c, err, "group")
		return
	}
	c.JSON(http.StatusOK, gin.H{"group": group})
}

// GetMyGroups lists groups the caller is an active member of
// GET /api/groups
func (h *Handlers) GetMyGroups(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	list, err := h.groups.Mine(c.Request.Context(), userID)
	if err != nil {
		util.RespondError(c, err, "group")
		return
	}
	c.JSON(http.StatusOK, gin.H{"groups": list})
}

// UpdateGroup; group admins only
// PATCH /api/groups/:id
func (h *Handlers) UpdateGroup(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	var req groups.UpdateInput
	if !util.BindJSON(c, &req) {
		return
	}

	group, err := h.groups.Update(c.Request.Context(), userID, c.Param("id"), req)
	if err != nil {
		util.RespondError(c, err, "group")
		return
	}
	c.JSON(http.StatusOK, gin.H{"group": group})
}

// JoinGroup joins a public group at once; private groups get a pending
// membership.
// POST /api/groups/:id/join
func (h *Handlers) JoinGroup(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	m, err := h.groups.Join(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		util.RespondError(c, err, "group")
		return
	}
	status := http.StatusOK
	if m.Status == models.MembershipPending {
		status = http.StatusAccepted
	}
	c.JSON(status, gin.H{"membership": m})
}

// LeaveGroup
// POST /api/groups/:id/leave
func (h *Handlers) LeaveGroup(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	if err := h.groups.Leave(c.Request.Context(), userID, c.Param("id")); err != nil {
		util.RespondError(c, err, "group")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "left group"})
}

// GetGroupMembers lists members; ?status=pending shows requests to admins
// GET /api/groups/:id/members
func (h *Handlers) GetGroupMembers(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	status := models.MembershipStatus(c.DefaultQuery("status", string(models.MembershipActive)))
	if status != models.MembershipActive && status != models.MembershipPending {
		util.RespondValidationError(c, "status", "status must be active or pending")
		return
	}

	p := util.ParsePage(c)
	members, hasMore, err := h.groups.Members(c.Request.Context(), userID, c.Param("id"), status, p.Limit, p.Offset)
	if err != nil {
		util.RespondError(c, err, "group")
		return
	}
	c.JSON(http.StatusOK, gin.H{"members": members, "has_more": hasMore})
}

// ApproveMember turns a pending membership into an active one
// POST /api/groups/:id/members/:userId/approve
func (h *Handlers) ApproveMember(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	m, err := h.groups.Approve(c.Request.Context(), userID, c.Param("id"), c.Param("userId"))
	if err != nil {
		util.RespondError(c, err, "membership")
		return
	}
	c.JSON(http.StatusOK, gin.H{"membership": m})
}
