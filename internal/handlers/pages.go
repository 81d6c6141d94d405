package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/maskapp/mask/internal/pages"
	"github.com/maskapp/mask/internal/util"
)

// CreatePage
// POST /api/pages
func (h *Handlers) CreatePage(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	var req pages.CreateInput
	if !util.BindJSON(c, &req) {
		return
	}

	page, err := h.pages.Create(c.Request.Context(), userID, req)
	if err != nil {
		util.RespondError(c, err, "page")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"page": page})
}

// GetPage
// GET /api/pages/:id
func (h *Handlers) GetPage(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	page, err := h.pages.Get(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		util.RespondError(c, err, "page")
		return
	}
	c.JSON(http.StatusOK, gin.H{"page": page})
}

// UpdatePage; page admins only
// PATCH /api/pages/:id
func (h *Handlers) UpdatePage(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	var req pages.UpdateInput
	if !util.BindJSON(c, &req) {
		return
	}

	page, err := h.pages.Update(c.Request.Context(), userID, c.Param("id"), req)
	if err != nil {
		util.RespondError(c, err, "page")
		return
	}
	c.JSON(http.StatusOK, gin.H{"page": page})
}

// FollowPage
// POST /api/pages/:id/follow
func (h *Handlers) FollowPage(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	if err := h.pages.Follow(c.Request.Context(), userID, c.Param("id")); err != nil {
		util.RespondError(c, err, "page")
		return
	}
	c.JSON(http.StatusOK, gin.H{"following": true})
}

// UnfollowPage
// DELETE /api/pages/:id/follow
func (h *Handlers) UnfollowPage(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	if err := h.pages.Unfollow(c.Request.Context(), userID, c.Param("id")); err != nil {
		util.RespondError(c, err, "page")
		return
	}
	c.JSON(http.StatusOK, gin.H{"following": false})
}

// GetPageAdmins
// GET /api/pages/:id/admins
func (h *Handlers) GetPageAdmins(c *gin.Context) {
	admins, err := h.pages.Admins(c.Request.Context(), c.Param("id"))
	if err != nil {
		util.RespondError(c, err, "page")
		return
	}
	c.JSON(http.StatusOK, gin.H{"admins": admins})
}

// AddPageAdmin
// POST /api/pages/:id/admins
func (h *Handlers) AddPageAdmin(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	var req struct {
		UserID string `json:"user_id" binding:"required"`
	}
	if !util.BindJSON(c, &req) {
		return
	}

	if err := h.pages.AddAdmin(c.Request.Context(), userID, c.Param("id"), req.UserID); err != nil {
		util.RespondError(c, err, "page")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "admin added"})
}
