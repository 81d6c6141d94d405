package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/maskapp/mask/internal/admin"
	"github.com/maskapp/mask/internal/logger"
	"github.com/maskapp/mask/internal/models"
	"github.com/maskapp/mask/internal/util"
	"go.uber.org/zap"
)

// audit logs console actions the admin service doesn't log itself
func audit(c *gin.Context, action, target string) {
	logger.Log.Info("Admin action",
		logger.WithUserID(util.OptionalUserID(c)),
		zap.String("action", action),
		zap.String("target", target),
	)
}

// AdminStats
// GET /api/admin/stats
func (h *Handlers) AdminStats(c *gin.Context) {
	stats, err := h.admin.Stats(c.Request.Context())
	if err != nil {
		util.RespondError(c, err, "stats")
		return
	}
	c.JSON(http.StatusOK, stats)
}

// AdminListUsers searches accounts, deleted ones included
// GET /api/admin/users?q=
func (h *Handlers) AdminListUsers(c *gin.Context) {
	p := util.ParsePage(c)
	list, err := h.admin.Users(c.Request.Context(), c.Query("q"), p.Limit, p.Offset)
	if err != nil {
		util.RespondError(c, err, "user")
		return
	}
	c.JSON(http.StatusOK, list)
}

// AdminSetRole
// PUT /api/admin/users/:id/role
func (h *Handlers) AdminSetRole(c *gin.Context) {
	actorID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	var req struct {
		Role models.Role `json:"role" binding:"required"`
	}
	if !util.BindJSON(c, &req) {
		return
	}

	user, err := h.admin.SetRole(c.Request.Context(), actorID, c.Param("id"), req.Role)
	if err != nil {
		util.RespondError(c, err, "user")
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}

// AdminSetUserDisabled
// PUT /api/admin/users/:id/disabled
func (h *Handlers) AdminSetUserDisabled(c *gin.Context) {
	actorID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	var req struct {
		Disabled *bool `json:"disabled" binding:"required"`
	}
	if !util.BindJSON(c, &req) {
		return
	}

	user, err := h.admin.SetDisabled(c.Request.Context(), actorID, c.Param("id"), *req.Disabled)
	if err != nil {
		util.RespondError(c, err, "user")
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}

// AdminDeleteUser soft-deletes an account
// DELETE /api/admin/users/:id
func (h *Handlers) AdminDeleteUser(c *gin.Context) {
	actorID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	if err := h.admin.DeleteUser(c.Request.Context(), actorID, c.Param("id")); err != nil {
		util.RespondError(c, err, "user")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "user deleted"})
}

// AdminRestoreUser brings a soft-deleted account back under a new pseudonym
// POST /api/admin/users/:id/restore
func (h *Handlers) AdminRestoreUser(c *gin.Context) {
	actorID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	var req struct {
		Pseudonym string `json:"pseudonym" binding:"required,min=3,max=30,alphanum"`
	}
	if !util.BindJSON(c, &req) {
		return
	}

	user, err := h.admin.RestoreUser(c.Request.Context(), actorID, c.Param("id"), req.Pseudonym)
	if err != nil {
		util.RespondError(c, err, "user")
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}

// AdminListGroups includes disabled groups
// GET /api/admin/groups?q=
func (h *Handlers) AdminListGroups(c *gin.Context) {
	p := util.ParsePage(c)
	list, hasMore, err := h.admin.Groups(c.Request.Context(), c.Query("q"), p.Limit, p.Offset)
	if err != nil {
		util.RespondError(c, err, "group")
		return
	}
	c.JSON(http.StatusOK, gin.H{"groups": list, "has_more": hasMore})
}

// AdminSetGroupDisabled
// PUT /api/admin/groups/:id/disabled
func (h *Handlers) AdminSetGroupDisabled(c *gin.Context) {
	h.setDisabled(c, h.admin.SetGroupDisabled, "group")
}

// AdminDeleteGroup
// DELETE /api/admin/groups/:id
func (h *Handlers) AdminDeleteGroup(c *gin.Context) {
	h.softDelete(c, h.admin.DeleteGroup, "group")
}

// AdminListPages includes disabled pages
// GET /api/admin/pages?q=
func (h *Handlers) AdminListPages(c *gin.Context) {
	p := util.ParsePage(c)
	list, hasMore, err := h.admin.Pages(c.Request.Context(), c.Query("q"), p.Limit, p.Offset)
	if err != nil {
		util.RespondError(c, err, "page")
		return
	}
	c.JSON(http.StatusOK, gin.H{"pages": list, "has_more": hasMore})
}

// AdminSetPageDisabled
// PUT /api/admin/pages/:id/disabled
func (h *Handlers) AdminSetPageDisabled(c *gin.Context) {
	h.setDisabled(c, h.admin.SetPageDisabled, "page")
}

// AdminDeletePage
// DELETE /api/admin/pages/:id
func (h *Handlers) AdminDeletePage(c *gin.Context) {
	h.softDelete(c, h.admin.DeletePage, "page")
}

type toggleFunc = func(ctx context.Context, actorID, id string, disabled bool) error

func (h *Handlers) setDisabled(c *gin.Context, fn toggleFunc, resource string) {
	actorID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	var req struct {
		Disabled *bool `json:"disabled" binding:"required"`
	}
	if !util.BindJSON(c, &req) {
		return
	}

	if err := fn(c.Request.Context(), actorID, c.Param("id"), *req.Disabled); err != nil {
		util.RespondError(c, err, resource)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": c.Param("id"), "disabled": *req.Disabled})
}

func (h *Handlers) softDelete(c *gin.Context, fn func(ctx context.Context, actorID, id string) error, resource string) {
	actorID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	if err := fn(c.Request.Context(), actorID, c.Param("id")); err != nil {
		util.RespondError(c, err, resource)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": resource + " deleted"})
}

// AdminListQuotes
// GET /api/admin/quotes
func (h *Handlers) AdminListQuotes(c *gin.Context) {
	quotes, err := h.admin.Quotes(c.Request.Context())
	if err != nil {
		util.RespondError(c, err, "quote")
		return
	}
	c.JSON(http.StatusOK, gin.H{"quotes": quotes})
}

// AdminCreateQuote
// POST /api/admin/quotes
func (h *Handlers) AdminCreateQuote(c *gin.Context) {
	var req admin.QuoteInput
	if !util.BindJSON(c, &req) {
		return
	}

	quote, err := h.admin.CreateQuote(c.Request.Context(), req)
	if err != nil {
		util.RespondError(c, err, "quote")
		return
	}
	audit(c, "quote.create", quote.ID)
	c.JSON(http.StatusCreated, gin.H{"quote": quote})
}

// AdminUpdateQuote
// PATCH /api/admin/quotes/:id
func (h *Handlers) AdminUpdateQuote(c *gin.Context) {
	var req admin.QuoteInput
	if !util.BindJSON(c, &req) {
		return
	}

	quote, err := h.admin.UpdateQuote(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		util.RespondError(c, err, "quote")
		return
	}
	audit(c, "quote.update", quote.ID)
	c.JSON(http.StatusOK, gin.H{"quote": quote})
}

// AdminDeleteQuote
// DELETE /api/admin/quotes/:id
func (h *Handlers) AdminDeleteQuote(c *gin.Context) {
	if err := h.admin.DeleteQuote(c.Request.Context(), c.Param("id")); err != nil {
		util.RespondError(c, err, "quote")
		return
	}
	audit(c, "quote.delete", c.Param("id"))
	c.JSON(http.StatusOK, gin.H{"message": "quote deleted"})
}
