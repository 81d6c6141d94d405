package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/maskapp/mask/internal/models"
	"github.com/maskapp/mask/internal/util"
)

// React toggles the caller's reaction: same type removes, another type
// overwrites.
// POST /api/posts/:id/react
func (h *Handlers) React(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	var req struct {
		Type models.ReactionType `json:"type" binding:"required"`
	}
	if !util.BindJSON(c, &req) {
		return
	}

	agg, err := h.posts.React(c.Request.Context(), userID, c.Param("id"), req.Type)
	if err != nil {
		util.RespondError(c, err, "post")
		return
	}
	c.JSON(http.StatusOK, agg)
}

// GetReactions
// GET /api/posts/:id/reactions
func (h *Handlers) GetReactions(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	agg, err := h.posts.Reactions(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		util.RespondError(c, err, "post")
		return
	}
	c.JSON(http.StatusOK, agg)
}
