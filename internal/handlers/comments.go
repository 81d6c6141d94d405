package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/maskapp/mask/internal/util"
)

// CreateComment adds a comment to a post
// POST /api/posts/:id/comments
func (h *Handlers) CreateComment(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	var req struct {
		Text string `json:"text" binding:"required,max=2000"`
	}
	if !util.BindJSON(c, &req) {
		return
	}

	comment, err := h.posts.Comment(c.Request.Context(), userID, c.Param("id"), req.Text)
	if err != nil {
		util.RespondError(c, err, "comment")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"comment": comment})
}

// GetComments lists comments oldest first
// GET /api/posts/:id/comments
func (h *Handlers) GetComments(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	p := util.ParsePage(c)
	page, err := h.posts.Comments(c.Request.Context(), userID, c.Param("id"), p.Limit, p.Offset)
	if err != nil {
		util.RespondError(c, err, "post")
		return
	}
	c.JSON(http.StatusOK, page)
}

// DeleteComment: comment author, post author, or staff
// DELETE /api/posts/:id/comments/:commentId
func (h *Handlers) DeleteComment(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	if err := h.posts.DeleteComment(c.Request.Context(), userID, c.Param("id"), c.Param("commentId")); err != nil {
		util.RespondError(c, err, "comment")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "comment deleted"})
}
