package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/maskapp/mask/internal/models"
	"github.com/maskapp/mask/internal/util"
)

// GetFactCheck returns the post's annotation. Posts never checked before are
// queued and reported as pending; provider failures read as unavailable.
// GET /api/factcheck/:postId
func (h *Handlers) GetFactCheck(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	post, err := h.posts.Get(c.Request.Context(), userID, c.Param("postId"))
	if err != nil {
		util.RespondError(c, err, "post")
		return
	}

	fc, err := h.factcheck.Get(c.Request.Context(), post.ID)
	if err != nil {
		// the pill is optional; never surface annotation storage errors
		c.JSON(http.StatusOK, gin.H{"post_id": post.ID, "status": models.FactCheckUnavailable})
		return
	}
	if fc.Status == models.FactCheckPending {
		h.factcheck.Schedule(post.ID, post.Text)
	}
	c.JSON(http.StatusOK, fc)
}
