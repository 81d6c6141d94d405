package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/maskapp/mask/internal/logger"
	"github.com/maskapp/mask/internal/posts"
	"github.com/maskapp/mask/internal/util"
	"go.uber.org/zap"
)

// Reshare wraps a post in a new reshare post. The body is optional.
// POST /api/posts/:id/reshare
func (h *Handlers) Reshare(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	var req posts.ReshareInput
	if c.Request.ContentLength > 0 && !util.BindJSON(c, &req) {
		return
	}

	post, err := h.posts.Reshare(c.Request.Context(), userID, c.Param("id"), req)
	if err != nil {
		if errors.Is(err, posts.ErrPrivateReshare) {
			logger.Log.Info("Reshare rejected",
				logger.WithUserID(userID),
				logger.WithPostID(c.Param("id")),
				zap.String("reason", "private_group"),
			)
		}
		util.RespondError(c, err, "post")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"post": post})
}
