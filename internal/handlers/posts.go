package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/maskapp/mask/internal/logger"
	"github.com/maskapp/mask/internal/posts"
	"github.com/maskapp/mask/internal/util"
	"go.uber.org/zap"
)

// CreatePost creates a global, group or page post
// POST /api/posts
func (h *Handlers) CreatePost(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	var req posts.CreateInput
	if !util.BindJSON(c, &req) {
		return
	}

	post, err := h.posts.Create(c.Request.Context(), userID, req)
	if err != nil {
		util.RespondError(c, err, "post")
		return
	}

	logger.Log.Debug("Post created",
		logger.WithUserID(userID),
		logger.WithPostID(post.ID),
		zap.String("scope", string(post.Scope)),
	)
	c.JSON(http.StatusCreated, gin.H{"post": post})
}

// GetPost returns one post if the caller may see it
// GET /api/posts/:id
func (h *Handlers) GetPost(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	post, err := h.posts.Get(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		util.RespondError(c, err, "post")
		return
	}
	c.JSON(http.StatusOK, gin.H{"post": post})
}

// DeletePost removes a post; author or staff only
// DELETE /api/posts/:id
func (h *Handlers) DeletePost(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	postID := c.Param("id")
	if err := h.posts.Delete(c.Request.Context(), userID, postID); err != nil {
		util.RespondError(c, err, "post")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "post deleted", "id": postID})
}

func (h *Handlers) listPosts(c *gin.Context, filter posts.ListFilter) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	p := util.ParsePage(c)
	page, err := h.posts.List(c.Request.Context(), userID, filter, p.Limit, p.Offset)
	if err != nil {
		util.RespondError(c, err, "post")
		return
	}
	c.JSON(http.StatusOK, page)
}

// GetUserPosts
// GET /api/users/:id/posts
func (h *Handlers) GetUserPosts(c *gin.Context) {
	h.listPosts(c, posts.ListFilter{AuthorID: c.Param("id")})
}

// GetGroupPosts
// GET /api/groups/:id/posts
func (h *Handlers) GetGroupPosts(c *gin.Context) {
	h.listPosts(c, posts.ListFilter{GroupID: c.Param("id")})
}

// GetPagePosts
// GET /api/pages/:id/posts
func (h *Handlers) GetPagePosts(c *gin.Context) {
	h.listPosts(c, posts.ListFilter{PageID: c.Param("id")})
}
