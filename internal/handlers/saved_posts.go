package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/maskapp/mask/internal/util"
)

// ToggleBookmark adds the post to the caller's bookmarks or removes it.
// The response carries the authoritative state.
// POST /api/posts/:id/bookmark
func (h *Handlers) ToggleBookmark(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	postID := c.Param("id")
	bookmarked, err := h.posts.ToggleBookmark(c.Request.Context(), userID, postID)
	if err != nil {
		util.RespondError(c, err, "post")
		return
	}
	c.JSON(http.StatusOK, gin.H{"post_id": postID, "bookmarked": bookmarked})
}

// GetBookmarks lists bookmarked posts newest-bookmark first
// GET /api/posts/bookmarks
func (h *Handlers) GetBookmarks(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	p := util.ParsePage(c)
	page, err := h.posts.Bookmarks(c.Request.Context(), userID, p.Limit, p.Offset)
	if err != nil {
		util.RespondError(c, err, "post")
		return
	}
	c.JSON(http.StatusOK, page)
}

// GetBookmarkIDs returns the caller's bookmarked post IDs
// GET /api/posts/bookmarks/ids
func (h *Handlers) GetBookmarkIDs(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	ids, err := h.posts.BookmarkIDs(c.Request.Context(), userID)
	if err != nil {
		util.RespondError(c, err, "bookmark")
		return
	}
	c.JSON(http.StatusOK, gin.H{"ids": ids})
}
