package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/maskapp/mask/internal/timeline"
	"github.com/maskapp/mask/internal/util"
)

// GetFeed serves the forYou and trending tabs with offset paging
// GET /api/posts/feed?tab=forYou|trending&page=&limit=
func (h *Handlers) GetFeed(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	tab := timeline.Tab(c.DefaultQuery("tab", string(timeline.TabForYou)))
	if !tab.Valid() {
		util.RespondValidationError(c, "tab", "tab must be forYou or trending")
		return
	}

	p := util.ParsePage(c)
	resp, err := h.timeline.GetTimeline(c.Request.Context(), userID, tab, p.Limit, p.Offset)
	if err != nil {
		util.RespondError(c, err, "feed")
		return
	}

	c.JSON(http.StatusOK, resp)
}
