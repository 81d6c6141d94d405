package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/maskapp/mask/internal/search"
	"github.com/maskapp/mask/internal/util"
)

// Search runs a case-insensitive substring search over users, posts, groups
// and pages.
// GET /api/search?q=&type=all|users|posts|groups|pages&limit=
func (h *Handlers) Search(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	req := search.Request{
		Query: c.Query("q"),
		Type:  c.DefaultQuery("type", search.TypeAll),
		Limit: util.ParseInt(c.Query("limit"), search.DefaultLimit),
	}

	results, err := h.search.Search(c.Request.Context(), userID, req)
	if err != nil {
		util.RespondError(c, err, "search")
		return
	}
	c.JSON(http.StatusOK, results)
}
