package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/maskapp/mask/internal/models"
	"github.com/maskapp/mask/internal/util"
)

// GetTrust returns the trust badge, provisional when unscored
// GET /api/trust/:type/:id
func (h *Handlers) GetTrust(c *gin.Context) {
	badge, err := h.trust.Get(c.Request.Context(), c.Param("type"), c.Param("id"))
	if err != nil {
		util.RespondError(c, err, "trust score")
		return
	}
	c.JSON(http.StatusOK, badge)
}

// SetTrust
// PUT /api/admin/trust/:type/:id
func (h *Handlers) SetTrust(c *gin.Context) {
	var req struct {
		Tier models.Tier `json:"tier" binding:"required"`
	}
	if !util.BindJSON(c, &req) {
		return
	}

	badge, err := h.trust.Set(c.Request.Context(), c.Param("type"), c.Param("id"), req.Tier)
	if err != nil {
		util.RespondError(c, err, "trust score")
		return
	}
	audit(c, "trust.set", badge.Type+":"+badge.ID)
	c.JSON(http.StatusOK, badge)
}
