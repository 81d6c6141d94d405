package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/maskapp/mask/internal/models"
	"github.com/maskapp/mask/internal/reports"
	"github.com/maskapp/mask/internal/util"
)

// FileReport flags a post, comment, user, group or page for moderators
// POST /api/reports
func (h *Handlers) FileReport(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	var req reports.FileInput
	if !util.BindJSON(c, &req) {
		return
	}

	report, err := h.reports.File(c.Request.Context(), userID, req)
	if err != nil {
		util.RespondError(c, err, "report")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"report": report})
}

// AdminListReports; ?status=open|resolved|dismissed, empty for all
// GET /api/admin/reports
func (h *Handlers) AdminListReports(c *gin.Context) {
	p := util.ParsePage(c)
	list, hasMore, err := h.reports.List(c.Request.Context(), models.ReportStatus(c.Query("status")), p.Limit, p.Offset)
	if err != nil {
		util.RespondError(c, err, "report")
		return
	}
	c.JSON(http.StatusOK, gin.H{"reports": list, "has_more": hasMore})
}

// AdminGetReport
// GET /api/admin/reports/:id
func (h *Handlers) AdminGetReport(c *gin.Context) {
	report, err := h.reports.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		util.RespondError(c, err, "report")
		return
	}
	c.JSON(http.StatusOK, gin.H{"report": report})
}

// AdminUpdateReport resolves, dismisses or reopens a report
// PATCH /api/admin/reports/:id
func (h *Handlers) AdminUpdateReport(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	var req struct {
		Status models.ReportStatus `json:"status" binding:"required"`
	}
	if !util.BindJSON(c, &req) {
		return
	}

	report, err := h.reports.SetStatus(c.Request.Context(), userID, c.Param("id"), req.Status)
	if err != nil {
		util.RespondError(c, err, "report")
		return
	}
	audit(c, "report."+string(req.Status), c.Param("id"))
	c.JSON(http.StatusOK, gin.H{"report": report})
}

// AdminDeleteReport
// DELETE /api/admin/reports/:id
func (h *Handlers) AdminDeleteReport(c *gin.Context) {
	if err := h.reports.Delete(c.Request.Context(), c.Param("id")); err != nil {
		util.RespondError(c, err, "report")
		return
	}
	audit(c, "report.delete", c.Param("id"))
	c.JSON(http.StatusOK, gin.H{"message": "report deleted"})
}
