package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/maskapp/mask/internal/util"
)

// GetNotifications
// GET /api/notifications
func (h *Handlers) GetNotifications(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	p := util.ParsePage(c)
	result, err := h.notifications.List(c.Request.Context(), userID, p.Limit, p.Offset)
	if err != nil {
		util.RespondError(c, err, "notification")
		return
	}
	c.JSON(http.StatusOK, result)
}

// MarkNotificationRead
// POST /api/notifications/:id/read
func (h *Handlers) MarkNotificationRead(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	if err := h.notifications.MarkRead(c.Request.Context(), userID, c.Param("id")); err != nil {
		util.RespondError(c, err, "notification")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "marked as read"})
}

// MarkAllNotificationsRead
// POST /api/notifications/read-all
func (h *Handlers) MarkAllNotificationsRead(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	n, err := h.notifications.MarkAllRead(c.Request.Context(), userID)
	if err != nil {
		util.RespondError(c, err, "notification")
		return
	}
	c.JSON(http.StatusOK, gin.H{"marked": n})
}

// GetMotivation returns today's unread motivation notification, creating it
// on first poll of the day. notification is null once it has been read.
// GET /api/notifications/motivation
func (h *Handlers) GetMotivation(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	n, err := h.notifications.Motivation(c.Request.Context(), userID)
	if err != nil {
		util.RespondError(c, err, "notification")
		return
	}
	c.JSON(http.StatusOK, gin.H{"notification": n})
}
