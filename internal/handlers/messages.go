package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/maskapp/mask/internal/util"
)

// GetConversations lists the caller's DM threads, most recent first
// GET /api/messages/conversations
func (h *Handlers) GetConversations(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	p := util.ParsePage(c)
	convs, hasMore, err := h.messages.Conversations(c.Request.Context(), userID, p.Limit, p.Offset)
	if err != nil {
		util.RespondError(c, err, "conversation")
		return
	}
	c.JSON(http.StatusOK, gin.H{"conversations": convs, "has_more": hasMore})
}

// GetMessageHistory pages back through a thread; each page is chronological
// GET /api/messages/:userId
func (h *Handlers) GetMessageHistory(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	p := util.ParsePage(c)
	history, err := h.messages.History(c.Request.Context(), userID, c.Param("userId"), p.Limit, p.Offset)
	if err != nil {
		util.RespondError(c, err, "conversation")
		return
	}
	c.JSON(http.StatusOK, history)
}

// SendMessage stores a DM and pushes message.new to both participants
// POST /api/messages/:userId
func (h *Handlers) SendMessage(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	var req struct {
		Text string `json:"text" binding:"required"`
	}
	if !util.BindJSON(c, &req) {
		return
	}

	msg, err := h.messages.Send(c.Request.Context(), userID, c.Param("userId"), req.Text)
	if err != nil {
		util.RespondError(c, err, "message")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": msg})
}

// MarkConversationRead
// POST /api/messages/:userId/read
func (h *Handlers) MarkConversationRead(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	n, err := h.messages.MarkRead(c.Request.Context(), userID, c.Param("userId"))
	if err != nil {
		util.RespondError(c, err, "conversation")
		return
	}
	c.JSON(http.StatusOK, gin.H{"marked": n})
}
