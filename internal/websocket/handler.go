package websocket

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/gin-gonic/gin"
	"github.com/maskapp/mask/internal/logger"
	"github.com/maskapp/mask/internal/models"
	"go.uber.org/zap"
)

// Authenticator resolves a bearer token to an active user
type Authenticator interface {
	ValidateToken(ctx context.Context, token string) (*models.User, error)
}

// Handler upgrades HTTP requests to websocket connections
type Handler struct {
	hub            *Hub
	auth           Authenticator
	allowedOrigins []string
}

func NewHandler(hub *Hub, auth Authenticator, allowedOrigins []string) *Handler {
	return &Handler{hub: hub, auth: auth, allowedOrigins: allowedOrigins}
}

// HandleWebSocket serves GET /api/ws. The token comes from ?token= or an
// Authorization: Bearer header.
func (h *Handler) HandleWebSocket(c *gin.Context) {
	user, err := h.authenticateRequest(c)
	if err != nil {
		logger.Log.Debug("WebSocket auth failed", zap.Error(err))
		c.JSON(http.StatusUnauthorized, gin.H{
			"code":    "UNAUTHORIZED",
			"message": "authentication failed",
		})
		return
	}

	// gin's writer refuses to hijack once headers are flushed, which Accept does
	var w http.ResponseWriter = c.Writer
	if u, ok := w.(interface{ Unwrap() http.ResponseWriter }); ok {
		w = u.Unwrap()
	}
	conn, err := websocket.Accept(w, c.Request, &websocket.AcceptOptions{
		OriginPatterns:  originPatterns(h.allowedOrigins),
		CompressionMode: websocket.CompressionContextTakeover,
	})
	if err != nil {
		logger.Log.Warn("WebSocket upgrade failed", zap.Error(err))
		return
	}

	client := NewClient(h.hub, conn, user.ID, user.Pseudonym)
	client.RemoteAddr = c.ClientIP()
	client.UserAgent = c.GetHeader("User-Agent")

	h.hub.Register(client)

	_ = client.Send(NewMessage(MessageTypeSystem, SystemPayload{
		Event: "connected",
		Data: map[string]interface{}{
			"user_id":     user.ID,
			"server_time": time.Now().UTC().UnixMilli(),
		},
	}))

	go client.WritePump()
	client.ReadPump()
}

// originPatterns turns configured origins into host patterns for Accept
func originPatterns(origins []string) []string {
	out := make([]string, 0, len(origins))
	for _, o := range origins {
		o = strings.TrimPrefix(strings.TrimPrefix(o, "https://"), "http://")
		if o != "" {
			out = append(out, o)
		}
	}
	return out
}

func (h *Handler) authenticateRequest(c *gin.Context) (*models.User, error) {
	tokenString := c.Query("token")
	if header := c.GetHeader("Authorization"); header != "" {
		tokenString = strings.TrimPrefix(header, "Bearer ")
	}
	if tokenString == "" {
		return nil, errors.New("no authentication token provided")
	}

	user, err := h.auth.ValidateToken(c.Request.Context(), tokenString)
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}
	return user, nil
}

// HandleMetrics serves the hub counters
func (h *Handler) HandleMetrics(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"websocket": h.hub.GetMetrics(),
		"timestamp": time.Now().UTC(),
	})
}

// RegisterDefaultHandlers wires the inbound message types clients may send
func (h *Handler) RegisterDefaultHandlers() {
	h.hub.RegisterHandler(MessageTypeTyping, func(client *Client, msg *Message) error {
		var typing TypingPayload
		if err := msg.ParsePayload(&typing); err != nil {
			return err
		}
		if typing.ToUserID == "" || typing.ToUserID == client.UserID {
			return errors.New("typing indicator needs a recipient")
		}
		h.hub.Push(typing.ToUserID, MessageTypeTyping, TypingPayload{
			FromUserID: client.UserID,
			Typing:     typing.Typing,
		})
		return nil
	})
}

// Shutdown gracefully shuts down the hub
func (h *Handler) Shutdown(ctx context.Context) error {
	return h.hub.Shutdown(ctx)
}

