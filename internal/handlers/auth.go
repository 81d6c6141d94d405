package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/maskapp/mask/internal/auth"
	apierrors "github.com/maskapp/mask/internal/errors"
	"github.com/maskapp/mask/internal/logger"
	"github.com/maskapp/mask/internal/util"
	"go.uber.org/zap"
)

// authError maps auth sentinels onto API errors
func authError(err error) error {
	switch {
	case errors.Is(err, auth.ErrPseudonymTaken):
		return apierrors.Conflict("pseudonym")
	case errors.Is(err, auth.ErrEmailTaken):
		return apierrors.Conflict("email")
	case errors.Is(err, auth.ErrInvalidCredentials):
		return apierrors.Unauthorized("invalid credentials")
	case errors.Is(err, auth.ErrAccountDisabled):
		return apierrors.Forbidden("account disabled")
	case errors.Is(err, auth.ErrUserNotFound):
		return apierrors.NotFound("user")
	}
	return err
}

// Register creates an account and returns a token
// POST /api/auth/register
func (h *Handlers) Register(c *gin.Context) {
	var req auth.RegisterRequest
	if !util.BindJSON(c, &req) {
		return
	}

	resp, err := h.auth.Register(c.Request.Context(), req)
	if err != nil {
		util.RespondError(c, authError(err), "user")
		return
	}

	logger.Log.Info("User registered", logger.WithUserID(resp.User.ID), zap.String("pseudonym", resp.User.Pseudonym))
	c.JSON(http.StatusCreated, resp)
}

// Login authenticates by pseudonym or email
// POST /api/auth/login
func (h *Handlers) Login(c *gin.Context) {
	var req auth.LoginRequest
	if !util.BindJSON(c, &req) {
		return
	}

	resp, err := h.auth.Login(c.Request.Context(), req)
	if err != nil {
		util.RespondError(c, authError(err), "user")
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Me returns the authenticated account
// GET /api/auth/me
func (h *Handlers) Me(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}

// Logout is a stateless acknowledgement; the client drops its token
// POST /api/auth/logout
func (h *Handlers) Logout(c *gin.Context) {
	if _, ok := util.GetUserIDFromContext(c); !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

// ChangePassword
// POST /api/auth/password
func (h *Handlers) ChangePassword(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	var req struct {
		Current string `json:"current_password" binding:"required"`
		New     string `json:"new_password" binding:"required,min=8,max=128"`
	}
	if !util.BindJSON(c, &req) {
		return
	}

	if err := h.auth.ChangePassword(c.Request.Context(), userID, req.Current, req.New); err != nil {
		util.RespondError(c, authError(err), "user")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "password changed"})
}
