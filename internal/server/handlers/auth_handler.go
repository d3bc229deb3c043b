package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/telurku/internal/service/auth"
	"github.com/mamadbah2/telurku/internal/view"
)

// AuthHandler serves sign-in, sign-out, and the current user.
type AuthHandler struct {
	svc    *auth.Service
	logger *zap.Logger
}

// NewAuthHandler constructs the auth HTTP handler.
func NewAuthHandler(svc *auth.Service, logger *zap.Logger) *AuthHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthHandler{svc: svc, logger: logger}
}

type loginRequest struct {
	Email    string `json:"email" form:"email" binding:"required,email"`
	Password string `json:"password" form:"password" binding:"required"`
}

// Login signs the user in and binds the backend session to the cookie.
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBind(&req); err != nil {
		badRequest(c, "Email and password are required")
		return
	}

	p, err := h.svc.Login(c.Request.Context(), sessionID(c), req.Email, req.Password)
	if errors.Is(err, auth.ErrInvalidCredentials) {
		c.JSON(http.StatusUnauthorized, errorResponse{
			Error:  err.Error(),
			Banner: view.NewBanner(view.ColorDanger, auth.ErrInvalidCredentials.Error()),
		})
		return
	}
	if err != nil {
		respondError(c, h.logger, "", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user":     view.NewUserInfo(p.UserID, p.Email, p.Role),
		"redirect": RedirectDashboard,
	})
}

// Logout ends the backend session and clears the stored one.
func (h *AuthHandler) Logout(c *gin.Context) {
	if err := h.svc.Logout(c.Request.Context(), sessionID(c)); err != nil {
		respondError(c, h.logger, "", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"redirect": RedirectLogin})
}

// Me returns the header block for the signed-in user.
func (h *AuthHandler) Me(c *gin.Context) {
	p := principal(c)
	c.JSON(http.StatusOK, view.NewUserInfo(p.UserID, p.Email, p.Role))
}
