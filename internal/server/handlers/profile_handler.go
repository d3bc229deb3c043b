package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/telurku/internal/repository"
)

// ProfileHandler serves the profile dropdowns and the admin role list.
type ProfileHandler struct {
	repo   repository.ProfileRepository
	logger *zap.Logger
}

// NewProfileHandler constructs the profile HTTP handler.
func NewProfileHandler(repo repository.ProfileRepository, logger *zap.Logger) *ProfileHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProfileHandler{repo: repo, logger: logger}
}

// List returns profiles ordered by name.
func (h *ProfileHandler) List(c *gin.Context) {
	profiles, err := h.repo.List(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, "", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"profiles": profiles})
}

// ListWithRoles returns profiles together with their roles.
func (h *ProfileHandler) ListWithRoles(c *gin.Context) {
	profiles, err := h.repo.ListWithRoles(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, "", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"profiles": profiles})
}
