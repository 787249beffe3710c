package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/signalpage/signalpage/internal/auth"
	"github.com/signalpage/signalpage/internal/dtos"
	"github.com/signalpage/signalpage/internal/services"
)

// AccountHandler serves the caller's profile and settings.
type AccountHandler struct {
	Profiles *services.ProfileService
	Settings *services.SettingsService
}

func NewAccountHandler(p *services.ProfileService, s *services.SettingsService) *AccountHandler {
	return &AccountHandler{Profiles: p, Settings: s}
}

// GetProfile creates the profile from the token claims on first access.
func (h *AccountHandler) GetProfile(c *gin.Context) {
	p, err := h.Profiles.Ensure(c.Request.Context(), auth.UserID(c), auth.Email(c))
	if err != nil {
		respondError(c, err, "Failed to load profile")
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *AccountHandler) UpdateProfile(c *gin.Context) {
	var req dtos.ProfileUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	p, err := h.Profiles.Update(c.Request.Context(), auth.UserID(c), auth.Email(c), &req)
	if err != nil {
		respondError(c, err, "Failed to update profile")
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *AccountHandler) GetSettings(c *gin.Context) {
	st, err := h.Settings.Get(c.Request.Context(), auth.UserID(c))
	if err != nil {
		respondError(c, err, "Failed to load settings")
		return
	}
	c.JSON(http.StatusOK, st)
}

func (h *AccountHandler) UpdateSettings(c *gin.Context) {
	var req dtos.SettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	st, err := h.Settings.Update(c.Request.Context(), auth.UserID(c), &req)
	if err != nil {
		respondError(c, err, "Failed to save settings")
		return
	}
	c.JSON(http.StatusOK, st)
}
