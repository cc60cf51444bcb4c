package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vishalbarai007/videoresizer/internal/domain/profile"
	"github.com/vishalbarai007/videoresizer/internal/interfaces/httpserver/middlewares"
)

// ProfileHandler exposes the platform presets and the session's selection.
type ProfileHandler struct {
	registry *profile.Registry
	sessions *profile.Sessions
	log      zerolog.Logger
}

func NewProfileHandler(registry *profile.Registry, sessions *profile.Sessions, log zerolog.Logger) *ProfileHandler {
	return &ProfileHandler{
		registry: registry,
		sessions: sessions,
		log:      log.With().Str("component", "profile-handler").Logger(),
	}
}

type selectRequest struct {
	Platform string `json:"platform" binding:"required"`
}

type qualityRequest struct {
	Quality *int `json:"quality" binding:"required"`
}

type captionRequest struct {
	Enabled *bool `json:"enabled" binding:"required"`
}

// Get returns the session's active profile together with every preset.
func (h *ProfileHandler) Get(c *gin.Context) {
	active := h.sessions.Active(c.Request.Context(), middlewares.SessionID(c))
	c.JSON(http.StatusOK, gin.H{
		"active":   active,
		"defaults": h.registry.Defaults(),
	})
}

// Select replaces the session's working profile with a platform preset.
func (h *ProfileHandler) Select(c *gin.Context) {
	var req selectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	selected, err := h.sessions.Select(c.Request.Context(), middlewares.SessionID(c), profile.Platform(req.Platform))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"active": selected})
}

// SetQuality adjusts the active profile's quality.
func (h *ProfileHandler) SetQuality(c *gin.Context) {
	var req qualityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updated, err := h.sessions.SetQuality(c.Request.Context(), middlewares.SessionID(c), *req.Quality)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"active": updated})
}

// SetCaption toggles auto captioning on the active profile.
func (h *ProfileHandler) SetCaption(c *gin.Context) {
	var req captionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updated := h.sessions.SetAutoCaption(c.Request.Context(), middlewares.SessionID(c), *req.Enabled)
	c.JSON(http.StatusOK, gin.H{"active": updated})
}
