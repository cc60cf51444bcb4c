package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vishalbarai007/videoresizer/internal/domain/conversion"
	"github.com/vishalbarai007/videoresizer/internal/domain/profile"
	"github.com/vishalbarai007/videoresizer/internal/interfaces/httpserver/middlewares"
)

// ConversionHandler starts jobs and exposes their progress.
type ConversionHandler struct {
	orchestrator *conversion.Orchestrator
	sessions     *profile.Sessions
	log          zerolog.Logger
}

func NewConversionHandler(orchestrator *conversion.Orchestrator, sessions *profile.Sessions, log zerolog.Logger) *ConversionHandler {
	return &ConversionHandler{
		orchestrator: orchestrator,
		sessions:     sessions,
		log:          log.With().Str("component", "conversion-handler").Logger(),
	}
}

type startJobRequest struct {
	AssetKey string `json:"asset_key" binding:"required"`
	Name     string `json:"name"`
}

// Start triggers a conversion with the session's profile as it stands right
// now. A session with a job still running gets a conflict, not a queue.
func (h *ConversionHandler) Start(c *gin.Context) {
	var req startJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sessionID := middlewares.SessionID(c)
	name := req.Name
	if name == "" {
		name = filepath.Base(req.AssetKey)
	}

	job, started := h.orchestrator.Trigger(c.Request.Context(), conversion.TriggerInput{
		SessionID: sessionID,
		UserID:    middlewares.UserID(c),
		AssetKey:  req.AssetKey,
		AssetName: name,
		Profile:   h.sessions.Active(c.Request.Context(), sessionID),
	})
	if !started {
		c.JSON(http.StatusConflict, gin.H{"error": "a conversion is already running for this session"})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"job_id":   job.ID,
		"status":   job.Status(),
		"platform": job.Profile.Platform,
	})
}

// Get returns a point in time snapshot of the job.
func (h *ConversionHandler) Get(c *gin.Context) {
	job := h.orchestrator.Job(c.Param("id"))
	if job == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "job not found"})
		return
	}
	c.JSON(http.StatusOK, job.Snapshot())
}

// Events streams job progress as server sent events until the job reaches
// a terminal state or the client disconnects.
func (h *ConversionHandler) Events(c *gin.Context) {
	job := h.orchestrator.Job(c.Param("id"))
	if job == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "job not found"})
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	// Late subscribers immediately see where the job stands.
	writeEvent(c.Writer, job.Snapshot())
	c.Writer.Flush()

	if job.Status().IsTerminal() {
		return
	}

	ctx := c.Request.Context()
	for {
		select {
		case ev, ok := <-job.Events():
			if !ok {
				return
			}
			writeEvent(c.Writer, ev)
			c.Writer.Flush()
			if ev.Status.IsTerminal() {
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

func writeEvent(w io.Writer, ev conversion.Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		return
	}
	io.WriteString(w, "data: ")
	w.Write(data)
	io.WriteString(w, "\n\n")
}
