package handlers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vishalbarai007/videoresizer/internal/domain/conversion"
	"github.com/vishalbarai007/videoresizer/internal/domain/delivery"
	"github.com/vishalbarai007/videoresizer/internal/interfaces/httpserver/responses"
)

// DeliveryHandler exposes actions on finished renditions.
type DeliveryHandler struct {
	orchestrator *conversion.Orchestrator
	service      *delivery.Service
	log          zerolog.Logger
}

func NewDeliveryHandler(orchestrator *conversion.Orchestrator, service *delivery.Service, log zerolog.Logger) *DeliveryHandler {
	return &DeliveryHandler{
		orchestrator: orchestrator,
		service:      service,
		log:          log.With().Str("component", "delivery-handler").Logger(),
	}
}

// Download streams the rendition through the API.
func (h *DeliveryHandler) Download(c *gin.Context) {
	job := h.orchestrator.Job(c.Param("id"))

	stream, err := h.service.Download(c.Request.Context(), job)
	if err != nil {
		responses.HandleError(c, err, "download is not available")
		return
	}
	defer stream.Body.Close()

	contentType := stream.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.Header("Content-Type", contentType)
	c.Header("Content-Disposition", attachmentDisposition(stream.Filename, job.OutputKey()))
	c.Status(http.StatusOK)
	if _, err := io.Copy(c.Writer, stream.Body); err != nil {
		h.log.Error().Err(err).Msg("stream error")
	}
}

// Share returns a time limited link to the rendition.
func (h *DeliveryHandler) Share(c *gin.Context) {
	job := h.orchestrator.Job(c.Param("id"))

	url, err := h.service.ShareLink(c.Request.Context(), job)
	if err != nil {
		responses.HandleError(c, err, "share link is not available")
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": url})
}

// Archive copies the rendition into the archive prefix.
func (h *DeliveryHandler) Archive(c *gin.Context) {
	job := h.orchestrator.Job(c.Param("id"))

	archiveKey, err := h.service.ArchiveToCloud(c.Request.Context(), job)
	if err != nil {
		responses.HandleError(c, err, "archive is not available")
		return
	}
	c.JSON(http.StatusOK, gin.H{"archive_key": archiveKey})
}
