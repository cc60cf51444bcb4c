package handlers

import (
	"context"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vishalbarai007/videoresizer/internal/domain/history"
	"github.com/vishalbarai007/videoresizer/internal/interfaces/httpserver/middlewares"
	"github.com/vishalbarai007/videoresizer/internal/interfaces/httpserver/responses"
)

// HistoryStorage is the slice of object storage the history endpoints need
// to stream stored renditions.
type HistoryStorage interface {
	Download(ctx context.Context, key string) (io.ReadCloser, string, error)
}

// HistoryHandler exposes the per user conversion ledger.
type HistoryHandler struct {
	service *history.Service
	storage HistoryStorage
	log     zerolog.Logger
}

func NewHistoryHandler(service *history.Service, storage HistoryStorage, log zerolog.Logger) *HistoryHandler {
	return &HistoryHandler{
		service: service,
		storage: storage,
		log:     log.With().Str("component", "history-handler").Logger(),
	}
}

type bulkDeleteRequest struct {
	IDs []string `json:"ids" binding:"required"`
}

type bulkDeleteResponse struct {
	Deleted []string          `json:"deleted"`
	Failed  map[string]string `json:"failed,omitempty"`
}

// List refreshes and returns the caller's records, newest first.
func (h *HistoryHandler) List(c *gin.Context) {
	ledger := h.service.Ledger(middlewares.UserID(c))
	records, err := ledger.Refresh(c.Request.Context())
	if err != nil {
		responses.HandleError(c, err, "failed to load history")
		return
	}
	c.JSON(http.StatusOK, gin.H{"records": records})
}

// Delete removes a single record.
func (h *HistoryHandler) Delete(c *gin.Context) {
	ledger := h.service.Ledger(middlewares.UserID(c))
	if _, err := ledger.Refresh(c.Request.Context()); err != nil {
		responses.HandleError(c, err, "failed to load history")
		return
	}
	if err := ledger.DeleteOne(c.Request.Context(), c.Param("id")); err != nil {
		responses.HandleError(c, err, "failed to delete record")
		return
	}
	c.Status(http.StatusNoContent)
}

// BulkDelete removes the given records one at a time. One failed delete
// does not stop the rest; failures come back per id.
func (h *HistoryHandler) BulkDelete(c *gin.Context) {
	var req bulkDeleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ledger := h.service.Ledger(middlewares.UserID(c))
	if _, err := ledger.Refresh(c.Request.Context()); err != nil {
		responses.HandleError(c, err, "failed to load history")
		return
	}

	ledger.ReplaceSelection(req.IDs)
	deleted, failures := ledger.DeleteSelected(c.Request.Context())

	resp := bulkDeleteResponse{Deleted: deleted}
	if len(failures) > 0 {
		resp.Failed = make(map[string]string, len(failures))
		for id, err := range failures {
			resp.Failed[id] = err.Error()
		}
	}
	c.JSON(http.StatusOK, resp)
}

// Download streams a completed record's rendition. Records still processing
// or failed have nothing to download.
func (h *HistoryHandler) Download(c *gin.Context) {
	record, err := h.service.Record(c.Request.Context(), middlewares.UserID(c), c.Param("id"))
	if err != nil {
		responses.HandleError(c, err, "record not found")
		return
	}
	if record.Status != history.StatusCompleted || record.OutputKey == "" {
		c.JSON(http.StatusConflict, gin.H{"error": "conversion has not completed"})
		return
	}

	body, contentType, err := h.storage.Download(c.Request.Context(), record.OutputKey)
	if err != nil {
		responses.HandleError(c, err, "failed to open rendition")
		return
	}
	defer body.Close()

	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.Header("Content-Type", contentType)
	c.Header("Content-Disposition", attachmentDisposition(record.Name, record.OutputKey))
	c.Status(http.StatusOK)
	if _, err := io.Copy(c.Writer, body); err != nil {
		h.log.Error().Err(err).Msg("stream error")
	}
}
