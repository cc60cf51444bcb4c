package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vishalbarai007/videoresizer/internal/config"
	"github.com/vishalbarai007/videoresizer/internal/domain/upload"
	"github.com/vishalbarai007/videoresizer/internal/interfaces/httpserver/responses"
)

// Clients that want transfer progress send this header on the upload
// request and poll the progress endpoint with the same id.
const transferIDHeader = "X-Transfer-ID"

// UploadHandler exposes source intake endpoints.
type UploadHandler struct {
	cfg     *config.Config
	service *upload.Service
	tracker *upload.Tracker
	log     zerolog.Logger
}

func NewUploadHandler(cfg *config.Config, service *upload.Service, log zerolog.Logger) *UploadHandler {
	return &UploadHandler{
		cfg:     cfg,
		service: service,
		tracker: upload.NewTracker(),
		log:     log.With().Str("component", "upload-handler").Logger(),
	}
}

func (h *UploadHandler) progressFunc(c *gin.Context) upload.ProgressFunc {
	return h.tracker.Observe(c.GetHeader(transferIDHeader))
}

// Progress reports the latest percent for a transfer id supplied on an
// upload request.
func (h *UploadHandler) Progress(c *gin.Context) {
	percent, ok := h.tracker.Percent(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown transfer id"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"percent": percent})
}

type storedAssetResponse struct {
	AssetKey string `json:"asset_key"`
	Name     string `json:"name"`
	Bytes    int64  `json:"bytes"`
	Mime     string `json:"mime"`
}

type rejectionResponse struct {
	Name    string   `json:"name,omitempty"`
	URL     string   `json:"url,omitempty"`
	Reasons []string `json:"reasons"`
}

type uploadBatchResponse struct {
	Stored   []storedAssetResponse `json:"stored"`
	Rejected []rejectionResponse   `json:"rejected"`
}

type uploadURLRequest struct {
	URL string `json:"url" binding:"required"`
}

// UploadFiles accepts a multipart batch. Files that fail the gate are
// reported per file; accepted files transfer one after another so one
// bad input never sinks the batch.
func (h *UploadHandler) UploadFiles(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "multipart form is required"})
		return
	}
	files := form.File["files"]
	if len(files) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "at least one file is required"})
		return
	}

	onProgress := h.progressFunc(c)

	// Verdicts stay paired with their part by position, so a batch with
	// duplicate names never lets a rejected part ride on an accepted one.
	resp := uploadBatchResponse{}
	for _, fh := range files {
		input := upload.MediaInput{
			Origin: upload.OriginFile,
			Name:   fh.Filename,
			Size:   fh.Size,
		}
		if reasons := upload.Check(input, h.service.Limits()); len(reasons) > 0 {
			resp.Rejected = append(resp.Rejected, rejectionResponse{
				Name:    fh.Filename,
				Reasons: reasons,
			})
			continue
		}
		file, err := fh.Open()
		if err != nil {
			resp.Rejected = append(resp.Rejected, rejectionResponse{
				Name:    fh.Filename,
				Reasons: []string{"failed to open uploaded file"},
			})
			continue
		}

		asset, err := h.service.TransferFile(c.Request.Context(), input, file, onProgress)
		file.Close()
		if err != nil {
			h.log.Error().Err(err).Str("file", fh.Filename).Msg("transfer failed")
			resp.Rejected = append(resp.Rejected, rejectionResponse{
				Name:    fh.Filename,
				Reasons: []string{"transfer failed"},
			})
			continue
		}
		resp.Stored = append(resp.Stored, storedAssetResponse{
			AssetKey: asset.Key,
			Name:     asset.Name,
			Bytes:    asset.Bytes,
			Mime:     asset.MimeType,
		})
	}

	status := http.StatusOK
	if len(resp.Stored) == 0 {
		status = http.StatusUnprocessableEntity
	}
	c.JSON(status, resp)
}

// UploadFromURL fetches a remote source into storage.
func (h *UploadHandler) UploadFromURL(c *gin.Context) {
	var req uploadURLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	input := upload.MediaInput{Origin: upload.OriginURL, URL: req.URL}
	result := upload.Validate([]upload.MediaInput{input}, h.service.Limits())
	if len(result.Rejected) > 0 {
		c.JSON(http.StatusBadRequest, uploadBatchResponse{
			Rejected: []rejectionResponse{{
				URL:     req.URL,
				Reasons: result.Rejected[0].Reasons,
			}},
		})
		return
	}

	asset, err := h.service.TransferURL(c.Request.Context(), input, h.progressFunc(c))
	if err != nil {
		responses.HandleError(c, err, "failed to fetch remote source")
		return
	}

	c.JSON(http.StatusOK, uploadBatchResponse{
		Stored: []storedAssetResponse{{
			AssetKey: asset.Key,
			Name:     asset.Name,
			Bytes:    asset.Bytes,
			Mime:     asset.MimeType,
		}},
	})
}
