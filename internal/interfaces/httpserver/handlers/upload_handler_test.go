package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vishalbarai007/videoresizer/internal/config"
	"github.com/vishalbarai007/videoresizer/internal/domain/upload"
)

type fakeUploadStorage struct {
	objects map[string][]byte
}

func newFakeUploadStorage() *fakeUploadStorage {
	return &fakeUploadStorage{objects: make(map[string][]byte)}
}

func (f *fakeUploadStorage) Upload(ctx context.Context, key string, body io.Reader, size int64, contentType string) error {
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	f.objects[key] = data
	return nil
}

func newUploadRouter(t *testing.T, storage upload.Storage) (*gin.Engine, *UploadHandler) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	cfg := &config.Config{
		MaxUploadBytes:     1024,
		AcceptedExtensions: []string{".mp4", ".mov", ".avi", ".mkv", ".webm"},
	}
	h := NewUploadHandler(cfg, upload.NewService(cfg, storage, zerolog.Nop()), zerolog.Nop())
	router := gin.New()
	router.POST("/v1/uploads", h.UploadFiles)
	router.GET("/v1/uploads/progress/:id", h.Progress)
	return router, h
}

func multipartBatch(t *testing.T, files map[string][]byte, order []string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for _, name := range order {
		part, err := writer.CreateFormFile("files", name)
		require.NoError(t, err)
		_, err = part.Write(files[name])
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())
	return body, writer.FormDataContentType()
}

func TestUploadFilesDuplicateNamesStayPaired(t *testing.T) {
	storage := newFakeUploadStorage()
	router, _ := newUploadRouter(t, storage)

	// Two parts share a name; only the one within the cap may land.
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	big, err := writer.CreateFormFile("files", "clip.mp4")
	require.NoError(t, err)
	_, err = big.Write(bytes.Repeat([]byte("x"), 2048))
	require.NoError(t, err)
	small, err := writer.CreateFormFile("files", "clip.mp4")
	require.NoError(t, err)
	_, err = small.Write([]byte("ok"))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/v1/uploads", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Stored []struct {
			Name  string `json:"name"`
			Bytes int64  `json:"bytes"`
		} `json:"stored"`
		Rejected []struct {
			Name    string   `json:"name"`
			Reasons []string `json:"reasons"`
		} `json:"rejected"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	require.Len(t, resp.Stored, 1)
	assert.Equal(t, int64(2), resp.Stored[0].Bytes)
	require.Len(t, resp.Rejected, 1)
	assert.Equal(t, "clip.mp4", resp.Rejected[0].Name)
	require.Len(t, storage.objects, 1)
	for _, data := range storage.objects {
		assert.Len(t, data, 2, "the oversize part must never land")
	}
}

func TestUploadFilesRejectsWholeBadBatch(t *testing.T) {
	router, _ := newUploadRouter(t, newFakeUploadStorage())

	body, contentType := multipartBatch(t, map[string][]byte{
		"clip.exe": []byte("nope"),
	}, []string{"clip.exe"})

	req := httptest.NewRequest(http.MethodPost, "/v1/uploads", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestUploadProgressEndpoint(t *testing.T) {
	storage := newFakeUploadStorage()
	router, _ := newUploadRouter(t, storage)

	body, contentType := multipartBatch(t, map[string][]byte{
		"clip.mp4": bytes.Repeat([]byte("v"), 600),
	}, []string{"clip.mp4"})

	req := httptest.NewRequest(http.MethodPost, "/v1/uploads", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("X-Transfer-ID", "t-1")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	progReq := httptest.NewRequest(http.MethodGet, "/v1/uploads/progress/t-1", nil)
	progRec := httptest.NewRecorder()
	router.ServeHTTP(progRec, progReq)
	require.Equal(t, http.StatusOK, progRec.Code)

	var prog struct {
		Percent int `json:"percent"`
	}
	require.NoError(t, json.Unmarshal(progRec.Body.Bytes(), &prog))
	assert.Equal(t, 100, prog.Percent)

	missing := httptest.NewRequest(http.MethodGet, "/v1/uploads/progress/nope", nil)
	missingRec := httptest.NewRecorder()
	router.ServeHTTP(missingRec, missing)
	assert.Equal(t, http.StatusNotFound, missingRec.Code)
}
