package storage

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vishalbarai007/videoresizer/internal/config"
)

func newTestLocalStorage(t *testing.T) *LocalStorage {
	t.Helper()
	cfg := &config.Config{
		LocalStoragePath:    t.TempDir(),
		LocalStorageBaseURL: "http://localhost:8480/files",
	}
	ls, err := NewLocalStorage(cfg, zerolog.Nop())
	require.NoError(t, err)
	return ls
}

func TestLocalStorageRoundTrip(t *testing.T) {
	ls := newTestLocalStorage(t)
	ctx := context.Background()

	err := ls.Upload(ctx, "uploads/vid_01.mp4", strings.NewReader("payload"), 7, "video/mp4")
	require.NoError(t, err)

	rc, mime, err := ls.Download(ctx, "uploads/vid_01.mp4")
	require.NoError(t, err)
	defer rc.Close()

	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "payload", string(data))
	assert.Equal(t, "video/mp4", mime)
}

func TestLocalStorageCopy(t *testing.T) {
	ls := newTestLocalStorage(t)
	ctx := context.Background()

	require.NoError(t, ls.Upload(ctx, "outputs/vid_02.webm", strings.NewReader("converted"), 9, "video/webm"))
	require.NoError(t, ls.Copy(ctx, "outputs/vid_02.webm", "archive/vid_02.webm"))

	rc, mime, err := ls.Download(ctx, "archive/vid_02.webm")
	require.NoError(t, err)
	defer rc.Close()

	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "converted", string(data))
	assert.Equal(t, "video/webm", mime)
}

func TestLocalStorageDownloadMissing(t *testing.T) {
	ls := newTestLocalStorage(t)

	_, _, err := ls.Download(context.Background(), "uploads/nope.mp4")
	assert.Error(t, err)
}

func TestLocalStorageRejectsEscapingKeys(t *testing.T) {
	ls := newTestLocalStorage(t)

	path, err := ls.resolve("../../etc/passwd")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(path, ls.baseDir))
}

func TestMIMETypeForKey(t *testing.T) {
	tests := []struct {
		key  string
		want string
	}{
		{"uploads/a.mp4", "video/mp4"},
		{"uploads/a.MOV", "video/quicktime"},
		{"uploads/a.mkv", "video/x-matroska"},
		{"thumbs/a.jpg", "image/jpeg"},
		{"uploads/a.bin", "application/octet-stream"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, MIMETypeForKey(tt.key), tt.key)
	}
}
