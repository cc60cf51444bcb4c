package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/vishalbarai007/videoresizer/internal/config"
)

// videoMIMETypes maps accepted container extensions to their MIME types.
var videoMIMETypes = map[string]string{
	".mp4":  "video/mp4",
	".mov":  "video/quicktime",
	".avi":  "video/x-msvideo",
	".mkv":  "video/x-matroska",
	".webm": "video/webm",
	".jpg":  "image/jpeg",
	".png":  "image/png",
}

// MIMETypeForKey resolves a content type from the object key's extension.
func MIMETypeForKey(key string) string {
	if mime, ok := videoMIMETypes[strings.ToLower(filepath.Ext(key))]; ok {
		return mime
	}
	return "application/octet-stream"
}

// LocalStorage stores objects on the local filesystem. Keys map to paths
// under the configured base directory.
type LocalStorage struct {
	baseDir string
	baseURL string
	log     zerolog.Logger
}

func NewLocalStorage(cfg *config.Config, log zerolog.Logger) (*LocalStorage, error) {
	baseDir := strings.TrimSpace(cfg.LocalStoragePath)
	if baseDir == "" {
		baseDir = "data/objects"
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir %s: %w", baseDir, err)
	}
	return &LocalStorage{
		baseDir: baseDir,
		baseURL: strings.TrimRight(cfg.LocalStorageBaseURL, "/"),
		log:     log.With().Str("component", "local-storage").Logger(),
	}, nil
}

// resolve rejects keys that would escape the base directory.
func (l *LocalStorage) resolve(key string) (string, error) {
	clean := filepath.Clean("/" + key)
	if clean == "/" {
		return "", fmt.Errorf("empty object key")
	}
	return filepath.Join(l.baseDir, clean), nil
}

func (l *LocalStorage) Upload(ctx context.Context, key string, body io.Reader, size int64, contentType string) error {
	path, err := l.resolve(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp := path + ".partial"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, body); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, path)
}

func (l *LocalStorage) Download(ctx context.Context, key string) (io.ReadCloser, string, error) {
	path, err := l.resolve(key)
	if err != nil {
		return nil, "", err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, "", err
	}
	return f, MIMETypeForKey(key), nil
}

// PresignGet builds a static URL under the configured base URL. Local
// storage has no signing, the TTL is accepted for interface parity.
func (l *LocalStorage) PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error) {
	if l.baseURL == "" {
		return "", fmt.Errorf("PIPELINE_LOCAL_STORAGE_BASE_URL is not set; cannot build share links")
	}
	return l.baseURL + "/" + url.PathEscape(key), nil
}

func (l *LocalStorage) Copy(ctx context.Context, srcKey, dstKey string) error {
	src, _, err := l.Download(ctx, srcKey)
	if err != nil {
		return err
	}
	defer src.Close()
	return l.Upload(ctx, dstKey, src, -1, MIMETypeForKey(dstKey))
}

func (l *LocalStorage) Health(ctx context.Context) error {
	info, err := os.Stat(l.baseDir)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", l.baseDir)
	}
	return nil
}
