package upload

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog"

	"github.com/vishalbarai007/videoresizer/internal/config"
	"github.com/vishalbarai007/videoresizer/internal/infrastructure/metrics"
	"github.com/vishalbarai007/videoresizer/internal/utils/platformerrors"
	"github.com/vishalbarai007/videoresizer/utils/videoid"
)

const sniffLen = 3072

// Service moves accepted sources into object storage, reporting progress
// along the way. It never marks a transfer complete before the store
// confirms the write.
type Service struct {
	storage   Storage
	limits    Limits
	fetch     *http.Client
	log       zerolog.Logger
	keyPrefix string
}

func NewService(cfg *config.Config, storage Storage, log zerolog.Logger) *Service {
	return &Service{
		storage: storage,
		limits: Limits{
			MaxBytes:   cfg.MaxUploadBytes,
			Extensions: cfg.AcceptedExtensions,
		},
		fetch: &http.Client{
			Timeout: cfg.RemoteFetchTimeout,
		},
		log:       log.With().Str("component", "transfer-agent").Logger(),
		keyPrefix: "uploads",
	}
}

// Limits exposes the acceptance rules for the validation gate.
func (s *Service) Limits() Limits {
	return s.limits
}

// TransferFile streams a single validated file into storage. The content
// type comes from sniffing the head of the stream, not the client header.
func (s *Service) TransferFile(ctx context.Context, input MediaInput, body io.Reader, onProgress ProgressFunc) (*StoredAsset, error) {
	head := make([]byte, sniffLen)
	n, err := io.ReadFull(body, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		metrics.RecordUpload(string(OriginFile), "error", 0)
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeInternal,
			"failed to read stream head", err, "b1f3f1de-6f0a-4a5a-9f2c-6f4f3f1de001")
	}
	head = head[:n]

	contentType := mimetype.Detect(head).String()
	stream := io.MultiReader(bytes.NewReader(head), body)

	asset, err := s.store(ctx, input.Name, stream, input.Size, contentType, onProgress)
	if err != nil {
		metrics.RecordUpload(string(OriginFile), "error", 0)
		return nil, err
	}
	metrics.RecordUpload(string(OriginFile), "success", asset.Bytes)
	return asset, nil
}

// TransferURL fetches a remote source and streams it into storage. The
// byte cap is enforced while streaming since remote sizes are untrusted.
func (s *Service) TransferURL(ctx context.Context, input MediaInput, onProgress ProgressFunc) (*StoredAsset, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, input.URL, nil)
	if err != nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation,
			"failed to build fetch request", err, "b1f3f1de-6f0a-4a5a-9f2c-6f4f3f1de002")
	}

	resp, err := s.fetch.Do(req)
	if err != nil {
		metrics.RecordUpload(string(OriginURL), "error", 0)
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeExternal,
			"failed to fetch remote source", err, "b1f3f1de-6f0a-4a5a-9f2c-6f4f3f1de003")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		metrics.RecordUpload(string(OriginURL), "error", 0)
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeExternal,
			fmt.Sprintf("remote source returned status %d", resp.StatusCode), nil, "b1f3f1de-6f0a-4a5a-9f2c-6f4f3f1de004")
	}

	name := remoteName(input.URL)
	if reasons := validateOne(MediaInput{Origin: OriginFile, Name: name, Size: 1}, s.limits); len(reasons) > 0 {
		metrics.RecordUpload(string(OriginURL), "rejected", 0)
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation,
			fmt.Sprintf("remote source rejected: %s", strings.Join(reasons, "; ")), nil, "b1f3f1de-6f0a-4a5a-9f2c-6f4f3f1de005")
	}

	if resp.ContentLength > s.limits.MaxBytes {
		metrics.RecordUpload(string(OriginURL), "rejected", 0)
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation,
			fmt.Sprintf("remote source exceeds the %dMB size limit", s.limits.MaxBytes/(1024*1024)), nil, "b1f3f1de-6f0a-4a5a-9f2c-6f4f3f1de007")
	}

	capped := &cappedReader{inner: resp.Body, remaining: s.limits.MaxBytes}

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(capped, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		if errors.Is(err, errSourceTooLarge) {
			metrics.RecordUpload(string(OriginURL), "rejected", 0)
			return nil, s.tooLargeError(ctx)
		}
		metrics.RecordUpload(string(OriginURL), "error", 0)
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeExternal,
			"failed to read remote stream", err, "b1f3f1de-6f0a-4a5a-9f2c-6f4f3f1de006")
	}
	head = head[:n]
	contentType := mimetype.Detect(head).String()
	stream := io.MultiReader(bytes.NewReader(head), capped)

	asset, err := s.store(ctx, name, stream, resp.ContentLength, contentType, onProgress)
	if err != nil {
		if errors.Is(err, errSourceTooLarge) {
			metrics.RecordUpload(string(OriginURL), "rejected", 0)
			return nil, s.tooLargeError(ctx)
		}
		metrics.RecordUpload(string(OriginURL), "error", 0)
		return nil, err
	}
	metrics.RecordUpload(string(OriginURL), "success", asset.Bytes)
	return asset, nil
}

func (s *Service) tooLargeError(ctx context.Context) error {
	return platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation,
		fmt.Sprintf("remote source exceeds the %dMB size limit", s.limits.MaxBytes/(1024*1024)), errSourceTooLarge, "b1f3f1de-6f0a-4a5a-9f2c-6f4f3f1de007")
}

func (s *Service) store(ctx context.Context, name string, body io.Reader, size int64, contentType string, onProgress ProgressFunc) (*StoredAsset, error) {
	key := fmt.Sprintf("%s/%s%s", s.keyPrefix, videoid.New(), strings.ToLower(filepath.Ext(name)))

	reader := &progressReader{
		inner:      body,
		total:      size,
		onProgress: onProgress,
	}

	if err := s.storage.Upload(ctx, key, reader, size, contentType); err != nil {
		s.log.Error().Err(err).Str("key", key).Msg("transfer failed")
		return nil, platformerrors.NewError(ctx, platformerrors.LayerInfrastructure, platformerrors.ErrorTypeExternal,
			"failed to store object", err, "b1f3f1de-6f0a-4a5a-9f2c-6f4f3f1de008")
	}

	// 100 is reserved for a durably stored asset.
	if onProgress != nil {
		onProgress(100)
	}

	asset := &StoredAsset{
		Key:      key,
		Name:     name,
		Bytes:    reader.read,
		MimeType: contentType,
	}
	s.log.Info().Str("key", key).Int64("bytes", asset.Bytes).Str("mime", contentType).Msg("source transferred")
	return asset, nil
}

var errSourceTooLarge = errors.New("source exceeds the configured byte limit")

// cappedReader fails the stream once more than the allowed bytes flow
// through, so an oversize remote source aborts the store mid-write
// instead of landing as a truncated object.
type cappedReader struct {
	inner     io.Reader
	remaining int64
}

func (r *cappedReader) Read(p []byte) (int, error) {
	n, err := r.inner.Read(p)
	r.remaining -= int64(n)
	if r.remaining < 0 {
		return n, errSourceTooLarge
	}
	return n, err
}

func remoteName(raw string) string {
	trimmed := strings.SplitN(raw, "?", 2)[0]
	base := filepath.Base(trimmed)
	if base == "." || base == "/" {
		return ""
	}
	return base
}

// progressReader reports monotonic percent progress as bytes flow through.
// It never reports 100; the caller does that after the store succeeds.
type progressReader struct {
	inner      io.Reader
	total      int64
	read       int64
	last       int
	onProgress ProgressFunc
}

func (r *progressReader) Read(p []byte) (int, error) {
	n, err := r.inner.Read(p)
	r.read += int64(n)
	if r.onProgress != nil && r.total > 0 {
		percent := int(r.read * 100 / r.total)
		if percent > 99 {
			percent = 99
		}
		if percent > r.last {
			r.last = percent
			r.onProgress(percent)
		}
	}
	return n, err
}
