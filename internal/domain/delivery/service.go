package delivery

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/vishalbarai007/videoresizer/internal/domain/conversion"
	"github.com/vishalbarai007/videoresizer/internal/infrastructure/metrics"
	"github.com/vishalbarai007/videoresizer/internal/utils/platformerrors"
)

// Storage is the slice of object storage delivery actions need.
type Storage interface {
	Download(ctx context.Context, key string) (io.ReadCloser, string, error)
	PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error)
	Copy(ctx context.Context, srcKey, dstKey string) error
}

// Service exposes actions on a finished rendition. Every action requires a
// succeeded job with a stored output; anything else declines up front
// without touching storage or the job.
type Service struct {
	storage  Storage
	shareTTL time.Duration
	log      zerolog.Logger
}

func NewService(storage Storage, shareTTL time.Duration, log zerolog.Logger) *Service {
	return &Service{
		storage:  storage,
		shareTTL: shareTTL,
		log:      log.With().Str("component", "delivery").Logger(),
	}
}

// Stream is an open rendition ready to be sent to the caller.
type Stream struct {
	Body        io.ReadCloser
	ContentType string
	Filename    string
}

func (s *Service) guard(ctx context.Context, job *conversion.Job) error {
	if job == nil {
		return platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeNotFound,
			"job not found", nil, "c7a2e9d4-1b5f-4c3a-8e6d-2f7b9c4a1e01")
	}
	if job.Status() != conversion.StatusSucceeded || job.OutputKey() == "" {
		return platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypePrecondition,
			"nothing to deliver, conversion has not finished", nil, "c7a2e9d4-1b5f-4c3a-8e6d-2f7b9c4a1e02")
	}
	return nil
}

// Download opens the rendition for streaming to the caller.
func (s *Service) Download(ctx context.Context, job *conversion.Job) (*Stream, error) {
	if err := s.guard(ctx, job); err != nil {
		metrics.RecordDelivery("download", "declined")
		return nil, err
	}
	body, contentType, err := s.storage.Download(ctx, job.OutputKey())
	if err != nil {
		metrics.RecordDelivery("download", "error")
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeExternal,
			"failed to open rendition", err, "c7a2e9d4-1b5f-4c3a-8e6d-2f7b9c4a1e03")
	}
	metrics.RecordDelivery("download", "success")
	return &Stream{
		Body:        body,
		ContentType: contentType,
		Filename:    filepath.Base(job.OutputKey()),
	}, nil
}

// ShareLink returns a time limited URL to the rendition.
func (s *Service) ShareLink(ctx context.Context, job *conversion.Job) (string, error) {
	if err := s.guard(ctx, job); err != nil {
		metrics.RecordDelivery("share", "declined")
		return "", err
	}
	url, err := s.storage.PresignGet(ctx, job.OutputKey(), s.shareTTL)
	if err != nil {
		metrics.RecordDelivery("share", "error")
		return "", platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeExternal,
			"failed to build share link", err, "c7a2e9d4-1b5f-4c3a-8e6d-2f7b9c4a1e04")
	}
	metrics.RecordDelivery("share", "success")
	return url, nil
}

// ArchiveToCloud copies the rendition into the archive prefix.
func (s *Service) ArchiveToCloud(ctx context.Context, job *conversion.Job) (string, error) {
	if err := s.guard(ctx, job); err != nil {
		metrics.RecordDelivery("archive", "declined")
		return "", err
	}
	archiveKey := fmt.Sprintf("archive/%s", filepath.Base(job.OutputKey()))
	if err := s.storage.Copy(ctx, job.OutputKey(), archiveKey); err != nil {
		metrics.RecordDelivery("archive", "error")
		return "", platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeExternal,
			"failed to archive rendition", err, "c7a2e9d4-1b5f-4c3a-8e6d-2f7b9c4a1e05")
	}
	metrics.RecordDelivery("archive", "success")
	s.log.Info().Str("job", job.ID).Str("archive_key", archiveKey).Msg("rendition archived")
	return archiveKey, nil
}
