package conversion

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/vishalbarai007/videoresizer/internal/config"
	"github.com/vishalbarai007/videoresizer/internal/domain/history"
	"github.com/vishalbarai007/videoresizer/internal/domain/profile"
	"github.com/vishalbarai007/videoresizer/internal/infrastructure/metrics"
	"github.com/vishalbarai007/videoresizer/internal/infrastructure/transcoder"
	"github.com/vishalbarai007/videoresizer/utils/videoid"
)

// Storage is the slice of object storage the orchestrator needs.
type Storage interface {
	Download(ctx context.Context, key string) (io.ReadCloser, string, error)
	Upload(ctx context.Context, key string, body io.Reader, size int64, contentType string) error
}

// Transcoder performs the actual media transform and produces the
// poster frame shown in the history list.
type Transcoder interface {
	Transform(ctx context.Context, req transcoder.Request) (*transcoder.Result, error)
	Thumbnail(ctx context.Context, req transcoder.Request) (*transcoder.Result, error)
}

// Recorder writes job outcomes into the history ledger.
type Recorder interface {
	Create(ctx context.Context, userID string, record history.Record) error
	SetOutcome(ctx context.Context, id string, status history.Status, outcome history.Outcome) error
}

// Orchestrator runs conversion jobs. A session holds at most one running
// job; triggering while one runs, or without a stored source, is a silent
// no-op rather than an error.
type Orchestrator struct {
	storage    Storage
	transcoder Transcoder
	recorder   Recorder
	timeout    time.Duration
	retention  time.Duration
	log        zerolog.Logger

	mu      sync.Mutex
	jobs    map[string]*Job
	running map[string]string // session id -> job id
}

func NewOrchestrator(cfg *config.Config, storage Storage, tc Transcoder, recorder Recorder, log zerolog.Logger) *Orchestrator {
	return &Orchestrator{
		storage:    storage,
		transcoder: tc,
		recorder:   recorder,
		timeout:    cfg.TranscoderTimeout,
		retention:  cfg.JobRetention,
		log:        log.With().Str("component", "orchestrator").Logger(),
		jobs:       make(map[string]*Job),
		running:    make(map[string]string),
	}
}

// TriggerInput is everything a job needs at start time. The profile is the
// session's selection as it stands at this moment; later profile edits do
// not affect a job already running.
type TriggerInput struct {
	SessionID string
	UserID    string
	AssetKey  string
	AssetName string
	Profile   profile.Profile
}

// Trigger starts a job when the preconditions hold. It returns the job and
// true when one was started, or nil and false when the trigger declined.
func (o *Orchestrator) Trigger(ctx context.Context, in TriggerInput) (*Job, bool) {
	if in.AssetKey == "" {
		o.log.Debug().Str("session", in.SessionID).Msg("trigger declined, no stored source")
		return nil, false
	}

	o.mu.Lock()
	o.evictLocked(time.Now())
	if jobID, busy := o.running[in.SessionID]; busy {
		if job, ok := o.jobs[jobID]; ok && !job.Status().IsTerminal() {
			o.mu.Unlock()
			o.log.Debug().Str("session", in.SessionID).Str("job", jobID).Msg("trigger declined, job already running")
			return nil, false
		}
		delete(o.running, in.SessionID)
	}

	job := newJob(videoid.New(), in.SessionID, in.UserID, in.AssetKey, in.AssetName, in.Profile)
	o.jobs[job.ID] = job
	o.running[in.SessionID] = job.ID
	o.mu.Unlock()

	if err := o.recorder.Create(ctx, in.UserID, history.Record{
		ID:       job.ID,
		Name:     in.AssetName,
		Platform: string(in.Profile.Platform),
		Status:   history.StatusProcessing,
	}); err != nil {
		o.log.Error().Err(err).Str("job", job.ID).Msg("history create failed")
	}

	go o.run(job)

	o.log.Info().
		Str("job", job.ID).
		Str("session", in.SessionID).
		Str("platform", string(in.Profile.Platform)).
		Msg("conversion started")
	return job, true
}

// evictLocked drops terminal jobs past the retention window so the job
// table stays bounded. A finished job's rendition remains reachable
// through the history ledger after eviction.
func (o *Orchestrator) evictLocked(now time.Time) {
	for id, job := range o.jobs {
		finished := job.FinishedAt()
		if finished.IsZero() {
			continue
		}
		if now.Sub(finished) >= o.retention {
			delete(o.jobs, id)
		}
	}
}

// Job returns the job by id, or nil when unknown.
func (o *Orchestrator) Job(id string) *Job {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.jobs[id]
}

// SessionJob returns the most recent job of a session, or nil.
func (o *Orchestrator) SessionJob(sessionID string) *Job {
	o.mu.Lock()
	defer o.mu.Unlock()
	if jobID, ok := o.running[sessionID]; ok {
		return o.jobs[jobID]
	}
	return nil
}

func (o *Orchestrator) run(job *Job) {
	ctx, cancel := context.WithTimeout(context.Background(), o.timeout)
	defer cancel()

	outcome, err := o.pipeline(ctx, job)

	o.mu.Lock()
	if o.running[job.SessionID] == job.ID {
		delete(o.running, job.SessionID)
	}
	o.mu.Unlock()

	elapsed := time.Since(job.StartedAt).Seconds()
	platform := string(job.Profile.Platform)

	if err != nil {
		job.fail(err)
		metrics.RecordJob(platform, string(history.StatusFailed), elapsed)
		if recErr := o.recorder.SetOutcome(context.Background(), job.ID, history.StatusFailed, history.Outcome{}); recErr != nil {
			o.log.Error().Err(recErr).Str("job", job.ID).Msg("history outcome update failed")
		}
		o.log.Error().Err(err).Str("job", job.ID).Msg("conversion failed")
		return
	}

	job.succeed(outcome.OutputKey)
	metrics.RecordJob(platform, string(history.StatusCompleted), elapsed)
	if recErr := o.recorder.SetOutcome(context.Background(), job.ID, history.StatusCompleted, outcome); recErr != nil {
		o.log.Error().Err(recErr).Str("job", job.ID).Msg("history outcome update failed")
	}
	o.log.Info().Str("job", job.ID).Str("output", outcome.OutputKey).Msg("conversion finished")
}

func (o *Orchestrator) pipeline(ctx context.Context, job *Job) (history.Outcome, error) {
	job.setProgress(5)

	source, _, err := o.storage.Download(ctx, job.AssetKey)
	if err != nil {
		metrics.RecordStorageOperation("download", "error")
		return history.Outcome{}, fmt.Errorf("fetch stored source: %w", err)
	}
	defer source.Close()
	metrics.RecordStorageOperation("download", "success")
	job.setProgress(20)

	result, err := o.transcoder.Transform(ctx, o.transcodeRequest(job, source))
	if err != nil {
		metrics.RecordTranscoderCall("error")
		return history.Outcome{}, fmt.Errorf("transform: %w", err)
	}
	defer result.Body.Close()
	metrics.RecordTranscoderCall("success")
	job.setProgress(60)

	outputKey := fmt.Sprintf("outputs/%s%s", job.ID, filepath.Ext(job.AssetKey))
	counted := &countingReader{inner: result.Body}
	if err := o.storage.Upload(ctx, outputKey, counted, result.Bytes, result.ContentType); err != nil {
		metrics.RecordStorageOperation("upload", "error")
		return history.Outcome{}, fmt.Errorf("store rendition: %w", err)
	}
	metrics.RecordStorageOperation("upload", "success")
	job.setProgress(90)

	return history.Outcome{
		OutputKey:       outputKey,
		ThumbnailKey:    o.thumbnail(ctx, job),
		Bytes:           counted.read,
		DurationSeconds: result.DurationSeconds,
	}, nil
}

// thumbnail stores a poster frame for the history list. It is best
// effort; a job without one still succeeds.
func (o *Orchestrator) thumbnail(ctx context.Context, job *Job) string {
	source, _, err := o.storage.Download(ctx, job.AssetKey)
	if err != nil {
		o.log.Warn().Err(err).Str("job", job.ID).Msg("thumbnail source fetch failed")
		return ""
	}
	defer source.Close()

	result, err := o.transcoder.Thumbnail(ctx, o.transcodeRequest(job, source))
	if err != nil {
		o.log.Warn().Err(err).Str("job", job.ID).Msg("thumbnail render failed")
		return ""
	}
	defer result.Body.Close()

	key := fmt.Sprintf("thumbs/%s.jpg", job.ID)
	if err := o.storage.Upload(ctx, key, result.Body, result.Bytes, result.ContentType); err != nil {
		o.log.Warn().Err(err).Str("job", job.ID).Msg("thumbnail store failed")
		return ""
	}
	return key
}

func (o *Orchestrator) transcodeRequest(job *Job, body io.Reader) transcoder.Request {
	return transcoder.Request{
		Filename:    filepath.Base(job.AssetKey),
		Body:        body,
		Platform:    string(job.Profile.Platform),
		AspectRatio: job.Profile.AspectRatio,
		Width:       job.Profile.Width,
		Height:      job.Profile.Height,
		Quality:     job.Profile.Quality,
		AutoCaption: job.Profile.AutoCaption,
		Extras:      job.Profile.Extras,
	}
}

type countingReader struct {
	inner io.Reader
	read  int64
}

func (r *countingReader) Read(p []byte) (int, error) {
	n, err := r.inner.Read(p)
	r.read += int64(n)
	return n, err
}
