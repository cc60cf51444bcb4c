package conversion

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vishalbarai007/videoresizer/internal/config"
	"github.com/vishalbarai007/videoresizer/internal/domain/history"
	"github.com/vishalbarai007/videoresizer/internal/domain/profile"
	"github.com/vishalbarai007/videoresizer/internal/infrastructure/transcoder"
)

type fakeStorage struct {
	mu       sync.Mutex
	objects  map[string][]byte
	failGet  bool
	failPut  bool
	getDelay time.Duration
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{objects: map[string][]byte{
		"uploads/vid_src.mp4": []byte("source bytes"),
	}}
}

func (f *fakeStorage) Download(ctx context.Context, key string) (io.ReadCloser, string, error) {
	if f.getDelay > 0 {
		select {
		case <-time.After(f.getDelay):
		case <-ctx.Done():
			return nil, "", ctx.Err()
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failGet {
		return nil, "", errors.New("storage down")
	}
	data, ok := f.objects[key]
	if !ok {
		return nil, "", errors.New("no such object")
	}
	return io.NopCloser(strings.NewReader(string(data))), "video/mp4", nil
}

func (f *fakeStorage) Upload(ctx context.Context, key string, body io.Reader, size int64, contentType string) error {
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failPut {
		return errors.New("storage down")
	}
	f.objects[key] = data
	return nil
}

type fakeTranscoder struct {
	fail      bool
	thumbFail bool
	delay     time.Duration
	last      transcoder.Request
	mu        sync.Mutex
}

func (f *fakeTranscoder) Transform(ctx context.Context, req transcoder.Request) (*transcoder.Result, error) {
	// Drain so the request pipe does not block.
	io.Copy(io.Discard, req.Body)
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	f.mu.Lock()
	f.last = req
	f.mu.Unlock()
	if f.fail {
		return nil, errors.New("codec error")
	}
	return &transcoder.Result{
		Body:            io.NopCloser(strings.NewReader("converted bytes")),
		ContentType:     "video/mp4",
		Bytes:           15,
		DurationSeconds: 9.5,
	}, nil
}

func (f *fakeTranscoder) Thumbnail(ctx context.Context, req transcoder.Request) (*transcoder.Result, error) {
	io.Copy(io.Discard, req.Body)
	if f.thumbFail {
		return nil, errors.New("no frame")
	}
	return &transcoder.Result{
		Body:        io.NopCloser(strings.NewReader("poster frame")),
		ContentType: "image/jpeg",
		Bytes:       12,
	}, nil
}

type recordedOutcome struct {
	status  history.Status
	outcome history.Outcome
}

type fakeRecorder struct {
	mu       sync.Mutex
	created  []history.Record
	outcomes map[string]recordedOutcome
}

func newFakeRecorder() *fakeRecorder {
	return &fakeRecorder{outcomes: make(map[string]recordedOutcome)}
}

func (f *fakeRecorder) Create(ctx context.Context, userID string, record history.Record) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, record)
	return nil
}

func (f *fakeRecorder) SetOutcome(ctx context.Context, id string, status history.Status, outcome history.Outcome) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.outcomes[id] = recordedOutcome{status: status, outcome: outcome}
	return nil
}

func (f *fakeRecorder) outcome(id string) (recordedOutcome, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.outcomes[id]
	return s, ok
}

func testProfile() profile.Profile {
	p, _ := profile.NewRegistry().Default(profile.PlatformTikTok)
	return p
}

func newTestOrchestrator(storage *fakeStorage, tc *fakeTranscoder, rec *fakeRecorder) *Orchestrator {
	cfg := &config.Config{TranscoderTimeout: 5 * time.Second, JobRetention: time.Hour}
	return NewOrchestrator(cfg, storage, tc, rec, zerolog.Nop())
}

func waitTerminal(t *testing.T, job *Job) Event {
	t.Helper()
	deadline := time.After(5 * time.Second)
	var last Event
	for {
		select {
		case ev, ok := <-job.Events():
			if !ok {
				require.True(t, last.Status.IsTerminal(), "stream closed without terminal event")
				return last
			}
			if last.Status.IsTerminal() {
				t.Fatalf("event after terminal: %+v", ev)
			}
			assert.GreaterOrEqual(t, ev.Progress, last.Progress, "progress must be monotonic")
			last = ev
		case <-deadline:
			t.Fatal("timed out waiting for terminal event")
		}
	}
}

func TestTriggerRunsPipelineToCompletion(t *testing.T) {
	storage := newFakeStorage()
	tc := &fakeTranscoder{}
	rec := newFakeRecorder()
	o := newTestOrchestrator(storage, tc, rec)

	job, started := o.Trigger(context.Background(), TriggerInput{
		SessionID: "sess-1",
		UserID:    "user-1",
		AssetKey:  "uploads/vid_src.mp4",
		AssetName: "src.mp4",
		Profile:   testProfile(),
	})
	require.True(t, started)
	require.NotNil(t, job)

	final := waitTerminal(t, job)
	assert.Equal(t, StatusSucceeded, final.Status)
	assert.Equal(t, 100, final.Progress)
	require.NotEmpty(t, final.OutputKey)

	assert.Equal(t, []byte("converted bytes"), storage.objects[final.OutputKey])

	tc.mu.Lock()
	assert.Equal(t, "tiktok", tc.last.Platform)
	assert.Equal(t, "9:16", tc.last.AspectRatio)
	assert.Equal(t, 75, tc.last.Quality)
	tc.mu.Unlock()

	require.Len(t, rec.created, 1)
	assert.Equal(t, history.StatusProcessing, rec.created[0].Status)
	recorded, ok := rec.outcome(job.ID)
	require.True(t, ok)
	assert.Equal(t, history.StatusCompleted, recorded.status)
	assert.Equal(t, final.OutputKey, recorded.outcome.OutputKey)
	assert.Equal(t, "thumbs/"+job.ID+".jpg", recorded.outcome.ThumbnailKey)
	assert.Equal(t, []byte("poster frame"), storage.objects[recorded.outcome.ThumbnailKey])
}

func TestTriggerDeclinesWithoutStoredSource(t *testing.T) {
	o := newTestOrchestrator(newFakeStorage(), &fakeTranscoder{}, newFakeRecorder())

	job, started := o.Trigger(context.Background(), TriggerInput{
		SessionID: "sess-1",
		Profile:   testProfile(),
	})
	assert.False(t, started)
	assert.Nil(t, job)
}

func TestTriggerDeclinesWhileJobRunning(t *testing.T) {
	storage := newFakeStorage()
	tc := &fakeTranscoder{delay: 300 * time.Millisecond}
	rec := newFakeRecorder()
	o := newTestOrchestrator(storage, tc, rec)

	in := TriggerInput{
		SessionID: "sess-1",
		UserID:    "user-1",
		AssetKey:  "uploads/vid_src.mp4",
		AssetName: "src.mp4",
		Profile:   testProfile(),
	}

	first, started := o.Trigger(context.Background(), in)
	require.True(t, started)

	second, started := o.Trigger(context.Background(), in)
	assert.False(t, started, "trigger while running must decline")
	assert.Nil(t, second)

	waitTerminal(t, first)

	// After the first finished, a new trigger is accepted again.
	third, started := o.Trigger(context.Background(), in)
	require.True(t, started)
	waitTerminal(t, third)
}

func TestFailedTransformRecordsFailure(t *testing.T) {
	storage := newFakeStorage()
	tc := &fakeTranscoder{fail: true}
	rec := newFakeRecorder()
	o := newTestOrchestrator(storage, tc, rec)

	job, started := o.Trigger(context.Background(), TriggerInput{
		SessionID: "sess-1",
		UserID:    "user-1",
		AssetKey:  "uploads/vid_src.mp4",
		AssetName: "src.mp4",
		Profile:   testProfile(),
	})
	require.True(t, started)

	final := waitTerminal(t, job)
	assert.Equal(t, StatusFailed, final.Status)
	assert.NotEmpty(t, final.Error)
	assert.Empty(t, final.OutputKey)

	recorded, ok := rec.outcome(job.ID)
	require.True(t, ok)
	assert.Equal(t, history.StatusFailed, recorded.status)
}

func TestMissingSourceObjectFailsJob(t *testing.T) {
	storage := newFakeStorage()
	rec := newFakeRecorder()
	o := newTestOrchestrator(storage, &fakeTranscoder{}, rec)

	job, started := o.Trigger(context.Background(), TriggerInput{
		SessionID: "sess-1",
		UserID:    "user-1",
		AssetKey:  "uploads/vid_missing.mp4",
		AssetName: "missing.mp4",
		Profile:   testProfile(),
	})
	require.True(t, started)

	final := waitTerminal(t, job)
	assert.Equal(t, StatusFailed, final.Status)
}

func TestJobLookup(t *testing.T) {
	o := newTestOrchestrator(newFakeStorage(), &fakeTranscoder{}, newFakeRecorder())

	job, started := o.Trigger(context.Background(), TriggerInput{
		SessionID: "sess-1",
		UserID:    "user-1",
		AssetKey:  "uploads/vid_src.mp4",
		AssetName: "src.mp4",
		Profile:   testProfile(),
	})
	require.True(t, started)

	assert.Same(t, job, o.Job(job.ID))
	assert.Nil(t, o.Job("vid_unknown"))

	waitTerminal(t, job)
}

func TestTerminalJobsEvictedAfterRetention(t *testing.T) {
	storage := newFakeStorage()
	cfg := &config.Config{TranscoderTimeout: 5 * time.Second}
	o := NewOrchestrator(cfg, storage, &fakeTranscoder{}, newFakeRecorder(), zerolog.Nop())

	in := TriggerInput{
		SessionID: "sess-1",
		UserID:    "user-1",
		AssetKey:  "uploads/vid_src.mp4",
		AssetName: "src.mp4",
		Profile:   testProfile(),
	}

	first, started := o.Trigger(context.Background(), in)
	require.True(t, started)
	waitTerminal(t, first)

	// Zero retention drops terminal jobs on the next trigger sweep.
	second, started := o.Trigger(context.Background(), in)
	require.True(t, started)

	assert.Nil(t, o.Job(first.ID), "finished job must leave the table")
	assert.Same(t, second, o.Job(second.ID))
	waitTerminal(t, second)
}

func TestRunningJobSurvivesEvictionSweep(t *testing.T) {
	storage := newFakeStorage()
	cfg := &config.Config{TranscoderTimeout: 5 * time.Second}
	o := NewOrchestrator(cfg, storage, &fakeTranscoder{delay: 300 * time.Millisecond}, newFakeRecorder(), zerolog.Nop())

	in := TriggerInput{
		SessionID: "sess-1",
		UserID:    "user-1",
		AssetKey:  "uploads/vid_src.mp4",
		AssetName: "src.mp4",
		Profile:   testProfile(),
	}

	first, started := o.Trigger(context.Background(), in)
	require.True(t, started)

	// Another session's trigger sweeps; the in-flight job must stay.
	other := in
	other.SessionID = "sess-2"
	second, started := o.Trigger(context.Background(), other)
	require.True(t, started)

	assert.Same(t, first, o.Job(first.ID))
	waitTerminal(t, first)
	waitTerminal(t, second)
}

func TestThumbnailFailureDoesNotFailJob(t *testing.T) {
	storage := newFakeStorage()
	rec := newFakeRecorder()
	o := newTestOrchestrator(storage, &fakeTranscoder{thumbFail: true}, rec)

	job, started := o.Trigger(context.Background(), TriggerInput{
		SessionID: "sess-1",
		UserID:    "user-1",
		AssetKey:  "uploads/vid_src.mp4",
		AssetName: "src.mp4",
		Profile:   testProfile(),
	})
	require.True(t, started)

	final := waitTerminal(t, job)
	assert.Equal(t, StatusSucceeded, final.Status)

	recorded, ok := rec.outcome(job.ID)
	require.True(t, ok)
	assert.Equal(t, history.StatusCompleted, recorded.status)
	assert.Empty(t, recorded.outcome.ThumbnailKey)
}

func TestJobSnapshotAfterTerminal(t *testing.T) {
	o := newTestOrchestrator(newFakeStorage(), &fakeTranscoder{}, newFakeRecorder())

	job, started := o.Trigger(context.Background(), TriggerInput{
		SessionID: "sess-1",
		UserID:    "user-1",
		AssetKey:  "uploads/vid_src.mp4",
		AssetName: "src.mp4",
		Profile:   testProfile(),
	})
	require.True(t, started)
	final := waitTerminal(t, job)

	snap := job.Snapshot()
	assert.Equal(t, final.Status, snap.Status)
	assert.Equal(t, final.OutputKey, snap.OutputKey)
	assert.Equal(t, 100, snap.Progress)
}
