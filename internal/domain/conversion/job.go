package conversion

import (
	"sync"
	"time"

	"github.com/vishalbarai007/videoresizer/internal/domain/profile"
)

// Status is the lifecycle state of a conversion job.
type Status string

const (
	StatusIdle      Status = "idle"
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// IsTerminal reports whether the job has finished, one way or the other.
func (s Status) IsTerminal() bool {
	return s == StatusSucceeded || s == StatusFailed
}

// Event is a progress update pushed to watchers of a job. The final event
// carries a terminal status; the stream closes right after it.
type Event struct {
	JobID     string `json:"job_id"`
	Progress  int    `json:"progress"`
	Status    Status `json:"status"`
	OutputKey string `json:"output_key,omitempty"`
	Error     string `json:"error,omitempty"`
}

const eventBuffer = 32

// Job is a single in-flight conversion. Progress only moves forward and
// exactly one terminal event is emitted before the event channel closes.
type Job struct {
	ID        string
	SessionID string
	UserID    string
	AssetKey  string
	AssetName string
	Profile   profile.Profile
	StartedAt time.Time

	mu         sync.RWMutex
	status     Status
	progress   int
	outputKey  string
	err        error
	events     chan Event
	closed     bool
	finishedAt time.Time
}

func newJob(id, sessionID, userID, assetKey, assetName string, p profile.Profile) *Job {
	return &Job{
		ID:        id,
		SessionID: sessionID,
		UserID:    userID,
		AssetKey:  assetKey,
		AssetName: assetName,
		Profile:   p,
		StartedAt: time.Now().UTC(),
		status:    StatusRunning,
		events:    make(chan Event, eventBuffer),
	}
}

// Status returns the current lifecycle state.
func (j *Job) Status() Status {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.status
}

// Progress returns the last reported percent.
func (j *Job) Progress() int {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.progress
}

// OutputKey returns the stored rendition key once the job succeeded.
func (j *Job) OutputKey() string {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.outputKey
}

// Err returns the failure cause for a failed job.
func (j *Job) Err() error {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.err
}

// FinishedAt returns when the job reached a terminal state, or the zero
// time while it is still running.
func (j *Job) FinishedAt() time.Time {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.finishedAt
}

// Events is the stream watchers consume. It closes after the terminal event.
func (j *Job) Events() <-chan Event {
	return j.events
}

// Snapshot returns a consistent event-shaped view of the job.
func (j *Job) Snapshot() Event {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.snapshotLocked()
}

func (j *Job) snapshotLocked() Event {
	ev := Event{
		JobID:     j.ID,
		Progress:  j.progress,
		Status:    j.status,
		OutputKey: j.outputKey,
	}
	if j.err != nil {
		ev.Error = j.err.Error()
	}
	return ev
}

// setProgress advances progress monotonically while the job is running.
// Sends never block; a slow watcher just misses intermediate updates.
func (j *Job) setProgress(percent int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.closed || j.status.IsTerminal() || percent <= j.progress {
		return
	}
	if percent > 99 {
		percent = 99
	}
	j.progress = percent
	select {
	case j.events <- j.snapshotLocked():
	default:
	}
}

// succeed marks the job done and emits the terminal event exactly once.
func (j *Job) succeed(outputKey string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.closed {
		return
	}
	j.status = StatusSucceeded
	j.progress = 100
	j.outputKey = outputKey
	j.finishLocked()
}

// fail marks the job failed and emits the terminal event exactly once.
func (j *Job) fail(err error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.closed {
		return
	}
	j.status = StatusFailed
	j.err = err
	j.finishLocked()
}

// finishLocked guarantees the terminal event is delivered even when the
// buffer is full of stale progress updates.
func (j *Job) finishLocked() {
	j.finishedAt = time.Now().UTC()
	terminal := j.snapshotLocked()
	for {
		select {
		case j.events <- terminal:
			j.closed = true
			close(j.events)
			return
		default:
			select {
			case <-j.events:
			default:
			}
		}
	}
}
