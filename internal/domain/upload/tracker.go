package upload

import (
	"sync"
	"time"
)

const trackerIdleTTL = 10 * time.Minute

// Tracker keeps the latest reported percent per transfer so a second
// request can poll while the upload request is still streaming.
type Tracker struct {
	mu      sync.Mutex
	entries map[string]*trackedTransfer
}

type trackedTransfer struct {
	percent int
	updated time.Time
}

func NewTracker() *Tracker {
	return &Tracker{entries: make(map[string]*trackedTransfer)}
}

// Observe registers id and returns a ProgressFunc that records percent
// under it. Percent only moves forward. An empty id disables tracking.
func (t *Tracker) Observe(id string) ProgressFunc {
	if id == "" {
		return nil
	}
	now := time.Now()
	t.mu.Lock()
	t.sweepLocked(now)
	t.entries[id] = &trackedTransfer{updated: now}
	t.mu.Unlock()
	return func(percent int) {
		t.mu.Lock()
		if e, ok := t.entries[id]; ok && percent > e.percent {
			e.percent = percent
			e.updated = time.Now()
		}
		t.mu.Unlock()
	}
}

// Percent reports the latest recorded percent for id.
func (t *Tracker) Percent(id string) (int, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.entries[id]
	if !ok {
		return 0, false
	}
	return e.percent, true
}

// Entries idle past the TTL are dropped the next time a transfer starts.
func (t *Tracker) sweepLocked(now time.Time) {
	for id, e := range t.entries {
		if now.Sub(e.updated) > trackerIdleTTL {
			delete(t.entries, id)
		}
	}
}
