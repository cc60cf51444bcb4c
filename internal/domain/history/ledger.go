package history

import (
	"context"
	"sort"
	"sync"

	"github.com/rs/zerolog"
)

// Repository defines persistence operations needed by the ledger.
type Repository interface {
	List(ctx context.Context, userID string) ([]Record, error)
	GetByID(ctx context.Context, userID, id string) (*Record, error)
	Delete(ctx context.Context, userID, id string) error
}

// Ledger caches one user's conversion records together with a selection set
// used for bulk deletion. The cache is replaced wholesale on Refresh; records
// are removed locally only after the repository acknowledged the delete.
type Ledger struct {
	repo   Repository
	userID string

	mu       sync.Mutex
	records  []Record
	selected map[string]struct{}
}

// NewLedger builds an empty ledger for one user. Call Refresh to populate it.
func NewLedger(repo Repository, userID string) *Ledger {
	return &Ledger{
		repo:     repo,
		userID:   userID,
		selected: make(map[string]struct{}),
	}
}

// Refresh replaces the cached list with the repository's current contents.
// Selected identifiers that no longer exist are dropped from the selection.
func (l *Ledger) Refresh(ctx context.Context) ([]Record, error) {
	records, err := l.repo.List(ctx, l.userID)
	if err != nil {
		return nil, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.records = records
	present := make(map[string]struct{}, len(records))
	for _, r := range records {
		present[r.ID] = struct{}{}
	}
	for id := range l.selected {
		if _, ok := present[id]; !ok {
			delete(l.selected, id)
		}
	}
	return l.copyRecordsLocked(), nil
}

// Records returns a copy of the cached list.
func (l *Ledger) Records() []Record {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.copyRecordsLocked()
}

// Get returns the cached record for id.
func (l *Ledger) Get(id string) (Record, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, r := range l.records {
		if r.ID == id {
			return r, true
		}
	}
	return Record{}, false
}

// ToggleSelect flips the selection state of id. Identifiers not present in the
// cache are ignored and reported as false.
func (l *Ledger) ToggleSelect(id string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.containsLocked(id) {
		return false
	}
	if _, ok := l.selected[id]; ok {
		delete(l.selected, id)
	} else {
		l.selected[id] = struct{}{}
	}
	return true
}

// ReplaceSelection sets the selection to the given identifiers, skipping any
// that are not currently present in the cache.
func (l *Ledger) ReplaceSelection(ids []string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.selected = make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if l.containsLocked(id) {
			l.selected[id] = struct{}{}
		}
	}
}

// SelectAll marks every cached record as selected.
func (l *Ledger) SelectAll() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.selected = make(map[string]struct{}, len(l.records))
	for _, r := range l.records {
		l.selected[r.ID] = struct{}{}
	}
}

// ClearSelection empties the selection set.
func (l *Ledger) ClearSelection() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.selected = make(map[string]struct{})
}

// Selected returns the selected identifiers in stable order.
func (l *Ledger) Selected() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	ids := make([]string, 0, len(l.selected))
	for id := range l.selected {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// DeleteOne removes a record from the repository and, only after the delete is
// acknowledged, drops it from the cache and the selection set.
func (l *Ledger) DeleteOne(ctx context.Context, id string) error {
	if err := l.repo.Delete(ctx, l.userID, id); err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	for i, r := range l.records {
		if r.ID == id {
			l.records = append(l.records[:i], l.records[i+1:]...)
			break
		}
	}
	delete(l.selected, id)
	return nil
}

// DeleteSelected deletes every selected record sequentially. A failure on one
// record does not block the rest; failed identifiers stay in the ledger and
// are returned together with their errors.
func (l *Ledger) DeleteSelected(ctx context.Context) (deleted []string, failures map[string]error) {
	failures = make(map[string]error)
	for _, id := range l.Selected() {
		if err := l.DeleteOne(ctx, id); err != nil {
			failures[id] = err
			continue
		}
		deleted = append(deleted, id)
	}
	return deleted, failures
}

func (l *Ledger) containsLocked(id string) bool {
	for _, r := range l.records {
		if r.ID == id {
			return true
		}
	}
	return false
}

func (l *Ledger) copyRecordsLocked() []Record {
	out := make([]Record, len(l.records))
	copy(out, l.records)
	return out
}

// Service hands out one ledger per user.
type Service struct {
	repo Repository
	log  zerolog.Logger

	mu      sync.Mutex
	ledgers map[string]*Ledger
}

func NewService(repo Repository, log zerolog.Logger) *Service {
	return &Service{
		repo:    repo,
		log:     log.With().Str("component", "history-service").Logger(),
		ledgers: make(map[string]*Ledger),
	}
}

// Ledger returns the ledger for userID, creating it on first use.
func (s *Service) Ledger(userID string) *Ledger {
	s.mu.Lock()
	defer s.mu.Unlock()
	ledger, ok := s.ledgers[userID]
	if !ok {
		ledger = NewLedger(s.repo, userID)
		s.ledgers[userID] = ledger
	}
	return ledger
}

// Record loads a single record, preferring the repository over the cache so
// status transitions made by the pipeline are observed.
func (s *Service) Record(ctx context.Context, userID, id string) (*Record, error) {
	return s.repo.GetByID(ctx, userID, id)
}
