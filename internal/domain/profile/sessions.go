package profile

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
)

// Store persists the active profile snapshot per session so a session can
// resume its selection across instances. Load returns nil when a session
// has no snapshot.
type Store interface {
	Load(ctx context.Context, sessionID string) ([]byte, error)
	Save(ctx context.Context, sessionID string, data []byte) error
}

// Sessions tracks the active profile of every session. Switching platform
// replaces the whole working profile with that platform's preset; per-field
// tweaks only ever touch the session's own copy.
type Sessions struct {
	registry *Registry
	store    Store
	log      zerolog.Logger

	mu     sync.RWMutex
	active map[string]Profile
}

func NewSessions(registry *Registry, store Store, log zerolog.Logger) *Sessions {
	return &Sessions{
		registry: registry,
		store:    store,
		log:      log.With().Str("component", "profile-sessions").Logger(),
		active:   make(map[string]Profile),
	}
}

// Active returns the session's working profile, falling back to the stored
// snapshot and then to the YouTube preset for a fresh session.
func (s *Sessions) Active(ctx context.Context, sessionID string) Profile {
	s.mu.RLock()
	current, ok := s.active[sessionID]
	s.mu.RUnlock()
	if ok {
		return current.Clone()
	}

	if s.store != nil {
		if data, err := s.store.Load(ctx, sessionID); err != nil {
			s.log.Warn().Err(err).Str("session", sessionID).Msg("profile snapshot load failed")
		} else if len(data) > 0 {
			var restored Profile
			if err := json.Unmarshal(data, &restored); err == nil && restored.Platform != "" {
				s.mu.Lock()
				s.active[sessionID] = restored.Clone()
				s.mu.Unlock()
				return restored
			}
		}
	}

	preset, _ := s.registry.Default(PlatformYouTube)
	s.mu.Lock()
	s.active[sessionID] = preset.Clone()
	s.mu.Unlock()
	return preset
}

// Select replaces the session's working profile with the platform preset.
// Any customization made to the previous selection is discarded.
func (s *Sessions) Select(ctx context.Context, sessionID string, platform Platform) (Profile, error) {
	preset, err := s.registry.Default(platform)
	if err != nil {
		return Profile{}, err
	}
	s.put(ctx, sessionID, preset)
	return preset.Clone(), nil
}

// SetQuality adjusts the quality of the current selection, 0 through 100.
func (s *Sessions) SetQuality(ctx context.Context, sessionID string, quality int) (Profile, error) {
	if quality < 0 || quality > 100 {
		return Profile{}, fmt.Errorf("quality must be between 0 and 100, got %d", quality)
	}
	current := s.Active(ctx, sessionID)
	current.Quality = quality
	s.put(ctx, sessionID, current)
	return current.Clone(), nil
}

// SetAutoCaption toggles captioning on the current selection.
func (s *Sessions) SetAutoCaption(ctx context.Context, sessionID string, enabled bool) Profile {
	current := s.Active(ctx, sessionID)
	current.AutoCaption = enabled
	s.put(ctx, sessionID, current)
	return current.Clone()
}

func (s *Sessions) put(ctx context.Context, sessionID string, p Profile) {
	s.mu.Lock()
	s.active[sessionID] = p.Clone()
	s.mu.Unlock()

	if s.store == nil {
		return
	}
	data, err := json.Marshal(p)
	if err != nil {
		s.log.Error().Err(err).Str("session", sessionID).Msg("profile snapshot encode failed")
		return
	}
	if err := s.store.Save(ctx, sessionID, data); err != nil {
		s.log.Warn().Err(err).Str("session", sessionID).Msg("profile snapshot save failed")
	}
}
