package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"landing-analytics/internal/events/core/domain"
	"landing-analytics/internal/events/core/ports"
	"landing-analytics/internal/ident"

	"github.com/rs/zerolog"
)

// Persisted keys.
const (
	KeySessions  = "analyticsSessions"
	KeyClicks    = "analyticsClicks"
	KeyAggregate = "analyticsData"
	KeyDeviceID  = "analytics_device_id"
)

// Store is the local event store: typed JSON collections on top of a KVStore.
// Reads never fail; an unavailable store or a malformed value reads as empty.
type Store struct {
	kv  ports.KVStore
	log zerolog.Logger

	mu sync.Mutex
}

func New(kv ports.KVStore, log zerolog.Logger) *Store {
	return &Store{kv: kv, log: log.With().Str("component", "local_store").Logger()}
}

// Do runs fn while holding the store's write lock. Components wrap their
// read-modify-write sequences in it; plain reads do not need it. fn must not
// call Do.
func (s *Store) Do(fn func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn()
}

func (s *Store) Clicks(ctx context.Context) []domain.ClickEvent {
	var clicks []domain.ClickEvent
	if !s.readJSON(ctx, KeyClicks, &clicks) || clicks == nil {
		clicks = []domain.ClickEvent{}
	}
	return clicks
}

func (s *Store) SaveClicks(ctx context.Context, clicks []domain.ClickEvent) error {
	if clicks == nil {
		clicks = []domain.ClickEvent{}
	}
	return s.writeJSON(ctx, KeyClicks, clicks)
}

// AppendClick is a read-modify-write of the click collection.
func (s *Store) AppendClick(ctx context.Context, c domain.ClickEvent) error {
	clicks := s.Clicks(ctx)
	return s.SaveClicks(ctx, append(clicks, c))
}

func (s *Store) Sessions(ctx context.Context) []domain.SessionData {
	var sessions []domain.SessionData
	if !s.readJSON(ctx, KeySessions, &sessions) || sessions == nil {
		sessions = []domain.SessionData{}
	}
	return sessions
}

func (s *Store) SaveSessions(ctx context.Context, sessions []domain.SessionData) error {
	if sessions == nil {
		sessions = []domain.SessionData{}
	}
	return s.writeJSON(ctx, KeySessions, sessions)
}

// SaveSession replaces the session with the same id or appends it.
func (s *Store) SaveSession(ctx context.Context, session domain.SessionData) error {
	sessions := s.Sessions(ctx)

	replaced := false
	for i := range sessions {
		if sessions[i].ID == session.ID {
			sessions[i] = session
			replaced = true
			break
		}
	}
	if !replaced {
		sessions = append(sessions, session)
	}

	return s.SaveSessions(ctx, sessions)
}

// Aggregate decodes the cached aggregate into dst. It reports false when
// nothing usable is cached.
func (s *Store) Aggregate(ctx context.Context, dst any) bool {
	return s.readJSON(ctx, KeyAggregate, dst)
}

func (s *Store) SaveAggregate(ctx context.Context, v any) error {
	return s.writeJSON(ctx, KeyAggregate, v)
}

// DeviceID returns the persisted device id, generating and persisting one on
// first use. If it cannot be persisted the generated id is still returned.
func (s *Store) DeviceID(ctx context.Context) string {
	id, ok, err := s.kv.Get(ctx, KeyDeviceID)
	if err != nil {
		s.log.Warn().Err(err).Msg("read device id")
	}
	if ok && id != "" {
		return id
	}

	id = ident.DeviceID()
	if err := s.kv.Set(ctx, KeyDeviceID, id); err != nil {
		s.log.Warn().Err(err).Msg("persist device id")
	}
	return id
}

// Clear drops every analytics collection and the cached aggregate. The device
// id survives.
func (s *Store) Clear(ctx context.Context) error {
	var errs []error
	for _, key := range []string{KeyClicks, KeySessions, KeyAggregate} {
		if err := s.kv.Remove(ctx, key); err != nil {
			errs = append(errs, fmt.Errorf("%w: remove %s: %v", domain.ErrStorageUnavailable, key, err))
		}
	}
	return errors.Join(errs...)
}

func (s *Store) readJSON(ctx context.Context, key string, dst any) bool {
	raw, ok, err := s.kv.Get(ctx, key)
	if err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("local read failed, treating as empty")
		return false
	}
	if !ok || raw == "" {
		return false
	}

	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		s.log.Warn().
			Err(fmt.Errorf("%w: %v", domain.ErrMalformedRecord, err)).
			Str("key", key).
			Msg("malformed local value, treating as empty")
		return false
	}
	return true
}

func (s *Store) writeJSON(ctx context.Context, key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := s.kv.Set(ctx, key, string(b)); err != nil {
		return fmt.Errorf("%w: write %s: %v", domain.ErrStorageUnavailable, key, err)
	}
	return nil
}
