package usecase

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"landing-analytics/internal/events/core/domain"
	"landing-analytics/internal/events/core/ports"
	"landing-analytics/internal/events/core/store"
	"landing-analytics/internal/ident"

	"github.com/rs/zerolog"
)

// SessionContext is the visit currently tracked by a Tracker. It lives from
// Activate to Deactivate and is never shared between trackers.
type SessionContext struct {
	session domain.SessionData
}

func (sc *SessionContext) Session() domain.SessionData {
	return sc.session
}

type ClickInput struct {
	URL    string
	Title  string
	ItemID string
}

// ValidateClick rejects clicks without a target URL.
func ValidateClick(in ClickInput) error {
	if strings.TrimSpace(in.URL) == "" {
		return fmt.Errorf("%w: url is required", domain.ErrInvalidClick)
	}
	return nil
}

// Tracker owns the session lifecycle and click tracking for one device.
// Persistence failures are logged and swallowed: tracking never blocks the
// caller's primary flow.
type Tracker struct {
	cfg       domain.Config
	store     *store.Store
	refresher ports.AggregateRefresher
	recorder  ports.Recorder
	log       zerolog.Logger
	now       func() time.Time

	mu      sync.Mutex
	current *SessionContext
}

type TrackerOption func(*Tracker)

func WithClock(now func() time.Time) TrackerOption {
	return func(t *Tracker) { t.now = now }
}

func WithRecorder(r ports.Recorder) TrackerOption {
	return func(t *Tracker) {
		if r != nil {
			t.recorder = r
		}
	}
}

func NewTracker(
	cfg domain.Config,
	st *store.Store,
	refresher ports.AggregateRefresher,
	log zerolog.Logger,
	opts ...TrackerOption,
) *Tracker {
	t := &Tracker{
		cfg:       cfg,
		store:     st,
		refresher: refresher,
		recorder:  nopRecorder{},
		log:       log.With().Str("component", "tracker").Logger(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Activate starts a new session for the visitor and persists it right away.
// An already active session is finalized first. When session tracking is
// disabled nothing is created and false is returned.
func (t *Tracker) Activate(ctx context.Context, v domain.Visitor) (domain.SessionData, bool) {
	if !t.cfg.TrackSessions {
		return domain.SessionData{}, false
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.current != nil {
		t.finalizeLocked(ctx)
	}

	now := t.now()
	s := domain.SessionData{
		ID:        ident.NewAt(now),
		StartTime: now.UnixMilli(),
		PageViews: 1,
		Clicks:    0,
		UserAgent: v.UserAgent,
		Referrer:  v.Referrer,
	}
	if t.cfg.TrackLocation {
		s.Country = v.Country
		s.City = v.City
	}

	t.current = &SessionContext{session: s}
	t.persistSession(ctx, s)
	t.recorder.SessionStarted()

	t.log.Debug().Str("session_id", s.ID).Msg("session started")
	return s, true
}

// Deactivate finalizes the active session: endTime and duration are set and
// persisted. It is a no-op when no session is active.
func (t *Tracker) Deactivate(ctx context.Context) (domain.SessionData, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.current == nil {
		return domain.SessionData{}, false
	}
	return t.finalizeLocked(ctx), true
}

// Close is the exit-path finalizer; defer it right after Activate. It only
// covers normal exits: a killed process loses the final duration sample.
func (t *Tracker) Close() error {
	t.Deactivate(context.Background())
	return nil
}

// Current returns the active session, if any.
func (t *Tracker) Current() (domain.SessionData, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.current == nil {
		return domain.SessionData{}, false
	}
	return t.current.Session(), true
}

// TrackClick records a click against the active session and refreshes the
// aggregate before returning. It reports false when click tracking is
// disabled or no session is active.
func (t *Tracker) TrackClick(ctx context.Context, in ClickInput) (domain.ClickEvent, bool) {
	if !t.cfg.TrackClicks {
		return domain.ClickEvent{}, false
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.current == nil {
		return domain.ClickEvent{}, false
	}

	now := t.now()
	s := &t.current.session

	click := domain.ClickEvent{
		ID:        ident.NewAt(now),
		Timestamp: now.UnixMilli(),
		URL:       in.URL,
		Title:     in.Title,
		UserAgent: s.UserAgent,
		Referrer:  s.Referrer,
		SessionID: s.ID,
		ItemID:    in.ItemID,
	}

	s.Clicks++
	snapshot := *s

	err := t.store.Do(func() error {
		if err := t.store.AppendClick(ctx, click); err != nil {
			return err
		}
		return t.store.SaveSession(ctx, snapshot)
	})
	if err != nil {
		t.log.Warn().Err(err).Str("session_id", s.ID).Msg("persist click failed")
	}

	t.recorder.ClickTracked()
	t.refresh(ctx)

	return click, true
}

// Clear removes every persisted click and session and the cached aggregate.
// The active session keeps running with its click count reset, and is
// written again on its next click.
func (t *Tracker) Clear(ctx context.Context) error {
	t.mu.Lock()
	err := t.store.Do(func() error {
		if err := t.store.Clear(ctx); err != nil {
			return err
		}
		if t.current != nil {
			t.current.session.Clicks = 0
		}
		return nil
	})
	t.mu.Unlock()
	if err != nil {
		t.log.Warn().Err(err).Msg("clear analytics failed")
		return err
	}
	t.refresh(ctx)
	return nil
}

func (t *Tracker) finalizeLocked(ctx context.Context) domain.SessionData {
	s := t.current.session
	t.current = nil

	end := t.now().UnixMilli()
	duration := end - s.StartTime
	if duration < 0 {
		duration = 0
	}
	s.EndTime = &end
	s.Duration = &duration

	t.persistSession(ctx, s)
	t.recorder.SessionEnded(duration)

	t.log.Debug().Str("session_id", s.ID).Int64("duration_ms", duration).Msg("session finalized")
	return s
}

func (t *Tracker) persistSession(ctx context.Context, s domain.SessionData) {
	err := t.store.Do(func() error {
		return t.store.SaveSession(ctx, s)
	})
	if err != nil {
		t.log.Warn().Err(err).Str("session_id", s.ID).Msg("persist session failed")
	}
}

func (t *Tracker) refresh(ctx context.Context) {
	if t.refresher == nil {
		return
	}
	if err := t.refresher.Refresh(ctx); err != nil {
		t.log.Warn().Err(err).Msg("refresh aggregate failed")
	}
}

type nopRecorder struct{}

func (nopRecorder) SessionStarted() {}
func (nopRecorder) SessionEnded(int64) {}
func (nopRecorder) ClickTracked() {}
func (nopRecorder) ClicksPruned(int) {}
