package usecase_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"landing-analytics/internal/events/adapters/kv/memory"
	"landing-analytics/internal/events/core/domain"
	"landing-analytics/internal/events/core/store"
	"landing-analytics/internal/events/core/usecase"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRefresher counts Refresh calls and can observe the store at call time.
type fakeRefresher struct {
	RefreshFn func(ctx context.Context) error
	calls     int
}

func (f *fakeRefresher) Refresh(ctx context.Context) error {
	f.calls++
	if f.RefreshFn != nil {
		return f.RefreshFn(ctx)
	}
	return nil
}

type fakeRecorder struct {
	mu      sync.Mutex
	started int
	ended   []int64
	clicks  int
	pruned  int
}

func (f *fakeRecorder) SessionStarted() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.started++
}

func (f *fakeRecorder) SessionEnded(d int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ended = append(f.ended, d)
}

func (f *fakeRecorder) ClickTracked() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.clicks++
}

func (f *fakeRecorder) ClicksPruned(n int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pruned += n
}

// manualClock is advanced explicitly by tests.
type manualClock struct {
	t time.Time
}

func (c *manualClock) Now() time.Time { return c.t }

func (c *manualClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func enabledConfig() domain.Config {
	return domain.Config{TrackClicks: true, TrackSessions: true, TrackLocation: false, RetentionDays: 30}
}

func newTracker(t *testing.T, cfg domain.Config) (*usecase.Tracker, *store.Store, *fakeRefresher, *manualClock) {
	t.Helper()
	st := store.New(memory.New(), zerolog.Nop())
	ref := &fakeRefresher{}
	clock := &manualClock{t: time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)}
	tr := usecase.NewTracker(cfg, st, ref, zerolog.Nop(), usecase.WithClock(clock.Now))
	return tr, st, ref, clock
}

var visitor = domain.Visitor{UserAgent: "Mozilla/5.0", Referrer: "https://instagram.com", Country: "TR", City: "Izmir"}

// ------------------------------------------------------------
// SESSION LIFECYCLE
// ------------------------------------------------------------

func TestTracker_Activate_PersistsImmediately(t *testing.T) {
	tr, st, _, clock := newTracker(t, enabledConfig())
	ctx := context.Background()

	s, ok := tr.Activate(ctx, visitor)
	require.True(t, ok)

	assert.NotEmpty(t, s.ID)
	assert.Equal(t, clock.Now().UnixMilli(), s.StartTime)
	assert.Equal(t, 1, s.PageViews)
	assert.Equal(t, 0, s.Clicks)
	assert.Equal(t, "Mozilla/5.0", s.UserAgent)
	assert.Equal(t, "https://instagram.com", s.Referrer)
	assert.Empty(t, s.Country, "location is not captured unless enabled")
	assert.Nil(t, s.EndTime)

	stored := st.Sessions(ctx)
	require.Len(t, stored, 1)
	assert.Equal(t, s, stored[0])
}

func TestTracker_Activate_CapturesLocationWhenEnabled(t *testing.T) {
	cfg := enabledConfig()
	cfg.TrackLocation = true
	tr, _, _, _ := newTracker(t, cfg)

	s, ok := tr.Activate(context.Background(), visitor)
	require.True(t, ok)
	assert.Equal(t, "TR", s.Country)
	assert.Equal(t, "Izmir", s.City)
}

func TestTracker_Deactivate_SetsDuration(t *testing.T) {
	tr, st, _, clock := newTracker(t, enabledConfig())
	ctx := context.Background()

	started, _ := tr.Activate(ctx, visitor)
	clock.Advance(90 * time.Second)

	s, ok := tr.Deactivate(ctx)
	require.True(t, ok)
	require.NotNil(t, s.EndTime)
	require.NotNil(t, s.Duration)
	assert.Equal(t, started.StartTime+90_000, *s.EndTime)
	assert.Equal(t, int64(90_000), *s.Duration)

	stored := st.Sessions(ctx)
	require.Len(t, stored, 1)
	require.NotNil(t, stored[0].Duration)
	assert.Equal(t, int64(90_000), *stored[0].Duration)

	// second call is a no-op
	_, ok = tr.Deactivate(ctx)
	assert.False(t, ok)
	_, active := tr.Current()
	assert.False(t, active)
}

func TestTracker_Reactivate_FinalizesPrevious(t *testing.T) {
	tr, st, _, clock := newTracker(t, enabledConfig())
	ctx := context.Background()

	first, _ := tr.Activate(ctx, visitor)
	clock.Advance(time.Minute)
	second, _ := tr.Activate(ctx, visitor)

	assert.NotEqual(t, first.ID, second.ID)

	stored := st.Sessions(ctx)
	require.Len(t, stored, 2)
	assert.True(t, stored[0].Finalized())
	assert.False(t, stored[1].Finalized())
}

func TestTracker_Close_FinalizesActiveSession(t *testing.T) {
	rec := &fakeRecorder{}
	st := store.New(memory.New(), zerolog.Nop())
	tr := usecase.NewTracker(enabledConfig(), st, nil, zerolog.Nop(), usecase.WithRecorder(rec))

	tr.Activate(context.Background(), visitor)
	require.NoError(t, tr.Close())

	sessions := st.Sessions(context.Background())
	require.Len(t, sessions, 1)
	assert.True(t, sessions[0].Finalized())
	assert.Equal(t, 1, rec.started)
	assert.Len(t, rec.ended, 1)

	// closing again is harmless
	require.NoError(t, tr.Close())
}

func TestTracker_SessionsDisabled(t *testing.T) {
	cfg := enabledConfig()
	cfg.TrackSessions = false
	tr, st, ref, _ := newTracker(t, cfg)
	ctx := context.Background()

	_, ok := tr.Activate(ctx, visitor)
	assert.False(t, ok)

	_, ok = tr.TrackClick(ctx, usecase.ClickInput{URL: "https://a.example", Title: "A"})
	assert.False(t, ok)

	assert.Empty(t, st.Sessions(ctx))
	assert.Empty(t, st.Clicks(ctx))
	assert.Zero(t, ref.calls)
}

// ------------------------------------------------------------
// CLICK TRACKING
// ------------------------------------------------------------

func TestTracker_TrackClick_AppendsAndRefreshes(t *testing.T) {
	tr, st, ref, clock := newTracker(t, enabledConfig())
	ctx := context.Background()

	s, _ := tr.Activate(ctx, visitor)
	clock.Advance(time.Second)

	// the aggregate must see the new click before TrackClick returns
	ref.RefreshFn = func(ctx context.Context) error {
		assert.Len(t, st.Clicks(ctx), 1)
		return nil
	}

	c, ok := tr.TrackClick(ctx, usecase.ClickInput{URL: "https://shop.example", Title: "Shop", ItemID: "item-1"})
	require.True(t, ok)

	assert.NotEmpty(t, c.ID)
	assert.Equal(t, s.ID, c.SessionID)
	assert.Equal(t, clock.Now().UnixMilli(), c.Timestamp)
	assert.Equal(t, "Mozilla/5.0", c.UserAgent)
	assert.Equal(t, "item-1", c.ItemID)
	assert.Equal(t, 1, ref.calls)

	clicks := st.Clicks(ctx)
	require.Len(t, clicks, 1)
	assert.Equal(t, c, clicks[0])

	sessions := st.Sessions(ctx)
	require.Len(t, sessions, 1)
	assert.Equal(t, 1, sessions[0].Clicks)

	current, _ := tr.Current()
	assert.Equal(t, 1, current.Clicks)
}

func TestTracker_TrackClick_DisabledNeverMutates(t *testing.T) {
	cfg := enabledConfig()
	cfg.TrackClicks = false
	tr, st, ref, _ := newTracker(t, cfg)
	ctx := context.Background()

	tr.Activate(ctx, visitor)
	require.NoError(t, st.SaveClicks(ctx, []domain.ClickEvent{{ID: "existing"}}))

	for i := 0; i < 5; i++ {
		_, ok := tr.TrackClick(ctx, usecase.ClickInput{URL: "https://a.example", Title: "A"})
		assert.False(t, ok)
	}

	clicks := st.Clicks(ctx)
	require.Len(t, clicks, 1)
	assert.Equal(t, "existing", clicks[0].ID)
	assert.Zero(t, ref.calls)
}

func TestTracker_TrackClick_NoActiveSession(t *testing.T) {
	tr, st, _, _ := newTracker(t, enabledConfig())

	_, ok := tr.TrackClick(context.Background(), usecase.ClickInput{URL: "https://a.example"})
	assert.False(t, ok)
	assert.Empty(t, st.Clicks(context.Background()))
}

func TestTracker_TrackClick_RefreshErrorIsSwallowed(t *testing.T) {
	tr, st, ref, _ := newTracker(t, enabledConfig())
	ctx := context.Background()
	ref.RefreshFn = func(ctx context.Context) error { return errors.New("boom") }

	tr.Activate(ctx, visitor)
	_, ok := tr.TrackClick(ctx, usecase.ClickInput{URL: "#navigation"})
	assert.True(t, ok)
	assert.Len(t, st.Clicks(ctx), 1)
}

func TestTracker_TrackClick_StorageFailureIsSwallowed(t *testing.T) {
	st := store.New(&brokenKV{}, zerolog.Nop())
	tr := usecase.NewTracker(enabledConfig(), st, nil, zerolog.Nop())
	ctx := context.Background()

	_, ok := tr.Activate(ctx, visitor)
	require.True(t, ok)

	_, ok = tr.TrackClick(ctx, usecase.ClickInput{URL: "https://a.example"})
	assert.True(t, ok)

	s, _ := tr.Current()
	assert.Equal(t, 1, s.Clicks)
}

func TestTracker_TrackClick_Concurrent(t *testing.T) {
	tr, st, _, _ := newTracker(t, enabledConfig())
	ctx := context.Background()
	tr.Activate(ctx, visitor)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tr.TrackClick(ctx, usecase.ClickInput{URL: "https://a.example", Title: "A"})
		}()
	}
	wg.Wait()

	assert.Len(t, st.Clicks(ctx), 20)
	assert.Equal(t, 20, st.Sessions(ctx)[0].Clicks)
}

func TestTracker_Clear(t *testing.T) {
	tr, st, ref, _ := newTracker(t, enabledConfig())
	ctx := context.Background()

	tr.Activate(ctx, visitor)
	tr.TrackClick(ctx, usecase.ClickInput{URL: "https://a.example"})

	require.NoError(t, tr.Clear(ctx))
	assert.Empty(t, st.Clicks(ctx))
	assert.Empty(t, st.Sessions(ctx))
	assert.Equal(t, 2, ref.calls)

	// the running session is written again on its next click
	tr.TrackClick(ctx, usecase.ClickInput{URL: "https://a.example"})
	require.Len(t, st.Sessions(ctx), 1)
	assert.Len(t, st.Clicks(ctx), 1)
	assert.Equal(t, 1, st.Sessions(ctx)[0].Clicks)

	cur, ok := tr.Current()
	require.True(t, ok)
	assert.Equal(t, 1, cur.Clicks)
}

type brokenKV struct{}

func (brokenKV) Get(ctx context.Context, key string) (string, bool, error) {
	return "", false, errors.New("storage disabled")
}

func (brokenKV) Set(ctx context.Context, key, value string) error {
	return errors.New("storage disabled")
}

func (brokenKV) Remove(ctx context.Context, key string) error {
	return errors.New("storage disabled")
}

func TestValidateClick(t *testing.T) {
	assert.NoError(t, usecase.ValidateClick(usecase.ClickInput{URL: "https://example.com"}))
	assert.ErrorIs(t, usecase.ValidateClick(usecase.ClickInput{URL: "  ", Title: "x"}), domain.ErrInvalidClick)
}
