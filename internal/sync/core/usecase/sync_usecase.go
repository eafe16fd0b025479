package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	events "landing-analytics/internal/events/core/domain"
	eventports "landing-analytics/internal/events/core/ports"
	metrics "landing-analytics/internal/metrics/core/domain"
	"landing-analytics/internal/sync/core/domain"
	"landing-analytics/internal/sync/core/ports"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultPageSize  = 500
	DefaultMaxPages  = 20
	DefaultBatchSize = 50
)

type Config struct {
	PageSize  int
	MaxPages  int
	BatchSize int
}

func (c Config) withDefaults() Config {
	if c.PageSize <= 0 {
		c.PageSize = DefaultPageSize
	}
	if c.MaxPages <= 0 {
		c.MaxPages = DefaultMaxPages
	}
	if c.BatchSize <= 0 {
		c.BatchSize = DefaultBatchSize
	}
	return c
}

type Result struct {
	Clicks   []events.ClickEvent
	Sessions []events.SessionData

	// Fetched is false when the remote collections could not be read and
	// the local data was returned unchanged.
	Fetched bool
	// FailedWrites counts remote creates, upserts and deletes that failed.
	FailedWrites int
}

// SyncUseCase merges the device's collections with the remote record store.
// Remote failures are logged and never returned: callers only ever observe
// possibly stale data.
type SyncUseCase struct {
	remote    ports.RecordStore
	local     ports.LocalCollections
	refresher eventports.AggregateRefresher
	recorder  ports.SyncRecorder
	cfg       Config
	log       zerolog.Logger
	now       func() time.Time
}

func NewSyncUseCase(
	remote ports.RecordStore,
	local ports.LocalCollections,
	refresher eventports.AggregateRefresher,
	recorder ports.SyncRecorder,
	cfg Config,
	log zerolog.Logger,
) *SyncUseCase {
	return &SyncUseCase{
		remote:    remote,
		local:     local,
		refresher: refresher,
		recorder:  recorder,
		cfg:       cfg.withDefaults(),
		log:       log.With().Str("component", "sync").Logger(),
		now:       time.Now,
	}
}

// SyncAnalytics fetches both remote collections, merges them with the given
// local data (remote wins on id collision) and writes the merged set back.
// The merged result is returned even when the write-back failed.
func (uc *SyncUseCase) SyncAnalytics(ctx context.Context, localClicks []events.ClickEvent, localSessions []events.SessionData) Result {
	remoteClickRecs, err := uc.fetchAll(ctx, domain.CollectionClicks)
	if err != nil {
		return uc.fetchFailed(err, localClicks, localSessions)
	}
	remoteSessionRecs, err := uc.fetchAll(ctx, domain.CollectionSessions)
	if err != nil {
		return uc.fetchFailed(err, localClicks, localSessions)
	}

	remoteClicks := decodeAll[events.ClickEvent](uc.log, domain.CollectionClicks, remoteClickRecs)
	remoteSessions := decodeAll[events.SessionData](uc.log, domain.CollectionSessions, remoteSessionRecs)

	res := Result{
		Clicks:   MergeClicks(remoteClicks, localClicks),
		Sessions: MergeSessions(remoteSessions, localSessions),
		Fetched:  true,
	}

	clickRecs := toRecords(res.Clicks, func(c events.ClickEvent) (string, int64) { return c.ID, c.Timestamp })
	sessionRecs := toRecords(res.Sessions, func(s events.SessionData) (string, int64) { return s.ID, s.StartTime })

	res.FailedWrites += uc.replace(ctx, domain.CollectionClicks, remoteClickRecs, clickRecs)
	res.FailedWrites += uc.replace(ctx, domain.CollectionSessions, remoteSessionRecs, sessionRecs)

	uc.log.Info().
		Int("clicks", len(res.Clicks)).
		Int("sessions", len(res.Sessions)).
		Int("failed_writes", res.FailedWrites).
		Msg("analytics synced")

	uc.record(res)
	return res
}

// SyncNow syncs the local store: the merged collections are written back
// locally and the aggregate is refreshed. Records tracked while the remote
// calls were in flight are folded in rather than overwritten.
func (uc *SyncUseCase) SyncNow(ctx context.Context) Result {
	res := uc.SyncAnalytics(ctx, uc.local.Clicks(ctx), uc.local.Sessions(ctx))
	if !res.Fetched {
		return res
	}

	err := uc.local.Do(func() error {
		res.Clicks = MergeClicks(res.Clicks, uc.local.Clicks(ctx))
		res.Sessions = MergeSessions(res.Sessions, uc.local.Sessions(ctx))

		if err := uc.local.SaveClicks(ctx, res.Clicks); err != nil {
			return err
		}
		return uc.local.SaveSessions(ctx, res.Sessions)
	})
	if err != nil {
		uc.log.Warn().Err(err).Msg("write merged analytics locally failed")
	}

	if uc.refresher != nil {
		if err := uc.refresher.Refresh(ctx); err != nil {
			uc.log.Warn().Err(err).Msg("refresh aggregate failed")
		}
	}
	return res
}

// SaveSnapshot stores the full aggregate under this device's id in the
// analytics_data collection.
func (uc *SyncUseCase) SaveSnapshot(ctx context.Context, data metrics.AnalyticsData) error {
	deviceID := uc.local.DeviceID(ctx)

	b, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	rec := domain.Record{ID: deviceID, Timestamp: uc.now().UnixMilli(), Data: b}

	if up, ok := uc.remote.(ports.RecordUpserter); ok {
		err = up.Upsert(ctx, domain.CollectionData, rec)
	} else {
		err = uc.remote.Delete(ctx, domain.CollectionData, deviceID)
		if err == nil || errors.Is(err, domain.ErrRecordNotFound) {
			err = uc.remote.Create(ctx, domain.CollectionData, rec)
		}
	}
	if err != nil {
		uc.log.Warn().Err(err).Str("device_id", deviceID).Msg("save snapshot failed")
		return err
	}
	return nil
}

// LoadSnapshot returns this device's latest stored aggregate.
func (uc *SyncUseCase) LoadSnapshot(ctx context.Context) (metrics.AnalyticsData, error) {
	var data metrics.AnalyticsData
	deviceID := uc.local.DeviceID(ctx)

	page, err := uc.remote.List(ctx, domain.CollectionData, domain.ListQuery{Page: 1, PerPage: 1, ID: deviceID})
	if err != nil {
		uc.log.Warn().Err(err).Str("device_id", deviceID).Msg("load snapshot failed")
		return data, err
	}
	if len(page.Items) == 0 {
		return data, domain.ErrRecordNotFound
	}

	if err := json.Unmarshal(page.Items[0].Data, &data); err != nil {
		return data, fmt.Errorf("%w: snapshot %s: %v", events.ErrMalformedRecord, deviceID, err)
	}
	return data, nil
}

func (uc *SyncUseCase) fetchFailed(err error, clicks []events.ClickEvent, sessions []events.SessionData) Result {
	uc.log.Warn().Err(err).Msg("fetch remote analytics failed, keeping local data")
	res := Result{Clicks: clicks, Sessions: sessions}
	uc.record(res)
	return res
}

func (uc *SyncUseCase) record(res Result) {
	if uc.recorder != nil {
		uc.recorder.SyncCompleted(res.Fetched, res.FailedWrites)
	}
}

// fetchAll pages through a collection, oldest first, up to MaxPages pages.
// A short page ends the walk; totalPages is only trusted when the store
// reports it.
func (uc *SyncUseCase) fetchAll(ctx context.Context, collection string) ([]domain.Record, error) {
	var all []domain.Record

	for page := 1; page <= uc.cfg.MaxPages; page++ {
		p, err := uc.remote.List(ctx, collection, domain.ListQuery{
			Page:    page,
			PerPage: uc.cfg.PageSize,
			Sort:    "timestamp",
		})
		if err != nil {
			return nil, fmt.Errorf("list %s page %d: %w", collection, page, err)
		}

		all = append(all, p.Items...)
		if len(p.Items) < uc.cfg.PageSize || (p.TotalPages > 0 && page >= p.TotalPages) {
			return all, nil
		}
	}

	uc.log.Warn().Str("collection", collection).Int("max_pages", uc.cfg.MaxPages).Msg("remote collection truncated")
	return all, nil
}

// replace makes the remote collection hold exactly merged. With an upserting
// store every merged record is upserted by id; otherwise the existing
// records are deleted and the merged set is created again.
func (uc *SyncUseCase) replace(ctx context.Context, collection string, existing, merged []domain.Record) int {
	if up, ok := uc.remote.(ports.RecordUpserter); ok {
		return uc.inBatches(ctx, collection, "upsert", merged, func(ctx context.Context, r domain.Record) error {
			return up.Upsert(ctx, collection, r)
		})
	}

	failed := uc.inBatches(ctx, collection, "delete", existing, func(ctx context.Context, r domain.Record) error {
		err := uc.remote.Delete(ctx, collection, r.ID)
		if errors.Is(err, domain.ErrRecordNotFound) {
			return nil
		}
		return err
	})
	failed += uc.inBatches(ctx, collection, "create", merged, func(ctx context.Context, r domain.Record) error {
		return uc.remote.Create(ctx, collection, r)
	})
	return failed
}

// inBatches runs op over records in sequential batches of BatchSize; the
// calls within one batch run concurrently. Failures are logged and counted,
// never propagated, so one bad record does not stop the rest.
func (uc *SyncUseCase) inBatches(ctx context.Context, collection, opName string, records []domain.Record, op func(context.Context, domain.Record) error) int {
	var failed atomic.Int64

	for start := 0; start < len(records); start += uc.cfg.BatchSize {
		end := min(start+uc.cfg.BatchSize, len(records))

		var g errgroup.Group
		for _, r := range records[start:end] {
			r := r
			g.Go(func() error {
				if err := op(ctx, r); err != nil {
					failed.Add(1)
					uc.log.Warn().Err(err).
						Str("collection", collection).
						Str("op", opName).
						Str("record_id", r.ID).
						Msg("remote write failed")
				}
				return nil
			})
		}
		_ = g.Wait()
	}

	return int(failed.Load())
}

func decodeAll[T any](log zerolog.Logger, collection string, recs []domain.Record) []T {
	out := make([]T, 0, len(recs))
	for _, r := range recs {
		var v T
		if err := json.Unmarshal(r.Data, &v); err != nil {
			log.Warn().
				Err(fmt.Errorf("%w: %v", events.ErrMalformedRecord, err)).
				Str("collection", collection).
				Str("record_id", r.ID).
				Msg("skipping malformed remote record")
			continue
		}
		out = append(out, v)
	}
	return out
}

func toRecords[T any](items []T, keys func(T) (string, int64)) []domain.Record {
	recs := make([]domain.Record, 0, len(items))
	for _, it := range items {
		b, err := json.Marshal(it)
		if err != nil {
			continue
		}
		id, ts := keys(it)
		recs = append(recs, domain.Record{ID: id, Timestamp: ts, Data: b})
	}
	return recs
}
