package usecase

import (
	"context"
	"time"

	"landing-analytics/internal/events/core/domain"
	"landing-analytics/internal/events/core/ports"
	"landing-analytics/internal/events/core/store"

	"github.com/rs/zerolog"
)

type RetentionResult struct {
	Clicks   int
	Sessions int
}

// RetentionUseCase drops records older than the configured retention window.
type RetentionUseCase struct {
	days      int
	store     *store.Store
	refresher ports.AggregateRefresher
	log       zerolog.Logger
	now       func() time.Time
}

func NewRetentionUseCase(days int, st *store.Store, refresher ports.AggregateRefresher, log zerolog.Logger) *RetentionUseCase {
	return &RetentionUseCase{
		days:      days,
		store:     st,
		refresher: refresher,
		log:       log.With().Str("component", "retention").Logger(),
		now:       time.Now,
	}
}

// WithClock replaces the time source.
func (uc *RetentionUseCase) WithClock(now func() time.Time) *RetentionUseCase {
	uc.now = now
	return uc
}

// Purge removes clicks and finalized sessions that started before the
// retention cutoff. Unfinished sessions are kept. A zero retention disables
// purging.
func (uc *RetentionUseCase) Purge(ctx context.Context) RetentionResult {
	var res RetentionResult
	if uc.days <= 0 {
		return res
	}

	cutoff := uc.now().Add(-time.Duration(uc.days) * 24 * time.Hour).UnixMilli()

	err := uc.store.Do(func() error {
		clicks := uc.store.Clicks(ctx)
		keptClicks := make([]domain.ClickEvent, 0, len(clicks))
		for _, c := range clicks {
			if c.Timestamp >= cutoff {
				keptClicks = append(keptClicks, c)
			}
		}

		sessions := uc.store.Sessions(ctx)
		keptSessions := make([]domain.SessionData, 0, len(sessions))
		for _, s := range sessions {
			if !s.Finalized() || s.StartTime >= cutoff {
				keptSessions = append(keptSessions, s)
			}
		}

		res.Clicks = len(clicks) - len(keptClicks)
		res.Sessions = len(sessions) - len(keptSessions)

		if res.Clicks > 0 {
			if err := uc.store.SaveClicks(ctx, keptClicks); err != nil {
				return err
			}
		}
		if res.Sessions > 0 {
			if err := uc.store.SaveSessions(ctx, keptSessions); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		uc.log.Warn().Err(err).Msg("retention purge failed")
		return RetentionResult{}
	}

	if res.Clicks == 0 && res.Sessions == 0 {
		return res
	}

	uc.log.Info().Int("clicks", res.Clicks).Int("sessions", res.Sessions).Msg("purged expired analytics")
	if uc.refresher != nil {
		if err := uc.refresher.Refresh(ctx); err != nil {
			uc.log.Warn().Err(err).Msg("refresh aggregate failed")
		}
	}
	return res
}
