package usecase

import (
	"context"
	"errors"
	"time"

	"landing-analytics/internal/metrics/core/domain"
	"landing-analytics/internal/metrics/core/ports"
)

// MaxDays bounds the daily series a caller can ask for.
const MaxDays = 365

var ErrInvalidDays = errors.New("invalid days: must be between 1 and 365")

type GetAnalyticsUseCase struct {
	source ports.EventSource
	opts   Options
	now    func() time.Time
}

func NewGetAnalyticsUseCase(source ports.EventSource, opts Options) *GetAnalyticsUseCase {
	return &GetAnalyticsUseCase{
		source: source,
		opts:   opts.withDefaults(),
		now:    time.Now,
	}
}

// WithClock replaces the time source.
func (uc *GetAnalyticsUseCase) WithClock(now func() time.Time) *GetAnalyticsUseCase {
	uc.now = now
	return uc
}

// Execute computes the aggregate from the current raw collections.
func (uc *GetAnalyticsUseCase) Execute(ctx context.Context) domain.AnalyticsData {
	return Aggregate(uc.source.Clicks(ctx), uc.source.Sessions(ctx), uc.now(), uc.opts)
}

// Refresh recomputes the aggregate and stores it as the cached view.
func (uc *GetAnalyticsUseCase) Refresh(ctx context.Context) error {
	return uc.source.SaveAggregate(ctx, uc.Execute(ctx))
}

// Cached returns the last stored aggregate without recomputing it.
func (uc *GetAnalyticsUseCase) Cached(ctx context.Context) (domain.AnalyticsData, bool) {
	var data domain.AnalyticsData
	ok := uc.source.Aggregate(ctx, &data)
	return data, ok
}

// Daily returns the trailing daily series for the given number of days.
func (uc *GetAnalyticsUseCase) Daily(ctx context.Context, days int) ([]domain.DailyStat, error) {
	if days < 1 || days > MaxDays {
		return nil, ErrInvalidDays
	}
	return DailyStats(uc.source.Clicks(ctx), uc.source.Sessions(ctx), uc.now(), days, uc.opts.Location), nil
}
