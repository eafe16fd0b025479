package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"landing-analytics/internal/metrics/core/domain"
	"landing-analytics/internal/metrics/core/ports"
)

type Export struct {
	FileName string
	Content  []byte
}

// ExportUseCase serializes the device's analytics into a downloadable JSON
// document. It only reads from the store.
type ExportUseCase struct {
	source    ports.EventSource
	analytics *GetAnalyticsUseCase
	now       func() time.Time
}

func NewExportUseCase(source ports.EventSource, analytics *GetAnalyticsUseCase) *ExportUseCase {
	return &ExportUseCase{source: source, analytics: analytics, now: time.Now}
}

func (uc *ExportUseCase) WithClock(now func() time.Time) *ExportUseCase {
	uc.now = now
	return uc
}

func (uc *ExportUseCase) ExportAnalytics(ctx context.Context) (Export, error) {
	now := uc.now()

	payload := domain.ExportPayload{
		Analytics:  uc.analytics.Execute(ctx),
		Sessions:   uc.source.Sessions(ctx),
		Clicks:     uc.source.Clicks(ctx),
		ExportDate: now.UTC().Format(time.RFC3339),
	}

	b, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return Export{}, fmt.Errorf("failed to marshal export: %w", err)
	}

	return Export{
		FileName: fmt.Sprintf("analytics-export-%s.json", now.Format(dateLayout)),
		Content:  b,
	}, nil
}
