package usecase

import (
	"context"
	"strings"

	"landing-analytics/internal/events/core/domain"
	"landing-analytics/internal/events/core/ports"
	"landing-analytics/internal/events/core/store"

	"github.com/rs/zerolog"
)

const (
	// ItemFragmentPrefix marks a URL fragment that points at a content item,
	// e.g. "#item/42". Any other fragment is a system action.
	ItemFragmentPrefix = "#item/"

	// TitleSeparator splits "<item title> - <detail>" click titles.
	TitleSeparator = " - "
)

// CleanupUseCase prunes clicks that point at content which no longer exists.
type CleanupUseCase struct {
	store     *store.Store
	refresher ports.AggregateRefresher
	recorder  ports.Recorder
	log       zerolog.Logger
}

func NewCleanupUseCase(st *store.Store, refresher ports.AggregateRefresher, recorder ports.Recorder, log zerolog.Logger) *CleanupUseCase {
	if recorder == nil {
		recorder = nopRecorder{}
	}
	return &CleanupUseCase{
		store:     st,
		refresher: refresher,
		recorder:  recorder,
		log:       log.With().Str("component", "cleanup").Logger(),
	}
}

// CleanupRemovedCarouselItems removes stored clicks whose target is neither a
// system action nor one of currentItems. It reports whether anything was
// removed; calling it again with the same items is a no-op.
func (uc *CleanupUseCase) CleanupRemovedCarouselItems(ctx context.Context, currentItems []domain.ContentItem) bool {
	idx := newItemIndex(currentItems)

	removed := 0
	err := uc.store.Do(func() error {
		clicks := uc.store.Clicks(ctx)

		kept := make([]domain.ClickEvent, 0, len(clicks))
		for _, c := range clicks {
			if idx.keeps(c) {
				kept = append(kept, c)
			}
		}

		removed = len(clicks) - len(kept)
		if removed == 0 {
			return nil
		}
		return uc.store.SaveClicks(ctx, kept)
	})
	if err != nil {
		uc.log.Warn().Err(err).Msg("persist pruned clicks failed")
		return false
	}
	if removed == 0 {
		return false
	}

	uc.recorder.ClicksPruned(removed)
	uc.log.Info().Int("removed", removed).Msg("pruned clicks of removed content")

	if uc.refresher != nil {
		if err := uc.refresher.Refresh(ctx); err != nil {
			uc.log.Warn().Err(err).Msg("refresh aggregate failed")
		}
	}
	return true
}

type itemIndex struct {
	ids    map[string]struct{}
	titles map[string]struct{}
	urls   map[string]struct{}
}

func newItemIndex(items []domain.ContentItem) itemIndex {
	idx := itemIndex{
		ids:    make(map[string]struct{}, len(items)),
		titles: make(map[string]struct{}, len(items)),
		urls:   make(map[string]struct{}, len(items)),
	}
	for _, it := range items {
		if it.ID != "" {
			idx.ids[it.ID] = struct{}{}
		}
		if t := strings.TrimSpace(it.Title); t != "" {
			idx.titles[t] = struct{}{}
		}
		if it.URL != "" {
			idx.urls[it.URL] = struct{}{}
		}
	}
	return idx
}

// keeps decides whether a click still references something addressable.
// An explicit item id is authoritative; title and URL matching only apply to
// clicks recorded without one.
func (idx itemIndex) keeps(c domain.ClickEvent) bool {
	if c.ItemID != "" {
		return idx.has(idx.ids, c.ItemID)
	}

	if strings.HasPrefix(c.URL, ItemFragmentPrefix) {
		return idx.has(idx.ids, strings.TrimPrefix(c.URL, ItemFragmentPrefix))
	}
	if IsSystemAction(c.URL) {
		return true
	}

	if idx.has(idx.titles, titlePrefix(c.Title)) {
		return true
	}
	return c.URL != "" && idx.has(idx.urls, c.URL)
}

func (idx itemIndex) has(set map[string]struct{}, key string) bool {
	if key == "" {
		return false
	}
	_, ok := set[key]
	return ok
}

// IsSystemAction reports whether url is an in-page control such as
// "#navigation" or "#sound-toggle" rather than a content item.
func IsSystemAction(url string) bool {
	return strings.HasPrefix(url, "#") && !strings.HasPrefix(url, ItemFragmentPrefix)
}

func titlePrefix(title string) string {
	if i := strings.Index(title, TitleSeparator); i >= 0 {
		title = title[:i]
	}
	return strings.TrimSpace(title)
}
