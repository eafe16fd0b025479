package usecase

import (
	"math"
	"sort"
	"time"

	events "landing-analytics/internal/events/core/domain"
	"landing-analytics/internal/metrics/core/domain"
)

const (
	DefaultDays    = 7
	DefaultTopN    = 10
	DefaultRecentN = 20

	dateLayout = "2006-01-02"
)

type Options struct {
	// Days is the trailing window of dailyStats.
	Days int

	TopN    int
	RecentN int

	// Location is the zone calendar days are cut in.
	Location *time.Location
}

func (o Options) withDefaults() Options {
	if o.Days <= 0 {
		o.Days = DefaultDays
	}
	if o.TopN <= 0 {
		o.TopN = DefaultTopN
	}
	if o.RecentN <= 0 {
		o.RecentN = DefaultRecentN
	}
	if o.Location == nil {
		o.Location = time.Local
	}
	return o
}

// Aggregate derives the dashboard view from the raw collections. It does not
// modify its inputs.
func Aggregate(clicks []events.ClickEvent, sessions []events.SessionData, now time.Time, opts Options) domain.AnalyticsData {
	opts = opts.withDefaults()

	return domain.AnalyticsData{
		TotalViews:             len(sessions),
		TotalClicks:            len(clicks),
		TotalSessions:          len(sessions),
		AverageSessionDuration: averageSessionDuration(sessions),
		TopClickedLinks:        topClickedLinks(clicks, opts.TopN),
		DailyStats:             DailyStats(clicks, sessions, now, opts.Days, opts.Location),
		RecentClicks:           recentClicks(clicks, opts.RecentN),
		ActiveSessions:         activeSessions(sessions),
	}
}

type linkKey struct {
	url   string
	title string
}

func topClickedLinks(clicks []events.ClickEvent, n int) []domain.TopLink {
	counts := make(map[linkKey]int)
	var order []linkKey // first-seen order

	for _, c := range clicks {
		k := linkKey{url: c.URL, title: c.Title}
		if _, ok := counts[k]; !ok {
			order = append(order, k)
		}
		counts[k]++
	}

	links := make([]domain.TopLink, 0, len(order))
	for _, k := range order {
		links = append(links, domain.TopLink{URL: k.url, Title: k.title, Clicks: counts[k]})
	}

	sort.SliceStable(links, func(i, j int) bool {
		return links[i].Clicks > links[j].Clicks
	})

	if len(links) > n {
		links = links[:n]
	}

	assignPercentages(links, len(clicks))
	return links
}

// assignPercentages sets round(clicks/total*100) on every link. Half-up
// rounding can push the displayed sum past 100 (eight links at 12.5% each);
// in that case the entries that were rounded up by the smallest margin are
// lowered by one until the sum fits.
func assignPercentages(links []domain.TopLink, total int) {
	if total == 0 {
		return
	}

	type roundedUp struct {
		idx int
		rem int
	}
	var up []roundedUp
	sum := 0

	for i := range links {
		scaled := links[i].Clicks * 100
		floor, rem := scaled/total, scaled%total

		p := floor
		if rem > 0 && 2*rem >= total {
			p++
			up = append(up, roundedUp{idx: i, rem: rem})
		}
		links[i].Percentage = p
		sum += p
	}

	if sum <= 100 {
		return
	}

	sort.SliceStable(up, func(i, j int) bool {
		if up[i].rem != up[j].rem {
			return up[i].rem < up[j].rem
		}
		return up[i].idx > up[j].idx
	})
	for _, u := range up {
		if sum <= 100 {
			break
		}
		links[u.idx].Percentage--
		sum--
	}
}

// DailyStats returns exactly days entries, oldest first, one per calendar day
// in loc ending with the day of now. Days without activity are zero.
func DailyStats(clicks []events.ClickEvent, sessions []events.SessionData, now time.Time, days int, loc *time.Location) []domain.DailyStat {
	if days <= 0 {
		days = DefaultDays
	}
	if loc == nil {
		loc = time.Local
	}

	dayKey := func(ms int64) string {
		return time.UnixMilli(ms).In(loc).Format(dateLayout)
	}

	sessionsPerDay := make(map[string]int)
	for _, s := range sessions {
		sessionsPerDay[dayKey(s.StartTime)]++
	}
	clicksPerDay := make(map[string]int)
	for _, c := range clicks {
		clicksPerDay[dayKey(c.Timestamp)]++
	}

	y, m, d := now.In(loc).Date()
	stats := make([]domain.DailyStat, 0, days)
	for i := days - 1; i >= 0; i-- {
		date := time.Date(y, m, d-i, 0, 0, 0, 0, loc).Format(dateLayout)
		n := sessionsPerDay[date]
		stats = append(stats, domain.DailyStat{
			Date:     date,
			Views:    n,
			Clicks:   clicksPerDay[date],
			Sessions: n,
		})
	}
	return stats
}

func recentClicks(clicks []events.ClickEvent, n int) []events.ClickEvent {
	recent := make([]events.ClickEvent, len(clicks))
	copy(recent, clicks)

	sort.SliceStable(recent, func(i, j int) bool {
		return recent[i].Timestamp > recent[j].Timestamp
	})

	if len(recent) > n {
		recent = recent[:n]
	}
	return recent
}

func averageSessionDuration(sessions []events.SessionData) int64 {
	var sum, n int64
	for _, s := range sessions {
		if s.Duration == nil {
			continue
		}
		sum += *s.Duration
		n++
	}
	if n == 0 {
		return 0
	}
	return int64(math.Round(float64(sum) / float64(n) / 1000))
}

func activeSessions(sessions []events.SessionData) []events.SessionData {
	active := make([]events.SessionData, 0)
	for _, s := range sessions {
		if !s.Finalized() {
			active = append(active, s)
		}
	}
	return active
}
