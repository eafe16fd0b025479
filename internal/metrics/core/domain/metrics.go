package domain

import events "landing-analytics/internal/events/core/domain"

// AnalyticsData is derived from the raw click and session collections and can
// always be recomputed from them.
type AnalyticsData struct {
	TotalViews             int                  `json:"totalViews"`
	TotalClicks            int                  `json:"totalClicks"`
	TotalSessions          int                  `json:"totalSessions"`
	AverageSessionDuration int64                `json:"averageSessionDuration"` // seconds
	TopClickedLinks        []TopLink            `json:"topClickedLinks"`
	DailyStats             []DailyStat          `json:"dailyStats"`
	RecentClicks           []events.ClickEvent  `json:"recentClicks"`
	ActiveSessions         []events.SessionData `json:"activeSessions"`
}

type TopLink struct {
	URL        string `json:"url"`
	Title      string `json:"title"`
	Clicks     int    `json:"clicks"`
	Percentage int    `json:"percentage"`
}

type DailyStat struct {
	Date     string `json:"date"` // YYYY-MM-DD in the analytics time zone
	Views    int    `json:"views"`
	Clicks   int    `json:"clicks"`
	Sessions int    `json:"sessions"`
}

// ExportPayload is the downloadable snapshot of the device's analytics.
type ExportPayload struct {
	Analytics  AnalyticsData        `json:"analytics"`
	Sessions   []events.SessionData `json:"sessions"`
	Clicks     []events.ClickEvent  `json:"clicks"`
	ExportDate string               `json:"exportDate"`
}
