package domain

// ClickEvent is a single interaction tied to a session. Immutable once created.
type ClickEvent struct {
	ID        string `json:"id"`
	Timestamp int64  `json:"timestamp"` // unix millis
	URL       string `json:"url"`
	Title     string `json:"title"`
	UserAgent string `json:"userAgent"`
	Referrer  string `json:"referrer"`
	SessionID string `json:"sessionId"`
	ItemID    string `json:"itemId,omitempty"`
}

// SessionData is one continuous visit, from activation to exit.
type SessionData struct {
	ID        string `json:"id"`
	StartTime int64  `json:"startTime"` // unix millis
	EndTime   *int64 `json:"endTime,omitempty"`
	Duration  *int64 `json:"duration,omitempty"` // millis
	PageViews int    `json:"pageViews"`
	Clicks    int    `json:"clicks"`
	UserAgent string `json:"userAgent"`
	Referrer  string `json:"referrer"`
	Country   string `json:"country,omitempty"`
	City      string `json:"city,omitempty"`
}

func (s SessionData) Finalized() bool {
	return s.EndTime != nil
}

// Visitor carries what the client knows about itself at activation.
type Visitor struct {
	UserAgent string
	Referrer  string
	Country   string
	City      string
}

// ContentItem is an addressable landing item (a carousel card, a link).
type ContentItem struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	URL   string `json:"url"`
}

// Config holds the tracking switches. It is supplied at construction and never persisted.
type Config struct {
	TrackClicks   bool
	TrackSessions bool
	TrackLocation bool
	RetentionDays int
}
