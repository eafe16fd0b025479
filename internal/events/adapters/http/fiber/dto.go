package fiber

import "landing-analytics/internal/events/core/domain"

// StartSessionRequest represents the visitor starting a session
// @Description Session activation DTO. Empty fields fall back to request headers.
type StartSessionRequest struct {
	UserAgent string `json:"userAgent"`
	Referrer  string `json:"referrer"`
	Country   string `json:"country"`
	City      string `json:"city"`
}

type SessionResponse struct {
	Tracked bool                `json:"tracked"`
	Session *domain.SessionData `json:"session,omitempty"`
}

// TrackClickRequest represents a click on a landing link
// @Description Click tracking DTO
type TrackClickRequest struct {
	URL    string `json:"url" example:"https://example.com/shop"`
	Title  string `json:"title" example:"Shop - Summer sale"`
	ItemID string `json:"itemId" example:"42"`
}

type ClickResponse struct {
	Tracked bool               `json:"tracked"`
	Click   *domain.ClickEvent `json:"click,omitempty"`
}

type CleanupRequest struct {
	Items []contentItem `json:"items"`
}

type contentItem struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	URL   string `json:"url"`
}

type CleanupResponse struct {
	Removed bool `json:"removed"`
}

type ErrorResponse struct {
	Error   string `json:"error" example:"invalid_click"`
	Message string `json:"message" example:"invalid click: url is required"`
}
