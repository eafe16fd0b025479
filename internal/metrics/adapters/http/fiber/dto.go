package fiber

import "landing-analytics/internal/metrics/core/domain"

type DailyStatsResponse struct {
	Days  int                `json:"days"`
	Stats []domain.DailyStat `json:"stats"`
}

type ErrorResponse struct {
	Error   string `json:"error" example:"invalid_days"`
	Message string `json:"message" example:"invalid days: must be between 1 and 365"`
}
