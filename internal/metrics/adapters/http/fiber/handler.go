package fiber

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"landing-analytics/internal/metrics/core/domain"
	"landing-analytics/internal/metrics/core/usecase"

	"github.com/gofiber/fiber/v2"
)

type AnalyticsReader interface {
	Execute(ctx context.Context) domain.AnalyticsData
	Cached(ctx context.Context) (domain.AnalyticsData, bool)
	Daily(ctx context.Context, days int) ([]domain.DailyStat, error)
}

type Exporter interface {
	ExportAnalytics(ctx context.Context) (usecase.Export, error)
}

type MetricsHandler struct {
	reader   AnalyticsReader
	exporter Exporter
}

func NewMetricsHandler(reader AnalyticsReader, exporter Exporter) *MetricsHandler {
	return &MetricsHandler{reader: reader, exporter: exporter}
}

// GetAnalytics godoc
// @Summary Get the analytics aggregate
// @Description Returns totals, top links, the daily series, recent clicks and active sessions
// @Tags Analytics
// @Produce json
// @Param cached query bool false "Serve the last stored aggregate instead of recomputing"
// @Success 200 {object} domain.AnalyticsData
// @Router /analytics [get]
func (h *MetricsHandler) GetAnalytics(c *fiber.Ctx) error {
	if c.QueryBool("cached", false) {
		if data, ok := h.reader.Cached(c.UserContext()); ok {
			return c.Status(http.StatusOK).JSON(data)
		}
	}
	return c.Status(http.StatusOK).JSON(h.reader.Execute(c.UserContext()))
}

// GetDailyStats godoc
// @Summary Get the daily series
// @Description Returns one entry per calendar day, oldest first, ending today
// @Tags Analytics
// @Produce json
// @Param days query int false "Number of days (1-365, default 7)"
// @Success 200 {object} DailyStatsResponse
// @Failure 400 {object} ErrorResponse
// @Router /analytics/daily [get]
func (h *MetricsHandler) GetDailyStats(c *fiber.Ctx) error {
	days := usecase.DefaultDays
	if raw := c.Query("days", ""); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return c.Status(http.StatusBadRequest).JSON(ErrorResponse{
				Error:   "invalid_days",
				Message: "invalid 'days' parameter",
			})
		}
		days = n
	}

	stats, err := h.reader.Daily(c.UserContext(), days)
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrInvalidDays):
			return c.Status(http.StatusBadRequest).JSON(ErrorResponse{
				Error:   "invalid_days",
				Message: err.Error(),
			})
		default:
			return c.Status(http.StatusInternalServerError).JSON(ErrorResponse{
				Error: "internal_server_error",
			})
		}
	}

	return c.Status(http.StatusOK).JSON(DailyStatsResponse{Days: days, Stats: stats})
}

// ExportAnalytics godoc
// @Summary Download the analytics export
// @Description Returns the aggregate plus raw sessions and clicks as a JSON attachment
// @Tags Analytics
// @Produce json
// @Success 200 {object} domain.ExportPayload
// @Failure 500 {object} ErrorResponse
// @Router /analytics/export [get]
func (h *MetricsHandler) ExportAnalytics(c *fiber.Ctx) error {
	export, err := h.exporter.ExportAnalytics(c.UserContext())
	if err != nil {
		return c.Status(http.StatusInternalServerError).JSON(ErrorResponse{
			Error: "internal_server_error",
		})
	}

	c.Attachment(export.FileName)
	return c.Status(http.StatusOK).Send(export.Content)
}
