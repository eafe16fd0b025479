package fiber

import (
	"context"
	"errors"
	"net/http"

	metrics "landing-analytics/internal/metrics/core/domain"
	"landing-analytics/internal/sync/core/domain"
	"landing-analytics/internal/sync/core/usecase"

	"github.com/gofiber/fiber/v2"
)

type Syncer interface {
	SyncNow(ctx context.Context) usecase.Result
	SaveSnapshot(ctx context.Context, data metrics.AnalyticsData) error
	LoadSnapshot(ctx context.Context) (metrics.AnalyticsData, error)
}

// AggregateSource produces the aggregate a snapshot stores.
type AggregateSource interface {
	Execute(ctx context.Context) metrics.AnalyticsData
}

type SyncHandler struct {
	syncer    Syncer
	aggregate AggregateSource
}

func NewSyncHandler(syncer Syncer, aggregate AggregateSource) *SyncHandler {
	return &SyncHandler{syncer: syncer, aggregate: aggregate}
}

// SyncAnalytics godoc
// @Summary Sync with the remote record store
// @Description Merges local and remote clicks and sessions (remote wins) and writes the result to both sides
// @Tags Sync
// @Produce json
// @Success 200 {object} SyncResponse
// @Success 202 {object} SyncResponse "Remote unavailable, local data kept"
// @Router /analytics/sync [post]
func (h *SyncHandler) SyncAnalytics(c *fiber.Ctx) error {
	res := h.syncer.SyncNow(c.UserContext())

	status := http.StatusOK
	if !res.Fetched {
		status = http.StatusAccepted
	}
	return c.Status(status).JSON(SyncResponse{
		Fetched:      res.Fetched,
		Clicks:       len(res.Clicks),
		Sessions:     len(res.Sessions),
		FailedWrites: res.FailedWrites,
	})
}

// SaveSnapshot godoc
// @Summary Store the aggregate remotely
// @Description Saves the current aggregate under this device's id
// @Tags Sync
// @Produce json
// @Success 200 {object} metrics.AnalyticsData
// @Failure 502 {object} ErrorResponse
// @Router /analytics/snapshot [put]
func (h *SyncHandler) SaveSnapshot(c *fiber.Ctx) error {
	data := h.aggregate.Execute(c.UserContext())

	if err := h.syncer.SaveSnapshot(c.UserContext(), data); err != nil {
		return c.Status(http.StatusBadGateway).JSON(ErrorResponse{
			Error:   "remote_unavailable",
			Message: err.Error(),
		})
	}
	return c.Status(http.StatusOK).JSON(data)
}

// LoadSnapshot godoc
// @Summary Load the stored aggregate
// @Description Returns this device's last remotely stored aggregate
// @Tags Sync
// @Produce json
// @Success 200 {object} metrics.AnalyticsData
// @Failure 404 {object} ErrorResponse
// @Failure 502 {object} ErrorResponse
// @Router /analytics/snapshot [get]
func (h *SyncHandler) LoadSnapshot(c *fiber.Ctx) error {
	data, err := h.syncer.LoadSnapshot(c.UserContext())
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrRecordNotFound):
			return c.Status(http.StatusNotFound).JSON(ErrorResponse{
				Error:   "snapshot_not_found",
				Message: err.Error(),
			})
		default:
			return c.Status(http.StatusBadGateway).JSON(ErrorResponse{
				Error:   "remote_unavailable",
				Message: err.Error(),
			})
		}
	}
	return c.Status(http.StatusOK).JSON(data)
}
