package fiber

import (
	"context"
	"net/http"

	"landing-analytics/internal/events/core/domain"
	"landing-analytics/internal/events/core/usecase"

	"github.com/gofiber/fiber/v2"
)

type SessionTracker interface {
	Activate(ctx context.Context, v domain.Visitor) (domain.SessionData, bool)
	Deactivate(ctx context.Context) (domain.SessionData, bool)
	TrackClick(ctx context.Context, in usecase.ClickInput) (domain.ClickEvent, bool)
	Clear(ctx context.Context) error
}

type ClickCleaner interface {
	CleanupRemovedCarouselItems(ctx context.Context, items []domain.ContentItem) bool
}

type EventHandler struct {
	tracker SessionTracker
	cleaner ClickCleaner
}

func NewEventHandler(tracker SessionTracker, cleaner ClickCleaner) *EventHandler {
	return &EventHandler{tracker: tracker, cleaner: cleaner}
}

// StartSession godoc
// @Summary Start a visitor session
// @Description Finalizes any active session and starts a new one
// @Tags Sessions
// @Accept json
// @Produce json
// @Param request body StartSessionRequest false "Visitor details"
// @Success 201 {object} SessionResponse
// @Success 200 {object} SessionResponse "Session tracking disabled"
// @Failure 400 {object} ErrorResponse
// @Router /sessions [post]
func (h *EventHandler) StartSession(c *fiber.Ctx) error {
	var req StartSessionRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return c.Status(http.StatusBadRequest).JSON(ErrorResponse{
				Error: "invalid_json",
			})
		}
	}

	v := domain.Visitor{
		UserAgent: req.UserAgent,
		Referrer:  req.Referrer,
		Country:   req.Country,
		City:      req.City,
	}
	if v.UserAgent == "" {
		v.UserAgent = c.Get(fiber.HeaderUserAgent)
	}
	if v.Referrer == "" {
		v.Referrer = c.Get(fiber.HeaderReferer)
	}

	s, ok := h.tracker.Activate(c.UserContext(), v)
	if !ok {
		return c.Status(http.StatusOK).JSON(SessionResponse{Tracked: false})
	}
	return c.Status(http.StatusCreated).JSON(SessionResponse{Tracked: true, Session: &s})
}

// EndSession godoc
// @Summary End the active session
// @Description Sets endTime and duration on the active session
// @Tags Sessions
// @Produce json
// @Success 200 {object} SessionResponse
// @Failure 404 {object} ErrorResponse
// @Router /sessions/current [delete]
func (h *EventHandler) EndSession(c *fiber.Ctx) error {
	s, ok := h.tracker.Deactivate(c.UserContext())
	if !ok {
		return c.Status(http.StatusNotFound).JSON(ErrorResponse{
			Error: "no_active_session",
		})
	}
	return c.Status(http.StatusOK).JSON(SessionResponse{Tracked: true, Session: &s})
}

// TrackClick godoc
// @Summary Track a link click
// @Description Records a click against the active session
// @Tags Clicks
// @Accept json
// @Produce json
// @Param request body TrackClickRequest true "Click payload"
// @Success 201 {object} ClickResponse
// @Success 200 {object} ClickResponse "Click tracking disabled or no active session"
// @Failure 400 {object} ErrorResponse
// @Router /clicks [post]
func (h *EventHandler) TrackClick(c *fiber.Ctx) error {
	var req TrackClickRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(ErrorResponse{
			Error: "invalid_json",
		})
	}

	in := usecase.ClickInput{URL: req.URL, Title: req.Title, ItemID: req.ItemID}
	if err := usecase.ValidateClick(in); err != nil {
		return c.Status(http.StatusBadRequest).JSON(ErrorResponse{
			Error:   "invalid_click",
			Message: err.Error(),
		})
	}

	click, ok := h.tracker.TrackClick(c.UserContext(), in)
	if !ok {
		return c.Status(http.StatusOK).JSON(ClickResponse{Tracked: false})
	}
	return c.Status(http.StatusCreated).JSON(ClickResponse{Tracked: true, Click: &click})
}

// CleanupClicks godoc
// @Summary Prune clicks of removed content
// @Description Removes stored clicks that point at items no longer present
// @Tags Clicks
// @Accept json
// @Produce json
// @Param request body CleanupRequest true "Current content items"
// @Success 200 {object} CleanupResponse
// @Failure 400 {object} ErrorResponse
// @Router /clicks/cleanup [post]
func (h *EventHandler) CleanupClicks(c *fiber.Ctx) error {
	var req CleanupRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(ErrorResponse{
			Error: "invalid_json",
		})
	}

	items := make([]domain.ContentItem, len(req.Items))
	for i, it := range req.Items {
		items[i] = domain.ContentItem{ID: it.ID, Title: it.Title, URL: it.URL}
	}

	removed := h.cleaner.CleanupRemovedCarouselItems(c.UserContext(), items)
	return c.Status(http.StatusOK).JSON(CleanupResponse{Removed: removed})
}

// ClearAnalytics godoc
// @Summary Clear local analytics
// @Description Removes every stored click, session and the cached aggregate
// @Tags Analytics
// @Success 204
// @Failure 500 {object} ErrorResponse
// @Router /analytics [delete]
func (h *EventHandler) ClearAnalytics(c *fiber.Ctx) error {
	if err := h.tracker.Clear(c.UserContext()); err != nil {
		return c.Status(http.StatusInternalServerError).JSON(ErrorResponse{
			Error:   "storage_unavailable",
			Message: err.Error(),
		})
	}
	return c.SendStatus(http.StatusNoContent)
}
