package fiber

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"landing-analytics/internal/events/core/domain"
	"landing-analytics/internal/events/core/usecase"

	"github.com/gofiber/fiber/v2"
)

type fakeTracker struct {
	ActivateFunc   func(ctx context.Context, v domain.Visitor) (domain.SessionData, bool)
	DeactivateFunc func(ctx context.Context) (domain.SessionData, bool)
	TrackClickFunc func(ctx context.Context, in usecase.ClickInput) (domain.ClickEvent, bool)
	ClearFunc      func(ctx context.Context) error

	LastVisitor    domain.Visitor
	LastClickInput usecase.ClickInput
	trackCalled    bool
}

func (f *fakeTracker) Activate(ctx context.Context, v domain.Visitor) (domain.SessionData, bool) {
	f.LastVisitor = v
	if f.ActivateFunc != nil {
		return f.ActivateFunc(ctx, v)
	}
	return domain.SessionData{}, false
}

func (f *fakeTracker) Deactivate(ctx context.Context) (domain.SessionData, bool) {
	if f.DeactivateFunc != nil {
		return f.DeactivateFunc(ctx)
	}
	return domain.SessionData{}, false
}

func (f *fakeTracker) TrackClick(ctx context.Context, in usecase.ClickInput) (domain.ClickEvent, bool) {
	f.trackCalled = true
	f.LastClickInput = in
	if f.TrackClickFunc != nil {
		return f.TrackClickFunc(ctx, in)
	}
	return domain.ClickEvent{}, false
}

func (f *fakeTracker) Clear(ctx context.Context) error {
	if f.ClearFunc != nil {
		return f.ClearFunc(ctx)
	}
	return nil
}

type fakeCleaner struct {
	LastItems []domain.ContentItem
	removed   bool
}

func (f *fakeCleaner) CleanupRemovedCarouselItems(ctx context.Context, items []domain.ContentItem) bool {
	f.LastItems = items
	return f.removed
}

// helper: create fiber app and routes
func setupTestApp(tr SessionTracker, cl ClickCleaner) *fiber.App {
	app := fiber.New()
	h := NewEventHandler(tr, cl)

	app.Post("/sessions", h.StartSession)
	app.Delete("/sessions/current", h.EndSession)
	app.Post("/clicks", h.TrackClick)
	app.Post("/clicks/cleanup", h.CleanupClicks)
	app.Delete("/analytics", h.ClearAnalytics)

	return app
}

// helper: send request
func doRequest(t *testing.T, app *fiber.App, req *http.Request) (*http.Response, []byte) {
	t.Helper()

	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("app.Test error: %v", err)
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read response body: %v", err)
	}
	_ = resp.Body.Close()

	return resp, respBody
}

func jsonRequest(t *testing.T, method, path string, body any) *http.Request {
	t.Helper()

	var buf io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal body: %v", err)
		}
		buf = bytes.NewReader(b)
	}

	req := httptest.NewRequest(method, path, buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

// ------------------------------------------------------------
// SESSIONS
// ------------------------------------------------------------

func TestStartSession_Created(t *testing.T) {
	tr := &fakeTracker{
		ActivateFunc: func(ctx context.Context, v domain.Visitor) (domain.SessionData, bool) {
			return domain.SessionData{ID: "s1", PageViews: 1, UserAgent: v.UserAgent}, true
		},
	}
	app := setupTestApp(tr, &fakeCleaner{})

	req := jsonRequest(t, http.MethodPost, "/sessions", StartSessionRequest{Country: "TR", City: "Izmir"})
	req.Header.Set("User-Agent", "test-agent")
	req.Header.Set("Referer", "https://instagram.com")

	resp, body := doRequest(t, app, req)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected status %d, got %d (body: %s)", http.StatusCreated, resp.StatusCode, string(body))
	}

	if tr.LastVisitor.UserAgent != "test-agent" || tr.LastVisitor.Referrer != "https://instagram.com" {
		t.Errorf("expected header fallbacks, got %+v", tr.LastVisitor)
	}
	if tr.LastVisitor.Country != "TR" || tr.LastVisitor.City != "Izmir" {
		t.Errorf("expected location from body, got %+v", tr.LastVisitor)
	}

	var got SessionResponse
	if err := json.Unmarshal(body, &got); err != nil {
		t.Fatalf("invalid json response: %v", err)
	}
	if !got.Tracked || got.Session == nil || got.Session.ID != "s1" {
		t.Errorf("unexpected response: %s", string(body))
	}
}

func TestStartSession_EmptyBody(t *testing.T) {
	tr := &fakeTracker{
		ActivateFunc: func(ctx context.Context, v domain.Visitor) (domain.SessionData, bool) {
			return domain.SessionData{ID: "s1"}, true
		},
	}
	app := setupTestApp(tr, &fakeCleaner{})

	req := httptest.NewRequest(http.MethodPost, "/sessions", nil)
	resp, body := doRequest(t, app, req)

	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected status %d, got %d (body: %s)", http.StatusCreated, resp.StatusCode, string(body))
	}
}

func TestStartSession_Disabled(t *testing.T) {
	app := setupTestApp(&fakeTracker{}, &fakeCleaner{})

	resp, body := doRequest(t, app, jsonRequest(t, http.MethodPost, "/sessions", StartSessionRequest{}))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}

	var got map[string]any
	if err := json.Unmarshal(body, &got); err != nil {
		t.Fatalf("invalid json response: %v", err)
	}
	if got["tracked"] != false {
		t.Errorf("expected tracked=false, got %v", got["tracked"])
	}
	if _, ok := got["session"]; ok {
		t.Errorf("expected no session in response")
	}
}

func TestStartSession_InvalidJSON(t *testing.T) {
	app := setupTestApp(&fakeTracker{}, &fakeCleaner{})

	req := httptest.NewRequest(http.MethodPost, "/sessions", bytes.NewBufferString(`{"userAgent":`))
	req.Header.Set("Content-Type", "application/json")

	resp, _ := doRequest(t, app, req)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected status %d, got %d", http.StatusBadRequest, resp.StatusCode)
	}
}

func TestEndSession(t *testing.T) {
	end, dur := int64(2000), int64(1000)
	tr := &fakeTracker{
		DeactivateFunc: func(ctx context.Context) (domain.SessionData, bool) {
			return domain.SessionData{ID: "s1", StartTime: 1000, EndTime: &end, Duration: &dur}, true
		},
	}
	app := setupTestApp(tr, &fakeCleaner{})

	resp, body := doRequest(t, app, httptest.NewRequest(http.MethodDelete, "/sessions/current", nil))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d (body: %s)", http.StatusOK, resp.StatusCode, string(body))
	}

	var got SessionResponse
	if err := json.Unmarshal(body, &got); err != nil {
		t.Fatalf("invalid json response: %v", err)
	}
	if got.Session == nil || got.Session.Duration == nil || *got.Session.Duration != 1000 {
		t.Errorf("unexpected response: %s", string(body))
	}
}

func TestEndSession_NoActiveSession(t *testing.T) {
	app := setupTestApp(&fakeTracker{}, &fakeCleaner{})

	resp, _ := doRequest(t, app, httptest.NewRequest(http.MethodDelete, "/sessions/current", nil))
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected status %d, got %d", http.StatusNotFound, resp.StatusCode)
	}
}

// ------------------------------------------------------------
// CLICKS
// ------------------------------------------------------------

func TestTrackClick_Created(t *testing.T) {
	tr := &fakeTracker{
		TrackClickFunc: func(ctx context.Context, in usecase.ClickInput) (domain.ClickEvent, bool) {
			return domain.ClickEvent{ID: "c1", URL: in.URL, Title: in.Title, ItemID: in.ItemID, SessionID: "s1"}, true
		},
	}
	app := setupTestApp(tr, &fakeCleaner{})

	reqBody := TrackClickRequest{URL: "https://shop.example.com", Title: "Shop - Sale", ItemID: "42"}
	resp, body := doRequest(t, app, jsonRequest(t, http.MethodPost, "/clicks", reqBody))

	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected status %d, got %d (body: %s)", http.StatusCreated, resp.StatusCode, string(body))
	}
	if tr.LastClickInput != (usecase.ClickInput{URL: reqBody.URL, Title: reqBody.Title, ItemID: "42"}) {
		t.Errorf("unexpected input: %+v", tr.LastClickInput)
	}

	var got ClickResponse
	if err := json.Unmarshal(body, &got); err != nil {
		t.Fatalf("invalid json response: %v", err)
	}
	if got.Click == nil || got.Click.ID != "c1" || got.Click.ItemID != "42" {
		t.Errorf("unexpected response: %s", string(body))
	}
}

func TestTrackClick_NotTracked(t *testing.T) {
	app := setupTestApp(&fakeTracker{}, &fakeCleaner{})

	resp, body := doRequest(t, app, jsonRequest(t, http.MethodPost, "/clicks", TrackClickRequest{URL: "https://x"}))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d (body: %s)", http.StatusOK, resp.StatusCode, string(body))
	}
}

func TestTrackClick_MissingURL(t *testing.T) {
	tr := &fakeTracker{}
	app := setupTestApp(tr, &fakeCleaner{})

	resp, body := doRequest(t, app, jsonRequest(t, http.MethodPost, "/clicks", TrackClickRequest{Title: "No link"}))
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected status %d, got %d", http.StatusBadRequest, resp.StatusCode)
	}
	if tr.trackCalled {
		t.Errorf("tracker must not be called for invalid clicks")
	}

	var got ErrorResponse
	if err := json.Unmarshal(body, &got); err != nil {
		t.Fatalf("invalid json response: %v", err)
	}
	if got.Error != "invalid_click" {
		t.Errorf("expected invalid_click, got %q", got.Error)
	}
}

func TestCleanupClicks(t *testing.T) {
	cl := &fakeCleaner{removed: true}
	app := setupTestApp(&fakeTracker{}, cl)

	reqBody := CleanupRequest{Items: []contentItem{{ID: "1", Title: "Summer", URL: "https://a"}}}
	resp, body := doRequest(t, app, jsonRequest(t, http.MethodPost, "/clicks/cleanup", reqBody))

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d (body: %s)", http.StatusOK, resp.StatusCode, string(body))
	}
	if len(cl.LastItems) != 1 || cl.LastItems[0] != (domain.ContentItem{ID: "1", Title: "Summer", URL: "https://a"}) {
		t.Errorf("unexpected items: %+v", cl.LastItems)
	}

	var got CleanupResponse
	if err := json.Unmarshal(body, &got); err != nil {
		t.Fatalf("invalid json response: %v", err)
	}
	if !got.Removed {
		t.Errorf("expected removed=true")
	}
}

// ------------------------------------------------------------
// CLEAR
// ------------------------------------------------------------

func TestClearAnalytics(t *testing.T) {
	app := setupTestApp(&fakeTracker{}, &fakeCleaner{})

	resp, _ := doRequest(t, app, httptest.NewRequest(http.MethodDelete, "/analytics", nil))
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("expected status %d, got %d", http.StatusNoContent, resp.StatusCode)
	}
}

func TestClearAnalytics_StorageError(t *testing.T) {
	tr := &fakeTracker{
		ClearFunc: func(ctx context.Context) error {
			return errors.Join(domain.ErrStorageUnavailable, errors.New("disk full"))
		},
	}
	app := setupTestApp(tr, &fakeCleaner{})

	resp, _ := doRequest(t, app, httptest.NewRequest(http.MethodDelete, "/analytics", nil))
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("expected status %d, got %d", http.StatusInternalServerError, resp.StatusCode)
	}
}
