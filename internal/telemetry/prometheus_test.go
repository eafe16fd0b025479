package telemetry

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	eventports "landing-analytics/internal/events/core/ports"
	syncports "landing-analytics/internal/sync/core/ports"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	_ eventports.Recorder    = (*Collector)(nil)
	_ syncports.SyncRecorder = (*Collector)(nil)
)

func TestCollector_Sessions(t *testing.T) {
	c := NewCollector()

	c.SessionStarted()
	c.SessionStarted()
	c.SessionEnded(2500)

	assert.Equal(t, 2.0, testutil.ToFloat64(c.sessionsStarted))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.sessionsEnded))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.activeSessions))
	assert.Equal(t, 1, testutil.CollectAndCount(c.sessionDuration))
}

func TestCollector_Clicks(t *testing.T) {
	c := NewCollector()

	c.ClickTracked()
	c.ClicksPruned(3)
	c.ClicksPruned(0)

	assert.Equal(t, 1.0, testutil.ToFloat64(c.clicksTracked))
	assert.Equal(t, 3.0, testutil.ToFloat64(c.clicksPruned))
}

func TestCollector_Sync(t *testing.T) {
	c := NewCollector()

	c.SyncCompleted(true, 2)
	c.SyncCompleted(false, 0)
	c.SyncCompleted(true, 0)

	assert.Equal(t, 2.0, testutil.ToFloat64(c.syncRuns.WithLabelValues("true")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.syncRuns.WithLabelValues("false")))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.failedWrites))
}

func TestCollector_Handler(t *testing.T) {
	c := NewCollector()
	c.ClickTracked()

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body, _ := io.ReadAll(rec.Body)
	assert.True(t, strings.Contains(string(body), "landing_analytics_clicks_tracked_total 1"))
}
