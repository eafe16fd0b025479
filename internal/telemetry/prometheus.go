// Package telemetry exposes tracking and sync counters to Prometheus.
package telemetry

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "landing_analytics"

// Collector implements the events Recorder and the sync SyncRecorder.
type Collector struct {
	registry *prometheus.Registry

	sessionsStarted prometheus.Counter
	sessionsEnded   prometheus.Counter
	sessionDuration prometheus.Histogram
	activeSessions  prometheus.Gauge
	clicksTracked   prometheus.Counter
	clicksPruned    prometheus.Counter

	syncRuns     *prometheus.CounterVec
	failedWrites prometheus.Counter
}

func NewCollector() *Collector {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Collector{
		registry: reg,

		sessionsStarted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_started_total",
			Help:      "Total number of visitor sessions started",
		}),
		sessionsEnded: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_ended_total",
			Help:      "Total number of visitor sessions finalized",
		}),
		sessionDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "session_duration_seconds",
			Help:      "Duration of finalized sessions in seconds",
			Buckets:   []float64{1, 5, 15, 30, 60, 180, 600, 1800, 3600},
		}),
		activeSessions: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_sessions",
			Help:      "Sessions started and not yet finalized",
		}),
		clicksTracked: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "clicks_tracked_total",
			Help:      "Total number of tracked link clicks",
		}),
		clicksPruned: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "clicks_pruned_total",
			Help:      "Clicks removed because their content no longer exists",
		}),
		syncRuns: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sync_runs_total",
			Help:      "Remote sync runs by whether the remote could be read",
		}, []string{"fetched"}),
		failedWrites: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sync_failed_writes_total",
			Help:      "Remote record writes that failed during sync",
		}),
	}
}

func (c *Collector) SessionStarted() {
	c.sessionsStarted.Inc()
	c.activeSessions.Inc()
}

func (c *Collector) SessionEnded(durationMs int64) {
	c.sessionsEnded.Inc()
	c.activeSessions.Dec()
	c.sessionDuration.Observe(float64(durationMs) / 1000)
}

func (c *Collector) ClickTracked() {
	c.clicksTracked.Inc()
}

func (c *Collector) ClicksPruned(n int) {
	c.clicksPruned.Add(float64(n))
}

func (c *Collector) SyncCompleted(fetched bool, failedWrites int) {
	c.syncRuns.WithLabelValues(strconv.FormatBool(fetched)).Inc()
	c.failedWrites.Add(float64(failedWrites))
}

// Handler serves the collector's registry in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
