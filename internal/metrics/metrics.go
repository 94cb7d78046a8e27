// Package metrics exposes Prometheus counters for the sync pipeline. A nil
// *Metrics is valid and records nothing.
package metrics

import (
	"context"
	"time"

	"github.com/matheus3301/huddle/internal/remote"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the collectors registered for one process.
type Metrics struct {
	SnapshotsTotal     prometheus.Counter
	MessagesInSnapshot prometheus.Gauge
	NotificationsTotal *prometheus.CounterVec
	BackgroundRuns     *prometheus.CounterVec
	SubmissionsTotal   *prometheus.CounterVec
	StoreLatency       *prometheus.HistogramVec
}

// New registers the collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		SnapshotsTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "huddle_snapshots_total",
			Help: "Snapshots applied by the sync engine",
		}),
		MessagesInSnapshot: f.NewGauge(prometheus.GaugeOpts{
			Name: "huddle_snapshot_messages",
			Help: "Messages in the most recently applied snapshot",
		}),
		NotificationsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "huddle_notifications_total",
				Help: "Notification attempts",
			},
			[]string{"source", "outcome"}, // source: live|background; outcome: shown|dropped|failed
		),
		BackgroundRuns: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "huddle_background_runs_total",
				Help: "Background task runs by result",
			},
			[]string{"result"},
		),
		SubmissionsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "huddle_submissions_total",
				Help: "Outbound submissions by outcome",
			},
			[]string{"outcome"}, // appended|failed
		),
		StoreLatency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "huddle_store_latency_seconds",
				Help:    "Remote store call latency",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 5},
			},
			[]string{"op"},
		),
	}
}

// Snapshot records an applied snapshot of n messages.
func (m *Metrics) Snapshot(n int) {
	if m == nil {
		return
	}
	m.SnapshotsTotal.Inc()
	m.MessagesInSnapshot.Set(float64(n))
}

// Notification records one notification attempt.
func (m *Metrics) Notification(source, outcome string) {
	if m == nil {
		return
	}
	m.NotificationsTotal.WithLabelValues(source, outcome).Inc()
}

// BackgroundRun records a background task result.
func (m *Metrics) BackgroundRun(result string) {
	if m == nil {
		return
	}
	m.BackgroundRuns.WithLabelValues(result).Inc()
}

// Submission records an outbound submission outcome.
func (m *Metrics) Submission(outcome string) {
	if m == nil {
		return
	}
	m.SubmissionsTotal.WithLabelValues(outcome).Inc()
}

// InstrumentStore wraps s so that every call is timed.
func (m *Metrics) InstrumentStore(s remote.Store) remote.Store {
	if m == nil {
		return s
	}
	return &instrumented{Store: s, latency: m.StoreLatency}
}

type instrumented struct {
	remote.Store
	latency *prometheus.HistogramVec
}

func (i *instrumented) Append(ctx context.Context, r remote.Record) (string, error) {
	defer i.observe("append", time.Now())
	return i.Store.Append(ctx, r)
}

func (i *instrumented) Fetch(ctx context.Context) (*remote.Snapshot, error) {
	defer i.observe("fetch", time.Now())
	return i.Store.Fetch(ctx)
}

func (i *instrumented) Subscribe(ctx context.Context, fn func(*remote.Snapshot)) (remote.Subscription, error) {
	defer i.observe("subscribe", time.Now())
	return i.Store.Subscribe(ctx, fn)
}

func (i *instrumented) observe(op string, start time.Time) {
	i.latency.WithLabelValues(op).Observe(time.Since(start).Seconds())
}
