package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ReaperMetrics provides observability for the stale upload reaper.
type ReaperMetrics interface {
	// RecordRun records one reaper pass.
	//
	// Parameters:
	//   - duration: Time taken by the pass
	//   - cancelled: Pending versions cancelled
	//   - skipped: Candidates resolved concurrently before the reaper got to them
	//   - failed: Candidates whose cancellation failed
	RecordRun(duration time.Duration, cancelled, skipped, failed int)
}

type reaperMetrics struct {
	runsTotal     prometheus.Counter
	runDuration   prometheus.Histogram
	versionsTotal *prometheus.CounterVec
	lastRun       prometheus.Gauge
}

var (
	reaperOnce     sync.Once
	reaperInstance ReaperMetrics
)

// NewReaperMetrics returns the reaper metrics bound to the global registry,
// or a no-op implementation when metrics are disabled.
func NewReaperMetrics() ReaperMetrics {
	if !IsEnabled() {
		return NoopReaperMetrics{}
	}

	reaperOnce.Do(func() {
		reaperInstance = NewReaperMetricsWith(GetRegistry())
	})
	return reaperInstance
}

// NewReaperMetricsWith registers reaper collectors on reg.
func NewReaperMetricsWith(reg prometheus.Registerer) ReaperMetrics {
	factory := promauto.With(reg)

	return &reaperMetrics{
		runsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reaper_runs_total",
			Help:      "Total number of reaper passes",
		}),
		runDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "reaper_run_duration_seconds",
			Help:      "Duration of reaper passes in seconds",
			Buckets:   prometheus.DefBuckets,
		}),
		versionsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reaper_versions_total",
			Help:      "Stale pending versions handled by the reaper, by outcome",
		}, []string{"outcome"}),
		lastRun: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "reaper_last_run_timestamp_seconds",
			Help:      "Unix time of the last completed reaper pass",
		}),
	}
}

func (m *reaperMetrics) RecordRun(duration time.Duration, cancelled, skipped, failed int) {
	m.runsTotal.Inc()
	m.runDuration.Observe(duration.Seconds())
	m.versionsTotal.WithLabelValues("cancelled").Add(float64(cancelled))
	m.versionsTotal.WithLabelValues("skipped").Add(float64(skipped))
	m.versionsTotal.WithLabelValues("failed").Add(float64(failed))
	m.lastRun.SetToCurrentTime()
}

// NoopReaperMetrics discards everything.
type NoopReaperMetrics struct{}

func (NoopReaperMetrics) RecordRun(time.Duration, int, int, int) {}
