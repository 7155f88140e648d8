// Package metrics exposes the pipeline's Prometheus collectors and the stage
// timer that also feeds a run's result snapshot.
package metrics

import (
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/cypherlabdev/odds-pipeline-service/internal/models"
)

const namespace = "odds_pipeline"

// Fetch and entity outcome labels
const (
	StatusSuccess = "success"
	StatusFailure = "failure"
)

// Metrics holds every collector the pipeline reports. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	StageDuration  *prometheus.HistogramVec
	Entities       *prometheus.CounterVec
	EventFetches   *prometheus.CounterVec
	Runs           *prometheus.CounterVec
	QuotaRemaining prometheus.Gauge
	QuotaUsed      prometheus.Gauge
}

// New creates the collectors and registers them with reg
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		StageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Duration of pipeline stages.",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		}, []string{"stage", "sport"}),
		Entities: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "entities_total",
			Help:      "Games, quotes and props written, by outcome.",
		}, []string{"entity", "status"}),
		EventFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "event_fetches_total",
			Help:      "Per-event upstream odds fetches, by outcome.",
		}, []string{"sport", "status"}),
		Runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Collection runs by terminal status.",
		}, []string{"status"}),
		QuotaRemaining: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "upstream_requests_remaining",
			Help:      "Requests remaining on the upstream feed quota.",
		}),
		QuotaUsed: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "upstream_requests_used",
			Help:      "Requests used on the upstream feed quota.",
		}),
	}

	reg.MustRegister(m.StageDuration, m.Entities, m.EventFetches, m.Runs, m.QuotaRemaining, m.QuotaUsed)
	return m
}

// Entity counts one written (or failed) entity
func (m *Metrics) Entity(entity string, err error) {
	if m == nil {
		return
	}
	m.Entities.WithLabelValues(entity, status(err)).Inc()
}

// EventFetch counts one per-event odds fetch
func (m *Metrics) EventFetch(sport models.Sport, err error) {
	if m == nil {
		return
	}
	m.EventFetches.WithLabelValues(string(sport), status(err)).Inc()
}

// Run counts a run reaching status
func (m *Metrics) Run(status models.RunStatus) {
	if m == nil {
		return
	}
	m.Runs.WithLabelValues(string(status)).Inc()
}

// Quota records the upstream feed's quota headers
func (m *Metrics) Quota(quota models.FeedQuota) {
	if m == nil {
		return
	}
	m.QuotaRemaining.Set(float64(quota.Remaining))
	m.QuotaUsed.Set(float64(quota.Used))
}

func status(err error) string {
	if err != nil {
		return StatusFailure
	}
	return StatusSuccess
}

// Timer measures one stage
type Timer struct {
	metrics *Metrics
	stage   string
	sport   string
	start   time.Time
	now     func() time.Time
}

// StartTimer starts timing stage. sport may be empty for run-wide stages.
func (m *Metrics) StartTimer(stage string, sport models.Sport) *Timer {
	return &Timer{
		metrics: m,
		stage:   stage,
		sport:   string(sport),
		start:   time.Now(),
		now:     time.Now,
	}
}

// Key is the entry the timer writes into RunResults.Timings
func (t *Timer) Key() string {
	if t.sport == "" {
		return t.stage
	}
	return t.stage + "." + strings.ToLower(t.sport)
}

// Stop observes the elapsed time and, when results is non-nil, stores it in
// milliseconds under Key. It returns the elapsed milliseconds.
func (t *Timer) Stop(results *models.RunResults) float64 {
	elapsed := t.now().Sub(t.start)
	ms := float64(elapsed.Microseconds()) / 1000

	if t.metrics != nil {
		t.metrics.StageDuration.WithLabelValues(t.stage, t.sport).Observe(elapsed.Seconds())
	}
	if results != nil {
		if results.Timings == nil {
			results.Timings = make(map[string]float64)
		}
		results.Timings[t.Key()] = ms
	}

	return ms
}
