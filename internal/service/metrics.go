package service

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/xiaot623/chatbridge/internal/domain"
)

// Metrics holds the pipeline collectors. A nil *Metrics records nothing.
type Metrics struct {
	Requests      *prometheus.CounterVec
	StatusQueries prometheus.Counter
	PollDuration  *prometheus.HistogramVec
	CancelledRuns prometheus.Counter
}

// NewMetrics creates the collectors and registers them on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "chatbridge",
			Subsystem: "chat",
			Name:      "requests_total",
			Help:      "Chat requests by outcome",
		}, []string{"outcome"}),
		StatusQueries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "chatbridge",
			Subsystem: "poller",
			Name:      "status_queries_total",
			Help:      "Run status queries sent to the assistants API",
		}),
		PollDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "chatbridge",
			Subsystem: "poller",
			Name:      "wait_seconds",
			Help:      "Time spent waiting for a run to settle",
			Buckets:   []float64{0.25, 0.5, 1, 2, 4, 8, 16, 32},
		}, []string{"decision"}),
		CancelledRuns: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "chatbridge",
			Subsystem: "poller",
			Name:      "cancelled_runs_total",
			Help:      "Runs cancelled after the wait budget ran out",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.Requests, m.StatusQueries, m.PollDuration, m.CancelledRuns)
	}
	return m
}

func (m *Metrics) observeOutcome(outcome domain.Outcome) {
	if m == nil {
		return
	}
	m.Requests.WithLabelValues(string(outcome)).Inc()
}

func (m *Metrics) observeStatusQuery() {
	if m == nil {
		return
	}
	m.StatusQueries.Inc()
}

func (m *Metrics) observeWait(label string, seconds float64) {
	if m == nil {
		return
	}
	m.PollDuration.WithLabelValues(label).Observe(seconds)
}

func (m *Metrics) observeCancel() {
	if m == nil {
		return
	}
	m.CancelledRuns.Inc()
}
