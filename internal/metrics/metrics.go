package metrics

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	submissions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ledger_submitter",
			Subsystem: "channel",
			Name:      "submissions_total",
			Help:      "Channel submission attempts by outcome.",
		},
		[]string{"channel", "success"},
	)
	submissionDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "ledger_submitter",
			Subsystem: "channel",
			Name:      "submission_duration_seconds",
			Help:      "Channel submission attempt duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"channel", "success"},
	)
	executions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ledger_submitter",
			Subsystem: "engine",
			Name:      "executions_total",
			Help:      "Top-level executions by strategy and outcome.",
		},
		[]string{"strategy", "success"},
	)
	executionDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "ledger_submitter",
			Subsystem: "engine",
			Name:      "execution_duration_seconds",
			Help:      "Total wall-clock execution duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"strategy", "success"},
	)
	fallbackRetries = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "ledger_submitter",
			Subsystem: "engine",
			Name:      "fallback_retries",
			Help:      "Retries consumed per direct-fallback invocation.",
			Buckets:   []float64{0, 1, 2, 3, 4, 5},
		},
	)
)

// RegisterMetrics registers the collectors exactly once.
func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(submissions, submissionDuration, executions, executionDuration, fallbackRetries)
	})
}

// Tracker implements the engine's performance-tracker contract on top of
// Prometheus collectors.
type Tracker struct{}

// NewTracker constructs a Tracker, registering collectors on first use.
func NewTracker() *Tracker {
	RegisterMetrics()
	return &Tracker{}
}

// RecordSubmission records one channel attempt.
func (t *Tracker) RecordSubmission(channel string, success bool, elapsed time.Duration) {
	label := strconv.FormatBool(success)
	submissions.WithLabelValues(channel, label).Inc()
	submissionDuration.WithLabelValues(channel, label).Observe(elapsed.Seconds())
}

// RecordExecution records one top-level execution.
func (t *Tracker) RecordExecution(strategy string, success bool, elapsed time.Duration) {
	label := strconv.FormatBool(success)
	executions.WithLabelValues(strategy, label).Inc()
	executionDuration.WithLabelValues(strategy, label).Observe(elapsed.Seconds())
}

// RecordFallbackRetries records the retries consumed by a fallback run.
func (t *Tracker) RecordFallbackRetries(retries int) {
	fallbackRetries.Observe(float64(retries))
}
