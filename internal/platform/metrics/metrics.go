// Package metrics exposes reconciliation counters and timings in Prometheus format.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "reconciliation"

// Recorder owns the reconciliation collectors of one registry.
type Recorder struct {
	registry           *prometheus.Registry
	suggestions        *prometheus.CounterVec
	matchConfirmations *prometheus.CounterVec
	lockAttempts       *prometheus.CounterVec
	transfers          *prometheus.CounterVec
	scoringDuration    prometheus.Histogram
}

// NewRecorder registers the collectors, plus the Go and process collectors, on a fresh registry.
func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()
	r := &Recorder{
		registry: reg,
		suggestions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "match_decisions_total",
			Help:      "Match rows written by suggestion passes, by resulting status.",
		}, []string{"status"}),
		matchConfirmations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "match_confirmations_total",
			Help:      "Match confirmations by outcome.",
		}, []string{"outcome"}),
		lockAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "period_lock_attempts_total",
			Help:      "Period lock attempts by outcome.",
		}, []string{"outcome"}),
		transfers: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transfers_total",
			Help:      "Transfer state changes by resulting status.",
		}, []string{"status"}),
		scoringDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "suggestion_pass_duration_seconds",
			Help:      "Duration of suggestion generation passes.",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		r.suggestions, r.matchConfirmations, r.lockAttempts, r.transfers, r.scoringDuration,
	)
	return r
}

// Handler serves the registry for /metrics.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

func (r *Recorder) MatchDecisions(status string, n int) {
	if n > 0 {
		r.suggestions.WithLabelValues(status).Add(float64(n))
	}
}

func (r *Recorder) MatchConfirmation(outcome string) {
	r.matchConfirmations.WithLabelValues(outcome).Inc()
}

func (r *Recorder) PeriodLockAttempt(outcome string) {
	r.lockAttempts.WithLabelValues(outcome).Inc()
}

func (r *Recorder) TransferChange(status string, n int) {
	if n > 0 {
		r.transfers.WithLabelValues(status).Add(float64(n))
	}
}

func (r *Recorder) SuggestionPass(d time.Duration) {
	r.scoringDuration.Observe(d.Seconds())
}
