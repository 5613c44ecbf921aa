package services

import "time"

// MetricsRecorder receives reconciliation counters. metrics.Recorder implements it.
type MetricsRecorder interface {
	MatchDecisions(status string, n int)
	MatchConfirmation(outcome string)
	PeriodLockAttempt(outcome string)
	TransferChange(status string, n int)
	SuggestionPass(d time.Duration)
}

type noopMetrics struct{}

func (noopMetrics) MatchDecisions(string, int) {}
func (noopMetrics) MatchConfirmation(string) {}
func (noopMetrics) PeriodLockAttempt(string) {}
func (noopMetrics) TransferChange(string, int) {}
func (noopMetrics) SuggestionPass(time.Duration) {}

// Outcome labels shared by the services.
const (
	outcomeConfirmed     = "confirmed"
	outcomeIdempotent    = "idempotent"
	outcomeManual        = "manual"
	outcomeConflict      = "conflict"
	outcomeLocked        = "locked"
	outcomeNotReconciled = "not_reconciled"
	outcomeError         = "error"
)
