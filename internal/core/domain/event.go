package domain

import (
	"time"

	"github.com/google/uuid"
)

// Event types emitted after successful reconciliation changes.
const (
	EventMatchSuggested    = "match.suggested"
	EventMatchConfirmed    = "match.confirmed"
	EventMatchUnmatched    = "match.unmatched"
	EventTransferDetected  = "transfer.detected"
	EventTransferConfirmed = "transfer.confirmed"
	EventTransferRejected  = "transfer.rejected"
	EventPeriodLocked      = "period.locked"
	EventPeriodUnlocked    = "period.unlocked"
)

// ReconciliationEvent is an outbound notification. AggregateID is the match id,
// transfer id, or "<account>:<period>" for period events.
type ReconciliationEvent struct {
	EventID       string    `json:"eventID"`
	EventType     string    `json:"eventType"`
	WorkplaceID   string    `json:"workplaceID"`
	AggregateID   string    `json:"aggregateID"`
	AggregateType string    `json:"aggregateType"`
	Actor         string    `json:"actor"`
	OccurredAt    time.Time `json:"occurredAt"`
	Payload       any       `json:"payload"`
}

// NewReconciliationEvent stamps a new event id and time.
func NewReconciliationEvent(eventType, workplaceID, aggregateType, aggregateID, actor string, payload any) ReconciliationEvent {
	return ReconciliationEvent{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		WorkplaceID:   workplaceID,
		AggregateID:   aggregateID,
		AggregateType: aggregateType,
		Actor:         actor,
		OccurredAt:    time.Now().UTC(),
		Payload:       payload,
	}
}
