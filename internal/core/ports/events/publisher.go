package events

import (
	"context"

	"github.com/SscSPs/bank_reconciliation/internal/core/domain"
)

// Publisher delivers reconciliation events to downstream consumers.
type Publisher interface {
	Publish(ctx context.Context, events ...domain.ReconciliationEvent) error
}
