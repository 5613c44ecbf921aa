package events

import (
	"context"
	"errors"
	"log/slog"

	"github.com/SscSPs/bank_reconciliation/internal/core/domain"
	portsevents "github.com/SscSPs/bank_reconciliation/internal/core/ports/events"
	"github.com/SscSPs/bank_reconciliation/internal/middleware"
	"github.com/SscSPs/bank_reconciliation/internal/utils"
)

// LogPublisher writes events to the request logger. Used when no broker is configured.
type LogPublisher struct{}

var _ portsevents.Publisher = LogPublisher{}

func (LogPublisher) Publish(ctx context.Context, events ...domain.ReconciliationEvent) error {
	logger := middleware.GetLoggerFromCtx(ctx)
	for _, ev := range events {
		logger.Info("Reconciliation event",
			slog.String("event_type", ev.EventType),
			slog.String("event_id", ev.EventID),
			slog.String("workplace_id", ev.WorkplaceID),
			slog.String("aggregate_id", ev.AggregateID))
	}
	return nil
}

// AnalyticsPublisher forwards events to PostHog, attributed to the acting user.
type AnalyticsPublisher struct {
	client *utils.PosthogClientWrapper
}

var _ portsevents.Publisher = (*AnalyticsPublisher)(nil)

func NewAnalyticsPublisher(client *utils.PosthogClientWrapper) *AnalyticsPublisher {
	return &AnalyticsPublisher{client: client}
}

func (p *AnalyticsPublisher) Publish(_ context.Context, events ...domain.ReconciliationEvent) error {
	for _, ev := range events {
		p.client.Enqueue(ev.Actor, ev.EventType, map[string]any{
			"workplace_id":   ev.WorkplaceID,
			"aggregate_type": ev.AggregateType,
			"aggregate_id":   ev.AggregateID,
		})
	}
	return nil
}

// FanOut publishes to every publisher and joins their errors.
type FanOut []portsevents.Publisher

var _ portsevents.Publisher = FanOut(nil)

func (f FanOut) Publish(ctx context.Context, events ...domain.ReconciliationEvent) error {
	var errs []error
	for _, p := range f {
		if err := p.Publish(ctx, events...); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
