package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/SscSPs/bank_reconciliation/internal/core/domain"
	portsevents "github.com/SscSPs/bank_reconciliation/internal/core/ports/events"
	portssvc "github.com/SscSPs/bank_reconciliation/internal/core/ports/services"
	"github.com/SscSPs/bank_reconciliation/internal/middleware"
)

// BaseService provides common functionality for all services
type BaseService struct {
	WorkplaceAuthorizer portssvc.WorkplaceAuthorizerSvc
	Events              portsevents.Publisher
	Metrics             MetricsRecorder
	Clock               func() time.Time
}

// Option configures the shared collaborators of a service.
type Option func(*BaseService)

// WithWorkplaceAuthorizer adds workplace authorizer dependency
func WithWorkplaceAuthorizer(authorizer portssvc.WorkplaceAuthorizerSvc) Option {
	return func(s *BaseService) {
		s.WorkplaceAuthorizer = authorizer
	}
}

// WithEventPublisher sets where reconciliation events go after successful changes
func WithEventPublisher(publisher portsevents.Publisher) Option {
	return func(s *BaseService) {
		s.Events = publisher
	}
}

// WithMetrics sets the metrics recorder
func WithMetrics(recorder MetricsRecorder) Option {
	return func(s *BaseService) {
		s.Metrics = recorder
	}
}

// WithClock overrides time.Now, mostly for tests
func WithClock(clock func() time.Time) Option {
	return func(s *BaseService) {
		s.Clock = clock
	}
}

func (s *BaseService) apply(opts []Option) {
	for _, opt := range opts {
		opt(s)
	}
}

// GetLogger gets the logger from context or returns a default one
func (s *BaseService) GetLogger(ctx context.Context) *slog.Logger {
	return middleware.GetLoggerFromCtx(ctx)
}

// LogError logs an error with consistent formatting
func (s *BaseService) LogError(ctx context.Context, err error, msg string, keyvals ...any) {
	logger := s.GetLogger(ctx)
	args := make([]any, 0, len(keyvals)+1)
	args = append(args, slog.String("error", err.Error()))
	args = append(args, keyvals...)
	logger.Error(msg, args...)
}

// LogInfo logs an info message with consistent formatting
func (s *BaseService) LogInfo(ctx context.Context, msg string, keyvals ...any) {
	s.GetLogger(ctx).Info(msg, keyvals...)
}

// LogDebug logs a debug message with consistent formatting
func (s *BaseService) LogDebug(ctx context.Context, msg string, keyvals ...any) {
	s.GetLogger(ctx).Debug(msg, keyvals...)
}

// AuthorizeUser checks if a user has the required role for a workplace
func (s *BaseService) AuthorizeUser(ctx context.Context, userID, workplaceID string, requiredRole domain.UserWorkplaceRole) error {
	if s.WorkplaceAuthorizer != nil {
		return s.WorkplaceAuthorizer.AuthorizeUserAction(ctx, userID, workplaceID, requiredRole)
	}
	// No authorizer is wired for trusted callers such as the scan CLI.
	s.LogDebug(ctx, "No workplace authorizer provided, access granted by default",
		slog.String("user_id", userID),
		slog.String("workplace_id", workplaceID),
		slog.String("required_role", string(requiredRole)))
	return nil
}

// Now returns the current UTC time from the configured clock.
func (s *BaseService) Now() time.Time {
	if s.Clock != nil {
		return s.Clock().UTC()
	}
	return time.Now().UTC()
}

// Publish sends events after a committed change. Failures are logged and never returned.
func (s *BaseService) Publish(ctx context.Context, events ...domain.ReconciliationEvent) {
	if s.Events == nil || len(events) == 0 {
		return
	}
	if err := s.Events.Publish(ctx, events...); err != nil {
		s.LogError(ctx, err, "Failed to publish reconciliation events",
			slog.Int("count", len(events)),
			slog.String("event_type", events[0].EventType))
	}
}

func (s *BaseService) metrics() MetricsRecorder {
	if s.Metrics == nil {
		return noopMetrics{}
	}
	return s.Metrics
}
