package services

import (
	"context"
	"errors"
	"log/slog"

	"github.com/SscSPs/bank_reconciliation/internal/apperrors"
	"github.com/SscSPs/bank_reconciliation/internal/core/domain"
	portsrepo "github.com/SscSPs/bank_reconciliation/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/bank_reconciliation/internal/core/ports/services"
)

type periodService struct {
	BaseService
	periodRepo portsrepo.PeriodLockRepository
}

// NewPeriodService creates the period lock service.
func NewPeriodService(periodRepo portsrepo.PeriodLockRepository, opts ...Option) portssvc.PeriodSvcFacade {
	svc := &periodService{periodRepo: periodRepo}
	svc.apply(opts)
	return svc
}

var _ portssvc.PeriodSvcFacade = (*periodService)(nil)

func (s *periodService) GetReconciliationStatus(ctx context.Context, workplaceID, accountID string, period domain.Period, userID string) (*domain.PeriodStatus, error) {
	if err := s.AuthorizeUser(ctx, userID, workplaceID, domain.RoleReadOnly); err != nil {
		return nil, err
	}
	if err := validateAccountPeriod(accountID, period); err != nil {
		return nil, err
	}
	status, err := s.periodRepo.GetPeriodStatus(ctx, workplaceID, accountID, period)
	if err != nil {
		s.LogError(ctx, err, "Failed to get period status",
			slog.String("account_id", accountID), slog.String("period", period.String()))
		return nil, err
	}
	return status, nil
}

// LockPeriod locks the account period when every feed line is matched or resolved by a
// confirmed transfer. On rejection the evaluated status is returned along with an error
// matching apperrors.ErrPeriodNotReconciled.
func (s *periodService) LockPeriod(ctx context.Context, workplaceID, accountID string, period domain.Period, userID string) (*domain.PeriodStatus, error) {
	if err := s.AuthorizeUser(ctx, userID, workplaceID, domain.RoleMember); err != nil {
		return nil, err
	}
	if err := validateAccountPeriod(accountID, period); err != nil {
		return nil, err
	}

	status, changed, err := s.periodRepo.LockPeriod(ctx, workplaceID, accountID, period, userID, s.Now())
	switch {
	case errors.Is(err, apperrors.ErrPeriodNotReconciled):
		s.metrics().PeriodLockAttempt(outcomeNotReconciled)
		attrs := []any{slog.String("account_id", accountID), slog.String("period", period.String())}
		if status != nil {
			attrs = append(attrs, slog.Int("suggested", status.Suggested), slog.Int("unmatched", status.Unmatched))
		}
		s.LogInfo(ctx, "Period lock rejected, open items remain", attrs...)
		return status, err
	case err != nil:
		s.metrics().PeriodLockAttempt(outcomeError)
		s.LogError(ctx, err, "Failed to lock period",
			slog.String("account_id", accountID), slog.String("period", period.String()))
		return nil, err
	case !changed:
		s.metrics().PeriodLockAttempt(outcomeIdempotent)
		return status, nil
	}

	s.metrics().PeriodLockAttempt(outcomeLocked)
	s.Publish(ctx, periodEvent(domain.EventPeriodLocked, status, userID))
	s.LogInfo(ctx, "Period locked",
		slog.String("account_id", accountID),
		slog.String("period", period.String()),
		slog.Int("matched", status.Matched),
		slog.Int("transfers", status.ResolvedTransfers))
	return status, nil
}

// UnlockPeriod reopens a locked period. It needs the ADMIN role.
func (s *periodService) UnlockPeriod(ctx context.Context, workplaceID, accountID string, period domain.Period, userID string) (*domain.PeriodStatus, error) {
	if err := s.AuthorizeUser(ctx, userID, workplaceID, domain.RoleAdmin); err != nil {
		return nil, err
	}
	if err := validateAccountPeriod(accountID, period); err != nil {
		return nil, err
	}

	status, changed, err := s.periodRepo.UnlockPeriod(ctx, workplaceID, accountID, period, userID, s.Now())
	if err != nil {
		s.LogError(ctx, err, "Failed to unlock period",
			slog.String("account_id", accountID), slog.String("period", period.String()))
		return nil, err
	}
	if changed {
		s.Publish(ctx, periodEvent(domain.EventPeriodUnlocked, status, userID))
		s.LogInfo(ctx, "Period unlocked",
			slog.String("account_id", accountID), slog.String("period", period.String()))
	}
	return status, nil
}

func validateAccountPeriod(accountID string, period domain.Period) error {
	if accountID == "" {
		return apperrors.NewValidationError("account id is required")
	}
	if period.IsZero() {
		return apperrors.NewValidationError("period is required")
	}
	return nil
}

func periodEvent(eventType string, st *domain.PeriodStatus, actor string) domain.ReconciliationEvent {
	return domain.NewReconciliationEvent(eventType, st.WorkplaceID, "period", st.AccountID+":"+st.Period.String(), actor, map[string]any{
		"accountID":      st.AccountID,
		"period":         st.Period.String(),
		"matchedCount":   st.Matched,
		"transferCount":  st.ResolvedTransfers,
		"suggestedCount": st.Suggested,
		"unmatchedCount": st.Unmatched,
	})
}
