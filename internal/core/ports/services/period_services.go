package services

import (
	"context"

	"github.com/SscSPs/bank_reconciliation/internal/core/domain"
)

// PeriodSvcFacade exposes the account period lock state machine.
type PeriodSvcFacade interface {
	GetReconciliationStatus(ctx context.Context, workplaceID, accountID string, period domain.Period, userID string) (*domain.PeriodStatus, error)
	// LockPeriod fails with apperrors.ErrPeriodNotReconciled, together with the evaluated
	// status, while suggested or unmatched feed lines remain.
	LockPeriod(ctx context.Context, workplaceID, accountID string, period domain.Period, userID string) (*domain.PeriodStatus, error)
	UnlockPeriod(ctx context.Context, workplaceID, accountID string, period domain.Period, userID string) (*domain.PeriodStatus, error)
}
