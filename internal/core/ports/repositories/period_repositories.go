package repositories

import (
	"context"
	"time"

	"github.com/SscSPs/bank_reconciliation/internal/core/domain"
)

// PeriodLockRepository persists lock metadata and derives counts from feeds, matches
// and confirmed transfers.
type PeriodLockRepository interface {
	GetPeriodStatus(ctx context.Context, workplaceID, accountID string, period domain.Period) (*domain.PeriodStatus, error)
	IsPeriodLocked(ctx context.Context, workplaceID, accountID string, period domain.Period) (bool, error)
	// LockPeriod evaluates the counts and writes the lock in one transaction, excluding
	// concurrent match and transfer mutations of the period. When open items remain it
	// returns the evaluated status together with ErrPeriodNotReconciled.
	LockPeriod(ctx context.Context, workplaceID, accountID string, period domain.Period, actor string, at time.Time) (status *domain.PeriodStatus, changed bool, err error)
	UnlockPeriod(ctx context.Context, workplaceID, accountID string, period domain.Period, actor string, at time.Time) (status *domain.PeriodStatus, changed bool, err error)
}
