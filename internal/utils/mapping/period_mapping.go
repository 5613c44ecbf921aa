package mapping

import (
	"github.com/SscSPs/bank_reconciliation/internal/core/domain"
	"github.com/SscSPs/bank_reconciliation/internal/models"
)

// ToDomainPeriodStatus combines an optional lock row with derived counts.
func ToDomainPeriodStatus(workplaceID, accountID string, period domain.Period, row *models.PeriodLock, counts domain.PeriodCounts) *domain.PeriodStatus {
	status := &domain.PeriodStatus{
		WorkplaceID:  workplaceID,
		AccountID:    accountID,
		Period:       period,
		Status:       domain.PeriodOpen,
		PeriodCounts: counts,
	}
	if row == nil {
		return status
	}
	if row.Status == string(domain.PeriodLocked) {
		status.Status = domain.PeriodLocked
	}
	status.LockedAt = TimePtr(row.LockedAt)
	status.LockedBy = StringPtr(row.LockedBy)
	status.UnlockedAt = TimePtr(row.UnlockedAt)
	status.UnlockedBy = StringPtr(row.UnlockedBy)
	return status
}
