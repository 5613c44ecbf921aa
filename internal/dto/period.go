package dto

import (
	"time"

	"github.com/SscSPs/bank_reconciliation/internal/core/domain"
)

// PeriodURI binds the account and period path parameters.
type PeriodURI struct {
	AccountID string `uri:"account_id" binding:"required"`
	Period    string `uri:"period" binding:"required,yearmonth"`
}

// PeriodStatusResponse defines the reconciliation status of an account period.
type PeriodStatusResponse struct {
	AccountID      string                 `json:"accountID"`
	Period         string                 `json:"period"`
	Status         domain.PeriodLockState `json:"status"`
	MatchedCount   int                    `json:"matchedCount"`
	SuggestedCount int                    `json:"suggestedCount"`
	UnmatchedCount int                    `json:"unmatchedCount"`
	TransferCount  int                    `json:"transferCount"`
	Reconciled     bool                   `json:"reconciled"`
	LockedAt       *time.Time             `json:"lockedAt,omitempty"`
	LockedBy       *string                `json:"lockedBy,omitempty"`
	UnlockedAt     *time.Time             `json:"unlockedAt,omitempty"`
	UnlockedBy     *string                `json:"unlockedBy,omitempty"`
}

// PeriodLockRejectedResponse is returned when a lock is refused because items remain open.
type PeriodLockRejectedResponse struct {
	Error  string               `json:"error"`
	Code   string               `json:"code"`
	Status PeriodStatusResponse `json:"status"`
}

// ToPeriodStatusResponse converts a domain period status to its DTO.
func ToPeriodStatusResponse(s *domain.PeriodStatus) PeriodStatusResponse {
	return PeriodStatusResponse{
		AccountID:      s.AccountID,
		Period:         s.Period.String(),
		Status:         s.Status,
		MatchedCount:   s.Matched,
		SuggestedCount: s.Suggested,
		UnmatchedCount: s.Unmatched,
		TransferCount:  s.ResolvedTransfers,
		Reconciled:     s.Reconciled(),
		LockedAt:       s.LockedAt,
		LockedBy:       s.LockedBy,
		UnlockedAt:     s.UnlockedAt,
		UnlockedBy:     s.UnlockedBy,
	}
}
