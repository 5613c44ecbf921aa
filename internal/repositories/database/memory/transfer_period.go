package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/SscSPs/bank_reconciliation/internal/apperrors"
	"github.com/SscSPs/bank_reconciliation/internal/core/domain"
	portsrepo "github.com/SscSPs/bank_reconciliation/internal/core/ports/repositories"
)

func (s *Store) FindTransferByID(ctx context.Context, workplaceID, transferID string) (*domain.DetectedTransfer, error) {
	defer s.lock(ctx)()
	t, ok := s.transfers[transferID]
	if !ok || t.WorkplaceID != workplaceID {
		return nil, apperrors.NewNotFoundError("transfer " + transferID)
	}
	return &t, nil
}

func (s *Store) ListTransfers(ctx context.Context, workplaceID string, status *domain.TransferStatus) ([]domain.DetectedTransfer, error) {
	defer s.lock(ctx)()
	out := []domain.DetectedTransfer{}
	for _, t := range s.transfers {
		if t.WorkplaceID == workplaceID && (status == nil || t.Status == *status) {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].FromDate.Equal(out[j].FromDate) {
			return out[i].FromDate.Before(out[j].FromDate)
		}
		return out[i].TransferID < out[j].TransferID
	})
	return out, nil
}

func (s *Store) ListActiveTransferFeedIDs(ctx context.Context, workplaceID string) (map[string]domain.TransferStatus, error) {
	defer s.lock(ctx)()
	out := map[string]domain.TransferStatus{}
	for _, t := range s.transfers {
		if t.WorkplaceID == workplaceID && t.IsActive() {
			out[t.FromFeedID] = t.Status
			out[t.ToFeedID] = t.Status
		}
	}
	return out, nil
}

func (s *Store) SaveSuggestedTransfer(ctx context.Context, transfer domain.DetectedTransfer) (*domain.DetectedTransfer, error) {
	defer s.lock(ctx)()
	if err := s.ensureTransferOpen(transfer); err != nil {
		return nil, err
	}
	for _, t := range s.transfers {
		if t.WorkplaceID == transfer.WorkplaceID && t.IsActive() &&
			(t.Involves(transfer.FromFeedID) || t.Involves(transfer.ToFeedID)) {
			return nil, apperrors.NewConflictError(fmt.Sprintf("feed transaction already belongs to transfer %s", t.TransferID))
		}
	}
	transfer.Status = domain.TransferStatusSuggested
	s.transfers[transfer.TransferID] = transfer
	return &transfer, nil
}

func (s *Store) ConfirmTransfer(ctx context.Context, workplaceID, transferID, actor string, at time.Time, post portsrepo.PostTransferFunc) (*domain.DetectedTransfer, bool, error) {
	defer s.lock(ctx)()
	t, ok := s.transfers[transferID]
	if !ok || t.WorkplaceID != workplaceID {
		return nil, false, apperrors.NewNotFoundError("transfer " + transferID)
	}
	switch t.Status {
	case domain.TransferStatusConfirmed:
		return &t, false, nil
	case domain.TransferStatusRejected:
		return nil, false, apperrors.NewConflictError(fmt.Sprintf("transfer %s was rejected", transferID))
	}
	if err := s.ensureTransferOpen(t); err != nil {
		return nil, false, err
	}
	var open []domain.TransactionMatch
	for _, feedID := range []string{t.FromFeedID, t.ToFeedID} {
		m, ok := s.activeMatch(workplaceID, feedID)
		if !ok {
			continue
		}
		if m.IsMatched() {
			return nil, false, apperrors.NewConflictError(fmt.Sprintf("feed transaction %s is already matched", feedID))
		}
		open = append(open, m)
	}

	t.Status = domain.TransferStatusConfirmed
	t.ConfirmedAt = &at
	t.ConfirmedBy = &actor
	t.Version++
	t.LastUpdatedAt = at
	t.LastUpdatedBy = actor
	if post != nil {
		if err := post(s.held(ctx), t); err != nil {
			return nil, false, err
		}
	}
	for _, m := range open {
		s.retire(m, actor, at)
	}
	s.transfers[transferID] = t
	return &t, true, nil
}

func (s *Store) RejectTransfer(ctx context.Context, workplaceID, transferID, actor string, at time.Time) (*domain.DetectedTransfer, bool, error) {
	defer s.lock(ctx)()
	t, ok := s.transfers[transferID]
	if !ok || t.WorkplaceID != workplaceID {
		return nil, false, apperrors.NewNotFoundError("transfer " + transferID)
	}
	switch t.Status {
	case domain.TransferStatusRejected:
		return &t, false, nil
	case domain.TransferStatusConfirmed:
		return nil, false, apperrors.NewConflictError(fmt.Sprintf("transfer %s is already confirmed", transferID))
	}
	if err := s.ensureTransferOpen(t); err != nil {
		return nil, false, err
	}
	t.Status = domain.TransferStatusRejected
	t.Version++
	t.LastUpdatedAt = at
	t.LastUpdatedBy = actor
	s.transfers[transferID] = t
	return &t, true, nil
}

func (s *Store) ensureTransferOpen(t domain.DetectedTransfer) error {
	if err := s.ensureOpen(t.WorkplaceID, t.FromAccountID, t.FromDate); err != nil {
		return err
	}
	return s.ensureOpen(t.WorkplaceID, t.ToAccountID, t.ToDate)
}

func (s *Store) GetPeriodStatus(ctx context.Context, workplaceID, accountID string, period domain.Period) (*domain.PeriodStatus, error) {
	defer s.lock(ctx)()
	return s.periodStatus(workplaceID, accountID, period), nil
}

func (s *Store) IsPeriodLocked(ctx context.Context, workplaceID, accountID string, period domain.Period) (bool, error) {
	defer s.lock(ctx)()
	return s.isLocked(workplaceID, accountID, period), nil
}

func (s *Store) LockPeriod(ctx context.Context, workplaceID, accountID string, period domain.Period, actor string, at time.Time) (*domain.PeriodStatus, bool, error) {
	defer s.lock(ctx)()
	status := s.periodStatus(workplaceID, accountID, period)
	if status.IsLocked() {
		return status, false, nil
	}
	if !status.CanLock() {
		return status, false, apperrors.NewPeriodNotReconciledError(fmt.Sprintf(
			"account %s period %s has %d suggested and %d unmatched feed transactions",
			accountID, period, status.Suggested, status.Unmatched))
	}

	key := lockKey{workplaceID, accountID, period}
	row := s.locks[key]
	row.state = domain.PeriodLocked
	row.lockedAt = &at
	row.lockedBy = &actor
	s.locks[key] = row
	return s.periodStatus(workplaceID, accountID, period), true, nil
}

func (s *Store) UnlockPeriod(ctx context.Context, workplaceID, accountID string, period domain.Period, actor string, at time.Time) (*domain.PeriodStatus, bool, error) {
	defer s.lock(ctx)()
	key := lockKey{workplaceID, accountID, period}
	row, ok := s.locks[key]
	if !ok || row.state != domain.PeriodLocked {
		return s.periodStatus(workplaceID, accountID, period), false, nil
	}
	row.state = domain.PeriodOpen
	row.unlockedAt = &at
	row.unlockedBy = &actor
	s.locks[key] = row
	return s.periodStatus(workplaceID, accountID, period), true, nil
}

// periodStatus derives the counts from the current feeds, matches and confirmed transfers.
func (s *Store) periodStatus(workplaceID, accountID string, period domain.Period) *domain.PeriodStatus {
	resolved := map[string]bool{}
	for _, t := range s.transfers {
		if t.WorkplaceID == workplaceID && t.Status == domain.TransferStatusConfirmed {
			resolved[t.FromFeedID] = true
			resolved[t.ToFeedID] = true
		}
	}
	active := map[string]domain.TransactionMatch{}
	for _, m := range s.matches {
		if m.WorkplaceID == workplaceID && m.IsActive() {
			active[m.FeedTransactionID] = m
		}
	}

	var counts domain.PeriodCounts
	for _, f := range s.feeds {
		if f.WorkplaceID != workplaceID || f.AccountID != accountID || !period.Contains(f.Date) {
			continue
		}
		var m *domain.TransactionMatch
		if am, ok := active[f.FeedTransactionID]; ok {
			m = &am
		}
		counts.Add(domain.Resolve(m, resolved[f.FeedTransactionID]))
	}

	row := s.locks[lockKey{workplaceID, accountID, period}]
	state := row.state
	if state == "" {
		state = domain.PeriodOpen
	}
	return &domain.PeriodStatus{
		WorkplaceID:  workplaceID,
		AccountID:    accountID,
		Period:       period,
		Status:       state,
		PeriodCounts: counts,
		LockedAt:     row.lockedAt,
		LockedBy:     row.lockedBy,
		UnlockedAt:   row.unlockedAt,
		UnlockedBy:   row.unlockedBy,
	}
}
