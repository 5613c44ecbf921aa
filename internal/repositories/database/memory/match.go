package memory

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"time"

	"github.com/SscSPs/bank_reconciliation/internal/apperrors"
	"github.com/SscSPs/bank_reconciliation/internal/core/domain"
	portsrepo "github.com/SscSPs/bank_reconciliation/internal/core/ports/repositories"
	"github.com/SscSPs/bank_reconciliation/internal/utils/pagination"
)

func (s *Store) FindMatchByID(ctx context.Context, workplaceID, matchID string) (*domain.TransactionMatch, error) {
	defer s.lock(ctx)()
	m, ok := s.matches[matchID]
	if !ok || m.WorkplaceID != workplaceID {
		return nil, apperrors.NewNotFoundError("match " + matchID)
	}
	return cloneMatch(m), nil
}

func (s *Store) FindActiveMatchByFeedID(ctx context.Context, workplaceID, feedTransactionID string) (*domain.TransactionMatch, error) {
	defer s.lock(ctx)()
	m, ok := s.activeMatch(workplaceID, feedTransactionID)
	if !ok {
		return nil, apperrors.NewNotFoundError("active match for feed transaction " + feedTransactionID)
	}
	return cloneMatch(m), nil
}

func (s *Store) ListActiveMatchesByFeedIDs(ctx context.Context, workplaceID string, feedTransactionIDs []string) (map[string]domain.TransactionMatch, error) {
	defer s.lock(ctx)()
	wanted := make(map[string]bool, len(feedTransactionIDs))
	for _, id := range feedTransactionIDs {
		wanted[id] = true
	}
	out := map[string]domain.TransactionMatch{}
	for _, m := range s.matches {
		if m.WorkplaceID == workplaceID && m.IsActive() && wanted[m.FeedTransactionID] {
			out[m.FeedTransactionID] = *cloneMatch(m)
		}
	}
	return out, nil
}

func (s *Store) ListMatchedTransactionIDs(ctx context.Context, workplaceID string, transactionIDs []string) (map[string]bool, error) {
	defer s.lock(ctx)()
	wanted := make(map[string]bool, len(transactionIDs))
	for _, id := range transactionIDs {
		wanted[id] = true
	}
	out := map[string]bool{}
	for _, m := range s.matches {
		if m.WorkplaceID == workplaceID && m.IsMatched() && m.TransactionID != nil && wanted[*m.TransactionID] {
			out[*m.TransactionID] = true
		}
	}
	return out, nil
}

func (s *Store) ListMatches(ctx context.Context, workplaceID string, filter domain.MatchFilter, limit int, nextToken *string) ([]domain.TransactionMatch, *string, error) {
	var (
		afterDate time.Time
		afterID   string
		paged     bool
	)
	if nextToken != nil && *nextToken != "" {
		d, id, err := pagination.DecodeMatchToken(*nextToken)
		if err != nil {
			return nil, nil, apperrors.NewValidationError(err.Error())
		}
		afterDate, afterID, paged = d, id, true
	}

	defer s.lock(ctx)()
	rows := []domain.TransactionMatch{}
	for _, m := range s.matches {
		if m.WorkplaceID != workplaceID || !m.IsActive() {
			continue
		}
		if filter.AccountID != nil && m.AccountID != *filter.AccountID {
			continue
		}
		if filter.Period != nil && !filter.Period.Contains(m.FeedDate) {
			continue
		}
		if filter.Status != nil && m.Status != *filter.Status {
			continue
		}
		if paged && !before(m, afterDate, afterID) {
			continue
		}
		rows = append(rows, *cloneMatch(m))
	}
	sort.Slice(rows, func(i, j int) bool {
		if !rows[i].FeedDate.Equal(rows[j].FeedDate) {
			return rows[i].FeedDate.After(rows[j].FeedDate)
		}
		return rows[i].MatchID > rows[j].MatchID
	})

	var next *string
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
		last := rows[limit-1]
		token := pagination.EncodeMatchToken(last.FeedDate, last.MatchID)
		next = &token
	}
	return rows, next, nil
}

// before reports whether m sorts after the cursor in (feed date desc, id desc) order.
func before(m domain.TransactionMatch, date time.Time, id string) bool {
	d := domain.DateOnly(m.FeedDate)
	if !d.Equal(date) {
		return d.Before(date)
	}
	return m.MatchID < id
}

func (s *Store) SaveMatchDecision(ctx context.Context, match domain.TransactionMatch) (*domain.TransactionMatch, error) {
	defer s.lock(ctx)()
	if err := s.ensureOpen(match.WorkplaceID, match.AccountID, match.FeedDate); err != nil {
		return nil, err
	}

	if err := s.ensureNotTransferResolved(match.WorkplaceID, match.FeedTransactionID); err != nil {
		return nil, err
	}
	existing, hasExisting := s.activeMatch(match.WorkplaceID, match.FeedTransactionID)
	if hasExisting && existing.IsMatched() {
		return nil, apperrors.NewConflictError(fmt.Sprintf("feed transaction %s is already matched", match.FeedTransactionID))
	}
	if match.Status == domain.MatchStatusMatched && match.TransactionID != nil {
		if s.claimedBy(match.WorkplaceID, *match.TransactionID) != "" {
			return nil, apperrors.NewConflictError(fmt.Sprintf("transaction %s is already matched", *match.TransactionID))
		}
	}

	match.FeedDate = domain.DateOnly(match.FeedDate)
	match.Lifecycle = domain.LifecycleActive
	if hasExisting {
		match.MatchID = existing.MatchID
		match.Version = existing.Version + 1
		match.CreatedAt = existing.CreatedAt
		match.CreatedBy = existing.CreatedBy
	}
	s.matches[match.MatchID] = match
	return cloneMatch(match), nil
}

func (s *Store) ConfirmMatch(ctx context.Context, workplaceID, matchID, actor string, at time.Time) (*domain.TransactionMatch, bool, error) {
	defer s.lock(ctx)()
	m, ok := s.matches[matchID]
	if !ok || m.WorkplaceID != workplaceID || !m.IsActive() {
		return nil, false, apperrors.NewNotFoundError("match " + matchID)
	}
	if m.IsMatched() {
		return cloneMatch(m), false, nil
	}
	if m.TransactionID == nil {
		return nil, false, apperrors.NewValidationError(fmt.Sprintf("match %s has no candidate transaction to confirm", matchID))
	}
	if err := s.ensureOpen(m.WorkplaceID, m.AccountID, m.FeedDate); err != nil {
		return nil, false, err
	}
	if err := s.ensureNotTransferResolved(workplaceID, m.FeedTransactionID); err != nil {
		return nil, false, err
	}
	if other := s.claimedBy(workplaceID, *m.TransactionID); other != "" && other != matchID {
		return nil, false, apperrors.NewConflictError(fmt.Sprintf("transaction %s is already matched", *m.TransactionID))
	}

	m.Status = domain.MatchStatusMatched
	m.MatchedAt = &at
	m.MatchedBy = &actor
	m.Version++
	m.LastUpdatedAt = at
	m.LastUpdatedBy = actor
	s.matches[matchID] = m
	return cloneMatch(m), true, nil
}

func (s *Store) CreateConfirmedMatch(ctx context.Context, match domain.TransactionMatch) (*domain.TransactionMatch, bool, error) {
	defer s.lock(ctx)()
	if match.TransactionID == nil {
		return nil, false, apperrors.NewValidationError("a confirmed match needs a transaction")
	}
	txID := *match.TransactionID

	existing, hasExisting := s.activeMatch(match.WorkplaceID, match.FeedTransactionID)
	if hasExisting && existing.IsMatched() {
		if existing.TargetsTransaction(txID) {
			return cloneMatch(existing), false, nil
		}
		return nil, false, apperrors.NewConflictError(fmt.Sprintf("feed transaction %s is already matched", match.FeedTransactionID))
	}
	if err := s.ensureOpen(match.WorkplaceID, match.AccountID, match.FeedDate); err != nil {
		return nil, false, err
	}
	if err := s.ensureNotTransferResolved(match.WorkplaceID, match.FeedTransactionID); err != nil {
		return nil, false, err
	}
	if s.claimedBy(match.WorkplaceID, txID) != "" {
		return nil, false, apperrors.NewConflictError(fmt.Sprintf("transaction %s is already matched", txID))
	}

	if hasExisting {
		s.retire(existing, match.CreatedBy, match.CreatedAt)
	}
	return s.insertMatched(match), true, nil
}

func (s *Store) CreatePostedMatch(ctx context.Context, match domain.TransactionMatch, post portsrepo.PostFeedFunc) (*domain.TransactionMatch, *domain.Transaction, error) {
	defer s.lock(ctx)()
	existing, hasExisting := s.activeMatch(match.WorkplaceID, match.FeedTransactionID)
	if hasExisting && existing.IsMatched() {
		return nil, nil, apperrors.NewConflictError(fmt.Sprintf("feed transaction %s is already matched", match.FeedTransactionID))
	}
	if err := s.ensureOpen(match.WorkplaceID, match.AccountID, match.FeedDate); err != nil {
		return nil, nil, err
	}
	if err := s.ensureNotTransferResolved(match.WorkplaceID, match.FeedTransactionID); err != nil {
		return nil, nil, err
	}

	posted, err := post(s.held(ctx))
	if err != nil {
		return nil, nil, err
	}
	txID := posted.TransactionID
	match.TransactionID = &txID
	if hasExisting {
		s.retire(existing, match.CreatedBy, match.CreatedAt)
	}
	return s.insertMatched(match), posted, nil
}

func (s *Store) SoftDeleteMatch(ctx context.Context, workplaceID, matchID, actor string, at time.Time) (*domain.TransactionMatch, error) {
	defer s.lock(ctx)()
	m, ok := s.matches[matchID]
	if !ok || m.WorkplaceID != workplaceID || !m.IsActive() {
		return nil, apperrors.NewNotFoundError("match " + matchID)
	}
	if err := s.ensureOpen(m.WorkplaceID, m.AccountID, m.FeedDate); err != nil {
		return nil, err
	}
	s.retire(m, actor, at)
	return cloneMatch(s.matches[matchID]), nil
}

func (s *Store) insertMatched(match domain.TransactionMatch) *domain.TransactionMatch {
	match.FeedDate = domain.DateOnly(match.FeedDate)
	match.Lifecycle = domain.LifecycleActive
	s.matches[match.MatchID] = match
	return cloneMatch(match)
}

func (s *Store) retire(m domain.TransactionMatch, actor string, at time.Time) {
	m.Lifecycle = domain.LifecycleDeleted
	m.Version++
	m.LastUpdatedAt = at
	m.LastUpdatedBy = actor
	s.matches[m.MatchID] = m
}

// ensureNotTransferResolved fails when a confirmed transfer already settles feedID.
func (s *Store) ensureNotTransferResolved(workplaceID, feedID string) error {
	for _, t := range s.transfers {
		if t.WorkplaceID == workplaceID && t.Status == domain.TransferStatusConfirmed && t.Involves(feedID) {
			return apperrors.NewConflictError(fmt.Sprintf("feed transaction %s is resolved by confirmed transfer %s", feedID, t.TransferID))
		}
	}
	return nil
}

func (s *Store) activeMatch(workplaceID, feedID string) (domain.TransactionMatch, bool) {
	for _, m := range s.matches {
		if m.WorkplaceID == workplaceID && m.FeedTransactionID == feedID && m.IsActive() {
			return m, true
		}
	}
	return domain.TransactionMatch{}, false
}

// claimedBy returns the id of the active matched row targeting transactionID, if any.
func (s *Store) claimedBy(workplaceID, transactionID string) string {
	for _, m := range s.matches {
		if m.WorkplaceID == workplaceID && m.IsMatched() && m.TargetsTransaction(transactionID) {
			return m.MatchID
		}
	}
	return ""
}

func cloneMatch(m domain.TransactionMatch) *domain.TransactionMatch {
	m.Reasons = slices.Clone(m.Reasons)
	return &m
}
