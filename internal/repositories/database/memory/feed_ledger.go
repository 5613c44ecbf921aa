package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/SscSPs/bank_reconciliation/internal/apperrors"
	"github.com/SscSPs/bank_reconciliation/internal/core/domain"
	"github.com/google/uuid"
)

func (s *Store) FindFeedTransactionByID(ctx context.Context, workplaceID, feedTransactionID string) (*domain.BankFeedTransaction, error) {
	defer s.lock(ctx)()
	f, ok := s.feeds[feedTransactionID]
	if !ok || f.WorkplaceID != workplaceID {
		return nil, apperrors.NewNotFoundError("feed transaction " + feedTransactionID)
	}
	return &f, nil
}

func (s *Store) FindFeedTransactionsByIDs(ctx context.Context, workplaceID string, feedTransactionIDs []string) ([]domain.BankFeedTransaction, error) {
	defer s.lock(ctx)()
	out := make([]domain.BankFeedTransaction, 0, len(feedTransactionIDs))
	for _, id := range feedTransactionIDs {
		if f, ok := s.feeds[id]; ok && f.WorkplaceID == workplaceID {
			out = append(out, f)
		}
	}
	return out, nil
}

func (s *Store) ListFeedTransactions(ctx context.Context, workplaceID, accountID string, r domain.DateRange) ([]domain.BankFeedTransaction, error) {
	defer s.lock(ctx)()
	return s.feedsWhere(func(f domain.BankFeedTransaction) bool {
		return f.WorkplaceID == workplaceID && f.AccountID == accountID && r.Contains(f.Date)
	}), nil
}

func (s *Store) ListFeedTransactionsByWorkplace(ctx context.Context, workplaceID string, r domain.DateRange) ([]domain.BankFeedTransaction, error) {
	defer s.lock(ctx)()
	return s.feedsWhere(func(f domain.BankFeedTransaction) bool {
		return f.WorkplaceID == workplaceID && r.Contains(f.Date)
	}), nil
}

func (s *Store) feedsWhere(keep func(domain.BankFeedTransaction) bool) []domain.BankFeedTransaction {
	out := []domain.BankFeedTransaction{}
	for _, f := range s.feeds {
		if keep(f) {
			out = append(out, f)
		}
	}
	sortFeeds(out)
	return out
}

// SaveFeedTransactions inserts all rows or none.
func (s *Store) SaveFeedTransactions(ctx context.Context, feeds []domain.BankFeedTransaction) error {
	defer s.lock(ctx)()
	for _, f := range feeds {
		if _, exists := s.feeds[f.FeedTransactionID]; exists {
			return apperrors.NewDuplicateError("feed transaction " + f.FeedTransactionID)
		}
	}
	for _, f := range feeds {
		f.Date = domain.DateOnly(f.Date)
		s.feeds[f.FeedTransactionID] = f
	}
	return nil
}

// ListLedgerCandidates leaves out transfer postings; they belong to feeds resolved by the transfer.
func (s *Store) ListLedgerCandidates(ctx context.Context, workplaceID, accountID string, r domain.DateRange) ([]domain.Transaction, error) {
	defer s.lock(ctx)()
	out := []domain.Transaction{}
	for _, t := range s.ledger {
		if t.WorkplaceID == workplaceID && t.AccountID == accountID && t.TransferID == nil && r.Contains(t.Date) {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].TransactionID < out[j].TransactionID
	})
	return out, nil
}

func (s *Store) FindTransactionByID(ctx context.Context, workplaceID, transactionID string) (*domain.Transaction, error) {
	defer s.lock(ctx)()
	t, ok := s.ledger[transactionID]
	if !ok || t.WorkplaceID != workplaceID {
		return nil, apperrors.NewNotFoundError("transaction " + transactionID)
	}
	return &t, nil
}

// PostTransactions creates one ledger transaction per posting, returning them in order.
// A transfer posting whose (transfer, account) already exists returns the existing row.
func (s *Store) PostTransactions(ctx context.Context, postings []domain.LedgerPosting) ([]domain.Transaction, error) {
	defer s.lock(ctx)()
	for i, p := range postings {
		if p.WorkplaceID == "" || p.AccountID == "" || p.CurrencyCode == "" {
			return nil, apperrors.NewValidationError(fmt.Sprintf("posting %d: workplace, account and currency are required", i))
		}
	}

	now := time.Now().UTC()
	out := make([]domain.Transaction, 0, len(postings))
	for _, p := range postings {
		if p.TransferID != nil {
			if existing, ok := s.transferPosting(*p.TransferID, p.AccountID); ok {
				out = append(out, existing)
				continue
			}
		}
		t := domain.Transaction{
			TransactionID:           uuid.NewString(),
			WorkplaceID:             p.WorkplaceID,
			AccountID:               p.AccountID,
			Date:                    domain.DateOnly(p.Date),
			Description:             p.Description,
			Amount:                  p.Amount,
			CurrencyCode:            strings.ToUpper(p.CurrencyCode),
			CategoryID:              p.CategoryID,
			SourceFeedTransactionID: p.SourceFeedTransactionID,
			TransferID:              p.TransferID,
			AuditFields: domain.AuditFields{
				CreatedAt:     now,
				CreatedBy:     p.PostedBy,
				LastUpdatedAt: now,
				LastUpdatedBy: p.PostedBy,
			},
		}
		s.ledger[t.TransactionID] = t
		out = append(out, t)
	}
	return out, nil
}

func (s *Store) transferPosting(transferID, accountID string) (domain.Transaction, bool) {
	for _, t := range s.ledger {
		if t.TransferID != nil && *t.TransferID == transferID && t.AccountID == accountID {
			return t, true
		}
	}
	return domain.Transaction{}, false
}

// PutLedgerTransactions seeds ledger rows as they would exist in the ledger service.
func (s *Store) PutLedgerTransactions(txns ...domain.Transaction) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range txns {
		t.Date = domain.DateOnly(t.Date)
		s.ledger[t.TransactionID] = t
	}
}
