package repositories

import (
	"context"

	"github.com/SscSPs/bank_reconciliation/internal/core/domain"
)

// FeedTransactionReader defines read operations for bank feed lines.
// Lookups are always scoped by workplace; other tenants' rows are not found.
type FeedTransactionReader interface {
	FindFeedTransactionByID(ctx context.Context, workplaceID, feedTransactionID string) (*domain.BankFeedTransaction, error)
	FindFeedTransactionsByIDs(ctx context.Context, workplaceID string, feedTransactionIDs []string) ([]domain.BankFeedTransaction, error)
	// ListFeedTransactions returns the account's feed lines dated within r, ordered by date then id.
	ListFeedTransactions(ctx context.Context, workplaceID, accountID string, r domain.DateRange) ([]domain.BankFeedTransaction, error)
	// ListFeedTransactionsByWorkplace returns feed lines across all accounts dated within r.
	ListFeedTransactionsByWorkplace(ctx context.Context, workplaceID string, r domain.DateRange) ([]domain.BankFeedTransaction, error)
}

// FeedTransactionWriter is used by the feed import. Existing ids are rejected as duplicates.
type FeedTransactionWriter interface {
	SaveFeedTransactions(ctx context.Context, feeds []domain.BankFeedTransaction) error
}

// FeedTransactionRepositoryFacade combines feed reads and writes.
type FeedTransactionRepositoryFacade interface {
	FeedTransactionReader
	FeedTransactionWriter
}
