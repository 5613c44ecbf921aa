package services

import (
	"context"

	"github.com/SscSPs/bank_reconciliation/internal/core/domain"
	"github.com/SscSPs/bank_reconciliation/internal/dto"
)

// SuggestionSvc scores ledger candidates for feed transactions.
type SuggestionSvc interface {
	// GetSuggestions ranks unclaimed candidates for one feed line, best first. Nothing is persisted.
	GetSuggestions(ctx context.Context, workplaceID, feedTransactionID string, limit int, userID string) ([]domain.MatchSuggestion, error)
	// GenerateSuggestions runs a suggestion pass over an account period and persists the outcome.
	GenerateSuggestions(ctx context.Context, workplaceID, accountID string, period domain.Period, userID string) (*domain.SuggestionRunResult, error)
}

// MatchSvc mutates and reads match rows.
type MatchSvc interface {
	GetMatch(ctx context.Context, workplaceID, matchID, userID string) (*domain.TransactionMatch, error)
	ListMatches(ctx context.Context, workplaceID string, filter domain.MatchFilter, limit int, nextToken *string, userID string) ([]domain.TransactionMatch, *string, error)
	CreateMatch(ctx context.Context, workplaceID, feedTransactionID, transactionID, userID string) (*domain.TransactionMatch, error)
	ConfirmMatch(ctx context.Context, workplaceID, matchID, userID string) (*domain.TransactionMatch, error)
	Unmatch(ctx context.Context, workplaceID, matchID, userID string) error
	// BulkConfirmMatches confirms each id independently; results follow input order.
	BulkConfirmMatches(ctx context.Context, workplaceID string, matchIDs []string, userID string) ([]domain.BulkItemResult, error)
}

// FeedSvc covers the feed import surface and ledger creation from unmatched lines.
type FeedSvc interface {
	ImportFeedTransactions(ctx context.Context, workplaceID string, req dto.ImportFeedTransactionsRequest, userID string) ([]domain.BankFeedTransaction, error)
	ListFeedTransactions(ctx context.Context, workplaceID, accountID string, period domain.Period, userID string) ([]domain.BankFeedTransaction, error)
	// BulkCreateTransactions posts one ledger transaction per feed line and records it as
	// matched. Each item succeeds or fails on its own; results follow input order after
	// duplicate ids are dropped.
	BulkCreateTransactions(ctx context.Context, workplaceID string, feedTransactionIDs []string, categoryID *string, userID string) ([]domain.BulkItemResult, error)
}

// ReconciliationSvcFacade combines all match-related service interfaces
type ReconciliationSvcFacade interface {
	SuggestionSvc
	MatchSvc
	FeedSvc
}
