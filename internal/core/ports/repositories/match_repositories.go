package repositories

import (
	"context"
	"time"

	"github.com/SscSPs/bank_reconciliation/internal/core/domain"
)

// MatchReader defines read operations for match rows.
type MatchReader interface {
	FindMatchByID(ctx context.Context, workplaceID, matchID string) (*domain.TransactionMatch, error)
	// FindActiveMatchByFeedID returns ErrNotFound when the feed has no active row.
	FindActiveMatchByFeedID(ctx context.Context, workplaceID, feedTransactionID string) (*domain.TransactionMatch, error)
	// ListActiveMatchesByFeedIDs maps feed id to its active row; feeds without one are absent.
	ListActiveMatchesByFeedIDs(ctx context.Context, workplaceID string, feedTransactionIDs []string) (map[string]domain.TransactionMatch, error)
	// ListMatchedTransactionIDs reports which of transactionIDs are targets of an active matched row.
	ListMatchedTransactionIDs(ctx context.Context, workplaceID string, transactionIDs []string) (map[string]bool, error)
	// ListMatches pages through active rows ordered by feed date desc, match id desc.
	ListMatches(ctx context.Context, workplaceID string, filter domain.MatchFilter, limit int, nextToken *string) ([]domain.TransactionMatch, *string, error)
}

// PostFeedFunc asks the ledger for the transaction mirroring a feed line. It runs inside
// the match write, so an error leaves neither the posting nor the match behind.
type PostFeedFunc func(ctx context.Context) (*domain.Transaction, error)

// MatchWriter defines the atomic match mutations. Every method checks the period lock
// of the match's account and period inside the same database transaction and fails with
// ErrPeriodLocked when it is locked. Feeds resolved by a confirmed transfer are not
// available to any of them and fail with ErrConflict.
type MatchWriter interface {
	// SaveMatchDecision creates or replaces the feed's active unmatched/suggested row, or
	// records a system auto-match. It never overwrites an active matched row (ErrConflict)
	// and fails with ErrConflict when a matched row would claim an already claimed transaction.
	SaveMatchDecision(ctx context.Context, match domain.TransactionMatch) (*domain.TransactionMatch, error)
	// ConfirmMatch moves a suggested row to matched. Confirming a matched row is a no-op
	// and reports changed=false.
	ConfirmMatch(ctx context.Context, workplaceID, matchID, actor string, at time.Time) (match *domain.TransactionMatch, changed bool, err error)
	// CreateConfirmedMatch records a manual match, retiring any unconfirmed row of the feed.
	// Re-creating an identical matched pair is a no-op and reports created=false.
	CreateConfirmedMatch(ctx context.Context, match domain.TransactionMatch) (created *domain.TransactionMatch, isNew bool, err error)
	// CreatePostedMatch runs post and records its transaction as the feed's matched row in
	// one transaction, retiring any unconfirmed row. match.TransactionID is set from post.
	// A feed that is already matched fails with ErrConflict before post runs.
	CreatePostedMatch(ctx context.Context, match domain.TransactionMatch, post PostFeedFunc) (*domain.TransactionMatch, *domain.Transaction, error)
	// SoftDeleteMatch retires an active row so the feed is eligible again.
	SoftDeleteMatch(ctx context.Context, workplaceID, matchID, actor string, at time.Time) (*domain.TransactionMatch, error)
}

// MatchRepositoryFacade combines match reads and writes.
type MatchRepositoryFacade interface {
	MatchReader
	MatchWriter
}
