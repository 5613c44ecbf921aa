package repositories

import (
	"context"

	"github.com/SscSPs/bank_reconciliation/internal/core/domain"
)

// LedgerCandidateReader reads ledger transactions owned by the ledger service.
type LedgerCandidateReader interface {
	// ListLedgerCandidates returns the account's ledger transactions dated within r.
	ListLedgerCandidates(ctx context.Context, workplaceID, accountID string, r domain.DateRange) ([]domain.Transaction, error)
	FindTransactionByID(ctx context.Context, workplaceID, transactionID string) (*domain.Transaction, error)
}

// LedgerPoster asks the ledger to create transactions. Postings that carry a transfer
// id are idempotent per (transfer, account).
type LedgerPoster interface {
	PostTransactions(ctx context.Context, postings []domain.LedgerPosting) ([]domain.Transaction, error)
}

// LedgerRepositoryFacade combines candidate reads and posting.
type LedgerRepositoryFacade interface {
	LedgerCandidateReader
	LedgerPoster
}
