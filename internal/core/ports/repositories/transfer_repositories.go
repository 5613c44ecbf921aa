package repositories

import (
	"context"
	"time"

	"github.com/SscSPs/bank_reconciliation/internal/core/domain"
)

// TransferReader defines read operations for detected transfers.
type TransferReader interface {
	FindTransferByID(ctx context.Context, workplaceID, transferID string) (*domain.DetectedTransfer, error)
	ListTransfers(ctx context.Context, workplaceID string, status *domain.TransferStatus) ([]domain.DetectedTransfer, error)
	// ListActiveTransferFeedIDs maps every feed id in a non-rejected transfer to that transfer's status.
	ListActiveTransferFeedIDs(ctx context.Context, workplaceID string) (map[string]domain.TransferStatus, error)
}

// PostTransferFunc requests the ledger postings of a transfer being confirmed.
// An error aborts the confirmation.
type PostTransferFunc func(ctx context.Context, transfer domain.DetectedTransfer) error

// TransferWriter defines the atomic transfer mutations. Each checks the period locks of
// both legs inside its transaction.
type TransferWriter interface {
	// SaveSuggestedTransfer inserts a suggested transfer. ErrConflict when either feed is
	// already in a non-rejected transfer.
	SaveSuggestedTransfer(ctx context.Context, transfer domain.DetectedTransfer) (*domain.DetectedTransfer, error)
	// ConfirmTransfer flips a suggested transfer to confirmed and runs post before commit.
	// The active unmatched or suggested rows of both legs are retired in the same
	// transaction; a leg that is already matched fails with ErrConflict.
	// Already confirmed transfers report changed=false; rejected ones fail with ErrConflict.
	ConfirmTransfer(ctx context.Context, workplaceID, transferID, actor string, at time.Time, post PostTransferFunc) (transfer *domain.DetectedTransfer, changed bool, err error)
	// RejectTransfer flips a suggested transfer to rejected. Already rejected transfers
	// report changed=false; confirmed ones fail with ErrConflict.
	RejectTransfer(ctx context.Context, workplaceID, transferID, actor string, at time.Time) (transfer *domain.DetectedTransfer, changed bool, err error)
}

// TransferRepositoryFacade combines transfer reads and writes.
type TransferRepositoryFacade interface {
	TransferReader
	TransferWriter
}
