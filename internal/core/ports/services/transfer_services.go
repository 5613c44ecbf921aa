package services

import (
	"context"

	"github.com/SscSPs/bank_reconciliation/internal/core/domain"
)

// TransferReaderSvc defines read operations for detected transfers
type TransferReaderSvc interface {
	GetTransfer(ctx context.Context, workplaceID, transferID, userID string) (*domain.DetectedTransfer, error)
	ListTransfers(ctx context.Context, workplaceID string, status *domain.TransferStatus, userID string) ([]domain.DetectedTransfer, error)
}

// TransferWriterSvc defines detection and the transfer state changes
type TransferWriterSvc interface {
	// DetectTransfers proposes and stores suggested transfers among feed lines dated within r.
	DetectTransfers(ctx context.Context, workplaceID string, r domain.DateRange, userID string) ([]domain.DetectedTransfer, error)
	CreateTransfer(ctx context.Context, workplaceID, fromFeedID, toFeedID, userID string) (*domain.DetectedTransfer, error)
	ConfirmTransfer(ctx context.Context, workplaceID, transferID, userID string) (*domain.DetectedTransfer, error)
	RejectTransfer(ctx context.Context, workplaceID, transferID, userID string) (*domain.DetectedTransfer, error)
}

// TransferSvcFacade combines all transfer-related service interfaces
type TransferSvcFacade interface {
	TransferReaderSvc
	TransferWriterSvc
}
