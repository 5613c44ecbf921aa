package dto

import (
	"time"

	"github.com/SscSPs/bank_reconciliation/internal/core/domain"
	"github.com/SscSPs/bank_reconciliation/internal/utils"
	"github.com/shopspring/decimal"
)

// DetectTransfersRequest runs detection over feed lines dated within [From, To].
type DetectTransfersRequest struct {
	From string `json:"from" binding:"required,datetime=2006-01-02"`
	To   string `json:"to" binding:"required,datetime=2006-01-02"`
}

// CreateTransferRequest proposes a transfer between two feed lines.
type CreateTransferRequest struct {
	FromFeedID string `json:"fromFeedID" binding:"required"`
	ToFeedID   string `json:"toFeedID" binding:"required,nefield=FromFeedID"`
}

// ListTransfersParams defines query parameters for listing transfers.
type ListTransfersParams struct {
	Status string `form:"status" binding:"omitempty,oneof=suggested confirmed rejected"`
}

// TransferResponse defines the data returned for a detected transfer.
type TransferResponse struct {
	TransferID       string                `json:"transferID"`
	FromFeedID       string                `json:"fromFeedID"`
	ToFeedID         string                `json:"toFeedID"`
	FromAccountID    string                `json:"fromAccountID"`
	ToAccountID      string                `json:"toAccountID"`
	FromDate         string                `json:"fromDate"`
	ToDate           string                `json:"toDate"`
	Amount           decimal.Decimal       `json:"amount"`
	CurrencyCode     string                `json:"currencyCode"`
	ToAmount         decimal.Decimal       `json:"toAmount"`
	ToCurrencyCode   string                `json:"toCurrencyCode"`
	ExchangeRate     *decimal.Decimal      `json:"exchangeRate,omitempty"`
	DateDistanceDays int                   `json:"dateDistanceDays"`
	Status           domain.TransferStatus `json:"status"`
	ConfirmedAt      *time.Time            `json:"confirmedAt,omitempty"`
	ConfirmedBy      *string               `json:"confirmedBy,omitempty"`
	LastUpdatedAt    time.Time             `json:"lastUpdatedAt"`
	LastUpdatedBy    string                `json:"lastUpdatedBy"`
}

// ListTransfersResponse wraps a list of transfers.
type ListTransfersResponse struct {
	Transfers []TransferResponse `json:"transfers"`
}

// ToTransferResponse converts a domain transfer to its DTO.
func ToTransferResponse(t *domain.DetectedTransfer) TransferResponse {
	return TransferResponse{
		TransferID:       t.TransferID,
		FromFeedID:       t.FromFeedID,
		ToFeedID:         t.ToFeedID,
		FromAccountID:    t.FromAccountID,
		ToAccountID:      t.ToAccountID,
		FromDate:         t.FromDate.Format(time.DateOnly),
		ToDate:           t.ToDate.Format(time.DateOnly),
		Amount:           utils.CentsToDecimal(t.Amount),
		CurrencyCode:     t.CurrencyCode,
		ToAmount:         utils.CentsToDecimal(t.ToAmount),
		ToCurrencyCode:   t.ToCurrencyCode,
		ExchangeRate:     t.ExchangeRate,
		DateDistanceDays: t.DateDistanceDays,
		Status:           t.Status,
		ConfirmedAt:      t.ConfirmedAt,
		ConfirmedBy:      t.ConfirmedBy,
		LastUpdatedAt:    t.LastUpdatedAt,
		LastUpdatedBy:    t.LastUpdatedBy,
	}
}

// ToListTransfersResponse converts a slice of transfers.
func ToListTransfersResponse(transfers []domain.DetectedTransfer) ListTransfersResponse {
	res := make([]TransferResponse, len(transfers))
	for i := range transfers {
		res[i] = ToTransferResponse(&transfers[i])
	}
	return ListTransfersResponse{Transfers: res}
}
