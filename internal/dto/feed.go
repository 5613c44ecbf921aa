package dto

import (
	"time"

	"github.com/SscSPs/bank_reconciliation/internal/core/domain"
	"github.com/SscSPs/bank_reconciliation/internal/utils"
	"github.com/shopspring/decimal"
)

// FeedTransactionInput is one imported bank feed line. Amount is signed cents.
type FeedTransactionInput struct {
	FeedTransactionID string `json:"feedTransactionID" binding:"omitempty,max=100"` // Optional, generated when empty
	Date              string `json:"date" binding:"required,datetime=2006-01-02"`
	Description       string `json:"description" binding:"max=500"`
	Amount            int64  `json:"amount" binding:"required"`
	CurrencyCode      string `json:"currencyCode" binding:"required,iso4217"`
}

// ImportFeedTransactionsRequest imports feed lines for one account.
type ImportFeedTransactionsRequest struct {
	AccountID    string                 `json:"accountID" binding:"required"`
	Transactions []FeedTransactionInput `json:"transactions" binding:"required,min=1,max=1000,dive"`
}

// ListFeedTransactionsParams defines query parameters for listing feed lines.
type ListFeedTransactionsParams struct {
	AccountID string `form:"accountID" binding:"required"`
	Period    string `form:"period" binding:"required,yearmonth"`
}

// FeedTransactionResponse defines the data returned for a feed line.
type FeedTransactionResponse struct {
	FeedTransactionID string          `json:"feedTransactionID"`
	AccountID         string          `json:"accountID"`
	Date              string          `json:"date"`
	Description       string          `json:"description"`
	Amount            int64           `json:"amount"`
	DisplayAmount     decimal.Decimal `json:"displayAmount"`
	CurrencyCode      string          `json:"currencyCode"`
	CreatedAt         time.Time       `json:"createdAt"`
	CreatedBy         string          `json:"createdBy"`
}

// ListFeedTransactionsResponse wraps a list of feed lines.
type ListFeedTransactionsResponse struct {
	FeedTransactions []FeedTransactionResponse `json:"feedTransactions"`
}

// BulkCreateTransactionsRequest posts ledger transactions for unmatched feed lines.
type BulkCreateTransactionsRequest struct {
	FeedTransactionIDs []string `json:"feedTransactionIDs" binding:"required,min=1,max=100,dive,required"`
	CategoryID         *string  `json:"categoryID"`
}

// TransactionResponse defines the data returned for a ledger transaction.
type TransactionResponse struct {
	TransactionID           string          `json:"transactionID"`
	AccountID               string          `json:"accountID"`
	Date                    string          `json:"date"`
	Description             string          `json:"description"`
	Amount                  int64           `json:"amount"`
	DisplayAmount           decimal.Decimal `json:"displayAmount"`
	CurrencyCode            string          `json:"currencyCode"`
	CategoryID              *string         `json:"categoryID,omitempty"`
	SourceFeedTransactionID *string         `json:"sourceFeedTransactionID,omitempty"`
	TransferID              *string         `json:"transferID,omitempty"`
}

// BulkCreateTransactionsResponse lists per-item outcomes in request order. Successful
// items carry the created transaction and its match.
type BulkCreateTransactionsResponse struct {
	Results      []BulkItemResponse `json:"results"`
	SuccessCount int                `json:"successCount"`
	FailureCount int                `json:"failureCount"`
}

// ToFeedTransactionResponse converts a domain feed line to its DTO.
func ToFeedTransactionResponse(f *domain.BankFeedTransaction) FeedTransactionResponse {
	return FeedTransactionResponse{
		FeedTransactionID: f.FeedTransactionID,
		AccountID:         f.AccountID,
		Date:              f.Date.Format(time.DateOnly),
		Description:       f.Description,
		Amount:            f.Amount,
		DisplayAmount:     utils.CentsToDecimal(f.Amount),
		CurrencyCode:      f.CurrencyCode,
		CreatedAt:         f.CreatedAt,
		CreatedBy:         f.CreatedBy,
	}
}

// ToListFeedTransactionsResponse converts a slice of feed lines.
func ToListFeedTransactionsResponse(feeds []domain.BankFeedTransaction) ListFeedTransactionsResponse {
	res := make([]FeedTransactionResponse, len(feeds))
	for i := range feeds {
		res[i] = ToFeedTransactionResponse(&feeds[i])
	}
	return ListFeedTransactionsResponse{FeedTransactions: res}
}

// ToTransactionResponse converts a ledger transaction to its DTO.
func ToTransactionResponse(t *domain.Transaction) TransactionResponse {
	return TransactionResponse{
		TransactionID:           t.TransactionID,
		AccountID:               t.AccountID,
		Date:                    t.Date.Format(time.DateOnly),
		Description:             t.Description,
		Amount:                  t.Amount,
		DisplayAmount:           utils.CentsToDecimal(t.Amount),
		CurrencyCode:            t.CurrencyCode,
		CategoryID:              t.CategoryID,
		SourceFeedTransactionID: t.SourceFeedTransactionID,
		TransferID:              t.TransferID,
	}
}

// ToBulkCreateTransactionsResponse converts bulk create results and tallies outcomes.
func ToBulkCreateTransactionsResponse(results []domain.BulkItemResult) BulkCreateTransactionsResponse {
	return BulkCreateTransactionsResponse(ToBulkConfirmMatchesResponse(results))
}
