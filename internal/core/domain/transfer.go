package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransferStatus is the state of a detected transfer hypothesis.
type TransferStatus string

const (
	TransferStatusSuggested TransferStatus = "suggested"
	TransferStatusConfirmed TransferStatus = "confirmed"
	TransferStatusRejected  TransferStatus = "rejected"
)

// DetectedTransfer pairs an outflow feed line in one account with an inflow in another.
type DetectedTransfer struct {
	TransferID       string           `json:"transferID"`
	WorkplaceID      string           `json:"workplaceID"`
	FromFeedID       string           `json:"fromFeedID"`
	ToFeedID         string           `json:"toFeedID"`
	FromAccountID    string           `json:"fromAccountID"`
	ToAccountID      string           `json:"toAccountID"`
	FromDate         time.Time        `json:"fromDate"`
	ToDate           time.Time        `json:"toDate"`
	Amount           int64            `json:"amount"` // Positive cents leaving FromAccount
	CurrencyCode     string           `json:"currencyCode"`
	ToAmount         int64            `json:"toAmount"` // Positive cents arriving in ToAccount
	ToCurrencyCode   string           `json:"toCurrencyCode"`
	ExchangeRate     *decimal.Decimal `json:"exchangeRate,omitempty"`
	DateDistanceDays int              `json:"dateDistanceDays"`
	Status           TransferStatus   `json:"status"`
	ConfirmedAt      *time.Time       `json:"confirmedAt,omitempty"`
	ConfirmedBy      *string          `json:"confirmedBy,omitempty"`
	Version          int              `json:"version"`
	AuditFields
}

// IsActive reports whether the transfer still claims its feed transactions.
func (t DetectedTransfer) IsActive() bool {
	return t.Status != TransferStatusRejected
}

// Involves reports whether feedID is one of the two sides.
func (t DetectedTransfer) Involves(feedID string) bool {
	return t.FromFeedID == feedID || t.ToFeedID == feedID
}

// Sides returns the account and date of both legs, used for period lock checks.
func (t DetectedTransfer) Sides() []AccountPeriod {
	return []AccountPeriod{
		{AccountID: t.FromAccountID, Period: PeriodOf(t.FromDate)},
		{AccountID: t.ToAccountID, Period: PeriodOf(t.ToDate)},
	}
}
