package domain

import "time"

// BankFeedTransaction is one bank-statement line as delivered by the feed import.
// Rows are immutable; corrections arrive as new rows.
type BankFeedTransaction struct {
	FeedTransactionID string    `json:"feedTransactionID"`
	WorkplaceID       string    `json:"workplaceID"`
	AccountID         string    `json:"accountID"`
	Date              time.Time `json:"date"`
	Description       string    `json:"description"`
	Amount            int64     `json:"amount"` // Signed cents
	CurrencyCode      string    `json:"currencyCode"`
	CreatedAt         time.Time `json:"createdAt"`
	CreatedBy         string    `json:"createdBy"`
}

// IsOutflow reports whether money left the account.
func (f BankFeedTransaction) IsOutflow() bool {
	return f.Amount < 0
}
