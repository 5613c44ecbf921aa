package models

import "time"

// FeedTransaction is a row of feed_transactions. Amount is signed cents.
type FeedTransaction struct {
	FeedTransactionID string    `db:"feed_transaction_id"`
	WorkplaceID       string    `db:"workplace_id"`
	AccountID         string    `db:"account_id"`
	TransactionDate   time.Time `db:"transaction_date"`
	Description       string    `db:"description"`
	Amount            int64     `db:"amount"`
	CurrencyCode      string    `db:"currency_code"`
	CreatedAt         time.Time `db:"created_at"`
	CreatedBy         string    `db:"created_by"`
}
