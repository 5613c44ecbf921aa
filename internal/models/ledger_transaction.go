package models

import (
	"database/sql"
	"time"
)

// LedgerTransaction is a row of ledger_transactions, the register entries match candidates come from.
type LedgerTransaction struct {
	TransactionID           string         `db:"transaction_id"`
	WorkplaceID             string         `db:"workplace_id"`
	AccountID               string         `db:"account_id"`
	TransactionDate         time.Time      `db:"transaction_date"`
	Description             string         `db:"description"`
	Amount                  int64          `db:"amount"`
	CurrencyCode            string         `db:"currency_code"`
	CategoryID              sql.NullString `db:"category_id"`
	SourceFeedTransactionID sql.NullString `db:"source_feed_transaction_id"`
	TransferID              sql.NullString `db:"transfer_id"`
	AuditFields
}
