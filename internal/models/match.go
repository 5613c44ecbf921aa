package models

import (
	"database/sql"
	"time"
)

// TransactionMatch is a row of transaction_matches.
type TransactionMatch struct {
	MatchID           string         `db:"match_id"`
	WorkplaceID       string         `db:"workplace_id"`
	AccountID         string         `db:"account_id"`
	FeedTransactionID string         `db:"feed_transaction_id"`
	FeedDate          time.Time      `db:"feed_date"`
	TransactionID     sql.NullString `db:"transaction_id"`
	Status            string         `db:"status"`
	Confidence        float64        `db:"confidence"`
	Reasons           []string       `db:"reasons"`
	MatchedAt         sql.NullTime   `db:"matched_at"`
	MatchedBy         sql.NullString `db:"matched_by"`
	Lifecycle         string         `db:"lifecycle"`
	Version           int            `db:"version"`
	AuditFields
}
