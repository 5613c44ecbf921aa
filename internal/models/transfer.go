package models

import (
	"database/sql"
	"time"

	"github.com/shopspring/decimal"
)

// DetectedTransfer is a row of detected_transfers.
type DetectedTransfer struct {
	TransferID       string              `db:"transfer_id"`
	WorkplaceID      string              `db:"workplace_id"`
	FromFeedID       string              `db:"from_feed_id"`
	ToFeedID         string              `db:"to_feed_id"`
	FromAccountID    string              `db:"from_account_id"`
	ToAccountID      string              `db:"to_account_id"`
	FromDate         time.Time           `db:"from_date"`
	ToDate           time.Time           `db:"to_date"`
	Amount           int64               `db:"amount"`
	CurrencyCode     string              `db:"currency_code"`
	ToAmount         int64               `db:"to_amount"`
	ToCurrencyCode   string              `db:"to_currency_code"`
	ExchangeRate     decimal.NullDecimal `db:"exchange_rate"`
	DateDistanceDays int                 `db:"date_distance_days"`
	Status           string              `db:"status"`
	ConfirmedAt      sql.NullTime        `db:"confirmed_at"`
	ConfirmedBy      sql.NullString      `db:"confirmed_by"`
	Version          int                 `db:"version"`
	AuditFields
}
