package models

import (
	"database/sql"
)

// PeriodLock is a row of period_locks. Period is stored as YYYY-MM.
// Absence of a row means the period is open.
type PeriodLock struct {
	WorkplaceID string         `db:"workplace_id"`
	AccountID   string         `db:"account_id"`
	Period      string         `db:"period"`
	Status      string         `db:"status"`
	LockedAt    sql.NullTime   `db:"locked_at"`
	LockedBy    sql.NullString `db:"locked_by"`
	UnlockedAt  sql.NullTime   `db:"unlocked_at"`
	UnlockedBy  sql.NullString `db:"unlocked_by"`
}
