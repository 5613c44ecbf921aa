package domain

import "time"

// MatchStatus is the reconciliation state of a feed transaction's match row.
type MatchStatus string

const (
	MatchStatusUnmatched MatchStatus = "unmatched"
	MatchStatusSuggested MatchStatus = "suggested"
	MatchStatusMatched   MatchStatus = "matched"
)

// Valid reports whether s is a known status.
func (s MatchStatus) Valid() bool {
	switch s {
	case MatchStatusUnmatched, MatchStatusSuggested, MatchStatusMatched:
		return true
	}
	return false
}

// Lifecycle replaces nullable deleted timestamps on match and transfer rows.
type Lifecycle string

const (
	LifecycleActive  Lifecycle = "active"
	LifecycleDeleted Lifecycle = "deleted"
)

// TransactionMatch links one feed transaction to at most one ledger transaction.
//
// A feed transaction has at most one active match. A ledger transaction is the target of
// at most one active matched row, but may back several suggested rows.
type TransactionMatch struct {
	MatchID           string      `json:"matchID"`
	WorkplaceID       string      `json:"workplaceID"`
	AccountID         string      `json:"accountID"`
	FeedTransactionID string      `json:"feedTransactionID"`
	FeedDate          time.Time   `json:"feedDate"`
	TransactionID     *string     `json:"transactionID"`
	Status            MatchStatus `json:"status"`
	Confidence        float64     `json:"confidence"`
	Reasons           []string    `json:"reasons"`
	MatchedAt         *time.Time  `json:"matchedAt"`
	MatchedBy         *string     `json:"matchedBy"`
	Lifecycle         Lifecycle   `json:"lifecycle"`
	Version           int         `json:"version"`
	AuditFields
}

// IsActive reports whether the row has not been unmatched.
func (m TransactionMatch) IsActive() bool {
	return m.Lifecycle == LifecycleActive
}

// IsMatched reports whether the row is an active confirmed match.
func (m TransactionMatch) IsMatched() bool {
	return m.IsActive() && m.Status == MatchStatusMatched
}

// TargetsTransaction reports whether the match points at transactionID.
func (m TransactionMatch) TargetsTransaction(transactionID string) bool {
	return m.TransactionID != nil && *m.TransactionID == transactionID
}

// MatchSuggestion is a ranked, not persisted, candidate for a feed transaction.
type MatchSuggestion struct {
	FeedTransactionID string      `json:"feedTransactionID"`
	TransactionID     string      `json:"transactionID"`
	Confidence        float64     `json:"confidence"`
	Reasons           []string    `json:"reasons"`
	DateDistanceDays  int         `json:"dateDistanceDays"`
	Transaction       Transaction `json:"transaction"`
}

// MatchFilter narrows a match listing.
type MatchFilter struct {
	AccountID *string
	Period    *Period
	Status    *MatchStatus
}

// SuggestionRunResult summarizes one suggestion generation pass.
type SuggestionRunResult struct {
	AccountID   string             `json:"accountID"`
	Period      Period             `json:"period"`
	Considered  int                `json:"considered"`
	Suggested   int                `json:"suggested"`
	AutoMatched int                `json:"autoMatched"`
	Unmatched   int                `json:"unmatched"`
	Matches     []TransactionMatch `json:"matches"`
}

// BulkItemResult is the outcome of one item in a bulk operation.
type BulkItemResult struct {
	ID        string            `json:"id"`
	Success   bool              `json:"success"`
	Error     string            `json:"error,omitempty"`
	ErrorCode string            `json:"errorCode,omitempty"`
	Match     *TransactionMatch `json:"match,omitempty"`
	// Transaction is the ledger transaction created for the item, when there is one.
	Transaction *Transaction `json:"transaction,omitempty"`
}
