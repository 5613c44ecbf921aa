package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Period is a calendar month, rendered as YYYY-MM.
type Period struct {
	year  int
	month time.Month
}

// NewPeriod validates year and month.
func NewPeriod(year int, month time.Month) (Period, error) {
	if year < 1900 || year > 9999 {
		return Period{}, fmt.Errorf("invalid period year %d", year)
	}
	if month < time.January || month > time.December {
		return Period{}, fmt.Errorf("invalid period month %d", month)
	}
	return Period{year: year, month: month}, nil
}

// ParsePeriod parses a YYYY-MM key.
func ParsePeriod(s string) (Period, error) {
	parts := strings.Split(strings.TrimSpace(s), "-")
	if len(parts) != 2 || len(parts[0]) != 4 || len(parts[1]) != 2 {
		return Period{}, fmt.Errorf("invalid period %q: expected YYYY-MM", s)
	}
	year, err := strconv.Atoi(parts[0])
	if err != nil {
		return Period{}, fmt.Errorf("invalid period %q: %w", s, err)
	}
	month, err := strconv.Atoi(parts[1])
	if err != nil {
		return Period{}, fmt.Errorf("invalid period %q: %w", s, err)
	}
	return NewPeriod(year, time.Month(month))
}

// PeriodOf returns the period containing t (UTC).
func PeriodOf(t time.Time) Period {
	t = t.UTC()
	return Period{year: t.Year(), month: t.Month()}
}

func (p Period) Year() int         { return p.year }
func (p Period) Month() time.Month { return p.month }
func (p Period) IsZero() bool      { return p.year == 0 }

func (p Period) String() string {
	return fmt.Sprintf("%04d-%02d", p.year, p.month)
}

// StartDate is the first day of the month.
func (p Period) StartDate() time.Time {
	return time.Date(p.year, p.month, 1, 0, 0, 0, 0, time.UTC)
}

// EndDate is the last day of the month.
func (p Period) EndDate() time.Time {
	return p.StartDate().AddDate(0, 1, -1)
}

// Range is the inclusive day range of the month.
func (p Period) Range() DateRange {
	return DateRange{From: p.StartDate(), To: p.EndDate()}
}

// Contains reports whether t falls in the month (UTC).
func (p Period) Contains(t time.Time) bool {
	t = t.UTC()
	return t.Year() == p.year && t.Month() == p.month
}

func (p Period) Next() Period {
	if p.month == time.December {
		return Period{year: p.year + 1, month: time.January}
	}
	return Period{year: p.year, month: p.month + 1}
}

func (p Period) Previous() Period {
	if p.month == time.January {
		return Period{year: p.year - 1, month: time.December}
	}
	return Period{year: p.year, month: p.month - 1}
}

func (p Period) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p *Period) UnmarshalText(b []byte) error {
	parsed, err := ParsePeriod(string(b))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// AccountPeriod identifies one lockable unit.
type AccountPeriod struct {
	AccountID string
	Period    Period
}

// PeriodLockState is the lock state of an account period.
type PeriodLockState string

const (
	PeriodOpen   PeriodLockState = "open"
	PeriodLocked PeriodLockState = "locked"
)

// PeriodCounts are the derived reconciliation counts for an account period.
type PeriodCounts struct {
	Matched           int `json:"matchedCount"`
	Suggested         int `json:"suggestedCount"`
	Unmatched         int `json:"unmatchedCount"`
	ResolvedTransfers int `json:"transferCount"`
}

// Reconciled reports whether every feed line is matched or resolved by a transfer.
func (c PeriodCounts) Reconciled() bool {
	return c.Suggested == 0 && c.Unmatched == 0
}

// Total is the number of feed transactions counted.
func (c PeriodCounts) Total() int {
	return c.Matched + c.Suggested + c.Unmatched + c.ResolvedTransfers
}

// PeriodStatus is the reconciliation status of one account and month.
// Counts are derived on demand; only the lock metadata is stored.
type PeriodStatus struct {
	WorkplaceID string          `json:"workplaceID"`
	AccountID   string          `json:"accountID"`
	Period      Period          `json:"period"`
	Status      PeriodLockState `json:"status"`
	PeriodCounts
	LockedAt   *time.Time `json:"lockedAt"`
	LockedBy   *string    `json:"lockedBy"`
	UnlockedAt *time.Time `json:"unlockedAt"`
	UnlockedBy *string    `json:"unlockedBy"`
}

// IsLocked reports whether mutations are currently refused.
func (s PeriodStatus) IsLocked() bool {
	return s.Status == PeriodLocked
}

// CanLock applies the open -> locked rule to the given counts.
func (s PeriodStatus) CanLock() bool {
	return s.Status == PeriodLocked || s.PeriodCounts.Reconciled()
}

// FeedResolution classifies a feed transaction for period counting.
type FeedResolution string

const (
	ResolutionMatched   FeedResolution = "matched"
	ResolutionTransfer  FeedResolution = "transfer"
	ResolutionSuggested FeedResolution = "suggested"
	ResolutionUnmatched FeedResolution = "unmatched"
)

// Add counts one feed line into c.
func (c *PeriodCounts) Add(r FeedResolution) {
	switch r {
	case ResolutionMatched:
		c.Matched++
	case ResolutionTransfer:
		c.ResolvedTransfers++
	case ResolutionSuggested:
		c.Suggested++
	default:
		c.Unmatched++
	}
}

// Resolve classifies a feed line from its active match (nil if none) and whether
// it belongs to a confirmed transfer.
func Resolve(activeMatch *TransactionMatch, inConfirmedTransfer bool) FeedResolution {
	switch {
	case activeMatch != nil && activeMatch.IsMatched():
		return ResolutionMatched
	case inConfirmedTransfer:
		return ResolutionTransfer
	case activeMatch != nil && activeMatch.IsActive() && activeMatch.Status == MatchStatusSuggested:
		return ResolutionSuggested
	default:
		return ResolutionUnmatched
	}
}
