package domain

import "time"

// AuditFields holds standard audit information for domain entities.
type AuditFields struct {
	CreatedAt     time.Time `json:"createdAt"`
	CreatedBy     string    `json:"createdBy"` // UserID Reference
	LastUpdatedAt time.Time `json:"lastUpdatedAt"`
	LastUpdatedBy string    `json:"lastUpdatedBy"` // UserID Reference
}

// SystemActor is recorded as the actor for changes made without a human in the loop.
const SystemActor = "system"

// DateOnly truncates t to its calendar day in UTC.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DateRange is an inclusive range of calendar days.
type DateRange struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// NewDateRange normalizes both ends to calendar days.
func NewDateRange(from, to time.Time) DateRange {
	return DateRange{From: DateOnly(from), To: DateOnly(to)}
}

// Valid reports whether From is not after To.
func (r DateRange) Valid() bool {
	return !r.From.After(r.To)
}

// Contains reports whether the day of t lies within the range.
func (r DateRange) Contains(t time.Time) bool {
	d := DateOnly(t)
	return !d.Before(r.From) && !d.After(r.To)
}

// Expand widens the range by days on both sides.
func (r DateRange) Expand(days int) DateRange {
	return DateRange{From: r.From.AddDate(0, 0, -days), To: r.To.AddDate(0, 0, days)}
}
