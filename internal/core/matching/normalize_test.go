package matching_test

import (
	"testing"
	"time"

	"github.com/SscSPs/bank_reconciliation/internal/core/matching"
	"github.com/stretchr/testify/assert"
)

func TestNormalizeDescription(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{name: "strips reference and case", in: "COFFEE SHOP #4521", want: []string{"coffee", "shop"}},
		{name: "collapses punctuation", in: "  Amazon.com*Mktp   US ", want: []string{"amazon", "mktp", "us"}},
		{name: "drops processor noise", in: "POS PURCHASE VISA Whole-Foods 0042", want: []string{"foods", "whole"}},
		{name: "drops long reference numbers", in: "ACH Payroll 20260110 ID9912345", want: []string{"payroll"}},
		{name: "keeps short numbers", in: "Route 66 Diner", want: []string{"66", "diner", "route"}},
		{name: "empty", in: "", want: []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, matching.NormalizeDescription(tt.in).Sorted())
		})
	}
}

func TestNormalizeAmount(t *testing.T) {
	a := matching.NormalizeAmount(-5000, " usd")
	assert.Equal(t, int64(-5000), a.Cents)
	assert.Equal(t, "USD", a.Currency)
	assert.True(t, a.SameCurrency(matching.NormalizeAmount(7, "USD")))
	assert.False(t, a.SameCurrency(matching.NormalizeAmount(-5000, "EUR")))
}

func TestDateDistanceDays(t *testing.T) {
	a := time.Date(2026, 1, 10, 23, 59, 0, 0, time.UTC)
	b := time.Date(2026, 1, 12, 0, 1, 0, 0, time.UTC)
	assert.Equal(t, 2, matching.DateDistanceDays(a, b))
	assert.Equal(t, 2, matching.DateDistanceDays(b, a))
	assert.Equal(t, 0, matching.DateDistanceDays(a, a.Add(-time.Hour)))
	assert.Equal(t, 31, matching.DateDistanceDays(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)))
}

func TestJaccard(t *testing.T) {
	a := matching.NormalizeDescription("coffee shop downtown")
	b := matching.NormalizeDescription("coffee shop")
	assert.InDelta(t, 2.0/3.0, matching.Jaccard(a, b), 1e-9)
	assert.Equal(t, 0.0, matching.Jaccard(matching.TokenSet{}, matching.TokenSet{}))
	assert.Equal(t, 1.0, matching.Jaccard(b, b))
}
