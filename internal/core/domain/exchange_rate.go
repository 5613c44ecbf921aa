package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ExchangeRate converts one unit of FromCurrencyCode into Rate units of ToCurrencyCode.
type ExchangeRate struct {
	ExchangeRateID   string          `json:"exchangeRateID"`
	FromCurrencyCode string          `json:"fromCurrencyCode"`
	ToCurrencyCode   string          `json:"toCurrencyCode"`
	Rate             decimal.Decimal `json:"rate"`
	DateEffective    time.Time       `json:"dateEffective"`
	AuditFields
}

// Convert applies the rate to signed cents, rounding half away from zero.
func (r ExchangeRate) Convert(cents int64) int64 {
	return decimal.NewFromInt(cents).Mul(r.Rate).Round(0).IntPart()
}
