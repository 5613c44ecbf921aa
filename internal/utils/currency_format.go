package utils

import "github.com/shopspring/decimal"

// CentsToDecimal converts signed minor units into a two-place decimal amount.
// Example: -2000 returns -20.00
func CentsToDecimal(cents int64) decimal.Decimal {
	return decimal.New(cents, -2)
}
