package repositories

import (
	"context"

	"github.com/SscSPs/bank_reconciliation/internal/core/domain"
)

// ExchangeRateReader is the optional FX collaborator used for cross-currency transfers.
type ExchangeRateReader interface {
	// FindExchangeRate returns the latest rate, falling back to the inverse of the
	// opposite pair. ErrNotFound when neither exists.
	FindExchangeRate(ctx context.Context, fromCurrencyCode, toCurrencyCode string) (*domain.ExchangeRate, error)
}
