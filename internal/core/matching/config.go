// Package matching holds the pure reconciliation algorithms: normalization, candidate
// scoring, suggestion planning and transfer pairing. Nothing here touches storage or clocks.
package matching

import (
	"fmt"

	"github.com/SscSPs/bank_reconciliation/internal/apperrors"
)

// Weights are the maximum contribution of each sub-score to the confidence.
type Weights struct {
	Amount       float64
	Date         float64
	Description  float64
	AccountBonus float64
}

// Config tunes scoring, suggestion and transfer detection.
type Config struct {
	// MaxWindowDays is the date distance at which date credit reaches zero.
	// Candidates further apart are not scored at all.
	MaxWindowDays int
	// SuggestThreshold is the minimum confidence for a suggested match.
	SuggestThreshold float64
	// AutoMatchEnabled turns on promotion of exact same-day matches to matched.
	AutoMatchEnabled bool
	// AutoMatchConfidence is the minimum confidence for auto-match. The default sits just
	// under 1.0 to absorb float rounding.
	AutoMatchConfidence float64
	// AutoMatchDescriptionSimilarity is the minimum token similarity for auto-match.
	AutoMatchDescriptionSimilarity float64
	Weights                        Weights
	// FXEnabled allows cross-currency transfer pairing when a rate source is supplied.
	FXEnabled bool
	// FXToleranceCents is the allowed difference after conversion.
	FXToleranceCents int64
}

// DefaultConfig returns the stock tuning.
func DefaultConfig() Config {
	return Config{
		MaxWindowDays:                  5,
		SuggestThreshold:               0.55,
		AutoMatchEnabled:               true,
		AutoMatchConfidence:            0.999,
		AutoMatchDescriptionSimilarity: 0.95,
		Weights: Weights{
			Amount:       0.50,
			Date:         0.25,
			Description:  0.20,
			AccountBonus: 0.05,
		},
		FXEnabled:        false,
		FXToleranceCents: 0,
	}
}

// Validate rejects tunings that would make scores meaningless.
func (c Config) Validate() error {
	if c.MaxWindowDays < 0 {
		return fmt.Errorf("%w: max window days must not be negative, got %d", apperrors.ErrValidation, c.MaxWindowDays)
	}
	if c.SuggestThreshold < 0 || c.SuggestThreshold > 1 {
		return fmt.Errorf("%w: suggest threshold must be within [0,1], got %v", apperrors.ErrValidation, c.SuggestThreshold)
	}
	if c.AutoMatchConfidence < 0 || c.AutoMatchConfidence > 1 {
		return fmt.Errorf("%w: auto-match confidence must be within [0,1], got %v", apperrors.ErrValidation, c.AutoMatchConfidence)
	}
	if c.AutoMatchDescriptionSimilarity < 0 || c.AutoMatchDescriptionSimilarity > 1 {
		return fmt.Errorf("%w: auto-match description similarity must be within [0,1], got %v", apperrors.ErrValidation, c.AutoMatchDescriptionSimilarity)
	}
	w := c.Weights
	if w.Amount < 0 || w.Date < 0 || w.Description < 0 || w.AccountBonus < 0 {
		return fmt.Errorf("%w: scoring weights must not be negative", apperrors.ErrValidation)
	}
	if w.Amount+w.Date+w.Description+w.AccountBonus == 0 {
		return fmt.Errorf("%w: at least one scoring weight must be positive", apperrors.ErrValidation)
	}
	if c.FXToleranceCents < 0 {
		return fmt.Errorf("%w: fx tolerance must not be negative", apperrors.ErrValidation)
	}
	return nil
}
