package matching

import (
	"fmt"
	"sort"

	"github.com/SscSPs/bank_reconciliation/internal/apperrors"
	"github.com/SscSPs/bank_reconciliation/internal/core/domain"
	"github.com/shopspring/decimal"
)

// RateLookup supplies conversion rates for cross-currency transfers.
// ok is false when no rate is known for the pair.
type RateLookup interface {
	Rate(from, to string) (rate decimal.Decimal, ok bool)
}

// TransferPair is a proposed outflow/inflow pairing.
type TransferPair struct {
	From             domain.BankFeedTransaction
	To               domain.BankFeedTransaction
	DateDistanceDays int
	// Rate is set when the legs are in different currencies.
	Rate *decimal.Decimal
}

// Key identifies the pair independent of its direction.
func (p TransferPair) Key() string {
	return PairKey(p.From.FeedTransactionID, p.To.FeedTransactionID)
}

// PairKey orders two feed ids so (A,B) and (B,A) collide.
func PairKey(a, b string) string {
	if b < a {
		a, b = b, a
	}
	return a + "|" + b
}

// ToTransfer converts the pair into a suggested DetectedTransfer skeleton.
func (p TransferPair) ToTransfer() domain.DetectedTransfer {
	return domain.DetectedTransfer{
		WorkplaceID:      p.From.WorkplaceID,
		FromFeedID:       p.From.FeedTransactionID,
		ToFeedID:         p.To.FeedTransactionID,
		FromAccountID:    p.From.AccountID,
		ToAccountID:      p.To.AccountID,
		FromDate:         domain.DateOnly(p.From.Date),
		ToDate:           domain.DateOnly(p.To.Date),
		Amount:           -p.From.Amount,
		CurrencyCode:     p.From.CurrencyCode,
		ToAmount:         p.To.Amount,
		ToCurrencyCode:   p.To.CurrencyCode,
		ExchangeRate:     p.Rate,
		DateDistanceDays: p.DateDistanceDays,
		Status:           domain.TransferStatusSuggested,
	}
}

// TransferDetector pairs feed lines across accounts.
type TransferDetector struct {
	cfg Config
}

// NewTransferDetector returns a detector using cfg's window and FX settings.
func NewTransferDetector(cfg Config) *TransferDetector {
	return &TransferDetector{cfg: cfg}
}

// Detect proposes transfer pairs among feeds, skipping ids in excluded.
// Each feed appears in at most one returned pair. Competing pairs are settled by
// smallest date distance, then smallest combined id.
func (d *TransferDetector) Detect(feeds []domain.BankFeedTransaction, excluded map[string]bool, rates RateLookup) []TransferPair {
	var outflows, inflows []domain.BankFeedTransaction
	for _, f := range feeds {
		if excluded[f.FeedTransactionID] || f.Amount == 0 {
			continue
		}
		if f.Amount < 0 {
			outflows = append(outflows, f)
		} else {
			inflows = append(inflows, f)
		}
	}

	seen := make(map[string]bool)
	var candidates []TransferPair
	for _, out := range outflows {
		for _, in := range inflows {
			pair, ok := d.pair(out, in, rates)
			if !ok || seen[pair.Key()] {
				continue
			}
			seen[pair.Key()] = true
			candidates = append(candidates, pair)
		}
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].DateDistanceDays != candidates[j].DateDistanceDays {
			return candidates[i].DateDistanceDays < candidates[j].DateDistanceDays
		}
		return candidates[i].Key() < candidates[j].Key()
	})

	used := make(map[string]bool)
	var pairs []TransferPair
	for _, p := range candidates {
		if used[p.From.FeedTransactionID] || used[p.To.FeedTransactionID] {
			continue
		}
		used[p.From.FeedTransactionID] = true
		used[p.To.FeedTransactionID] = true
		pairs = append(pairs, p)
	}
	return pairs
}

// Validate checks a manually proposed pairing and orients it outflow first.
func (d *TransferDetector) Validate(a, b domain.BankFeedTransaction, rates RateLookup) (TransferPair, error) {
	if a.FeedTransactionID == b.FeedTransactionID || a.AccountID == b.AccountID {
		return TransferPair{}, fmt.Errorf("%w: transfer legs must be in two different accounts", apperrors.ErrValidation)
	}
	if a.WorkplaceID != b.WorkplaceID {
		return TransferPair{}, fmt.Errorf("%w: transfer legs belong to different workplaces", apperrors.ErrNotFound)
	}
	out, in := a, b
	if out.Amount > 0 {
		out, in = b, a
	}
	if out.Amount >= 0 || in.Amount <= 0 {
		return TransferPair{}, fmt.Errorf("%w: transfer legs must have opposite signs", apperrors.ErrValidation)
	}
	if DateDistanceDays(out.Date, in.Date) > d.cfg.MaxWindowDays {
		return TransferPair{}, fmt.Errorf("%w: transfer legs are more than %d days apart", apperrors.ErrValidation, d.cfg.MaxWindowDays)
	}
	if !NormalizeAmount(out.Amount, out.CurrencyCode).SameCurrency(NormalizeAmount(in.Amount, in.CurrencyCode)) && !d.fxAvailable(rates) {
		return TransferPair{}, fmt.Errorf("%w: cross-currency transfer without a conversion rate", apperrors.ErrValidation)
	}
	pair, ok := d.pair(out, in, rates)
	if !ok {
		return TransferPair{}, fmt.Errorf("%w: transfer amounts do not offset", apperrors.ErrValidation)
	}
	return pair, nil
}

func (d *TransferDetector) fxAvailable(rates RateLookup) bool {
	return d.cfg.FXEnabled && rates != nil
}

func (d *TransferDetector) pair(out, in domain.BankFeedTransaction, rates RateLookup) (TransferPair, bool) {
	if out.AccountID == in.AccountID {
		return TransferPair{}, false
	}
	dist := DateDistanceDays(out.Date, in.Date)
	if dist > d.cfg.MaxWindowDays {
		return TransferPair{}, false
	}
	outAmt := NormalizeAmount(out.Amount, out.CurrencyCode)
	inAmt := NormalizeAmount(in.Amount, in.CurrencyCode)
	p := TransferPair{From: out, To: in, DateDistanceDays: dist}

	if outAmt.SameCurrency(inAmt) {
		return p, inAmt.Cents == -outAmt.Cents
	}
	if !d.fxAvailable(rates) {
		return TransferPair{}, false
	}
	rate, ok := rates.Rate(outAmt.Currency, inAmt.Currency)
	if !ok || !rate.IsPositive() {
		return TransferPair{}, false
	}
	converted := domain.ExchangeRate{Rate: rate}.Convert(-outAmt.Cents)
	diff := converted - inAmt.Cents
	if diff < 0 {
		diff = -diff
	}
	if diff > d.cfg.FXToleranceCents {
		return TransferPair{}, false
	}
	p.Rate = &rate
	return p, true
}
