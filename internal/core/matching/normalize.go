package matching

import (
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/SscSPs/bank_reconciliation/internal/core/domain"
)

// noiseTokens are processor and channel words that differ between bank text and memos.
var noiseTokens = map[string]struct{}{
	"pos": {}, "ach": {}, "dd": {}, "debit": {}, "card": {}, "purchase": {},
	"visa": {}, "mastercard": {}, "mc": {}, "amex": {}, "sq": {}, "tst": {},
	"pp": {}, "paypal": {}, "ref": {}, "txn": {}, "trx": {}, "pending": {},
	"www": {}, "com": {}, "inc": {}, "llc": {}, "ltd": {},
}

// Amount is a currency-tagged signed cents value.
type Amount struct {
	Cents    int64
	Currency string
}

// NormalizeAmount keeps the sign and upper-cases the currency code.
func NormalizeAmount(cents int64, currency string) Amount {
	return Amount{Cents: cents, Currency: strings.ToUpper(strings.TrimSpace(currency))}
}

// SameCurrency reports whether both amounts are in one currency.
func (a Amount) SameCurrency(b Amount) bool {
	return a.Currency == b.Currency
}

// TokenSet is a set of normalized description tokens.
type TokenSet map[string]struct{}

// Sorted returns the tokens in lexical order.
func (t TokenSet) Sorted() []string {
	out := make([]string, 0, len(t))
	for tok := range t {
		out = append(out, tok)
	}
	sort.Strings(out)
	return out
}

// NormalizeDescription lowercases text and keeps alphanumeric tokens, dropping
// punctuation, processor noise and reference numbers.
func NormalizeDescription(text string) TokenSet {
	tokens := make(TokenSet)
	for _, word := range strings.Fields(text) {
		if strings.HasPrefix(word, "#") {
			continue
		}
		cleaned := strings.Map(func(r rune) rune {
			if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
				return unicode.ToLower(r)
			}
			return ' '
		}, word)
		for _, tok := range strings.Fields(cleaned) {
			if isNoise(tok) {
				continue
			}
			tokens[tok] = struct{}{}
		}
	}
	return tokens
}

func isNoise(tok string) bool {
	if _, ok := noiseTokens[tok]; ok {
		return true
	}
	digits := 0
	for _, r := range tok {
		if r >= '0' && r <= '9' {
			digits++
		}
	}
	switch {
	case digits == len(tok) && digits >= 3:
		return true
	case digits >= 4:
		return true
	}
	return false
}

// Jaccard is |a ∩ b| / |a ∪ b|. Two empty sets carry no evidence and score 0.
func Jaccard(a, b TokenSet) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}
	inter := 0
	for tok := range a {
		if _, ok := b[tok]; ok {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	return float64(inter) / float64(union)
}

// DateDistanceDays is the absolute number of calendar days between a and b.
func DateDistanceDays(a, b time.Time) int {
	d := domain.DateOnly(a).Sub(domain.DateOnly(b))
	days := int(d.Hours() / 24)
	if days < 0 {
		return -days
	}
	return days
}

// Fingerprint is the comparable key-set of a feed or ledger record.
type Fingerprint struct {
	ID        string
	AccountID string
	Date      time.Time
	Amount    Amount
	Tokens    TokenSet
}

// FingerprintFeed normalizes a bank feed line.
func FingerprintFeed(f domain.BankFeedTransaction) Fingerprint {
	return Fingerprint{
		ID:        f.FeedTransactionID,
		AccountID: f.AccountID,
		Date:      domain.DateOnly(f.Date),
		Amount:    NormalizeAmount(f.Amount, f.CurrencyCode),
		Tokens:    NormalizeDescription(f.Description),
	}
}

// FingerprintLedger normalizes a ledger transaction.
func FingerprintLedger(t domain.Transaction) Fingerprint {
	return Fingerprint{
		ID:        t.TransactionID,
		AccountID: t.AccountID,
		Date:      domain.DateOnly(t.Date),
		Amount:    NormalizeAmount(t.Amount, t.CurrencyCode),
		Tokens:    NormalizeDescription(t.Description),
	}
}
