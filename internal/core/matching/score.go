package matching

import (
	"fmt"
	"math"
	"sort"
)

// Reasons that are not tied to a sub-score weight.
const (
	ReasonCurrencyMismatch = "currency mismatch"
	ReasonAmountMismatch   = "amount mismatch"
	ReasonOutsideWindow    = "outside date window"
)

// Score is the outcome of comparing one feed fingerprint with one candidate.
type Score struct {
	CandidateID           string
	Confidence            float64
	Reasons               []string
	DateDistanceDays      int
	DescriptionSimilarity float64
	SameAccount           bool
	// Eligible is false when a hard gate (currency, amount, window) rejected the pair.
	Eligible bool
}

// Scorer combines weighted rules into a confidence in [0,1].
type Scorer struct {
	cfg Config
}

// NewScorer returns a Scorer using cfg.
func NewScorer(cfg Config) *Scorer {
	return &Scorer{cfg: cfg}
}

type contribution struct {
	value  float64
	order  int
	reason string
}

// Score compares feed against candidate. It never reads the clock.
func (s *Scorer) Score(feed, candidate Fingerprint) Score {
	out := Score{
		CandidateID:      candidate.ID,
		DateDistanceDays: DateDistanceDays(feed.Date, candidate.Date),
		SameAccount:      feed.AccountID != "" && feed.AccountID == candidate.AccountID,
	}

	if !feed.Amount.SameCurrency(candidate.Amount) {
		out.Reasons = []string{ReasonCurrencyMismatch}
		return out
	}
	// Wrong amount is never a candidate, whatever the description says.
	if feed.Amount.Cents != candidate.Amount.Cents {
		out.Reasons = []string{ReasonAmountMismatch}
		return out
	}
	if out.DateDistanceDays > s.cfg.MaxWindowDays {
		out.Reasons = []string{ReasonOutsideWindow}
		return out
	}
	out.Eligible = true

	w := s.cfg.Weights
	parts := []contribution{{value: w.Amount, order: 0, reason: "exact amount match"}}

	var dateCredit float64
	if s.cfg.MaxWindowDays == 0 {
		dateCredit = 1
	} else {
		dateCredit = 1 - float64(out.DateDistanceDays)/float64(s.cfg.MaxWindowDays)
	}
	parts = append(parts, contribution{value: w.Date * dateCredit, order: 1, reason: dateReason(out.DateDistanceDays)})

	out.DescriptionSimilarity = Jaccard(feed.Tokens, candidate.Tokens)
	parts = append(parts, contribution{
		value:  w.Description * out.DescriptionSimilarity,
		order:  2,
		reason: fmt.Sprintf("description similarity %.2f", out.DescriptionSimilarity),
	})

	if out.SameAccount {
		parts = append(parts, contribution{value: w.AccountBonus, order: 3, reason: "same account"})
	}

	sort.SliceStable(parts, func(i, j int) bool {
		if parts[i].value != parts[j].value {
			return parts[i].value > parts[j].value
		}
		return parts[i].order < parts[j].order
	})

	var total float64
	for _, p := range parts {
		if p.value <= 0 {
			continue
		}
		total += p.value
		out.Reasons = append(out.Reasons, p.reason)
	}
	out.Confidence = clamp(roundConfidence(total))
	return out
}

// Rank scores every candidate and returns the eligible ones, best first.
// Ties on confidence go to the smaller date distance, then the smaller id.
func (s *Scorer) Rank(feed Fingerprint, candidates []Fingerprint) []Score {
	ranked := make([]Score, 0, len(candidates))
	for _, c := range candidates {
		sc := s.Score(feed, c)
		if sc.Eligible {
			ranked = append(ranked, sc)
		}
	}
	SortScores(ranked)
	return ranked
}

// SortScores orders scores by confidence desc, date distance asc, candidate id asc.
func SortScores(scores []Score) {
	sort.Slice(scores, func(i, j int) bool {
		a, b := scores[i], scores[j]
		if a.Confidence != b.Confidence {
			return a.Confidence > b.Confidence
		}
		if a.DateDistanceDays != b.DateDistanceDays {
			return a.DateDistanceDays < b.DateDistanceDays
		}
		return a.CandidateID < b.CandidateID
	})
}

func dateReason(days int) string {
	switch days {
	case 0:
		return "same day"
	case 1:
		return "1 day apart"
	default:
		return fmt.Sprintf("%d days apart", days)
	}
}

func roundConfidence(v float64) float64 {
	return math.Round(v*10000) / 10000
}

func clamp(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
