package matching

import (
	"slices"
	"sort"

	"github.com/SscSPs/bank_reconciliation/internal/core/domain"
)

// PlanInput is everything a suggestion pass needs for one account and period.
type PlanInput struct {
	// Feeds are the feed transactions of the account and period.
	Feeds []domain.BankFeedTransaction
	// Existing maps feed id to its active match row, if any.
	Existing map[string]domain.TransactionMatch
	// Candidates are ledger transactions of the account around the period.
	Candidates []domain.Transaction
	// Consumed holds transaction ids already matched anywhere.
	Consumed map[string]bool
	// Resolved holds feed ids that are settled by a confirmed transfer.
	Resolved map[string]bool
	// PeriodLocked disables auto-matching. Callers refuse the pass entirely on lock.
	PeriodLocked bool
}

// Decision is the planned state of one feed transaction's match row.
type Decision struct {
	Feed          domain.BankFeedTransaction
	Status        domain.MatchStatus
	TransactionID *string
	Best          *Score
	AutoMatched   bool
	// Changed is false when the existing active row already has this outcome.
	Changed bool
}

// Engine plans suggestion passes.
type Engine struct {
	cfg    Config
	scorer *Scorer
}

// NewEngine returns an Engine with its own Scorer.
func NewEngine(cfg Config) *Engine {
	return &Engine{cfg: cfg, scorer: NewScorer(cfg)}
}

// Config returns the tuning the engine was built with.
func (e *Engine) Config() Config {
	return e.cfg
}

// Scorer exposes the engine's scorer.
func (e *Engine) Scorer() *Scorer {
	return e.scorer
}

// Plan decides the match status of every feed transaction that is not already matched.
// Feeds are visited in date then id order so auto-match claims are reproducible.
func (e *Engine) Plan(in PlanInput) []Decision {
	feeds := slices.Clone(in.Feeds)
	sort.Slice(feeds, func(i, j int) bool {
		if !feeds[i].Date.Equal(feeds[j].Date) {
			return feeds[i].Date.Before(feeds[j].Date)
		}
		return feeds[i].FeedTransactionID < feeds[j].FeedTransactionID
	})

	claimed := make(map[string]bool, len(in.Consumed))
	for id, ok := range in.Consumed {
		if ok {
			claimed[id] = true
		}
	}

	pool := make([]Fingerprint, 0, len(in.Candidates))
	for _, c := range in.Candidates {
		pool = append(pool, FingerprintLedger(c))
	}

	decisions := make([]Decision, 0, len(feeds))
	for _, feed := range feeds {
		existing, hasExisting := in.Existing[feed.FeedTransactionID]
		if hasExisting && existing.IsMatched() {
			continue
		}
		if in.Resolved[feed.FeedTransactionID] {
			continue
		}

		ranked := e.scorer.Rank(FingerprintFeed(feed), available(pool, claimed))
		d := Decision{Feed: feed, Status: domain.MatchStatusUnmatched}
		if len(ranked) > 0 {
			best := ranked[0]
			d.Best = &best
			if best.Confidence >= e.cfg.SuggestThreshold {
				txID := best.CandidateID
				d.TransactionID = &txID
				d.Status = domain.MatchStatusSuggested
				if e.autoMatchable(best, in.PeriodLocked) {
					d.Status = domain.MatchStatusMatched
					d.AutoMatched = true
					claimed[txID] = true
				}
			}
		}
		d.Changed = !hasExisting || !sameOutcome(existing, d)
		decisions = append(decisions, d)
	}
	return decisions
}

// Suggestions ranks candidates for one feed, skipping consumed transactions and
// anything below the suggest threshold.
func (e *Engine) Suggestions(feed domain.BankFeedTransaction, candidates []domain.Transaction, consumed map[string]bool, limit int) []Score {
	pool := make([]Fingerprint, 0, len(candidates))
	for _, c := range candidates {
		if consumed[c.TransactionID] {
			continue
		}
		pool = append(pool, FingerprintLedger(c))
	}
	ranked := e.scorer.Rank(FingerprintFeed(feed), pool)
	out := ranked[:0]
	for _, sc := range ranked {
		if sc.Confidence >= e.cfg.SuggestThreshold {
			out = append(out, sc)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// IsExactMatch reports whether a score qualifies for automatic promotion to matched.
func (e *Engine) IsExactMatch(sc Score) bool {
	return sc.Eligible &&
		sc.Confidence >= e.cfg.AutoMatchConfidence &&
		sc.DateDistanceDays == 0 &&
		sc.DescriptionSimilarity >= e.cfg.AutoMatchDescriptionSimilarity
}

func (e *Engine) autoMatchable(sc Score, periodLocked bool) bool {
	return e.cfg.AutoMatchEnabled && !periodLocked && e.IsExactMatch(sc)
}

func available(pool []Fingerprint, claimed map[string]bool) []Fingerprint {
	if len(claimed) == 0 {
		return pool
	}
	out := make([]Fingerprint, 0, len(pool))
	for _, fp := range pool {
		if !claimed[fp.ID] {
			out = append(out, fp)
		}
	}
	return out
}

func sameOutcome(existing domain.TransactionMatch, d Decision) bool {
	if existing.Status != d.Status {
		return false
	}
	switch {
	case existing.TransactionID == nil && d.TransactionID == nil:
	case existing.TransactionID != nil && d.TransactionID != nil && *existing.TransactionID == *d.TransactionID:
	default:
		return false
	}
	return existing.Confidence == d.Confidence() && slices.Equal(existing.Reasons, d.Reasons())
}

// Confidence is the score stored on the row. Unmatched rows keep the best
// below-threshold score so callers can see how close the pass came.
func (d Decision) Confidence() float64 {
	if d.Best == nil {
		return 0
	}
	return d.Best.Confidence
}

// Reasons is the reason list stored on the row.
func (d Decision) Reasons() []string {
	if d.Best == nil {
		return []string{}
	}
	return d.Best.Reasons
}
