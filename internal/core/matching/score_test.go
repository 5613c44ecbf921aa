package matching_test

import (
	"testing"
	"time"

	"github.com/SscSPs/bank_reconciliation/internal/core/domain"
	"github.com/SscSPs/bank_reconciliation/internal/core/matching"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(d int) time.Time {
	return time.Date(2026, 1, d, 0, 0, 0, 0, time.UTC)
}

func feedTx(id, account string, date time.Time, amount int64, desc string) domain.BankFeedTransaction {
	return domain.BankFeedTransaction{
		FeedTransactionID: id, WorkplaceID: "wp-1", AccountID: account,
		Date: date, Amount: amount, CurrencyCode: "USD", Description: desc,
	}
}

func ledgerTx(id, account string, date time.Time, amount int64, desc string) domain.Transaction {
	return domain.Transaction{
		TransactionID: id, WorkplaceID: "wp-1", AccountID: account,
		Date: date, Amount: amount, CurrencyCode: "USD", Description: desc,
	}
}

func TestScore_CoffeeShopScenario(t *testing.T) {
	s := matching.NewScorer(matching.DefaultConfig())
	cat := "cat-food"
	ledger := ledgerTx("tx-1", "acct-1", day(10), -5000, "Coffee Shop")
	ledger.CategoryID = &cat

	sc := s.Score(
		matching.FingerprintFeed(feedTx("f-1", "acct-1", day(10), -5000, "COFFEE SHOP #4521")),
		matching.FingerprintLedger(ledger),
	)

	require.True(t, sc.Eligible)
	assert.GreaterOrEqual(t, sc.Confidence, 0.9)
	assert.Equal(t, 1.0, sc.Confidence)
	assert.Equal(t, []string{"exact amount match", "same day", "description similarity 1.00", "same account"}, sc.Reasons)
}

func TestScore_AmountGate(t *testing.T) {
	s := matching.NewScorer(matching.DefaultConfig())
	feed := matching.FingerprintFeed(feedTx("f-1", "acct-1", day(10), -5000, "Coffee Shop"))

	for _, amount := range []int64{-5001, -4999, 5000, 0, -50000} {
		sc := s.Score(feed, matching.FingerprintLedger(ledgerTx("tx-1", "acct-1", day(10), amount, "Coffee Shop")))
		assert.False(t, sc.Eligible, "amount %d", amount)
		assert.Equal(t, 0.0, sc.Confidence, "amount %d", amount)
		assert.Equal(t, []string{matching.ReasonAmountMismatch}, sc.Reasons)
	}
}

func TestScore_CurrencyMismatch(t *testing.T) {
	s := matching.NewScorer(matching.DefaultConfig())
	ledger := ledgerTx("tx-1", "acct-1", day(10), -5000, "Coffee Shop")
	ledger.CurrencyCode = "EUR"
	sc := s.Score(matching.FingerprintFeed(feedTx("f-1", "acct-1", day(10), -5000, "Coffee Shop")), matching.FingerprintLedger(ledger))
	assert.False(t, sc.Eligible)
	assert.Equal(t, 0.0, sc.Confidence)
	assert.Equal(t, []string{matching.ReasonCurrencyMismatch}, sc.Reasons)
}

func TestScore_DateDecayAndWindow(t *testing.T) {
	s := matching.NewScorer(matching.DefaultConfig())
	feed := matching.FingerprintFeed(feedTx("f-1", "acct-1", day(10), -5000, "rent"))

	near := s.Score(feed, matching.FingerprintLedger(ledgerTx("tx-1", "acct-1", day(12), -5000, "other")))
	require.True(t, near.Eligible)
	// 0.5 amount + 0.25*(1-2/5) date + 0.05 account
	assert.InDelta(t, 0.70, near.Confidence, 1e-9)
	assert.Equal(t, []string{"exact amount match", "2 days apart", "same account"}, near.Reasons)

	edge := s.Score(feed, matching.FingerprintLedger(ledgerTx("tx-2", "acct-1", day(15), -5000, "other")))
	require.True(t, edge.Eligible)
	assert.InDelta(t, 0.55, edge.Confidence, 1e-9)
	assert.NotContains(t, edge.Reasons, "5 days apart")

	far := s.Score(feed, matching.FingerprintLedger(ledgerTx("tx-3", "acct-1", day(16), -5000, "rent")))
	assert.False(t, far.Eligible)
	assert.Equal(t, []string{matching.ReasonOutsideWindow}, far.Reasons)
}

func TestScore_Deterministic(t *testing.T) {
	s := matching.NewScorer(matching.DefaultConfig())
	feed := matching.FingerprintFeed(feedTx("f-1", "acct-1", day(10), -1234, "Uber Trip help.uber.com"))
	cand := matching.FingerprintLedger(ledgerTx("tx-1", "acct-1", day(11), -1234, "uber ride"))

	first := s.Score(feed, cand)
	for i := 0; i < 50; i++ {
		assert.Equal(t, first, s.Score(feed, cand))
	}
}

func TestScore_ReasonsInContributionOrder(t *testing.T) {
	cfg := matching.DefaultConfig()
	cfg.Weights.Description = 0.6
	s := matching.NewScorer(cfg)
	sc := s.Score(
		matching.FingerprintFeed(feedTx("f-1", "acct-1", day(10), -100, "netflix subscription")),
		matching.FingerprintLedger(ledgerTx("tx-1", "acct-1", day(11), -100, "netflix subscription")),
	)
	assert.Equal(t, "description similarity 1.00", sc.Reasons[0])
	assert.Equal(t, "exact amount match", sc.Reasons[1])
	assert.Equal(t, 1.0, sc.Confidence, "clamped")
}

func TestRank_TieBreak(t *testing.T) {
	s := matching.NewScorer(matching.DefaultConfig())
	feed := matching.FingerprintFeed(feedTx("f-1", "acct-1", day(10), -2000, "groceries"))
	candidates := []matching.Fingerprint{
		matching.FingerprintLedger(ledgerTx("tx-c", "acct-1", day(10), -2000, "groceries")),
		matching.FingerprintLedger(ledgerTx("tx-a", "acct-1", day(10), -2000, "groceries")),
		matching.FingerprintLedger(ledgerTx("tx-b", "acct-1", day(11), -2000, "groceries")),
	}

	for i := 0; i < 20; i++ {
		ranked := s.Rank(feed, candidates)
		require.Len(t, ranked, 3)
		assert.Equal(t, "tx-a", ranked[0].CandidateID)
		assert.Equal(t, "tx-c", ranked[1].CandidateID)
		assert.Equal(t, "tx-b", ranked[2].CandidateID)
	}
}

func TestSortScores_EqualConfidencePrefersCloserDate(t *testing.T) {
	scores := []matching.Score{
		{CandidateID: "a", Confidence: 0.8, DateDistanceDays: 3},
		{CandidateID: "b", Confidence: 0.8, DateDistanceDays: 1},
		{CandidateID: "c", Confidence: 0.9, DateDistanceDays: 4},
	}
	matching.SortScores(scores)
	assert.Equal(t, "c", scores[0].CandidateID)
	assert.Equal(t, "b", scores[1].CandidateID)
	assert.Equal(t, "a", scores[2].CandidateID)
}
