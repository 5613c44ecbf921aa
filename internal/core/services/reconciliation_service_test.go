package services_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/SscSPs/bank_reconciliation/internal/apperrors"
	"github.com/SscSPs/bank_reconciliation/internal/core/domain"
	"github.com/SscSPs/bank_reconciliation/internal/core/matching"
	portssvc "github.com/SscSPs/bank_reconciliation/internal/core/ports/services"
	"github.com/SscSPs/bank_reconciliation/internal/core/services"
	"github.com/SscSPs/bank_reconciliation/internal/dto"
	"github.com/SscSPs/bank_reconciliation/internal/platform/config"
	"github.com/SscSPs/bank_reconciliation/internal/repositories/database/memory"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
)

// recordingPublisher keeps published events and optionally fails.
type recordingPublisher struct {
	mu     sync.Mutex
	events []domain.ReconciliationEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, events ...domain.ReconciliationEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, events...)
	return p.err
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.EventType
	}
	return out
}

func (p *recordingPublisher) count(eventType string) int {
	n := 0
	for _, t := range p.types() {
		if t == eventType {
			n++
		}
	}
	return n
}

// serviceFixture wires every service over one memory store.
type serviceFixture struct {
	suite.Suite
	ctx         context.Context
	store       *memory.Store
	events      *recordingPublisher
	container   *portssvc.ServiceContainer
	workplaceID string
	userID      string
	accountA    string
	accountB    string
	january     domain.Period
}

type ReconciliationServiceTestSuite struct {
	serviceFixture
}

func (suite *serviceFixture) SetupTest() {
	suite.ctx = context.Background()
	suite.store = memory.NewStore()
	suite.events = &recordingPublisher{}
	suite.userID = uuid.NewString()
	suite.accountA = "acct-checking"
	suite.accountB = "acct-savings"
	suite.january = domain.PeriodOf(date("2026-01-15"))

	cfg := &config.Config{
		Matching:                matching.DefaultConfig(),
		BulkConcurrency:         3,
		SuggestionsDefaultLimit: 5,
	}
	suite.container = services.NewServiceContainer(cfg, suite.store.Provider(),
		services.WithEventPublisher(suite.events),
		services.WithClock(func() time.Time { return date("2026-02-03") }),
	)

	w, err := suite.container.Workplace.CreateWorkplace(suite.ctx, "Household", suite.userID)
	suite.Require().NoError(err)
	suite.workplaceID = w.WorkplaceID
}

func date(s string) time.Time {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		panic(err)
	}
	return t
}

func (suite *serviceFixture) feed(account, day, description string, cents int64) domain.BankFeedTransaction {
	f := domain.BankFeedTransaction{
		FeedTransactionID: uuid.NewString(),
		WorkplaceID:       suite.workplaceID,
		AccountID:         account,
		Date:              date(day),
		Description:       description,
		Amount:            cents,
		CurrencyCode:      "USD",
	}
	suite.Require().NoError(suite.store.SaveFeedTransactions(suite.ctx, []domain.BankFeedTransaction{f}))
	return f
}

func (suite *serviceFixture) ledger(account, day, description string, cents int64) domain.Transaction {
	t := domain.Transaction{
		TransactionID: uuid.NewString(),
		WorkplaceID:   suite.workplaceID,
		AccountID:     account,
		Date:          date(day),
		Description:   description,
		Amount:        cents,
		CurrencyCode:  "USD",
	}
	suite.store.PutLedgerTransactions(t)
	return t
}

// suggest stores a suggested row linking feed to txn.
func (suite *serviceFixture) suggest(f domain.BankFeedTransaction, txn domain.Transaction) domain.TransactionMatch {
	txID := txn.TransactionID
	m, err := suite.store.SaveMatchDecision(suite.ctx, domain.TransactionMatch{
		MatchID:           uuid.NewString(),
		WorkplaceID:       suite.workplaceID,
		AccountID:         f.AccountID,
		FeedTransactionID: f.FeedTransactionID,
		FeedDate:          f.Date,
		TransactionID:     &txID,
		Status:            domain.MatchStatusSuggested,
		Confidence:        0.7,
		Reasons:           []string{"exact amount match"},
		Version:           1,
	})
	suite.Require().NoError(err)
	return *m
}

func (suite *ReconciliationServiceTestSuite) TestGenerateSuggestions_AutoMatchSuggestAndUnmatched() {
	exact := suite.feed(suite.accountA, "2026-01-05", "COFFEE SHOP #4411 POS", -450)
	exactTxn := suite.ledger(suite.accountA, "2026-01-05", "Coffee Shop", -450)
	near := suite.feed(suite.accountA, "2026-01-10", "FRESHMART 0042", -8215)
	nearTxn := suite.ledger(suite.accountA, "2026-01-12", "Weekly groceries", -8215)
	lonely := suite.feed(suite.accountA, "2026-01-20", "ATM WITHDRAWAL", -6000)
	suite.ledger(suite.accountA, "2026-01-20", "ATM WITHDRAWAL", -5000)

	result, err := suite.container.Reconciliation.GenerateSuggestions(suite.ctx, suite.workplaceID, suite.accountA, suite.january, suite.userID)

	suite.Require().NoError(err)
	suite.Equal(3, result.Considered)
	suite.Equal(1, result.AutoMatched)
	suite.Equal(1, result.Suggested)
	suite.Equal(1, result.Unmatched)

	byFeed := map[string]domain.TransactionMatch{}
	for _, m := range result.Matches {
		byFeed[m.FeedTransactionID] = m
	}
	suite.Equal(domain.MatchStatusMatched, byFeed[exact.FeedTransactionID].Status)
	suite.Equal(exactTxn.TransactionID, *byFeed[exact.FeedTransactionID].TransactionID)
	suite.Equal(domain.SystemActor, *byFeed[exact.FeedTransactionID].MatchedBy)
	suite.GreaterOrEqual(byFeed[exact.FeedTransactionID].Confidence, 0.9)

	suite.Equal(domain.MatchStatusSuggested, byFeed[near.FeedTransactionID].Status)
	suite.Equal(nearTxn.TransactionID, *byFeed[near.FeedTransactionID].TransactionID)
	suite.InDelta(0.70, byFeed[near.FeedTransactionID].Confidence, 0.0001)

	suite.Equal(domain.MatchStatusUnmatched, byFeed[lonely.FeedTransactionID].Status)
	suite.Nil(byFeed[lonely.FeedTransactionID].TransactionID)

	suite.Equal(1, suite.events.count(domain.EventMatchConfirmed))
	suite.Equal(1, suite.events.count(domain.EventMatchSuggested))
}

func (suite *ReconciliationServiceTestSuite) TestGenerateSuggestions_RerunIsStable() {
	suite.feed(suite.accountA, "2026-01-10", "FRESHMART 0042", -8215)
	suite.ledger(suite.accountA, "2026-01-12", "Weekly groceries", -8215)

	first, err := suite.container.Reconciliation.GenerateSuggestions(suite.ctx, suite.workplaceID, suite.accountA, suite.january, suite.userID)
	suite.Require().NoError(err)
	second, err := suite.container.Reconciliation.GenerateSuggestions(suite.ctx, suite.workplaceID, suite.accountA, suite.january, suite.userID)
	suite.Require().NoError(err)

	suite.Require().Len(second.Matches, 1)
	suite.Equal(first.Matches[0].MatchID, second.Matches[0].MatchID)
	suite.Equal(first.Matches[0].Version, second.Matches[0].Version)
	suite.Equal(1, suite.events.count(domain.EventMatchSuggested))
}

func (suite *ReconciliationServiceTestSuite) TestGenerateSuggestions_LockedPeriod() {
	suite.feed(suite.accountA, "2026-01-10", "FRESHMART", -8215)
	f := suite.feed(suite.accountA, "2026-01-11", "RENT", -120000)
	txn := suite.ledger(suite.accountA, "2026-01-11", "rent", -120000)
	_, _, err := suite.store.CreateConfirmedMatch(suite.ctx, matchedRow(suite.workplaceID, f, txn))
	suite.Require().NoError(err)
	// Lock is refused while FRESHMART is unmatched.
	_, err = suite.container.Period.LockPeriod(suite.ctx, suite.workplaceID, suite.accountA, suite.january, suite.userID)
	suite.Require().ErrorIs(err, apperrors.ErrPeriodNotReconciled)

	empty := suite.january.Next()
	_, err = suite.container.Period.LockPeriod(suite.ctx, suite.workplaceID, suite.accountA, empty, suite.userID)
	suite.Require().NoError(err)

	_, err = suite.container.Reconciliation.GenerateSuggestions(suite.ctx, suite.workplaceID, suite.accountA, empty, suite.userID)
	suite.ErrorIs(err, apperrors.ErrPeriodLocked)
}

func matchedRow(workplaceID string, f domain.BankFeedTransaction, txn domain.Transaction) domain.TransactionMatch {
	txID := txn.TransactionID
	actor := "seed"
	now := date("2026-02-01")
	return domain.TransactionMatch{
		MatchID:           uuid.NewString(),
		WorkplaceID:       workplaceID,
		AccountID:         f.AccountID,
		FeedTransactionID: f.FeedTransactionID,
		FeedDate:          f.Date,
		TransactionID:     &txID,
		Status:            domain.MatchStatusMatched,
		Confidence:        1,
		MatchedAt:         &now,
		MatchedBy:         &actor,
		Version:           1,
	}
}

func (suite *ReconciliationServiceTestSuite) TestGetSuggestions_RankedAndExcludesConsumed() {
	f := suite.feed(suite.accountA, "2026-01-10", "Netflix subscription", -1599)
	best := suite.ledger(suite.accountA, "2026-01-10", "netflix", -1599)
	second := suite.ledger(suite.accountA, "2026-01-13", "streaming", -1599)
	claimed := suite.ledger(suite.accountA, "2026-01-10", "Netflix subscription", -1599)
	suite.ledger(suite.accountA, "2026-01-10", "netflix", -1600)

	other := suite.feed(suite.accountA, "2026-01-09", "old", -1599)
	_, _, err := suite.store.CreateConfirmedMatch(suite.ctx, matchedRow(suite.workplaceID, other, claimed))
	suite.Require().NoError(err)

	suggestions, err := suite.container.Reconciliation.GetSuggestions(suite.ctx, suite.workplaceID, f.FeedTransactionID, 0, suite.userID)

	suite.Require().NoError(err)
	suite.Require().Len(suggestions, 2)
	suite.Equal(best.TransactionID, suggestions[0].TransactionID)
	suite.Equal(second.TransactionID, suggestions[1].TransactionID)
	suite.GreaterOrEqual(suggestions[0].Confidence, suggestions[1].Confidence)
	suite.Equal("netflix", suggestions[0].Transaction.Description)
}

func (suite *ReconciliationServiceTestSuite) TestGetSuggestions_UnknownFeed() {
	_, err := suite.container.Reconciliation.GetSuggestions(suite.ctx, suite.workplaceID, "missing", 3, suite.userID)
	suite.ErrorIs(err, apperrors.ErrNotFound)
}

func (suite *ReconciliationServiceTestSuite) TestConfirmMatch_Idempotent() {
	f := suite.feed(suite.accountA, "2026-01-10", "FRESHMART", -8215)
	txn := suite.ledger(suite.accountA, "2026-01-12", "groceries", -8215)
	m := suite.suggest(f, txn)

	first, err := suite.container.Reconciliation.ConfirmMatch(suite.ctx, suite.workplaceID, m.MatchID, suite.userID)
	suite.Require().NoError(err)
	second, err := suite.container.Reconciliation.ConfirmMatch(suite.ctx, suite.workplaceID, m.MatchID, suite.userID)
	suite.Require().NoError(err)

	suite.Equal(domain.MatchStatusMatched, first.Status)
	suite.Equal(suite.userID, *first.MatchedBy)
	suite.Equal(first.Version, second.Version)
	suite.Equal(1, suite.events.count(domain.EventMatchConfirmed))
}

func (suite *ReconciliationServiceTestSuite) TestConfirmMatch_OneToOneUnderConcurrency() {
	txn := suite.ledger(suite.accountA, "2026-01-12", "groceries", -8215)
	m1 := suite.suggest(suite.feed(suite.accountA, "2026-01-10", "FRESHMART", -8215), txn)
	m2 := suite.suggest(suite.feed(suite.accountA, "2026-01-11", "FRESHMART", -8215), txn)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, id := range []string{m1.MatchID, m2.MatchID} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = suite.container.Reconciliation.ConfirmMatch(suite.ctx, suite.workplaceID, id, suite.userID)
		}()
	}
	wg.Wait()

	succeeded, conflicted := 0, 0
	for _, err := range errs {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, apperrors.ErrConflict):
			conflicted++
		}
	}
	suite.Equal(1, succeeded)
	suite.Equal(1, conflicted)

	claimed, err := suite.store.ListMatchedTransactionIDs(suite.ctx, suite.workplaceID, []string{txn.TransactionID})
	suite.Require().NoError(err)
	suite.True(claimed[txn.TransactionID])
}

func (suite *ReconciliationServiceTestSuite) TestBulkConfirmMatches_PartialConflict() {
	ids := make([]string, 0, 5)
	for i, cents := range []int64{-100, -200, -300, -400, -500} {
		day := []string{"2026-01-03", "2026-01-04", "2026-01-05", "2026-01-06", "2026-01-07"}[i]
		f := suite.feed(suite.accountA, day, "item", cents)
		txn := suite.ledger(suite.accountA, day, "item", cents)
		m := suite.suggest(f, txn)
		ids = append(ids, m.MatchID)
		if i == 2 {
			// Another feed line claims the same ledger transaction first.
			rival := suite.feed(suite.accountA, day, "item dup", cents)
			_, _, err := suite.store.CreateConfirmedMatch(suite.ctx, matchedRow(suite.workplaceID, rival, txn))
			suite.Require().NoError(err)
		}
	}

	results, err := suite.container.Reconciliation.BulkConfirmMatches(suite.ctx, suite.workplaceID, ids, suite.userID)

	suite.Require().NoError(err)
	suite.Require().Len(results, 5)
	for i, r := range results {
		suite.Equal(ids[i], r.ID, "results keep input order")
		if i == 2 {
			suite.False(r.Success)
			suite.Equal("CONFLICT", r.ErrorCode)
			continue
		}
		suite.True(r.Success)
		suite.Equal(domain.MatchStatusMatched, r.Match.Status)
	}
}

func (suite *ReconciliationServiceTestSuite) TestCreateMatch_ManualAndConflict() {
	f := suite.feed(suite.accountA, "2026-01-10", "Transfer from mom", 5000)
	txn := suite.ledger(suite.accountA, "2026-01-14", "gift", 5000)
	other := suite.feed(suite.accountA, "2026-01-11", "gift", 5000)

	m, err := suite.container.Reconciliation.CreateMatch(suite.ctx, suite.workplaceID, f.FeedTransactionID, txn.TransactionID, suite.userID)
	suite.Require().NoError(err)
	suite.Equal(domain.MatchStatusMatched, m.Status)
	suite.Equal("manual match", m.Reasons[0])

	again, err := suite.container.Reconciliation.CreateMatch(suite.ctx, suite.workplaceID, f.FeedTransactionID, txn.TransactionID, suite.userID)
	suite.Require().NoError(err)
	suite.Equal(m.MatchID, again.MatchID)

	_, err = suite.container.Reconciliation.CreateMatch(suite.ctx, suite.workplaceID, other.FeedTransactionID, txn.TransactionID, suite.userID)
	suite.ErrorIs(err, apperrors.ErrConflict)
	suite.Equal(1, suite.events.count(domain.EventMatchConfirmed))
}

func (suite *ReconciliationServiceTestSuite) TestCreateMatch_CurrencyMismatch() {
	f := suite.feed(suite.accountA, "2026-01-10", "hotel", -10000)
	txn := domain.Transaction{
		TransactionID: uuid.NewString(), WorkplaceID: suite.workplaceID, AccountID: suite.accountA,
		Date: date("2026-01-10"), Amount: -10000, CurrencyCode: "EUR",
	}
	suite.store.PutLedgerTransactions(txn)

	_, err := suite.container.Reconciliation.CreateMatch(suite.ctx, suite.workplaceID, f.FeedTransactionID, txn.TransactionID, suite.userID)
	suite.ErrorIs(err, apperrors.ErrValidation)
}

func (suite *ReconciliationServiceTestSuite) TestUnmatch_ReopensFeed() {
	f := suite.feed(suite.accountA, "2026-01-10", "FRESHMART", -8215)
	txn := suite.ledger(suite.accountA, "2026-01-12", "groceries", -8215)
	m := suite.suggest(f, txn)
	_, err := suite.container.Reconciliation.ConfirmMatch(suite.ctx, suite.workplaceID, m.MatchID, suite.userID)
	suite.Require().NoError(err)

	suite.Require().NoError(suite.container.Reconciliation.Unmatch(suite.ctx, suite.workplaceID, m.MatchID, suite.userID))

	_, err = suite.store.FindActiveMatchByFeedID(suite.ctx, suite.workplaceID, f.FeedTransactionID)
	suite.ErrorIs(err, apperrors.ErrNotFound)
	suite.ErrorIs(suite.container.Reconciliation.Unmatch(suite.ctx, suite.workplaceID, m.MatchID, suite.userID), apperrors.ErrNotFound)
	suite.Equal(1, suite.events.count(domain.EventMatchUnmatched))
}

func (suite *ReconciliationServiceTestSuite) TestLockScenario_ConfirmThenLock() {
	f1 := suite.feed(suite.accountA, "2026-01-05", "Coffee Shop", -450)
	suite.ledger(suite.accountA, "2026-01-05", "Coffee Shop", -450)
	suite.feed(suite.accountA, "2026-01-10", "FRESHMART 0042", -8215)
	suite.ledger(suite.accountA, "2026-01-12", "Weekly groceries", -8215)
	suite.feed(suite.accountA, "2026-01-20", "Payroll ACME", 250000)
	suite.ledger(suite.accountA, "2026-01-20", "payroll acme", 250000)

	result, err := suite.container.Reconciliation.GenerateSuggestions(suite.ctx, suite.workplaceID, suite.accountA, suite.january, suite.userID)
	suite.Require().NoError(err)
	suite.Require().Equal(1, result.Suggested)
	suite.Require().Equal(2, result.AutoMatched)

	status, err := suite.container.Period.LockPeriod(suite.ctx, suite.workplaceID, suite.accountA, suite.january, suite.userID)
	suite.Require().ErrorIs(err, apperrors.ErrPeriodLocked)
	suite.ErrorIs(err, apperrors.ErrPeriodNotReconciled)
	suite.Require().NotNil(status)
	suite.Equal(domain.PeriodOpen, status.Status)
	suite.Equal(1, status.Suggested)
	suite.Equal(2, status.Matched)

	for _, m := range result.Matches {
		if m.Status == domain.MatchStatusSuggested {
			_, err := suite.container.Reconciliation.ConfirmMatch(suite.ctx, suite.workplaceID, m.MatchID, suite.userID)
			suite.Require().NoError(err)
		}
	}

	status, err = suite.container.Period.LockPeriod(suite.ctx, suite.workplaceID, suite.accountA, suite.january, suite.userID)
	suite.Require().NoError(err)
	suite.Equal(domain.PeriodLocked, status.Status)
	suite.Equal(3, status.Matched)

	// Every mutation on the locked period is refused.
	active, err := suite.store.FindActiveMatchByFeedID(suite.ctx, suite.workplaceID, f1.FeedTransactionID)
	suite.Require().NoError(err)
	suite.ErrorIs(suite.container.Reconciliation.Unmatch(suite.ctx, suite.workplaceID, active.MatchID, suite.userID), apperrors.ErrPeriodLocked)
	_, err = suite.container.Reconciliation.ImportFeedTransactions(suite.ctx, suite.workplaceID, dto.ImportFeedTransactionsRequest{
		AccountID: suite.accountA,
		Transactions: []dto.FeedTransactionInput{
			{Date: "2026-01-28", Description: "late", Amount: -100, CurrencyCode: "usd"},
		},
	}, suite.userID)
	suite.ErrorIs(err, apperrors.ErrPeriodLocked)

	again, err := suite.container.Period.LockPeriod(suite.ctx, suite.workplaceID, suite.accountA, suite.january, suite.userID)
	suite.Require().NoError(err)
	suite.Equal(status.LockedAt, again.LockedAt)
	suite.Equal(1, suite.events.count(domain.EventPeriodLocked))
}

func (suite *ReconciliationServiceTestSuite) TestBulkCreateTransactions() {
	f1 := suite.feed(suite.accountA, "2026-01-10", "Parking", -1200)
	f2 := suite.feed(suite.accountA, "2026-01-11", "Tolls", -350)
	category := "cat-auto"

	results, err := suite.container.Reconciliation.BulkCreateTransactions(suite.ctx, suite.workplaceID,
		[]string{f1.FeedTransactionID, f2.FeedTransactionID, f1.FeedTransactionID}, &category, suite.userID)

	suite.Require().NoError(err)
	suite.Require().Len(results, 2)
	for _, r := range results {
		suite.Require().True(r.Success, r.Error)
		suite.Require().NotNil(r.Transaction)
		suite.Require().NotNil(r.Match)
	}
	suite.Equal(f1.FeedTransactionID, results[0].ID)
	suite.Equal(int64(-1200), results[0].Transaction.Amount)
	suite.Equal(&category, results[0].Transaction.CategoryID)
	m, err := suite.store.FindActiveMatchByFeedID(suite.ctx, suite.workplaceID, f2.FeedTransactionID)
	suite.Require().NoError(err)
	suite.True(m.IsMatched())
	suite.Equal(results[1].Transaction.TransactionID, *m.TransactionID)
	suite.Equal(results[1].Match.MatchID, m.MatchID)
	suite.Equal(suite.userID, *m.MatchedBy)
	suite.Equal(2, suite.events.count(domain.EventMatchConfirmed))
}

func (suite *ReconciliationServiceTestSuite) TestBulkCreateTransactions_ItemsFailIndependently() {
	open := suite.feed(suite.accountA, "2026-01-10", "Parking", -1200)
	taken := suite.feed(suite.accountA, "2026-01-11", "Tolls", -350)
	_, _, err := suite.store.CreateConfirmedMatch(suite.ctx, matchedRow(suite.workplaceID, taken, suite.ledger(suite.accountA, "2026-01-11", "Tolls", -350)))
	suite.Require().NoError(err)

	results, err := suite.container.Reconciliation.BulkCreateTransactions(suite.ctx, suite.workplaceID,
		[]string{open.FeedTransactionID, taken.FeedTransactionID, "missing"}, nil, suite.userID)

	suite.Require().NoError(err)
	suite.Require().Len(results, 3)
	suite.True(results[0].Success)
	suite.Require().NotNil(results[0].Transaction)
	suite.False(results[1].Success)
	suite.Equal("CONFLICT", results[1].ErrorCode)
	suite.Nil(results[1].Transaction)
	suite.False(results[2].Success)
	suite.Equal("NOT_FOUND", results[2].ErrorCode)

	created, err := suite.store.FindActiveMatchByFeedID(suite.ctx, suite.workplaceID, open.FeedTransactionID)
	suite.Require().NoError(err)
	suite.True(created.IsMatched())

	// Only the open feed got a ledger posting.
	candidates, err := suite.store.ListLedgerCandidates(suite.ctx, suite.workplaceID, suite.accountA, suite.january.Range())
	suite.Require().NoError(err)
	suite.Len(candidates, 2)

	_, err = suite.container.Reconciliation.BulkCreateTransactions(suite.ctx, suite.workplaceID, nil, nil, suite.userID)
	suite.ErrorIs(err, apperrors.ErrValidation)
}

func (suite *ReconciliationServiceTestSuite) TestImportFeedTransactions() {
	req := dto.ImportFeedTransactionsRequest{
		AccountID: suite.accountA,
		Transactions: []dto.FeedTransactionInput{
			{FeedTransactionID: "bank-1", Date: "2026-01-04", Description: " Lunch ", Amount: -1250, CurrencyCode: "usd"},
			{Date: "2026-01-05", Description: "Refund", Amount: 900, CurrencyCode: "USD"},
		},
	}

	feeds, err := suite.container.Reconciliation.ImportFeedTransactions(suite.ctx, suite.workplaceID, req, suite.userID)
	suite.Require().NoError(err)
	suite.Require().Len(feeds, 2)
	suite.Equal("bank-1", feeds[0].FeedTransactionID)
	suite.Equal("USD", feeds[0].CurrencyCode)
	suite.Equal("Lunch", feeds[0].Description)
	suite.NotEmpty(feeds[1].FeedTransactionID)

	_, err = suite.container.Reconciliation.ImportFeedTransactions(suite.ctx, suite.workplaceID, req, suite.userID)
	suite.ErrorIs(err, apperrors.ErrConflict)

	listed, err := suite.container.Reconciliation.ListFeedTransactions(suite.ctx, suite.workplaceID, suite.accountA, suite.january, suite.userID)
	suite.Require().NoError(err)
	suite.Len(listed, 2)
}

func (suite *ReconciliationServiceTestSuite) TestListMatches_Paginates() {
	for _, day := range []string{"2026-01-03", "2026-01-04", "2026-01-05"} {
		suite.suggest(suite.feed(suite.accountA, day, "x", -100), suite.ledger(suite.accountA, day, "x", -100))
	}

	page, next, err := suite.container.Reconciliation.ListMatches(suite.ctx, suite.workplaceID, domain.MatchFilter{}, 2, nil, suite.userID)
	suite.Require().NoError(err)
	suite.Require().Len(page, 2)
	suite.Require().NotNil(next)
	suite.True(page[0].FeedDate.After(page[1].FeedDate))

	rest, next, err := suite.container.Reconciliation.ListMatches(suite.ctx, suite.workplaceID, domain.MatchFilter{}, 2, next, suite.userID)
	suite.Require().NoError(err)
	suite.Len(rest, 1)
	suite.Nil(next)
	suite.Equal(date("2026-01-03"), rest[0].FeedDate)
}

func (suite *ReconciliationServiceTestSuite) TestPublishFailureDoesNotFailOperation() {
	suite.events.err = errors.New("broker unavailable")
	f := suite.feed(suite.accountA, "2026-01-10", "FRESHMART", -8215)
	m := suite.suggest(f, suite.ledger(suite.accountA, "2026-01-12", "groceries", -8215))

	confirmed, err := suite.container.Reconciliation.ConfirmMatch(suite.ctx, suite.workplaceID, m.MatchID, suite.userID)

	suite.Require().NoError(err)
	suite.Equal(domain.MatchStatusMatched, confirmed.Status)
	suite.Equal(1, suite.events.count(domain.EventMatchConfirmed))
}

func (suite *ReconciliationServiceTestSuite) TestMembershipIsEnforced() {
	viewer := uuid.NewString()
	suite.Require().NoError(suite.container.Workplace.AddUserToWorkplace(suite.ctx, suite.userID, viewer, suite.workplaceID, domain.RoleReadOnly))
	f := suite.feed(suite.accountA, "2026-01-10", "FRESHMART", -8215)
	m := suite.suggest(f, suite.ledger(suite.accountA, "2026-01-12", "groceries", -8215))

	_, err := suite.container.Reconciliation.ConfirmMatch(suite.ctx, suite.workplaceID, m.MatchID, viewer)
	suite.ErrorIs(err, apperrors.ErrForbidden)

	got, err := suite.container.Reconciliation.GetMatch(suite.ctx, suite.workplaceID, m.MatchID, viewer)
	suite.Require().NoError(err)
	suite.Equal(m.MatchID, got.MatchID)

	_, err = suite.container.Reconciliation.GetMatch(suite.ctx, suite.workplaceID, m.MatchID, uuid.NewString())
	suite.ErrorIs(err, apperrors.ErrForbidden)
}

func TestReconciliationServiceTestSuite(t *testing.T) {
	suite.Run(t, new(ReconciliationServiceTestSuite))
}
