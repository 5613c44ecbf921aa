//go:build integration

package pgsql_test

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/SscSPs/bank_reconciliation/internal/apperrors"
	"github.com/SscSPs/bank_reconciliation/internal/core/domain"
	"github.com/SscSPs/bank_reconciliation/internal/core/matching"
	portsrepo "github.com/SscSPs/bank_reconciliation/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/bank_reconciliation/internal/core/ports/services"
	"github.com/SscSPs/bank_reconciliation/internal/core/services"
	"github.com/SscSPs/bank_reconciliation/internal/dto"
	"github.com/SscSPs/bank_reconciliation/internal/platform/config"
	"github.com/SscSPs/bank_reconciliation/internal/repositories/database/pgsql"
	"github.com/SscSPs/bank_reconciliation/pkg/database"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// PostgresIntegrationTestSuite runs the services against a throwaway Postgres.
// Run with: go test -tags integration ./internal/repositories/database/pgsql/...
type PostgresIntegrationTestSuite struct {
	suite.Suite
	ctx       context.Context
	container *postgres.PostgresContainer
	pool      *pgxpool.Pool
	repos     portsrepo.RepositoryProvider
	services  *portssvc.ServiceContainer

	workplaceID string
	userID      string
	january     domain.Period
}

func (suite *PostgresIntegrationTestSuite) SetupSuite() {
	suite.ctx = context.Background()

	pgContainer, err := postgres.Run(suite.ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("recon"),
		postgres.WithUsername("recon"),
		postgres.WithPassword("recon"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	suite.Require().NoError(err, "failed to start postgres container")
	suite.container = pgContainer

	dsn, err := pgContainer.ConnectionString(suite.ctx, "sslmode=disable")
	suite.Require().NoError(err)

	applied, err := database.RunMigrations(dsn, "file://../../../../migrations", slog.Default())
	suite.Require().NoError(err)
	suite.True(applied)

	suite.pool, err = database.NewPgxPool(suite.ctx, dsn, true)
	suite.Require().NoError(err)
	suite.repos = pgsql.NewRepositoryProvider(suite.pool)
}

func (suite *PostgresIntegrationTestSuite) TearDownSuite() {
	if suite.pool != nil {
		suite.pool.Close()
	}
	if suite.container != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := suite.container.Terminate(ctx); err != nil {
			suite.T().Logf("warning: failed to terminate postgres container: %v", err)
		}
	}
}

// SetupTest gives every test its own workplace, so rows never collide across tests.
func (suite *PostgresIntegrationTestSuite) SetupTest() {
	cfg := &config.Config{
		Matching:                matching.DefaultConfig(),
		BulkConcurrency:         2,
		SuggestionsDefaultLimit: 5,
	}
	suite.services = services.NewServiceContainer(cfg, suite.repos)
	suite.userID = uuid.NewString()
	period, err := domain.ParsePeriod("2026-01")
	suite.Require().NoError(err)
	suite.january = period

	w, err := suite.services.Workplace.CreateWorkplace(suite.ctx, "Integration", suite.userID)
	suite.Require().NoError(err)
	suite.workplaceID = w.WorkplaceID
}

func (suite *PostgresIntegrationTestSuite) importFeed(accountID, day, description string, cents int64) domain.BankFeedTransaction {
	feeds, err := suite.services.Reconciliation.ImportFeedTransactions(suite.ctx, suite.workplaceID, dto.ImportFeedTransactionsRequest{
		AccountID: accountID,
		Transactions: []dto.FeedTransactionInput{
			{Date: day, Description: description, Amount: cents, CurrencyCode: "USD"},
		},
	}, suite.userID)
	suite.Require().NoError(err)
	suite.Require().Len(feeds, 1)
	return feeds[0]
}

func (suite *PostgresIntegrationTestSuite) postLedger(accountID, day, description string, cents int64) domain.Transaction {
	d, err := time.Parse(time.DateOnly, day)
	suite.Require().NoError(err)
	txns, err := suite.repos.LedgerRepo.PostTransactions(suite.ctx, []domain.LedgerPosting{{
		WorkplaceID:  suite.workplaceID,
		AccountID:    accountID,
		Date:         d,
		Description:  description,
		Amount:       cents,
		CurrencyCode: "USD",
		PostedBy:     suite.userID,
	}})
	suite.Require().NoError(err)
	suite.Require().Len(txns, 1)
	return txns[0]
}

func (suite *PostgresIntegrationTestSuite) TestLockRequiresEveryFeedMatched() {
	feed := suite.importFeed("acct-checking", "2026-01-10", "Electric bill", -4200)
	txn := suite.postLedger("acct-checking", "2026-01-10", "ELECTRIC CO", -4200)

	status, err := suite.services.Period.LockPeriod(suite.ctx, suite.workplaceID, "acct-checking", suite.january, suite.userID)
	suite.ErrorIs(err, apperrors.ErrPeriodNotReconciled)
	suite.Require().NotNil(status)
	suite.Equal(1, status.Unmatched)

	_, err = suite.services.Reconciliation.CreateMatch(suite.ctx, suite.workplaceID, feed.FeedTransactionID, txn.TransactionID, suite.userID)
	suite.Require().NoError(err)

	status, err = suite.services.Period.LockPeriod(suite.ctx, suite.workplaceID, "acct-checking", suite.january, suite.userID)
	suite.Require().NoError(err)
	suite.Equal(domain.PeriodLocked, status.Status)
	suite.Equal(1, status.Matched)

	late := dto.ImportFeedTransactionsRequest{
		AccountID:    "acct-checking",
		Transactions: []dto.FeedTransactionInput{{Date: "2026-01-20", Amount: -100, CurrencyCode: "USD"}},
	}
	_, err = suite.services.Reconciliation.ImportFeedTransactions(suite.ctx, suite.workplaceID, late, suite.userID)
	suite.ErrorIs(err, apperrors.ErrPeriodLocked)
}

func (suite *PostgresIntegrationTestSuite) TestClaimedTransactionConflicts() {
	first := suite.importFeed("acct-checking", "2026-01-05", "Rent", -150000)
	second := suite.importFeed("acct-checking", "2026-01-06", "Rent again", -150000)
	txn := suite.postLedger("acct-checking", "2026-01-05", "Rent January", -150000)

	_, err := suite.services.Reconciliation.CreateMatch(suite.ctx, suite.workplaceID, first.FeedTransactionID, txn.TransactionID, suite.userID)
	suite.Require().NoError(err)

	_, err = suite.services.Reconciliation.CreateMatch(suite.ctx, suite.workplaceID, second.FeedTransactionID, txn.TransactionID, suite.userID)
	suite.ErrorIs(err, apperrors.ErrConflict)
}

func (suite *PostgresIntegrationTestSuite) TestConfirmTransferPostsOnce() {
	suite.importFeed("acct-checking", "2026-01-12", "Transfer to savings", -10000)
	suite.importFeed("acct-savings", "2026-01-12", "Transfer from checking", 10000)

	detected, err := suite.services.Transfer.DetectTransfers(suite.ctx, suite.workplaceID, suite.january.Range(), suite.userID)
	suite.Require().NoError(err)
	suite.Require().Len(detected, 1)
	transferID := detected[0].TransferID

	for range 2 {
		confirmed, err := suite.services.Transfer.ConfirmTransfer(suite.ctx, suite.workplaceID, transferID, suite.userID)
		suite.Require().NoError(err)
		suite.Equal(domain.TransferStatusConfirmed, confirmed.Status)
	}

	var postings int
	err = suite.pool.QueryRow(suite.ctx,
		`SELECT COUNT(*) FROM ledger_transactions WHERE transfer_id = $1`, transferID).Scan(&postings)
	suite.Require().NoError(err)
	suite.Equal(2, postings, "one posting per side, however often the transfer is confirmed")

	_, err = suite.services.Transfer.RejectTransfer(suite.ctx, suite.workplaceID, transferID, suite.userID)
	suite.ErrorIs(err, apperrors.ErrConflict)
}

func (suite *PostgresIntegrationTestSuite) TestConfirmTransferRetiresSuggestion() {
	out := suite.importFeed("acct-checking", "2026-01-14", "Transfer to savings", -5000)
	suite.importFeed("acct-savings", "2026-01-14", "Transfer from checking", 5000)
	txn := suite.postLedger("acct-checking", "2026-01-16", "savings", -5000)

	result, err := suite.services.Reconciliation.GenerateSuggestions(suite.ctx, suite.workplaceID, "acct-checking", suite.january, suite.userID)
	suite.Require().NoError(err)
	suite.Require().Len(result.Matches, 1)
	suggested := result.Matches[0]
	suite.Require().Equal(domain.MatchStatusSuggested, suggested.Status)

	detected, err := suite.services.Transfer.DetectTransfers(suite.ctx, suite.workplaceID, suite.january.Range(), suite.userID)
	suite.Require().NoError(err)
	suite.Require().Len(detected, 1)
	_, err = suite.services.Transfer.ConfirmTransfer(suite.ctx, suite.workplaceID, detected[0].TransferID, suite.userID)
	suite.Require().NoError(err)

	_, err = suite.repos.MatchRepo.FindActiveMatchByFeedID(suite.ctx, suite.workplaceID, out.FeedTransactionID)
	suite.ErrorIs(err, apperrors.ErrNotFound)
	_, _, err = suite.repos.MatchRepo.ConfirmMatch(suite.ctx, suite.workplaceID, suggested.MatchID, suite.userID, time.Now())
	suite.Error(err)

	row := suggested
	row.MatchID = uuid.NewString()
	row.Status = domain.MatchStatusMatched
	row.TransactionID = &txn.TransactionID
	_, _, err = suite.repos.MatchRepo.CreateConfirmedMatch(suite.ctx, row)
	suite.ErrorIs(err, apperrors.ErrConflict)
}

func TestPostgresIntegrationTestSuite(t *testing.T) {
	suite.Run(t, new(PostgresIntegrationTestSuite))
}
