package pgsql

import (
	portsrepo "github.com/SscSPs/bank_reconciliation/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5/pgxpool"
)

func NewRepositoryProvider(dbPool *pgxpool.Pool) portsrepo.RepositoryProvider {
	return portsrepo.RepositoryProvider{
		FeedRepo:         newPgxFeedTransactionRepository(dbPool),
		LedgerRepo:       newPgxLedgerRepository(dbPool),
		MatchRepo:        newPgxMatchRepository(dbPool),
		TransferRepo:     newPgxTransferRepository(dbPool),
		PeriodRepo:       newPgxPeriodLockRepository(dbPool),
		WorkplaceRepo:    newPgxWorkplaceRepository(dbPool),
		ExchangeRateRepo: newPgxExchangeRateRepository(dbPool),
	}
}
