package repositories

// RepositoryProvider holds all repository interfaces needed by services.
// This makes passing dependencies to the service container constructor cleaner.
type RepositoryProvider struct {
	FeedRepo         FeedTransactionRepositoryFacade
	LedgerRepo       LedgerRepositoryFacade
	MatchRepo        MatchRepositoryFacade
	TransferRepo     TransferRepositoryFacade
	PeriodRepo       PeriodLockRepository
	WorkplaceRepo    WorkplaceRepositoryFacade
	ExchangeRateRepo ExchangeRateReader
}
