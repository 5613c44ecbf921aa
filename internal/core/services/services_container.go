package services

import (
	portsrepo "github.com/SscSPs/bank_reconciliation/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/bank_reconciliation/internal/core/ports/services"
	"github.com/SscSPs/bank_reconciliation/internal/platform/config"
)

// NewServiceContainer creates a new service container with properly initialized dependencies.
// opts apply to every service; the workplace authorizer is added after them unless the caller set one.
func NewServiceContainer(cfg *config.Config, repos portsrepo.RepositoryProvider, opts ...Option) *portssvc.ServiceContainer {
	container := &portssvc.ServiceContainer{}

	// Initialize workplace service first since other services depend on it
	container.Workplace = NewWorkplaceService(repos.WorkplaceRepo, opts...)

	shared := append([]Option{WithWorkplaceAuthorizer(container.Workplace)}, opts...)

	container.Reconciliation = NewReconciliationService(repos, ReconciliationConfig{
		Matching:                cfg.Matching,
		BulkConcurrency:         cfg.BulkConcurrency,
		SuggestionsDefaultLimit: cfg.SuggestionsDefaultLimit,
	}, shared...)
	container.Transfer = NewTransferService(repos, cfg.Matching, shared...)
	container.Period = NewPeriodService(repos.PeriodRepo, shared...)

	return container
}

// Helper to check interface implementations at compile time
var (
	_ portssvc.WorkplaceSvcFacade      = (*workplaceService)(nil)
	_ portssvc.ReconciliationSvcFacade = (*reconciliationService)(nil)
)
