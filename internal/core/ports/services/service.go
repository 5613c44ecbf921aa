package services

// ServiceContainer holds all service interfaces used by the handlers.
type ServiceContainer struct {
	Workplace      WorkplaceSvcFacade
	Reconciliation ReconciliationSvcFacade
	Transfer       TransferSvcFacade
	Period         PeriodSvcFacade
}
