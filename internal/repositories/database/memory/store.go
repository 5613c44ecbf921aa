// Package memory is an in-process implementation of every repository port. One mutex
// guards all state, so each method is atomic the way a single database transaction is.
// It backs the service tests and the server when no database URL is configured.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/SscSPs/bank_reconciliation/internal/apperrors"
	"github.com/SscSPs/bank_reconciliation/internal/core/domain"
	portsrepo "github.com/SscSPs/bank_reconciliation/internal/core/ports/repositories"
)

type lockKey struct {
	workplaceID string
	accountID   string
	period      domain.Period
}

type lockRow struct {
	state      domain.PeriodLockState
	lockedAt   *time.Time
	lockedBy   *string
	unlockedAt *time.Time
	unlockedBy *string
}

type memberKey struct {
	userID      string
	workplaceID string
}

// heldKey marks a context whose caller already holds the store mutex.
type heldKey struct{}

// Store holds all reconciliation state in memory.
type Store struct {
	mu         sync.Mutex
	feeds      map[string]domain.BankFeedTransaction
	ledger     map[string]domain.Transaction
	matches    map[string]domain.TransactionMatch
	transfers  map[string]domain.DetectedTransfer
	locks      map[lockKey]lockRow
	workplaces map[string]domain.Workplace
	members    map[memberKey]domain.UserWorkplace
	rates      map[string]domain.ExchangeRate
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		feeds:      map[string]domain.BankFeedTransaction{},
		ledger:     map[string]domain.Transaction{},
		matches:    map[string]domain.TransactionMatch{},
		transfers:  map[string]domain.DetectedTransfer{},
		locks:      map[lockKey]lockRow{},
		workplaces: map[string]domain.Workplace{},
		members:    map[memberKey]domain.UserWorkplace{},
		rates:      map[string]domain.ExchangeRate{},
	}
}

// Provider exposes the store through every repository port.
func (s *Store) Provider() portsrepo.RepositoryProvider {
	return portsrepo.RepositoryProvider{
		FeedRepo:         s,
		LedgerRepo:       s,
		MatchRepo:        s,
		TransferRepo:     s,
		PeriodRepo:       s,
		WorkplaceRepo:    s,
		ExchangeRateRepo: s,
	}
}

var (
	_ portsrepo.FeedTransactionRepositoryFacade = (*Store)(nil)
	_ portsrepo.LedgerRepositoryFacade          = (*Store)(nil)
	_ portsrepo.MatchRepositoryFacade           = (*Store)(nil)
	_ portsrepo.TransferRepositoryFacade        = (*Store)(nil)
	_ portsrepo.PeriodLockRepository            = (*Store)(nil)
	_ portsrepo.WorkplaceRepositoryFacade       = (*Store)(nil)
	_ portsrepo.ExchangeRateReader              = (*Store)(nil)
)

// lock takes the mutex unless ctx shows the caller already holds it.
func (s *Store) lock(ctx context.Context) func() {
	if held, _ := ctx.Value(heldKey{}).(*Store); held == s {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

func (s *Store) held(ctx context.Context) context.Context {
	return context.WithValue(ctx, heldKey{}, s)
}

func (s *Store) isLocked(workplaceID, accountID string, period domain.Period) bool {
	return s.locks[lockKey{workplaceID, accountID, period}].state == domain.PeriodLocked
}

func (s *Store) ensureOpen(workplaceID, accountID string, date time.Time) error {
	p := domain.PeriodOf(date)
	if s.isLocked(workplaceID, accountID, p) {
		return apperrors.NewPeriodLockedError(fmt.Sprintf("account %s period %s is locked", accountID, p))
	}
	return nil
}

func sortFeeds(feeds []domain.BankFeedTransaction) {
	sort.Slice(feeds, func(i, j int) bool {
		if !feeds[i].Date.Equal(feeds[j].Date) {
			return feeds[i].Date.Before(feeds[j].Date)
		}
		return feeds[i].FeedTransactionID < feeds[j].FeedTransactionID
	})
}
