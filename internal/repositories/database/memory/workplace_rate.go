package memory

import (
	"context"
	"strings"

	"github.com/SscSPs/bank_reconciliation/internal/apperrors"
	"github.com/SscSPs/bank_reconciliation/internal/core/domain"
	"github.com/shopspring/decimal"
)

func (s *Store) FindWorkplaceByID(ctx context.Context, workplaceID string) (*domain.Workplace, error) {
	defer s.lock(ctx)()
	w, ok := s.workplaces[workplaceID]
	if !ok {
		return nil, apperrors.NewNotFoundError("workplace " + workplaceID)
	}
	return &w, nil
}

func (s *Store) SaveWorkplace(ctx context.Context, workplace domain.Workplace) error {
	defer s.lock(ctx)()
	if _, exists := s.workplaces[workplace.WorkplaceID]; exists {
		return apperrors.NewDuplicateError("workplace " + workplace.WorkplaceID)
	}
	s.workplaces[workplace.WorkplaceID] = workplace
	return nil
}

func (s *Store) AddUserToWorkplace(ctx context.Context, membership domain.UserWorkplace) error {
	defer s.lock(ctx)()
	if _, ok := s.workplaces[membership.WorkplaceID]; !ok {
		return apperrors.NewNotFoundError("workplace " + membership.WorkplaceID)
	}
	s.members[memberKey{membership.UserID, membership.WorkplaceID}] = membership
	return nil
}

func (s *Store) FindUserWorkplaceRole(ctx context.Context, userID, workplaceID string) (*domain.UserWorkplace, error) {
	defer s.lock(ctx)()
	m, ok := s.members[memberKey{userID, workplaceID}]
	if !ok {
		return nil, apperrors.NewNotFoundError("membership of user " + userID)
	}
	return &m, nil
}

// FindExchangeRate falls back to inverting the opposite pair.
func (s *Store) FindExchangeRate(ctx context.Context, fromCurrencyCode, toCurrencyCode string) (*domain.ExchangeRate, error) {
	defer s.lock(ctx)()
	from, to := strings.ToUpper(fromCurrencyCode), strings.ToUpper(toCurrencyCode)
	if r, ok := s.rates[from+"/"+to]; ok {
		return &r, nil
	}
	if r, ok := s.rates[to+"/"+from]; ok && !r.Rate.IsZero() {
		inv := r
		inv.FromCurrencyCode, inv.ToCurrencyCode = from, to
		inv.Rate = decimal.NewFromInt(1).DivRound(r.Rate, 10)
		return &inv, nil
	}
	return nil, apperrors.NewNotFoundError("exchange rate " + from + "/" + to)
}

// PutExchangeRate seeds or replaces a rate.
func (s *Store) PutExchangeRate(rate domain.ExchangeRate) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rate.FromCurrencyCode = strings.ToUpper(rate.FromCurrencyCode)
	rate.ToCurrencyCode = strings.ToUpper(rate.ToCurrencyCode)
	s.rates[rate.FromCurrencyCode+"/"+rate.ToCurrencyCode] = rate
}
