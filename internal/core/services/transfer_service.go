package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/SscSPs/bank_reconciliation/internal/apperrors"
	"github.com/SscSPs/bank_reconciliation/internal/core/domain"
	"github.com/SscSPs/bank_reconciliation/internal/core/matching"
	portsrepo "github.com/SscSPs/bank_reconciliation/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/bank_reconciliation/internal/core/ports/services"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// transferService implements the TransferSvcFacade interface
type transferService struct {
	BaseService
	feedRepo     portsrepo.FeedTransactionReader
	ledgerRepo   portsrepo.LedgerPoster
	matchRepo    portsrepo.MatchReader
	transferRepo portsrepo.TransferRepositoryFacade
	periodRepo   portsrepo.PeriodLockRepository
	rateRepo     portsrepo.ExchangeRateReader
	detector     *matching.TransferDetector
	cfg          matching.Config
}

// NewTransferService creates the transfer detection and confirmation service.
// repos.ExchangeRateRepo may be nil, which disables cross-currency pairing.
func NewTransferService(repos portsrepo.RepositoryProvider, cfg matching.Config, opts ...Option) portssvc.TransferSvcFacade {
	svc := &transferService{
		feedRepo:     repos.FeedRepo,
		ledgerRepo:   repos.LedgerRepo,
		matchRepo:    repos.MatchRepo,
		transferRepo: repos.TransferRepo,
		periodRepo:   repos.PeriodRepo,
		rateRepo:     repos.ExchangeRateRepo,
		detector:     matching.NewTransferDetector(cfg),
		cfg:          cfg,
	}
	svc.apply(opts)
	return svc
}

// Ensure transferService implements the TransferSvcFacade interface
var _ portssvc.TransferSvcFacade = (*transferService)(nil)

func (s *transferService) GetTransfer(ctx context.Context, workplaceID, transferID, userID string) (*domain.DetectedTransfer, error) {
	if err := s.AuthorizeUser(ctx, userID, workplaceID, domain.RoleReadOnly); err != nil {
		return nil, err
	}
	return s.transferRepo.FindTransferByID(ctx, workplaceID, transferID)
}

func (s *transferService) ListTransfers(ctx context.Context, workplaceID string, status *domain.TransferStatus, userID string) ([]domain.DetectedTransfer, error) {
	if err := s.AuthorizeUser(ctx, userID, workplaceID, domain.RoleReadOnly); err != nil {
		return nil, err
	}
	if status != nil && !validTransferStatus(*status) {
		return nil, apperrors.NewValidationError(fmt.Sprintf("invalid transfer status %q", *status))
	}
	transfers, err := s.transferRepo.ListTransfers(ctx, workplaceID, status)
	if err != nil {
		s.LogError(ctx, err, "Failed to list transfers", slog.String("workplace_id", workplaceID))
		return nil, err
	}
	if transfers == nil {
		transfers = []domain.DetectedTransfer{}
	}
	return transfers, nil
}

func (s *transferService) DetectTransfers(ctx context.Context, workplaceID string, r domain.DateRange, userID string) ([]domain.DetectedTransfer, error) {
	if err := s.AuthorizeUser(ctx, userID, workplaceID, domain.RoleMember); err != nil {
		return nil, err
	}
	if r.From.IsZero() || r.To.IsZero() || !r.Valid() {
		return nil, apperrors.NewValidationError("date range must have from on or before to")
	}
	r = domain.NewDateRange(r.From, r.To)

	feeds, err := s.feedRepo.ListFeedTransactionsByWorkplace(ctx, workplaceID, r)
	if err != nil {
		s.LogError(ctx, err, "Failed to list feed transactions for transfer scan",
			slog.String("workplace_id", workplaceID))
		return nil, err
	}
	excluded, err := s.unavailableFeeds(ctx, workplaceID, feeds)
	if err != nil {
		return nil, err
	}
	rates, err := s.loadRates(ctx, feeds)
	if err != nil {
		return nil, err
	}

	pairs := s.detector.Detect(feeds, excluded, rates)
	now := s.Now()
	detected := make([]domain.DetectedTransfer, 0, len(pairs))
	events := make([]domain.ReconciliationEvent, 0, len(pairs))
	for _, p := range pairs {
		saved, err := s.transferRepo.SaveSuggestedTransfer(ctx, newTransfer(p, userID, now))
		if err != nil {
			if errors.Is(err, apperrors.ErrConflict) || errors.Is(err, apperrors.ErrPeriodLocked) {
				s.GetLogger(ctx).Warn("Skipping transfer pair changed during scan",
					slog.String("from_feed_id", p.From.FeedTransactionID),
					slog.String("to_feed_id", p.To.FeedTransactionID),
					slog.String("reason", err.Error()))
				continue
			}
			s.LogError(ctx, err, "Failed to save detected transfer",
				slog.String("from_feed_id", p.From.FeedTransactionID),
				slog.String("to_feed_id", p.To.FeedTransactionID))
			return nil, err
		}
		detected = append(detected, *saved)
		events = append(events, transferEvent(domain.EventTransferDetected, saved, userID))
	}

	s.metrics().TransferChange(string(domain.TransferStatusSuggested), len(detected))
	s.Publish(ctx, events...)
	s.LogInfo(ctx, "Transfer scan completed",
		slog.String("workplace_id", workplaceID),
		slog.Int("feeds", len(feeds)),
		slog.Int("excluded", len(excluded)),
		slog.Int("detected", len(detected)))
	return detected, nil
}

func (s *transferService) CreateTransfer(ctx context.Context, workplaceID, fromFeedID, toFeedID, userID string) (*domain.DetectedTransfer, error) {
	if err := s.AuthorizeUser(ctx, userID, workplaceID, domain.RoleMember); err != nil {
		return nil, err
	}
	if fromFeedID == toFeedID {
		return nil, apperrors.NewValidationError("a transfer needs two different feed transactions")
	}

	feeds, err := s.feedRepo.FindFeedTransactionsByIDs(ctx, workplaceID, []string{fromFeedID, toFeedID})
	if err != nil {
		return nil, err
	}
	var from, to *domain.BankFeedTransaction
	for i := range feeds {
		switch feeds[i].FeedTransactionID {
		case fromFeedID:
			from = &feeds[i]
		case toFeedID:
			to = &feeds[i]
		}
	}
	if from == nil {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("feed transaction %s", fromFeedID))
	}
	if to == nil {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("feed transaction %s", toFeedID))
	}

	rates, err := s.loadRates(ctx, []domain.BankFeedTransaction{*from, *to})
	if err != nil {
		return nil, err
	}
	pair, err := s.detector.Validate(*from, *to, rates)
	if err != nil {
		return nil, err
	}
	if err := s.ensureUnmatched(ctx, workplaceID, pair.From.FeedTransactionID, pair.To.FeedTransactionID); err != nil {
		return nil, err
	}

	saved, err := s.transferRepo.SaveSuggestedTransfer(ctx, newTransfer(pair, userID, s.Now()))
	if err != nil {
		if !isExpected(err) {
			s.LogError(ctx, err, "Failed to save transfer",
				slog.String("from_feed_id", fromFeedID), slog.String("to_feed_id", toFeedID))
		}
		return nil, err
	}

	s.metrics().TransferChange(string(domain.TransferStatusSuggested), 1)
	s.Publish(ctx, transferEvent(domain.EventTransferDetected, saved, userID))
	s.LogInfo(ctx, "Transfer created", slog.String("transfer_id", saved.TransferID))
	return saved, nil
}

func (s *transferService) ConfirmTransfer(ctx context.Context, workplaceID, transferID, userID string) (*domain.DetectedTransfer, error) {
	if err := s.AuthorizeUser(ctx, userID, workplaceID, domain.RoleMember); err != nil {
		return nil, err
	}

	current, err := s.transferRepo.FindTransferByID(ctx, workplaceID, transferID)
	if err != nil {
		return nil, err
	}
	if current.Status == domain.TransferStatusSuggested {
		if err := s.ensureUnmatched(ctx, workplaceID, current.FromFeedID, current.ToFeedID); err != nil {
			return nil, err
		}
	}

	post := func(ctx context.Context, t domain.DetectedTransfer) error {
		_, err := s.ledgerRepo.PostTransactions(ctx, transferPostings(t, userID))
		return err
	}
	confirmed, changed, err := s.transferRepo.ConfirmTransfer(ctx, workplaceID, transferID, userID, s.Now(), post)
	if err != nil {
		if !isExpected(err) {
			s.LogError(ctx, err, "Failed to confirm transfer", slog.String("transfer_id", transferID))
		}
		return nil, err
	}
	if !changed {
		s.LogDebug(ctx, "Transfer already confirmed", slog.String("transfer_id", transferID))
		return confirmed, nil
	}

	s.metrics().TransferChange(string(domain.TransferStatusConfirmed), 1)
	s.Publish(ctx, transferEvent(domain.EventTransferConfirmed, confirmed, userID))
	s.LogInfo(ctx, "Transfer confirmed",
		slog.String("transfer_id", transferID),
		slog.String("from_account_id", confirmed.FromAccountID),
		slog.String("to_account_id", confirmed.ToAccountID))
	return confirmed, nil
}

func (s *transferService) RejectTransfer(ctx context.Context, workplaceID, transferID, userID string) (*domain.DetectedTransfer, error) {
	if err := s.AuthorizeUser(ctx, userID, workplaceID, domain.RoleMember); err != nil {
		return nil, err
	}

	rejected, changed, err := s.transferRepo.RejectTransfer(ctx, workplaceID, transferID, userID, s.Now())
	if err != nil {
		if !isExpected(err) {
			s.LogError(ctx, err, "Failed to reject transfer", slog.String("transfer_id", transferID))
		}
		return nil, err
	}
	if changed {
		s.metrics().TransferChange(string(domain.TransferStatusRejected), 1)
		s.Publish(ctx, transferEvent(domain.EventTransferRejected, rejected, userID))
		s.LogInfo(ctx, "Transfer rejected", slog.String("transfer_id", transferID))
	}
	return rejected, nil
}

// unavailableFeeds returns feeds that may not take part in a new transfer: members of a
// non-rejected transfer, feeds with a confirmed match, and feeds in locked periods.
func (s *transferService) unavailableFeeds(ctx context.Context, workplaceID string, feeds []domain.BankFeedTransaction) (map[string]bool, error) {
	excluded := map[string]bool{}

	active, err := s.transferRepo.ListActiveTransferFeedIDs(ctx, workplaceID)
	if err != nil {
		s.LogError(ctx, err, "Failed to list transfer feed ids", slog.String("workplace_id", workplaceID))
		return nil, err
	}
	for id := range active {
		excluded[id] = true
	}

	matches, err := s.matchRepo.ListActiveMatchesByFeedIDs(ctx, workplaceID, feedIDs(feeds))
	if err != nil {
		return nil, err
	}
	for id, m := range matches {
		if m.IsMatched() {
			excluded[id] = true
		}
	}

	locked := map[domain.AccountPeriod]bool{}
	for _, f := range feeds {
		ap := domain.AccountPeriod{AccountID: f.AccountID, Period: domain.PeriodOf(f.Date)}
		isLocked, seen := locked[ap]
		if !seen {
			isLocked, err = s.periodRepo.IsPeriodLocked(ctx, workplaceID, ap.AccountID, ap.Period)
			if err != nil {
				return nil, err
			}
			locked[ap] = isLocked
		}
		if isLocked {
			excluded[f.FeedTransactionID] = true
		}
	}
	return excluded, nil
}

func (s *transferService) ensureUnmatched(ctx context.Context, workplaceID string, ids ...string) error {
	matches, err := s.matchRepo.ListActiveMatchesByFeedIDs(ctx, workplaceID, ids)
	if err != nil {
		return err
	}
	for _, id := range ids {
		if m, ok := matches[id]; ok && m.IsMatched() {
			return apperrors.NewConflictError(fmt.Sprintf("feed transaction %s is already matched", id))
		}
	}
	return nil
}

// loadRates fetches rates for the currency pairs present in feeds. It returns nil when
// FX pairing is disabled or no rate source is wired.
func (s *transferService) loadRates(ctx context.Context, feeds []domain.BankFeedTransaction) (matching.RateLookup, error) {
	if !s.cfg.FXEnabled || s.rateRepo == nil {
		return nil, nil
	}
	currencies := map[string]bool{}
	for _, f := range feeds {
		currencies[strings.ToUpper(f.CurrencyCode)] = true
	}
	if len(currencies) < 2 {
		return rateTable{}, nil
	}

	table := rateTable{}
	for from := range currencies {
		for to := range currencies {
			if from == to {
				continue
			}
			rate, err := s.rateRepo.FindExchangeRate(ctx, from, to)
			if errors.Is(err, apperrors.ErrNotFound) {
				continue
			}
			if err != nil {
				s.LogError(ctx, err, "Failed to load exchange rate",
					slog.String("from", from), slog.String("to", to))
				return nil, err
			}
			table[from+"/"+to] = rate.Rate
		}
	}
	return table, nil
}

// rateTable is a RateLookup over rates loaded for one scan.
type rateTable map[string]decimal.Decimal

func (t rateTable) Rate(from, to string) (decimal.Decimal, bool) {
	r, ok := t[strings.ToUpper(from)+"/"+strings.ToUpper(to)]
	return r, ok
}

func newTransfer(p matching.TransferPair, actor string, now time.Time) domain.DetectedTransfer {
	t := p.ToTransfer()
	t.TransferID = uuid.NewString()
	t.Version = 1
	t.AuditFields = domain.AuditFields{
		CreatedAt:     now,
		CreatedBy:     actor,
		LastUpdatedAt: now,
		LastUpdatedBy: actor,
	}
	return t
}

// transferPostings builds one ledger posting per leg, linked by the transfer id.
func transferPostings(t domain.DetectedTransfer, actor string) []domain.LedgerPosting {
	transferID := t.TransferID
	fromFeed, toFeed := t.FromFeedID, t.ToFeedID
	description := fmt.Sprintf("Transfer %s to %s", t.FromAccountID, t.ToAccountID)
	return []domain.LedgerPosting{
		{
			WorkplaceID:             t.WorkplaceID,
			AccountID:               t.FromAccountID,
			Date:                    t.FromDate,
			Description:             description,
			Amount:                  -t.Amount,
			CurrencyCode:            t.CurrencyCode,
			SourceFeedTransactionID: &fromFeed,
			TransferID:              &transferID,
			PostedBy:                actor,
		},
		{
			WorkplaceID:             t.WorkplaceID,
			AccountID:               t.ToAccountID,
			Date:                    t.ToDate,
			Description:             description,
			Amount:                  t.ToAmount,
			CurrencyCode:            t.ToCurrencyCode,
			SourceFeedTransactionID: &toFeed,
			TransferID:              &transferID,
			PostedBy:                actor,
		},
	}
}

func transferEvent(eventType string, t *domain.DetectedTransfer, actor string) domain.ReconciliationEvent {
	return domain.NewReconciliationEvent(eventType, t.WorkplaceID, "transfer", t.TransferID, actor, map[string]any{
		"fromFeedID":    t.FromFeedID,
		"toFeedID":      t.ToFeedID,
		"fromAccountID": t.FromAccountID,
		"toAccountID":   t.ToAccountID,
		"amount":        t.Amount,
		"currencyCode":  t.CurrencyCode,
		"status":        t.Status,
	})
}

func validTransferStatus(s domain.TransferStatus) bool {
	switch s {
	case domain.TransferStatusSuggested, domain.TransferStatusConfirmed, domain.TransferStatusRejected:
		return true
	}
	return false
}
