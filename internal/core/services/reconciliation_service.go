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
	"github.com/SscSPs/bank_reconciliation/internal/dto"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const (
	reasonManualMatch     = "manual match"
	reasonCreatedFromFeed = "created from feed transaction"

	defaultListLimit = 20
	maxListLimit     = 100
)

// ReconciliationConfig tunes the reconciliation service.
type ReconciliationConfig struct {
	Matching                matching.Config
	BulkConcurrency         int
	SuggestionsDefaultLimit int
}

// reconciliationService implements the ReconciliationSvcFacade interface
type reconciliationService struct {
	BaseService
	feedRepo     portsrepo.FeedTransactionRepositoryFacade
	ledgerRepo   portsrepo.LedgerRepositoryFacade
	matchRepo    portsrepo.MatchRepositoryFacade
	transferRepo portsrepo.TransferReader
	periodRepo   portsrepo.PeriodLockRepository
	engine       *matching.Engine
	cfg          ReconciliationConfig
}

// NewReconciliationService creates the match and suggestion service.
func NewReconciliationService(repos portsrepo.RepositoryProvider, cfg ReconciliationConfig, opts ...Option) portssvc.ReconciliationSvcFacade {
	if cfg.BulkConcurrency < 1 {
		cfg.BulkConcurrency = 1
	}
	if cfg.SuggestionsDefaultLimit < 1 {
		cfg.SuggestionsDefaultLimit = 5
	}
	svc := &reconciliationService{
		feedRepo:     repos.FeedRepo,
		ledgerRepo:   repos.LedgerRepo,
		matchRepo:    repos.MatchRepo,
		transferRepo: repos.TransferRepo,
		periodRepo:   repos.PeriodRepo,
		engine:       matching.NewEngine(cfg.Matching),
		cfg:          cfg,
	}
	svc.apply(opts)
	return svc
}

// Ensure reconciliationService implements the ReconciliationSvcFacade interface
var _ portssvc.ReconciliationSvcFacade = (*reconciliationService)(nil)

func (s *reconciliationService) GetSuggestions(ctx context.Context, workplaceID, feedTransactionID string, limit int, userID string) ([]domain.MatchSuggestion, error) {
	if err := s.AuthorizeUser(ctx, userID, workplaceID, domain.RoleReadOnly); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = s.cfg.SuggestionsDefaultLimit
	}

	feed, err := s.feedRepo.FindFeedTransactionByID(ctx, workplaceID, feedTransactionID)
	if err != nil {
		return nil, err
	}

	window := s.cfg.Matching.MaxWindowDays
	candidates, err := s.ledgerRepo.ListLedgerCandidates(ctx, workplaceID, feed.AccountID, domain.NewDateRange(feed.Date, feed.Date).Expand(window))
	if err != nil {
		s.LogError(ctx, err, "Failed to list ledger candidates",
			slog.String("feed_transaction_id", feedTransactionID))
		return nil, err
	}
	consumed, err := s.matchRepo.ListMatchedTransactionIDs(ctx, workplaceID, transactionIDs(candidates))
	if err != nil {
		return nil, err
	}

	byID := make(map[string]domain.Transaction, len(candidates))
	for _, c := range candidates {
		byID[c.TransactionID] = c
	}

	scores := s.engine.Suggestions(*feed, candidates, consumed, limit)
	suggestions := make([]domain.MatchSuggestion, 0, len(scores))
	for _, sc := range scores {
		suggestions = append(suggestions, domain.MatchSuggestion{
			FeedTransactionID: feed.FeedTransactionID,
			TransactionID:     sc.CandidateID,
			Confidence:        sc.Confidence,
			Reasons:           sc.Reasons,
			DateDistanceDays:  sc.DateDistanceDays,
			Transaction:       byID[sc.CandidateID],
		})
	}

	s.LogDebug(ctx, "Suggestions ranked",
		slog.String("feed_transaction_id", feedTransactionID),
		slog.Int("candidates", len(candidates)),
		slog.Int("suggestions", len(suggestions)))
	return suggestions, nil
}

func (s *reconciliationService) GenerateSuggestions(ctx context.Context, workplaceID, accountID string, period domain.Period, userID string) (*domain.SuggestionRunResult, error) {
	if err := s.AuthorizeUser(ctx, userID, workplaceID, domain.RoleMember); err != nil {
		return nil, err
	}
	if period.IsZero() {
		return nil, apperrors.NewValidationError("period is required")
	}
	if err := s.ensureOpen(ctx, workplaceID, accountID, period); err != nil {
		return nil, err
	}

	start := time.Now()
	feeds, err := s.feedRepo.ListFeedTransactions(ctx, workplaceID, accountID, period.Range())
	if err != nil {
		s.LogError(ctx, err, "Failed to list feed transactions",
			slog.String("account_id", accountID), slog.String("period", period.String()))
		return nil, err
	}
	candidates, err := s.ledgerRepo.ListLedgerCandidates(ctx, workplaceID, accountID, period.Range().Expand(s.cfg.Matching.MaxWindowDays))
	if err != nil {
		s.LogError(ctx, err, "Failed to list ledger candidates",
			slog.String("account_id", accountID), slog.String("period", period.String()))
		return nil, err
	}
	existing, err := s.matchRepo.ListActiveMatchesByFeedIDs(ctx, workplaceID, feedIDs(feeds))
	if err != nil {
		return nil, err
	}
	consumed, err := s.matchRepo.ListMatchedTransactionIDs(ctx, workplaceID, transactionIDs(candidates))
	if err != nil {
		return nil, err
	}
	resolved, err := s.confirmedTransferFeeds(ctx, workplaceID)
	if err != nil {
		return nil, err
	}

	decisions := s.engine.Plan(matching.PlanInput{
		Feeds:      feeds,
		Existing:   existing,
		Candidates: candidates,
		Consumed:   consumed,
		Resolved:   resolved,
	})

	result := &domain.SuggestionRunResult{
		AccountID:  accountID,
		Period:     period,
		Considered: len(decisions),
		Matches:    make([]domain.TransactionMatch, 0, len(decisions)),
	}
	written := map[domain.MatchStatus]int{}
	var events []domain.ReconciliationEvent
	now := s.Now()

	for _, d := range decisions {
		if !d.Changed {
			result.Matches = append(result.Matches, existing[d.Feed.FeedTransactionID])
			tally(result, d.Status, d.AutoMatched)
			continue
		}

		saved, err := s.matchRepo.SaveMatchDecision(ctx, s.matchFromDecision(d, workplaceID, now))
		if errors.Is(err, apperrors.ErrConflict) && d.AutoMatched {
			// Lost the claim to a concurrent writer; keep the candidate as a suggestion.
			d.Status, d.AutoMatched = domain.MatchStatusSuggested, false
			saved, err = s.matchRepo.SaveMatchDecision(ctx, s.matchFromDecision(d, workplaceID, now))
		}
		if err != nil {
			if errors.Is(err, apperrors.ErrConflict) {
				s.GetLogger(ctx).Warn("Skipping feed transaction changed during suggestion pass",
					slog.String("feed_transaction_id", d.Feed.FeedTransactionID))
				continue
			}
			s.LogError(ctx, err, "Failed to save match decision",
				slog.String("feed_transaction_id", d.Feed.FeedTransactionID))
			return nil, err
		}

		result.Matches = append(result.Matches, *saved)
		tally(result, d.Status, d.AutoMatched)
		written[d.Status]++
		switch d.Status {
		case domain.MatchStatusSuggested:
			events = append(events, matchEvent(domain.EventMatchSuggested, saved, domain.SystemActor))
		case domain.MatchStatusMatched:
			events = append(events, matchEvent(domain.EventMatchConfirmed, saved, domain.SystemActor))
		}
	}

	for status, n := range written {
		s.metrics().MatchDecisions(string(status), n)
	}
	s.metrics().SuggestionPass(time.Since(start))
	s.Publish(ctx, events...)

	s.LogInfo(ctx, "Suggestion pass completed",
		slog.String("account_id", accountID),
		slog.String("period", period.String()),
		slog.Int("considered", result.Considered),
		slog.Int("suggested", result.Suggested),
		slog.Int("auto_matched", result.AutoMatched),
		slog.Int("unmatched", result.Unmatched))
	return result, nil
}

func (s *reconciliationService) GetMatch(ctx context.Context, workplaceID, matchID, userID string) (*domain.TransactionMatch, error) {
	if err := s.AuthorizeUser(ctx, userID, workplaceID, domain.RoleReadOnly); err != nil {
		return nil, err
	}
	return s.matchRepo.FindMatchByID(ctx, workplaceID, matchID)
}

func (s *reconciliationService) ListMatches(ctx context.Context, workplaceID string, filter domain.MatchFilter, limit int, nextToken *string, userID string) ([]domain.TransactionMatch, *string, error) {
	if err := s.AuthorizeUser(ctx, userID, workplaceID, domain.RoleReadOnly); err != nil {
		return nil, nil, err
	}
	if filter.Status != nil && !filter.Status.Valid() {
		return nil, nil, apperrors.NewValidationError(fmt.Sprintf("invalid match status %q", *filter.Status))
	}
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}

	matches, next, err := s.matchRepo.ListMatches(ctx, workplaceID, filter, limit, nextToken)
	if err != nil {
		s.LogError(ctx, err, "Failed to list matches", slog.String("workplace_id", workplaceID))
		return nil, nil, err
	}
	if matches == nil {
		matches = []domain.TransactionMatch{}
	}
	return matches, next, nil
}

func (s *reconciliationService) CreateMatch(ctx context.Context, workplaceID, feedTransactionID, transactionID, userID string) (*domain.TransactionMatch, error) {
	if err := s.AuthorizeUser(ctx, userID, workplaceID, domain.RoleMember); err != nil {
		return nil, err
	}

	feed, err := s.feedRepo.FindFeedTransactionByID(ctx, workplaceID, feedTransactionID)
	if err != nil {
		return nil, err
	}
	txn, err := s.ledgerRepo.FindTransactionByID(ctx, workplaceID, transactionID)
	if err != nil {
		return nil, err
	}
	if !strings.EqualFold(feed.CurrencyCode, txn.CurrencyCode) {
		return nil, apperrors.NewValidationError(fmt.Sprintf("feed transaction is in %s but ledger transaction is in %s", feed.CurrencyCode, txn.CurrencyCode))
	}
	if err := s.ensureNotTransferResolved(ctx, workplaceID, feed.FeedTransactionID); err != nil {
		return nil, err
	}

	score := s.engine.Scorer().Score(matching.FingerprintFeed(*feed), matching.FingerprintLedger(*txn))
	reasons := append([]string{reasonManualMatch}, score.Reasons...)

	now := s.Now()
	match := newMatchedRow(*feed, txn.TransactionID, score.Confidence, reasons, userID, now)
	created, isNew, err := s.matchRepo.CreateConfirmedMatch(ctx, match)
	if err != nil {
		s.metrics().MatchConfirmation(confirmOutcome(err))
		if !isExpected(err) {
			s.LogError(ctx, err, "Failed to create manual match",
				slog.String("feed_transaction_id", feedTransactionID),
				slog.String("transaction_id", transactionID))
		}
		return nil, err
	}

	if isNew {
		s.metrics().MatchConfirmation(outcomeManual)
		s.Publish(ctx, matchEvent(domain.EventMatchConfirmed, created, userID))
		s.LogInfo(ctx, "Manual match created",
			slog.String("match_id", created.MatchID),
			slog.String("feed_transaction_id", feedTransactionID),
			slog.String("transaction_id", transactionID))
	} else {
		s.metrics().MatchConfirmation(outcomeIdempotent)
	}
	return created, nil
}

func (s *reconciliationService) ConfirmMatch(ctx context.Context, workplaceID, matchID, userID string) (*domain.TransactionMatch, error) {
	if err := s.AuthorizeUser(ctx, userID, workplaceID, domain.RoleMember); err != nil {
		return nil, err
	}
	return s.confirm(ctx, workplaceID, matchID, userID)
}

func (s *reconciliationService) confirm(ctx context.Context, workplaceID, matchID, userID string) (*domain.TransactionMatch, error) {
	match, changed, err := s.matchRepo.ConfirmMatch(ctx, workplaceID, matchID, userID, s.Now())
	if err != nil {
		s.metrics().MatchConfirmation(confirmOutcome(err))
		if !isExpected(err) {
			s.LogError(ctx, err, "Failed to confirm match", slog.String("match_id", matchID))
		}
		return nil, err
	}
	if !changed {
		s.metrics().MatchConfirmation(outcomeIdempotent)
		s.LogDebug(ctx, "Match already confirmed", slog.String("match_id", matchID))
		return match, nil
	}

	s.metrics().MatchConfirmation(outcomeConfirmed)
	s.Publish(ctx, matchEvent(domain.EventMatchConfirmed, match, userID))
	s.LogInfo(ctx, "Match confirmed",
		slog.String("match_id", matchID),
		slog.String("feed_transaction_id", match.FeedTransactionID))
	return match, nil
}

func (s *reconciliationService) Unmatch(ctx context.Context, workplaceID, matchID, userID string) error {
	if err := s.AuthorizeUser(ctx, userID, workplaceID, domain.RoleMember); err != nil {
		return err
	}

	match, err := s.matchRepo.SoftDeleteMatch(ctx, workplaceID, matchID, userID, s.Now())
	if err != nil {
		if !isExpected(err) {
			s.LogError(ctx, err, "Failed to unmatch", slog.String("match_id", matchID))
		}
		return err
	}

	s.Publish(ctx, matchEvent(domain.EventMatchUnmatched, match, userID))
	s.LogInfo(ctx, "Match removed",
		slog.String("match_id", matchID),
		slog.String("feed_transaction_id", match.FeedTransactionID))
	return nil
}

func (s *reconciliationService) BulkConfirmMatches(ctx context.Context, workplaceID string, matchIDs []string, userID string) ([]domain.BulkItemResult, error) {
	if err := s.AuthorizeUser(ctx, userID, workplaceID, domain.RoleMember); err != nil {
		return nil, err
	}
	if len(matchIDs) == 0 {
		return nil, apperrors.NewValidationError("at least one match id is required")
	}

	results := make([]domain.BulkItemResult, len(matchIDs))
	var g errgroup.Group
	g.SetLimit(s.cfg.BulkConcurrency)
	for i, id := range matchIDs {
		g.Go(func() error {
			match, err := s.confirm(ctx, workplaceID, id, userID)
			if err != nil {
				results[i] = failedItem(id, err)
				return nil
			}
			results[i] = domain.BulkItemResult{ID: id, Success: true, Match: match}
			return nil
		})
	}
	_ = g.Wait()

	failed := 0
	for _, r := range results {
		if !r.Success {
			failed++
		}
	}
	s.LogInfo(ctx, "Bulk confirm completed",
		slog.Int("requested", len(matchIDs)),
		slog.Int("failed", failed))
	return results, nil
}

func (s *reconciliationService) ImportFeedTransactions(ctx context.Context, workplaceID string, req dto.ImportFeedTransactionsRequest, userID string) ([]domain.BankFeedTransaction, error) {
	if err := s.AuthorizeUser(ctx, userID, workplaceID, domain.RoleMember); err != nil {
		return nil, err
	}
	if req.AccountID == "" || len(req.Transactions) == 0 {
		return nil, apperrors.NewValidationError("account id and at least one transaction are required")
	}

	now := s.Now()
	seen := make(map[string]bool, len(req.Transactions))
	periods := map[domain.Period]bool{}
	feeds := make([]domain.BankFeedTransaction, 0, len(req.Transactions))
	for i, in := range req.Transactions {
		date, err := time.Parse(time.DateOnly, in.Date)
		if err != nil {
			return nil, apperrors.NewValidationError(fmt.Sprintf("transactions[%d]: invalid date %q", i, in.Date))
		}
		if in.Amount == 0 {
			return nil, apperrors.NewValidationError(fmt.Sprintf("transactions[%d]: amount must not be zero", i))
		}
		id := in.FeedTransactionID
		if id == "" {
			id = uuid.NewString()
		}
		if seen[id] {
			return nil, apperrors.NewValidationError(fmt.Sprintf("transactions[%d]: duplicate feed transaction id %s", i, id))
		}
		seen[id] = true
		periods[domain.PeriodOf(date)] = true

		feeds = append(feeds, domain.BankFeedTransaction{
			FeedTransactionID: id,
			WorkplaceID:       workplaceID,
			AccountID:         req.AccountID,
			Date:              domain.DateOnly(date),
			Description:       strings.TrimSpace(in.Description),
			Amount:            in.Amount,
			CurrencyCode:      strings.ToUpper(in.CurrencyCode),
			CreatedAt:         now,
			CreatedBy:         userID,
		})
	}

	for p := range periods {
		if err := s.ensureOpen(ctx, workplaceID, req.AccountID, p); err != nil {
			return nil, err
		}
	}

	if err := s.feedRepo.SaveFeedTransactions(ctx, feeds); err != nil {
		if !isExpected(err) {
			s.LogError(ctx, err, "Failed to save feed transactions",
				slog.String("account_id", req.AccountID), slog.Int("count", len(feeds)))
		}
		return nil, err
	}

	s.LogInfo(ctx, "Feed transactions imported",
		slog.String("account_id", req.AccountID),
		slog.Int("count", len(feeds)))
	return feeds, nil
}

func (s *reconciliationService) ListFeedTransactions(ctx context.Context, workplaceID, accountID string, period domain.Period, userID string) ([]domain.BankFeedTransaction, error) {
	if err := s.AuthorizeUser(ctx, userID, workplaceID, domain.RoleReadOnly); err != nil {
		return nil, err
	}
	feeds, err := s.feedRepo.ListFeedTransactions(ctx, workplaceID, accountID, period.Range())
	if err != nil {
		s.LogError(ctx, err, "Failed to list feed transactions", slog.String("account_id", accountID))
		return nil, err
	}
	if feeds == nil {
		return []domain.BankFeedTransaction{}, nil
	}
	return feeds, nil
}

func (s *reconciliationService) BulkCreateTransactions(ctx context.Context, workplaceID string, feedTransactionIDs []string, categoryID *string, userID string) ([]domain.BulkItemResult, error) {
	if err := s.AuthorizeUser(ctx, userID, workplaceID, domain.RoleMember); err != nil {
		return nil, err
	}
	ids := dedupe(feedTransactionIDs)
	if len(ids) == 0 {
		return nil, apperrors.NewValidationError("at least one feed transaction id is required")
	}

	found, err := s.feedRepo.FindFeedTransactionsByIDs(ctx, workplaceID, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]domain.BankFeedTransaction, len(found))
	for _, f := range found {
		byID[f.FeedTransactionID] = f
	}

	results := make([]domain.BulkItemResult, len(ids))
	var g errgroup.Group
	g.SetLimit(s.cfg.BulkConcurrency)
	for i, id := range ids {
		g.Go(func() error {
			feed, ok := byID[id]
			if !ok {
				results[i] = failedItem(id, apperrors.NewNotFoundError(fmt.Sprintf("feed transaction %s", id)))
				return nil
			}
			match, txn, err := s.createFromFeed(ctx, feed, categoryID, userID)
			if err != nil {
				results[i] = failedItem(id, err)
				return nil
			}
			results[i] = domain.BulkItemResult{ID: id, Success: true, Match: match, Transaction: txn}
			return nil
		})
	}
	_ = g.Wait()

	created := 0
	for _, r := range results {
		if r.Success {
			created++
		}
	}
	s.metrics().MatchDecisions(string(domain.MatchStatusMatched), created)
	s.LogInfo(ctx, "Ledger transactions created from feed",
		slog.Int("requested", len(ids)),
		slog.Int("created", created))
	return results, nil
}

// createFromFeed posts the ledger transaction mirroring feed and records the match in the
// same repository transaction.
func (s *reconciliationService) createFromFeed(ctx context.Context, feed domain.BankFeedTransaction, categoryID *string, userID string) (*domain.TransactionMatch, *domain.Transaction, error) {
	posting := domain.PostingFromFeed(feed, categoryID, userID)
	post := func(ctx context.Context) (*domain.Transaction, error) {
		created, err := s.ledgerRepo.PostTransactions(ctx, []domain.LedgerPosting{posting})
		if err != nil {
			return nil, err
		}
		if len(created) != 1 {
			return nil, fmt.Errorf("ledger returned %d transactions for one posting", len(created))
		}
		return &created[0], nil
	}

	row := newMatchedRow(feed, "", 1, []string{reasonCreatedFromFeed}, userID, s.Now())
	saved, txn, err := s.matchRepo.CreatePostedMatch(ctx, row, post)
	if err != nil {
		if !isExpected(err) {
			s.LogError(ctx, err, "Failed to create ledger transaction from feed",
				slog.String("feed_transaction_id", feed.FeedTransactionID))
		}
		return nil, nil, err
	}
	s.Publish(ctx, matchEvent(domain.EventMatchConfirmed, saved, userID))
	return saved, txn, nil
}

func failedItem(id string, err error) domain.BulkItemResult {
	return domain.BulkItemResult{ID: id, Error: err.Error(), ErrorCode: apperrors.Code(err)}
}

func (s *reconciliationService) ensureOpen(ctx context.Context, workplaceID, accountID string, period domain.Period) error {
	locked, err := s.periodRepo.IsPeriodLocked(ctx, workplaceID, accountID, period)
	if err != nil {
		s.LogError(ctx, err, "Failed to read period lock",
			slog.String("account_id", accountID), slog.String("period", period.String()))
		return err
	}
	if locked {
		return apperrors.NewPeriodLockedError(fmt.Sprintf("account %s period %s is locked", accountID, period))
	}
	return nil
}

func (s *reconciliationService) confirmedTransferFeeds(ctx context.Context, workplaceID string) (map[string]bool, error) {
	active, err := s.transferRepo.ListActiveTransferFeedIDs(ctx, workplaceID)
	if err != nil {
		s.LogError(ctx, err, "Failed to list transfer feed ids", slog.String("workplace_id", workplaceID))
		return nil, err
	}
	resolved := make(map[string]bool, len(active))
	for id, status := range active {
		if status == domain.TransferStatusConfirmed {
			resolved[id] = true
		}
	}
	return resolved, nil
}

func (s *reconciliationService) ensureNotTransferResolved(ctx context.Context, workplaceID, feedID string) error {
	resolved, err := s.confirmedTransferFeeds(ctx, workplaceID)
	if err != nil {
		return err
	}
	if resolved[feedID] {
		return apperrors.NewConflictError(fmt.Sprintf("feed transaction %s is resolved by a confirmed transfer", feedID))
	}
	return nil
}

func (s *reconciliationService) matchFromDecision(d matching.Decision, workplaceID string, now time.Time) domain.TransactionMatch {
	m := domain.TransactionMatch{
		MatchID:           uuid.NewString(),
		WorkplaceID:       workplaceID,
		AccountID:         d.Feed.AccountID,
		FeedTransactionID: d.Feed.FeedTransactionID,
		FeedDate:          domain.DateOnly(d.Feed.Date),
		TransactionID:     d.TransactionID,
		Status:            d.Status,
		Confidence:        d.Confidence(),
		Reasons:           d.Reasons(),
		Lifecycle:         domain.LifecycleActive,
		Version:           1,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     domain.SystemActor,
			LastUpdatedAt: now,
			LastUpdatedBy: domain.SystemActor,
		},
	}
	if d.Status == domain.MatchStatusMatched {
		actor := domain.SystemActor
		m.MatchedAt = &now
		m.MatchedBy = &actor
	}
	return m
}

func tally(r *domain.SuggestionRunResult, status domain.MatchStatus, auto bool) {
	switch {
	case auto:
		r.AutoMatched++
	case status == domain.MatchStatusSuggested:
		r.Suggested++
	case status == domain.MatchStatusUnmatched:
		r.Unmatched++
	}
}

func newMatchedRow(feed domain.BankFeedTransaction, transactionID string, confidence float64, reasons []string, userID string, now time.Time) domain.TransactionMatch {
	return domain.TransactionMatch{
		MatchID:           uuid.NewString(),
		WorkplaceID:       feed.WorkplaceID,
		AccountID:         feed.AccountID,
		FeedTransactionID: feed.FeedTransactionID,
		FeedDate:          domain.DateOnly(feed.Date),
		TransactionID:     &transactionID,
		Status:            domain.MatchStatusMatched,
		Confidence:        confidence,
		Reasons:           reasons,
		MatchedAt:         &now,
		MatchedBy:         &userID,
		Lifecycle:         domain.LifecycleActive,
		Version:           1,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     userID,
			LastUpdatedAt: now,
			LastUpdatedBy: userID,
		},
	}
}

func matchEvent(eventType string, m *domain.TransactionMatch, actor string) domain.ReconciliationEvent {
	return domain.NewReconciliationEvent(eventType, m.WorkplaceID, "match", m.MatchID, actor, map[string]any{
		"feedTransactionID": m.FeedTransactionID,
		"transactionID":     m.TransactionID,
		"status":            m.Status,
		"confidence":        m.Confidence,
	})
}

func confirmOutcome(err error) string {
	switch {
	case errors.Is(err, apperrors.ErrConflict):
		return outcomeConflict
	case errors.Is(err, apperrors.ErrPeriodLocked):
		return outcomeLocked
	default:
		return outcomeError
	}
}

// isExpected reports whether err is a caller-facing rejection rather than a failure worth an error log.
func isExpected(err error) bool {
	return errors.Is(err, apperrors.ErrNotFound) ||
		errors.Is(err, apperrors.ErrConflict) ||
		errors.Is(err, apperrors.ErrPeriodLocked) ||
		errors.Is(err, apperrors.ErrValidation) ||
		errors.Is(err, apperrors.ErrForbidden)
}

func feedIDs(feeds []domain.BankFeedTransaction) []string {
	ids := make([]string, len(feeds))
	for i, f := range feeds {
		ids[i] = f.FeedTransactionID
	}
	return ids
}

func transactionIDs(txns []domain.Transaction) []string {
	ids := make([]string, len(txns))
	for i, t := range txns {
		ids[i] = t.TransactionID
	}
	return ids
}

func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
