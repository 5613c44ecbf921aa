package pgsql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/SscSPs/bank_reconciliation/internal/apperrors"
	"github.com/SscSPs/bank_reconciliation/internal/core/domain"
	portsrepo "github.com/SscSPs/bank_reconciliation/internal/core/ports/repositories"
	"github.com/SscSPs/bank_reconciliation/internal/models"
	"github.com/SscSPs/bank_reconciliation/internal/utils/mapping"
	"github.com/SscSPs/bank_reconciliation/internal/utils/pagination"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgxMatchRepository struct {
	BaseRepository
}

func newPgxMatchRepository(pool *pgxpool.Pool) *PgxMatchRepository {
	return &PgxMatchRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.MatchRepositoryFacade = (*PgxMatchRepository)(nil)

// Partial unique indexes from the schema.
const (
	constraintActiveFeed         = "uq_transaction_matches_active_feed"
	constraintClaimedTransaction = "uq_transaction_matches_claimed_transaction"
)

const matchColumns = `
	match_id, workplace_id, account_id, feed_transaction_id, feed_date, transaction_id,
	status, confidence, reasons, matched_at, matched_by, lifecycle, version,
	created_at, created_by, last_updated_at, last_updated_by`

func getMatches(ctx context.Context, q querier, query string, args ...any) ([]domain.TransactionMatch, error) {
	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, matchWriteError(err)
	}
	matches, err := pgx.CollectRows(rows, pgx.RowToStructByName[models.TransactionMatch])
	if err != nil {
		return nil, matchWriteError(err)
	}
	return mapping.ToDomainMatches(matches), nil
}

// matchWriteError maps the one-to-one indexes to conflicts.
func matchWriteError(err error) error {
	switch {
	case isPgError(err, pgUniqueViolation, constraintActiveFeed):
		return apperrors.NewConflictError("feed transaction already has an active match")
	case isPgError(err, pgUniqueViolation, constraintClaimedTransaction):
		return apperrors.NewConflictError("transaction is already matched")
	case isPgError(err, pgForeignKeyViolation, ""):
		return apperrors.NewValidationFailedError("match references an unknown feed or ledger transaction")
	}
	return dbError("failed to query transaction matches", err)
}

func (r *PgxMatchRepository) FindMatchByID(ctx context.Context, workplaceID, matchID string) (*domain.TransactionMatch, error) {
	matches, err := getMatches(ctx, r.db(ctx), `SELECT `+matchColumns+` FROM transaction_matches
		WHERE workplace_id = $1 AND match_id = $2`, workplaceID, matchID)
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, apperrors.NewNotFoundError("match " + matchID)
	}
	return &matches[0], nil
}

func (r *PgxMatchRepository) FindActiveMatchByFeedID(ctx context.Context, workplaceID, feedTransactionID string) (*domain.TransactionMatch, error) {
	m, err := activeMatchByFeed(ctx, r.db(ctx), workplaceID, feedTransactionID, false)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, apperrors.NewNotFoundError("active match for feed transaction " + feedTransactionID)
	}
	return m, nil
}

func (r *PgxMatchRepository) ListActiveMatchesByFeedIDs(ctx context.Context, workplaceID string, feedTransactionIDs []string) (map[string]domain.TransactionMatch, error) {
	out := map[string]domain.TransactionMatch{}
	if len(feedTransactionIDs) == 0 {
		return out, nil
	}
	matches, err := getMatches(ctx, r.db(ctx), `SELECT `+matchColumns+` FROM transaction_matches
		WHERE workplace_id = $1 AND lifecycle = 'active' AND feed_transaction_id = ANY($2)`,
		workplaceID, feedTransactionIDs)
	if err != nil {
		return nil, err
	}
	for _, m := range matches {
		out[m.FeedTransactionID] = m
	}
	return out, nil
}

func (r *PgxMatchRepository) ListMatchedTransactionIDs(ctx context.Context, workplaceID string, transactionIDs []string) (map[string]bool, error) {
	out := map[string]bool{}
	if len(transactionIDs) == 0 {
		return out, nil
	}
	rows, err := r.db(ctx).Query(ctx, `SELECT transaction_id FROM transaction_matches
		WHERE workplace_id = $1 AND lifecycle = 'active' AND status = 'matched' AND transaction_id = ANY($2)`,
		workplaceID, transactionIDs)
	if err != nil {
		return nil, dbError("failed to query matched transactions", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, dbError("failed to collect matched transactions", err)
	}
	for _, id := range ids {
		out[id] = true
	}
	return out, nil
}

// ListMatches uses keyset pagination on (feed_date, match_id), both descending.
func (r *PgxMatchRepository) ListMatches(ctx context.Context, workplaceID string, filter domain.MatchFilter, limit int, nextToken *string) ([]domain.TransactionMatch, *string, error) {
	query := `SELECT ` + matchColumns + ` FROM transaction_matches WHERE workplace_id = $1 AND lifecycle = 'active'`
	args := []any{workplaceID}
	argNum := 2

	if filter.AccountID != nil {
		query += fmt.Sprintf(" AND account_id = $%d", argNum)
		args = append(args, *filter.AccountID)
		argNum++
	}
	if filter.Period != nil {
		query += fmt.Sprintf(" AND feed_date BETWEEN $%d AND $%d", argNum, argNum+1)
		args = append(args, filter.Period.StartDate(), filter.Period.EndDate())
		argNum += 2
	}
	if filter.Status != nil {
		query += fmt.Sprintf(" AND status = $%d", argNum)
		args = append(args, string(*filter.Status))
		argNum++
	}
	if nextToken != nil && *nextToken != "" {
		feedDate, matchID, err := pagination.DecodeMatchToken(*nextToken)
		if err != nil {
			return nil, nil, apperrors.NewValidationError(err.Error())
		}
		query += fmt.Sprintf(" AND (feed_date, match_id) < ($%d, $%d)", argNum, argNum+1)
		args = append(args, feedDate, matchID)
		argNum += 2
	}
	query += " ORDER BY feed_date DESC, match_id DESC"
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argNum)
		args = append(args, limit+1)
	}

	matches, err := getMatches(ctx, r.db(ctx), query, args...)
	if err != nil {
		return nil, nil, err
	}
	var next *string
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
		last := matches[limit-1]
		token := pagination.EncodeMatchToken(last.FeedDate, last.MatchID)
		next = &token
	}
	return matches, next, nil
}

func (r *PgxMatchRepository) SaveMatchDecision(ctx context.Context, match domain.TransactionMatch) (*domain.TransactionMatch, error) {
	var saved *domain.TransactionMatch
	err := r.withTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		if err := lockFeed(ctx, tx, match.WorkplaceID, match.FeedTransactionID); err != nil {
			return err
		}
		if err := ensurePeriodOpen(ctx, tx, match.WorkplaceID, match.AccountID, match.FeedDate); err != nil {
			return err
		}
		existing, err := activeMatchByFeed(ctx, tx, match.WorkplaceID, match.FeedTransactionID, true)
		if err != nil {
			return err
		}
		if existing != nil && existing.IsMatched() {
			return apperrors.NewConflictError(fmt.Sprintf("feed transaction %s is already matched", match.FeedTransactionID))
		}
		if match.Status == domain.MatchStatusMatched && match.TransactionID != nil {
			if err := ensureUnclaimed(ctx, tx, match.WorkplaceID, *match.TransactionID, ""); err != nil {
				return err
			}
		}

		match.Lifecycle = domain.LifecycleActive
		if existing != nil {
			match.MatchID = existing.MatchID
			saved, err = updateMatch(ctx, tx, match)
		} else {
			saved, err = insertMatch(ctx, tx, match)
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return saved, nil
}

func (r *PgxMatchRepository) ConfirmMatch(ctx context.Context, workplaceID, matchID, actor string, at time.Time) (*domain.TransactionMatch, bool, error) {
	var (
		confirmed *domain.TransactionMatch
		changed   bool
	)
	err := r.withTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		current, err := getMatches(ctx, tx, `SELECT `+matchColumns+` FROM transaction_matches
			WHERE workplace_id = $1 AND match_id = $2 AND lifecycle = 'active'`, workplaceID, matchID)
		if err != nil {
			return err
		}
		if len(current) == 0 {
			return apperrors.NewNotFoundError("match " + matchID)
		}
		// The feed row is locked before the match row, the order transfer confirmation uses.
		if err := lockFeed(ctx, tx, workplaceID, current[0].FeedTransactionID); err != nil {
			return err
		}
		matches, err := getMatches(ctx, tx, `SELECT `+matchColumns+` FROM transaction_matches
			WHERE workplace_id = $1 AND match_id = $2 AND lifecycle = 'active' FOR UPDATE`, workplaceID, matchID)
		if err != nil {
			return err
		}
		if len(matches) == 0 {
			return apperrors.NewNotFoundError("match " + matchID)
		}
		m := matches[0]
		if m.IsMatched() {
			confirmed = &m
			return nil
		}
		if m.TransactionID == nil {
			return apperrors.NewValidationError(fmt.Sprintf("match %s has no candidate transaction to confirm", matchID))
		}
		if err := ensurePeriodOpen(ctx, tx, m.WorkplaceID, m.AccountID, m.FeedDate); err != nil {
			return err
		}
		if err := ensureUnclaimed(ctx, tx, workplaceID, *m.TransactionID, matchID); err != nil {
			return err
		}

		updated, err := getMatches(ctx, tx, `
			UPDATE transaction_matches
			SET status = 'matched', matched_at = $3, matched_by = $4, version = version + 1,
				last_updated_at = $3, last_updated_by = $4
			WHERE workplace_id = $1 AND match_id = $2
			RETURNING `+matchColumns, workplaceID, matchID, at, actor)
		if err != nil {
			return err
		}
		confirmed, changed = &updated[0], true
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return confirmed, changed, nil
}

func (r *PgxMatchRepository) CreateConfirmedMatch(ctx context.Context, match domain.TransactionMatch) (*domain.TransactionMatch, bool, error) {
	if match.TransactionID == nil {
		return nil, false, apperrors.NewValidationError("a confirmed match needs a transaction")
	}
	txID := *match.TransactionID

	var (
		created *domain.TransactionMatch
		isNew   bool
	)
	err := r.withTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		if err := lockFeed(ctx, tx, match.WorkplaceID, match.FeedTransactionID); err != nil {
			return err
		}
		existing, err := activeMatchByFeed(ctx, tx, match.WorkplaceID, match.FeedTransactionID, true)
		if err != nil {
			return err
		}
		if existing != nil && existing.IsMatched() {
			if existing.TargetsTransaction(txID) {
				created = existing
				return nil
			}
			return apperrors.NewConflictError(fmt.Sprintf("feed transaction %s is already matched", match.FeedTransactionID))
		}
		if err := ensurePeriodOpen(ctx, tx, match.WorkplaceID, match.AccountID, match.FeedDate); err != nil {
			return err
		}
		if err := ensureUnclaimed(ctx, tx, match.WorkplaceID, txID, ""); err != nil {
			return err
		}

		if existing != nil {
			if _, err := retireMatch(ctx, tx, existing.WorkplaceID, existing.MatchID, match.CreatedBy, match.CreatedAt); err != nil {
				return err
			}
		}
		match.Lifecycle = domain.LifecycleActive
		created, err = insertMatch(ctx, tx, match)
		isNew = err == nil
		return err
	})
	if err != nil {
		return nil, false, err
	}
	return created, isNew, nil
}

func (r *PgxMatchRepository) CreatePostedMatch(ctx context.Context, match domain.TransactionMatch, post portsrepo.PostFeedFunc) (*domain.TransactionMatch, *domain.Transaction, error) {
	var (
		created *domain.TransactionMatch
		posted  *domain.Transaction
	)
	err := r.withTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		if err := lockFeed(ctx, tx, match.WorkplaceID, match.FeedTransactionID); err != nil {
			return err
		}
		existing, err := activeMatchByFeed(ctx, tx, match.WorkplaceID, match.FeedTransactionID, true)
		if err != nil {
			return err
		}
		if existing != nil && existing.IsMatched() {
			return apperrors.NewConflictError(fmt.Sprintf("feed transaction %s is already matched", match.FeedTransactionID))
		}
		if err := ensurePeriodOpen(ctx, tx, match.WorkplaceID, match.AccountID, match.FeedDate); err != nil {
			return err
		}

		// post joins this transaction through ctx.
		posted, err = post(ctx)
		if err != nil {
			return err
		}
		txID := posted.TransactionID
		match.TransactionID = &txID

		if existing != nil {
			if _, err := retireMatch(ctx, tx, existing.WorkplaceID, existing.MatchID, match.CreatedBy, match.CreatedAt); err != nil {
				return err
			}
		}
		match.Lifecycle = domain.LifecycleActive
		created, err = insertMatch(ctx, tx, match)
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	return created, posted, nil
}

func (r *PgxMatchRepository) SoftDeleteMatch(ctx context.Context, workplaceID, matchID, actor string, at time.Time) (*domain.TransactionMatch, error) {
	var deleted *domain.TransactionMatch
	err := r.withTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		matches, err := getMatches(ctx, tx, `SELECT `+matchColumns+` FROM transaction_matches
			WHERE workplace_id = $1 AND match_id = $2 AND lifecycle = 'active' FOR UPDATE`, workplaceID, matchID)
		if err != nil {
			return err
		}
		if len(matches) == 0 {
			return apperrors.NewNotFoundError("match " + matchID)
		}
		m := matches[0]
		if err := ensurePeriodOpen(ctx, tx, m.WorkplaceID, m.AccountID, m.FeedDate); err != nil {
			return err
		}
		deleted, err = retireMatch(ctx, tx, workplaceID, matchID, actor, at)
		return err
	})
	if err != nil {
		return nil, err
	}
	return deleted, nil
}

// activeMatchByFeed returns nil when the feed has no active row.
func activeMatchByFeed(ctx context.Context, q querier, workplaceID, feedID string, forUpdate bool) (*domain.TransactionMatch, error) {
	query := `SELECT ` + matchColumns + ` FROM transaction_matches
		WHERE workplace_id = $1 AND feed_transaction_id = $2 AND lifecycle = 'active'`
	if forUpdate {
		query += " FOR UPDATE"
	}
	matches, err := getMatches(ctx, q, query, workplaceID, feedID)
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, nil
	}
	return &matches[0], nil
}

// lockFeed takes the feed row lock that serializes match writes with transfer
// confirmation, then fails when a confirmed transfer already resolves the feed.
func lockFeed(ctx context.Context, q querier, workplaceID, feedID string) error {
	var id string
	err := q.QueryRow(ctx, `SELECT feed_transaction_id FROM feed_transactions
		WHERE workplace_id = $1 AND feed_transaction_id = $2 FOR UPDATE`, workplaceID, feedID).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return apperrors.NewNotFoundError("feed transaction " + feedID)
	}
	if err != nil {
		return dbError("failed to lock feed transaction", err)
	}

	var transferID string
	err = q.QueryRow(ctx, `SELECT transfer_id FROM detected_transfers
		WHERE workplace_id = $1 AND status = 'confirmed' AND (from_feed_id = $2 OR to_feed_id = $2)
		LIMIT 1`, workplaceID, feedID).Scan(&transferID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil
	}
	if err != nil {
		return dbError("failed to check transfer resolution", err)
	}
	return apperrors.NewConflictError(fmt.Sprintf("feed transaction %s is resolved by confirmed transfer %s", feedID, transferID))
}

// ensureUnclaimed fails when an active matched row other than exceptMatchID targets transactionID.
func ensureUnclaimed(ctx context.Context, q querier, workplaceID, transactionID, exceptMatchID string) error {
	var claimed bool
	err := q.QueryRow(ctx, `SELECT EXISTS (
		SELECT 1 FROM transaction_matches
		WHERE workplace_id = $1 AND transaction_id = $2 AND lifecycle = 'active' AND status = 'matched'
			AND match_id <> $3)`, workplaceID, transactionID, exceptMatchID).Scan(&claimed)
	if err != nil {
		return dbError("failed to check transaction claim", err)
	}
	if claimed {
		return apperrors.NewConflictError(fmt.Sprintf("transaction %s is already matched", transactionID))
	}
	return nil
}

func insertMatch(ctx context.Context, q querier, match domain.TransactionMatch) (*domain.TransactionMatch, error) {
	m := mapping.ToModelMatch(match)
	matches, err := getMatches(ctx, q, `
		INSERT INTO transaction_matches (
			match_id, workplace_id, account_id, feed_transaction_id, feed_date, transaction_id,
			status, confidence, reasons, matched_at, matched_by, lifecycle, version,
			created_at, created_by, last_updated_at, last_updated_by
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		RETURNING `+matchColumns,
		m.MatchID, m.WorkplaceID, m.AccountID, m.FeedTransactionID, m.FeedDate, m.TransactionID,
		m.Status, m.Confidence, m.Reasons, m.MatchedAt, m.MatchedBy, m.Lifecycle, m.Version,
		m.CreatedAt, m.CreatedBy, m.LastUpdatedAt, m.LastUpdatedBy,
	)
	if err != nil {
		return nil, err
	}
	return &matches[0], nil
}

// updateMatch replaces the decision of an existing row, keeping its id and creation audit.
func updateMatch(ctx context.Context, q querier, match domain.TransactionMatch) (*domain.TransactionMatch, error) {
	m := mapping.ToModelMatch(match)
	matches, err := getMatches(ctx, q, `
		UPDATE transaction_matches
		SET transaction_id = $3, status = $4, confidence = $5, reasons = $6, matched_at = $7,
			matched_by = $8, version = version + 1, last_updated_at = $9, last_updated_by = $10
		WHERE workplace_id = $1 AND match_id = $2
		RETURNING `+matchColumns,
		m.WorkplaceID, m.MatchID, m.TransactionID, m.Status, m.Confidence, m.Reasons, m.MatchedAt,
		m.MatchedBy, m.LastUpdatedAt, m.LastUpdatedBy,
	)
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, apperrors.NewNotFoundError("match " + match.MatchID)
	}
	return &matches[0], nil
}

func retireMatch(ctx context.Context, q querier, workplaceID, matchID, actor string, at time.Time) (*domain.TransactionMatch, error) {
	matches, err := getMatches(ctx, q, `
		UPDATE transaction_matches
		SET lifecycle = 'deleted', version = version + 1, last_updated_at = $3, last_updated_by = $4
		WHERE workplace_id = $1 AND match_id = $2
		RETURNING `+matchColumns, workplaceID, matchID, at, actor)
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, apperrors.NewNotFoundError("match " + matchID)
	}
	return &matches[0], nil
}
