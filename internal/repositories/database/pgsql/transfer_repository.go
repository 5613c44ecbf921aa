package pgsql

import (
	"context"
	"fmt"
	"time"

	"github.com/SscSPs/bank_reconciliation/internal/apperrors"
	"github.com/SscSPs/bank_reconciliation/internal/core/domain"
	portsrepo "github.com/SscSPs/bank_reconciliation/internal/core/ports/repositories"
	"github.com/SscSPs/bank_reconciliation/internal/models"
	"github.com/SscSPs/bank_reconciliation/internal/utils/mapping"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgxTransferRepository struct {
	BaseRepository
}

func newPgxTransferRepository(pool *pgxpool.Pool) *PgxTransferRepository {
	return &PgxTransferRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.TransferRepositoryFacade = (*PgxTransferRepository)(nil)

const transferColumns = `
	transfer_id, workplace_id, from_feed_id, to_feed_id, from_account_id, to_account_id,
	from_date, to_date, amount, currency_code, to_amount, to_currency_code, exchange_rate,
	date_distance_days, status, confirmed_at, confirmed_by, version,
	created_at, created_by, last_updated_at, last_updated_by`

func getTransfers(ctx context.Context, q querier, query string, args ...any) ([]domain.DetectedTransfer, error) {
	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, transferWriteError(err)
	}
	transfers, err := pgx.CollectRows(rows, pgx.RowToStructByName[models.DetectedTransfer])
	if err != nil {
		return nil, transferWriteError(err)
	}
	return mapping.ToDomainTransfers(transfers), nil
}

func transferWriteError(err error) error {
	switch {
	case isPgError(err, pgUniqueViolation, ""):
		return apperrors.NewConflictError("feed transaction already belongs to an active transfer")
	case isPgError(err, pgForeignKeyViolation, ""):
		return apperrors.NewValidationFailedError("transfer references an unknown feed transaction")
	}
	return dbError("failed to query detected transfers", err)
}

func (r *PgxTransferRepository) FindTransferByID(ctx context.Context, workplaceID, transferID string) (*domain.DetectedTransfer, error) {
	transfers, err := getTransfers(ctx, r.db(ctx), `SELECT `+transferColumns+` FROM detected_transfers
		WHERE workplace_id = $1 AND transfer_id = $2`, workplaceID, transferID)
	if err != nil {
		return nil, err
	}
	if len(transfers) == 0 {
		return nil, apperrors.NewNotFoundError("transfer " + transferID)
	}
	return &transfers[0], nil
}

func (r *PgxTransferRepository) ListTransfers(ctx context.Context, workplaceID string, status *domain.TransferStatus) ([]domain.DetectedTransfer, error) {
	query := `SELECT ` + transferColumns + ` FROM detected_transfers WHERE workplace_id = $1`
	args := []any{workplaceID}
	if status != nil {
		query += " AND status = $2"
		args = append(args, string(*status))
	}
	return getTransfers(ctx, r.db(ctx), query+" ORDER BY from_date, transfer_id", args...)
}

func (r *PgxTransferRepository) ListActiveTransferFeedIDs(ctx context.Context, workplaceID string) (map[string]domain.TransferStatus, error) {
	rows, err := r.db(ctx).Query(ctx, `
		SELECT from_feed_id, status FROM detected_transfers WHERE workplace_id = $1 AND status <> 'rejected'
		UNION ALL
		SELECT to_feed_id, status FROM detected_transfers WHERE workplace_id = $1 AND status <> 'rejected'`,
		workplaceID)
	if err != nil {
		return nil, dbError("failed to query transfer feeds", err)
	}
	defer rows.Close()

	out := map[string]domain.TransferStatus{}
	for rows.Next() {
		var feedID, status string
		if err := rows.Scan(&feedID, &status); err != nil {
			return nil, dbError("failed to scan transfer feed row", err)
		}
		out[feedID] = domain.TransferStatus(status)
	}
	if err := rows.Err(); err != nil {
		return nil, dbError("error iterating transfer feed rows", err)
	}
	return out, nil
}

func (r *PgxTransferRepository) SaveSuggestedTransfer(ctx context.Context, transfer domain.DetectedTransfer) (*domain.DetectedTransfer, error) {
	var saved *domain.DetectedTransfer
	err := r.withTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		if err := ensureTransferOpen(ctx, tx, transfer); err != nil {
			return err
		}
		transfer.Status = domain.TransferStatusSuggested
		m := mapping.ToModelTransfer(transfer)
		transfers, err := getTransfers(ctx, tx, `
			INSERT INTO detected_transfers (
				transfer_id, workplace_id, from_feed_id, to_feed_id, from_account_id, to_account_id,
				from_date, to_date, amount, currency_code, to_amount, to_currency_code, exchange_rate,
				date_distance_days, status, confirmed_at, confirmed_by, version,
				created_at, created_by, last_updated_at, last_updated_by
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22)
			RETURNING `+transferColumns,
			m.TransferID, m.WorkplaceID, m.FromFeedID, m.ToFeedID, m.FromAccountID, m.ToAccountID,
			m.FromDate, m.ToDate, m.Amount, m.CurrencyCode, m.ToAmount, m.ToCurrencyCode, m.ExchangeRate,
			m.DateDistanceDays, m.Status, m.ConfirmedAt, m.ConfirmedBy, m.Version,
			m.CreatedAt, m.CreatedBy, m.LastUpdatedAt, m.LastUpdatedBy,
		)
		if err != nil {
			return err
		}
		saved = &transfers[0]
		return nil
	})
	if err != nil {
		return nil, err
	}
	return saved, nil
}

// ConfirmTransfer runs post with the confirming transaction in ctx, so ledger postings
// commit or roll back together with the status change.
func (r *PgxTransferRepository) ConfirmTransfer(ctx context.Context, workplaceID, transferID, actor string, at time.Time, post portsrepo.PostTransferFunc) (*domain.DetectedTransfer, bool, error) {
	var (
		confirmed *domain.DetectedTransfer
		changed   bool
	)
	err := r.withTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		t, err := transferForUpdate(ctx, tx, workplaceID, transferID)
		if err != nil {
			return err
		}
		switch t.Status {
		case domain.TransferStatusConfirmed:
			confirmed = t
			return nil
		case domain.TransferStatusRejected:
			return apperrors.NewConflictError(fmt.Sprintf("transfer %s was rejected", transferID))
		}
		if err := lockTransferFeeds(ctx, tx, *t); err != nil {
			return err
		}
		if err := ensureTransferOpen(ctx, tx, *t); err != nil {
			return err
		}
		if err := retireOpenMatches(ctx, tx, *t, actor, at); err != nil {
			return err
		}

		updated, err := getTransfers(ctx, tx, `
			UPDATE detected_transfers
			SET status = 'confirmed', confirmed_at = $3, confirmed_by = $4, version = version + 1,
				last_updated_at = $3, last_updated_by = $4
			WHERE workplace_id = $1 AND transfer_id = $2
			RETURNING `+transferColumns, workplaceID, transferID, at, actor)
		if err != nil {
			return err
		}
		if post != nil {
			if err := post(ctx, updated[0]); err != nil {
				return err
			}
		}
		confirmed, changed = &updated[0], true
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return confirmed, changed, nil
}

func (r *PgxTransferRepository) RejectTransfer(ctx context.Context, workplaceID, transferID, actor string, at time.Time) (*domain.DetectedTransfer, bool, error) {
	var (
		rejected *domain.DetectedTransfer
		changed  bool
	)
	err := r.withTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		t, err := transferForUpdate(ctx, tx, workplaceID, transferID)
		if err != nil {
			return err
		}
		switch t.Status {
		case domain.TransferStatusRejected:
			rejected = t
			return nil
		case domain.TransferStatusConfirmed:
			return apperrors.NewConflictError(fmt.Sprintf("transfer %s is already confirmed", transferID))
		}
		if err := ensureTransferOpen(ctx, tx, *t); err != nil {
			return err
		}

		updated, err := getTransfers(ctx, tx, `
			UPDATE detected_transfers
			SET status = 'rejected', version = version + 1, last_updated_at = $3, last_updated_by = $4
			WHERE workplace_id = $1 AND transfer_id = $2
			RETURNING `+transferColumns, workplaceID, transferID, at, actor)
		if err != nil {
			return err
		}
		rejected, changed = &updated[0], true
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return rejected, changed, nil
}

func transferForUpdate(ctx context.Context, q querier, workplaceID, transferID string) (*domain.DetectedTransfer, error) {
	transfers, err := getTransfers(ctx, q, `SELECT `+transferColumns+` FROM detected_transfers
		WHERE workplace_id = $1 AND transfer_id = $2 FOR UPDATE`, workplaceID, transferID)
	if err != nil {
		return nil, err
	}
	if len(transfers) == 0 {
		return nil, apperrors.NewNotFoundError("transfer " + transferID)
	}
	return &transfers[0], nil
}

// lockTransferFeeds locks both feed rows in id order, the same lock match writes take.
func lockTransferFeeds(ctx context.Context, q querier, t domain.DetectedTransfer) error {
	rows, err := q.Query(ctx, `SELECT feed_transaction_id FROM feed_transactions
		WHERE workplace_id = $1 AND feed_transaction_id = ANY($2)
		ORDER BY feed_transaction_id FOR UPDATE`, t.WorkplaceID, []string{t.FromFeedID, t.ToFeedID})
	if err != nil {
		return dbError("failed to lock transfer feed transactions", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return dbError("failed to collect transfer feed transactions", err)
	}
	if len(ids) != 2 {
		return apperrors.NewNotFoundError(fmt.Sprintf("feed transactions of transfer %s", t.TransferID))
	}
	return nil
}

// retireOpenMatches soft-deletes the unmatched and suggested rows of both legs so the
// ordinary match path can no longer confirm them. A matched leg is a conflict.
func retireOpenMatches(ctx context.Context, q querier, t domain.DetectedTransfer, actor string, at time.Time) error {
	matches, err := getMatches(ctx, q, `SELECT `+matchColumns+` FROM transaction_matches
		WHERE workplace_id = $1 AND lifecycle = 'active' AND feed_transaction_id = ANY($2)
		ORDER BY match_id FOR UPDATE`, t.WorkplaceID, []string{t.FromFeedID, t.ToFeedID})
	if err != nil {
		return err
	}
	for _, m := range matches {
		if m.IsMatched() {
			return apperrors.NewConflictError(fmt.Sprintf("feed transaction %s is already matched", m.FeedTransactionID))
		}
	}
	for _, m := range matches {
		if _, err := retireMatch(ctx, q, m.WorkplaceID, m.MatchID, actor, at); err != nil {
			return err
		}
	}
	return nil
}

// ensureTransferOpen checks both legs. Periods are locked in a stable order so two
// transfers between the same accounts cannot deadlock.
func ensureTransferOpen(ctx context.Context, q querier, t domain.DetectedTransfer) error {
	sides := []struct {
		account string
		date    time.Time
	}{{t.FromAccountID, t.FromDate}, {t.ToAccountID, t.ToDate}}
	if sides[1].account < sides[0].account {
		sides[0], sides[1] = sides[1], sides[0]
	}
	for _, s := range sides {
		if err := ensurePeriodOpen(ctx, q, t.WorkplaceID, s.account, s.date); err != nil {
			return err
		}
	}
	return nil
}
