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
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgxPeriodLockRepository struct {
	BaseRepository
}

func newPgxPeriodLockRepository(pool *pgxpool.Pool) *PgxPeriodLockRepository {
	return &PgxPeriodLockRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.PeriodLockRepository = (*PgxPeriodLockRepository)(nil)

const periodLockColumns = `workplace_id, account_id, period, status, locked_at, locked_by, unlocked_at, unlocked_by`

// The resolution order mirrors domain.Resolve.
const periodCountsQuery = `
SELECT
	CASE
		WHEN m.status = 'matched' THEN 'matched'
		WHEN t.feed_id IS NOT NULL THEN 'transfer'
		WHEN m.status = 'suggested' THEN 'suggested'
		ELSE 'unmatched'
	END AS resolution,
	COUNT(*)
FROM feed_transactions f
LEFT JOIN transaction_matches m
	ON m.feed_transaction_id = f.feed_transaction_id AND m.lifecycle = 'active'
LEFT JOIN (
	SELECT from_feed_id AS feed_id FROM detected_transfers WHERE workplace_id = $1 AND status = 'confirmed'
	UNION
	SELECT to_feed_id FROM detected_transfers WHERE workplace_id = $1 AND status = 'confirmed'
) t ON t.feed_id = f.feed_transaction_id
WHERE f.workplace_id = $1 AND f.account_id = $2 AND f.transaction_date BETWEEN $3 AND $4
GROUP BY 1
`

func (r *PgxPeriodLockRepository) GetPeriodStatus(ctx context.Context, workplaceID, accountID string, period domain.Period) (*domain.PeriodStatus, error) {
	row, err := findPeriodLock(ctx, r.db(ctx), workplaceID, accountID, period)
	if err != nil {
		return nil, err
	}
	counts, err := periodCounts(ctx, r.db(ctx), workplaceID, accountID, period)
	if err != nil {
		return nil, err
	}
	return mapping.ToDomainPeriodStatus(workplaceID, accountID, period, row, counts), nil
}

func (r *PgxPeriodLockRepository) IsPeriodLocked(ctx context.Context, workplaceID, accountID string, period domain.Period) (bool, error) {
	row, err := findPeriodLock(ctx, r.db(ctx), workplaceID, accountID, period)
	if err != nil {
		return false, err
	}
	return row != nil && row.Status == string(domain.PeriodLocked), nil
}

// LockPeriod holds the lock row exclusively while counting, so match and transfer
// writers of the period, which hold it shared, either finish first or wait.
func (r *PgxPeriodLockRepository) LockPeriod(ctx context.Context, workplaceID, accountID string, period domain.Period, actor string, at time.Time) (*domain.PeriodStatus, bool, error) {
	var (
		status  *domain.PeriodStatus
		changed bool
	)
	err := r.withTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		row, err := acquirePeriodLock(ctx, tx, workplaceID, accountID, period, true)
		if err != nil {
			return err
		}
		counts, err := periodCounts(ctx, tx, workplaceID, accountID, period)
		if err != nil {
			return err
		}
		status = mapping.ToDomainPeriodStatus(workplaceID, accountID, period, row, counts)
		if status.IsLocked() {
			return nil
		}
		if !status.CanLock() {
			return apperrors.NewPeriodNotReconciledError(fmt.Sprintf(
				"account %s period %s has %d suggested and %d unmatched feed transactions",
				accountID, period, status.Suggested, status.Unmatched))
		}

		updated, err := updatePeriodLock(ctx, tx, `
			UPDATE period_locks SET status = 'locked', locked_at = $4, locked_by = $5
			WHERE workplace_id = $1 AND account_id = $2 AND period = $3
			RETURNING `+periodLockColumns,
			workplaceID, accountID, period.String(), at, actor)
		if err != nil {
			return err
		}
		status = mapping.ToDomainPeriodStatus(workplaceID, accountID, period, updated, counts)
		changed = true
		return nil
	})
	if err != nil {
		if errors.Is(err, apperrors.ErrPeriodNotReconciled) {
			return status, false, err
		}
		return nil, false, err
	}
	return status, changed, nil
}

func (r *PgxPeriodLockRepository) UnlockPeriod(ctx context.Context, workplaceID, accountID string, period domain.Period, actor string, at time.Time) (*domain.PeriodStatus, bool, error) {
	var (
		status  *domain.PeriodStatus
		changed bool
	)
	err := r.withTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		row, err := acquirePeriodLock(ctx, tx, workplaceID, accountID, period, true)
		if err != nil {
			return err
		}
		if row.Status == string(domain.PeriodLocked) {
			row, err = updatePeriodLock(ctx, tx, `
				UPDATE period_locks SET status = 'open', unlocked_at = $4, unlocked_by = $5
				WHERE workplace_id = $1 AND account_id = $2 AND period = $3
				RETURNING `+periodLockColumns,
				workplaceID, accountID, period.String(), at, actor)
			if err != nil {
				return err
			}
			changed = true
		}
		counts, err := periodCounts(ctx, tx, workplaceID, accountID, period)
		if err != nil {
			return err
		}
		status = mapping.ToDomainPeriodStatus(workplaceID, accountID, period, row, counts)
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return status, changed, nil
}

// findPeriodLock returns nil when the period has never been locked.
func findPeriodLock(ctx context.Context, q querier, workplaceID, accountID string, period domain.Period) (*models.PeriodLock, error) {
	rows, err := q.Query(ctx, `SELECT `+periodLockColumns+` FROM period_locks
		WHERE workplace_id = $1 AND account_id = $2 AND period = $3`,
		workplaceID, accountID, period.String())
	if err != nil {
		return nil, dbError("failed to query period lock", err)
	}
	row, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[models.PeriodLock])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, dbError("failed to collect period lock row", err)
	}
	return &row, nil
}

// acquirePeriodLock makes sure the period's lock row exists and row-locks it: shared for
// writers that only need the period to stay open, exclusive for lock transitions.
func acquirePeriodLock(ctx context.Context, q querier, workplaceID, accountID string, period domain.Period, exclusive bool) (*models.PeriodLock, error) {
	if _, err := q.Exec(ctx, `
		INSERT INTO period_locks (workplace_id, account_id, period, status)
		VALUES ($1, $2, $3, 'open')
		ON CONFLICT (workplace_id, account_id, period) DO NOTHING`,
		workplaceID, accountID, period.String()); err != nil {
		return nil, dbError("failed to initialise period lock", err)
	}

	mode := " FOR SHARE"
	if exclusive {
		mode = " FOR UPDATE"
	}
	rows, err := q.Query(ctx, `SELECT `+periodLockColumns+` FROM period_locks
		WHERE workplace_id = $1 AND account_id = $2 AND period = $3`+mode,
		workplaceID, accountID, period.String())
	if err != nil {
		return nil, dbError("failed to lock period row", err)
	}
	row, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[models.PeriodLock])
	if err != nil {
		return nil, dbError("failed to collect period lock row", err)
	}
	return &row, nil
}

func updatePeriodLock(ctx context.Context, q querier, query string, args ...any) (*models.PeriodLock, error) {
	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, dbError("failed to update period lock", err)
	}
	row, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[models.PeriodLock])
	if err != nil {
		return nil, dbError("failed to collect period lock row", err)
	}
	return &row, nil
}

// ensurePeriodOpen fails with ErrPeriodLocked when the period containing date is locked.
// The shared row lock it takes lasts until the surrounding transaction ends.
func ensurePeriodOpen(ctx context.Context, q querier, workplaceID, accountID string, date time.Time) error {
	period := domain.PeriodOf(date)
	row, err := acquirePeriodLock(ctx, q, workplaceID, accountID, period, false)
	if err != nil {
		return err
	}
	if row.Status == string(domain.PeriodLocked) {
		return apperrors.NewPeriodLockedError(fmt.Sprintf("account %s period %s is locked", accountID, period))
	}
	return nil
}

func periodCounts(ctx context.Context, q querier, workplaceID, accountID string, period domain.Period) (domain.PeriodCounts, error) {
	var counts domain.PeriodCounts
	rows, err := q.Query(ctx, periodCountsQuery, workplaceID, accountID, period.StartDate(), period.EndDate())
	if err != nil {
		return counts, dbError("failed to count period feed transactions", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			resolution string
			n          int
		)
		if err := rows.Scan(&resolution, &n); err != nil {
			return counts, dbError("failed to scan period counts", err)
		}
		switch domain.FeedResolution(resolution) {
		case domain.ResolutionMatched:
			counts.Matched = n
		case domain.ResolutionTransfer:
			counts.ResolvedTransfers = n
		case domain.ResolutionSuggested:
			counts.Suggested = n
		default:
			counts.Unmatched += n
		}
	}
	if err := rows.Err(); err != nil {
		return counts, dbError("error iterating period counts", err)
	}
	return counts, nil
}
