package pgsql

import (
	"context"

	"github.com/SscSPs/bank_reconciliation/internal/apperrors"
	"github.com/SscSPs/bank_reconciliation/internal/core/domain"
	portsrepo "github.com/SscSPs/bank_reconciliation/internal/core/ports/repositories"
	"github.com/SscSPs/bank_reconciliation/internal/models"
	"github.com/SscSPs/bank_reconciliation/internal/utils/mapping"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgxFeedTransactionRepository struct {
	BaseRepository
}

func newPgxFeedTransactionRepository(pool *pgxpool.Pool) *PgxFeedTransactionRepository {
	return &PgxFeedTransactionRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.FeedTransactionRepositoryFacade = (*PgxFeedTransactionRepository)(nil)

const feedSelectQuery = `
SELECT
	feed_transaction_id, workplace_id, account_id, transaction_date, description,
	amount, currency_code, created_at, created_by
FROM feed_transactions
`

func (r *PgxFeedTransactionRepository) getFeeds(ctx context.Context, filterQuery string, args ...any) ([]domain.BankFeedTransaction, error) {
	rows, err := r.db(ctx).Query(ctx, feedSelectQuery+filterQuery, args...)
	if err != nil {
		return nil, dbError("failed to query feed transactions", err)
	}
	feeds, err := pgx.CollectRows(rows, pgx.RowToStructByName[models.FeedTransaction])
	if err != nil {
		return nil, dbError("failed to collect feed transaction rows", err)
	}
	return mapping.ToDomainFeedTransactions(feeds), nil
}

func (r *PgxFeedTransactionRepository) FindFeedTransactionByID(ctx context.Context, workplaceID, feedTransactionID string) (*domain.BankFeedTransaction, error) {
	feeds, err := r.getFeeds(ctx, `WHERE workplace_id = $1 AND feed_transaction_id = $2`, workplaceID, feedTransactionID)
	if err != nil {
		return nil, err
	}
	if len(feeds) == 0 {
		return nil, apperrors.NewNotFoundError("feed transaction " + feedTransactionID)
	}
	return &feeds[0], nil
}

func (r *PgxFeedTransactionRepository) FindFeedTransactionsByIDs(ctx context.Context, workplaceID string, feedTransactionIDs []string) ([]domain.BankFeedTransaction, error) {
	if len(feedTransactionIDs) == 0 {
		return []domain.BankFeedTransaction{}, nil
	}
	return r.getFeeds(ctx, `WHERE workplace_id = $1 AND feed_transaction_id = ANY($2)
		ORDER BY transaction_date, feed_transaction_id`, workplaceID, feedTransactionIDs)
}

func (r *PgxFeedTransactionRepository) ListFeedTransactions(ctx context.Context, workplaceID, accountID string, dr domain.DateRange) ([]domain.BankFeedTransaction, error) {
	return r.getFeeds(ctx, `WHERE workplace_id = $1 AND account_id = $2 AND transaction_date BETWEEN $3 AND $4
		ORDER BY transaction_date, feed_transaction_id`, workplaceID, accountID, dr.From, dr.To)
}

func (r *PgxFeedTransactionRepository) ListFeedTransactionsByWorkplace(ctx context.Context, workplaceID string, dr domain.DateRange) ([]domain.BankFeedTransaction, error) {
	return r.getFeeds(ctx, `WHERE workplace_id = $1 AND transaction_date BETWEEN $2 AND $3
		ORDER BY transaction_date, feed_transaction_id`, workplaceID, dr.From, dr.To)
}

// SaveFeedTransactions inserts the batch in one transaction; a duplicate id aborts all of it.
func (r *PgxFeedTransactionRepository) SaveFeedTransactions(ctx context.Context, feeds []domain.BankFeedTransaction) error {
	if len(feeds) == 0 {
		return nil
	}
	return r.withTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for _, f := range feeds {
			m := mapping.ToModelFeedTransaction(f)
			batch.Queue(`
				INSERT INTO feed_transactions (
					feed_transaction_id, workplace_id, account_id, transaction_date, description,
					amount, currency_code, created_at, created_by
				) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
				m.FeedTransactionID, m.WorkplaceID, m.AccountID, m.TransactionDate, m.Description,
				m.Amount, m.CurrencyCode, m.CreatedAt, m.CreatedBy,
			)
		}
		results := tx.SendBatch(ctx, batch)
		for _, f := range feeds {
			if _, err := results.Exec(); err != nil {
				_ = results.Close()
				if isPgError(err, pgUniqueViolation, "") {
					return apperrors.NewDuplicateError("feed transaction " + f.FeedTransactionID)
				}
				if isPgError(err, pgForeignKeyViolation, "") {
					return apperrors.NewValidationFailedError("workplace " + f.WorkplaceID + " does not exist")
				}
				return dbError("failed to insert feed transaction "+f.FeedTransactionID, err)
			}
		}
		if err := results.Close(); err != nil {
			return dbError("failed to close feed insert batch", err)
		}
		return nil
	})
}
