package pgsql

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/SscSPs/bank_reconciliation/internal/apperrors"
	"github.com/SscSPs/bank_reconciliation/internal/core/domain"
	portsrepo "github.com/SscSPs/bank_reconciliation/internal/core/ports/repositories"
	"github.com/SscSPs/bank_reconciliation/internal/models"
	"github.com/SscSPs/bank_reconciliation/internal/utils/mapping"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgxLedgerRepository reads and posts register entries in ledger_transactions.
type PgxLedgerRepository struct {
	BaseRepository
}

func newPgxLedgerRepository(pool *pgxpool.Pool) *PgxLedgerRepository {
	return &PgxLedgerRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.LedgerRepositoryFacade = (*PgxLedgerRepository)(nil)

const ledgerColumns = `
	transaction_id, workplace_id, account_id, transaction_date, description, amount,
	currency_code, category_id, source_feed_transaction_id, transfer_id,
	created_at, created_by, last_updated_at, last_updated_by`

func (r *PgxLedgerRepository) getTransactions(ctx context.Context, q querier, query string, args ...any) ([]domain.Transaction, error) {
	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, dbError("failed to query ledger transactions", err)
	}
	txns, err := pgx.CollectRows(rows, pgx.RowToStructByName[models.LedgerTransaction])
	if err != nil {
		return nil, dbError("failed to collect ledger transaction rows", err)
	}
	return mapping.ToDomainLedgerTransactions(txns), nil
}

// ListLedgerCandidates leaves out transfer postings; their feeds are resolved by the transfer.
func (r *PgxLedgerRepository) ListLedgerCandidates(ctx context.Context, workplaceID, accountID string, dr domain.DateRange) ([]domain.Transaction, error) {
	return r.getTransactions(ctx, r.db(ctx), `SELECT `+ledgerColumns+` FROM ledger_transactions
		WHERE workplace_id = $1 AND account_id = $2 AND transfer_id IS NULL
			AND transaction_date BETWEEN $3 AND $4
		ORDER BY transaction_date, transaction_id`,
		workplaceID, accountID, dr.From, dr.To)
}

func (r *PgxLedgerRepository) FindTransactionByID(ctx context.Context, workplaceID, transactionID string) (*domain.Transaction, error) {
	txns, err := r.getTransactions(ctx, r.db(ctx), `SELECT `+ledgerColumns+` FROM ledger_transactions
		WHERE workplace_id = $1 AND transaction_id = $2`, workplaceID, transactionID)
	if err != nil {
		return nil, err
	}
	if len(txns) == 0 {
		return nil, apperrors.NewNotFoundError("transaction " + transactionID)
	}
	return &txns[0], nil
}

// PostTransactions creates one ledger transaction per posting in a single transaction.
// When ctx carries an open transaction, such as a transfer confirmation, the postings join it.
func (r *PgxLedgerRepository) PostTransactions(ctx context.Context, postings []domain.LedgerPosting) ([]domain.Transaction, error) {
	for i, p := range postings {
		if p.WorkplaceID == "" || p.AccountID == "" || p.CurrencyCode == "" {
			return nil, apperrors.NewValidationError(fmt.Sprintf("posting %d: workplace, account and currency are required", i))
		}
	}

	out := make([]domain.Transaction, 0, len(postings))
	err := r.withTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		now := time.Now().UTC()
		for _, p := range postings {
			posted, err := r.post(ctx, tx, p, now)
			if err != nil {
				return err
			}
			out = append(out, *posted)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// post inserts one posting. A transfer leg that already exists is returned unchanged.
func (r *PgxLedgerRepository) post(ctx context.Context, tx pgx.Tx, p domain.LedgerPosting, now time.Time) (*domain.Transaction, error) {
	txns, err := r.getTransactions(ctx, tx, `
		INSERT INTO ledger_transactions (
			transaction_id, workplace_id, account_id, transaction_date, description, amount,
			currency_code, category_id, source_feed_transaction_id, transfer_id,
			created_at, created_by, last_updated_at, last_updated_by
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $11, $12)
		ON CONFLICT (transfer_id, account_id) WHERE transfer_id IS NOT NULL DO NOTHING
		RETURNING `+ledgerColumns,
		uuid.NewString(), p.WorkplaceID, p.AccountID, domain.DateOnly(p.Date), p.Description, p.Amount,
		strings.ToUpper(p.CurrencyCode), mapping.NullString(p.CategoryID),
		mapping.NullString(p.SourceFeedTransactionID), mapping.NullString(p.TransferID),
		now, p.PostedBy,
	)
	if err != nil {
		if isPgError(err, pgForeignKeyViolation, "") {
			return nil, apperrors.NewValidationFailedError("posting references an unknown workplace or feed transaction")
		}
		return nil, err
	}
	if len(txns) == 1 {
		return &txns[0], nil
	}
	if p.TransferID == nil {
		return nil, apperrors.NewAppError(500, "ledger insert returned no row", nil)
	}

	existing, err := r.getTransactions(ctx, tx, `SELECT `+ledgerColumns+` FROM ledger_transactions
		WHERE transfer_id = $1 AND account_id = $2`, *p.TransferID, p.AccountID)
	if err != nil {
		return nil, err
	}
	if len(existing) == 0 {
		return nil, apperrors.NewAppError(500, "transfer posting not found after conflict", nil)
	}
	return &existing[0], nil
}
