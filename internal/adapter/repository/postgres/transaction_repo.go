package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/retrobus-essonne/finance/internal/domain"
	"github.com/retrobus-essonne/finance/internal/usecase"
)

const transactionColumns = `id, type, amount, description, category, date, event_id,
	scheduled_operation_id, created_at, updated_at`

// TransactionRepository implements usecase.TransactionRepository.
type TransactionRepository struct {
	db querier
}

// NewTransactionRepository creates a new TransactionRepository.
func NewTransactionRepository(pool *pgxpool.Pool) *TransactionRepository {
	return &TransactionRepository{db: pool}
}

// Create inserts a transaction within a store transaction.
func (r *TransactionRepository) Create(ctx context.Context, tx usecase.Transaction, t *domain.Transaction) error {
	_, err := inTx(tx).Exec(ctx, `
		INSERT INTO transactions (`+transactionColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		t.ID,
		string(t.Type),
		decimalToNumeric(t.Amount),
		t.Description,
		t.Category,
		timeToPgTimestamptz(t.Date),
		nullableText(t.EventID),
		nullableText(t.ScheduledOperationID),
		timeToPgTimestamptz(t.CreatedAt),
		timeToPgTimestamptz(t.UpdatedAt),
	)

	return err
}

// Update rewrites the mutable fields of a transaction.
func (r *TransactionRepository) Update(ctx context.Context, tx usecase.Transaction, t *domain.Transaction) error {
	tag, err := inTx(tx).Exec(ctx, `
		UPDATE transactions
		SET type = $2, amount = $3, description = $4, category = $5, date = $6,
		    event_id = $7, updated_at = $8
		WHERE id = $1`,
		t.ID,
		string(t.Type),
		decimalToNumeric(t.Amount),
		t.Description,
		t.Category,
		timeToPgTimestamptz(t.Date),
		nullableText(t.EventID),
		timeToPgTimestamptz(t.UpdatedAt),
	)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrTransactionNotFound
	}

	return nil
}

// Delete removes a transaction.
func (r *TransactionRepository) Delete(ctx context.Context, tx usecase.Transaction, id string) error {
	tag, err := inTx(tx).Exec(ctx, `DELETE FROM transactions WHERE id = $1`, id)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrTransactionNotFound
	}

	return nil
}

// GetByID retrieves a transaction.
func (r *TransactionRepository) GetByID(ctx context.Context, id string) (*domain.Transaction, error) {
	row := r.db.QueryRow(ctx, `SELECT `+transactionColumns+` FROM transactions WHERE id = $1`, id)

	return scanTransaction(row)
}

// GetByIDForUpdate retrieves a transaction and locks its row.
func (r *TransactionRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.Transaction, error) {
	row := inTx(tx).QueryRow(ctx, `SELECT `+transactionColumns+` FROM transactions WHERE id = $1 FOR UPDATE`, id)

	return scanTransaction(row)
}

// List returns one page of transactions, most recent first, with the total
// number of matching rows.
func (r *TransactionRepository) List(ctx context.Context, filter usecase.TransactionFilter) ([]*domain.Transaction, int, error) {
	var total int
	if err := r.db.QueryRow(ctx,
		`SELECT count(*) FROM transactions WHERE ($1 = '' OR event_id = $1)`,
		filter.EventID,
	).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.db.Query(ctx, `
		SELECT `+transactionColumns+`
		FROM transactions
		WHERE ($1 = '' OR event_id = $1)
		ORDER BY date DESC, id DESC
		LIMIT $2 OFFSET $3`,
		filter.EventID,
		filter.Limit,
		pageOffset(filter.Page, filter.Limit),
	)
	if err != nil {
		return nil, 0, err
	}

	txs, err := collectTransactions(rows)
	if err != nil {
		return nil, 0, err
	}

	return txs, total, nil
}

// ListAll returns every transaction ordered by date.
func (r *TransactionRepository) ListAll(ctx context.Context) ([]*domain.Transaction, error) {
	rows, err := r.db.Query(ctx, `SELECT `+transactionColumns+` FROM transactions ORDER BY date, id`)
	if err != nil {
		return nil, err
	}

	return collectTransactions(rows)
}

func collectTransactions(rows pgx.Rows) ([]*domain.Transaction, error) {
	defer rows.Close()

	var txs []*domain.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		txs = append(txs, t)
	}

	return txs, rows.Err()
}

func scanTransaction(row pgx.Row) (*domain.Transaction, error) {
	var (
		t           domain.Transaction
		typ         string
		amount      pgtype.Numeric
		date        pgtype.Timestamptz
		eventID     pgtype.Text
		scheduledID pgtype.Text
		createdAt   pgtype.Timestamptz
		updatedAt   pgtype.Timestamptz
	)

	err := row.Scan(
		&t.ID,
		&typ,
		&amount,
		&t.Description,
		&t.Category,
		&date,
		&eventID,
		&scheduledID,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		if isNoRows(err) {
			return nil, domain.ErrTransactionNotFound
		}
		return nil, fmt.Errorf("scan transaction: %w", err)
	}

	t.Type = domain.TransactionType(typ)
	t.Amount = numericToDecimal(amount)
	t.Date = date.Time
	t.EventID = textToPtr(eventID)
	t.ScheduledOperationID = textToPtr(scheduledID)
	t.CreatedAt = createdAt.Time
	t.UpdatedAt = updatedAt.Time

	return &t, nil
}
