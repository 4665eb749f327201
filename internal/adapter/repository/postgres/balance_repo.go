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

// balanceRowID is the key of the single balance row.
const balanceRowID = 1

// BalanceRepository implements usecase.BalanceRepository over a single row
// seeded by the initial migration.
type BalanceRepository struct {
	db querier
}

// NewBalanceRepository creates a new BalanceRepository.
func NewBalanceRepository(pool *pgxpool.Pool) *BalanceRepository {
	return &BalanceRepository{db: pool}
}

// Get returns the current balance.
func (r *BalanceRepository) Get(ctx context.Context) (*domain.Balance, error) {
	row := r.db.QueryRow(ctx,
		`SELECT amount, opening, locked, version, updated_at FROM balance WHERE id = $1`,
		balanceRowID,
	)

	return scanBalance(row)
}

// GetForUpdate returns the balance and locks its row. Every ledger mutation
// goes through this lock, which serializes balance updates.
func (r *BalanceRepository) GetForUpdate(ctx context.Context, tx usecase.Transaction) (*domain.Balance, error) {
	row := inTx(tx).QueryRow(ctx,
		`SELECT amount, opening, locked, version, updated_at FROM balance WHERE id = $1 FOR UPDATE`,
		balanceRowID,
	)

	return scanBalance(row)
}

// Save writes the balance row.
func (r *BalanceRepository) Save(ctx context.Context, tx usecase.Transaction, b *domain.Balance) error {
	_, err := inTx(tx).Exec(ctx, `
		UPDATE balance
		SET amount = $2, opening = $3, locked = $4, version = $5, updated_at = $6
		WHERE id = $1`,
		balanceRowID,
		decimalToNumeric(b.Amount),
		decimalToNumeric(b.Opening),
		b.Locked,
		b.Version,
		timeToPgTimestamptz(b.UpdatedAt),
	)

	return err
}

func scanBalance(row pgx.Row) (*domain.Balance, error) {
	var (
		b         domain.Balance
		amount    pgtype.Numeric
		opening   pgtype.Numeric
		updatedAt pgtype.Timestamptz
	)

	if err := row.Scan(&amount, &opening, &b.Locked, &b.Version, &updatedAt); err != nil {
		if isNoRows(err) {
			return nil, fmt.Errorf("balance row missing, run migrations: %w", err)
		}
		return nil, fmt.Errorf("scan balance: %w", err)
	}

	b.Amount = numericToDecimal(amount)
	b.Opening = numericToDecimal(opening)
	b.UpdatedAt = updatedAt.Time

	return &b, nil
}
