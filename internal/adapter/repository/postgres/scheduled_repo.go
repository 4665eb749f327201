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

const scheduledColumns = `id, type, amount, description, category, frequency, next_date,
	total_amount, payments_count, paid_amount, status, created_at, updated_at, anchor_day`

// ScheduledOperationRepository implements usecase.ScheduledOperationRepository.
type ScheduledOperationRepository struct {
	db querier
}

// NewScheduledOperationRepository creates a new ScheduledOperationRepository.
func NewScheduledOperationRepository(pool *pgxpool.Pool) *ScheduledOperationRepository {
	return &ScheduledOperationRepository{db: pool}
}

// Create inserts a scheduled operation.
func (r *ScheduledOperationRepository) Create(ctx context.Context, tx usecase.Transaction, op *domain.ScheduledOperation) error {
	_, err := inTx(tx).Exec(ctx, `
		INSERT INTO scheduled_operations (`+scheduledColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		op.ID,
		string(op.Type),
		decimalToNumeric(op.Amount),
		op.Description,
		op.Category,
		string(op.Frequency),
		timeToPgTimestamptz(op.NextDate),
		nullableNumeric(op.TotalAmount),
		op.PaymentsCount,
		decimalToNumeric(op.PaidAmount),
		string(op.Status),
		timeToPgTimestamptz(op.CreatedAt),
		timeToPgTimestamptz(op.UpdatedAt),
		op.AnchorDay,
	)

	return err
}

// Update rewrites a scheduled operation.
func (r *ScheduledOperationRepository) Update(ctx context.Context, tx usecase.Transaction, op *domain.ScheduledOperation) error {
	tag, err := inTx(tx).Exec(ctx, `
		UPDATE scheduled_operations
		SET type = $2, amount = $3, description = $4, category = $5, frequency = $6,
		    next_date = $7, total_amount = $8, payments_count = $9, paid_amount = $10,
		    status = $11, updated_at = $12, anchor_day = $13
		WHERE id = $1`,
		op.ID,
		string(op.Type),
		decimalToNumeric(op.Amount),
		op.Description,
		op.Category,
		string(op.Frequency),
		timeToPgTimestamptz(op.NextDate),
		nullableNumeric(op.TotalAmount),
		op.PaymentsCount,
		decimalToNumeric(op.PaidAmount),
		string(op.Status),
		timeToPgTimestamptz(op.UpdatedAt),
		op.AnchorDay,
	)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrOperationNotFound
	}

	return nil
}

// Delete removes a scheduled operation. Its payment records go with it;
// the ledger transactions they booked stay.
func (r *ScheduledOperationRepository) Delete(ctx context.Context, tx usecase.Transaction, id string) error {
	tag, err := inTx(tx).Exec(ctx, `DELETE FROM scheduled_operations WHERE id = $1`, id)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrOperationNotFound
	}

	return nil
}

// GetByID retrieves a scheduled operation.
func (r *ScheduledOperationRepository) GetByID(ctx context.Context, id string) (*domain.ScheduledOperation, error) {
	row := r.db.QueryRow(ctx, `SELECT `+scheduledColumns+` FROM scheduled_operations WHERE id = $1`, id)

	return scanScheduledOperation(row)
}

// GetByIDForUpdate retrieves a scheduled operation and locks its row.
func (r *ScheduledOperationRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.ScheduledOperation, error) {
	row := inTx(tx).QueryRow(ctx, `SELECT `+scheduledColumns+` FROM scheduled_operations WHERE id = $1 FOR UPDATE`, id)

	return scanScheduledOperation(row)
}

// List returns every scheduled operation by next due date.
func (r *ScheduledOperationRepository) List(ctx context.Context) ([]*domain.ScheduledOperation, error) {
	rows, err := r.db.Query(ctx, `SELECT `+scheduledColumns+` FROM scheduled_operations ORDER BY next_date, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ops []*domain.ScheduledOperation
	for rows.Next() {
		op, err := scanScheduledOperation(rows)
		if err != nil {
			return nil, err
		}
		ops = append(ops, op)
	}

	return ops, rows.Err()
}

// CreatePayment stores one installment record.
func (r *ScheduledOperationRepository) CreatePayment(ctx context.Context, tx usecase.Transaction, p *domain.ScheduledPayment) error {
	_, err := inTx(tx).Exec(ctx, `
		INSERT INTO scheduled_payments (id, operation_id, amount, date, transaction_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		p.ID,
		p.OperationID,
		decimalToNumeric(p.Amount),
		timeToPgTimestamptz(p.Date),
		p.TransactionID,
		timeToPgTimestamptz(p.CreatedAt),
	)

	return err
}

// ListPayments returns the installments of an operation, oldest first.
func (r *ScheduledOperationRepository) ListPayments(ctx context.Context, operationID string) ([]*domain.ScheduledPayment, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, operation_id, amount, date, transaction_id, created_at
		FROM scheduled_payments
		WHERE operation_id = $1
		ORDER BY date, created_at`,
		operationID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var payments []*domain.ScheduledPayment
	for rows.Next() {
		var (
			p         domain.ScheduledPayment
			amount    pgtype.Numeric
			date      pgtype.Timestamptz
			createdAt pgtype.Timestamptz
		)
		if err := rows.Scan(&p.ID, &p.OperationID, &amount, &date, &p.TransactionID, &createdAt); err != nil {
			return nil, err
		}
		p.Amount = numericToDecimal(amount)
		p.Date = date.Time
		p.CreatedAt = createdAt.Time
		payments = append(payments, &p)
	}

	return payments, rows.Err()
}

func scanScheduledOperation(row pgx.Row) (*domain.ScheduledOperation, error) {
	var (
		op        domain.ScheduledOperation
		typ       string
		frequency string
		status    string
		amount    pgtype.Numeric
		nextDate  pgtype.Timestamptz
		total     pgtype.Numeric
		paid      pgtype.Numeric
		createdAt pgtype.Timestamptz
		updatedAt pgtype.Timestamptz
		anchorDay int16
	)

	err := row.Scan(
		&op.ID,
		&typ,
		&amount,
		&op.Description,
		&op.Category,
		&frequency,
		&nextDate,
		&total,
		&op.PaymentsCount,
		&paid,
		&status,
		&createdAt,
		&updatedAt,
		&anchorDay,
	)
	if err != nil {
		if isNoRows(err) {
			return nil, domain.ErrOperationNotFound
		}
		return nil, fmt.Errorf("scan scheduled operation: %w", err)
	}

	op.Type = domain.TransactionType(typ)
	op.Frequency = domain.Frequency(frequency)
	op.Status = domain.ScheduledStatus(status)
	op.Amount = numericToDecimal(amount)
	op.NextDate = nextDate.Time
	op.TotalAmount = numericToDecimalPtr(total)
	op.PaidAmount = numericToDecimal(paid)
	op.CreatedAt = createdAt.Time
	op.UpdatedAt = updatedAt.Time
	op.AnchorDay = int(anchorDay)

	return &op, nil
}
