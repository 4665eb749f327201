package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/retrobus-essonne/finance/internal/domain"
	"github.com/retrobus-essonne/finance/internal/usecase"
)

const documentColumns = `id, type, number, title, description, date, due_date, amount, amount_paid,
	payment_history, status, recipient, line_items, notes, html_content, document_url,
	source_quote_id, version, created_at, updated_at`

// DocumentRepository implements usecase.DocumentRepository. Payment history,
// recipient and line items are stored as JSONB.
type DocumentRepository struct {
	db querier
}

// NewDocumentRepository creates a new DocumentRepository.
func NewDocumentRepository(pool *pgxpool.Pool) *DocumentRepository {
	return &DocumentRepository{db: pool}
}

// Create inserts a document. A taken number maps to domain.ErrDuplicateNumber.
func (r *DocumentRepository) Create(ctx context.Context, tx usecase.Transaction, doc *domain.FinancialDocument) error {
	history, recipient, items, err := marshalDocumentJSON(doc)
	if err != nil {
		return err
	}

	_, err = inTx(tx).Exec(ctx, `
		INSERT INTO financial_documents (`+documentColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)`,
		doc.ID,
		string(doc.Type),
		doc.Number,
		doc.Title,
		doc.Description,
		timeToPgTimestamptz(doc.Date),
		nullableTimestamptz(doc.DueDate),
		decimalToNumeric(doc.Amount),
		decimalToNumeric(doc.AmountPaid),
		history,
		string(doc.Status),
		recipient,
		items,
		doc.Notes,
		doc.HTMLContent,
		doc.DocumentURL,
		nullableText(doc.SourceQuoteID),
		doc.Version,
		timeToPgTimestamptz(doc.CreatedAt),
		timeToPgTimestamptz(doc.UpdatedAt),
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: %s", domain.ErrDuplicateNumber, doc.Number)
	}

	return err
}

// Update rewrites a document. The caller holds the row lock.
func (r *DocumentRepository) Update(ctx context.Context, tx usecase.Transaction, doc *domain.FinancialDocument) error {
	history, recipient, items, err := marshalDocumentJSON(doc)
	if err != nil {
		return err
	}

	tag, err := inTx(tx).Exec(ctx, `
		UPDATE financial_documents
		SET number = $2, title = $3, description = $4, date = $5, due_date = $6,
		    amount = $7, amount_paid = $8, payment_history = $9, status = $10,
		    recipient = $11, line_items = $12, notes = $13, html_content = $14,
		    document_url = $15, version = $16, updated_at = $17
		WHERE id = $1`,
		doc.ID,
		doc.Number,
		doc.Title,
		doc.Description,
		timeToPgTimestamptz(doc.Date),
		nullableTimestamptz(doc.DueDate),
		decimalToNumeric(doc.Amount),
		decimalToNumeric(doc.AmountPaid),
		history,
		string(doc.Status),
		recipient,
		items,
		doc.Notes,
		doc.HTMLContent,
		doc.DocumentURL,
		doc.Version,
		timeToPgTimestamptz(doc.UpdatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s", domain.ErrDuplicateNumber, doc.Number)
		}
		return err
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrDocumentNotFound
	}

	return nil
}

// Delete removes a document.
func (r *DocumentRepository) Delete(ctx context.Context, tx usecase.Transaction, id string) error {
	tag, err := inTx(tx).Exec(ctx, `DELETE FROM financial_documents WHERE id = $1`, id)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrDocumentNotFound
	}

	return nil
}

// GetByID retrieves a document.
func (r *DocumentRepository) GetByID(ctx context.Context, id string) (*domain.FinancialDocument, error) {
	row := r.db.QueryRow(ctx, `SELECT `+documentColumns+` FROM financial_documents WHERE id = $1`, id)

	return scanDocument(row)
}

// GetByIDForUpdate retrieves a document and locks its row.
func (r *DocumentRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.FinancialDocument, error) {
	row := inTx(tx).QueryRow(ctx, `SELECT `+documentColumns+` FROM financial_documents WHERE id = $1 FOR UPDATE`, id)

	return scanDocument(row)
}

// GetByNumber retrieves a document by its business number.
func (r *DocumentRepository) GetByNumber(ctx context.Context, number string) (*domain.FinancialDocument, error) {
	row := r.db.QueryRow(ctx, `SELECT `+documentColumns+` FROM financial_documents WHERE number = $1`, number)

	return scanDocument(row)
}

// List returns one page of documents ordered by number, with the total
// number of matching rows.
func (r *DocumentRepository) List(ctx context.Context, filter domain.DocumentFilter) ([]*domain.FinancialDocument, int, error) {
	const where = `WHERE ($1 = '' OR type = $1) AND ($2 = '' OR status = $2)`

	var total int
	if err := r.db.QueryRow(ctx,
		`SELECT count(*) FROM financial_documents `+where,
		string(filter.Type), string(filter.Status),
	).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.db.Query(ctx, `
		SELECT `+documentColumns+`
		FROM financial_documents `+where+`
		ORDER BY number
		LIMIT $3 OFFSET $4`,
		string(filter.Type),
		string(filter.Status),
		filter.Limit,
		pageOffset(filter.Page, filter.Limit),
	)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var docs []*domain.FinancialDocument
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, 0, err
		}
		docs = append(docs, doc)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	return docs, total, nil
}

// CountByPrefix counts documents whose number starts with prefix.
func (r *DocumentRepository) CountByPrefix(ctx context.Context, prefix string) (int, error) {
	var count int
	err := r.db.QueryRow(ctx,
		`SELECT count(*) FROM financial_documents WHERE starts_with(number, $1)`,
		prefix,
	).Scan(&count)

	return count, err
}

func marshalDocumentJSON(doc *domain.FinancialDocument) (history, recipient, items []byte, err error) {
	payments := doc.PaymentHistory
	if payments == nil {
		payments = []domain.PaymentRecord{}
	}

	lines := doc.LineItems
	if lines == nil {
		lines = []domain.LineItem{}
	}

	if history, err = json.Marshal(payments); err != nil {
		return nil, nil, nil, fmt.Errorf("marshal payment history: %w", err)
	}

	if recipient, err = json.Marshal(doc.Recipient); err != nil {
		return nil, nil, nil, fmt.Errorf("marshal recipient: %w", err)
	}

	if items, err = json.Marshal(lines); err != nil {
		return nil, nil, nil, fmt.Errorf("marshal line items: %w", err)
	}

	return history, recipient, items, nil
}

func scanDocument(row pgx.Row) (*domain.FinancialDocument, error) {
	var (
		doc        domain.FinancialDocument
		typ        string
		status     string
		date       pgtype.Timestamptz
		dueDate    pgtype.Timestamptz
		amount     pgtype.Numeric
		amountPaid pgtype.Numeric
		history    []byte
		recipient  []byte
		items      []byte
		sourceID   pgtype.Text
		createdAt  pgtype.Timestamptz
		updatedAt  pgtype.Timestamptz
	)

	err := row.Scan(
		&doc.ID,
		&typ,
		&doc.Number,
		&doc.Title,
		&doc.Description,
		&date,
		&dueDate,
		&amount,
		&amountPaid,
		&history,
		&status,
		&recipient,
		&items,
		&doc.Notes,
		&doc.HTMLContent,
		&doc.DocumentURL,
		&sourceID,
		&doc.Version,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		if isNoRows(err) {
			return nil, domain.ErrDocumentNotFound
		}
		return nil, fmt.Errorf("scan document: %w", err)
	}

	if len(history) > 0 {
		if err := json.Unmarshal(history, &doc.PaymentHistory); err != nil {
			return nil, fmt.Errorf("decode payment history of %s: %w", doc.ID, err)
		}
	}

	if len(recipient) > 0 {
		if err := json.Unmarshal(recipient, &doc.Recipient); err != nil {
			return nil, fmt.Errorf("decode recipient of %s: %w", doc.ID, err)
		}
	}

	if len(items) > 0 {
		if err := json.Unmarshal(items, &doc.LineItems); err != nil {
			return nil, fmt.Errorf("decode line items of %s: %w", doc.ID, err)
		}
	}

	doc.Type = domain.DocumentType(typ)
	doc.Status = domain.DocumentStatus(status)
	doc.Date = date.Time
	doc.DueDate = timestamptzToPtr(dueDate)
	doc.Amount = numericToDecimal(amount)
	doc.AmountPaid = numericToDecimal(amountPaid)
	doc.SourceQuoteID = textToPtr(sourceID)
	doc.CreatedAt = createdAt.Time
	doc.UpdatedAt = updatedAt.Time

	return &doc, nil
}
