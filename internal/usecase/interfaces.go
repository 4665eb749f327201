package usecase

import (
	"context"
	"time"

	"github.com/retrobus-essonne/finance/internal/domain"
)

// TransactionRepository defines data access for ledger transactions.
type TransactionRepository interface {
	Create(ctx context.Context, tx Transaction, t *domain.Transaction) error
	Update(ctx context.Context, tx Transaction, t *domain.Transaction) error
	Delete(ctx context.Context, tx Transaction, id string) error
	GetByID(ctx context.Context, id string) (*domain.Transaction, error)
	GetByIDForUpdate(ctx context.Context, tx Transaction, id string) (*domain.Transaction, error)
	List(ctx context.Context, filter TransactionFilter) ([]*domain.Transaction, int, error)
	// ListAll returns every transaction ordered by date, for reports.
	ListAll(ctx context.Context) ([]*domain.Transaction, error)
}

// CategoryRepository defines data access for the category reference set.
type CategoryRepository interface {
	List(ctx context.Context) ([]*domain.Category, error)
	GetByID(ctx context.Context, id string) (*domain.Category, error)
}

// DocumentRepository defines data access for quotes and invoices.
type DocumentRepository interface {
	Create(ctx context.Context, tx Transaction, doc *domain.FinancialDocument) error
	Update(ctx context.Context, tx Transaction, doc *domain.FinancialDocument) error
	Delete(ctx context.Context, tx Transaction, id string) error
	GetByID(ctx context.Context, id string) (*domain.FinancialDocument, error)
	GetByIDForUpdate(ctx context.Context, tx Transaction, id string) (*domain.FinancialDocument, error)
	GetByNumber(ctx context.Context, number string) (*domain.FinancialDocument, error)
	List(ctx context.Context, filter domain.DocumentFilter) ([]*domain.FinancialDocument, int, error)
	// CountByPrefix counts documents whose number starts with prefix.
	CountByPrefix(ctx context.Context, prefix string) (int, error)
}

// ScheduledOperationRepository defines data access for scheduled operations.
type ScheduledOperationRepository interface {
	Create(ctx context.Context, tx Transaction, op *domain.ScheduledOperation) error
	Update(ctx context.Context, tx Transaction, op *domain.ScheduledOperation) error
	Delete(ctx context.Context, tx Transaction, id string) error
	GetByID(ctx context.Context, id string) (*domain.ScheduledOperation, error)
	GetByIDForUpdate(ctx context.Context, tx Transaction, id string) (*domain.ScheduledOperation, error)
	List(ctx context.Context) ([]*domain.ScheduledOperation, error)
	CreatePayment(ctx context.Context, tx Transaction, p *domain.ScheduledPayment) error
	ListPayments(ctx context.Context, operationID string) ([]*domain.ScheduledPayment, error)
}

// BalanceRepository defines data access for the single running balance.
type BalanceRepository interface {
	Get(ctx context.Context) (*domain.Balance, error)
	GetForUpdate(ctx context.Context, tx Transaction) (*domain.Balance, error)
	Save(ctx context.Context, tx Transaction, b *domain.Balance) error
}

// OutboxRepository defines data access for outbox events.
type OutboxRepository interface {
	Create(ctx context.Context, tx Transaction, event *domain.OutboxEvent) error
	GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error)
	MarkPublished(ctx context.Context, id string, publishedAt time.Time) error
	DeletePublished(ctx context.Context, before time.Time) error
}

// AuditRepository defines data access for audit logs.
type AuditRepository interface {
	CreateTx(ctx context.Context, tx Transaction, log *domain.AuditLog) error
	List(ctx context.Context, filter domain.AuditFilter) ([]*domain.AuditLog, error)
}

// Transaction represents a store transaction.
type Transaction interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// TransactionManager handles transaction lifecycle.
type TransactionManager interface {
	Begin(ctx context.Context) (Transaction, error)
}

// Retrier re-runs an operation on transient store errors.
type Retrier interface {
	Retry(ctx context.Context, operation func() error) error
}

// IDGenerator generates unique IDs.
type IDGenerator interface {
	Generate() string
}

// Cache defines caching operations.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// IdempotencyStore handles idempotency key storage.
type IdempotencyStore interface {
	// CheckAndSet atomically checks if key exists, sets if not.
	// Returns (exists, existingValue, error).
	CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	// Update updates an existing key with the final response.
	Update(ctx context.Context, key string, response []byte, ttl time.Duration) error
	// Release drops a key whose request did not complete, so it can be retried.
	Release(ctx context.Context, key string) error
}

// PDFRenderer converts merged HTML into a PDF.
type PDFRenderer interface {
	// Render returns the PDF as a data URI (data:application/pdf;base64,...).
	Render(ctx context.Context, html string) (string, error)
}

// TransactionFilter narrows transaction listings.
type TransactionFilter struct {
	EventID string
	Page    int
	Limit   int
}
