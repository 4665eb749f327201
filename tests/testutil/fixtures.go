package testutil

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/oklog/ulid/v2"

	"github.com/retrobus-essonne/finance/internal/adapter/repository/postgres"
	infrapg "github.com/retrobus-essonne/finance/internal/infrastructure/postgres"
	"github.com/retrobus-essonne/finance/internal/usecase"
)

// TestDB provides isolated test database connections.
type TestDB struct {
	Pool *pgxpool.Pool
	t    *testing.T
}

// NewTestDB connects to DATABASE_URL and applies the migrations. The test is
// skipped when no database is configured.
func NewTestDB(t *testing.T) *TestDB {
	t.Helper()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		t.Skip("DATABASE_URL not set")
	}

	if err := infrapg.RunMigrations(dbURL); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		t.Fatalf("failed to connect to test database: %v", err)
	}

	if err := pool.Ping(ctx); err != nil {
		t.Fatalf("failed to ping test database: %v", err)
	}

	db := &TestDB{Pool: pool, t: t}
	db.TruncateAll(ctx)

	return db
}

// Cleanup closes the database connection.
func (db *TestDB) Cleanup() {
	db.Pool.Close()
}

// TruncateAll removes ledger data and resets the balance row. Categories are
// reference data and survive.
func (db *TestDB) TruncateAll(ctx context.Context) {
	db.t.Helper()

	_, err := db.Pool.Exec(ctx, `
		TRUNCATE TABLE audit_logs, outbox_events, scheduled_payments, transactions,
			scheduled_operations, financial_documents;
		UPDATE balance SET amount = 0, opening = 0, locked = FALSE, version = 0, updated_at = now();
	`)
	if err != nil {
		db.t.Fatalf("failed to truncate tables: %v", err)
	}
}

// Services bundles usecases wired on the Postgres repositories.
type Services struct {
	Transactions   *usecase.TransactionUseCase
	Documents      *usecase.DocumentUseCase
	Scheduled      *usecase.ScheduledOperationUseCase
	Balance        *usecase.BalanceUseCase
	Reports        *usecase.ReportUseCase
	Reconciliation *usecase.ReconciliationUseCase
	Outbox         *postgres.OutboxRepository
	Audit          *postgres.AuditRepository
}

// NewServices wires every usecase against the test pool.
func (db *TestDB) NewServices() *Services {
	pool := db.Pool

	txManager := postgres.NewTxManager(pool)
	retrier := postgres.NewRetrier()
	idGen := postgres.NewULIDGenerator()

	txRepo := postgres.NewTransactionRepository(pool)
	catRepo := postgres.NewCategoryRepository(pool)
	docRepo := postgres.NewDocumentRepository(pool)
	opRepo := postgres.NewScheduledOperationRepository(pool)
	balRepo := postgres.NewBalanceRepository(pool)
	outboxRepo := postgres.NewOutboxRepository(pool)
	auditRepo := postgres.NewAuditRepository(pool)

	return &Services{
		Transactions:   usecase.NewTransactionUseCase(txManager, retrier, txRepo, catRepo, balRepo, outboxRepo, auditRepo, idGen, nil),
		Documents:      usecase.NewDocumentUseCase(txManager, retrier, docRepo, outboxRepo, auditRepo, idGen, nil),
		Scheduled:      usecase.NewScheduledOperationUseCase(txManager, retrier, opRepo, txRepo, catRepo, balRepo, outboxRepo, auditRepo, idGen, nil),
		Balance:        usecase.NewBalanceUseCase(txManager, retrier, balRepo, outboxRepo, auditRepo, idGen, nil),
		Reports:        usecase.NewReportUseCase(txRepo),
		Reconciliation: usecase.NewReconciliationUseCase(txManager, balRepo, txRepo, docRepo, nil),
		Outbox:         outboxRepo,
		Audit:          auditRepo,
	}
}

// GenerateID generates a new ULID.
func GenerateID() string {
	return ulid.Make().String()
}
