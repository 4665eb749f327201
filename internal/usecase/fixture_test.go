package usecase_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/retrobus-essonne/finance/internal/usecase"
	"github.com/retrobus-essonne/finance/internal/usecase/mocks"
)

type fixture struct {
	txManager  *mocks.MockTransactionManager
	txRepo     *mocks.MockTransactionRepository
	categories *mocks.MockCategoryRepository
	docRepo    *mocks.MockDocumentRepository
	opRepo     *mocks.MockScheduledOperationRepository
	balance    *mocks.MockBalanceRepository
	outbox     *mocks.MockOutboxRepository
	audit      *mocks.MockAuditRepository
	idGen      *mocks.MockIDGenerator

	transactions   *usecase.TransactionUseCase
	documents      *usecase.DocumentUseCase
	scheduled      *usecase.ScheduledOperationUseCase
	balances       *usecase.BalanceUseCase
	reports        *usecase.ReportUseCase
	reconciliation *usecase.ReconciliationUseCase
}

func newFixture(t *testing.T, opening string) *fixture {
	t.Helper()

	f := &fixture{
		txManager:  mocks.NewMockTransactionManager(),
		txRepo:     mocks.NewMockTransactionRepository(),
		categories: mocks.NewMockCategoryRepository(),
		docRepo:    mocks.NewMockDocumentRepository(),
		opRepo:     mocks.NewMockScheduledOperationRepository(),
		balance:    mocks.NewMockBalanceRepository(decimal.RequireFromString(opening)),
		outbox:     mocks.NewMockOutboxRepository(),
		audit:      mocks.NewMockAuditRepository(),
		idGen:      mocks.NewMockIDGenerator(),
	}

	f.transactions = usecase.NewTransactionUseCase(f.txManager, nil, f.txRepo, f.categories, f.balance, f.outbox, f.audit, f.idGen, nil)
	f.documents = usecase.NewDocumentUseCase(f.txManager, nil, f.docRepo, f.outbox, f.audit, f.idGen, nil)
	f.scheduled = usecase.NewScheduledOperationUseCase(f.txManager, nil, f.opRepo, f.txRepo, f.categories, f.balance, f.outbox, f.audit, f.idGen, nil)
	f.balances = usecase.NewBalanceUseCase(f.txManager, nil, f.balance, f.outbox, f.audit, f.idGen, nil)
	f.reports = usecase.NewReportUseCase(f.txRepo)
	f.reconciliation = usecase.NewReconciliationUseCase(f.txManager, f.balance, f.txRepo, f.docRepo, nil)

	return f
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func decPtr(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func strPtr(s string) *string {
	return &s
}

func date(s string) time.Time {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		panic(err)
	}
	return t
}
