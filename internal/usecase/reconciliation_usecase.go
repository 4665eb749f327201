package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/retrobus-essonne/finance/internal/domain"
	"github.com/retrobus-essonne/finance/internal/infrastructure/metrics"
)

// ReconciliationUseCase handles ledger consistency checks
type ReconciliationUseCase struct {
	tx          txRunner
	balanceRepo BalanceRepository
	txRepo      TransactionRepository
	docRepo     DocumentRepository
	metrics     *metrics.Metrics
}

// NewReconciliationUseCase creates a new reconciliation use case
func NewReconciliationUseCase(
	txManager TransactionManager,
	balanceRepo BalanceRepository,
	txRepo TransactionRepository,
	docRepo DocumentRepository,
	metrics *metrics.Metrics,
) *ReconciliationUseCase {
	return &ReconciliationUseCase{
		tx:          txRunner{txManager: txManager},
		balanceRepo: balanceRepo,
		txRepo:      txRepo,
		docRepo:     docRepo,
		metrics:     metrics,
	}
}

// DocumentIssue describes a document whose payment figures disagree.
type DocumentIssue struct {
	DocumentID   string
	Number       string
	Amount       decimal.Decimal
	AmountPaid   decimal.Decimal
	HistoryTotal decimal.Decimal
	Reason       string
}

// ConsistencyReport represents a full reconciliation report
type ConsistencyReport struct {
	RecordedBalance   decimal.Decimal
	Opening           decimal.Decimal
	LedgerTotal       decimal.Decimal
	ExpectedBalance   decimal.Decimal
	Difference        decimal.Decimal
	BalanceConsistent bool
	DocumentsChecked  int
	DocumentIssues    []DocumentIssue
	CheckedAt         time.Time
}

// Consistent reports whether no issue was found.
func (r *ConsistencyReport) Consistent() bool {
	return r.BalanceConsistent && len(r.DocumentIssues) == 0
}

// CheckConsistency verifies that the balance equals the opening amount plus
// the signed sum of all transactions, and that every document's amount paid
// matches its payment history and stays within its amount.
//
// The balance is read with the lock every ledger mutation takes, so no
// transaction can land between the balance read and the ledger sum.
func (uc *ReconciliationUseCase) CheckConsistency(ctx context.Context) (*ConsistencyReport, error) {
	var report *ConsistencyReport

	err := uc.tx.run(ctx, func(ctx context.Context, tx Transaction) error {
		balance, err := uc.balanceRepo.GetForUpdate(ctx, tx)
		if err != nil {
			return err
		}

		txs, err := uc.txRepo.ListAll(ctx)
		if err != nil {
			return err
		}

		total := domain.SignedTotal(txs)
		expected := balance.Expected(total)

		report = &ConsistencyReport{
			RecordedBalance:   balance.Amount,
			Opening:           balance.Opening,
			LedgerTotal:       total,
			ExpectedBalance:   expected,
			Difference:        balance.Amount.Sub(expected),
			BalanceConsistent: balance.Amount.Equal(expected),
			DocumentIssues:    make([]DocumentIssue, 0),
			CheckedAt:         time.Now().UTC(),
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := uc.checkDocuments(ctx, report); err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		issues := len(report.DocumentIssues)
		if !report.BalanceConsistent {
			issues++
		}
		uc.metrics.ConsistencyIssues.Set(float64(issues))
	}

	return report, nil
}

func (uc *ReconciliationUseCase) checkDocuments(ctx context.Context, report *ConsistencyReport) error {
	filter := domain.DocumentFilter{Page: 1, Limit: domain.MaxPageSize}

	for {
		docs, total, err := uc.docRepo.List(ctx, filter)
		if err != nil {
			return storeErr(err)
		}

		for _, doc := range docs {
			report.DocumentsChecked++
			if issue, ok := documentIssue(doc); ok {
				report.DocumentIssues = append(report.DocumentIssues, issue)
			}
		}

		if len(docs) == 0 || filter.Page*filter.Limit >= total {
			return nil
		}
		filter.Page++
	}
}

func documentIssue(doc *domain.FinancialDocument) (DocumentIssue, bool) {
	history := doc.HistoryTotal()

	issue := DocumentIssue{
		DocumentID:   doc.ID,
		Number:       doc.Number,
		Amount:       doc.Amount,
		AmountPaid:   doc.AmountPaid,
		HistoryTotal: history,
	}

	switch {
	case !doc.AmountPaid.Equal(history):
		issue.Reason = fmt.Sprintf("amount paid %s does not match payment history %s", doc.AmountPaid, history)
	case doc.AmountPaid.GreaterThan(doc.Amount):
		issue.Reason = fmt.Sprintf("amount paid %s exceeds amount %s", doc.AmountPaid, doc.Amount)
	case doc.AmountPaid.IsNegative():
		issue.Reason = "amount paid is negative"
	default:
		return DocumentIssue{}, false
	}

	return issue, true
}
