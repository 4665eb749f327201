package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/retrobus-essonne/finance/internal/domain"
)

// ReportUseCase builds the read-side aggregations over the ledger.
type ReportUseCase struct {
	txRepo TransactionRepository
}

// NewReportUseCase creates a new ReportUseCase.
func NewReportUseCase(txRepo TransactionRepository) *ReportUseCase {
	return &ReportUseCase{txRepo: txRepo}
}

// CategoryReport is the per-category breakdown of one period.
type CategoryReport struct {
	Period     domain.Period
	Categories []domain.CategoryTotals
}

// MonthlyReport is the month-by-month breakdown of one year.
type MonthlyReport struct {
	Year   int
	Months [12]domain.MonthTotals
}

// CategoryBreakdown aggregates credits and debits per category over period
// ("all", "YYYY" or "YYYY-MM").
func (uc *ReportUseCase) CategoryBreakdown(ctx context.Context, period string) (*CategoryReport, error) {
	p, err := domain.ParsePeriod(period)
	if err != nil {
		return nil, err
	}

	txs, err := uc.txRepo.ListAll(ctx)
	if err != nil {
		return nil, storeErr(err)
	}

	breakdown := domain.CategoryBreakdown(domain.FilterByPeriod(txs, p))

	return &CategoryReport{
		Period:     p,
		Categories: domain.SortedBreakdown(breakdown),
	}, nil
}

// MonthlyBreakdown aggregates credits and debits per month of year. A zero
// year means the current one.
func (uc *ReportUseCase) MonthlyBreakdown(ctx context.Context, year int) (*MonthlyReport, error) {
	if year == 0 {
		year = time.Now().UTC().Year()
	}

	if year < 1900 || year > 9999 {
		return nil, fmt.Errorf("%w: year %d out of range", domain.ErrValidation, year)
	}

	txs, err := uc.txRepo.ListAll(ctx)
	if err != nil {
		return nil, storeErr(err)
	}

	return &MonthlyReport{
		Year:   year,
		Months: domain.MonthlyBreakdown(txs, year),
	}, nil
}
