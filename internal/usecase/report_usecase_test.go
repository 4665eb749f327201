package usecase_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/retrobus-essonne/finance/internal/domain"
)

func TestReportUseCase_CategoryBreakdown(t *testing.T) {
	f := newFixture(t, "0")
	ctx := context.Background()

	book(t, f, "CREDIT", "30", "ADHESION", "2024-12-15")
	book(t, f, "CREDIT", "40", "ADHESION", "2025-01-15")
	book(t, f, "CREDIT", "15", "EVENEMENT", "2025-01-20")
	book(t, f, "DEBIT", "5", "EVENEMENT", "2025-02-20")

	report, err := f.reports.CategoryBreakdown(ctx, "2025")
	require.NoError(t, err)
	assert.Equal(t, "2025", report.Period.String())

	byCategory := map[string]domain.CategoryTotals{}
	for _, c := range report.Categories {
		byCategory[c.Category] = c
	}

	assert.True(t, byCategory["ADHESION"].Credits.Equal(dec("40")))
	assert.True(t, byCategory["EVENEMENT"].Bilan().Equal(dec("10")))

	month, err := f.reports.CategoryBreakdown(ctx, "2025-01")
	require.NoError(t, err)
	assert.Len(t, month.Categories, 2)

	all, err := f.reports.CategoryBreakdown(ctx, "")
	require.NoError(t, err)
	total := dec("0")
	for _, c := range all.Categories {
		total = total.Add(c.Credits)
	}
	assert.True(t, total.Equal(dec("85")), "category credits add up to all credits")

	_, err = f.reports.CategoryBreakdown(ctx, "last-week")
	require.ErrorIs(t, err, domain.ErrValidation)
}

func TestReportUseCase_MonthlyBreakdown(t *testing.T) {
	f := newFixture(t, "0")
	ctx := context.Background()

	book(t, f, "CREDIT", "100", "SUBVENTION", "2025-03-01")
	book(t, f, "DEBIT", "40", "PIECES", "2025-03-09")
	book(t, f, "DEBIT", "999", "PIECES", "2024-03-09")

	report, err := f.reports.MonthlyBreakdown(ctx, 2025)
	require.NoError(t, err)
	assert.Equal(t, 2025, report.Year)

	march := report.Months[2]
	assert.Equal(t, time.March, march.Month)
	assert.True(t, march.Credits.Equal(dec("100")))
	assert.True(t, march.Debits.Equal(dec("40")))
	assert.True(t, march.Balance().Equal(dec("60")))
	assert.True(t, report.Months[0].Credits.IsZero())

	again, err := f.reports.MonthlyBreakdown(ctx, 2025)
	require.NoError(t, err)
	assert.Equal(t, report, again)

	current, err := f.reports.MonthlyBreakdown(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, time.Now().UTC().Year(), current.Year)

	_, err = f.reports.MonthlyBreakdown(ctx, 20000)
	require.ErrorIs(t, err, domain.ErrValidation)
}
