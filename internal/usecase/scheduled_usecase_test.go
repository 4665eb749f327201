package usecase_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/retrobus-essonne/finance/internal/domain"
	"github.com/retrobus-essonne/finance/internal/usecase"
)

func createLoan(t *testing.T, f *fixture, requiresApproval bool) *domain.ScheduledOperation {
	t.Helper()

	next := date("2025-01-31")
	op, err := f.scheduled.CreateOperation(context.Background(), usecase.CreateScheduledInput{
		Type:             "DEBIT",
		Amount:           dec("250"),
		Description:      "Prêt restauration Saviem SC10",
		Category:         "MAINTENANCE",
		Frequency:        "monthly",
		NextDate:         &next,
		TotalAmount:      decPtr("1000"),
		RequiresApproval: requiresApproval,
	})
	require.NoError(t, err)

	return op
}

func TestScheduledOperationUseCase_CreateStatus(t *testing.T) {
	f := newFixture(t, "0")

	assert.Equal(t, domain.ScheduledPending, createLoan(t, f, true).Status)
	assert.Equal(t, domain.ScheduledApproved, createLoan(t, f, false).Status)
}

func TestScheduledOperationUseCase_CreateValidation(t *testing.T) {
	tests := []struct {
		name  string
		input usecase.CreateScheduledInput
	}{
		{"unknown frequency", usecase.CreateScheduledInput{Type: "DEBIT", Amount: dec("10"), Description: "x", Category: "LOYER", Frequency: "WEEKLY"}},
		{"zero amount", usecase.CreateScheduledInput{Type: "DEBIT", Amount: dec("0"), Description: "x", Category: "LOYER", Frequency: "MONTHLY"}},
		{"missing description", usecase.CreateScheduledInput{Type: "DEBIT", Amount: dec("10"), Category: "LOYER", Frequency: "MONTHLY"}},
		{"negative total", usecase.CreateScheduledInput{Type: "DEBIT", Amount: dec("10"), Description: "x", Category: "LOYER", Frequency: "MONTHLY", TotalAmount: decPtr("-1")}},
		{"category mismatch", usecase.CreateScheduledInput{Type: "CREDIT", Amount: dec("10"), Description: "x", Category: "LOYER", Frequency: "MONTHLY"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, "0")

			_, err := f.scheduled.CreateOperation(context.Background(), tt.input)
			require.ErrorIs(t, err, domain.ErrValidation)
		})
	}
}

func TestScheduledOperationUseCase_RecordPayment(t *testing.T) {
	f := newFixture(t, "2000")
	ctx := context.Background()

	op := createLoan(t, f, false)

	result, err := f.scheduled.RecordPayment(ctx, op.ID, usecase.ScheduledPaymentInput{Date: date("2025-01-31")})
	require.NoError(t, err)

	assert.Equal(t, 1, result.Operation.PaymentsCount)
	assert.True(t, result.Operation.PaidAmount.Equal(dec("250")))
	assert.True(t, result.Operation.NextDate.Equal(date("2025-02-28")), "end-of-month dates are clamped")

	projection := result.Operation.Projection()
	require.NotNil(t, projection)
	assert.True(t, projection.RemainingTotalAmount.Equal(dec("750")))
	assert.EqualValues(t, 3, projection.MonthsRemainingTotal)
	assert.False(t, projection.Complete)

	assert.Equal(t, domain.TransactionDebit, result.Transaction.Type)
	assert.Equal(t, "MAINTENANCE", result.Transaction.Category)
	require.NotNil(t, result.Transaction.ScheduledOperationID)
	assert.Equal(t, op.ID, *result.Transaction.ScheduledOperationID)
	assert.Equal(t, result.Transaction.ID, result.Payment.TransactionID)

	assert.True(t, currentBalance(t, f).Amount.Equal(dec("1750")))

	payments, err := f.scheduled.ListPayments(ctx, op.ID)
	require.NoError(t, err)
	assert.Len(t, payments, 1)

	stored, err := f.scheduled.GetOperation(ctx, op.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.PaymentsCount)
}

func TestScheduledOperationUseCase_RecordPaymentStaysOnMonthEnd(t *testing.T) {
	f := newFixture(t, "2000")
	ctx := context.Background()

	op := createLoan(t, f, false)
	assert.Equal(t, 31, op.AnchorDay)

	for _, want := range []string{"2025-02-28", "2025-03-31", "2025-04-30"} {
		result, err := f.scheduled.RecordPayment(ctx, op.ID, usecase.ScheduledPaymentInput{Date: date("2025-01-31")})
		require.NoError(t, err)
		assert.True(t, result.Operation.NextDate.Equal(date(want)), "expected %s, got %s", want, result.Operation.NextDate)
	}

	next := date("2025-06-15")
	updated, err := f.scheduled.UpdateOperation(ctx, op.ID, usecase.UpdateScheduledInput{NextDate: &next})
	require.NoError(t, err)
	assert.Equal(t, 15, updated.AnchorDay)
}

func TestScheduledOperationUseCase_PaymentsCompleteTheSchedule(t *testing.T) {
	f := newFixture(t, "0")
	ctx := context.Background()

	op := createLoan(t, f, false)

	var last *usecase.ScheduledPaymentResult
	for range 4 {
		var err error
		last, err = f.scheduled.RecordPayment(ctx, op.ID, usecase.ScheduledPaymentInput{Date: date("2025-03-01")})
		require.NoError(t, err)
	}

	projection := last.Operation.Projection()
	require.NotNil(t, projection)
	assert.True(t, projection.Complete)
	assert.True(t, projection.RemainingTotalAmount.IsZero())
	assert.True(t, currentBalance(t, f).Amount.Equal(dec("-1000")))
}

func TestScheduledOperationUseCase_RecordPaymentCustomAmount(t *testing.T) {
	f := newFixture(t, "0")

	op := createLoan(t, f, false)

	result, err := f.scheduled.RecordPayment(context.Background(), op.ID, usecase.ScheduledPaymentInput{
		Amount: decPtr("100"),
		Date:   date("2025-01-31"),
	})
	require.NoError(t, err)
	assert.True(t, result.Operation.PaidAmount.Equal(dec("100")))
	assert.True(t, result.Operation.Projection().RemainingTotalAmount.Equal(dec("900")))
}

func TestScheduledOperationUseCase_RejectedRefusesPayments(t *testing.T) {
	f := newFixture(t, "0")
	ctx := context.Background()

	op := createLoan(t, f, true)

	rejected, err := f.scheduled.Reject(ctx, op.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ScheduledRejected, rejected.Status)

	_, err = f.scheduled.RecordPayment(ctx, op.ID, usecase.ScheduledPaymentInput{Date: date("2025-01-31")})
	require.ErrorIs(t, err, domain.ErrOperationRejected)
	require.ErrorIs(t, err, domain.ErrValidation)

	assert.Zero(t, f.txRepo.Len())
	assert.True(t, currentBalance(t, f).Amount.IsZero())

	approved, err := f.scheduled.Approve(ctx, op.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ScheduledApproved, approved.Status)
}

func TestScheduledOperationUseCase_RecordPaymentValidation(t *testing.T) {
	f := newFixture(t, "0")
	ctx := context.Background()

	op := createLoan(t, f, false)

	_, err := f.scheduled.RecordPayment(ctx, op.ID, usecase.ScheduledPaymentInput{Amount: decPtr("0"), Date: date("2025-01-31")})
	require.ErrorIs(t, err, domain.ErrValidation)

	_, err = f.scheduled.RecordPayment(ctx, op.ID, usecase.ScheduledPaymentInput{})
	require.ErrorIs(t, err, domain.ErrValidation)

	_, err = f.scheduled.RecordPayment(ctx, "missing", usecase.ScheduledPaymentInput{Date: date("2025-01-31")})
	require.ErrorIs(t, err, domain.ErrOperationNotFound)

	_, err = f.scheduled.ListPayments(ctx, "missing")
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestScheduledOperationUseCase_UpdateAndDelete(t *testing.T) {
	f := newFixture(t, "0")
	ctx := context.Background()

	op := createLoan(t, f, false)

	updated, err := f.scheduled.UpdateOperation(ctx, op.ID, usecase.UpdateScheduledInput{
		Frequency:  strPtr("QUARTERLY"),
		ClearTotal: true,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.FrequencyQuarterly, updated.Frequency)
	assert.Nil(t, updated.TotalAmount)
	assert.Nil(t, updated.Projection(), "open-ended operations have no projection")

	_, err = f.scheduled.UpdateOperation(ctx, op.ID, usecase.UpdateScheduledInput{Frequency: strPtr("HOURLY")})
	require.ErrorIs(t, err, domain.ErrInvalidFrequency)

	require.NoError(t, f.scheduled.DeleteOperation(ctx, op.ID))

	_, err = f.scheduled.GetOperation(ctx, op.ID)
	require.ErrorIs(t, err, domain.ErrNotFound)
}
