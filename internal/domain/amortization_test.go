package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func decPtr(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func TestAmortize(t *testing.T) {
	next := time.Date(2025, 4, 15, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name          string
		input         AmortizationInput
		wantNil       bool
		wantRemaining string
		wantMonths    int64
		wantEnd       time.Time
		wantComplete  bool
	}{
		{
			name: "monthly loan after three payments",
			input: AmortizationInput{
				Frequency: FrequencyMonthly, Amount: decimal.NewFromInt(100),
				TotalAmount: decPtr("1200"), PaymentsCount: 3, NextDate: next,
			},
			wantRemaining: "900",
			wantMonths:    9,
			wantEnd:       time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC),
		},
		{
			name: "quarterly with partial last period",
			input: AmortizationInput{
				Frequency: FrequencyQuarterly, Amount: decimal.NewFromInt(250),
				TotalAmount: decPtr("1000"), PaymentsCount: 1, NextDate: next,
			},
			wantRemaining: "750",
			wantMonths:    9,
			wantEnd:       time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC),
		},
		{
			name: "remaining not a multiple of amount rounds up",
			input: AmortizationInput{
				Frequency: FrequencyMonthly, Amount: decimal.NewFromInt(300),
				TotalAmount: decPtr("1000"), PaymentsCount: 0, NextDate: next,
			},
			wantRemaining: "1000",
			wantMonths:    4,
			wantEnd:       time.Date(2025, 8, 15, 0, 0, 0, 0, time.UTC),
		},
		{
			name: "paid amount overrides count times amount",
			input: AmortizationInput{
				Frequency: FrequencyAnnual, Amount: decimal.NewFromInt(100),
				TotalAmount: decPtr("500"), PaymentsCount: 1, PaidAmount: decPtr("250"), NextDate: next,
			},
			wantRemaining: "250",
			wantMonths:    36,
			wantEnd:       time.Date(2028, 4, 15, 0, 0, 0, 0, time.UTC),
		},
		{
			name: "overpaid clamps to zero",
			input: AmortizationInput{
				Frequency: FrequencySemiAnnual, Amount: decimal.NewFromInt(100),
				TotalAmount: decPtr("300"), PaymentsCount: 5, NextDate: next,
			},
			wantRemaining: "0",
			wantMonths:    0,
			wantEnd:       next,
			wantComplete:  true,
		},
		{
			name: "one-off payment",
			input: AmortizationInput{
				Frequency: FrequencyOnce, Amount: decimal.NewFromInt(80),
				TotalAmount: decPtr("80"), NextDate: next,
			},
			wantRemaining: "80",
			wantMonths:    0,
			wantEnd:       next,
		},
		{
			name: "open-ended operation",
			input: AmortizationInput{
				Frequency: FrequencyMonthly, Amount: decimal.NewFromInt(50), PaymentsCount: 2, NextDate: next,
			},
			wantNil: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Amortize(tt.input)
			if tt.wantNil {
				if got != nil {
					t.Fatalf("expected no projection, got %+v", got)
				}
				return
			}

			if got == nil {
				t.Fatal("expected projection")
			}
			if !got.RemainingTotalAmount.Equal(decimal.RequireFromString(tt.wantRemaining)) {
				t.Errorf("remaining: expected %s, got %s", tt.wantRemaining, got.RemainingTotalAmount)
			}
			if got.MonthsRemainingTotal != tt.wantMonths {
				t.Errorf("months: expected %d, got %d", tt.wantMonths, got.MonthsRemainingTotal)
			}
			if !got.EstimatedEndDate.Equal(tt.wantEnd) {
				t.Errorf("end date: expected %s, got %s", tt.wantEnd, got.EstimatedEndDate)
			}
			if got.Complete != tt.wantComplete {
				t.Errorf("complete: expected %v, got %v", tt.wantComplete, got.Complete)
			}
		})
	}
}

func TestAddMonthsClampsDay(t *testing.T) {
	tests := []struct {
		from time.Time
		n    int
		want time.Time
	}{
		{time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC), 1, time.Date(2025, 2, 28, 0, 0, 0, 0, time.UTC)},
		{time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC), 1, time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC)},
		{time.Date(2025, 8, 31, 0, 0, 0, 0, time.UTC), 3, time.Date(2025, 11, 30, 0, 0, 0, 0, time.UTC)},
		{time.Date(2025, 11, 15, 0, 0, 0, 0, time.UTC), 2, time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		if got := AddMonths(tt.from, tt.n); !got.Equal(tt.want) {
			t.Errorf("AddMonths(%s, %d): expected %s, got %s", tt.from.Format("2006-01-02"), tt.n, tt.want.Format("2006-01-02"), got.Format("2006-01-02"))
		}
	}
}

func TestScheduledOperation_RecordPayment(t *testing.T) {
	op := &ScheduledOperation{
		Type:        TransactionDebit,
		Amount:      decimal.NewFromInt(100),
		Description: "Prêt restauration",
		Category:    "MAINTENANCE",
		Frequency:   FrequencyMonthly,
		NextDate:    time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC),
		TotalAmount: decPtr("1200"),
		Status:      ScheduledApproved,
	}

	if err := op.RecordPayment(decimal.NewFromInt(100)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if op.PaymentsCount != 1 || !op.PaidAmount.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("unexpected counters: count=%d paid=%s", op.PaymentsCount, op.PaidAmount)
	}
	if !op.NextDate.Equal(time.Date(2025, 2, 28, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("next date not advanced: %s", op.NextDate)
	}
	if p := op.Projection(); !p.RemainingTotalAmount.Equal(decimal.NewFromInt(1100)) {
		t.Fatalf("expected remaining 1100, got %s", p.RemainingTotalAmount)
	}

	if err := op.RecordPayment(decimal.Zero); err == nil {
		t.Fatal("expected zero payment to fail")
	}

	op.Status = ScheduledRejected
	if err := op.RecordPayment(decimal.NewFromInt(100)); err != ErrOperationRejected {
		t.Fatalf("expected ErrOperationRejected, got %v", err)
	}
}

func TestParseFrequency(t *testing.T) {
	if f, err := ParseFrequency("semi_annual"); err != nil || f != FrequencySemiAnnual {
		t.Fatalf("expected SEMI_ANNUAL, got %q err=%v", f, err)
	}
	if _, err := ParseFrequency("WEEKLY"); err == nil {
		t.Fatal("expected unknown frequency to fail")
	}
}

func TestScheduledOperation_RecordPaymentKeepsMonthEnd(t *testing.T) {
	op := &ScheduledOperation{
		Type:        TransactionDebit,
		Amount:      decimal.NewFromInt(100),
		Description: "Assurance autocar",
		Category:    "ASSURANCE",
		Frequency:   FrequencyMonthly,
		Status:      ScheduledApproved,
	}
	op.Reschedule(time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC))

	want := []time.Time{
		time.Date(2025, 2, 28, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 4, 30, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 5, 31, 0, 0, 0, 0, time.UTC),
	}
	for i, w := range want {
		if err := op.RecordPayment(decimal.NewFromInt(100)); err != nil {
			t.Fatalf("payment %d: unexpected error: %v", i+1, err)
		}
		if !op.NextDate.Equal(w) {
			t.Fatalf("payment %d: expected next date %s, got %s", i+1, w.Format(time.DateOnly), op.NextDate.Format(time.DateOnly))
		}
	}
}

func TestAddMonthsOnDay(t *testing.T) {
	from := time.Date(2025, 2, 28, 0, 0, 0, 0, time.UTC)

	if got := AddMonthsOnDay(from, 1, 31); !got.Equal(time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("expected anchor day restored, got %s", got.Format(time.DateOnly))
	}
	if got := AddMonthsOnDay(from, 1, 0); !got.Equal(time.Date(2025, 3, 28, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("expected own day without anchor, got %s", got.Format(time.DateOnly))
	}
	if got := AddMonthsOnDay(from, 12, 30); !got.Equal(time.Date(2026, 2, 28, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("expected clamp in short month, got %s", got.Format(time.DateOnly))
	}
}
