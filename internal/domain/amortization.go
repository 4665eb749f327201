package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// AmortizationInput holds the authoritative stored fields of a scheduled operation.
type AmortizationInput struct {
	Frequency     Frequency
	Amount        decimal.Decimal
	TotalAmount   *decimal.Decimal
	PaymentsCount int
	// PaidAmount overrides Amount × PaymentsCount when installments differed.
	PaidAmount *decimal.Decimal
	NextDate   time.Time
	// AnchorDay is the day of month installments fall on. Zero means the day
	// of NextDate.
	AnchorDay int
}

// Projection is the derived amortization view. It is never persisted.
type Projection struct {
	RemainingTotalAmount decimal.Decimal
	PeriodsRemaining     int64
	MonthsRemainingTotal int64
	EstimatedEndDate     time.Time
	Complete             bool
}

// Amortize projects the remaining total and end date of an operation.
// It returns nil for open-ended operations (no total amount).
func Amortize(in AmortizationInput) *Projection {
	if in.TotalAmount == nil {
		return nil
	}

	paid := in.Amount.Mul(decimal.NewFromInt(int64(in.PaymentsCount)))
	if in.PaidAmount != nil {
		paid = *in.PaidAmount
	}

	remaining := decimal.Max(decimal.Zero, in.TotalAmount.Sub(paid))

	var periods int64
	switch {
	case remaining.IsZero():
		periods = 0
	case in.Frequency == FrequencyOnce:
		periods = 1
	case in.Amount.IsPositive():
		periods = remaining.Div(in.Amount).Ceil().IntPart()
	}

	months := periods * int64(in.Frequency.MonthsPerPeriod())

	end := in.NextDate
	if months > 0 {
		end = AddMonthsOnDay(in.NextDate, int(months), in.AnchorDay)
	}

	return &Projection{
		RemainingTotalAmount: remaining,
		PeriodsRemaining:     periods,
		MonthsRemainingTotal: months,
		EstimatedEndDate:     end,
		Complete:             remaining.IsZero(),
	}
}

// AddMonths adds n calendar months to t, clamping the day to the last day of
// the target month (31 Jan + 1 month = 28/29 Feb).
func AddMonths(t time.Time, n int) time.Time {
	if n == 0 {
		return t
	}

	return AddMonthsOnDay(t, n, t.Day())
}

// AddMonthsOnDay moves t n calendar months ahead and lands on day, or on the
// last day of the target month when it is shorter. Chaining calls with the
// same day keeps a schedule on its anchor: 31 Jan, 28 Feb, 31 Mar.
func AddMonthsOnDay(t time.Time, n, day int) time.Time {
	first := time.Date(t.Year(), t.Month(), 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	target := first.AddDate(0, n, 0)
	lastDay := target.AddDate(0, 1, -1).Day()

	if day < 1 {
		day = t.Day()
	}
	if day > lastDay {
		day = lastDay
	}

	return time.Date(target.Year(), target.Month(), day, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}
