package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Frequency is the recurrence period of a scheduled operation.
type Frequency string

const (
	FrequencyMonthly    Frequency = "MONTHLY"
	FrequencyQuarterly  Frequency = "QUARTERLY"
	FrequencySemiAnnual Frequency = "SEMI_ANNUAL"
	FrequencyAnnual     Frequency = "ANNUAL"
	FrequencyOnce       Frequency = "ONCE"
)

var monthsPerPeriod = map[Frequency]int{
	FrequencyMonthly:    1,
	FrequencyQuarterly:  3,
	FrequencySemiAnnual: 6,
	FrequencyAnnual:     12,
	FrequencyOnce:       0,
}

// ParseFrequency normalizes user input into a Frequency.
func ParseFrequency(s string) (Frequency, error) {
	f := Frequency(strings.ToUpper(strings.TrimSpace(s)))
	if _, ok := monthsPerPeriod[f]; !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalidFrequency, s)
	}

	return f, nil
}

// MonthsPerPeriod returns the number of months between two occurrences.
// ONCE has no period and returns 0.
func (f Frequency) MonthsPerPeriod() int {
	return monthsPerPeriod[f]
}

// ScheduledStatus is the approval state of a scheduled operation.
type ScheduledStatus string

const (
	ScheduledPending  ScheduledStatus = "PENDING"
	ScheduledApproved ScheduledStatus = "APPROVED"
	ScheduledRejected ScheduledStatus = "REJECTED"
)

// ScheduledOperation is a recurring or planned payment, such as a loan
// installment or an insurance premium. AnchorDay is the day of month
// installments fall on; NextDate is clamped to it in shorter months and zero
// means NextDate's own day.
type ScheduledOperation struct {
	ID            string
	Type          TransactionType
	Amount        decimal.Decimal
	Description   string
	Category      string
	Frequency     Frequency
	NextDate      time.Time
	AnchorDay     int
	TotalAmount   *decimal.Decimal
	PaymentsCount int
	PaidAmount    decimal.Decimal
	Status        ScheduledStatus
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Validate checks the operation invariants.
func (o *ScheduledOperation) Validate() error {
	if !o.Type.IsValid() {
		return ErrInvalidType
	}

	if err := ValidateAmount(o.Amount); err != nil {
		return err
	}

	if err := ValidateRequired("description", o.Description, MaxDescriptionLength); err != nil {
		return err
	}

	if err := ValidateRequired("category", o.Category, 64); err != nil {
		return err
	}

	if _, ok := monthsPerPeriod[o.Frequency]; !ok {
		return ErrInvalidFrequency
	}

	if o.NextDate.IsZero() {
		return fmt.Errorf("%w: next date is required", ErrValidation)
	}

	if o.AnchorDay < 0 || o.AnchorDay > 31 {
		return fmt.Errorf("%w: anchor day must be between 1 and 31", ErrValidation)
	}

	if o.TotalAmount != nil {
		if err := ValidateNonNegative("total amount", *o.TotalAmount); err != nil {
			return err
		}
	}

	if o.PaymentsCount < 0 {
		return fmt.Errorf("%w: payments count cannot be negative", ErrValidation)
	}

	return nil
}

// RecordPayment registers one installment of amount. It increments the
// payment counter, accumulates the paid amount and advances the next date by
// one period, staying on the anchor day.
func (o *ScheduledOperation) RecordPayment(amount decimal.Decimal) error {
	if o.Status == ScheduledRejected {
		return ErrOperationRejected
	}

	if err := ValidateAmount(amount); err != nil {
		return err
	}

	o.PaymentsCount++
	o.PaidAmount = o.PaidAmount.Add(amount)

	if months := o.Frequency.MonthsPerPeriod(); months > 0 {
		o.NextDate = AddMonthsOnDay(o.NextDate, months, o.AnchorDay)
	}

	return nil
}

// Projection computes the amortization view of the operation.
func (o *ScheduledOperation) Projection() *Projection {
	paid := o.PaidAmount

	return Amortize(AmortizationInput{
		Frequency:     o.Frequency,
		Amount:        o.Amount,
		TotalAmount:   o.TotalAmount,
		PaymentsCount: o.PaymentsCount,
		PaidAmount:    &paid,
		NextDate:      o.NextDate,
		AnchorDay:     o.AnchorDay,
	})
}

// Reschedule moves the next installment to next and re-anchors the
// schedule on its day of month.
func (o *ScheduledOperation) Reschedule(next time.Time) {
	o.NextDate = next
	o.AnchorDay = next.Day()
}

// Clone returns a deep copy of o.
func (o *ScheduledOperation) Clone() *ScheduledOperation {
	c := *o
	if o.TotalAmount != nil {
		total := *o.TotalAmount
		c.TotalAmount = &total
	}

	return &c
}

// ScheduledPayment is one installment paid against a scheduled operation.
type ScheduledPayment struct {
	ID            string
	OperationID   string
	Amount        decimal.Decimal
	Date          time.Time
	TransactionID string
	CreatedAt     time.Time
}
