package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType is the direction of a ledger movement.
type TransactionType string

const (
	TransactionCredit TransactionType = "CREDIT"
	TransactionDebit  TransactionType = "DEBIT"
)

// IsValid reports whether t is CREDIT or DEBIT.
func (t TransactionType) IsValid() bool {
	return t == TransactionCredit || t == TransactionDebit
}

// ParseTransactionType normalizes user input into a TransactionType.
func ParseTransactionType(s string) (TransactionType, error) {
	t := TransactionType(strings.ToUpper(strings.TrimSpace(s)))
	if !t.IsValid() {
		return "", ErrInvalidType
	}

	return t, nil
}

// Transaction is a single movement of money in the association's ledger.
type Transaction struct {
	ID          string
	Type        TransactionType
	Amount      decimal.Decimal
	Description string
	Category    string
	Date        time.Time
	EventID     *string
	// ScheduledOperationID is set when the movement was booked by a scheduled payment.
	ScheduledOperationID *string
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// SignedAmount returns the effect of the transaction on the balance.
func (t *Transaction) SignedAmount() decimal.Decimal {
	if t.Type == TransactionDebit {
		return t.Amount.Neg()
	}

	return t.Amount
}

// Validate checks the transaction invariants.
func (t *Transaction) Validate() error {
	if !t.Type.IsValid() {
		return ErrInvalidType
	}

	if err := ValidateNonNegative("amount", t.Amount); err != nil {
		return err
	}

	if err := ValidateRequired("description", t.Description, MaxDescriptionLength); err != nil {
		return err
	}

	if err := ValidateRequired("category", t.Category, 64); err != nil {
		return err
	}

	if t.Date.IsZero() {
		return fmt.Errorf("%w: date is required", ErrValidation)
	}

	return nil
}

// SignedTotal sums the balance effect of the given transactions.
func SignedTotal(txs []*Transaction) decimal.Decimal {
	total := decimal.Zero
	for _, t := range txs {
		total = total.Add(t.SignedAmount())
	}

	return total
}
