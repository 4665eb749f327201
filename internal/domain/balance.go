package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Balance is the association's single running balance.
// Amount always equals Opening plus the signed sum of all transactions.
type Balance struct {
	Amount    decimal.Decimal
	Opening   decimal.Decimal
	Locked    bool
	Version   int64
	UpdatedAt time.Time
}

// Apply adds a signed delta to the running amount.
func (b *Balance) Apply(delta decimal.Decimal) {
	b.Amount = b.Amount.Add(delta)
}

// Override forces the balance to target. The opening amount absorbs the
// difference so that the consistency rule keeps holding.
func (b *Balance) Override(target decimal.Decimal) error {
	if b.Locked {
		return ErrBalanceLocked
	}

	b.Opening = b.Opening.Add(target.Sub(b.Amount))
	b.Amount = target

	return nil
}

// Expected returns the balance implied by the opening amount and the ledger.
func (b *Balance) Expected(signedTotal decimal.Decimal) decimal.Decimal {
	return b.Opening.Add(signedTotal)
}
