package domain

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// CategoryTotals aggregates the movements of one category.
type CategoryTotals struct {
	Category string
	Credits  decimal.Decimal
	Debits   decimal.Decimal
}

// Bilan is credits minus debits.
func (c CategoryTotals) Bilan() decimal.Decimal {
	return c.Credits.Sub(c.Debits)
}

// MonthTotals aggregates the movements of one calendar month.
type MonthTotals struct {
	Month   time.Month
	Credits decimal.Decimal
	Debits  decimal.Decimal
}

// Balance is credits minus debits for the month.
func (m MonthTotals) Balance() decimal.Decimal {
	return m.Credits.Sub(m.Debits)
}

// CategoryBreakdown groups transactions by category.
func CategoryBreakdown(txs []*Transaction) map[string]CategoryTotals {
	out := make(map[string]CategoryTotals)
	for _, t := range txs {
		ct := out[t.Category]
		ct.Category = t.Category
		if t.Type == TransactionCredit {
			ct.Credits = ct.Credits.Add(t.Amount)
		} else {
			ct.Debits = ct.Debits.Add(t.Amount)
		}
		out[t.Category] = ct
	}

	return out
}

// SortedBreakdown returns the breakdown ordered by category name.
func SortedBreakdown(m map[string]CategoryTotals) []CategoryTotals {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]CategoryTotals, 0, len(keys))
	for _, k := range keys {
		out = append(out, m[k])
	}

	return out
}

// MonthlyBreakdown returns twelve buckets, January to December, for year.
// Transactions dated in other years are ignored.
func MonthlyBreakdown(txs []*Transaction, year int) [12]MonthTotals {
	var out [12]MonthTotals
	for i := range out {
		out[i] = MonthTotals{Month: time.Month(i + 1), Credits: decimal.Zero, Debits: decimal.Zero}
	}

	for _, t := range txs {
		if t.Date.Year() != year {
			continue
		}

		b := &out[t.Date.Month()-1]
		if t.Type == TransactionCredit {
			b.Credits = b.Credits.Add(t.Amount)
		} else {
			b.Debits = b.Debits.Add(t.Amount)
		}
	}

	return out
}

// Period selects a time range for reports: everything, a year or a month.
type Period struct {
	Year  int
	Month time.Month // zero for a whole year
}

// AllTime is the unbounded period.
var AllTime = Period{}

// ParsePeriod accepts "all" (or empty), "YYYY" and "YYYY-MM".
func ParsePeriod(s string) (Period, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "" || s == "all" {
		return AllTime, nil
	}

	if t, err := time.Parse("2006-01", s); err == nil {
		return Period{Year: t.Year(), Month: t.Month()}, nil
	}

	if t, err := time.Parse("2006", s); err == nil {
		return Period{Year: t.Year()}, nil
	}

	return AllTime, fmt.Errorf("%w: period must be all, YYYY or YYYY-MM", ErrValidation)
}

// Contains reports whether t falls inside the period.
func (p Period) Contains(t time.Time) bool {
	if p.Year == 0 {
		return true
	}

	if t.Year() != p.Year {
		return false
	}

	return p.Month == 0 || t.Month() == p.Month
}

// String renders the period in its parseable form.
func (p Period) String() string {
	switch {
	case p.Year == 0:
		return "all"
	case p.Month == 0:
		return fmt.Sprintf("%04d", p.Year)
	default:
		return fmt.Sprintf("%04d-%02d", p.Year, int(p.Month))
	}
}

// FilterByPeriod keeps the transactions dated inside p.
func FilterByPeriod(txs []*Transaction, p Period) []*Transaction {
	if p == AllTime {
		return txs
	}

	out := make([]*Transaction, 0, len(txs))
	for _, t := range txs {
		if p.Contains(t.Date) {
			out = append(out, t)
		}
	}

	return out
}
