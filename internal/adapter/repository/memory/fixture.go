package memory

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/retrobus-essonne/finance/internal/domain"
)

// SeedFixture fills an empty store with a small, consistent data set so the
// service is usable without a database. Dates are relative to now.
func (s *Store) SeedFixture(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	year := now.Year()
	day := func(monthsAgo, d int) time.Time {
		return time.Date(year, now.Month(), d, 0, 0, 0, 0, time.UTC).AddDate(0, -monthsAgo, 0)
	}
	dec := decimal.RequireFromString
	eventID := "bourse-autocars-printemps"

	txs := []*domain.Transaction{
		{ID: "seed-tx-01", Type: domain.TransactionCredit, Amount: dec("30"), Description: "Adhésion annuelle J. Martin", Category: "ADHESION", Date: day(3, 5)},
		{ID: "seed-tx-02", Type: domain.TransactionCredit, Amount: dec("30"), Description: "Adhésion annuelle C. Lefèvre", Category: "ADHESION", Date: day(3, 12)},
		{ID: "seed-tx-03", Type: domain.TransactionCredit, Amount: dec("500"), Description: "Subvention communale", Category: "SUBVENTION", Date: day(2, 2)},
		{ID: "seed-tx-04", Type: domain.TransactionDebit, Amount: dec("85.40"), Description: "Gazole sortie rétro", Category: "CARBURANT", Date: day(2, 14)},
		{ID: "seed-tx-05", Type: domain.TransactionCredit, Amount: dec("240"), Description: "Billetterie bourse", Category: "EVENEMENT", Date: day(1, 6), EventID: &eventID},
		{ID: "seed-tx-06", Type: domain.TransactionDebit, Amount: dec("120"), Description: "Location stand bourse", Category: "EVENEMENT", Date: day(1, 3), EventID: &eventID},
		{ID: "seed-tx-07", Type: domain.TransactionDebit, Amount: dec("250"), Description: "Échéance prêt restauration", Category: "MAINTENANCE", Date: day(1, 28)},
	}

	opening := dec("1500")
	for _, t := range txs {
		t.CreatedAt = t.Date
		t.UpdatedAt = t.Date
		s.transactions[t.ID] = t
	}

	s.balance = domain.Balance{
		Opening:   opening,
		Amount:    opening.Add(domain.SignedTotal(txs)),
		Version:   int64(len(txs)),
		UpdatedAt: now,
	}

	due := day(-1, 15)
	docs := []*domain.FinancialDocument{
		{
			ID:     "seed-doc-01",
			Type:   domain.DocumentQuote,
			Number: domain.FormatNumber(domain.DocumentQuote, year, 1),
			Title:  "Location autocar Saviem SC10 pour mariage",
			Date:   day(1, 10),
			Amount: dec("1200"),
			Status: domain.StatusSent,
			Recipient: domain.Recipient{
				Name:  "Famille Durand",
				Email: "durand@example.org",
			},
			LineItems: []domain.LineItem{
				{Description: "Mise à disposition autocar (journée)", Quantity: dec("1"), UnitPrice: dec("950"), Total: dec("950")},
				{Description: "Chauffeur bénévole, frais de route", Quantity: dec("1"), UnitPrice: dec("250"), Total: dec("250")},
			},
		},
		{
			ID:      "seed-doc-02",
			Type:    domain.DocumentInvoice,
			Number:  domain.FormatNumber(domain.DocumentInvoice, year, 1),
			Title:   "Prestation journée du patrimoine",
			Date:    day(1, 20),
			DueDate: &due,
			Amount:  dec("650"),
			Status:  domain.StatusDepositPaid,
			Recipient: domain.Recipient{
				Name:    "Mairie de Corbeil-Essonnes",
				Address: "2 place Galignani, 91100 Corbeil-Essonnes",
			},
			PaymentHistory: []domain.PaymentRecord{
				{Date: day(0, 1), Method: "Virement", Amount: dec("200")},
			},
		},
	}

	for _, d := range docs {
		d.AmountPaid = d.HistoryTotal()
		d.Version = 1
		d.CreatedAt = d.Date
		d.UpdatedAt = d.Date
		s.documents[d.ID] = d
	}

	loanTotal := dec("3000")
	ops := []*domain.ScheduledOperation{
		{
			ID:            "seed-op-01",
			Type:          domain.TransactionDebit,
			Amount:        dec("250"),
			Description:   "Prêt restauration Saviem SC10",
			Category:      "MAINTENANCE",
			Frequency:     domain.FrequencyMonthly,
			NextDate:      day(0, 28),
			TotalAmount:   &loanTotal,
			PaymentsCount: 1,
			PaidAmount:    dec("250"),
			Status:        domain.ScheduledApproved,
		},
		{
			ID:          "seed-op-02",
			Type:        domain.TransactionDebit,
			Amount:      dec("420"),
			Description: "Assurance flotte véhicules",
			Category:    "ASSURANCE",
			Frequency:   domain.FrequencyAnnual,
			NextDate:    day(-2, 1),
			Status:      domain.ScheduledPending,
		},
	}

	for _, op := range ops {
		op.CreatedAt = now
		op.UpdatedAt = now
		s.operations[op.ID] = op
	}

	s.payments["seed-op-01"] = []*domain.ScheduledPayment{
		{ID: "seed-pay-01", OperationID: "seed-op-01", Amount: dec("250"), Date: day(1, 28), TransactionID: "seed-tx-07", CreatedAt: day(1, 28)},
	}
}
