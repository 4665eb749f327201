package dto

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/retrobus-essonne/finance/internal/domain"
	"github.com/retrobus-essonne/finance/internal/usecase"
)

func TestDocumentFromDomain(t *testing.T) {
	due := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	doc := &domain.FinancialDocument{
		ID:         "doc-1",
		Type:       domain.DocumentInvoice,
		Number:     "FA-2025-001",
		Title:      "Prestation mariage",
		Date:       time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC),
		DueDate:    &due,
		Amount:     decimal.NewFromInt(500),
		AmountPaid: decimal.NewFromInt(200),
		PaymentHistory: []domain.PaymentRecord{
			{Amount: decimal.NewFromInt(200), Method: "Virement", Date: due},
		},
		Status:  domain.StatusDepositPaid,
		Version: 3,
	}

	resp := DocumentFromDomain(doc)
	if !resp.Remaining.Equal(decimal.NewFromInt(300)) {
		t.Fatalf("expected remaining 300, got %s", resp.Remaining)
	}
	if resp.DueDate == nil || resp.Status != "DEPOSIT_PAID" || resp.Version != 3 {
		t.Fatalf("unexpected response %+v", resp)
	}

	data, err := json.Marshal(resp)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	for _, want := range []string{`"date":"2025-02-01"`, `"dueDate":"2025-03-01"`, `"amountPaid":"200"`, `"lineItems":[]`} {
		if !strings.Contains(string(data), want) {
			t.Fatalf("expected %s in %s", want, data)
		}
	}
}

func TestChangeStatusFromResult(t *testing.T) {
	quote := &domain.FinancialDocument{ID: "q", Type: domain.DocumentQuote, Status: domain.StatusAccepted}

	withoutDraft := ChangeStatusFromResult(&usecase.ChangeStatusResult{Document: quote})
	if withoutDraft.DraftInvoice != nil {
		t.Fatal("expected no draft")
	}

	draft := &domain.FinancialDocument{Type: domain.DocumentInvoice, Number: "FA-2025-002", Status: domain.StatusDraft}
	withDraft := ChangeStatusFromResult(&usecase.ChangeStatusResult{Document: quote, Draft: draft})
	if withDraft.DraftInvoice == nil || withDraft.DraftInvoice.Number != "FA-2025-002" {
		t.Fatalf("unexpected draft %+v", withDraft.DraftInvoice)
	}
}

func TestScheduledOperationFromDomain(t *testing.T) {
	total := decimal.NewFromInt(1000)
	op := &domain.ScheduledOperation{
		ID:            "op-1",
		Type:          domain.TransactionDebit,
		Amount:        decimal.NewFromInt(250),
		Frequency:     domain.FrequencyMonthly,
		NextDate:      time.Date(2025, 2, 28, 0, 0, 0, 0, time.UTC),
		TotalAmount:   &total,
		PaymentsCount: 1,
		PaidAmount:    decimal.NewFromInt(250),
		Status:        domain.ScheduledApproved,
	}

	resp := ScheduledOperationFromDomain(op)
	if resp.Projection == nil {
		t.Fatal("expected projection")
	}
	if !resp.Projection.RemainingTotalAmount.Equal(decimal.NewFromInt(750)) || resp.Projection.MonthsRemainingTotal != 3 {
		t.Fatalf("unexpected projection %+v", resp.Projection)
	}

	op.TotalAmount = nil
	if ScheduledOperationFromDomain(op).Projection != nil {
		t.Fatal("open-ended operations have no projection")
	}
}

func TestCategoryBreakdownFromReport(t *testing.T) {
	period, err := domain.ParsePeriod("2025-01")
	if err != nil {
		t.Fatalf("parse period: %v", err)
	}

	resp := CategoryBreakdownFromReport(&usecase.CategoryReport{
		Period: period,
		Categories: []domain.CategoryTotals{
			{Category: "EVENEMENT", Credits: decimal.NewFromInt(15), Debits: decimal.NewFromInt(5)},
		},
	})

	if resp.Period != "2025-01" {
		t.Fatalf("unexpected period %q", resp.Period)
	}
	got := resp.Categories["EVENEMENT"]
	if got == nil || !got.Bilan.Equal(decimal.NewFromInt(10)) {
		t.Fatalf("unexpected totals %+v", got)
	}
}

func TestMonthlyBreakdownFromReport(t *testing.T) {
	var months [12]domain.MonthTotals
	for i := range months {
		months[i] = domain.MonthTotals{Month: time.Month(i + 1), Credits: decimal.Zero, Debits: decimal.Zero}
	}
	months[2].Credits = decimal.NewFromInt(100)
	months[2].Debits = decimal.NewFromInt(40)

	resp := MonthlyBreakdownFromReport(&usecase.MonthlyReport{Year: 2025, Months: months})
	if len(resp.Months) != 12 || resp.Months[2].Month != 3 {
		t.Fatalf("unexpected months %+v", resp.Months)
	}
	if !resp.Months[2].Balance.Equal(decimal.NewFromInt(60)) {
		t.Fatalf("unexpected balance %s", resp.Months[2].Balance)
	}
}

func TestZeroDateMarshalsNull(t *testing.T) {
	data, err := json.Marshal(struct {
		D Date `json:"d"`
	}{})
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	if string(data) != `{"d":null}` {
		t.Fatalf("unexpected json %s", data)
	}
}
