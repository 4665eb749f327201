package domain

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DocumentType distinguishes quotes (devis) from invoices (factures).
type DocumentType string

const (
	DocumentQuote   DocumentType = "QUOTE"
	DocumentInvoice DocumentType = "INVOICE"
)

// ParseDocumentType normalizes user input into a DocumentType.
func ParseDocumentType(s string) (DocumentType, error) {
	t := DocumentType(strings.ToUpper(strings.TrimSpace(s)))
	if t != DocumentQuote && t != DocumentInvoice {
		return "", fmt.Errorf("%w: %q", ErrUnknownDocType, s)
	}

	return t, nil
}

// DocumentStatus is the lifecycle state of a financial document.
type DocumentStatus string

const (
	StatusDraft          DocumentStatus = "DRAFT"
	StatusSent           DocumentStatus = "SENT"
	StatusAccepted       DocumentStatus = "ACCEPTED"
	StatusRejected       DocumentStatus = "REJECTED"
	StatusReedited       DocumentStatus = "REEDITED"
	StatusPendingPayment DocumentStatus = "PENDING_PAYMENT"
	StatusDepositPaid    DocumentStatus = "DEPOSIT_PAID"
	StatusPaid           DocumentStatus = "PAID"
)

var allowedStatuses = map[DocumentType][]DocumentStatus{
	DocumentQuote:   {StatusDraft, StatusSent, StatusAccepted, StatusRejected, StatusReedited},
	DocumentInvoice: {StatusDraft, StatusSent, StatusPendingPayment, StatusDepositPaid, StatusPaid},
}

// AllowedStatuses returns the statuses a document of type t may hold.
func AllowedStatuses(t DocumentType) []DocumentStatus {
	return slices.Clone(allowedStatuses[t])
}

// IsAllowedStatus reports whether s belongs to the status set of t.
func IsAllowedStatus(t DocumentType, s DocumentStatus) bool {
	return slices.Contains(allowedStatuses[t], s)
}

// PaymentRecord is one partial payment received against a document.
type PaymentRecord struct {
	Date   time.Time       `json:"date"`
	Method string          `json:"method"`
	Amount decimal.Decimal `json:"amount"`
}

// LineItem is one row of a quote or invoice.
type LineItem struct {
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	Total       decimal.Decimal `json:"total"`
}

// LineTotal returns the explicit total, or quantity times unit price.
func (l LineItem) LineTotal() decimal.Decimal {
	if !l.Total.IsZero() {
		return l.Total
	}

	return l.Quantity.Mul(l.UnitPrice)
}

// Recipient is the party a document is addressed to.
type Recipient struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
}

// FinancialDocument is a quote or an invoice.
type FinancialDocument struct {
	ID             string
	Type           DocumentType
	Number         string
	Title          string
	Description    string
	Date           time.Time
	DueDate        *time.Time
	Amount         decimal.Decimal
	AmountPaid     decimal.Decimal
	PaymentHistory []PaymentRecord
	Status         DocumentStatus
	Recipient      Recipient
	LineItems      []LineItem
	Notes          string
	HTMLContent    string
	DocumentURL    string
	SourceQuoteID  *string
	Version        int64
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Validate checks the document invariants.
func (d *FinancialDocument) Validate() error {
	if d.Type != DocumentQuote && d.Type != DocumentInvoice {
		return ErrUnknownDocType
	}

	if err := ValidateRequired("number", d.Number, MaxNumberLength); err != nil {
		return err
	}

	if err := ValidateRequired("title", d.Title, MaxTitleLength); err != nil {
		return err
	}

	if err := ValidateNonNegative("amount", d.Amount); err != nil {
		return err
	}

	if !IsAllowedStatus(d.Type, d.Status) {
		return fmt.Errorf("%w: %s is not a %s status", ErrValidation, d.Status, d.Type)
	}

	if err := ValidateEmail(d.Recipient.Email); err != nil {
		return err
	}

	if d.AmountPaid.IsNegative() {
		return fmt.Errorf("%w: amount paid cannot be negative", ErrValidation)
	}

	if d.AmountPaid.GreaterThan(d.Amount) {
		return ErrAmountBelowPaid
	}

	if !d.AmountPaid.Equal(d.HistoryTotal()) {
		return fmt.Errorf("%w: amount paid does not match payment history", ErrValidation)
	}

	return nil
}

// HistoryTotal sums the payment history.
func (d *FinancialDocument) HistoryTotal() decimal.Decimal {
	total := decimal.Zero
	for _, p := range d.PaymentHistory {
		total = total.Add(p.Amount)
	}

	return total
}

// Remaining returns the amount still due.
func (d *FinancialDocument) Remaining() decimal.Decimal {
	return decimal.Max(decimal.Zero, d.Amount.Sub(d.AmountPaid))
}

// ChangeStatus moves the document to status s. Any status of the type's set
// is reachable from any other.
func (d *FinancialDocument) ChangeStatus(s DocumentStatus) error {
	if !IsAllowedStatus(d.Type, s) {
		return fmt.Errorf("%w: %s is not a valid %s status", ErrInvalidTransition, s, d.Type)
	}

	d.Status = s

	return nil
}

// ValidatePayment checks a payment before it is applied.
func ValidatePayment(p PaymentRecord) error {
	if p.Amount.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidAmount
	}

	if strings.TrimSpace(p.Method) == "" || p.Date.IsZero() {
		return ErrMissingPaymentRef
	}

	return nil
}

// RecordPayment adds p to the amount paid and the payment history.
// The status is left untouched.
func (d *FinancialDocument) RecordPayment(p PaymentRecord) error {
	if err := ValidatePayment(p); err != nil {
		return err
	}

	newTotal := d.AmountPaid.Add(p.Amount)
	if newTotal.GreaterThan(d.Amount) {
		return fmt.Errorf("%w: %s paid would exceed %s", ErrOverpayment, newTotal.StringFixed(2), d.Amount.StringFixed(2))
	}

	d.AmountPaid = newTotal
	d.PaymentHistory = append(d.PaymentHistory, p)

	return nil
}

// PaymentDelta converts a cumulative paid total into the increment over what
// is already recorded.
func (d *FinancialDocument) PaymentDelta(cumulative decimal.Decimal) (decimal.Decimal, error) {
	delta := cumulative.Sub(d.AmountPaid)
	if delta.IsNegative() {
		return decimal.Zero, ErrNegativePayment
	}

	return delta, nil
}

// DraftInvoice builds an unsaved invoice from an accepted quote.
func (d *FinancialDocument) DraftInvoice(number string, now time.Time) (*FinancialDocument, error) {
	if d.Type != DocumentQuote {
		return nil, ErrQuoteOnly
	}

	sourceID := d.ID
	due := now.AddDate(0, 0, 30)

	return &FinancialDocument{
		Type:          DocumentInvoice,
		Number:        number,
		Title:         d.Title,
		Description:   d.Description,
		Date:          now,
		DueDate:       &due,
		Amount:        d.Amount,
		AmountPaid:    decimal.Zero,
		Status:        StatusDraft,
		Recipient:     d.Recipient,
		LineItems:     slices.Clone(d.LineItems),
		Notes:         d.Notes,
		SourceQuoteID: &sourceID,
	}, nil
}

// Clone returns a deep copy of d.
func (d *FinancialDocument) Clone() *FinancialDocument {
	c := *d
	c.PaymentHistory = slices.Clone(d.PaymentHistory)
	c.LineItems = slices.Clone(d.LineItems)

	if d.DueDate != nil {
		due := *d.DueDate
		c.DueDate = &due
	}

	if d.SourceQuoteID != nil {
		id := *d.SourceQuoteID
		c.SourceQuoteID = &id
	}

	return &c
}

// NumberPrefix returns the conventional numbering prefix of a document type.
func NumberPrefix(t DocumentType) string {
	if t == DocumentQuote {
		return "DV"
	}

	return "FA"
}

// FormatNumber builds a document number such as FA-2024-007.
func FormatNumber(t DocumentType, year, seq int) string {
	return fmt.Sprintf("%s-%d-%03d", NumberPrefix(t), year, seq)
}

// DocumentFilter narrows document listings.
type DocumentFilter struct {
	Type   DocumentType
	Status DocumentStatus
	Page   int
	Limit  int
}
