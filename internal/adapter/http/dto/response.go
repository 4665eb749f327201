package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/retrobus-essonne/finance/internal/domain"
	"github.com/retrobus-essonne/finance/internal/usecase"
)

// ErrorResponse represents an error in API responses.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// TransactionResponse represents a ledger transaction in API responses.
type TransactionResponse struct {
	ID                   string          `json:"id"`
	Type                 string          `json:"type"`
	Amount               decimal.Decimal `json:"amount"`
	Description          string          `json:"description"`
	Category             string          `json:"category"`
	Date                 Date            `json:"date"`
	EventID              *string         `json:"eventId,omitempty"`
	ScheduledOperationID *string         `json:"scheduledOperationId,omitempty"`
	CreatedAt            time.Time       `json:"createdAt"`
	UpdatedAt            time.Time       `json:"updatedAt"`
}

// TransactionFromDomain converts a domain transaction to response.
func TransactionFromDomain(t *domain.Transaction) *TransactionResponse {
	return &TransactionResponse{
		ID:                   t.ID,
		Type:                 string(t.Type),
		Amount:               t.Amount,
		Description:          t.Description,
		Category:             t.Category,
		Date:                 Date{t.Date},
		EventID:              t.EventID,
		ScheduledOperationID: t.ScheduledOperationID,
		CreatedAt:            t.CreatedAt,
		UpdatedAt:            t.UpdatedAt,
	}
}

// TransactionsFromDomain converts domain transactions to responses.
func TransactionsFromDomain(txs []*domain.Transaction) []*TransactionResponse {
	result := make([]*TransactionResponse, len(txs))
	for i, t := range txs {
		result[i] = TransactionFromDomain(t)
	}
	return result
}

// ListTransactionsResponse is one page of transactions.
type ListTransactionsResponse struct {
	Transactions []*TransactionResponse `json:"transactions"`
	Total        int                    `json:"total"`
	Page         int                    `json:"page"`
	Limit        int                    `json:"limit"`
}

// ListTransactionsFromResult converts a use case page to response.
func ListTransactionsFromResult(r *usecase.ListTransactionsResult) *ListTransactionsResponse {
	return &ListTransactionsResponse{
		Transactions: TransactionsFromDomain(r.Transactions),
		Total:        r.Total,
		Page:         r.Page,
		Limit:        r.Limit,
	}
}

// CategoryResponse represents a category in API responses.
type CategoryResponse struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Kind  string `json:"kind"`
}

// CategoriesFromDomain converts domain categories to responses.
func CategoriesFromDomain(cats []*domain.Category) []*CategoryResponse {
	result := make([]*CategoryResponse, len(cats))
	for i, c := range cats {
		result[i] = &CategoryResponse{ID: c.ID, Label: c.Label, Kind: string(c.Kind)}
	}
	return result
}

// BalanceResponse represents the running balance.
type BalanceResponse struct {
	Amount    decimal.Decimal `json:"amount"`
	Opening   decimal.Decimal `json:"opening"`
	Locked    bool            `json:"locked"`
	Version   int64           `json:"version"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// BalanceFromDomain converts the domain balance to response.
func BalanceFromDomain(b *domain.Balance) *BalanceResponse {
	return &BalanceResponse{
		Amount:    b.Amount,
		Opening:   b.Opening,
		Locked:    b.Locked,
		Version:   b.Version,
		UpdatedAt: b.UpdatedAt,
	}
}

// DocumentIssueResponse describes one inconsistent document.
type DocumentIssueResponse struct {
	DocumentID   string          `json:"documentId"`
	Number       string          `json:"number"`
	Amount       decimal.Decimal `json:"amount"`
	AmountPaid   decimal.Decimal `json:"amountPaid"`
	HistoryTotal decimal.Decimal `json:"historyTotal"`
	Reason       string          `json:"reason"`
}

// ConsistencyResponse is the result of a ledger consistency check.
type ConsistencyResponse struct {
	Consistent        bool                     `json:"consistent"`
	RecordedBalance   decimal.Decimal          `json:"recordedBalance"`
	Opening           decimal.Decimal          `json:"opening"`
	LedgerTotal       decimal.Decimal          `json:"ledgerTotal"`
	ExpectedBalance   decimal.Decimal          `json:"expectedBalance"`
	Difference        decimal.Decimal          `json:"difference"`
	BalanceConsistent bool                     `json:"balanceConsistent"`
	DocumentsChecked  int                      `json:"documentsChecked"`
	DocumentIssues    []*DocumentIssueResponse `json:"documentIssues"`
	CheckedAt         time.Time                `json:"checkedAt"`
}

// ConsistencyFromReport converts a consistency report to response.
func ConsistencyFromReport(r *usecase.ConsistencyReport) *ConsistencyResponse {
	issues := make([]*DocumentIssueResponse, len(r.DocumentIssues))
	for i, issue := range r.DocumentIssues {
		issues[i] = &DocumentIssueResponse{
			DocumentID:   issue.DocumentID,
			Number:       issue.Number,
			Amount:       issue.Amount,
			AmountPaid:   issue.AmountPaid,
			HistoryTotal: issue.HistoryTotal,
			Reason:       issue.Reason,
		}
	}

	return &ConsistencyResponse{
		Consistent:        r.Consistent(),
		RecordedBalance:   r.RecordedBalance,
		Opening:           r.Opening,
		LedgerTotal:       r.LedgerTotal,
		ExpectedBalance:   r.ExpectedBalance,
		Difference:        r.Difference,
		BalanceConsistent: r.BalanceConsistent,
		DocumentsChecked:  r.DocumentsChecked,
		DocumentIssues:    issues,
		CheckedAt:         r.CheckedAt,
	}
}

// TotalsResponse holds the totals of one category.
type TotalsResponse struct {
	Credits decimal.Decimal `json:"credits"`
	Debits  decimal.Decimal `json:"debits"`
	Bilan   decimal.Decimal `json:"bilan"`
}

// CategoryBreakdownResponse maps each category to its totals.
type CategoryBreakdownResponse struct {
	Period     string                     `json:"period"`
	Categories map[string]*TotalsResponse `json:"categories"`
}

// CategoryBreakdownFromReport converts a category report to response.
func CategoryBreakdownFromReport(r *usecase.CategoryReport) *CategoryBreakdownResponse {
	categories := make(map[string]*TotalsResponse, len(r.Categories))
	for _, c := range r.Categories {
		categories[c.Category] = &TotalsResponse{
			Credits: c.Credits,
			Debits:  c.Debits,
			Bilan:   c.Bilan(),
		}
	}

	return &CategoryBreakdownResponse{
		Period:     r.Period.String(),
		Categories: categories,
	}
}

// MonthResponse holds the totals of one month.
type MonthResponse struct {
	Month   int             `json:"month"`
	Credits decimal.Decimal `json:"credits"`
	Debits  decimal.Decimal `json:"debits"`
	Balance decimal.Decimal `json:"balance"`
}

// MonthlyBreakdownResponse lists the twelve months of a year.
type MonthlyBreakdownResponse struct {
	Year   int              `json:"year"`
	Months []*MonthResponse `json:"months"`
}

// MonthlyBreakdownFromReport converts a monthly report to response.
func MonthlyBreakdownFromReport(r *usecase.MonthlyReport) *MonthlyBreakdownResponse {
	months := make([]*MonthResponse, len(r.Months))
	for i, m := range r.Months {
		months[i] = &MonthResponse{
			Month:   int(m.Month),
			Credits: m.Credits,
			Debits:  m.Debits,
			Balance: m.Balance(),
		}
	}

	return &MonthlyBreakdownResponse{Year: r.Year, Months: months}
}

// DocumentResponse represents a quote or invoice in API responses.
type DocumentResponse struct {
	ID             string                 `json:"id"`
	Type           string                 `json:"type"`
	Number         string                 `json:"number"`
	Title          string                 `json:"title"`
	Description    string                 `json:"description"`
	Date           Date                   `json:"date"`
	DueDate        *Date                  `json:"dueDate,omitempty"`
	Amount         decimal.Decimal        `json:"amount"`
	AmountPaid     decimal.Decimal        `json:"amountPaid"`
	Remaining      decimal.Decimal        `json:"remaining"`
	PaymentHistory []domain.PaymentRecord `json:"paymentHistory"`
	Status         string                 `json:"status"`
	Recipient      domain.Recipient       `json:"recipient"`
	LineItems      []domain.LineItem      `json:"lineItems"`
	Notes          string                 `json:"notes"`
	HTMLContent    string                 `json:"htmlContent,omitempty"`
	DocumentURL    string                 `json:"documentUrl,omitempty"`
	SourceQuoteID  *string                `json:"sourceQuoteId,omitempty"`
	Version        int64                  `json:"version"`
	CreatedAt      time.Time              `json:"createdAt"`
	UpdatedAt      time.Time              `json:"updatedAt"`
}

// DocumentFromDomain converts a domain document to response.
func DocumentFromDomain(d *domain.FinancialDocument) *DocumentResponse {
	var due *Date
	if d.DueDate != nil {
		due = &Date{*d.DueDate}
	}

	history := d.PaymentHistory
	if history == nil {
		history = []domain.PaymentRecord{}
	}

	items := d.LineItems
	if items == nil {
		items = []domain.LineItem{}
	}

	return &DocumentResponse{
		ID:             d.ID,
		Type:           string(d.Type),
		Number:         d.Number,
		Title:          d.Title,
		Description:    d.Description,
		Date:           Date{d.Date},
		DueDate:        due,
		Amount:         d.Amount,
		AmountPaid:     d.AmountPaid,
		Remaining:      d.Remaining(),
		PaymentHistory: history,
		Status:         string(d.Status),
		Recipient:      d.Recipient,
		LineItems:      items,
		Notes:          d.Notes,
		HTMLContent:    d.HTMLContent,
		DocumentURL:    d.DocumentURL,
		SourceQuoteID:  d.SourceQuoteID,
		Version:        d.Version,
		CreatedAt:      d.CreatedAt,
		UpdatedAt:      d.UpdatedAt,
	}
}

// DocumentsFromDomain converts domain documents to responses.
func DocumentsFromDomain(docs []*domain.FinancialDocument) []*DocumentResponse {
	result := make([]*DocumentResponse, len(docs))
	for i, d := range docs {
		result[i] = DocumentFromDomain(d)
	}
	return result
}

// ListDocumentsResponse is one page of documents.
type ListDocumentsResponse struct {
	Documents []*DocumentResponse `json:"documents"`
	Total     int                 `json:"total"`
	Page      int                 `json:"page"`
	Limit     int                 `json:"limit"`
}

// ListDocumentsFromResult converts a use case page to response.
func ListDocumentsFromResult(r *usecase.ListDocumentsResult) *ListDocumentsResponse {
	return &ListDocumentsResponse{
		Documents: DocumentsFromDomain(r.Documents),
		Total:     r.Total,
		Page:      r.Page,
		Limit:     r.Limit,
	}
}

// ChangeStatusResponse carries the updated document. DraftInvoice is set,
// unsaved, when a quote was accepted.
type ChangeStatusResponse struct {
	Document     *DocumentResponse `json:"document"`
	DraftInvoice *DocumentResponse `json:"draftInvoice,omitempty"`
}

// ChangeStatusFromResult converts a status change result to response.
func ChangeStatusFromResult(r *usecase.ChangeStatusResult) *ChangeStatusResponse {
	resp := &ChangeStatusResponse{Document: DocumentFromDomain(r.Document)}
	if r.Draft != nil {
		resp.DraftInvoice = DocumentFromDomain(r.Draft)
	}
	return resp
}

// RenderResponse carries a rendered PDF.
type RenderResponse struct {
	PDFDataURI string `json:"pdfDataUri"`
	Filename   string `json:"filename"`
	Cached     bool   `json:"cached"`
}

// RenderFromResult converts a render result to response.
func RenderFromResult(r *usecase.RenderResult) *RenderResponse {
	return &RenderResponse{PDFDataURI: r.PDFDataURI, Filename: r.Filename, Cached: r.Cached}
}

// ProjectionResponse is the derived amortization view.
type ProjectionResponse struct {
	RemainingTotalAmount decimal.Decimal `json:"remainingTotalAmount"`
	MonthsRemainingTotal int64           `json:"monthsRemainingTotal"`
	EstimatedEndDate     Date            `json:"estimatedEndDate"`
	Complete             bool            `json:"complete"`
}

// ScheduledOperationResponse represents a scheduled operation with its
// projection. Projection is absent for open-ended operations.
type ScheduledOperationResponse struct {
	ID            string              `json:"id"`
	Type          string              `json:"type"`
	Amount        decimal.Decimal     `json:"amount"`
	Description   string              `json:"description"`
	Category      string              `json:"category"`
	Frequency     string              `json:"frequency"`
	NextDate      Date                `json:"nextDate"`
	TotalAmount   *decimal.Decimal    `json:"totalAmount,omitempty"`
	PaymentsCount int                 `json:"paymentsCount"`
	PaidAmount    decimal.Decimal     `json:"paidAmount"`
	Status        string              `json:"status"`
	Projection    *ProjectionResponse `json:"projection,omitempty"`
	CreatedAt     time.Time           `json:"createdAt"`
	UpdatedAt     time.Time           `json:"updatedAt"`
}

// ScheduledOperationFromDomain converts a domain operation to response.
func ScheduledOperationFromDomain(op *domain.ScheduledOperation) *ScheduledOperationResponse {
	resp := &ScheduledOperationResponse{
		ID:            op.ID,
		Type:          string(op.Type),
		Amount:        op.Amount,
		Description:   op.Description,
		Category:      op.Category,
		Frequency:     string(op.Frequency),
		NextDate:      Date{op.NextDate},
		TotalAmount:   op.TotalAmount,
		PaymentsCount: op.PaymentsCount,
		PaidAmount:    op.PaidAmount,
		Status:        string(op.Status),
		CreatedAt:     op.CreatedAt,
		UpdatedAt:     op.UpdatedAt,
	}

	if p := op.Projection(); p != nil {
		resp.Projection = &ProjectionResponse{
			RemainingTotalAmount: p.RemainingTotalAmount,
			MonthsRemainingTotal: p.MonthsRemainingTotal,
			EstimatedEndDate:     Date{p.EstimatedEndDate},
			Complete:             p.Complete,
		}
	}

	return resp
}

// ScheduledOperationsFromDomain converts domain operations to responses.
func ScheduledOperationsFromDomain(ops []*domain.ScheduledOperation) []*ScheduledOperationResponse {
	result := make([]*ScheduledOperationResponse, len(ops))
	for i, op := range ops {
		result[i] = ScheduledOperationFromDomain(op)
	}
	return result
}

// ScheduledPaymentResponse represents one paid installment.
type ScheduledPaymentResponse struct {
	ID            string          `json:"id"`
	OperationID   string          `json:"operationId"`
	Amount        decimal.Decimal `json:"amount"`
	Date          Date            `json:"date"`
	TransactionID string          `json:"transactionId"`
	CreatedAt     time.Time       `json:"createdAt"`
}

// ScheduledPaymentsFromDomain converts domain payments to responses.
func ScheduledPaymentsFromDomain(payments []*domain.ScheduledPayment) []*ScheduledPaymentResponse {
	result := make([]*ScheduledPaymentResponse, len(payments))
	for i, p := range payments {
		result[i] = &ScheduledPaymentResponse{
			ID:            p.ID,
			OperationID:   p.OperationID,
			Amount:        p.Amount,
			Date:          Date{p.Date},
			TransactionID: p.TransactionID,
			CreatedAt:     p.CreatedAt,
		}
	}
	return result
}

// ScheduledPaymentResultResponse is the outcome of paying an installment.
type ScheduledPaymentResultResponse struct {
	Operation   *ScheduledOperationResponse `json:"operation"`
	Payment     *ScheduledPaymentResponse   `json:"payment"`
	Transaction *TransactionResponse        `json:"transaction"`
}

// ScheduledPaymentResultFromDomain converts a payment result to response.
func ScheduledPaymentResultFromDomain(r *usecase.ScheduledPaymentResult) *ScheduledPaymentResultResponse {
	return &ScheduledPaymentResultResponse{
		Operation:   ScheduledOperationFromDomain(r.Operation),
		Payment:     ScheduledPaymentsFromDomain([]*domain.ScheduledPayment{r.Payment})[0],
		Transaction: TransactionFromDomain(r.Transaction),
	}
}
