package dto

import (
	"github.com/shopspring/decimal"

	"github.com/retrobus-essonne/finance/internal/domain"
	"github.com/retrobus-essonne/finance/internal/usecase"
)

// CreateTransactionRequest represents a request to book a transaction.
type CreateTransactionRequest struct {
	Type        string          `json:"type"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	Date        *Date           `json:"date,omitempty"`
	EventID     *string         `json:"eventId,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *CreateTransactionRequest) ToUseCaseInput() usecase.CreateTransactionInput {
	return usecase.CreateTransactionInput{
		Type:        r.Type,
		Amount:      r.Amount,
		Description: r.Description,
		Category:    r.Category,
		Date:        r.Date.Ptr(),
		EventID:     r.EventID,
	}
}

// UpdateTransactionRequest represents a partial transaction update.
type UpdateTransactionRequest struct {
	Type        *string          `json:"type,omitempty"`
	Amount      *decimal.Decimal `json:"amount,omitempty"`
	Description *string          `json:"description,omitempty"`
	Category    *string          `json:"category,omitempty"`
	Date        *Date            `json:"date,omitempty"`
	EventID     *string          `json:"eventId,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *UpdateTransactionRequest) ToUseCaseInput() usecase.UpdateTransactionInput {
	return usecase.UpdateTransactionInput{
		Type:        r.Type,
		Amount:      r.Amount,
		Description: r.Description,
		Category:    r.Category,
		Date:        r.Date.Ptr(),
		EventID:     r.EventID,
	}
}

// OverrideBalanceRequest forces the running balance.
type OverrideBalanceRequest struct {
	Amount decimal.Decimal `json:"amount"`
	Reason string          `json:"reason"`
}

// ToUseCaseInput converts to use case input.
func (r *OverrideBalanceRequest) ToUseCaseInput() usecase.OverrideBalanceInput {
	return usecase.OverrideBalanceInput{Amount: r.Amount, Reason: r.Reason}
}

// LockBalanceRequest locks or unlocks manual overrides.
type LockBalanceRequest struct {
	Locked bool `json:"locked"`
}

// CreateDocumentRequest represents a request to create a quote or invoice.
type CreateDocumentRequest struct {
	Type        string            `json:"type"`
	Number      string            `json:"number"`
	Title       string            `json:"title"`
	Description string            `json:"description"`
	Date        *Date             `json:"date,omitempty"`
	DueDate     *Date             `json:"dueDate,omitempty"`
	Amount      *decimal.Decimal  `json:"amount"`
	Recipient   domain.Recipient  `json:"recipient"`
	LineItems   []domain.LineItem `json:"lineItems,omitempty"`
	Notes       string            `json:"notes"`
	HTMLContent string            `json:"htmlContent,omitempty"`
	DocumentURL string            `json:"documentUrl,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *CreateDocumentRequest) ToUseCaseInput() usecase.CreateDocumentInput {
	return usecase.CreateDocumentInput{
		Type:        r.Type,
		Number:      r.Number,
		Title:       r.Title,
		Description: r.Description,
		Date:        r.Date.Ptr(),
		DueDate:     r.DueDate.Ptr(),
		Amount:      r.Amount,
		Recipient:   r.Recipient,
		LineItems:   r.LineItems,
		Notes:       r.Notes,
		HTMLContent: r.HTMLContent,
		DocumentURL: r.DocumentURL,
	}
}

// UpdateDocumentRequest is a partial document update. AmountPaid with
// PaymentMethod and PaymentDate is the legacy cumulative payment form.
type UpdateDocumentRequest struct {
	Number        *string           `json:"number,omitempty"`
	Title         *string           `json:"title,omitempty"`
	Description   *string           `json:"description,omitempty"`
	Date          *Date             `json:"date,omitempty"`
	DueDate       *Date             `json:"dueDate,omitempty"`
	Amount        *decimal.Decimal  `json:"amount,omitempty"`
	Status        *string           `json:"status,omitempty"`
	Recipient     *domain.Recipient `json:"recipient,omitempty"`
	LineItems     []domain.LineItem `json:"lineItems,omitempty"`
	Notes         *string           `json:"notes,omitempty"`
	HTMLContent   *string           `json:"htmlContent,omitempty"`
	DocumentURL   *string           `json:"documentUrl,omitempty"`
	AmountPaid    *decimal.Decimal  `json:"amountPaid,omitempty"`
	PaymentMethod string            `json:"paymentMethod,omitempty"`
	PaymentDate   *Date             `json:"paymentDate,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *UpdateDocumentRequest) ToUseCaseInput() usecase.UpdateDocumentInput {
	return usecase.UpdateDocumentInput{
		Number:        r.Number,
		Title:         r.Title,
		Description:   r.Description,
		Date:          r.Date.Ptr(),
		DueDate:       r.DueDate.Ptr(),
		Amount:        r.Amount,
		Status:        r.Status,
		Recipient:     r.Recipient,
		LineItems:     r.LineItems,
		Notes:         r.Notes,
		HTMLContent:   r.HTMLContent,
		DocumentURL:   r.DocumentURL,
		AmountPaid:    r.AmountPaid,
		PaymentMethod: r.PaymentMethod,
		PaymentDate:   r.PaymentDate.Ptr(),
	}
}

// ChangeStatusRequest moves a document to another status.
type ChangeStatusRequest struct {
	Status string `json:"status"`
}

// RecordPaymentRequest records a partial payment on a document.
type RecordPaymentRequest struct {
	Amount decimal.Decimal `json:"amount"`
	Method string          `json:"method"`
	Date   *Date           `json:"date"`
}

// ToUseCaseInput converts to use case input.
func (r *RecordPaymentRequest) ToUseCaseInput() usecase.RecordPaymentInput {
	return usecase.RecordPaymentInput{
		Amount: r.Amount,
		Method: r.Method,
		Date:   r.Date.Value(),
	}
}

// GeneratePDFRequest optionally overrides the stored template.
type GeneratePDFRequest struct {
	HTMLContent string `json:"htmlContent"`
}

// CreateScheduledRequest represents a request to create a scheduled operation.
type CreateScheduledRequest struct {
	Type             string           `json:"type"`
	Amount           decimal.Decimal  `json:"amount"`
	Description      string           `json:"description"`
	Category         string           `json:"category"`
	Frequency        string           `json:"frequency"`
	NextDate         *Date            `json:"nextDate,omitempty"`
	TotalAmount      *decimal.Decimal `json:"totalAmount,omitempty"`
	PaymentsCount    int              `json:"paymentsCount,omitempty"`
	PaidAmount       *decimal.Decimal `json:"paidAmount,omitempty"`
	RequiresApproval bool             `json:"requiresApproval"`
}

// ToUseCaseInput converts to use case input.
func (r *CreateScheduledRequest) ToUseCaseInput() usecase.CreateScheduledInput {
	return usecase.CreateScheduledInput{
		Type:             r.Type,
		Amount:           r.Amount,
		Description:      r.Description,
		Category:         r.Category,
		Frequency:        r.Frequency,
		NextDate:         r.NextDate.Ptr(),
		TotalAmount:      r.TotalAmount,
		PaymentsCount:    r.PaymentsCount,
		PaidAmount:       r.PaidAmount,
		RequiresApproval: r.RequiresApproval,
	}
}

// UpdateScheduledRequest is a partial scheduled operation update.
// ClearTotal turns the operation into an open-ended one.
type UpdateScheduledRequest struct {
	Type        *string          `json:"type,omitempty"`
	Amount      *decimal.Decimal `json:"amount,omitempty"`
	Description *string          `json:"description,omitempty"`
	Category    *string          `json:"category,omitempty"`
	Frequency   *string          `json:"frequency,omitempty"`
	NextDate    *Date            `json:"nextDate,omitempty"`
	TotalAmount *decimal.Decimal `json:"totalAmount,omitempty"`
	ClearTotal  bool             `json:"clearTotal,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *UpdateScheduledRequest) ToUseCaseInput() usecase.UpdateScheduledInput {
	return usecase.UpdateScheduledInput{
		Type:        r.Type,
		Amount:      r.Amount,
		Description: r.Description,
		Category:    r.Category,
		Frequency:   r.Frequency,
		NextDate:    r.NextDate.Ptr(),
		TotalAmount: r.TotalAmount,
		ClearTotal:  r.ClearTotal,
	}
}

// ScheduledPaymentRequest pays one installment. A missing amount pays the
// configured installment.
type ScheduledPaymentRequest struct {
	Amount *decimal.Decimal `json:"amount,omitempty"`
	Date   *Date            `json:"date"`
}

// ToUseCaseInput converts to use case input.
func (r *ScheduledPaymentRequest) ToUseCaseInput() usecase.ScheduledPaymentInput {
	return usecase.ScheduledPaymentInput{
		Amount: r.Amount,
		Date:   r.Date.Value(),
	}
}
