package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/retrobus-essonne/finance/internal/domain"
	"github.com/retrobus-essonne/finance/internal/infrastructure/metrics"
)

// maxNumberAttempts bounds the search for a free document number.
const maxNumberAttempts = 20

// DocumentUseCase handles quote and invoice business logic.
type DocumentUseCase struct {
	txRunner
	docRepo    DocumentRepository
	outboxRepo OutboxRepository
	auditRepo  AuditRepository
	idGen      IDGenerator
	metrics    *metrics.Metrics
	now        func() time.Time
}

// NewDocumentUseCase creates a new DocumentUseCase.
func NewDocumentUseCase(
	txManager TransactionManager,
	retrier Retrier,
	docRepo DocumentRepository,
	outboxRepo OutboxRepository,
	auditRepo AuditRepository,
	idGen IDGenerator,
	metrics *metrics.Metrics,
) *DocumentUseCase {
	return &DocumentUseCase{
		txRunner:   txRunner{txManager: txManager, retrier: retrier},
		docRepo:    docRepo,
		outboxRepo: outboxRepo,
		auditRepo:  auditRepo,
		idGen:      idGen,
		metrics:    metrics,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// CreateDocumentInput represents input for creating a quote or invoice.
type CreateDocumentInput struct {
	Type        string
	Number      string
	Title       string
	Description string
	Date        *time.Time
	DueDate     *time.Time
	Amount      *decimal.Decimal
	Recipient   domain.Recipient
	LineItems   []domain.LineItem
	Notes       string
	HTMLContent string
	DocumentURL string
}

// UpdateDocumentInput holds the fields to change; nil fields are kept.
// AmountPaid is the legacy payment form: the new cumulative total, recorded
// as a payment of the difference with PaymentMethod and PaymentDate.
type UpdateDocumentInput struct {
	Number      *string
	Title       *string
	Description *string
	Date        *time.Time
	DueDate     *time.Time
	Amount      *decimal.Decimal
	Status      *string
	Recipient   *domain.Recipient
	LineItems   []domain.LineItem
	Notes       *string
	HTMLContent *string
	DocumentURL *string

	AmountPaid    *decimal.Decimal
	PaymentMethod string
	PaymentDate   *time.Time
}

// RecordPaymentInput represents one payment against a document.
type RecordPaymentInput struct {
	Amount decimal.Decimal
	Method string
	Date   time.Time
}

// ChangeStatusResult is the outcome of a status change. Draft is set when a
// quote was accepted: it is an unsaved invoice proposal the user may confirm
// through ConvertQuote.
type ChangeStatusResult struct {
	Document *domain.FinancialDocument
	Draft    *domain.FinancialDocument
}

// ListDocumentsResult is one page of documents.
type ListDocumentsResult struct {
	Documents []*domain.FinancialDocument
	Total     int
	Page      int
	Limit     int
}

// CreateDocument creates a DRAFT quote or invoice.
func (uc *DocumentUseCase) CreateDocument(ctx context.Context, input CreateDocumentInput) (*domain.FinancialDocument, error) {
	docType, err := domain.ParseDocumentType(input.Type)
	if err != nil {
		return nil, err
	}

	if input.Amount == nil {
		return nil, fmt.Errorf("%w: amount is required", domain.ErrValidation)
	}

	now := uc.now()
	date := now
	if input.Date != nil {
		date = *input.Date
	}

	doc := &domain.FinancialDocument{
		ID:          uc.idGen.Generate(),
		Type:        docType,
		Number:      strings.TrimSpace(input.Number),
		Title:       strings.TrimSpace(input.Title),
		Description: input.Description,
		Date:        date,
		DueDate:     input.DueDate,
		Amount:      *input.Amount,
		AmountPaid:  decimal.Zero,
		Status:      domain.StatusDraft,
		Recipient:   input.Recipient,
		LineItems:   input.LineItems,
		Notes:       input.Notes,
		HTMLContent: input.HTMLContent,
		DocumentURL: input.DocumentURL,
		Version:     1,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := doc.Validate(); err != nil {
		return nil, err
	}

	if err := uc.ensureNumberFree(ctx, doc.Number, ""); err != nil {
		return nil, err
	}

	err = uc.run(ctx, func(ctx context.Context, tx Transaction) error {
		if err := uc.docRepo.Create(ctx, tx, doc); err != nil {
			return err
		}

		return uc.emit(ctx, tx, doc, domain.EventTypeDocumentCreated, map[string]any{
			"number": doc.Number,
			"type":   string(doc.Type),
			"amount": doc.Amount.String(),
		})
	})
	if err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.DocumentsCreated.WithLabelValues(string(doc.Type)).Inc()
	}

	return doc, nil
}

// GetDocument retrieves a document by ID.
func (uc *DocumentUseCase) GetDocument(ctx context.Context, id string) (*domain.FinancialDocument, error) {
	doc, err := uc.docRepo.GetByID(ctx, id)
	if err != nil {
		return nil, storeErr(err)
	}

	return doc, nil
}

// ListDocuments returns one page of documents, most recent first.
func (uc *DocumentUseCase) ListDocuments(ctx context.Context, filter domain.DocumentFilter) (*ListDocumentsResult, error) {
	filter.Page, filter.Limit = domain.ValidatePagination(filter.Page, filter.Limit)

	docs, total, err := uc.docRepo.List(ctx, filter)
	if err != nil {
		return nil, storeErr(err)
	}

	return &ListDocumentsResult{
		Documents: docs,
		Total:     total,
		Page:      filter.Page,
		Limit:     filter.Limit,
	}, nil
}

// UpdateDocument edits the content of a document. A status in the input goes
// through the same rules as ChangeStatus, and a cumulative AmountPaid through
// the same rules as RecordPayment.
func (uc *DocumentUseCase) UpdateDocument(ctx context.Context, id string, input UpdateDocumentInput) (*domain.FinancialDocument, error) {
	if input.Number != nil {
		if err := uc.ensureNumberFree(ctx, strings.TrimSpace(*input.Number), id); err != nil {
			return nil, err
		}
	}

	var updated *domain.FinancialDocument

	err := uc.run(ctx, func(ctx context.Context, tx Transaction) error {
		current, err := uc.docRepo.GetByIDForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}

		doc := current.Clone()
		applyDocumentUpdate(doc, input)

		if input.Status != nil {
			if err := doc.ChangeStatus(domain.DocumentStatus(strings.ToUpper(strings.TrimSpace(*input.Status)))); err != nil {
				return err
			}
		}

		var payment *domain.PaymentRecord
		if input.AmountPaid != nil {
			delta, err := doc.PaymentDelta(*input.AmountPaid)
			if err != nil {
				return err
			}

			if delta.IsPositive() {
				p := domain.PaymentRecord{Amount: delta, Method: input.PaymentMethod}
				if input.PaymentDate != nil {
					p.Date = *input.PaymentDate
				}
				if err := doc.RecordPayment(p); err != nil {
					return err
				}
				payment = &p
			}
		}

		if doc.Amount.LessThan(doc.AmountPaid) {
			return domain.ErrAmountBelowPaid
		}

		if err := doc.Validate(); err != nil {
			return err
		}

		doc.Version++
		doc.UpdatedAt = uc.now()

		if err := uc.docRepo.Update(ctx, tx, doc); err != nil {
			return err
		}

		if doc.Status != current.Status {
			if err := uc.recordStatusChange(ctx, tx, current, doc); err != nil {
				return err
			}
		}

		if payment != nil {
			if err := uc.recordPaymentTrail(ctx, tx, current, doc, *payment); err != nil {
				return err
			}
		}

		updated = doc

		return nil
	})
	if err != nil {
		return nil, err
	}

	return updated, nil
}

// ChangeStatus moves a document to a new status of its type's set. Accepting
// a quote also returns an unsaved invoice draft.
func (uc *DocumentUseCase) ChangeStatus(ctx context.Context, id, status string) (*ChangeStatusResult, error) {
	newStatus := domain.DocumentStatus(strings.ToUpper(strings.TrimSpace(status)))

	var doc *domain.FinancialDocument

	err := uc.run(ctx, func(ctx context.Context, tx Transaction) error {
		current, err := uc.docRepo.GetByIDForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}

		next := current.Clone()
		if err := next.ChangeStatus(newStatus); err != nil {
			return err
		}

		if next.Status == current.Status {
			doc = next
			return nil
		}

		next.Version++
		next.UpdatedAt = uc.now()

		if err := uc.docRepo.Update(ctx, tx, next); err != nil {
			return err
		}

		if err := uc.recordStatusChange(ctx, tx, current, next); err != nil {
			return err
		}

		doc = next

		return nil
	})
	if err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.DocumentStatusChanges.WithLabelValues(string(doc.Type), string(doc.Status)).Inc()
	}

	result := &ChangeStatusResult{Document: doc}

	if doc.Type == domain.DocumentQuote && doc.Status == domain.StatusAccepted {
		number, err := uc.nextNumber(ctx, domain.DocumentInvoice)
		if err != nil {
			return nil, err
		}

		draft, err := doc.DraftInvoice(number, uc.now())
		if err != nil {
			return nil, err
		}
		result.Draft = draft
	}

	return result, nil
}

// ConvertQuote persists the invoice drafted from a quote. The quote is left
// as is.
func (uc *DocumentUseCase) ConvertQuote(ctx context.Context, quoteID string) (*domain.FinancialDocument, error) {
	quote, err := uc.docRepo.GetByID(ctx, quoteID)
	if err != nil {
		return nil, storeErr(err)
	}

	if quote.Type != domain.DocumentQuote {
		return nil, domain.ErrQuoteOnly
	}

	number, err := uc.nextNumber(ctx, domain.DocumentInvoice)
	if err != nil {
		return nil, err
	}

	now := uc.now()

	invoice, err := quote.DraftInvoice(number, now)
	if err != nil {
		return nil, err
	}

	invoice.ID = uc.idGen.Generate()
	invoice.Version = 1
	invoice.CreatedAt = now
	invoice.UpdatedAt = now

	if err := invoice.Validate(); err != nil {
		return nil, err
	}

	err = uc.run(ctx, func(ctx context.Context, tx Transaction) error {
		if err := uc.docRepo.Create(ctx, tx, invoice); err != nil {
			return err
		}

		if uc.auditRepo != nil {
			entry := newAudit(ctx, uc.idGen, domain.AuditActionQuoteConvert, domain.AggregateTypeDocument, quote.ID,
				map[string]any{"quote": quote.Number},
				map[string]any{"invoice_id": invoice.ID, "invoice": invoice.Number})
			if err := uc.auditRepo.CreateTx(ctx, tx, entry); err != nil {
				return err
			}
		}

		return uc.emit(ctx, tx, invoice, domain.EventTypeQuoteConverted, map[string]any{
			"quote_id":   quote.ID,
			"invoice_id": invoice.ID,
			"number":     invoice.Number,
			"amount":     invoice.Amount.String(),
		})
	})
	if err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.DocumentsCreated.WithLabelValues(string(invoice.Type)).Inc()
	}

	return invoice, nil
}

// DeleteDocument hard-deletes a document.
func (uc *DocumentUseCase) DeleteDocument(ctx context.Context, id string) error {
	return uc.run(ctx, func(ctx context.Context, tx Transaction) error {
		current, err := uc.docRepo.GetByIDForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}

		if err := uc.docRepo.Delete(ctx, tx, id); err != nil {
			return err
		}

		if uc.auditRepo != nil {
			entry := newAudit(ctx, uc.idGen, domain.AuditActionDocumentDelete, domain.AggregateTypeDocument, id, documentState(current), nil)
			if err := uc.auditRepo.CreateTx(ctx, tx, entry); err != nil {
				return err
			}
		}

		return uc.emit(ctx, tx, current, domain.EventTypeDocumentDeleted, map[string]any{
			"number": current.Number,
		})
	})
}

// RecordPayment adds a partial payment to a document. The new total paid is
// the current total plus the payment amount and may not exceed the document
// amount. The status is left unchanged.
func (uc *DocumentUseCase) RecordPayment(ctx context.Context, id string, input RecordPaymentInput) (*domain.FinancialDocument, error) {
	payment := domain.PaymentRecord{
		Date:   input.Date,
		Method: strings.TrimSpace(input.Method),
		Amount: input.Amount,
	}

	if err := domain.ValidatePayment(payment); err != nil {
		return nil, err
	}

	var updated *domain.FinancialDocument

	err := uc.run(ctx, func(ctx context.Context, tx Transaction) error {
		current, err := uc.docRepo.GetByIDForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}

		doc := current.Clone()
		if err := doc.RecordPayment(payment); err != nil {
			return err
		}

		doc.Version++
		doc.UpdatedAt = uc.now()

		if err := uc.docRepo.Update(ctx, tx, doc); err != nil {
			return err
		}

		if err := uc.recordPaymentTrail(ctx, tx, current, doc, payment); err != nil {
			return err
		}

		updated = doc

		return nil
	})
	if err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.PaymentsRecorded.WithLabelValues("document").Inc()
		uc.metrics.PaymentAmount.Observe(payment.Amount.InexactFloat64())
	}

	return updated, nil
}

func (uc *DocumentUseCase) recordStatusChange(ctx context.Context, tx Transaction, before, after *domain.FinancialDocument) error {
	if uc.auditRepo != nil {
		entry := newAudit(ctx, uc.idGen, domain.AuditActionDocumentStatus, domain.AggregateTypeDocument, after.ID,
			map[string]any{"status": string(before.Status)},
			map[string]any{"status": string(after.Status)})
		if err := uc.auditRepo.CreateTx(ctx, tx, entry); err != nil {
			return err
		}
	}

	err := uc.emit(ctx, tx, after, domain.EventTypeDocumentStatusChange, map[string]any{
		"number": after.Number,
		"from":   string(before.Status),
		"to":     string(after.Status),
	})
	if err != nil {
		return err
	}

	if after.Type != domain.DocumentQuote || after.Status != domain.StatusAccepted {
		return nil
	}

	return uc.emit(ctx, tx, after, domain.EventTypeQuoteAccepted, map[string]any{
		"quote_id":       after.ID,
		"number":         after.Number,
		"amount":         after.Amount.String(),
		"recipient_name": after.Recipient.Name,
	})
}

func (uc *DocumentUseCase) recordPaymentTrail(ctx context.Context, tx Transaction, before, after *domain.FinancialDocument, p domain.PaymentRecord) error {
	if uc.auditRepo != nil {
		entry := newAudit(ctx, uc.idGen, domain.AuditActionDocumentPayment, domain.AggregateTypeDocument, after.ID,
			map[string]any{"amount_paid": before.AmountPaid.String()},
			map[string]any{"amount_paid": after.AmountPaid.String(), "payment": p.Amount.String(), "method": p.Method})
		if err := uc.auditRepo.CreateTx(ctx, tx, entry); err != nil {
			return err
		}
	}

	return uc.emit(ctx, tx, after, domain.EventTypeDocumentPayment, map[string]any{
		"document_id": after.ID,
		"amount":      p.Amount.String(),
		"method":      p.Method,
		"amount_paid": after.AmountPaid.String(),
		"remaining":   after.Remaining().String(),
	})
}

func (uc *DocumentUseCase) emit(ctx context.Context, tx Transaction, doc *domain.FinancialDocument, eventType string, payload map[string]any) error {
	if uc.outboxRepo == nil {
		return nil
	}

	return uc.outboxRepo.Create(ctx, tx, newEvent(uc.idGen, domain.AggregateTypeDocument, doc.ID, eventType, payload))
}

// ensureNumberFree fails with ErrDuplicateNumber when number belongs to a
// document other than selfID.
func (uc *DocumentUseCase) ensureNumberFree(ctx context.Context, number, selfID string) error {
	existing, err := uc.docRepo.GetByNumber(ctx, number)
	if errors.Is(err, domain.ErrNotFound) {
		return nil
	}
	if err != nil {
		return storeErr(err)
	}

	if existing.ID == selfID {
		return nil
	}

	return fmt.Errorf("%w: %s", domain.ErrDuplicateNumber, number)
}

// nextNumber proposes the first free number of the current year, such as
// FA-2025-004.
func (uc *DocumentUseCase) nextNumber(ctx context.Context, t domain.DocumentType) (string, error) {
	year := uc.now().Year()
	prefix := fmt.Sprintf("%s-%d-", domain.NumberPrefix(t), year)

	count, err := uc.docRepo.CountByPrefix(ctx, prefix)
	if err != nil {
		return "", storeErr(err)
	}

	for seq := count + 1; seq <= count+maxNumberAttempts; seq++ {
		number := domain.FormatNumber(t, year, seq)

		_, err := uc.docRepo.GetByNumber(ctx, number)
		if errors.Is(err, domain.ErrNotFound) {
			return number, nil
		}
		if err != nil {
			return "", storeErr(err)
		}
	}

	return "", fmt.Errorf("%w: no free number with prefix %s", domain.ErrValidation, prefix)
}

func applyDocumentUpdate(doc *domain.FinancialDocument, input UpdateDocumentInput) {
	if input.Number != nil {
		doc.Number = strings.TrimSpace(*input.Number)
	}
	if input.Title != nil {
		doc.Title = strings.TrimSpace(*input.Title)
	}
	if input.Description != nil {
		doc.Description = *input.Description
	}
	if input.Date != nil {
		doc.Date = *input.Date
	}
	if input.DueDate != nil {
		due := *input.DueDate
		doc.DueDate = &due
	}
	if input.Amount != nil {
		doc.Amount = *input.Amount
	}
	if input.Recipient != nil {
		doc.Recipient = *input.Recipient
	}
	if input.LineItems != nil {
		doc.LineItems = input.LineItems
	}
	if input.Notes != nil {
		doc.Notes = *input.Notes
	}
	if input.HTMLContent != nil {
		doc.HTMLContent = *input.HTMLContent
	}
	if input.DocumentURL != nil {
		doc.DocumentURL = *input.DocumentURL
	}
}

func documentState(doc *domain.FinancialDocument) map[string]any {
	return map[string]any{
		"type":        string(doc.Type),
		"number":      doc.Number,
		"status":      string(doc.Status),
		"amount":      doc.Amount.String(),
		"amount_paid": doc.AmountPaid.String(),
	}
}
