package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/retrobus-essonne/finance/internal/domain"
	"github.com/retrobus-essonne/finance/internal/infrastructure/metrics"
)

// ScheduledOperationUseCase handles recurring operations and their
// installments.
type ScheduledOperationUseCase struct {
	txRunner
	ledger       ledgerWriter
	opRepo       ScheduledOperationRepository
	categoryRepo CategoryRepository
	outboxRepo   OutboxRepository
	auditRepo    AuditRepository
	idGen        IDGenerator
	metrics      *metrics.Metrics
}

// NewScheduledOperationUseCase creates a new ScheduledOperationUseCase.
func NewScheduledOperationUseCase(
	txManager TransactionManager,
	retrier Retrier,
	opRepo ScheduledOperationRepository,
	txRepo TransactionRepository,
	categoryRepo CategoryRepository,
	balanceRepo BalanceRepository,
	outboxRepo OutboxRepository,
	auditRepo AuditRepository,
	idGen IDGenerator,
	metrics *metrics.Metrics,
) *ScheduledOperationUseCase {
	return &ScheduledOperationUseCase{
		txRunner:     txRunner{txManager: txManager, retrier: retrier},
		ledger:       ledgerWriter{txRepo: txRepo, balanceRepo: balanceRepo},
		opRepo:       opRepo,
		categoryRepo: categoryRepo,
		outboxRepo:   outboxRepo,
		auditRepo:    auditRepo,
		idGen:        idGen,
		metrics:      metrics,
	}
}

// CreateScheduledInput represents input for creating a scheduled operation.
type CreateScheduledInput struct {
	Type             string
	Amount           decimal.Decimal
	Description      string
	Category         string
	Frequency        string
	NextDate         *time.Time
	TotalAmount      *decimal.Decimal
	PaymentsCount    int
	PaidAmount       *decimal.Decimal
	RequiresApproval bool
}

// UpdateScheduledInput holds the fields to change; nil fields are kept.
type UpdateScheduledInput struct {
	Type        *string
	Amount      *decimal.Decimal
	Description *string
	Category    *string
	Frequency   *string
	NextDate    *time.Time
	TotalAmount *decimal.Decimal
	// ClearTotal turns the operation back into an open-ended one.
	ClearTotal bool
}

// ScheduledPaymentInput declares one installment. A nil Amount pays the
// operation's regular installment.
type ScheduledPaymentInput struct {
	Amount *decimal.Decimal
	Date   time.Time
}

// ScheduledPaymentResult is the outcome of a declared installment.
type ScheduledPaymentResult struct {
	Operation   *domain.ScheduledOperation
	Payment     *domain.ScheduledPayment
	Transaction *domain.Transaction
}

// CreateOperation creates a scheduled operation, PENDING when it requires
// approval and APPROVED otherwise.
func (uc *ScheduledOperationUseCase) CreateOperation(ctx context.Context, input CreateScheduledInput) (*domain.ScheduledOperation, error) {
	typ, err := domain.ParseTransactionType(input.Type)
	if err != nil {
		return nil, err
	}

	freq, err := domain.ParseFrequency(input.Frequency)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	next := now
	if input.NextDate != nil {
		next = *input.NextDate
	}

	status := domain.ScheduledApproved
	if input.RequiresApproval {
		status = domain.ScheduledPending
	}

	paid := input.Amount.Mul(decimal.NewFromInt(int64(input.PaymentsCount)))
	if input.PaidAmount != nil {
		paid = *input.PaidAmount
	}

	op := &domain.ScheduledOperation{
		ID:            uc.idGen.Generate(),
		Type:          typ,
		Amount:        input.Amount,
		Description:   strings.TrimSpace(input.Description),
		Category:      strings.ToUpper(strings.TrimSpace(input.Category)),
		Frequency:     freq,
		NextDate:      next,
		AnchorDay:     next.Day(),
		TotalAmount:   input.TotalAmount,
		PaymentsCount: input.PaymentsCount,
		PaidAmount:    paid,
		Status:        status,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := op.Validate(); err != nil {
		return nil, err
	}

	if err := checkCategory(ctx, uc.categoryRepo, op.Category, op.Type); err != nil {
		return nil, err
	}

	err = uc.run(ctx, func(ctx context.Context, tx Transaction) error {
		return uc.opRepo.Create(ctx, tx, op)
	})
	if err != nil {
		return nil, err
	}

	return op, nil
}

// GetOperation retrieves a scheduled operation by ID.
func (uc *ScheduledOperationUseCase) GetOperation(ctx context.Context, id string) (*domain.ScheduledOperation, error) {
	op, err := uc.opRepo.GetByID(ctx, id)
	if err != nil {
		return nil, storeErr(err)
	}

	return op, nil
}

// ListOperations returns every scheduled operation ordered by next date.
func (uc *ScheduledOperationUseCase) ListOperations(ctx context.Context) ([]*domain.ScheduledOperation, error) {
	ops, err := uc.opRepo.List(ctx)
	if err != nil {
		return nil, storeErr(err)
	}

	return ops, nil
}

// UpdateOperation edits a scheduled operation. Payment counters are only
// moved by RecordPayment.
func (uc *ScheduledOperationUseCase) UpdateOperation(ctx context.Context, id string, input UpdateScheduledInput) (*domain.ScheduledOperation, error) {
	var updated *domain.ScheduledOperation

	err := uc.run(ctx, func(ctx context.Context, tx Transaction) error {
		current, err := uc.opRepo.GetByIDForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}

		op := current.Clone()
		if err := applyScheduledUpdate(op, input); err != nil {
			return err
		}

		if err := op.Validate(); err != nil {
			return err
		}

		if err := checkCategory(ctx, uc.categoryRepo, op.Category, op.Type); err != nil {
			return err
		}

		op.UpdatedAt = time.Now().UTC()

		if err := uc.opRepo.Update(ctx, tx, op); err != nil {
			return err
		}

		updated = op

		return nil
	})
	if err != nil {
		return nil, err
	}

	return updated, nil
}

// DeleteOperation removes a scheduled operation. Booked transactions stay in
// the ledger.
func (uc *ScheduledOperationUseCase) DeleteOperation(ctx context.Context, id string) error {
	return uc.run(ctx, func(ctx context.Context, tx Transaction) error {
		if _, err := uc.opRepo.GetByIDForUpdate(ctx, tx, id); err != nil {
			return err
		}

		return uc.opRepo.Delete(ctx, tx, id)
	})
}

// Approve marks a scheduled operation APPROVED.
func (uc *ScheduledOperationUseCase) Approve(ctx context.Context, id string) (*domain.ScheduledOperation, error) {
	return uc.setStatus(ctx, id, domain.ScheduledApproved)
}

// Reject marks a scheduled operation REJECTED. Rejected operations refuse
// further payments.
func (uc *ScheduledOperationUseCase) Reject(ctx context.Context, id string) (*domain.ScheduledOperation, error) {
	return uc.setStatus(ctx, id, domain.ScheduledRejected)
}

func (uc *ScheduledOperationUseCase) setStatus(ctx context.Context, id string, status domain.ScheduledStatus) (*domain.ScheduledOperation, error) {
	var updated *domain.ScheduledOperation

	err := uc.run(ctx, func(ctx context.Context, tx Transaction) error {
		current, err := uc.opRepo.GetByIDForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}

		op := current.Clone()
		op.Status = status
		op.UpdatedAt = time.Now().UTC()

		if err := uc.opRepo.Update(ctx, tx, op); err != nil {
			return err
		}

		if uc.auditRepo != nil {
			entry := newAudit(ctx, uc.idGen, domain.AuditActionScheduledStatus, domain.AggregateTypeScheduled, id,
				map[string]any{"status": string(current.Status)},
				map[string]any{"status": string(op.Status)})
			if err := uc.auditRepo.CreateTx(ctx, tx, entry); err != nil {
				return err
			}
		}

		updated = op

		return uc.emit(ctx, tx, op, domain.EventTypeScheduledStatus, map[string]any{
			"from": string(current.Status),
			"to":   string(op.Status),
		})
	})
	if err != nil {
		return nil, err
	}

	return updated, nil
}

// RecordPayment declares one installment: the operation's counters move
// forward, its next date advances by one period, and a ledger transaction of
// the operation's type and category is booked, all in one store transaction.
func (uc *ScheduledOperationUseCase) RecordPayment(ctx context.Context, id string, input ScheduledPaymentInput) (*ScheduledPaymentResult, error) {
	if input.Amount != nil {
		if err := domain.ValidateAmount(*input.Amount); err != nil {
			return nil, err
		}
	}

	if input.Date.IsZero() {
		return nil, fmt.Errorf("%w: payment date is required", domain.ErrValidation)
	}

	var result *ScheduledPaymentResult

	err := uc.run(ctx, func(ctx context.Context, tx Transaction) error {
		current, err := uc.opRepo.GetByIDForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}

		amount := current.Amount
		if input.Amount != nil {
			amount = *input.Amount
		}

		op := current.Clone()
		if err := op.RecordPayment(amount); err != nil {
			return err
		}

		now := time.Now().UTC()
		op.UpdatedAt = now

		opID := op.ID
		booked := &domain.Transaction{
			ID:                   uc.idGen.Generate(),
			Type:                 op.Type,
			Amount:               amount,
			Description:          op.Description,
			Category:             op.Category,
			Date:                 input.Date,
			ScheduledOperationID: &opID,
			CreatedAt:            now,
			UpdatedAt:            now,
		}

		payment := &domain.ScheduledPayment{
			ID:            uc.idGen.Generate(),
			OperationID:   op.ID,
			Amount:        amount,
			Date:          input.Date,
			TransactionID: booked.ID,
			CreatedAt:     now,
		}

		if err := uc.opRepo.Update(ctx, tx, op); err != nil {
			return err
		}

		if err := uc.ledger.book(ctx, tx, booked); err != nil {
			return err
		}

		if err := uc.opRepo.CreatePayment(ctx, tx, payment); err != nil {
			return err
		}

		if uc.auditRepo != nil {
			entry := newAudit(ctx, uc.idGen, domain.AuditActionScheduledPayment, domain.AggregateTypeScheduled, op.ID,
				map[string]any{"payments_count": current.PaymentsCount, "paid_amount": current.PaidAmount.String()},
				map[string]any{"payments_count": op.PaymentsCount, "paid_amount": op.PaidAmount.String()})
			if err := uc.auditRepo.CreateTx(ctx, tx, entry); err != nil {
				return err
			}
		}

		result = &ScheduledPaymentResult{Operation: op, Payment: payment, Transaction: booked}

		return uc.emit(ctx, tx, op, domain.EventTypeScheduledPayment, map[string]any{
			"payment_id":     payment.ID,
			"transaction_id": booked.ID,
			"amount":         amount.String(),
			"payments_count": op.PaymentsCount,
			"next_date":      op.NextDate.Format(time.DateOnly),
		})
	})
	if err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.PaymentsRecorded.WithLabelValues("scheduled").Inc()
		uc.metrics.PaymentAmount.Observe(result.Payment.Amount.InexactFloat64())
		uc.metrics.TransactionsBooked.WithLabelValues(string(result.Transaction.Type)).Inc()
	}

	return result, nil
}

// ListPayments returns the installments paid against an operation.
func (uc *ScheduledOperationUseCase) ListPayments(ctx context.Context, id string) ([]*domain.ScheduledPayment, error) {
	if _, err := uc.opRepo.GetByID(ctx, id); err != nil {
		return nil, storeErr(err)
	}

	payments, err := uc.opRepo.ListPayments(ctx, id)
	if err != nil {
		return nil, storeErr(err)
	}

	return payments, nil
}

func (uc *ScheduledOperationUseCase) emit(ctx context.Context, tx Transaction, op *domain.ScheduledOperation, eventType string, payload map[string]any) error {
	if uc.outboxRepo == nil {
		return nil
	}

	return uc.outboxRepo.Create(ctx, tx, newEvent(uc.idGen, domain.AggregateTypeScheduled, op.ID, eventType, payload))
}

func applyScheduledUpdate(op *domain.ScheduledOperation, input UpdateScheduledInput) error {
	if input.Type != nil {
		typ, err := domain.ParseTransactionType(*input.Type)
		if err != nil {
			return err
		}
		op.Type = typ
	}

	if input.Frequency != nil {
		freq, err := domain.ParseFrequency(*input.Frequency)
		if err != nil {
			return err
		}
		op.Frequency = freq
	}

	if input.Amount != nil {
		op.Amount = *input.Amount
	}
	if input.Description != nil {
		op.Description = strings.TrimSpace(*input.Description)
	}
	if input.Category != nil {
		op.Category = strings.ToUpper(strings.TrimSpace(*input.Category))
	}
	if input.NextDate != nil {
		op.Reschedule(*input.NextDate)
	}

	switch {
	case input.ClearTotal:
		op.TotalAmount = nil
	case input.TotalAmount != nil:
		total := *input.TotalAmount
		op.TotalAmount = &total
	}

	return nil
}
