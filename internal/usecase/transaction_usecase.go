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

// ledgerWriter books transactions and keeps the running balance in step,
// inside the caller's store transaction.
type ledgerWriter struct {
	txRepo      TransactionRepository
	balanceRepo BalanceRepository
}

func (w ledgerWriter) adjustBalance(ctx context.Context, tx Transaction, delta decimal.Decimal, now time.Time) (*domain.Balance, error) {
	balance, err := w.balanceRepo.GetForUpdate(ctx, tx)
	if err != nil {
		return nil, err
	}

	balance.Apply(delta)
	balance.Version++
	balance.UpdatedAt = now

	if err := w.balanceRepo.Save(ctx, tx, balance); err != nil {
		return nil, err
	}

	return balance, nil
}

func (w ledgerWriter) book(ctx context.Context, tx Transaction, t *domain.Transaction) error {
	if err := w.txRepo.Create(ctx, tx, t); err != nil {
		return err
	}

	_, err := w.adjustBalance(ctx, tx, t.SignedAmount(), t.CreatedAt)

	return err
}

// TransactionUseCase handles ledger transaction business logic.
type TransactionUseCase struct {
	txRunner
	ledger       ledgerWriter
	txRepo       TransactionRepository
	categoryRepo CategoryRepository
	outboxRepo   OutboxRepository
	auditRepo    AuditRepository
	idGen        IDGenerator
	metrics      *metrics.Metrics
}

// NewTransactionUseCase creates a new TransactionUseCase.
func NewTransactionUseCase(
	txManager TransactionManager,
	retrier Retrier,
	txRepo TransactionRepository,
	categoryRepo CategoryRepository,
	balanceRepo BalanceRepository,
	outboxRepo OutboxRepository,
	auditRepo AuditRepository,
	idGen IDGenerator,
	metrics *metrics.Metrics,
) *TransactionUseCase {
	return &TransactionUseCase{
		txRunner:     txRunner{txManager: txManager, retrier: retrier},
		ledger:       ledgerWriter{txRepo: txRepo, balanceRepo: balanceRepo},
		txRepo:       txRepo,
		categoryRepo: categoryRepo,
		outboxRepo:   outboxRepo,
		auditRepo:    auditRepo,
		idGen:        idGen,
		metrics:      metrics,
	}
}

// CreateTransactionInput represents input for creating a transaction.
type CreateTransactionInput struct {
	Type        string
	Amount      decimal.Decimal
	Description string
	Category    string
	Date        *time.Time
	EventID     *string
}

// UpdateTransactionInput holds the fields to change; nil fields are kept.
type UpdateTransactionInput struct {
	Type        *string
	Amount      *decimal.Decimal
	Description *string
	Category    *string
	Date        *time.Time
	EventID     *string
}

// ListTransactionsResult is one page of transactions.
type ListTransactionsResult struct {
	Transactions []*domain.Transaction
	Total        int
	Page         int
	Limit        int
}

// CreateTransaction books a new transaction and moves the balance.
func (uc *TransactionUseCase) CreateTransaction(ctx context.Context, input CreateTransactionInput) (*domain.Transaction, error) {
	typ, err := domain.ParseTransactionType(input.Type)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	date := now
	if input.Date != nil {
		date = *input.Date
	}

	t := &domain.Transaction{
		ID:          uc.idGen.Generate(),
		Type:        typ,
		Amount:      input.Amount,
		Description: strings.TrimSpace(input.Description),
		Category:    strings.ToUpper(strings.TrimSpace(input.Category)),
		Date:        date,
		EventID:     input.EventID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := t.Validate(); err != nil {
		return nil, err
	}

	if err := uc.checkCategory(ctx, t); err != nil {
		return nil, err
	}

	err = uc.run(ctx, func(ctx context.Context, tx Transaction) error {
		if err := uc.ledger.book(ctx, tx, t); err != nil {
			return err
		}

		return uc.emit(ctx, tx, t, domain.EventTypeTransactionCreated)
	})
	if err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.TransactionsBooked.WithLabelValues(string(t.Type)).Inc()
		uc.metrics.TransactionAmount.Observe(t.Amount.InexactFloat64())
	}

	return t, nil
}

// UpdateTransaction edits a transaction, reversing its old balance effect and
// applying the new one.
func (uc *TransactionUseCase) UpdateTransaction(ctx context.Context, id string, input UpdateTransactionInput) (*domain.Transaction, error) {
	var updated *domain.Transaction

	err := uc.run(ctx, func(ctx context.Context, tx Transaction) error {
		current, err := uc.txRepo.GetByIDForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}

		before := *current
		next := *current

		if err := applyTransactionUpdate(&next, input); err != nil {
			return err
		}

		if err := next.Validate(); err != nil {
			return err
		}

		if err := uc.checkCategory(ctx, &next); err != nil {
			return err
		}

		next.UpdatedAt = time.Now().UTC()

		if err := uc.txRepo.Update(ctx, tx, &next); err != nil {
			return err
		}

		delta := next.SignedAmount().Sub(before.SignedAmount())
		if !delta.IsZero() {
			if _, err := uc.ledger.adjustBalance(ctx, tx, delta, next.UpdatedAt); err != nil {
				return err
			}
		}

		if uc.auditRepo != nil {
			entry := newAudit(ctx, uc.idGen, domain.AuditActionTransactionUpdate, domain.AggregateTypeTransaction, id, transactionState(&before), transactionState(&next))
			if err := uc.auditRepo.CreateTx(ctx, tx, entry); err != nil {
				return err
			}
		}

		updated = &next

		return uc.emit(ctx, tx, &next, domain.EventTypeTransactionUpdated)
	})
	if err != nil {
		return nil, err
	}

	return updated, nil
}

// DeleteTransaction removes a transaction and reverses its balance effect.
func (uc *TransactionUseCase) DeleteTransaction(ctx context.Context, id string) error {
	return uc.run(ctx, func(ctx context.Context, tx Transaction) error {
		current, err := uc.txRepo.GetByIDForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}

		if err := uc.txRepo.Delete(ctx, tx, id); err != nil {
			return err
		}

		if _, err := uc.ledger.adjustBalance(ctx, tx, current.SignedAmount().Neg(), time.Now().UTC()); err != nil {
			return err
		}

		if uc.auditRepo != nil {
			entry := newAudit(ctx, uc.idGen, domain.AuditActionTransactionDelete, domain.AggregateTypeTransaction, id, transactionState(current), nil)
			if err := uc.auditRepo.CreateTx(ctx, tx, entry); err != nil {
				return err
			}
		}

		return uc.emit(ctx, tx, current, domain.EventTypeTransactionDeleted)
	})
}

// GetTransaction retrieves a transaction by ID.
func (uc *TransactionUseCase) GetTransaction(ctx context.Context, id string) (*domain.Transaction, error) {
	t, err := uc.txRepo.GetByID(ctx, id)
	if err != nil {
		return nil, storeErr(err)
	}

	return t, nil
}

// ListTransactions returns one page of transactions, most recent first.
func (uc *TransactionUseCase) ListTransactions(ctx context.Context, filter TransactionFilter) (*ListTransactionsResult, error) {
	filter.Page, filter.Limit = domain.ValidatePagination(filter.Page, filter.Limit)

	txs, total, err := uc.txRepo.List(ctx, filter)
	if err != nil {
		return nil, storeErr(err)
	}

	return &ListTransactionsResult{
		Transactions: txs,
		Total:        total,
		Page:         filter.Page,
		Limit:        filter.Limit,
	}, nil
}

// ListCategories returns the category reference set.
func (uc *TransactionUseCase) ListCategories(ctx context.Context) ([]*domain.Category, error) {
	cats, err := uc.categoryRepo.List(ctx)
	if err != nil {
		return nil, storeErr(err)
	}

	return cats, nil
}

func (uc *TransactionUseCase) checkCategory(ctx context.Context, t *domain.Transaction) error {
	return checkCategory(ctx, uc.categoryRepo, t.Category, t.Type)
}

func (uc *TransactionUseCase) emit(ctx context.Context, tx Transaction, t *domain.Transaction, eventType string) error {
	if uc.outboxRepo == nil {
		return nil
	}

	event := newEvent(uc.idGen, domain.AggregateTypeTransaction, t.ID, eventType, map[string]any{
		"transaction_id": t.ID,
		"type":           string(t.Type),
		"amount":         t.Amount.String(),
		"category":       t.Category,
		"date":           t.Date.Format(time.DateOnly),
	})

	return uc.outboxRepo.Create(ctx, tx, event)
}

func checkCategory(ctx context.Context, repo CategoryRepository, id string, typ domain.TransactionType) error {
	cat, err := repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if !cat.Accepts(typ) {
		return fmt.Errorf("%w: %s is an %s category", domain.ErrCategoryMismatch, cat.ID, cat.Kind)
	}

	return nil
}

func applyTransactionUpdate(t *domain.Transaction, input UpdateTransactionInput) error {
	if input.Type != nil {
		typ, err := domain.ParseTransactionType(*input.Type)
		if err != nil {
			return err
		}
		t.Type = typ
	}

	if input.Amount != nil {
		t.Amount = *input.Amount
	}

	if input.Description != nil {
		t.Description = strings.TrimSpace(*input.Description)
	}

	if input.Category != nil {
		t.Category = strings.ToUpper(strings.TrimSpace(*input.Category))
	}

	if input.Date != nil {
		t.Date = *input.Date
	}

	if input.EventID != nil {
		if *input.EventID == "" {
			t.EventID = nil
		} else {
			id := *input.EventID
			t.EventID = &id
		}
	}

	return nil
}

func transactionState(t *domain.Transaction) map[string]any {
	return map[string]any{
		"type":        string(t.Type),
		"amount":      t.Amount.String(),
		"description": t.Description,
		"category":    t.Category,
		"date":        t.Date.Format(time.DateOnly),
	}
}
