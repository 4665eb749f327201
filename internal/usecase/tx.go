package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/retrobus-essonne/finance/internal/domain"
)

// txRunner runs a unit of work inside a store transaction, retrying the whole
// unit on transient conflicts when a Retrier is configured.
type txRunner struct {
	txManager TransactionManager
	retrier   Retrier
}

func (r txRunner) run(ctx context.Context, fn func(ctx context.Context, tx Transaction) error) error {
	op := func() error {
		txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
		defer cancel()

		tx, err := r.txManager.Begin(txCtx)
		if err != nil {
			return storeErr(err)
		}
		defer func() { _ = tx.Rollback(txCtx) }()

		if err := fn(txCtx, tx); err != nil {
			return storeErr(err)
		}

		if err := tx.Commit(txCtx); err != nil {
			return storeErr(err)
		}

		return nil
	}

	if r.retrier == nil {
		return op()
	}

	return r.retrier.Retry(ctx, op)
}

// storeErr tags errors that are not part of the domain taxonomy as
// persistence failures. The original error stays reachable through errors.As.
func storeErr(err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrNotFound),
		errors.Is(err, domain.ErrInvalidTransition),
		errors.Is(err, domain.ErrBalanceLocked),
		errors.Is(err, domain.ErrPersistence):
		return err
	}

	return fmt.Errorf("%w: %w", domain.ErrPersistence, err)
}

func newAudit(ctx context.Context, idGen IDGenerator, action domain.AuditAction, resourceType, resourceID string, before, after any) *domain.AuditLog {
	userID := SystemUserID
	if user, ok := domain.UserFromContext(ctx); ok {
		userID = user.ID
	}

	return &domain.AuditLog{
		ID:           idGen.Generate(),
		UserID:       userID,
		Action:       string(action),
		ResourceType: resourceType,
		ResourceID:   resourceID,
		RequestID:    domain.RequestIDFromContext(ctx),
		BeforeState:  domain.MarshalState(before),
		AfterState:   domain.MarshalState(after),
		Status:       string(domain.AuditStatusSuccess),
		CreatedAt:    time.Now().UTC(),
	}
}

func newEvent(idGen IDGenerator, aggregateType, aggregateID, eventType string, payload map[string]any) *domain.OutboxEvent {
	return &domain.OutboxEvent{
		ID:            idGen.Generate(),
		AggregateID:   aggregateID,
		AggregateType: aggregateType,
		EventType:     eventType,
		Payload:       payload,
		CreatedAt:     time.Now().UTC(),
	}
}
