package memory

import (
	"context"
	"fmt"
	"slices"

	"github.com/retrobus-essonne/finance/internal/domain"
	"github.com/retrobus-essonne/finance/internal/usecase"
)

// ScheduledOperationRepository implements usecase.ScheduledOperationRepository.
type ScheduledOperationRepository struct {
	s *Store
}

// ScheduledOperations returns the scheduled operation repository of s.
func (s *Store) ScheduledOperations() *ScheduledOperationRepository {
	return &ScheduledOperationRepository{s: s}
}

// Create stores a new operation.
func (r *ScheduledOperationRepository) Create(_ context.Context, tx usecase.Transaction, op *domain.ScheduledOperation) error {
	return r.s.mutate(tx, func() (func(), error) {
		if _, ok := r.s.operations[op.ID]; ok {
			return nil, fmt.Errorf("memory: scheduled operation %s already exists", op.ID)
		}

		undo := restore(r.s.operations, op.ID)
		r.s.operations[op.ID] = op.Clone()

		return undo, nil
	})
}

// Update replaces a stored operation.
func (r *ScheduledOperationRepository) Update(_ context.Context, tx usecase.Transaction, op *domain.ScheduledOperation) error {
	return r.s.mutate(tx, func() (func(), error) {
		if _, ok := r.s.operations[op.ID]; !ok {
			return nil, domain.ErrOperationNotFound
		}

		undo := restore(r.s.operations, op.ID)
		r.s.operations[op.ID] = op.Clone()

		return undo, nil
	})
}

// Delete removes an operation and its payment records.
func (r *ScheduledOperationRepository) Delete(_ context.Context, tx usecase.Transaction, id string) error {
	return r.s.mutate(tx, func() (func(), error) {
		if _, ok := r.s.operations[id]; !ok {
			return nil, domain.ErrOperationNotFound
		}

		undoOp := restore(r.s.operations, id)
		undoPayments := restore(r.s.payments, id)
		delete(r.s.operations, id)
		delete(r.s.payments, id)

		return func() {
			undoPayments()
			undoOp()
		}, nil
	})
}

// GetByID returns a copy of an operation.
func (r *ScheduledOperationRepository) GetByID(_ context.Context, id string) (*domain.ScheduledOperation, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	op, ok := r.s.operations[id]
	if !ok {
		return nil, domain.ErrOperationNotFound
	}

	return op.Clone(), nil
}

// GetByIDForUpdate returns a copy of an operation for a writer.
func (r *ScheduledOperationRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.ScheduledOperation, error) {
	if _, err := r.s.own(tx); err != nil {
		return nil, err
	}

	return r.GetByID(ctx, id)
}

// List returns every operation by next due date.
func (r *ScheduledOperationRepository) List(_ context.Context) ([]*domain.ScheduledOperation, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	all := sortedValues(r.s.operations, func(a, b *domain.ScheduledOperation) bool {
		if !a.NextDate.Equal(b.NextDate) {
			return a.NextDate.Before(b.NextDate)
		}
		return a.ID < b.ID
	})

	out := make([]*domain.ScheduledOperation, 0, len(all))
	for _, op := range all {
		out = append(out, op.Clone())
	}

	return out, nil
}

// CreatePayment appends an installment record to its operation.
func (r *ScheduledOperationRepository) CreatePayment(_ context.Context, tx usecase.Transaction, p *domain.ScheduledPayment) error {
	return r.s.mutate(tx, func() (func(), error) {
		if _, ok := r.s.operations[p.OperationID]; !ok {
			return nil, domain.ErrOperationNotFound
		}

		undo := restore(r.s.payments, p.OperationID)
		cp := *p
		r.s.payments[p.OperationID] = append(slices.Clone(r.s.payments[p.OperationID]), &cp)

		return undo, nil
	})
}

// ListPayments returns the installments of an operation, oldest first.
func (r *ScheduledOperationRepository) ListPayments(_ context.Context, operationID string) ([]*domain.ScheduledPayment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	stored := r.s.payments[operationID]
	out := make([]*domain.ScheduledPayment, 0, len(stored))
	for _, p := range stored {
		cp := *p
		out = append(out, &cp)
	}

	slices.SortStableFunc(out, func(a, b *domain.ScheduledPayment) int {
		return a.Date.Compare(b.Date)
	})

	return out, nil
}
