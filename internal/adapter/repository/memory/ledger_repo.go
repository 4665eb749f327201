package memory

import (
	"context"
	"fmt"

	"github.com/retrobus-essonne/finance/internal/domain"
	"github.com/retrobus-essonne/finance/internal/usecase"
)

// TransactionRepository implements usecase.TransactionRepository.
type TransactionRepository struct {
	s *Store
}

// Transactions returns the transaction repository of s.
func (s *Store) Transactions() *TransactionRepository {
	return &TransactionRepository{s: s}
}

func cloneTransaction(t *domain.Transaction) *domain.Transaction {
	c := *t
	if t.EventID != nil {
		id := *t.EventID
		c.EventID = &id
	}

	if t.ScheduledOperationID != nil {
		id := *t.ScheduledOperationID
		c.ScheduledOperationID = &id
	}

	return &c
}

// Create stores a new transaction.
func (r *TransactionRepository) Create(_ context.Context, tx usecase.Transaction, t *domain.Transaction) error {
	return r.s.mutate(tx, func() (func(), error) {
		if _, ok := r.s.transactions[t.ID]; ok {
			return nil, fmt.Errorf("memory: transaction %s already exists", t.ID)
		}

		undo := restore(r.s.transactions, t.ID)
		r.s.transactions[t.ID] = cloneTransaction(t)

		return undo, nil
	})
}

// Update replaces a stored transaction.
func (r *TransactionRepository) Update(_ context.Context, tx usecase.Transaction, t *domain.Transaction) error {
	return r.s.mutate(tx, func() (func(), error) {
		if _, ok := r.s.transactions[t.ID]; !ok {
			return nil, domain.ErrTransactionNotFound
		}

		undo := restore(r.s.transactions, t.ID)
		r.s.transactions[t.ID] = cloneTransaction(t)

		return undo, nil
	})
}

// Delete removes a transaction.
func (r *TransactionRepository) Delete(_ context.Context, tx usecase.Transaction, id string) error {
	return r.s.mutate(tx, func() (func(), error) {
		if _, ok := r.s.transactions[id]; !ok {
			return nil, domain.ErrTransactionNotFound
		}

		undo := restore(r.s.transactions, id)
		delete(r.s.transactions, id)

		return undo, nil
	})
}

// GetByID returns a copy of a transaction.
func (r *TransactionRepository) GetByID(_ context.Context, id string) (*domain.Transaction, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	t, ok := r.s.transactions[id]
	if !ok {
		return nil, domain.ErrTransactionNotFound
	}

	return cloneTransaction(t), nil
}

// GetByIDForUpdate returns a copy of a transaction. The writer slot held by
// tx already excludes concurrent writers.
func (r *TransactionRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.Transaction, error) {
	if _, err := r.s.own(tx); err != nil {
		return nil, err
	}

	return r.GetByID(ctx, id)
}

// List returns one page of transactions, most recent first.
func (r *TransactionRepository) List(_ context.Context, filter usecase.TransactionFilter) ([]*domain.Transaction, int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	all := sortedValues(r.s.transactions, func(a, b *domain.Transaction) bool {
		if !a.Date.Equal(b.Date) {
			return a.Date.After(b.Date)
		}
		return a.ID > b.ID
	})

	matched := all[:0:0]
	for _, t := range all {
		if filter.EventID != "" && (t.EventID == nil || *t.EventID != filter.EventID) {
			continue
		}
		matched = append(matched, t)
	}

	page := paginate(matched, filter.Page, filter.Limit)
	out := make([]*domain.Transaction, 0, len(page))
	for _, t := range page {
		out = append(out, cloneTransaction(t))
	}

	return out, len(matched), nil
}

// ListAll returns every transaction ordered by date.
func (r *TransactionRepository) ListAll(_ context.Context) ([]*domain.Transaction, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	all := sortedValues(r.s.transactions, func(a, b *domain.Transaction) bool {
		if !a.Date.Equal(b.Date) {
			return a.Date.Before(b.Date)
		}
		return a.ID < b.ID
	})

	out := make([]*domain.Transaction, 0, len(all))
	for _, t := range all {
		out = append(out, cloneTransaction(t))
	}

	return out, nil
}

// CategoryRepository implements usecase.CategoryRepository.
type CategoryRepository struct {
	s *Store
}

// Categories returns the category repository of s.
func (s *Store) Categories() *CategoryRepository {
	return &CategoryRepository{s: s}
}

// List returns every category ordered by id.
func (r *CategoryRepository) List(_ context.Context) ([]*domain.Category, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	all := sortedValues(r.s.categories, func(a, b *domain.Category) bool { return a.ID < b.ID })
	out := make([]*domain.Category, 0, len(all))
	for _, c := range all {
		cp := *c
		out = append(out, &cp)
	}

	return out, nil
}

// GetByID returns one category.
func (r *CategoryRepository) GetByID(_ context.Context, id string) (*domain.Category, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	c, ok := r.s.categories[id]
	if !ok {
		return nil, domain.ErrCategoryNotFound
	}

	cp := *c

	return &cp, nil
}

// BalanceRepository implements usecase.BalanceRepository.
type BalanceRepository struct {
	s *Store
}

// Balance returns the balance repository of s.
func (s *Store) Balance() *BalanceRepository {
	return &BalanceRepository{s: s}
}

// Get returns a copy of the balance.
func (r *BalanceRepository) Get(_ context.Context) (*domain.Balance, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	b := r.s.balance

	return &b, nil
}

// GetForUpdate returns a copy of the balance for a writer.
func (r *BalanceRepository) GetForUpdate(ctx context.Context, tx usecase.Transaction) (*domain.Balance, error) {
	if _, err := r.s.own(tx); err != nil {
		return nil, err
	}

	return r.Get(ctx)
}

// Save replaces the balance.
func (r *BalanceRepository) Save(_ context.Context, tx usecase.Transaction, b *domain.Balance) error {
	return r.s.mutate(tx, func() (func(), error) {
		prev := r.s.balance
		r.s.balance = *b

		return func() { r.s.balance = prev }, nil
	})
}
