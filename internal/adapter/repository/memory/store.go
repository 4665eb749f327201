// Package memory provides an in-process implementation of the usecase
// repositories. It is used when no database is configured and in tests.
//
// A single writer holds the store for the life of a transaction. Mutations
// are applied in place and recorded in an undo log that Rollback replays.
// Readers outside a transaction may observe writes of the running one.
package memory

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/retrobus-essonne/finance/internal/domain"
	"github.com/retrobus-essonne/finance/internal/usecase"
)

var (
	errForeignTx = errors.New("memory: transaction does not belong to this store")
	errTxDone    = errors.New("memory: transaction already finished")
)

// Store holds every aggregate of the ledger in memory.
type Store struct {
	writer chan struct{}

	mu           sync.RWMutex
	transactions map[string]*domain.Transaction
	categories   map[string]*domain.Category
	documents    map[string]*domain.FinancialDocument
	operations   map[string]*domain.ScheduledOperation
	payments     map[string][]*domain.ScheduledPayment
	balance      domain.Balance
	outbox       []*domain.OutboxEvent
	audit        []*domain.AuditLog

	// pendingEvents holds outbox events of the running transaction.
	pendingEvents map[string]struct{}
}

// NewStore creates an empty store holding the default categories.
func NewStore() *Store {
	s := &Store{
		writer:       make(chan struct{}, 1),
		transactions: make(map[string]*domain.Transaction),
		categories:   make(map[string]*domain.Category),
		documents:    make(map[string]*domain.FinancialDocument),
		operations:   make(map[string]*domain.ScheduledOperation),
		payments:     make(map[string][]*domain.ScheduledPayment),

		pendingEvents: make(map[string]struct{}),
	}

	for _, c := range domain.DefaultCategories() {
		s.categories[c.ID] = c
	}

	return s
}

// Begin waits for the writer slot and starts a transaction. It gives up
// when ctx is done first.
func (s *Store) Begin(ctx context.Context) (usecase.Transaction, error) {
	select {
	case s.writer <- struct{}{}:
		return &Tx{store: s}, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Tx is a store transaction.
type Tx struct {
	store *Store
	undo  []func()
	done  bool
}

// Commit keeps the changes and releases the writer slot. A transaction whose
// context has expired is rolled back instead.
func (t *Tx) Commit(ctx context.Context) error {
	if t.done {
		return errTxDone
	}

	if err := ctx.Err(); err != nil {
		_ = t.Rollback(ctx)
		return err
	}

	t.done = true
	t.undo = nil

	t.store.mu.Lock()
	clear(t.store.pendingEvents)
	t.store.mu.Unlock()

	<-t.store.writer

	return nil
}

// Rollback reverts every change made through t. It is a no-op after Commit.
func (t *Tx) Rollback(context.Context) error {
	if t.done {
		return nil
	}

	t.done = true

	t.store.mu.Lock()
	for i := len(t.undo) - 1; i >= 0; i-- {
		t.undo[i]()
	}
	t.store.mu.Unlock()

	t.undo = nil
	<-t.store.writer

	return nil
}

// own checks that tx is a live transaction of s.
func (s *Store) own(tx usecase.Transaction) (*Tx, error) {
	t, ok := tx.(*Tx)
	if !ok || t.store != s {
		return nil, errForeignTx
	}

	if t.done {
		return nil, errTxDone
	}

	return t, nil
}

// mutate runs fn under the write lock and records the undo it returns.
func (s *Store) mutate(tx usecase.Transaction, fn func() (undo func(), err error)) error {
	t, err := s.own(tx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	undo, err := fn()
	if err != nil {
		return err
	}

	if undo != nil {
		t.undo = append(t.undo, undo)
	}

	return nil
}

// restore captures the current value of m[k] and returns a func putting it back.
func restore[K comparable, V any](m map[K]V, k K) func() {
	prev, had := m[k]

	return func() {
		if had {
			m[k] = prev
		} else {
			delete(m, k)
		}
	}
}

// paginate slices items to one 1-based page. A limit below one returns
// everything.
func paginate[T any](items []T, page, limit int) []T {
	if limit < 1 {
		return items
	}

	if page < 1 {
		page = 1
	}

	start := (page - 1) * limit
	if start >= len(items) {
		return nil
	}

	end := min(start+limit, len(items))

	return items[start:end]
}

func sortedValues[T any](m map[string]T, less func(a, b T) bool) []T {
	out := make([]T, 0, len(m))
	for _, v := range m {
		out = append(out, v)
	}

	sort.Slice(out, func(i, j int) bool { return less(out[i], out[j]) })

	return out
}
