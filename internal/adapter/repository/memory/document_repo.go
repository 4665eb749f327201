package memory

import (
	"context"
	"fmt"
	"strings"

	"github.com/retrobus-essonne/finance/internal/domain"
	"github.com/retrobus-essonne/finance/internal/usecase"
)

// DocumentRepository implements usecase.DocumentRepository.
type DocumentRepository struct {
	s *Store
}

// Documents returns the document repository of s.
func (s *Store) Documents() *DocumentRepository {
	return &DocumentRepository{s: s}
}

// numberTaken reports whether number belongs to a document other than id.
// Callers hold s.mu.
func (r *DocumentRepository) numberTaken(number, id string) bool {
	for _, d := range r.s.documents {
		if d.Number == number && d.ID != id {
			return true
		}
	}

	return false
}

// Create stores a new document. Numbers are unique.
func (r *DocumentRepository) Create(_ context.Context, tx usecase.Transaction, doc *domain.FinancialDocument) error {
	return r.s.mutate(tx, func() (func(), error) {
		if _, ok := r.s.documents[doc.ID]; ok {
			return nil, fmt.Errorf("memory: document %s already exists", doc.ID)
		}

		if r.numberTaken(doc.Number, doc.ID) {
			return nil, fmt.Errorf("%w: %s", domain.ErrDuplicateNumber, doc.Number)
		}

		undo := restore(r.s.documents, doc.ID)
		r.s.documents[doc.ID] = doc.Clone()

		return undo, nil
	})
}

// Update replaces a stored document.
func (r *DocumentRepository) Update(_ context.Context, tx usecase.Transaction, doc *domain.FinancialDocument) error {
	return r.s.mutate(tx, func() (func(), error) {
		if _, ok := r.s.documents[doc.ID]; !ok {
			return nil, domain.ErrDocumentNotFound
		}

		if r.numberTaken(doc.Number, doc.ID) {
			return nil, fmt.Errorf("%w: %s", domain.ErrDuplicateNumber, doc.Number)
		}

		undo := restore(r.s.documents, doc.ID)
		r.s.documents[doc.ID] = doc.Clone()

		return undo, nil
	})
}

// Delete removes a document.
func (r *DocumentRepository) Delete(_ context.Context, tx usecase.Transaction, id string) error {
	return r.s.mutate(tx, func() (func(), error) {
		if _, ok := r.s.documents[id]; !ok {
			return nil, domain.ErrDocumentNotFound
		}

		undo := restore(r.s.documents, id)
		delete(r.s.documents, id)

		return undo, nil
	})
}

// GetByID returns a copy of a document.
func (r *DocumentRepository) GetByID(_ context.Context, id string) (*domain.FinancialDocument, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	d, ok := r.s.documents[id]
	if !ok {
		return nil, domain.ErrDocumentNotFound
	}

	return d.Clone(), nil
}

// GetByIDForUpdate returns a copy of a document for a writer.
func (r *DocumentRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.FinancialDocument, error) {
	if _, err := r.s.own(tx); err != nil {
		return nil, err
	}

	return r.GetByID(ctx, id)
}

// GetByNumber returns a copy of the document carrying number.
func (r *DocumentRepository) GetByNumber(_ context.Context, number string) (*domain.FinancialDocument, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, d := range r.s.documents {
		if d.Number == number {
			return d.Clone(), nil
		}
	}

	return nil, domain.ErrDocumentNotFound
}

// List returns one page of documents ordered by number.
func (r *DocumentRepository) List(_ context.Context, filter domain.DocumentFilter) ([]*domain.FinancialDocument, int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	all := sortedValues(r.s.documents, func(a, b *domain.FinancialDocument) bool { return a.Number < b.Number })

	matched := all[:0:0]
	for _, d := range all {
		if filter.Type != "" && d.Type != filter.Type {
			continue
		}
		if filter.Status != "" && d.Status != filter.Status {
			continue
		}
		matched = append(matched, d)
	}

	page := paginate(matched, filter.Page, filter.Limit)
	out := make([]*domain.FinancialDocument, 0, len(page))
	for _, d := range page {
		out = append(out, d.Clone())
	}

	return out, len(matched), nil
}

// CountByPrefix counts documents whose number starts with prefix.
func (r *DocumentRepository) CountByPrefix(_ context.Context, prefix string) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	count := 0
	for _, d := range r.s.documents {
		if strings.HasPrefix(d.Number, prefix) {
			count++
		}
	}

	return count, nil
}
