package memory

import (
	"context"
	"maps"
	"slices"
	"time"

	"github.com/retrobus-essonne/finance/internal/domain"
	"github.com/retrobus-essonne/finance/internal/usecase"
)

// OutboxRepository implements usecase.OutboxRepository.
type OutboxRepository struct {
	s *Store
}

// Outbox returns the outbox repository of s.
func (s *Store) Outbox() *OutboxRepository {
	return &OutboxRepository{s: s}
}

func cloneEvent(e *domain.OutboxEvent) *domain.OutboxEvent {
	c := *e
	c.Payload = maps.Clone(e.Payload)
	if e.PublishedAt != nil {
		at := *e.PublishedAt
		c.PublishedAt = &at
	}

	return &c
}

// Create appends an event. It stays invisible to GetUnpublished until the
// transaction commits.
func (r *OutboxRepository) Create(_ context.Context, tx usecase.Transaction, event *domain.OutboxEvent) error {
	return r.s.mutate(tx, func() (func(), error) {
		id := event.ID
		r.s.outbox = append(r.s.outbox, cloneEvent(event))
		r.s.pendingEvents[id] = struct{}{}

		return func() {
			delete(r.s.pendingEvents, id)
			r.s.outbox = slices.DeleteFunc(r.s.outbox, func(e *domain.OutboxEvent) bool { return e.ID == id })
		}, nil
	})
}

// GetUnpublished returns up to limit unpublished events, oldest first.
func (r *OutboxRepository) GetUnpublished(_ context.Context, limit int) ([]*domain.OutboxEvent, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var out []*domain.OutboxEvent
	for _, e := range r.s.outbox {
		if limit > 0 && len(out) >= limit {
			break
		}
		if _, pending := r.s.pendingEvents[e.ID]; pending || e.Published {
			continue
		}
		out = append(out, cloneEvent(e))
	}

	return out, nil
}

// MarkPublished flags an event as published.
func (r *OutboxRepository) MarkPublished(_ context.Context, id string, publishedAt time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for i, e := range r.s.outbox {
		if e.ID == id {
			c := cloneEvent(e)
			c.Published = true
			c.PublishedAt = &publishedAt
			r.s.outbox[i] = c

			return nil
		}
	}

	return nil
}

// DeletePublished drops published events older than before.
func (r *OutboxRepository) DeletePublished(_ context.Context, before time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	r.s.outbox = slices.DeleteFunc(r.s.outbox, func(e *domain.OutboxEvent) bool {
		return e.Published && e.PublishedAt != nil && e.PublishedAt.Before(before)
	})

	return nil
}

// AuditRepository implements usecase.AuditRepository.
type AuditRepository struct {
	s *Store
}

// Audit returns the audit repository of s.
func (s *Store) Audit() *AuditRepository {
	return &AuditRepository{s: s}
}

// CreateTx appends an audit entry in the caller's transaction.
func (r *AuditRepository) CreateTx(_ context.Context, tx usecase.Transaction, log *domain.AuditLog) error {
	return r.s.mutate(tx, func() (func(), error) {
		prev := r.s.audit
		cp := *log
		r.s.audit = append(slices.Clip(r.s.audit), &cp)

		return func() { r.s.audit = prev }, nil
	})
}

// List returns matching audit entries, most recent first.
func (r *AuditRepository) List(_ context.Context, filter domain.AuditFilter) ([]*domain.AuditLog, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var matched []*domain.AuditLog
	for i := len(r.s.audit) - 1; i >= 0; i-- {
		l := r.s.audit[i]
		switch {
		case filter.UserID != "" && l.UserID != filter.UserID,
			filter.Action != "" && l.Action != filter.Action,
			filter.ResourceType != "" && l.ResourceType != filter.ResourceType,
			filter.ResourceID != "" && l.ResourceID != filter.ResourceID:
			continue
		}
		cp := *l
		matched = append(matched, &cp)
	}

	if filter.Offset > 0 {
		if filter.Offset >= len(matched) {
			return nil, nil
		}
		matched = matched[filter.Offset:]
	}

	if filter.Limit > 0 && len(matched) > filter.Limit {
		matched = matched[:filter.Limit]
	}

	return matched, nil
}
