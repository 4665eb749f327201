package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/retrobus-essonne/finance/internal/adapter/http/dto"
	"github.com/retrobus-essonne/finance/internal/domain"
	"github.com/retrobus-essonne/finance/internal/usecase"
)

// ScheduledService defines the behavior needed by ScheduledHandler.
type ScheduledService interface {
	CreateOperation(ctx context.Context, input usecase.CreateScheduledInput) (*domain.ScheduledOperation, error)
	GetOperation(ctx context.Context, id string) (*domain.ScheduledOperation, error)
	ListOperations(ctx context.Context) ([]*domain.ScheduledOperation, error)
	UpdateOperation(ctx context.Context, id string, input usecase.UpdateScheduledInput) (*domain.ScheduledOperation, error)
	DeleteOperation(ctx context.Context, id string) error
	Approve(ctx context.Context, id string) (*domain.ScheduledOperation, error)
	Reject(ctx context.Context, id string) (*domain.ScheduledOperation, error)
	RecordPayment(ctx context.Context, id string, input usecase.ScheduledPaymentInput) (*usecase.ScheduledPaymentResult, error)
	ListPayments(ctx context.Context, id string) ([]*domain.ScheduledPayment, error)
}

// ScheduledHandler handles scheduled operation HTTP requests.
type ScheduledHandler struct {
	scheduledUC ScheduledService
}

// NewScheduledHandler creates a new ScheduledHandler.
func NewScheduledHandler(scheduledUC ScheduledService) *ScheduledHandler {
	return &ScheduledHandler{scheduledUC: scheduledUC}
}

// List lists scheduled operations with their projection.
func (h *ScheduledHandler) List(w http.ResponseWriter, r *http.Request) {
	ops, err := h.scheduledUC.ListOperations(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ScheduledOperationsFromDomain(ops))
}

// Create creates a scheduled operation.
func (h *ScheduledHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateScheduledRequest
	if !decodeJSON(w, r, &req, false) {
		return
	}

	op, err := h.scheduledUC.CreateOperation(r.Context(), req.ToUseCaseInput())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.ScheduledOperationFromDomain(op))
}

// Get retrieves a scheduled operation by ID.
func (h *ScheduledHandler) Get(w http.ResponseWriter, r *http.Request) {
	op, err := h.scheduledUC.GetOperation(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ScheduledOperationFromDomain(op))
}

// Update edits a scheduled operation.
func (h *ScheduledHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req dto.UpdateScheduledRequest
	if !decodeJSON(w, r, &req, false) {
		return
	}

	op, err := h.scheduledUC.UpdateOperation(r.Context(), chi.URLParam(r, "id"), req.ToUseCaseInput())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ScheduledOperationFromDomain(op))
}

// Delete removes a scheduled operation. Booked transactions stay.
func (h *ScheduledHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.scheduledUC.DeleteOperation(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeDomainError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Approve approves a pending operation.
func (h *ScheduledHandler) Approve(w http.ResponseWriter, r *http.Request) {
	h.setStatus(w, r, h.scheduledUC.Approve)
}

// Reject rejects an operation; it can no longer be paid.
func (h *ScheduledHandler) Reject(w http.ResponseWriter, r *http.Request) {
	h.setStatus(w, r, h.scheduledUC.Reject)
}

func (h *ScheduledHandler) setStatus(
	w http.ResponseWriter,
	r *http.Request,
	fn func(ctx context.Context, id string) (*domain.ScheduledOperation, error),
) {
	op, err := fn(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ScheduledOperationFromDomain(op))
}

// RecordPayment pays one installment and books the matching transaction.
func (h *ScheduledHandler) RecordPayment(w http.ResponseWriter, r *http.Request) {
	var req dto.ScheduledPaymentRequest
	if !decodeJSON(w, r, &req, false) {
		return
	}

	result, err := h.scheduledUC.RecordPayment(r.Context(), chi.URLParam(r, "id"), req.ToUseCaseInput())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.ScheduledPaymentResultFromDomain(result))
}

// Payments lists the installments paid on an operation.
func (h *ScheduledHandler) Payments(w http.ResponseWriter, r *http.Request) {
	payments, err := h.scheduledUC.ListPayments(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ScheduledPaymentsFromDomain(payments))
}
