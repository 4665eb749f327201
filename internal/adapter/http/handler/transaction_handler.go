package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/retrobus-essonne/finance/internal/adapter/http/dto"
	"github.com/retrobus-essonne/finance/internal/domain"
	"github.com/retrobus-essonne/finance/internal/usecase"
)

// TransactionService defines the behavior needed by TransactionHandler.
type TransactionService interface {
	CreateTransaction(ctx context.Context, input usecase.CreateTransactionInput) (*domain.Transaction, error)
	UpdateTransaction(ctx context.Context, id string, input usecase.UpdateTransactionInput) (*domain.Transaction, error)
	DeleteTransaction(ctx context.Context, id string) error
	GetTransaction(ctx context.Context, id string) (*domain.Transaction, error)
	ListTransactions(ctx context.Context, filter usecase.TransactionFilter) (*usecase.ListTransactionsResult, error)
	ListCategories(ctx context.Context) ([]*domain.Category, error)
}

// TransactionHandler handles ledger transaction HTTP requests.
type TransactionHandler struct {
	transactionUC TransactionService
}

// NewTransactionHandler creates a new TransactionHandler.
func NewTransactionHandler(transactionUC TransactionService) *TransactionHandler {
	return &TransactionHandler{transactionUC: transactionUC}
}

// List lists transactions, most recent first.
func (h *TransactionHandler) List(w http.ResponseWriter, r *http.Request) {
	result, err := h.transactionUC.ListTransactions(r.Context(), usecase.TransactionFilter{
		EventID: r.URL.Query().Get("eventId"),
		Page:    parseIntQuery(r, "page", 1),
		Limit:   parseIntQuery(r, "limit", domain.DefaultPageSize),
	})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ListTransactionsFromResult(result))
}

// Create books a new transaction.
func (h *TransactionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateTransactionRequest
	if !decodeJSON(w, r, &req, false) {
		return
	}

	t, err := h.transactionUC.CreateTransaction(r.Context(), req.ToUseCaseInput())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.TransactionFromDomain(t))
}

// Get retrieves a transaction by ID.
func (h *TransactionHandler) Get(w http.ResponseWriter, r *http.Request) {
	t, err := h.transactionUC.GetTransaction(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.TransactionFromDomain(t))
}

// Update edits a transaction and re-applies its balance effect.
func (h *TransactionHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req dto.UpdateTransactionRequest
	if !decodeJSON(w, r, &req, false) {
		return
	}

	t, err := h.transactionUC.UpdateTransaction(r.Context(), chi.URLParam(r, "id"), req.ToUseCaseInput())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.TransactionFromDomain(t))
}

// Delete removes a transaction and reverses its balance effect.
func (h *TransactionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.transactionUC.DeleteTransaction(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeDomainError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Categories lists the category reference set.
func (h *TransactionHandler) Categories(w http.ResponseWriter, r *http.Request) {
	cats, err := h.transactionUC.ListCategories(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.CategoriesFromDomain(cats))
}
