package handler

import (
	"context"
	"net/http"

	"github.com/retrobus-essonne/finance/internal/adapter/http/dto"
	"github.com/retrobus-essonne/finance/internal/domain"
	"github.com/retrobus-essonne/finance/internal/usecase"
)

// BalanceService defines the behavior needed by BalanceHandler.
type BalanceService interface {
	GetBalance(ctx context.Context) (*domain.Balance, error)
	OverrideBalance(ctx context.Context, input usecase.OverrideBalanceInput) (*domain.Balance, error)
	SetLocked(ctx context.Context, locked bool) (*domain.Balance, error)
}

// ConsistencyChecker runs the ledger consistency check.
type ConsistencyChecker interface {
	CheckConsistency(ctx context.Context) (*usecase.ConsistencyReport, error)
}

// BalanceHandler handles balance and consistency HTTP requests.
type BalanceHandler struct {
	balanceUC BalanceService
	checker   ConsistencyChecker
}

// NewBalanceHandler creates a new BalanceHandler.
func NewBalanceHandler(balanceUC BalanceService, checker ConsistencyChecker) *BalanceHandler {
	return &BalanceHandler{balanceUC: balanceUC, checker: checker}
}

// Get returns the running balance.
func (h *BalanceHandler) Get(w http.ResponseWriter, r *http.Request) {
	b, err := h.balanceUC.GetBalance(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.BalanceFromDomain(b))
}

// Override forces the running balance; refused while locked.
func (h *BalanceHandler) Override(w http.ResponseWriter, r *http.Request) {
	var req dto.OverrideBalanceRequest
	if !decodeJSON(w, r, &req, false) {
		return
	}

	b, err := h.balanceUC.OverrideBalance(r.Context(), req.ToUseCaseInput())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.BalanceFromDomain(b))
}

// Lock locks or unlocks manual overrides.
func (h *BalanceHandler) Lock(w http.ResponseWriter, r *http.Request) {
	var req dto.LockBalanceRequest
	if !decodeJSON(w, r, &req, false) {
		return
	}

	b, err := h.balanceUC.SetLocked(r.Context(), req.Locked)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.BalanceFromDomain(b))
}

// Consistency compares the balance with the ledger and checks documents.
func (h *BalanceHandler) Consistency(w http.ResponseWriter, r *http.Request) {
	report, err := h.checker.CheckConsistency(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ConsistencyFromReport(report))
}
