package handler

import (
	"context"
	"net/http"

	"github.com/retrobus-essonne/finance/internal/adapter/http/dto"
	"github.com/retrobus-essonne/finance/internal/usecase"
)

// ReportService defines the behavior needed by ReportHandler.
type ReportService interface {
	CategoryBreakdown(ctx context.Context, period string) (*usecase.CategoryReport, error)
	MonthlyBreakdown(ctx context.Context, year int) (*usecase.MonthlyReport, error)
}

// ReportHandler serves read-side aggregates.
type ReportHandler struct {
	reportUC ReportService
}

// NewReportHandler creates a new ReportHandler.
func NewReportHandler(reportUC ReportService) *ReportHandler {
	return &ReportHandler{reportUC: reportUC}
}

// CategoryBreakdown totals transactions per category over ?period=all|YYYY|YYYY-MM.
func (h *ReportHandler) CategoryBreakdown(w http.ResponseWriter, r *http.Request) {
	report, err := h.reportUC.CategoryBreakdown(r.Context(), r.URL.Query().Get("period"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.CategoryBreakdownFromReport(report))
}

// MonthlyBreakdown totals transactions per month of ?year=, the current year
// by default.
func (h *ReportHandler) MonthlyBreakdown(w http.ResponseWriter, r *http.Request) {
	year := parseIntQuery(r, "year", 0)
	if raw := r.URL.Query().Get("year"); raw != "" && year == 0 {
		writeError(w, http.StatusBadRequest, "validation_error", "year must be a number")
		return
	}

	report, err := h.reportUC.MonthlyBreakdown(r.Context(), year)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.MonthlyBreakdownFromReport(report))
}
