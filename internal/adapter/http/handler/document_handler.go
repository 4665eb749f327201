package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/retrobus-essonne/finance/internal/adapter/http/dto"
	"github.com/retrobus-essonne/finance/internal/domain"
	"github.com/retrobus-essonne/finance/internal/usecase"
)

// DocumentService defines the behavior needed by DocumentHandler.
type DocumentService interface {
	CreateDocument(ctx context.Context, input usecase.CreateDocumentInput) (*domain.FinancialDocument, error)
	GetDocument(ctx context.Context, id string) (*domain.FinancialDocument, error)
	ListDocuments(ctx context.Context, filter domain.DocumentFilter) (*usecase.ListDocumentsResult, error)
	UpdateDocument(ctx context.Context, id string, input usecase.UpdateDocumentInput) (*domain.FinancialDocument, error)
	ChangeStatus(ctx context.Context, id, status string) (*usecase.ChangeStatusResult, error)
	ConvertQuote(ctx context.Context, quoteID string) (*domain.FinancialDocument, error)
	DeleteDocument(ctx context.Context, id string) error
	RecordPayment(ctx context.Context, id string, input usecase.RecordPaymentInput) (*domain.FinancialDocument, error)
}

// RenderService defines the behavior needed to render documents.
type RenderService interface {
	GeneratePDF(ctx context.Context, id, htmlContent string) (*usecase.RenderResult, error)
	PreviewHTML(ctx context.Context, id, htmlContent string) (string, error)
}

// DocumentHandler handles quote and invoice HTTP requests.
type DocumentHandler struct {
	documentUC DocumentService
	renderUC   RenderService
}

// NewDocumentHandler creates a new DocumentHandler.
func NewDocumentHandler(documentUC DocumentService, renderUC RenderService) *DocumentHandler {
	return &DocumentHandler{documentUC: documentUC, renderUC: renderUC}
}

// List lists documents, filtered by ?type= and ?status=.
func (h *DocumentHandler) List(w http.ResponseWriter, r *http.Request) {
	filter := domain.DocumentFilter{
		Status: domain.DocumentStatus(strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("status")))),
		Page:   parseIntQuery(r, "page", 1),
		Limit:  parseIntQuery(r, "limit", domain.DefaultPageSize),
	}

	if raw := r.URL.Query().Get("type"); raw != "" {
		t, err := domain.ParseDocumentType(raw)
		if err != nil {
			writeDomainError(w, r, err)
			return
		}
		filter.Type = t
	}

	result, err := h.documentUC.ListDocuments(r.Context(), filter)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ListDocumentsFromResult(result))
}

// Create creates a quote or invoice in DRAFT status.
func (h *DocumentHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateDocumentRequest
	if !decodeJSON(w, r, &req, false) {
		return
	}

	doc, err := h.documentUC.CreateDocument(r.Context(), req.ToUseCaseInput())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.DocumentFromDomain(doc))
}

// Get retrieves a document by ID.
func (h *DocumentHandler) Get(w http.ResponseWriter, r *http.Request) {
	doc, err := h.documentUC.GetDocument(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.DocumentFromDomain(doc))
}

// Update edits a document's content.
func (h *DocumentHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req dto.UpdateDocumentRequest
	if !decodeJSON(w, r, &req, false) {
		return
	}

	doc, err := h.documentUC.UpdateDocument(r.Context(), chi.URLParam(r, "id"), req.ToUseCaseInput())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.DocumentFromDomain(doc))
}

// Delete removes a document for good.
func (h *DocumentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.documentUC.DeleteDocument(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeDomainError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ChangeStatus moves a document to another status of its type.
func (h *DocumentHandler) ChangeStatus(w http.ResponseWriter, r *http.Request) {
	var req dto.ChangeStatusRequest
	if !decodeJSON(w, r, &req, false) {
		return
	}

	result, err := h.documentUC.ChangeStatus(r.Context(), chi.URLParam(r, "id"), req.Status)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ChangeStatusFromResult(result))
}

// RecordPayment records a partial payment.
func (h *DocumentHandler) RecordPayment(w http.ResponseWriter, r *http.Request) {
	var req dto.RecordPaymentRequest
	if !decodeJSON(w, r, &req, false) {
		return
	}

	doc, err := h.documentUC.RecordPayment(r.Context(), chi.URLParam(r, "id"), req.ToUseCaseInput())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.DocumentFromDomain(doc))
}

// Convert persists the invoice drafted from an accepted quote.
func (h *DocumentHandler) Convert(w http.ResponseWriter, r *http.Request) {
	invoice, err := h.documentUC.ConvertQuote(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.DocumentFromDomain(invoice))
}

// GeneratePDF renders the document through the external renderer.
func (h *DocumentHandler) GeneratePDF(w http.ResponseWriter, r *http.Request) {
	var req dto.GeneratePDFRequest
	if !decodeJSON(w, r, &req, true) {
		return
	}

	result, err := h.renderUC.GeneratePDF(r.Context(), chi.URLParam(r, "id"), req.HTMLContent)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.RenderFromResult(result))
}

// Preview returns the merged HTML without rendering it.
func (h *DocumentHandler) Preview(w http.ResponseWriter, r *http.Request) {
	var req dto.GeneratePDFRequest
	if !decodeJSON(w, r, &req, true) {
		return
	}

	html, err := h.renderUC.PreviewHTML(r.Context(), chi.URLParam(r, "id"), req.HTMLContent)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(html))
}
