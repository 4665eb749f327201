package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/retrobus-essonne/finance/internal/adapter/http/dto"
	"github.com/retrobus-essonne/finance/internal/domain"
	"github.com/retrobus-essonne/finance/internal/usecase"
)

type documentServiceStub struct {
	createFn  func(ctx context.Context, input usecase.CreateDocumentInput) (*domain.FinancialDocument, error)
	getFn     func(ctx context.Context, id string) (*domain.FinancialDocument, error)
	listFn    func(ctx context.Context, filter domain.DocumentFilter) (*usecase.ListDocumentsResult, error)
	updateFn  func(ctx context.Context, id string, input usecase.UpdateDocumentInput) (*domain.FinancialDocument, error)
	statusFn  func(ctx context.Context, id, status string) (*usecase.ChangeStatusResult, error)
	convertFn func(ctx context.Context, quoteID string) (*domain.FinancialDocument, error)
	deleteFn  func(ctx context.Context, id string) error
	paymentFn func(ctx context.Context, id string, input usecase.RecordPaymentInput) (*domain.FinancialDocument, error)
}

func (s *documentServiceStub) CreateDocument(ctx context.Context, input usecase.CreateDocumentInput) (*domain.FinancialDocument, error) {
	return s.createFn(ctx, input)
}

func (s *documentServiceStub) GetDocument(ctx context.Context, id string) (*domain.FinancialDocument, error) {
	return s.getFn(ctx, id)
}

func (s *documentServiceStub) ListDocuments(ctx context.Context, filter domain.DocumentFilter) (*usecase.ListDocumentsResult, error) {
	return s.listFn(ctx, filter)
}

func (s *documentServiceStub) UpdateDocument(ctx context.Context, id string, input usecase.UpdateDocumentInput) (*domain.FinancialDocument, error) {
	return s.updateFn(ctx, id, input)
}

func (s *documentServiceStub) ChangeStatus(ctx context.Context, id, status string) (*usecase.ChangeStatusResult, error) {
	return s.statusFn(ctx, id, status)
}

func (s *documentServiceStub) ConvertQuote(ctx context.Context, quoteID string) (*domain.FinancialDocument, error) {
	return s.convertFn(ctx, quoteID)
}

func (s *documentServiceStub) DeleteDocument(ctx context.Context, id string) error {
	return s.deleteFn(ctx, id)
}

func (s *documentServiceStub) RecordPayment(ctx context.Context, id string, input usecase.RecordPaymentInput) (*domain.FinancialDocument, error) {
	return s.paymentFn(ctx, id, input)
}

type renderServiceStub struct {
	generateFn func(ctx context.Context, id, htmlContent string) (*usecase.RenderResult, error)
	previewFn  func(ctx context.Context, id, htmlContent string) (string, error)
}

func (s *renderServiceStub) GeneratePDF(ctx context.Context, id, htmlContent string) (*usecase.RenderResult, error) {
	return s.generateFn(ctx, id, htmlContent)
}

func (s *renderServiceStub) PreviewHTML(ctx context.Context, id, htmlContent string) (string, error) {
	return s.previewFn(ctx, id, htmlContent)
}

func sampleInvoice() *domain.FinancialDocument {
	return &domain.FinancialDocument{
		ID:         "doc-1",
		Type:       domain.DocumentInvoice,
		Number:     "FA-2025-001",
		Title:      "Prestation mariage",
		Amount:     decimal.NewFromInt(500),
		AmountPaid: decimal.NewFromInt(200),
		Status:     domain.StatusDepositPaid,
	}
}

func TestDocumentHandler_ListFilters(t *testing.T) {
	var captured domain.DocumentFilter
	h := NewDocumentHandler(&documentServiceStub{
		listFn: func(_ context.Context, filter domain.DocumentFilter) (*usecase.ListDocumentsResult, error) {
			captured = filter
			return &usecase.ListDocumentsResult{Documents: []*domain.FinancialDocument{sampleInvoice()}, Total: 1, Page: 1, Limit: 10}, nil
		},
	}, nil)

	rec := httptest.NewRecorder()
	h.List(rec, httptest.NewRequest(http.MethodGet, "/api/finance/documents?type=invoice&status=sent&limit=10", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if captured.Type != domain.DocumentInvoice || captured.Status != domain.StatusSent || captured.Limit != 10 {
		t.Fatalf("unexpected filter %+v", captured)
	}

	rec = httptest.NewRecorder()
	h.List(rec, httptest.NewRequest(http.MethodGet, "/api/finance/documents?type=receipt", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown type, got %d", rec.Code)
	}
}

func TestDocumentHandler_CreateDuplicateNumber(t *testing.T) {
	h := NewDocumentHandler(&documentServiceStub{
		createFn: func(context.Context, usecase.CreateDocumentInput) (*domain.FinancialDocument, error) {
			return nil, fmt.Errorf("%w: FA-2025-001", domain.ErrDuplicateNumber)
		},
	}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/finance/documents", jsonBody(t, map[string]any{
		"type": "INVOICE", "number": "FA-2025-001", "title": "x", "amount": "10",
	}))
	rec := httptest.NewRecorder()

	h.Create(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestDocumentHandler_ChangeStatus(t *testing.T) {
	quote := &domain.FinancialDocument{ID: "q-1", Type: domain.DocumentQuote, Number: "DV-2025-001", Status: domain.StatusAccepted}
	draft := &domain.FinancialDocument{Type: domain.DocumentInvoice, Number: "FA-2025-002", Status: domain.StatusDraft}

	tests := []struct {
		name   string
		result *usecase.ChangeStatusResult
		err    error
		status int
		draft  bool
	}{
		{"accepted quote carries a draft", &usecase.ChangeStatusResult{Document: quote, Draft: draft}, nil, http.StatusOK, true},
		{"plain transition", &usecase.ChangeStatusResult{Document: sampleInvoice()}, nil, http.StatusOK, false},
		{"status outside the type's set", nil, domain.ErrInvalidTransition, http.StatusConflict, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewDocumentHandler(&documentServiceStub{
				statusFn: func(_ context.Context, id, status string) (*usecase.ChangeStatusResult, error) {
					if id != "q-1" || status != "ACCEPTED" {
						t.Fatalf("unexpected call %s %s", id, status)
					}
					return tt.result, tt.err
				},
			}, nil)

			req := withURLParam(httptest.NewRequest(http.MethodPost, "/api/finance/documents/q-1/status",
				bytes.NewReader([]byte(`{"status":"ACCEPTED"}`))), "id", "q-1")
			rec := httptest.NewRecorder()

			h.ChangeStatus(rec, req)

			if rec.Code != tt.status {
				t.Fatalf("expected %d, got %d", tt.status, rec.Code)
			}
			if tt.err != nil {
				return
			}

			var resp dto.ChangeStatusResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}
			if (resp.DraftInvoice != nil) != tt.draft {
				t.Fatalf("unexpected draft %+v", resp.DraftInvoice)
			}
		})
	}
}

func TestDocumentHandler_RecordPayment(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"recorded", nil, http.StatusOK},
		{"overpayment", domain.ErrOverpayment, http.StatusBadRequest},
		{"unknown document", domain.ErrDocumentNotFound, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewDocumentHandler(&documentServiceStub{
				paymentFn: func(_ context.Context, _ string, input usecase.RecordPaymentInput) (*domain.FinancialDocument, error) {
					if input.Method != "Chèque" || input.Date.IsZero() || !input.Amount.Equal(decimal.NewFromInt(100)) {
						t.Fatalf("unexpected input %+v", input)
					}
					if tt.err != nil {
						return nil, tt.err
					}
					return sampleInvoice(), nil
				},
			}, nil)

			req := withURLParam(httptest.NewRequest(http.MethodPost, "/api/finance/documents/doc-1/payments",
				bytes.NewReader([]byte(`{"amount":"100","method":"Chèque","date":"2025-02-10"}`))), "id", "doc-1")
			rec := httptest.NewRecorder()

			h.RecordPayment(rec, req)

			if rec.Code != tt.status {
				t.Fatalf("expected %d, got %d: %s", tt.status, rec.Code, rec.Body.String())
			}
		})
	}
}

func TestDocumentHandler_ConvertAndDelete(t *testing.T) {
	invoice := sampleInvoice()
	quoteID := "q-1"
	invoice.SourceQuoteID = &quoteID

	h := NewDocumentHandler(&documentServiceStub{
		convertFn: func(_ context.Context, id string) (*domain.FinancialDocument, error) {
			if id != "q-1" {
				return nil, domain.ErrQuoteOnly
			}
			return invoice, nil
		},
		deleteFn: func(context.Context, string) error { return domain.ErrDocumentNotFound },
	}, nil)

	rec := httptest.NewRecorder()
	h.Convert(rec, withURLParam(httptest.NewRequest(http.MethodPost, "/api/finance/documents/q-1/convert", nil), "id", "q-1"))
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.Convert(rec, withURLParam(httptest.NewRequest(http.MethodPost, "/api/finance/documents/doc-1/convert", nil), "id", "doc-1"))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for non-quote, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.Delete(rec, withURLParam(httptest.NewRequest(http.MethodDelete, "/api/finance/documents/gone", nil), "id", "gone"))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestDocumentHandler_GeneratePDF(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		html   string
		err    error
		status int
	}{
		{"stored template", "", "", nil, http.StatusOK},
		{"request template", `{"htmlContent":"<p>{{NUMERO}}</p>"}`, "<p>{{NUMERO}}</p>", nil, http.StatusOK},
		{"renderer down", "", "", fmt.Errorf("%w: renderer returned 503", domain.ErrRenderFailure), http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewDocumentHandler(nil, &renderServiceStub{
				generateFn: func(_ context.Context, id, html string) (*usecase.RenderResult, error) {
					if html != tt.html {
						t.Fatalf("expected template %q, got %q", tt.html, html)
					}
					if tt.err != nil {
						return nil, tt.err
					}
					return &usecase.RenderResult{PDFDataURI: "data:application/pdf;base64,QUJD", Filename: "Facture_FA-2025-001.pdf"}, nil
				},
			})

			req := withURLParam(httptest.NewRequest(http.MethodPost, "/api/finance/documents/doc-1/generate-pdf",
				strings.NewReader(tt.body)), "id", "doc-1")
			rec := httptest.NewRecorder()

			h.GeneratePDF(rec, req)

			if rec.Code != tt.status {
				t.Fatalf("expected %d, got %d", tt.status, rec.Code)
			}
			if tt.err != nil {
				return
			}

			var resp dto.RenderResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}
			if !strings.HasPrefix(resp.PDFDataURI, "data:application/pdf;base64,") || resp.Filename == "" {
				t.Fatalf("unexpected response %+v", resp)
			}
		})
	}
}

func TestDocumentHandler_Preview(t *testing.T) {
	h := NewDocumentHandler(nil, &renderServiceStub{
		previewFn: func(context.Context, string, string) (string, error) {
			return "<p>FA-2025-001</p>", nil
		},
	})

	rec := httptest.NewRecorder()
	h.Preview(rec, withURLParam(httptest.NewRequest(http.MethodPost, "/api/finance/documents/doc-1/preview", nil), "id", "doc-1"))

	if rec.Code != http.StatusOK || !strings.HasPrefix(rec.Header().Get("Content-Type"), "text/html") {
		t.Fatalf("unexpected preview response %d %s", rec.Code, rec.Header().Get("Content-Type"))
	}
	if rec.Body.String() != "<p>FA-2025-001</p>" {
		t.Fatalf("unexpected body %q", rec.Body.String())
	}
}
