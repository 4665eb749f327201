package usecase_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/retrobus-essonne/finance/internal/domain"
	"github.com/retrobus-essonne/finance/internal/usecase"
	"github.com/retrobus-essonne/finance/internal/usecase/mocks"
)

const fakePDF = "data:application/pdf;base64,JVBERi0xLjQK"

func TestRenderUseCase_GeneratePDFTemplateSelection(t *testing.T) {
	tests := []struct {
		name     string
		stored   string
		request  string
		contains string
	}{
		{"request template wins", "<p>stored {{TITRE}}</p>", "<p>request {{TITRE}}</p>", "<p>request Restauration</p>"},
		{"stored template", "<p>stored {{TITRE}}</p>", "   ", "<p>stored Restauration</p>"},
		{"default template", "", "", "Restauration"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)

			f := newFixture(t, "0")
			doc := createDocument(t, f, "QUOTE", "DV-2025-050", "1200")
			_, err := f.documents.UpdateDocument(context.Background(), doc.ID, usecase.UpdateDocumentInput{
				Title:       strPtr("Restauration"),
				HTMLContent: strPtr(tt.stored),
			})
			require.NoError(t, err)

			renderer := mocks.NewMockPDFRenderer(ctrl)
			renderer.EXPECT().
				Render(gomock.Any(), gomock.Any()).
				DoAndReturn(func(_ context.Context, html string) (string, error) {
					assert.Contains(t, html, tt.contains)
					assert.NotContains(t, html, "{{")
					return fakePDF, nil
				})

			uc := usecase.NewRenderUseCase(f.docRepo, renderer, nil, time.Second, nil)

			result, err := uc.GeneratePDF(context.Background(), doc.ID, tt.request)
			require.NoError(t, err)
			assert.Equal(t, fakePDF, result.PDFDataURI)
			assert.Equal(t, "Devis_DV-2025-050.pdf", result.Filename)
			assert.False(t, result.Cached)
		})
	}
}

func TestRenderUseCase_FailureLeavesDocumentUntouched(t *testing.T) {
	ctrl := gomock.NewController(t)

	f := newFixture(t, "0")
	doc := createDocument(t, f, "INVOICE", "FA-2025-050", "300")

	updates := 0
	f.docRepo.UpdateFunc = func(context.Context, usecase.Transaction, *domain.FinancialDocument) error {
		updates++
		return nil
	}

	renderer := mocks.NewMockPDFRenderer(ctrl)
	renderer.EXPECT().Render(gomock.Any(), gomock.Any()).Return("", errors.New("renderer returned 503"))

	uc := usecase.NewRenderUseCase(f.docRepo, renderer, nil, time.Second, nil)

	_, err := uc.GeneratePDF(context.Background(), doc.ID, "")
	require.ErrorIs(t, err, domain.ErrRenderFailure)
	assert.Zero(t, updates)

	stored, err := f.documents.GetDocument(context.Background(), doc.ID)
	require.NoError(t, err)
	assert.Equal(t, doc.Version, stored.Version)
}

func TestRenderUseCase_CacheHitSkipsRenderer(t *testing.T) {
	ctrl := gomock.NewController(t)

	f := newFixture(t, "0")
	doc := createDocument(t, f, "INVOICE", "FA-2025-051", "300")

	renderer := mocks.NewMockPDFRenderer(ctrl)
	cache := mocks.NewMockCache(ctrl)

	var storedKey string
	gomock.InOrder(
		cache.EXPECT().Get(gomock.Any(), gomock.Any()).Return(nil, errors.New("cache miss")),
		renderer.EXPECT().Render(gomock.Any(), gomock.Any()).Return(fakePDF, nil),
		cache.EXPECT().Set(gomock.Any(), gomock.Any(), []byte(fakePDF), usecase.RenderCacheTTL).
			DoAndReturn(func(_ context.Context, key string, _ []byte, _ time.Duration) error {
				storedKey = key
				return nil
			}),
		cache.EXPECT().Get(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, key string) ([]byte, error) {
				assert.Equal(t, storedKey, key)
				return []byte(fakePDF), nil
			}),
	)

	uc := usecase.NewRenderUseCase(f.docRepo, renderer, cache, time.Second, nil)

	first, err := uc.GeneratePDF(context.Background(), doc.ID, "")
	require.NoError(t, err)
	assert.False(t, first.Cached)
	assert.True(t, strings.HasPrefix(storedKey, "pdf:"+doc.ID+":"))

	second, err := uc.GeneratePDF(context.Background(), doc.ID, "")
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.Equal(t, fakePDF, second.PDFDataURI)
}

func TestRenderUseCase_UnknownDocument(t *testing.T) {
	ctrl := gomock.NewController(t)

	f := newFixture(t, "0")
	renderer := mocks.NewMockPDFRenderer(ctrl)

	uc := usecase.NewRenderUseCase(f.docRepo, renderer, nil, 0, nil)

	_, err := uc.GeneratePDF(context.Background(), "missing", "")
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRenderUseCase_PreviewHTML(t *testing.T) {
	f := newFixture(t, "0")
	doc := createDocument(t, f, "INVOICE", "FA-2025-052", "1234.5")

	uc := usecase.NewRenderUseCase(f.docRepo, nil, nil, 0, nil)

	html, err := uc.PreviewHTML(context.Background(), doc.ID, "<b>{{NUMERO}}</b> {{MONTANT}} {{INCONNU}}")
	require.NoError(t, err)
	assert.Equal(t, "<b>FA-2025-052</b> 1 234,50 € ", html)
}
