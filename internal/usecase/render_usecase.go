package usecase

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/retrobus-essonne/finance/internal/domain"
	"github.com/retrobus-essonne/finance/internal/infrastructure/metrics"
)

// DefaultRenderTimeout bounds one Render call, retries included.
const DefaultRenderTimeout = 30 * time.Second

// RenderUseCase merges document data into HTML templates and has them
// rendered to PDF. Rendering never writes to the document.
type RenderUseCase struct {
	docRepo  DocumentRepository
	renderer PDFRenderer
	cache    Cache
	cacheTTL time.Duration
	timeout  time.Duration
	metrics  *metrics.Metrics
}

// NewRenderUseCase creates a new RenderUseCase. cache may be nil.
func NewRenderUseCase(
	docRepo DocumentRepository,
	renderer PDFRenderer,
	cache Cache,
	timeout time.Duration,
	metrics *metrics.Metrics,
) *RenderUseCase {
	if timeout <= 0 {
		timeout = DefaultRenderTimeout
	}

	return &RenderUseCase{
		docRepo:  docRepo,
		renderer: renderer,
		cache:    cache,
		cacheTTL: RenderCacheTTL,
		timeout:  timeout,
		metrics:  metrics,
	}
}

// SetCacheTTL changes how long rendered PDFs stay cached.
func (uc *RenderUseCase) SetCacheTTL(ttl time.Duration) {
	if ttl > 0 {
		uc.cacheTTL = ttl
	}
}

// RenderResult is a rendered document.
type RenderResult struct {
	PDFDataURI string
	Filename   string
	Cached     bool
}

// GeneratePDF renders document id. The template is htmlContent when given,
// else the document's stored template, else the built-in one.
func (uc *RenderUseCase) GeneratePDF(ctx context.Context, id, htmlContent string) (*RenderResult, error) {
	doc, err := uc.docRepo.GetByID(ctx, id)
	if err != nil {
		return nil, storeErr(err)
	}

	merged := domain.MergeTemplate(pickTemplate(htmlContent, doc), domain.DocumentFields(doc))
	filename := pdfFilename(doc)
	key := renderCacheKey(doc, merged)

	if uri, ok := uc.cached(ctx, key); ok {
		return &RenderResult{PDFDataURI: uri, Filename: filename, Cached: true}, nil
	}

	renderCtx, cancel := context.WithTimeout(ctx, uc.timeout)
	defer cancel()

	start := time.Now()
	uri, err := uc.renderer.Render(renderCtx, merged)

	if uc.metrics != nil {
		uc.metrics.RenderDuration.Observe(time.Since(start).Seconds())
	}

	if err != nil {
		if uc.metrics != nil {
			uc.metrics.RenderFailures.Inc()
		}
		return nil, fmt.Errorf("%w: %w", domain.ErrRenderFailure, err)
	}

	if uc.cache != nil {
		if err := uc.cache.Set(ctx, key, []byte(uri), uc.cacheTTL); err != nil {
			zerolog.Ctx(ctx).Warn().Err(err).Str("document_id", id).Msg("failed to cache rendered pdf")
		}
	}

	return &RenderResult{PDFDataURI: uri, Filename: filename}, nil
}

// PreviewHTML returns the merged HTML without rendering it.
func (uc *RenderUseCase) PreviewHTML(ctx context.Context, id, htmlContent string) (string, error) {
	doc, err := uc.docRepo.GetByID(ctx, id)
	if err != nil {
		return "", storeErr(err)
	}

	return domain.MergeTemplate(pickTemplate(htmlContent, doc), domain.DocumentFields(doc)), nil
}

func (uc *RenderUseCase) cached(ctx context.Context, key string) (string, bool) {
	if uc.cache == nil {
		return "", false
	}

	data, err := uc.cache.Get(ctx, key)
	if err != nil || len(data) == 0 {
		return "", false
	}

	if uc.metrics != nil {
		uc.metrics.RenderCacheHits.Inc()
	}

	return string(data), true
}

func pickTemplate(htmlContent string, doc *domain.FinancialDocument) string {
	switch {
	case strings.TrimSpace(htmlContent) != "":
		return htmlContent
	case strings.TrimSpace(doc.HTMLContent) != "":
		return doc.HTMLContent
	default:
		return domain.DefaultDocumentTemplate
	}
}

func renderCacheKey(doc *domain.FinancialDocument, merged string) string {
	sum := sha256.Sum256([]byte(merged))
	return fmt.Sprintf("pdf:%s:%d:%s", doc.ID, doc.Version, hex.EncodeToString(sum[:8]))
}

func pdfFilename(doc *domain.FinancialDocument) string {
	label := "Facture"
	if doc.Type == domain.DocumentQuote {
		label = "Devis"
	}

	number := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, doc.Number)

	return label + "_" + number + ".pdf"
}
