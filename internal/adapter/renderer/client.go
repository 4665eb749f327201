// Package renderer talks to the external HTML-to-PDF service.
package renderer

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
)

const (
	// DataURIPrefix prefixes every rendered document.
	DataURIPrefix = "data:application/pdf;base64,"

	defaultTimeout   = 30 * time.Second
	maxResponseBytes = 20 << 20
	maxBackoff       = 2 * time.Second
)

var (
	// ErrEmptyDocument is returned when the renderer answers 2xx with no content.
	ErrEmptyDocument = errors.New("renderer returned an empty document")

	// ErrBadResponse is returned when a 2xx answer cannot be decoded.
	ErrBadResponse = errors.New("unreadable renderer response")
)

// Config for Client.
type Config struct {
	URL        string
	Timeout    time.Duration // per attempt
	MaxRetries int           // retries after the first attempt, on 5xx and transport errors
	HTTPClient *http.Client
}

// Client implements usecase.PDFRenderer over HTTP.
type Client struct {
	url        string
	httpClient *http.Client
	timeout    time.Duration
	maxRetries uint64
	backoff    func() backoff.BackOff
}

type renderRequest struct {
	HTML   string `json:"html"`
	Format string `json:"format"`
}

type renderResponse struct {
	PDF        string `json:"pdf"`
	PDFDataURI string `json:"pdfDataUri"`
}

// statusError carries a non-2xx renderer answer.
type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("renderer returned %d: %s", e.code, e.body)
}

// NewClient creates a new renderer Client.
func NewClient(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	return &Client{
		url:        cfg.URL,
		httpClient: httpClient,
		timeout:    cfg.Timeout,
		maxRetries: uint64(cfg.MaxRetries),
		backoff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 200 * time.Millisecond
			b.MaxInterval = maxBackoff
			b.MaxElapsedTime = 0
			return b
		},
	}
}

// Budget is the longest a Render call can legitimately take: every attempt
// running to its timeout plus the longest wait between attempts. Callers
// bounding Render with a deadline should allow at least this much.
func (c *Client) Budget() time.Duration {
	attempts := time.Duration(c.maxRetries + 1)
	waits := time.Duration(c.maxRetries)

	return c.timeout*attempts + maxBackoff*waits
}

// Render posts the merged html and returns the PDF as a base64 data URI.
func (c *Client) Render(ctx context.Context, html string) (string, error) {
	body, err := json.Marshal(renderRequest{HTML: html, Format: "A4"})
	if err != nil {
		return "", err
	}

	var (
		uri     string
		attempt int
	)

	b := backoff.WithContext(backoff.WithMaxRetries(c.backoff(), c.maxRetries), ctx)
	err = backoff.Retry(func() error {
		attempt++

		var callErr error
		uri, callErr = c.call(ctx, body)
		if callErr == nil {
			return nil
		}

		if !retryable(callErr) || ctx.Err() != nil {
			return backoff.Permanent(callErr)
		}

		zerolog.Ctx(ctx).Warn().
			Err(callErr).
			Int("attempt", attempt).
			Msg("renderer call failed, retrying")

		return callErr
	}, b)
	if err != nil {
		return "", err
	}

	return uri, nil
}

func (c *Client) call(ctx context.Context, body []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrBadResponse, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/pdf, application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &statusError{code: resp.StatusCode, body: truncate(string(data), 200)}
	}

	return decode(resp.Header.Get("Content-Type"), data)
}

// decode accepts either raw PDF bytes or a JSON envelope carrying a data URI
// or bare base64.
func decode(contentType string, data []byte) (string, error) {
	if len(data) == 0 {
		return "", ErrEmptyDocument
	}

	mediaType, _, _ := mime.ParseMediaType(contentType)
	if mediaType != "application/json" {
		return DataURIPrefix + base64.StdEncoding.EncodeToString(data), nil
	}

	var out renderResponse
	if err := json.Unmarshal(data, &out); err != nil {
		return "", fmt.Errorf("%w: %w", ErrBadResponse, err)
	}

	switch {
	case strings.HasPrefix(out.PDFDataURI, DataURIPrefix):
		return out.PDFDataURI, nil
	case out.PDF != "":
		return DataURIPrefix + out.PDF, nil
	default:
		return "", ErrEmptyDocument
	}
}

// retryable reports whether err is a 5xx answer or a transport failure.
func retryable(err error) bool {
	if errors.Is(err, ErrEmptyDocument) || errors.Is(err, ErrBadResponse) {
		return false
	}

	var se *statusError
	if errors.As(err, &se) {
		return se.code >= 500
	}

	return true
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
