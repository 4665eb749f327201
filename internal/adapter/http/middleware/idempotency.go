package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/retrobus-essonne/finance/internal/usecase"
)

const (
	// IdempotencyKeyHeader is the header name for idempotency keys.
	IdempotencyKeyHeader = "Idempotency-Key"

	// IdempotencyReplayHeader is set on responses served from the store.
	IdempotencyReplayHeader = "X-Idempotency-Replay"

	maxIdempotencyKey = 255
)

// storedResponse is what gets saved under an idempotency key.
type storedResponse struct {
	Status      int    `json:"status"`
	ContentType string `json:"contentType,omitempty"`
	Body        []byte `json:"body"`
}

// IdempotencyMiddleware replays the first successful response for a repeated
// Idempotency-Key on POST and PUT requests.
type IdempotencyMiddleware struct {
	store usecase.IdempotencyStore
	ttl   time.Duration
}

// NewIdempotencyMiddleware creates a new IdempotencyMiddleware. A zero ttl
// keeps keys for 24 hours.
func NewIdempotencyMiddleware(store usecase.IdempotencyStore, ttl time.Duration) *IdempotencyMiddleware {
	if ttl <= 0 {
		ttl = usecase.IdempotencyKeyTTL
	}

	return &IdempotencyMiddleware{store: store, ttl: ttl}
}

// Wrap wraps an http.Handler with idempotency checking.
func (m *IdempotencyMiddleware) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost && r.Method != http.MethodPut {
			next.ServeHTTP(w, r)
			return
		}

		key := r.Header.Get(IdempotencyKeyHeader)
		if key == "" {
			next.ServeHTTP(w, r)
			return
		}

		if len(key) > maxIdempotencyKey {
			writeError(w, http.StatusBadRequest, "invalid_request", "idempotency key is too long")
			return
		}

		// Keys are scoped to the endpoint so a reused key cannot replay
		// another route's response.
		storeKey := r.Method + ":" + r.URL.Path + ":" + key
		logger := zerolog.Ctx(r.Context())

		exists, cached, err := m.store.CheckAndSet(r.Context(), storeKey, nil, m.ttl)
		if err != nil {
			logger.Error().Err(err).Msg("idempotency check failed")
			writeError(w, http.StatusInternalServerError, "internal_error", "idempotency check failed")
			return
		}

		if exists {
			if string(cached) == usecase.IdempotencyPending {
				writeError(w, http.StatusConflict, "request_in_progress", "a request with this idempotency key is still in progress")
				return
			}

			replay(w, cached)
			return
		}

		// The request is done; a client disconnect must not lose the result.
		ctx := context.WithoutCancel(r.Context())

		release := func() {
			if err := m.store.Release(ctx, storeKey); err != nil {
				logger.Warn().Err(err).Msg("failed to release idempotency key")
			}
		}

		recorder := &responseRecorder{
			ResponseWriter: w,
			body:           &bytes.Buffer{},
			statusCode:     http.StatusOK,
		}

		// A panicking handler must not leave the key pending until it expires.
		served := false
		defer func() {
			if !served {
				release()
			}
		}()
		next.ServeHTTP(recorder, r)
		served = true

		if recorder.statusCode < 200 || recorder.statusCode >= 300 {
			release()
			return
		}

		payload, err := json.Marshal(storedResponse{
			Status:      recorder.statusCode,
			ContentType: recorder.Header().Get("Content-Type"),
			Body:        recorder.body.Bytes(),
		})
		if err != nil {
			logger.Error().Err(err).Msg("failed to encode idempotent response")
			return
		}

		if err := m.store.Update(ctx, storeKey, payload, m.ttl); err != nil {
			logger.Warn().Err(err).Msg("failed to store idempotent response")
		}
	})
}

func replay(w http.ResponseWriter, cached []byte) {
	var stored storedResponse
	if err := json.Unmarshal(cached, &stored); err != nil || stored.Status == 0 {
		writeError(w, http.StatusInternalServerError, "internal_error", "stored idempotent response is unreadable")
		return
	}

	if stored.ContentType != "" {
		w.Header().Set("Content-Type", stored.ContentType)
	}
	w.Header().Set(IdempotencyReplayHeader, "true")
	w.WriteHeader(stored.Status)
	_, _ = w.Write(stored.Body)
}

type responseRecorder struct {
	http.ResponseWriter

	statusCode int
	body       *bytes.Buffer
}

func (r *responseRecorder) Write(b []byte) (int, error) {
	r.body.Write(b)
	return r.ResponseWriter.Write(b)
}

func (r *responseRecorder) WriteHeader(statusCode int) {
	r.statusCode = statusCode
	r.ResponseWriter.WriteHeader(statusCode)
}
