package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/retrobus-essonne/finance/internal/usecase"
)

type fakeIdempotencyStore struct {
	checkAndSetFn func(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	updateFn      func(ctx context.Context, key string, response []byte, ttl time.Duration) error
	released      []string
}

func (f *fakeIdempotencyStore) CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error) {
	if f.checkAndSetFn != nil {
		return f.checkAndSetFn(ctx, key, response, ttl)
	}
	return false, nil, nil
}

func (f *fakeIdempotencyStore) Update(ctx context.Context, key string, response []byte, ttl time.Duration) error {
	if f.updateFn != nil {
		return f.updateFn(ctx, key, response, ttl)
	}
	return nil
}

func (f *fakeIdempotencyStore) Release(_ context.Context, key string) error {
	f.released = append(f.released, key)
	return nil
}

func postWithKey(path, key string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(`{}`))
	req.Header.Set(IdempotencyKeyHeader, key)
	return req
}

func TestIdempotencyMiddleware_StoreErrorFailsRequest(t *testing.T) {
	var called bool
	store := &fakeIdempotencyStore{
		checkAndSetFn: func(context.Context, string, []byte, time.Duration) (bool, []byte, error) {
			return false, nil, context.DeadlineExceeded
		},
	}
	mw := NewIdempotencyMiddleware(store, time.Hour)

	rr := httptest.NewRecorder()
	mw.Wrap(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		called = true
	})).ServeHTTP(rr, postWithKey("/finance/transactions", "key-err"))

	if called {
		t.Fatalf("handler should not be called when store errors")
	}

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected status 500, got %d", rr.Code)
	}
}

func TestIdempotencyMiddleware_ReleasesFailedRequests(t *testing.T) {
	var updated bool
	store := &fakeIdempotencyStore{
		updateFn: func(context.Context, string, []byte, time.Duration) error {
			updated = true
			return nil
		},
	}
	mw := NewIdempotencyMiddleware(store, time.Hour)

	rr := httptest.NewRecorder()
	mw.Wrap(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	})).ServeHTTP(rr, postWithKey("/api/finance/documents/doc-1/payments", "key-fail"))

	if updated {
		t.Fatalf("expected error responses not to be cached")
	}

	if len(store.released) != 1 || !strings.HasSuffix(store.released[0], ":key-fail") {
		t.Fatalf("expected key to be released, got %v", store.released)
	}
}

func TestIdempotencyMiddleware_ReleasesKeyWhenHandlerPanics(t *testing.T) {
	store := &fakeIdempotencyStore{}
	mw := NewIdempotencyMiddleware(store, time.Hour)

	h := mw.Wrap(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	func() {
		defer func() {
			if rec := recover(); rec != "boom" {
				t.Fatalf("expected the panic to propagate, got %v", rec)
			}
		}()
		h.ServeHTTP(httptest.NewRecorder(), postWithKey("/finance/documents", "key-panic"))
	}()

	if len(store.released) != 1 || store.released[0] != "POST:/finance/documents:key-panic" {
		t.Fatalf("expected key to be released, got %v", store.released)
	}
}

func TestIdempotencyMiddleware_SkipsNonMutatingRequests(t *testing.T) {
	store := &fakeIdempotencyStore{
		checkAndSetFn: func(context.Context, string, []byte, time.Duration) (bool, []byte, error) {
			t.Fatalf("store should not be consulted for GET")
			return false, nil, nil
		},
	}
	mw := NewIdempotencyMiddleware(store, 0)

	req := httptest.NewRequest(http.MethodGet, "/finance/transactions", nil)
	req.Header.Set(IdempotencyKeyHeader, "key-get")
	rr := httptest.NewRecorder()

	called := false
	mw.Wrap(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		called = true
	})).ServeHTTP(rr, req)

	if !called {
		t.Fatalf("expected next handler to be called")
	}
}

func TestIdempotencyMiddleware_ReplaysStoredResponse(t *testing.T) {
	stored, _ := json.Marshal(storedResponse{
		Status:      http.StatusCreated,
		ContentType: "application/json",
		Body:        []byte(`{"id":"tx-1"}`),
	})
	store := &fakeIdempotencyStore{
		checkAndSetFn: func(context.Context, string, []byte, time.Duration) (bool, []byte, error) {
			return true, stored, nil
		},
	}
	mw := NewIdempotencyMiddleware(store, time.Hour)

	rr := httptest.NewRecorder()
	mw.Wrap(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatalf("handler should not be called when a stored response exists")
	})).ServeHTTP(rr, postWithKey("/finance/transactions", "key-123"))

	if rr.Header().Get(IdempotencyReplayHeader) != "true" {
		t.Fatalf("expected replay header to be set")
	}

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected replayed status 201, got %d", rr.Code)
	}

	if got := rr.Body.String(); got != `{"id":"tx-1"}` {
		t.Fatalf("unexpected replayed body: %s", got)
	}
}

func TestIdempotencyMiddleware_PendingKeyConflicts(t *testing.T) {
	store := &fakeIdempotencyStore{
		checkAndSetFn: func(context.Context, string, []byte, time.Duration) (bool, []byte, error) {
			return true, []byte(usecase.IdempotencyPending), nil
		},
	}
	mw := NewIdempotencyMiddleware(store, time.Hour)

	rr := httptest.NewRecorder()
	mw.Wrap(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatalf("handler should not run while the key is pending")
	})).ServeHTTP(rr, postWithKey("/finance/transactions", "key-pending"))

	if rr.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rr.Code)
	}
}

func TestIdempotencyMiddleware_StoresSuccessfulResponse(t *testing.T) {
	var (
		storedKey  string
		storedBody []byte
		ttlSeen    time.Duration
	)
	store := &fakeIdempotencyStore{
		updateFn: func(_ context.Context, key string, response []byte, ttl time.Duration) error {
			storedKey = key
			storedBody = append([]byte(nil), response...)
			ttlSeen = ttl
			return nil
		},
	}
	mw := NewIdempotencyMiddleware(store, 2*time.Hour)

	rr := httptest.NewRecorder()
	mw.Wrap(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"ok":true}`))
	})).ServeHTTP(rr, postWithKey("/finance/transactions", "key-456"))

	if rr.Code != http.StatusCreated {
		t.Fatalf("unexpected status code: %d", rr.Code)
	}

	if storedKey != "POST:/finance/transactions:key-456" {
		t.Fatalf("unexpected store key %q", storedKey)
	}

	if ttlSeen != 2*time.Hour {
		t.Fatalf("expected configured ttl, got %v", ttlSeen)
	}

	var saved storedResponse
	if err := json.Unmarshal(storedBody, &saved); err != nil {
		t.Fatalf("stored payload is not JSON: %v", err)
	}

	if saved.Status != http.StatusCreated || string(saved.Body) != `{"ok":true}` || saved.ContentType != "application/json" {
		t.Fatalf("unexpected stored response %+v", saved)
	}
}

func TestIdempotencyMiddleware_RejectsOversizedKey(t *testing.T) {
	mw := NewIdempotencyMiddleware(&fakeIdempotencyStore{}, time.Hour)

	rr := httptest.NewRecorder()
	mw.Wrap(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatalf("handler should not run")
	})).ServeHTTP(rr, postWithKey("/finance/transactions", strings.Repeat("k", 300)))

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}
