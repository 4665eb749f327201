package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRateLimiter_RejectsAboveBurst(t *testing.T) {
	hits := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "test_rate_limit_hits_total"}, []string{"path"})
	rl := NewRateLimiter(0.001, 2, hits)

	handler := rl.Limit(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	codes := make([]int, 0, 3)
	for range 3 {
		req := httptest.NewRequest(http.MethodGet, "/finance/transactions/abc", nil)
		req.RemoteAddr = "192.0.2.10:51000"
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		codes = append(codes, rr.Code)
	}

	if codes[0] != http.StatusOK || codes[1] != http.StatusOK || codes[2] != http.StatusTooManyRequests {
		t.Fatalf("unexpected status codes %v", codes)
	}

	if got := testutil.ToFloat64(hits.WithLabelValues("/finance/transactions/{id}")); got != 1 {
		t.Fatalf("expected one rate limit hit, got %v", got)
	}

	// Another client has its own bucket.
	req := httptest.NewRequest(http.MethodGet, "/finance/transactions", nil)
	req.RemoteAddr = "192.0.2.11:51000"
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected other client to pass, got %d", rr.Code)
	}
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{"forwarded chain", map[string]string{"X-Forwarded-For": "203.0.113.5, 10.0.0.1"}, "10.0.0.1:80", "203.0.113.5"},
		{"real ip", map[string]string{"X-Real-IP": "203.0.113.6"}, "10.0.0.1:80", "203.0.113.6"},
		{"remote addr", nil, "198.51.100.7:4242", "198.51.100.7"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}

			if got := clientIP(req); got != tt.want {
				t.Fatalf("clientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRateLimiter_CleanupForgetsIdleVisitors(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(1, 1, nil)
	rl.now = func() time.Time { return now }

	rl.getLimiter("198.51.100.1")
	now = now.Add(2 * time.Hour)
	rl.getLimiter("198.51.100.2")

	rl.CleanupLimiters(time.Hour)

	if _, ok := rl.visitors["198.51.100.1"]; ok {
		t.Fatalf("expected idle visitor to be removed")
	}
	if _, ok := rl.visitors["198.51.100.2"]; !ok {
		t.Fatalf("expected active visitor to be kept")
	}
}
