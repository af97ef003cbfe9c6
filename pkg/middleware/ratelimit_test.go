package middleware

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestRateLimit_WithinLimit_Passes(t *testing.T) {
	handler := RateLimit(10, 10, newTestLogger())(okHandler())

	for i := 0; i < 5; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/products", nil)
		req.RemoteAddr = "192.168.1.1:54321"
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusOK, rr.Code, "request %d should pass", i+1)
	}
}

func TestRateLimit_OverBurst_Returns429(t *testing.T) {
	handler := RateLimit(1, 3, newTestLogger())(okHandler())

	var limited bool
	for i := 0; i < 10; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/inquiries", nil)
		req.RemoteAddr = "10.0.0.1:54321"
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)

		if rr.Code == http.StatusTooManyRequests {
			limited = true
			assert.Contains(t, rr.Body.String(), "RATE_LIMITED")
			assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
			break
		}
	}

	assert.True(t, limited, "should be limited after exhausting the burst")
}

func TestRateLimit_DifferentIPs_IndependentBuckets(t *testing.T) {
	handler := RateLimit(1, 2, newTestLogger())(okHandler())

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/products", nil)
		req.RemoteAddr = "10.0.0.1:54321"
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusOK, rr.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/products", nil)
	req.RemoteAddr = "10.0.0.2:54321"
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestClientIP_ForwardedForChain(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.9:54321"
	req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.2, 10.0.0.3")

	assert.Equal(t, "203.0.113.7", clientIP(req))
}

func TestClientIP_RealIPFallback(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.9:54321"
	req.Header.Set("X-Real-IP", "198.51.100.4")

	assert.Equal(t, "198.51.100.4", clientIP(req))
}

func TestClientIP_RemoteAddrStripsPort(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.10:443"

	assert.Equal(t, "192.0.2.10", clientIP(req))
}

func TestClientStore_EvictsStaleEntries(t *testing.T) {
	now := time.Now()
	store := &clientStore{
		clients: make(map[string]*client),
		rps:     1,
		burst:   1,
		ttl:     time.Minute,
		nowFunc: func() time.Time { return now },
	}

	store.limiterFor("10.0.0.1")
	store.limiterFor("10.0.0.2")
	assert.Equal(t, 2, store.size())

	// Advance past the TTL and touch one entry so only it survives.
	now = now.Add(2 * time.Minute)
	store.limiterFor("10.0.0.2")
	store.evictStale()

	assert.Equal(t, 1, store.size())
}
