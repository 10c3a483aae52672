package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Strob0t/TaskMate/internal/config"
)

func newLimiter(rps float64, burst int) (*RateLimiter, *time.Time) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(config.Rate{RequestsPerSecond: rps, Burst: burst})
	rl.now = func() time.Time { return now }
	return rl, &now
}

func hit(h http.Handler, ip string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/", http.NoBody)
	req.RemoteAddr = ip + ":1234"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func TestRateLimiterAllowsBurst(t *testing.T) {
	rl, _ := newLimiter(10, 10)
	h := rl.Handler(okHandler)
	for i := range 10 {
		if rec := hit(h, "192.168.1.1"); rec.Code != http.StatusOK {
			t.Errorf("request %d: expected 200, got %d", i+1, rec.Code)
		}
	}
}

func TestRateLimiterRejectsOverLimit(t *testing.T) {
	rl, _ := newLimiter(10, 5)
	h := rl.Handler(okHandler)
	for range 5 {
		hit(h, "192.168.1.1")
	}

	rec := hit(h, "192.168.1.1")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}
	if rec.Header().Get("Retry-After") != "1" {
		t.Errorf("Retry-After = %q, want 1", rec.Header().Get("Retry-After"))
	}
	if rec.Header().Get("X-RateLimit-Limit") != "5" {
		t.Errorf("X-RateLimit-Limit = %q", rec.Header().Get("X-RateLimit-Limit"))
	}
}

func TestRateLimiterRefills(t *testing.T) {
	rl, now := newLimiter(2, 1)
	h := rl.Handler(okHandler)

	hit(h, "10.0.0.1")
	if rec := hit(h, "10.0.0.1"); rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}
	*now = now.Add(500 * time.Millisecond)
	if rec := hit(h, "10.0.0.1"); rec.Code != http.StatusOK {
		t.Fatalf("expected refill after 500ms at 2 rps, got %d", rec.Code)
	}
}

func TestRateLimiterPerIP(t *testing.T) {
	rl, _ := newLimiter(10, 2)
	h := rl.Handler(okHandler)
	for range 2 {
		hit(h, "10.0.0.1")
	}
	if rec := hit(h, "10.0.0.1"); rec.Code != http.StatusTooManyRequests {
		t.Errorf("IP 10.0.0.1: expected 429, got %d", rec.Code)
	}
	if rec := hit(h, "10.0.0.2"); rec.Code != http.StatusOK {
		t.Errorf("IP 10.0.0.2: expected 200, got %d", rec.Code)
	}
}

func TestRateLimiterEvict(t *testing.T) {
	rl, now := newLimiter(10, 2)
	h := rl.Handler(okHandler)
	hit(h, "10.0.0.1")
	*now = now.Add(time.Minute)
	hit(h, "10.0.0.2")

	rl.evict(30 * time.Second)
	if rl.Len() != 1 {
		t.Errorf("Len = %d, want 1 after evicting the idle client", rl.Len())
	}
}

func TestRateLimiterRunStopsOnCancel(t *testing.T) {
	rl, _ := newLimiter(10, 2)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		rl.Run(ctx, time.Millisecond, time.Minute)
		close(done)
	}()
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
