package server

import (
	"net/http"
	"testing"
	"time"

	"hear-me-out/internal/config"
)

func TestRateLimiterBurstAndRefill(t *testing.T) {
	limiter := newRateLimiter(60, 2)
	now := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)

	if !limiter.allow("create:1.2.3.4", now) || !limiter.allow("create:1.2.3.4", now) {
		t.Fatalf("expected the burst to be allowed")
	}
	if limiter.allow("create:1.2.3.4", now) {
		t.Fatalf("expected the third request to be limited")
	}
	if !limiter.allow("create:5.6.7.8", now) {
		t.Fatalf("expected another client to have its own bucket")
	}
	if !limiter.allow("create:1.2.3.4", now.Add(time.Second)) {
		t.Fatalf("expected a token after one second")
	}
}

func TestRateLimiterSweepsIdleClients(t *testing.T) {
	limiter := newRateLimiter(60, 1)
	now := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	limiter.allow("a", now)
	limiter.allow("b", now.Add(limiterIdleTTL+time.Second))
	limiter.allow("c", now.Add(limiterIdleTTL+2*time.Second))
	if size := limiter.size(); size != 2 {
		t.Fatalf("expected idle client to be swept, got %d entries", size)
	}
}

func TestRateLimiterDisabled(t *testing.T) {
	limiter := newRateLimiter(0, 10)
	for i := 0; i < 100; i++ {
		if !limiter.allow("k", time.Now()) {
			t.Fatalf("expected a disabled limiter to allow everything")
		}
	}
}

func TestCreateRoomRateLimited(t *testing.T) {
	app := newTestApp(t, func(cfg *config.Config) {
		cfg.RateLimitPerMinute = 1
		cfg.RateLimitBurst = 2
	})
	b := app.newBrowser(t)
	b.createRoom(t, "Host")
	b.createRoom(t, "Host")
	b.expect(t, http.MethodPost, "/api/rooms", map[string]string{"name": "Host"}, http.StatusTooManyRequests)

	// joins draw from a separate bucket
	guest := app.newBrowser(t)
	guest.expect(t, http.MethodPost, "/api/rooms/ZZZZ/join", map[string]string{"name": "Guest"}, http.StatusNotFound)
}
