package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/jacana-dev/jacana-api/internal/config"
)

func limiterServer(t *testing.T, cfg config.RateLimitConfig, rdb *redis.Client) *echo.Echo {
	t.Helper()
	e := echo.New()
	e.POST("/auth/login", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"ok": true})
	}, NewTokenBucket(cfg, rdb))
	return e
}

func hit(e *echo.Echo, ip string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
	req.RemoteAddr = ip + ":12345"
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestTokenBucket_ExhaustsAndRejects(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	cfg := config.RateLimitConfig{
		Enabled:        true,
		Capacity:       2,
		RefillTokens:   1,
		RefillInterval: time.Hour,
		TTL:            10 * time.Minute,
		Prefix:         "rl-test",
	}
	e := limiterServer(t, cfg, rdb)

	for i := 0; i < 2; i++ {
		if rec := hit(e, "10.0.0.1"); rec.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i+1, rec.Code)
		}
	}

	rec := hit(e, "10.0.0.1")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 after bucket is empty, got %d", rec.Code)
	}
	if rec.Header().Get("X-RateLimit-Limit") != "2" {
		t.Errorf("expected limit header 2, got %q", rec.Header().Get("X-RateLimit-Limit"))
	}
	if rec.Header().Get("X-RateLimit-Remaining") != "0" {
		t.Errorf("expected remaining 0, got %q", rec.Header().Get("X-RateLimit-Remaining"))
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("expected a Retry-After header on 429")
	}
}

func TestTokenBucket_BucketsArePerIP(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	cfg := config.RateLimitConfig{
		Enabled:        true,
		Capacity:       1,
		RefillTokens:   1,
		RefillInterval: time.Hour,
		TTL:            10 * time.Minute,
		Prefix:         "rl-test",
	}
	e := limiterServer(t, cfg, rdb)

	if rec := hit(e, "10.0.0.1"); rec.Code != http.StatusOK {
		t.Fatalf("first caller: expected 200, got %d", rec.Code)
	}
	if rec := hit(e, "10.0.0.1"); rec.Code != http.StatusTooManyRequests {
		t.Fatalf("first caller: expected 429, got %d", rec.Code)
	}
	// A different client still has a full bucket.
	if rec := hit(e, "10.0.0.2"); rec.Code != http.StatusOK {
		t.Fatalf("second caller: expected 200, got %d", rec.Code)
	}
}

func TestTokenBucket_RefillsAfterInterval(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	cfg := config.RateLimitConfig{
		Enabled:        true,
		Capacity:       1,
		RefillTokens:   1,
		RefillInterval: 50 * time.Millisecond,
		TTL:            10 * time.Minute,
		Prefix:         "rl-test",
	}
	e := limiterServer(t, cfg, rdb)

	if rec := hit(e, "10.0.0.1"); rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rec := hit(e, "10.0.0.1"); rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}

	time.Sleep(60 * time.Millisecond)
	if rec := hit(e, "10.0.0.1"); rec.Code != http.StatusOK {
		t.Fatalf("expected 200 after refill, got %d", rec.Code)
	}
}

func TestTokenBucket_DisabledIsPassThrough(t *testing.T) {
	e := limiterServer(t, config.RateLimitConfig{Enabled: false}, nil)
	for i := 0; i < 20; i++ {
		if rec := hit(e, "10.0.0.1"); rec.Code != http.StatusOK {
			t.Fatalf("request %d: expected pass-through 200, got %d", i+1, rec.Code)
		}
	}
}

func TestTokenBucket_RedisDownFailsOpen(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()
	mr.Close()

	cfg := config.RateLimitConfig{
		Enabled:        true,
		Capacity:       1,
		RefillTokens:   1,
		RefillInterval: time.Hour,
		TTL:            10 * time.Minute,
		Prefix:         "rl-test",
	}
	e := limiterServer(t, cfg, rdb)

	for i := 0; i < 3; i++ {
		if rec := hit(e, "10.0.0.1"); rec.Code != http.StatusOK {
			t.Fatalf("request %d: expected fail-open 200, got %d", i+1, rec.Code)
		}
	}
}
