package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/quillpress/blog-api/internal/core/domain"
)

type countingLimiter struct {
	hits map[string]int
	err  error
}

func (l *countingLimiter) Allow(_ context.Context, key string, limit int, window time.Duration) (bool, time.Duration, error) {
	if l.err != nil {
		return false, 0, l.err
	}
	if l.hits == nil {
		l.hits = map[string]int{}
	}
	l.hits[key]++
	return l.hits[key] <= limit, 1500 * time.Millisecond, nil
}

func rateLimitedRequest(t *testing.T, mw echo.MiddlewareFunc, ip string) (*httptest.ResponseRecorder, error) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
	req.RemoteAddr = ip + ":5000"
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	err := mw(func(c echo.Context) error { return c.NoContent(http.StatusOK) })(c)
	return rec, err
}

func TestRateLimit_BlocksAfterLimit(t *testing.T) {
	limiter := &countingLimiter{}
	mw := RateLimit(limiter, "auth", 2, time.Minute, zerolog.Nop())

	for i := 0; i < 2; i++ {
		if _, err := rateLimitedRequest(t, mw, "10.0.0.1"); err != nil {
			t.Fatalf("request %d: unexpected error %v", i+1, err)
		}
	}

	rec, err := rateLimitedRequest(t, mw, "10.0.0.1")
	if !errors.Is(err, domain.ErrRateLimited) {
		t.Fatalf("expected RATE_LIMITED, got %v", err)
	}
	if got := rec.Header().Get("Retry-After"); got != "2" {
		t.Errorf("Retry-After: expected 2, got %q", got)
	}

	if _, err := rateLimitedRequest(t, mw, "10.0.0.2"); err != nil {
		t.Errorf("other clients must not share the window, got %v", err)
	}
	if limiter.hits["auth:ip:10.0.0.1"] != 3 {
		t.Errorf("unexpected key usage: %v", limiter.hits)
	}
}

func TestRateLimit_FailsOpen(t *testing.T) {
	mw := RateLimit(&countingLimiter{err: errors.New("redis down")}, "auth", 1, time.Minute, zerolog.Nop())

	for i := 0; i < 3; i++ {
		if rec, err := rateLimitedRequest(t, mw, "10.0.0.1"); err != nil || rec.Code != http.StatusOK {
			t.Fatalf("expected request to pass when limiter fails, got %v / %d", err, rec.Code)
		}
	}
}
