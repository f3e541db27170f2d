package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
)

func okHandler(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}

func TestCORS_Preflight(t *testing.T) {
	e := echo.New()
	e.Use(CORS(CORSConfig{
		AllowMethods: []string{http.MethodGet, http.MethodPost},
		AllowHeaders: []string{echo.HeaderContentType},
		MaxAge:       86400,
	}))
	e.GET("/api/transits", okHandler)

	req := httptest.NewRequest(http.MethodOptions, "/api/transits", nil)
	req.Header.Set(echo.HeaderOrigin, "https://example.org")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if got := rec.Header().Get(echo.HeaderAccessControlMaxAge); got != "86400" {
		t.Fatalf("max age = %q", got)
	}
	if got := rec.Header().Get(echo.HeaderAccessControlAllowOrigin); got != "https://example.org" {
		t.Fatalf("allow origin = %q", got)
	}
}

func TestCORS_RejectsUnknownOrigin(t *testing.T) {
	e := echo.New()
	e.Use(CORS(CORSConfig{AllowOrigins: []string{"https://a.example"}}))
	e.GET("/x", okHandler)

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set(echo.HeaderOrigin, "https://b.example")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Header().Get(echo.HeaderAccessControlAllowOrigin) != "" {
		t.Fatalf("unexpected CORS header for foreign origin")
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("request itself should still be served, got %d", rec.Code)
	}
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(1, 2)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	if !rl.Allow("1.2.3.4") || !rl.Allow("1.2.3.4") {
		t.Fatalf("burst should be allowed")
	}
	if rl.Allow("1.2.3.4") {
		t.Fatalf("third request should be limited")
	}
	if !rl.Allow("5.6.7.8") {
		t.Fatalf("other clients have their own bucket")
	}

	now = now.Add(time.Second)
	if !rl.Allow("1.2.3.4") {
		t.Fatalf("token should refill after a second")
	}
}

func TestRateLimiter_Middleware(t *testing.T) {
	e := echo.New()
	rl := NewRateLimiter(0.5, 1)
	reject := func(c echo.Context) error {
		return c.String(http.StatusTooManyRequests, "slow down")
	}
	e.GET("/x", okHandler, rl.Middleware(reject))

	do := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/x", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		return rec
	}

	if rec := do(); rec.Code != http.StatusOK {
		t.Fatalf("first request: %d", rec.Code)
	}
	rec := do()
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}
	if rec.Header().Get("Retry-After") != "3" {
		t.Fatalf("retry-after = %q", rec.Header().Get("Retry-After"))
	}
	if rec.Body.String() != "slow down" {
		t.Fatalf("reject handler not used: %q", rec.Body.String())
	}
}

func TestCacheControlAndResponseTime(t *testing.T) {
	e := echo.New()
	e.Use(ResponseTime())
	e.GET("/ok", func(c echo.Context) error {
		SetCacheStatus(c, true)
		return c.String(http.StatusOK, "ok")
	}, CacheControl(time.Hour))
	e.GET("/bad", func(c echo.Context) error {
		return c.String(http.StatusBadRequest, "bad")
	}, CacheControl(time.Hour))

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ok", nil))
	if got := rec.Header().Get(echo.HeaderCacheControl); got != "public, max-age=3600" {
		t.Fatalf("cache-control = %q", got)
	}
	if rec.Header().Get(HeaderCacheStatus) != "HIT" {
		t.Fatalf("cache status = %q", rec.Header().Get(HeaderCacheStatus))
	}
	if rec.Header().Get(HeaderResponseTime) == "" {
		t.Fatalf("missing response time header")
	}

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/bad", nil))
	if got := rec.Header().Get(echo.HeaderCacheControl); got != "no-store" {
		t.Fatalf("error responses must not be cached, got %q", got)
	}
}
