package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"Astrolabe/internal/domain/models"
	"Astrolabe/internal/repository"
	svccache "Astrolabe/internal/service/cache"
	"Astrolabe/internal/services/astro"
	"Astrolabe/internal/usecase"
	pkgcache "Astrolabe/pkg/cache"
	"Astrolabe/pkg/http/middleware"
	xlogger "Astrolabe/pkg/logger"
)

// stillSky returns the same positions for every instant.
type stillSky struct {
	down bool
}

func (s *stillSky) Compute(_ context.Context, q models.EphemerisQuery) (models.EphemerisResult, error) {
	if s.down {
		return models.EphemerisResult{}, models.ErrEphemerisUnavailable
	}
	var res models.EphemerisResult
	for i, b := range q.Bodies {
		res.Positions = append(res.Positions, models.BodyPosition{Name: b, Longitude: float64(i * 27), Speed: 0.5})
	}
	if q.HouseSystem != "" {
		var cusps models.HouseCusps
		for i := range cusps {
			cusps[i] = float64(i * 30)
		}
		res.Houses = &models.HouseData{Cusps: cusps, Ascendant: 0, Midheaven: 270}
	}
	return res, nil
}

type nopMetrics struct{}

func (nopMetrics) RecordCacheResult(string, bool) {}
func (nopMetrics) RecordError(string)             {}
func (nopMetrics) RecordLatency(string, float64)  {}
func (nopMetrics) RecordHouseFallback(string)     {}

func newTestServer(sky *stillSky, opts ...HandlerOption) *echo.Echo {
	l := xlogger.Nop()
	layer := svccache.NewLayer(pkgcache.NewMemoryCache(), svccache.DefaultPolicy())
	store := repository.NopEventStore{}

	charts := usecase.NewChartUseCase(sky, layer, astro.NatalAspects, models.Placidus, "", l, nopMetrics{})
	transits := usecase.NewTransitUseCase(sky, layer, "", l, nopMetrics{})
	horoscope := usecase.NewHoroscopeUseCase(transits, layer, astro.TransitAspects, 5, 3, l, nopMetrics{})
	monthly := usecase.NewMonthlyUseCase(sky, layer, astro.TransitAspects, repository.NopPublisher{}, store, "", l, nopMetrics{})

	e := echo.New()
	NewAstroHandler(l, charts, transits, horoscope, monthly, layer, store, opts...).RegisterRoutes(e)
	return e
}

type envelope struct {
	Status int             `json:"status"`
	Data   json.RawMessage `json:"data"`
}

func do(t *testing.T, e *echo.Echo, method, target, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode %s %s: %v (%s)", method, target, err, rec.Body.String())
	}
	return rec, env
}

func errorCode(t *testing.T, env envelope) string {
	t.Helper()
	var errs []struct {
		Code string `json:"code"`
	}
	if err := json.Unmarshal(env.Data, &errs); err != nil || len(errs) == 0 {
		t.Fatalf("expected error list, got %s", env.Data)
	}
	return errs[0].Code
}

const chartBody = `{"datetime":"1990-05-17T14:30","timezone":"Europe/Madrid","latitude":40.4,"longitude":-3.7}`

func TestCompute_CacheStatus(t *testing.T) {
	e := newTestServer(&stillSky{})

	rec, env := do(t, e, http.MethodPost, "/api/compute", chartBody)
	if rec.Code != http.StatusOK || rec.Header().Get(middleware.HeaderCacheStatus) != "MISS" {
		t.Fatalf("first call: %d %q", rec.Code, rec.Header().Get(middleware.HeaderCacheStatus))
	}
	if got := rec.Header().Get(echo.HeaderCacheControl); got != "public, max-age=2592000" {
		t.Fatalf("unexpected Cache-Control %q", got)
	}

	rec, again := do(t, e, http.MethodPost, "/api/compute", chartBody)
	if rec.Header().Get(middleware.HeaderCacheStatus) != "HIT" {
		t.Fatalf("second call should hit the cache")
	}

	var first, second map[string]interface{}
	_ = json.Unmarshal(env.Data, &first)
	_ = json.Unmarshal(again.Data, &second)
	if first["from_cache"] != false || second["from_cache"] != true {
		t.Fatalf("from_cache flags: %v %v", first["from_cache"], second["from_cache"])
	}
	delete(first, "from_cache")
	delete(second, "from_cache")
	a, _ := json.Marshal(first)
	b, _ := json.Marshal(second)
	if string(a) != string(b) {
		t.Fatalf("cached chart differs from computed chart")
	}
	if _, ok := first["planets"].(map[string]interface{})["lilith"]; !ok {
		t.Fatalf("chart misses planets: %s", a)
	}
}

func TestCompute_Errors(t *testing.T) {
	tests := []struct {
		name   string
		sky    *stillSky
		body   string
		status int
		code   string
	}{
		{"missing datetime", &stillSky{}, `{"timezone":"UTC"}`, http.StatusBadRequest, "ERR_REQUIRED"},
		{"bad timezone", &stillSky{}, `{"datetime":"1990-05-17T14:30","timezone":"Nowhere/Else"}`, http.StatusBadRequest, "ERR_TIMEZONE"},
		{"unknown house system", &stillSky{}, `{"datetime":"1990-05-17T14:30","house_system":"porphyry"}`, http.StatusBadRequest, "ERR_UNKNOWN_HOUSE_SYSTEM"},
		{"bad datetime", &stillSky{}, `{"datetime":"May 17th"}`, http.StatusBadRequest, "ERR_BAD_REQUEST"},
		{"provider down", &stillSky{down: true}, chartBody, http.StatusBadGateway, "ERR_EPHEMERIS_UNAVAILABLE"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, env := do(t, newTestServer(tt.sky), http.MethodPost, "/api/compute", tt.body)
			if rec.Code != tt.status || env.Status != tt.status {
				t.Fatalf("status %d/%d, want %d", rec.Code, env.Status, tt.status)
			}
			if code := errorCode(t, env); code != tt.code {
				t.Fatalf("code %q, want %q", code, tt.code)
			}
			if got := rec.Header().Get(echo.HeaderCacheControl); got != "no-store" {
				t.Fatalf("errors must not be cacheable, got %q", got)
			}
		})
	}
}

func TestTransits(t *testing.T) {
	e := newTestServer(&stillSky{})

	rec, env := do(t, e, http.MethodGet, "/api/transits?date=2026-03-01&time=10:20&timezone=UTC", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}
	var snap struct {
		Time      string                   `json:"time"`
		Transits  []models.TransitPosition `json:"transits"`
		FromCache bool                     `json:"from_cache"`
	}
	if err := json.Unmarshal(env.Data, &snap); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if snap.Time != "10:00" || len(snap.Transits) != 10 || snap.FromCache {
		t.Fatalf("unexpected snapshot %+v", snap)
	}

	rec, _ = do(t, e, http.MethodGet, "/api/transits?date=2026-03-01&time=10:50&timezone=UTC", "")
	if rec.Header().Get(middleware.HeaderCacheStatus) != "HIT" {
		t.Fatalf("same hour should hit the cache")
	}

	rec, env = do(t, e, http.MethodGet, "/api/transits?time=10:50", "")
	if rec.Code != http.StatusBadRequest || errorCode(t, env) != "ERR_BAD_REQUEST" {
		t.Fatalf("time without date should be rejected, got %d", rec.Code)
	}
}

func TestDailyHoroscope(t *testing.T) {
	e := newTestServer(&stillSky{})

	chart := `{"planets":{"sun":{"value":56.3,"speed":0.96},"moon":{"value":120,"speed":13}},` +
		`"houses":{"cusps":[` +
		`{"house":1,"value":0},{"house":2,"value":30},{"house":3,"value":60},{"house":4,"value":90},` +
		`{"house":5,"value":120},{"house":6,"value":150},{"house":7,"value":180},{"house":8,"value":210},` +
		`{"house":9,"value":240},{"house":10,"value":270},{"house":11,"value":300},{"house":12,"value":330}]}}`

	rec, env := do(t, e, http.MethodPost, "/api/horoscope/daily", `{"birth_data":`+chart+`,"target_date":"2026-03-01","timezone":"UTC"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}
	var h struct {
		Date            string                   `json:"date"`
		TopAspects      []models.AspectMatch     `json:"top_aspects"`
		HousesActivated []models.HouseActivation `json:"houses_activated"`
		NatalAscendant  string                   `json:"natal_ascendant"`
	}
	if err := json.Unmarshal(env.Data, &h); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if h.Date != "2026-03-01" || len(h.HousesActivated) != 3 || h.NatalAscendant == "" {
		t.Fatalf("unexpected horoscope %+v", h)
	}

	bad := strings.Replace(chart, `{"house":12,"value":330}`, `{"house":12,"value":400}`, 1)
	rec, env = do(t, e, http.MethodPost, "/api/horoscope/daily", `{"birth_data":`+bad+`}`)
	if rec.Code != http.StatusBadRequest || errorCode(t, env) != "ERR_MALFORMED_NATAL_CHART" {
		t.Fatalf("expected malformed chart, got %d %s", rec.Code, env.Data)
	}
}

func TestMonthlyAndHistory(t *testing.T) {
	e := newTestServer(&stillSky{})

	rec, env := do(t, e, http.MethodGet, "/api/transits/monthly?month=2026-03", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}
	var m struct {
		Month  string            `json:"month"`
		Events []models.SkyEvent `json:"events"`
	}
	if err := json.Unmarshal(env.Data, &m); err != nil || m.Month != "2026-03" {
		t.Fatalf("unexpected month %s (%v)", env.Data, err)
	}
	if got := rec.Header().Get(echo.HeaderCacheControl); got != "public, max-age=1800" {
		t.Fatalf("unexpected Cache-Control %q", got)
	}

	rec, env = do(t, e, http.MethodGet, "/api/transits/monthly?month=2026-13", "")
	if rec.Code != http.StatusBadRequest || errorCode(t, env) != "ERR_DATETIME" {
		t.Fatalf("invalid month should fail validation, got %d", rec.Code)
	}

	rec, _ = do(t, e, http.MethodGet, "/api/transits/monthly/history?from=2026-03-01&to=2026-03-31", "")
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("history without a store should be 503, got %d", rec.Code)
	}
}

func TestHealthAndStats(t *testing.T) {
	e := newTestServer(&stillSky{})

	rec, _ := do(t, e, http.MethodGet, "/api/health", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("health %d", rec.Code)
	}

	do(t, e, http.MethodPost, "/api/compute", chartBody)
	rec, env := do(t, e, http.MethodGet, "/api/cache/stats", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("stats %d", rec.Code)
	}
	var stats struct {
		Kinds []svccache.KindStats `json:"kinds"`
	}
	if err := json.Unmarshal(env.Data, &stats); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(stats.Kinds) != len(svccache.Kinds) {
		t.Fatalf("expected a row per kind, got %d", len(stats.Kinds))
	}
	for _, k := range stats.Kinds {
		if k.Kind == svccache.KindNatalChart && (k.Misses != 1 || k.Computations != 1) {
			t.Fatalf("unexpected natal stats %+v", k)
		}
	}
}

func TestRateLimitedCompute(t *testing.T) {
	e := newTestServer(&stillSky{}, WithRateLimiter(middleware.NewRateLimiter(0.01, 1)))

	if rec, _ := do(t, e, http.MethodPost, "/api/compute", chartBody); rec.Code != http.StatusOK {
		t.Fatalf("first call %d", rec.Code)
	}
	rec, env := do(t, e, http.MethodPost, "/api/compute", chartBody)
	if rec.Code != http.StatusTooManyRequests || rec.Header().Get("Retry-After") == "" {
		t.Fatalf("expected 429 with Retry-After, got %d", rec.Code)
	}
	if env.Status != http.StatusTooManyRequests || errorCode(t, env) != "ERR_RATE_LIMITED" {
		t.Fatalf("expected rate limit error envelope, got %+v", env)
	}
	// stats are not rate limited
	if rec, _ := do(t, e, http.MethodGet, "/api/cache/stats", ""); rec.Code != http.StatusOK {
		t.Fatalf("stats %d", rec.Code)
	}
}
