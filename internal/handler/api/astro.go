package api

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"Astrolabe/internal/domain/models"
	"Astrolabe/internal/domain/repository"
	svccache "Astrolabe/internal/service/cache"
	"Astrolabe/internal/usecase"
	xhttp "Astrolabe/pkg/http"
	"Astrolabe/pkg/http/middleware"
	xlogger "Astrolabe/pkg/logger"
)

// AstroHandler serves the chart, transit, horoscope and sky-event endpoints.
type AstroHandler struct {
	logger    *xlogger.Logger
	charts    *usecase.ChartUseCase
	transits  *usecase.TransitUseCase
	horoscope *usecase.HoroscopeUseCase
	monthly   *usecase.MonthlyUseCase
	cache     *svccache.Layer
	history   repository.EventStore
	limiter   *middleware.RateLimiter
}

// HandlerOption configures AstroHandler.
type HandlerOption func(*AstroHandler)

// WithRateLimiter guards the endpoints that may call the ephemeris provider.
func WithRateLimiter(rl *middleware.RateLimiter) HandlerOption {
	return func(h *AstroHandler) {
		h.limiter = rl
	}
}

func NewAstroHandler(
	logger *xlogger.Logger,
	charts *usecase.ChartUseCase,
	transits *usecase.TransitUseCase,
	horoscope *usecase.HoroscopeUseCase,
	monthly *usecase.MonthlyUseCase,
	cache *svccache.Layer,
	history repository.EventStore,
	opts ...HandlerOption,
) *AstroHandler {
	h := &AstroHandler{
		logger:    logger,
		charts:    charts,
		transits:  transits,
		horoscope: horoscope,
		monthly:   monthly,
		cache:     cache,
		history:   history,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *AstroHandler) RegisterRoutes(e *echo.Echo) {
	policy := h.cache.Policy()
	maxAge := func(kind svccache.Kind) echo.MiddlewareFunc {
		return middleware.CacheControl(policy.TTL(kind))
	}

	var guarded []echo.MiddlewareFunc
	if h.limiter != nil {
		guarded = append(guarded, h.limiter.Middleware(rateLimited))
	}
	with := func(mw ...echo.MiddlewareFunc) []echo.MiddlewareFunc {
		return append(append([]echo.MiddlewareFunc{}, guarded...), mw...)
	}

	g := e.Group("/api")
	g.GET("/health", h.Health)
	g.POST("/compute", h.Compute, with(maxAge(svccache.KindNatalChart))...)
	g.GET("/transits", h.Transits, with(maxAge(svccache.KindTransitSnapshot))...)
	g.POST("/horoscope/daily", h.DailyHoroscope, with(maxAge(svccache.KindDailyHoroscope))...)
	g.GET("/transits/monthly", h.Monthly, with(maxAge(svccache.KindMonthlyTransits))...)
	g.GET("/transits/monthly/history", h.History)
	g.GET("/cache/stats", h.CacheStats)
}

type chartResponse struct {
	*models.NatalChart
	FromCache bool `json:"from_cache"`
}

type transitResponse struct {
	*models.TransitSnapshot
	FromCache bool `json:"from_cache"`
}

type horoscopeResponse struct {
	*models.DailyHoroscope
	FromCache bool `json:"from_cache"`
}

type monthlyResponse struct {
	*models.MonthlyTransits
	FromCache bool `json:"from_cache"`
}

func (h *AstroHandler) Compute(c echo.Context) error {
	req := &models.ChartRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	res, err := h.charts.Compute(c.Request().Context(), *req)
	if err != nil {
		return h.fail(c, "compute", err)
	}
	middleware.SetCacheStatus(c, res.FromCache)
	return xhttp.SuccessResponse(c, chartResponse{NatalChart: res.Value, FromCache: res.FromCache})
}

func (h *AstroHandler) Transits(c echo.Context) error {
	req := &models.TransitRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	at, loc, err := h.transits.Resolve(req.Date, req.Time, req.Timezone)
	if err != nil {
		return h.fail(c, "transits", err)
	}
	res, err := h.transits.Snapshot(c.Request().Context(), at, loc)
	if err != nil {
		return h.fail(c, "transits", err)
	}
	middleware.SetCacheStatus(c, res.FromCache)
	return xhttp.SuccessResponse(c, transitResponse{TransitSnapshot: res.Value, FromCache: res.FromCache})
}

func (h *AstroHandler) DailyHoroscope(c echo.Context) error {
	req := &models.HoroscopeRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	res, err := h.horoscope.Daily(c.Request().Context(), *req)
	if err != nil {
		return h.fail(c, "horoscope", err)
	}
	middleware.SetCacheStatus(c, res.FromCache)
	return xhttp.SuccessResponse(c, horoscopeResponse{DailyHoroscope: res.Value, FromCache: res.FromCache})
}

func (h *AstroHandler) Monthly(c echo.Context) error {
	req := &models.MonthlyRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	res, err := h.monthly.Month(c.Request().Context(), req.Month)
	if err != nil {
		return h.fail(c, "monthly", err)
	}
	middleware.SetCacheStatus(c, res.FromCache)
	return xhttp.SuccessResponse(c, monthlyResponse{MonthlyTransits: res.Value, FromCache: res.FromCache})
}

func (h *AstroHandler) History(c echo.Context) error {
	req := &models.HistoryRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	events, err := h.monthly.History(c.Request().Context(), *req)
	if err != nil {
		return h.fail(c, "history", err)
	}
	return xhttp.ListResponse(c, events, int64(len(events)))
}

func (h *AstroHandler) CacheStats(c echo.Context) error {
	return xhttp.SuccessResponse(c, map[string]interface{}{
		"kinds": h.cache.Stats(),
	})
}

// Health reports the service as up; a failing history store degrades it to
// 503 without taking the computing endpoints down.
func (h *AstroHandler) Health(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()

	status, code := "ok", http.StatusOK
	history := "ok"
	if err := h.history.Health(ctx); err != nil {
		h.logger.Warn("history store unhealthy", xlogger.Error(err))
		status, code, history = "degraded", http.StatusServiceUnavailable, "down"
	}
	return xhttp.DataResponse(c, code, map[string]string{
		"status":  status,
		"history": history,
	})
}

func rateLimited(c echo.Context) error {
	return xhttp.AppErrorResponse(c, xhttp.TooManyRequestsError("too many requests, retry later"))
}

func (h *AstroHandler) fail(c echo.Context, op string, err error) error {
	appErr := toAppError(err)
	if appErr.Status >= http.StatusInternalServerError {
		h.logger.Error(op+" failed", xlogger.Error(err))
	} else {
		h.logger.Debug(op+" rejected", xlogger.Error(err))
	}
	return xhttp.AppErrorResponse(c, appErr)
}
