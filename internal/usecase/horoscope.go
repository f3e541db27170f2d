package usecase

import (
	"context"
	"fmt"
	"time"

	"Astrolabe/internal/domain/models"
	"Astrolabe/internal/domain/repository"
	svccache "Astrolabe/internal/service/cache"
	"Astrolabe/internal/services/astro"
	"Astrolabe/pkg/logger"
	"Astrolabe/pkg/util"
)

// HoroscopeUseCase compares the day's transits with a client-supplied natal
// chart.
type HoroscopeUseCase struct {
	transits *TransitUseCase
	cache    *svccache.Layer
	synth    *astro.Synthesizer
	log      *logger.Logger
	metrics  repository.Metrics
}

func NewHoroscopeUseCase(
	transits *TransitUseCase,
	layer *svccache.Layer,
	table astro.AspectTable,
	topAspects, topHouses int,
	l *logger.Logger,
	m repository.Metrics,
) *HoroscopeUseCase {
	uc := &HoroscopeUseCase{
		transits: transits,
		cache:    layer,
		log:      l,
		metrics:  m,
	}
	uc.synth = astro.NewSynthesizer(
		astro.WithAspectTable(table),
		astro.WithLimits(topAspects, topHouses),
		astro.WithFallbackHook(uc.houseFallback),
	)
	return uc
}

func (uc *HoroscopeUseCase) houseFallback(body models.Body, lon float64) {
	uc.log.Warn("no house contains body, using house 1",
		logger.String("body", string(body)),
		logger.Float64("longitude", lon),
	)
	uc.metrics.RecordHouseFallback(string(body))
}

type horoscopeKey struct {
	Planets  map[string]models.PlanetPoint `json:"planets"`
	Cusps    []models.HouseCusp            `json:"cusps"`
	Asc      *models.ZodiacPoint           `json:"asc"`
	Date     string                        `json:"date"`
	Timezone string                        `json:"timezone"`
}

// Daily builds the horoscope for target (YYYY-MM-DD, local midnight in zone)
// or, when target is empty, for the current hour.
func (uc *HoroscopeUseCase) Daily(ctx context.Context, req models.HoroscopeRequest) (svccache.Result[*models.DailyHoroscope], error) {
	var zero svccache.Result[*models.DailyHoroscope]

	chart := req.BirthData
	if chart == nil {
		return zero, fmt.Errorf("%w: birth data is missing", models.ErrMalformedNatalChart)
	}
	// reject before touching the cache or the ephemeris
	if err := models.ValidateNatalPositions(chart.Positions()); err != nil {
		return zero, err
	}
	if _, err := chart.Cusps(); err != nil {
		return zero, err
	}

	at, loc, err := uc.transits.Resolve(req.TargetDate, "", req.Timezone)
	if err != nil {
		return zero, err
	}

	key := horoscopeKey{
		Planets:  chart.Planets,
		Cusps:    chart.Houses.Cusps,
		Asc:      chart.Houses.Asc,
		Date:     at.Format(util.DateLayout),
		Timezone: loc.String(),
	}
	return svccache.Fetch(ctx, uc.cache, svccache.KindDailyHoroscope, key, func(ctx context.Context) (*models.DailyHoroscope, error) {
		start := time.Now()
		defer func() { uc.metrics.RecordLatency("daily_horoscope", time.Since(start).Seconds()) }()

		snap, err := uc.transits.Snapshot(ctx, at, loc)
		if err != nil {
			return nil, err
		}
		h, err := uc.synth.Daily(chart, positionsOf(snap.Value))
		if err != nil {
			return nil, err
		}
		h.Date = key.Date
		h.Timezone = key.Timezone
		return h, nil
	})
}
