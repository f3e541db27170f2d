package usecase

import (
	"context"
	"fmt"
	"time"

	"Astrolabe/internal/domain/models"
	"Astrolabe/internal/domain/repository"
	"Astrolabe/internal/domain/service"
	svccache "Astrolabe/internal/service/cache"
	"Astrolabe/internal/services/astro"
	"Astrolabe/pkg/logger"
	"Astrolabe/pkg/util"
)

// ChartUseCase computes natal charts through the cache.
type ChartUseCase struct {
	eph          service.Ephemeris
	cache        *svccache.Layer
	table        astro.AspectTable
	defaultHouse models.HouseSystem
	ephePath     string
	log          *logger.Logger
	metrics      repository.Metrics
}

func NewChartUseCase(
	eph service.Ephemeris,
	layer *svccache.Layer,
	table astro.AspectTable,
	defaultHouse models.HouseSystem,
	ephePath string,
	l *logger.Logger,
	m repository.Metrics,
) *ChartUseCase {
	return &ChartUseCase{
		eph:          eph,
		cache:        layer,
		table:        table,
		defaultHouse: defaultHouse,
		ephePath:     ephePath,
		log:          l,
		metrics:      m,
	}
}

// chartKey is everything that changes a computed chart.
type chartKey struct {
	UTC             string             `json:"utc"`
	Latitude        float64            `json:"latitude"`
	Longitude       float64            `json:"longitude"`
	Altitude        float64            `json:"altitude"`
	HouseSystem     models.HouseSystem `json:"house_system"`
	TopocentricMoon bool               `json:"topocentric_moon"`
	EphePath        string             `json:"ephe_path"`
}

// Compute resolves the request into a chart key and returns the cached chart
// or computes it.
func (uc *ChartUseCase) Compute(ctx context.Context, req models.ChartRequest) (svccache.Result[*models.NatalChart], error) {
	var zero svccache.Result[*models.NatalChart]

	hs := uc.defaultHouse
	if req.HouseSystem != "" {
		parsed, err := models.ParseHouseSystem(req.HouseSystem)
		if err != nil {
			return zero, err
		}
		hs = parsed
	}

	at, err := util.ParseLocal(req.Datetime, req.Timezone)
	if err != nil {
		return zero, fmt.Errorf("%w: %v", models.ErrInvalidRequest, err)
	}

	topo := true
	if req.TopocentricMoonOnly != nil {
		topo = *req.TopocentricMoonOnly
	}

	key := chartKey{
		UTC:             at.Format(time.RFC3339),
		Latitude:        req.Latitude,
		Longitude:       req.Longitude,
		Altitude:        req.Altitude,
		HouseSystem:     hs,
		TopocentricMoon: topo,
		EphePath:        uc.ephePath,
	}

	return svccache.Fetch(ctx, uc.cache, svccache.KindNatalChart, key, func(ctx context.Context) (*models.NatalChart, error) {
		start := time.Now()
		defer func() { uc.metrics.RecordLatency("natal_chart", time.Since(start).Seconds()) }()
		return uc.compute(ctx, at, key)
	})
}

func (uc *ChartUseCase) compute(ctx context.Context, at time.Time, key chartKey) (*models.NatalChart, error) {
	settings := models.EphemerisSettings{Path: key.EphePath, Altitude: key.Altitude}
	q := models.EphemerisQuery{
		JulianDayUT: util.JulianDayUT(at),
		Latitude:    key.Latitude,
		Longitude:   key.Longitude,
		HouseSystem: key.HouseSystem,
		Bodies:      models.NatalBodies,
		Settings:    settings,
	}

	res, err := uc.eph.Compute(ctx, q)
	if err != nil {
		uc.metrics.RecordError("ephemeris")
		return nil, err
	}

	positions := res.Positions
	if key.TopocentricMoon {
		// only the moon is close enough for parallax to matter
		mq := q
		mq.HouseSystem = ""
		mq.Bodies = []models.Body{models.Moon}
		mq.Settings.Topocentric = true
		mres, err := uc.eph.Compute(ctx, mq)
		if err != nil {
			uc.metrics.RecordError("ephemeris")
			return nil, err
		}
		if moon, ok := mres.Position(models.Moon); ok {
			positions = replacePosition(positions, moon)
		}
	}

	ordered := make([]models.BodyPosition, len(positions))
	copy(ordered, positions)
	models.SortPositions(ordered)

	planets := make(map[string]models.PlanetPoint, len(ordered))
	for _, p := range ordered {
		planets[string(p.Name)] = models.PlanetPoint{
			Value:      p.Longitude,
			Speed:      p.Speed,
			Retrograde: p.Retrograde(),
			Formatted:  astro.FormatZodiac(p.Longitude, p.Speed).String(),
		}
	}

	chart := &models.NatalChart{
		JulianDayUT: q.JulianDayUT,
		Planets:     planets,
		Houses:      models.HouseSet{Cusps: []models.HouseCusp{}},
		Aspects:     astro.MatchPairs(ordered, uc.table),
		Meta: models.ChartMeta{
			HouseSystem:     key.HouseSystem,
			TopocentricMoon: key.TopocentricMoon,
			EphePath:        key.EphePath,
		},
	}
	if res.Houses != nil {
		chart.Houses = houseSet(*res.Houses)
	}

	uc.log.Debug("natal chart computed",
		logger.Float64("jd_ut", chart.JulianDayUT),
		logger.String("house_system", string(key.HouseSystem)),
		logger.Int("aspects", len(chart.Aspects)),
	)
	return chart, nil
}

func replacePosition(positions []models.BodyPosition, p models.BodyPosition) []models.BodyPosition {
	out := make([]models.BodyPosition, 0, len(positions))
	replaced := false
	for _, existing := range positions {
		if existing.Name == p.Name {
			out = append(out, p)
			replaced = true
			continue
		}
		out = append(out, existing)
	}
	if !replaced {
		out = append(out, p)
	}
	return out
}

func houseSet(h models.HouseData) models.HouseSet {
	point := func(v float64) *models.ZodiacPoint {
		return &models.ZodiacPoint{Value: v, Formatted: astro.FormatZodiac(v, 0).String()}
	}
	set := models.HouseSet{
		Asc:   point(h.Ascendant),
		MC:    point(h.Midheaven),
		Cusps: make([]models.HouseCusp, 0, len(h.Cusps)),
	}
	for i, v := range h.Cusps {
		set.Cusps = append(set.Cusps, models.HouseCusp{
			House:     i + 1,
			Value:     v,
			Formatted: astro.FormatZodiac(v, 0).String(),
		})
	}
	return set
}
