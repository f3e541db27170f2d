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

// TransitUseCase serves transit snapshots. Snapshots are keyed by the local
// hour, so every request within one hour shares an entry.
type TransitUseCase struct {
	eph      service.Ephemeris
	cache    *svccache.Layer
	ephePath string
	log      *logger.Logger
	metrics  repository.Metrics
	now      func() time.Time
}

func NewTransitUseCase(eph service.Ephemeris, layer *svccache.Layer, ephePath string, l *logger.Logger, m repository.Metrics) *TransitUseCase {
	return &TransitUseCase{
		eph:      eph,
		cache:    layer,
		ephePath: ephePath,
		log:      l,
		metrics:  m,
		now:      time.Now,
	}
}

type transitKey struct {
	Hour     string `json:"hour"`
	Timezone string `json:"timezone"`
	EphePath string `json:"ephe_path"`
}

// Resolve turns optional date and time strings into an instant in zone. A
// date without a time means local midnight; no date means now.
func (uc *TransitUseCase) Resolve(date, clock, zone string) (time.Time, *time.Location, error) {
	loc, err := util.LoadZone(zone)
	if err != nil {
		return time.Time{}, nil, fmt.Errorf("%w: %v", models.ErrInvalidRequest, err)
	}
	if date == "" {
		if clock != "" {
			return time.Time{}, nil, fmt.Errorf("%w: time requires date", models.ErrInvalidRequest)
		}
		return uc.now().In(loc), loc, nil
	}

	value, layout := date, util.DateLayout
	if clock != "" {
		value, layout = date+"T"+clock, util.DateLayout+"T15:04"
	}
	t, err := time.ParseInLocation(layout, value, loc)
	if err != nil {
		return time.Time{}, nil, fmt.Errorf("%w: %v", models.ErrInvalidRequest, err)
	}
	return t, loc, nil
}

// Snapshot returns the positions of the transit bodies at the start of the
// local hour containing at.
func (uc *TransitUseCase) Snapshot(ctx context.Context, at time.Time, loc *time.Location) (svccache.Result[*models.TransitSnapshot], error) {
	local := at.In(loc)
	// step back along the instant so a repeated DST hour keeps its own offset
	hour := local.Add(-time.Duration(local.Minute())*time.Minute -
		time.Duration(local.Second())*time.Second -
		time.Duration(local.Nanosecond()))

	key := transitKey{
		Hour:     hour.Format(time.RFC3339),
		Timezone: loc.String(),
		EphePath: uc.ephePath,
	}
	return svccache.Fetch(ctx, uc.cache, svccache.KindTransitSnapshot, key, func(ctx context.Context) (*models.TransitSnapshot, error) {
		start := time.Now()
		defer func() { uc.metrics.RecordLatency("transit_snapshot", time.Since(start).Seconds()) }()
		return uc.compute(ctx, hour)
	})
}

func (uc *TransitUseCase) compute(ctx context.Context, at time.Time) (*models.TransitSnapshot, error) {
	jd := util.JulianDayUT(at)
	res, err := uc.eph.Compute(ctx, models.EphemerisQuery{
		JulianDayUT: jd,
		Bodies:      models.TransitBodies,
		Settings:    models.EphemerisSettings{Path: uc.ephePath},
	})
	if err != nil {
		uc.metrics.RecordError("ephemeris")
		return nil, err
	}

	return &models.TransitSnapshot{
		Date:        at.Format(util.DateLayout),
		Time:        at.Format("15:04"),
		Timezone:    at.Location().String(),
		JulianDayUT: jd,
		Transits:    astro.TransitPositions(res.Positions),
	}, nil
}

// WarmUp precomputes UTC-midnight snapshots for today and the following
// days-1 days. Failures are logged and do not stop the remaining days.
func (uc *TransitUseCase) WarmUp(ctx context.Context, days int) int {
	today := uc.now().UTC().Truncate(24 * time.Hour)
	warmed := 0
	for i := 0; i < days; i++ {
		if ctx.Err() != nil {
			break
		}
		day := today.AddDate(0, 0, i)
		if _, err := uc.Snapshot(ctx, day, time.UTC); err != nil {
			uc.log.Warn("transit warm-up failed",
				logger.String("date", day.Format(util.DateLayout)),
				logger.Error(err),
			)
			continue
		}
		warmed++
	}
	uc.log.Info("transit cache warmed", logger.Int("days", warmed))
	return warmed
}

// positionsOf converts snapshot entries back into raw positions.
func positionsOf(s *models.TransitSnapshot) []models.BodyPosition {
	out := make([]models.BodyPosition, 0, len(s.Transits))
	for _, t := range s.Transits {
		out = append(out, models.BodyPosition{Name: models.Body(t.Name), Longitude: t.Longitude, Speed: t.Speed})
	}
	return out
}
