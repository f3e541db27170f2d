package usecase

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"Astrolabe/internal/domain/models"
	"Astrolabe/internal/domain/repository"
	"Astrolabe/internal/domain/service"
	svccache "Astrolabe/internal/service/cache"
	"Astrolabe/internal/services/astro"
	"Astrolabe/pkg/logger"
	"Astrolabe/pkg/util"
)

const dailyFetchLimit = 4

// skyBodies are fetched for every day of a scanned month.
var skyBodies = append(append([]models.Body{}, models.TransitBodies...), models.TrueNode)

// MonthlyUseCase scans months for sky events, serves them through the cache
// and ships them to the event publisher and history store.
type MonthlyUseCase struct {
	eph       service.Ephemeris
	cache     *svccache.Layer
	table     astro.AspectTable
	publisher repository.EventPublisher
	store     repository.EventStore
	ephePath  string
	log       *logger.Logger
	metrics   repository.Metrics
	now       func() time.Time
}

func NewMonthlyUseCase(
	eph service.Ephemeris,
	layer *svccache.Layer,
	table astro.AspectTable,
	publisher repository.EventPublisher,
	store repository.EventStore,
	ephePath string,
	l *logger.Logger,
	m repository.Metrics,
) *MonthlyUseCase {
	return &MonthlyUseCase{
		eph:       eph,
		cache:     layer,
		table:     table,
		publisher: publisher,
		store:     store,
		ephePath:  ephePath,
		log:       l,
		metrics:   m,
		now:       time.Now,
	}
}

type monthlyKey struct {
	Month    string `json:"month"`
	Table    string `json:"table"`
	EphePath string `json:"ephe_path"`
}

// Month returns the events of month (YYYY-MM); empty means the current UTC
// month.
func (uc *MonthlyUseCase) Month(ctx context.Context, month string) (svccache.Result[*models.MonthlyTransits], error) {
	var zero svccache.Result[*models.MonthlyTransits]
	if month == "" {
		month = uc.now().UTC().Format(util.MonthLayout)
	}
	start, end, err := util.MonthBounds(month)
	if err != nil {
		return zero, fmt.Errorf("%w: %v", models.ErrInvalidRequest, err)
	}

	key := monthlyKey{Month: month, Table: uc.table.Name, EphePath: uc.ephePath}
	return svccache.Fetch(ctx, uc.cache, svccache.KindMonthlyTransits, key, func(ctx context.Context) (*models.MonthlyTransits, error) {
		t0 := time.Now()
		defer func() { uc.metrics.RecordLatency("monthly_scan", time.Since(t0).Seconds()) }()

		days, err := uc.dailyPositions(ctx, start.AddDate(0, 0, -1), end)
		if err != nil {
			return nil, err
		}
		return &models.MonthlyTransits{
			Month:  month,
			Events: astro.ScanSky(month, days, uc.table),
		}, nil
	})
}

// dailyPositions fetches positions at 00:00 UTC for every day in [from, to).
func (uc *MonthlyUseCase) dailyPositions(ctx context.Context, from, to time.Time) ([]astro.DayPositions, error) {
	days := util.Days(from, to)
	out := make([]astro.DayPositions, len(days))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(dailyFetchLimit)
	for i, day := range days {
		g.Go(func() error {
			res, err := uc.eph.Compute(gctx, models.EphemerisQuery{
				JulianDayUT: util.JulianDayUT(day),
				Bodies:      skyBodies,
				Settings:    models.EphemerisSettings{Path: uc.ephePath},
			})
			if err != nil {
				return fmt.Errorf("positions for %s: %w", day.Format(util.DateLayout), err)
			}
			out[i] = astro.DayPositions{Date: day.Format(util.DateLayout), Positions: res.Positions}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		uc.metrics.RecordError("ephemeris")
		return nil, err
	}
	return out, nil
}

// Publish scans month and hands its events to the publisher and the store.
// Event ids are deterministic, so publishing a month again is idempotent for
// consumers that key on them.
func (uc *MonthlyUseCase) Publish(ctx context.Context, month string) (int, error) {
	res, err := uc.Month(ctx, month)
	if err != nil {
		return 0, err
	}
	events := res.Value.Events
	if len(events) == 0 {
		return 0, nil
	}

	if err := uc.publisher.PublishEvents(ctx, events); err != nil {
		uc.metrics.RecordError("publish")
		return 0, fmt.Errorf("publish %s events: %w", res.Value.Month, err)
	}
	if err := uc.store.StoreEvents(ctx, events); err != nil {
		uc.metrics.RecordError("store")
		return 0, fmt.Errorf("store %s events: %w", res.Value.Month, err)
	}
	return len(events), nil
}

// Run publishes the current month and the next monthsAhead months right away
// and then on every tick, until ctx is done.
func (uc *MonthlyUseCase) Run(ctx context.Context, interval time.Duration, monthsAhead int) {
	uc.log.Info("sky-event scanner started",
		logger.Duration("interval", interval),
		logger.Int("months_ahead", monthsAhead),
	)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		uc.scanOnce(ctx, monthsAhead)
		select {
		case <-ctx.Done():
			uc.log.Info("sky-event scanner stopped")
			return
		case <-ticker.C:
		}
	}
}

func (uc *MonthlyUseCase) scanOnce(ctx context.Context, monthsAhead int) {
	first := uc.now().UTC()
	first = time.Date(first.Year(), first.Month(), 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i <= monthsAhead; i++ {
		if ctx.Err() != nil {
			return
		}
		month := first.AddDate(0, i, 0).Format(util.MonthLayout)
		n, err := uc.Publish(ctx, month)
		if err != nil {
			uc.log.Error("sky-event scan failed", logger.String("month", month), logger.Error(err))
			continue
		}
		uc.log.Info("sky events published", logger.String("month", month), logger.Int("events", n))
	}
}

// History reads stored events between two inclusive dates.
func (uc *MonthlyUseCase) History(ctx context.Context, req models.HistoryRequest) ([]models.SkyEvent, error) {
	from, err := time.Parse(util.DateLayout, req.From)
	if err != nil {
		return nil, fmt.Errorf("%w: from: %v", models.ErrInvalidRequest, err)
	}
	to, err := time.Parse(util.DateLayout, req.To)
	if err != nil {
		return nil, fmt.Errorf("%w: to: %v", models.ErrInvalidRequest, err)
	}
	if to.Before(from) {
		return nil, fmt.Errorf("%w: from must not be after to", models.ErrInvalidRequest)
	}

	return uc.store.QueryEvents(ctx, models.SkyEventFilter{
		From:  from,
		To:    to.AddDate(0, 0, 1),
		Kind:  models.SkyEventKind(req.Kind),
		Limit: req.Limit,
	})
}
