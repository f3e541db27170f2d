package server

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"Astrolabe/internal/domain/repository"
	"Astrolabe/internal/usecase"
	pkgcache "Astrolabe/pkg/cache"
	"Astrolabe/pkg/config"
	xhttp "Astrolabe/pkg/http"
	applogger "Astrolabe/pkg/logger"
)

// App encapsulates the entire application lifecycle.
type App struct {
	cfg         *config.Config
	log         *applogger.Logger
	httpHandler xhttp.Handler
	httpServer  *xhttp.Server
	transits    *usecase.TransitUseCase
	monthly     *usecase.MonthlyUseCase
	publisher   repository.EventPublisher
	store       repository.EventStore
	cache       pkgcache.Service
	logSink     applogger.Publisher

	wg sync.WaitGroup
}

// New creates a new App instance with all dependencies. logSink may be nil,
// in which case error logs are not shipped anywhere.
func New(
	cfg *config.Config,
	l *applogger.Logger,
	handler xhttp.Handler,
	transits *usecase.TransitUseCase,
	monthly *usecase.MonthlyUseCase,
	publisher repository.EventPublisher,
	store repository.EventStore,
	cache pkgcache.Service,
	logSink applogger.Publisher,
) *App {
	return &App{
		cfg:         cfg,
		log:         l,
		httpHandler: handler,
		transits:    transits,
		monthly:     monthly,
		publisher:   publisher,
		store:       store,
		cache:       cache,
		logSink:     logSink,
	}
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if a.logSink != nil && a.cfg.Kafka.LogsTopic != "" {
		a.log.AddCollector(&applogger.CollectionConfig{
			Topic:     a.cfg.Kafka.LogsTopic,
			Source:    "astrolabe",
			Publisher: a.logSink,
		})
		a.log.Info("error log collector attached", applogger.String("topic", a.cfg.Kafka.LogsTopic))
	}

	metricsPath := ""
	if a.cfg.Metrics.Enabled {
		metricsPath = a.cfg.Metrics.Path
	}
	a.httpServer = xhttp.NewServer(a.httpHandler, a.log,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
		xhttp.WithCORS(true, a.cfg.Server.CORSOrigins...),
		xhttp.WithMetricsPath(metricsPath),
	)

	if err := a.httpServer.Start(); err != nil {
		a.log.Error("http server start error", applogger.Error(err))
		return err
	}

	if days := a.cfg.Cache.WarmupDays; days > 0 {
		a.wg.Add(1)
		go func() {
			defer a.wg.Done()
			a.transits.WarmUp(ctx, days)
		}()
	}

	if a.cfg.Scanner.Enabled {
		a.wg.Add(1)
		go func() {
			defer a.wg.Done()
			a.monthly.Run(ctx, a.cfg.Scanner.Interval, a.cfg.Scanner.MonthsAhead)
		}()
	}

	// Wait for interrupt
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.log.Info("shutdown signal received")
	cancel()
	return a.shutdown()
}

// shutdown stops the listener first, then background jobs, then the clients
// they were using.
func (a *App) shutdown() error {
	a.log.Info("shutting down...")

	if err := a.httpServer.Stop(context.Background()); err != nil {
		a.log.Error("http shutdown error", applogger.Error(err))
	}

	a.wg.Wait()

	// flush collected errors while the producer is still open
	a.log.RemoveCollector()

	if err := a.publisher.Close(); err != nil {
		a.log.Warn("event publisher close error", applogger.Error(err))
	}
	if err := a.store.Close(); err != nil {
		a.log.Warn("event store close error", applogger.Error(err))
	}
	if err := a.cache.Close(); err != nil {
		a.log.Warn("cache close error", applogger.Error(err))
	}

	a.log.Info("shutdown complete")
	return nil
}
