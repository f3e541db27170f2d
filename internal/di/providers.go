package di

import (
	"context"
	"fmt"
	"time"

	"Astrolabe/internal/domain/models"
	"Astrolabe/internal/domain/repository"
	"Astrolabe/internal/domain/service"
	"Astrolabe/internal/handler/api"
	internalrepo "Astrolabe/internal/repository"
	svccache "Astrolabe/internal/service/cache"
	"Astrolabe/internal/services/astro"
	"Astrolabe/internal/services/ephemeris"
	"Astrolabe/internal/usecase"
	pkgcache "Astrolabe/pkg/cache"
	pkgch "Astrolabe/pkg/clickhouse"
	"Astrolabe/pkg/config"
	xhttp "Astrolabe/pkg/http"
	"Astrolabe/pkg/http/middleware"
	pkgkafka "Astrolabe/pkg/kafka"
	applogger "Astrolabe/pkg/logger"
	"Astrolabe/pkg/metrics"
	"Astrolabe/pkg/server"
)

// Analysis holds the aspect tables and default house system, resolved once
// at startup.
type Analysis struct {
	NatalTable   astro.AspectTable
	TransitTable astro.AspectTable
	HouseSystem  models.HouseSystem
}

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	l, err := applogger.New(&cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l, nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideAnalysis resolves configured names; an unknown name fails startup.
func ProvideAnalysis(cfg *config.Config) (Analysis, error) {
	natal, err := astro.TableByName(cfg.Analysis.NatalTable)
	if err != nil {
		return Analysis{}, fmt.Errorf("analysis.natal_table: %w", err)
	}
	transit, err := astro.TableByName(cfg.Analysis.TransitTable)
	if err != nil {
		return Analysis{}, fmt.Errorf("analysis.transit_table: %w", err)
	}
	hs, err := models.ParseHouseSystem(cfg.Ephemeris.HouseSystem)
	if err != nil {
		return Analysis{}, fmt.Errorf("ephemeris.house_system: %w", err)
	}
	return Analysis{NatalTable: natal, TransitTable: transit, HouseSystem: hs}, nil
}

// ProvideCacheStore creates the configured cache backend.
func ProvideCacheStore(cfg *config.Config) (pkgcache.Service, error) {
	memory := []pkgcache.MemoryOption{
		pkgcache.WithMemoryMaxSize(cfg.Cache.MaxEntries),
		pkgcache.WithMemoryShards(cfg.Cache.Shards),
	}

	switch cfg.Cache.Backend {
	case "redis", "layered":
		redisCache, err := pkgcache.NewRedisCache(
			pkgcache.WithRedisAddr(cfg.Cache.Redis.Addr),
			pkgcache.WithRedisPassword(cfg.Cache.Redis.Password),
			pkgcache.WithRedisDB(cfg.Cache.Redis.DB),
			pkgcache.WithRedisPool(cfg.Cache.Redis.PoolSize, 2, 30*time.Second),
			pkgcache.WithRedisPrefix(cfg.Cache.Redis.Prefix),
		)
		if err != nil {
			return nil, fmt.Errorf("redis cache: %w", err)
		}
		if cfg.Cache.Backend == "redis" {
			return redisCache, nil
		}
		return pkgcache.NewLayeredCache(redisCache, pkgcache.WithLayeredMemory(memory...)), nil
	default:
		return pkgcache.NewMemoryCache(memory...), nil
	}
}

// ProvideCacheLayer wraps the store with per-kind TTLs and single-flight.
func ProvideCacheLayer(store pkgcache.Service, cfg *config.Config, l *applogger.Logger, m repository.Metrics) *svccache.Layer {
	return svccache.NewLayer(store, svccache.PolicyFromConfig(cfg.Cache.TTL),
		svccache.WithLogger(l),
		svccache.WithMetrics(m),
	)
}

// ProvideEphemeris creates the HTTP ephemeris provider.
func ProvideEphemeris(cfg *config.Config, l *applogger.Logger) service.Ephemeris {
	client := xhttp.NewClient(xhttp.WithTimeout(cfg.Ephemeris.Timeout))
	return ephemeris.NewHTTPProvider(cfg.Ephemeris.BaseURL, client, l)
}

// ProvideKafkaProducer creates a Kafka producer, or nil when Kafka is disabled.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatching(cfg.Kafka.Producer.BatchSize, cfg.Kafka.Producer.BatchBytes, cfg.Kafka.Producer.Linger),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvideEventPublisher publishes sky events to Kafka when it is enabled.
func ProvideEventPublisher(producer *pkgkafka.Producer, cfg *config.Config) repository.EventPublisher {
	if producer == nil {
		return internalrepo.NopPublisher{}
	}
	return internalrepo.NewKafkaEventPublisher(producer, cfg.Kafka.Topic)
}

// ProvideClickHouseClient creates a ClickHouse client, or nil when history is
// disabled.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	if !cfg.ClickHouse.Enabled {
		return nil, nil
	}
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}
	return client, nil
}

// ProvideEventStore creates the sky-event history and ensures its schema.
func ProvideEventStore(client *pkgch.Client, cfg *config.Config, l *applogger.Logger) (repository.EventStore, error) {
	if client == nil {
		return internalrepo.NopEventStore{}, nil
	}
	store := internalrepo.NewCHEventStore(client, cfg.ClickHouse.Database, cfg.ClickHouse.Table, l)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := store.Init(ctx); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}
	return store, nil
}

func ProvideChartUseCase(
	eph service.Ephemeris,
	layer *svccache.Layer,
	a Analysis,
	cfg *config.Config,
	l *applogger.Logger,
	m repository.Metrics,
) *usecase.ChartUseCase {
	return usecase.NewChartUseCase(eph, layer, a.NatalTable, a.HouseSystem, cfg.Ephemeris.EphePath, l, m)
}

func ProvideTransitUseCase(
	eph service.Ephemeris,
	layer *svccache.Layer,
	cfg *config.Config,
	l *applogger.Logger,
	m repository.Metrics,
) *usecase.TransitUseCase {
	return usecase.NewTransitUseCase(eph, layer, cfg.Ephemeris.EphePath, l, m)
}

func ProvideHoroscopeUseCase(
	transits *usecase.TransitUseCase,
	layer *svccache.Layer,
	a Analysis,
	cfg *config.Config,
	l *applogger.Logger,
	m repository.Metrics,
) *usecase.HoroscopeUseCase {
	return usecase.NewHoroscopeUseCase(transits, layer, a.TransitTable, cfg.Analysis.TopAspects, cfg.Analysis.TopHouses, l, m)
}

func ProvideMonthlyUseCase(
	eph service.Ephemeris,
	layer *svccache.Layer,
	a Analysis,
	publisher repository.EventPublisher,
	store repository.EventStore,
	cfg *config.Config,
	l *applogger.Logger,
	m repository.Metrics,
) *usecase.MonthlyUseCase {
	return usecase.NewMonthlyUseCase(eph, layer, a.TransitTable, publisher, store, cfg.Ephemeris.EphePath, l, m)
}

// ProvideHTTPHandler creates the API handler with the configured rate limit.
func ProvideHTTPHandler(
	cfg *config.Config,
	l *applogger.Logger,
	charts *usecase.ChartUseCase,
	transits *usecase.TransitUseCase,
	horoscope *usecase.HoroscopeUseCase,
	monthly *usecase.MonthlyUseCase,
	layer *svccache.Layer,
	store repository.EventStore,
) xhttp.Handler {
	var opts []api.HandlerOption
	if rl := cfg.Server.RateLimit; rl.Enabled {
		opts = append(opts, api.WithRateLimiter(middleware.NewRateLimiter(rl.RPS, rl.Burst)))
	}
	return api.NewAstroHandler(l, charts, transits, horoscope, monthly, layer, store, opts...)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	handler xhttp.Handler,
	transits *usecase.TransitUseCase,
	monthly *usecase.MonthlyUseCase,
	publisher repository.EventPublisher,
	store repository.EventStore,
	cache pkgcache.Service,
	producer *pkgkafka.Producer,
) *server.App {
	// a nil *Producer must not become a non-nil interface
	var logSink applogger.Publisher
	if producer != nil {
		logSink = producer
	}
	return server.New(cfg, l, handler, transits, monthly, publisher, store, cache, logSink)
}
