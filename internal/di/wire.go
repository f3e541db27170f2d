//go:build wireinject
// +build wireinject

package di

import (
	"Astrolabe/pkg/config"
	"Astrolabe/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		ProvideLogger,
		ProvideMetrics,
		ProvideAnalysis,

		// Infrastructure clients
		ProvideCacheStore,
		ProvideCacheLayer,
		ProvideEphemeris,
		ProvideKafkaProducer,
		ProvideClickHouseClient,

		// Repositories
		ProvideEventPublisher,
		ProvideEventStore,

		// Use cases
		ProvideChartUseCase,
		ProvideTransitUseCase,
		ProvideHoroscopeUseCase,
		ProvideMonthlyUseCase,

		// Transport and application
		ProvideHTTPHandler,
		ProvideApp,
	)
	return &server.App{}, nil
}
