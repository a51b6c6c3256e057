//go:build wireinject
// +build wireinject

package di

import (
	"ChronoSignal/pkg/config"
	"ChronoSignal/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, func(), error) {
	wire.Build(
		// Ambient
		ProvideLogger,
		ProvideRegistry,
		ProvideMetrics,

		// Infrastructure clients
		ProvideClickHouseClient,
		ProvideCache,
		ProvideKafkaProducer,
		ProvideKafkaConsumer,

		// Repositories and sinks
		ProvideFeatureStore,
		ProvideHub,
		ProvideSignalPublisher,

		// Analysis
		ProvideAnalyzerFacade,
		ProvideAnalyzer,

		// Use cases
		ProvideSignalService,
		ProvideCandlesUseCase,
		ProvideKafkaTicksHandler,
		ProvideScanner,
		ProvideTradeStream,

		// Transport
		ProvideSignalsHandler,
		ProvideHTTPServer,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil, nil
}
