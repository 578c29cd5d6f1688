//go:build wireinject
// +build wireinject

package di

import (
	"SignalDeck/pkg/config"
	"SignalDeck/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Ambient
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure clients
		ProvideCache,
		ProvideClickHouseClient,
		ProvideKafkaProducer,

		// Side-channel sinks
		ProvideSignalHistory,
		ProvideEventPublisher,
		ProvideSinkPipeline,

		// State stores
		ProvideSignalLog,
		ProvideTickerStateStore,
		ProvideSnapshotStore,

		// Ingestion pipeline
		ProvideValidator,
		ProvideHub,
		ProvideEventRouter,
		ProvideSessionFactory,
		ProvideSessionManager,

		// HTTP surface
		ProvideStateHandler,
		ProvideHTTPHandler,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
