//go:build wireinject
// +build wireinject

package di

import (
	wire "github.com/google/wire"

	"dmr/internal"
	"dmr/internal/controllers"
	"dmr/internal/discord"
	"dmr/internal/fetcher"
	"dmr/internal/privacy"
	"dmr/internal/providers"
	"dmr/internal/storage"
	"dmr/internal/structures"
)

func InitApp(cfg *structures.CliFlags) (*internal.App, error) {

	wire.Build(
		providers.NewConfigProvider,
		providers.NewLogProvider,
		providers.NewProgressProvider,
		providers.NewMetricsProvider,
		providers.NewInstrumentedCacheProvider,

		storage.NewZstdCompressor,
		storage.NewSecureStorage,
		storage.NewBatchWriter,

		discord.NewClient,

		privacy.NewOptOutRegistry,
		privacy.NewRedactor,
		privacy.NewProcessor,

		fetcher.NewCircuitBreaker,
		fetcher.NewRateLimiter,
		fetcher.NewCheckpointManager,
		fetcher.NewFetcher,

		controllers.NewProgressController,
		controllers.NewHealthController,
		internal.InitRoutes,
		internal.NewApp,
	)

	return nil, nil
}
