//go:build wireinject
// +build wireinject

package di

import (
	wire "github.com/google/wire"

	"quotad/internal"
	"quotad/internal/controllers"
	"quotad/internal/persistence"
	"quotad/internal/providers"
	"quotad/internal/services"
	"quotad/internal/structures"
)

func InitApp(cfg *structures.CliFlags) (*internal.App, error) {

	wire.Build(
		providers.NewConfigProvider,
		providers.NewLogProvider,
		providers.NewClockProvider,
		providers.NewStoreProvider,
		providers.NewMetricsProvider,
		providers.NewResolverProvider,
		providers.NewTokenVerifierProvider,
		providers.NewCorsProvider,

		persistence.NewZstdCompressor,
		persistence.NewFileManager,
		persistence.NewScheduler,
		services.NewMonetizationService,
		controllers.NewUsageController,
		controllers.NewHealthController,
		internal.InitRoutes,
		internal.NewApp,
	)

	return nil, nil
}
