// Package di provides dependency injection configuration for the QuestBank server.
package di

import (
	"github.com/samber/do/v2"

	"github.com/questbank/questbank-server/internal/config"
	"github.com/questbank/questbank-server/internal/di/providers"
	"github.com/questbank/questbank-server/internal/logger"
	"github.com/questbank/questbank-server/internal/tree"
)

// NewContainer creates and configures the DI container with all providers.
func NewContainer() *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)

	// Persistence layer
	do.Provide(injector, providers.ProvideStore)
	do.Provide(injector, providers.ProvideBootstrap)

	// Search layer
	do.Provide(injector, providers.ProvideSearchIndex)

	// Tree services
	do.Provide(injector, providers.ProvideTreeEngine)
	do.Provide(injector, providers.ProvideTreeQuery)

	// Server
	do.Provide(injector, providers.ProvideRateLimiter)
	do.Provide(injector, providers.ProvideHTTPServer)

	return injector
}

// Bootstrap initializes all services and returns once the server is running.
// This triggers lazy initialization of every provider in dependency order.
func Bootstrap(injector *do.RootScope) error {
	_ = do.MustInvoke[*config.Config](injector)
	_ = do.MustInvoke[*logger.Logger](injector)
	_ = do.MustInvoke[*providers.StoreHandle](injector)
	_ = do.MustInvoke[*providers.SearchIndexHandle](injector)

	bootstrap := do.MustInvoke[*providers.Bootstrap](injector)
	if bootstrap.Seeded > 0 {
		log := do.MustInvoke[*logger.Logger](injector)
		log.Info("Seeded default category tree", "count", bootstrap.Seeded)
	}

	_ = do.MustInvoke[*tree.Engine](injector)
	_ = do.MustInvoke[*tree.Query](injector)
	_ = do.MustInvoke[*providers.RateLimiterHandle](injector)
	_ = do.MustInvoke[*providers.HTTPServerHandle](injector)

	// Backfill the search index from a pre-existing store if needed.
	providers.TriggerSearchReindexIfNeeded(injector)

	return nil
}
