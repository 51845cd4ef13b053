// Package di provides dependency injection configuration for the FlowDeck server.
package di

import (
	"github.com/samber/do/v2"

	"github.com/flowdeckapp/flowdeck-server/internal/api"
	"github.com/flowdeckapp/flowdeck-server/internal/config"
	"github.com/flowdeckapp/flowdeck-server/internal/di/providers"
	"github.com/flowdeckapp/flowdeck-server/internal/logger"
	"github.com/flowdeckapp/flowdeck-server/internal/share"
)

// NewContainer creates and configures the DI container with all providers.
func NewContainer() *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)
	do.Provide(injector, providers.ProvideSlogLogger)

	// Persistence layer
	do.Provide(injector, providers.ProvideSSEManager)
	do.Provide(injector, providers.ProvideStore)
	do.Provide(injector, providers.ProvideSearchIndex)
	do.Provide(injector, providers.ProvideInvoiceLedger)

	// Share tokens
	do.Provide(injector, providers.ProvideShareTokens)

	// Business services
	do.Provide(injector, providers.ProvideServices)
	do.Provide(injector, providers.ProvideBackupServices)

	// Server
	do.Provide(injector, providers.ProvideHTTPServer)
	do.Provide(injector, providers.ProvideMDNSService)

	return injector
}

// Bootstrap initializes all services and returns handles for lifecycle management.
// This triggers lazy initialization of all core services.
func Bootstrap(injector *do.RootScope) error {
	// Invoke core services to trigger initialization
	_ = do.MustInvoke[*config.Config](injector)
	_ = do.MustInvoke[*logger.Logger](injector)
	_ = do.MustInvoke[*providers.SSEManagerHandle](injector)
	_ = do.MustInvoke[*providers.StoreHandle](injector)
	_ = do.MustInvoke[*providers.SearchIndexHandle](injector)
	_ = do.MustInvoke[*providers.InvoiceLedgerHandle](injector)
	_ = do.MustInvoke[*share.TokenService](injector)

	// Business services
	_ = do.MustInvoke[*api.Services](injector)
	_ = do.MustInvoke[*providers.BackupServices](injector)

	// Server
	_ = do.MustInvoke[*providers.HTTPServerHandle](injector)
	_ = do.MustInvoke[*providers.MDNSServiceHandle](injector)

	// Rebuild the search index on first start with existing data
	providers.TriggerSearchReindexIfNeeded(injector)

	return nil
}
