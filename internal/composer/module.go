package composer

import (
	"zlagoda_console/internal/catalog"
	"zlagoda_console/internal/session"
	"zlagoda_console/internal/zlagoda"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

func Module() fx.Option {
	return fx.Module(
		"composer",
		fx.Provide(func(loader *catalog.Loader, client *zlagoda.Client, store *session.Store, logger *zap.Logger) *Factory {
			return NewFactory(loader, client, store, logger)
		}),
	)
}
