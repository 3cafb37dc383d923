package catalog

import (
	"zlagoda_console/internal/zlagoda"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

func Module() fx.Option {
	return fx.Module(
		"catalog",
		fx.Provide(func(client *zlagoda.Client, logger *zap.Logger) *Loader {
			return NewLoader(client, logger)
		}),
	)
}
