package zlagoda

import (
	"zlagoda_console/internal/config"
	"zlagoda_console/internal/credentials"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

func Module() fx.Option {
	return fx.Module(
		"zlagoda",
		fx.Provide(func(cfg config.Config, store *credentials.Store, logger *zap.Logger) *Client {
			return NewClient(cfg, store, logger)
		}),
	)
}
