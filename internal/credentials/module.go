package credentials

import (
	"zlagoda_console/internal/config"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

func Module() fx.Option {
	return fx.Module(
		"credentials",
		fx.Provide(func(cfg config.Config, logger *zap.Logger) *Store {
			return NewStore(cfg.CredentialFile, logger)
		}),
	)
}
