package export

import (
	"zlagoda_console/internal/config"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

func Module() fx.Option {
	return fx.Module(
		"export",
		fx.Provide(func(cfg config.Config, logger *zap.Logger) *Exporter {
			return NewExporter(cfg.ExportDir, logger)
		}),
	)
}
