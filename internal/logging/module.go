package logging

import (
	"context"
	"os"

	"zlagoda_console/internal/config"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Module is a plain option set rather than a named fx.Module: decorations
// only reach the scope they are declared in, and the file logger must
// replace the root logger for every package.
func Module() fx.Option {
	return fx.Options(
		fx.Provide(func(cfg config.Config) (*os.File, error) {
			return OpenLogFile(cfg.LogFile)
		}),
		fx.Decorate(func(base *zap.Logger, cfg config.Config, file *os.File) *zap.Logger {
			return AttachFileLogger(base, file, cfg.Debug).With(zap.String("api", cfg.APIBaseURL))
		}),
		fx.Invoke(func(lc fx.Lifecycle, file *os.File) {
			if file == nil {
				return
			}
			lc.Append(fx.Hook{
				OnStop: func(_ context.Context) error {
					_ = file.Sync()
					return file.Close()
				},
			})
		}),
	)
}
