package llm

import (
	"go.uber.org/fx"
	"go.uber.org/zap"
)

func Module() fx.Option {
	return fx.Module(
		"llm",
		fx.Provide(NewClient),
		fx.Invoke(func(c *Client, logger *zap.Logger) {
			logger.Debug("assistant", zap.Bool("enabled", c.Enabled()), zap.String("model", c.Model()))
		}),
	)
}
