package session

import (
	"context"

	"zlagoda_console/internal/credentials"
	"zlagoda_console/internal/zlagoda"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

func Module() fx.Option {
	return fx.Module(
		"session",
		fx.Provide(
			func(client *zlagoda.Client, creds *credentials.Store, logger *zap.Logger) *Store {
				return NewStore(client, creds, logger)
			},
			NewGuard,
		),
		fx.Invoke(func(lc fx.Lifecycle, store *Store) {
			ctx, cancel := context.WithCancel(context.Background())
			lc.Append(fx.Hook{
				// Restoring runs in the background; guards report pending
				// until it is done.
				OnStart: func(context.Context) error {
					go store.Initialize(ctx)
					return nil
				},
				OnStop: func(context.Context) error {
					cancel()
					return nil
				},
			})
		}),
	)
}
