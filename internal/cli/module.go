package cli

import "go.uber.org/fx"

// Module supplies the parsed flags and overlays them on the loaded
// configuration. The overlay sits outside the named module so that every
// package sees the overridden config.
func Module(opts Options) fx.Option {
	return fx.Options(
		fx.Supply(opts),
		fx.Decorate(opts.Apply),
		fx.Module(
			"cli",
			fx.Provide(NewRunner),
		),
	)
}
