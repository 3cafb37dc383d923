package internal

import (
	"context"
	"errors"
	"os"

	"zlagoda_console/internal/catalog"
	"zlagoda_console/internal/cli"
	"zlagoda_console/internal/composer"
	"zlagoda_console/internal/config"
	"zlagoda_console/internal/credentials"
	"zlagoda_console/internal/export"
	"zlagoda_console/internal/llm"
	"zlagoda_console/internal/logging"
	"zlagoda_console/internal/session"
	"zlagoda_console/internal/zlagoda"

	"github.com/go-core-fx/logger"
	"go.uber.org/fx"
)

func Run() error {
	opts, err := cli.ParseArgs(os.Args[1:], os.Stderr)
	if errors.Is(err, cli.ErrHelp) {
		return nil
	}
	if err != nil {
		return err
	}

	var runner *cli.Runner

	app := fx.New(
		logger.Module(),
		logger.WithFxDefaultLogger(),
		config.Module(),
		logging.Module(),
		credentials.Module(),
		zlagoda.Module(),
		session.Module(),
		catalog.Module(),
		composer.Module(),
		export.Module(),
		llm.Module(),
		cli.Module(opts),
		fx.Populate(&runner),
	)

	ctx := context.Background()
	if err := app.Start(ctx); err != nil {
		return err
	}
	defer func() {
		_ = app.Stop(ctx)
	}()

	return runner.Execute()
}
