package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/deescovery/deescovery/cli"
	"github.com/deescovery/deescovery/internal/errors"
	"github.com/deescovery/deescovery/options"
	"github.com/deescovery/deescovery/pkg/log"
)

// The main entrypoint for deescovery
func main() {
	opts := options.NewOptions()

	defer errors.Recover(checkForErrorsAndExit(opts.Logger))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := cli.NewApp(opts).RunContext(ctx, os.Args)

	checkForErrorsAndExit(opts.Logger)(err)
}

// If there is an error, display it in the console and exit with a non-zero exit code. Otherwise, exit 0.
func checkForErrorsAndExit(logger log.Logger) func(error) {
	return func(err error) {
		if err == nil {
			os.Exit(0)
		}

		if errors.IsContextCanceled(err) {
			logger.Debugf("Interrupted: %v", err)
			os.Exit(1)
		}

		logger.Error(err.Error())

		if errStack := errors.ErrorStack(err); errStack != "" {
			logger.Trace(errStack)
		}

		os.Exit(1)
	}
}
