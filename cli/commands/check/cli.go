// Package check imports every module below a set of packages via the `deescovery check` command.
package check

import (
	"github.com/urfave/cli/v2"

	"github.com/deescovery/deescovery/options"
)

const (
	CommandName = "check"

	ParallelismFlagName = "parallelism"
	WatchFlagName       = "watch"
)

func NewFlags(opts *Options) []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{
			Name:        ParallelismFlagName,
			EnvVars:     options.EnvVars(ParallelismFlagName),
			Destination: &opts.Parallelism,
			Value:       opts.Parallelism,
			Usage:       "Number of packages checked at once.",
		},
		&cli.BoolFlag{
			Name:        WatchFlagName,
			EnvVars:     options.EnvVars(WatchFlagName),
			Destination: &opts.Watch,
			Usage:       "Check again whenever a module file under the roots changes.",
		},
	}
}

func NewCommand(opts *options.Options) *cli.Command {
	cmdOpts := NewOptions(opts)

	return &cli.Command{
		Name:      CommandName,
		Usage:     "Import every module below the given packages and report all failures.",
		ArgsUsage: "<import-path>...",
		Flags:     NewFlags(cmdOpts),
		Action: func(ctx *cli.Context) error {
			cmdOpts.ImportPaths = ctx.Args().Slice()

			if err := cmdOpts.Validate(); err != nil {
				return err
			}

			return Run(ctx.Context, cmdOpts)
		},
	}
}
