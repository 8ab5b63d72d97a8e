// Package discover runs the rules of a rules file via the `deescovery discover` command.
package discover

import (
	"github.com/urfave/cli/v2"

	"github.com/deescovery/deescovery/options"
)

const (
	CommandName = "discover"

	ConfigFlagName = "config"
	FormatFlagName = "format"
)

func NewFlags(opts *Options) []cli.Flag {
	return []cli.Flag{
		&cli.StringSliceFlag{
			Name:    ConfigFlagName,
			EnvVars: options.EnvVars(ConfigFlagName),
			Value:   cli.NewStringSlice(opts.ConfigPaths...),
			Usage:   "Path to a rules file. May be given several times. Files ending in .json or .yaml use those syntaxes.",
		},
		&cli.StringFlag{
			Name:        FormatFlagName,
			EnvVars:     options.EnvVars(FormatFlagName),
			Destination: &opts.Format,
			Value:       opts.Format,
			Usage:       "Output format for matches. Valid values: text, json.",
		},
	}
}

func NewCommand(opts *options.Options) *cli.Command {
	cmdOpts := NewOptions(opts)

	return &cli.Command{
		Name:      CommandName,
		Usage:     "Run the rules of a rules file over the modules below a package.",
		ArgsUsage: "<import-path>",
		Flags:     NewFlags(cmdOpts),
		Action: func(ctx *cli.Context) error {
			cmdOpts.ImportPath = ctx.Args().First()
			cmdOpts.ConfigPaths = ctx.StringSlice(ConfigFlagName)

			if err := cmdOpts.Validate(); err != nil {
				return err
			}

			return Run(ctx.Context, cmdOpts)
		},
	}
}
