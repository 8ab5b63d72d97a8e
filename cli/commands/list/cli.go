// Package list prints the modules found below a package via the `deescovery list` command.
package list

import (
	"github.com/urfave/cli/v2"

	"github.com/deescovery/deescovery/options"
)

const (
	CommandName  = "list"
	CommandAlias = "ls"

	FormatFlagName      = "format"
	PackagesFlagName    = "packages"
	NoRecursiveFlagName = "no-recursive"
)

func NewFlags(opts *Options) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        FormatFlagName,
			EnvVars:     options.EnvVars(FormatFlagName),
			Destination: &opts.Format,
			Value:       opts.Format,
			Usage:       "Output format for list results. Valid values: text, tree, json.",
		},
		&cli.BoolFlag{
			Name:        PackagesFlagName,
			EnvVars:     options.EnvVars(PackagesFlagName),
			Destination: &opts.Packages,
			Usage:       "List packages only.",
		},
		&cli.BoolFlag{
			Name:        NoRecursiveFlagName,
			EnvVars:     options.EnvVars(NoRecursiveFlagName),
			Destination: &opts.NoRecursive,
			Usage:       "List the direct children of the package only.",
		},
	}
}

func NewCommand(opts *options.Options) *cli.Command {
	cmdOpts := NewOptions(opts)

	return &cli.Command{
		Name:      CommandName,
		Aliases:   []string{CommandAlias},
		Usage:     "List the modules below a package.",
		ArgsUsage: "<import-path>",
		Flags:     NewFlags(cmdOpts),
		Action: func(ctx *cli.Context) error {
			cmdOpts.ImportPath = ctx.Args().First()

			if err := cmdOpts.Validate(); err != nil {
				return err
			}

			return Run(ctx.Context, cmdOpts)
		},
	}
}
