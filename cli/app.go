// Package cli configures the deescovery command line application.
package cli

import (
	"context"

	"github.com/urfave/cli/v2"

	"github.com/deescovery/deescovery/cli/commands/check"
	"github.com/deescovery/deescovery/cli/commands/discover"
	"github.com/deescovery/deescovery/cli/commands/list"
	"github.com/deescovery/deescovery/options"
	"github.com/deescovery/deescovery/pkg/log"
)

const (
	AppName = "deescovery"

	LogLevelFlagName   = "log-level"
	RootFlagName       = "root"
	WorkingDirFlagName = "working-dir"
	IgnoreFlagName     = "ignore"
	NoColorFlagName    = "no-color"
)

// App is the deescovery CLI application.
type App struct {
	*cli.App
	opts *options.Options
}

// NewApp creates the deescovery CLI app.
func NewApp(opts *options.Options) *App {
	app := cli.NewApp()
	app.Name = AppName
	app.Usage = "Find modules and the objects they define by naming convention."
	app.UsageText = "deescovery [global options] <command> [options] <import-path>"
	app.Writer = opts.Writer
	app.ErrWriter = opts.ErrWriter
	app.Flags = NewGlobalFlags(opts)
	app.Commands = NewCommands(opts)
	app.Before = func(ctx *cli.Context) error {
		opts.Roots = ctx.StringSlice(RootFlagName)
		opts.Ignore = ctx.StringSlice(IgnoreFlagName)

		if opts.DisableColor {
			opts.Logger.SetOptions(log.WithFormatter(log.NewFormatter(true)))
		}

		return opts.Normalize()
	}
	// errors are reported by the caller of Run
	app.ExitErrHandler = func(*cli.Context, error) {}

	return &App{App: app, opts: opts}
}

// Run runs the app with a background context.
func (app *App) Run(args []string) error {
	return app.RunContext(context.Background(), args)
}

// RunContext runs the app with the logger stored in ctx.
func (app *App) RunContext(ctx context.Context, args []string) error {
	ctx = log.ContextWithLogger(ctx, app.opts.Logger)

	return app.App.RunContext(ctx, args)
}

// NewGlobalFlags returns the flags shared by every command.
func NewGlobalFlags(opts *options.Options) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        LogLevelFlagName,
			EnvVars:     options.EnvVars(LogLevelFlagName),
			Destination: &opts.LogLevelStr,
			Value:       opts.LogLevelStr,
			Usage:       "Sets the logging level: " + log.AllLevels.String() + ".",
		},
		&cli.StringSliceFlag{
			Name:    RootFlagName,
			EnvVars: options.EnvVars(RootFlagName),
			Usage:   "Directory searched for top-level modules. May be given several times. Defaults to the working directory.",
		},
		&cli.StringFlag{
			Name:        WorkingDirFlagName,
			EnvVars:     options.EnvVars(WorkingDirFlagName),
			Destination: &opts.WorkingDir,
			Usage:       "The path to the directory relative paths are resolved against.",
		},
		&cli.StringSliceFlag{
			Name:    IgnoreFlagName,
			EnvVars: options.EnvVars(IgnoreFlagName),
			Usage:   "Skip files and directories whose name matches this glob. May be given several times.",
		},
		&cli.BoolFlag{
			Name:        NoColorFlagName,
			EnvVars:     options.EnvVars(NoColorFlagName),
			Destination: &opts.DisableColor,
			Usage:       "Disable color output.",
		},
	}
}

// NewCommands returns the deescovery commands.
func NewCommands(opts *options.Options) []*cli.Command {
	return []*cli.Command{
		list.NewCommand(opts),
		discover.NewCommand(opts),
		check.NewCommand(opts),
	}
}
