// Package options holds the settings shared by every deescovery command.
package options

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	homedir "github.com/mitchellh/go-homedir"

	"github.com/deescovery/deescovery/internal/errors"
	"github.com/deescovery/deescovery/pkg/log"
	"github.com/deescovery/deescovery/pkg/module/hclfs"
)

const (
	// EnvVarPrefix prefixes the environment variables bound to flags.
	EnvVarPrefix = "DEESCOVERY_"

	DefaultLogLevel = log.InfoLevel

	DefaultParallelism = 4
)

// Options are the global settings of a deescovery run.
type Options struct {
	Logger    log.Logger
	Writer    io.Writer
	ErrWriter io.Writer

	// WorkingDir is the directory relative paths are resolved against.
	WorkingDir string

	// LogLevelStr is the raw value of the log level flag.
	LogLevelStr string

	// Roots are the directories module paths are resolved in, in order.
	Roots []string

	// Ignore holds zglob patterns of file and directory names skipped while listing packages.
	Ignore []string

	LogLevel log.Level

	DisableColor bool
}

// NewOptions creates options writing to stdout and stderr.
func NewOptions() *Options {
	return NewOptionsWithWriters(os.Stdout, os.Stderr)
}

// NewOptionsWithWriters creates options writing to the given writers.
func NewOptionsWithWriters(stdout, stderr io.Writer) *Options {
	return &Options{
		Writer:      stdout,
		ErrWriter:   stderr,
		LogLevel:    DefaultLogLevel,
		LogLevelStr: DefaultLogLevel.String(),
		Logger:      log.New(log.WithOutput(stderr), log.WithLevel(DefaultLogLevel), log.WithFormatter(log.NewFormatter(false))),
	}
}

// Normalize resolves the working directory and roots to absolute paths and applies the
// log level. Roots default to the working directory.
func (opts *Options) Normalize() error {
	level, err := log.ParseLevel(opts.LogLevelStr)
	if err != nil {
		return errors.New(err)
	}

	opts.LogLevel = level
	opts.Logger.SetOptions(log.WithLevel(level))

	if opts.WorkingDir == "" {
		currentDir, err := os.Getwd()
		if err != nil {
			return errors.New(err)
		}

		opts.WorkingDir = currentDir
	}

	if opts.WorkingDir, err = opts.absPath(opts.WorkingDir, ""); err != nil {
		return err
	}

	if len(opts.Roots) == 0 {
		opts.Roots = []string{opts.WorkingDir}
	}

	for i, root := range opts.Roots {
		if opts.Roots[i], err = opts.absPath(root, opts.WorkingDir); err != nil {
			return err
		}
	}

	return nil
}

// ResolvePath resolves path against the working directory.
func (opts *Options) ResolvePath(path string) (string, error) {
	return opts.absPath(path, opts.WorkingDir)
}

func (opts *Options) absPath(path, base string) (string, error) {
	expanded, err := homedir.Expand(path)
	if err != nil {
		return "", errors.New(err)
	}

	if !filepath.IsAbs(expanded) && base != "" {
		expanded = filepath.Join(base, expanded)
	}

	abs, err := filepath.Abs(expanded)
	if err != nil {
		return "", errors.New(err)
	}

	return abs, nil
}

// Loader returns a new filesystem loader over the roots. Each loader has its own import
// cache, so a new loader sees changes made since the last one was created.
func (opts *Options) Loader() *hclfs.Loader {
	return hclfs.New(opts.Roots...).WithIgnore(opts.Ignore...)
}

// EnvVars returns the environment variable names bound to the flag name,
// e.g. "log-level" becomes DEESCOVERY_LOG_LEVEL.
func EnvVars(names ...string) []string {
	envVars := make([]string, 0, len(names))

	for _, name := range names {
		envVars = append(envVars, EnvVarPrefix+strings.ToUpper(strings.ReplaceAll(name, "-", "_")))
	}

	return envVars
}
