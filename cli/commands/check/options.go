package check

import (
	"github.com/deescovery/deescovery/internal/errors"
	"github.com/deescovery/deescovery/options"
)

type Options struct {
	*options.Options

	// ImportPaths are the packages to check.
	ImportPaths []string

	// Parallelism bounds how many packages are checked at once.
	Parallelism int

	// Watch re-runs the check whenever the module tree changes.
	Watch bool
}

func NewOptions(opts *options.Options) *Options {
	return &Options{
		Options:     opts,
		Parallelism: options.DefaultParallelism,
	}
}

func (o *Options) Validate() error {
	if len(o.ImportPaths) == 0 {
		return errors.New("at least one import path is required")
	}

	if o.Parallelism < 1 {
		return errors.Errorf("parallelism must be at least 1, got %d", o.Parallelism)
	}

	return nil
}
