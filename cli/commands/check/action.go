package check

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/deescovery/deescovery/internal/errors"
	"github.com/deescovery/deescovery/pkg/discovery"
	"github.com/deescovery/deescovery/pkg/module/hclfs"
)

// Run checks the import paths once, or on every change of the module tree in watch mode.
// In watch mode failures are logged and Run returns when ctx is done.
func Run(ctx context.Context, opts *Options) error {
	err := report(opts, checkAll(ctx, opts))
	if !opts.Watch {
		return err
	}

	opts.Logger.Infof("Watching %v for changes", opts.Roots)

	return hclfs.Watch(ctx, opts.Logger, opts.Roots, 0, func(ctx context.Context) error {
		opts.Logger.Debugf("Module tree changed, checking again")

		_ = report(opts, checkAll(ctx, opts))

		return nil
	})
}

// checkAll checks every import path, at most opts.Parallelism at once, and collects
// all failures.
func checkAll(ctx context.Context, opts *Options) error {
	// a fresh loader sees the current state of the files
	loader := opts.Loader()

	var (
		errs *errors.MultiError
		mu   sync.Mutex
	)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Parallelism)

	for _, importPath := range opts.ImportPaths {
		g.Go(func() error {
			opts.Logger.Debugf("Checking %s", importPath)

			if err := discovery.Check(ctx, loader, importPath); err != nil {
				mu.Lock()
				errs = errs.Append(err)
				mu.Unlock()
			}

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return errors.New(err)
	}

	return errs.ErrorOrNil()
}

func report(opts *Options, err error) error {
	if err == nil {
		_, writeErr := fmt.Fprintf(opts.Writer, "Checked %d package(s), no problems found\n", len(opts.ImportPaths))
		if writeErr != nil {
			return errors.New(writeErr)
		}

		return nil
	}

	for _, cause := range errors.UnwrapMultiErrors(err) {
		opts.Logger.Error(cause)
	}

	return err
}
