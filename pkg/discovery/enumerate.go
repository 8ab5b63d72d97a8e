package discovery

import (
	"context"
	"iter"

	"github.com/deescovery/deescovery/internal/errors"
	"github.com/deescovery/deescovery/pkg/module"
)

// EnumerateOption configures FindModules.
type EnumerateOption func(*enumerateOptions)

type enumerateOptions struct {
	includePackages bool
	recursive       bool
}

// WithPackages yields sub-packages as well as plain modules.
func WithPackages() EnumerateOption {
	return func(opts *enumerateOptions) {
		opts.includePackages = true
	}
}

// WithRecursive descends into sub-packages.
func WithRecursive() EnumerateOption {
	return func(opts *enumerateOptions) {
		opts.recursive = true
	}
}

// FindModules returns the paths of the modules below the package importPath, in the
// child order of the loader. A sub-package is yielded before its own descendants.
//
// The sequence is lazy and every iteration walks the tree again. It stops after the
// first error, which is yielded with an empty path: a *module.NotAPackageError when
// importPath is a plain module, otherwise the loader error unchanged.
func FindModules(ctx context.Context, loader module.Loader, importPath string, opts ...EnumerateOption) iter.Seq2[string, error] {
	cfg := &enumerateOptions{}

	for _, opt := range opts {
		opt(cfg)
	}

	return func(yield func(string, error) bool) {
		pkg, err := loader.Import(ctx, importPath)
		if err != nil {
			yield("", err)
			return
		}

		walkPackage(ctx, loader, pkg, cfg, yield)
	}
}

// walkPackage returns false once iteration must stop.
func walkPackage(ctx context.Context, loader module.Loader, pkg *module.Module, cfg *enumerateOptions, yield func(string, error) bool) bool {
	if !pkg.IsPackage() {
		yield("", errors.New(&module.NotAPackageError{Path: pkg.Path}))
		return false
	}

	children, err := loader.Children(ctx, pkg)
	if err != nil {
		yield("", err)
		return false
	}

	for _, child := range children {
		path := module.Join(pkg.Path, child.Name)

		if !child.IsPackage {
			if !yield(path, nil) {
				return false
			}

			continue
		}

		if cfg.includePackages && !yield(path, nil) {
			return false
		}

		if !cfg.recursive {
			continue
		}

		sub, err := loader.Import(ctx, path)
		if err != nil {
			yield("", err)
			return false
		}

		if !walkPackage(ctx, loader, sub, cfg, yield) {
			return false
		}
	}

	return true
}
