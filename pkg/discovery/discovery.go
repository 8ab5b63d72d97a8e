package discovery

import (
	"context"

	"github.com/deescovery/deescovery/internal/errors"
	"github.com/deescovery/deescovery/pkg/log"
	"github.com/deescovery/deescovery/pkg/module"
)

// Discover enumerates the modules below importPath, sub-packages excluded, and applies
// every rule to each of them in order. It stops at the first error and returns it
// unchanged. The context is checked between modules.
func Discover(ctx context.Context, l log.Logger, loader module.Loader, importPath string, rules []Rule) error {
	l = log.OrDiscard(l)

	for path, err := range FindModules(ctx, loader, importPath, WithRecursive()) {
		if err != nil {
			return err
		}

		if err := ctx.Err(); err != nil {
			return err
		}

		for _, rule := range rules {
			if err := rule.apply(ctx, l, loader, path); err != nil {
				return err
			}
		}
	}

	return nil
}

// Discoverer holds a loader, a logger and a rule set for repeated discovery runs.
type Discoverer struct {
	loader module.Loader
	logger log.Logger
	rules  []Rule
}

// NewDiscoverer creates a Discoverer importing modules with loader.
func NewDiscoverer(loader module.Loader) *Discoverer {
	return &Discoverer{
		loader: loader,
		logger: log.Discard(),
	}
}

// WithLogger sets the logger receiving match traces.
func (d *Discoverer) WithLogger(l log.Logger) *Discoverer {
	d.logger = log.OrDiscard(l)
	return d
}

// WithRules appends rules to the rule set.
func (d *Discoverer) WithRules(rules ...Rule) *Discoverer {
	d.rules = append(d.rules, rules...)
	return d
}

// Rules returns the configured rules.
func (d *Discoverer) Rules() []Rule {
	return d.rules
}

// Discover runs the configured rules against the modules below importPath.
func (d *Discoverer) Discover(ctx context.Context, importPath string) error {
	return Discover(ctx, d.logger, d.loader, importPath, d.rules)
}

// Check imports importPath and every module and package below it. Unlike Discover it
// keeps going after a failed import and returns all failures as one multi-error;
// packages that fail to import are not descended into. A top-level failure is returned
// as is.
func Check(ctx context.Context, loader module.Loader, importPath string) error {
	pkg, err := loader.Import(ctx, importPath)
	if err != nil {
		return err
	}

	if !pkg.IsPackage() {
		return errors.New(&module.NotAPackageError{Path: pkg.Path})
	}

	return checkPackage(ctx, loader, pkg, nil).ErrorOrNil()
}

func checkPackage(ctx context.Context, loader module.Loader, pkg *module.Module, errs *errors.MultiError) *errors.MultiError {
	children, err := loader.Children(ctx, pkg)
	if err != nil {
		return errs.Append(err)
	}

	for _, child := range children {
		if err := ctx.Err(); err != nil {
			return errs.Append(err)
		}

		mod, err := loader.Import(ctx, module.Join(pkg.Path, child.Name))
		if err != nil {
			errs = errs.Append(err)
			continue
		}

		if mod.IsPackage() {
			errs = checkPackage(ctx, loader, mod, errs)
		}
	}

	return errs
}
