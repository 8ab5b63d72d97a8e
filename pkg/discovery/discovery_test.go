package discovery_test

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	tgerrors "github.com/deescovery/deescovery/internal/errors"
	"github.com/deescovery/deescovery/pkg/discovery"
	"github.com/deescovery/deescovery/pkg/log"
	"github.com/deescovery/deescovery/pkg/matcher"
	"github.com/deescovery/deescovery/pkg/module"
	"github.com/deescovery/deescovery/pkg/module/hclfs"
)

type blueprint struct {
	Name string
}

type command struct {
	Name string
}

type service struct {
	name string
}

func (s *service) InitApp() {}

// sampleRegistry builds the package tree
//
//	sample
//	├── services         foo, bar services and a version string
//	└── users
//	    ├── cli          one command
//	    ├── controllers  one blueprint and its url prefix
//	    └── models       nothing
func sampleRegistry(t *testing.T) *module.Registry {
	t.Helper()

	reg := module.NewRegistry()

	reg.Register("sample.services", func(_ context.Context, m *module.Builder) error {
		m.Set("foo", &service{name: "foo"}).
			Set("bar", &service{name: "bar"}).
			Set("version", "1.0").
			Set("Service", reflect.TypeFor[*service]())

		return nil
	})
	reg.Register("sample.users.controllers", func(_ context.Context, m *module.Builder) error {
		m.Set("blueprint", &blueprint{Name: "users"}).Set("url_prefix", "/users")
		return nil
	})
	reg.Register("sample.users.cli", func(_ context.Context, m *module.Builder) error {
		m.Set("users", &command{Name: "users"})
		return nil
	})
	reg.Register("sample.users.models", nil)

	return reg
}

// sampleTree writes the tree of sampleRegistry as HCL files and returns a loader over it.
func sampleTree(t *testing.T) *hclfs.Loader {
	t.Helper()

	root := t.TempDir()

	files := map[string]string{
		"sample/_package.hcl": ``,
		"sample/services.hcl": `
version = "1.0"

service "foo" {
  init = "foo"
}

service "bar" {
  init = "bar"
}
`,
		"sample/users/_package.hcl": ``,
		"sample/users/controllers.hcl": `
url_prefix = "/users"

blueprint {
  name = "users"
}
`,
		"sample/users/cli.hcl":    `command "users" {}`,
		"sample/users/models.hcl": ``,
	}

	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	}

	return hclfs.New(root)
}

func isBlock(blockType string) matcher.Predicate[any] {
	return func(obj any) bool {
		block, ok := obj.(*hclfs.Block)
		return ok && block.Type == blockType
	}
}

func collect(t *testing.T, reg module.Loader, path string, opts ...discovery.EnumerateOption) []string {
	t.Helper()

	var paths []string

	for p, err := range discovery.FindModules(context.Background(), reg, path, opts...) {
		require.NoError(t, err)

		paths = append(paths, p)
	}

	return paths
}

func TestFindModules(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		opts []discovery.EnumerateOption
		want []string
	}{
		{
			name: "top level only",
			want: []string{"sample.services"},
		},
		{
			name: "top level with packages",
			opts: []discovery.EnumerateOption{discovery.WithPackages()},
			want: []string{"sample.services", "sample.users"},
		},
		{
			name: "recursive",
			opts: []discovery.EnumerateOption{discovery.WithRecursive()},
			want: []string{"sample.services", "sample.users.cli", "sample.users.controllers", "sample.users.models"},
		},
		{
			name: "recursive with packages",
			opts: []discovery.EnumerateOption{discovery.WithRecursive(), discovery.WithPackages()},
			want: []string{"sample.services", "sample.users", "sample.users.cli", "sample.users.controllers", "sample.users.models"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.want, collect(t, sampleRegistry(t), "sample", tt.opts...))
		})
	}
}

func TestFindModulesImportsOnlyPackages(t *testing.T) {
	t.Parallel()

	reg := sampleRegistry(t)
	seq := discovery.FindModules(context.Background(), reg, "sample", discovery.WithRecursive())

	var first, second []string

	for path, err := range seq {
		require.NoError(t, err)

		first = append(first, path)
	}

	for path, err := range seq {
		require.NoError(t, err)

		second = append(second, path)
	}

	assert.Equal(t, first, second)
	assert.Equal(t, []string{"sample", "sample.users"}, reg.Imported())
}

func TestFindModulesStopsOnBreak(t *testing.T) {
	t.Parallel()

	reg := sampleRegistry(t)

	for path, err := range discovery.FindModules(context.Background(), reg, "sample", discovery.WithRecursive()) {
		require.NoError(t, err)
		assert.Equal(t, "sample.services", path)

		break
	}

	// sample.users is never reached
	assert.Equal(t, []string{"sample"}, reg.Imported())
}

func TestFindModulesErrors(t *testing.T) {
	t.Parallel()

	t.Run("not a package", func(t *testing.T) {
		t.Parallel()

		var errs []error

		for path, err := range discovery.FindModules(context.Background(), sampleRegistry(t), "sample.services") {
			assert.Empty(t, path)

			errs = append(errs, err)
		}

		require.Len(t, errs, 1)

		var notPkg *module.NotAPackageError
		require.ErrorAs(t, errs[0], &notPkg)
		assert.Equal(t, "sample.services", notPkg.Path)
	})

	t.Run("missing", func(t *testing.T) {
		t.Parallel()

		var errs []error

		for _, err := range discovery.FindModules(context.Background(), sampleRegistry(t), "missing") {
			errs = append(errs, err)
		}

		require.Len(t, errs, 1)
		assert.ErrorIs(t, errs[0], module.ErrModuleNotFound)
	})

	t.Run("failing sub-package", func(t *testing.T) {
		t.Parallel()

		boom := errors.New("boom")

		reg := sampleRegistry(t)
		reg.RegisterPackage("sample.broken", func(context.Context, *module.Builder) error {
			return boom
		})

		var (
			paths []string
			errs  []error
		)

		for path, err := range discovery.FindModules(context.Background(), reg, "sample", discovery.WithRecursive()) {
			if err != nil {
				errs = append(errs, err)
				continue
			}

			paths = append(paths, path)
		}

		assert.Empty(t, paths)
		require.Len(t, errs, 1)
		assert.ErrorIs(t, errs[0], boom)
	})
}

func TestDiscoverModuleRule(t *testing.T) {
	t.Parallel()

	reg := sampleRegistry(t)

	var found []string

	rule := &discovery.ModuleRule{
		Name:          "controllers",
		ModuleMatches: matcher.MatchByPattern("*.controllers"),
		ModuleAction: func(_ context.Context, path string) error {
			found = append(found, path)
			return nil
		},
	}

	require.NoError(t, discovery.Discover(context.Background(), nil, reg, "sample", []discovery.Rule{rule}))

	assert.Equal(t, []string{"sample.users.controllers"}, found)
	assert.NotContains(t, reg.Imported(), "sample.users.controllers")
}

func TestDiscoverObjectRule(t *testing.T) {
	t.Parallel()

	reg := sampleRegistry(t)

	var found []any

	rule := &discovery.ObjectRule{
		Name:          "blueprints",
		ModuleMatches: matcher.MatchByPattern("*.controllers"),
		ObjectMatches: matcher.MatchByType(reflect.TypeFor[blueprint]()),
		ObjectAction: func(_ context.Context, obj any) error {
			found = append(found, obj)
			return nil
		},
	}

	require.NoError(t, discovery.Discover(context.Background(), nil, reg, "sample", []discovery.Rule{rule}))

	require.Len(t, found, 1)
	assert.Equal(t, &blueprint{Name: "users"}, found[0])
}

func TestDiscoverServiceInitializer(t *testing.T) {
	t.Parallel()

	reg := sampleRegistry(t)

	var (
		names   []string
		objects []any
	)

	rule := &discovery.ObjectRule{
		Name:          "services",
		ModuleMatches: matcher.MatchByPattern("sample.services"),
		ObjectMatches: matcher.MatchByCallableAttribute("InitApp"),
		NamedAction: func(_ context.Context, path string, member module.Member) error {
			assert.Equal(t, "sample.services", path)

			names = append(names, member.Name)
			objects = append(objects, member.Value)

			return nil
		},
	}

	require.NoError(t, discovery.Discover(context.Background(), nil, reg, "sample", []discovery.Rule{rule}))

	// members come in name order, the class member is skipped
	assert.Equal(t, []string{"bar", "foo"}, names)

	for _, obj := range objects {
		_, isModule := obj.(*module.Module)
		assert.False(t, isModule)
		assert.IsType(t, &service{}, obj)
	}
}

func TestDiscoverObjectRuleImportsModuleWithoutMatches(t *testing.T) {
	t.Parallel()

	reg := sampleRegistry(t)
	calls := 0

	rule := &discovery.ObjectRule{
		Name:          "models",
		ModuleMatches: matcher.MatchByPattern("*.models"),
		ObjectMatches: matcher.MatchBySubclass(reflect.TypeFor[blueprint]()),
		ObjectAction: func(context.Context, any) error {
			calls++
			return nil
		},
	}

	require.NoError(t, discovery.Discover(context.Background(), nil, reg, "sample", []discovery.Rule{rule}))

	assert.Zero(t, calls)
	assert.Contains(t, reg.Imported(), "sample.users.models")
}

func TestDiscoverIsRepeatable(t *testing.T) {
	t.Parallel()

	reg := sampleRegistry(t)

	var trace []string

	rules := []discovery.Rule{
		&discovery.ModuleRule{
			Name:          "all",
			ModuleMatches: matcher.MatchByPattern("*"),
			ModuleAction: func(_ context.Context, path string) error {
				trace = append(trace, "module:"+path)
				return nil
			},
		},
		&discovery.ObjectRule{
			Name:          "strings",
			ModuleMatches: matcher.MatchByPattern("sample.*"),
			ObjectMatches: matcher.MatchByType(reflect.TypeFor[string]()),
			NamedAction: func(_ context.Context, _ string, member module.Member) error {
				trace = append(trace, "object:"+member.Name)
				return nil
			},
		},
	}

	require.NoError(t, discovery.Discover(context.Background(), nil, reg, "sample", rules))

	first := slices.Clone(trace)
	trace = nil

	require.NoError(t, discovery.Discover(context.Background(), nil, reg, "sample", rules))

	assert.Equal(t, first, trace)
	assert.Equal(t, []string{
		"module:sample.services",
		"object:version",
		"module:sample.users.cli",
		"module:sample.users.controllers",
		"object:url_prefix",
		"module:sample.users.models",
	}, first)
}

func TestDiscoverOverEachLoader(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		loader       func(t *testing.T) module.Loader
		blueprints   matcher.Predicate[any]
		services     matcher.Predicate[any]
		wantServices []string
	}{
		{
			name:         "registry",
			loader:       func(t *testing.T) module.Loader { return sampleRegistry(t) },
			blueprints:   matcher.MatchByType(reflect.TypeFor[blueprint]()),
			services:     matcher.MatchByCallableAttribute("InitApp"),
			wantServices: []string{"bar", "foo"},
		},
		{
			name:         "hcl files",
			loader:       func(t *testing.T) module.Loader { return sampleTree(t) },
			blueprints:   isBlock("blueprint"),
			services:     matcher.All(isBlock("service"), matcher.MatchByAttribute("init")),
			wantServices: []string{"service.bar", "service.foo"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ctx := context.Background()
			loader := tt.loader(t)

			var (
				modules    []string
				blueprints []string
				services   []string
			)

			rules := []discovery.Rule{
				&discovery.ModuleRule{
					Name:          "controllers",
					ModuleMatches: matcher.MatchByPattern("*.controllers"),
					ModuleAction: func(_ context.Context, path string) error {
						modules = append(modules, path)
						return nil
					},
				},
				&discovery.ObjectRule{
					Name:          "blueprints",
					ModuleMatches: matcher.MatchByPattern("*.controllers"),
					ObjectMatches: tt.blueprints,
					NamedAction: func(_ context.Context, path string, _ module.Member) error {
						blueprints = append(blueprints, path)
						return nil
					},
				},
				&discovery.ObjectRule{
					Name:          "services",
					ModuleMatches: matcher.MatchByPattern("sample.services"),
					ObjectMatches: tt.services,
					NamedAction: func(_ context.Context, _ string, member module.Member) error {
						services = append(services, member.Name)
						return nil
					},
				},
			}

			require.NoError(t, discovery.Discover(ctx, nil, loader, "sample", rules))

			assert.Equal(t, []string{"sample.users.controllers"}, modules)
			assert.Equal(t, []string{"sample.users.controllers"}, blueprints)
			assert.Equal(t, tt.wantServices, services)

			first := [][]string{modules, blueprints, services}
			modules, blueprints, services = nil, nil, nil

			require.NoError(t, discovery.Discover(ctx, nil, loader, "sample", rules))
			assert.Equal(t, first, [][]string{modules, blueprints, services})

			assert.Equal(t,
				[]string{"sample.services", "sample.users.cli", "sample.users.controllers", "sample.users.models"},
				collect(t, loader, "sample", discovery.WithRecursive()))

			calls := 0
			all := &discovery.ModuleRule{
				Name:          "all",
				ModuleMatches: matcher.MatchByPattern("*"),
				ModuleAction: func(context.Context, string) error {
					calls++
					return nil
				},
			}

			err := discovery.Discover(ctx, nil, loader, "missing", []discovery.Rule{all})
			require.ErrorIs(t, err, module.ErrModuleNotFound)

			var notPkg *module.NotAPackageError

			err = discovery.Discover(ctx, nil, loader, "sample.services", []discovery.Rule{all})
			require.ErrorAs(t, err, &notPkg)
			assert.Zero(t, calls)
		})
	}
}

func TestDiscoverFailsBeforeRulesOnBadTopLevel(t *testing.T) {
	t.Parallel()

	calls := 0
	rule := &discovery.ModuleRule{
		Name:          "all",
		ModuleMatches: matcher.MatchByPattern("*"),
		ModuleAction: func(context.Context, string) error {
			calls++
			return nil
		},
	}

	err := discovery.Discover(context.Background(), nil, sampleRegistry(t), "missing", []discovery.Rule{rule})
	require.ErrorIs(t, err, module.ErrModuleNotFound)

	err = discovery.Discover(context.Background(), nil, sampleRegistry(t), "sample.services", []discovery.Rule{rule})

	var notPkg *module.NotAPackageError
	require.ErrorAs(t, err, &notPkg)
	assert.Zero(t, calls)
}

func TestDiscoverFailsFast(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")

	var applied []string

	rules := []discovery.Rule{
		&discovery.ModuleRule{
			Name:          "record",
			ModuleMatches: matcher.MatchByPattern("*"),
			ModuleAction: func(_ context.Context, path string) error {
				applied = append(applied, path)
				return nil
			},
		},
		&discovery.ObjectRule{
			Name:          "explode",
			ModuleMatches: matcher.MatchByPattern("*.cli"),
			ObjectMatches: matcher.MatchByType(reflect.TypeFor[command]()),
			ObjectAction: func(context.Context, any) error {
				return boom
			},
		},
	}

	err := discovery.Discover(context.Background(), nil, sampleRegistry(t), "sample", rules)

	// the action error comes back as is
	require.Equal(t, boom, err)
	assert.Equal(t, []string{"sample.services", "sample.users.cli"}, applied)
}

func TestDiscoverPropagatesImportError(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")

	reg := sampleRegistry(t)
	reg.Register("sample.users.views", func(context.Context, *module.Builder) error {
		return boom
	})

	rule := &discovery.ObjectRule{
		Name:          "everything",
		ModuleMatches: matcher.MatchByPattern("*"),
		ObjectMatches: matcher.MatchByAttribute("Name"),
	}

	err := discovery.Discover(context.Background(), nil, reg, "sample", []discovery.Rule{rule})
	require.ErrorIs(t, err, boom)

	var importErr *module.ImportError
	require.ErrorAs(t, err, &importErr)
	assert.Equal(t, "sample.users.views", importErr.Path)
}

func TestDiscoverStopsOnCanceledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())

	var seen []string

	rule := &discovery.ModuleRule{
		Name:          "cancel",
		ModuleMatches: matcher.MatchByPattern("*"),
		ModuleAction: func(_ context.Context, path string) error {
			seen = append(seen, path)
			cancel()

			return nil
		},
	}

	err := discovery.Discover(ctx, nil, sampleRegistry(t), "sample", []discovery.Rule{rule})
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, []string{"sample.services"}, seen)
}

func TestDiscovererLogsMatches(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	l := log.New(log.WithOutput(&buf), log.WithLevel(log.DebugLevel))
	reg := sampleRegistry(t)

	d := discovery.NewDiscoverer(reg).
		WithLogger(l).
		WithRules(&discovery.ModuleRule{
			Name:          "models",
			ModuleMatches: matcher.MatchByPattern("*.models"),
			ModuleAction:  discovery.ImportModule(reg),
		}).
		WithRules(&discovery.ObjectRule{
			Name:          "controllers",
			ModuleMatches: matcher.MatchByPattern("*.controllers"),
			ObjectMatches: matcher.MatchByType(reflect.TypeFor[blueprint]()),
		})

	require.Len(t, d.Rules(), 2)
	assert.Equal(t, "models", d.Rules()[0].RuleName())

	require.NoError(t, d.Discover(context.Background(), "sample"))

	assert.Contains(t, buf.String(), "models found module sample.users.models")
	assert.Contains(t, buf.String(), "controllers found blueprint in sample.users.controllers")
	assert.Contains(t, reg.Imported(), "sample.users.models")
}

func TestCheck(t *testing.T) {
	t.Parallel()

	t.Run("clean tree", func(t *testing.T) {
		t.Parallel()

		reg := sampleRegistry(t)

		require.NoError(t, discovery.Check(context.Background(), reg, "sample"))
		assert.Contains(t, reg.Imported(), "sample.users.cli")
	})

	t.Run("reports every failure", func(t *testing.T) {
		t.Parallel()

		reg := sampleRegistry(t)
		reg.Register("sample.users.broken", func(context.Context, *module.Builder) error {
			return errors.New("broken module")
		})
		reg.RegisterPackage("sample.legacy", func(context.Context, *module.Builder) error {
			return errors.New("broken package")
		})
		reg.Register("sample.legacy.inner", nil)

		err := discovery.Check(context.Background(), reg, "sample")
		require.Error(t, err)

		var multiErr *tgerrors.MultiError
		require.ErrorAs(t, err, &multiErr)
		assert.Equal(t, 2, multiErr.Len())
		assert.Contains(t, err.Error(), "broken module")
		assert.Contains(t, err.Error(), "broken package")
		assert.NotContains(t, reg.Imported(), "sample.legacy.inner")
		assert.Contains(t, reg.Imported(), "sample.users.models")
	})

	t.Run("plain module", func(t *testing.T) {
		t.Parallel()

		err := discovery.Check(context.Background(), sampleRegistry(t), "sample.services")

		var notPkg *module.NotAPackageError
		require.ErrorAs(t, err, &notPkg)
	})
}
