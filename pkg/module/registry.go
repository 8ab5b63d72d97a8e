package module

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/puzpuzpuz/xsync/v3"

	"github.com/deescovery/deescovery/internal/errors"
)

// registryLocationPrefix marks the Location of packages served by a Registry.
const registryLocationPrefix = "registry:"

// DefaultRegistry is the process-wide registry used by the package-level Register functions.
var DefaultRegistry = NewRegistry()

// InitFunc builds the members of a module. It runs once, on the first successful import.
type InitFunc func(ctx context.Context, m *Builder) error

// Builder collects the members of a module while its InitFunc runs.
type Builder struct {
	path    string
	members []Member
}

// Path returns the path of the module being built.
func (b *Builder) Path() string {
	return b.path
}

// Set adds a member to the module.
func (b *Builder) Set(name string, value any) *Builder {
	b.members = append(b.members, Member{Name: name, Value: value})
	return b
}

type registration struct {
	init      InitFunc
	isPackage bool
}

// Registry is a Loader for modules registered from Go code, usually from init functions:
//
//	func init() {
//		module.Register("app.users.controllers", func(ctx context.Context, m *module.Builder) error {
//			m.Set("blueprint", usersController)
//			return nil
//		})
//	}
//
// Every dotted prefix of a registered path is a package. A path with registered
// children is a package too, even when it was registered with Register.
type Registry struct {
	registrations map[string]*registration
	cache         *xsync.MapOf[string, *Module]
	locks         *xsync.MapOf[string, *sync.Mutex]
	imported      []string
	mu            sync.RWMutex
	importedMu    sync.Mutex
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		registrations: make(map[string]*registration),
		cache:         xsync.NewMapOf[string, *Module](),
		locks:         xsync.NewMapOf[string, *sync.Mutex](),
	}
}

// Register registers a plain module. It panics if the path is invalid or already registered.
func Register(path string, init InitFunc) {
	DefaultRegistry.Register(path, init)
}

// RegisterPackage registers a package with its own members.
// It panics if the path is invalid or already registered.
func RegisterPackage(path string, init InitFunc) {
	DefaultRegistry.RegisterPackage(path, init)
}

// Register registers a plain module. It panics if the path is invalid or already registered.
func (r *Registry) Register(path string, init InitFunc) {
	r.register(path, &registration{init: init})
}

// RegisterPackage registers a package with its own members.
// It panics if the path is invalid or already registered.
func (r *Registry) RegisterPackage(path string, init InitFunc) {
	r.register(path, &registration{init: init, isPackage: true})
}

func (r *Registry) register(path string, reg *registration) {
	if err := ValidatePath(path); err != nil {
		panic(err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.registrations[path]; exists {
		panic(fmt.Sprintf("module %q registered twice", path))
	}

	r.registrations[path] = reg
}

// Import implements Loader. Parent packages are imported first, the way a dotted
// import imports every package on its way.
//
// An InitFunc may import other modules with the context it receives. A package
// importing its own children sees itself as already importing and is not waited
// on; importing a module that is still being imported further up the same chain
// fails with ErrCircularImport.
func (r *Registry) Import(ctx context.Context, path string) (*Module, error) {
	if mod, ok := r.cache.Load(path); ok {
		return mod, nil
	}

	reg, isPackage, exists := r.lookup(path)
	if !exists {
		return nil, &ImportError{Path: path, Err: ErrModuleNotFound}
	}

	chain := importChainFrom(ctx, r)
	if chain.contains(path) {
		return nil, &ImportError{Path: path, Err: ErrCircularImport}
	}

	if parent := Parent(path); parent != "" && !chain.contains(parent) {
		if _, err := r.Import(ctx, parent); err != nil {
			return nil, err
		}
	}

	lock, _ := r.locks.LoadOrCompute(path, func() *sync.Mutex {
		return new(sync.Mutex)
	})

	lock.Lock()
	defer lock.Unlock()

	if mod, ok := r.cache.Load(path); ok {
		return mod, nil
	}

	builder := &Builder{path: path}

	if reg != nil && reg.init != nil {
		initCtx := context.WithValue(ctx, importChainKey{registry: r}, &importChain{path: path, next: chain})

		if err := runInit(initCtx, reg.init, builder); err != nil {
			return nil, NewImportError(path, err)
		}
	}

	var location string
	if isPackage {
		location = registryLocationPrefix + path
	}

	mod := New(path, location, builder.members...)
	r.cache.Store(path, mod)

	r.importedMu.Lock()
	r.imported = append(r.imported, path)
	r.importedMu.Unlock()

	return mod, nil
}

// Children implements Loader. Children are listed in lexicographic order.
func (r *Registry) Children(_ context.Context, pkg *Module) ([]Child, error) {
	if pkg == nil || !pkg.IsPackage() || !strings.HasPrefix(pkg.Location, registryLocationPrefix) {
		var path string
		if pkg != nil {
			path = pkg.Path
		}

		return nil, &NotAPackageError{Path: path}
	}

	prefix := strings.TrimPrefix(pkg.Location, registryLocationPrefix) + Separator

	r.mu.RLock()
	defer r.mu.RUnlock()

	children := make(map[string]bool)

	for path, reg := range r.registrations {
		rest, ok := strings.CutPrefix(path, prefix)
		if !ok {
			continue
		}

		name, nested, _ := strings.Cut(rest, Separator)
		children[name] = children[name] || nested != "" || reg.isPackage
	}

	result := make([]Child, 0, len(children))
	for name, isPackage := range children {
		result = append(result, Child{Name: name, IsPackage: isPackage})
	}

	slices.SortFunc(result, func(a, b Child) int {
		return strings.Compare(a.Name, b.Name)
	})

	return result, nil
}

// Imported returns the paths imported so far, in first-import order.
func (r *Registry) Imported() []string {
	r.importedMu.Lock()
	defer r.importedMu.Unlock()

	return slices.Clone(r.imported)
}

// Paths returns the registered paths sorted lexicographically.
func (r *Registry) Paths() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	paths := make([]string, 0, len(r.registrations))
	for path := range r.registrations {
		paths = append(paths, path)
	}

	slices.Sort(paths)

	return paths
}

// lookup resolves path to its registration (nil for implicit packages) and whether
// it is a package.
func (r *Registry) lookup(path string) (*registration, bool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	reg, registered := r.registrations[path]
	isPackage := registered && reg.isPackage

	if !isPackage {
		prefix := path + Separator

		for other := range r.registrations {
			if strings.HasPrefix(other, prefix) {
				isPackage = true
				break
			}
		}
	}

	return reg, isPackage, registered || isPackage
}

type importChainKey struct {
	registry *Registry
}

// importChain lists the paths whose InitFunc is running, innermost first.
type importChain struct {
	next *importChain
	path string
}

func importChainFrom(ctx context.Context, r *Registry) *importChain {
	chain, _ := ctx.Value(importChainKey{registry: r}).(*importChain)
	return chain
}

func (chain *importChain) contains(path string) bool {
	for ; chain != nil; chain = chain.next {
		if chain.path == path {
			return true
		}
	}

	return false
}

func runInit(ctx context.Context, init InitFunc, builder *Builder) (err error) {
	defer errors.Recover(func(cause error) {
		err = cause
	})

	return init(ctx, builder)
}

// ValidatePath checks that path is a non-empty dotted path without empty segments.
func ValidatePath(path string) error {
	if path == "" {
		return errors.New("module path is empty")
	}

	for _, segment := range strings.Split(path, Separator) {
		if segment == "" {
			return errors.Errorf("module path %q has an empty segment", path)
		}
	}

	return nil
}
