// Package module models the host module system that discovery walks: modules
// addressed by dotted paths, packages that contain further modules, and the loaders
// that import them.
//
// Go has no runtime import by name, so every source of modules is a [Loader].
// [Registry] is populated by Go packages from their init functions; other loaders
// (see the hclfs subpackage) read modules from disk.
package module

import (
	"context"
	"slices"
	"strings"
)

// Separator separates the segments of a module path.
const Separator = "."

// Module is an imported module. Packages carry a non-empty Location used by their
// loader to list children.
type Module struct {
	// Path is the fully qualified dotted path.
	Path string
	// Location identifies where the package children live. Empty for plain modules.
	Location string
	// members sorted by name
	members []Member
}

// Member is a named object exposed by a module.
type Member struct {
	Name  string
	Value any
}

// Child is an immediate child of a package.
type Child struct {
	// Name is the last path segment.
	Name      string
	IsPackage bool
}

// Loader imports modules and lists the children of packages.
type Loader interface {
	// Import returns the module at path. Imports are cached: the module body runs
	// once and later calls return the same *Module.
	Import(ctx context.Context, path string) (*Module, error)

	// Children lists the immediate children of pkg in a deterministic order.
	Children(ctx context.Context, pkg *Module) ([]Child, error)
}

// New creates a module. Members are copied and sorted by name; a later member
// replaces an earlier one with the same name.
func New(path, location string, members ...Member) *Module {
	byName := make(map[string]int, len(members))
	sorted := make([]Member, 0, len(members))

	for _, member := range members {
		if i, ok := byName[member.Name]; ok {
			sorted[i] = member
			continue
		}

		byName[member.Name] = len(sorted)
		sorted = append(sorted, member)
	}

	slices.SortFunc(sorted, func(a, b Member) int {
		return strings.Compare(a.Name, b.Name)
	})

	return &Module{Path: path, Location: location, members: sorted}
}

// IsPackage reports whether the module is a package.
func (m *Module) IsPackage() bool {
	return m.Location != ""
}

// Name returns the last segment of the module path.
func (m *Module) Name() string {
	return LastSegment(m.Path)
}

// Members returns the module members sorted by name.
func (m *Module) Members() []Member {
	return slices.Clone(m.members)
}

// Member returns the member with the given name.
func (m *Module) Member(name string) (any, bool) {
	i, found := slices.BinarySearchFunc(m.members, name, func(member Member, name string) int {
		return strings.Compare(member.Name, name)
	})
	if !found {
		return nil, false
	}

	return m.members[i].Value, true
}

// Join joins path segments with the separator, skipping empty ones.
func Join(segments ...string) string {
	nonEmpty := make([]string, 0, len(segments))

	for _, segment := range segments {
		if segment != "" {
			nonEmpty = append(nonEmpty, segment)
		}
	}

	return strings.Join(nonEmpty, Separator)
}

// LastSegment returns the last segment of a dotted path.
func LastSegment(path string) string {
	if i := strings.LastIndex(path, Separator); i >= 0 {
		return path[i+1:]
	}

	return path
}

// Parent returns the parent path, or "" for a top-level path.
func Parent(path string) string {
	if i := strings.LastIndex(path, Separator); i >= 0 {
		return path[:i]
	}

	return ""
}
