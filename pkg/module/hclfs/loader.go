// Package hclfs loads modules from a directory tree of HCL files.
//
// A directory holding a [PackageFile] is a package, any other "<name>.hcl" file is a
// plain module. Search roots play the part of an import path: the top-level segment of
// a module path is looked up in each root in order.
//
// Importing a module parses its file once. Top-level attributes become members holding
// plain Go values, top-level blocks become [*Block] members. Two of them sharing a
// member name fail the import.
package hclfs

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/mattn/go-zglob"
	"github.com/puzpuzpuz/xsync/v3"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"
	"github.com/zclconf/go-cty/cty/function/stdlib"

	"github.com/deescovery/deescovery/internal/errors"
	"github.com/deescovery/deescovery/pkg/module"
)

const (
	// PackageFile marks a directory as a package and holds the package members.
	PackageFile = "_package.hcl"

	// FileExt is the extension of module files.
	FileExt = ".hcl"
)

// Loader imports modules from HCL files on disk.
type Loader struct {
	cache     *xsync.MapOf[string, *module.Module]
	functions map[string]function.Function
	roots     []string
	ignore    []string
}

// New creates a loader searching the given roots in order.
func New(roots ...string) *Loader {
	return &Loader{
		roots: roots,
		cache: xsync.NewMapOf[string, *module.Module](),
		functions: map[string]function.Function{
			"concat": stdlib.ConcatFunc,
			"format": stdlib.FormatFunc,
			"join":   stdlib.JoinFunc,
			"length": stdlib.LengthFunc,
			"lower":  stdlib.LowerFunc,
			"upper":  stdlib.UpperFunc,
		},
	}
}

// WithIgnore skips children whose file or directory name matches any of the zglob patterns.
func (loader *Loader) WithIgnore(patterns ...string) *Loader {
	loader.ignore = append(loader.ignore, patterns...)
	return loader
}

// WithFunctions adds functions available to expressions in module files.
func (loader *Loader) WithFunctions(funcs map[string]function.Function) *Loader {
	for name, fn := range funcs {
		loader.functions[name] = fn
	}

	return loader
}

// Import implements module.Loader.
func (loader *Loader) Import(ctx context.Context, path string) (*module.Module, error) {
	if mod, ok := loader.cache.Load(path); ok {
		return mod, nil
	}

	if err := module.ValidatePath(path); err != nil {
		return nil, module.NewImportError(path, err)
	}

	searchDirs := loader.roots

	if parentPath := module.Parent(path); parentPath != "" {
		parent, err := loader.Import(ctx, parentPath)
		if err != nil {
			return nil, err
		}

		if !parent.IsPackage() {
			return nil, module.NewImportError(path, &module.NotAPackageError{Path: parentPath})
		}

		searchDirs = []string{parent.Location}
	}

	name := module.LastSegment(path)

	for _, dir := range searchDirs {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		pkgDir := filepath.Join(dir, name)
		if isPackageDir(pkgDir) {
			return loader.load(path, filepath.Join(pkgDir, PackageFile), pkgDir)
		}

		if filename := pkgDir + FileExt; isFile(filename) {
			return loader.load(path, filename, "")
		}
	}

	return nil, &module.ImportError{Path: path, Err: module.ErrModuleNotFound}
}

// Children implements module.Loader. Entries come in directory order, which is
// lexicographic by file name.
func (loader *Loader) Children(_ context.Context, pkg *module.Module) ([]module.Child, error) {
	if pkg == nil || !pkg.IsPackage() {
		var path string
		if pkg != nil {
			path = pkg.Path
		}

		return nil, &module.NotAPackageError{Path: path}
	}

	entries, err := os.ReadDir(pkg.Location)
	if err != nil {
		return nil, module.NewImportError(pkg.Path, errors.New(err))
	}

	var (
		children []module.Child
		index    = make(map[string]int)
	)

	for _, entry := range entries {
		entryName := entry.Name()
		if entryName == PackageFile || strings.HasPrefix(entryName, ".") {
			continue
		}

		ignored, err := loader.isIgnored(entryName)
		if err != nil {
			return nil, err
		}

		if ignored {
			continue
		}

		var child module.Child

		switch {
		case entry.IsDir() && isPackageDir(filepath.Join(pkg.Location, entryName)):
			child = module.Child{Name: entryName, IsPackage: true}
		case !entry.IsDir() && filepath.Ext(entryName) == FileExt:
			child = module.Child{Name: strings.TrimSuffix(entryName, FileExt)}
		default:
			continue
		}

		if strings.Contains(child.Name, module.Separator) {
			continue
		}

		// a package shadows a module file of the same name
		if i, seen := index[child.Name]; seen {
			children[i].IsPackage = children[i].IsPackage || child.IsPackage
			continue
		}

		index[child.Name] = len(children)
		children = append(children, child)
	}

	return children, nil
}

func (loader *Loader) isIgnored(name string) (bool, error) {
	for _, pattern := range loader.ignore {
		matched, err := zglob.Match(pattern, name)
		if err != nil {
			return false, errors.Errorf("invalid ignore pattern %q: %w", pattern, err)
		}

		if matched {
			return true, nil
		}
	}

	return false, nil
}

func (loader *Loader) load(path, filename, location string) (*module.Module, error) {
	members, err := loader.parse(path, filename)
	if err != nil {
		return nil, module.NewImportError(path, err)
	}

	mod, _ := loader.cache.LoadOrStore(path, module.New(path, location, members...))

	return mod, nil
}

func (loader *Loader) parse(path, filename string) (members []module.Member, err error) {
	// hcl and cty conversions panic on some malformed input
	defer func() {
		if recovered := recover(); recovered != nil {
			err = errors.New(PanicWhileParsingError{RecoveredValue: recovered, Filename: filename})
		}
	}()

	content, err := os.ReadFile(filename)
	if err != nil {
		return nil, errors.New(err)
	}

	file, diags := hclparse.NewParser().ParseHCL(content, filename)
	if diags.HasErrors() {
		return nil, errors.New(diags)
	}

	body, ok := file.Body.(*hclsyntax.Body)
	if !ok {
		return nil, errors.Errorf("%s: unexpected body type %T", filename, file.Body)
	}

	var (
		evalCtx = loader.evalContext(path)
		defined = make(map[string]hcl.Range, len(body.Attributes)+len(body.Blocks))
	)

	for name, attr := range body.Attributes {
		value, err := evaluate(evalCtx, attr)
		if err != nil {
			return nil, err
		}

		defined[name] = attr.SrcRange
		members = append(members, module.Member{Name: name, Value: value})
	}

	for _, block := range body.Blocks {
		decoded, err := decodeBlock(evalCtx, block)
		if err != nil {
			return nil, err
		}

		name := decoded.Name()
		if previous, exists := defined[name]; exists {
			return nil, errors.New(DuplicateMemberError{Name: name, Subject: block.DefRange(), Previous: previous})
		}

		defined[name] = block.DefRange()
		members = append(members, module.Member{Name: name, Value: decoded})
	}

	return members, nil
}

func (loader *Loader) evalContext(path string) *hcl.EvalContext {
	return &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"module": cty.ObjectVal(map[string]cty.Value{
				"path": cty.StringVal(path),
				"name": cty.StringVal(module.LastSegment(path)),
			}),
		},
		Functions: loader.functions,
	}
}

func decodeBlock(evalCtx *hcl.EvalContext, block *hclsyntax.Block) (*Block, error) {
	decoded := &Block{
		Type:   block.Type,
		Labels: block.Labels,
		Attrs:  make(map[string]any, len(block.Body.Attributes)),
	}

	for name, attr := range block.Body.Attributes {
		value, err := evaluate(evalCtx, attr)
		if err != nil {
			return nil, err
		}

		decoded.Attrs[name] = value
	}

	for _, nested := range block.Body.Blocks {
		nestedBlock, err := decodeBlock(evalCtx, nested)
		if err != nil {
			return nil, err
		}

		decoded.Blocks = append(decoded.Blocks, nestedBlock)
	}

	return decoded, nil
}

func evaluate(evalCtx *hcl.EvalContext, attr *hclsyntax.Attribute) (any, error) {
	value, diags := attr.Expr.Value(evalCtx)
	if diags.HasErrors() {
		return nil, errors.New(diags)
	}

	goValue, err := toGo(value)
	if err != nil {
		return nil, errors.Errorf("%s: attribute %q: %w", attr.SrcRange, attr.Name, err)
	}

	return goValue, nil
}

func isPackageDir(dir string) bool {
	return isFile(filepath.Join(dir, PackageFile))
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// DuplicateMemberError is returned when two top-level attributes or blocks of a module
// file resolve to the same member name. Labels tell blocks of the same type apart.
type DuplicateMemberError struct {
	Name     string
	Subject  hcl.Range
	Previous hcl.Range
}

func (err DuplicateMemberError) Error() string {
	return fmt.Sprintf("%s: duplicate member %q, previously defined at %s", err.Subject, err.Name, err.Previous)
}

// PanicWhileParsingError is returned when parsing a module file panics.
type PanicWhileParsingError struct {
	RecoveredValue any
	Filename       string
}

func (err PanicWhileParsingError) Error() string {
	return fmt.Sprintf("recovering panic while parsing '%s'. Got error of type '%T': %v", err.Filename, err.RecoveredValue, err.RecoveredValue)
}
