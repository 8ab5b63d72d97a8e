package list

import (
	"context"
	"encoding/json"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/tree"
	"github.com/charmbracelet/x/term"
	"github.com/mattn/go-isatty"
	"github.com/mgutz/ansi"

	"github.com/deescovery/deescovery/internal/errors"
	"github.com/deescovery/deescovery/pkg/discovery"
	"github.com/deescovery/deescovery/pkg/module"
)

// ListedModule is a module in the list output.
type ListedModule struct {
	Path      string `json:"path"`
	IsPackage bool   `json:"package"`
}

type ListedModules []*ListedModule

// Run runs the list command.
func Run(ctx context.Context, opts *Options) error {
	listed, err := findModules(ctx, opts)
	if err != nil {
		return err
	}

	switch opts.Format {
	case FormatJSON:
		return outputJSON(opts, listed)
	case FormatTree:
		return outputTree(opts, listed)
	default:
		return outputText(opts, listed)
	}
}

func findModules(ctx context.Context, opts *Options) (ListedModules, error) {
	loader := opts.Loader()

	enumOpts := []discovery.EnumerateOption{}
	if !opts.NoRecursive {
		enumOpts = append(enumOpts, discovery.WithRecursive())
	}

	if opts.Packages {
		enumOpts = append(enumOpts, discovery.WithPackages())
	}

	var listed ListedModules

	for path, err := range discovery.FindModules(ctx, loader, opts.ImportPath, enumOpts...) {
		if err != nil {
			return nil, err
		}

		item := &ListedModule{Path: path}

		// without --packages only plain modules are yielded, and those are never imported
		if opts.Packages {
			mod, err := loader.Import(ctx, path)
			if err != nil {
				return nil, err
			}

			item.IsPackage = mod.IsPackage()
		}

		listed = append(listed, item)
	}

	return listed, nil
}

func outputJSON(opts *Options, listed ListedModules) error {
	if listed == nil {
		listed = ListedModules{}
	}

	jsonBytes, err := json.MarshalIndent(listed, "", "  ")
	if err != nil {
		return errors.New(err)
	}

	if _, err := opts.Writer.Write(append(jsonBytes, '\n')); err != nil {
		return errors.New(err)
	}

	return nil
}

// Colorizer colors module paths.
type Colorizer struct {
	moduleColorizer  func(string) string
	packageColorizer func(string) string
	parentColorizer  func(string) string
}

// NewColorizer creates a new Colorizer.
func NewColorizer(shouldColor bool) *Colorizer {
	if !shouldColor {
		return &Colorizer{
			moduleColorizer:  func(s string) string { return s },
			packageColorizer: func(s string) string { return s },
			parentColorizer:  func(s string) string { return s },
		}
	}

	return &Colorizer{
		moduleColorizer:  ansi.ColorFunc("blue+bh"),
		packageColorizer: ansi.ColorFunc("green+bh"),
		parentColorizer:  ansi.ColorFunc("white+d"),
	}
}

// Colorize dims the parent part of the path and colors the last segment by kind.
func (c *Colorizer) Colorize(listed *ListedModule) string {
	colorize := c.moduleColorizer
	if listed.IsPackage {
		colorize = c.packageColorizer
	}

	parent := module.Parent(listed.Path)
	if parent == "" {
		return colorize(listed.Path)
	}

	return c.parentColorizer(parent+module.Separator) + colorize(module.LastSegment(listed.Path))
}

func outputText(opts *Options, listed ListedModules) error {
	return renderTabular(opts, listed, NewColorizer(shouldColor(opts)))
}

// shouldColor returns true if the output goes to a terminal and color is not disabled.
func shouldColor(opts *Options) bool {
	if opts.DisableColor {
		return false
	}

	file, ok := opts.Writer.(*os.File)

	return ok && isatty.IsTerminal(file.Fd())
}

func renderTabular(opts *Options, listed ListedModules, c *Colorizer) error {
	if len(listed) == 0 {
		return nil
	}

	maxCols, colWidth := getMaxCols(opts, listed)

	var sb strings.Builder

	for i, item := range listed {
		if i > 0 && i%maxCols == 0 {
			sb.WriteString("\n")
		}

		sb.WriteString(c.Colorize(item))

		if (i+1)%maxCols != 0 && i != len(listed)-1 {
			sb.WriteString(strings.Repeat(" ", colWidth-len(item.Path)))
		}
	}

	sb.WriteString("\n")

	if _, err := opts.Writer.Write([]byte(sb.String())); err != nil {
		return errors.New(err)
	}

	return nil
}

func outputTree(opts *Options, listed ListedModules) error {
	t := NewTreeStyler(shouldColor(opts)).Style(generateTree(opts.ImportPath, listed))

	if _, err := opts.Writer.Write([]byte(t.String() + "\n")); err != nil {
		return errors.New(err)
	}

	return nil
}

type TreeStyler struct {
	shouldColor bool
	entryStyle  lipgloss.Style
	rootStyle   lipgloss.Style
	itemStyle   lipgloss.Style
}

func NewTreeStyler(shouldColor bool) *TreeStyler {
	return &TreeStyler{
		shouldColor: shouldColor,
		entryStyle:  lipgloss.NewStyle().Foreground(lipgloss.Color("63")).MarginRight(1),
		rootStyle:   lipgloss.NewStyle().Foreground(lipgloss.Color("35")),
		itemStyle:   lipgloss.NewStyle().Foreground(lipgloss.Color("212")),
	}
}

func (s *TreeStyler) Style(t *tree.Tree) *tree.Tree {
	t = t.Enumerator(tree.RoundedEnumerator)

	if !s.shouldColor {
		return t
	}

	return t.
		EnumeratorStyle(s.entryStyle).
		RootStyle(s.rootStyle).
		ItemStyle(s.itemStyle)
}

// generateTree nests the listed paths by segment below the import path.
func generateTree(importPath string, listed ListedModules) *tree.Tree {
	root := tree.Root(importPath)
	nodes := make(map[string]*tree.Tree)

	for _, item := range listed {
		rest := strings.TrimPrefix(item.Path, importPath+module.Separator)
		if rest == item.Path {
			continue
		}

		currentPath := importPath
		currentNode := root

		for _, segment := range strings.Split(rest, module.Separator) {
			nextPath := module.Join(currentPath, segment)
			if _, exists := nodes[nextPath]; !exists {
				node := tree.New().Root(segment)
				nodes[nextPath] = node
				currentNode.Child(node)
			}

			currentNode = nodes[nextPath]
			currentPath = nextPath
		}
	}

	return root
}

// getMaxCols returns how many columns fit the terminal and the width of each column.
func getMaxCols(opts *Options, listed ListedModules) (int, int) {
	const padding = 2

	longest := 0

	for _, item := range listed {
		longest = max(longest, len(item.Path))
	}

	colWidth := longest + padding

	maxCols := getTerminalWidth(opts) / colWidth
	if maxCols == 0 {
		maxCols = 1
	}

	return maxCols, colWidth
}

// getTerminalWidth returns the width of the output terminal, 80 when it is not one.
func getTerminalWidth(opts *Options) int {
	width := 80

	file, ok := opts.Writer.(*os.File)
	if !ok {
		return width
	}

	if w, _, err := term.GetSize(file.Fd()); err == nil && w > 0 {
		width = w
	}

	return width
}
