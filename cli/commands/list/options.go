package list

import (
	"slices"

	"github.com/deescovery/deescovery/internal/errors"
	"github.com/deescovery/deescovery/options"
)

const (
	// FormatText outputs module paths in columns.
	FormatText = "text"

	// FormatTree outputs module paths as a tree of path segments.
	FormatTree = "tree"

	// FormatJSON outputs module paths as a JSON array.
	FormatJSON = "json"
)

var formats = []string{FormatText, FormatTree, FormatJSON}

type Options struct {
	*options.Options

	// ImportPath is the package to list.
	ImportPath string

	// Format determines the format of the output.
	Format string

	// Packages lists packages only.
	Packages bool

	// NoRecursive lists direct children only.
	NoRecursive bool
}

func NewOptions(opts *options.Options) *Options {
	return &Options{
		Options: opts,
		Format:  FormatText,
	}
}

func (o *Options) Validate() error {
	if o.ImportPath == "" {
		return errors.New("import path is required")
	}

	if !slices.Contains(formats, o.Format) {
		return errors.Errorf("invalid format %q, valid formats: %v", o.Format, formats)
	}

	return nil
}
