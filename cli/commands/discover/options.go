package discover

import (
	"slices"

	"github.com/deescovery/deescovery/config"
	"github.com/deescovery/deescovery/internal/errors"
	"github.com/deescovery/deescovery/options"
)

const (
	FormatText = "text"
	FormatJSON = "json"
)

var formats = []string{FormatText, FormatJSON}

type Options struct {
	*options.Options

	// ImportPath is the package discovery starts from.
	ImportPath string

	// ConfigPaths are the rules files, relative to the working directory.
	ConfigPaths []string

	// Format determines the format of the output.
	Format string
}

func NewOptions(opts *options.Options) *Options {
	return &Options{
		Options:     opts,
		ConfigPaths: []string{config.DefaultFilename},
		Format:      FormatText,
	}
}

func (o *Options) Validate() error {
	if o.ImportPath == "" {
		return errors.New("import path is required")
	}

	if len(o.ConfigPaths) == 0 {
		return errors.New("at least one rules file is required")
	}

	if !slices.Contains(formats, o.Format) {
		return errors.Errorf("invalid format %q, valid formats: %v", o.Format, formats)
	}

	return nil
}
