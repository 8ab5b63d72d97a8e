package discover

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/deescovery/deescovery/config"
	"github.com/deescovery/deescovery/internal/errors"
	"github.com/deescovery/deescovery/pkg/discovery"
)

// Run loads the rules file and prints every match.
func Run(ctx context.Context, opts *Options) error {
	configPaths := make([]string, 0, len(opts.ConfigPaths))

	for _, path := range opts.ConfigPaths {
		configPath, err := opts.ResolvePath(path)
		if err != nil {
			return err
		}

		configPaths = append(configPaths, configPath)
	}

	cfg, err := config.LoadFiles(configPaths...)
	if err != nil {
		config.WriteDiagnostics(opts.ErrWriter, err, opts.DisableColor)
		return err
	}

	opts.Logger.Debugf("Loaded %d rules from %v", len(cfg.RuleConfigs), configPaths)

	var matches []config.Match

	emit := func(_ context.Context, match config.Match) error {
		if opts.Format == FormatJSON {
			matches = append(matches, match)
			return nil
		}

		return writeMatch(opts, match)
	}

	if err := discovery.Discover(ctx, opts.Logger, opts.Loader(), opts.ImportPath, cfg.Rules(emit)); err != nil {
		return err
	}

	if opts.Format == FormatJSON {
		return writeJSON(opts, matches)
	}

	return nil
}

func writeMatch(opts *Options, match config.Match) error {
	line := match.Rule + "\t" + match.Module
	if match.Member != "" {
		line += "\t" + match.Member
	}

	if _, err := fmt.Fprintln(opts.Writer, line); err != nil {
		return errors.New(err)
	}

	return nil
}

func writeJSON(opts *Options, matches []config.Match) error {
	if matches == nil {
		matches = []config.Match{}
	}

	jsonBytes, err := json.MarshalIndent(matches, "", "  ")
	if err != nil {
		return errors.New(err)
	}

	if _, err := opts.Writer.Write(append(jsonBytes, '\n')); err != nil {
		return errors.New(err)
	}

	return nil
}
