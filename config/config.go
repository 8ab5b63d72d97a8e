// Package config reads declarative discovery rules from a rules file.
//
// A rules file lists named rules. A rule without an objects block reports the modules
// whose path matches; a rule with one reports the matching members of those modules:
//
//	rule "controllers" {
//	  modules = ["*.controllers", "*.controllers.*"]
//
//	  objects {
//	    block     = ["blueprint"]
//	    attribute = "url_prefix"
//	  }
//	}
//
// HCL (.hcl), HCL JSON (.json) and YAML (.yaml, .yml) files are accepted.
package config

import (
	"os"
	"path/filepath"
	"strings"

	"dario.cat/mergo"
	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"gopkg.in/yaml.v3"

	"github.com/deescovery/deescovery/internal/errors"
)

// DefaultFilename is the rules file looked up in the working directory.
const DefaultFilename = "deescovery.hcl"

// Config is a parsed rules file.
type Config struct {
	RuleConfigs []*RuleConfig `hcl:"rule,block" yaml:"rules"`
}

// RuleConfig is a single rule of a rules file.
type RuleConfig struct {
	Objects *ObjectsConfig `hcl:"objects,block" yaml:"objects"`
	Name    string         `hcl:"name,label" yaml:"name"`
	Modules []string       `hcl:"modules" yaml:"modules"`
}

// ObjectsConfig lists the conditions a module member must meet. All given conditions
// must hold; with none, every member matches.
type ObjectsConfig struct {
	// Attribute requires the member to expose this attribute.
	Attribute string `hcl:"attribute,optional" yaml:"attribute"`
	// Callable requires the member to expose this callable attribute.
	Callable string `hcl:"callable,optional" yaml:"callable"`
	// Blocks requires the member to be a block of one of these types.
	Blocks []string `hcl:"block,optional" yaml:"block"`
}

// LoadFile reads and parses the rules file at path.
func LoadFile(path string) (*Config, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WithStackTraceAndPrefix(err, "reading rules file")
	}

	return Parse(path, content)
}

// LoadFiles loads several rules files into one configuration. Rules keep the order of
// the files, and rule names must be unique across all of them.
func LoadFiles(paths ...string) (*Config, error) {
	merged := &Config{}

	for _, path := range paths {
		cfg, err := LoadFile(path)
		if err != nil {
			return nil, err
		}

		if err := mergo.Merge(merged, cfg, mergo.WithAppendSlice); err != nil {
			return nil, errors.New(err)
		}
	}

	if err := merged.Validate(); err != nil {
		return nil, err
	}

	return merged, nil
}

// Parse parses and validates a rules file. The syntax is chosen by the extension of
// filename.
func Parse(filename string, src []byte) (cfg *Config, err error) {
	// hcl decoding panics on some malformed input
	defer func() {
		if recovered := recover(); recovered != nil {
			err = errors.New(PanicWhileParsingConfigError{RecoveredValue: recovered, ConfigFile: filename})
		}
	}()

	cfg = &Config{}

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(src, cfg); err != nil {
			return nil, errors.Errorf("%s: %w", filename, err)
		}
	case ".json":
		file, diags := hclparse.NewParser().ParseJSON(src, filename)
		if err := decodeHCL(file, diags, cfg); err != nil {
			return nil, err
		}
	default:
		file, diags := hclparse.NewParser().ParseHCL(src, filename)
		if err := decodeHCL(file, diags, cfg); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func decodeHCL(file *hcl.File, diags hcl.Diagnostics, cfg *Config) error {
	if diags.HasErrors() {
		return errors.New(diags)
	}

	if diags := gohcl.DecodeBody(file.Body, nil, cfg); diags.HasErrors() {
		return errors.New(diags)
	}

	return nil
}
