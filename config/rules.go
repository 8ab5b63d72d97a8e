package config

import (
	"context"
	"slices"

	"github.com/deescovery/deescovery/internal/errors"
	"github.com/deescovery/deescovery/pkg/discovery"
	"github.com/deescovery/deescovery/pkg/matcher"
	"github.com/deescovery/deescovery/pkg/module"
	"github.com/deescovery/deescovery/pkg/module/hclfs"
)

// Match is a single finding of a rule.
type Match struct {
	Rule   string `json:"rule"`
	Module string `json:"module"`
	// Member is empty for module rules.
	Member string `json:"member,omitempty"`
}

// EmitFunc receives every match of the rules built by Config.Rules.
type EmitFunc func(ctx context.Context, match Match) error

// Validate reports every invalid rule at once.
func (cfg *Config) Validate() error {
	var (
		errs *errors.MultiError
		seen = make(map[string]bool, len(cfg.RuleConfigs))
	)

	for _, rule := range cfg.RuleConfigs {
		if rule.Name == "" {
			errs = errs.Append(errors.New(InvalidRuleError{Reason: "name is empty"}))
		} else if seen[rule.Name] {
			errs = errs.Append(errors.New(DuplicateRuleError{Name: rule.Name}))
		}

		seen[rule.Name] = true

		if len(rule.Modules) == 0 {
			errs = errs.Append(errors.New(InvalidRuleError{Name: rule.Name, Reason: "no module patterns"}))
		}

		if _, err := matcher.CompilePatterns(rule.Modules...); err != nil {
			errs = errs.Append(errors.New(InvalidRuleError{Name: rule.Name, Reason: err.Error()}))
		}
	}

	return errs.ErrorOrNil()
}

// Rules builds the discovery rules of the file, in file order. Each match is passed to emit.
func (cfg *Config) Rules(emit EmitFunc) []discovery.Rule {
	rules := make([]discovery.Rule, 0, len(cfg.RuleConfigs))

	for _, rc := range cfg.RuleConfigs {
		name := rc.Name
		modules := matcher.MatchByPattern(rc.Modules...)

		if rc.Objects == nil {
			rules = append(rules, &discovery.ModuleRule{
				Name:          name,
				ModuleMatches: modules,
				ModuleAction: func(ctx context.Context, path string) error {
					return emit(ctx, Match{Rule: name, Module: path})
				},
			})

			continue
		}

		rules = append(rules, &discovery.ObjectRule{
			Name:          name,
			ModuleMatches: modules,
			ObjectMatches: rc.Objects.Predicate(),
			NamedAction: func(ctx context.Context, path string, member module.Member) error {
				return emit(ctx, Match{Rule: name, Module: path, Member: member.Name})
			},
		})
	}

	return rules
}

// Predicate returns the conjunction of the configured member conditions.
func (objects *ObjectsConfig) Predicate() matcher.Predicate[any] {
	var preds []matcher.Predicate[any]

	if len(objects.Blocks) > 0 {
		preds = append(preds, matchBlockType(objects.Blocks...))
	}

	if objects.Attribute != "" {
		preds = append(preds, matcher.MatchByAttribute(objects.Attribute))
	}

	if objects.Callable != "" {
		preds = append(preds, matcher.MatchByCallableAttribute(objects.Callable))
	}

	return matcher.All(preds...)
}

func matchBlockType(types ...string) matcher.Predicate[any] {
	return func(obj any) bool {
		block, ok := obj.(*hclfs.Block)
		return ok && slices.Contains(types, block.Type)
	}
}
