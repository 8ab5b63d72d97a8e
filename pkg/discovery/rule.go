package discovery

import (
	"context"

	"github.com/deescovery/deescovery/pkg/log"
	"github.com/deescovery/deescovery/pkg/matcher"
	"github.com/deescovery/deescovery/pkg/module"
)

// ModuleAction is called with the path of a matching module.
type ModuleAction func(ctx context.Context, path string) error

// ObjectAction is called with a matching module member.
type ObjectAction func(ctx context.Context, obj any) error

// NamedObjectAction is called with the path of the module and the matching member.
type NamedObjectAction func(ctx context.Context, path string, member module.Member) error

// Rule is either a *ModuleRule or an *ObjectRule.
type Rule interface {
	// RuleName returns the name used in log output.
	RuleName() string

	apply(ctx context.Context, l log.Logger, loader module.Loader, path string) error
}

// ModuleRule runs an action for every module whose path matches.
// The module is not imported unless the action imports it; see [ImportModule].
type ModuleRule struct {
	ModuleMatches matcher.Predicate[string]
	ModuleAction  ModuleAction
	Name          string
}

// RuleName implements Rule.
func (rule *ModuleRule) RuleName() string {
	return rule.Name
}

func (rule *ModuleRule) apply(ctx context.Context, l log.Logger, _ module.Loader, path string) error {
	if rule.ModuleMatches == nil || !rule.ModuleMatches(path) {
		return nil
	}

	l.WithFields(log.Fields{log.FieldKeyRule: rule.Name, log.FieldKeyModule: path}).
		Debugf("%s found module %s", rule.Name, path)

	if rule.ModuleAction == nil {
		return nil
	}

	return rule.ModuleAction(ctx, path)
}

// ObjectRule imports every module whose path matches and runs an action for each
// member accepted by ObjectMatches. Members come in name order.
//
// ObjectAction and NamedAction are both optional; when both are set ObjectAction runs
// first. A nil predicate matches nothing.
type ObjectRule struct {
	ModuleMatches matcher.Predicate[string]
	ObjectMatches matcher.Predicate[any]
	ObjectAction  ObjectAction
	NamedAction   NamedObjectAction
	Name          string
}

// RuleName implements Rule.
func (rule *ObjectRule) RuleName() string {
	return rule.Name
}

func (rule *ObjectRule) apply(ctx context.Context, l log.Logger, loader module.Loader, path string) error {
	if rule.ModuleMatches == nil || !rule.ModuleMatches(path) {
		return nil
	}

	mod, err := loader.Import(ctx, path)
	if err != nil {
		return err
	}

	if rule.ObjectMatches == nil {
		return nil
	}

	for _, member := range mod.Members() {
		if !rule.ObjectMatches(member.Value) {
			continue
		}

		l.WithFields(log.Fields{
			log.FieldKeyRule:   rule.Name,
			log.FieldKeyModule: path,
			log.FieldKeyMember: member.Name,
		}).Debugf("%s found %s in %s", rule.Name, member.Name, path)

		if rule.ObjectAction != nil {
			if err := rule.ObjectAction(ctx, member.Value); err != nil {
				return err
			}
		}

		if rule.NamedAction != nil {
			if err := rule.NamedAction(ctx, path, member); err != nil {
				return err
			}
		}
	}

	return nil
}
