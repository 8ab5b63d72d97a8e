package config

import (
	"fmt"
)

// PanicWhileParsingConfigError is returned when decoding a rules file panics.
type PanicWhileParsingConfigError struct {
	RecoveredValue any
	ConfigFile     string
}

func (err PanicWhileParsingConfigError) Error() string {
	return fmt.Sprintf("recovering panic while parsing '%s'. Got error of type '%T': %v", err.ConfigFile, err.RecoveredValue, err.RecoveredValue)
}

// DuplicateRuleError is returned when two rules share a name.
type DuplicateRuleError struct {
	Name string
}

func (err DuplicateRuleError) Error() string {
	return fmt.Sprintf("rule %q is defined more than once", err.Name)
}

// InvalidRuleError is returned for a rule that can never match.
type InvalidRuleError struct {
	Name   string
	Reason string
}

func (err InvalidRuleError) Error() string {
	return fmt.Sprintf("rule %q: %s", err.Name, err.Reason)
}
