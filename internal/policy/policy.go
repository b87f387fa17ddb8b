// Package policy implements the lockfile/generated classification table
// consulted by the cap engine before per-file capping. Matching uses
// case-sensitive basename equality for fixed names and
// github.com/bmatcuk/doublestar/v4 glob matching for patterns.
package policy

import (
	"path"

	"github.com/bmatcuk/doublestar/v4"
)

// Tag classifies a path under the policy table.
type Tag string

const (
	TagNone          Tag = ""
	TagLockfile      Tag = "lockfile"
	TagGeneratedGlob Tag = "generated"
)

// Rule is one entry of the policy table: either a fixed basename or a glob
// pattern matched against the basename.
type Rule struct {
	Pattern string
	IsGlob  bool
	Tag     Tag
}

// Table is a static, configurable mapping from path patterns to policy tags.
type Table struct {
	rules []Rule
}

// Default returns the shipped default policy table.
func Default() Table {
	return Table{rules: []Rule{
		{Pattern: "package-lock.json", Tag: TagLockfile},
		{Pattern: "yarn.lock", Tag: TagLockfile},
		{Pattern: "pnpm-lock.yaml", Tag: TagLockfile},
		{Pattern: "npm-shrinkwrap.json", Tag: TagLockfile},
		{Pattern: "poetry.lock", Tag: TagLockfile},
		{Pattern: "Pipfile.lock", Tag: TagLockfile},
		{Pattern: "gradle.lockfile", Tag: TagLockfile},
		{Pattern: "Gemfile.lock", Tag: TagLockfile},
		{Pattern: "composer.lock", Tag: TagLockfile},
		{Pattern: "Cargo.lock", Tag: TagLockfile},
		{Pattern: "go.sum", Tag: TagLockfile},
		{Pattern: "Package.resolved", Tag: TagLockfile},
		{Pattern: "mix.lock", Tag: TagLockfile},
		{Pattern: "packages.lock.json", Tag: TagLockfile},
		{Pattern: "*.min.js", IsGlob: true, Tag: TagGeneratedGlob},
		{Pattern: "*.map", IsGlob: true, Tag: TagGeneratedGlob},
	}}
}

// New builds a table from an explicit rule set, used when a caller supplies
// a configuration override instead of the shipped defaults.
func New(rules []Rule) Table {
	return Table{rules: rules}
}

// Rules returns the table's rule set, for configuration round-tripping.
func (t Table) Rules() []Rule {
	return t.rules
}

// Classify returns the policy tag for the given repository-relative path,
// or TagNone if no rule matches.
func (t Table) Classify(p string) (Tag, error) {
	base := path.Base(p)
	for _, rule := range t.rules {
		if rule.IsGlob {
			matched, err := doublestar.Match(rule.Pattern, base)
			if err != nil {
				return TagNone, err
			}
			if matched {
				return rule.Tag, nil
			}
			continue
		}
		if base == rule.Pattern {
			return rule.Tag, nil
		}
	}
	return TagNone, nil
}

// Matches reports whether p is classified as lockfile/generated by the
// table, without distinguishing which tag fired (the cap engine treats both
// tags identically: summarize-on-overflow).
func (t Table) Matches(p string) (bool, error) {
	tag, err := t.Classify(p)
	if err != nil {
		return false, err
	}
	return tag != TagNone, nil
}
