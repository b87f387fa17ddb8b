// Package config holds the immutable run configuration for the diff
// ingestion pipeline: byte caps, rename-detection threshold, context lines,
// and the policy table overrides, loaded from an optional JSON file merged
// over defaults (encoding/json).
package config

import (
	"encoding/json"
	"os"

	"github.com/presidioforts/PR-Diff-Ingestion/internal/apperr"
	"github.com/presidioforts/PR-Diff-Ingestion/internal/policy"
)

// Config is the root, immutable configuration for a single pipeline run.
type Config struct {
	RepoURL         string `json:"repoUrl"`
	CommitGood      string `json:"commitGood"`
	CommitCandidate string `json:"commitCandidate"`
	BranchName      string `json:"branchName,omitempty"`

	CapTotal             int `json:"capTotal"`
	CapFile              int `json:"capFile"`
	ContextLines         int `json:"contextLines"`
	FindRenamesThreshold int `json:"findRenamesThreshold"`

	KeepWorkdir bool `json:"keepWorkdir"`
	KeepOnError bool `json:"keepOnError"`

	// PolicyRules overrides the default lockfile/generated policy table
	// when non-empty.
	PolicyRules []PolicyRule `json:"policyRules,omitempty"`
}

// PolicyRule is the JSON-serializable form of a policy.Rule.
type PolicyRule struct {
	Pattern string `json:"pattern"`
	IsGlob  bool   `json:"isGlob"`
}

// Defaults holds the documented default values.
const (
	DefaultCapTotal             = 800000
	DefaultCapFile              = 64000
	DefaultContextLines         = 3
	DefaultFindRenamesThreshold = 90
)

// Default returns a Config populated with the documented defaults. RepoURL
// and the two commit identifiers are left blank -- callers must set them.
func Default() Config {
	return Config{
		CapTotal:             DefaultCapTotal,
		CapFile:              DefaultCapFile,
		ContextLines:         DefaultContextLines,
		FindRenamesThreshold: DefaultFindRenamesThreshold,
	}
}

// Validate checks the invariants: cap_total >= cap_file >= 0,
// thresholds in [0,100]. Violations produce a CAPS_INVALID error before any
// Git work is attempted.
func (c Config) Validate() *apperr.Error {
	details := map[string]any{}
	if c.CapFile < 0 {
		details["capFile"] = c.CapFile
	}
	if c.CapTotal < c.CapFile {
		details["capTotal"] = c.CapTotal
		details["capFile"] = c.CapFile
	}
	if c.FindRenamesThreshold < 0 || c.FindRenamesThreshold > 100 {
		details["findRenamesThreshold"] = c.FindRenamesThreshold
	}
	if c.ContextLines < 0 {
		details["contextLines"] = c.ContextLines
	}
	if len(details) == 0 {
		return nil
	}
	return apperr.New(apperr.CapsInvalid, "configuration violates cap/threshold invariants", details)
}

// PolicyTable returns the effective policy table: the configured override
// if present, otherwise the shipped default set.
func (c Config) PolicyTable() policy.Table {
	if len(c.PolicyRules) == 0 {
		return policy.Default()
	}
	rules := make([]policy.Rule, 0, len(c.PolicyRules))
	for _, r := range c.PolicyRules {
		tag := policy.TagLockfile
		if r.IsGlob {
			tag = policy.TagGeneratedGlob
		}
		rules = append(rules, policy.Rule{Pattern: r.Pattern, IsGlob: r.IsGlob, Tag: tag})
	}
	return policy.New(rules)
}

// Load reads a JSON configuration document from path and merges it over the
// documented defaults. A missing path is not an error: the defaults are
// returned unchanged.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, err
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}
