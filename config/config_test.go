package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/presidioforts/PR-Diff-Ingestion/internal/apperr"
	"github.com/presidioforts/PR-Diff-Ingestion/internal/policy"
)

func TestDefault_MatchesDocumentedConstants(t *testing.T) {
	cfg := Default()
	assert.Equal(t, DefaultCapTotal, cfg.CapTotal)
	assert.Equal(t, DefaultCapFile, cfg.CapFile)
	assert.Equal(t, DefaultContextLines, cfg.ContextLines)
	assert.Equal(t, DefaultFindRenamesThreshold, cfg.FindRenamesThreshold)
	assert.Nil(t, cfg.Validate())
}

func TestValidate_CapFileExceedsCapTotal(t *testing.T) {
	cfg := Default()
	cfg.CapTotal = 100
	cfg.CapFile = 200

	err := cfg.Validate()
	require.NotNil(t, err)
	assert.Equal(t, apperr.CapsInvalid, err.Code)
}

func TestValidate_NegativeCapFile(t *testing.T) {
	cfg := Default()
	cfg.CapFile = -1

	err := cfg.Validate()
	require.NotNil(t, err)
	assert.Equal(t, apperr.CapsInvalid, err.Code)
}

func TestValidate_ThresholdOutOfRange(t *testing.T) {
	cfg := Default()
	cfg.FindRenamesThreshold = 101

	err := cfg.Validate()
	require.NotNil(t, err)
}

func TestValidate_EqualCapsIsAllowed(t *testing.T) {
	cfg := Default()
	cfg.CapTotal = 500
	cfg.CapFile = 500

	assert.Nil(t, cfg.Validate())
}

func TestPolicyTable_DefaultsWhenUnset(t *testing.T) {
	cfg := Default()
	table := cfg.PolicyTable()

	tag, err := table.Classify("package-lock.json")
	require.NoError(t, err)
	assert.Equal(t, policy.TagLockfile, tag)
}

func TestPolicyTable_UsesOverrideWhenSet(t *testing.T) {
	cfg := Default()
	cfg.PolicyRules = []PolicyRule{{Pattern: "*.generated.go", IsGlob: true}}

	table := cfg.PolicyTable()
	tag, err := table.Classify("foo.generated.go")
	require.NoError(t, err)
	assert.Equal(t, policy.TagGeneratedGlob, tag)

	tag, err = table.Classify("package-lock.json")
	require.NoError(t, err)
	assert.Equal(t, policy.TagNone, tag, "an override replaces the default table entirely")
}

func TestLoad_MissingPathReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.json"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_EmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_MergesOverJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"capFile": 1000, "repoUrl": "https://example.com/x.git"}`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 1000, cfg.CapFile)
	assert.Equal(t, "https://example.com/x.git", cfg.RepoURL)
	assert.Equal(t, DefaultCapTotal, cfg.CapTotal, "unset fields keep their default")
}
