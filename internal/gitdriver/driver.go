// Package gitdriver implements the Git Driver contract the pipeline
// consumes: version detection, ephemeral workspace management, name-status
// discovery, file metadata, unified patch retrieval, and submodule SHA
// lookup. Every subprocess runs under the locked execution context from
// internal/envctx; nothing here mutates the process-global environment.
// Workspace bootstrap is layered on top of github.com/go-git/go-git/v5,
// with all other queries shelled out to the system git binary.
package gitdriver

import (
	"context"
	"os"

	"github.com/presidioforts/PR-Diff-Ingestion/internal/envctx"
)

// RawNameStatusEntry is one record of `git diff --raw -z -M -C` output, not
// yet normalized into a diffmodel.FileChangeRecord.
type RawNameStatusEntry struct {
	Status       string // e.g. "M", "A", "D", "R100", "C87"
	Path         string // destination path, or the sole path for A/D/M/T
	OldPath      string // source path, present only for R/C
	SimilarityOK bool
	Similarity   int // percent, valid only if SimilarityOK
}

// FileMeta is the per-commit metadata for a single path.
type FileMeta struct {
	HasMode     bool
	Mode        string // six-character octal string
	HasSize     bool
	Size        int64
	IsBinary    bool
	IsSubmodule bool
}

// Driver is the contract the pipeline requires of the Git subprocess layer.
// Every method is expected to be deterministic for a given repository state
// when invoked under a Locked environment.
type Driver interface {
	// DetectVersion returns the installed git's semantic version string.
	DetectVersion(ctx context.Context) (string, error)

	// EnsureWorkspace clones repoURL into a fresh directory and guarantees
	// both commits are present, fetching branchHint as a hint for where to
	// find them. It returns the workspace path and a cleanup function that
	// removes it; the caller decides whether to invoke cleanup based on
	// --keep-workdir/--keep-on-error.
	EnsureWorkspace(ctx context.Context, repoURL, good, candidate, branchHint string) (workdir string, cleanup func(), err error)

	// NameStatus returns the ordered raw name-status records between good
	// and candidate, with rename/copy detection at the given threshold.
	NameStatus(ctx context.Context, workdir, good, candidate string, renameThreshold int) ([]RawNameStatusEntry, error)

	// FileMetadata returns the mode/size/binary/submodule classification of
	// path as it exists in commit. A path absent from commit returns a
	// zero-value FileMeta with HasMode and HasSize both false.
	FileMetadata(ctx context.Context, workdir, commit, path string) (FileMeta, error)

	// UnifiedPatch returns the unified-diff text for a single file between
	// good and candidate, using the given number of context lines. It is
	// empty when content is unchanged (e.g. a pure mode change).
	UnifiedPatch(ctx context.Context, workdir, good, candidate, pathOld, pathNew string, contextLines int) (string, error)

	// SubmoduleSHAs returns the old and new commit SHAs recorded for a
	// gitlink at path.
	SubmoduleSHAs(ctx context.Context, workdir, good, candidate, path string) (oldSHA, newSHA string, err error)
}

// execDriver is the default Driver implementation, backed by the system git
// binary invoked under a locked environment.
type execDriver struct {
	env envctx.Locked
}

// New returns the default Driver implementation.
func New() Driver {
	return &execDriver{env: envctx.Default()}
}

// baseEnviron returns the minimal ambient variables a git subprocess needs
// to find its config and credential helpers (PATH, HOME), before the locked
// overrides are appended by envctx.Locked.Environ. Everything else in the
// ambient environment -- locale, editor, stray GIT_* overrides -- is
// deliberately left out so it can't perturb the emitted byte sequence.
func baseEnviron() []string {
	var base []string
	for _, k := range []string{"PATH", "HOME"} {
		if v, ok := os.LookupEnv(k); ok {
			base = append(base, k+"="+v)
		}
	}
	return base
}
