package gitdriver

import (
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/presidioforts/PR-Diff-Ingestion/internal/envctx"
)

// SubmoduleSHAs returns the old and new commit SHAs recorded for a gitlink
// at path by reading the tree entries directly, rather than parsing diff
// text (gitlink diffs are not unified-diff hunks).
func (d *execDriver) SubmoduleSHAs(ctx context.Context, workdir, good, candidate, path string) (string, string, error) {
	oldSHA, err := treeEntrySHA(ctx, d.env, workdir, good, path)
	if err != nil {
		return "", "", err
	}
	newSHA, err := treeEntrySHA(ctx, d.env, workdir, candidate, path)
	if err != nil {
		return "", "", err
	}
	return oldSHA, newSHA, nil
}

func treeEntrySHA(ctx context.Context, env envctx.Locked, workdir, commit, path string) (string, error) {
	if path == "" {
		return "", nil
	}
	args := append([]string{"-C", workdir}, env.GlobalArgs()...)
	args = append(args, "ls-tree", commit, "--", path)
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Env = env.Environ(baseEnviron())
	out, err := cmd.CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("git ls-tree failed: %w: %s", err, strings.TrimSpace(string(out)))
	}
	line := strings.TrimSpace(string(out))
	if line == "" {
		return "", nil
	}
	fields := strings.Fields(line)
	if len(fields) < 3 {
		return "", fmt.Errorf("unexpected git ls-tree output: %q", line)
	}
	return fields[2], nil
}
