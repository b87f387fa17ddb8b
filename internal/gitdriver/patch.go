package gitdriver

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// UnifiedPatch returns the unified-diff text for a single file between good
// and candidate using the configured number of context lines. The `--` path
// specs are given separately for pathOld and pathNew so renamed content is
// diffed across its old and new locations.
func (d *execDriver) UnifiedPatch(ctx context.Context, workdir, good, candidate, pathOld, pathNew string, contextLines int) (string, error) {
	args := append([]string{"-C", workdir}, d.env.GlobalArgs()...)
	args = append(args,
		"diff",
		"--no-color",
		"--no-prefix",
		"-U"+strconv.Itoa(contextLines),
		"--find-renames",
		good, candidate,
		"--",
	)
	if pathOld != "" {
		args = append(args, pathOld)
	}
	if pathNew != "" && pathNew != pathOld {
		args = append(args, pathNew)
	}

	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Env = d.env.Environ(baseEnviron())
	out, err := cmd.CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("git diff failed: %w: %s", err, strings.TrimSpace(string(out)))
	}

	text := string(out)
	if idx := strings.Index(text, "@@"); idx >= 0 {
		// Drop the `diff --git` / `index` / `---`/`+++` preamble; the Hunk
		// Extractor only consumes hunk bodies starting at the first header.
		if nl := strings.LastIndex(text[:idx], "\n"); nl >= 0 {
			return text[nl+1:], nil
		}
	} else {
		// No hunks: unchanged content (e.g. a pure mode change).
		return "", nil
	}

	return text, nil
}
