package gitdriver

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"github.com/go-git/go-git/v5/plumbing/filemode"
)

// FileMetadata looks up path's mode and blob size as of commit via
// `git ls-tree`, parsing the octal mode with go-git's plumbing/filemode
// package. A path absent from commit (one side of an add or delete) returns
// a zero FileMeta.
func (d *execDriver) FileMetadata(ctx context.Context, workdir, commit, path string) (FileMeta, error) {
	if path == "" {
		return FileMeta{}, nil
	}

	args := append([]string{"-C", workdir}, d.env.GlobalArgs()...)
	args = append(args, "ls-tree", "-z", "-l", commit, "--", path)

	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Env = d.env.Environ(baseEnviron())
	out, err := cmd.CombinedOutput()
	if err != nil {
		return FileMeta{}, fmt.Errorf("git ls-tree failed: %w: %s", err, strings.TrimSpace(string(out)))
	}

	line := strings.TrimRight(strings.TrimSpace(string(out)), "\x00")
	if line == "" {
		// Not present on this side (pure add or delete).
		return FileMeta{}, nil
	}

	// Format: <mode> SP <type> SP <sha> SP <size> TAB <path>
	fields := strings.Fields(line)
	if len(fields) < 4 {
		return FileMeta{}, fmt.Errorf("unexpected git ls-tree output: %q", line)
	}

	modeStr := fields[0]
	modeVal, err := strconv.ParseUint(modeStr, 8, 32)
	if err != nil {
		return FileMeta{}, fmt.Errorf("parse file mode %q: %w", modeStr, err)
	}
	mode := filemode.FileMode(modeVal)

	meta := FileMeta{
		HasMode:     true,
		Mode:        normalizeMode(modeStr),
		IsSubmodule: mode == filemode.Submodule,
	}

	if mode == filemode.Submodule {
		return meta, nil
	}

	sizeField := fields[3]
	if sizeField != "-" {
		size, err := strconv.ParseInt(sizeField, 10, 64)
		if err != nil {
			return FileMeta{}, fmt.Errorf("parse blob size %q: %w", sizeField, err)
		}
		meta.HasSize = true
		meta.Size = size
	}

	meta.IsBinary, err = d.isBinary(ctx, workdir, commit, path)
	if err != nil {
		return FileMeta{}, err
	}

	return meta, nil
}

// normalizeMode left-pads a parsed octal mode string to the canonical
// six-character form (e.g. "100644").
func normalizeMode(s string) string {
	for len(s) < 6 {
		s = "0" + s
	}
	return s
}

// isBinary derives Git's own binary classification for path as of commit by
// consulting `git diff --numstat` against the empty tree, which reports
// "-\t-\tpath" for binary content.
func (d *execDriver) isBinary(ctx context.Context, workdir, commit, path string) (bool, error) {
	args := append([]string{"-C", workdir}, d.env.GlobalArgs()...)
	args = append(args, "diff", "--numstat", emptyTreeSHA, commit, "--", path)

	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Env = d.env.Environ(baseEnviron())
	out, err := cmd.CombinedOutput()
	if err != nil {
		return false, fmt.Errorf("git diff --numstat failed: %w: %s", err, strings.TrimSpace(string(out)))
	}
	line := strings.TrimSpace(string(out))
	return strings.HasPrefix(line, "-\t-\t"), nil
}

// emptyTreeSHA is Git's well-known empty-tree object, used as a diff base
// when classifying a single blob in isolation.
const emptyTreeSHA = "4b825dc642cb6eb9a060e54bf8d69288fbee4904"
