package gitdriver

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/transport/http"

	"github.com/presidioforts/PR-Diff-Ingestion/internal/apperr"
	"github.com/presidioforts/PR-Diff-Ingestion/internal/envctx"
)

// fetchDeadline bounds a single clone/fetch attempt before the driver
// retries exactly once before surfacing NETWORK_TIMEOUT.
const fetchDeadline = 2 * time.Minute

// EnsureWorkspace clones repoURL into a fresh temporary directory using
// github.com/go-git/go-git/v5 for the initial bootstrap, then shells out to
// the git CLI to make sure both requested commits are reachable, fetching
// branchHint first when given.
func (d *execDriver) EnsureWorkspace(ctx context.Context, repoURL, good, candidate, branchHint string) (string, func(), error) {
	dir, err := os.MkdirTemp("", "diffingest-*")
	if err != nil {
		return "", nil, apperr.New(apperr.Internal, "failed to create temporary workspace", map[string]any{"error": err.Error()})
	}
	cleanup := func() { _ = os.RemoveAll(dir) }

	if err := cloneWithRetry(ctx, dir, repoURL); err != nil {
		cleanup()
		return "", nil, err
	}

	if branchHint != "" {
		_ = runGitWithRetry(ctx, d.env, dir, "fetch", "--quiet", "origin", branchHint)
	}

	missing := missingCommits(ctx, d.env, dir, good, candidate)
	if len(missing) > 0 {
		// One more attempt: a full unshallow fetch in case the requested
		// SHAs are reachable only through history not covered by the
		// initial clone or the branch hint.
		_ = runGitWithRetry(ctx, d.env, dir, "fetch", "--quiet", "--unshallow", "origin")
		missing = missingCommits(ctx, d.env, dir, good, candidate)
	}
	if len(missing) > 0 {
		cleanup()
		return "", nil, apperr.New(apperr.CommitNotFound, "one or more commits were not found after fetch", map[string]any{"missing": missing})
	}

	return dir, cleanup, nil
}

func cloneWithRetry(ctx context.Context, dir, repoURL string) error {
	attempt := func() error {
		cctx, cancel := context.WithTimeout(ctx, fetchDeadline)
		defer cancel()
		_, err := git.PlainCloneContext(cctx, dir, false, &git.CloneOptions{
			URL:  repoURL,
			Tags: git.AllTags,
			Auth: credentialsFromEnv(),
		})
		if errors.Is(cctx.Err(), context.DeadlineExceeded) {
			return apperr.New(apperr.NetworkTimeout, "clone exceeded the configured deadline", map[string]any{"repoUrl": repoURL})
		}
		return err
	}

	err := attempt()
	if err == nil {
		return nil
	}
	if isTimeout(err) {
		// Exactly one retry on transport deadline.
		if err2 := attempt(); err2 == nil {
			return nil
		} else if isTimeout(err2) {
			return err2
		} else {
			err = err2
		}
	}
	return apperr.New(apperr.CloneFailed, "git clone failed", map[string]any{"repoUrl": repoURL, "error": err.Error()})
}

// credentialsFromEnv builds HTTP basic auth from GIT_USERNAME/GIT_AUTH_TOKEN
// when both are set, for private-repo clones; the values are never logged
// or echoed into any output.
func credentialsFromEnv() *http.BasicAuth {
	user := os.Getenv("GIT_USERNAME")
	token := os.Getenv("GIT_AUTH_TOKEN")
	if user == "" || token == "" {
		return nil
	}
	return &http.BasicAuth{Username: user, Password: token}
}

func isTimeout(err error) bool {
	var ae *apperr.Error
	if errors.As(err, &ae) {
		return ae.Code == apperr.NetworkTimeout
	}
	return false
}

func runGitWithRetry(ctx context.Context, env envctx.Locked, dir string, args ...string) error {
	run := func() error {
		cctx, cancel := context.WithTimeout(ctx, fetchDeadline)
		defer cancel()
		full := append([]string{"-C", dir}, env.GlobalArgs()...)
		full = append(full, args...)
		cmd := exec.CommandContext(cctx, "git", full...)
		cmd.Env = env.Environ(baseEnviron())
		out, err := cmd.CombinedOutput()
		if errors.Is(cctx.Err(), context.DeadlineExceeded) {
			return apperr.New(apperr.NetworkTimeout, "git operation exceeded the configured deadline", map[string]any{"args": args})
		}
		if err != nil {
			return fmt.Errorf("git %s failed: %w: %s", strings.Join(args, " "), err, strings.TrimSpace(string(out)))
		}
		return nil
	}

	err := run()
	if err == nil {
		return nil
	}
	if isTimeout(err) {
		return run()
	}
	return err
}

// missingCommits returns the subset of {good, candidate} not resolvable in
// dir's object database.
func missingCommits(ctx context.Context, env envctx.Locked, dir, good, candidate string) []string {
	repo, err := git.PlainOpen(dir)
	if err != nil {
		return []string{good, candidate}
	}

	var missing []string
	for _, sha := range []string{good, candidate} {
		if sha == "" {
			continue
		}
		if !commitExists(ctx, env, repo, dir, sha) {
			missing = append(missing, sha)
		}
	}
	return missing
}

func commitExists(ctx context.Context, env envctx.Locked, repo *git.Repository, dir, sha string) bool {
	if _, err := repo.ResolveRevision(plumbing.Revision(sha)); err == nil {
		return true
	}
	// Abbreviated SHAs that go-git's revision resolver rejects are still
	// resolvable through the git CLI's own rev-parse.
	args := append([]string{"-C", dir}, env.GlobalArgs()...)
	args = append(args, "rev-parse", "--verify", "--quiet", sha+"^{commit}")
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Env = env.Environ(baseEnviron())
	out, err := cmd.CombinedOutput()
	return err == nil && strings.TrimSpace(string(out)) != ""
}
