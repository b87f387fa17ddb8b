package gitdriver

import (
	"context"
	"fmt"
	"os/exec"
	"regexp"
	"strconv"
	"strings"

	"github.com/presidioforts/PR-Diff-Ingestion/internal/apperr"
)

var versionRe = regexp.MustCompile(`(\d+)\.(\d+)(?:\.(\d+))?`)

const (
	minMajor = 2
	minMinor = 30
)

// DetectVersion runs `git version` and fails GIT_VERSION_UNSUPPORTED when
// the parsed major.minor is below 2.30.
func (d *execDriver) DetectVersion(ctx context.Context) (string, error) {
	cmd := exec.CommandContext(ctx, "git", "version")
	cmd.Env = d.env.Environ(baseEnviron())
	out, err := cmd.CombinedOutput()
	if err != nil {
		return "", apperr.New(apperr.Internal, "failed to invoke git", map[string]any{"error": err.Error()})
	}
	return parseVersionOutput(string(out))
}

// parseVersionOutput extracts and validates the git version from `git
// version`'s stdout, kept separate from DetectVersion so the parsing and
// the 2.30 floor check can be exercised without invoking a subprocess.
func parseVersionOutput(out string) (string, error) {
	match := versionRe.FindStringSubmatch(strings.TrimSpace(out))
	if match == nil {
		return "", apperr.New(apperr.GitVersionUnsupported, "could not parse git version output", map[string]any{"output": strings.TrimSpace(out)})
	}

	major, _ := strconv.Atoi(match[1])
	minor, _ := strconv.Atoi(match[2])
	version := match[0]

	if major < minMajor || (major == minMajor && minor < minMinor) {
		return "", apperr.New(apperr.GitVersionUnsupported, fmt.Sprintf("git %s is older than the required 2.30", version), map[string]any{"detectedVersion": version})
	}

	return version, nil
}
