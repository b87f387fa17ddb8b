package gitdriver

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"github.com/presidioforts/PR-Diff-Ingestion/internal/apperr"
)

// NameStatus runs `git diff --raw -z` with rename/copy detection at
// renameThreshold and returns the ordered raw records. The --raw format
// (rather than --name-status) is used because it is the only form that
// carries the similarity percentage Change Discovery needs for tie-breaking.
func (d *execDriver) NameStatus(ctx context.Context, workdir, good, candidate string, renameThreshold int) ([]RawNameStatusEntry, error) {
	args := append([]string{"-C", workdir}, d.env.GlobalArgs()...)
	args = append(args,
		"diff",
		"--raw", "-z",
		fmt.Sprintf("-M%d%%", renameThreshold),
		fmt.Sprintf("-C%d%%", renameThreshold),
		good, candidate,
	)

	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Env = d.env.Environ(baseEnviron())
	out, err := cmd.CombinedOutput()
	if err != nil {
		return nil, apperr.New(apperr.Internal, "git diff --raw failed", map[string]any{"error": err.Error(), "output": strings.TrimSpace(string(out))})
	}

	return parseRawEntries(out)
}

func parseRawEntries(data []byte) ([]RawNameStatusEntry, error) {
	parts := bytes.Split(bytes.TrimRight(data, "\x00"), []byte{0})
	entries := make([]RawNameStatusEntry, 0, len(parts)/2)

	i := 0
	for i < len(parts) {
		meta := strings.TrimSpace(string(parts[i]))
		if meta == "" {
			i++
			continue
		}
		if !strings.HasPrefix(meta, ":") {
			return nil, fmt.Errorf("unexpected git --raw meta line %q", meta)
		}
		fields := strings.Fields(meta)
		if len(fields) < 5 {
			return nil, fmt.Errorf("unexpected git --raw meta %q", meta)
		}
		status := fields[len(fields)-1]

		if i+1 >= len(parts) {
			return nil, fmt.Errorf("unexpected git --raw output: missing path for %q", meta)
		}
		path := string(parts[i+1])

		entry := RawNameStatusEntry{Status: status, Path: path}
		if len(status) > 0 && (status[0] == 'R' || status[0] == 'C') {
			if i+2 >= len(parts) {
				return nil, fmt.Errorf("unexpected git --raw output: missing destination path for rename/copy %q", meta)
			}
			entry.OldPath = path
			entry.Path = string(parts[i+2])
			if score, err := strconv.Atoi(status[1:]); err == nil {
				entry.SimilarityOK = true
				entry.Similarity = score
			}
			i += 3
			entries = append(entries, entry)
			continue
		}

		i += 2
		entries = append(entries, entry)
	}

	return entries, nil
}
