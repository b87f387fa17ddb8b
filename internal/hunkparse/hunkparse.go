// Package hunkparse implements the Hunk Extractor: parsing unified-diff
// text into structured hunks and classifying EOL-only and whitespace-only
// deltas. It operates only on text, non-submodule files and performs no I/O.
package hunkparse

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/presidioforts/PR-Diff-Ingestion/internal/diffmodel"
)

var headerRe = regexp.MustCompile(`^@@ -(\d+)(?:,(\d+))? \+(\d+)(?:,(\d+))? @@`)

const noNewlineMarker = "\\ No newline at end of file"

// Result is the outcome of extracting hunks from one file's unified-diff
// text: either a set of hunks, or a diagnostic note when the self-check in
// parsing fails (the file is still emitted, with empty hunks).
type Result struct {
	Hunks []diffmodel.Hunk
	Note  string // "" unless the self-check failed
}

// Extract parses patch (the full unified-diff body for one file, hunk
// headers and all) into ordered hunks.
func Extract(path, patch string) Result {
	if strings.TrimSpace(patch) == "" {
		return Result{}
	}

	lines := splitKeepEnds(patch)

	var hunks []diffmodel.Hunk
	var cur *diffmodel.Hunk
	var curBody strings.Builder

	flush := func() {
		if cur == nil {
			return
		}
		cur.Patch = curBody.String()
		hunks = append(hunks, *cur)
		cur = nil
		curBody.Reset()
	}

	for _, line := range lines {
		trimmed := strings.TrimRight(line, "\n")
		if strings.HasPrefix(trimmed, "@@") {
			flush()
			h, err := parseHeader(trimmed)
			if err != nil {
				return Result{Note: fmt.Sprintf("malformed hunk header in %s: %v", path, err)}
			}
			cur = &h
			curBody.WriteString(line)
			continue
		}
		if cur == nil {
			// Preamble (diff --git / index / ---/+++) already stripped by
			// the driver; ignore anything unexpected rather than failing.
			continue
		}

		curBody.WriteString(line)

		if trimmed == noNewlineMarker {
			continue
		}

		if len(trimmed) == 0 {
			// A context line whose source text is itself empty; counts
			// toward neither Added nor Deleted.
			continue
		}

		switch trimmed[0] {
		case ' ':
			// context line: counts toward both sides, not tracked as a
			// distinct counter since neither Added nor Deleted include it.
		case '-':
			cur.Deleted++
		case '+':
			cur.Added++
		default:
			// Tolerate stray lines (e.g. "\ No newline..." handled above)
			// without failing the whole file.
		}
	}
	flush()

	for _, h := range hunks {
		if !selfCheck(h) {
			return Result{Note: fmt.Sprintf("hunk accounting mismatch in %s at %s", path, h.Header)}
		}
	}

	classify(hunks)

	return Result{Hunks: hunks}
}

func parseHeader(line string) (diffmodel.Hunk, error) {
	m := headerRe.FindStringSubmatch(line)
	if m == nil {
		return diffmodel.Hunk{}, fmt.Errorf("does not match @@ -o[,ol] +n[,nl] @@: %q", line)
	}

	oldStart, _ := strconv.Atoi(m[1])
	oldLines := 1
	if m[2] != "" {
		oldLines, _ = strconv.Atoi(m[2])
	}
	newStart, _ := strconv.Atoi(m[3])
	newLines := 1
	if m[4] != "" {
		newLines, _ = strconv.Atoi(m[4])
	}

	return diffmodel.Hunk{
		Header:   line,
		OldStart: oldStart,
		OldLines: oldLines,
		NewStart: newStart,
		NewLines: newLines,
	}, nil
}

// selfCheck verifies old_lines/new_lines against the body's context+delta
// counts. Since context lines are not separately counted on the Hunk value,
// recompute them directly from the patch body here.
func selfCheck(h diffmodel.Hunk) bool {
	context, added, deleted := countBody(h.Patch)
	return h.OldLines == context+deleted && h.NewLines == context+added && added == h.Added && deleted == h.Deleted
}

func countBody(patch string) (context, added, deleted int) {
	for _, line := range splitKeepEnds(patch) {
		trimmed := strings.TrimRight(line, "\n")
		if strings.HasPrefix(trimmed, "@@") || trimmed == noNewlineMarker {
			continue
		}
		if len(trimmed) == 0 {
			context++
			continue
		}
		switch trimmed[0] {
		case ' ':
			context++
		case '-':
			deleted++
		case '+':
			added++
		}
	}
	return
}

// classify sets eol_only_change and whitespace_only_change. eol_only_change
// is false whenever a hunk carries any delta beyond a line-ending
// conversion, and is computed independently from, not as a refinement of,
// whitespace_only_change.
func classify(hunks []diffmodel.Hunk) {
	for i := range hunks {
		adds, dels := changeLines(hunks[i].Patch)
		hasPairs := len(adds) > 0 && len(adds) == len(dels)
		hunks[i].WhitespaceOnlyChange = hasPairs && pairedByStrip(adds, dels, stripWhitespace)
		hunks[i].EOLOnlyChange = hasPairs && pairedByStrip(adds, dels, stripEOL)
	}
}

func changeLines(patch string) (adds, dels []string) {
	for _, line := range splitKeepEnds(patch) {
		trimmed := strings.TrimRight(line, "\n")
		if len(trimmed) == 0 || trimmed == noNewlineMarker {
			continue
		}
		switch trimmed[0] {
		case '+':
			adds = append(adds, trimmed[1:])
		case '-':
			dels = append(dels, trimmed[1:])
		}
	}
	return
}

func pairedByStrip(adds, dels []string, strip func(string) string) bool {
	if len(adds) != len(dels) {
		return false
	}
	for i := range adds {
		if strip(adds[i]) != strip(dels[i]) {
			return false
		}
	}
	return true
}

func stripWhitespace(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r == ' ' || r == '\t' || r == '\r' || r == '\n' || r == '\f' || r == '\v' {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func stripEOL(s string) string {
	return strings.TrimRight(s, "\r\n")
}

// splitKeepEnds splits s into lines, keeping the trailing "\n" on every line
// but the (possibly absent) final one, so re-joining reproduces s exactly.
func splitKeepEnds(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.SplitAfter(s, "\n")
	if parts[len(parts)-1] == "" {
		parts = parts[:len(parts)-1]
	}
	return parts
}
