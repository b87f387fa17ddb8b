// Package capengine implements the Cap Engine: per-file and global byte
// budget enforcement with first/last-hunk preservation, and lockfile/
// generated summarization. It runs after all hunks for all files have been
// extracted and has global knowledge of byte costs; it performs no I/O.
package capengine

import (
	"github.com/presidioforts/PR-Diff-Ingestion/internal/diffmodel"
	"github.com/presidioforts/PR-Diff-Ingestion/internal/policy"
)

// Options configures a single cap engine pass.
type Options struct {
	CapTotal int
	CapFile  int
	Policies policy.Table
}

// Outcome is the result of running the cap engine: the processed records in
// their original order, the count of files globally omitted, and any notes
// to fold into the payload (e.g. "summarized lockfile: <path>").
type Outcome struct {
	Files             []diffmodel.FileChangeRecord
	OmittedFilesCount int
	Notes             []string
}

// Run applies lockfile/generated summarization, then the per-file cap, then
// the global cap, in that order, to files in their fixed output order.
func Run(files []diffmodel.FileChangeRecord, opts Options) (Outcome, error) {
	out := Outcome{Files: make([]diffmodel.FileChangeRecord, len(files))}
	copy(out.Files, files)

	for i := range out.Files {
		f := &out.Files[i]
		if skipsCapping(f) {
			continue
		}

		summarized, err := maybeSummarize(f, opts)
		if err != nil {
			return Outcome{}, err
		}
		if summarized {
			note := "summarized lockfile: " + f.EffectivePath()
			out.Notes = appendUnique(out.Notes, note)
			continue
		}

		applyPerFileCap(f, opts.CapFile)
	}

	runningTotal := 0
	for i := range out.Files {
		f := &out.Files[i]
		if skipsCapping(f) || f.Summarized {
			continue
		}

		cost := f.PatchByteTotal()
		if runningTotal+cost <= opts.CapTotal {
			runningTotal += cost
			continue
		}

		f.Hunks = nil
		f.Truncated = false
		f.OmittedHunksCount = 0
		out.OmittedFilesCount++
	}

	return out, nil
}

// skipsCapping reports whether a record is exempt from both levels of
// capping because it already carries no hunks by construction.
func skipsCapping(f *diffmodel.FileChangeRecord) bool {
	return f.IsBinary || f.IsSubmodule || len(f.Hunks) == 0
}

// maybeSummarize consults the Policy Table before per-file capping; if the
// file matches and its raw total hunk cost exceeds cap_file, its hunks are
// discarded and summarized is set.
func maybeSummarize(f *diffmodel.FileChangeRecord, opts Options) (bool, error) {
	matched, err := opts.Policies.Matches(f.EffectivePath())
	if err != nil {
		return false, err
	}
	if !matched {
		return false, nil
	}
	if f.PatchByteTotal() <= opts.CapFile {
		return false, nil
	}
	f.Summarized = true
	f.Hunks = nil
	return true, nil
}

// applyPerFileCap enforces cap_file with first/last hunk preservation.
func applyPerFileCap(f *diffmodel.FileChangeRecord, capFile int) {
	total := len(f.Hunks)
	if total == 0 {
		return
	}

	running := 0
	admitted := make([]diffmodel.Hunk, 0, total)
	overflowed := false

	for _, h := range f.Hunks {
		cost := h.ByteLen()
		if running+cost <= capFile {
			admitted = append(admitted, h)
			running += cost
			continue
		}
		overflowed = true
		break
	}

	if !overflowed {
		// Every hunk fit; no truncation needed even if the total equals
		// cap_file exactly.
		f.Hunks = admitted
		return
	}

	f.Truncated = true
	last := f.Hunks[total-1]

	if len(admitted) == 0 {
		// Not even the first hunk fit within cap_file; the boundary
		// case: admit only that oversized hunk in full, no preservation
		// pair possible.
		f.Hunks = []diffmodel.Hunk{f.Hunks[0]}
		f.OmittedHunksCount = total - 1
		return
	}

	first := admitted[0]
	if first.Header == last.Header && len(admitted) == total {
		f.Hunks = admitted
		f.OmittedHunksCount = 0
		return
	}

	if first.ByteLen()+last.ByteLen() > capFile {
		// Even the bare pair doesn't fit: keep only the first.
		f.Hunks = []diffmodel.Hunk{first}
		f.OmittedHunksCount = total - 1
		return
	}

	// Evict admitted hunks from the end backwards (never the first) until
	// the last hunk fits alongside what remains.
	kept := admitted
	runningCost := running
	for len(kept) > 1 {
		lastOfKept := kept[len(kept)-1]
		if lastOfKept.Header == last.Header {
			break
		}
		if runningCost+last.ByteLen() <= capFile {
			break
		}
		kept = kept[:len(kept)-1]
		runningCost -= lastOfKept.ByteLen()
	}

	alreadyHasLast := kept[len(kept)-1].Header == last.Header
	finalHunks := make([]diffmodel.Hunk, 0, len(kept)+1)
	finalHunks = append(finalHunks, kept...)
	if !alreadyHasLast {
		finalHunks = append(finalHunks, last)
	}

	retainedHeaders := make(map[string]bool, len(finalHunks))
	for _, h := range finalHunks {
		retainedHeaders[h.Header] = true
	}
	omitted := 0
	for _, h := range f.Hunks {
		if !retainedHeaders[h.Header] {
			omitted++
		}
	}

	f.Hunks = finalHunks
	f.OmittedHunksCount = omitted
}

func appendUnique(notes []string, note string) []string {
	for _, n := range notes {
		if n == note {
			return notes
		}
	}
	return append(notes, note)
}
