package serialize

import (
	"github.com/presidioforts/PR-Diff-Ingestion/internal/diffmodel"
)

// BuildEnvelope converts an Envelope into the generic value tree Encode
// accepts. Exactly one of Data/Error is present per diffmodel's own
// invariant; the other key is simply never assigned here, not nulled, since
// Encode treats nil as an error rather than emitting "null".
func BuildEnvelope(e diffmodel.Envelope) map[string]any {
	out := map[string]any{"ok": e.OK}
	if e.OK && e.Data != nil {
		out["data"] = buildPayload(*e.Data)
	}
	if !e.OK && e.Error != nil {
		out["error"] = buildErrorInfo(*e.Error)
	}
	return out
}

func buildErrorInfo(ei diffmodel.ErrorInfo) map[string]any {
	out := map[string]any{
		"code":    ei.Code,
		"message": ei.Message,
	}
	if len(ei.Details) > 0 {
		out["details"] = buildAnyMap(ei.Details)
	} else {
		out["details"] = map[string]any{}
	}
	return out
}

func buildAnyMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func buildPayload(p diffmodel.Payload) map[string]any {
	files := make([]any, 0, len(p.Files))
	for _, f := range p.Files {
		files = append(files, buildFileChangeRecord(f))
	}
	notes := make([]any, 0, len(p.Notes))
	for _, n := range p.Notes {
		notes = append(notes, n)
	}
	return map[string]any{
		"provenance":          buildProvenance(p.Provenance),
		"files":               files,
		"omitted_files_count": p.OmittedFilesCount,
		"notes":               notes,
	}
}

func buildProvenance(pr diffmodel.Provenance) map[string]any {
	out := map[string]any{
		"repo_url":         pr.RepoURL,
		"commit_good":      pr.CommitGood,
		"commit_candidate": pr.CommitCandidate,
		"git_version":      pr.GitVersion,
		"diff_algorithm":   pr.DiffAlgorithm,
		"env_locks":        buildStringMap(pr.EnvLocks),
		"checksum":         pr.Checksum,
		"caps": map[string]any{
			"cap_total":     pr.Caps.CapTotal,
			"cap_file":      pr.Caps.CapFile,
			"context_lines": pr.Caps.ContextLines,
		},
		"rename_detection": map[string]any{
			"threshold": pr.RenameDetection.Threshold,
		},
	}
	if pr.BranchName != "" {
		out["branch_name"] = pr.BranchName
	}
	return out
}

func buildStringMap(m map[string]string) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func buildFileChangeRecord(f diffmodel.FileChangeRecord) map[string]any {
	out := map[string]any{
		"status": string(f.Status),
	}
	if f.PathOld != "" {
		out["path_old"] = f.PathOld
	}
	if f.PathNew != "" {
		out["path_new"] = f.PathNew
	}
	if f.HasRenameScore {
		out["rename_score"] = f.RenameScore
		if f.RenameTiebreak != diffmodel.TiebreakNone {
			out["rename_tiebreak"] = string(f.RenameTiebreak)
		}
	}
	if f.ModeOld != "" {
		out["mode_old"] = f.ModeOld
	}
	if f.ModeNew != "" {
		out["mode_new"] = f.ModeNew
	}
	if f.HasSizeOld {
		out["size_old"] = f.SizeOld
	}
	if f.HasSizeNew {
		out["size_new"] = f.SizeNew
	}
	out["is_binary"] = f.IsBinary
	out["is_submodule"] = f.IsSubmodule
	out["eol_only_change"] = f.EOLOnlyChange
	out["whitespace_only_change"] = f.WhitespaceOnlyChange
	out["summarized"] = f.Summarized
	out["truncated"] = f.Truncated
	if f.Truncated {
		out["omitted_hunks_count"] = f.OmittedHunksCount
	}
	if f.SubmoduleSHAs != nil {
		out["submodule_shas"] = map[string]any{
			"old_sha": f.SubmoduleSHAs.OldSHA,
			"new_sha": f.SubmoduleSHAs.NewSHA,
		}
	}

	hunks := make([]any, 0, len(f.Hunks))
	for _, h := range f.Hunks {
		hunks = append(hunks, buildHunk(h))
	}
	out["hunks"] = hunks

	return out
}

func buildHunk(h diffmodel.Hunk) map[string]any {
	return map[string]any{
		"header":    h.Header,
		"old_start": h.OldStart,
		"old_lines": h.OldLines,
		"new_start": h.NewStart,
		"new_lines": h.NewLines,
		"added":     h.Added,
		"deleted":   h.Deleted,
		"patch":     h.Patch,
	}
}
