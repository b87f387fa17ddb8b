// Package discovery implements Change Discovery: normalizing the Git
// Driver's raw name-status output into an ordered set of File Change
// Records with status, paths, rename score, modes, sizes, and
// binary/submodule flags.
package discovery

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/xrash/smetrics"

	"github.com/presidioforts/PR-Diff-Ingestion/internal/diffmodel"
	"github.com/presidioforts/PR-Diff-Ingestion/internal/gitdriver"
)

// Discoverer turns raw driver output into File Change Records.
type Discoverer struct {
	driver gitdriver.Driver
}

// New returns a Discoverer backed by driver.
func New(driver gitdriver.Driver) *Discoverer {
	return &Discoverer{driver: driver}
}

// Discover produces the ordered File Change Record set for workdir between
// good and candidate, enriching each record with mode/size metadata and
// resolving near-tie renames deterministically.
func (d *Discoverer) Discover(ctx context.Context, workdir, good, candidate string, renameThreshold int) ([]diffmodel.FileChangeRecord, error) {
	raw, err := d.driver.NameStatus(ctx, workdir, good, candidate, renameThreshold)
	if err != nil {
		return nil, err
	}

	records, err := normalize(raw)
	if err != nil {
		return nil, err
	}

	for i := range records {
		if err := d.enrich(ctx, workdir, good, candidate, &records[i]); err != nil {
			return nil, err
		}
	}

	resolveRenameTies(records)
	sortRecords(records)

	return records, nil
}

// normalize maps each raw status letter to the canonical status set and
// assigns path_old/path_new.
func normalize(raw []gitdriver.RawNameStatusEntry) ([]diffmodel.FileChangeRecord, error) {
	records := make([]diffmodel.FileChangeRecord, 0, len(raw))
	for _, e := range raw {
		if len(e.Status) == 0 {
			return nil, fmt.Errorf("empty git status letter")
		}

		var rec diffmodel.FileChangeRecord
		switch e.Status[0] {
		case 'A':
			rec.Status = diffmodel.StatusAdded
			rec.PathNew = e.Path
		case 'D':
			rec.Status = diffmodel.StatusDeleted
			rec.PathOld = e.Path
		case 'M':
			rec.Status = diffmodel.StatusModified
			rec.PathOld = e.Path
			rec.PathNew = e.Path
		case 'T':
			rec.Status = diffmodel.StatusTypeChang
			rec.PathOld = e.Path
			rec.PathNew = e.Path
		case 'R':
			rec.Status = diffmodel.StatusRenamed
			rec.PathOld = e.OldPath
			rec.PathNew = e.Path
			if e.SimilarityOK {
				rec.HasRenameScore = true
				rec.RenameScore = e.Similarity
			}
		case 'C':
			rec.Status = diffmodel.StatusCopied
			rec.PathOld = e.OldPath
			rec.PathNew = e.Path
			if e.SimilarityOK {
				rec.HasRenameScore = true
				rec.RenameScore = e.Similarity
			}
		default:
			return nil, fmt.Errorf("unknown git status letter %q", e.Status)
		}

		records = append(records, rec)
	}
	return records, nil
}

// enrich queries mode/size/binary/submodule metadata for both sides of a
// record and fills the derived flags.
func (d *Discoverer) enrich(ctx context.Context, workdir, good, candidate string, rec *diffmodel.FileChangeRecord) error {
	if rec.PathOld != "" {
		meta, err := d.driver.FileMetadata(ctx, workdir, good, rec.PathOld)
		if err != nil {
			return err
		}
		if meta.HasMode {
			rec.ModeOld = meta.Mode
		}
		if meta.HasSize {
			rec.HasSizeOld = true
			rec.SizeOld = meta.Size
		}
		if meta.IsSubmodule {
			rec.IsSubmodule = true
		}
		if meta.IsBinary {
			rec.IsBinary = true
		}
	}

	if rec.PathNew != "" {
		meta, err := d.driver.FileMetadata(ctx, workdir, candidate, rec.PathNew)
		if err != nil {
			return err
		}
		if meta.HasMode {
			rec.ModeNew = meta.Mode
		}
		if meta.HasSize {
			rec.HasSizeNew = true
			rec.SizeNew = meta.Size
		}
		if meta.IsSubmodule {
			rec.IsSubmodule = true
		}
		if meta.IsBinary {
			rec.IsBinary = true
		}
	}

	if rec.IsSubmodule {
		oldSHA, newSHA, err := d.driver.SubmoduleSHAs(ctx, workdir, good, candidate, rec.EffectivePath())
		if err != nil {
			return err
		}
		rec.SubmoduleSHAs = &diffmodel.Submodule{OldSHA: oldSHA, NewSHA: newSHA}
	}

	return nil
}

// resolveRenameTies applies the three ordered tie-break rules
// among rename/copy candidates whose source assignment is ambiguous.
//
// The Git Driver contract exposes only the already-chosen winner's
// similarity score, not a full candidate matrix (git's own porcelain
// resolves renames to a single winner per destination before the pipeline
// ever sees the output). In that contract's absence, this implementation
// treats every other deleted path in the same change set as a contending
// source when a size-based proxy for "how similar would this delete's old
// content be to the rename target's new content" lands within one
// percentage point of the same proxy computed for the winner — i.e. ties
// are detected using the same size-similarity metric rule (ii) itself
// measures, then broken by rules (i) and (iii). This is documented as an
// explicit implementer decision in DESIGN.md.
func resolveRenameTies(records []diffmodel.FileChangeRecord) {
	var deletes []diffmodel.FileChangeRecord
	for _, r := range records {
		if r.Status == diffmodel.StatusDeleted && r.HasSizeOld {
			deletes = append(deletes, r)
		}
	}
	if len(deletes) == 0 {
		return
	}

	distCache := newPathDistanceCache()

	for i := range records {
		r := &records[i]
		if r.Status != diffmodel.StatusRenamed && r.Status != diffmodel.StatusCopied {
			continue
		}
		if !r.HasRenameScore || !r.HasSizeNew {
			continue
		}

		winnerProxy, ok := sizeProxy(r.SizeOld, r.HasSizeOld, r.SizeNew)
		if !ok {
			continue
		}

		contenders := []string{r.PathOld}
		for _, del := range deletes {
			if del.PathOld == r.PathOld {
				continue
			}
			proxy, ok := sizeProxy(del.SizeOld, true, r.SizeNew)
			if !ok {
				continue
			}
			if abs(proxy-winnerProxy) <= 1 {
				contenders = append(contenders, del.PathOld)
			}
		}

		if len(contenders) < 2 {
			continue
		}

		sources := append([]diffmodel.FileChangeRecord{{PathOld: r.PathOld, SizeOld: r.SizeOld, HasSizeOld: r.HasSizeOld}}, deletes...)
		winner, rule := breakTie(r.PathNew, contenders, r.SizeNew, sources, distCache)
		r.PathOld = winner
		r.RenameTiebreak = rule
	}
}

// sizeProxy estimates content-similarity percent between an old-side size
// and a new-side size, compared as an absolute difference.
func sizeProxy(oldSize int64, hasOld bool, newSize int64) (int, bool) {
	if !hasOld {
		return 0, false
	}
	maxSize := oldSize
	if newSize > maxSize {
		maxSize = newSize
	}
	if maxSize == 0 {
		return 100, true
	}
	diff := oldSize - newSize
	if diff < 0 {
		diff = -diff
	}
	pct := 100 - int(diff*100/maxSize)
	if pct < 0 {
		pct = 0
	}
	return pct, true
}

// breakTie applies, in order: (i) smallest path-component edit distance to
// target; (ii) smallest absolute size difference between old and new sides;
// (iii) lexicographically smallest path_old.
func breakTie(target string, candidates []string, targetNewSize int64, deletes []diffmodel.FileChangeRecord, distCache *pathDistanceCache) (string, diffmodel.RenameTiebreaker) {
	sizeOf := func(path string) (int64, bool) {
		for _, d := range deletes {
			if d.PathOld == path {
				return d.SizeOld, d.HasSizeOld
			}
		}
		return 0, false
	}

	best := candidates[0]
	bestDist := distCache.distance(target, best)
	tied := []string{best}
	for _, c := range candidates[1:] {
		dist := distCache.distance(target, c)
		switch {
		case dist < bestDist:
			best = c
			bestDist = dist
			tied = []string{c}
		case dist == bestDist:
			tied = append(tied, c)
		}
	}
	if len(tied) == 1 {
		return best, diffmodel.TiebreakPath
	}

	best = tied[0]
	bestDiff, _ := sizeDiffTo(best, targetNewSize, sizeOf)
	tied2 := []string{best}
	for _, c := range tied[1:] {
		diff, ok := sizeDiffTo(c, targetNewSize, sizeOf)
		if !ok {
			continue
		}
		switch {
		case diff < bestDiff:
			best = c
			bestDiff = diff
			tied2 = []string{c}
		case diff == bestDiff:
			tied2 = append(tied2, c)
		}
	}
	if len(tied2) == 1 {
		return best, diffmodel.TiebreakSize
	}

	sort.Strings(tied2)
	return tied2[0], diffmodel.TiebreakLex
}

func sizeDiffTo(path string, targetNewSize int64, sizeOf func(string) (int64, bool)) (int64, bool) {
	size, ok := sizeOf(path)
	if !ok {
		return 0, false
	}
	diff := size - targetNewSize
	if diff < 0 {
		diff = -diff
	}
	return diff, true
}

// pathDistanceCache memoizes pathDistance by an xxhash fingerprint of the
// ordered pair, since breakTie calls it once per contending rename source
// and the same (target, candidate) pair can recur across several ambiguous
// renames landing on shared directories in one change set.
type pathDistanceCache struct {
	values map[uint64]int
}

func newPathDistanceCache() *pathDistanceCache {
	return &pathDistanceCache{values: make(map[uint64]int)}
}

func (c *pathDistanceCache) distance(a, b string) int {
	h := xxhash.New()
	h.WriteString(a)
	h.Write([]byte{0})
	h.WriteString(b)
	key := h.Sum64()

	if v, ok := c.values[key]; ok {
		return v
	}
	v := pathDistance(a, b)
	c.values[key] = v
	return v
}

// pathDistance computes the Levenshtein edit distance
// (github.com/xrash/smetrics) between the two paths, component by
// component, so that a shared directory structure reduces the score.
func pathDistance(a, b string) int {
	ac := strings.Split(a, "/")
	bc := strings.Split(b, "/")
	n := len(ac)
	if len(bc) > n {
		n = len(bc)
	}
	total := 0
	for i := 0; i < n; i++ {
		var x, y string
		if i < len(ac) {
			x = ac[i]
		}
		if i < len(bc) {
			y = bc[i]
		}
		total += smetrics.WagnerFischer(x, y, 1, 1, 1)
	}
	return total
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

// sortRecords applies the primary ordering: stable sort by effective path,
// then by status letter in the fixed order A < C < D < M < R < T.
func sortRecords(records []diffmodel.FileChangeRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		pi, pj := records[i].EffectivePath(), records[j].EffectivePath()
		if pi != pj {
			return pi < pj
		}
		return records[i].Status.Rank() < records[j].Status.Rank()
	})
}
