package capengine

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/presidioforts/PR-Diff-Ingestion/internal/diffmodel"
	"github.com/presidioforts/PR-Diff-Ingestion/internal/policy"
)

func hunkOfSize(header string, n int) diffmodel.Hunk {
	return diffmodel.Hunk{Header: header, Patch: strings.Repeat("x", n)}
}

func TestRun_FileExactlyAtCapIsNotTruncated(t *testing.T) {
	files := []diffmodel.FileChangeRecord{
		{PathNew: "a.go", Hunks: []diffmodel.Hunk{hunkOfSize("h1", 100)}},
	}

	out, err := Run(files, Options{CapTotal: 1000, CapFile: 100, Policies: policy.Default()})
	require.NoError(t, err)
	assert.False(t, out.Files[0].Truncated)
	assert.Len(t, out.Files[0].Hunks, 1)
}

func TestRun_SingleOversizedHunkKeptInFull(t *testing.T) {
	files := []diffmodel.FileChangeRecord{
		{PathNew: "a.go", Hunks: []diffmodel.Hunk{hunkOfSize("h1", 150)}},
	}

	out, err := Run(files, Options{CapTotal: 1000, CapFile: 100, Policies: policy.Default()})
	require.NoError(t, err)
	f := out.Files[0]
	assert.True(t, f.Truncated)
	assert.Equal(t, 0, f.OmittedHunksCount)
	require.Len(t, f.Hunks, 1)
	assert.Equal(t, "h1", f.Hunks[0].Header)
}

func TestRun_PreservesFirstAndLastHunkOnOverflow(t *testing.T) {
	files := []diffmodel.FileChangeRecord{
		{PathNew: "a.go", Hunks: []diffmodel.Hunk{
			hunkOfSize("h1", 40),
			hunkOfSize("h2", 40),
			hunkOfSize("h3", 40),
			hunkOfSize("h4", 40),
		}},
	}

	out, err := Run(files, Options{CapTotal: 1000, CapFile: 100, Policies: policy.Default()})
	require.NoError(t, err)
	f := out.Files[0]
	assert.True(t, f.Truncated)

	headers := make([]string, len(f.Hunks))
	for i, h := range f.Hunks {
		headers[i] = h.Header
	}
	assert.Contains(t, headers, "h1")
	assert.Contains(t, headers, "h4")
	assert.Equal(t, 2, f.OmittedHunksCount)
}

func TestRun_BinaryAndSubmoduleNeverCapped(t *testing.T) {
	files := []diffmodel.FileChangeRecord{
		{PathNew: "img.png", IsBinary: true},
		{PathNew: "vendor/lib", IsSubmodule: true, SubmoduleSHAs: &diffmodel.Submodule{OldSHA: "a", NewSHA: "b"}},
	}

	out, err := Run(files, Options{CapTotal: 10, CapFile: 5, Policies: policy.Default()})
	require.NoError(t, err)
	assert.Empty(t, out.Files[0].Hunks)
	assert.Empty(t, out.Files[1].Hunks)
	assert.Equal(t, 0, out.OmittedFilesCount)
}

func TestRun_SummarizesOversizedLockfile(t *testing.T) {
	files := []diffmodel.FileChangeRecord{
		{PathNew: "package-lock.json", Hunks: []diffmodel.Hunk{hunkOfSize("h1", 200000)}},
	}

	out, err := Run(files, Options{CapTotal: 800000, CapFile: 64000, Policies: policy.Default()})
	require.NoError(t, err)
	f := out.Files[0]
	assert.True(t, f.Summarized)
	assert.Empty(t, f.Hunks)
	assert.Contains(t, out.Notes, "summarized lockfile: package-lock.json")
}

func TestRun_SmallLockfileIsNotSummarized(t *testing.T) {
	files := []diffmodel.FileChangeRecord{
		{PathNew: "go.sum", Hunks: []diffmodel.Hunk{hunkOfSize("h1", 10)}},
	}

	out, err := Run(files, Options{CapTotal: 800000, CapFile: 64000, Policies: policy.Default()})
	require.NoError(t, err)
	assert.False(t, out.Files[0].Summarized)
	assert.Len(t, out.Files[0].Hunks, 1)
}

func TestRun_GlobalCapOmitsLaterFiles(t *testing.T) {
	files := []diffmodel.FileChangeRecord{
		{PathNew: "a.go", Hunks: []diffmodel.Hunk{hunkOfSize("h1", 400000)}},
		{PathNew: "b.go", Hunks: []diffmodel.Hunk{hunkOfSize("h1", 400000)}},
		{PathNew: "c.go", Hunks: []diffmodel.Hunk{hunkOfSize("h1", 400000)}},
	}

	out, err := Run(files, Options{CapTotal: 800000, CapFile: 500000, Policies: policy.Default()})
	require.NoError(t, err)
	assert.NotEmpty(t, out.Files[0].Hunks)
	assert.NotEmpty(t, out.Files[1].Hunks)
	assert.Empty(t, out.Files[2].Hunks)
	assert.Equal(t, 1, out.OmittedFilesCount)
}

func TestRun_GlobalCapIsBestEffortNotFirstFit(t *testing.T) {
	files := []diffmodel.FileChangeRecord{
		{PathNew: "big.go", Hunks: []diffmodel.Hunk{hunkOfSize("h1", 900)}},
		{PathNew: "small.go", Hunks: []diffmodel.Hunk{hunkOfSize("h1", 50)}},
	}

	out, err := Run(files, Options{CapTotal: 100, CapFile: 1000, Policies: policy.Default()})
	require.NoError(t, err)
	assert.Empty(t, out.Files[0].Hunks, "big.go overflows on its own and is omitted")
	assert.NotEmpty(t, out.Files[1].Hunks, "small.go still fits and is admitted despite big.go's earlier overflow")
	assert.Equal(t, 1, out.OmittedFilesCount)
}
