package serialize

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/presidioforts/PR-Diff-Ingestion/internal/diffmodel"
)

func samplePayload() diffmodel.Payload {
	return diffmodel.Payload{
		Provenance: diffmodel.Provenance{
			RepoURL:         "https://example.com/repo.git",
			CommitGood:      "aaaa",
			CommitCandidate: "bbbb",
			Caps:            diffmodel.CapsBlock{CapTotal: 800000, CapFile: 64000, ContextLines: 3},
			RenameDetection: diffmodel.RenameDetectionBlock{Threshold: 90},
			GitVersion:      "2.43.0",
			DiffAlgorithm:   "myers",
			EnvLocks:        diffmodel.DefaultEnvLocks(),
		},
		Files: []diffmodel.FileChangeRecord{
			{Status: diffmodel.StatusModified, PathOld: "a.go", PathNew: "a.go"},
		},
	}
}

func TestPayload_ChecksumIsDeterministic(t *testing.T) {
	p := samplePayload()

	s1, c1, err := Payload(p)
	require.NoError(t, err)
	s2, c2, err := Payload(p)
	require.NoError(t, err)

	assert.Equal(t, c1, c2)
	assert.Equal(t, s1, s2)
	assert.Len(t, c1, 64)
}

func TestPayload_ChecksumExcludesItself(t *testing.T) {
	p := samplePayload()
	_, checksum, err := Payload(p)
	require.NoError(t, err)

	// The digest is taken over the blank-checksum form, so feeding back a
	// payload that already carries its checksum yields the same checksum.
	p.Provenance.Checksum = checksum
	_, checksum2, err := Payload(p)
	require.NoError(t, err)
	assert.Equal(t, checksum, checksum2, "checksum must be stable regardless of the caller's prior value")
}

func TestPayload_ChangesWithContent(t *testing.T) {
	p1 := samplePayload()
	p2 := samplePayload()
	p2.Provenance.CommitCandidate = "cccc"

	_, c1, err := Payload(p1)
	require.NoError(t, err)
	_, c2, err := Payload(p2)
	require.NoError(t, err)

	assert.NotEqual(t, c1, c2)
}

func TestPayload_EmbedsChecksumInOutput(t *testing.T) {
	p := samplePayload()
	serialized, checksum, err := Payload(p)
	require.NoError(t, err)
	assert.True(t, strings.Contains(serialized, checksum))
}
