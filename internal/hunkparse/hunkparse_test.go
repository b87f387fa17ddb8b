package hunkparse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtract_SingleHunkAddAndModify(t *testing.T) {
	patch := "@@ -1,2 +1,3 @@\n context\n-old\n+new\n+extra\n"

	res := Extract("a.txt", patch)
	require.Empty(t, res.Note)
	require.Len(t, res.Hunks, 1)

	h := res.Hunks[0]
	assert.Equal(t, 1, h.OldStart)
	assert.Equal(t, 2, h.OldLines)
	assert.Equal(t, 1, h.NewStart)
	assert.Equal(t, 3, h.NewLines)
	assert.Equal(t, 2, h.Added)
	assert.Equal(t, 1, h.Deleted)
}

func TestExtract_MultipleHunks(t *testing.T) {
	patch := "@@ -1,1 +1,1 @@\n-a\n+b\n@@ -10,1 +10,1 @@\n-c\n+d\n"

	res := Extract("a.txt", patch)
	require.Empty(t, res.Note)
	require.Len(t, res.Hunks, 2)
	assert.Equal(t, 10, res.Hunks[1].OldStart)
}

func TestExtract_EmptyPatch(t *testing.T) {
	res := Extract("a.txt", "")
	assert.Empty(t, res.Hunks)
	assert.Empty(t, res.Note)
}

func TestExtract_NoNewlineMarkerDoesNotCountAsChange(t *testing.T) {
	patch := "@@ -1,1 +1,1 @@\n-a\n\\ No newline at end of file\n+b\n"

	res := Extract("a.txt", patch)
	require.Empty(t, res.Note)
	require.Len(t, res.Hunks, 1)
	assert.Equal(t, 1, res.Hunks[0].Added)
	assert.Equal(t, 1, res.Hunks[0].Deleted)
}

func TestExtract_MalformedHeaderProducesNote(t *testing.T) {
	res := Extract("a.txt", "@@ garbage @@\n-a\n+b\n")
	assert.Empty(t, res.Hunks)
	assert.Contains(t, res.Note, "malformed hunk header")
}

func TestExtract_AccountingMismatchProducesNote(t *testing.T) {
	// Header claims 2 old lines but the body only carries 1 deleted line.
	patch := "@@ -1,2 +1,1 @@\n-a\n"

	res := Extract("a.txt", patch)
	assert.Empty(t, res.Hunks)
	assert.Contains(t, res.Note, "hunk accounting mismatch")
}

func TestExtract_WhitespaceOnlyChange(t *testing.T) {
	patch := "@@ -1,1 +1,1 @@\n-foo  bar\n+foo bar\n"

	res := Extract("a.txt", patch)
	require.Len(t, res.Hunks, 1)
	assert.True(t, res.Hunks[0].WhitespaceOnlyChange)
}

func TestExtract_EOLOnlyChange(t *testing.T) {
	patch := "@@ -1,1 +1,1 @@\n-abc\r\n+abc\n"

	res := Extract("a.txt", patch)
	require.Len(t, res.Hunks, 1)
	assert.True(t, res.Hunks[0].EOLOnlyChange)
	assert.True(t, res.Hunks[0].WhitespaceOnlyChange, "a CRLF->LF change is also whitespace-only under \\s stripping")
}

func TestExtract_ContentChangeIsNeitherEOLNorWhitespaceOnly(t *testing.T) {
	patch := "@@ -1,1 +1,1 @@\n-hello\n+goodbye\n"

	res := Extract("a.txt", patch)
	require.Len(t, res.Hunks, 1)
	assert.False(t, res.Hunks[0].EOLOnlyChange)
	assert.False(t, res.Hunks[0].WhitespaceOnlyChange)
}

func TestExtract_UnpairedAddsAndDeletesAreNeitherClassification(t *testing.T) {
	patch := "@@ -1,1 +1,2 @@\n-old\n+new1\n+new2\n"

	res := Extract("a.txt", patch)
	require.Len(t, res.Hunks, 1)
	assert.False(t, res.Hunks[0].EOLOnlyChange)
	assert.False(t, res.Hunks[0].WhitespaceOnlyChange)
}

func TestExtract_PreservesPatchTextVerbatim(t *testing.T) {
	patch := "@@ -1,1 +1,1 @@\n-old\n+new\n"

	res := Extract("a.txt", patch)
	require.Len(t, res.Hunks, 1)
	assert.Equal(t, patch, res.Hunks[0].Patch)
}
