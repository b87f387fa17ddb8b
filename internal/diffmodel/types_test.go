package diffmodel

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatus_Rank_FixedOrder(t *testing.T) {
	assert.Less(t, StatusAdded.Rank(), StatusCopied.Rank())
	assert.Less(t, StatusCopied.Rank(), StatusDeleted.Rank())
	assert.Less(t, StatusDeleted.Rank(), StatusModified.Rank())
	assert.Less(t, StatusModified.Rank(), StatusRenamed.Rank())
	assert.Less(t, StatusRenamed.Rank(), StatusTypeChang.Rank())
}

func TestStatus_Rank_Unknown(t *testing.T) {
	assert.Equal(t, -1, Status("Z").Rank())
}

func TestHunk_ByteLen(t *testing.T) {
	h := Hunk{Patch: "@@ -1 +1 @@\n-a\n+b\n"}
	assert.Equal(t, len(h.Patch), h.ByteLen())
}

func TestFileChangeRecord_EffectivePath(t *testing.T) {
	add := FileChangeRecord{PathNew: "new.go"}
	assert.Equal(t, "new.go", add.EffectivePath())

	del := FileChangeRecord{PathOld: "old.go"}
	assert.Equal(t, "old.go", del.EffectivePath())

	rename := FileChangeRecord{PathOld: "old.go", PathNew: "new.go"}
	assert.Equal(t, "new.go", rename.EffectivePath())
}

func TestFileChangeRecord_PatchByteTotal(t *testing.T) {
	f := FileChangeRecord{Hunks: []Hunk{
		{Patch: "abc"},
		{Patch: "de"},
	}}
	assert.Equal(t, 5, f.PatchByteTotal())
}

func TestFileChangeRecord_PatchByteTotal_Empty(t *testing.T) {
	f := FileChangeRecord{}
	assert.Equal(t, 0, f.PatchByteTotal())
}

func TestPayload_AppendNote_DedupesPreservingOrder(t *testing.T) {
	p := Payload{}
	p.AppendNote("first")
	p.AppendNote("second")
	p.AppendNote("first")

	assert.Equal(t, []string{"first", "second"}, p.Notes)
}

func TestDefaultEnvLocks_FixedMapping(t *testing.T) {
	locks := DefaultEnvLocks()
	assert.Equal(t, "C", locks["LC_ALL"])
	assert.Equal(t, "off", locks["color"])
	assert.Equal(t, "false", locks["core.autocrlf"])
}

func TestSuccess_WrapsPayload(t *testing.T) {
	p := &Payload{}
	env := Success(p)
	assert.True(t, env.OK)
	assert.Same(t, p, env.Data)
	assert.Nil(t, env.Error)
}

func TestFailure_WrapsErrorInfo(t *testing.T) {
	env := Failure("CAPS_INVALID", "bad config", map[string]any{"capFile": -1})
	assert.False(t, env.OK)
	assert.Nil(t, env.Data)
	assert.Equal(t, "CAPS_INVALID", env.Error.Code)
	assert.Equal(t, "bad config", env.Error.Message)
}
