package revise

import (
	"testing"

	"github.com/jaksonlabs/carbonfmt/container"
	"github.com/jaksonlabs/carbonfmt/field"
	"github.com/jaksonlabs/carbonfmt/memfile"
	"github.com/jaksonlabs/carbonfmt/record"
	"github.com/stretchr/testify/require"
)

func newAutoKeyRecord(t *testing.T) *record.Record {
	t.Helper()
	rec, err := record.New(record.AutoKey, field.UnsortedMultiset)
	require.NoError(t, err)
	return rec
}

func appendU64(t *testing.T, rec *record.Record, v uint64) {
	t.Helper()
	root, err := container.OpenArray(rec.MemFile(), rec.PayloadOffset(), memfile.ReadWrite)
	require.NoError(t, err)
	ins := root.InsertBegin()
	require.NoError(t, ins.InsertU64(v))
}

func TestBeginEndReviseRecomputesCommitHash(t *testing.T) {
	rec := newAutoKeyRecord(t)
	before, err := rec.CommitHash()
	require.NoError(t, err)

	ctx, err := Begin(rec, ReviseMode, nil)
	require.NoError(t, err)
	appendU64(t, ctx.Record(), 42)
	working, err := ctx.End()
	require.NoError(t, err)

	after, err := working.CommitHash()
	require.NoError(t, err)
	require.NotEqual(t, before, after)

	// the original record is untouched by a Revise session.
	origAfter, err := rec.CommitHash()
	require.NoError(t, err)
	require.Equal(t, before, origAfter)
}

func TestPatchLeavesCommitHashUntouched(t *testing.T) {
	rec := newAutoKeyRecord(t)
	before, err := rec.CommitHash()
	require.NoError(t, err)

	ctx, err := Begin(rec, PatchMode, nil)
	require.NoError(t, err)
	appendU64(t, ctx.Record(), 7)
	working, err := ctx.End()
	require.NoError(t, err)
	require.Same(t, rec, working)

	after, err := working.CommitHash()
	require.NoError(t, err)
	require.Equal(t, before, after)
}

func TestTryBeginFailsWhileSessionOpen(t *testing.T) {
	rec := newAutoKeyRecord(t)
	ctx, err := TryBegin(rec, PatchMode, nil)
	require.NoError(t, err)

	_, err = TryBegin(rec, PatchMode, nil)
	require.ErrorIs(t, err, ErrAlreadyOpen)

	require.NoError(t, ctx.Abort())

	ctx2, err := TryBegin(rec, PatchMode, nil)
	require.NoError(t, err)
	require.NoError(t, ctx2.Abort())
}

func TestEndAfterCloseIsRejected(t *testing.T) {
	rec := newAutoKeyRecord(t)
	ctx, err := Begin(rec, PatchMode, nil)
	require.NoError(t, err)
	_, err = ctx.End()
	require.NoError(t, err)

	_, err = ctx.End()
	require.ErrorIs(t, err, ErrClosed)

	err = ctx.Abort()
	require.ErrorIs(t, err, ErrClosed)
}

func TestNoKeyRecordReviseSkipsCommitSection(t *testing.T) {
	rec, err := record.New(record.NoKey, field.UnsortedMultiset)
	require.NoError(t, err)

	ctx, err := Begin(rec, ReviseMode, nil)
	require.NoError(t, err)
	appendU64(t, ctx.Record(), 1)
	working, err := ctx.End()
	require.NoError(t, err)

	key, err := working.Key()
	require.NoError(t, err)
	require.Equal(t, record.NoKey, key.Variant)
}

func TestRevisionCounterTracksOnlyWhenEnabled(t *testing.T) {
	rec := newAutoKeyRecord(t)

	disabled := NewRevisionCounter(false)
	ctx, err := Begin(rec, PatchMode, disabled)
	require.NoError(t, err)
	_, err = ctx.End()
	require.NoError(t, err)
	require.Empty(t, disabled.counts)

	enabled := NewRevisionCounter(true)
	ctx2, err := Begin(rec, PatchMode, enabled)
	require.NoError(t, err)
	working, err := ctx2.End()
	require.NoError(t, err)
	require.Equal(t, uint64(1), enabled.counts[working])

	ctx3, err := Begin(rec, PatchMode, enabled)
	require.NoError(t, err)
	working2, err := ctx3.End()
	require.NoError(t, err)
	require.Equal(t, uint64(2), enabled.counts[working2])
}
