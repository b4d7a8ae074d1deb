package container

import (
	"testing"

	"github.com/jaksonlabs/carbonfmt/field"
	"github.com/jaksonlabs/carbonfmt/memfile"
	"github.com/jaksonlabs/carbonfmt/varuint"
	"github.com/stretchr/testify/require"
)

func newEmptyColumn(t *testing.T, at field.AbstractType, colType field.ColumnType) *memfile.MemFile {
	t.Helper()
	mf := memfile.New(nil, memfile.ReadWrite)
	require.NoError(t, mf.WriteByte(byte(field.ColumnTag(at))))
	require.NoError(t, mf.WriteByte(byte(colType)))
	require.NoError(t, mf.Write(varuint.Encode(0))) // capacity
	require.NoError(t, mf.Write(varuint.Encode(0))) // count
	require.NoError(t, mf.WriteByte(byte(field.ColumnEnd)))
	return mf
}

func TestColumnAppendGrowsCapacity(t *testing.T) {
	mf := newEmptyColumn(t, field.UnsortedMultiset, field.ColU32)
	col, err := OpenColumn(mf, 0, memfile.ReadWrite)
	require.NoError(t, err)

	for i := uint32(0); i < 20; i++ {
		idx, err := col.Append()
		require.NoError(t, err)
		require.NoError(t, col.UpdateSetU32(idx, i*10))
	}
	require.Equal(t, 20, col.Count())
	require.GreaterOrEqual(t, col.Capacity(), 20)

	for i := 0; i < 20; i++ {
		v, err := col.U32At(i)
		require.NoError(t, err)
		require.Equal(t, uint32(i*10), v)
	}
}

func TestColumnNullSentinel(t *testing.T) {
	mf := newEmptyColumn(t, field.UnsortedMultiset, field.ColBool)
	col, err := OpenColumn(mf, 0, memfile.ReadWrite)
	require.NoError(t, err)

	idx, err := col.Append()
	require.NoError(t, err)
	isNull, err := col.ValueIsNull(idx)
	require.NoError(t, err)
	require.True(t, isNull, "freshly appended bool slot must default to null sentinel")

	require.NoError(t, col.UpdateSetBool(idx, true))
	v, notNull, err := col.BoolAt(idx)
	require.NoError(t, err)
	require.True(t, notNull)
	require.True(t, v)

	require.NoError(t, col.UpdateSetNull(idx))
	_, notNull, err = col.BoolAt(idx)
	require.NoError(t, err)
	require.False(t, notNull)
}

func TestColumnRemoveShiftsTail(t *testing.T) {
	mf := newEmptyColumn(t, field.UnsortedMultiset, field.ColU8)
	col, err := OpenColumn(mf, 0, memfile.ReadWrite)
	require.NoError(t, err)
	for i := uint8(0); i < 5; i++ {
		idx, err := col.Append()
		require.NoError(t, err)
		require.NoError(t, col.UpdateSetU8(idx, i))
	}
	require.NoError(t, col.Remove(1))
	require.Equal(t, 4, col.Count())
	v, err := col.U8At(1)
	require.NoError(t, err)
	require.Equal(t, uint8(2), v, "removing slot 1 shifts slot 2 into its place")
}

func TestColumnIterationMatchesSlots(t *testing.T) {
	mf := newEmptyColumn(t, field.UnsortedMultiset, field.ColI16)
	col, err := OpenColumn(mf, 0, memfile.ReadWrite)
	require.NoError(t, err)
	for i := int16(0); i < 3; i++ {
		idx, err := col.Append()
		require.NoError(t, err)
		require.NoError(t, col.UpdateSetI16(idx, i))
	}
	col.Rewind()
	var seen []int16
	for col.HasNext() {
		idx, ok, err := col.Next()
		require.NoError(t, err)
		require.True(t, ok)
		v, err := col.I16At(idx)
		require.NoError(t, err)
		seen = append(seen, v)
	}
	require.Equal(t, []int16{0, 1, 2}, seen)
}
