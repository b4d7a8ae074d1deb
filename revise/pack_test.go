package revise

import (
	"testing"

	"github.com/jaksonlabs/carbonfmt/container"
	"github.com/jaksonlabs/carbonfmt/field"
	"github.com/jaksonlabs/carbonfmt/memfile"
	"github.com/jaksonlabs/carbonfmt/varuint"
	"github.com/stretchr/testify/require"
)

func newTestColumn(t *testing.T, colType field.ColumnType, values []uint32, nulls []int) *container.ColumnIterator {
	t.Helper()
	mf := memfile.New(nil, memfile.ReadWrite)
	require.NoError(t, mf.WriteByte(byte(field.ColumnTag(field.UnsortedMultiset))))
	require.NoError(t, mf.WriteByte(byte(colType)))
	require.NoError(t, mf.Write(varuint.Encode(0)))
	require.NoError(t, mf.Write(varuint.Encode(0)))
	require.NoError(t, mf.WriteByte(byte(field.ColumnEnd)))

	col, err := container.OpenColumn(mf, 0, memfile.ReadWrite)
	require.NoError(t, err)

	isNull := make(map[int]bool)
	for _, n := range nulls {
		isNull[n] = true
	}
	for i, v := range values {
		idx, err := col.Append()
		require.NoError(t, err)
		if isNull[i] {
			continue
		}
		require.NoError(t, col.UpdateSetU32(idx, v))
	}
	return col
}

func TestPlanCountsTrailingNulls(t *testing.T) {
	col := newTestColumn(t, field.ColU32, []uint32{1, 2, 3, 0, 0}, []int{3, 4})

	plans, err := Plan([]*container.ColumnIterator{col})
	require.NoError(t, err)
	require.Len(t, plans, 1)
	require.Equal(t, 2, plans[0].TrailingNulls)
}

func TestPlanStopsAtFirstNonNullFromTail(t *testing.T) {
	col := newTestColumn(t, field.ColU32, []uint32{1, 0, 3, 0}, []int{1, 3})

	plans, err := Plan([]*container.ColumnIterator{col})
	require.NoError(t, err)
	require.Equal(t, 1, plans[0].TrailingNulls)
}

func TestShrinkRemovesPlannedTrailingNulls(t *testing.T) {
	col := newTestColumn(t, field.ColU32, []uint32{1, 2, 0, 0}, []int{2, 3})

	plans, err := Plan([]*container.ColumnIterator{col})
	require.NoError(t, err)

	removed, err := Shrink(plans)
	require.NoError(t, err)
	require.Equal(t, 2, removed)
	require.Equal(t, 2, col.Count())
}

func TestNeedsPackReportsTrueWhenTrailingNullsExist(t *testing.T) {
	col := newTestColumn(t, field.ColU32, []uint32{1, 0}, []int{1})

	got, err := NeedsPack("rec-a", []*container.ColumnIterator{col})
	require.NoError(t, err)
	require.True(t, got)
}

func TestNeedsPackReportsFalseWhenDense(t *testing.T) {
	col := newTestColumn(t, field.ColU32, []uint32{1, 2, 3}, nil)

	got, err := NeedsPack("rec-b", []*container.ColumnIterator{col})
	require.NoError(t, err)
	require.False(t, got)
}
