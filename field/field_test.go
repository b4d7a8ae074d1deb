package field

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPredicatesExhaustiveAndDisjoint(t *testing.T) {
	allTags := []Tag{
		Null, True, False,
		U8, U16, U32, U64, I8, I16, I32, I64, F32,
		String, BinaryStandard, BinaryCustom,
		ArrayUnsortedMultiset, ArraySortedMultiset, ArrayUnsortedSet, ArraySortedSet, ArrayEnd,
		ColumnUnsortedMultiset, ColumnSortedMultiset, ColumnUnsortedSet, ColumnSortedSet, ColumnEnd,
		ObjectUnsortedMultiset, ObjectSortedMultiset, ObjectUnsortedSet, ObjectSortedSet, ObjectEnd,
	}
	for _, tag := range allTags {
		classes := 0
		for _, in := range []bool{
			IsConstant(tag), IsNumber(tag), IsString(tag), IsBinary(tag),
			IsContainerBegin(tag), IsContainerEnd(tag),
		} {
			if in {
				classes++
			}
		}
		require.Equal(t, 1, classes, "tag %v must belong to exactly one top-level class", tag)
	}
}

func TestSignedUnsignedPartitionNumbers(t *testing.T) {
	for _, tag := range []Tag{U8, U16, U32, U64, I8, I16, I32, I64, F32} {
		require.True(t, IsNumber(tag))
		isS, isU, isF := IsSigned(tag), IsUnsigned(tag), IsFloat(tag)
		count := 0
		for _, b := range []bool{isS, isU, isF} {
			if b {
				count++
			}
		}
		require.Equal(t, 1, count, "tag %v", tag)
	}
}

func TestContainerTagRoundTrip(t *testing.T) {
	for _, at := range []AbstractType{UnsortedMultiset, SortedMultiset, UnsortedSet, SortedSet} {
		require.Equal(t, at, ArrayAbstractType(ArrayTag(at)))
		require.Equal(t, at, ColumnAbstractType(ColumnTag(at)))
		require.Equal(t, at, ObjectAbstractType(ObjectTag(at)))
	}
}

func TestFixedWidth(t *testing.T) {
	require.Equal(t, 1, FixedWidth(U8))
	require.Equal(t, 8, FixedWidth(I64))
	require.Equal(t, 4, FixedWidth(F32))
}

func TestNullSentinelTable(t *testing.T) {
	require.Equal(t, []byte{0xFF}, NullSentinelBits(ColU8))
	require.Equal(t, []byte{0x80}, NullSentinelBits(ColI8))
	require.True(t, IsNullBits(ColU8, []byte{0xFF}))
	require.False(t, IsNullBits(ColU8, []byte{0x00}))
	require.True(t, IsNullBits(ColBool, []byte{0}))
	require.False(t, IsNullBits(ColBool, []byte{1}))
}
