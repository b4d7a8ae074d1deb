package container

import (
	"testing"

	"github.com/jaksonlabs/carbonfmt/field"
	"github.com/jaksonlabs/carbonfmt/memfile"
	"github.com/stretchr/testify/require"
)

func newEmptyArray(t *testing.T, at field.AbstractType) (*memfile.MemFile, int) {
	t.Helper()
	mf := memfile.New(nil, memfile.ReadWrite)
	require.NoError(t, mf.WriteByte(byte(field.ArrayTag(at))))
	require.NoError(t, mf.WriteByte(byte(field.ArrayEnd)))
	return mf, 0
}

func TestArrayInsertAndIterate(t *testing.T) {
	mf, beginAt := newEmptyArray(t, field.UnsortedMultiset)
	it, err := OpenArray(mf, beginAt, memfile.ReadWrite)
	require.NoError(t, err)

	ins := it.InsertBegin()
	require.NoError(t, ins.InsertU32(7))
	require.NoError(t, ins.InsertString("hi"))
	require.NoError(t, ins.InsertBool(true))

	it.Rewind()
	tag, ok, err := it.Next()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, field.U32, tag)
	v, err := it.U32Value()
	require.NoError(t, err)
	require.Equal(t, uint32(7), v)

	tag, ok, err = it.Next()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, field.String, tag)
	s, err := it.StringValue()
	require.NoError(t, err)
	require.Equal(t, "hi", s)

	tag, ok, err = it.Next()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, field.True, tag)
	b, err := it.BoolValue()
	require.NoError(t, err)
	require.True(t, b)

	_, ok, err = it.Next()
	require.NoError(t, err)
	require.False(t, ok)
}

func TestArrayPrevReproducesSameElement(t *testing.T) {
	mf, beginAt := newEmptyArray(t, field.UnsortedMultiset)
	it, err := OpenArray(mf, beginAt, memfile.ReadWrite)
	require.NoError(t, err)
	ins := it.InsertBegin()
	require.NoError(t, ins.InsertU8(1))
	require.NoError(t, ins.InsertU8(2))

	it.Rewind()
	_, _, err = it.Next()
	require.NoError(t, err)
	tag1, _, err := it.Next()
	require.NoError(t, err)
	require.True(t, it.Prev())
	tag2, ok, err := it.Next()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, tag1, tag2)
}

func TestArrayUpdateInPlaceFixedWidth(t *testing.T) {
	mf, beginAt := newEmptyArray(t, field.UnsortedMultiset)
	it, err := OpenArray(mf, beginAt, memfile.ReadWrite)
	require.NoError(t, err)
	ins := it.InsertBegin()
	require.NoError(t, ins.InsertU32(1))

	it.Rewind()
	_, _, err = it.Next()
	require.NoError(t, err)
	require.NoError(t, it.UpdateU32(99))
	v, err := it.U32Value()
	require.NoError(t, err)
	require.Equal(t, uint32(99), v)
}

func TestArrayUpdateStringGrowShrinkPropagatesDelta(t *testing.T) {
	mf, beginAt := newEmptyArray(t, field.UnsortedMultiset)
	it, err := OpenArray(mf, beginAt, memfile.ReadWrite)
	require.NoError(t, err)
	ins := it.InsertBegin()
	require.NoError(t, ins.InsertString("short"))
	require.NoError(t, ins.InsertU8(42))

	it.Rewind()
	_, _, err = it.Next()
	require.NoError(t, err)
	require.NoError(t, it.UpdateString("a much longer replacement string"))

	_, _, err = it.Next()
	require.NoError(t, err)
	v, err := it.U8Value()
	require.NoError(t, err)
	require.Equal(t, uint8(42), v, "element after grown string must still resolve correctly")
}

func TestArrayRemoveThenNextYieldsFollowing(t *testing.T) {
	mf, beginAt := newEmptyArray(t, field.UnsortedMultiset)
	it, err := OpenArray(mf, beginAt, memfile.ReadWrite)
	require.NoError(t, err)
	ins := it.InsertBegin()
	require.NoError(t, ins.InsertU8(1))
	require.NoError(t, ins.InsertU8(2))
	require.NoError(t, ins.InsertU8(3))

	it.Rewind()
	_, _, err = it.Next()
	require.NoError(t, err)
	_, _, err = it.Next()
	require.NoError(t, err)
	require.NoError(t, it.Remove())

	_, ok, err := it.Next()
	require.NoError(t, err)
	require.True(t, ok)
	v, err := it.U8Value()
	require.NoError(t, err)
	require.Equal(t, uint8(3), v)
}

func TestNestedArrayInsideArray(t *testing.T) {
	mf, beginAt := newEmptyArray(t, field.UnsortedMultiset)
	it, err := OpenArray(mf, beginAt, memfile.ReadWrite)
	require.NoError(t, err)
	ins := it.InsertBegin()
	child, err := ins.InsertArrayBegin(field.UnsortedMultiset)
	require.NoError(t, err)
	require.NoError(t, child.InsertU8(5))
	require.NoError(t, ins.InsertArrayEnd(child))
	require.NoError(t, ins.InsertU8(9))

	it.Rewind()
	tag, ok, err := it.Next()
	require.NoError(t, err)
	require.True(t, ok)
	require.True(t, field.IsArrayBegin(tag))
	nested, err := it.ArrayValue()
	require.NoError(t, err)
	_, ok, err = nested.Next()
	require.NoError(t, err)
	require.True(t, ok)
	v, err := nested.U8Value()
	require.NoError(t, err)
	require.Equal(t, uint8(5), v)

	tag, ok, err = it.Next()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, field.U8, tag)
}
