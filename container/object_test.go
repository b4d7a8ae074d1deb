package container

import (
	"testing"

	"github.com/jaksonlabs/carbonfmt/field"
	"github.com/jaksonlabs/carbonfmt/memfile"
	"github.com/stretchr/testify/require"
)

func newEmptyObject(t *testing.T, at field.AbstractType) *memfile.MemFile {
	t.Helper()
	mf := memfile.New(nil, memfile.ReadWrite)
	require.NoError(t, mf.WriteByte(byte(field.ObjectTag(at))))
	require.NoError(t, mf.WriteByte(byte(field.ObjectEnd)))
	return mf
}

func TestObjectInsertAndIterateProps(t *testing.T) {
	mf := newEmptyObject(t, field.UnsortedMultiset)
	obj, err := OpenObject(mf, 0, memfile.ReadWrite)
	require.NoError(t, err)

	ins := obj.InsertBegin()
	require.NoError(t, ins.InsertPropString("name", "alice"))
	require.NoError(t, ins.InsertPropU64("age", 30))

	obj.Rewind()
	_, ok, err := obj.Next()
	require.NoError(t, err)
	require.True(t, ok)
	name, err := obj.PropName()
	require.NoError(t, err)
	require.Equal(t, "name", name)
	sv, err := obj.StringValue()
	require.NoError(t, err)
	require.Equal(t, "alice", sv)

	_, ok, err = obj.Next()
	require.NoError(t, err)
	require.True(t, ok)
	name, err = obj.PropName()
	require.NoError(t, err)
	require.Equal(t, "age", name)
	uv, err := obj.U64Value()
	require.NoError(t, err)
	require.Equal(t, uint64(30), uv)

	_, ok, err = obj.Next()
	require.NoError(t, err)
	require.False(t, ok)
}

func TestObjectRemovePropExcisesKeyAndValue(t *testing.T) {
	mf := newEmptyObject(t, field.UnsortedMultiset)
	obj, err := OpenObject(mf, 0, memfile.ReadWrite)
	require.NoError(t, err)
	ins := obj.InsertBegin()
	require.NoError(t, ins.InsertPropU64("a", 1))
	require.NoError(t, ins.InsertPropU64("b", 2))

	obj.Rewind()
	_, _, err = obj.Next()
	require.NoError(t, err)
	require.NoError(t, obj.Remove())

	_, ok, err := obj.Next()
	require.NoError(t, err)
	require.True(t, ok)
	name, err := obj.PropName()
	require.NoError(t, err)
	require.Equal(t, "b", name)
}

func TestNestedObjectInsideObject(t *testing.T) {
	mf := newEmptyObject(t, field.UnsortedMultiset)
	obj, err := OpenObject(mf, 0, memfile.ReadWrite)
	require.NoError(t, err)
	ins := obj.InsertBegin()
	require.NoError(t, ins.InsertProp("nested"))
	child, err := ins.InsertObjectBegin(field.UnsortedMultiset)
	require.NoError(t, err)
	require.NoError(t, child.InsertPropU64("x", 9))
	require.NoError(t, ins.InsertObjectEnd(child))

	obj.Rewind()
	tag, ok, err := obj.Next()
	require.NoError(t, err)
	require.True(t, ok)
	require.True(t, field.IsObjectBegin(tag))
	name, err := obj.PropName()
	require.NoError(t, err)
	require.NotEmpty(t, name)

	nested, err := obj.ObjectValue()
	require.NoError(t, err)
	_, ok, err = nested.Next()
	require.NoError(t, err)
	require.True(t, ok)
	nv, err := nested.U64Value()
	require.NoError(t, err)
	require.Equal(t, uint64(9), nv)
}
