package container

import (
	"testing"

	"github.com/jaksonlabs/carbonfmt/field"
	"github.com/jaksonlabs/carbonfmt/memfile"
	"github.com/stretchr/testify/require"
)

func TestInserterProtocolMismatchWhileChildOpen(t *testing.T) {
	mf, beginAt := newEmptyArray(t, field.UnsortedMultiset)
	it, err := OpenArray(mf, beginAt, memfile.ReadWrite)
	require.NoError(t, err)
	ins := it.InsertBegin()

	child, err := ins.InsertArrayBegin(field.UnsortedMultiset)
	require.NoError(t, err)

	err = ins.InsertU8(1)
	require.ErrorIs(t, err, ErrProtocolMismatch)

	otherChild := &Inserter{kind: sinkArray}
	err = ins.InsertArrayEnd(otherChild)
	require.ErrorIs(t, err, ErrProtocolMismatch)

	require.NoError(t, ins.InsertArrayEnd(child))
	require.NoError(t, ins.InsertU8(2))
}

func TestInserterWrongKindRejected(t *testing.T) {
	mf, beginAt := newEmptyArray(t, field.UnsortedMultiset)
	it, err := OpenArray(mf, beginAt, memfile.ReadWrite)
	require.NoError(t, err)
	ins := it.InsertBegin()
	err = ins.InsertProp("x")
	require.ErrorIs(t, err, ErrWrongKind)
}

func TestInserterColumnRejectsNesting(t *testing.T) {
	mf := newEmptyColumn(t, field.UnsortedMultiset, field.ColU8)
	col, err := OpenColumn(mf, 0, memfile.ReadWrite)
	require.NoError(t, err)
	ins := col.InsertBegin()
	_, err = ins.InsertArrayBegin(field.UnsortedMultiset)
	require.ErrorIs(t, err, ErrNoNesting)
}
