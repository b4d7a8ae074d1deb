package memfile

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestReadWriteCursor(t *testing.T) {
	mf := New([]byte{1, 2, 3, 4, 5}, ReadOnly)
	require.Equal(t, 0, mf.Tell())

	b, err := mf.Read(2)
	require.NoError(t, err)
	require.Equal(t, []byte{1, 2}, b)
	require.Equal(t, 2, mf.Tell())

	p, err := mf.Peek(2)
	require.NoError(t, err)
	require.Equal(t, []byte{3, 4}, p)
	require.Equal(t, 2, mf.Tell(), "peek must not advance")

	_, err = mf.Read(10)
	require.ErrorIs(t, err, ErrOutOfBounds)
}

func TestWriteGrows(t *testing.T) {
	mf := New(nil, ReadWrite)
	require.NoError(t, mf.Write([]byte("hello")))
	require.Equal(t, 5, mf.Len())
	require.Equal(t, []byte("hello"), mf.Bytes())
}

func TestWriteReadOnlyFails(t *testing.T) {
	mf := New([]byte{1}, ReadOnly)
	require.ErrorIs(t, mf.Write([]byte{2}), ErrReadOnly)
}

func TestInplaceInsertShiftsTail(t *testing.T) {
	mf := New([]byte{1, 2, 5, 6}, ReadWrite)
	require.NoError(t, mf.Seek(2))
	require.NoError(t, mf.InplaceInsert(2))
	require.NoError(t, mf.Write([]byte{3, 4}))
	require.Equal(t, []byte{1, 2, 3, 4, 5, 6}, mf.Bytes())
}

func TestInplaceRemoveShiftsTail(t *testing.T) {
	mf := New([]byte{1, 2, 3, 4, 5, 6}, ReadWrite)
	require.NoError(t, mf.Seek(2))
	require.NoError(t, mf.InplaceRemove(2))
	require.Equal(t, []byte{1, 2, 5, 6}, mf.Bytes())
	require.Equal(t, 2, mf.Tell())
}

func TestEnsureSpaceThenWrite(t *testing.T) {
	mf := New([]byte{1, 2}, ReadWrite)
	require.NoError(t, mf.Seek(2))
	require.NoError(t, mf.EnsureSpace(3))
	require.Equal(t, 5, mf.Len())
	require.NoError(t, mf.Write([]byte{9, 9, 9}))
	require.Equal(t, []byte{1, 2, 9, 9, 9}, mf.Bytes())
}

func TestTruncate(t *testing.T) {
	mf := New([]byte{1, 2, 3, 4}, ReadWrite)
	require.NoError(t, mf.Truncate(2))
	require.Equal(t, []byte{1, 2}, mf.Bytes())
}
