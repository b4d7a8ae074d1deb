package dictionary

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInsertDedupsByValue(t *testing.T) {
	d := NewNaive()
	id1, err := d.Insert("hello")
	require.NoError(t, err)
	id2, err := d.Insert("hello")
	require.NoError(t, err)
	require.Equal(t, id1, id2)
	require.Equal(t, 1, d.Len())
}

func TestLookupAndRemove(t *testing.T) {
	d := NewNaive()
	id, err := d.Insert("world")
	require.NoError(t, err)

	s, ok := d.Lookup(id)
	require.True(t, ok)
	require.Equal(t, "world", s)

	require.NoError(t, d.Remove(id))
	_, ok = d.Lookup(id)
	require.False(t, ok)

	err = d.Remove(id)
	require.ErrorIs(t, err, ErrNotFound)
}
