package dotpath

import (
	"testing"

	"github.com/jaksonlabs/carbonfmt/memfile"
	"github.com/stretchr/testify/require"
)

func TestSetStringUpdatesResolvedObjectProperty(t *testing.T) {
	rec := buildObjectAtRoot0(t)

	res, err := Find(rec, "[0].name", memfile.ReadWrite)
	require.NoError(t, err)
	require.Equal(t, Resolved, res.Status)
	require.NoError(t, res.SetString("bob"))

	res2, err := Find(rec, "[0].name", memfile.ReadOnly)
	require.NoError(t, err)
	s, err := res2.StringValue()
	require.NoError(t, err)
	require.Equal(t, "bob", s)
}

func TestSetU64UpdatesResolvedNumericProperty(t *testing.T) {
	rec := buildObjectAtRoot0(t)

	res, err := Find(rec, "[0].age", memfile.ReadWrite)
	require.NoError(t, err)
	require.NoError(t, res.SetU64(99))

	res2, err := Find(rec, "[0].age", memfile.ReadOnly)
	require.NoError(t, err)
	v, err := res2.U64Value()
	require.NoError(t, err)
	require.Equal(t, uint64(99), v)
}
