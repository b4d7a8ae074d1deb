package strcodec

import (
	"testing"

	"github.com/jaksonlabs/carbonfmt/memfile"
	"github.com/stretchr/testify/require"
)

func TestStringRoundTripWithMarker(t *testing.T) {
	mf := memfile.New(nil, memfile.ReadWrite)
	require.NoError(t, WriteString(mf, "hello, carbon", true))
	require.NoError(t, mf.Seek(0))
	s, err := ReadString(mf, true)
	require.NoError(t, err)
	require.Equal(t, "hello, carbon", s)
}

func TestStringRoundTripNoMarker(t *testing.T) {
	mf := memfile.New(nil, memfile.ReadWrite)
	require.NoError(t, WriteString(mf, "key", false))
	require.NoError(t, mf.Seek(0))
	s, err := ReadString(mf, false)
	require.NoError(t, err)
	require.Equal(t, "key", s)
}

func TestStringRejectsInvalidUTF8(t *testing.T) {
	mf := memfile.New(nil, memfile.ReadWrite)
	require.ErrorIs(t, WriteString(mf, string([]byte{0xff, 0xfe}), false), ErrInvalidUTF8)
}

func TestBinaryRoundTrip(t *testing.T) {
	mf := memfile.New(nil, memfile.ReadWrite)
	require.NoError(t, WriteBinary(mf, true, 7, []byte{1, 2, 3}))
	require.NoError(t, mf.Seek(0))
	custom, mimeID, data, err := ReadBinary(mf)
	require.NoError(t, err)
	require.True(t, custom)
	require.Equal(t, uint64(7), mimeID)
	require.Equal(t, []byte{1, 2, 3}, data)
}
