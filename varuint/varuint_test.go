package varuint

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBoundaryTable(t *testing.T) {
	cases := []struct {
		v     uint64
		bytes []byte
	}{
		{0, []byte{0x00}},
		{127, []byte{0x7f}},
		{128, []byte{0x81, 0x00}},
		{16383, []byte{0xff, 0x7f}},
		{16384, []byte{0x81, 0x80, 0x00}},
	}
	for _, c := range cases {
		got := Encode(c.v)
		require.Equal(t, c.bytes, got, "encode(%d)", c.v)
		require.Equal(t, len(c.bytes), ByteLen(c.v))

		decoded, n, err := Decode(got, 0)
		require.NoError(t, err)
		require.Equal(t, c.v, decoded)
		require.Equal(t, len(c.bytes), n)
	}
}

func TestRoundTripSample(t *testing.T) {
	samples := []uint64{
		0, 1, 2, 63, 64, 65, 126, 127, 128, 129, 255, 256, 65535, 65536,
		1 << 20, 1<<35 + 7, 1<<62 - 1, 1 << 63, 1<<64 - 1,
	}
	for _, v := range samples {
		enc := Encode(v)
		got, n, err := Decode(enc, 0)
		require.NoError(t, err)
		require.Equal(t, v, got)
		require.Equal(t, len(enc), n)
	}
}

func TestDecodeOffsetIntoLargerBuffer(t *testing.T) {
	buf := append([]byte{0xde, 0xad}, Encode(300)...)
	v, n, err := Decode(buf, 2)
	require.NoError(t, err)
	require.Equal(t, uint64(300), v)
	require.Equal(t, 2, n)
}

func TestDecodeTruncated(t *testing.T) {
	_, _, err := Decode([]byte{0x81}, 0)
	require.Error(t, err)
}

func TestZigZag(t *testing.T) {
	for _, v := range []int64{0, -1, 1, -2, 2, 1 << 40, -(1 << 40)} {
		require.Equal(t, v, ZigZagDecode(ZigZagEncode(v)))
	}
}
