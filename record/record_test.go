package record

import (
	"testing"

	"github.com/jaksonlabs/carbonfmt/field"
	"github.com/stretchr/testify/require"
)

func TestNewNoKeyHasNoCommitSection(t *testing.T) {
	r, err := New(NoKey, field.UnsortedMultiset)
	require.NoError(t, err)
	key, err := r.Key()
	require.NoError(t, err)
	require.Equal(t, NoKey, key.Variant)

	h1, err := r.CommitHash()
	require.NoError(t, err)
	h2, err := r.CommitHash()
	require.NoError(t, err)
	require.Equal(t, h1, h2, "transient commit must be stable across calls")
}

func TestNewAutoKeyRoundTrip(t *testing.T) {
	r, err := New(AutoKey, field.UnsortedMultiset)
	require.NoError(t, err)
	key, err := r.Key()
	require.NoError(t, err)
	require.Equal(t, AutoKey, key.Variant)
	require.NotZero(t, key.U)

	require.NoError(t, r.SetCommitHash(42))
	h, err := r.CommitHash()
	require.NoError(t, err)
	require.Equal(t, uint64(42), h)
}

func TestSKeyRoundTrip(t *testing.T) {
	r, err := NewWithKey(Key{Variant: SKey, S: "doc-1"}, field.UnsortedMultiset)
	require.NoError(t, err)
	key, err := r.Key()
	require.NoError(t, err)
	require.Equal(t, SKey, key.Variant)
	require.Equal(t, "doc-1", key.S)
}

func TestIKeyNegativeRoundTrip(t *testing.T) {
	r, err := NewWithKey(Key{Variant: IKey, I: -12345}, field.UnsortedMultiset)
	require.NoError(t, err)
	key, err := r.Key()
	require.NoError(t, err)
	require.Equal(t, int64(-12345), key.I)
}

func TestFromBytesRoundTrip(t *testing.T) {
	r, err := New(NoKey, field.UnsortedMultiset)
	require.NoError(t, err)
	r2, err := FromBytes(r.Bytes())
	require.NoError(t, err)
	require.Equal(t, r.Bytes(), r2.Bytes())
}

func TestFromBytesRejectsBadPayload(t *testing.T) {
	_, err := FromBytes([]byte{byte(NoKey), 0xFF})
	require.Error(t, err)
}

func TestCloneIsIndependent(t *testing.T) {
	r, err := New(NoKey, field.UnsortedMultiset)
	require.NoError(t, err)
	clone := r.Clone()
	require.Equal(t, r.Bytes(), clone.Bytes())
	clone.Bytes()[0] = 0xFF
	require.NotEqual(t, r.Bytes()[0], clone.Bytes()[0])
}
