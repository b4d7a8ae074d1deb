package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestURIClassification(t *testing.T) {
	require.True(t, New("-").IsStdin())
	require.True(t, New("/tmp/rec.cbf").IsLocal())
	require.True(t, New("file:///tmp/rec.cbf").IsLocal())
	require.True(t, New("https://example.com/rec.cbf").IsRemoteWeb())
	require.True(t, New("").IsZero())
	require.False(t, New("").IsValid())
	require.True(t, New("/tmp/rec.cbf").IsValid())
}

func TestURIPathStripsFileScheme(t *testing.T) {
	require.Equal(t, "/tmp/rec.cbf", New("file:///tmp/rec.cbf").Path())
	require.Equal(t, "/tmp/rec.cbf", New("/tmp/rec.cbf").Path())
}
