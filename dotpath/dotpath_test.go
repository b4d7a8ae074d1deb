package dotpath

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseBareIdentifiers(t *testing.T) {
	nodes, err := Parse("user.name")
	require.NoError(t, err)
	require.Equal(t, []Node{
		{Kind: KindKey, Key: "user"},
		{Kind: KindKey, Key: "name"},
	}, nodes)
}

func TestParseIndexAndQuoted(t *testing.T) {
	nodes, err := Parse(`items[2]."odd key"`)
	require.NoError(t, err)
	require.Equal(t, []Node{
		{Kind: KindKey, Key: "items"},
		{Kind: KindIndex, Index: 2},
		{Kind: KindKey, Key: "odd key"},
	}, nodes)
}

func TestParseRejectsTrailingDot(t *testing.T) {
	_, err := Parse("a.")
	require.ErrorIs(t, err, ErrSyntax)
}

func TestParseRejectsUnterminatedIndex(t *testing.T) {
	_, err := Parse("a[1")
	require.ErrorIs(t, err, ErrSyntax)
}

func TestStringRoundTrip(t *testing.T) {
	nodes, err := Parse(`a[0].b`)
	require.NoError(t, err)
	require.Equal(t, "a[0].b", String(nodes))
}
