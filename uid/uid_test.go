package uid

import (
	"testing"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/require"
)

func TestGenerateMonotonicCounterComponent(t *testing.T) {
	orig := Clock
	mock := clock.NewMock()
	Clock = mock
	defer func() { Clock = orig }()

	a := Generate()
	b := Generate()
	require.Greater(t, b, a)
}

func TestGenerateFallbackDistinct(t *testing.T) {
	require.NotEqual(t, GenerateFallback(), GenerateFallback())
}
