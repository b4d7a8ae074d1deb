package carbonio

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMemorySourceReadAtAndSize(t *testing.T) {
	src := NewMemorySource([]byte("hello carbonfmt"))
	defer src.Close()

	size, err := src.Size()
	require.NoError(t, err)
	require.EqualValues(t, len("hello carbonfmt"), size)

	buf := make([]byte, 5)
	n, err := src.ReadAt(buf, 6)
	require.NoError(t, err)
	require.Equal(t, 5, n)
	require.Equal(t, "carbo", string(buf))
}

func TestMemorySourceRejectsAfterClose(t *testing.T) {
	src := NewMemorySource([]byte("x"))
	require.NoError(t, src.Close())
	_, err := src.Size()
	require.ErrorIs(t, err, ErrClosed)
}

func TestFileSourceReadsBackWrittenBytes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rec.cbf")
	require.NoError(t, os.WriteFile(path, []byte("recordbytes"), 0o644))

	src, err := OpenFileSource(path)
	require.NoError(t, err)
	defer src.Close()

	size, err := src.Size()
	require.NoError(t, err)
	require.EqualValues(t, len("recordbytes"), size)

	all, err := ReadAll(src)
	require.NoError(t, err)
	require.Equal(t, "recordbytes", string(all))
}

func TestOpenFileSourceMissingFile(t *testing.T) {
	_, err := OpenFileSource(filepath.Join(t.TempDir(), "missing.cbf"))
	require.Error(t, err)
}
