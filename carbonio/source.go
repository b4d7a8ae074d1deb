// Package carbonio supplements spec.md's dictionary/archive carve-out
// with a small transport-capability abstraction for where a record's
// bytes live, the way the original carbon-io-device.h vtable decoupled
// the core format from its backing storage. It is deliberately minimal:
// ReadAt/Size/Close, modeled on the teacher's FileCache open/close
// lifecycle (gsfa/store/filecache) but without the LRU bookkeeping,
// since a Source owns exactly one handle for its lifetime.
package carbonio

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
)

// ErrClosed is returned by any Source method called after Close.
var ErrClosed = errors.New("carbonio: source is closed")

// Source is a random-access byte range a record can be parsed from or
// serialized into: a local file, an in-memory buffer, or any other
// future transport that can answer ReadAt/Size.
type Source interface {
	io.ReaderAt
	Size() (int64, error)
	Close() error
}

// memorySource wraps an in-memory byte slice, for records built or held
// entirely in process (e.g. the output of container/revise before it is
// ever written to disk).
type memorySource struct {
	r      *bytes.Reader
	closed bool
}

// NewMemorySource wraps buf as a Source. buf is not copied; the caller
// must not mutate it while the Source is open.
func NewMemorySource(buf []byte) Source {
	return &memorySource{r: bytes.NewReader(buf)}
}

func (m *memorySource) ReadAt(p []byte, off int64) (int, error) {
	if m.closed {
		return 0, ErrClosed
	}
	return m.r.ReadAt(p, off)
}

func (m *memorySource) Size() (int64, error) {
	if m.closed {
		return 0, ErrClosed
	}
	return m.r.Size(), nil
}

func (m *memorySource) Close() error {
	m.closed = true
	return nil
}

// fileSource wraps an *os.File opened read-only against a path on disk.
type fileSource struct {
	f      *os.File
	size   int64
	closed bool
}

// OpenFileSource opens path read-only as a Source.
func OpenFileSource(path string) (Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("carbonio: open %s: %w", path, err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("carbonio: stat %s: %w", path, err)
	}
	return &fileSource{f: f, size: info.Size()}, nil
}

func (fs *fileSource) ReadAt(p []byte, off int64) (int, error) {
	if fs.closed {
		return 0, ErrClosed
	}
	return fs.f.ReadAt(p, off)
}

func (fs *fileSource) Size() (int64, error) {
	if fs.closed {
		return 0, ErrClosed
	}
	return fs.size, nil
}

func (fs *fileSource) Close() error {
	if fs.closed {
		return nil
	}
	fs.closed = true
	return fs.f.Close()
}

// ReadAll pulls the entirety of src into memory, the shape record.FromBytes
// expects.
func ReadAll(src Source) ([]byte, error) {
	size, err := src.Size()
	if err != nil {
		return nil, err
	}
	buf := make([]byte, size)
	if _, err := src.ReadAt(buf, 0); err != nil && err != io.EOF {
		return nil, err
	}
	return buf, nil
}
