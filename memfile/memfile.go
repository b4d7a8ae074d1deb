// Package memfile implements a growable, cursor-addressed byte buffer used
// as the backing store for carbonfmt records. It plays the role the
// teacher's on-disk index files play for store/index and
// store/freelist, except entirely in memory and with in-place
// insert/remove support for the revise/patch engine.
package memfile

import "errors"

// Mode selects whether a MemFile permits mutation.
type Mode int

const (
	ReadOnly Mode = iota
	ReadWrite
)

var (
	// ErrReadOnly is returned by mutating operations on a ReadOnly MemFile.
	ErrReadOnly = errors.New("memfile: write on read-only buffer")
	// ErrOutOfBounds is returned when a read, peek, seek, or remove would
	// cross the logical end of the buffer.
	ErrOutOfBounds = errors.New("memfile: operation out of bounds")
)

// MemFile is a cursor-addressed byte buffer with read-only and read-write
// modes. It never returns a copy from Read/Peek: callers get a slice of the
// live backing array, valid until the next mutating call.
type MemFile struct {
	buf  []byte
	pos  int
	mode Mode
}

// New wraps an existing byte slice. The slice is taken by reference; in
// ReadWrite mode subsequent growth may reallocate it, so Bytes must be used
// to retrieve the current backing array rather than holding onto the slice
// passed in here.
func New(initial []byte, mode Mode) *MemFile {
	return &MemFile{buf: initial, mode: mode}
}

// Mode reports whether this MemFile accepts mutation.
func (m *MemFile) Mode() Mode { return m.mode }

// SetMode switches between ReadOnly and ReadWrite without touching the
// cursor or backing bytes.
func (m *MemFile) SetMode(mode Mode) { m.mode = mode }

// Tell returns the current cursor position.
func (m *MemFile) Tell() int { return m.pos }

// Len returns the logical size of the buffer.
func (m *MemFile) Len() int { return len(m.buf) }

// Bytes returns the live backing slice. Do not retain across mutating calls.
func (m *MemFile) Bytes() []byte { return m.buf }

// Seek moves the cursor to an absolute offset within [0, Len()].
func (m *MemFile) Seek(abs int) error {
	if abs < 0 || abs > len(m.buf) {
		return ErrOutOfBounds
	}
	m.pos = abs
	return nil
}

// Skip moves the cursor by a signed delta relative to its current position.
func (m *MemFile) Skip(delta int) error {
	return m.Seek(m.pos + delta)
}

// Read returns a borrowed slice of the next n bytes and advances the cursor.
// It fails if fewer than n bytes remain.
func (m *MemFile) Read(n int) ([]byte, error) {
	if n < 0 || m.pos+n > len(m.buf) {
		return nil, ErrOutOfBounds
	}
	b := m.buf[m.pos : m.pos+n]
	m.pos += n
	return b, nil
}

// ReadByte implements varuint.ByteReader.
func (m *MemFile) ReadByte() (byte, error) {
	b, err := m.Read(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// Peek behaves like Read but does not advance the cursor.
func (m *MemFile) Peek(n int) ([]byte, error) {
	if n < 0 || m.pos+n > len(m.buf) {
		return nil, ErrOutOfBounds
	}
	return m.buf[m.pos : m.pos+n], nil
}

// PeekByte peeks a single byte without advancing, failing at logical end.
func (m *MemFile) PeekByte() (byte, error) {
	b, err := m.Peek(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// Write copies p into the buffer at the cursor, growing the buffer if the
// write extends past the current logical end, and advances the cursor past
// the written region. Requires ReadWrite mode.
func (m *MemFile) Write(p []byte) error {
	if m.mode != ReadWrite {
		return ErrReadOnly
	}
	end := m.pos + len(p)
	if end > len(m.buf) {
		m.buf = append(m.buf, make([]byte, end-len(m.buf))...)
	}
	copy(m.buf[m.pos:end], p)
	m.pos = end
	return nil
}

// WriteByte writes a single byte at the cursor.
func (m *MemFile) WriteByte(b byte) error {
	return m.Write([]byte{b})
}

// EnsureSpace grows the logical buffer, if necessary, so that n bytes are
// writable at the cursor without a subsequent Write needing to reallocate
// mid-sequence. It does not advance the cursor.
func (m *MemFile) EnsureSpace(n int) error {
	if m.mode != ReadWrite {
		return ErrReadOnly
	}
	need := m.pos + n
	if need > len(m.buf) {
		m.buf = append(m.buf, make([]byte, need-len(m.buf))...)
	}
	return nil
}

// InplaceInsert opens an n-byte, zero-filled hole at the cursor by shifting
// all bytes from the cursor onward to the right. The cursor is left
// pointing at the start of the new hole so a following Write fills it.
func (m *MemFile) InplaceInsert(n int) error {
	if m.mode != ReadWrite {
		return ErrReadOnly
	}
	if n < 0 {
		return ErrOutOfBounds
	}
	if n == 0 {
		return nil
	}
	m.buf = append(m.buf, make([]byte, n)...)
	copy(m.buf[m.pos+n:], m.buf[m.pos:len(m.buf)-n])
	for i := m.pos; i < m.pos+n; i++ {
		m.buf[i] = 0
	}
	return nil
}

// InplaceRemove closes an n-byte region starting at the cursor by shifting
// the tail left and shrinking the logical size. The cursor does not move.
func (m *MemFile) InplaceRemove(n int) error {
	if m.mode != ReadWrite {
		return ErrReadOnly
	}
	if n < 0 {
		return ErrOutOfBounds
	}
	if n == 0 {
		return nil
	}
	if m.pos+n > len(m.buf) {
		return ErrOutOfBounds
	}
	copy(m.buf[m.pos:], m.buf[m.pos+n:])
	m.buf = m.buf[:len(m.buf)-n]
	return nil
}

// Truncate drops all bytes after the current logical size down to n,
// used by the revise engine's shrink pass to release over-reserved tail
// capacity. n must not exceed the current length.
func (m *MemFile) Truncate(n int) error {
	if n < 0 || n > len(m.buf) {
		return ErrOutOfBounds
	}
	m.buf = m.buf[:n]
	if m.pos > n {
		m.pos = n
	}
	return nil
}
