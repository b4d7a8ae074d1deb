// Package container implements the array, column, and object iterators and
// the Inserter handle bound to them (§4.5-§4.8 of the spec). The three
// iterator kinds and the Inserter stay in one package, unlike most of
// carbonfmt's one-concern-per-package layout, because mod_size delta
// propagation threads an unexported parent-link chain between all four
// types (§9's "commit-byte-delta-to-parent" note) and splitting them across
// packages would force that chain through exported plumbing for no benefit.
package container

import (
	"errors"

	"github.com/jaksonlabs/carbonfmt/field"
	"github.com/jaksonlabs/carbonfmt/memfile"
)

var (
	// ErrNoCachedElement is returned by value accessors and Remove when no
	// successful Next has run since the iterator was built, rewound, or had
	// its cached element removed.
	ErrNoCachedElement = errors.New("container: no cached element; call Next first")
	// ErrTypeMismatch is returned when a typed accessor doesn't match the
	// cached element's tag.
	ErrTypeMismatch = errors.New("container: cached element tag does not match accessor")
	// ErrReadOnly is returned by mutating operations on a read-only iterator.
	ErrReadOnly = errors.New("container: mutation requires read-write mode")
	// ErrOutOfBounds is returned by column index operations past count.
	ErrOutOfBounds = errors.New("container: index out of bounds")
	// ErrDuplicate is returned when a set-typed container rejects an insert
	// that would duplicate an existing member (Open Question 1 in spec.md §9,
	// resolved in SPEC_FULL.md §4 as "reject").
	ErrDuplicate = errors.New("container: duplicate member rejected by set abstract type")
	// ErrProtocolMismatch is returned when an Inserter's container-end call
	// doesn't match the most recently opened nested Inserter, or when an
	// operation is attempted on a parent Inserter while a child is still open.
	ErrProtocolMismatch = errors.New("container: inserter begin/end protocol mismatch")
	// ErrWrongKind is returned when an Inserter method is invoked against a
	// target kind it doesn't support (e.g. a prop insert on an array Inserter).
	ErrWrongKind = errors.New("container: insert method invalid for this inserter's target kind")
	// ErrNoNesting is returned when a caller attempts to insert a container
	// value into a column, which only ever holds fixed-width primitives.
	ErrNoNesting = errors.New("container: columns cannot hold nested containers")
)

// fieldCache remembers the last element a Next() call parsed, so value
// accessors and Remove don't need to reparse from the iterator's start.
type fieldCache struct {
	valid         bool
	tag           field.Tag
	elementStart  int // offset of the tag byte
	payloadOffset int // offset immediately after the tag byte
	elementEnd    int // offset immediately after the full element
}

// parentLink lets a sub-iterator notify its enclosing iterator (and,
// transitively, everything above it) that bytes were inserted or removed at
// some offset, so any cursor or history position recorded at or after that
// offset shifts by the same delta (§4.5's mod_size propagation, §9's
// commit-byte-delta-to-parent note).
type parentLink interface {
	notifyDelta(atOrAfter, delta int)
}

// generation is bumped only by notifyDelta, i.e. whenever a byte-level size
// change at or below a container is propagated through it, so that
// sub-iterators derived from that container can detect the change. Cursor
// moves (Next/Prev) and a container's own Remove do not bump it.
type generation struct {
	value uint64
}

func (g *generation) bump() { g.value++ }
func (g *generation) get() uint64 {
	if g == nil {
		return 0
	}
	return g.value
}

func shiftIfAtOrAfter(pos *int, atOrAfter, delta int) {
	if *pos >= atOrAfter {
		*pos += delta
	}
}

func shiftHistory(history []int, atOrAfter, delta int) {
	for i := range history {
		shiftIfAtOrAfter(&history[i], atOrAfter, delta)
	}
}

// seekTo positions mf at pos; used before any read/write so an iterator's
// own cursor (independent of the shared MemFile's cursor, since multiple
// iterators share one buffer) is always honored.
func seekTo(mf *memfile.MemFile, pos int) error {
	return mf.Seek(pos)
}
