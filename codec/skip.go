// Package codec implements the shared "read a tag, consume exactly its
// payload" traversal used by every iterator's next()/remove() to jump over
// an element without decoding it. Container payloads are skipped by
// recursive descent bounded by an explicit depth counter (MaxDepth), per the
// spec's REDESIGN note on bounding nesting depth.
package codec

import (
	"errors"
	"fmt"

	"github.com/jaksonlabs/carbonfmt/field"
	"github.com/jaksonlabs/carbonfmt/memfile"
	"github.com/jaksonlabs/carbonfmt/varuint"
)

// ErrMarkerMapping is the format error (§6.3) raised when a byte is read
// where a field tag was expected and it does not belong to the closed tag
// set.
var ErrMarkerMapping = errors.New("codec: byte does not map to a known field tag")

// MaxDepth bounds container nesting so malformed input can't blow the stack;
// it is generous enough for any realistic document.
const MaxDepth = 10000

// SkipValue reads the tag at the cursor and advances the cursor past its
// entire payload (recursively skipping nested containers via an explicit
// depth counter), returning the tag that was read.
func SkipValue(mf *memfile.MemFile) (field.Tag, error) {
	tagByte, err := mf.ReadByte()
	if err != nil {
		return 0, err
	}
	tag := field.Tag(tagByte)
	if err := skipPayload(mf, tag, 0); err != nil {
		return 0, err
	}
	return tag, nil
}

// PeekTag returns the tag at the cursor without advancing.
func PeekTag(mf *memfile.MemFile) (field.Tag, error) {
	b, err := mf.PeekByte()
	if err != nil {
		return 0, err
	}
	return field.Tag(b), nil
}

func skipPayload(mf *memfile.MemFile, tag field.Tag, depth int) error {
	if depth > MaxDepth {
		return fmt.Errorf("codec: container nesting exceeds %d", MaxDepth)
	}
	switch {
	case field.IsConstant(tag):
		return nil
	case field.IsNumber(tag):
		return mf.Skip(field.FixedWidth(tag))
	case field.IsString(tag):
		n, err := readVarUInt(mf)
		if err != nil {
			return err
		}
		return mf.Skip(n)
	case field.IsBinary(tag):
		if _, err := readVarUInt(mf); err != nil { // mime id
			return err
		}
		n, err := readVarUInt(mf)
		if err != nil {
			return err
		}
		return mf.Skip(n)
	case field.IsArrayBegin(tag):
		return skipUntilEnd(mf, field.ArrayEnd, depth)
	case field.IsObjectBegin(tag):
		return skipObjectUntilEnd(mf, depth)
	case field.IsColumnBegin(tag):
		return skipColumn(mf)
	default:
		return ErrMarkerMapping
	}
}

func readVarUInt(mf *memfile.MemFile) (int, error) {
	v, n, err := varuint.Decode(mf.Bytes(), mf.Tell())
	if err != nil {
		return 0, err
	}
	if err := mf.Skip(n); err != nil {
		return 0, err
	}
	return int(v), nil
}

// skipUntilEnd consumes elements (each a full tag+payload) until endTag is
// read, for containers whose elements are bare values (arrays).
func skipUntilEnd(mf *memfile.MemFile, endTag field.Tag, depth int) error {
	for {
		tagByte, err := mf.ReadByte()
		if err != nil {
			return err
		}
		tag := field.Tag(tagByte)
		if tag == endTag {
			return nil
		}
		if err := skipPayload(mf, tag, depth+1); err != nil {
			return err
		}
	}
}

// skipObjectUntilEnd consumes (key, value) pairs until ObjectEnd.
func skipObjectUntilEnd(mf *memfile.MemFile, depth int) error {
	for {
		b, err := mf.PeekByte()
		if err != nil {
			return err
		}
		if field.Tag(b) == field.ObjectEnd {
			_, _ = mf.ReadByte()
			return nil
		}
		// key: length-prefixed string, no marker
		n, err := readVarUInt(mf)
		if err != nil {
			return err
		}
		if err := mf.Skip(n); err != nil {
			return err
		}
		tagByte, err := mf.ReadByte()
		if err != nil {
			return err
		}
		if err := skipPayload(mf, field.Tag(tagByte), depth+1); err != nil {
			return err
		}
	}
}

// skipColumn consumes a column container's fixed-layout body: subtype byte,
// capacity, count, capacity*width slot bytes, end marker.
func skipColumn(mf *memfile.MemFile) error {
	subtypeByte, err := mf.ReadByte()
	if err != nil {
		return err
	}
	colType := field.ColumnType(subtypeByte)
	capacity, err := readVarUInt(mf)
	if err != nil {
		return err
	}
	if _, err := readVarUInt(mf); err != nil { // count
		return err
	}
	if err := mf.Skip(capacity * colType.Width()); err != nil {
		return err
	}
	endByte, err := mf.ReadByte()
	if err != nil {
		return err
	}
	if field.Tag(endByte) != field.ColumnEnd {
		return ErrMarkerMapping
	}
	return nil
}
