// Package strcodec implements the length-prefixed UTF-8 string payload and
// the mime-tagged binary payload (§4.4 of the spec).
package strcodec

import (
	"errors"
	"unicode/utf8"

	"github.com/jaksonlabs/carbonfmt/field"
	"github.com/jaksonlabs/carbonfmt/memfile"
	"github.com/jaksonlabs/carbonfmt/varuint"
)

// ErrInvalidUTF8 is returned when a string payload is not valid UTF-8.
var ErrInvalidUTF8 = errors.New("strcodec: payload is not valid UTF-8")

// WriteString writes a length-prefixed UTF-8 string. If withMarker is true,
// the field.String tag is written first; object keys and other
// context-fixed positions pass withMarker=false.
func WriteString(mf *memfile.MemFile, s string, withMarker bool) error {
	if !utf8.ValidString(s) {
		return ErrInvalidUTF8
	}
	if withMarker {
		if err := mf.WriteByte(byte(field.String)); err != nil {
			return err
		}
	}
	if err := mf.Write(varuint.Encode(uint64(len(s)))); err != nil {
		return err
	}
	return mf.Write([]byte(s))
}

// ReadString reads a length-prefixed UTF-8 string at the cursor. If
// withMarker is true, a leading field.String tag is expected and consumed.
func ReadString(mf *memfile.MemFile, withMarker bool) (string, error) {
	if withMarker {
		tag, err := mf.ReadByte()
		if err != nil {
			return "", err
		}
		if field.Tag(tag) != field.String {
			return "", errMarkerMismatch(field.String, field.Tag(tag))
		}
	}
	n, err := readLength(mf)
	if err != nil {
		return "", err
	}
	b, err := mf.Read(n)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(b) {
		return "", ErrInvalidUTF8
	}
	return string(b), nil
}

// PeekStringLen returns the encoded byte length of the string starting at
// the cursor (after any marker already consumed by the caller) without
// copying the bytes. It advances the cursor past the length field only, not
// past the payload.
func PeekStringLen(mf *memfile.MemFile) (varuintLen, payloadLen int, err error) {
	pos := mf.Tell()
	n, err := readLength(mf)
	if err != nil {
		return 0, 0, err
	}
	consumed := mf.Tell() - pos
	return consumed, n, nil
}

func readLength(mf *memfile.MemFile) (int, error) {
	// VarUInt decoding needs random access into the live buffer; Decode
	// works directly against the backing slice so MemFile's cursor only
	// needs to be advanced by however many bytes were actually consumed.
	v, n, err := varuint.Decode(mf.Bytes(), mf.Tell())
	if err != nil {
		return 0, err
	}
	if err := mf.Skip(n); err != nil {
		return 0, err
	}
	return int(v), nil
}

// WriteBinary writes a binary blob: a marker, a VarUInt mime identifier,
// then a VarUInt length and the raw bytes.
func WriteBinary(mf *memfile.MemFile, custom bool, mimeID uint64, data []byte) error {
	tag := field.BinaryStandard
	if custom {
		tag = field.BinaryCustom
	}
	if err := mf.WriteByte(byte(tag)); err != nil {
		return err
	}
	if err := mf.Write(varuint.Encode(mimeID)); err != nil {
		return err
	}
	if err := mf.Write(varuint.Encode(uint64(len(data)))); err != nil {
		return err
	}
	return mf.Write(data)
}

// ReadBinary reads a binary blob at the cursor, including its marker.
func ReadBinary(mf *memfile.MemFile) (custom bool, mimeID uint64, data []byte, err error) {
	tagByte, err := mf.ReadByte()
	if err != nil {
		return false, 0, nil, err
	}
	tag := field.Tag(tagByte)
	if !field.IsBinary(tag) {
		return false, 0, nil, errMarkerMismatch(field.BinaryStandard, tag)
	}
	mimeID, n, err := varuint.Decode(mf.Bytes(), mf.Tell())
	if err != nil {
		return false, 0, nil, err
	}
	if err := mf.Skip(n); err != nil {
		return false, 0, nil, err
	}
	length, err := readLength(mf)
	if err != nil {
		return false, 0, nil, err
	}
	data, err = mf.Read(length)
	if err != nil {
		return false, 0, nil, err
	}
	return tag == field.BinaryCustom, mimeID, data, nil
}

func errMarkerMismatch(want, got field.Tag) error {
	return &MarkerMismatchError{Want: want, Got: got}
}

// MarkerMismatchError is the strcodec-level marker-mapping error (§6.3).
type MarkerMismatchError struct {
	Want, Got field.Tag
}

func (e *MarkerMismatchError) Error() string {
	return "strcodec: expected marker " + e.Want.String() + ", got " + e.Got.String()
}
