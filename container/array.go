package container

import (
	"encoding/binary"
	"math"

	"github.com/jaksonlabs/carbonfmt/codec"
	"github.com/jaksonlabs/carbonfmt/field"
	"github.com/jaksonlabs/carbonfmt/memfile"
	"github.com/jaksonlabs/carbonfmt/strcodec"
)

// ArrayIterator traverses a heterogeneous array container (§4.5).
type ArrayIterator struct {
	mf           *memfile.MemFile
	start        int // payload start, just after the '[' marker
	pos          int // cursor: next tag to read, or the ']' offset when exhausted
	history      []int
	cache        fieldCache
	abstractType field.AbstractType
	mode         memfile.Mode

	gen          generation
	parent       parentLink
	parentGen    *generation
	sawParentGen uint64
}

// Stale reports whether the enclosing container's generation has changed
// since this sub-iterator was obtained. The generation changes when a
// byte-level size change at or below that container is propagated through
// its notifyDelta (an insert, a string resize, column growth); the
// container's own Next, Prev and Remove leave it unchanged, so advancing
// the parent alone does not make a sub-iterator stale. A root iterator is
// never stale.
func (it *ArrayIterator) Stale() bool {
	return it.parentGen != nil && it.parentGen.get() != it.sawParentGen
}

// OpenArray opens an array iterator over the container beginning at
// beginOffset (the offset of its '[' marker) in mf.
func OpenArray(mf *memfile.MemFile, beginOffset int, mode memfile.Mode) (*ArrayIterator, error) {
	if err := mf.Seek(beginOffset); err != nil {
		return nil, err
	}
	b, err := mf.ReadByte()
	if err != nil {
		return nil, err
	}
	if !field.IsArrayBegin(field.Tag(b)) {
		return nil, codec.ErrMarkerMapping
	}
	it := &ArrayIterator{
		mf:           mf,
		start:        mf.Tell(),
		abstractType: field.ArrayAbstractType(field.Tag(b)),
		mode:         mode,
	}
	it.pos = it.start
	return it, nil
}

// AbstractType returns the container's declared semantic variant.
func (it *ArrayIterator) AbstractType() field.AbstractType { return it.abstractType }

// Rewind repositions the cursor at the payload start and clears history and cache.
func (it *ArrayIterator) Rewind() {
	it.pos = it.start
	it.history = nil
	it.cache = fieldCache{}
}

// HasNext reports whether a following Next call would yield an element.
func (it *ArrayIterator) HasNext() (bool, error) {
	if err := seekTo(it.mf, it.pos); err != nil {
		return false, err
	}
	b, err := it.mf.PeekByte()
	if err != nil {
		return false, err
	}
	return field.Tag(b) != field.ArrayEnd, nil
}

// Next advances to the next element, caching its tag and offsets. It
// returns (tag, true, nil) on success, or (_, false, nil) at the array end.
func (it *ArrayIterator) Next() (field.Tag, bool, error) {
	if err := seekTo(it.mf, it.pos); err != nil {
		return 0, false, err
	}
	b, err := it.mf.PeekByte()
	if err != nil {
		return 0, false, err
	}
	if field.Tag(b) == field.ArrayEnd {
		return 0, false, nil
	}
	elementStart := it.pos
	it.history = append(it.history, it.pos)
	tag, err := codec.SkipValue(it.mf)
	if err != nil {
		return 0, false, err
	}
	elementEnd := it.mf.Tell()
	it.cache = fieldCache{
		valid:         true,
		tag:           tag,
		elementStart:  elementStart,
		payloadOffset: elementStart + 1,
		elementEnd:    elementEnd,
	}
	it.pos = elementEnd
	return tag, true, nil
}

// Prev undoes the most recent Next, restoring the cursor to where that
// element began; calling Next again reproduces the same tag and offsets
// (§8's iterator-stability property). Returns false if there is no history.
func (it *ArrayIterator) Prev() bool {
	if len(it.history) == 0 {
		return false
	}
	it.pos = it.history[len(it.history)-1]
	it.history = it.history[:len(it.history)-1]
	it.cache = fieldCache{}
	return true
}

// FieldType returns the cached element's tag.
func (it *ArrayIterator) FieldType() (field.Tag, error) {
	if !it.cache.valid {
		return 0, ErrNoCachedElement
	}
	return it.cache.tag, nil
}

func (it *ArrayIterator) requireTag(want field.Tag) error {
	if !it.cache.valid {
		return ErrNoCachedElement
	}
	if it.cache.tag != want {
		return ErrTypeMismatch
	}
	return nil
}

func (it *ArrayIterator) readFixed(want field.Tag, width int) ([]byte, error) {
	if err := it.requireTag(want); err != nil {
		return nil, err
	}
	if err := it.mf.Seek(it.cache.payloadOffset); err != nil {
		return nil, err
	}
	return it.mf.Read(width)
}

// U8Value returns the cached element's value if it is tagged U8.
func (it *ArrayIterator) U8Value() (uint8, error) {
	b, err := it.readFixed(field.U8, 1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (it *ArrayIterator) U16Value() (uint16, error) {
	b, err := it.readFixed(field.U16, 2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

func (it *ArrayIterator) U32Value() (uint32, error) {
	b, err := it.readFixed(field.U32, 4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (it *ArrayIterator) U64Value() (uint64, error) {
	b, err := it.readFixed(field.U64, 8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

func (it *ArrayIterator) I8Value() (int8, error) {
	b, err := it.readFixed(field.I8, 1)
	if err != nil {
		return 0, err
	}
	return int8(b[0]), nil
}

func (it *ArrayIterator) I16Value() (int16, error) {
	b, err := it.readFixed(field.I16, 2)
	if err != nil {
		return 0, err
	}
	return int16(binary.LittleEndian.Uint16(b)), nil
}

func (it *ArrayIterator) I32Value() (int32, error) {
	b, err := it.readFixed(field.I32, 4)
	if err != nil {
		return 0, err
	}
	return int32(binary.LittleEndian.Uint32(b)), nil
}

func (it *ArrayIterator) I64Value() (int64, error) {
	b, err := it.readFixed(field.I64, 8)
	if err != nil {
		return 0, err
	}
	return int64(binary.LittleEndian.Uint64(b)), nil
}

func (it *ArrayIterator) F32Value() (float32, error) {
	b, err := it.readFixed(field.F32, 4)
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(binary.LittleEndian.Uint32(b)), nil
}

// BoolValue returns the cached element's boolean value; the cached tag must
// be True or False.
func (it *ArrayIterator) BoolValue() (bool, error) {
	if !it.cache.valid {
		return false, ErrNoCachedElement
	}
	switch it.cache.tag {
	case field.True:
		return true, nil
	case field.False:
		return false, nil
	default:
		return false, ErrTypeMismatch
	}
}

// IsNull reports whether the cached element is the null constant.
func (it *ArrayIterator) IsNull() (bool, error) {
	if !it.cache.valid {
		return false, ErrNoCachedElement
	}
	return it.cache.tag == field.Null, nil
}

// StringValue returns the cached element's string payload.
func (it *ArrayIterator) StringValue() (string, error) {
	if err := it.requireTag(field.String); err != nil {
		return "", err
	}
	if err := it.mf.Seek(it.cache.payloadOffset); err != nil {
		return "", err
	}
	return strcodec.ReadString(it.mf, false)
}

// BinaryValue returns the cached element's binary payload.
func (it *ArrayIterator) BinaryValue() (custom bool, mimeID uint64, data []byte, err error) {
	if !it.cache.valid {
		return false, 0, nil, ErrNoCachedElement
	}
	if !field.IsBinary(it.cache.tag) {
		return false, 0, nil, ErrTypeMismatch
	}
	if err := it.mf.Seek(it.cache.elementStart); err != nil {
		return false, 0, nil, err
	}
	return strcodec.ReadBinary(it.mf)
}

// ArrayValue returns a sub-iterator over the cached nested array element.
func (it *ArrayIterator) ArrayValue() (*ArrayIterator, error) {
	if !it.cache.valid || !field.IsArrayBegin(it.cache.tag) {
		if !it.cache.valid {
			return nil, ErrNoCachedElement
		}
		return nil, ErrTypeMismatch
	}
	child, err := OpenArray(it.mf, it.cache.elementStart, it.mode)
	if err != nil {
		return nil, err
	}
	child.parent = it
	child.parentGen = &it.gen
	child.sawParentGen = it.gen.get()
	return child, nil
}

// ObjectValue returns a sub-iterator over the cached nested object element.
func (it *ArrayIterator) ObjectValue() (*ObjectIterator, error) {
	if !it.cache.valid {
		return nil, ErrNoCachedElement
	}
	if !field.IsObjectBegin(it.cache.tag) {
		return nil, ErrTypeMismatch
	}
	child, err := OpenObject(it.mf, it.cache.elementStart, it.mode)
	if err != nil {
		return nil, err
	}
	child.parent = it
	child.parentGen = &it.gen
	child.sawParentGen = it.gen.get()
	return child, nil
}

// ColumnValue returns a sub-iterator over the cached nested column element.
func (it *ArrayIterator) ColumnValue() (*ColumnIterator, error) {
	if !it.cache.valid {
		return nil, ErrNoCachedElement
	}
	if !field.IsColumnBegin(it.cache.tag) {
		return nil, ErrTypeMismatch
	}
	child, err := OpenColumn(it.mf, it.cache.elementStart, it.mode)
	if err != nil {
		return nil, err
	}
	child.parent = it
	child.parentGen = &it.gen
	child.sawParentGen = it.gen.get()
	return child, nil
}

// notifyDelta implements parentLink: bytes changed at atOrAfter by delta.
func (it *ArrayIterator) notifyDelta(atOrAfter, delta int) {
	shiftIfAtOrAfter(&it.pos, atOrAfter, delta)
	shiftHistory(it.history, atOrAfter, delta)
	if it.cache.valid {
		shiftIfAtOrAfter(&it.cache.elementStart, atOrAfter, delta)
		shiftIfAtOrAfter(&it.cache.payloadOffset, atOrAfter, delta)
		shiftIfAtOrAfter(&it.cache.elementEnd, atOrAfter, delta)
	}
	it.gen.bump()
	if it.parent != nil {
		it.parent.notifyDelta(atOrAfter, delta)
	}
}

func (it *ArrayIterator) notifyParent(atOrAfter, delta int) {
	if it.parent != nil {
		it.parent.notifyDelta(atOrAfter, delta)
	}
}

// UpdateU8 overwrites the cached element's payload in place; the element
// must already be tagged U8.
func (it *ArrayIterator) UpdateU8(v uint8) error {
	return it.updateFixed(field.U8, []byte{v})
}

func (it *ArrayIterator) UpdateU16(v uint16) error {
	b := make([]byte, 2)
	binary.LittleEndian.PutUint16(b, v)
	return it.updateFixed(field.U16, b)
}

func (it *ArrayIterator) UpdateU32(v uint32) error {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, v)
	return it.updateFixed(field.U32, b)
}

func (it *ArrayIterator) UpdateU64(v uint64) error {
	b := make([]byte, 8)
	binary.LittleEndian.PutUint64(b, v)
	return it.updateFixed(field.U64, b)
}

func (it *ArrayIterator) UpdateI8(v int8) error {
	return it.updateFixed(field.I8, []byte{byte(v)})
}

func (it *ArrayIterator) UpdateI16(v int16) error {
	b := make([]byte, 2)
	binary.LittleEndian.PutUint16(b, uint16(v))
	return it.updateFixed(field.I16, b)
}

func (it *ArrayIterator) UpdateI32(v int32) error {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, uint32(v))
	return it.updateFixed(field.I32, b)
}

func (it *ArrayIterator) UpdateI64(v int64) error {
	b := make([]byte, 8)
	binary.LittleEndian.PutUint64(b, uint64(v))
	return it.updateFixed(field.I64, b)
}

func (it *ArrayIterator) UpdateF32(v float32) error {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, math.Float32bits(v))
	return it.updateFixed(field.F32, b)
}

func (it *ArrayIterator) updateFixed(want field.Tag, bits []byte) error {
	if it.mode != memfile.ReadWrite {
		return ErrReadOnly
	}
	if err := it.requireTag(want); err != nil {
		return err
	}
	if err := it.mf.Seek(it.cache.payloadOffset); err != nil {
		return err
	}
	return it.mf.Write(bits)
}

// UpdateBool rewrites the cached element's tag to True or False; booleans
// carry no payload so only the tag byte changes and no delta propagates.
func (it *ArrayIterator) UpdateBool(v bool) error {
	if it.mode != memfile.ReadWrite {
		return ErrReadOnly
	}
	if !it.cache.valid {
		return ErrNoCachedElement
	}
	if it.cache.tag != field.True && it.cache.tag != field.False {
		return ErrTypeMismatch
	}
	tag := field.False
	if v {
		tag = field.True
	}
	if err := it.mf.Seek(it.cache.elementStart); err != nil {
		return err
	}
	if err := it.mf.WriteByte(byte(tag)); err != nil {
		return err
	}
	it.cache.tag = tag
	return nil
}

// UpdateString replaces the cached element's string payload, shrinking or
// growing the backing buffer hole via MemFile's in-place insert/remove, and
// propagates the net byte delta (mod_size) up the parent chain.
func (it *ArrayIterator) UpdateString(s string) error {
	if it.mode != memfile.ReadWrite {
		return ErrReadOnly
	}
	if err := it.requireTag(field.String); err != nil {
		return err
	}
	oldLen := it.cache.elementEnd - it.cache.payloadOffset
	scratch := memfile.New(nil, memfile.ReadWrite)
	if err := strcodec.WriteString(scratch, s, false); err != nil {
		return err
	}
	encoded := scratch.Bytes()
	delta := len(encoded) - oldLen

	if err := it.mf.Seek(it.cache.payloadOffset); err != nil {
		return err
	}
	if err := it.mf.InplaceInsert(len(encoded)); err != nil {
		return err
	}
	if err := it.mf.Write(encoded); err != nil {
		return err
	}
	if err := it.mf.InplaceRemove(oldLen); err != nil {
		return err
	}

	oldEnd := it.cache.elementEnd
	it.notifyDelta(oldEnd, delta)
	return nil
}

// Remove excises the cached element; subsequent Next yields what was the
// following element. Invalidates the field-access cache (§4.5 edge-case
// policy).
func (it *ArrayIterator) Remove() error {
	if it.mode != memfile.ReadWrite {
		return ErrReadOnly
	}
	if !it.cache.valid {
		return ErrNoCachedElement
	}
	n := it.cache.elementEnd - it.cache.elementStart
	start := it.cache.elementStart
	if err := it.mf.Seek(start); err != nil {
		return err
	}
	if err := it.mf.InplaceRemove(n); err != nil {
		return err
	}
	it.pos = start
	it.cache = fieldCache{}
	it.notifyParent(start, -n)
	return nil
}

// InsertBegin constructs an Inserter bound to this iterator's current
// cursor (§4.8); insertion happens at that cursor, shifting subsequent
// bytes right.
func (it *ArrayIterator) InsertBegin() *Inserter {
	return &Inserter{kind: sinkArray, arr: it}
}
