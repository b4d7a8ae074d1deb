package container

import (
	"encoding/binary"
	"math"

	"github.com/jaksonlabs/carbonfmt/codec"
	"github.com/jaksonlabs/carbonfmt/field"
	"github.com/jaksonlabs/carbonfmt/memfile"
	"github.com/jaksonlabs/carbonfmt/strcodec"
)

// ObjectIterator traverses a key-value object container (§4.7). Layout
// mirrors ArrayIterator's but each entry is a bare-string key (no marker)
// followed by a tagged value.
type ObjectIterator struct {
	mf           *memfile.MemFile
	start        int
	pos          int
	history      []int
	keyCache     struct {
		valid     bool
		start     int
		payloadAt int
		end       int
	}
	cache        fieldCache
	abstractType field.AbstractType
	mode         memfile.Mode

	gen          generation
	parent       parentLink
	parentGen    *generation
	sawParentGen uint64
}

// OpenObject opens an object iterator over the container beginning at
// beginOffset (the offset of its object begin marker) in mf.
func OpenObject(mf *memfile.MemFile, beginOffset int, mode memfile.Mode) (*ObjectIterator, error) {
	if err := mf.Seek(beginOffset); err != nil {
		return nil, err
	}
	b, err := mf.ReadByte()
	if err != nil {
		return nil, err
	}
	if !field.IsObjectBegin(field.Tag(b)) {
		return nil, codec.ErrMarkerMapping
	}
	it := &ObjectIterator{
		mf:           mf,
		start:        mf.Tell(),
		abstractType: field.ObjectAbstractType(field.Tag(b)),
		mode:         mode,
	}
	it.pos = it.start
	return it, nil
}

// AbstractType returns the container's declared semantic variant.
func (it *ObjectIterator) AbstractType() field.AbstractType { return it.abstractType }

// Stale reports whether the enclosing container's generation has changed
// since this sub-iterator was obtained; see ArrayIterator.Stale for what
// changes it (cursor moves and Remove on the parent do not).
func (it *ObjectIterator) Stale() bool {
	return it.parentGen != nil && it.parentGen.get() != it.sawParentGen
}

// Rewind repositions the cursor at the payload start and clears history and caches.
func (it *ObjectIterator) Rewind() {
	it.pos = it.start
	it.history = nil
	it.cache = fieldCache{}
	it.keyCache.valid = false
}

// HasNext reports whether a following Next call would yield a property.
func (it *ObjectIterator) HasNext() (bool, error) {
	if err := seekTo(it.mf, it.pos); err != nil {
		return false, err
	}
	b, err := it.mf.PeekByte()
	if err != nil {
		return false, err
	}
	return field.Tag(b) != field.ObjectEnd, nil
}

// Next advances to the next (key, value) property, caching both the key
// span and the value's tag/offsets.
func (it *ObjectIterator) Next() (field.Tag, bool, error) {
	if err := seekTo(it.mf, it.pos); err != nil {
		return 0, false, err
	}
	b, err := it.mf.PeekByte()
	if err != nil {
		return 0, false, err
	}
	if field.Tag(b) == field.ObjectEnd {
		return 0, false, nil
	}
	it.history = append(it.history, it.pos)

	keyStart := it.mf.Tell()
	if _, err := strcodec.ReadString(it.mf, false); err != nil {
		return 0, false, err
	}
	keyEnd := it.mf.Tell()
	it.keyCache = struct {
		valid     bool
		start     int
		payloadAt int
		end       int
	}{valid: true, start: keyStart, payloadAt: keyStart, end: keyEnd}

	valueStart := it.mf.Tell()
	tag, err := codec.SkipValue(it.mf)
	if err != nil {
		return 0, false, err
	}
	valueEnd := it.mf.Tell()
	it.cache = fieldCache{
		valid:         true,
		tag:           tag,
		elementStart:  valueStart,
		payloadOffset: valueStart + 1,
		elementEnd:    valueEnd,
	}
	it.pos = valueEnd
	return tag, true, nil
}

// Prev undoes the most recent Next.
func (it *ObjectIterator) Prev() bool {
	if len(it.history) == 0 {
		return false
	}
	it.pos = it.history[len(it.history)-1]
	it.history = it.history[:len(it.history)-1]
	it.cache = fieldCache{}
	it.keyCache.valid = false
	return true
}

// PropName returns the cached property's key.
func (it *ObjectIterator) PropName() (string, error) {
	if !it.keyCache.valid {
		return "", ErrNoCachedElement
	}
	if err := it.mf.Seek(it.keyCache.start); err != nil {
		return "", err
	}
	return strcodec.ReadString(it.mf, false)
}

// PropType returns the cached property's value tag.
func (it *ObjectIterator) PropType() (field.Tag, error) {
	if !it.cache.valid {
		return 0, ErrNoCachedElement
	}
	return it.cache.tag, nil
}

func (it *ObjectIterator) requireTag(want field.Tag) error {
	if !it.cache.valid {
		return ErrNoCachedElement
	}
	if it.cache.tag != want {
		return ErrTypeMismatch
	}
	return nil
}

func (it *ObjectIterator) readFixed(want field.Tag, width int) ([]byte, error) {
	if err := it.requireTag(want); err != nil {
		return nil, err
	}
	if err := it.mf.Seek(it.cache.payloadOffset); err != nil {
		return nil, err
	}
	return it.mf.Read(width)
}

func (it *ObjectIterator) U8Value() (uint8, error) {
	b, err := it.readFixed(field.U8, 1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (it *ObjectIterator) U16Value() (uint16, error) {
	b, err := it.readFixed(field.U16, 2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

func (it *ObjectIterator) U32Value() (uint32, error) {
	b, err := it.readFixed(field.U32, 4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (it *ObjectIterator) U64Value() (uint64, error) {
	b, err := it.readFixed(field.U64, 8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

func (it *ObjectIterator) I8Value() (int8, error) {
	b, err := it.readFixed(field.I8, 1)
	if err != nil {
		return 0, err
	}
	return int8(b[0]), nil
}

func (it *ObjectIterator) I16Value() (int16, error) {
	b, err := it.readFixed(field.I16, 2)
	if err != nil {
		return 0, err
	}
	return int16(binary.LittleEndian.Uint16(b)), nil
}

func (it *ObjectIterator) I32Value() (int32, error) {
	b, err := it.readFixed(field.I32, 4)
	if err != nil {
		return 0, err
	}
	return int32(binary.LittleEndian.Uint32(b)), nil
}

func (it *ObjectIterator) I64Value() (int64, error) {
	b, err := it.readFixed(field.I64, 8)
	if err != nil {
		return 0, err
	}
	return int64(binary.LittleEndian.Uint64(b)), nil
}

func (it *ObjectIterator) F32Value() (float32, error) {
	b, err := it.readFixed(field.F32, 4)
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(binary.LittleEndian.Uint32(b)), nil
}

func (it *ObjectIterator) BoolValue() (bool, error) {
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

func (it *ObjectIterator) IsNull() (bool, error) {
	if !it.cache.valid {
		return false, ErrNoCachedElement
	}
	return it.cache.tag == field.Null, nil
}

func (it *ObjectIterator) StringValue() (string, error) {
	if err := it.requireTag(field.String); err != nil {
		return "", err
	}
	if err := it.mf.Seek(it.cache.payloadOffset); err != nil {
		return "", err
	}
	return strcodec.ReadString(it.mf, false)
}

func (it *ObjectIterator) BinaryValue() (custom bool, mimeID uint64, data []byte, err error) {
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

// ArrayValue returns a sub-iterator over the cached property's nested array value.
func (it *ObjectIterator) ArrayValue() (*ArrayIterator, error) {
	if !it.cache.valid {
		return nil, ErrNoCachedElement
	}
	if !field.IsArrayBegin(it.cache.tag) {
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

// ObjectValue returns a sub-iterator over the cached property's nested object value.
func (it *ObjectIterator) ObjectValue() (*ObjectIterator, error) {
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

// ColumnValue returns a sub-iterator over the cached property's nested column value.
func (it *ObjectIterator) ColumnValue() (*ColumnIterator, error) {
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

// notifyDelta implements parentLink.
func (it *ObjectIterator) notifyDelta(atOrAfter, delta int) {
	shiftIfAtOrAfter(&it.pos, atOrAfter, delta)
	shiftHistory(it.history, atOrAfter, delta)
	if it.keyCache.valid {
		shiftIfAtOrAfter(&it.keyCache.start, atOrAfter, delta)
		shiftIfAtOrAfter(&it.keyCache.payloadAt, atOrAfter, delta)
		shiftIfAtOrAfter(&it.keyCache.end, atOrAfter, delta)
	}
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

func (it *ObjectIterator) notifyParent(atOrAfter, delta int) {
	if it.parent != nil {
		it.parent.notifyDelta(atOrAfter, delta)
	}
}

// UpdateU8 overwrites the cached property's value payload in place.
func (it *ObjectIterator) UpdateU8(v uint8) error { return it.updateFixed(field.U8, []byte{v}) }

func (it *ObjectIterator) UpdateU16(v uint16) error {
	b := make([]byte, 2)
	binary.LittleEndian.PutUint16(b, v)
	return it.updateFixed(field.U16, b)
}

func (it *ObjectIterator) UpdateU32(v uint32) error {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, v)
	return it.updateFixed(field.U32, b)
}

func (it *ObjectIterator) UpdateU64(v uint64) error {
	b := make([]byte, 8)
	binary.LittleEndian.PutUint64(b, v)
	return it.updateFixed(field.U64, b)
}

func (it *ObjectIterator) UpdateI8(v int8) error { return it.updateFixed(field.I8, []byte{byte(v)}) }

func (it *ObjectIterator) UpdateI16(v int16) error {
	b := make([]byte, 2)
	binary.LittleEndian.PutUint16(b, uint16(v))
	return it.updateFixed(field.I16, b)
}

func (it *ObjectIterator) UpdateI32(v int32) error {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, uint32(v))
	return it.updateFixed(field.I32, b)
}

func (it *ObjectIterator) UpdateI64(v int64) error {
	b := make([]byte, 8)
	binary.LittleEndian.PutUint64(b, uint64(v))
	return it.updateFixed(field.I64, b)
}

func (it *ObjectIterator) UpdateF32(v float32) error {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, math.Float32bits(v))
	return it.updateFixed(field.F32, b)
}

func (it *ObjectIterator) updateFixed(want field.Tag, bits []byte) error {
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

// UpdateBool rewrites the cached property's value tag to True or False.
func (it *ObjectIterator) UpdateBool(v bool) error {
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

// UpdateString replaces the cached property's string value, splicing the
// backing buffer and propagating the byte delta to the parent chain.
func (it *ObjectIterator) UpdateString(s string) error {
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

// Remove excises the cached property's key and value together.
func (it *ObjectIterator) Remove() error {
	if it.mode != memfile.ReadWrite {
		return ErrReadOnly
	}
	if !it.cache.valid || !it.keyCache.valid {
		return ErrNoCachedElement
	}
	start := it.keyCache.start
	n := it.cache.elementEnd - start
	if err := it.mf.Seek(start); err != nil {
		return err
	}
	if err := it.mf.InplaceRemove(n); err != nil {
		return err
	}
	it.pos = start
	it.cache = fieldCache{}
	it.keyCache.valid = false
	it.notifyParent(start, -n)
	return nil
}

// InsertBegin constructs an Inserter bound to this object iterator's
// current cursor (§4.8).
func (it *ObjectIterator) InsertBegin() *Inserter {
	return &Inserter{kind: sinkObject, obj: it}
}
