package container

import (
	"encoding/binary"
	"math"

	"github.com/jaksonlabs/carbonfmt/codec"
	"github.com/jaksonlabs/carbonfmt/field"
	"github.com/jaksonlabs/carbonfmt/memfile"
	"github.com/jaksonlabs/carbonfmt/varuint"
)

// ColumnIterator traverses a homogeneous, fixed-width column container
// (§4.6). Unlike arrays and objects, columns carry an explicit capacity and
// count header; growth reserves extra slots ahead of the end marker with a
// byte-level insert, so appends within the reserved capacity move no bytes.
type ColumnIterator struct {
	mf        *memfile.MemFile
	start     int // offset just after the column begin marker
	colType   field.ColumnType
	width     int
	headerLen int // bytes consumed by subtype + capacity + count
	capacity  int
	count     int
	slotsAt   int // offset of slot 0
	endAt     int // offset of the ColumnEnd marker
	idx       int // cursor: next slot index to yield
	cache     fieldCache
	abstractType field.AbstractType

	gen          generation
	parent       parentLink
	parentGen    *generation
	sawParentGen uint64
}

// OpenColumn opens a column iterator over the container beginning at
// beginOffset (the offset of its column begin marker) in mf.
func OpenColumn(mf *memfile.MemFile, beginOffset int, mode memfile.Mode) (*ColumnIterator, error) {
	if err := mf.Seek(beginOffset); err != nil {
		return nil, err
	}
	b, err := mf.ReadByte()
	if err != nil {
		return nil, err
	}
	if !field.IsColumnBegin(field.Tag(b)) {
		return nil, codec.ErrMarkerMapping
	}
	headerStart := mf.Tell()
	colTypeByte, err := mf.ReadByte()
	if err != nil {
		return nil, err
	}
	colType := field.ColumnType(colTypeByte)
	capacity, capN, err := varuint.Decode(mf.Bytes(), mf.Tell())
	if err != nil {
		return nil, err
	}
	if err := mf.Skip(capN); err != nil {
		return nil, err
	}
	count, countN, err := varuint.Decode(mf.Bytes(), mf.Tell())
	if err != nil {
		return nil, err
	}
	if err := mf.Skip(countN); err != nil {
		return nil, err
	}
	width := colType.Width()
	slotsAt := mf.Tell()
	endAt := slotsAt + int(capacity)*width

	it := &ColumnIterator{
		mf:           mf,
		start:        headerStart,
		colType:      colType,
		width:        width,
		headerLen:    slotsAt - headerStart,
		capacity:     int(capacity),
		count:        int(count),
		slotsAt:      slotsAt,
		endAt:        endAt,
		abstractType: field.ColumnAbstractType(field.Tag(b)),
	}
	return it, nil
}

// AbstractType returns the container's declared semantic variant.
func (it *ColumnIterator) AbstractType() field.AbstractType { return it.abstractType }

// ColumnType returns the column's element type.
func (it *ColumnIterator) ColumnType() field.ColumnType { return it.colType }

// Count returns the number of populated slots.
func (it *ColumnIterator) Count() int { return it.count }

// Capacity returns the number of slots currently reserved.
func (it *ColumnIterator) Capacity() int { return it.capacity }

// Stale reports whether the enclosing container's generation has changed
// since this sub-iterator was obtained; see ArrayIterator.Stale for what
// changes it (cursor moves and Remove on the parent do not).
func (it *ColumnIterator) Stale() bool {
	return it.parentGen != nil && it.parentGen.get() != it.sawParentGen
}

// Rewind repositions the cursor at slot 0 and clears the cache.
func (it *ColumnIterator) Rewind() {
	it.idx = 0
	it.cache = fieldCache{}
}

// HasNext reports whether a following Next call would yield a slot.
func (it *ColumnIterator) HasNext() bool { return it.idx < it.count }

func (it *ColumnIterator) slotOffset(i int) int { return it.slotsAt + i*it.width }

// Next advances to the next populated slot, returning its index. Returns
// false at the end of the column.
func (it *ColumnIterator) Next() (int, bool, error) {
	if it.idx >= it.count {
		return 0, false, nil
	}
	i := it.idx
	it.cache = fieldCache{
		valid:         true,
		elementStart:  it.slotOffset(i),
		payloadOffset: it.slotOffset(i),
		elementEnd:    it.slotOffset(i) + it.width,
	}
	it.idx++
	return i, true, nil
}

// Prev rewinds the cursor by one slot, undoing the most recent Next.
func (it *ColumnIterator) Prev() bool {
	if it.idx == 0 {
		return false
	}
	it.idx--
	it.cache = fieldCache{}
	return true
}

// ValueIsNull reports whether the slot at index i holds the column type's
// null sentinel (§6.5).
func (it *ColumnIterator) ValueIsNull(i int) (bool, error) {
	if i < 0 || i >= it.count {
		return false, ErrOutOfBounds
	}
	if err := it.mf.Seek(it.slotOffset(i)); err != nil {
		return false, err
	}
	b, err := it.mf.Read(it.width)
	if err != nil {
		return false, err
	}
	return field.IsNullBits(it.colType, b), nil
}

func (it *ColumnIterator) readSlot(i int, want field.ColumnType) ([]byte, error) {
	if it.colType != want {
		return nil, ErrTypeMismatch
	}
	if i < 0 || i >= it.count {
		return nil, ErrOutOfBounds
	}
	if err := it.mf.Seek(it.slotOffset(i)); err != nil {
		return nil, err
	}
	return it.mf.Read(it.width)
}

func (it *ColumnIterator) U8At(i int) (uint8, error) {
	b, err := it.readSlot(i, field.ColU8)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (it *ColumnIterator) U16At(i int) (uint16, error) {
	b, err := it.readSlot(i, field.ColU16)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

func (it *ColumnIterator) U32At(i int) (uint32, error) {
	b, err := it.readSlot(i, field.ColU32)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (it *ColumnIterator) U64At(i int) (uint64, error) {
	b, err := it.readSlot(i, field.ColU64)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

func (it *ColumnIterator) I8At(i int) (int8, error) {
	b, err := it.readSlot(i, field.ColI8)
	if err != nil {
		return 0, err
	}
	return int8(b[0]), nil
}

func (it *ColumnIterator) I16At(i int) (int16, error) {
	b, err := it.readSlot(i, field.ColI16)
	if err != nil {
		return 0, err
	}
	return int16(binary.LittleEndian.Uint16(b)), nil
}

func (it *ColumnIterator) I32At(i int) (int32, error) {
	b, err := it.readSlot(i, field.ColI32)
	if err != nil {
		return 0, err
	}
	return int32(binary.LittleEndian.Uint32(b)), nil
}

func (it *ColumnIterator) I64At(i int) (int64, error) {
	b, err := it.readSlot(i, field.ColI64)
	if err != nil {
		return 0, err
	}
	return int64(binary.LittleEndian.Uint64(b)), nil
}

func (it *ColumnIterator) F32At(i int) (float32, error) {
	b, err := it.readSlot(i, field.ColF32)
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(binary.LittleEndian.Uint32(b)), nil
}

// BoolAt returns the tri-state value of slot i: (false, false) for the
// column-of-BOOL null sentinel, else (value, true).
func (it *ColumnIterator) BoolAt(i int) (value bool, notNull bool, err error) {
	b, err := it.readSlot(i, field.ColBool)
	if err != nil {
		return false, false, err
	}
	switch b[0] {
	case 0:
		return false, false, nil
	case 1:
		return true, true, nil
	case 2:
		return false, true, nil
	default:
		return false, false, codec.ErrMarkerMapping
	}
}

func (it *ColumnIterator) writeSlot(i int, want field.ColumnType, bits []byte) error {
	if it.mf.Mode() != memfile.ReadWrite {
		return ErrReadOnly
	}
	if it.colType != want {
		return ErrTypeMismatch
	}
	if i < 0 || i >= it.count {
		return ErrOutOfBounds
	}
	if err := it.mf.Seek(it.slotOffset(i)); err != nil {
		return err
	}
	return it.mf.Write(bits)
}

func (it *ColumnIterator) UpdateSetU8(i int, v uint8) error {
	return it.writeSlot(i, field.ColU8, []byte{v})
}

func (it *ColumnIterator) UpdateSetU16(i int, v uint16) error {
	b := make([]byte, 2)
	binary.LittleEndian.PutUint16(b, v)
	return it.writeSlot(i, field.ColU16, b)
}

func (it *ColumnIterator) UpdateSetU32(i int, v uint32) error {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, v)
	return it.writeSlot(i, field.ColU32, b)
}

func (it *ColumnIterator) UpdateSetU64(i int, v uint64) error {
	b := make([]byte, 8)
	binary.LittleEndian.PutUint64(b, v)
	return it.writeSlot(i, field.ColU64, b)
}

func (it *ColumnIterator) UpdateSetI8(i int, v int8) error {
	return it.writeSlot(i, field.ColI8, []byte{byte(v)})
}

func (it *ColumnIterator) UpdateSetI16(i int, v int16) error {
	b := make([]byte, 2)
	binary.LittleEndian.PutUint16(b, uint16(v))
	return it.writeSlot(i, field.ColI16, b)
}

func (it *ColumnIterator) UpdateSetI32(i int, v int32) error {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, uint32(v))
	return it.writeSlot(i, field.ColI32, b)
}

func (it *ColumnIterator) UpdateSetI64(i int, v int64) error {
	b := make([]byte, 8)
	binary.LittleEndian.PutUint64(b, uint64(v))
	return it.writeSlot(i, field.ColI64, b)
}

func (it *ColumnIterator) UpdateSetF32(i int, v float32) error {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, math.Float32bits(v))
	return it.writeSlot(i, field.ColF32, b)
}

// UpdateSetBool writes a concrete boolean into slot i.
func (it *ColumnIterator) UpdateSetBool(i int, v bool) error {
	b := byte(2)
	if v {
		b = 1
	}
	return it.writeSlot(i, field.ColBool, []byte{b})
}

// UpdateSetNull writes the column type's null sentinel into slot i.
func (it *ColumnIterator) UpdateSetNull(i int) error {
	if it.mf.Mode() != memfile.ReadWrite {
		return ErrReadOnly
	}
	if i < 0 || i >= it.count {
		return ErrOutOfBounds
	}
	if err := it.mf.Seek(it.slotOffset(i)); err != nil {
		return err
	}
	return it.mf.Write(field.NullSentinelBits(it.colType))
}

// writeCount rewrites the count varuint in the header. If the new encoding
// is a different length than the old one, the slot region shifts and the
// delta propagates to the parent.
func (it *ColumnIterator) writeCount(newCount int) error {
	countOffset := it.headerCountOffset()
	oldCountLen := it.slotsAt - countOffset
	encoded := varuint.Encode(uint64(newCount))
	delta := len(encoded) - oldCountLen

	if err := it.mf.Seek(countOffset); err != nil {
		return err
	}
	if err := it.mf.InplaceInsert(len(encoded)); err != nil {
		return err
	}
	if err := it.mf.Write(encoded); err != nil {
		return err
	}
	if err := it.mf.InplaceRemove(oldCountLen); err != nil {
		return err
	}

	oldSlotsAt := it.slotsAt
	it.count = newCount
	it.slotsAt += delta
	it.endAt += delta
	it.notifyDelta(oldSlotsAt, delta)
	return nil
}

func (it *ColumnIterator) headerCountOffset() int {
	// subtype(1) + capacity varuint + count varuint occupy headerLen bytes
	// ending at slotsAt; capacity's own length is recovered by re-decoding
	// from the capacity field's known start.
	subtypeAt := it.start
	capAt := subtypeAt + 1
	_, capN, _ := varuint.Decode(it.mf.Bytes(), capAt)
	return capAt + capN
}

// Append grows the column by one slot holding the null sentinel for its
// type, doubling capacity (or growing exactly to fit, whichever is larger)
// when the reserved capacity is exhausted, and returns the new slot's
// index so the caller can immediately UpdateSet it.
func (it *ColumnIterator) Append() (int, error) {
	if it.mf.Mode() != memfile.ReadWrite {
		return 0, ErrReadOnly
	}
	if it.count >= it.capacity {
		if err := it.growCapacity(it.count + 1); err != nil {
			return 0, err
		}
	}
	i := it.count
	if err := it.writeCount(it.count + 1); err != nil {
		return 0, err
	}
	if err := it.mf.Seek(it.slotOffset(i)); err != nil {
		return 0, err
	}
	if err := it.mf.Write(field.NullSentinelBits(it.colType)); err != nil {
		return 0, err
	}
	return i, nil
}

func (it *ColumnIterator) growCapacity(minCapacity int) error {
	newCapacity := it.capacity * 2
	if newCapacity < minCapacity {
		newCapacity = minCapacity
	}
	addedSlots := newCapacity - it.capacity
	insertAt := it.endAt

	capOffset := it.start + 1
	_, capN, err := varuint.Decode(it.mf.Bytes(), capOffset)
	if err != nil {
		return err
	}
	encoded := varuint.Encode(uint64(newCapacity))
	capDelta := len(encoded) - capN

	if err := it.mf.Seek(capOffset); err != nil {
		return err
	}
	if err := it.mf.InplaceInsert(len(encoded)); err != nil {
		return err
	}
	if err := it.mf.Write(encoded); err != nil {
		return err
	}
	if err := it.mf.InplaceRemove(capN); err != nil {
		return err
	}

	oldSlotsAt := it.slotsAt
	it.slotsAt += capDelta
	insertAt += capDelta
	it.endAt += capDelta
	if capDelta != 0 {
		it.notifyDelta(oldSlotsAt, capDelta)
	}

	addedBytes := addedSlots * it.width
	if err := it.mf.Seek(insertAt); err != nil {
		return err
	}
	if err := it.mf.InplaceInsert(addedBytes); err != nil {
		return err
	}

	it.capacity = newCapacity
	it.endAt += addedBytes
	it.notifyDelta(insertAt, addedBytes)
	return nil
}

// Remove excises the slot at index i, shifting all following slots down by
// one, refilling the freed last slot with the null sentinel and
// decrementing count; capacity and the reserved slot bytes are left
// unchanged.
func (it *ColumnIterator) Remove(i int) error {
	if it.mf.Mode() != memfile.ReadWrite {
		return ErrReadOnly
	}
	if i < 0 || i >= it.count {
		return ErrOutOfBounds
	}
	off := it.slotOffset(i)
	if err := it.mf.Seek(off); err != nil {
		return err
	}
	if err := it.mf.InplaceRemove(it.width); err != nil {
		return err
	}
	if err := it.mf.Seek(it.endAt - it.width); err != nil {
		return err
	}
	if err := it.mf.InplaceInsert(it.width); err != nil {
		return err
	}
	if err := it.mf.Write(field.NullSentinelBits(it.colType)); err != nil {
		return err
	}
	if err := it.writeCount(it.count - 1); err != nil {
		return err
	}
	if it.idx > i {
		it.idx--
	}
	it.cache = fieldCache{}
	return nil
}

// InsertBegin constructs an Inserter bound to this column (§4.8); column
// inserts always append, since slots are dense and index-addressed.
func (it *ColumnIterator) InsertBegin() *Inserter {
	return &Inserter{kind: sinkColumn, col: it}
}

// notifyDelta implements parentLink.
func (it *ColumnIterator) notifyDelta(atOrAfter, delta int) {
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
