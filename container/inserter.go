package container

import (
	"bytes"
	"encoding/binary"
	"math"

	"github.com/cespare/xxhash/v2"

	"github.com/jaksonlabs/carbonfmt/codec"
	"github.com/jaksonlabs/carbonfmt/field"
	"github.com/jaksonlabs/carbonfmt/memfile"
	"github.com/jaksonlabs/carbonfmt/strcodec"
	"github.com/jaksonlabs/carbonfmt/varuint"
)

// arrayHasDuplicate scans the already-written elements of it (from its
// payload start up to its current insert cursor) for one whose raw
// tag+payload bytes equal encodedValue, using an xxhash prefilter before
// the exact byte comparison, for unsorted-set/sorted-set duplicate
// rejection (§4 Open Question 1).
func arrayHasDuplicate(it *ArrayIterator, encodedValue []byte) (bool, error) {
	targetHash := xxhash.Sum64(encodedValue)
	pos := it.start
	for pos < it.pos {
		if err := it.mf.Seek(pos); err != nil {
			return false, err
		}
		if _, err := codec.SkipValue(it.mf); err != nil {
			return false, err
		}
		elemEnd := it.mf.Tell()
		raw := it.mf.Bytes()[pos:elemEnd]
		if xxhash.Sum64(raw) == targetHash && bytes.Equal(raw, encodedValue) {
			return true, nil
		}
		pos = elemEnd
	}
	return false, nil
}

// columnHasDuplicate scans a column's populated slots for one whose raw
// bytes equal valueBytes.
func columnHasDuplicate(col *ColumnIterator, valueBytes []byte) (bool, error) {
	targetHash := xxhash.Sum64(valueBytes)
	for i := 0; i < col.count; i++ {
		if err := col.mf.Seek(col.slotOffset(i)); err != nil {
			return false, err
		}
		raw, err := col.mf.Read(col.width)
		if err != nil {
			return false, err
		}
		if xxhash.Sum64(raw) == targetHash && bytes.Equal(raw, valueBytes) {
			return true, nil
		}
	}
	return false, nil
}

// objectHasDuplicateKey scans an object's already-written properties (up
// to its current insert cursor) for one whose key equals key.
func objectHasDuplicateKey(it *ObjectIterator, key string) (bool, error) {
	pos := it.start
	for pos < it.pos {
		if err := it.mf.Seek(pos); err != nil {
			return false, err
		}
		existingKey, err := strcodec.ReadString(it.mf, false)
		if err != nil {
			return false, err
		}
		if existingKey == key {
			return true, nil
		}
		if _, err := codec.SkipValue(it.mf); err != nil {
			return false, err
		}
		pos = it.mf.Tell()
	}
	return false, nil
}

// sinkKind tells an Inserter which container flavor it writes into.
type sinkKind int

const (
	sinkArray sinkKind = iota
	sinkObject
	sinkColumn
)

// Inserter is a write handle bound to one container, positioned at that
// container's current cursor (§4.8). It is a tagged union rather than an
// interface: exactly one of arr/obj/col is non-nil, matching kind. Nested
// container inserts (InsertArrayBegin etc.) push a child Inserter and
// enforce a LIFO begin/end discipline — operations on a parent Inserter
// fail with ErrProtocolMismatch while a child is open.
type Inserter struct {
	kind sinkKind
	arr  *ArrayIterator
	obj  *ObjectIterator
	col  *ColumnIterator

	pendingKey    string
	hasPendingKey bool

	child *Inserter
}

func (ins *Inserter) checkNoChild() error {
	if ins.child != nil {
		return ErrProtocolMismatch
	}
	return nil
}

// spliceArray splices raw bytes at the cursor of the bound array and
// advances that iterator's cursor past them, propagating the delta.
func (ins *Inserter) spliceArray(encoded []byte) error {
	it := ins.arr
	at := it.pos
	if err := it.mf.Seek(at); err != nil {
		return err
	}
	if err := it.mf.InplaceInsert(len(encoded)); err != nil {
		return err
	}
	if err := it.mf.Seek(at); err != nil {
		return err
	}
	if err := it.mf.Write(encoded); err != nil {
		return err
	}
	it.pos = at + len(encoded)
	it.cache = fieldCache{}
	it.notifyDelta(at, len(encoded))
	return nil
}

func (ins *Inserter) spliceObject(encoded []byte) error {
	it := ins.obj
	at := it.pos
	if err := it.mf.Seek(at); err != nil {
		return err
	}
	if err := it.mf.InplaceInsert(len(encoded)); err != nil {
		return err
	}
	if err := it.mf.Seek(at); err != nil {
		return err
	}
	if err := it.mf.Write(encoded); err != nil {
		return err
	}
	it.pos = at + len(encoded)
	it.cache = fieldCache{}
	it.keyCache.valid = false
	it.notifyDelta(at, len(encoded))
	return nil
}

func encodeValue(tag field.Tag, payload []byte) []byte {
	return append([]byte{byte(tag)}, payload...)
}

func fixedPayload(width int, fill func([]byte)) []byte {
	b := make([]byte, width)
	fill(b)
	return b
}

// --- array / object scalar inserts ---

func (ins *Inserter) insertScalar(tag field.Tag, payload []byte) error {
	if err := ins.checkNoChild(); err != nil {
		return err
	}
	encoded := encodeValue(tag, payload)
	switch ins.kind {
	case sinkArray:
		if ins.arr.abstractType.IsSet() {
			dup, err := arrayHasDuplicate(ins.arr, encoded)
			if err != nil {
				return err
			}
			if dup {
				return ErrDuplicate
			}
		}
		return ins.spliceArray(encoded)
	case sinkObject:
		return ins.insertObjectValue(encoded)
	default:
		return ErrWrongKind
	}
}

func (ins *Inserter) insertObjectValue(encodedValue []byte) error {
	if !ins.hasPendingKey {
		return ErrWrongKind
	}
	if ins.obj.abstractType.IsSet() {
		dup, err := objectHasDuplicateKey(ins.obj, ins.pendingKey)
		if err != nil {
			return err
		}
		if dup {
			return ErrDuplicate
		}
	}
	keyBuf := memfile.New(nil, memfile.ReadWrite)
	if err := strcodec.WriteString(keyBuf, ins.pendingKey, false); err != nil {
		return err
	}
	ins.hasPendingKey = false
	ins.pendingKey = ""
	full := append(keyBuf.Bytes(), encodedValue...)
	return ins.spliceObject(full)
}

// InsertNull inserts a null constant into an array (a column Inserter rejects it with ErrWrongKind; column nulls use UpdateSetNull).
func (ins *Inserter) InsertNull() error { return ins.insertScalar(field.Null, nil) }

func (ins *Inserter) InsertBool(v bool) error {
	tag := field.False
	if v {
		tag = field.True
	}
	return ins.insertScalar(tag, nil)
}

func (ins *Inserter) InsertU8(v uint8) error { return ins.insertScalar(field.U8, []byte{v}) }

func (ins *Inserter) InsertU16(v uint16) error {
	return ins.insertScalar(field.U16, fixedPayload(2, func(b []byte) { binary.LittleEndian.PutUint16(b, v) }))
}

func (ins *Inserter) InsertU32(v uint32) error {
	return ins.insertScalar(field.U32, fixedPayload(4, func(b []byte) { binary.LittleEndian.PutUint32(b, v) }))
}

func (ins *Inserter) InsertU64(v uint64) error {
	return ins.insertScalar(field.U64, fixedPayload(8, func(b []byte) { binary.LittleEndian.PutUint64(b, v) }))
}

func (ins *Inserter) InsertI8(v int8) error { return ins.insertScalar(field.I8, []byte{byte(v)}) }

func (ins *Inserter) InsertI16(v int16) error {
	return ins.insertScalar(field.I16, fixedPayload(2, func(b []byte) { binary.LittleEndian.PutUint16(b, uint16(v)) }))
}

func (ins *Inserter) InsertI32(v int32) error {
	return ins.insertScalar(field.I32, fixedPayload(4, func(b []byte) { binary.LittleEndian.PutUint32(b, uint32(v)) }))
}

func (ins *Inserter) InsertI64(v int64) error {
	return ins.insertScalar(field.I64, fixedPayload(8, func(b []byte) { binary.LittleEndian.PutUint64(b, uint64(v)) }))
}

func (ins *Inserter) InsertF32(v float32) error {
	return ins.insertScalar(field.F32, fixedPayload(4, func(b []byte) { binary.LittleEndian.PutUint32(b, math.Float32bits(v)) }))
}

func (ins *Inserter) InsertString(s string) error {
	scratch := memfile.New(nil, memfile.ReadWrite)
	if err := strcodec.WriteString(scratch, s, false); err != nil {
		return err
	}
	return ins.insertScalar(field.String, scratch.Bytes())
}

func (ins *Inserter) InsertBinary(custom bool, mimeID uint64, data []byte) error {
	scratch := memfile.New(nil, memfile.ReadWrite)
	if err := strcodec.WriteBinary(scratch, custom, mimeID, data); err != nil {
		return err
	}
	encoded := scratch.Bytes() // already includes its own marker
	switch ins.kind {
	case sinkArray:
		if err := ins.checkNoChild(); err != nil {
			return err
		}
		if ins.arr.abstractType.IsSet() {
			dup, err := arrayHasDuplicate(ins.arr, encoded)
			if err != nil {
				return err
			}
			if dup {
				return ErrDuplicate
			}
		}
		return ins.spliceArray(encoded)
	case sinkObject:
		if err := ins.checkNoChild(); err != nil {
			return err
		}
		return ins.insertObjectValue(encoded)
	default:
		return ErrWrongKind
	}
}

// --- object key-prefixed variants ---

// InsertProp stages a key for the next value-insert call on an
// object-targeted Inserter; the pair is written atomically on that call.
func (ins *Inserter) InsertProp(key string) error {
	if ins.kind != sinkObject {
		return ErrWrongKind
	}
	ins.pendingKey = key
	ins.hasPendingKey = true
	return nil
}

func (ins *Inserter) InsertPropNull(key string) error {
	if err := ins.InsertProp(key); err != nil {
		return err
	}
	return ins.InsertNull()
}

func (ins *Inserter) InsertPropBool(key string, v bool) error {
	if err := ins.InsertProp(key); err != nil {
		return err
	}
	return ins.InsertBool(v)
}

func (ins *Inserter) InsertPropU64(key string, v uint64) error {
	if err := ins.InsertProp(key); err != nil {
		return err
	}
	return ins.InsertU64(v)
}

func (ins *Inserter) InsertPropI64(key string, v int64) error {
	if err := ins.InsertProp(key); err != nil {
		return err
	}
	return ins.InsertI64(v)
}

func (ins *Inserter) InsertPropF32(key string, v float32) error {
	if err := ins.InsertProp(key); err != nil {
		return err
	}
	return ins.InsertF32(v)
}

func (ins *Inserter) InsertPropString(key, v string) error {
	if err := ins.InsertProp(key); err != nil {
		return err
	}
	return ins.InsertString(v)
}

// --- column append ---

func (ins *Inserter) checkColumnDup(valueBytes []byte) error {
	if !ins.col.abstractType.IsSet() {
		return nil
	}
	dup, err := columnHasDuplicate(ins.col, valueBytes)
	if err != nil {
		return err
	}
	if dup {
		return ErrDuplicate
	}
	return nil
}

// InsertColumnU8 appends a value to a column-targeted Inserter.
func (ins *Inserter) InsertColumnU8(v uint8) error {
	if ins.kind != sinkColumn {
		return ErrWrongKind
	}
	if err := ins.checkColumnDup([]byte{v}); err != nil {
		return err
	}
	i, err := ins.col.Append()
	if err != nil {
		return err
	}
	return ins.col.UpdateSetU8(i, v)
}

func (ins *Inserter) InsertColumnU64(v uint64) error {
	if ins.kind != sinkColumn {
		return ErrWrongKind
	}
	b := make([]byte, 8)
	binary.LittleEndian.PutUint64(b, v)
	if err := ins.checkColumnDup(b); err != nil {
		return err
	}
	i, err := ins.col.Append()
	if err != nil {
		return err
	}
	return ins.col.UpdateSetU64(i, v)
}

func (ins *Inserter) InsertColumnI64(v int64) error {
	if ins.kind != sinkColumn {
		return ErrWrongKind
	}
	b := make([]byte, 8)
	binary.LittleEndian.PutUint64(b, uint64(v))
	if err := ins.checkColumnDup(b); err != nil {
		return err
	}
	i, err := ins.col.Append()
	if err != nil {
		return err
	}
	return ins.col.UpdateSetI64(i, v)
}

func (ins *Inserter) InsertColumnF32(v float32) error {
	if ins.kind != sinkColumn {
		return ErrWrongKind
	}
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, math.Float32bits(v))
	if err := ins.checkColumnDup(b); err != nil {
		return err
	}
	i, err := ins.col.Append()
	if err != nil {
		return err
	}
	return ins.col.UpdateSetF32(i, v)
}

func (ins *Inserter) InsertColumnBool(v bool) error {
	if ins.kind != sinkColumn {
		return ErrWrongKind
	}
	sentinel := byte(2)
	if v {
		sentinel = 1
	}
	if err := ins.checkColumnDup([]byte{sentinel}); err != nil {
		return err
	}
	i, err := ins.col.Append()
	if err != nil {
		return err
	}
	return ins.col.UpdateSetBool(i, v)
}

// --- nested container begin/end ---

func beginMarker(kindByte field.Tag) []byte { return []byte{byte(kindByte)} }

// InsertArrayBegin opens a nested array at the cursor and returns a child
// Inserter bound to it. The parent Inserter refuses further operations
// until InsertArrayEnd/InsertObjectEnd/InsertColumnEnd closes the child.
func (ins *Inserter) InsertArrayBegin(abstractType field.AbstractType) (*Inserter, error) {
	if err := ins.checkNoChild(); err != nil {
		return nil, err
	}
	if ins.kind == sinkColumn {
		return nil, ErrNoNesting
	}
	beginTag := field.ArrayTag(abstractType)
	endTag := []byte{byte(field.ArrayEnd)}
	payload := append(beginMarker(beginTag), endTag...)
	var at int
	var err error
	switch ins.kind {
	case sinkArray:
		at = ins.arr.pos
		err = ins.spliceArray(payload)
	case sinkObject:
		if !ins.hasPendingKey {
			return nil, ErrWrongKind
		}
		keyBuf := memfile.New(nil, memfile.ReadWrite)
		if werr := strcodec.WriteString(keyBuf, ins.pendingKey, false); werr != nil {
			return nil, werr
		}
		ins.hasPendingKey = false
		ins.pendingKey = ""
		full := append(keyBuf.Bytes(), payload...)
		at = ins.obj.pos
		err = ins.spliceObject(full)
		at += len(full) - len(payload)
	}
	if err != nil {
		return nil, err
	}
	var mf *memfile.MemFile
	var mode memfile.Mode
	if ins.kind == sinkArray {
		mf = ins.arr.mf
		mode = ins.arr.mode
	} else {
		mf = ins.obj.mf
		mode = ins.obj.mode
	}
	child, err := OpenArray(mf, at, mode)
	if err != nil {
		return nil, err
	}
	if ins.kind == sinkArray {
		child.parent = ins.arr
		child.parentGen = &ins.arr.gen
		child.sawParentGen = ins.arr.gen.get()
	} else {
		child.parent = ins.obj
		child.parentGen = &ins.obj.gen
		child.sawParentGen = ins.obj.gen.get()
	}
	childIns := &Inserter{kind: sinkArray, arr: child}
	ins.child = childIns
	return childIns, nil
}

// InsertArrayEnd closes a nested array Inserter previously opened with
// InsertArrayBegin, requiring it to be the most recently opened child.
func (ins *Inserter) InsertArrayEnd(child *Inserter) error {
	return ins.closeChild(child)
}

// InsertObjectBegin opens a nested object at the cursor, mirroring InsertArrayBegin.
func (ins *Inserter) InsertObjectBegin(abstractType field.AbstractType) (*Inserter, error) {
	if err := ins.checkNoChild(); err != nil {
		return nil, err
	}
	if ins.kind == sinkColumn {
		return nil, ErrNoNesting
	}
	beginTag := field.ObjectTag(abstractType)
	payload := append(beginMarker(beginTag), byte(field.ObjectEnd))
	var at int
	var err error
	switch ins.kind {
	case sinkArray:
		at = ins.arr.pos
		err = ins.spliceArray(payload)
	case sinkObject:
		if !ins.hasPendingKey {
			return nil, ErrWrongKind
		}
		keyBuf := memfile.New(nil, memfile.ReadWrite)
		if werr := strcodec.WriteString(keyBuf, ins.pendingKey, false); werr != nil {
			return nil, werr
		}
		ins.hasPendingKey = false
		ins.pendingKey = ""
		full := append(keyBuf.Bytes(), payload...)
		at = ins.obj.pos
		err = ins.spliceObject(full)
		at += len(full) - len(payload)
	}
	if err != nil {
		return nil, err
	}
	var mf *memfile.MemFile
	var mode memfile.Mode
	if ins.kind == sinkArray {
		mf = ins.arr.mf
		mode = ins.arr.mode
	} else {
		mf = ins.obj.mf
		mode = ins.obj.mode
	}
	child, err := OpenObject(mf, at, mode)
	if err != nil {
		return nil, err
	}
	if ins.kind == sinkArray {
		child.parent = ins.arr
		child.parentGen = &ins.arr.gen
		child.sawParentGen = ins.arr.gen.get()
	} else {
		child.parent = ins.obj
		child.parentGen = &ins.obj.gen
		child.sawParentGen = ins.obj.gen.get()
	}
	childIns := &Inserter{kind: sinkObject, obj: child}
	ins.child = childIns
	return childIns, nil
}

// InsertObjectEnd closes a nested object Inserter.
func (ins *Inserter) InsertObjectEnd(child *Inserter) error {
	return ins.closeChild(child)
}

// InsertColumnBegin opens a nested column of the given element type and
// zero capacity at the cursor.
func (ins *Inserter) InsertColumnBegin(abstractType field.AbstractType, colType field.ColumnType) (*Inserter, error) {
	if err := ins.checkNoChild(); err != nil {
		return nil, err
	}
	if ins.kind == sinkColumn {
		return nil, ErrNoNesting
	}
	beginTag := field.ColumnTag(abstractType)
	payload := []byte{byte(beginTag), byte(colType)}
	payload = append(payload, varuint.Encode(0)...) // capacity
	payload = append(payload, varuint.Encode(0)...) // count
	payload = append(payload, byte(field.ColumnEnd))

	var at int
	var err error
	switch ins.kind {
	case sinkArray:
		at = ins.arr.pos
		err = ins.spliceArray(payload)
	case sinkObject:
		if !ins.hasPendingKey {
			return nil, ErrWrongKind
		}
		keyBuf := memfile.New(nil, memfile.ReadWrite)
		if werr := strcodec.WriteString(keyBuf, ins.pendingKey, false); werr != nil {
			return nil, werr
		}
		ins.hasPendingKey = false
		ins.pendingKey = ""
		full := append(keyBuf.Bytes(), payload...)
		at = ins.obj.pos
		err = ins.spliceObject(full)
		at += len(full) - len(payload)
	}
	if err != nil {
		return nil, err
	}
	var mf *memfile.MemFile
	var mode memfile.Mode
	if ins.kind == sinkArray {
		mf = ins.arr.mf
		mode = ins.arr.mode
	} else {
		mf = ins.obj.mf
		mode = ins.obj.mode
	}
	child, err := OpenColumn(mf, at, mode)
	if err != nil {
		return nil, err
	}
	if ins.kind == sinkArray {
		child.parent = ins.arr
		child.parentGen = &ins.arr.gen
		child.sawParentGen = ins.arr.gen.get()
	} else {
		child.parent = ins.obj
		child.parentGen = &ins.obj.gen
		child.sawParentGen = ins.obj.gen.get()
	}
	childIns := &Inserter{kind: sinkColumn, col: child}
	ins.child = childIns
	return childIns, nil
}

// InsertColumnEnd closes a nested column Inserter.
func (ins *Inserter) InsertColumnEnd(child *Inserter) error {
	return ins.closeChild(child)
}

func (ins *Inserter) closeChild(child *Inserter) error {
	if ins.child != child {
		return ErrProtocolMismatch
	}
	ins.child = nil
	return nil
}
