// Package record implements the record header (§3.1, §4.9's key/commit
// layout in the spec) and the Record type every iterator, revise session,
// and dot-path lookup is anchored to.
package record

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/jaksonlabs/carbonfmt/field"
	"github.com/jaksonlabs/carbonfmt/memfile"
	"github.com/jaksonlabs/carbonfmt/uid"
	"github.com/jaksonlabs/carbonfmt/varuint"
)

// KeyVariant is the 1-byte marker at byte 0 of every record.
type KeyVariant byte

const (
	NoKey   KeyVariant = 0x00
	AutoKey KeyVariant = 0x01
	UKey    KeyVariant = 0x02
	IKey    KeyVariant = 0x03
	SKey    KeyVariant = 0x04
)

func (k KeyVariant) String() string {
	switch k {
	case NoKey:
		return "nokey"
	case AutoKey:
		return "autokey"
	case UKey:
		return "ukey"
	case IKey:
		return "ikey"
	case SKey:
		return "skey"
	default:
		return fmt.Sprintf("record.KeyVariant(0x%02x)", byte(k))
	}
}

// Key is the decoded key-section payload.
type Key struct {
	Variant KeyVariant
	U       uint64 // AutoKey, UKey
	I       int64  // IKey
	S       string // SKey
}

var (
	ErrIllegalArg   = errors.New("record: illegal argument")
	ErrMarkerMapping = errors.New("record: unrecognized key variant byte")
)

// Record is the top-level document: key section, commit section (if the
// key variant carries one), and exactly one array container payload. A
// Record exclusively owns its backing buffer (§3.4); callers that need
// concurrent mutation must go through the revise package.
type Record struct {
	mf            *memfile.MemFile
	payloadOffset int // byte offset of the root array's begin marker

	// transientCommit backs commit_hash() for NoKey records, which have no
	// persisted commit section. Lazily assigned on first read per §4.11.
	transientCommit *uint64
}

// New builds an empty record with the given key variant and root-array
// abstract type. AutoKey records are assigned a fresh process-local id.
func New(variant KeyVariant, rootAbstractType field.AbstractType) (*Record, error) {
	mf := memfile.New(nil, memfile.ReadWrite)
	key := Key{}
	if variant == AutoKey {
		key = NewAutoKey()
	}
	if err := writeKeySection(mf, variant, key); err != nil {
		return nil, err
	}
	if variant != NoKey {
		if err := mf.Write(make([]byte, 8)); err != nil { // commit = 0 (uninitialized)
			return nil, err
		}
	}
	payloadOffset := mf.Tell()
	if err := mf.WriteByte(byte(field.ArrayTag(rootAbstractType))); err != nil {
		return nil, err
	}
	if err := mf.WriteByte(byte(field.ArrayEnd)); err != nil {
		return nil, err
	}
	return &Record{mf: mf, payloadOffset: payloadOffset}, nil
}

// NewWithKey builds an empty record with an explicit caller-supplied key
// value (UKey/IKey/SKey). For AutoKey use New, which assigns the id.
func NewWithKey(key Key, rootAbstractType field.AbstractType) (*Record, error) {
	if key.Variant == AutoKey {
		return nil, fmt.Errorf("%w: use New for autokey records", ErrIllegalArg)
	}
	mf := memfile.New(nil, memfile.ReadWrite)
	if err := writeKeySection(mf, key.Variant, key); err != nil {
		return nil, err
	}
	if key.Variant != NoKey {
		if err := mf.Write(make([]byte, 8)); err != nil {
			return nil, err
		}
	}
	payloadOffset := mf.Tell()
	if err := mf.WriteByte(byte(field.ArrayTag(rootAbstractType))); err != nil {
		return nil, err
	}
	if err := mf.WriteByte(byte(field.ArrayEnd)); err != nil {
		return nil, err
	}
	return &Record{mf: mf, payloadOffset: payloadOffset}, nil
}

// FromBytes parses an existing record buffer (as produced by Bytes) without
// copying it defensively; the Record takes ownership of buf.
func FromBytes(buf []byte) (*Record, error) {
	mf := memfile.New(buf, memfile.ReadOnly)
	variant, _, err := readKeySection(mf)
	if err != nil {
		return nil, err
	}
	if variant != NoKey {
		if _, err := mf.Read(8); err != nil {
			return nil, fmt.Errorf("record: truncated commit section: %w", err)
		}
	}
	payloadOffset := mf.Tell()
	tag, err := mf.PeekByte()
	if err != nil {
		return nil, fmt.Errorf("record: truncated payload: %w", err)
	}
	if !field.IsArrayBegin(field.Tag(tag)) {
		return nil, fmt.Errorf("%w: payload does not begin with an array marker", ErrMarkerMapping)
	}
	return &Record{mf: mf, payloadOffset: payloadOffset}, nil
}

// Bytes returns the record's serialized byte form.
func (r *Record) Bytes() []byte { return r.mf.Bytes() }

// MemFile exposes the backing buffer for the iterator and revise packages.
// It is not part of the stable public surface for ordinary callers.
func (r *Record) MemFile() *memfile.MemFile { return r.mf }

// PayloadOffset returns the byte offset of the root array's begin marker.
func (r *Record) PayloadOffset() int { return r.payloadOffset }

// Key decodes and returns this record's key.
func (r *Record) Key() (Key, error) {
	mf := memfile.New(r.mf.Bytes(), memfile.ReadOnly)
	_, key, err := readKeySection(mf)
	return key, err
}

// CommitHash returns the record's 64-bit commit hash. For NoKey records,
// which have no persisted commit section, a fresh process-local id is
// lazily assigned on first call and cached in memory only (§4.11); it is
// not written into the byte buffer and will not survive re-parsing from
// bytes.
func (r *Record) CommitHash() (uint64, error) {
	key, err := r.Key()
	if err != nil {
		return 0, err
	}
	if key.Variant == NoKey {
		if r.transientCommit == nil {
			v := uid.Generate()
			r.transientCommit = &v
		}
		return *r.transientCommit, nil
	}
	off := commitOffset(r.mf.Bytes())
	return binary.LittleEndian.Uint64(r.mf.Bytes()[off : off+8]), nil
}

// SetCommitHash overwrites the persisted commit section. It is a no-op
// error for NoKey records, which carry no commit section.
func (r *Record) SetCommitHash(h uint64) error {
	key, err := r.Key()
	if err != nil {
		return err
	}
	if key.Variant == NoKey {
		return fmt.Errorf("%w: nokey records have no commit section", ErrIllegalArg)
	}
	off := commitOffset(r.mf.Bytes())
	binary.LittleEndian.PutUint64(r.mf.Bytes()[off:off+8], h)
	return nil
}

// Clone produces a deep byte-copy of the record, used by the revise engine
// to derive a mutable working copy from an original without aliasing its
// buffer. The clone is writable: revise's whole premise is mutating it.
func (r *Record) Clone() *Record {
	cp := make([]byte, len(r.mf.Bytes()))
	copy(cp, r.mf.Bytes())
	return &Record{mf: memfile.New(cp, memfile.ReadWrite), payloadOffset: r.payloadOffset}
}

func commitOffset(buf []byte) int {
	mf := memfile.New(buf, memfile.ReadOnly)
	_, _, _ = readKeySection(mf)
	return mf.Tell()
}

func writeKeySection(mf *memfile.MemFile, variant KeyVariant, key Key) error {
	if err := mf.WriteByte(byte(variant)); err != nil {
		return err
	}
	switch variant {
	case NoKey:
		return nil
	case AutoKey:
		b := make([]byte, 8)
		binary.LittleEndian.PutUint64(b, key.U)
		return mf.Write(b)
	case UKey:
		return mf.Write(varuint.Encode(key.U))
	case IKey:
		return mf.Write(varuint.Encode(varuint.ZigZagEncode(key.I)))
	case SKey:
		if err := mf.Write(varuint.Encode(uint64(len(key.S)))); err != nil {
			return err
		}
		return mf.Write([]byte(key.S))
	default:
		return ErrMarkerMapping
	}
}

func readKeySection(mf *memfile.MemFile) (KeyVariant, Key, error) {
	b, err := mf.ReadByte()
	if err != nil {
		return 0, Key{}, err
	}
	variant := KeyVariant(b)
	key := Key{Variant: variant}
	switch variant {
	case NoKey:
		return variant, key, nil
	case AutoKey:
		raw, err := mf.Read(8)
		if err != nil {
			return 0, Key{}, err
		}
		key.U = binary.LittleEndian.Uint64(raw)
		return variant, key, nil
	case UKey:
		v, n, err := varuint.Decode(mf.Bytes(), mf.Tell())
		if err != nil {
			return 0, Key{}, err
		}
		if err := mf.Skip(n); err != nil {
			return 0, Key{}, err
		}
		key.U = v
		return variant, key, nil
	case IKey:
		v, n, err := varuint.Decode(mf.Bytes(), mf.Tell())
		if err != nil {
			return 0, Key{}, err
		}
		if err := mf.Skip(n); err != nil {
			return 0, Key{}, err
		}
		key.I = varuint.ZigZagDecode(v)
		return variant, key, nil
	case SKey:
		length, n, err := varuint.Decode(mf.Bytes(), mf.Tell())
		if err != nil {
			return 0, Key{}, err
		}
		if err := mf.Skip(n); err != nil {
			return 0, Key{}, err
		}
		raw, err := mf.Read(int(length))
		if err != nil {
			return 0, Key{}, err
		}
		key.S = string(raw)
		return variant, key, nil
	default:
		return 0, Key{}, fmt.Errorf("%w: 0x%02x", ErrMarkerMapping, b)
	}
}

// NewAutoKey mints a Key carrying a fresh process-local unique id, for
// callers that build the key section themselves; New uses it for AutoKey
// records.
func NewAutoKey() Key {
	return Key{Variant: AutoKey, U: uid.Generate()}
}
