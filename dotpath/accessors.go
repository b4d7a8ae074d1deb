package dotpath

import (
	"errors"

	"github.com/jaksonlabs/carbonfmt/container"
)

// ErrWrongCursor is returned when a Result accessor is called against a
// cursor kind it doesn't apply to (e.g. StringValue on a column leaf).
var ErrWrongCursor = errors.New("dotpath: accessor not valid for this result's container kind")

// StringValue reads the resolved leaf as a string.
func (r Result) StringValue() (string, error) {
	switch r.kind {
	case curArray:
		return r.arr.StringValue()
	case curObject:
		return r.obj.StringValue()
	default:
		return "", ErrWrongCursor
	}
}

// BoolValue reads the resolved leaf as a boolean.
func (r Result) BoolValue() (bool, error) {
	switch r.kind {
	case curArray:
		return r.arr.BoolValue()
	case curObject:
		return r.obj.BoolValue()
	case curColumn:
		v, notNull, err := r.col.BoolAt(r.colIndex)
		if err != nil {
			return false, err
		}
		if !notNull {
			return false, container.ErrTypeMismatch
		}
		return v, nil
	default:
		return false, ErrWrongCursor
	}
}

// IsNull reports whether the resolved leaf is null (array/object) or holds
// the column null sentinel.
func (r Result) IsNull() (bool, error) {
	switch r.kind {
	case curArray:
		return r.arr.IsNull()
	case curObject:
		return r.obj.IsNull()
	case curColumn:
		return r.col.ValueIsNull(r.colIndex)
	default:
		return false, ErrWrongCursor
	}
}

func (r Result) U8Value() (uint8, error) {
	switch r.kind {
	case curArray:
		return r.arr.U8Value()
	case curObject:
		return r.obj.U8Value()
	case curColumn:
		return r.col.U8At(r.colIndex)
	default:
		return 0, ErrWrongCursor
	}
}

func (r Result) U16Value() (uint16, error) {
	switch r.kind {
	case curArray:
		return r.arr.U16Value()
	case curObject:
		return r.obj.U16Value()
	case curColumn:
		return r.col.U16At(r.colIndex)
	default:
		return 0, ErrWrongCursor
	}
}

func (r Result) U32Value() (uint32, error) {
	switch r.kind {
	case curArray:
		return r.arr.U32Value()
	case curObject:
		return r.obj.U32Value()
	case curColumn:
		return r.col.U32At(r.colIndex)
	default:
		return 0, ErrWrongCursor
	}
}

func (r Result) U64Value() (uint64, error) {
	switch r.kind {
	case curArray:
		return r.arr.U64Value()
	case curObject:
		return r.obj.U64Value()
	case curColumn:
		return r.col.U64At(r.colIndex)
	default:
		return 0, ErrWrongCursor
	}
}

func (r Result) I8Value() (int8, error) {
	switch r.kind {
	case curArray:
		return r.arr.I8Value()
	case curObject:
		return r.obj.I8Value()
	case curColumn:
		return r.col.I8At(r.colIndex)
	default:
		return 0, ErrWrongCursor
	}
}

func (r Result) I16Value() (int16, error) {
	switch r.kind {
	case curArray:
		return r.arr.I16Value()
	case curObject:
		return r.obj.I16Value()
	case curColumn:
		return r.col.I16At(r.colIndex)
	default:
		return 0, ErrWrongCursor
	}
}

func (r Result) I32Value() (int32, error) {
	switch r.kind {
	case curArray:
		return r.arr.I32Value()
	case curObject:
		return r.obj.I32Value()
	case curColumn:
		return r.col.I32At(r.colIndex)
	default:
		return 0, ErrWrongCursor
	}
}

func (r Result) I64Value() (int64, error) {
	switch r.kind {
	case curArray:
		return r.arr.I64Value()
	case curObject:
		return r.obj.I64Value()
	case curColumn:
		return r.col.I64At(r.colIndex)
	default:
		return 0, ErrWrongCursor
	}
}

func (r Result) F32Value() (float32, error) {
	switch r.kind {
	case curArray:
		return r.arr.F32Value()
	case curObject:
		return r.obj.F32Value()
	case curColumn:
		return r.col.F32At(r.colIndex)
	default:
		return 0, ErrWrongCursor
	}
}

// BinaryValue reads the resolved leaf as a binary blob. Not valid for
// column leaves, which are always fixed-width scalars.
func (r Result) BinaryValue() (custom bool, mimeID uint64, data []byte, err error) {
	switch r.kind {
	case curArray:
		return r.arr.BinaryValue()
	case curObject:
		return r.obj.BinaryValue()
	default:
		return false, 0, nil, ErrWrongCursor
	}
}

// ArrayContainer opens the resolved leaf as an array sub-iterator, for
// callers that want to keep traversing manually past where Find stopped.
func (r Result) ArrayContainer() (*container.ArrayIterator, error) {
	switch r.kind {
	case curArray:
		return r.arr.ArrayValue()
	case curObject:
		return r.obj.ArrayValue()
	default:
		return nil, ErrWrongCursor
	}
}

// ObjectContainer opens the resolved leaf as an object sub-iterator.
func (r Result) ObjectContainer() (*container.ObjectIterator, error) {
	switch r.kind {
	case curArray:
		return r.arr.ObjectValue()
	case curObject:
		return r.obj.ObjectValue()
	default:
		return nil, ErrWrongCursor
	}
}

// ColumnContainer opens the resolved leaf as a column sub-iterator.
func (r Result) ColumnContainer() (*container.ColumnIterator, error) {
	switch r.kind {
	case curArray:
		return r.arr.ColumnValue()
	case curObject:
		return r.obj.ColumnValue()
	default:
		return nil, ErrWrongCursor
	}
}
