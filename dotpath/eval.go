package dotpath

import (
	"errors"
	"fmt"

	"github.com/jaksonlabs/carbonfmt/container"
	"github.com/jaksonlabs/carbonfmt/field"
	"github.com/jaksonlabs/carbonfmt/memfile"
	"github.com/jaksonlabs/carbonfmt/record"
)

// Status classifies how a path evaluation concluded.
type Status int

const (
	// Resolved means the path names an existing value; Result's accessors
	// are valid.
	Resolved Status = iota
	// EmptyDoc means an index node was applied to an array (the root or a
	// nested one) that has no elements at all.
	EmptyDoc
	// NoSuchIndex means an array/column index node had no corresponding slot.
	NoSuchIndex
	// NoSuchKey means an object key node had no matching property.
	NoSuchKey
	// NotTraversable means a node tried to descend into a scalar value.
	NotTraversable
	// NotAnObject means a key node was applied to an array or column, or an
	// index node was applied to an object.
	NotAnObject
	// NoContainer means an index node was applied outside any container
	// context (should not occur given the grammar, guarded defensively).
	NoContainer
	// Internal wraps an unexpected lower-level error (format corruption,
	// I/O failure against the backing buffer).
	Internal
)

func (s Status) String() string {
	switch s {
	case Resolved:
		return "resolved"
	case EmptyDoc:
		return "empty-doc"
	case NoSuchIndex:
		return "no-such-index"
	case NoSuchKey:
		return "no-such-key"
	case NotTraversable:
		return "not-traversable"
	case NotAnObject:
		return "not-an-object"
	case NoContainer:
		return "no-container"
	case Internal:
		return "internal"
	default:
		return fmt.Sprintf("dotpath.Status(%d)", int(s))
	}
}

// ErrUnresolved is the sentinel wrapped into an error by Result.Err when
// Status != Resolved.
var ErrUnresolved = errors.New("dotpath: path did not resolve")

type cursorKind int

const (
	curArray cursorKind = iota
	curObject
	curColumn
)

// Result is the outcome of evaluating a path against a record. On a
// Resolved status its typed accessors read the matched leaf; on any other
// status only Status and Err are meaningful.
type Result struct {
	Status Status
	Tag    field.Tag

	kind     cursorKind
	arr      *container.ArrayIterator
	obj      *container.ObjectIterator
	col      *container.ColumnIterator
	colIndex int
}

// Err returns nil for a Resolved result, else an error wrapping
// ErrUnresolved that names the Status.
func (r Result) Err() error {
	if r.Status == Resolved {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrUnresolved, r.Status)
}

// Find evaluates a dot-path against rec's root array, opening containers in
// the given mode (ReadOnly for lookups, ReadWrite when the caller intends
// to follow with an UpdateX/Remove call through the returned Result).
func Find(rec *record.Record, path string, mode memfile.Mode) (Result, error) {
	nodes, err := Parse(path)
	if err != nil {
		return Result{}, err
	}
	return FindNodes(rec, nodes, mode)
}

// FindNodes evaluates an already-parsed node sequence.
func FindNodes(rec *record.Record, nodes []Node, mode memfile.Mode) (Result, error) {
	root, err := container.OpenArray(rec.MemFile(), rec.PayloadOffset(), mode)
	if err != nil {
		return Result{}, err
	}
	if len(nodes) == 0 {
		return Result{Status: Internal}, fmt.Errorf("%w: empty node list", ErrUnresolved)
	}

	cur := Result{kind: curArray, arr: root}
	for i, node := range nodes {
		next, status, err := step(cur, node)
		if err != nil {
			return Result{Status: Internal}, err
		}
		if status != Resolved {
			return Result{Status: status}, nil
		}
		cur = next
		if i < len(nodes)-1 {
			descended, status, err := descend(cur)
			if err != nil {
				return Result{Status: Internal}, err
			}
			if status != Resolved {
				return Result{Status: status}, nil
			}
			cur = descended
		}
	}
	return cur, nil
}

// step applies one node against the container cur currently points into,
// returning a Result whose Tag/iterators reference the matched element.
func step(cur Result, node Node) (Result, Status, error) {
	switch cur.kind {
	case curArray:
		return stepArray(cur.arr, node)
	case curObject:
		return stepObject(cur.obj, node)
	case curColumn:
		return stepColumn(cur.col, node)
	default:
		return Result{}, Internal, fmt.Errorf("dotpath: unknown cursor kind %d", cur.kind)
	}
}

func stepArray(it *container.ArrayIterator, node Node) (Result, Status, error) {
	if node.Kind == KindKey {
		return Result{}, NotAnObject, nil
	}
	it.Rewind()
	has, err := it.HasNext()
	if err != nil {
		return Result{}, Internal, err
	}
	if !has {
		return Result{}, EmptyDoc, nil
	}
	var tag field.Tag
	var ok bool
	for i := 0; i <= node.Index; i++ {
		tag, ok, err = it.Next()
		if err != nil {
			return Result{}, Internal, err
		}
		if !ok {
			return Result{}, NoSuchIndex, nil
		}
	}
	return Result{Status: Resolved, kind: curArray, arr: it, Tag: tag}, Resolved, nil
}

func stepObject(it *container.ObjectIterator, node Node) (Result, Status, error) {
	if node.Kind == KindIndex {
		return Result{}, NotAnObject, nil
	}
	it.Rewind()
	for {
		has, err := it.HasNext()
		if err != nil {
			return Result{}, Internal, err
		}
		if !has {
			return Result{}, NoSuchKey, nil
		}
		tag, ok, err := it.Next()
		if err != nil {
			return Result{}, Internal, err
		}
		if !ok {
			return Result{}, NoSuchKey, nil
		}
		name, err := it.PropName()
		if err != nil {
			return Result{}, Internal, err
		}
		if name == node.Key {
			return Result{Status: Resolved, kind: curObject, obj: it, Tag: tag}, Resolved, nil
		}
	}
}

func stepColumn(it *container.ColumnIterator, node Node) (Result, Status, error) {
	if node.Kind == KindKey {
		return Result{}, NotAnObject, nil
	}
	if node.Index >= it.Count() {
		return Result{}, NoSuchIndex, nil
	}
	res := Result{Status: Resolved, kind: curColumn, col: it, colIndex: node.Index}
	isNull, err := it.ValueIsNull(node.Index)
	if err != nil {
		return Result{}, Internal, err
	}
	switch ct := it.ColumnType(); {
	case isNull:
		res.Tag = field.Null
	case ct <= field.ColF32:
		res.Tag = field.U8 + field.Tag(ct)
	}
	return res, Resolved, nil
}

// descend opens a sub-container for a matched element that itself must be
// a container (because more path nodes follow).
func descend(cur Result) (Result, Status, error) {
	switch cur.kind {
	case curArray:
		switch {
		case field.IsArrayBegin(cur.Tag):
			child, err := cur.arr.ArrayValue()
			if err != nil {
				return Result{}, Internal, err
			}
			return Result{kind: curArray, arr: child}, Resolved, nil
		case field.IsObjectBegin(cur.Tag):
			child, err := cur.arr.ObjectValue()
			if err != nil {
				return Result{}, Internal, err
			}
			return Result{kind: curObject, obj: child}, Resolved, nil
		case field.IsColumnBegin(cur.Tag):
			child, err := cur.arr.ColumnValue()
			if err != nil {
				return Result{}, Internal, err
			}
			return Result{kind: curColumn, col: child}, Resolved, nil
		default:
			return Result{}, NotTraversable, nil
		}
	case curObject:
		switch {
		case field.IsArrayBegin(cur.Tag):
			child, err := cur.obj.ArrayValue()
			if err != nil {
				return Result{}, Internal, err
			}
			return Result{kind: curArray, arr: child}, Resolved, nil
		case field.IsObjectBegin(cur.Tag):
			child, err := cur.obj.ObjectValue()
			if err != nil {
				return Result{}, Internal, err
			}
			return Result{kind: curObject, obj: child}, Resolved, nil
		case field.IsColumnBegin(cur.Tag):
			child, err := cur.obj.ColumnValue()
			if err != nil {
				return Result{}, Internal, err
			}
			return Result{kind: curColumn, col: child}, Resolved, nil
		default:
			return Result{}, NotTraversable, nil
		}
	case curColumn:
		// Column slots are always fixed-width scalars (ErrNoNesting); a
		// path node past a column index can never descend further.
		return Result{}, NotTraversable, nil
	default:
		return Result{}, NoContainer, nil
	}
}
