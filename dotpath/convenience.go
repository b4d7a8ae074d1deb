package dotpath

import (
	"github.com/jaksonlabs/carbonfmt/field"
	"github.com/jaksonlabs/carbonfmt/memfile"
	"github.com/jaksonlabs/carbonfmt/record"
)

// FindOr evaluates path and, for any unresolved outcome caused by the path
// genuinely not existing (empty-doc, no-such-key, no-such-index), returns
// fallback instead of an error. Format and precondition failures (a
// malformed path, a corrupt buffer) still propagate as errors.
func FindOr(rec *record.Record, path string, fallback Result) (Result, error) {
	res, err := Find(rec, path, memfile.ReadOnly)
	if err != nil {
		return Result{}, err
	}
	switch res.Status {
	case Resolved:
		return res, nil
	case EmptyDoc, NoSuchKey, NoSuchIndex:
		return fallback, nil
	default:
		return Result{}, res.Err()
	}
}

// FindNumeric evaluates path and widens any numeric leaf (u8..i64, f32) to
// float64 for convenience. It is read-only: writes must go through the
// precisely-typed UpdateX accessors on the underlying iterator.
func FindNumeric(rec *record.Record, path string) (float64, bool, error) {
	res, err := Find(rec, path, memfile.ReadOnly)
	if err != nil {
		return 0, false, err
	}
	if res.Status != Resolved {
		return 0, false, nil
	}
	if !field.IsNumber(res.Tag) {
		return 0, false, nil
	}
	switch {
	case field.IsUnsigned(res.Tag):
		switch res.Tag {
		case field.U8:
			v, err := res.U8Value()
			return float64(v), err == nil, err
		case field.U16:
			v, err := res.U16Value()
			return float64(v), err == nil, err
		case field.U32:
			v, err := res.U32Value()
			return float64(v), err == nil, err
		case field.U64:
			v, err := res.U64Value()
			return float64(v), err == nil, err
		}
	case field.IsSigned(res.Tag):
		switch res.Tag {
		case field.I8:
			v, err := res.I8Value()
			return float64(v), err == nil, err
		case field.I16:
			v, err := res.I16Value()
			return float64(v), err == nil, err
		case field.I32:
			v, err := res.I32Value()
			return float64(v), err == nil, err
		case field.I64:
			v, err := res.I64Value()
			return float64(v), err == nil, err
		}
	case field.IsFloat(res.Tag):
		v, err := res.F32Value()
		return float64(v), err == nil, err
	}
	return 0, false, nil
}
