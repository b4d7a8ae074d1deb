package jsoncodec

import (
	"fmt"
	"math"

	"github.com/jaksonlabs/carbonfmt/container"
	"github.com/jaksonlabs/carbonfmt/field"
	"github.com/jaksonlabs/carbonfmt/memfile"
	"github.com/jaksonlabs/carbonfmt/record"
)

// FromJSON parses data (which must decode to a JSON array at the top
// level) into a fresh record.Record with the given key variant and root
// abstract type. Every nested JSON array/object becomes an array/object
// container of that same root abstract type; FromJSON has
// no way to recover the column layout or set/sorted semantics a
// from_json caller wants, since none of that survives a JSON round-trip
// — same limitation the teacher's jsonbuilder accepts for RPC responses
// reconstructed from parsed JSON.
func FromJSON(data []byte, variant record.KeyVariant, rootAbstractType field.AbstractType) (*record.Record, error) {
	var v interface{}
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	arr, ok := v.([]interface{})
	if !ok {
		return nil, fmt.Errorf("jsoncodec: top-level JSON value must be an array")
	}

	rec, err := record.New(variant, rootAbstractType)
	if err != nil {
		return nil, err
	}
	root, err := container.OpenArray(rec.MemFile(), rec.PayloadOffset(), memfile.ReadWrite)
	if err != nil {
		return nil, err
	}
	ins := root.InsertBegin()
	for _, elem := range arr {
		if err := insertArrayValue(ins, elem, rootAbstractType); err != nil {
			return nil, err
		}
	}
	return rec, nil
}

func insertArrayValue(ins *container.Inserter, v interface{}, childAbstractType field.AbstractType) error {
	switch t := v.(type) {
	case nil:
		return ins.InsertNull()
	case bool:
		return ins.InsertBool(t)
	case string:
		return ins.InsertString(t)
	case float64:
		return insertNumber(ins, t)
	case []interface{}:
		child, err := ins.InsertArrayBegin(childAbstractType)
		if err != nil {
			return err
		}
		for _, elem := range t {
			if err := insertArrayValue(child, elem, childAbstractType); err != nil {
				return err
			}
		}
		return ins.InsertArrayEnd(child)
	case map[string]interface{}:
		child, err := ins.InsertObjectBegin(childAbstractType)
		if err != nil {
			return err
		}
		for k, elem := range t {
			if err := insertObjectValue(child, k, elem, childAbstractType); err != nil {
				return err
			}
		}
		return ins.InsertObjectEnd(child)
	default:
		return fmt.Errorf("jsoncodec: unsupported JSON value type %T", v)
	}
}

func insertObjectValue(ins *container.Inserter, key string, v interface{}, childAbstractType field.AbstractType) error {
	switch t := v.(type) {
	case nil:
		return ins.InsertPropNull(key)
	case bool:
		return ins.InsertPropBool(key, t)
	case string:
		return ins.InsertPropString(key, t)
	case float64:
		return insertPropNumber(ins, key, t)
	case []interface{}:
		if err := ins.InsertProp(key); err != nil {
			return err
		}
		child, err := ins.InsertArrayBegin(childAbstractType)
		if err != nil {
			return err
		}
		for _, elem := range t {
			if err := insertArrayValue(child, elem, childAbstractType); err != nil {
				return err
			}
		}
		return ins.InsertArrayEnd(child)
	case map[string]interface{}:
		if err := ins.InsertProp(key); err != nil {
			return err
		}
		child, err := ins.InsertObjectBegin(childAbstractType)
		if err != nil {
			return err
		}
		for k, elem := range t {
			if err := insertObjectValue(child, k, elem, childAbstractType); err != nil {
				return err
			}
		}
		return ins.InsertObjectEnd(child)
	default:
		return fmt.Errorf("jsoncodec: unsupported JSON value type %T", v)
	}
}

// insertNumber widens a decoded JSON number to i64 when it is an exact
// integer, otherwise stores it as f32 (carbonfmt has no f64 leaf type).
func insertNumber(ins *container.Inserter, f float64) error {
	if f == math.Trunc(f) && !math.IsInf(f, 0) {
		return ins.InsertI64(int64(f))
	}
	return ins.InsertF32(float32(f))
}

func insertPropNumber(ins *container.Inserter, key string, f float64) error {
	if f == math.Trunc(f) && !math.IsInf(f, 0) {
		return ins.InsertPropI64(key, int64(f))
	}
	return ins.InsertPropF32(key, float32(f))
}
