// Package jsoncodec implements carbonfmt's explicitly out-of-core
// from_json/to_json contract (§1 non-goals: carbonfmt itself never
// parses or emits JSON as part of the wire format), the way the teacher
// ships a usable JSON RPC layer (cmd-rpc-server-car.go,
// jsonbuilder.builder.go) on top of its core CAR/store format using
// jsoniter rather than encoding/json.
package jsoncodec

import (
	"fmt"

	jsoniter "github.com/json-iterator/go"

	"github.com/jaksonlabs/carbonfmt/container"
	"github.com/jaksonlabs/carbonfmt/field"
	"github.com/jaksonlabs/carbonfmt/memfile"
	"github.com/jaksonlabs/carbonfmt/record"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ToJSON walks rec's root array and its contents into a generic Go value
// tree, then marshals that tree with jsoniter. Column containers become
// JSON arrays of their scalar slots (nulls preserved as JSON null).
func ToJSON(rec *record.Record) ([]byte, error) {
	root, err := container.OpenArray(rec.MemFile(), rec.PayloadOffset(), memfile.ReadOnly)
	if err != nil {
		return nil, err
	}
	v, err := arrayToValue(root)
	if err != nil {
		return nil, err
	}
	return json.Marshal(v)
}

func arrayToValue(it *container.ArrayIterator) ([]interface{}, error) {
	out := []interface{}{}
	for {
		tag, ok, err := it.Next()
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		v, err := leafToValue(it, tag)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func objectToValue(it *container.ObjectIterator) (map[string]interface{}, error) {
	out := map[string]interface{}{}
	for {
		tag, ok, err := it.Next()
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		name, err := it.PropName()
		if err != nil {
			return nil, err
		}
		v, err := propToValue(it, tag)
		if err != nil {
			return nil, err
		}
		out[name] = v
	}
	return out, nil
}

func columnToValue(it *container.ColumnIterator) ([]interface{}, error) {
	out := make([]interface{}, 0, it.Count())
	for i := 0; i < it.Count(); i++ {
		isNull, err := it.ValueIsNull(i)
		if err != nil {
			return nil, err
		}
		if isNull {
			out = append(out, nil)
			continue
		}
		v, err := columnSlotToValue(it, i)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func columnSlotToValue(it *container.ColumnIterator, i int) (interface{}, error) {
	switch it.ColumnType() {
	case field.ColU8:
		return it.U8At(i)
	case field.ColU16:
		return it.U16At(i)
	case field.ColU32:
		return it.U32At(i)
	case field.ColU64:
		return it.U64At(i)
	case field.ColI8:
		return it.I8At(i)
	case field.ColI16:
		return it.I16At(i)
	case field.ColI32:
		return it.I32At(i)
	case field.ColI64:
		return it.I64At(i)
	case field.ColF32:
		return it.F32At(i)
	case field.ColBool:
		v, _, err := it.BoolAt(i)
		return v, err
	default:
		return nil, fmt.Errorf("jsoncodec: unsupported column type %v", it.ColumnType())
	}
}

func leafToValue(it *container.ArrayIterator, tag field.Tag) (interface{}, error) {
	switch {
	case tag == field.Null:
		return nil, nil
	case tag == field.True, tag == field.False:
		return it.BoolValue()
	case field.IsNumber(tag):
		return numericArrayValue(it, tag)
	case tag == field.String:
		return it.StringValue()
	case tag == field.BinaryStandard, tag == field.BinaryCustom:
		_, _, data, err := it.BinaryValue()
		return data, err
	case field.IsArrayBegin(tag):
		child, err := it.ArrayValue()
		if err != nil {
			return nil, err
		}
		return arrayToValue(child)
	case field.IsObjectBegin(tag):
		child, err := it.ObjectValue()
		if err != nil {
			return nil, err
		}
		return objectToValue(child)
	case field.IsColumnBegin(tag):
		child, err := it.ColumnValue()
		if err != nil {
			return nil, err
		}
		return columnToValue(child)
	default:
		return nil, fmt.Errorf("jsoncodec: unsupported tag 0x%02x", byte(tag))
	}
}

func propToValue(it *container.ObjectIterator, tag field.Tag) (interface{}, error) {
	switch {
	case tag == field.Null:
		return nil, nil
	case tag == field.True, tag == field.False:
		return it.BoolValue()
	case field.IsNumber(tag):
		return numericObjectValue(it, tag)
	case tag == field.String:
		return it.StringValue()
	case tag == field.BinaryStandard, tag == field.BinaryCustom:
		_, _, data, err := it.BinaryValue()
		return data, err
	case field.IsArrayBegin(tag):
		child, err := it.ArrayValue()
		if err != nil {
			return nil, err
		}
		return arrayToValue(child)
	case field.IsObjectBegin(tag):
		child, err := it.ObjectValue()
		if err != nil {
			return nil, err
		}
		return objectToValue(child)
	case field.IsColumnBegin(tag):
		child, err := it.ColumnValue()
		if err != nil {
			return nil, err
		}
		return columnToValue(child)
	default:
		return nil, fmt.Errorf("jsoncodec: unsupported tag 0x%02x", byte(tag))
	}
}

func numericArrayValue(it *container.ArrayIterator, tag field.Tag) (interface{}, error) {
	switch tag {
	case field.U8:
		return it.U8Value()
	case field.U16:
		return it.U16Value()
	case field.U32:
		return it.U32Value()
	case field.U64:
		return it.U64Value()
	case field.I8:
		return it.I8Value()
	case field.I16:
		return it.I16Value()
	case field.I32:
		return it.I32Value()
	case field.I64:
		return it.I64Value()
	case field.F32:
		return it.F32Value()
	default:
		return nil, fmt.Errorf("jsoncodec: unsupported numeric tag 0x%02x", byte(tag))
	}
}

func numericObjectValue(it *container.ObjectIterator, tag field.Tag) (interface{}, error) {
	switch tag {
	case field.U8:
		return it.U8Value()
	case field.U16:
		return it.U16Value()
	case field.U32:
		return it.U32Value()
	case field.U64:
		return it.U64Value()
	case field.I8:
		return it.I8Value()
	case field.I16:
		return it.I16Value()
	case field.I32:
		return it.I32Value()
	case field.I64:
		return it.I64Value()
	case field.F32:
		return it.F32Value()
	default:
		return nil, fmt.Errorf("jsoncodec: unsupported numeric tag 0x%02x", byte(tag))
	}
}
