package module

import (
	"encoding/json"

	"nyra/internal/excn"
	"nyra/internal/value"
)

func init() {
	Register("json", loadJSON)
}

func loadJSON(h *value.Heap) *value.ModuleObject {
	_, mod := value.ModuleValue(h, "json")

	mod.Set("dumps", value.NativeFunctionValue(h, "json.dumps", func(args []value.Value) (value.Value, *excn.Error) {
		if len(args) != 1 {
			return value.Value{}, excn.New(excn.TypeError, "json.dumps() takes exactly one argument")
		}
		b, err := json.Marshal(toGo(args[0]))
		if err != nil {
			return value.Value{}, excn.New(excn.ValueError, "json.dumps: %v", err)
		}
		return value.NonInternedStringValue(h, string(b)), nil
	}))

	mod.Set("loads", value.NativeFunctionValue(h, "json.loads", func(args []value.Value) (value.Value, *excn.Error) {
		if len(args) != 1 || args[0].Object() == nil {
			return value.Value{}, excn.New(excn.TypeError, "json.loads() takes exactly one string argument")
		}
		var decoded interface{}
		if err := json.Unmarshal([]byte(value.Str(args[0])), &decoded); err != nil {
			return value.Value{}, excn.New(excn.ValueError, "json.loads: %v", err)
		}
		return fromGo(h, decoded), nil
	}))

	return mod
}

// toGo converts a Value into plain Go data json.Marshal understands.
func toGo(v value.Value) interface{} {
	switch o := v.Object().(type) {
	case nil:
		switch {
		case v.IsNone():
			return nil
		case v.IsBool():
			return v.AsBool()
		case v.IsInt():
			return v.AsInt()
		case v.IsFloat():
			return v.AsFloat()
		}
		return nil
	default:
		return toGoObject(o, v)
	}
}

func toGoObject(o value.Object, v value.Value) interface{} {
	switch v.Tag() {
	case value.TagString:
		return value.Str(v)
	case value.TagList, value.TagTuple:
		elems := listElems(v)
		out := make([]interface{}, len(elems))
		for i, e := range elems {
			out[i] = toGo(e)
		}
		return out
	case value.TagDict:
		d := v.Object().(*value.DictObject)
		out := map[string]interface{}{}
		for _, k := range d.Table.Keys() {
			kv := k.(value.Value)
			val, _ := d.Table.Get(k)
			out[value.Str(kv)] = toGo(val)
		}
		return out
	default:
		return value.Repr(v)
	}
}

func listElems(v value.Value) []value.Value {
	if l, ok := v.Object().(*value.ListObject); ok {
		return l.Elems
	}
	if t, ok := v.Object().(*value.TupleObject); ok {
		return t.Elems
	}
	return nil
}

func fromGo(h *value.Heap, data interface{}) value.Value {
	switch d := data.(type) {
	case nil:
		return value.None()
	case bool:
		return value.Bool(d)
	case float64:
		if d == float64(int64(d)) {
			return value.Int(int64(d))
		}
		return value.Float(d)
	case string:
		return value.StringValue(h, d)
	case []interface{}:
		elems := make([]value.Value, len(d))
		for i, e := range d {
			elems[i] = fromGo(h, e)
		}
		return value.ListValue(h, elems)
	case map[string]interface{}:
		dictVal, dict := value.DictValue(h)
		for k, v := range d {
			dict.Table.Set(value.StringValue(h, k), fromGo(h, v))
		}
		return dictVal
	default:
		return value.None()
	}
}
