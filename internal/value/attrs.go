package value

import "nyra/internal/excn"

// GetAttr implements the . operator for every value, instances
// included: for an instance it looks in the instance's own attributes,
// then up the class chain, and binds a found method into a
// MethodObject. Binding needs the heap but nothing beyond that — no
// interpreter reentrance is needed just to look a name up.
func GetAttr(h *Heap, obj Value, name string) (Value, *excn.Error) {
	switch o := obj.Object().(type) {
	case *InstanceObject:
		if v, ok := o.Attrs.Get(stringKey(name)); ok {
			return v, nil
		}
		if m, ok := o.Class.LookupMethod(name); ok {
			if closure, ok := m.Object().(*ClosureObject); ok {
				return MethodValue(h, obj, closure), nil
			}
			return m, nil
		}
		return Value{}, attributeErr(o.Class.Name, name)
	case *NativeInstanceObject:
		if fn, ok := o.Class.Methods[name]; ok {
			return NativeMethodValue(h, obj, o.Data, name, fn), nil
		}
		return Value{}, attributeErr(o.Class.Name, name)
	case *ClassObject:
		if v, ok := o.LookupMethod(name); ok {
			return v, nil
		}
		return Value{}, attributeErr("type", name)
	case *NativeClassObject:
		if _, ok := o.Methods[name]; ok {
			return Value{}, excn.New(excn.AttributeError, "%s: unbound native methods cannot be read without an instance", name)
		}
		return Value{}, attributeErr("type", name)
	case *ModuleObject:
		if v, ok := o.Get(name); ok {
			return v, nil
		}
		return Value{}, excn.New(excn.AttributeError, "module %q has no attribute %q", o.Name, name)
	case *DictObject:
		// Dicts expose no attribute protocol: attribute access on a
		// dict value always raises, matching the upstream interpreter
		// this core is modeled on (its Dict_GetAttr is a stub that
		// never resolves a name).
		return Value{}, attributeErr("dict", name)
	default:
		return Value{}, attributeErr(obj.Tag().String(), name)
	}
}

func SetAttr(obj Value, name string, v Value) *excn.Error {
	switch o := obj.Object().(type) {
	case *InstanceObject:
		o.Attrs.Set(stringKey(name), v)
		return nil
	case *ClassObject:
		o.Methods.Set(stringKey(name), v)
		return nil
	case *ModuleObject:
		o.Set(name, v)
		return nil
	default:
		return excn.New(excn.AttributeError, "%q object has no attribute %q", obj.Tag(), name)
	}
}

func DelAttr(obj Value, name string) *excn.Error {
	switch o := obj.Object().(type) {
	case *InstanceObject:
		if _, ok := o.Attrs.Delete(stringKey(name)); ok {
			return nil
		}
		return attributeErr(o.Class.Name, name)
	default:
		return excn.New(excn.AttributeError, "%q object has no attribute %q", obj.Tag(), name)
	}
}

func attributeErr(typeName, name string) *excn.Error {
	return excn.New(excn.AttributeError, "%q object has no attribute %q", typeName, name)
}

// GetItem implements the [] read operator: sequence indexing (with
// negative-from-end wraparound and slicing) and dict key lookup. A
// TagInstance operand returns NotImplemented rather than erroring,
// mirroring Add/Sub/etc — internal/vm completes dispatch through
// __getitem__ for those, since that needs to re-enter the interpreter.
func GetItem(h *Heap, obj, index Value) (Value, *excn.Error) {
	if _, ok := obj.Object().(*InstanceObject); ok {
		// Checked before the slice-index branch too: instance[a:b]
		// must reach __getitem__(slice) the same as instance[i].
		return NotImplemented(), nil
	}
	if sl, ok := index.Object().(*SliceObject); ok {
		return getSlice(h, obj, sl)
	}
	switch o := obj.Object().(type) {
	case *StringObject:
		// Byte-based per spec: indexing returns a 1-byte string, not a
		// 1-rune string (matching the byte-array data model).
		i, err := normalizeIndex(index, int64(len(o.Bytes)), "string")
		if err != nil {
			return Value{}, err
		}
		return StringValue(h, string(o.Bytes[i:i+1])), nil
	case *ListObject:
		i, err := normalizeIndex(index, int64(len(o.Elems)), "list")
		if err != nil {
			return Value{}, err
		}
		return o.Elems[i], nil
	case *TupleObject:
		i, err := normalizeIndex(index, int64(len(o.Elems)), "tuple")
		if err != nil {
			return Value{}, err
		}
		return o.Elems[i], nil
	case *DictObject:
		v, ok := o.Table.Get(index)
		if !ok {
			return Value{}, excn.New(excn.KeyError, "%s", Repr(index))
		}
		return v, nil
	default:
		return Value{}, excn.New(excn.TypeError, "%q object is not subscriptable", obj.Tag())
	}
}

// SetItem implements the []= write operator. A TagInstance operand
// returns NotImplemented rather than erroring; see GetItem.
func SetItem(obj, index, v Value) (Value, *excn.Error) {
	switch o := obj.Object().(type) {
	case *InstanceObject:
		return NotImplemented(), nil
	case *ListObject:
		i, err := normalizeIndex(index, int64(len(o.Elems)), "list")
		if err != nil {
			return Value{}, err
		}
		o.Elems[i] = v
		return Value{}, nil
	case *DictObject:
		o.Table.Set(index, v)
		return Value{}, nil
	default:
		return Value{}, excn.New(excn.TypeError, "%q object does not support item assignment", obj.Tag())
	}
}

// DelItem implements del obj[index]. A TagInstance operand returns
// NotImplemented rather than erroring; see GetItem.
func DelItem(obj, index Value) (Value, *excn.Error) {
	switch o := obj.Object().(type) {
	case *InstanceObject:
		return NotImplemented(), nil
	case *ListObject:
		i, err := normalizeIndex(index, int64(len(o.Elems)), "list")
		if err != nil {
			return Value{}, err
		}
		o.Elems = append(o.Elems[:i], o.Elems[i+1:]...)
		return Value{}, nil
	case *DictObject:
		if _, ok := o.Table.Delete(index); !ok {
			return Value{}, excn.New(excn.KeyError, "%s", Repr(index))
		}
		return Value{}, nil
	default:
		return Value{}, excn.New(excn.TypeError, "%q object does not support item deletion", obj.Tag())
	}
}

// normalizeIndex resolves a single-element subscript index: must be an
// int, negative values count from the end, out of range raises
// IndexError.
func normalizeIndex(index Value, n int64, kind string) (int64, *excn.Error) {
	if !index.IsInt() {
		return 0, excn.New(excn.TypeError, "%s indices must be integers, not %q", kind, index.Tag())
	}
	i := index.AsInt()
	if i < 0 {
		i += n
	}
	if i < 0 || i >= n {
		return 0, excn.New(excn.IndexError, "%s index out of range", kind)
	}
	return i, nil
}

func getSlice(h *Heap, obj Value, sl *SliceObject) (Value, *excn.Error) {
	switch o := obj.Object().(type) {
	case *StringObject:
		out := sliceBytes(o.Bytes, sl)
		return StringValue(h, string(out)), nil
	case *ListObject:
		return ListValue(h, sliceValues(o.Elems, sl)), nil
	case *TupleObject:
		return TupleValue(h, sliceValues(o.Elems, sl)), nil
	default:
		return Value{}, excn.New(excn.TypeError, "%q object is not subscriptable", obj.Tag())
	}
}

func sliceValues(elems []Value, sl *SliceObject) []Value {
	start, stop, step := sl.Resolve(int64(len(elems)))
	var out []Value
	if step > 0 {
		for i := start; i < stop; i += step {
			out = append(out, elems[i])
		}
	} else {
		for i := start; i > stop; i += step {
			out = append(out, elems[i])
		}
	}
	return out
}

func sliceBytes(b []byte, sl *SliceObject) []byte {
	start, stop, step := sl.Resolve(int64(len(b)))
	var out []byte
	if step > 0 {
		for i := start; i < stop; i += step {
			out = append(out, b[i])
		}
	} else {
		for i := start; i > stop; i += step {
			out = append(out, b[i])
		}
	}
	return out
}
