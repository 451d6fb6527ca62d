package value

import "nyra/internal/excn"

// IteratorObject drives ITER_NEXT. next is a Go closure that owns
// whatever cursor state the source needs (an index, a snapshot of dict
// keys); Source is kept only so the collector can trace it and so it
// can't be freed out from under an in-progress iteration.
type IteratorObject struct {
	ObjHeader
	Source Value
	next   func() (Value, bool)
}

func NewIterator(h *Heap, source Value, next func() (Value, bool)) *IteratorObject {
	it := &IteratorObject{ObjHeader: ObjHeader{Tag: TagIterator}, Source: source, next: next}
	h.register(it, 40)
	return it
}

func IteratorValue(h *Heap, source Value, next func() (Value, bool)) Value {
	return objectValue(NewIterator(h, source, next))
}

// Next returns the next element and true, or a zero Value and false
// once exhausted — the VM's ITER_NEXT opcode turns a false return into
// a jump to its exit address; nothing is raised, so the general
// exception-handler stack is not involved.
func (it *IteratorObject) Next() (Value, bool) { return it.next() }

// Iterate builds the right IteratorObject for v's concrete type:
// lists/tuples/ranges iterate by index, strings by byte, dicts by their
// insertion-order key snapshot. A TagInstance operand returns
// NotImplemented rather than erroring; internal/vm completes dispatch
// through __iter__ for those. Returns an error for non-iterable types.
func Iterate(h *Heap, v Value) (Value, *excn.Error) {
	switch o := v.Object().(type) {
	case *ListObject:
		i := 0
		return IteratorValue(h, v, func() (Value, bool) {
			if i >= len(o.Elems) {
				return Value{}, false
			}
			e := o.Elems[i]
			i++
			return e, true
		}), nil
	case *TupleObject:
		i := 0
		return IteratorValue(h, v, func() (Value, bool) {
			if i >= len(o.Elems) {
				return Value{}, false
			}
			e := o.Elems[i]
			i++
			return e, true
		}), nil
	case *RangeObject:
		i := int64(0)
		n := o.Len()
		return IteratorValue(h, v, func() (Value, bool) {
			if i >= n {
				return Value{}, false
			}
			val := Int(o.At(i))
			i++
			return val, true
		}), nil
	case *StringObject:
		// Byte-wise, matching Len/GetItem's byte-based indexing: each
		// step yields a 1-byte string, not a 1-rune string.
		i := 0
		return IteratorValue(h, v, func() (Value, bool) {
			if i >= len(o.Bytes) {
				return Value{}, false
			}
			b := o.Bytes[i]
			i++
			return StringValue(h, string(b)), true
		}), nil
	case *DictObject:
		keys := o.Table.Keys()
		i := 0
		return IteratorValue(h, v, func() (Value, bool) {
			if i >= len(keys) {
				return Value{}, false
			}
			k := keys[i].(Value)
			i++
			return k, true
		}), nil
	case *InstanceObject:
		// No general iterator protocol for user classes at this layer
		// (building one would mean re-entering the interpreter to call
		// __iter__/__next__ bytecode closures); NotImplemented signals
		// the VM to try the instance-dunder fallback, mirroring Add's
		// TagInstance handling. See internal/vm/operators.go's iterate.
		return NotImplemented(), nil
	default:
		return Value{}, excn.New(excn.TypeError, "%s object is not iterable", v.Tag())
	}
}
