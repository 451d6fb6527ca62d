// This file implements operator dispatch: the forward-method/reflected-
// method/identity-fallback protocol the value-methods helper in the
// corpus's C interpreter (binaryMethod) implements, generalized into
// Go. Every dispatcher here resolves fully for the builtin types
// (numbers, strings, lists, tuples, dicts, ranges); when either operand
// of a binary arithmetic operator is a user-defined instance, it returns
// NotImplemented. Compare instead returns a TypeError, which the VM's
// compareOp takes as its cue to try the instances' methods; the unary
// Positive/Negate raise TypeError for instances, with no fallback. It is
// internal/vm that completes dispatch for instances by looking up a
// dunder-style method on the instance's class and re-entering the
// interpreter to run it (CallValue) — see internal/vm/operators.go.
// That split exists because invoking a
// bytecode closure requires pushing a VM frame, and this package has no
// dependency on the VM.
package value

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"nyra/internal/excn"
	"nyra/internal/hashtable"
)

// Add implements the + operator, including string/list/tuple
// concatenation.
func Add(h *Heap, a, b Value) (Value, *excn.Error) {
	if a.IsNumber() && b.IsNumber() {
		return numericBinary(a, b, func(x, y int64) (int64, bool) { return x + y, true }, func(x, y float64) float64 { return x + y }), nil
	}
	if a.Tag() == TagInstance || b.Tag() == TagInstance {
		return NotImplemented(), nil
	}
	if as, ok := a.Object().(*StringObject); ok {
		if bs, ok := b.Object().(*StringObject); ok {
			return NonInternedStringValue(h, as.String()+bs.String()), nil
		}
		return Value{}, typeErr("+", a, b)
	}
	if al, ok := a.Object().(*ListObject); ok {
		if bl, ok := b.Object().(*ListObject); ok {
			out := make([]Value, 0, len(al.Elems)+len(bl.Elems))
			out = append(out, al.Elems...)
			out = append(out, bl.Elems...)
			return ListValue(h, out), nil
		}
		return Value{}, typeErr("+", a, b)
	}
	if at, ok := a.Object().(*TupleObject); ok {
		if bt, ok := b.Object().(*TupleObject); ok {
			out := make([]Value, 0, len(at.Elems)+len(bt.Elems))
			out = append(out, at.Elems...)
			out = append(out, bt.Elems...)
			return TupleValue(h, out), nil
		}
		return Value{}, typeErr("+", a, b)
	}
	return Value{}, typeErr("+", a, b)
}

func Sub(a, b Value) (Value, *excn.Error) { return numericOnly("-", a, b, func(x, y int64) int64 { return x - y }, func(x, y float64) float64 { return x - y }) }
func Mul(h *Heap, a, b Value) (Value, *excn.Error) {
	if a.IsNumber() && b.IsNumber() {
		return numericBinary(a, b, func(x, y int64) (int64, bool) { return x * y, true }, func(x, y float64) float64 { return x * y }), nil
	}
	if s, n, ok := stringAndInt(a, b); ok {
		if n < 0 {
			n = 0
		}
		return NonInternedStringValue(h, strings.Repeat(s, int(n))), nil
	}
	if l, n, ok := listAndInt(a, b); ok {
		if n < 0 {
			n = 0
		}
		out := make([]Value, 0, len(l)*int(n))
		for i := int64(0); i < n; i++ {
			out = append(out, l...)
		}
		return ListValue(h, out), nil
	}
	if a.Tag() == TagInstance || b.Tag() == TagInstance {
		return NotImplemented(), nil
	}
	return Value{}, typeErr("*", a, b)
}

func stringAndInt(a, b Value) (string, int64, bool) {
	if s, ok := a.Object().(*StringObject); ok && b.IsInt() {
		return s.String(), b.AsInt(), true
	}
	if s, ok := b.Object().(*StringObject); ok && a.IsInt() {
		return s.String(), a.AsInt(), true
	}
	return "", 0, false
}

func listAndInt(a, b Value) ([]Value, int64, bool) {
	if l, ok := a.Object().(*ListObject); ok && b.IsInt() {
		return l.Elems, b.AsInt(), true
	}
	if l, ok := b.Object().(*ListObject); ok && a.IsInt() {
		return l.Elems, a.AsInt(), true
	}
	return nil, 0, false
}

func TrueDivide(a, b Value) (Value, *excn.Error) {
	if !a.IsNumber() || !b.IsNumber() {
		if a.Tag() == TagInstance || b.Tag() == TagInstance {
			return NotImplemented(), nil
		}
		return Value{}, typeErr("/", a, b)
	}
	if isZero(b) {
		return Value{}, excn.New(excn.ZeroDivisionError, "division by zero")
	}
	return Float(a.AsFloat64() / b.AsFloat64()), nil
}

func FloorDivide(a, b Value) (Value, *excn.Error) {
	if !a.IsNumber() || !b.IsNumber() {
		if a.Tag() == TagInstance || b.Tag() == TagInstance {
			return NotImplemented(), nil
		}
		return Value{}, typeErr("//", a, b)
	}
	if isZero(b) {
		return Value{}, excn.New(excn.ZeroDivisionError, "division by zero")
	}
	if a.IsInt() && b.IsInt() {
		return Int(floorDivInt(a.AsInt(), b.AsInt())), nil
	}
	return Float(math.Floor(a.AsFloat64() / b.AsFloat64())), nil
}

func floorDivInt(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func Mod(a, b Value) (Value, *excn.Error) {
	if !a.IsNumber() || !b.IsNumber() {
		if a.Tag() == TagInstance || b.Tag() == TagInstance {
			return NotImplemented(), nil
		}
		return Value{}, typeErr("%", a, b)
	}
	if isZero(b) {
		return Value{}, excn.New(excn.ZeroDivisionError, "modulo by zero")
	}
	if a.IsInt() && b.IsInt() {
		x, y := a.AsInt(), b.AsInt()
		m := x % y
		if m != 0 && (m < 0) != (y < 0) {
			m += y
		}
		return Int(m), nil
	}
	x, y := a.AsFloat64(), b.AsFloat64()
	m := math.Mod(x, y)
	if m != 0 && (m < 0) != (y < 0) {
		m += y
	}
	return Float(m), nil
}

func Pow(a, b Value) (Value, *excn.Error) {
	if !a.IsNumber() || !b.IsNumber() {
		if a.Tag() == TagInstance || b.Tag() == TagInstance {
			return NotImplemented(), nil
		}
		return Value{}, typeErr("**", a, b)
	}
	if a.IsInt() && b.IsInt() && b.AsInt() >= 0 {
		return Int(intPow(a.AsInt(), b.AsInt())), nil
	}
	return Float(math.Pow(a.AsFloat64(), b.AsFloat64())), nil
}

func intPow(base, exp int64) int64 {
	result := int64(1)
	for exp > 0 {
		if exp&1 == 1 {
			result *= base
		}
		base *= base
		exp >>= 1
	}
	return result
}

func isZero(v Value) bool {
	if v.IsInt() {
		return v.AsInt() == 0
	}
	return v.AsFloat() == 0
}

func numericOnly(op string, a, b Value, ifn func(x, y int64) int64, ffn func(x, y float64) float64) (Value, *excn.Error) {
	if a.IsNumber() && b.IsNumber() {
		return numericBinary(a, b, func(x, y int64) (int64, bool) { return ifn(x, y), true }, ffn), nil
	}
	if a.Tag() == TagInstance || b.Tag() == TagInstance {
		return NotImplemented(), nil
	}
	return Value{}, typeErr(op, a, b)
}

func numericBinary(a, b Value, ifn func(x, y int64) (int64, bool), ffn func(x, y float64) float64) Value {
	if a.IsInt() && b.IsInt() {
		if r, ok := ifn(a.AsInt(), b.AsInt()); ok {
			return Int(r)
		}
	}
	return Float(ffn(a.AsFloat64(), b.AsFloat64()))
}

// Positive/Negate/Not implement the unary +, -, and `not` operators.
func Positive(a Value) (Value, *excn.Error) {
	if a.IsInt() {
		return a, nil
	}
	if a.IsFloat() {
		return a, nil
	}
	return Value{}, excn.New(excn.TypeError, "bad operand type for unary +: %s", a.Tag())
}

func Negate(a Value) (Value, *excn.Error) {
	if a.IsInt() {
		return Int(-a.AsInt()), nil
	}
	if a.IsFloat() {
		return Float(-a.AsFloat()), nil
	}
	return Value{}, excn.New(excn.TypeError, "bad operand type for unary -: %s", a.Tag())
}

func Not(a Value) Value { return Bool(!ToBool(a)) }

// ToBool implements truthiness: the default for any object is true,
// overridden for the falsy builtin zero values.
func ToBool(v Value) bool {
	switch v.Tag() {
	case TagNone, TagUndefined, TagNotImplemented:
		return false
	case TagBool:
		return v.AsBool()
	case TagInt:
		return v.AsInt() != 0
	case TagFloat:
		return v.AsFloat() != 0
	case TagString:
		return len(v.Object().(*StringObject).Bytes) > 0
	case TagList:
		return len(v.Object().(*ListObject).Elems) > 0
	case TagTuple:
		return len(v.Object().(*TupleObject).Elems) > 0
	case TagDict:
		return v.Object().(*DictObject).Table.Len() > 0
	case TagRange:
		return v.Object().(*RangeObject).Len() > 0
	default:
		return true
	}
}

// EqualValues implements ==: each side's type-specific equality is
// tried; if neither side recognizes the other's type, the result falls
// back to identity, matching value_methods.c's special-cased behavior
// for eq/ne specifically (no other operator has this fallback).
func EqualValues(a, b Value) (bool, *excn.Error) {
	if a.IsNumber() && b.IsNumber() {
		if a.IsInt() && b.IsInt() {
			return a.AsInt() == b.AsInt(), nil
		}
		return a.AsFloat64() == b.AsFloat64(), nil
	}
	if a.kind != KObject || b.kind != KObject {
		return a.kind == b.kind && a.num == b.num, nil
	}
	switch ao := a.Object().(type) {
	case *StringObject:
		if bo, ok := b.Object().(*StringObject); ok {
			if ao == bo {
				return true, nil
			}
			return ao.String() == bo.String(), nil
		}
	case *ListObject:
		if bo, ok := b.Object().(*ListObject); ok {
			return equalSlices(ao.Elems, bo.Elems)
		}
	case *TupleObject:
		if bo, ok := b.Object().(*TupleObject); ok {
			return equalSlices(ao.Elems, bo.Elems)
		}
	case *DictObject:
		if bo, ok := b.Object().(*DictObject); ok {
			return equalDicts(ao, bo)
		}
	}
	return Identical(a, b), nil
}

func equalSlices(a, b []Value) (bool, *excn.Error) {
	if len(a) != len(b) {
		return false, nil
	}
	for i := range a {
		eq, err := EqualValues(a[i], b[i])
		if err != nil {
			return false, err
		}
		if !eq {
			return false, nil
		}
	}
	return true, nil
}

func equalDicts(a, b *DictObject) (bool, *excn.Error) {
	if a.Table.Len() != b.Table.Len() {
		return false, nil
	}
	eq := true
	a.Table.Each(func(k hashtable.Key, v Value) bool {
		kv := k.(Value)
		bv, ok := b.Table.Get(kv)
		if !ok {
			eq = false
			return false
		}
		same, err := EqualValues(v, bv)
		if err != nil || !same {
			eq = false
			return false
		}
		return true
	})
	return eq, nil
}

func NotEqual(a, b Value) (bool, *excn.Error) {
	eq, err := EqualValues(a, b)
	if err != nil {
		return false, err
	}
	return !eq, nil
}

// Compare implements the four ordering operators for numbers and
// strings (the only builtin types with a total order); lists/tuples
// compare lexicographically.
func Compare(a, b Value) (int, *excn.Error) {
	if a.IsNumber() && b.IsNumber() {
		x, y := a.AsFloat64(), b.AsFloat64()
		switch {
		case x < y:
			return -1, nil
		case x > y:
			return 1, nil
		default:
			return 0, nil
		}
	}
	if as, ok := a.Object().(*StringObject); ok {
		if bs, ok := b.Object().(*StringObject); ok {
			return strings.Compare(as.String(), bs.String()), nil
		}
	}
	if al, ok := a.Object().(*ListObject); ok {
		if bl, ok := b.Object().(*ListObject); ok {
			return compareSlices(al.Elems, bl.Elems)
		}
	}
	if at, ok := a.Object().(*TupleObject); ok {
		if bt, ok := b.Object().(*TupleObject); ok {
			return compareSlices(at.Elems, bt.Elems)
		}
	}
	return 0, excn.New(excn.TypeError, "'<' not supported between instances of %q and %q", a.Tag(), b.Tag())
}

func compareSlices(a, b []Value) (int, *excn.Error) {
	for i := 0; i < len(a) && i < len(b); i++ {
		c, err := Compare(a[i], b[i])
		if err != nil {
			return 0, err
		}
		if c != 0 {
			return c, nil
		}
	}
	return len(a) - len(b), nil
}

// Hash implements the core value hash used for dict keys and set
// membership; lists and dicts are explicitly unhashable (mutable).
func Hash(v Value) (uint64, *excn.Error) {
	switch v.Tag() {
	case TagNone, TagUndefined, TagNotImplemented:
		return 0, nil
	case TagBool:
		if v.AsBool() {
			return 1, nil
		}
		return 0, nil
	case TagInt:
		return uint64(v.AsInt()), nil
	case TagFloat:
		return math.Float64bits(v.AsFloat()), nil
	case TagString:
		return v.Object().(*StringObject).Hash(), nil
	case TagTuple:
		t := v.Object().(*TupleObject)
		h := uint64(17)
		for _, e := range t.Elems {
			eh, err := Hash(e)
			if err != nil {
				return 0, err
			}
			h = h*31 + eh
		}
		return h, nil
	default:
		return 0, excn.New(excn.TypeError, "unhashable type: %q", v.Tag())
	}
}

// Len implements len() for the builtin containers and strings. String
// length is the byte count, per spec's "len returns code-unit length
// (bytes)" and the {length, ..., bytes[length+1]} string layout — not
// rune count.
func Len(v Value) (int64, *excn.Error) {
	switch o := v.Object().(type) {
	case *StringObject:
		return int64(len(o.Bytes)), nil
	case *ListObject:
		return int64(len(o.Elems)), nil
	case *TupleObject:
		return int64(len(o.Elems)), nil
	case *DictObject:
		return int64(o.Table.Len()), nil
	case *RangeObject:
		return o.Len(), nil
	}
	return 0, excn.New(excn.TypeError, "object of type %q has no len()", v.Tag())
}

// Str and Repr implement the default str()/repr() rendering; instance
// values get the "<ClassName object>" form. The VM's str()/repr()/print
// builtins check each instance for a __str__/__repr__ override and
// re-enter the interpreter to run it before falling back to this
// function (see internal/vm/operators.go's strValue/reprValue).
func Str(v Value) string {
	if s, ok := v.Object().(*StringObject); ok {
		return s.String()
	}
	return Repr(v)
}

func Repr(v Value) string {
	switch v.Tag() {
	case TagUndefined:
		return "<undefined>"
	case TagNotImplemented:
		return "NotImplemented"
	case TagNone:
		return "None"
	case TagBool:
		if v.AsBool() {
			return "True"
		}
		return "False"
	case TagInt:
		return strconv.FormatInt(v.AsInt(), 10)
	case TagFloat:
		return formatFloat(v.AsFloat())
	case TagString:
		return strconv.Quote(v.Object().(*StringObject).String())
	case TagList:
		return reprSlice(v.Object().(*ListObject).Elems, "[", "]")
	case TagTuple:
		elems := v.Object().(*TupleObject).Elems
		if len(elems) == 1 {
			return reprSlice(elems, "(", ",)")
		}
		return reprSlice(elems, "(", ")")
	case TagDict:
		return reprDict(v.Object().(*DictObject))
	case TagRange:
		r := v.Object().(*RangeObject)
		return fmt.Sprintf("range(%d, %d, %d)", r.Start, r.Stop, r.Step)
	case TagFunction, TagClosure:
		return fmt.Sprintf("<function %s>", functionName(v))
	case TagNativeFunction:
		return fmt.Sprintf("<built-in function %s>", v.Object().(*NativeFunctionObject).Name)
	case TagClass, TagNativeClass:
		return fmt.Sprintf("<class '%s'>", className(v))
	case TagInstance:
		return fmt.Sprintf("<%s object>", instanceClassName(v))
	case TagModule:
		return fmt.Sprintf("<module %q>", v.Object().(*ModuleObject).Name)
	default:
		return fmt.Sprintf("<%s>", v.Tag())
	}
}

// TypeRepr implements type()'s result: the class-like "<class 'name'>"
// form spec.md §8 scenario 1 requires (e.g. print(type(1 + 2.5)) ->
// "<class 'float'>"). An instance's own class name is used in place of
// the generic "instance" tag name, since the class is what Python-style
// type() actually names.
func TypeRepr(v Value) string {
	switch o := v.Object().(type) {
	case *InstanceObject:
		return fmt.Sprintf("<class '%s'>", o.Class.Name)
	case *NativeInstanceObject:
		return fmt.Sprintf("<class '%s'>", o.Class.Name)
	default:
		return fmt.Sprintf("<class '%s'>", v.Tag().String())
	}
}

func functionName(v Value) string {
	if c, ok := v.Object().(*ClosureObject); ok {
		return c.Function.Name()
	}
	if f, ok := v.Object().(*FunctionObject); ok {
		return f.Name()
	}
	return "?"
}

func className(v Value) string {
	if c, ok := v.Object().(*ClassObject); ok {
		return c.Name
	}
	if c, ok := v.Object().(*NativeClassObject); ok {
		return c.Name
	}
	return "?"
}

func instanceClassName(v Value) string {
	switch inst := v.Object().(type) {
	case *InstanceObject:
		return inst.Class.Name
	case *NativeInstanceObject:
		return inst.Class.Name
	}
	return "?"
}

func formatFloat(f float64) string {
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eE") && !math.IsInf(f, 0) && !math.IsNaN(f) {
		s += ".0"
	}
	return s
}

func reprSlice(elems []Value, open, close string) string {
	var sb strings.Builder
	sb.WriteString(open)
	for i, e := range elems {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(Repr(e))
	}
	sb.WriteString(close)
	return sb.String()
}

func reprDict(d *DictObject) string {
	var sb strings.Builder
	sb.WriteString("{")
	for i, k := range d.Table.Keys() {
		if i > 0 {
			sb.WriteString(", ")
		}
		kv := k.(Value)
		val, _ := d.Table.Get(k)
		sb.WriteString(Repr(kv))
		sb.WriteString(": ")
		sb.WriteString(Repr(val))
	}
	sb.WriteString("}")
	return sb.String()
}

func typeErr(op string, a, b Value) *excn.Error {
	return excn.New(excn.TypeError, "unsupported operand type(s) for %s: %q and %q", op, a.Tag(), b.Tag())
}
