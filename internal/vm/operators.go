package vm

import (
	"nyra/internal/excn"
	"nyra/internal/value"
)

// binaryOpKind selects which value-package dispatcher a binaryOp call
// uses (binaryOp switches on it) and indexes dunderNames, so
// dispatchInstanceBinary (the TagInstance fallback below) looks up the
// method names for the same operator.
type binaryOpKind int

const (
	opAdd binaryOpKind = iota
	opSub
	opMul
	opTrueDiv
	opFloorDiv
	opMod
	opPow
)

var dunderNames = map[binaryOpKind][2]string{
	opAdd:      {"add", "radd"},
	opSub:      {"sub", "rsub"},
	opMul:      {"mul", "rmul"},
	opTrueDiv:  {"truediv", "rtruediv"},
	opFloorDiv: {"floordiv", "rfloordiv"},
	opMod:      {"mod", "rmod"},
	opPow:      {"pow", "rpow"},
}

func (m *Machine) binaryOp(a, b value.Value, kind binaryOpKind) *excn.Error {
	var result value.Value
	var err *excn.Error
	switch kind {
	case opAdd:
		result, err = value.Add(m.Heap, a, b)
	case opSub:
		result, err = value.Sub(a, b)
	case opMul:
		result, err = value.Mul(m.Heap, a, b)
	case opTrueDiv:
		result, err = value.TrueDivide(a, b)
	case opFloorDiv:
		result, err = value.FloorDivide(a, b)
	case opMod:
		result, err = value.Mod(a, b)
	case opPow:
		result, err = value.Pow(a, b)
	}
	if err != nil {
		return m.attach(err)
	}
	if value.IsNotImplemented(result) {
		names := dunderNames[kind]
		resolved, ferr := m.dispatchInstanceBinary(a, b, names[0], names[1])
		if ferr != nil {
			return ferr
		}
		m.push(resolved)
		return nil
	}
	m.push(result)
	return nil
}

// dispatchInstanceBinary implements the forward/reflected method
// protocol for operands where at least one is a user-defined instance:
// try a.__<fwd>__(b); if that instance has no such method or it itself
// returns NotImplemented, try b.__<rev>__(a). Mirrors value_methods.c's
// binaryMethod helper, generalized to re-enter the interpreter since
// these methods are ordinary bytecode closures.
func (m *Machine) dispatchInstanceBinary(a, b value.Value, fwd, rev string) (value.Value, *excn.Error) {
	if inst, ok := a.Object().(*value.InstanceObject); ok {
		if method, ok := inst.Class.LookupMethod("__" + fwd + "__"); ok {
			closure := method.Object().(*value.ClosureObject)
			result, err := m.CallValue(value.MethodValue(m.Heap, a, closure), []value.Value{b})
			if err != nil {
				return value.Value{}, err
			}
			if !value.IsNotImplemented(result) {
				return result, nil
			}
		}
	}
	if inst, ok := b.Object().(*value.InstanceObject); ok {
		if method, ok := inst.Class.LookupMethod("__" + rev + "__"); ok {
			closure := method.Object().(*value.ClosureObject)
			result, err := m.CallValue(value.MethodValue(m.Heap, b, closure), []value.Value{a})
			if err != nil {
				return value.Value{}, err
			}
			if !value.IsNotImplemented(result) {
				return result, nil
			}
		}
	}
	return value.Value{}, m.runtimeError(excn.TypeError, "unsupported operand type(s): %q and %q", a.Tag(), b.Tag())
}

// equalWithInstances implements == including the instance dunder
// fallback and the final identity fallback, which value.EqualValues
// already provides for the builtin-vs-builtin case.
func (m *Machine) equalWithInstances(a, b value.Value) (bool, *excn.Error) {
	if a.Tag() != value.TagInstance && b.Tag() != value.TagInstance {
		return value.EqualValues(a, b)
	}
	result, err := m.dispatchInstanceBinary(a, b, "eq", "eq")
	if err != nil {
		// No __eq__ defined on either side: fall back to identity,
		// exactly like the builtin-vs-builtin path.
		return value.Identical(a, b), nil
	}
	return value.ToBool(result), nil
}

func (m *Machine) compareOp(accept func(int) bool) *excn.Error {
	b, a := m.pop(), m.pop()
	c, err := value.Compare(a, b)
	if err != nil {
		if a.Tag() == value.TagInstance || b.Tag() == value.TagInstance {
			result, ferr := m.dispatchInstanceBinary(a, b, "cmp", "cmp")
			if ferr != nil {
				return ferr
			}
			m.push(value.Bool(accept(int(result.AsInt()))))
			return nil
		}
		return m.attach(err)
	}
	m.push(value.Bool(accept(c)))
	return nil
}

// getItem implements the [] read operator, including the __getitem__
// override point for user-defined instances. Mirrors binaryOp's
// instance fallback: value.GetItem reports TagInstance operands as
// NotImplemented rather than erroring, and it's this package that
// completes dispatch by re-entering the interpreter via CallValue.
func (m *Machine) getItem(obj, index value.Value) (value.Value, *excn.Error) {
	result, err := value.GetItem(m.Heap, obj, index)
	if err != nil {
		return value.Value{}, err
	}
	if !value.IsNotImplemented(result) {
		return result, nil
	}
	inst := obj.Object().(*value.InstanceObject)
	method, ok := inst.Class.LookupMethod("__getitem__")
	if !ok {
		return value.Value{}, m.runtimeError(excn.TypeError, "%q object is not subscriptable", obj.Tag())
	}
	closure := method.Object().(*value.ClosureObject)
	return m.CallValue(value.MethodValue(m.Heap, obj, closure), []value.Value{index})
}

// setItem implements the []= write operator, including the
// __setitem__ override point for user-defined instances.
func (m *Machine) setItem(obj, index, v value.Value) *excn.Error {
	result, err := value.SetItem(obj, index, v)
	if err != nil {
		return err
	}
	if !value.IsNotImplemented(result) {
		return nil
	}
	inst := obj.Object().(*value.InstanceObject)
	method, ok := inst.Class.LookupMethod("__setitem__")
	if !ok {
		return m.runtimeError(excn.TypeError, "%q object does not support item assignment", obj.Tag())
	}
	closure := method.Object().(*value.ClosureObject)
	_, cerr := m.CallValue(value.MethodValue(m.Heap, obj, closure), []value.Value{index, v})
	return cerr
}

// delItem implements the del obj[index] operator, including the
// __delitem__ override point for user-defined instances.
func (m *Machine) delItem(obj, index value.Value) *excn.Error {
	result, err := value.DelItem(obj, index)
	if err != nil {
		return err
	}
	if !value.IsNotImplemented(result) {
		return nil
	}
	inst := obj.Object().(*value.InstanceObject)
	method, ok := inst.Class.LookupMethod("__delitem__")
	if !ok {
		return m.runtimeError(excn.TypeError, "%q object does not support item deletion", obj.Tag())
	}
	closure := method.Object().(*value.ClosureObject)
	_, cerr := m.CallValue(value.MethodValue(m.Heap, obj, closure), []value.Value{index})
	return cerr
}

// iterate implements ITER_NEW, including the __iter__ override point
// for user-defined instances.
func (m *Machine) iterate(src value.Value) (value.Value, *excn.Error) {
	result, err := value.Iterate(m.Heap, src)
	if err != nil {
		return value.Value{}, err
	}
	if !value.IsNotImplemented(result) {
		return result, nil
	}
	inst := src.Object().(*value.InstanceObject)
	method, ok := inst.Class.LookupMethod("__iter__")
	if !ok {
		return value.Value{}, m.runtimeError(excn.TypeError, "%q object is not iterable", src.Tag())
	}
	closure := method.Object().(*value.ClosureObject)
	return m.CallValue(value.MethodValue(m.Heap, src, closure), nil)
}

// iterNextInstance implements ITER_NEXT for a user-defined iterator
// instance (one with a __next__ method): a raised StopIteration ends
// the loop exactly like the builtin IteratorObject's exhausted-false
// return does, without touching the general exception-handler stack
// (spec §4.5: StopIteration-on-exhaustion is handled by the opcode
// itself via a direct jump, not a raise any handler can observe).
func (m *Machine) iterNextInstance(it value.Value) (value.Value, bool, *excn.Error) {
	inst, ok := it.Object().(*value.InstanceObject)
	if !ok {
		return value.Value{}, false, m.runtimeError(excn.TypeError, "%q object is not an iterator", it.Tag())
	}
	method, ok := inst.Class.LookupMethod("__next__")
	if !ok {
		return value.Value{}, false, m.runtimeError(excn.TypeError, "%q object is not an iterator", it.Tag())
	}
	closure := method.Object().(*value.ClosureObject)
	result, err := m.CallValue(value.MethodValue(m.Heap, it, closure), nil)
	if err != nil {
		if err.Kind == excn.StopIteration {
			return value.Value{}, true, nil
		}
		return value.Value{}, false, err
	}
	return result, false, nil
}

// strValue implements str(): a __str__ override on the instance's class
// runs first, falling back to __repr__, then to the default
// "<ClassName object>" form.
func (m *Machine) strValue(v value.Value) (string, *excn.Error) {
	if inst, ok := v.Object().(*value.InstanceObject); ok {
		if s, called, err := m.callDunderString(v, inst, "__str__"); called || err != nil {
			return s, err
		}
		if s, called, err := m.callDunderString(v, inst, "__repr__"); called || err != nil {
			return s, err
		}
	}
	return value.Str(v), nil
}

// reprValue implements repr(): a __repr__ override on the instance's
// class runs first, falling back to the default "<ClassName object>"
// form.
func (m *Machine) reprValue(v value.Value) (string, *excn.Error) {
	if inst, ok := v.Object().(*value.InstanceObject); ok {
		if s, called, err := m.callDunderString(v, inst, "__repr__"); called || err != nil {
			return s, err
		}
	}
	return value.Repr(v), nil
}

func (m *Machine) callDunderString(v value.Value, inst *value.InstanceObject, name string) (string, bool, *excn.Error) {
	method, ok := inst.Class.LookupMethod(name)
	if !ok {
		return "", false, nil
	}
	closure := method.Object().(*value.ClosureObject)
	result, err := m.CallValue(value.MethodValue(m.Heap, v, closure), nil)
	if err != nil {
		return "", true, err
	}
	s, ok := result.Object().(*value.StringObject)
	if !ok {
		return "", true, m.runtimeError(excn.TypeError, "%s returned non-string", name)
	}
	return s.String(), true, nil
}
