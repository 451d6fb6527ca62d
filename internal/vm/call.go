package vm

import (
	"nyra/internal/excn"
	"nyra/internal/value"
)

// performCall implements CALL argCount: the stack holds
// [..., callee, arg0, ..., argN-1] with N == argCount. It either
// resolves synchronously (native functions/methods, class
// instantiation without a user init) and leaves the single result atop
// the stack in place of callee+args, or pushes a new Frame for a
// bytecode closure/bound method and returns pushed=true so the caller
// keeps executing (or, for a reentrant native-initiated call, resumes
// the dispatch loop until that frame returns).
func (m *Machine) performCall(argCount int) (pushed bool, err *excn.Error) {
	calleeSlot := len(m.stack) - 1 - argCount
	callee := m.stack[calleeSlot]
	args := append([]value.Value(nil), m.stack[calleeSlot+1:]...)

	switch callee.Tag() {
	case value.TagClosure:
		closure := callee.Object().(*value.ClosureObject)
		if err := m.checkArity(closure, argCount); err != nil {
			return false, err
		}
		m.bindDefaults(closure, argCount)
		if len(m.frames) >= maxFrames {
			panic(stackOverflow{})
		}
		frame := &Frame{Closure: closure, Base: calleeSlot}
		m.frames = append(m.frames, frame)
		return true, nil

	case value.TagMethod:
		bound := callee.Object().(*value.MethodObject)
		// Splice the receiver in as argument 0: shift the existing
		// args up one slot and place Receiver at calleeSlot+1, which
		// becomes the callee's own "self" local.
		m.stack = append(m.stack, value.Value{})
		copy(m.stack[calleeSlot+2:], m.stack[calleeSlot+1:len(m.stack)-1])
		m.stack[calleeSlot+1] = bound.Receiver
		m.stack[calleeSlot] = value.ObjectValue(bound.Fn)
		return m.performCall(argCount + 1)

	case value.TagNativeFunction:
		nf := callee.Object().(*value.NativeFunctionObject)
		result, callErr := nf.Fn(args)
		if callErr != nil {
			return false, callErr
		}
		m.truncateAndPush(calleeSlot, result)
		return false, nil

	case value.TagNativeMethod:
		nm := callee.Object().(*value.NativeMethodObject)
		result, callErr := nm.Fn(nm.Self, args)
		if callErr != nil {
			return false, callErr
		}
		m.truncateAndPush(calleeSlot, result)
		return false, nil

	case value.TagClass:
		class := callee.Object().(*value.ClassObject)
		inst := value.InstanceValue(m.Heap, class)
		if initFn, ok := class.LookupMethod("init"); ok {
			if closure, ok := initFn.Object().(*value.ClosureObject); ok {
				m.stack = append(m.stack, value.Value{})
				copy(m.stack[calleeSlot+2:], m.stack[calleeSlot+1:len(m.stack)-1])
				m.stack[calleeSlot+1] = inst
				m.stack[calleeSlot] = value.ObjectValue(closure)
				return m.performCall(argCount + 1)
			}
		}
		m.truncateAndPush(calleeSlot, inst)
		return false, nil

	case value.TagNativeClass:
		nc := callee.Object().(*value.NativeClassObject)
		data, callErr := nc.Construct(args)
		if callErr != nil {
			return false, callErr
		}
		m.truncateAndPush(calleeSlot, value.NativeInstanceValue(m.Heap, nc, data))
		return false, nil

	default:
		return false, m.runtimeError(excn.TypeError, "%q object is not callable", callee.Tag())
	}
}

// truncateAndPush drops the callee+args range and pushes a single
// result value in its place, used by every synchronously resolved call.
func (m *Machine) truncateAndPush(calleeSlot int, result value.Value) {
	m.stack = m.stack[:calleeSlot]
	m.push(result)
}

func (m *Machine) checkArity(closure *value.ClosureObject, argCount int) *excn.Error {
	arity := closure.Function.Chunk.Arity
	maxArgs := len(closure.Function.Chunk.ParamNames)
	if argCount < arity || argCount > maxArgs {
		return m.runtimeError(excn.TypeError, "%s() takes %d to %d arguments but %d were given",
			closure.Function.Name(), arity, maxArgs, argCount)
	}
	return nil
}

// bindDefaults fills in trailing parameters the caller omitted from
// their default-value constants, appending them onto the stack so the
// new frame's locals are contiguous regardless of how many optional
// arguments were actually supplied.
func (m *Machine) bindDefaults(closure *value.ClosureObject, argCount int) {
	chunk := closure.Function.Chunk
	for i := argCount; i < len(chunk.ParamNames); i++ {
		defaultIdx := -1
		if i < len(chunk.ParamDefaults) {
			defaultIdx = chunk.ParamDefaults[i]
		}
		if defaultIdx < 0 {
			m.push(value.None())
			continue
		}
		cache := closure.Function.EnsureConstCache(m.Heap, m.convertConstant)
		m.push(cache[defaultIdx])
	}
}

// reorderKeywordArgs rewrites the trailing kwCount stack values (each
// paired by position with a name in the names tuple constant) into
// their declared parameter slots, filling any still-unbound trailing
// parameter with its default. After this call the stack holds exactly
// len(ParamNames) argument values in declaration order, so the caller
// can invoke performCall(len(ParamNames)) as if they'd all been passed
// positionally.
func (m *Machine) reorderKeywordArgs(argCount, kwCount int, names value.Value) (int, *excn.Error) {
	calleeSlot := len(m.stack) - 1 - argCount
	callee := m.stack[calleeSlot]
	closure, ok := callee.Object().(*value.ClosureObject)
	if !ok {
		return 0, m.runtimeError(excn.TypeError, "keyword arguments are only supported for user-defined functions")
	}
	paramNames := closure.Function.Chunk.ParamNames
	posCount := argCount - kwCount

	slots := make([]value.Value, len(paramNames))
	bound := make([]bool, len(paramNames))
	for i := 0; i < posCount && i < len(slots); i++ {
		slots[i] = m.stack[calleeSlot+1+i]
		bound[i] = true
	}

	nameTuple := names.Object().(*value.TupleObject).Elems
	for i := 0; i < kwCount; i++ {
		kwName := value.Str(nameTuple[i])
		kwVal := m.stack[calleeSlot+1+posCount+i]
		idx := -1
		for pi, pn := range paramNames {
			if pn == kwName {
				idx = pi
				break
			}
		}
		if idx == -1 {
			return 0, m.runtimeError(excn.TypeError, "%s() got an unexpected keyword argument %q", closure.Function.Name(), kwName)
		}
		if bound[idx] {
			return 0, m.runtimeError(excn.TypeError, "%s() got multiple values for argument %q", closure.Function.Name(), kwName)
		}
		slots[idx] = kwVal
		bound[idx] = true
	}

	cache := closure.Function.EnsureConstCache(m.Heap, m.convertConstant)
	chunk := closure.Function.Chunk
	for i := range slots {
		if bound[i] {
			continue
		}
		defaultIdx := -1
		if i < len(chunk.ParamDefaults) {
			defaultIdx = chunk.ParamDefaults[i]
		}
		if defaultIdx < 0 {
			return 0, m.runtimeError(excn.TypeError, "%s() missing required argument %q", closure.Function.Name(), paramNames[i])
		}
		slots[i] = cache[defaultIdx]
	}

	m.stack = m.stack[:calleeSlot+1]
	for _, v := range slots {
		m.push(v)
	}
	return len(slots), nil
}

// CallValue invokes callee with args as a fully synchronous Go call,
// used by native functions (print, str(), sort comparators) that need
// to call back into user code. It is the one documented re-entrance
// point into the interpreter from native code (spec §4: "native
// functions may call back into the interpreter through a documented
// call_value entry").
func (m *Machine) CallValue(callee value.Value, args []value.Value) (value.Value, *excn.Error) {
	m.push(callee)
	for _, a := range args {
		m.push(a)
	}
	depth := len(m.frames)
	pushed, err := m.performCall(len(args))
	if err != nil {
		return value.Value{}, err
	}
	if !pushed {
		return m.pop(), nil
	}
	result, err := m.resume(depth)
	if err != nil {
		return value.Value{}, err
	}
	m.pop()
	return result, nil
}
