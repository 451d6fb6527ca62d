package vm

import (
	"testing"

	"nyra/internal/bytecode"
	"nyra/internal/excn"
	"nyra/internal/value"
)

// TestClosureCapturesUpvalueAcrossReturn builds a makeCounter() closure
// whose inner function captures the outer local by reference: each
// call to the returned closure should see the previous call's mutation.
func TestClosureCapturesUpvalueAcrossReturn(t *testing.T) {
	inner := bytecode.NewChunk("inner", 0)
	// inner: n = n + 1; return n
	inner.WriteOp(bytecode.OpGetUpvalue, 1)
	inner.WriteByte(0, 1)
	inner.WriteOp(bytecode.OpConstant, 1)
	idx := inner.AddConstant(int64(1))
	inner.WriteByte(byte(idx), 1)
	inner.WriteOp(bytecode.OpAdd, 1)
	inner.WriteOp(bytecode.OpDup, 1)
	inner.WriteOp(bytecode.OpSetUpvalue, 1)
	inner.WriteByte(0, 1)
	inner.WriteOp(bytecode.OpReturn, 1)
	inner.Upvalues = []bytecode.UpvalueDesc{{IsLocal: true, Index: 0}}

	outer := bytecode.NewChunk("makeCounter", 0)
	// outer: n = 0 (local slot 0); return closure(inner) capturing local 0
	zeroIdx := outer.AddConstant(int64(0))
	outer.WriteOp(bytecode.OpConstant, 1)
	outer.WriteByte(byte(zeroIdx), 1)
	innerIdx := outer.AddConstant(inner)
	outer.WriteOp(bytecode.OpClosure, 1)
	outer.WriteByte(byte(innerIdx), 1)
	outer.WriteByte(1, 1) // IsLocal
	outer.WriteByte(0, 1) // slot 0
	outer.WriteOp(bytecode.OpReturn, 1)

	main := bytecode.NewChunk("main", 0)
	makeCounterIdx := main.AddConstant(outer)
	main.WriteOp(bytecode.OpClosure, 1)
	main.WriteByte(byte(makeCounterIdx), 1)
	// makeCounter captures nothing
	main.WriteOp(bytecode.OpCall, 1)
	main.WriteByte(0, 1)
	// counter is now atop the stack; call it three times, discarding the
	// first two results
	main.WriteOp(bytecode.OpDup, 1)
	main.WriteOp(bytecode.OpCall, 1)
	main.WriteByte(0, 1)
	main.WriteOp(bytecode.OpPop, 1)
	main.WriteOp(bytecode.OpDup, 1)
	main.WriteOp(bytecode.OpCall, 1)
	main.WriteByte(0, 1)
	main.WriteOp(bytecode.OpPop, 1)
	main.WriteOp(bytecode.OpCall, 1)
	main.WriteByte(0, 1)
	main.WriteOp(bytecode.OpReturn, 1)

	result, err, _ := runChunk(t, main)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.IsInt() || result.AsInt() != 3 {
		t.Fatalf("got %v, want 3 (three calls each incrementing the captured local)", result)
	}
}

// TestSetupExceptCatchesRaise builds: try { raise ValueError } except { push
// sentinel }, confirming unwindToHandler redirects control flow into the
// handler rather than propagating the exception out of Interpret.
func TestSetupExceptCatchesRaise(t *testing.T) {
	main := bytecode.NewChunk("main", 0)
	excIdx := main.AddConstant("boom")

	setupOff := main.WriteOp(bytecode.OpSetupExcept, 1)
	main.WriteUint16(0, 1) // patched below
	main.WriteOp(bytecode.OpConstant, 1)
	main.WriteByte(byte(excIdx), 1)
	main.WriteOp(bytecode.OpRaise, 1)
	jumpPastHandlerOff := main.WriteOp(bytecode.OpJump, 1)
	main.WriteUint16(0, 1)

	handlerAddr := len(main.Code)
	main.PatchUint16(setupOff+1, uint16(handlerAddr))
	main.WriteOp(bytecode.OpPopExcept, 1)
	main.WriteOp(bytecode.OpPop, 1) // discard the bound exception value; this handler ignores it
	sentinelIdx := main.AddConstant(int64(42))
	main.WriteOp(bytecode.OpConstant, 1)
	main.WriteByte(byte(sentinelIdx), 1)
	main.WriteOp(bytecode.OpReturn, 1)

	endAddr := len(main.Code)
	main.PatchUint16(jumpPastHandlerOff+1, uint16(endAddr))

	result, err, _ := runChunk(t, main)
	if err != nil {
		t.Fatalf("expected the raise to be caught, got propagated error: %v", err)
	}
	if !result.IsInt() || result.AsInt() != 42 {
		t.Fatalf("got %v, want 42 from the except handler", result)
	}
}

// TestUncaughtRaisePropagatesAsRuntimeError confirms a raise with no
// active handler returns from Interpret as an *excn.Error rather than
// panicking or silently continuing.
func TestUncaughtRaisePropagatesAsRuntimeError(t *testing.T) {
	main := bytecode.NewChunk("main", 0)
	msgIdx := main.AddConstant("no handler here")
	main.WriteOp(bytecode.OpConstant, 1)
	main.WriteByte(byte(msgIdx), 1)
	main.WriteOp(bytecode.OpRaise, 1)
	main.WriteOp(bytecode.OpReturnNone, 1)

	_, err, _ := runChunk(t, main)
	if err == nil {
		t.Fatal("expected an uncaught exception")
	}
}

// TestReflectedOperatorDispatch defines a class with __radd__ and
// checks that `5 + instance` resolves through the reflected-method
// fallback path (dispatchInstanceBinary), since the builtin Add
// dispatcher returns NotImplemented for any int/instance pair.
func TestReflectedOperatorDispatch(t *testing.T) {
	radd := bytecode.NewChunk("__radd__", 2)
	radd.ParamNames = []string{"self", "other"}
	radd.ParamDefaults = []int{-1, -1}
	otherIdx := radd.AddConstant(int64(100))
	radd.WriteOp(bytecode.OpGetLocal, 1)
	radd.WriteByte(1, 1)
	radd.WriteOp(bytecode.OpConstant, 1)
	radd.WriteByte(byte(otherIdx), 1)
	radd.WriteOp(bytecode.OpAdd, 1)
	radd.WriteOp(bytecode.OpReturn, 1)

	main := bytecode.NewChunk("main", 0)
	// push 5 first: OpAdd pops b (top) then a, so `5 + instance` needs
	// the instance built and pushed on top of the already-pushed 5.
	fiveIdx := main.AddConstant(int64(5))
	main.WriteOp(bytecode.OpConstant, 1)
	main.WriteByte(byte(fiveIdx), 1) // stack: [5]

	classNameIdx := main.AddConstant("Boxed")
	main.WriteOp(bytecode.OpClass, 1)
	main.WriteByte(byte(classNameIdx), 1) // stack: [5, class]
	methodChunkIdx := main.AddConstant(radd)
	main.WriteOp(bytecode.OpClosure, 1)
	main.WriteByte(byte(methodChunkIdx), 1)
	methodNameIdx := main.AddConstant("__radd__")
	main.WriteOp(bytecode.OpMethod, 1)
	main.WriteByte(byte(methodNameIdx), 1) // stack: [5, class]
	main.WriteOp(bytecode.OpCall, 1)
	main.WriteByte(0, 1) // instantiate -> stack: [5, instance]

	main.WriteOp(bytecode.OpAdd, 1) // b=instance, a=5 -> Add returns NotImplemented -> instance.__radd__(5)
	main.WriteOp(bytecode.OpReturn, 1)

	result, err, _ := runChunk(t, main)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.IsInt() || result.AsInt() != 105 {
		t.Fatalf("got %v, want 105 (5 + instance dispatches instance.__radd__(self, 5) -> 5 + 100)", result)
	}
}

// TestStopIterationViaIterNext builds range(3), iterates it to
// exhaustion, and returns the iteration count: OpIterNext jumps
// directly on exhaustion rather than raising through the handler
// stack, so this never touches OpSetupExcept at all.
func TestStopIterationViaIterNext(t *testing.T) {
	main := bytecode.NewChunk("main", 0)
	main.ParamNames = []string{}
	// locals: slot 0 = count
	zeroIdx := main.AddConstant(int64(0))
	main.WriteOp(bytecode.OpConstant, 1)
	main.WriteByte(byte(zeroIdx), 1)
	// slot 0 now holds 0 on the stack itself (top-level has no params,
	// so this constant sits at stack position Base+1+0)

	rangeNameIdx := main.AddConstant("range")
	main.WriteOp(bytecode.OpGetGlobal, 1)
	main.WriteByte(byte(rangeNameIdx), 1)
	twoIdx := main.AddConstant(int64(3))
	main.WriteOp(bytecode.OpConstant, 1)
	main.WriteByte(byte(twoIdx), 1)
	main.WriteOp(bytecode.OpCall, 1)
	main.WriteByte(1, 1)
	main.WriteOp(bytecode.OpIterNew, 1) // stack: [count, iterator]

	loopStart := len(main.Code)
	doneJump := main.WriteOp(bytecode.OpIterNext, 1)
	main.WriteUint16(0, 1) // patched below; stack on success: [count, iterator, value]
	main.WriteOp(bytecode.OpPop, 1) // discard the yielded value
	main.WriteOp(bytecode.OpGetLocal, 1)
	main.WriteByte(0, 1)
	oneIdx := main.AddConstant(int64(1))
	main.WriteOp(bytecode.OpConstant, 1)
	main.WriteByte(byte(oneIdx), 1)
	main.WriteOp(bytecode.OpAdd, 1)
	main.WriteOp(bytecode.OpSetLocal, 1)
	main.WriteByte(0, 1)
	main.WriteOp(bytecode.OpPop, 1)
	main.WriteOp(bytecode.OpLoop, 1)
	main.WriteUint16(uint16(loopStart), 1)

	doneAddr := len(main.Code)
	main.PatchUint16(doneJump+1, uint16(doneAddr))
	main.WriteOp(bytecode.OpPop, 1) // drop exhausted iterator
	main.WriteOp(bytecode.OpGetLocal, 1)
	main.WriteByte(0, 1)
	main.WriteOp(bytecode.OpReturn, 1)

	result, err, _ := runChunk(t, main)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.IsInt() || result.AsInt() != 3 {
		t.Fatalf("got %v, want 3 iterations over range(3)", result)
	}
}

// TestInstanceGetItemDispatch defines a class with __getitem__ and
// checks that `instance[21]` resolves through the getItem instance
// fallback (value.GetItem reports TagInstance as NotImplemented; the
// vm package completes dispatch).
func TestInstanceGetItemDispatch(t *testing.T) {
	getitem := bytecode.NewChunk("__getitem__", 2)
	getitem.ParamNames = []string{"self", "key"}
	getitem.ParamDefaults = []int{-1, -1}
	getitem.WriteOp(bytecode.OpGetLocal, 1)
	getitem.WriteByte(1, 1) // key
	twoIdx := getitem.AddConstant(int64(2))
	getitem.WriteOp(bytecode.OpConstant, 1)
	getitem.WriteByte(byte(twoIdx), 1)
	getitem.WriteOp(bytecode.OpMul, 1)
	getitem.WriteOp(bytecode.OpReturn, 1)

	main := bytecode.NewChunk("main", 0)
	classNameIdx := main.AddConstant("Box")
	main.WriteOp(bytecode.OpClass, 1)
	main.WriteByte(byte(classNameIdx), 1) // stack: [class]
	methodChunkIdx := main.AddConstant(getitem)
	main.WriteOp(bytecode.OpClosure, 1)
	main.WriteByte(byte(methodChunkIdx), 1)
	methodNameIdx := main.AddConstant("__getitem__")
	main.WriteOp(bytecode.OpMethod, 1)
	main.WriteByte(byte(methodNameIdx), 1) // stack: [class]
	main.WriteOp(bytecode.OpCall, 1)
	main.WriteByte(0, 1) // instantiate -> stack: [instance]

	keyIdx := main.AddConstant(int64(21))
	main.WriteOp(bytecode.OpConstant, 1)
	main.WriteByte(byte(keyIdx), 1) // stack: [instance, 21]
	main.WriteOp(bytecode.OpGetItem, 1)
	main.WriteOp(bytecode.OpReturn, 1)

	result, err, _ := runChunk(t, main)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.IsInt() || result.AsInt() != 42 {
		t.Fatalf("got %v, want 42 (instance[21] dispatches instance.__getitem__(self, 21) -> 21 * 2)", result)
	}
}

// TestInstanceIterProtocol defines a class whose __iter__ returns
// itself and whose __next__ yields once, then raises a StopIteration
// instance, checking the iterate/iterNextInstance fallback path for
// types with no builtin IteratorObject.
func TestInstanceIterProtocol(t *testing.T) {
	iterMethod := bytecode.NewChunk("__iter__", 1)
	iterMethod.ParamNames = []string{"self"}
	iterMethod.ParamDefaults = []int{-1}
	iterMethod.WriteOp(bytecode.OpGetLocal, 1)
	iterMethod.WriteByte(0, 1)
	iterMethod.WriteOp(bytecode.OpReturn, 1)

	next := bytecode.NewChunk("__next__", 1)
	next.ParamNames = []string{"self"}
	next.ParamDefaults = []int{-1}
	next.WriteOp(bytecode.OpGetLocal, 1)
	next.WriteByte(0, 1) // self
	doneNameIdx := next.AddConstant("done")
	next.WriteOp(bytecode.OpGetAttr, 1)
	next.WriteByte(byte(doneNameIdx), 1) // stack: [done]
	jumpNotDone := next.WriteOp(bytecode.OpJumpIfFalse, 1)
	next.WriteUint16(0, 1) // patched below

	// done == true: raise StopIteration
	next.WriteOp(bytecode.OpPop, 1) // discard condition
	stopIterIdx := next.AddConstant("StopIteration")
	next.WriteOp(bytecode.OpClass, 1)
	next.WriteByte(byte(stopIterIdx), 1)
	next.WriteOp(bytecode.OpCall, 1)
	next.WriteByte(0, 1)
	next.WriteOp(bytecode.OpRaise, 1)

	notDoneAddr := len(next.Code)
	next.PatchUint16(jumpNotDone+1, uint16(notDoneAddr))
	next.WriteOp(bytecode.OpPop, 1) // discard condition
	// self.done = True
	next.WriteOp(bytecode.OpGetLocal, 1)
	next.WriteByte(0, 1)
	next.WriteOp(bytecode.OpTrue, 1)
	next.WriteOp(bytecode.OpSetAttr, 1)
	next.WriteByte(byte(doneNameIdx), 1) // stack: [True] (SetAttr leaves the value)
	next.WriteOp(bytecode.OpPop, 1)
	ninetyNineIdx := next.AddConstant(int64(99))
	next.WriteOp(bytecode.OpConstant, 1)
	next.WriteByte(byte(ninetyNineIdx), 1)
	next.WriteOp(bytecode.OpReturn, 1)

	main := bytecode.NewChunk("main", 0)
	zeroIdx := main.AddConstant(int64(0))
	main.WriteOp(bytecode.OpConstant, 1)
	main.WriteByte(byte(zeroIdx), 1) // local slot 0 = count

	classNameIdx := main.AddConstant("Counter")
	main.WriteOp(bytecode.OpClass, 1)
	main.WriteByte(byte(classNameIdx), 1)
	iterIdx := main.AddConstant(iterMethod)
	main.WriteOp(bytecode.OpClosure, 1)
	main.WriteByte(byte(iterIdx), 1)
	iterNameIdx := main.AddConstant("__iter__")
	main.WriteOp(bytecode.OpMethod, 1)
	main.WriteByte(byte(iterNameIdx), 1)
	nextIdx := main.AddConstant(next)
	main.WriteOp(bytecode.OpClosure, 1)
	main.WriteByte(byte(nextIdx), 1)
	nextNameIdx := main.AddConstant("__next__")
	main.WriteOp(bytecode.OpMethod, 1)
	main.WriteByte(byte(nextNameIdx), 1)
	main.WriteOp(bytecode.OpCall, 1)
	main.WriteByte(0, 1) // instantiate -> stack: [count, instance]

	main.WriteOp(bytecode.OpDup, 1)
	main.WriteOp(bytecode.OpFalse, 1)
	main.WriteOp(bytecode.OpSetAttr, 1)
	main.WriteByte(byte(doneNameIdx), 1) // instance.done = False, leftover False on stack
	main.WriteOp(bytecode.OpPop, 1)      // stack: [count, instance]

	main.WriteOp(bytecode.OpIterNew, 1) // stack: [count, iterator(=instance)]

	loopStart := len(main.Code)
	doneJump := main.WriteOp(bytecode.OpIterNext, 1)
	main.WriteUint16(0, 1) // patched below
	main.WriteOp(bytecode.OpPop, 1) // discard yielded value
	main.WriteOp(bytecode.OpGetLocal, 1)
	main.WriteByte(0, 1)
	oneIdx := main.AddConstant(int64(1))
	main.WriteOp(bytecode.OpConstant, 1)
	main.WriteByte(byte(oneIdx), 1)
	main.WriteOp(bytecode.OpAdd, 1)
	main.WriteOp(bytecode.OpSetLocal, 1)
	main.WriteByte(0, 1)
	main.WriteOp(bytecode.OpPop, 1)
	main.WriteOp(bytecode.OpLoop, 1)
	main.WriteUint16(uint16(loopStart), 1)

	doneAddr := len(main.Code)
	main.PatchUint16(doneJump+1, uint16(doneAddr))
	main.WriteOp(bytecode.OpPop, 1) // drop exhausted iterator
	main.WriteOp(bytecode.OpGetLocal, 1)
	main.WriteByte(0, 1)
	main.WriteOp(bytecode.OpReturn, 1)

	result, err, _ := runChunk(t, main)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.IsInt() || result.AsInt() != 1 {
		t.Fatalf("got %v, want 1 (the custom iterator yields __next__'s value exactly once before raising StopIteration)", result)
	}
}

// TestInstanceStrOverride defines a class with __str__ and checks that
// str() calls it instead of falling back to the default "<ClassName
// object>" form.
func TestInstanceStrOverride(t *testing.T) {
	strMethod := bytecode.NewChunk("__str__", 1)
	strMethod.ParamNames = []string{"self"}
	strMethod.ParamDefaults = []int{-1}
	greetingIdx := strMethod.AddConstant("hello from Box")
	strMethod.WriteOp(bytecode.OpConstant, 1)
	strMethod.WriteByte(byte(greetingIdx), 1)
	strMethod.WriteOp(bytecode.OpReturn, 1)

	main := bytecode.NewChunk("main", 0)
	// push the str() builtin first so it's already under the instance
	// by the time the instance is built, matching the callee-then-args
	// stack order OpCall expects (see TestReflectedOperatorDispatch for
	// the same push-operand-before-building-the-instance pattern).
	strNameIdx := main.AddConstant("str")
	main.WriteOp(bytecode.OpGetGlobal, 1)
	main.WriteByte(byte(strNameIdx), 1) // stack: [str_builtin]

	classNameIdx := main.AddConstant("Box")
	main.WriteOp(bytecode.OpClass, 1)
	main.WriteByte(byte(classNameIdx), 1) // stack: [str_builtin, class]
	methodChunkIdx := main.AddConstant(strMethod)
	main.WriteOp(bytecode.OpClosure, 1)
	main.WriteByte(byte(methodChunkIdx), 1)
	methodNameIdx := main.AddConstant("__str__")
	main.WriteOp(bytecode.OpMethod, 1)
	main.WriteByte(byte(methodNameIdx), 1) // stack: [str_builtin, class]
	main.WriteOp(bytecode.OpCall, 1)
	main.WriteByte(0, 1) // instantiate -> stack: [str_builtin, instance]

	main.WriteOp(bytecode.OpCall, 1)
	main.WriteByte(1, 1)
	main.WriteOp(bytecode.OpReturn, 1)

	result, err, _ := runChunk(t, main)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	resultStr, ok := result.Object().(*value.StringObject)
	if !ok || resultStr.String() != "hello from Box" {
		t.Fatalf("got %v, want the __str__ override's \"hello from Box\"", result)
	}
}

// TestTypeBuiltinClassRepr checks that type() renders the Python-style
// "<class 'name'>" form (spec.md scenario: print(type(1 + 2.5))), not
// a bare tag name.
func TestTypeBuiltinClassRepr(t *testing.T) {
	main := bytecode.NewChunk("main", 0)
	typeNameIdx := main.AddConstant("type")
	main.WriteOp(bytecode.OpGetGlobal, 1)
	main.WriteByte(byte(typeNameIdx), 1)
	oneIdx := main.AddConstant(int64(1))
	main.WriteOp(bytecode.OpConstant, 1)
	main.WriteByte(byte(oneIdx), 1)
	pointFiveIdx := main.AddConstant(2.5)
	main.WriteOp(bytecode.OpConstant, 1)
	main.WriteByte(byte(pointFiveIdx), 1)
	main.WriteOp(bytecode.OpAdd, 1)
	main.WriteOp(bytecode.OpCall, 1)
	main.WriteByte(1, 1)
	main.WriteOp(bytecode.OpReturn, 1)

	result, err, _ := runChunk(t, main)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	resultStr, ok := result.Object().(*value.StringObject)
	if !ok || resultStr.String() != "<class 'float'>" {
		t.Fatalf("got %v, want \"<class 'float'>\"", result)
	}
}

func TestRaiseStringMessagePropagatesMessage(t *testing.T) {
	main := bytecode.NewChunk("main", 0)
	msgIdx := main.AddConstant("custom failure")
	main.WriteOp(bytecode.OpConstant, 1)
	main.WriteByte(byte(msgIdx), 1)
	main.WriteOp(bytecode.OpRaise, 1)
	main.WriteOp(bytecode.OpReturnNone, 1)

	_, err, _ := runChunk(t, main)
	if err == nil {
		t.Fatal("expected an error")
	}
	if err.Kind != excn.RuntimeError {
		t.Fatalf("got kind %v, want RuntimeError (a raised bare string has no class to name the kind after)", err.Kind)
	}
	if err.Message != "custom failure" {
		t.Fatalf("got message %q, want %q", err.Message, "custom failure")
	}
}
