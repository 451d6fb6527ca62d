// Package vm implements the stack-based bytecode interpreter: the
// frame/operand stack machine, call semantics (including bound methods
// and class instantiation), closures with open/closed upvalues, and
// the exception-unwinding machinery. It is the one package in this
// module allowed to depend on both internal/value and
// internal/bytecode and to re-enter interpretation from native code
// (CallValue) — see internal/value/dispatch.go's doc comment for why
// that split exists.
package vm

import (
	"nyra/internal/bytecode"
	"nyra/internal/excn"
	"nyra/internal/hashtable"
	"nyra/internal/value"
)

const (
	maxFrames       = 256
	maxStack        = maxFrames * 64
	maxExceptLevels = 256
)

// Frame is one active call's bookkeeping: its closure (for code and
// upvalues), instruction pointer, and the base slot its locals start
// at in the shared operand stack.
type Frame struct {
	Closure     *value.ClosureObject
	IP          int
	Base        int
	ExceptAddrs [maxExceptLevels]int
	ExceptTop   int
	IsMethod    bool
}

// Machine is one interpreter instance: one heap, one operand stack, one
// frame stack, one global namespace. Nothing about it is safe for
// concurrent use from multiple goroutines simultaneously — exactly one
// goroutine drives Run at a time, matching the stop-the-world GC
// contract in internal/value.
type Machine struct {
	Heap    *value.Heap
	Globals *hashtable.Table[value.Value]

	stack  []value.Value
	frames []*Frame

	openUpvalues []*value.UpvalueObject

	// pendingRaised carries the exception Value between raiseValue and
	// unwindToHandler; excn.Error can't hold a value.Value itself
	// without an import cycle (excn has no dependency on value).
	pendingRaised value.Value

	// Out is where the print builtin writes; tests and embedders can
	// redirect it.
	Out writer
}

type writer interface {
	WriteString(s string) (int, error)
}

// New constructs a Machine with an initialized heap and global
// namespace, registering the builtin functions every program gets for
// free (print, len, str, repr, type, range, ...).
func New(out writer) *Machine {
	m := &Machine{
		Heap: value.NewHeap(),
		// Pre-allocated to its hard cap so UpvalueObject.Location
		// pointers taken into this slice (see captureUpvalue) never
		// dangle across a later append reallocating the backing array.
		stack:   make([]value.Value, 0, maxStack),
		Globals: hashtable.New[value.Value](),
		Out:     out,
	}
	m.Heap.SetRootProvider(m.enumerateRoots)
	registerBuiltins(m)
	return m
}

func (m *Machine) enumerateRoots() []value.Value {
	// Frame closures are reachable through the stack slot each frame
	// reserves for its own callee (see Interpret/call.go), so the stack
	// slice alone covers stack values, locals, and every active frame's
	// closure. Open upvalues are reachable through the closures that
	// captured them, traced by the collector's markObject switch.
	roots := make([]value.Value, 0, len(m.stack)+m.Globals.Len())
	roots = append(roots, m.stack...)
	m.Globals.Each(func(k hashtable.Key, v value.Value) bool {
		if kv, ok := k.(value.Value); ok {
			roots = append(roots, kv)
		}
		roots = append(roots, v)
		return true
	})
	return roots
}

func (m *Machine) push(v value.Value) {
	if len(m.stack) >= maxStack {
		panic(stackOverflow{})
	}
	m.stack = append(m.stack, v)
}

// stackOverflow is recovered at the top of Interpret/CallValue and
// turned into a RuntimeError; a panic (rather than threading another
// error return through every push call site) matches how deep,
// unrecoverable recursion is handled in the teacher's own interpreter.
type stackOverflow struct{}

func (m *Machine) pop() value.Value {
	n := len(m.stack) - 1
	v := m.stack[n]
	m.stack = m.stack[:n]
	return v
}

func (m *Machine) peek(distance int) value.Value {
	return m.stack[len(m.stack)-1-distance]
}

func (m *Machine) currentFrame() *Frame {
	return m.frames[len(m.frames)-1]
}

// Interpret runs closure as a fresh top-level program and returns the
// top-level return value, or the uncaught *excn.Error that propagated
// out of every frame.
func (m *Machine) Interpret(closure *value.ClosureObject) (value.Value, *excn.Error) {
	m.push(value.ObjectValue(closure)) // slot 0 of every frame holds its own closure, keeping it GC-reachable via the stack
	frame := &Frame{Closure: closure, Base: len(m.stack) - 1}
	m.frames = append(m.frames, frame)
	return m.run()
}

// RuntimeError builds an *excn.Error annotated with the current
// frame's source location, for use by opcode handlers.
func (m *Machine) runtimeError(kind excn.Kind, format string, args ...interface{}) *excn.Error {
	e := excn.New(kind, format, args...)
	if len(m.frames) == 0 {
		return e
	}
	f := m.currentFrame()
	line := 0
	if f.Closure != nil && f.Closure.Function != nil && f.Closure.Function.Chunk != nil {
		line = f.Closure.Function.Chunk.LineFor(f.IP)
	}
	return e.WithLocation(m.frameFile(f), line)
}

func (m *Machine) frameFile(f *Frame) string {
	if f.Closure != nil && f.Closure.Function != nil {
		return f.Closure.Function.Name()
	}
	return "<unknown>"
}

// readByte/readUint16 advance the current frame's IP over the chunk's
// code stream, matching the teacher's own decode helpers.
func (m *Machine) readByte(f *Frame) byte {
	b := f.Closure.Function.Chunk.Code[f.IP]
	f.IP++
	return b
}

func (m *Machine) readUint16(f *Frame) uint16 {
	hi := m.readByte(f)
	lo := m.readByte(f)
	return uint16(hi)<<8 | uint16(lo)
}

func (m *Machine) readOp(f *Frame) bytecode.OpCode {
	return bytecode.OpCode(m.readByte(f))
}

func (m *Machine) constant(f *Frame, idx int) value.Value {
	cache := f.Closure.Function.EnsureConstCache(m.Heap, m.convertConstant)
	return cache[idx]
}

// convertConstant turns one raw bytecode.Chunk constant into a Value; a
// nested *bytecode.Chunk (function literal) is wrapped in a new
// FunctionObject without converting its constants yet.
// FunctionObject.EnsureConstCache takes this as a callback rather than
// doing the conversion itself.
func (m *Machine) convertConstant(c interface{}) value.Value {
	switch v := c.(type) {
	case int64:
		return value.Int(v)
	case float64:
		return value.Float(v)
	case string:
		return value.StringValue(m.Heap, v)
	case bool:
		return value.Bool(v)
	case nil:
		return value.None()
	case *bytecode.Chunk:
		return value.FunctionValue(m.Heap, v)
	default:
		return value.None()
	}
}
