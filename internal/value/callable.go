package value

import (
	"nyra/internal/bytecode"
	"nyra/internal/excn"
)

// FunctionObject wraps one compiled code object. ConstCache holds each
// chunk constant converted to a Value exactly once, the first time the
// VM reads one of this function's constants — see EnsureConstCache.
type FunctionObject struct {
	ObjHeader
	Chunk      *bytecode.Chunk
	ConstCache []Value
}

func NewFunction(h *Heap, chunk *bytecode.Chunk) *FunctionObject {
	f := &FunctionObject{ObjHeader: ObjHeader{Tag: TagFunction}, Chunk: chunk}
	h.register(f, 64)
	return f
}

func FunctionValue(h *Heap, chunk *bytecode.Chunk) Value { return objectValue(NewFunction(h, chunk)) }

// EnsureConstCache converts chunk.Constants into Values on first use.
// convert is supplied by the caller (the vm package), which owns the
// conversion rules; a nested *Chunk constant (a function literal)
// becomes a FunctionObject whose own constants are converted the same
// lazy way when that function first reads one.
func (f *FunctionObject) EnsureConstCache(h *Heap, convert func(c interface{}) Value) []Value {
	if f.ConstCache != nil {
		return f.ConstCache
	}
	cache := make([]Value, len(f.Chunk.Constants))
	for i, c := range f.Chunk.Constants {
		cache[i] = convert(c)
	}
	f.ConstCache = cache
	return cache
}

func (f *FunctionObject) Name() string {
	if f.Chunk == nil {
		return "<anonymous>"
	}
	return f.Chunk.Name
}

// UpvalueObject is either open (Location aliases a live stack slot) or
// closed (Value owns a copy, taken when the frame that owned the slot
// returned). Reads and writes go through *Location while open so
// mutations are visible to every closure sharing the capture.
type UpvalueObject struct {
	ObjHeader
	Location *Value
	Closed   bool
	Value    Value
}

func NewUpvalue(h *Heap, location *Value) *UpvalueObject {
	u := &UpvalueObject{ObjHeader: ObjHeader{Tag: TagUpvalue}, Location: location}
	h.register(u, 32)
	return u
}

// Get reads through the open location or the closed copy.
func (u *UpvalueObject) Get() Value {
	if u.Closed {
		return u.Value
	}
	return *u.Location
}

// Set writes through the open location or the closed copy.
func (u *UpvalueObject) Set(v Value) {
	if u.Closed {
		u.Value = v
		return
	}
	*u.Location = v
}

// Close copies the current value out of the stack slot and severs the
// dependency on it, called when the owning frame pops.
func (u *UpvalueObject) Close() {
	if u.Closed {
		return
	}
	u.Value = *u.Location
	u.Closed = true
	u.Location = nil
}

// ClosureObject pairs a function with the upvalues it captured at
// creation time.
type ClosureObject struct {
	ObjHeader
	Function *FunctionObject
	Upvalues []*UpvalueObject
}

func NewClosure(h *Heap, fn *FunctionObject, upvalues []*UpvalueObject) *ClosureObject {
	c := &ClosureObject{ObjHeader: ObjHeader{Tag: TagClosure}, Function: fn, Upvalues: upvalues}
	h.register(c, 32+uintptr(len(upvalues))*8)
	return c
}

func ClosureValue(h *Heap, fn *FunctionObject, upvalues []*UpvalueObject) Value {
	return objectValue(NewClosure(h, fn, upvalues))
}

// NativeFn is the signature every builtin exposes: a Go closure invoked
// directly by the CALL opcode handler without pushing a bytecode frame.
// Builtins that need to call back into user code (e.g. a comparator
// argument) close over their Machine and call Machine.CallValue rather
// than recursing into this package.
type NativeFn func(args []Value) (Value, *excn.Error)

// NativeFunctionObject wraps a Go-implemented builtin.
type NativeFunctionObject struct {
	ObjHeader
	Name string
	Fn   NativeFn
}

func NewNativeFunction(h *Heap, name string, fn NativeFn) *NativeFunctionObject {
	nf := &NativeFunctionObject{ObjHeader: ObjHeader{Tag: TagNativeFunction}, Name: name, Fn: fn}
	h.register(nf, 32)
	return nf
}

func NativeFunctionValue(h *Heap, name string, fn NativeFn) Value {
	return objectValue(NewNativeFunction(h, name, fn))
}
