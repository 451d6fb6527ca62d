package value

import (
	"nyra/internal/excn"
	"nyra/internal/hashtable"
)

// ClassObject is a user-defined class: a name, an optional parent for
// single inheritance, and a method table keyed by name. Instance
// attribute lookup walks Attrs first, then this chain (see GetAttr in
// attrs.go).
type ClassObject struct {
	ObjHeader
	Name    string
	Parent  *ClassObject
	Methods *hashtable.Table[Value]
}

func NewClass(h *Heap, name string, parent *ClassObject) *ClassObject {
	c := &ClassObject{ObjHeader: ObjHeader{Tag: TagClass}, Name: name, Parent: parent, Methods: hashtable.New[Value]()}
	h.register(c, 64)
	return c
}

func ClassValue(h *Heap, name string, parent *ClassObject) Value { return objectValue(NewClass(h, name, parent)) }

// LookupMethod walks c's inheritance chain for name, mirroring the
// class/superclass walk grounded on the method-resolution helper a
// register-based sibling interpreter in the corpus uses for super
// dispatch.
func (c *ClassObject) LookupMethod(name string) (Value, bool) {
	for cur := c; cur != nil; cur = cur.Parent {
		if v, ok := cur.Methods.Get(stringKey(name)); ok {
			return v, true
		}
	}
	return Undefined(), false
}

func (c *ClassObject) IsSubclassOf(other *ClassObject) bool {
	for cur := c; cur != nil; cur = cur.Parent {
		if cur == other {
			return true
		}
	}
	return false
}

// InstanceObject is one instance of a user-defined class: its own
// attribute dict plus a pointer back to its class for method
// resolution.
type InstanceObject struct {
	ObjHeader
	Class *ClassObject
	Attrs *hashtable.Table[Value]
}

func NewInstance(h *Heap, class *ClassObject) *InstanceObject {
	inst := &InstanceObject{ObjHeader: ObjHeader{Tag: TagInstance}, Class: class, Attrs: hashtable.New[Value]()}
	h.register(inst, 48)
	return inst
}

func InstanceValue(h *Heap, class *ClassObject) Value { return objectValue(NewInstance(h, class)) }

// MethodObject is a bound user-defined method: a receiver instance
// paired with the unbound closure found on its class. CALL on one of
// these pushes Receiver as the implicit first argument.
type MethodObject struct {
	ObjHeader
	Receiver Value
	Fn       *ClosureObject
}

func NewMethod(h *Heap, receiver Value, fn *ClosureObject) *MethodObject {
	m := &MethodObject{ObjHeader: ObjHeader{Tag: TagMethod}, Receiver: receiver, Fn: fn}
	h.register(m, 32)
	return m
}

func MethodValue(h *Heap, receiver Value, fn *ClosureObject) Value { return objectValue(NewMethod(h, receiver, fn)) }

// NativeBoundFn is a method body on a NativeClassObject: it receives
// the instance's opaque Go-side data plus the call arguments.
type NativeBoundFn func(self interface{}, args []Value) (Value, *excn.Error)

// NativeClassObject is a class whose instances wrap an opaque Go value
// (a *sql.DB, a *websocket.Conn) rather than a value-package attribute
// dict. It is how the domain stdlib modules (internal/stdlib/*) expose
// host resources as first-class values. See spec §3 (DOMAIN STACK).
type NativeClassObject struct {
	ObjHeader
	Name      string
	Construct func(args []Value) (interface{}, *excn.Error)
	Methods   map[string]NativeBoundFn
}

func NewNativeClass(h *Heap, name string, construct func(args []Value) (interface{}, *excn.Error)) *NativeClassObject {
	nc := &NativeClassObject{ObjHeader: ObjHeader{Tag: TagNativeClass}, Name: name, Construct: construct, Methods: map[string]NativeBoundFn{}}
	h.register(nc, 64)
	return nc
}

func (nc *NativeClassObject) AddMethod(name string, fn NativeBoundFn) { nc.Methods[name] = fn }

func NativeClassValue(h *Heap, nc *NativeClassObject) Value { return objectValue(nc) }

// NativeInstanceObject is one instance of a NativeClassObject: its
// class plus the opaque Go-side resource (e.g. a *sql.DB handle).
type NativeInstanceObject struct {
	ObjHeader
	Class *NativeClassObject
	Data  interface{}
}

func NewNativeInstance(h *Heap, class *NativeClassObject, data interface{}) *NativeInstanceObject {
	ni := &NativeInstanceObject{ObjHeader: ObjHeader{Tag: TagInstance}, Class: class, Data: data}
	h.register(ni, 32)
	return ni
}

func NativeInstanceValue(h *Heap, class *NativeClassObject, data interface{}) Value {
	return objectValue(NewNativeInstance(h, class, data))
}

// NativeMethodObject is a bound method on a NativeInstanceObject.
type NativeMethodObject struct {
	ObjHeader
	Receiver Value
	Self     interface{}
	Fn       NativeBoundFn
	Name     string
}

func NewNativeMethod(h *Heap, receiver Value, self interface{}, name string, fn NativeBoundFn) *NativeMethodObject {
	nm := &NativeMethodObject{ObjHeader: ObjHeader{Tag: TagNativeMethod}, Receiver: receiver, Self: self, Fn: fn, Name: name}
	h.register(nm, 32)
	return nm
}

func NativeMethodValue(h *Heap, receiver Value, self interface{}, name string, fn NativeBoundFn) Value {
	return objectValue(NewNativeMethod(h, receiver, self, name, fn))
}
