package value

import "nyra/internal/hashtable"

// ModuleObject is a namespace of exported values: the result of
// importing a builtin module (math, json, ...) or, conceptually, a
// user source file, though this core has no file-based module loader
// of its own (see internal/module's builtin-only dispatch).
type ModuleObject struct {
	ObjHeader
	Name    string
	Exports *hashtable.Table[Value]
}

func NewModule(h *Heap, name string) *ModuleObject {
	m := &ModuleObject{ObjHeader: ObjHeader{Tag: TagModule}, Name: name, Exports: hashtable.New[Value]()}
	h.register(m, 48)
	return m
}

func ModuleValue(h *Heap, name string) (Value, *ModuleObject) {
	m := NewModule(h, name)
	return objectValue(m), m
}

func (m *ModuleObject) Set(name string, v Value) { m.Exports.Set(stringKey(name), v) }
func (m *ModuleObject) Get(name string) (Value, bool) { return m.Exports.Get(stringKey(name)) }
