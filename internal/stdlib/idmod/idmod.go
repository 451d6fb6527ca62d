// Package idmod registers the "uuid" builtin module, a thin wrapper
// over github.com/google/uuid. It is a host-opt-in capability: the
// CLI embedder blank-imports this package to make it available to
// running programs, the same way internal/stdlib/dbmod blank-imports
// its SQL drivers.
package idmod

import (
	"github.com/google/uuid"

	"nyra/internal/excn"
	"nyra/internal/module"
	"nyra/internal/value"
)

func init() {
	module.Register("uuid", load)
}

func load(h *value.Heap) *value.ModuleObject {
	_, mod := value.ModuleValue(h, "uuid")

	mod.Set("new", value.NativeFunctionValue(h, "uuid.new", func(args []value.Value) (value.Value, *excn.Error) {
		if len(args) != 0 {
			return value.Value{}, excn.New(excn.TypeError, "uuid.new() takes no arguments")
		}
		return value.StringValue(h, uuid.New().String()), nil
	}))

	mod.Set("parse", value.NativeFunctionValue(h, "uuid.parse", func(args []value.Value) (value.Value, *excn.Error) {
		if len(args) != 1 || args[0].Object() == nil {
			return value.Value{}, excn.New(excn.TypeError, "uuid.parse() takes one string argument")
		}
		id, err := uuid.Parse(value.Str(args[0]))
		if err != nil {
			return value.Value{}, excn.New(excn.ValueError, "uuid.parse: %v", err)
		}
		return value.StringValue(h, id.String()), nil
	}))

	mod.Set("nil", value.NativeFunctionValue(h, "uuid.nil", func(args []value.Value) (value.Value, *excn.Error) {
		if len(args) != 0 {
			return value.Value{}, excn.New(excn.TypeError, "uuid.nil() takes no arguments")
		}
		return value.StringValue(h, uuid.Nil.String()), nil
	}))

	return mod
}
