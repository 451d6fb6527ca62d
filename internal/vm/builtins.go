package vm

import (
	"nyra/internal/excn"
	"nyra/internal/value"
)

// registerBuiltins installs the global functions every program gets
// without an import: print/len/str/repr/type/range/isinstance. They
// live directly on m.Globals rather than behind internal/module's
// registry, matching the split the teacher draws between "always
// there" builtins and opt-in imported modules.
func registerBuiltins(m *Machine) {
	def := func(name string, fn value.NativeFn) {
		m.Globals.Set(value.StringValue(m.Heap, name), value.NativeFunctionValue(m.Heap, name, fn))
	}

	def("print", func(args []value.Value) (value.Value, *excn.Error) {
		parts := make([]string, len(args))
		for i, a := range args {
			s, err := m.strValue(a)
			if err != nil {
				return value.Value{}, err
			}
			parts[i] = s
		}
		for i, p := range parts {
			if i > 0 {
				m.Out.WriteString(" ")
			}
			m.Out.WriteString(p)
		}
		m.Out.WriteString("\n")
		return value.None(), nil
	})

	def("len", func(args []value.Value) (value.Value, *excn.Error) {
		if len(args) != 1 {
			return value.Value{}, excn.New(excn.TypeError, "len() takes exactly one argument")
		}
		n, err := value.Len(args[0])
		if err != nil {
			return value.Value{}, err
		}
		return value.Int(n), nil
	})

	def("str", func(args []value.Value) (value.Value, *excn.Error) {
		if len(args) != 1 {
			return value.Value{}, excn.New(excn.TypeError, "str() takes exactly one argument")
		}
		s, err := m.strValue(args[0])
		if err != nil {
			return value.Value{}, err
		}
		return value.StringValue(m.Heap, s), nil
	})

	def("repr", func(args []value.Value) (value.Value, *excn.Error) {
		if len(args) != 1 {
			return value.Value{}, excn.New(excn.TypeError, "repr() takes exactly one argument")
		}
		s, err := m.reprValue(args[0])
		if err != nil {
			return value.Value{}, err
		}
		return value.StringValue(m.Heap, s), nil
	})

	def("type", func(args []value.Value) (value.Value, *excn.Error) {
		if len(args) != 1 {
			return value.Value{}, excn.New(excn.TypeError, "type() takes exactly one argument")
		}
		return value.StringValue(m.Heap, value.TypeRepr(args[0])), nil
	})

	def("range", func(args []value.Value) (value.Value, *excn.Error) {
		var start, stop, step int64 = 0, 0, 1
		switch len(args) {
		case 1:
			if !args[0].IsInt() {
				return value.Value{}, excn.New(excn.TypeError, "range() arguments must be integers")
			}
			stop = args[0].AsInt()
		case 2:
			if !args[0].IsInt() || !args[1].IsInt() {
				return value.Value{}, excn.New(excn.TypeError, "range() arguments must be integers")
			}
			start, stop = args[0].AsInt(), args[1].AsInt()
		case 3:
			if !args[0].IsInt() || !args[1].IsInt() || !args[2].IsInt() {
				return value.Value{}, excn.New(excn.TypeError, "range() arguments must be integers")
			}
			start, stop, step = args[0].AsInt(), args[1].AsInt(), args[2].AsInt()
			if step == 0 {
				return value.Value{}, excn.New(excn.ValueError, "range() arg 3 must not be zero")
			}
		default:
			return value.Value{}, excn.New(excn.TypeError, "range() takes 1 to 3 arguments")
		}
		return value.RangeValue(m.Heap, start, stop, step), nil
	})

	def("isinstance", func(args []value.Value) (value.Value, *excn.Error) {
		if len(args) != 2 {
			return value.Value{}, excn.New(excn.TypeError, "isinstance() takes exactly two arguments")
		}
		inst, ok := args[0].Object().(*value.InstanceObject)
		if !ok {
			return value.Bool(false), nil
		}
		class, ok := args[1].Object().(*value.ClassObject)
		if !ok {
			return value.Value{}, excn.New(excn.TypeError, "isinstance() arg 2 must be a class")
		}
		return value.Bool(inst.Class.IsSubclassOf(class)), nil
	})
}
