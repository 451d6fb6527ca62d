package module

import (
	"math"

	"nyra/internal/excn"
	"nyra/internal/value"
)

func init() {
	Register("math", loadMath)
}

func loadMath(h *value.Heap) *value.ModuleObject {
	_, mod := value.ModuleValue(h, "math")
	mod.Set("pi", value.Float(math.Pi))
	mod.Set("e", value.Float(math.E))
	mod.Set("inf", value.Float(math.Inf(1)))
	mod.Set("nan", value.Float(math.NaN()))

	unary := func(name string, fn func(float64) float64) {
		mod.Set(name, value.NativeFunctionValue(h, "math."+name, func(args []value.Value) (value.Value, *excn.Error) {
			if len(args) != 1 || !args[0].IsNumber() {
				return value.Value{}, excn.New(excn.TypeError, "math.%s() takes one numeric argument", name)
			}
			return value.Float(fn(args[0].AsFloat64())), nil
		}))
	}
	unary("sqrt", math.Sqrt)
	unary("floor", math.Floor)
	unary("ceil", math.Ceil)
	unary("fabs", math.Abs)
	unary("sin", math.Sin)
	unary("cos", math.Cos)
	unary("tan", math.Tan)
	unary("log", math.Log)
	unary("log10", math.Log10)
	unary("exp", math.Exp)

	mod.Set("pow", value.NativeFunctionValue(h, "math.pow", func(args []value.Value) (value.Value, *excn.Error) {
		if len(args) != 2 || !args[0].IsNumber() || !args[1].IsNumber() {
			return value.Value{}, excn.New(excn.TypeError, "math.pow() takes two numeric arguments")
		}
		return value.Float(math.Pow(args[0].AsFloat64(), args[1].AsFloat64())), nil
	}))

	return mod
}
