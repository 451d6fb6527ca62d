package module

import (
	"time"

	"nyra/internal/excn"
	"nyra/internal/value"
)

func init() {
	Register("time", loadTime)
}

func loadTime(h *value.Heap) *value.ModuleObject {
	_, mod := value.ModuleValue(h, "time")

	mod.Set("now", value.NativeFunctionValue(h, "time.now", func(args []value.Value) (value.Value, *excn.Error) {
		if len(args) != 0 {
			return value.Value{}, excn.New(excn.TypeError, "time.now() takes no arguments")
		}
		return value.Float(float64(time.Now().UnixNano()) / 1e9), nil
	}))

	mod.Set("sleep", value.NativeFunctionValue(h, "time.sleep", func(args []value.Value) (value.Value, *excn.Error) {
		if len(args) != 1 || !args[0].IsNumber() {
			return value.Value{}, excn.New(excn.TypeError, "time.sleep() takes one numeric argument")
		}
		time.Sleep(time.Duration(args[0].AsFloat64() * float64(time.Second)))
		return value.None(), nil
	}))

	return mod
}
