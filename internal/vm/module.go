package vm

import (
	"log"

	"nyra/internal/excn"
	"nyra/internal/module"
	"nyra/internal/value"

	// Blank-imported so each domain stdlib package's init() registers
	// itself with internal/module, the same registration-by-side-effect
	// pattern the teacher's SQL drivers use (database/sql drivers
	// register themselves on import too).
	_ "nyra/internal/stdlib/cryptomod"
	_ "nyra/internal/stdlib/dbmod"
	_ "nyra/internal/stdlib/idmod"
	_ "nyra/internal/stdlib/netmod"
)

// loadModule resolves a builtin module by name, caching nothing itself:
// module.Load builds a fresh ModuleObject bound to this Machine's heap
// every time, since its NativeFunctionObjects close over the heap a
// specific Machine instance owns.
func (m *Machine) loadModule(name string) (value.Value, *excn.Error) {
	mod, ok := module.Load(m.Heap, name)
	if !ok {
		return value.Value{}, m.runtimeError(excn.NameError, "no module named %q", name)
	}
	log.Printf("module: loaded %q", name)
	return value.ObjectValue(mod), nil
}
