// Package module implements the builtin module loader: import "math"
// resolves to a ModuleObject built by a registered loader function, the
// same registry-and-blank-import pattern database/sql drivers use (see
// internal/stdlib/dbmod, which registers itself here with Register and
// blank-imports SQL drivers that register themselves with database/sql).
// There is no file-based module loader here — this module
// has no parser/compiler of its own (see spec's host embedding
// surface), so only builtin modules exist.
package module

import "nyra/internal/value"

// Loader builds a fresh ModuleObject for one heap. Modules are not
// cached: each Load call builds a new one, and nothing is shared across
// machines, since their exported NativeFunctionObjects close over that
// machine's heap.
type Loader func(h *value.Heap) *value.ModuleObject

var registry = map[string]Loader{}

// Register adds name to the builtin module registry. Called from an
// init() in each module's own file (this package's math/json/time
// loaders included), and from internal/stdlib/* packages the host process
// blank-imports to pull in the optional domain modules.
func Register(name string, loader Loader) {
	registry[name] = loader
}

// Load resolves name through the registry, or reports it unknown.
func Load(h *value.Heap, name string) (*value.ModuleObject, bool) {
	loader, ok := registry[name]
	if !ok {
		return nil, false
	}
	return loader(h), true
}

// Names lists every registered module, for a `help()`-style builtin or
// diagnostic output.
func Names() []string {
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	return names
}
