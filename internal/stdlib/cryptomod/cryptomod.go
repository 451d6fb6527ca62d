// Package cryptomod registers the "crypto" builtin module. The
// teacher repo pulled in golang.org/x/crypto for bcrypt-adjacent
// password obfuscation inside its security-tooling surface; Nyra
// repurposes the same dependency as a plain, security-tool-framing-free
// hashing builtin (see SPEC_FULL.md's DOMAIN STACK section).
package cryptomod

import (
	"encoding/hex"

	"golang.org/x/crypto/blake2b"

	"nyra/internal/excn"
	"nyra/internal/module"
	"nyra/internal/value"
)

func init() {
	module.Register("crypto", load)
}

func load(h *value.Heap) *value.ModuleObject {
	_, mod := value.ModuleValue(h, "crypto")

	mod.Set("blake2b", value.NativeFunctionValue(h, "crypto.blake2b", func(args []value.Value) (value.Value, *excn.Error) {
		if len(args) != 1 || args[0].Object() == nil {
			return value.Value{}, excn.New(excn.TypeError, "crypto.blake2b() takes one string argument")
		}
		sum := blake2b.Sum256([]byte(value.Str(args[0])))
		return value.StringValue(h, hex.EncodeToString(sum[:])), nil
	}))

	mod.Set("blake2b_keyed", value.NativeFunctionValue(h, "crypto.blake2b_keyed", func(args []value.Value) (value.Value, *excn.Error) {
		if len(args) != 2 || args[0].Object() == nil || args[1].Object() == nil {
			return value.Value{}, excn.New(excn.TypeError, "crypto.blake2b_keyed() takes (data, key) string arguments")
		}
		mac, err := blake2b.New256([]byte(value.Str(args[1])))
		if err != nil {
			return value.Value{}, excn.New(excn.ValueError, "crypto.blake2b_keyed: %v", err)
		}
		mac.Write([]byte(value.Str(args[0])))
		return value.StringValue(h, hex.EncodeToString(mac.Sum(nil))), nil
	}))

	return mod
}
