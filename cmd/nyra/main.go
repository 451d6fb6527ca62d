// Command nyra runs a precompiled bytecode image. This module has no
// scanner/parser/compiler of its own (see spec's host embedding
// surface, SPEC_FULL.md §1): the CLI's job is just init_vm/interpret/
// free_vm over an already-built internal/bytecode.Image.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"

	"nyra/internal/bytecode"
	"nyra/internal/value"
	"nyra/internal/vm"

	_ "nyra/internal/stdlib/cryptomod"
	_ "nyra/internal/stdlib/dbmod"
	_ "nyra/internal/stdlib/idmod"
	_ "nyra/internal/stdlib/netmod"
)

// Exit codes follow the sysexits.h convention the teacher's own CLI
// uses: a clean run is 0, a malformed/undecodable image is a usage
// error (65, EX_DATAERR in spirit), and an uncaught exception at
// runtime is 70 (EX_SOFTWARE).
const (
	exitOK           = 0
	exitCompileError = 65
	exitRuntimeError = 70
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: %s <image.nyc>\n", os.Args[0])
	}
	flag.Parse()
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(exitCompileError)
	}

	path := flag.Arg(0)
	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "nyra: %v\n", err)
		os.Exit(exitCompileError)
	}

	main_, err := bytecode.Decode(data)
	if err != nil {
		fmt.Fprintf(os.Stderr, "nyra: %v\n", err)
		os.Exit(exitCompileError)
	}

	out := bufio.NewWriter(os.Stdout)
	defer out.Flush()

	machine := vm.New(out)
	fn := value.NewFunction(machine.Heap, main_)
	closure := value.NewClosure(machine.Heap, fn, nil)

	_, raised := machine.Interpret(closure)
	out.Flush()
	if raised != nil {
		fmt.Fprintln(os.Stderr, raised.Error())
		os.Exit(exitRuntimeError)
	}
	os.Exit(exitOK)
}
