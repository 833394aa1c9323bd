package driver

import (
	"fmt"
	"os"

	"github.com/mna/mainer"

	"github.com/ember-lang/ember/lang/compiler"
	"github.com/ember-lang/ember/lang/machine"
)

// runFile reads path, compiles and interprets its contents as one script,
// and returns the exit code for whichever phase failed (or exitSuccess if
// the program ran to completion).
func runFile(stdio mainer.Stdio, path string, stressGC, logGC bool) mainer.ExitCode {
	src, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(stdio.Stderr, "Could not read file %q: %s\n", path, err)
		return exitIOError
	}

	vm := machine.New()
	vm.Stdout = stdio.Stdout
	vm.Heap.StressGC = stressGC
	vm.Heap.LogGC = logGC

	return interpret(vm, stdio, string(src))
}

// interpret compiles and runs src against vm, writing any diagnostic to
// stdio.Stderr, and reports the exit code for whichever outcome occurred.
func interpret(vm *machine.VM, stdio mainer.Stdio, src string) mainer.ExitCode {
	fn, err := compiler.Compile(src, vm)
	if err != nil {
		fmt.Fprintln(stdio.Stderr, err)
		return exitCompileError
	}

	if _, err := vm.Interpret(fn); err != nil {
		fmt.Fprintln(stdio.Stderr, err)
		return exitRuntimeError
	}
	return exitSuccess
}
